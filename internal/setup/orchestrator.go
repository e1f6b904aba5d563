package setup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	dserrors "github.com/systmms/ogsetup/internal/errors"
	"github.com/systmms/ogsetup/internal/logging"
	"github.com/systmms/ogsetup/internal/metrics"
	"github.com/systmms/ogsetup/internal/validation"
	"github.com/systmms/ogsetup/pkg/store"
)

// SuccessMessage is the single message of a successful run.
const SuccessMessage = "Success!"

// ErrBusy is returned when Run is called while another run is in flight.
var ErrBusy = errors.New("a setup run is already in progress")

// State is a step of a setup run.
type State int

const (
	StateIdle State = iota
	StateValidating
	StatePersisting
	StateReloading
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StatePersisting:
		return "persisting"
	case StateReloading:
		return "reloading"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Settings names what a run writes and where.
type Settings struct {
	App                string
	ConfFile           string
	Stanza             string
	Property           string
	CredentialUsername string
	// Realms are swept for stale copies of the credential.
	Realms []string
	// Timeout bounds a whole run. Zero means no deadline beyond the caller's.
	Timeout time.Duration
}

// DefaultSettings returns the settings of the Opsgenie app.
func DefaultSettings() Settings {
	return Settings{
		App:                "opsgenie",
		ConfFile:           "app",
		Stanza:             "install",
		Property:           "is_configured",
		CredentialUsername: "api_key",
		Realms:             validation.Realms(),
		Timeout:            30 * time.Second,
	}
}

// Input is what the user submitted.
type Input struct {
	Credential string
	Region     string
}

// Result is the outcome of a run as shown to the user.
type Result struct {
	State    State
	Messages []string
	Err      error
}

// OK reports whether the run completed.
func (r Result) OK() bool {
	return r.State == StateDone && r.Err == nil
}

// Observer is told about every state change of a run.
type Observer func(from, to State)

// Orchestrator drives a setup submission through validation, persistence
// and reload. At most one run is in flight at a time.
type Orchestrator struct {
	upserter *Upserter
	reloader store.Reloader
	settings Settings
	logger   *logging.Logger
	metrics  *metrics.Recorder
	observer Observer

	mu      sync.Mutex
	running bool
	state   State
}

// NewOrchestrator creates an orchestrator writing to s and reloading through r.
func NewOrchestrator(s store.Store, r store.Reloader, settings Settings, logger *logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Orchestrator{
		upserter: NewUpserter(s, settings.Realms, logger),
		reloader: r,
		settings: settings,
		logger:   logger,
		metrics:  metrics.NewRecorder(),
		state:    StateIdle,
	}
}

// WithObserver sets the transition observer.
func (o *Orchestrator) WithObserver(observer Observer) *Orchestrator {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.observer = observer
	return o
}

// State returns the current state. It is the terminal state of the last run
// when nothing is in flight.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.state
}

// Busy reports whether a run is in flight.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.running
}

// Run validates in, stores the credential, marks the app configured and
// reloads it. The first failure ends the run; nothing is retried.
//
// A reload failure is reported as a failure even though the credential and
// flag are already persisted.
func (o *Orchestrator) Run(ctx context.Context, in Input) Result {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return Result{State: StateFailed, Messages: []string{ErrBusy.Error()}, Err: ErrBusy}
	}
	o.running = true
	o.mu.Unlock()

	start := time.Now()
	result := o.run(ctx, in)

	o.mu.Lock()
	o.running = false
	o.mu.Unlock()

	o.metrics.RecordSetupRun(result.State.String(), time.Since(start).Seconds())
	return result
}

func (o *Orchestrator) run(ctx context.Context, in Input) Result {
	if o.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.settings.Timeout)
		defer cancel()
	}

	o.transition(StateValidating)
	credential := validation.Sanitize(in.Credential)
	region := in.Region
	if err := validation.ValidateInputs(credential, region).Err(); err != nil {
		o.logger.Debug("Setup input rejected: %v", err)
		return o.fail(err)
	}

	o.transition(StatePersisting)
	if err := o.upserter.EnsureSecret(ctx, region, o.settings.CredentialUsername, credential); err != nil {
		return o.fail(err)
	}
	o.logger.Debug("Stored %s in realm %s", o.settings.CredentialUsername, region)

	flag := map[string]string{o.settings.Property: "true"}
	if err := o.upserter.EnsureSectionProperties(ctx, o.settings.ConfFile, o.settings.Stanza, flag); err != nil {
		return o.fail(err)
	}

	o.transition(StateReloading)
	if err := o.reloader.Reload(ctx, o.settings.App); err != nil {
		o.logger.Warn("Configuration saved but reloading %s failed", o.settings.App)
		return o.fail(fmt.Errorf("reloading app %s: %w", o.settings.App, err))
	}

	o.transition(StateDone)
	return Result{State: StateDone, Messages: []string{SuccessMessage}}
}

func (o *Orchestrator) fail(err error) Result {
	o.transition(StateFailed)
	return Result{State: StateFailed, Messages: dserrors.Messages(err), Err: err}
}

func (o *Orchestrator) transition(to State) {
	o.mu.Lock()
	from := o.state
	o.state = to
	observer := o.observer
	o.mu.Unlock()

	o.logger.Debug("Setup %s -> %s", from, to)
	if observer != nil {
		observer(from, to)
	}
}
