// Package web serves the setup form over HTTP. It only renders the form and
// hands submissions to the setup orchestrator.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/systmms/ogsetup/internal/logging"
	"github.com/systmms/ogsetup/internal/metrics"
	"github.com/systmms/ogsetup/internal/secure"
	"github.com/systmms/ogsetup/internal/setup"
	"github.com/systmms/ogsetup/internal/validation"
)

// Runner runs one setup submission.
type Runner interface {
	Run(ctx context.Context, in setup.Input) setup.Result
	Busy() bool
}

// Server serves the setup form, /metrics and /health.
type Server struct {
	runner Runner
	logger *logging.Logger
	mux    *http.ServeMux
	server *http.Server

	// handler is mux behind cross-origin protection.
	handler http.Handler
}

// errUnreadableKey means the sealed API key could not be opened.
var errUnreadableKey = errors.New("could not read the submitted API key")

// NewServer creates a server handing submissions to runner.
func NewServer(runner Runner, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}

	metrics.InitMetrics()

	s := &Server{runner: runner, logger: logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("/", s.handleForm)
	s.mux.HandleFunc("/setup", s.handleSetup)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	// Browsers mark cross-site form posts; those are refused so another page
	// cannot replace the stored API key.
	s.handler = http.NewCrossOriginProtection().Handler(s.mux)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.render(w, r, http.StatusOK, formView{Region: string(validation.RegionUS)})
}

func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.runner.Busy() {
		s.render(w, r, http.StatusConflict, formView{Messages: []string{setup.ErrBusy.Error()}})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	sealed := secure.SealString(r.PostForm.Get("api_key"))
	defer sealed.Destroy()
	region := r.PostForm.Get("region")

	// The run outlives a disconnecting browser; the orchestrator's timeout
	// bounds it instead.
	result := s.runSealed(context.WithoutCancel(r.Context()), sealed, region)

	status := http.StatusOK
	var violations validation.Violations
	switch {
	case errors.Is(result.Err, errUnreadableKey):
		status = http.StatusInternalServerError
	case errors.Is(result.Err, setup.ErrBusy):
		status = http.StatusConflict
	case errors.As(result.Err, &violations):
		status = http.StatusBadRequest
	case result.Err != nil || !result.OK():
		status = http.StatusBadGateway
	}

	if result.OK() {
		s.logger.Info("Setup completed from %s", r.RemoteAddr)
	} else {
		s.logger.Warn("Setup failed: %s", strings.Join(result.Messages, "; "))
	}

	s.render(w, r, status, formView{
		Region:   region,
		Messages: result.Messages,
		Success:  result.OK(),
	})
}

// runSealed hands the revealed API key to the runner.
func (s *Server) runSealed(ctx context.Context, sealed *secure.Sealed, region string) setup.Result {
	var result setup.Result
	err := sealed.Reveal(func(apiKey string) error {
		result = s.runner.Run(ctx, setup.Input{Credential: apiKey, Region: region})
		return nil
	})
	if err != nil {
		err = fmt.Errorf("%w: %w", errUnreadableKey, err)
		return setup.Result{State: setup.StateFailed, Messages: []string{err.Error()}, Err: err}
	}
	return result
}

type jsonResult struct {
	State    string   `json:"state"`
	Success  bool     `json:"success"`
	Messages []string `json:"messages"`
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, view formView) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		state := setup.StateFailed.String()
		if view.Success {
			state = setup.StateDone.String()
		} else if len(view.Messages) == 0 {
			state = setup.StateIdle.String()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(jsonResult{State: state, Success: view.Success, Messages: view.Messages})
		return
	}

	view.Regions = validation.Realms()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := formTemplate.Execute(w, view); err != nil {
		s.logger.Error("Rendering setup form: %v", err)
	}
}
