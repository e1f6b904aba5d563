package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/systmms/ogsetup/internal/validation"
	"github.com/systmms/ogsetup/pkg/store"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// CommandError carries the process exit code a command should end with
type CommandError struct {
	Command  string
	ExitCode int
	Message  string
	Err      error
}

func (e CommandError) Error() string {
	msg := fmt.Sprintf("Command '%s' failed", e.Command)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit code: %d)", e.ExitCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e CommandError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit code carried by err, or 1.
func ExitCode(err error) int {
	var cmdErr CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode != 0 {
		return cmdErr.ExitCode
	}
	return 1
}

// StoreFailure wraps a splunkd error with context and a suggestion
func StoreFailure(operation string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("splunkd error during %s", operation),
		Details:    err.Error(),
		Suggestion: storeSuggestion(err),
		Err:        err,
	}
}

// storeSuggestion returns helpful suggestions based on the store error
func storeSuggestion(err error) string {
	if store.IsUnauthorized(err) {
		return "Run 'ogsetup login' or set SPLUNK_TOKEN to authenticate with splunkd"
	}
	if errors.Is(err, store.ErrForbidden) {
		return "The splunkd user needs the admin_all_objects and list_storage_passwords capabilities"
	}
	if store.IsNotFound(err) {
		return "Verify the app name and namespace owner in ogsetup.yaml"
	}

	errStr := err.Error()
	if strings.Contains(errStr, "x509") || strings.Contains(errStr, "certificate") {
		return "splunkd uses a self-signed certificate by default. Set 'insecure_skip_verify: true' or pass --insecure"
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return "The operation timed out. Check that splunkd is reachable or raise splunkd.timeout_ms"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check splunkd.url (the management port is usually 8089)"
	}

	return ""
}

// Messages turns a setup failure into the ordered list of lines shown to the
// user. Validation failures yield one line per violation, store rejections
// yield the store's own messages, anything else yields its string form.
func Messages(err error) []string {
	if err == nil {
		return nil
	}

	var violations validation.Violations
	if errors.As(err, &violations) {
		return violations.Messages()
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		if lines := storeErr.Lines(); len(lines) > 0 {
			return lines
		}
		return []string{storeErr.Error()}
	}

	return []string{err.Error()}
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Already a user-friendly error
	var userErr UserError
	if errors.As(err, &userErr) {
		return err
	}
	var configErr ConfigError
	if errors.As(err, &configErr) {
		return err
	}
	var cmdErr CommandError
	if errors.As(err, &cmdErr) {
		return err
	}

	// Unwrap to get the root cause
	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	errStr := rootErr.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	return err
}
