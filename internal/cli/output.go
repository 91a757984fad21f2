package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"diarybook/internal/core"
	"diarybook/internal/storage"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failed (validation, storage, unavailable store)
	ExitCommandError = 2 // Command error (unknown flag, bad arguments, missing configuration)
)

// Error codes reported in structured output.
const (
	ErrCodeValidation  = "validation"
	ErrCodeConnection  = "connection"
	ErrCodeStorage     = "storage"
	ErrCodeUsage       = "usage"
	ErrCodeUnavailable = "unavailable"
	ErrCodeGeneric     = "error"
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// reported is set once the error was written through an OutputFormatter.
	reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// TextWriter is implemented by results with a human-readable rendering.
type TextWriter interface {
	WriteText(w io.Writer) error
}

// OutputFormatter handles text, JSON and YAML output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard structured response for CLI output.
type CLIResponse struct {
	Status string      `json:"status" yaml:"status"`                   // "ok" or "error"
	Data   interface{} `json:"data,omitempty" yaml:"data,omitempty"`   // success payload
	Error  *CLIError   `json:"error,omitempty" yaml:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
	Field   string `json:"field,omitempty" yaml:"field,omitempty"`
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	switch f.Format {
	case "json":
		return f.encodeJSON(CLIResponse{Status: "ok", Data: data})
	case "yaml":
		return f.encodeYAML(CLIResponse{Status: "ok", Data: data})
	}

	if tw, ok := data.(TextWriter); ok {
		return tw.WriteText(f.Writer)
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(cliErr CLIError) error {
	switch f.Format {
	case "json":
		return f.encodeJSON(CLIResponse{Status: "error", Error: &cliErr})
	case "yaml":
		return f.encodeYAML(CLIResponse{Status: "error", Error: &cliErr})
	}

	if cliErr.Field != "" {
		_, err := fmt.Fprintf(f.GetErrWriter(), "Error [%s]: %s (%s)\n", cliErr.Code, cliErr.Message, cliErr.Field)
		return err
	}
	_, err := fmt.Fprintf(f.GetErrWriter(), "Error [%s]: %s\n", cliErr.Code, cliErr.Message)
	return err
}

// Fail reports err through the formatter and returns the ExitError the
// command should return.
func (f *OutputFormatter) Fail(message string, err error) error {
	cliErr := classify(err)
	_ = f.Error(cliErr)
	return &ExitError{Code: ExitFailure, Message: message, Err: err, reported: true}
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

func (f *OutputFormatter) encodeJSON(v interface{}) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (f *OutputFormatter) encodeYAML(v interface{}) error {
	enc := yaml.NewEncoder(f.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// classify maps an operation error onto its structured form.
func classify(err error) CLIError {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		msg := "invalid value"
		if ve.Err != nil {
			msg = ve.Err.Error()
		}
		return CLIError{Code: ErrCodeValidation, Message: msg, Field: ve.Field}
	case storage.IsConnection(err):
		return CLIError{Code: ErrCodeConnection, Message: err.Error()}
	case storage.IsStorage(err):
		return CLIError{Code: ErrCodeStorage, Message: err.Error()}
	default:
		return CLIError{Code: ErrCodeGeneric, Message: err.Error()}
	}
}
