package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Data-quality problems found or backend call failed
	ExitCommandError = 2 // Command error (bad flags, unreadable file, invalid URL)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
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
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter renders command results as text, JSON, or YAML.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the envelope for structured output.
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success writes data. In text mode text is called to render it.
func (f *OutputFormatter) Success(data any, text func(w io.Writer)) error {
	switch f.Format {
	case "json", "yaml":
		return f.encode(CLIResponse{Status: "ok", Data: data})
	default:
		text(f.Writer)
		return nil
	}
}

// Error writes an error report.
func (f *OutputFormatter) Error(message string, details any) error {
	switch f.Format {
	case "json", "yaml":
		return f.encode(CLIResponse{Status: "error", Error: &CLIError{Message: message, Details: details}})
	default:
		fmt.Fprintf(f.Writer, "Error: %s\n", message)
		if f.Verbose && details != nil {
			fmt.Fprintf(f.Writer, "Details: %v\n", details)
		}
		return nil
	}
}

// VerboseLog writes a diagnostic line to ErrWriter when verbose is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

func (f *OutputFormatter) encode(v any) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	out, err := toYAML(v)
	if err != nil {
		return err
	}
	_, err = f.Writer.Write(out)
	return err
}

// toYAML renders v using its JSON field names. JSON is valid YAML, so the
// JSON encoding is parsed into a node tree and re-emitted in block style,
// keeping key order.
func toYAML(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	clearStyle(&node)
	return yaml.Marshal(&node)
}

func clearStyle(n *yaml.Node) {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		n.Style = 0
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" && n.Style == yaml.DoubleQuotedStyle {
		n.Style = 0
	}
	for _, c := range n.Content {
		clearStyle(c)
	}
}

// backendFailure reports a failed backend call and converts it into an
// ExitError.
func backendFailure(f *OutputFormatter, what string, err error) error {
	_ = f.Error(fmt.Sprintf("%s: %v", what, err), nil)
	return WrapExitError(ExitFailure, what, err)
}
