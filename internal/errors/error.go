package errors

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"os"
)

// Category represents the type of error.
type Category string

const (
	CategoryCompose  Category = "compose"
	CategoryProtocol Category = "protocol"
	CategoryEngine   Category = "engine"
	CategoryPlugin   Category = "plugin"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
	CategoryServer   Category = "server"
)

// Location represents a position in a file, e.g. a JSON syntax error in
// vmorph.json.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// MorphError is a structured error with a registry code, an optional file
// location and a fix suggestion.
type MorphError struct {
	// Code is a unique error identifier (e.g., "M001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the file position where the error occurred.
	Location *Location

	// Context contains the lines surrounding Location.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Coder is implemented by errors that carry a registry code, such as the
// composition errors of package morph.
type Coder interface {
	Code() string
}

// Error implements the error interface.
func (e *MorphError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *MorphError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds a file position to the error.
func (e *MorphError) WithLocation(file string, line, column int) *MorphError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, 5)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *MorphError) WithSuggestion(s string) *MorphError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *MorphError) WithDetail(d string) *MorphError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *MorphError) Wrap(err error) *MorphError {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around the specified line number from a file.
func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines
}

// New creates a MorphError from a registered error code.
func New(code string) *MorphError {
	template, ok := registry[code]
	if !ok {
		return &MorphError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &MorphError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new MorphError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *MorphError {
	return &MorphError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a MorphError. A *MorphError anywhere
// in the chain is returned as is. Otherwise the code of the first Coder in
// the chain wins over fallback.
func FromError(err error, fallback string) *MorphError {
	if err == nil {
		return nil
	}
	var me *MorphError
	if stderrors.As(err, &me) {
		return me
	}
	code := fallback
	var c Coder
	if stderrors.As(err, &c) {
		if _, ok := registry[c.Code()]; ok {
			code = c.Code()
		}
	}
	return New(code).Wrap(err)
}

// CodeOf returns the registry code carried by err, or "".
func CodeOf(err error) string {
	var me *MorphError
	if stderrors.As(err, &me) {
		return me.Code
	}
	var c Coder
	if stderrors.As(err, &c) {
		return c.Code()
	}
	return ""
}
