// Package errors defines the error hierarchy shared by every meld package.
// Each error carries a code, an optional source location, free-form context
// and suggestions that the CLI renders for the user.
package errors

import (
	"fmt"
	"maps"
)

// MeldError is implemented by every error meld reports
type MeldError interface {
	error
	ErrorCode() ErrorCode
	Location() SourceLocation
	Context() map[string]interface{}
	Suggestions() []string
	Unwrap() error
}

// ErrorCode classifies an error
type ErrorCode int

const (
	UnknownErrorCode ErrorCode = iota
	SyntaxErrorCode
	ValidationErrorCode

	GenerationErrorCode
	TemplateErrorCode
	FileSystemErrorCode
	ConfigurationErrorCode

	// Contribution merging. Keep these last; IsMergeError relies on the order.
	MalformedHintErrorCode
	AmbiguousBindingErrorCode
	DuplicateMapKeyErrorCode
	MalformedFactoryErrorCode
	ExplicitParentParameterErrorCode
	UnresolvedMergeErrorCode
	MissingSupertypeErrorCode
	ScopeCycleErrorCode
)

var codeNames = map[ErrorCode]string{
	SyntaxErrorCode:                  "SyntaxError",
	ValidationErrorCode:              "ValidationError",
	GenerationErrorCode:              "GenerationError",
	TemplateErrorCode:                "TemplateError",
	FileSystemErrorCode:              "FileSystemError",
	ConfigurationErrorCode:           "ConfigurationError",
	MalformedHintErrorCode:           "MalformedHintError",
	AmbiguousBindingErrorCode:        "AmbiguousBindingError",
	DuplicateMapKeyErrorCode:         "DuplicateMapKeyError",
	MalformedFactoryErrorCode:        "MalformedFactoryError",
	ExplicitParentParameterErrorCode: "ExplicitParentParameterError",
	UnresolvedMergeErrorCode:         "UnresolvedMergeError",
	MissingSupertypeErrorCode:        "MissingSupertypeError",
	ScopeCycleErrorCode:              "ScopeCycleError",
}

func (e ErrorCode) String() string {
	if name, ok := codeNames[e]; ok {
		return name
	}
	return "UnknownError"
}

// IsMergeError reports whether the code belongs to contribution merging
func (e ErrorCode) IsMergeError() bool {
	return e >= MalformedHintErrorCode && e <= ScopeCycleErrorCode
}

// SourceLocation points at a declaration or marker
type SourceLocation struct {
	File   string
	Line   int // 1-based, 0 when unknown
	Column int // 1-based, 0 when unknown
}

func (s SourceLocation) String() string {
	switch {
	case s.File == "":
		return "unknown location"
	case s.Line == 0:
		return s.File
	case s.Column == 0:
		return fmt.Sprintf("%s:%d", s.File, s.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
	}
}

// IsEmpty reports whether the location names no file
func (s SourceLocation) IsEmpty() bool {
	return s.File == ""
}

// BaseError is the common MeldError implementation embedded by the typed errors
type BaseError struct {
	Code        ErrorCode
	Message     string
	Loc         SourceLocation
	Cause       error
	ContextData map[string]interface{}
	Hints       []string
}

func (e *BaseError) Error() string {
	if e.Loc.IsEmpty() {
		return e.Message
	}
	return e.Loc.String() + ": " + e.Message
}

func (e *BaseError) ErrorCode() ErrorCode     { return e.Code }
func (e *BaseError) Location() SourceLocation { return e.Loc }
func (e *BaseError) Suggestions() []string    { return e.Hints }
func (e *BaseError) Unwrap() error            { return e.Cause }

// Context returns a copy of the context data
func (e *BaseError) Context() map[string]interface{} {
	out := make(map[string]interface{}, len(e.ContextData))
	maps.Copy(out, e.ContextData)
	return out
}

// WithLocation sets the source location
func (e *BaseError) WithLocation(loc SourceLocation) *BaseError {
	e.Loc = loc
	return e
}

// WithCause sets the wrapped error
func (e *BaseError) WithCause(cause error) *BaseError {
	e.Cause = cause
	return e
}

// WithContext records one context entry
func (e *BaseError) WithContext(key string, value interface{}) *BaseError {
	if e.ContextData == nil {
		e.ContextData = make(map[string]interface{})
	}
	e.ContextData[key] = value
	return e
}

// WithSuggestion appends a fix the user can try
func (e *BaseError) WithSuggestion(suggestion string) *BaseError {
	e.Hints = append(e.Hints, suggestion)
	return e
}

// WithSuggestions appends several fixes
func (e *BaseError) WithSuggestions(suggestions ...string) *BaseError {
	e.Hints = append(e.Hints, suggestions...)
	return e
}

// New creates a BaseError
func New(code ErrorCode, message string) *BaseError {
	return &BaseError{Code: code, Message: message}
}

// Wrap creates a BaseError around cause
func Wrap(code ErrorCode, message string, cause error) *BaseError {
	return &BaseError{Code: code, Message: message, Cause: cause}
}
