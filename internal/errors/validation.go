package errors

import "fmt"

// ValidationError reports a value that breaks a rule: a marker parameter,
// a manifest field, a package clause
type ValidationError struct {
	*BaseError
	Field      string
	Value      interface{}
	Expected   string
	Actual     string
	Constraint string
}

// NewValidationError reports that field held actual where expected was required
func NewValidationError(field, expected, actual string) *ValidationError {
	return &ValidationError{
		BaseError: New(ValidationErrorCode, fmt.Sprintf("invalid %s: expected %s, got %s", field, expected, actual)),
		Field:     field,
		Expected:  expected,
		Actual:    actual,
	}
}

// NewValidationErrorWithValue reports that value of field violates constraint
func NewValidationErrorWithValue(field string, value interface{}, constraint string) *ValidationError {
	return &ValidationError{
		BaseError:  New(ValidationErrorCode, fmt.Sprintf("invalid %s %v: %s", field, value, constraint)),
		Field:      field,
		Value:      value,
		Constraint: constraint,
	}
}

func (e *ValidationError) WithLocation(loc SourceLocation) *ValidationError {
	e.BaseError.WithLocation(loc)
	return e
}

func (e *ValidationError) WithContext(key string, value interface{}) *ValidationError {
	e.BaseError.WithContext(key, value)
	return e
}

func (e *ValidationError) WithSuggestion(suggestion string) *ValidationError {
	e.BaseError.WithSuggestion(suggestion)
	return e
}

// SyntaxError reports text that could not be parsed: a marker comment, a Go
// file, a hint document
type SyntaxError struct {
	*BaseError
	Token    string
	Position int
}

func NewSyntaxError(message string) *SyntaxError {
	return &SyntaxError{BaseError: New(SyntaxErrorCode, message)}
}

// NewSyntaxErrorWithToken reports the offending token at a byte offset
func NewSyntaxErrorWithToken(message, token string, position int) *SyntaxError {
	e := &SyntaxError{BaseError: New(SyntaxErrorCode, fmt.Sprintf("%s %q", message, token)), Token: token, Position: position}
	e.BaseError.WithContext("token", token)
	return e
}

func (e *SyntaxError) WithLocation(loc SourceLocation) *SyntaxError {
	e.BaseError.WithLocation(loc)
	return e
}

func (e *SyntaxError) WithContext(key string, value interface{}) *SyntaxError {
	e.BaseError.WithContext(key, value)
	return e
}

func (e *SyntaxError) WithSuggestion(suggestion string) *SyntaxError {
	e.BaseError.WithSuggestion(suggestion)
	return e
}

// GenerationError reports a container that could not be rendered or written.
// Stage names the step that failed, such as "setup", "naming" or "format".
type GenerationError struct {
	*BaseError
	GenerationType string
	TargetFile     string
	Stage          string
}

// NewGenerationErrorWithDetails creates a generation error for target at stage
func NewGenerationErrorWithDetails(generationType, target, stage, message string) *GenerationError {
	return &GenerationError{
		BaseError:      New(GenerationErrorCode, fmt.Sprintf("cannot generate %s %s (%s): %s", generationType, target, stage, message)),
		GenerationType: generationType,
		TargetFile:     target,
		Stage:          stage,
	}
}

// WithTargetFile records the file the failed container would have been written to
func (e *GenerationError) WithTargetFile(path string) *GenerationError {
	e.TargetFile = path
	return e.withContext("file", path)
}

func (e *GenerationError) withContext(key string, value interface{}) *GenerationError {
	e.BaseError.WithContext(key, value)
	return e
}
