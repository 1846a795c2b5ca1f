package annotations

import (
	"fmt"
	"slices"
	"strings"
)

// Prefix opens every marker comment
const Prefix = "meld::"

// AnnotationType is the kind of a marker, the word after the prefix
type AnnotationType int

const (
	MergeAnnotation AnnotationType = iota
	ContributesAnnotation
	BindingAnnotation
	MultibindingAnnotation
	SubcomponentAnnotation
	FactoryAnnotation
)

// annotationNames is indexed by AnnotationType
var annotationNames = []string{"merge", "contributes", "binding", "multibinding", "subcomponent", "factory"}

func (a AnnotationType) String() string {
	if a < 0 || int(a) >= len(annotationNames) {
		return "unknown"
	}
	return annotationNames[a]
}

// ParseAnnotationType maps a marker word to its type
func ParseAnnotationType(s string) (AnnotationType, error) {
	if i := slices.Index(annotationNames, s); i >= 0 {
		return AnnotationType(i), nil
	}
	return 0, fmt.Errorf("unknown annotation type: %s", s)
}

// IsContributing reports whether the marker turns its declaration into a
// contribution. Merge roots and factories only describe containers.
func (a AnnotationType) IsContributing() bool {
	return a != MergeAnnotation && a != FactoryAnnotation && a.String() != "unknown"
}

// IsMarker reports whether a comment line is a meld marker
func IsMarker(comment string) bool {
	content := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(comment), "//"))
	return strings.HasPrefix(content, Prefix)
}

// SourceLocation is where a marker was written
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// ParsedAnnotation is one marker with its parameters converted to the types
// its schema declares
type ParsedAnnotation struct {
	Type AnnotationType

	// Target is the positional type reference: a scope, or the subcomponent
	// of a factory
	Target     string
	Parameters map[string]interface{}
	Location   SourceLocation
	Raw        string
}

// paramValue returns the parameter name as a T, else the first default, else the zero T
func paramValue[T any](p *ParsedAnnotation, name string, defaults []T) T {
	if v, ok := p.Parameters[name].(T); ok {
		return v
	}
	if len(defaults) > 0 {
		return defaults[0]
	}
	var zero T
	return zero
}

func (p *ParsedAnnotation) GetString(name string, defaultValue ...string) string {
	return paramValue(p, name, defaultValue)
}

func (p *ParsedAnnotation) GetBool(name string, defaultValue ...bool) bool {
	return paramValue(p, name, defaultValue)
}

func (p *ParsedAnnotation) GetInt(name string, defaultValue ...int) int {
	return paramValue(p, name, defaultValue)
}

func (p *ParsedAnnotation) GetStringSlice(name string, defaultValue ...[]string) []string {
	return paramValue(p, name, defaultValue)
}

func (p *ParsedAnnotation) HasParameter(name string) bool {
	_, ok := p.Parameters[name]
	return ok
}

// ParameterType is the Go type a marker parameter converts to
type ParameterType int

const (
	StringType ParameterType = iota
	BoolType
	IntType
	StringSliceType
)

var parameterTypeNames = map[ParameterType]string{
	StringType:      "string",
	BoolType:        "bool",
	IntType:         "int",
	StringSliceType: "[]string",
}

func (p ParameterType) String() string {
	if name, ok := parameterTypeNames[p]; ok {
		return name
	}
	return "unknown"
}

// ParameterSpec describes one -Name parameter of a marker
type ParameterSpec struct {
	Type         ParameterType
	Required     bool
	DefaultValue interface{}
	Description  string
	Validator    func(interface{}) error
}

// CustomValidator checks rules spanning several parameters
type CustomValidator func(*ParsedAnnotation) error

// AnnotationSchema describes the accepted shape of one marker kind
type AnnotationSchema struct {
	Type              AnnotationType
	Description       string
	TargetRequired    bool
	TargetDescription string
	Parameters        map[string]ParameterSpec
	Validators        []CustomValidator
	Examples          []string
}
