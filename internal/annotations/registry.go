package annotations

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode"
)

// AnnotationRegistry holds the schema of every marker kind the parser accepts
type AnnotationRegistry interface {
	Register(annotationType AnnotationType, schema AnnotationSchema) error
	GetSchema(annotationType AnnotationType) (AnnotationSchema, error)

	// ListTypes returns the registered marker kinds ordered by kind
	ListTypes() []AnnotationType

	IsRegistered(annotationType AnnotationType) bool
}

type registry struct {
	mu      sync.RWMutex
	schemas map[AnnotationType]AnnotationSchema
}

// NewRegistry creates an empty annotation registry
func NewRegistry() AnnotationRegistry {
	return &registry{schemas: make(map[AnnotationType]AnnotationSchema)}
}

var (
	defaultRegistry     AnnotationRegistry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the shared registry holding the built-in marker schemas
func DefaultRegistry() AnnotationRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		if err := RegisterBuiltinSchemas(defaultRegistry); err != nil {
			panic(fmt.Sprintf("meld: invalid built-in schema: %v", err))
		}
	})
	return defaultRegistry
}

func (r *registry) Register(annotationType AnnotationType, schema AnnotationSchema) error {
	if schema.Type != annotationType {
		return fmt.Errorf("schema for %s does not match marker %s%s", schema.Type, Prefix, annotationType)
	}
	if err := checkSchema(schema); err != nil {
		return fmt.Errorf("invalid schema for %s%s: %w", Prefix, annotationType, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.schemas[annotationType]; taken {
		return fmt.Errorf("marker %s%s is already registered", Prefix, annotationType)
	}
	r.schemas[annotationType] = schema
	return nil
}

func (r *registry) GetSchema(annotationType AnnotationType) (AnnotationSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schema, ok := r.schemas[annotationType]
	if !ok {
		return AnnotationSchema{}, fmt.Errorf("marker %s%s is not registered", Prefix, annotationType)
	}
	return schema, nil
}

func (r *registry) ListTypes() []AnnotationType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]AnnotationType, 0, len(r.schemas))
	for t := range r.schemas {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

func (r *registry) IsRegistered(annotationType AnnotationType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.schemas[annotationType]
	return ok
}

// checkSchema rejects schemas the marker grammar could never satisfy.
// Parameters are written as -Name on the marker line, so names must be
// exported-style identifiers.
func checkSchema(schema AnnotationSchema) error {
	for name, spec := range schema.Parameters {
		if !isFlagName(name) {
			return fmt.Errorf("parameter %q is not a valid marker flag name", name)
		}
		if spec.Type.String() == "unknown" {
			return fmt.Errorf("parameter -%s has unknown type %d", name, spec.Type)
		}
		if spec.DefaultValue == nil {
			continue
		}
		if spec.Required {
			return fmt.Errorf("required parameter -%s cannot have a default", name)
		}
		if got := fmt.Sprintf("%T", spec.DefaultValue); got != spec.Type.String() {
			return fmt.Errorf("default of -%s must be %s, got %s", name, spec.Type, got)
		}
	}

	marker := "//" + Prefix + schema.Type.String()
	for _, example := range schema.Examples {
		if example != marker && !strings.HasPrefix(example, marker+" ") {
			return fmt.Errorf("example %q does not use %s", example, marker)
		}
	}
	return nil
}

func isFlagName(name string) bool {
	for i, r := range name {
		switch {
		case i == 0 && !unicode.IsUpper(r):
			return false
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			return false
		}
	}
	return name != ""
}
