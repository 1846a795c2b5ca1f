package annotations

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/toyz/meld/internal/errors"
)

// Parser parses //meld:: marker comments into typed annotations
type Parser struct {
	parser   *participle.Parser[marker]
	registry AnnotationRegistry
}

// marker is the grammar root of one marker comment
type marker struct {
	Kind   string   `parser:"Prefix @Ident"`
	Target string   `parser:"@Ident?"`
	Params []*param `parser:"@@*"`
}

// param is a -Key or -Key=value[,value...] option
type param struct {
	Key    string   `parser:"Dash @Ident"`
	Values []string `parser:"( Equals @(String | Number | Ident) ( Comma @(String | Number | Ident) )* )?"`
}

var markerLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Prefix", Pattern: `//\s*meld::`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Number", Pattern: `-?[0-9]+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)*`},
	{Name: "Dash", Pattern: `-`},
	{Name: "Equals", Pattern: `=`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// NewParser creates a marker parser validating against registry.
// A nil registry uses the built-in schemas.
func NewParser(registry AnnotationRegistry) *Parser {
	if registry == nil {
		registry = DefaultRegistry()
	}

	parser := participle.MustBuild[marker](
		participle.Lexer(markerLexer),
		participle.Elide("Whitespace"),
		participle.Unquote("String"),
		participle.UseLookahead(2),
	)

	return &Parser{
		parser:   parser,
		registry: registry,
	}
}

// ParseAnnotation parses a single marker comment
func (p *Parser) ParseAnnotation(comment string, location SourceLocation) (*ParsedAnnotation, error) {
	loc := errors.SourceLocation(location)
	comment = strings.TrimSpace(comment)

	parsed, err := p.parser.ParseString(location.File, comment)
	if err != nil {
		return nil, errors.WrapParseError("marker", err).
			WithLocation(loc).
			WithContext("marker", comment)
	}

	annotationType, err := ParseAnnotationType(parsed.Kind)
	if err != nil {
		return nil, errors.NewSyntaxErrorWithToken("unknown marker type", parsed.Kind, 0).
			WithLocation(loc).
			WithSuggestion(fmt.Sprintf("Use one of: %s", strings.Join(p.typeNames(), ", ")))
	}

	schema, err := p.registry.GetSchema(annotationType)
	if err != nil {
		return nil, errors.NewSyntaxError(err.Error()).WithLocation(loc)
	}

	annotation := &ParsedAnnotation{
		Type:       annotationType,
		Target:     parsed.Target,
		Parameters: make(map[string]interface{}),
		Location:   location,
		Raw:        comment,
	}

	for _, item := range parsed.Params {
		spec, exists := schema.Parameters[item.Key]
		if !exists {
			return nil, errors.NewValidationError(item.Key, "a parameter of "+annotationType.String(), "unknown parameter").
				WithLocation(loc).
				WithSuggestion(fmt.Sprintf("Valid parameters: %s", strings.Join(parameterNames(schema), ", ")))
		}
		if annotation.HasParameter(item.Key) {
			return nil, errors.NewValidationError(item.Key, "a single occurrence", "duplicate parameter").
				WithLocation(loc)
		}

		value, err := convertParameterValue(spec, item.Values)
		if err != nil {
			return nil, errors.NewValidationErrorWithValue(item.Key, item.Values, err.Error()).
				WithLocation(loc)
		}
		if spec.Validator != nil {
			if err := spec.Validator(value); err != nil {
				return nil, errors.NewValidationErrorWithValue(item.Key, value, err.Error()).
					WithLocation(loc)
			}
		}
		annotation.Parameters[item.Key] = value
	}

	if err := p.validateAgainstSchema(annotation, schema); err != nil {
		return nil, err
	}

	return annotation, nil
}

// convertParameterValue converts raw values to the parameter's declared type.
// A flag without a value means true for booleans and the default otherwise.
func convertParameterValue(spec ParameterSpec, values []string) (interface{}, error) {
	if len(values) == 0 {
		if spec.Type == BoolType {
			return true, nil
		}
		if spec.DefaultValue != nil {
			return spec.DefaultValue, nil
		}
		return nil, fmt.Errorf("expected a %s value", spec.Type)
	}

	switch spec.Type {
	case StringSliceType:
		return values, nil
	case IntType:
		if len(values) > 1 {
			return nil, fmt.Errorf("expected a single int value, got %d values", len(values))
		}
		n, err := strconv.Atoi(values[0])
		if err != nil {
			return nil, fmt.Errorf("'%s' is not an int", values[0])
		}
		return n, nil
	case BoolType:
		if len(values) > 1 {
			return nil, fmt.Errorf("expected a single bool value, got %d values", len(values))
		}
		b, err := strconv.ParseBool(values[0])
		if err != nil {
			return nil, fmt.Errorf("'%s' is not a bool", values[0])
		}
		return b, nil
	default:
		if len(values) > 1 {
			return nil, fmt.Errorf("expected a single value, got %d values", len(values))
		}
		return values[0], nil
	}
}

// validateAgainstSchema checks target presence, required parameters and custom validators
func (p *Parser) validateAgainstSchema(annotation *ParsedAnnotation, schema AnnotationSchema) error {
	loc := errors.SourceLocation(annotation.Location)

	if schema.TargetRequired && annotation.Target == "" {
		return errors.NewValidationError("target", schema.TargetDescription, "nothing").
			WithLocation(loc).
			WithSuggestion(schemaExample(schema))
	}
	if annotation.Target != "" {
		if err := ValidateTypeRef(annotation.Target); err != nil {
			return errors.NewValidationErrorWithValue("target", annotation.Target, err.Error()).
				WithLocation(loc)
		}
	}

	for paramName, paramSpec := range schema.Parameters {
		if paramSpec.Required && !annotation.HasParameter(paramName) {
			return errors.NewValidationError(paramName, "a value", "nothing").
				WithLocation(loc).
				WithSuggestion(schemaExample(schema))
		}
	}

	for _, validator := range schema.Validators {
		if err := validator(annotation); err != nil {
			return errors.NewValidationErrorWithValue(annotation.Type.String(), annotation.Raw, err.Error()).
				WithLocation(loc)
		}
	}

	return nil
}

// ParseComments parses every marker among the lines of a doc comment, skipping other lines
func (p *Parser) ParseComments(lines []string, location SourceLocation) ([]*ParsedAnnotation, error) {
	var result []*ParsedAnnotation
	for i, line := range lines {
		if !IsMarker(line) {
			continue
		}
		loc := location
		if loc.Line > 0 {
			loc.Line += i
		}
		annotation, err := p.ParseAnnotation(line, loc)
		if err != nil {
			return nil, err
		}
		result = append(result, annotation)
	}
	return result, nil
}

func (p *Parser) typeNames() []string {
	types := p.registry.ListTypes()
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.String())
	}
	return names
}

func parameterNames(schema AnnotationSchema) []string {
	names := make([]string, 0, len(schema.Parameters))
	for name := range schema.Parameters {
		names = append(names, "-"+name)
	}
	slices.Sort(names)
	return names
}

func schemaExample(schema AnnotationSchema) string {
	if len(schema.Examples) == 0 {
		return ""
	}
	return "Example: " + schema.Examples[0]
}
