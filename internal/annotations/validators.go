package annotations

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/toyz/meld/internal/models"
)

var typeRefPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

// mapKeyParameters maps each key parameter to the key type it produces
var mapKeyParameters = map[string]models.MapKeyType{
	"StringKey": models.MapKeyString,
	"IntKey":    models.MapKeyInt,
	"Int64Key":  models.MapKeyInt64,
}

// ValidateTypeRef validates a Go type reference written as Name or pkg.Name
func ValidateTypeRef(v interface{}) error {
	ref, ok := v.(string)
	if !ok {
		return fmt.Errorf("expected a type reference, got %T", v)
	}
	if !typeRefPattern.MatchString(ref) {
		return fmt.Errorf("'%s' is not a type reference (expected Name or pkg.Name)", ref)
	}
	return nil
}

// ValidateTypeRefList validates a comma separated list of type references
func ValidateTypeRefList(v interface{}) error {
	refs, ok := v.([]string)
	if !ok {
		return fmt.Errorf("expected a list of type references, got %T", v)
	}
	for _, ref := range refs {
		if err := ValidateTypeRef(ref); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRank accepts integers and the named ranks
func ValidateRank(v interface{}) error {
	_, err := models.ParseRank(fmt.Sprint(v))
	return err
}

// ValidateQualifier rejects empty qualifiers
func ValidateQualifier(v interface{}) error {
	if strings.TrimSpace(fmt.Sprint(v)) == "" {
		return fmt.Errorf("qualifier cannot be empty")
	}
	return nil
}

func mapKeyValidator(keyType models.MapKeyType) func(interface{}) error {
	return func(v interface{}) error {
		_, err := models.NewMapKey(keyType, fmt.Sprint(v))
		return err
	}
}

// ValidateSingleMapKey rejects multibindings that declare more than one key
func ValidateSingleMapKey(annotation *ParsedAnnotation) error {
	var found []string
	for name := range mapKeyParameters {
		if annotation.HasParameter(name) {
			found = append(found, "-"+name)
		}
	}
	if len(found) > 1 {
		return fmt.Errorf("a multibinding takes at most one map key, got %s", strings.Join(found, " and "))
	}
	return nil
}

// MapKeyOf returns the map key declared on a multibinding marker, if any
func MapKeyOf(annotation *ParsedAnnotation) (*models.MapKey, error) {
	for name, keyType := range mapKeyParameters {
		if annotation.HasParameter(name) {
			return models.NewMapKey(keyType, annotation.GetString(name))
		}
	}
	return nil, nil
}

// typeRefSpec returns a standard single type reference parameter specification
func typeRefSpec(required bool, description string) ParameterSpec {
	return ParameterSpec{
		Type:        StringType,
		Required:    required,
		Description: description,
		Validator:   ValidateTypeRef,
	}
}

// typeRefListSpec returns a standard type reference list parameter specification
func typeRefListSpec(description string) ParameterSpec {
	return ParameterSpec{
		Type:        StringSliceType,
		Description: description,
		Validator:   ValidateTypeRefList,
	}
}
