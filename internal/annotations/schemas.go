package annotations

// Built-in marker schemas

// MergeAnnotationSchema defines the schema for //meld::merge markers
var MergeAnnotationSchema = AnnotationSchema{
	Type:              MergeAnnotation,
	Description:       "Requests a composed container for a scope",
	TargetRequired:    true,
	TargetDescription: "scope marker type",
	Parameters: map[string]ParameterSpec{
		"Excludes": typeRefListSpec("Contributions left out of the container and its subcomponents"),
	},
	Examples: []string{
		"//meld::merge AppScope",
		"//meld::merge scopes.App -Excludes=net.FakeClient,net.DebugModule",
	},
}

// ContributesAnnotationSchema defines the schema for //meld::contributes markers
var ContributesAnnotationSchema = AnnotationSchema{
	Type:              ContributesAnnotation,
	Description:       "Contributes a module interface to a scope",
	TargetRequired:    true,
	TargetDescription: "scope marker type",
	Parameters: map[string]ParameterSpec{
		"Replaces": typeRefListSpec("Contributions superseded by this module"),
	},
	Examples: []string{
		"//meld::contributes AppScope",
		"//meld::contributes scopes.App -Replaces=net.DefaultModule",
	},
}

// BindingAnnotationSchema defines the schema for //meld::binding markers
var BindingAnnotationSchema = AnnotationSchema{
	Type:              BindingAnnotation,
	Description:       "Binds an implementation to an interface in a scope",
	TargetRequired:    true,
	TargetDescription: "scope marker type",
	Parameters: map[string]ParameterSpec{
		"Bound":    typeRefSpec(false, "Interface the implementation is exposed as; inferred when omitted"),
		"Named":    {Type: StringType, Description: "Qualifier separating bindings of the same interface", Validator: ValidateQualifier},
		"Rank":     {Type: StringType, DefaultValue: "normal", Description: "Integer priority or normal, high, highest", Validator: ValidateRank},
		"Replaces": typeRefListSpec("Contributions superseded by this binding"),
	},
	Examples: []string{
		"//meld::binding AppScope",
		"//meld::binding AppScope -Bound=log.Logger -Named=audit",
		"//meld::binding AppScope -Rank=high",
		"//meld::binding AppScope -Replaces=log.StdoutLogger",
	},
}

// MultibindingAnnotationSchema defines the schema for //meld::multibinding markers
var MultibindingAnnotationSchema = AnnotationSchema{
	Type:              MultibindingAnnotation,
	Description:       "Adds an implementation to a set or map collection in a scope",
	TargetRequired:    true,
	TargetDescription: "scope marker type",
	Parameters: map[string]ParameterSpec{
		"Bound":     typeRefSpec(false, "Element interface of the collection; inferred when omitted"),
		"Named":     {Type: StringType, Description: "Qualifier separating collections of the same interface", Validator: ValidateQualifier},
		"StringKey": {Type: StringType, Description: "Collects into map[string]Bound under this key", Validator: mapKeyValidator("string")},
		"IntKey":    {Type: StringType, Description: "Collects into map[int]Bound under this key", Validator: mapKeyValidator("int")},
		"Int64Key":  {Type: StringType, Description: "Collects into map[int64]Bound under this key", Validator: mapKeyValidator("int64")},
		"Replaces":  typeRefListSpec("Contributions superseded by this multibinding"),
	},
	Validators: []CustomValidator{ValidateSingleMapKey},
	Examples: []string{
		"//meld::multibinding AppScope",
		`//meld::multibinding AppScope -Bound=plugin.Plugin -StringKey="metrics"`,
		"//meld::multibinding AppScope -IntKey=3",
	},
}

// SubcomponentAnnotationSchema defines the schema for //meld::subcomponent markers
var SubcomponentAnnotationSchema = AnnotationSchema{
	Type:              SubcomponentAnnotation,
	Description:       "Nests a child container with its own scope under a parent scope",
	TargetRequired:    true,
	TargetDescription: "scope of the child container",
	Parameters: map[string]ParameterSpec{
		"Parent":   typeRefSpec(true, "Scope the subcomponent is contributed to"),
		"Excludes": typeRefListSpec("Contributions left out of the child container"),
		"Replaces": typeRefListSpec("Subcomponents superseded by this one"),
	},
	Examples: []string{
		"//meld::subcomponent RequestScope -Parent=AppScope",
		"//meld::subcomponent scopes.Session -Parent=scopes.App -Replaces=legacy.SessionComponent",
	},
}

// FactoryAnnotationSchema defines the schema for //meld::factory markers
var FactoryAnnotationSchema = AnnotationSchema{
	Type:              FactoryAnnotation,
	Description:       "Declares the interface that creates a subcomponent from its parent",
	TargetRequired:    true,
	TargetDescription: "subcomponent interface created by the factory",
	Parameters:        map[string]ParameterSpec{},
	Examples: []string{
		"//meld::factory RequestComponent",
	},
}

// BuiltinSchemas lists every built-in marker schema
var BuiltinSchemas = []AnnotationSchema{
	MergeAnnotationSchema,
	ContributesAnnotationSchema,
	BindingAnnotationSchema,
	MultibindingAnnotationSchema,
	SubcomponentAnnotationSchema,
	FactoryAnnotationSchema,
}

// RegisterBuiltinSchemas registers every built-in marker schema
func RegisterBuiltinSchemas(r AnnotationRegistry) error {
	for _, schema := range BuiltinSchemas {
		if err := r.Register(schema.Type, schema); err != nil {
			return err
		}
	}
	return nil
}
