package emitter

import (
	"fmt"

	"github.com/toyz/meld/internal/errors"
	"github.com/toyz/meld/internal/models"
)

type fileData struct {
	Root    string
	Scope   string
	Package string
	Imports string
	Node    nodeData
}

type nodeData struct {
	TypeName    string
	ModulesName string
	ScopeName   string
	Parent      string
	IsRoot      bool
	Modules     []string
	Params      []paramData
	Bindings    []bindingData
	Sets        []collectionData
	Maps        []collectionData
	Factories   []factoryData
	Assertions  []assertionData
}

type paramData struct {
	Field string
	Arg   string
	Type  string
}

type bindingData struct {
	Receiver string
	Method   string
	Bound    string
	Impl     string
	Source   string
}

type collectionData struct {
	Receiver string
	Method   string
	Element  string
	KeyType  string
	Entries  []entryData
}

type entryData struct {
	Key  string
	Impl string
}

type factoryData struct {
	Receiver  string
	Method    string
	Child     string
	Returns   string
	ScopeName string
	Params    []paramData
}

type assertionData struct {
	Bound string
	Impl  string
}

// buildNode prepares the template data of one container
func buildNode(root models.MergeRoot, node *models.ComposedContainer, typeName string, im *ImportManager) (*nodeData, error) {
	data := &nodeData{
		TypeName:    typeName,
		ModulesName: typeName + "Modules",
		ScopeName:   node.Scope.Identity().Name(),
		IsRoot:      node.IsRoot,
	}
	if node.Parent != nil {
		data.Parent = containerName(root, node.Parent.Declaration, false)
	}

	names := reserved(node)
	for _, m := range node.Modules {
		data.Modules = append(data.Modules, im.Qualify(m.Identity))
	}

	// factory methods must keep the contract's name, so they are named first
	factoryMethods := make([]string, len(node.Children))
	for i, child := range node.Children {
		method, ok := names.claim(child.Method.Name)
		if !ok {
			return nil, nameClash(typeName, "factory", child.Subcomponent.Identity.String())
		}
		factoryMethods[i] = method
	}

	var constructorArgs []string
	if node.IsRoot && len(node.Modules) > 0 {
		constructorArgs = append(constructorArgs, "modules")
	}
	params, err := buildParams(node.Parameters, names, im, constructorArgs...)
	if err != nil {
		return nil, err
	}
	data.Params = params

	seen := make(map[assertionData]bool)
	addAssertion := func(a assertionData) {
		if !seen[a] {
			seen[a] = true
			data.Assertions = append(data.Assertions, a)
		}
	}
	assert := func(c models.Contribution) {
		if c.BoundType == c.Identity {
			return
		}
		a := assertionData{Bound: im.Qualify(c.BoundType), Impl: im.Qualify(c.Identity) + "{}"}
		if c.ByPointer {
			a.Impl = "(*" + im.Qualify(c.Identity) + ")(nil)"
		}
		addAssertion(a)
	}

	// a child container is what its subcomponent's factory returns
	if !node.IsRoot && node.Parent != nil && !node.Declaration.IsZero() {
		addAssertion(assertionData{Bound: im.Qualify(node.Declaration), Impl: "(*" + typeName + ")(nil)"})
	}

	for _, b := range node.Bindings {
		c := b.Contribution
		method, ok := names.claim(
			exportedName(b.Key.BoundType.Name(), b.Key.Qualifier),
			exportedName(im.Qualifier(b.Key.BoundType.PackagePath()), b.Key.BoundType.Name(), b.Key.Qualifier),
		)
		if !ok {
			return nil, nameClash(typeName, "binding", b.Key.String())
		}
		data.Bindings = append(data.Bindings, bindingData{
			Receiver: typeName,
			Method:   method,
			Bound:    im.Qualify(b.Key.BoundType),
			Impl:     instance(c, im),
			Source:   im.Qualify(c.Identity),
		})
		assert(c)
	}

	for _, col := range node.Multibindings {
		suffix := "Set"
		if col.Key.IsMap() {
			suffix = "Map"
		}
		method, ok := names.claim(
			exportedName(col.Key.BoundType.Name(), col.Key.Qualifier, suffix),
			exportedName(im.Qualifier(col.Key.BoundType.PackagePath()), col.Key.BoundType.Name(), col.Key.Qualifier, suffix),
		)
		if !ok {
			return nil, nameClash(typeName, "multibinding", col.Key.String())
		}
		cd := collectionData{
			Receiver: typeName,
			Method:   method,
			Element:  im.Qualify(col.Key.BoundType),
			KeyType:  string(col.Key.MapKeyType),
		}
		for _, entry := range col.Entries {
			e := entryData{Impl: instance(entry, im)}
			if entry.MapKey != nil {
				e.Key = entry.MapKey.GoLiteral()
			}
			cd.Entries = append(cd.Entries, e)
			assert(entry)
		}
		if col.Key.IsMap() {
			data.Maps = append(data.Maps, cd)
		} else {
			data.Sets = append(data.Sets, cd)
		}
	}

	for i, child := range node.Children {
		decl := child.Subcomponent.Identity
		params, err := buildParams(child.Container.Parameters, reserved(child.Container), im)
		if err != nil {
			return nil, err
		}
		data.Factories = append(data.Factories, factoryData{
			Receiver:  typeName,
			Method:    factoryMethods[i],
			Child:     containerName(root, decl, false),
			Returns:   im.Qualify(decl),
			ScopeName: child.Container.Scope.Identity().Name(),
			Params:    params,
		})
		if !child.Factory.Identity.IsZero() {
			addAssertion(assertionData{Bound: im.Qualify(child.Factory.Identity), Impl: "(*" + typeName + ")(nil)"})
		}
	}
	return data, nil
}

// reserved returns the member names a container takes before any
// contribution is named
func reserved(node *models.ComposedContainer) nameSet {
	names := nameSet{}
	if node.Parent != nil {
		names.claim("Parent")
		names.claim("parent")
	}
	if len(node.Modules) > 0 {
		names.claim("Modules")
		if !node.IsRoot {
			names.claim("WithModules")
		}
	}
	return names
}

// buildParams names the fields and arguments for params. takenArgs are
// argument names already used by the signature.
func buildParams(params []models.Parameter, names nameSet, im *ImportManager, takenArgs ...string) ([]paramData, error) {
	out := make([]paramData, 0, len(params))
	args := nameSet{}
	for _, a := range takenArgs {
		args.claim(a)
	}
	for i, p := range params {
		field, ok := names.claim(fieldName(p.Name, i), fieldName(p.Name, i)+"Param")
		if !ok {
			return nil, errors.NewGenerationErrorWithDetails("container", "", "naming",
				fmt.Sprintf("parameter %s clashes with another member", p.Name))
		}
		arg, _ := args.claim(argName(p.Name, i), argName("", i))
		out = append(out, paramData{Field: field, Arg: arg, Type: im.Render(p.Type)})
	}
	return out, nil
}

// instance is the expression creating the implementation of c
func instance(c models.Contribution, im *ImportManager) string {
	if c.ByPointer {
		return "&" + im.Qualify(c.Identity) + "{}"
	}
	return im.Qualify(c.Identity) + "{}"
}

func nameClash(typeName, what, key string) *errors.GenerationError {
	return errors.NewGenerationErrorWithDetails("container", typeName, "naming",
		fmt.Sprintf("no free method name on %s for %s %s", typeName, what, key))
}
