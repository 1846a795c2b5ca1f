package hints

import (
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/toyz/meld/internal/models"
)

// hintNamespace seeds the file names and content digests of hints
var hintNamespace = uuid.MustParse("0b7e0a52-93c4-4c7e-8d0f-5a1e9b2d6c41")

type hintDocument struct {
	Group    string           `yaml:"group"`
	Identity string           `yaml:"identity"`
	Kind     string           `yaml:"kind"`
	Role     string           `yaml:"role"`
	Scope    string           `yaml:"scope,omitempty"`
	Payload  *payloadDocument `yaml:"payload,omitempty"`
}

type payloadDocument struct {
	Bound        string                `yaml:"bound,omitempty"`
	Qualifier    string                `yaml:"qualifier,omitempty"`
	MapKey       *mapKeyDocument       `yaml:"mapKey,omitempty"`
	Replaces     []string              `yaml:"replaces,omitempty"`
	Rank         int                   `yaml:"rank,omitempty"`
	ByPointer    bool                  `yaml:"byPointer,omitempty"`
	Subcomponent *subcomponentDocument `yaml:"subcomponent,omitempty"`
	Location     locationDocument      `yaml:"location,omitempty"`
}

type mapKeyDocument struct {
	Type    string `yaml:"type"`
	Literal string `yaml:"literal"`
}

type subcomponentDocument struct {
	OwnScope  string            `yaml:"ownScope"`
	Excludes  []string          `yaml:"excludes,omitempty"`
	Factories []factoryDocument `yaml:"factories,omitempty"`
}

type factoryDocument struct {
	Identity     string           `yaml:"identity"`
	Subcomponent string           `yaml:"subcomponent"`
	Methods      []methodDocument `yaml:"methods"`
	Location     locationDocument `yaml:"location,omitempty"`
}

type methodDocument struct {
	Name    string              `yaml:"name"`
	Params  []parameterDocument `yaml:"params,omitempty"`
	Results []typeDocument      `yaml:"results,omitempty"`
}

type parameterDocument struct {
	Name string       `yaml:"name"`
	Type typeDocument `yaml:"type"`
}

type typeDocument struct {
	Expr    string           `yaml:"expr"`
	Named   string           `yaml:"named,omitempty"`
	Pointer bool             `yaml:"pointer,omitempty"`
	Imports []importDocument `yaml:"imports,omitempty"`
}

type importDocument struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

type locationDocument struct {
	File   string `yaml:"file,omitempty"`
	Line   int    `yaml:"line,omitempty"`
	Column int    `yaml:"column,omitempty"`
}

// encodeHint renders a hint as a YAML document
func encodeHint(h models.Hint) ([]byte, error) {
	return yaml.Marshal(toDocument(h))
}

// decodeHint parses a YAML hint document
func decodeHint(data []byte) (models.Hint, error) {
	var doc hintDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return models.Hint{}, err
	}
	return fromDocument(doc)
}

// fingerprint digests the encoded form of a hint. Source locations are left
// out: the same contribution built from another checkout is the same hint.
func fingerprint(h models.Hint) (string, error) {
	doc := toDocument(h)
	if p := doc.Payload; p != nil {
		p.Location = locationDocument{}
		if p.Subcomponent != nil {
			for i := range p.Subcomponent.Factories {
				p.Subcomponent.Factories[i].Location = locationDocument{}
			}
		}
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return uuid.NewSHA1(hintNamespace, data).String(), nil
}

func toDocument(h models.Hint) hintDocument {
	doc := hintDocument{
		Group:    h.Group,
		Identity: string(h.Identity),
		Kind:     h.Kind.String(),
		Role:     h.Role.String(),
		Scope:    string(h.Scope),
	}
	if h.Payload == nil {
		return doc
	}

	c := h.Payload
	p := &payloadDocument{
		Bound:     string(c.BoundType),
		Qualifier: c.Qualifier,
		Replaces:  identityStrings(c.Replaces),
		Rank:      int(c.Rank),
		ByPointer: c.ByPointer,
		Location:  locationDocument(c.Location),
	}
	if c.MapKey != nil {
		p.MapKey = &mapKeyDocument{Type: string(c.MapKey.Type), Literal: c.MapKey.Literal}
	}
	if c.Subcomponent != nil {
		sub := &subcomponentDocument{
			OwnScope: string(c.Subcomponent.OwnScope),
			Excludes: identityStrings(c.Subcomponent.Excludes),
		}
		for _, f := range c.Subcomponent.Factories {
			fd := factoryDocument{
				Identity:     string(f.Identity),
				Subcomponent: string(f.Subcomponent),
				Location:     locationDocument(f.Location),
			}
			for _, m := range f.Methods {
				md := methodDocument{Name: m.Name}
				for _, param := range m.Params {
					md.Params = append(md.Params, parameterDocument{Name: param.Name, Type: typeToDocument(param.Type)})
				}
				for _, r := range m.Results {
					md.Results = append(md.Results, typeToDocument(r))
				}
				fd.Methods = append(fd.Methods, md)
			}
			sub.Factories = append(sub.Factories, fd)
		}
		p.Subcomponent = sub
	}
	doc.Payload = p
	return doc
}

func fromDocument(doc hintDocument) (models.Hint, error) {
	kind, err := models.ParseKind(doc.Kind)
	if err != nil {
		return models.Hint{}, err
	}
	role, err := models.ParseHintRole(doc.Role)
	if err != nil {
		return models.Hint{}, err
	}
	if doc.Group == "" || doc.Identity == "" {
		return models.Hint{}, fmt.Errorf("hint document is missing its group or identity")
	}

	h := models.Hint{
		Group:    doc.Group,
		Identity: models.Identity(doc.Identity),
		Kind:     kind,
		Role:     role,
		Scope:    models.Scope(doc.Scope),
	}
	if doc.Payload == nil {
		return h, nil
	}

	p := doc.Payload
	c := &models.Contribution{
		Identity:  h.Identity,
		Kind:      kind,
		BoundType: models.Identity(p.Bound),
		Qualifier: p.Qualifier,
		Replaces:  identities(p.Replaces),
		Rank:      models.Rank(p.Rank),
		ByPointer: p.ByPointer,
		Location:  models.SourceLocation(p.Location),
	}
	if p.MapKey != nil {
		key, err := models.NewMapKey(models.MapKeyType(p.MapKey.Type), p.MapKey.Literal)
		if err != nil {
			return models.Hint{}, err
		}
		c.MapKey = key
	}
	if p.Subcomponent != nil {
		spec := &models.SubcomponentSpec{
			OwnScope: models.Scope(p.Subcomponent.OwnScope),
			Excludes: identities(p.Subcomponent.Excludes),
		}
		for _, fd := range p.Subcomponent.Factories {
			f := models.FactoryContract{
				Identity:     models.Identity(fd.Identity),
				Subcomponent: models.Identity(fd.Subcomponent),
				Location:     models.SourceLocation(fd.Location),
			}
			for _, md := range fd.Methods {
				m := models.FactoryMethod{Name: md.Name}
				for _, param := range md.Params {
					m.Params = append(m.Params, models.Parameter{Name: param.Name, Type: typeFromDocument(param.Type)})
				}
				for _, r := range md.Results {
					m.Results = append(m.Results, typeFromDocument(r))
				}
				f.Methods = append(f.Methods, m)
			}
			spec.Factories = append(spec.Factories, f)
		}
		c.Subcomponent = spec
	}
	h.Payload = c
	return h, nil
}

func typeToDocument(t models.TypeRef) typeDocument {
	doc := typeDocument{Expr: t.Expr, Named: string(t.Named), Pointer: t.Pointer}
	for _, imp := range t.Imports {
		doc.Imports = append(doc.Imports, importDocument(imp))
	}
	return doc
}

func typeFromDocument(doc typeDocument) models.TypeRef {
	t := models.TypeRef{Expr: doc.Expr, Named: models.Identity(doc.Named), Pointer: doc.Pointer}
	for _, imp := range doc.Imports {
		t.Imports = append(t.Imports, models.Import(imp))
	}
	return t
}

func identityStrings(ids []models.Identity) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func identities(values []string) []models.Identity {
	if len(values) == 0 {
		return nil
	}
	out := make([]models.Identity, len(values))
	for i, v := range values {
		out[i] = models.Identity(v)
	}
	return out
}
