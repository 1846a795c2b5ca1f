package emitter

import (
	"bytes"
	"fmt"
	"text/template"
)

// TemplateRegistry provides a centralized way to access all templates
type TemplateRegistry struct {
	templates map[string]string
}

// NewTemplateRegistry creates a new template registry with all templates
func NewTemplateRegistry() *TemplateRegistry {
	registry := &TemplateRegistry{
		templates: make(map[string]string),
	}

	registry.registerFileTemplates()
	registry.registerContainerTemplates()
	registry.registerProviderTemplates()

	return registry
}

// Execute runs the named template. Every registered template is available
// to it through {{template "name"}}.
func (tr *TemplateRegistry) Execute(name string, data any) (string, error) {
	if _, ok := tr.templates[name]; !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}

	root := template.New(name)
	for n, text := range tr.templates {
		var t *template.Template
		if n == name {
			t = root
		} else {
			t = root.New(n)
		}
		if _, err := t.Parse(text); err != nil {
			return "", fmt.Errorf("failed to parse template %s: %w", n, err)
		}
	}

	var buf bytes.Buffer
	if err := root.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

func (tr *TemplateRegistry) registerFileTemplates() {
	tr.templates["file"] = `// Code generated by meld. DO NOT EDIT.
// Source: {{.Root}} ({{.Scope}})

package {{.Package}}

{{.Imports}}
{{template "modules" .Node}}
{{template "container" .Node}}
{{template "constructor" .Node}}
{{template "parent" .Node}}
{{template "withModules" .Node}}
{{- range .Node.Bindings}}
{{template "binding" .}}
{{- end}}
{{- range .Node.Sets}}
{{template "set" .}}
{{- end}}
{{- range .Node.Maps}}
{{template "map" .}}
{{- end}}
{{- range .Node.Factories}}
{{template "factory" .}}
{{- end}}
{{template "assertions" .Node}}
`
}

func (tr *TemplateRegistry) registerContainerTemplates() {
	tr.templates["modules"] = `{{if .Modules}}// {{.ModulesName}} is the capability set merged into {{.ScopeName}}
type {{.ModulesName}} interface {
{{range .Modules}}	{{.}}
{{end}}}
{{end}}`

	tr.templates["container"] = `// {{.TypeName}} is the merged container of {{.ScopeName}}
type {{.TypeName}} struct {
{{- if .Parent}}
	parent *{{.Parent}}
{{- end}}
{{- if .Modules}}
	Modules {{.ModulesName}}
{{- end}}
{{- range .Params}}
	{{.Field}} {{.Type}}
{{- end}}
}
`

	tr.templates["constructor"] = `{{if .IsRoot}}// New{{.TypeName}} creates the {{.ScopeName}} container
func New{{.TypeName}}({{if .Modules}}modules {{.ModulesName}}{{if .Params}}, {{end}}{{end}}{{range $i, $p := .Params}}{{if $i}}, {{end}}{{$p.Arg}} {{$p.Type}}{{end}}) *{{.TypeName}} {
	return &{{.TypeName}}{
{{- if .Modules}}
		Modules: modules,
{{- end}}
{{- range .Params}}
		{{.Field}}: {{.Arg}},
{{- end}}
	}
}
{{end}}`

	tr.templates["parent"] = `{{if .Parent}}// Parent returns the container that created this one
func (m *{{.TypeName}}) Parent() *{{.Parent}} {
	return m.parent
}
{{end}}`

	tr.templates["withModules"] = `{{if and .Modules (not .IsRoot)}}// WithModules sets the capability set of a container created by its factory
func (m *{{.TypeName}}) WithModules(modules {{.ModulesName}}) *{{.TypeName}} {
	m.Modules = modules
	return m
}
{{end}}`

	tr.templates["assertions"] = `{{if .Assertions}}var (
{{- range .Assertions}}
	_ {{.Bound}} = {{.Impl}}
{{- end}}
)
{{end}}`
}

func (tr *TemplateRegistry) registerProviderTemplates() {
	tr.templates["binding"] = `// {{.Method}} provides {{.Bound}} from {{.Source}}
func (m *{{.Receiver}}) {{.Method}}() {{.Bound}} {
	return {{.Impl}}
}`

	tr.templates["set"] = `// {{.Method}} provides every {{.Element}} contributed to the scope
func (m *{{.Receiver}}) {{.Method}}() []{{.Element}} {
	return []{{.Element}}{
{{- range .Entries}}
		{{.Impl}},
{{- end}}
	}
}`

	tr.templates["map"] = `// {{.Method}} provides every {{.Element}} contributed to the scope by key
func (m *{{.Receiver}}) {{.Method}}() map[{{.KeyType}}]{{.Element}} {
	return map[{{.KeyType}}]{{.Element}}{
{{- range .Entries}}
		{{.Key}}: {{.Impl}},
{{- end}}
	}
}`

	tr.templates["factory"] = `// {{.Method}} creates the {{.ScopeName}} container
func (m *{{.Receiver}}) {{.Method}}({{range $i, $p := .Params}}{{if $i}}, {{end}}{{$p.Arg}} {{$p.Type}}{{end}}) {{.Returns}} {
	return &{{.Child}}{
		parent: m,
{{- range .Params}}
		{{.Field}}: {{.Arg}},
{{- end}}
	}
}`
}
