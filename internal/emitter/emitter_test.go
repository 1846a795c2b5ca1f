package emitter

import (
	"context"
	stderrors "errors"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/meld/internal/errors"
	"github.com/toyz/meld/internal/hints"
	"github.com/toyz/meld/internal/models"
	"github.com/toyz/meld/internal/scheduler"
	"github.com/toyz/meld/internal/symbols"
)

const (
	appPkg    = "example.com/shop/app"
	pluginPkg = "example.com/shop/plugin"
)

func id(pkg, name string) models.Identity {
	return models.NewIdentity(pkg, name)
}

func shopRoot(dir string) models.MergeRoot {
	return models.MergeRoot{
		Identity:    id(appPkg, "AppComponent"),
		Scope:       models.ScopeOf(id(appPkg, "AppScope")),
		PackageName: "app",
		Dir:         dir,
		Parameters: []models.Parameter{{
			Name: "Config",
			Type: models.TypeRef{
				Expr:    "*example.com/shop/config.Config",
				Named:   "example.com/shop/config.Config",
				Pointer: true,
				Imports: []models.Import{{Name: "config", Path: "example.com/shop/config"}},
			},
		}},
	}
}

func requestChild(root models.MergeRoot) models.ChildContainer {
	params := []models.Parameter{{Name: "id", Type: models.TypeRef{Expr: "string"}}}
	return models.ChildContainer{
		Subcomponent: models.Contribution{Identity: id(appPkg, "RequestComponent"), Kind: models.KindSubcomponent},
		Factory:      models.FactoryContract{Identity: id(appPkg, "RequestFactory")},
		Method:       models.FactoryMethod{Name: "Create", Params: params},
		Container: &models.ComposedContainer{
			Scope:       models.ScopeOf(id(appPkg, "RequestScope")),
			Declaration: id(appPkg, "RequestComponent"),
			Parent:      &models.ParentRef{Scope: root.Scope, Declaration: root.Identity},
			Parameters:  params,
			Bindings: []models.ResolvedBinding{{
				Key: models.BindingKey{BoundType: id(appPkg, "Logger"), Qualifier: "audit"},
				Contribution: models.Contribution{
					Identity:  id(appPkg, "AuditLogger"),
					Kind:      models.KindBinding,
					BoundType: id(appPkg, "Logger"),
					Qualifier: "audit",
				},
			}},
		},
	}
}

func shopTree(root models.MergeRoot) *models.ComposedContainer {
	home, _ := models.NewMapKey(models.MapKeyString, "home")
	return &models.ComposedContainer{
		Scope:       root.Scope,
		Declaration: root.Identity,
		IsRoot:      true,
		Parameters:  root.Parameters,
		Modules: []models.Contribution{
			{Identity: id(pluginPkg, "NetworkModule"), Kind: models.KindModule},
		},
		Bindings: []models.ResolvedBinding{{
			Key: models.BindingKey{BoundType: id(appPkg, "Logger")},
			Contribution: models.Contribution{
				Identity:  id(appPkg, "StdLogger"),
				Kind:      models.KindBinding,
				BoundType: id(appPkg, "Logger"),
				ByPointer: true,
			},
		}},
		Multibindings: []models.Collection{
			{
				Key: models.CollectionKey{BoundType: id(pluginPkg, "Plugin")},
				Entries: []models.Contribution{
					{Identity: id(pluginPkg, "A"), Kind: models.KindMultibinding, BoundType: id(pluginPkg, "Plugin")},
				},
			},
			{
				Key: models.CollectionKey{BoundType: id(pluginPkg, "Handler"), MapKeyType: models.MapKeyString},
				Entries: []models.Contribution{
					{Identity: id(pluginPkg, "HomeHandler"), Kind: models.KindMultibinding, BoundType: id(pluginPkg, "Handler"), MapKey: home, ByPointer: true},
				},
			},
		},
		Children: []models.ChildContainer{requestChild(root)},
	}
}

func requireParses(t *testing.T, src []byte) {
	t.Helper()
	_, err := parser.ParseFile(token.NewFileSet(), "generated.go", src, parser.AllErrors)
	require.NoError(t, err, string(src))
}

func TestRender_RootContainer(t *testing.T) {
	root := shopRoot(t.TempDir())
	e := New()

	file, err := e.Render(root, shopTree(root))
	require.NoError(t, err)
	requireParses(t, file.Source)

	assert.Equal(t, "AppComponentMeld", file.TypeName)
	assert.Equal(t, filepath.Join(root.Dir, "app_component_meld.go"), file.Path)

	src := string(file.Source)
	assert.Contains(t, src, "// Code generated by meld. DO NOT EDIT.")
	assert.Contains(t, src, "package app")
	assert.Contains(t, src, `"example.com/shop/config"`)
	assert.Contains(t, src, `"example.com/shop/plugin"`)

	assert.Contains(t, src, "type AppComponentMeldModules interface {")
	assert.Contains(t, src, "\tplugin.NetworkModule\n")
	assert.Regexp(t, `Modules\s+AppComponentMeldModules`, src)
	assert.Regexp(t, `Config\s+\*config\.Config`, src)
	assert.Contains(t, src, "func NewAppComponentMeld(modules AppComponentMeldModules, config *config.Config) *AppComponentMeld {")
	assert.Regexp(t, `Modules:\s+modules,`, src)
	assert.NotContains(t, src, "WithModules", "roots take their modules in the constructor")

	assert.Contains(t, src, "func (m *AppComponentMeld) Logger() Logger {\n\treturn &StdLogger{}\n}")
	assert.Contains(t, src, "func (m *AppComponentMeld) PluginSet() []plugin.Plugin {")
	assert.Contains(t, src, "plugin.A{},")
	assert.Contains(t, src, "func (m *AppComponentMeld) HandlerMap() map[string]plugin.Handler {")
	assert.Contains(t, src, `"home": &plugin.HomeHandler{},`)

	assert.Contains(t, src, "func (m *AppComponentMeld) Create(id string) RequestComponent {\n\treturn &AppComponentRequestComponentMeld{")
	assert.Regexp(t, `parent:\s+m,`, src)
	assert.Regexp(t, `_ RequestFactory\s+= \(\*AppComponentMeld\)\(nil\)`, src)
	assert.Regexp(t, `Id:\s+id,`, src)

	assert.Regexp(t, `_ Logger\s+= \(\*StdLogger\)\(nil\)`, src)
	assert.Regexp(t, `_ plugin\.Plugin\s+= plugin\.A\{\}`, src)
	assert.Regexp(t, `_ plugin\.Handler\s+= \(\*plugin\.HomeHandler\)\(nil\)`, src)

	assert.NotContains(t, src, "Parent()", "roots have no parent")
}

func TestRender_ChildContainer(t *testing.T) {
	root := shopRoot(t.TempDir())
	child := requestChild(root).Container
	e := New()

	file, err := e.Render(root, child)
	require.NoError(t, err)
	requireParses(t, file.Source)

	assert.Equal(t, "AppComponentRequestComponentMeld", file.TypeName)
	assert.Equal(t, filepath.Join(root.Dir, "app_component_request_component_meld.go"), file.Path)

	src := string(file.Source)
	assert.Regexp(t, `parent\s+\*AppComponentMeld`, src)
	assert.Regexp(t, `Id\s+string`, src)
	assert.Contains(t, src, "func (m *AppComponentRequestComponentMeld) Parent() *AppComponentMeld {")
	assert.Contains(t, src, "func (m *AppComponentRequestComponentMeld) LoggerAudit() Logger {\n\treturn AuditLogger{}\n}")
	assert.Regexp(t, `_ Logger\s+= AuditLogger\{\}`, src)
	assert.Regexp(t, `_ RequestComponent\s+= \(\*AppComponentRequestComponentMeld\)\(nil\)`, src)
	assert.NotContains(t, src, "func NewAppComponentRequestComponentMeld", "children are created through their factory")
	assert.NotContains(t, src, "import")
}

func TestRender_EmptyRoot(t *testing.T) {
	root := shopRoot(t.TempDir())
	root.Parameters = nil
	e := New()

	file, err := e.Render(root, &models.ComposedContainer{Scope: root.Scope, Declaration: root.Identity, IsRoot: true})
	require.NoError(t, err)
	requireParses(t, file.Source)

	src := string(file.Source)
	assert.Regexp(t, `type AppComponentMeld struct ?\{\s*\}`, src)
	assert.Contains(t, src, "func NewAppComponentMeld() *AppComponentMeld {")
	assert.NotContains(t, src, "Modules")
}

func TestRender_MemberNameFallback(t *testing.T) {
	root := shopRoot(t.TempDir())
	tree := shopTree(root)
	tree.Bindings = append(tree.Bindings, models.ResolvedBinding{
		Key: models.BindingKey{BoundType: id(pluginPkg, "Logger")},
		Contribution: models.Contribution{
			Identity:  id(pluginPkg, "PluginLogger"),
			Kind:      models.KindBinding,
			BoundType: id(pluginPkg, "Logger"),
		},
	})
	e := New()

	file, err := e.Render(root, tree)
	require.NoError(t, err)
	src := string(file.Source)
	assert.Contains(t, src, "func (m *AppComponentMeld) Logger() Logger {")
	assert.Contains(t, src, "func (m *AppComponentMeld) PluginLogger() plugin.Logger {")
}

func TestRender_ChildModules(t *testing.T) {
	root := shopRoot(t.TempDir())
	child := requestChild(root).Container
	child.Modules = []models.Contribution{{Identity: id(pluginPkg, "SessionModule"), Kind: models.KindModule}}

	file, err := New().Render(root, child)
	require.NoError(t, err)
	requireParses(t, file.Source)

	src := string(file.Source)
	assert.Contains(t, src, "type AppComponentRequestComponentMeldModules interface {")
	assert.Contains(t, src, "func (m *AppComponentRequestComponentMeld) WithModules(modules AppComponentRequestComponentMeldModules) *AppComponentRequestComponentMeld {\n\tm.Modules = modules\n\treturn m\n}")
}

func TestRender_FactoryKeepsContractName(t *testing.T) {
	root := shopRoot(t.TempDir())

	t.Run("bindings give way", func(t *testing.T) {
		tree := shopTree(root)
		tree.Bindings = append(tree.Bindings, models.ResolvedBinding{
			Key: models.BindingKey{BoundType: id(pluginPkg, "Create")},
			Contribution: models.Contribution{
				Identity:  id(pluginPkg, "Creator"),
				Kind:      models.KindBinding,
				BoundType: id(pluginPkg, "Create"),
			},
		})

		file, err := New().Render(root, tree)
		require.NoError(t, err)
		src := string(file.Source)
		assert.Contains(t, src, "func (m *AppComponentMeld) Create(id string) RequestComponent {")
		assert.Contains(t, src, "func (m *AppComponentMeld) PluginCreate() plugin.Create {")
	})

	t.Run("two factories with one method name", func(t *testing.T) {
		tree := shopTree(root)
		other := requestChild(root)
		other.Subcomponent.Identity = id(pluginPkg, "JobComponent")
		other.Container.Declaration = id(pluginPkg, "JobComponent")
		tree.Children = append(tree.Children, other)

		_, err := New().Render(root, tree)
		var gen *errors.GenerationError
		require.True(t, stderrors.As(err, &gen), "got %v", err)
		assert.Equal(t, "naming", gen.Stage)
		assert.Contains(t, gen.Error(), string(id(pluginPkg, "JobComponent")))
	})
}

func TestEmit_TypeNameCollision(t *testing.T) {
	root := shopRoot(t.TempDir())
	e := New()

	first := requestChild(root).Container
	require.NoError(t, e.Emit(root, first))

	// a subcomponent of the same name declared in another package
	second := requestChild(root).Container
	second.Declaration = id(pluginPkg, "RequestComponent")
	second.Scope = models.ScopeOf(id(pluginPkg, "RequestScope"))

	err := e.Emit(root, second)
	var gen *errors.GenerationError
	require.True(t, stderrors.As(err, &gen), "got %v", err)
	assert.Equal(t, "naming", gen.Stage)
	assert.Contains(t, gen.Error(), "AppComponentRequestComponentMeld")
	assert.Contains(t, gen.Error(), string(id(pluginPkg, "RequestComponent")))

	// emitting the same node again is not a collision
	assert.NoError(t, e.Emit(root, first))
}

func TestEmit_WritesFiles(t *testing.T) {
	root := shopRoot(t.TempDir())
	e := New(WithSuffix("_gen.go"))

	err := shopTree(root).Walk(func(node *models.ComposedContainer, _ int) error {
		return e.Emit(root, node)
	})
	require.NoError(t, err)

	require.Len(t, e.Files(), 2)
	for _, name := range []string{"app_component_gen.go", "app_component_request_component_gen.go"} {
		content, err := os.ReadFile(filepath.Join(root.Dir, name))
		require.NoError(t, err, name)
		requireParses(t, content)
	}
	assert.Equal(t, e.Files()[0].Source, mustRead(t, e.Files()[0].Path))
}

func TestEmit_DryRun(t *testing.T) {
	root := shopRoot(t.TempDir())
	e := New(WithDryRun(true))

	require.NoError(t, e.Emit(root, shopTree(root)))
	require.Len(t, e.Files(), 1)
	_, err := os.Stat(e.Files()[0].Path)
	assert.True(t, os.IsNotExist(err))
}

func TestRender_RequiresRootPackage(t *testing.T) {
	root := shopRoot(t.TempDir())
	root.PackageName = ""
	_, err := New().Render(root, shopTree(root))

	var gen *errors.GenerationError
	require.True(t, stderrors.As(err, &gen), "got %v", err)
	assert.Equal(t, "setup", gen.Stage)
}

const pipelineSource = `package app

type AppScope struct{}

type RequestScope struct{}

//meld::merge AppScope
type AppComponent interface{}

type Logger interface{ Print(string) }

//meld::binding AppScope
type StdLogger struct{}

func (*StdLogger) Print(string) {}

var _ Logger = (*StdLogger)(nil)

//meld::subcomponent RequestScope -Parent=AppScope
type RequestComponent interface{}

//meld::factory RequestComponent
type RequestFactory interface {
	Create(id string) RequestComponent
}
`

func TestEmitter_DrivenByScheduler(t *testing.T) {
	loader := symbols.NewLoader(nil)
	source, err := loader.LoadSource(appPkg, map[string]string{"app.go": pipelineSource})
	require.NoError(t, err)

	e := New(WithDryRun(true))
	s := scheduler.New(hints.NewMemoryStore(), scheduler.WithEmitter(e))
	_, err = s.Run(context.Background(), scheduler.NewSliceFeed(source))
	require.NoError(t, err)

	files := e.Files()
	require.Len(t, files, 2)
	assert.Equal(t, "AppComponentMeld", files[0].TypeName)
	assert.Equal(t, "AppComponentRequestComponentMeld", files[1].TypeName)
	assert.Contains(t, string(files[0].Source), "func (m *AppComponentMeld) Logger() Logger {")
	assert.Contains(t, string(files[0].Source), "func (m *AppComponentMeld) Create(id string) RequestComponent {")
	assert.Regexp(t, `_ RequestFactory\s+= \(\*AppComponentMeld\)\(nil\)`, string(files[0].Source))
	assert.Regexp(t, `_ RequestComponent\s+= \(\*AppComponentRequestComponentMeld\)\(nil\)`, string(files[1].Source))
	for _, f := range files {
		requireParses(t, f.Source)
	}
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return content
}
