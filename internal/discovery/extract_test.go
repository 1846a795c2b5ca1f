package discovery

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/meld/internal/errors"
	"github.com/toyz/meld/internal/models"
	"github.com/toyz/meld/internal/symbols"
)

const appSource = `package app

import (
	"net/http"

	"example.com/shop/logging"
)

// AppScope marks the application container.
type AppScope struct{}

type RequestScope struct{}

//meld::merge AppScope -Excludes=logging.Debug
type AppComponent struct {
	Config  *Config
	private int
}

type Config struct{}

//meld::contributes AppScope
//meld::contributes RequestScope
type NetworkModule interface{}

//meld::subcomponent RequestScope -Parent=AppScope
type RequestComponent interface{}

//meld::factory RequestComponent
type RequestFactory interface {
	Create(req *http.Request) RequestComponent
}
`

const loggingSource = `package logging

import (
	"io"

	"example.com/shop/app"
)

type Logger interface{ Print(string) }

//meld::binding app.AppScope -Rank=high
//meld::binding app.RequestScope -Rank=high
//meld::binding app.AppScope -Named=audit
type StdLogger struct{}

func (*StdLogger) Print(string) {}

var _ Logger = (*StdLogger)(nil)

//meld::binding app.AppScope -Bound=io.Writer -Replaces=Debug
type FileWriter struct{}

//meld::multibinding app.AppScope -StringKey="json"
type JSONCodec struct{}

var _ Codec = JSONCodec{}

type Codec interface{ Encode() }

//meld::binding app.AppScope
type Debug struct{}

var _ io.Writer = (*Debug)(nil)
`

func loadSources(t *testing.T, packages map[string]map[string]string) symbols.Source {
	t.Helper()
	source, err := symbols.NewLoader(nil).LoadSources(packages)
	require.NoError(t, err)
	return source
}

func TestExtract(t *testing.T) {
	packages := map[string]map[string]string{
		"example.com/shop/app":     {"app.go": appSource},
		"example.com/shop/logging": {"logging.go": loggingSource},
	}
	result, err := NewExtractor(nil).Extract(loadSources(t, packages))
	require.NoError(t, err)

	byKind := map[models.Kind][]models.Contribution{}
	for _, c := range result.Contributions {
		byKind[c.Kind] = append(byKind[c.Kind], c)
	}

	t.Run("modules collapse scopes", func(t *testing.T) {
		modules := byKind[models.KindModule]
		require.Len(t, modules, 1)
		assert.Equal(t, models.Identity("example.com/shop/app.NetworkModule"), modules[0].Identity)
		assert.Equal(t, []models.Scope{"example.com/shop/app.AppScope", "example.com/shop/app.RequestScope"}, modules[0].TargetScopes)
	})

	t.Run("bindings", func(t *testing.T) {
		bindings := byKind[models.KindBinding]
		require.Len(t, bindings, 4)

		std := bindings[0]
		assert.Equal(t, models.Identity("example.com/shop/logging.StdLogger"), std.Identity)
		assert.Equal(t, models.Identity("example.com/shop/logging.Logger"), std.BoundType)
		assert.Equal(t, models.RankHigh, std.Rank)
		assert.True(t, std.ByPointer)
		assert.Len(t, std.TargetScopes, 2)

		audit := bindings[1]
		assert.Equal(t, "audit", audit.Qualifier)
		assert.Equal(t, models.RankNormal, audit.Rank)
		assert.Equal(t, []models.Scope{"example.com/shop/app.AppScope"}, audit.TargetScopes)
		assert.NotEqual(t, std.Key(), audit.Key())

		writer := bindings[2]
		assert.Equal(t, models.Identity("io.Writer"), writer.BoundType)
		assert.Equal(t, []models.Identity{"example.com/shop/logging.Debug"}, writer.Replaces)
		assert.False(t, writer.ByPointer)

		debug := bindings[3]
		assert.Equal(t, models.Identity("io.Writer"), debug.BoundType)
	})

	t.Run("multibinding map key", func(t *testing.T) {
		multi := byKind[models.KindMultibinding]
		require.Len(t, multi, 1)
		require.NotNil(t, multi[0].MapKey)
		assert.Equal(t, models.MapKeyString, multi[0].MapKey.Type)
		assert.Equal(t, "json", multi[0].MapKey.Literal)
		assert.Equal(t, models.Identity("example.com/shop/logging.Codec"), multi[0].BoundType)
	})

	t.Run("subcomponent with factory", func(t *testing.T) {
		subs := byKind[models.KindSubcomponent]
		require.Len(t, subs, 1)
		sub := subs[0]
		assert.Equal(t, []models.Scope{"example.com/shop/app.AppScope"}, sub.TargetScopes)
		assert.Equal(t, []models.Scope{"example.com/shop/app.AppScope"}, sub.ParentScopes())
		require.NotNil(t, sub.Subcomponent)
		assert.Equal(t, models.Scope("example.com/shop/app.RequestScope"), sub.Subcomponent.OwnScope)
		require.Len(t, sub.Subcomponent.Factories, 1)

		factory := sub.Subcomponent.Factories[0]
		assert.Equal(t, models.Identity("example.com/shop/app.RequestFactory"), factory.Identity)
		require.Len(t, factory.Methods, 1)
		assert.Equal(t, "*net/http.Request", factory.Methods[0].Params[0].Type.Expr)
	})

	t.Run("merge root", func(t *testing.T) {
		require.Len(t, result.Roots, 1)
		root := result.Roots[0]
		assert.Equal(t, models.Identity("example.com/shop/app.AppComponent"), root.Identity)
		assert.Equal(t, models.Scope("example.com/shop/app.AppScope"), root.Scope)
		assert.Equal(t, "app", root.PackageName)
		assert.Equal(t, []models.Identity{"example.com/shop/logging.Debug"}, root.Excludes)
		require.Len(t, root.Parameters, 1)
		assert.Equal(t, "Config", root.Parameters[0].Name)
	})

	assert.True(t, result.HasContributions())
}

func TestExtract_MissingSupertype(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		candidates []string
	}{
		{
			name: "no supertype",
			source: `package p
//meld::binding Scope
type Lonely struct{}
`,
		},
		{
			name: "two supertypes",
			source: `package p
import "io"
//meld::multibinding Scope
type Both struct{}
var _ io.Reader = (*Both)(nil)
var _ io.Writer = (*Both)(nil)
`,
			candidates: []string{"io.Reader", "io.Writer"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := loadSources(t, map[string]map[string]string{"example.com/p": {"p.go": tt.source}})
			_, err := NewExtractor(nil).Extract(source)
			require.Error(t, err)

			var missing *errors.MissingSupertypeError
			require.True(t, stderrors.As(err, &missing), "got %v", err)
			assert.Equal(t, tt.candidates, missing.Candidates)
			assert.Contains(t, missing.OffendingIdentity(), "example.com/p.")
			assert.Equal(t, errors.MissingSupertypeErrorCode, missing.ErrorCode())
		})
	}
}

func TestExtract_CollectsAllErrors(t *testing.T) {
	source := loadSources(t, map[string]map[string]string{"example.com/p": {"p.go": `package p
//meld::binding Scope -Bound=missing.Type
type A struct{}

//meld::binding Scope
type B struct{}

//meld::merge Scope
//meld::merge Other
type Root interface{}

//meld::contributes Scope
type Fine interface{}
`}})

	result, err := NewExtractor(nil).Extract(source)
	require.Error(t, err)

	var multi *errors.MultipleErrors
	require.True(t, stderrors.As(err, &multi))
	assert.Equal(t, 3, multi.Count())
	assert.True(t, multi.HasCode(errors.ValidationErrorCode))
	assert.True(t, multi.HasCode(errors.MissingSupertypeErrorCode))

	require.Len(t, result.Contributions, 1)
	assert.Equal(t, models.KindModule, result.Contributions[0].Kind)
	assert.Len(t, result.Roots, 1)
}

func TestExtract_MarkerSyntaxError(t *testing.T) {
	source := loadSources(t, map[string]map[string]string{"example.com/p": {"p.go": `package p
//meld::binding Scope -Rank=top
type A struct{}
`}})

	_, err := NewExtractor(nil).Extract(source)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rank")
}

func TestExtract_RejectsMisplacedMarkers(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{
			name: "module on a struct",
			source: `package p
//meld::contributes Scope
type Module struct{}
`,
			expected: "expected an interface, got struct Module",
		},
		{
			name: "subcomponent on a struct",
			source: `package p
//meld::subcomponent Child -Parent=Scope
type Component struct{}
`,
			expected: "expected an interface, got struct Component",
		},
		{
			name: "factory on a struct",
			source: `package p
//meld::factory Component
type Factory struct{}

//meld::subcomponent Child -Parent=Scope
type Component interface{}
`,
			expected: "expected an interface, got struct Factory",
		},
		{
			name: "binding on an interface",
			source: `package p
import "io"
//meld::binding Scope -Bound=io.Writer
type Writer interface{ io.Writer }
`,
			expected: "expected a struct, got interface Writer",
		},
		{
			name: "multibinding on a named basic type",
			source: `package p
import "fmt"
//meld::multibinding Scope -Bound=fmt.Stringer -StringKey="x"
type Name string
`,
			expected: "expected a struct, got other Name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := loadSources(t, map[string]map[string]string{"example.com/p": {"p.go": tt.source}})
			result, err := NewExtractor(nil).Extract(source)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected)
			assert.Contains(t, err.Error(), "p.go:")

			var validation *errors.ValidationError
			require.True(t, stderrors.As(err, &validation), "got %v", err)
			assert.Equal(t, errors.ValidationErrorCode, validation.ErrorCode())
			assert.NotEmpty(t, validation.Suggestions())

			for _, c := range result.Contributions {
				assert.NotEqual(t, validation.Context()["identity"], string(c.Identity))
			}
			assert.Empty(t, result.Factories)
		})
	}
}
