package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityParts(t *testing.T) {
	tests := []struct {
		id   Identity
		pkg  string
		name string
	}{
		{"github.com/acme/app.AppScope", "github.com/acme/app", "AppScope"},
		{"github.com/acme/app.v2/store.Repo", "github.com/acme/app.v2/store", "Repo"},
		{"Local", "", "Local"},
		{"example.com.Thing", "example.com", "Thing"},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			assert.Equal(t, tt.pkg, tt.id.PackagePath())
			assert.Equal(t, tt.name, tt.id.Name())
			assert.Equal(t, tt.id, NewIdentity(tt.pkg, tt.name))
		})
	}
}

func TestParseRank(t *testing.T) {
	tests := []struct {
		input   string
		want    Rank
		wantErr bool
	}{
		{"", RankNormal, false},
		{"normal", RankNormal, false},
		{"HIGH", RankHigh, false},
		{"highest", RankHighest, false},
		{"42", 42, false},
		{"-5", -5, false},
		{"top", RankNormal, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRank(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewMapKey(t *testing.T) {
	key, err := NewMapKey(MapKeyString, "alpha")
	require.NoError(t, err)
	assert.Equal(t, `"alpha"`, key.GoLiteral())

	key, err = NewMapKey(MapKeyInt64, "7")
	require.NoError(t, err)
	assert.Equal(t, "int64(7)", key.GoLiteral())

	_, err = NewMapKey(MapKeyInt, "seven")
	assert.Error(t, err)

	_, err = NewMapKey("float", "1.0")
	assert.Error(t, err)
}

func TestContributionKey(t *testing.T) {
	base := Contribution{
		Identity:     "github.com/acme/app.RealLogger",
		Kind:         KindBinding,
		TargetScopes: []Scope{"github.com/acme/app.AppScope"},
		BoundType:    "github.com/acme/app.Logger",
	}

	t.Run("stable across target scopes", func(t *testing.T) {
		other := base
		other.TargetScopes = []Scope{"github.com/acme/app.OtherScope"}
		assert.Equal(t, base.Key(), other.Key())
	})

	t.Run("replaces order does not matter", func(t *testing.T) {
		a := base
		a.Replaces = []Identity{"x.A", "x.B"}
		b := base
		b.Replaces = []Identity{"x.B", "x.A"}
		assert.Equal(t, a.Key(), b.Key())
	})

	t.Run("different parameters differ", func(t *testing.T) {
		other := base
		other.Qualifier = "audit"
		assert.NotEqual(t, base.Key(), other.Key())

		ranked := base
		ranked.Rank = RankHigh
		assert.NotEqual(t, base.Key(), ranked.Key())
	})
}

func TestHintsFor(t *testing.T) {
	c := Contribution{
		Identity:     "github.com/acme/app.NetworkModule",
		Kind:         KindModule,
		TargetScopes: []Scope{"app.A", "app.B"},
	}

	hints := HintsFor(c)
	require.Len(t, hints, 3)

	assert.Equal(t, HintReference, hints[0].Role)
	require.NotNil(t, hints[0].Payload)
	assert.Empty(t, hints[0].Payload.TargetScopes)
	assert.Equal(t, c.Identity, hints[0].Payload.Identity)

	assert.Equal(t, HintScope, hints[1].Role)
	assert.Equal(t, Scope("app.A"), hints[1].Scope)
	assert.Equal(t, Scope("app.B"), hints[2].Scope)

	for _, h := range hints {
		assert.Equal(t, c.Key(), h.Group)
	}
	assert.NotEqual(t, hints[1].Key(), hints[2].Key())

	// the original contribution keeps its scopes
	assert.Len(t, c.TargetScopes, 2)
}

func TestComposedContainerWalk(t *testing.T) {
	leaf := &ComposedContainer{Scope: "app.Leaf"}
	mid := &ComposedContainer{
		Scope:    "app.Mid",
		Children: []ChildContainer{{Container: leaf}},
	}
	root := &ComposedContainer{
		Scope:    "app.Root",
		IsRoot:   true,
		Children: []ChildContainer{{Container: mid}},
	}

	var visited []Scope
	var depths []int
	err := root.Walk(func(node *ComposedContainer, depth int) error {
		visited = append(visited, node.Scope)
		depths = append(depths, depth)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []Scope{"app.Root", "app.Mid", "app.Leaf"}, visited)
	assert.Equal(t, []int{0, 1, 2}, depths)
	assert.Equal(t, 3, root.Count())
	assert.False(t, root.IsEmpty())
	assert.True(t, leaf.IsEmpty())
}
