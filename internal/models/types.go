package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Identity is the fully qualified name of a declared type: "importpath.TypeName".
// It is stable across processing passes and across packages.
type Identity string

// NewIdentity builds an identity from a package import path and a type name
func NewIdentity(pkgPath, name string) Identity {
	if pkgPath == "" {
		return Identity(name)
	}
	return Identity(pkgPath + "." + name)
}

// PackagePath returns the import path part of the identity
func (i Identity) PackagePath() string {
	s := string(i)
	if idx := strings.LastIndex(s, "."); idx >= 0 && idx > strings.LastIndex(s, "/") {
		return s[:idx]
	}
	return ""
}

// Name returns the unqualified type name
func (i Identity) Name() string {
	s := string(i)
	if idx := strings.LastIndex(s, "."); idx >= 0 && idx > strings.LastIndex(s, "/") {
		return s[idx+1:]
	}
	return s
}

// String returns the identity as written in diagnostics
func (i Identity) String() string {
	return string(i)
}

// IsZero reports whether the identity is empty
func (i Identity) IsZero() bool {
	return i == ""
}

// Scope is an opaque token grouping contributions into one merge target.
// Scopes are compared by identity only.
type Scope string

// ScopeOf interns the scope named by a type identity
func ScopeOf(id Identity) Scope {
	return Scope(id)
}

// Identity returns the identity of the marker type that names the scope
func (s Scope) Identity() Identity {
	return Identity(s)
}

func (s Scope) String() string {
	return string(s)
}

// Kind is the discriminator of the Contribution tagged union
type Kind int

const (
	KindBinding Kind = iota
	KindMultibinding
	KindModule
	KindSubcomponent
)

// AllKinds lists every contribution kind in scan order
var AllKinds = []Kind{KindModule, KindBinding, KindMultibinding, KindSubcomponent}

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindBinding:
		return "binding"
	case KindMultibinding:
		return "multibinding"
	case KindModule:
		return "module"
	case KindSubcomponent:
		return "subcomponent"
	default:
		return "unknown"
	}
}

// ParseKind parses the textual form produced by Kind.String
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "binding":
		return KindBinding, nil
	case "multibinding":
		return KindMultibinding, nil
	case "module":
		return KindModule, nil
	case "subcomponent":
		return KindSubcomponent, nil
	default:
		return KindBinding, fmt.Errorf("unknown contribution kind: %s", s)
	}
}

// Replaceable reports whether contributions of this kind take part in the
// cross-kind replace set (modules, bindings and multibindings).
func (k Kind) Replaceable() bool {
	return k != KindSubcomponent
}

// Rank is the tie-break priority among bindings of the same bound type
type Rank int

const (
	RankNormal  Rank = 0
	RankHigh    Rank = 1000
	RankHighest Rank = math.MaxInt32
)

// ParseRank accepts an integer or one of the named ranks
func ParseRank(s string) (Rank, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return RankNormal, nil
	case "high":
		return RankHigh, nil
	case "highest":
		return RankHighest, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return RankNormal, fmt.Errorf("invalid rank %q: expected an integer or normal, high, highest", s)
	}
	return Rank(n), nil
}

func (r Rank) String() string {
	switch r {
	case RankNormal:
		return "normal"
	case RankHigh:
		return "high"
	case RankHighest:
		return "highest"
	default:
		return strconv.Itoa(int(r))
	}
}

// MapKeyType is the static type of a multibinding map key
type MapKeyType string

const (
	MapKeyString MapKeyType = "string"
	MapKeyInt    MapKeyType = "int"
	MapKeyInt64  MapKeyType = "int64"
)

// MapKey places a multibinding into a map collection instead of a set
type MapKey struct {
	Type    MapKeyType // static key type
	Literal string     // literal value, unquoted for strings
}

// NewMapKey validates the literal against the key type
func NewMapKey(keyType MapKeyType, literal string) (*MapKey, error) {
	switch keyType {
	case MapKeyString:
	case MapKeyInt:
		if _, err := strconv.ParseInt(literal, 10, 0); err != nil {
			return nil, fmt.Errorf("map key %q is not a valid int", literal)
		}
	case MapKeyInt64:
		if _, err := strconv.ParseInt(literal, 10, 64); err != nil {
			return nil, fmt.Errorf("map key %q is not a valid int64", literal)
		}
	default:
		return nil, fmt.Errorf("unsupported map key type: %s", keyType)
	}
	return &MapKey{Type: keyType, Literal: literal}, nil
}

// GoLiteral renders the key as a Go expression
func (k MapKey) GoLiteral() string {
	switch k.Type {
	case MapKeyString:
		return strconv.Quote(k.Literal)
	case MapKeyInt64:
		return "int64(" + k.Literal + ")"
	default:
		return k.Literal
	}
}

func (k MapKey) String() string {
	return string(k.Type) + ":" + k.Literal
}

// SourceLocation points at the declaration a model element came from
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// IsEmpty returns true if the location has no useful information
func (l SourceLocation) IsEmpty() bool {
	return l.File == ""
}

func (l SourceLocation) String() string {
	if l.File == "" {
		return "unknown location"
	}
	if l.Line == 0 {
		return l.File
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}
