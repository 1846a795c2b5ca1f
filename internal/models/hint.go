package models

import (
	"fmt"
	"strings"
)

// HintRole tells whether a hint carries the contribution reference or one scope
type HintRole int

const (
	HintReference HintRole = iota
	HintScope
)

func (r HintRole) String() string {
	if r == HintScope {
		return "scope"
	}
	return "reference"
}

// ParseHintRole parses the textual form produced by HintRole.String
func ParseHintRole(s string) (HintRole, error) {
	switch strings.ToLower(s) {
	case "reference":
		return HintReference, nil
	case "scope":
		return HintScope, nil
	default:
		return HintReference, fmt.Errorf("unknown hint role: %s", s)
	}
}

// Hint is a durable record that lets a contribution be rediscovered without
// access to its declaring source. A group holds one reference hint carrying the
// payload and one scope hint per target scope.
type Hint struct {
	Group    string
	Identity Identity
	Kind     Kind
	Role     HintRole
	Scope    Scope         // set on scope hints
	Payload  *Contribution // set on reference hints, TargetScopes left empty
}

// Key identifies the hint within its store
func (h Hint) Key() string {
	if h.Role == HintScope {
		return h.Group + "@" + string(h.Scope)
	}
	return h.Group + "@reference"
}

// HintsFor splits a contribution into its reference hint and scope hints
func HintsFor(c Contribution) []Hint {
	payload := c
	payload.TargetScopes = nil
	group := c.Key()

	hints := make([]Hint, 0, len(c.TargetScopes)+1)
	hints = append(hints, Hint{
		Group:    group,
		Identity: c.Identity,
		Kind:     c.Kind,
		Role:     HintReference,
		Payload:  &payload,
	})
	for _, scope := range c.TargetScopes {
		hints = append(hints, Hint{
			Group:    group,
			Identity: c.Identity,
			Kind:     c.Kind,
			Role:     HintScope,
			Scope:    scope,
		})
	}
	return hints
}
