package types

import (
	"fmt"
	"maps"
	"slices"

	"github.com/hashicorp/go-set/v3"
)

// Registry holds every ConcreteType known to an analysis, built-ins and classes.
// Types are registered once and never change, so a Registry is safe for concurrent
// reads once registration is over.
type Registry struct {
	types map[string]*ConcreteType
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*ConcreteType)}
}

// Register adds t, failing if a type with the same name already exists
func (r *Registry) Register(t *ConcreteType) error {
	if existing, ok := r.types[t.name]; ok {
		kind := "class"
		if existing.builtin {
			kind = "built-in type"
		}
		return fmt.Errorf("%s '%s' is already registered", kind, t.name)
	}
	r.types[t.name] = t
	return nil
}

func (r *Registry) Lookup(ref TypeRef) (*ConcreteType, bool) {
	if !ref.Known() {
		return nil, false
	}
	t, ok := r.types[string(ref)]
	return t, ok
}

// Names returns the sorted names of all registered types
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.types))
}

// Clone returns a Registry with the same types, which can be extended
// without affecting r
func (r *Registry) Clone() *Registry {
	return &Registry{types: maps.Clone(r.types)}
}

// IsSubtype reports whether a value of type sub can be used where sup is expected,
// following the (transitive) promotions of sub. Unknown types are never subtypes.
func (r *Registry) IsSubtype(sub, sup TypeRef) bool {
	if !sub.Known() || !sup.Known() {
		return false
	}
	if sub == sup || sup == ObjectRef {
		return true
	}
	seen := set.New[TypeRef](4)
	queue := []TypeRef{sub}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if !seen.Insert(current) {
			continue
		}
		t, ok := r.Lookup(current)
		if !ok {
			continue
		}
		for _, promoted := range t.promotes {
			if promoted == sup {
				return true
			}
			queue = append(queue, promoted)
		}
	}
	return false
}

// Compatible decides whether a value of type provided can be used where required is expected
func (r *Registry) Compatible(provided, required TypeRef) Outcome {
	switch {
	case !required.Known() || required == ObjectRef:
		return Satisfied
	case !provided.Known():
		return Unknown
	case provided == required:
		return Satisfied
	}
	_, okProvided := r.Lookup(provided)
	_, okRequired := r.Lookup(required)
	if !okProvided || !okRequired {
		// annotations we know nothing about, like list[int]
		return Unknown
	}
	if r.IsSubtype(provided, required) {
		return Satisfied
	}
	return Violated
}

// Meet returns the narrowest of a and b, UnknownRef acting as identity.
// ok is false when neither is a subtype of the other.
func (r *Registry) Meet(a, b TypeRef) (t TypeRef, ok bool) {
	switch {
	case !a.Known():
		return b, true
	case !b.Known():
		return a, true
	case r.IsSubtype(a, b):
		return a, true
	case r.IsSubtype(b, a):
		return b, true
	}
	return UnknownRef, false
}

// Join returns the widest of a and b, UnknownRef acting as identity,
// and ObjectRef when they are unrelated.
func (r *Registry) Join(a, b TypeRef) TypeRef {
	switch {
	case !a.Known():
		return b
	case !b.Known():
		return a
	case r.IsSubtype(a, b):
		return b
	case r.IsSubtype(b, a):
		return a
	}
	return ObjectRef
}
