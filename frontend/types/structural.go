package types

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/benbjohnson/immutable"
)

// Lattice orders concrete types, so that requirements on the same name can be merged
type Lattice interface {
	Meet(a, b TypeRef) (TypeRef, bool)
	Join(a, b TypeRef) TypeRef
}

// Conflict records why a StructuralType became Conflicting
type Conflict struct {
	Name          string
	First, Second Capability
}

func (c *Conflict) String() string {
	if c.First.Kind != c.Second.Kind {
		return fmt.Sprintf("'%s' is required both as an %s and as a %s", c.Name, c.First.Kind, c.Second.Kind)
	}
	return fmt.Sprintf("'%s' is required as both %v and %v", c.Name, c.First, c.Second)
}

type stringComparer struct{}

func (stringComparer) Compare(a, b string) int { return strings.Compare(a, b) }

// StructuralType is a set of required capabilities, keyed by name.
//
// It is a persistent value: Add and Merge return a new StructuralType and leave the
// receiver untouched, so a StructuralType handed out by the solver is frozen.
// The zero value has no requirements and is satisfied by anything (top).
type StructuralType struct {
	reqs     *immutable.SortedMap[string, Capability]
	conflict *Conflict
}

// Top is the StructuralType without requirements
var Top = StructuralType{}

// StructuralOf builds a StructuralType holding all of caps
func StructuralOf(lattice Lattice, caps ...Capability) StructuralType {
	st := Top
	for _, c := range caps {
		st, _ = st.Add(lattice, c)
	}
	return st
}

func (s StructuralType) IsTop() bool {
	return s.conflict == nil && s.Len() == 0
}

func (s StructuralType) IsConflicting() bool { return s.conflict != nil }

// Conflict returns the first conflict found, nil if s is not Conflicting
func (s StructuralType) Conflict() *Conflict { return s.conflict }

func (s StructuralType) Len() int {
	if s.reqs == nil {
		return 0
	}
	return s.reqs.Len()
}

// Get returns the requirement on name; for a method called with several argument
// counts, the one with the fewest arguments
func (s StructuralType) Get(name string) (Capability, bool) {
	if s.reqs == nil {
		return Capability{}, false
	}
	if c, ok := s.reqs.Get(name); ok {
		return c, true
	}
	for c := range s.Requirements() {
		if c.Kind == MethodCap && c.Name == name {
			return c, true
		}
	}
	return Capability{}, false
}

func (s StructuralType) lookup(key string) (Capability, bool) {
	if s.reqs == nil {
		return Capability{}, false
	}
	return s.reqs.Get(key)
}

// shapeClash returns a requirement on the same name as c but of another kind
func (s StructuralType) shapeClash(c Capability) (Capability, bool) {
	if c.Kind == InstanceCap {
		return Capability{}, false
	}
	for existing := range s.Requirements() {
		if existing.Name == c.Name && existing.Kind != InstanceCap && existing.Kind != c.Kind {
			return existing, true
		}
	}
	return Capability{}, false
}

// Requirements iterates the requirements sorted by name
func (s StructuralType) Requirements() iter.Seq[Capability] {
	return func(yield func(Capability) bool) {
		if s.reqs == nil {
			return
		}
		itr := s.reqs.Iterator()
		for !itr.Done() {
			_, c, ok := itr.Next()
			if !ok || !yield(c) {
				return
			}
		}
	}
}

// Names returns the sorted, distinct names of required members and methods, without
// instance requirements
func (s StructuralType) Names() []string {
	var names []string
	for c := range s.Requirements() {
		if c.Kind != InstanceCap {
			names = append(names, c.Name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// Add merges c into s. changed is false when s already implied c.
// Once Conflicting, a StructuralType never changes again.
func (s StructuralType) Add(lattice Lattice, c Capability) (merged StructuralType, changed bool) {
	if s.conflict != nil {
		return s, false
	}
	reqs := s.reqs
	if reqs == nil {
		reqs = immutable.NewSortedMap[string, Capability](stringComparer{})
	}
	if other, clash := s.shapeClash(c); clash {
		return StructuralType{reqs: reqs, conflict: &Conflict{Name: c.Name, First: other, Second: c}}, true
	}
	existing, ok := reqs.Get(c.key())
	if !ok {
		return StructuralType{reqs: reqs.Set(c.key(), c)}, true
	}
	combined, ok := meetCapabilities(lattice, existing, c)
	if !ok {
		return StructuralType{reqs: reqs, conflict: &Conflict{Name: c.Name, First: existing, Second: c}}, true
	}
	if combined.Equal(existing) {
		return s, false
	}
	return StructuralType{reqs: reqs.Set(c.key(), combined)}, true
}

// Merge adds every requirement of other to s (set union)
func (s StructuralType) Merge(lattice Lattice, other StructuralType) (merged StructuralType, changed bool) {
	if other.conflict != nil {
		if s.conflict != nil {
			return s, false
		}
		return StructuralType{reqs: s.reqs, conflict: other.conflict}, true
	}
	merged = s
	for c := range other.Requirements() {
		var added bool
		merged, added = merged.Add(lattice, c)
		changed = changed || added
	}
	return merged, changed
}

// Equal compares requirements and conflict state
func (s StructuralType) Equal(other StructuralType) bool {
	if s.IsConflicting() != other.IsConflicting() || s.Len() != other.Len() {
		return false
	}
	for c := range s.Requirements() {
		o, ok := other.lookup(c.key())
		if !ok || !o.Equal(c) {
			return false
		}
	}
	return true
}

func (s StructuralType) String() string {
	if s.conflict != nil {
		return "conflicting(" + s.conflict.String() + ")"
	}
	parts := make([]string, 0, s.Len())
	for c := range s.Requirements() {
		parts = append(parts, c.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// meetCapabilities combines two requirements on the same key into one requirement
// implying both. ok is false when no value could satisfy both.
func meetCapabilities(lattice Lattice, a, b Capability) (c Capability, ok bool) {
	if a.Kind != b.Kind {
		return c, false
	}
	switch a.Kind {
	case MemberCap, InstanceCap:
		t, ok := lattice.Meet(a.Type, b.Type)
		if !ok {
			return c, false
		}
		c = a
		c.Type = t
		if a.Kind == InstanceCap {
			c.Name = string(t)
		}
		return c, true
	case MethodCap:
		ret, ok := lattice.Meet(a.Type, b.Type)
		if !ok {
			return c, false
		}
		// the method must accept every argument type it is called with
		args := slices.Clone(a.Args)
		for i := range args {
			args[i] = lattice.Join(a.Args[i], b.Args[i])
		}
		return Method(a.Name, args, ret), true
	}
	return c, false
}
