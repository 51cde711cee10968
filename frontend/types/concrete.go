package types

import (
	"maps"
	"slices"
)

// MemberDecl is a declared attribute of a ConcreteType
type MemberDecl struct {
	Name string
	// Type may be UnknownRef when the attribute was not annotated
	Type TypeRef
}

// TypeSpec describes a ConcreteType before it is registered
type TypeSpec struct {
	Name     string
	Builtin  bool
	Members  []MemberDecl
	Methods  map[string]Signature
	Promotes []TypeRef
}

// ConcreteType is a nominal type, a class or a built-in, with a closed capability table.
// It is immutable once created.
type ConcreteType struct {
	name      string
	builtin   bool
	members   []MemberDecl
	memberIdx map[string]int
	methods   map[string]Signature
	promotes  []TypeRef

	// capabilityNames is sorted and unique
	capabilityNames []string
}

// NewConcreteType copies spec into a new ConcreteType.
// When a member is declared twice, the first annotated declaration wins.
func NewConcreteType(spec TypeSpec) *ConcreteType {
	t := &ConcreteType{
		name:      spec.Name,
		builtin:   spec.Builtin,
		memberIdx: make(map[string]int, len(spec.Members)),
		methods:   maps.Clone(spec.Methods),
		promotes:  slices.Clone(spec.Promotes),
	}
	if t.methods == nil {
		t.methods = make(map[string]Signature)
	}
	for _, m := range spec.Members {
		if i, ok := t.memberIdx[m.Name]; ok {
			if !t.members[i].Type.Known() {
				t.members[i].Type = m.Type
			}
			continue
		}
		t.memberIdx[m.Name] = len(t.members)
		t.members = append(t.members, m)
	}
	names := make([]string, 0, len(t.members)+len(t.methods))
	for _, m := range t.members {
		names = append(names, m.Name)
	}
	for name := range t.methods {
		names = append(names, name)
	}
	slices.Sort(names)
	t.capabilityNames = slices.Compact(names)
	return t
}

func (t *ConcreteType) Name() string        { return t.name }
func (t *ConcreteType) Ref() TypeRef        { return TypeRef(t.name) }
func (t *ConcreteType) IsBuiltin() bool     { return t.builtin }
func (t *ConcreteType) String() string      { return t.name }
func (t *ConcreteType) Promotes() []TypeRef { return slices.Clone(t.promotes) }

// Member returns the declared type of the attribute name
func (t *ConcreteType) Member(name string) (TypeRef, bool) {
	i, ok := t.memberIdx[name]
	if !ok {
		return UnknownRef, false
	}
	return t.members[i].Type, true
}

func (t *ConcreteType) Method(name string) (Signature, bool) {
	sig, ok := t.methods[name]
	return sig, ok
}

// Members returns the declared attributes in declaration order
func (t *ConcreteType) Members() []MemberDecl { return slices.Clone(t.members) }

// MethodNames returns the sorted method names
func (t *ConcreteType) MethodNames() []string {
	return slices.Sorted(maps.Keys(t.methods))
}

// CapabilityNames returns the sorted names of all members and methods
func (t *ConcreteType) CapabilityNames() []string { return slices.Clone(t.capabilityNames) }

// Spec returns a TypeSpec equivalent to t
func (t *ConcreteType) Spec() TypeSpec {
	return TypeSpec{
		Name:     t.name,
		Builtin:  t.builtin,
		Members:  t.Members(),
		Methods:  maps.Clone(t.methods),
		Promotes: t.Promotes(),
	}
}
