package types

import (
	"slices"
	"sort"

	sortedset "github.com/xtgo/set"
)

// Conforms checks a single capability against the concrete type provided.
// Unresolved or unregistered types always yield Unknown.
func (r *Registry) Conforms(provided TypeRef, c Capability) Result {
	t, ok := r.Lookup(provided)
	if !ok {
		return unknown(c, provided)
	}
	if _, present := slices.BinarySearch(t.capabilityNames, c.Name); !present && c.Kind != InstanceCap {
		return absent(t, c)
	}
	return r.conformsPresent(t, c)
}

// ConformsAll checks every requirement of st against provided, in name order.
// A Conflicting st is violated by any value, known or not.
func (r *Registry) ConformsAll(provided TypeRef, st StructuralType) []Result {
	if st.IsConflicting() {
		conflict := st.Conflict()
		return []Result{violated(ConflictingRequirement, conflict.Second, provided, "%v", conflict)}
	}
	results := make([]Result, 0, st.Len())
	t, ok := r.Lookup(provided)
	if !ok {
		for c := range st.Requirements() {
			results = append(results, unknown(c, provided))
		}
		return results
	}
	missing := absentNames(st.Names(), t.capabilityNames)
	for c := range st.Requirements() {
		if _, isMissing := slices.BinarySearch(missing, c.Name); isMissing && c.Kind != InstanceCap {
			results = append(results, absent(t, c))
			continue
		}
		results = append(results, r.conformsPresent(t, c))
	}
	return results
}

// absentNames returns the names of required which are not in provided.
// Both inputs must be sorted and free of duplicates.
func absentNames(required, provided []string) []string {
	data := make(sort.StringSlice, 0, len(required)+len(provided))
	data = append(data, required...)
	data = append(data, provided...)
	size := sortedset.Diff(data, len(required))
	return data[:size]
}

func absent(t *ConcreteType, c Capability) Result {
	if c.Kind == MethodCap {
		return violated(AbsentMethod, c, t.Ref(), "'%s' object has no method '%s'", t.name, c.Name)
	}
	return violated(AbsentMember, c, t.Ref(), "'%s' object has no attribute '%s'", t.name, c.Name)
}

// conformsPresent checks c against t, knowing t declares something named c.Name
func (r *Registry) conformsPresent(t *ConcreteType, c Capability) Result {
	switch c.Kind {
	case InstanceCap:
		switch r.Compatible(t.Ref(), c.Type) {
		case Satisfied:
			return satisfied(c, t.Ref())
		case Violated:
			return violated(TypeMismatch, c, t.Ref(), "expected '%s', found '%s'", c.Type, t.name)
		}
		return unknown(c, t.Ref())

	case MemberCap:
		if memberType, ok := t.Member(c.Name); ok {
			switch r.Compatible(memberType, c.Type) {
			case Satisfied:
				return satisfied(c, t.Ref())
			case Violated:
				return violated(TypeMismatch, c, t.Ref(), "attribute '%s' of '%s' has type '%s', expected '%s'", c.Name, t.name, memberType, c.Type)
			}
			return unknown(c, t.Ref())
		}
		// reading a method without calling it yields a bound method
		if c.Type.Known() && c.Type != ObjectRef {
			return violated(TypeMismatch, c, t.Ref(), "'%s.%s' is a method, expected '%s'", t.name, c.Name, c.Type)
		}
		return satisfied(c, t.Ref())

	case MethodCap:
		sig, ok := t.Method(c.Name)
		if !ok {
			memberType, _ := t.Member(c.Name)
			if !memberType.Known() {
				// an attribute of unknown type may hold a callable
				return unknown(c, t.Ref())
			}
			return violated(AbsentMethod, c, t.Ref(), "attribute '%s' of '%s' has type '%s' and is not callable", c.Name, t.name, memberType)
		}
		return r.conformsSignature(t, c, sig)
	}
	return unknown(c, t.Ref())
}

func (r *Registry) conformsSignature(t *ConcreteType, c Capability, sig Signature) Result {
	if !sig.Accepts(len(c.Args)) {
		return violated(ArityMismatch, c, t.Ref(), "method '%s.%s' takes %s but is called with %d", t.name, c.Name, sig.ArityString(), len(c.Args))
	}
	outcome := Satisfied
	for i, arg := range c.Args {
		param := sig.Params[i]
		switch r.Compatible(arg, param.Type) {
		case Violated:
			return violated(TypeMismatch, c, t.Ref(), "argument %d of '%s.%s' expects '%s', found '%s'", i+1, t.name, c.Name, param.Type, arg)
		case Unknown:
			outcome = Unknown
		}
	}
	switch r.Compatible(sig.Return, c.Type) {
	case Violated:
		return violated(TypeMismatch, c, t.Ref(), "'%s.%s' returns '%s', expected '%s'", t.name, c.Name, sig.Return, c.Type)
	case Unknown:
		outcome = Unknown
	}
	if outcome == Unknown {
		return unknown(c, t.Ref())
	}
	return satisfied(c, t.Ref())
}
