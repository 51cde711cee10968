package types

import (
	"strconv"
	"strings"
)

// TypeRef names a concrete type. The zero value means the type is unknown.
type TypeRef string

const (
	UnknownRef TypeRef = ""
	// ObjectRef is the universal supertype: every value is compatible with it
	ObjectRef TypeRef = "object"
)

func (t TypeRef) Known() bool { return t != UnknownRef }

func (t TypeRef) String() string {
	if !t.Known() {
		return "?"
	}
	return string(t)
}

// Param is a parameter of a Signature
type Param struct {
	Name       string
	Type       TypeRef
	HasDefault bool
}

// Signature describes a callable. For methods, the receiver is not part of Params.
type Signature struct {
	Params []Param
	Return TypeRef
}

// Arity returns the minimum and maximum number of positional arguments accepted
func (s Signature) Arity() (min, max int) {
	for _, p := range s.Params {
		if !p.HasDefault {
			min++
		}
	}
	return min, len(s.Params)
}

func (s Signature) Accepts(nArgs int) bool {
	min, max := s.Arity()
	return nArgs >= min && nArgs <= max
}

// ArityString renders the accepted number of arguments, like "2" or "1 to 3"
func (s Signature) ArityString() string {
	min, max := s.Arity()
	if min == max {
		return pluralArgs(max)
	}
	return strconv.Itoa(min) + " to " + pluralArgs(max)
}

func (s Signature) String() string {
	sb := &strings.Builder{}
	sb.WriteString("(")
	for i, p := range s.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Name)
		if p.Type.Known() {
			sb.WriteString(": " + string(p.Type))
		}
		if p.HasDefault {
			sb.WriteString(" = ...")
		}
	}
	sb.WriteString(")")
	if s.Return.Known() {
		sb.WriteString(" -> " + string(s.Return))
	}
	return sb.String()
}

func pluralArgs(n int) string {
	if n == 1 {
		return "1 argument"
	}
	return strconv.Itoa(n) + " arguments"
}
