package types

import (
	"slices"
	"strconv"
	"strings"
)

type CapabilityKind int

const (
	MemberCap CapabilityKind = iota
	MethodCap
	// InstanceCap requires a value to be compatible with a nominal type.
	// It appears when a value flows into a parameter with a declared type.
	InstanceCap
)

func (k CapabilityKind) String() string {
	switch k {
	case MemberCap:
		return "attribute"
	case MethodCap:
		return "method"
	case InstanceCap:
		return "instance"
	}
	return "capability"
}

// instanceKey is the key of InstanceCap requirements inside a StructuralType.
// It can never clash with an attribute name.
const instanceKey = "@instance"

// Capability is a named attribute or method a value may provide, with its type
type Capability struct {
	Kind CapabilityKind
	// Name of the attribute or method; for InstanceCap it is the name of the type
	Name string
	// Type is the attribute type, the method return type, or the instance type
	Type TypeRef
	// Args are the argument types of a method call, one per argument
	Args []TypeRef
}

// Member requires an attribute name of type t (which can be UnknownRef)
func Member(name string, t TypeRef) Capability {
	return Capability{Kind: MemberCap, Name: name, Type: t}
}

// Method requires a method name callable with args and returning ret
func Method(name string, args []TypeRef, ret TypeRef) Capability {
	return Capability{Kind: MethodCap, Name: name, Type: ret, Args: slices.Clone(args)}
}

// Instance requires compatibility with the nominal type t
func Instance(t TypeRef) Capability {
	return Capability{Kind: InstanceCap, Name: string(t), Type: t}
}

// key identifies c inside a StructuralType. Calls of a method with different argument
// counts are separate requirements, since defaults let one method accept several.
// '#' sorts before any identifier character, so keys keep the order of names.
func (c Capability) key() string {
	switch c.Kind {
	case InstanceCap:
		return instanceKey
	case MethodCap:
		return c.Name + "#" + strconv.Itoa(len(c.Args))
	}
	return c.Name
}

func (c Capability) Equal(other Capability) bool {
	return c.Kind == other.Kind && c.Name == other.Name && c.Type == other.Type && slices.Equal(c.Args, other.Args)
}

func (c Capability) String() string {
	switch c.Kind {
	case MemberCap:
		if c.Type.Known() {
			return "attribute '" + c.Name + ": " + string(c.Type) + "'"
		}
		return "attribute '" + c.Name + "'"
	case MethodCap:
		sb := &strings.Builder{}
		sb.WriteString("method '" + c.Name + "(")
		for i, arg := range c.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(arg.String())
		}
		sb.WriteString(")")
		if c.Type.Known() {
			sb.WriteString(" -> " + string(c.Type))
		}
		sb.WriteString("'")
		return sb.String()
	case InstanceCap:
		return "instance of '" + string(c.Type) + "'"
	}
	return "capability '" + c.Name + "'"
}
