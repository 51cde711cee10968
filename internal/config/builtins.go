// Package config holds the built-in capability table, the configuration an analysis starts from.
package config

import (
	_ "embed"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/cottand/duckcheck/frontend/types"
	"github.com/pkg/errors"
)

//go:embed builtins.toml
var defaultBuiltins string

// Builtins is the TOML representation of the built-in types and their capabilities
type Builtins struct {
	Types map[string]TypeConfig `toml:"types"`
}

type TypeConfig struct {
	Promotes []string                `toml:"promotes,omitempty"`
	Members  map[string]string       `toml:"members,omitempty"`
	Methods  map[string]MethodConfig `toml:"methods,omitempty"`
}

type MethodConfig struct {
	// Params are the parameter types, "" for unknown
	Params []string `toml:"params,omitempty"`
	// Optional is how many trailing Params have defaults
	Optional int    `toml:"optional,omitempty"`
	Returns  string `toml:"returns,omitempty"`
}

// Default returns the built-in table shipped with duckcheck
func Default() (*Builtins, error) {
	b := &Builtins{}
	if _, err := toml.Decode(defaultBuiltins, b); err != nil {
		return nil, errors.Wrap(err, "decode default builtins")
	}
	return b, nil
}

// Decode reads a table from r
func Decode(r io.Reader) (*Builtins, error) {
	b := &Builtins{}
	if _, err := toml.NewDecoder(r).Decode(b); err != nil {
		return nil, errors.Wrap(err, "decode builtins")
	}
	return b, nil
}

// LoadFile reads the table at path and merges it over the default one
func LoadFile(path string) (*Builtins, error) {
	base, err := Default()
	if err != nil {
		return nil, err
	}
	override := &Builtins{}
	if _, err := toml.DecodeFile(path, override); err != nil {
		return nil, errors.Wrapf(err, "decode builtins file %s", path)
	}
	return base.Merge(override), nil
}

// Merge returns a table where the types of override replace the ones of b
func (b *Builtins) Merge(override *Builtins) *Builtins {
	merged := &Builtins{Types: maps.Clone(b.Types)}
	if merged.Types == nil {
		merged.Types = make(map[string]TypeConfig, len(override.Types))
	}
	maps.Copy(merged.Types, override.Types)
	return merged
}

// Encode writes b as TOML
func (b *Builtins) Encode(w io.Writer) error {
	return errors.Wrap(toml.NewEncoder(w).Encode(b), "encode builtins")
}

// Registry registers every type of the table as a built-in ConcreteType
func (b *Builtins) Registry() (*types.Registry, error) {
	reg := types.NewRegistry()
	for _, name := range slices.Sorted(maps.Keys(b.Types)) {
		spec, err := b.Types[name].spec(name)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(types.NewConcreteType(spec)); err != nil {
			return nil, errors.Wrap(err, "register builtins")
		}
	}
	return reg, nil
}

func (c TypeConfig) spec(name string) (types.TypeSpec, error) {
	spec := types.TypeSpec{
		Name:    name,
		Builtin: true,
		Methods: make(map[string]types.Signature, len(c.Methods)),
	}
	for _, promoted := range c.Promotes {
		spec.Promotes = append(spec.Promotes, types.TypeRef(promoted))
	}
	for _, member := range slices.Sorted(maps.Keys(c.Members)) {
		spec.Members = append(spec.Members, types.MemberDecl{Name: member, Type: types.TypeRef(c.Members[member])})
	}
	for methodName, m := range c.Methods {
		if m.Optional < 0 || m.Optional > len(m.Params) {
			return spec, errors.Errorf("method %s.%s: optional must be between 0 and %d, found %d", name, methodName, len(m.Params), m.Optional)
		}
		sig := types.Signature{Return: types.TypeRef(m.Returns)}
		for i, param := range m.Params {
			sig.Params = append(sig.Params, types.Param{
				Name:       "arg" + strconv.Itoa(i),
				Type:       types.TypeRef(param),
				HasDefault: i >= len(m.Params)-m.Optional,
			})
		}
		spec.Methods[methodName] = sig
	}
	return spec, nil
}
