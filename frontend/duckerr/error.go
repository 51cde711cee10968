package duckerr

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/cottand/duckcheck/frontend/ast"
	"github.com/cottand/duckcheck/frontend/types"
)

// enableDebugErrorPrinting makes errors include the frame that reported them when printed
const enableDebugErrorPrinting bool = false
const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None ErrCode = iota
	AbsentMember
	AbsentMethod
	TypeMismatch
	ArityMismatch
	ConflictingRequirement
)

// Kind is the name diagnostics of this code are reported with
func (c ErrCode) Kind() string {
	switch c {
	case AbsentMember:
		return "absent-member"
	case AbsentMethod:
		return "absent-method"
	case TypeMismatch:
		return "type-mismatch"
	case ArityMismatch:
		return "arity-mismatch"
	case ConflictingRequirement:
		return "conflicting-requirement"
	}
	return "unclassified"
}

func (c ErrCode) String() string { return fmt.Sprintf("E%03d", int(c)) }

// DuckError is a diagnostic: a violated requirement at a location of the analyzed program
type DuckError interface {
	Error() string
	Code() ErrCode
	ast.Positioner
	// Observed is the concrete type found at the site, "unresolved" when it could not be determined
	Observed() string
	// Required describes the capability that was not provided
	Required() string

	withStack([]byte) DuckError
	getStack() []byte
}

func FormatWithCode(e DuckError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			stack = strings.Split(stack, "\n")[6]
		}
		return fmt.Sprintf("%s:(%v) %s: %s", stack, e.Code(), e.Code().Kind(), e.Error())
	}
	return fmt.Sprintf("(%v) %s: %s", e.Code(), e.Code().Kind(), e.Error())
}

// FormatWithLocation prefixes FormatWithCode with file:line:col
func FormatWithLocation(file string, e DuckError) string {
	return fmt.Sprintf("%s:%v: %s", file, e.Pos(), FormatWithCode(e))
}

func New[E DuckError](err E) DuckError {
	return err.withStack(debug.Stack())
}

// Violation holds what every diagnostic reports
type Violation struct {
	ast.Positioner
	ObservedType string
	Requirement  string
	Message      string
	stack        []byte
}

func (v Violation) Observed() string { return v.ObservedType }
func (v Violation) Required() string { return v.Requirement }
func (v Violation) Error() string    { return v.Message }
func (v Violation) getStack() []byte { return v.stack }

type NewAbsentMember struct{ Violation }

func (e NewAbsentMember) Code() ErrCode { return AbsentMember }
func (e NewAbsentMember) withStack(stack []byte) DuckError {
	e.stack = stack
	return e
}

type NewAbsentMethod struct{ Violation }

func (e NewAbsentMethod) Code() ErrCode { return AbsentMethod }
func (e NewAbsentMethod) withStack(stack []byte) DuckError {
	e.stack = stack
	return e
}

type NewTypeMismatch struct{ Violation }

func (e NewTypeMismatch) Code() ErrCode { return TypeMismatch }
func (e NewTypeMismatch) withStack(stack []byte) DuckError {
	e.stack = stack
	return e
}

type NewArityMismatch struct{ Violation }

func (e NewArityMismatch) Code() ErrCode { return ArityMismatch }
func (e NewArityMismatch) withStack(stack []byte) DuckError {
	e.stack = stack
	return e
}

type NewConflictingRequirement struct{ Violation }

func (e NewConflictingRequirement) Code() ErrCode { return ConflictingRequirement }
func (e NewConflictingRequirement) withStack(stack []byte) DuckError {
	e.stack = stack
	return e
}

// Restore rebuilds a diagnostic of the given code, for example from a cache
func Restore(code ErrCode, v Violation) (DuckError, error) {
	switch code {
	case AbsentMember:
		return NewAbsentMember{v}, nil
	case AbsentMethod:
		return NewAbsentMethod{v}, nil
	case TypeMismatch:
		return NewTypeMismatch{v}, nil
	case ArityMismatch:
		return NewArityMismatch{v}, nil
	case ConflictingRequirement:
		return NewConflictingRequirement{v}, nil
	}
	return nil, fmt.Errorf("unknown diagnostic code %v", code)
}

// FromResult turns a Violated Result into a diagnostic at the given location.
// subject, when not empty, says what was checked, like "argument 1 of 'f'".
// Results which are not violated produce nothing.
func FromResult(at ast.Positioner, subject string, r types.Result) (DuckError, bool) {
	if !r.IsViolated() {
		return nil, false
	}
	observed := "unresolved"
	if r.Observed.Known() {
		observed = string(r.Observed)
	}
	message := r.Detail
	if subject != "" {
		message = subject + ": " + message
	}
	v := Violation{
		Positioner:   ast.RangeOf(at),
		ObservedType: observed,
		Requirement:  r.Required.String(),
		Message:      message,
	}
	switch r.Reason {
	case types.AbsentMember:
		return New(NewAbsentMember{v}), true
	case types.AbsentMethod:
		return New(NewAbsentMethod{v}), true
	case types.TypeMismatch:
		return New(NewTypeMismatch{v}), true
	case types.ArityMismatch:
		return New(NewArityMismatch{v}), true
	case types.ConflictingRequirement:
		return New(NewConflictingRequirement{v}), true
	}
	return nil, false
}
