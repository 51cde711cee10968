package types

import "fmt"

// Outcome is the state of a single conformance check: Pending until evaluated,
// then exactly one of Satisfied, Violated or Unknown
type Outcome int

const (
	Pending Outcome = iota
	Satisfied
	Violated
	// Unknown means the check cannot be decided statically
	Unknown
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Satisfied:
		return "satisfied"
	case Violated:
		return "violated"
	case Unknown:
		return "unknown"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Reason classifies a Violated Result
type Reason int

const (
	NoReason Reason = iota
	AbsentMember
	AbsentMethod
	TypeMismatch
	ArityMismatch
	ConflictingRequirement
)

func (r Reason) String() string {
	switch r {
	case NoReason:
		return "none"
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
	return fmt.Sprintf("reason(%d)", int(r))
}

// Result of checking one Capability against a concrete type
type Result struct {
	Outcome  Outcome
	Reason   Reason
	Required Capability
	// Observed is the concrete type that was checked, UnknownRef if unresolved
	Observed TypeRef
	// Detail is a human-readable explanation for Violated results
	Detail string
}

func (r Result) IsViolated() bool { return r.Outcome == Violated }

func (r Result) String() string {
	if r.Outcome != Violated {
		return fmt.Sprintf("%v: %v on %v", r.Outcome, r.Required, r.Observed)
	}
	return fmt.Sprintf("%v (%v): %s", r.Outcome, r.Reason, r.Detail)
}

func satisfied(c Capability, observed TypeRef) Result {
	return Result{Outcome: Satisfied, Required: c, Observed: observed}
}

func unknown(c Capability, observed TypeRef) Result {
	return Result{Outcome: Unknown, Required: c, Observed: observed}
}

func violated(reason Reason, c Capability, observed TypeRef, format string, args ...any) Result {
	return Result{
		Outcome:  Violated,
		Reason:   reason,
		Required: c,
		Observed: observed,
		Detail:   fmt.Sprintf(format, args...),
	}
}

// Violation builds a Violated Result for checks done outside this package, like call arity
func Violation(reason Reason, c Capability, observed TypeRef, format string, args ...any) Result {
	return violated(reason, c, observed, format, args...)
}

// Overall folds outcomes: any Violated wins, then any Unknown, else Satisfied.
// An empty slice is Satisfied.
func Overall(results []Result) Outcome {
	out := Satisfied
	for _, r := range results {
		switch r.Outcome {
		case Violated:
			return Violated
		case Unknown, Pending:
			out = Unknown
		}
	}
	return out
}
