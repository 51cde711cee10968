package duckerr

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"

	"github.com/cottand/duckcheck/frontend/ast"
)

type Errors struct {
	errs []DuckError
}

func (r *Errors) With(err ...DuckError) *Errors {
	if r == nil {
		return &Errors{errs: err}
	}
	r.errs = append(r.errs, err...)
	return r
}

func (r *Errors) Merge(err *Errors) *Errors {
	if r == nil {
		return err
	}
	if err == nil {
		return r
	}
	if len(err.errs) == 0 {
		return r
	}
	return r.With(err.errs...)
}

func (r *Errors) Errors() []DuckError {
	if r == nil {
		return nil
	}
	return r.errs
}

func (r *Errors) HasError() bool {
	if r == nil {
		return false
	}
	return len(r.errs) > 0
}

func (r *Errors) Len() int {
	if r == nil {
		return 0
	}
	return len(r.errs)
}

// Sort orders diagnostics by location (start, then end), then by code, then message.
// The order is stable, so that reports do not depend on collection order.
func (r *Errors) Sort() {
	if r == nil {
		return
	}
	slices.SortStableFunc(r.errs, compare)
}

// Dedup removes exact duplicates. It expects the diagnostics to be sorted.
func (r *Errors) Dedup() {
	if r == nil {
		return
	}
	r.errs = slices.CompactFunc(r.errs, func(a, b DuckError) bool {
		return compare(a, b) == 0 && a.Observed() == b.Observed() && a.Required() == b.Required()
	})
}

func compare(a, b DuckError) int {
	return cmp.Or(
		ast.CompareRanges(ast.RangeOf(a), ast.RangeOf(b)),
		cmp.Compare(a.Code(), b.Code()),
		cmp.Compare(a.Error(), b.Error()),
	)
}

func (r *Errors) LogValue() slog.Value {
	var vals []slog.Attr
	for i, v := range r.Errors() {
		vals = append(vals, slog.Attr{
			Key: fmt.Sprint("e", i),
			Value: slog.GroupValue(
				slog.Attr{
					Key:   "msg",
					Value: slog.StringValue(FormatWithCode(v)),
				},
				slog.String("at", v.Pos().String()),
			),
		})
	}
	return slog.GroupValue(vals...)
}
