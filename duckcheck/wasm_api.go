//go:build js && wasm

package duckcheck

import (
	"fmt"
	"strings"
	"syscall/js"

	"github.com/cottand/duckcheck/frontend/duckerr"
)

// CheckAndShowTypes analyzes program and returns the inferred types of its
// parameters, or the diagnostics if the program does not check
//
// output: { error: string } | { types: string, diagnostics: string }
func CheckAndShowTypes(_ js.Value, args []js.Value) (ret any) {
	errorObj := func(err string) any {
		return js.ValueOf(map[string]any{
			"error": err,
		})
	}
	defer func() {
		if r := recover(); r != nil {
			ret = errorObj("the checker panicked: " + fmt.Sprint(r))
		}
	}()

	pkg, errs, err := NewPackageFromBytes([]byte(args[0].String()), "program.yaml")
	if err != nil {
		return errorObj(fmt.Sprintf("the checker encountered a failure:\n\n%s", err))
	}
	sb := strings.Builder{}
	for _, e := range errs.Errors() {
		sb.WriteString(duckerr.FormatWithLocation(pkg.Name(), e))
		sb.WriteByte('\n')
	}
	return js.ValueOf(map[string]any{
		"types":       pkg.DisplayTypes(),
		"diagnostics": sb.String(),
	})
}

func checkProgram(_ js.Value, args []js.Value) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	pkg, errs, err := NewPackageFromBytes([]byte(args[0].String()), "program.yaml")
	if err != nil {
		return nil, err
	}
	var diagnostics []any
	for _, e := range errs.Errors() {
		diagnostics = append(diagnostics, map[string]any{
			"at":       e.Pos().String(),
			"code":     e.Code().String(),
			"kind":     e.Code().Kind(),
			"observed": e.Observed(),
			"required": e.Required(),
			"message":  e.Error(),
		})
	}
	return map[string]any{"program": pkg.Name(), "diagnostics": diagnostics}, nil
}

func jsError(msg string) js.Value {
	return js.Global().Get("Error").New(msg)
}

// asPromise wraps a Go function returning an error into a JS function returning a
// Promise, rejected with an Error when f fails or panics
func asPromise(f func(js.Value, []js.Value) (any, error)) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) any {
		executor := js.FuncOf(func(_ js.Value, settle []js.Value) any {
			resolve, reject := settle[0], settle[1]
			go func() {
				defer func() {
					if r := recover(); r != nil {
						reject.Invoke(jsError(fmt.Sprint(r)))
					}
				}()
				data, err := f(this, args)
				if err != nil {
					reject.Invoke(jsError(err.Error()))
					return
				}
				resolve.Invoke(js.ValueOf(data))
			}()
			return nil
		})
		return js.Global().Get("Promise").New(executor)
	})
}

// CheckProgram resolves to { program: string, diagnostics: [{at, code, kind, observed, required, message}] }
var CheckProgram = asPromise(checkProgram)
