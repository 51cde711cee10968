//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/cottand/duckcheck/duckcheck"
)

func main() {
	js.Global().Set("CheckAndShowTypes", js.FuncOf(duckcheck.CheckAndShowTypes))
	js.Global().Set("CheckProgram", duckcheck.CheckProgram)

	// wait indefinitely so that Go does not terminate execution
	// and the function remains available
	<-make(chan struct{})
}
