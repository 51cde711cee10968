package duckerr

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

func ParseColorMode(s string) (ColorMode, error) {
	switch mode := ColorMode(s); mode {
	case ColorAuto, ColorAlways, ColorNever:
		return mode, nil
	}
	return "", fmt.Errorf("invalid color mode '%s', expected one of auto, always, never", s)
}

// Printer writes diagnostics one per line, as file:line:col: (E00N) kind: message
type Printer struct {
	w        io.Writer
	location *color.Color
	code     *color.Color
	detail   *color.Color
}

func NewPrinter(w io.Writer, mode ColorMode) *Printer {
	p := &Printer{
		w:        w,
		location: color.New(color.Bold),
		code:     color.New(color.FgRed, color.Bold),
		detail:   color.New(color.Faint),
	}
	enabled := mode == ColorAlways
	if mode == ColorAuto {
		if f, ok := w.(*os.File); ok {
			enabled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
	}
	for _, c := range []*color.Color{p.location, p.code, p.detail} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Print writes every diagnostic of errs, in their current order
func (p *Printer) Print(file string, errs *Errors) error {
	for _, e := range errs.Errors() {
		_, err := fmt.Fprintf(p.w, "%s %s %s %s\n",
			p.location.Sprintf("%s:%v:", file, e.Pos()),
			p.code.Sprintf("(%v) %s:", e.Code(), e.Code().Kind()),
			e.Error(),
			p.detail.Sprintf("[observed: %s, required: %s]", e.Observed(), e.Required()),
		)
		if err != nil {
			return err
		}
	}
	return nil
}
