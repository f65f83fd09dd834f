package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Styles colors CLI output. The zero value prints plain text.
type Styles struct {
	color bool
}

func detectStyles(w io.Writer) Styles {
	// NO_COLOR convention: https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return Styles{}
	}
	if os.Getenv("TERM") == "dumb" {
		return Styles{}
	}
	f, ok := w.(*os.File)
	if !ok {
		return Styles{}
	}
	return Styles{color: isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())}
}

func (s Styles) wrap(code, text string) string {
	if !s.color {
		return text
	}
	return "\x1b[" + code + "m" + text + "\x1b[0m"
}

func (s Styles) Heading(text string) string { return s.wrap("1;34", text) }
func (s Styles) Muted(text string) string   { return s.wrap("2", text) }
func (s Styles) Good(text string) string    { return s.wrap("32", text) }
func (s Styles) Bad(text string) string     { return s.wrap("31", text) }
