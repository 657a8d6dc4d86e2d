// Package ui prints human oriented CLI output. Everything goes to the
// printer's writer, stderr by default, so stdout stays machine readable.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Banner printed by commands that run interactively
const Banner = `
  _       __            _
 (_)__ _ / _|___ ___ __| |
 | / _' |  _/ -_) -_) _' |
 |_\__, |_| \___\___\__,_|
   |___/   profile feed service
`

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// Printer writes styled lines to w
type Printer struct {
	mu      sync.Mutex
	w       io.Writer
	noColor bool
	quiet   bool
}

// NewPrinter creates a Printer on w
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

var std = NewPrinter(os.Stderr)

// Default returns the package level printer
func Default() *Printer { return std }

// SetNoColor disables ANSI colors
func (p *Printer) SetNoColor(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.noColor = v
}

// SetQuiet suppresses everything except errors
func (p *Printer) SetQuiet(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quiet = v
}

func (p *Printer) paint(color func(string) string, s string) string {
	if p.noColor {
		return s
	}
	return color(s)
}

func (p *Printer) println(always bool, color func(string) string, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.quiet && !always {
		return
	}
	fmt.Fprintln(p.w, p.paint(color, msg))
}

func withDetail(msg string, args []interface{}) string {
	if len(args) > 0 {
		return msg + ": " + fmt.Sprintf("%v", args[0])
	}
	return msg
}

// Banner prints the banner
func (p *Printer) Banner() {
	p.println(false, Cyan, Banner)
}

// Error prints msg in red, with an optional detail
func (p *Printer) Error(msg string, args ...interface{}) {
	p.println(true, Red, withDetail(msg, args))
}

// Warning prints msg in yellow, with an optional detail
func (p *Printer) Warning(msg string, args ...interface{}) {
	p.println(false, Yellow, withDetail(msg, args))
}

// Success prints msg in green
func (p *Printer) Success(msg string) {
	p.println(false, Green, msg)
}

// Highlight prints msg in magenta
func (p *Printer) Highlight(msg string) {
	p.println(false, Magenta, msg)
}

// Info prints a "label: value" line
func (p *Printer) Info(label, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.quiet {
		return
	}
	fmt.Fprintf(p.w, "%s: %s\n", p.paint(Cyan, label), p.paint(Yellow, value))
}

// Line prints msg unstyled
func (p *Printer) Line(msg string) {
	p.println(false, func(s string) string { return s }, msg)
}

// PrintError prints to the default printer
func PrintError(msg string, args ...interface{}) { std.Error(msg, args...) }

// PrintWarning prints to the default printer
func PrintWarning(msg string, args ...interface{}) { std.Warning(msg, args...) }

// PrintSuccess prints to the default printer
func PrintSuccess(msg string) { std.Success(msg) }

// PrintInfo prints to the default printer
func PrintInfo(label, value string) { std.Info(label, value) }

// PrintHighlight prints to the default printer
func PrintHighlight(msg string) { std.Highlight(msg) }
