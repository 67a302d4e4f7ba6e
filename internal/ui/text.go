package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Formatter applies one semantic style to text: a color when the terminal
// supports it, a textual decoration when it does not.
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

// Sprint formats the arguments in the formatter's style.
func (f Formatter) Sprint(a ...interface{}) string {
	text := fmt.Sprint(a...)
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

// Sprintf formats according to a format specifier in the formatter's style.
func (f Formatter) Sprintf(format string, a ...interface{}) string {
	text := fmt.Sprintf(format, a...)
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

// EnsureNewline appends a trailing newline when s lacks one. Spinner final
// messages are assembled without one.
func EnsureNewline(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\n' {
		return s + "\n"
	}
	return s
}

// noColor reports whether color output should be disabled: the NO_COLOR
// convention (https://no-color.org/) or fatih/color's own terminal detection.
func noColor() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}
	return color.NoColor
}

// Semantic formatters used across the command surface.
var (
	// Code formats runnable medlock commands.
	// Yellow with color, `backticks` without.
	Code = Formatter{color.New(color.FgYellow), "`", "`"}

	// Path formats file paths, such as encrypted outputs and QR PNGs.
	// Yellow with color, no decoration without.
	Path = Formatter{color.New(color.FgYellow), "", ""}

	// Success formats success indicators and messages.
	// Green with color, unchanged without.
	Success = Formatter{color.New(color.FgGreen), "", ""}

	// Error formats error indicators and messages.
	// Red with color, unchanged without.
	Error = Formatter{color.New(color.FgRed), "", ""}

	// Warning formats warning indicators and messages.
	// Yellow with color, unchanged without.
	Warning = Formatter{color.New(color.FgYellow), "", ""}

	// Info formats informational hints, tips, and directional indicators.
	// Cyan with color, unchanged without.
	Info = Formatter{color.New(color.FgCyan), "", ""}

	// Highlight formats emphasized user values like patient and clinician ids.
	// Cyan with color, 'single quotes' without.
	Highlight = Formatter{color.New(color.FgCyan), "'", "'"}

	// Muted formats de-emphasized or secondary text.
	// Gray with color, (parentheses) without.
	Muted = Formatter{color.New(color.FgHiBlack), "(", ")"}
)
