// Package diagnostics renders schema parse errors with the offending source
// line for human-friendly reading.
package diagnostics

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
)

// Diagnostic is one error located in a schema file.
type Diagnostic struct {
	Pos     lexer.Position
	Message string
}

// FromError extracts the location of a parse error anywhere in err's chain.
func FromError(err error) (Diagnostic, bool) {
	var perr participle.Error
	if !errors.As(err, &perr) {
		return Diagnostic{}, false
	}
	return Diagnostic{Pos: perr.Position(), Message: perr.Message()}, true
}

// Colorer defines how the title and the offending text are colored.
type Colorer interface {
	Title() string
	PrimaryColor(text string) string
}

// ErrorColorer provides coloring for error diagnostics.
type ErrorColorer struct{}

// Title returns the title for errors.
func (ErrorColorer) Title() string { return "error" }

// PrimaryColor returns the colored text for errors.
func (ErrorColorer) PrimaryColor(text string) string {
	return color.New(color.FgRed, color.Bold).Sprint(text)
}

// WarningColorer provides coloring for warning diagnostics.
type WarningColorer struct{}

// Title returns the title for warnings.
func (WarningColorer) Title() string { return "warning" }

// PrimaryColor returns the colored text for warnings.
func (WarningColorer) PrimaryColor(text string) string {
	return color.New(color.FgYellow, color.Bold).Sprint(text)
}

// PrettyPrint writes d with the line before it and a caret under the
// offending column. Lines and columns are 1-based as participle reports them.
func PrettyPrint(w io.Writer, fileName, text string, d Diagnostic, colorer Colorer) {
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
	titleColor := color.New(color.Bold)
	arrowColor := color.New(color.FgCyan, color.Bold)
	filePathColor := color.New(color.Underline)
	lineNumColor := color.New(color.FgCyan, color.Bold)

	lines := strings.Split(text, "\n")
	lineNo := d.Pos.Line
	if lineNo < 1 {
		lineNo = 1
	}
	if lineNo > len(lines) {
		lineNo = len(lines)
	}
	line := lines[lineNo-1]
	col := d.Pos.Column - 1
	if col < 0 {
		col = 0
	}
	if col > len(line) {
		col = len(line)
	}
	// The offending token runs to the next space.
	end := col
	for end < len(line) && line[end] != ' ' && line[end] != '\t' {
		end++
	}

	titleColor.Fprintf(w, "%s: %s\n", colorer.Title(), d.Message)
	arrowColor.Fprint(w, "  --> ")
	filePathColor.Fprintf(w, "%s:%d:%d\n", fileName, lineNo, col+1)
	lineNumColor.Fprint(w, "   |\n")
	if lineNo > 1 {
		lineNumColor.Fprintf(w, "%2d | ", lineNo-1)
		fmt.Fprintln(w, lines[lineNo-2])
	}
	lineNumColor.Fprintf(w, "%2d | ", lineNo)
	fmt.Fprintf(w, "%s%s%s\n", line[:col], colorer.PrimaryColor(line[col:end]), line[end:])
	lineNumColor.Fprint(w, "   | ")
	fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", col), colorer.PrimaryColor("^"))
}
