package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	gwerrors "github.com/ontogate/ontogate/internal/errors"
)

// ErrorLevel represents the severity of a message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level       ErrorLevel
	Context     string
	Problem     string
	Suggestions []string
	Hints       []string
	NoColor     bool
}

// FormatError renders a message block:
//
//	✗ NOT FOUND: class http://example.onto/place/Cty in graph http://example.onto/place/ does not exist
//
//	   Did you mean: place:City?
//
//	   → List the classes of a context: curl http://localhost:8080/place
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var header *color.Color
	var symbol string
	switch opts.Level {
	case ErrorLevelWarning:
		header, symbol = color.New(color.FgYellow, color.Bold), "!"
	case ErrorLevelInfo:
		header, symbol = color.New(color.FgCyan, color.Bold), "i"
	default:
		header, symbol = color.New(color.FgRed, color.Bold), "✗"
	}
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)
	if opts.NoColor {
		header.DisableColor()
		yellow.DisableColor()
		cyan.DisableColor()
	}

	if opts.Context != "" {
		header.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.Hints) > 0 {
		b.WriteString("\n")
		for _, hint := range opts.Hints {
			cyan.Fprintf(&b, "   → %s\n", hint)
		}
	}
	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// OptionsFor classifies err into a message with hints for the command line
func OptionsFor(err error, noColor bool) ErrorOptions {
	opts := ErrorOptions{Level: ErrorLevelError, Problem: err.Error(), NoColor: noColor}

	var paramErr *gwerrors.InvalidParamError
	switch kind := gwerrors.Classify(err); kind {
	case gwerrors.KindNotFound:
		opts.Context = "not found"
		opts.Hints = []string{"Check --graph and the class URI against the triplestore"}
	case gwerrors.KindInvalidParam:
		opts.Context = "invalid parameter"
		if errors.As(err, &paramErr) {
			opts.Hints = []string{fmt.Sprintf("Fix the %q parameter", paramErr.Param)}
		}
	case gwerrors.KindInvalidSchemaData:
		opts.Context = "invalid schema data"
		opts.Hints = []string{"The ontology is inconsistent; fix it in the triplestore"}
	case gwerrors.KindTransport, gwerrors.KindTimeout:
		opts.Context = "triplestore unavailable"
		opts.Hints = []string{
			"Check triplestore.url in ontogate.yaml or ONTOGATE_TRIPLESTORE_URL",
			"Raise triplestore.timeout for slow endpoints",
		}
	}
	return opts
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}
