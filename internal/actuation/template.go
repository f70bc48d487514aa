// Package actuation renders command templates and sends the resulting
// payloads as single UDP datagrams to the active visualisation target.
//
// Templates come from the pipeline document's actuation.commands table.
// A template with no placeholders is a literal command (e.g. "BRAKE") and
// is sent verbatim. Placeholder templates mix "%.3f" numeric slots and
// "%s" string slots, filled in encounter order.
package actuation

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for the actuation package.
var (
	// ErrBadTemplate is returned when a template contains an unsupported
	// placeholder directive.
	ErrBadTemplate = errors.New("actuation: malformed template")

	// ErrArity is returned when the values supplied to Render do not match
	// the template's placeholder counts.
	ErrArity = errors.New("actuation: placeholder arity mismatch")
)

// segKind discriminates the parsed template segments.
type segKind int

const (
	segText segKind = iota
	segFloat
	segString
)

type segment struct {
	kind segKind
	text string // only for segText
}

// Template is a parsed command template. Parsing happens once, when the
// registry is built, so malformed templates are load-time errors.
type Template struct {
	raw      string
	segments []segment
	floats   int
	strings  int
}

// ParseTemplate parses a command template string.
//
// Supported placeholders are "%.3f" (numeric, rendered with the fixed
// 3-decimal rule) and "%s" (string). Any other '%' directive is rejected.
//
// Parameters:
//   - raw: Template string, e.g. "addrotation %.3f %.3f %.3f %s"
//
// Returns:
//   - *Template: Parsed template
//   - error: ErrBadTemplate if an unsupported directive is present
func ParseTemplate(raw string) (*Template, error) {
	t := &Template{raw: raw}

	rest := raw
	for {
		i := strings.IndexByte(rest, '%')
		if i < 0 {
			break
		}
		if i > 0 {
			t.segments = append(t.segments, segment{kind: segText, text: rest[:i]})
		}
		rest = rest[i:]

		switch {
		case strings.HasPrefix(rest, "%.3f"):
			t.segments = append(t.segments, segment{kind: segFloat})
			t.floats++
			rest = rest[len("%.3f"):]
		case strings.HasPrefix(rest, "%s"):
			t.segments = append(t.segments, segment{kind: segString})
			t.strings++
			rest = rest[len("%s"):]
		default:
			directive := rest
			if len(directive) > 4 {
				directive = directive[:4]
			}
			return nil, fmt.Errorf("%w: unsupported placeholder %q in %q", ErrBadTemplate, directive, raw)
		}
	}
	if rest != "" {
		t.segments = append(t.segments, segment{kind: segText, text: rest})
	}

	return t, nil
}

// Raw returns the original template string.
func (t *Template) Raw() string {
	return t.raw
}

// IsLiteral reports whether the template has no placeholders and should be
// sent verbatim.
func (t *Template) IsLiteral() bool {
	return t.floats == 0 && t.strings == 0
}

// FloatArity returns the number of numeric placeholders.
func (t *Template) FloatArity() int {
	return t.floats
}

// StringArity returns the number of string placeholders.
func (t *Template) StringArity() int {
	return t.strings
}

// Render fills the template's placeholders in encounter order: values feed
// the numeric slots, args feed the string slots. Both must match the
// template's arity exactly.
//
// Returns:
//   - string: Rendered payload
//   - error: ErrArity on a count mismatch
func (t *Template) Render(values []float64, args []string) (string, error) {
	if len(values) != t.floats {
		return "", fmt.Errorf("%w: template %q needs %d numeric values, got %d", ErrArity, t.raw, t.floats, len(values))
	}
	if len(args) != t.strings {
		return "", fmt.Errorf("%w: template %q needs %d string values, got %d", ErrArity, t.raw, t.strings, len(args))
	}

	var b strings.Builder
	vi, si := 0, 0
	for _, seg := range t.segments {
		switch seg.kind {
		case segText:
			b.WriteString(seg.text)
		case segFloat:
			b.WriteString(FormatValue(values[vi]))
			vi++
		case segString:
			b.WriteString(args[si])
			si++
		}
	}
	return b.String(), nil
}
