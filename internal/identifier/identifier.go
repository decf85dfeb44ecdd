// Package identifier models fully-qualified Snowflake object names
// (database.schema.object, optionally with a call signature for callables).
// Quoting as written is preserved for rendering; comparisons are
// quoting-insensitive per Snowflake identifier resolution rules.
package identifier

import (
	"fmt"
	"strings"
)

// NotFullyQualifiedError indicates an input string that does not follow the
// three-part database.schema.object grammar.
type NotFullyQualifiedError struct {
	Input string
}

func (e *NotFullyQualifiedError) Error() string {
	return fmt.Sprintf("not a fully qualified name: %q", e.Input)
}

// FullyQualifiedName is a parsed three-part object name. Parts keep their
// original quoting; Arguments holds a verbatim call signature including the
// parentheses, or "" for non-callables.
type FullyQualifiedName struct {
	Database string
	Schema   string
	Name     string
	Args     string
}

// Parse parses text into a FullyQualifiedName. Exactly three dot-separated
// identifier parts are required; the third part may carry a parenthesized
// argument list. Anything else fails with NotFullyQualifiedError -- malformed
// input is rejected, never truncated.
func Parse(text string) (FullyQualifiedName, error) {
	body, args, err := splitArguments(text)
	if err != nil {
		return FullyQualifiedName{}, err
	}

	parts, err := splitParts(body)
	if err != nil {
		return FullyQualifiedName{}, err
	}
	if len(parts) != 3 {
		return FullyQualifiedName{}, &NotFullyQualifiedError{Input: text}
	}
	for _, p := range parts {
		if p == "" {
			return FullyQualifiedName{}, &NotFullyQualifiedError{Input: text}
		}
	}

	return FullyQualifiedName{
		Database: parts[0],
		Schema:   parts[1],
		Name:     parts[2],
		Args:     args,
	}, nil
}

// MustParse is Parse for trusted literals; it panics on malformed input.
func MustParse(text string) FullyQualifiedName {
	fqn, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return fqn
}

// String renders the dotted identifier, preserving the quoting characters the
// input carried verbatim. No re-quoting policy is applied; callers that need
// a specific target quoting must build it themselves.
func (f FullyQualifiedName) String() string {
	return f.Database + "." + f.Schema + "." + f.Name + f.Args
}

// Equals compares part by part after removing quoting: unquoted parts fold to
// upper case, quoted parts compare literally. The call signature is ignored.
func (f FullyQualifiedName) Equals(other FullyQualifiedName) bool {
	return Normalize(f.Database) == Normalize(other.Database) &&
		Normalize(f.Schema) == Normalize(other.Schema) &&
		Normalize(f.Name) == Normalize(other.Name)
}

// Key returns the canonical comparison form of the name, suitable as a map
// or graph node key. Two names with Key() equal are Equals().
func (f FullyQualifiedName) Key() string {
	return Normalize(f.Database) + "." + Normalize(f.Schema) + "." + Normalize(f.Name)
}

// BareName returns the unquoted object name without any call signature.
func (f FullyQualifiedName) BareName() string {
	return Unquote(f.Name)
}

// WithoutArguments returns a copy with the call signature dropped.
func (f FullyQualifiedName) WithoutArguments() FullyQualifiedName {
	f.Args = ""
	return f
}

// splitArguments separates a trailing parenthesized call signature from the
// identifier body. The signature must be terminated; an unbalanced opening
// parenthesis is malformed input.
func splitArguments(text string) (body, args string, err error) {
	inQuote := false
	for i, r := range text {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == '(' && !inQuote:
			if !strings.HasSuffix(text, ")") {
				return "", "", &NotFullyQualifiedError{Input: text}
			}
			return text[:i], text[i:], nil
		}
	}
	if inQuote {
		return "", "", &NotFullyQualifiedError{Input: text}
	}
	return text, "", nil
}

// splitParts splits a dotted identifier on dots outside double quotes. It
// validates quote pairing but leaves the quotes on each part.
func splitParts(body string) ([]string, error) {
	var parts []string
	var cur strings.Builder
	inQuote := false
	for _, r := range body {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == '.' && !inQuote:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, &NotFullyQualifiedError{Input: body}
	}
	parts = append(parts, cur.String())
	return parts, nil
}
