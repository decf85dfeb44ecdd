package identifier

import (
	"strings"
	"unicode"
)

// Snowflake reserved words that always need quoting when used as identifiers.
// Based on the Snowflake documentation's reserved keyword list.
var reservedWords = map[string]bool{
	"account":           true,
	"all":               true,
	"alter":             true,
	"and":               true,
	"any":               true,
	"as":                true,
	"between":           true,
	"by":                true,
	"case":              true,
	"cast":              true,
	"check":             true,
	"column":            true,
	"connect":           true,
	"connection":        true,
	"constraint":        true,
	"create":            true,
	"cross":             true,
	"current":           true,
	"current_date":      true,
	"current_time":      true,
	"current_timestamp": true,
	"current_user":      true,
	"database":          true,
	"delete":            true,
	"distinct":          true,
	"drop":              true,
	"else":              true,
	"exists":            true,
	"false":             true,
	"following":         true,
	"for":               true,
	"from":              true,
	"full":              true,
	"grant":             true,
	"group":             true,
	"gscluster":         true,
	"having":            true,
	"ilike":             true,
	"in":                true,
	"increment":         true,
	"inner":             true,
	"insert":            true,
	"intersect":         true,
	"into":              true,
	"is":                true,
	"issue":             true,
	"join":              true,
	"lateral":           true,
	"left":              true,
	"like":              true,
	"localtime":         true,
	"localtimestamp":    true,
	"minus":             true,
	"natural":           true,
	"not":               true,
	"null":              true,
	"of":                true,
	"on":                true,
	"or":                true,
	"order":             true,
	"organization":      true,
	"qualify":           true,
	"regexp":            true,
	"revoke":            true,
	"right":             true,
	"rlike":             true,
	"row":               true,
	"rows":              true,
	"sample":            true,
	"schema":            true,
	"select":            true,
	"set":               true,
	"some":              true,
	"start":             true,
	"table":             true,
	"tablesample":       true,
	"then":              true,
	"to":                true,
	"trigger":           true,
	"true":              true,
	"try_cast":          true,
	"union":             true,
	"unique":            true,
	"update":            true,
	"using":             true,
	"values":            true,
	"view":              true,
	"when":              true,
	"whenever":          true,
	"where":             true,
	"with":              true,
}

// IsQuoted reports whether raw is a double-quoted identifier.
func IsQuoted(raw string) bool {
	return len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"'
}

// Unquote returns the value of an identifier as written: quoted identifiers
// lose their surrounding quotes and un-double embedded quotes, unquoted
// identifiers are returned unchanged.
func Unquote(raw string) string {
	if !IsQuoted(raw) {
		return raw
	}
	inner := raw[1 : len(raw)-1]
	return strings.ReplaceAll(inner, `""`, `"`)
}

// Normalize returns the comparison form of an identifier part: unquoted
// identifiers fold to upper case (Snowflake stores them upper-cased), quoted
// identifiers keep their literal value.
func Normalize(raw string) string {
	if IsQuoted(raw) {
		return Unquote(raw)
	}
	return strings.ToUpper(raw)
}

// NeedsQuoting checks whether an identifier value cannot be written as an
// unquoted Snowflake identifier and round-trip unchanged.
func NeedsQuoting(value string) bool {
	if value == "" {
		return false
	}

	if reservedWords[strings.ToLower(value)] {
		return true
	}

	// Unquoted identifiers fold to upper case, so anything containing a
	// lowercase letter only survives inside quotes.
	for _, r := range value {
		if unicode.IsLower(r) {
			return true
		}
	}

	for i, r := range value {
		if i == 0 && !unicode.IsLetter(r) && r != '_' {
			return true
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' {
			return true
		}
	}

	return false
}

// QuoteIfNeeded renders an identifier value, quoting it only when required.
// Embedded double quotes are doubled per Snowflake quoting rules.
func QuoteIfNeeded(value string) string {
	if NeedsQuoting(value) {
		return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
	}
	return value
}
