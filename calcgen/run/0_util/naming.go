// Package naming converts C identifiers into Go identifiers.
package naming

import (
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Exported converts a C identifier into an exported Go identifier.
// Underscore-separated words are joined in camel case; known initialisms are upper-cased.
//
//	calc_default_config -> CalcDefaultConfig
//	CalcConfig          -> CalcConfig
//	buf_id              -> BufID
func Exported(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '_' })

	var result strings.Builder

	for _, part := range parts {
		if initialisms[strings.ToLower(part)] {
			result.WriteString(strings.ToUpper(part))

			continue
		}

		first, size := utf8.DecodeRuneInString(part)
		result.WriteRune(unicode.ToUpper(first))
		result.WriteString(part[size:])
	}

	return result.String()
}

// Unexported converts a C identifier into an unexported Go identifier.
// Results that would collide with a Go keyword get a trailing underscore.
func Unexported(name string) string {
	goName := Exported(name)
	if goName == "" {
		return ""
	}

	// a leading initialism is lowered as a whole: ID -> id, URLPath -> urlPath
	upper := 0
	for upper < len(goName) && unicode.IsUpper(rune(goName[upper])) {
		upper++
	}

	switch {
	case upper == len(goName):
		goName = strings.ToLower(goName)
	case upper > 1:
		goName = strings.ToLower(goName[:upper-1]) + goName[upper-1:]
	default:
		goName = strings.ToLower(goName[:1]) + goName[1:]
	}

	if token.IsKeyword(goName) {
		return goName + "_"
	}

	return goName
}

// unexported variables.
var (
	//nolint:gochecknoglobals // lookup table
	initialisms = map[string]bool{
		"api": true, "http": true, "id": true, "io": true, "ip": true, "json": true,
		"sql": true, "tcp": true, "udp": true, "url": true, "xml": true,
	}
)
