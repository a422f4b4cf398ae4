// Package parse reads the subset of C header syntax that binding generation understands:
// typedef'd structs, opaque struct handles, enums, plain typedefs, and function prototypes.
package parse

import (
	"errors"
	"regexp"
	"strings"
)

// Exported variables.
var (
	ErrEmptyHeader = errors.New("header declares no types or functions")
)

// Parse reads C header source.
// Declarations are consumed in a fixed order (opaque handles, struct bodies, enums, plain typedefs,
// then prototypes) so that later patterns never see text an earlier one already claimed.
func Parse(src string) (*Header, error) {
	content := normalize(src)
	header := &Header{}

	content = consume(content, opaqueRe, func(m []string) {
		header.Structs = append(header.Structs, Struct{Name: m[2], IsOpaque: true})
	})

	content = consume(content, structRe, func(m []string) {
		header.Structs = append(header.Structs, Struct{Name: m[2], Fields: parseFields(m[1])})
	})

	content = consume(content, enumRe, func(m []string) {
		header.Enums = append(header.Enums, Enum{Name: m[2], Values: parseEnumValues(m[1])})
	})

	content = consume(content, typedefRe, func(m []string) {
		header.TypeDefs = append(header.TypeDefs, TypeDef{Name: m[2], Source: parseCType(m[1])})
	})

	_ = consume(content, funcRe, func(m []string) {
		fn := Function{Name: m[2], Return: parseCType(m[1])}
		fn.Params, fn.IsVariadic = parseParams(m[3])
		header.Functions = append(header.Functions, fn)
	})

	if len(header.Structs)+len(header.Functions)+len(header.TypeDefs)+len(header.Enums) == 0 {
		return nil, ErrEmptyHeader
	}

	return header, nil
}

// unexported variables.
var (
	//nolint:gochecknoglobals // compiled once
	blockCommentRe = regexp.MustCompile(`/\*[\s\S]*?\*/`)
	//nolint:gochecknoglobals // compiled once
	lineCommentRe = regexp.MustCompile(`//[^\n]*`)
	//nolint:gochecknoglobals // compiled once
	preprocessorRe = regexp.MustCompile(`(?m)^[ \t]*#[^\n]*`)
	//nolint:gochecknoglobals // compiled once
	externCRe = regexp.MustCompile(`extern\s+"C"\s*\{|extern\s+"C"`)
	//nolint:gochecknoglobals // compiled once
	spaceRe = regexp.MustCompile(`[ \t]+`)
	//nolint:gochecknoglobals // compiled once
	opaqueRe = regexp.MustCompile(`typedef\s+struct\s+(\w+)\s*\*\s*(\w+)\s*;`)
	//nolint:gochecknoglobals // compiled once
	structRe = regexp.MustCompile(`typedef\s+struct\s*\w*\s*\{([^}]*)\}\s*(\w+)\s*;`)
	//nolint:gochecknoglobals // compiled once
	enumRe = regexp.MustCompile(`typedef\s+enum\s*\w*\s*\{([^}]*)\}\s*(\w+)\s*;`)
	//nolint:gochecknoglobals // compiled once
	typedefRe = regexp.MustCompile(`typedef\s+([^;{}]+?)\s*\b(\w+)\s*;`)
	//nolint:gochecknoglobals // compiled once
	funcRe = regexp.MustCompile(
		`(?m)^[ \t]*((?:(?:const|unsigned|signed|struct|extern|static|inline)\s+)*(?:\w+[ \t]+)*?\w+[\s*]*?)\s*\b(\w+)\s*\(([^)]*)\)\s*;`)
)

// consume calls handle for every match of re and returns content with the matches removed.
func consume(content string, re *regexp.Regexp, handle func([]string)) string {
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		for i := range m {
			m[i] = strings.TrimSpace(m[i])
		}

		handle(m)
	}

	return re.ReplaceAllString(content, "")
}

func normalize(s string) string {
	s = blockCommentRe.ReplaceAllString(s, "")
	s = lineCommentRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = preprocessorRe.ReplaceAllString(s, "")
	s = externCRe.ReplaceAllString(s, "")

	return spaceRe.ReplaceAllString(s, " ")
}

// parseCType reads a type such as "const char *", "unsigned int" or "struct Foo".
func parseCType(typeStr string) CType {
	ct := CType{}

	if strings.Contains(typeStr, "*") {
		ct.IsPointer = true
		typeStr = strings.ReplaceAll(typeStr, "*", " ")
	}

	var words []string

	for _, word := range strings.Fields(typeStr) {
		switch word {
		case "const":
			ct.IsConst = true
		case "unsigned":
			ct.IsUnsigned = true
		case "signed", "struct", "enum", "extern", "static", "inline", "volatile":
		default:
			words = append(words, word)
		}
	}

	// "long int" and "short int" name the same types as "long" and "short"
	if len(words) > 1 && words[len(words)-1] == "int" && (words[0] == "long" || words[0] == "short") {
		words = words[:len(words)-1]
	}

	ct.Name = strings.Join(words, " ")
	if ct.Name == "" && ct.IsUnsigned {
		ct.Name = "int"
	}

	return ct
}

// parseDeclarator splits "type name" into its parts, moving pointer stars and array
// suffixes from the name back onto the type. Arrays keep their length; only parameters decay.
func parseDeclarator(decl string) (string, CType) {
	tokens := strings.Fields(strings.ReplaceAll(decl, "*", " * "))
	if len(tokens) < 2 || tokens[len(tokens)-1] == "*" {
		return "", parseCType(decl)
	}

	name := tokens[len(tokens)-1]
	ct := parseCType(strings.Join(tokens[:len(tokens)-1], " "))

	if base, dims, ok := strings.Cut(name, "["); ok {
		name = base
		ct.IsArray = true
		ct.ArrayLen = strings.TrimSpace(strings.TrimSuffix(dims, "]"))
	}

	// a lone type keyword such as "size_t" or "unsigned int" has no name
	if isTypeOnly(tokens) {
		return "", parseCType(decl)
	}

	return name, ct
}

func isTypeOnly(tokens []string) bool {
	last := tokens[len(tokens)-1]

	switch last {
	case "int", "char", "short", "long", "double", "float":
		return true
	}

	return false
}

func parseEnumValues(body string) []EnumValue {
	var values []EnumValue

	for part := range strings.SplitSeq(body, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, value, _ := strings.Cut(part, "=")
		values = append(values, EnumValue{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}

	return values
}

func parseFields(body string) []Field {
	var fields []Field

	for line := range strings.SplitSeq(body, ";") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		name, ct := parseDeclarator(line)
		if name == "" {
			continue
		}

		fields = append(fields, Field{Name: name, Type: ct})
	}

	return fields
}

func parseParams(paramsStr string) ([]Param, bool) {
	if paramsStr == "" || paramsStr == "void" {
		return nil, false
	}

	var params []Param

	isVariadic := false

	for part := range strings.SplitSeq(paramsStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if part == "..." {
			isVariadic = true

			continue
		}

		name, ct := parseDeclarator(part)
		if ct.IsArray {
			ct.IsPointer = true
			ct.IsArray = false
			ct.ArrayLen = ""
		}

		params = append(params, Param{Name: name, Type: ct})
	}

	return params, isVariadic
}
