// Package generate turns a parsed C header into Go source that calls the library through libffi.
package generate

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dave/dst/decorator"

	naming "github.com/toejough/calc/calcgen/run/0_util"
	parse "github.com/toejough/calc/calcgen/run/1_parse"
)

// Exported constants.
const (
	FunctionsFile   = "functions.go"
	GeneratedMarker = "// Code generated by calcgen. DO NOT EDIT."
	LoaderFile      = "loader.go"
	TypesFile       = "types.go"
)

// Exported variables.
var (
	ErrUnsupportedType = errors.New("unsupported C type")
)

// Generator renders one header into the files of one Go package.
type Generator struct {
	pkg       string
	lib       string
	header    *parse.Header
	templates *TemplateRegistry
	skipped   []string
}

// New returns a Generator for package pkg binding the shared library named lib.
func New(pkg, lib string, header *parse.Header) *Generator {
	return &Generator{
		pkg:       pkg,
		lib:       lib,
		header:    header,
		templates: NewTemplateRegistry(),
	}
}

// Generate returns the generated sources keyed by file name.
// functions.go is only produced when the header declares at least one callable function.
func (g *Generator) Generate() (map[string]string, error) {
	g.skipped = nil

	funcs, err := g.functions()
	if err != nil {
		return nil, err
	}

	types, err := g.types()
	if err != nil {
		return nil, err
	}

	files := make(map[string]string)

	var buf bytes.Buffer

	g.templates.WriteLoader(&buf, loaderData{Package: g.pkg, LibName: g.lib, HasFunctions: len(funcs) > 0})
	files[LoaderFile] = buf.String()

	buf.Reset()
	g.templates.WriteTypes(&buf, types)
	files[TypesFile] = buf.String()

	if len(funcs) > 0 {
		data := functionsData{Package: g.pkg, Functions: funcs}
		for _, fn := range funcs {
			data.NeedsUnsafe = data.NeedsUnsafe || fn.needsUnsafe
			data.NeedsUnix = data.NeedsUnix || fn.needsUnix
		}

		buf.Reset()
		g.templates.WriteFunctions(&buf, data)
		files[FunctionsFile] = buf.String()
	}

	for name, src := range files {
		stamped, err := stamp(name, src)
		if err != nil {
			return nil, err
		}

		files[name] = stamped
	}

	return files, nil
}

// Skipped returns the functions the last Generate call could not bind.
func (g *Generator) Skipped() []string {
	return g.skipped
}

// unexported constants.
const (
	resultPtrVar = "resultPtr"
	resultVar    = "result"
)

// unexported variables.
var (
	//nolint:gochecknoglobals // lookup table
	primitives = map[string]primitive{
		"char":               {"int8", "&ffi.TypeSint8", true},
		"unsigned char":      {"uint8", "&ffi.TypeUint8", true},
		"short":              {"int16", "&ffi.TypeSint16", true},
		"unsigned short":     {"uint16", "&ffi.TypeUint16", true},
		"int":                {"int32", "&ffi.TypeSint32", true},
		"unsigned int":       {"uint32", "&ffi.TypeUint32", true},
		"long":               {"int64", "&ffi.TypeSint64", false},
		"unsigned long":      {"uint64", "&ffi.TypeUint64", false},
		"long long":          {"int64", "&ffi.TypeSint64", false},
		"unsigned long long": {"uint64", "&ffi.TypeUint64", false},
		"int8_t":             {"int8", "&ffi.TypeSint8", true},
		"uint8_t":            {"uint8", "&ffi.TypeUint8", true},
		"int16_t":            {"int16", "&ffi.TypeSint16", true},
		"uint16_t":           {"uint16", "&ffi.TypeUint16", true},
		"int32_t":            {"int32", "&ffi.TypeSint32", true},
		"uint32_t":           {"uint32", "&ffi.TypeUint32", true},
		"int64_t":            {"int64", "&ffi.TypeSint64", false},
		"uint64_t":           {"uint64", "&ffi.TypeUint64", false},
		"size_t":             {"uint64", "&ffi.TypeUint64", false},
		"ssize_t":            {"int64", "&ffi.TypeSint64", false},
		"float":              {"float32", "&ffi.TypeFloat", false},
		"double":             {"float64", "&ffi.TypeDouble", false},
		"bool":               {"bool", "&ffi.TypeUint8", true},
		"_Bool":              {"bool", "&ffi.TypeUint8", true},
		"void":               {"", "&ffi.TypeVoid", false},
	}
	//nolint:gochecknoglobals // lookup table
	reservedLocals = map[string]bool{resultVar: true, resultPtrVar: true, "err": true}
)

type aliasData struct {
	GoName string
	CName  string
	GoType string
}

type enumData struct {
	GoName string
	CName  string
	Values []string
}

type fieldData struct {
	GoName  string
	GoType  string
	FFIType string
}

type functionData struct {
	GoName     string
	CName      string
	VarName    string
	PrepArgs   string
	ParamList  string
	ReturnType string
	Prelude    []string
	ResultDecl string
	CallArgs   string
	Epilogue   []string

	needsUnsafe bool
	needsUnix   bool
}

type functionsData struct {
	Package     string
	Functions   []functionData
	NeedsUnsafe bool
	NeedsUnix   bool
}

type loaderData struct {
	Package      string
	LibName      string
	HasFunctions bool
}

type opaqueData struct {
	GoName string
	CName  string
}

type primitive struct {
	goType  string
	ffiType string
	widened bool // returned through a full ffi.Arg slot
}

type structData struct {
	GoName string
	CName  string
	Fields []fieldData
}

type typesData struct {
	Package string
	Opaques []opaqueData
	Aliases []aliasData
	Structs []structData
	Enums   []enumData
}

// resolved is a C type mapped onto Go and libffi.
type resolved struct {
	goType  string
	ffiType string
	widened bool
	isBool  bool
	isVoid  bool
	// cString is a char pointer: const ones become Go strings, mutable ones caller-owned byte slices.
	cString bool
}

// field maps a struct member. An array member stays inline as [N]T, and libffi sees it as N consecutive T.
func (g *Generator) field(f parse.Field) (fieldData, error) {
	elem := f.Type
	elem.IsArray = false
	elem.ArrayLen = ""

	ft, err := g.resolve(elem)
	if err != nil {
		return fieldData{}, err
	}

	if ft.isVoid {
		return fieldData{}, fmt.Errorf("%w: void", ErrUnsupportedType)
	}

	// fields hold raw pointers; callers own the memory
	if ft.cString {
		ft.goType = "*byte"
	}

	data := fieldData{GoName: naming.Exported(f.Name), GoType: ft.goType, FFIType: ft.ffiType}
	if !f.Type.IsArray {
		return data, nil
	}

	n, err := strconv.Atoi(f.Type.ArrayLen)
	if err != nil || n <= 0 {
		return fieldData{}, fmt.Errorf("%w: array length %q", ErrUnsupportedType, f.Type.ArrayLen)
	}

	data.GoType = fmt.Sprintf("[%d]%s", n, ft.goType)
	data.FFIType = strings.Repeat(ft.ffiType+", ", n-1) + ft.ffiType

	return data, nil
}

func (g *Generator) function(fn parse.Function) (functionData, error) {
	ret, err := g.resolve(fn.Return)
	if err != nil {
		return functionData{}, fmt.Errorf("%s: return: %w", fn.Name, err)
	}

	data := functionData{
		GoName:     naming.Exported(fn.Name),
		CName:      fn.Name,
		VarName:    naming.Unexported(fn.Name) + "Fn",
		ReturnType: ret.goType,
	}

	prep := []string{ret.ffiType}
	params := make([]string, 0, len(fn.Params))
	callArgs := []string{"nil"}

	switch {
	case ret.isVoid:
	case ret.cString:
		data.ResultDecl = "var " + resultPtrVar + " *byte"
		callArgs[0] = "unsafe.Pointer(&" + resultPtrVar + ")"
		data.Epilogue = []string{
			"if " + resultPtrVar + " == nil {",
			"\treturn \"\"",
			"}",
			"",
			"return unix.BytePtrToString(" + resultPtrVar + ")",
		}
		data.ReturnType = "string"
		data.needsUnsafe = true
		data.needsUnix = true
	case ret.widened:
		data.ResultDecl = "var " + resultVar + " ffi.Arg"
		callArgs[0] = "unsafe.Pointer(&" + resultVar + ")"
		data.needsUnsafe = true

		if ret.isBool {
			data.Epilogue = []string{"return " + resultVar + ".Bool()"}
		} else {
			data.Epilogue = []string{"return " + ret.goType + "(" + resultVar + ")"}
		}
	default:
		data.ResultDecl = "var " + resultVar + " " + ret.goType
		callArgs[0] = "unsafe.Pointer(&" + resultVar + ")"
		data.Epilogue = []string{"return " + resultVar}
		data.needsUnsafe = true
	}

	for i, p := range fn.Params {
		pt, err := g.resolve(p.Type)
		if err != nil {
			return functionData{}, fmt.Errorf("%s: parameter %d: %w", fn.Name, i, err)
		}

		if pt.isVoid {
			return functionData{}, fmt.Errorf("%s: parameter %d: %w: void", fn.Name, i, ErrUnsupportedType)
		}

		name := paramName(p.Name, i)
		prep = append(prep, pt.ffiType)
		params = append(params, name+" "+pt.goType)
		data.needsUnsafe = true

		if !pt.cString {
			callArgs = append(callArgs, "unsafe.Pointer(&"+name+")")

			continue
		}

		ptr := name + "Ptr"
		callArgs = append(callArgs, "unsafe.Pointer(&"+ptr+")")

		if pt.goType == "string" {
			data.Prelude = append(data.Prelude,
				ptr+", err := unix.BytePtrFromString("+name+")",
				"if err != nil {",
				fmt.Sprintf("\tpanic(%q + err.Error())", fn.Name+": "+name+": "),
				"}",
				"",
			)
			data.needsUnix = true

			continue
		}

		data.Prelude = append(data.Prelude,
			"var "+ptr+" *byte",
			"if len("+name+") > 0 {",
			"\t"+ptr+" = &"+name+"[0]",
			"}",
			"",
		)
	}

	data.PrepArgs = strings.Join(prep, ", ")
	data.ParamList = strings.Join(params, ", ")
	data.CallArgs = strings.Join(callArgs, ", ")

	return data, nil
}

func (g *Generator) functions() ([]functionData, error) {
	funcs := make([]functionData, 0, len(g.header.Functions))

	for _, fn := range g.header.Functions {
		if fn.IsVariadic {
			g.skipped = append(g.skipped, fn.Name)

			continue
		}

		data, err := g.function(fn)
		if err != nil {
			return nil, err
		}

		funcs = append(funcs, data)
	}

	return funcs, nil
}

// resolve maps a C type onto its Go and libffi spellings.
func (g *Generator) resolve(ct parse.CType) (resolved, error) {
	if ct.IsPointer {
		return g.resolvePointer(ct), nil
	}

	key := ct.Name
	if ct.IsUnsigned {
		key = "unsigned " + key
	}

	if prim, ok := primitives[key]; ok {
		return resolved{
			goType:  prim.goType,
			ffiType: prim.ffiType,
			widened: prim.widened,
			isBool:  prim.goType == "bool",
			isVoid:  prim.goType == "",
		}, nil
	}

	if s, ok := g.header.Struct(ct.Name); ok {
		if s.IsOpaque {
			return resolved{goType: naming.Exported(s.Name), ffiType: "&ffi.TypePointer"}, nil
		}

		goName := naming.Exported(s.Name)

		return resolved{goType: goName, ffiType: "&FFIType" + goName}, nil
	}

	if _, ok := g.header.Enum(ct.Name); ok {
		return resolved{goType: naming.Exported(ct.Name), ffiType: "&ffi.TypeSint32", widened: true}, nil
	}

	if td, ok := g.header.TypeDef(ct.Name); ok {
		src, err := g.resolve(td.Source)
		if err != nil {
			return resolved{}, fmt.Errorf("typedef %s: %w", td.Name, err)
		}

		if src.cString || src.isVoid {
			return resolved{}, fmt.Errorf("typedef %s: %w", td.Name, ErrUnsupportedType)
		}

		src.goType = naming.Exported(td.Name)
		src.isBool = false

		return src, nil
	}

	return resolved{}, fmt.Errorf("%w: %s", ErrUnsupportedType, ct.Name)
}

func (g *Generator) resolvePointer(ct parse.CType) resolved {
	if ct.Name == "char" && !ct.IsUnsigned {
		if ct.IsConst {
			return resolved{goType: "string", ffiType: "&ffi.TypePointer", cString: true}
		}

		return resolved{goType: "[]byte", ffiType: "&ffi.TypePointer", cString: true}
	}

	if s, ok := g.header.Struct(ct.Name); ok && !s.IsOpaque {
		return resolved{goType: "*" + naming.Exported(s.Name), ffiType: "&ffi.TypePointer"}
	}

	return resolved{goType: "uintptr", ffiType: "&ffi.TypePointer"}
}

func (g *Generator) types() (typesData, error) {
	data := typesData{Package: g.pkg}

	for _, s := range g.header.Structs {
		if s.IsOpaque {
			data.Opaques = append(data.Opaques, opaqueData{GoName: naming.Exported(s.Name), CName: s.Name})

			continue
		}

		sd := structData{GoName: naming.Exported(s.Name), CName: s.Name}

		for _, f := range s.Fields {
			fd, err := g.field(f)
			if err != nil {
				return typesData{}, fmt.Errorf("struct %s: field %s: %w", s.Name, f.Name, err)
			}

			sd.Fields = append(sd.Fields, fd)
		}

		data.Structs = append(data.Structs, sd)
	}

	for _, td := range g.header.TypeDefs {
		src, err := g.resolve(td.Source)
		if err != nil {
			return typesData{}, fmt.Errorf("typedef %s: %w", td.Name, err)
		}

		if src.cString || src.isVoid {
			return typesData{}, fmt.Errorf("typedef %s: %w", td.Name, ErrUnsupportedType)
		}

		data.Aliases = append(data.Aliases, aliasData{GoName: naming.Exported(td.Name), CName: td.Name, GoType: src.goType})
	}

	for _, e := range g.header.Enums {
		data.Enums = append(data.Enums, enumData{
			GoName: naming.Exported(e.Name),
			CName:  e.Name,
			Values: enumValues(e),
		})
	}

	return data, nil
}

// enumValues spells out every enumerator with an explicit value, following C's implicit increment.
func enumValues(e parse.Enum) []string {
	goType := naming.Exported(e.Name)
	values := make([]string, 0, len(e.Values))
	base := "0"
	offset := 0

	for _, v := range e.Values {
		if v.Value != "" {
			base = v.Value
			offset = 0
		}

		expr := base
		if offset > 0 {
			expr = fmt.Sprintf("(%s) + %d", base, offset)
		}

		values = append(values, fmt.Sprintf("%s %s = %s", naming.Exported(v.Name), goType, expr))
		offset++
	}

	return values
}

func paramName(name string, index int) string {
	if name == "" {
		return fmt.Sprintf("arg%d", index)
	}

	goName := naming.Unexported(name)
	if reservedLocals[goName] || strings.HasSuffix(goName, "Ptr") {
		return goName + "_"
	}

	return goName
}

// stamp parses generated source, marks it as generated, and prints it in canonical form.
func stamp(name, src string) (string, error) {
	file, err := decorator.Parse(src)
	if err != nil {
		return "", fmt.Errorf("generated %s does not parse: %w", name, err)
	}

	file.Decs.Start.Prepend(GeneratedMarker, "\n")

	var buf bytes.Buffer

	err = decorator.Fprint(&buf, file)
	if err != nil {
		return "", fmt.Errorf("failed to print %s: %w", name, err)
	}

	return buf.String(), nil
}
