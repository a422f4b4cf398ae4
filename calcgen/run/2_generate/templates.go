package generate

import (
	"bytes"
	"fmt"
	"text/template"
)

// TemplateRegistry holds all parsed text templates for binding generation.
// Create a registry using NewTemplateRegistry() to initialize all templates.
type TemplateRegistry struct {
	loaderTmpl    *template.Template
	typesTmpl     *template.Template
	functionsTmpl *template.Template
}

// NewTemplateRegistry creates and initializes a new template registry with all templates parsed.
// Templates are hardcoded constants, so parsing cannot fail at runtime.
func NewTemplateRegistry() *TemplateRegistry {
	registry := &TemplateRegistry{}

	templates := []struct {
		target  **template.Template
		name    string
		content string
	}{
		{&registry.loaderTmpl, "loader", tmplLoader},
		{&registry.typesTmpl, "types", tmplTypes},
		{&registry.functionsTmpl, "functions", tmplFunctions},
	}

	for _, tmpl := range templates {
		*tmpl.target = template.Must(template.New(tmpl.name).Parse(tmpl.content))
	}

	return registry
}

// WriteFunctions writes the prepared function variables and their typed wrappers.
func (r *TemplateRegistry) WriteFunctions(buf *bytes.Buffer, data functionsData) {
	execute(r.functionsTmpl, buf, data)
}

// WriteLoader writes the shared library loader.
func (r *TemplateRegistry) WriteLoader(buf *bytes.Buffer, data loaderData) {
	execute(r.loaderTmpl, buf, data)
}

// WriteTypes writes struct, handle, alias and enum declarations.
func (r *TemplateRegistry) WriteTypes(buf *bytes.Buffer, data typesData) {
	execute(r.typesTmpl, buf, data)
}

// unexported constants.
const (
	tmplFunctions = `package {{.Package}}

import (
	"fmt"
{{- if .NeedsUnsafe}}
	"unsafe"
{{- end}}

	"github.com/jupiterrider/ffi"
{{- if .NeedsUnix}}
	"golang.org/x/sys/unix"
{{- end}}
)

var (
{{- range .Functions}}
	{{.VarName}} ffi.Fun
{{- end}}
)

func loadFuncs() error {
	var err error
{{range .Functions}}
	if {{.VarName}}, err = lib.Prep("{{.CName}}", {{.PrepArgs}}); err != nil {
		return fmt.Errorf("{{.CName}}: %w", err)
	}
{{end}}
	return nil
}
{{range .Functions}}
// {{.GoName}} calls {{.CName}}.
func {{.GoName}}({{.ParamList}}){{if .ReturnType}} {{.ReturnType}}{{end}} {
{{- range .Prelude}}
	{{.}}
{{- end}}
{{- if .ResultDecl}}
	{{.ResultDecl}}
{{- end}}
	{{.VarName}}.Call({{.CallArgs}})
{{- range .Epilogue}}
	{{.}}
{{- end}}
}
{{end}}`

	tmplLoader = `package {{.Package}}

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/jupiterrider/ffi"
)

var lib ffi.Lib

// Load opens the {{.LibName}} shared library found in dir and prepares its functions.
func Load(dir string) error {
	var err error

	lib, err = ffi.Load(libraryPath(dir))
	if err != nil {
		return fmt.Errorf("failed to load library: %w", err)
	}
{{if .HasFunctions}}
	return loadFuncs()
{{- else}}
	return nil
{{- end}}
}

func libraryPath(dir string) string {
	var filename string

	switch runtime.GOOS {
	case "darwin":
		filename = "lib{{.LibName}}.dylib"
	case "windows":
		filename = "{{.LibName}}.dll"
	default:
		filename = "lib{{.LibName}}.so"
	}

	return filepath.Join(dir, filename)
}
`

	tmplTypes = `package {{.Package}}
{{if .Structs}}
import "github.com/jupiterrider/ffi"
{{end}}
{{- range .Opaques}}
// {{.GoName}} is an opaque handle to a C {{.CName}}.
type {{.GoName}} uintptr
{{end}}
{{- range .Aliases}}
// {{.GoName}} mirrors the C typedef {{.CName}}.
type {{.GoName}} {{.GoType}}
{{end}}
{{- range .Structs}}
// {{.GoName}} mirrors the C struct {{.CName}}.
type {{.GoName}} struct {
{{- range .Fields}}
	{{.GoName}} {{.GoType}}
{{- end}}
}

// FFIType{{.GoName}} describes the C layout of {{.GoName}}.
var FFIType{{.GoName}} = ffi.NewType(
{{- range .Fields}}
	{{.FFIType}},
{{- end}}
)
{{end}}
{{- range .Enums}}
// {{.GoName}} mirrors the C enum {{.CName}}.
type {{.GoName}} int32

const (
{{- range .Values}}
	{{.}}
{{- end}}
)
{{end}}`
)

func execute(tmpl *template.Template, buf *bytes.Buffer, data any) {
	err := tmpl.Execute(buf, data)
	if err != nil {
		panic(fmt.Sprintf("failed to execute %s template: %v", tmpl.Name(), err))
	}
}
