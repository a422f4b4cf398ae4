package parse

// CType is a C type as written in a declaration, reduced to what binding generation needs.
type CType struct {
	Name       string // base type without qualifiers, e.g. "char", "int32_t", "CalcConfig"
	IsPointer  bool
	IsConst    bool
	IsUnsigned bool
	IsArray    bool   // fixed-size struct member such as "int ids[4]"
	ArrayLen   string // text between the brackets of an array member
}

// Enum is a typedef'd C enum.
type Enum struct {
	Name   string
	Values []EnumValue
}

// EnumValue is one enumerator. Value is empty when the enumerator has no initializer.
type EnumValue struct {
	Name  string
	Value string
}

// Field is a struct member.
type Field struct {
	Name string
	Type CType
}

// Function is a function prototype.
type Function struct {
	Name       string
	Return     CType
	Params     []Param
	IsVariadic bool
}

// Header is everything binding generation needs from a C header.
type Header struct {
	Structs   []Struct
	Functions []Function
	TypeDefs  []TypeDef
	Enums     []Enum
}

// Enum returns the enum with the given name.
func (h *Header) Enum(name string) (Enum, bool) {
	for _, e := range h.Enums {
		if e.Name == name {
			return e, true
		}
	}

	return Enum{}, false
}

// Struct returns the struct (opaque or not) with the given name.
func (h *Header) Struct(name string) (Struct, bool) {
	for _, s := range h.Structs {
		if s.Name == name {
			return s, true
		}
	}

	return Struct{}, false
}

// TypeDef returns the plain typedef with the given name.
func (h *Header) TypeDef(name string) (TypeDef, bool) {
	for _, td := range h.TypeDefs {
		if td.Name == name {
			return td, true
		}
	}

	return TypeDef{}, false
}

// Param is a function parameter. Name is empty for unnamed parameters.
type Param struct {
	Name string
	Type CType
}

// Struct is a typedef'd struct. An opaque struct is only ever handled through a pointer and has no fields.
type Struct struct {
	Name     string
	Fields   []Field
	IsOpaque bool
}

// TypeDef is a plain alias such as "typedef unsigned int flags_t;".
type TypeDef struct {
	Name   string
	Source CType
}
