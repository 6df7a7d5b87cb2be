package glbuild

import "strconv"

// Kind is the type of a shader variable or uniform value.
type Kind uint8

const (
	KindInvalid Kind = iota
	Float1
	Float2
	Float3
	Float4
	Mat3
	Mat4
	Int1
	// Sampler2D is only valid in uniform declarations. Sampler uniforms
	// are written from the host as Int1 texture unit values.
	Sampler2D
)

// MaxUniformElements is the number of float32 elements of the largest numeric kind (Mat4).
const MaxUniformElements = 16

// Size returns the number of float32 elements needed to store a value of the kind.
// Non-numeric kinds have size zero.
func (k Kind) Size() int {
	switch k {
	case Float1, Int1:
		return 1
	case Float2:
		return 2
	case Float3:
		return 3
	case Float4:
		return 4
	case Mat3:
		return 9
	case Mat4:
		return 16
	}
	return 0
}

// Numeric reports whether values of the kind can be uploaded as a uniform value.
func (k Kind) Numeric() bool { return k.Size() > 0 }

// AppendGLSL appends the GLSL type name of the kind.
func (k Kind) AppendGLSL(b []byte) []byte {
	switch k {
	case Float1:
		return append(b, "float"...)
	case Float2:
		return append(b, "vec2"...)
	case Float3:
		return append(b, "vec3"...)
	case Float4:
		return append(b, "vec4"...)
	case Mat3:
		return append(b, "mat3"...)
	case Mat4:
		return append(b, "mat4"...)
	case Int1:
		return append(b, "int"...)
	case Sampler2D:
		return append(b, "sampler2D"...)
	}
	return append(b, "<invalid>"...)
}

func (k Kind) String() string {
	if k > Sampler2D {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return string(k.AppendGLSL(nil))
}

// Variable is a typed named shader value. Variables are immutable once created.
type Variable struct {
	Kind Kind
	Name string
}

// Role is the section of shader source a [Variable] is declared in.
type Role uint8

const (
	// RoleAttribute variables are per-vertex inputs of the vertex stage.
	RoleAttribute Role = iota + 1
	// RoleVarying variables are written by the vertex stage and interpolated for the fragment stage.
	RoleVarying
	// RoleUniform variables are constant over a draw call.
	RoleUniform
)

func (r Role) String() string {
	switch r {
	case RoleAttribute:
		return "attribute"
	case RoleVarying:
		return "varying"
	case RoleUniform:
		return "uniform"
	}
	return "Role(" + strconv.Itoa(int(r)) + ")"
}

// Decl is a declaration requirement reported by a [Node].
type Decl struct {
	Role Role
	Var  Variable
}

// Attribute returns an attribute declaration.
func Attribute(k Kind, name string) Decl { return Decl{Role: RoleAttribute, Var: Variable{Kind: k, Name: name}} }

// Varying returns a varying declaration.
func Varying(k Kind, name string) Decl { return Decl{Role: RoleVarying, Var: Variable{Kind: k, Name: name}} }

// Uniform returns a uniform declaration.
func Uniform(k Kind, name string) Decl { return Decl{Role: RoleUniform, Var: Variable{Kind: k, Name: name}} }

// AppendName appends the identifier the declaration is bound to in GLSL source.
// Varyings are prefixed with "v_" so that attribute and varying of the same
// name may coexist in the vertex stage.
func (d Decl) AppendName(b []byte) []byte {
	if d.Role == RoleVarying {
		b = append(b, "v_"...)
	}
	return append(b, d.Var.Name...)
}

// AppendVaryingName appends the GLSL identifier of a varying named name.
func AppendVaryingName(b []byte, name string) []byte {
	return Decl{Role: RoleVarying, Var: Variable{Name: name}}.AppendName(b)
}
