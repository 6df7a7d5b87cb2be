package glrender

import (
	"errors"
	"strconv"
	"unsafe"

	"github.com/soypat/shaderlab/glbuild"
)

var (
	// ErrCompile wraps GPU compile and link failures returned by [NewProgram].
	ErrCompile = errors.New("shader compile failed")
	// ErrZeroCapacity is returned when a buffer is configured without room for a single element.
	ErrZeroCapacity = errors.New("zero buffer capacity")
)

// Backend is the GPU interface consumed by glrender. Handles returned by the
// backend are opaque non-zero identifiers. All calls are synchronous and
// issued from the goroutine driving the frame.
type Backend interface {
	// CompileProgram compiles and links vertex and fragment source.
	CompileProgram(src glbuild.ShaderSource) (prog uint32, err error)
	DeleteProgram(prog uint32)
	// UseProgram binds prog for subsequent uniform uploads and draws.
	UseProgram(prog uint32)
	// UniformLocation returns the location of an active uniform of prog or -1 if not found.
	UniformLocation(prog uint32, name string) int32
	// Uniform uploads v to the uniform at loc of the bound program. Int1 values are
	// converted to integers before upload.
	Uniform(loc int32, kind glbuild.Kind, v []float32)

	CreateBuffer(target BufferTarget, size int) uint32
	// UpdateBuffer replaces the start of the buffer data store with data.
	UpdateBuffer(target BufferTarget, buf uint32, data []byte)
	BindBuffer(target BufferTarget, buf uint32)
	DeleteBuffer(buf uint32)
	// SetLayout binds the vertex attributes of prog to the bound vertex buffer.
	SetLayout(prog uint32, layout Layout)
	// BindTexture binds a 2D texture to a texture unit. A zero id unbinds the unit.
	BindTexture(unit int, tex uint32)

	DrawArrays(mode DrawMode, first, count int)
	DrawElements(mode DrawMode, first, count int)
}

// DrawMode is a primitive topology.
type DrawMode uint8

const (
	DrawPoints DrawMode = iota
	DrawLines
	DrawLineLoop
	DrawLineStrip
	DrawTriangles
	DrawTriangleStrip
	DrawTriangleFan
)

func (m DrawMode) String() string {
	switch m {
	case DrawPoints:
		return "points"
	case DrawLines:
		return "lines"
	case DrawLineLoop:
		return "line-loop"
	case DrawLineStrip:
		return "line-strip"
	case DrawTriangles:
		return "triangles"
	case DrawTriangleStrip:
		return "triangle-strip"
	case DrawTriangleFan:
		return "triangle-fan"
	}
	return "DrawMode(" + strconv.Itoa(int(m)) + ")"
}

// BufferTarget selects the binding point of a buffer.
type BufferTarget uint8

const (
	VertexBuffer BufferTarget = iota + 1
	IndexBuffer
)

func (t BufferTarget) String() string {
	switch t {
	case VertexBuffer:
		return "vertex"
	case IndexBuffer:
		return "index"
	}
	return "BufferTarget(" + strconv.Itoa(int(t)) + ")"
}

// AttribType is the component type of a vertex attribute in vertex memory.
type AttribType uint8

const (
	// AttribFloat32 components are read as is.
	AttribFloat32 AttribType = iota
	// AttribUint8Norm components are normalized from [0,255] to [0,1].
	AttribUint8Norm
)

// Size returns the size in bytes of one component.
func (t AttribType) Size() int {
	if t == AttribUint8Norm {
		return 1
	}
	return 4
}

// VertexAttrib describes one attribute of interleaved vertex memory.
type VertexAttrib struct {
	Name       string
	Components int
	Type       AttribType
	// Offset is the byte offset of the attribute from the start of the vertex.
	Offset int
}

// Layout describes interleaved vertex memory.
type Layout struct {
	Attribs []VertexAttrib
	// Stride is the size of one vertex in bytes.
	Stride int
}

// NewLayout packs attributes in the order given and computes their offsets and the layout stride.
// Offsets of the argument attributes are ignored.
func NewLayout(attribs ...VertexAttrib) Layout {
	var lo Layout
	for _, a := range attribs {
		a.Offset = lo.Stride
		lo.Stride += a.Components * a.Type.Size()
		lo.Attribs = append(lo.Attribs, a)
	}
	return lo
}

func (lo Layout) validate() error {
	if lo.Stride <= 0 {
		return errors.New("layout stride must be positive")
	}
	for _, a := range lo.Attribs {
		if a.Name == "" {
			return errors.New("unnamed vertex attribute")
		} else if a.Components < 1 || a.Components > 4 {
			return errors.New("attribute " + a.Name + " component count not in 1..4")
		} else if a.Offset < 0 || a.Offset+a.Components*a.Type.Size() > lo.Stride {
			return errors.New("attribute " + a.Name + " exceeds vertex stride")
		}
	}
	return nil
}

// AsBytes reinterprets a slice of vertex structs as its raw memory.
// T must not contain pointers.
func AsBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var z T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(z)))
}
