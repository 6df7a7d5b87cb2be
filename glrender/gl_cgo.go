//go:build !tinygo && cgo

package glrender

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/shaderlab/glbuild"
)

// GLBackend is a [Backend] issuing OpenGL 3.3+ core profile calls.
// An OpenGL context must be current on the calling thread.
type GLBackend struct {
	programs map[uint32]*glProgram
	name     []byte
}

type glProgram struct {
	prog glgl.Program
	vao  uint32
}

var _ Backend = (*GLBackend)(nil)

// NewGLBackend returns a backend for the current OpenGL context.
func NewGLBackend() (*GLBackend, error) {
	if err := glgl.Err(); err != nil {
		return nil, fmt.Errorf("pending OpenGL error before backend init: %w", err)
	}
	return &GLBackend{programs: make(map[uint32]*glProgram)}, nil
}

// InitWindow creates a GLFW window with an OpenGL 4.6 core context, makes it
// current and loads OpenGL function pointers. Call the returned function to
// terminate GLFW when done.
func InitWindow(title string, width, height int) (window *glfw.Window, terminate func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, nil, fmt.Errorf("initializing GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	window, err = glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("creating GLFW window: %w", err)
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	return window, glfw.Terminate, nil
}

// UploadRGBA creates a 2D texture from img and returns its id.
// The texture is left bound to texture unit 0.
func UploadRGBA(img *image.RGBA) (uint32, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0, errors.New("empty image")
	}
	pix := img.Pix
	if img.Stride != 4*w {
		pix = make([]byte, 0, 4*w*h)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := img.PixOffset(b.Min.X, y)
			pix = append(pix, img.Pix[off:off+4*w]...)
		}
	}
	cfg := glgl.TextureImgConfig{
		Type:           glgl.Texture2D,
		Width:          w,
		Height:         h,
		Access:         glgl.ReadOnly,
		Format:         gl.RGBA,
		Xtype:          gl.UNSIGNED_BYTE,
		InternalFormat: gl.RGBA8,
		MinFilter:      gl.LINEAR,
		MagFilter:      gl.LINEAR,
		Wrap:           gl.CLAMP_TO_EDGE,
		TextureUnit:    0,
	}
	// Storage is allocated empty; glgl sizes pixel data for float formats only.
	_, err := glgl.NewTextureFromImage[byte](cfg, nil)
	var tex int32
	gl.GetIntegerv(gl.TEXTURE_BINDING_2D, &tex)
	if err != nil {
		DeleteTexture(uint32(tex))
		return 0, err
	}
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	if err := glgl.Err(); err != nil {
		DeleteTexture(uint32(tex))
		return 0, err
	}
	return uint32(tex), nil
}

// DeleteTexture deletes a texture created by [UploadRGBA].
func DeleteTexture(tex uint32) {
	gl.DeleteTextures(1, &tex)
}

func (b *GLBackend) CompileProgram(src glbuild.ShaderSource) (uint32, error) {
	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   src.Vertex + "\x00",
		Fragment: src.Fragment + "\x00",
	})
	if err != nil {
		return 0, fmt.Errorf("%s\n%s\n%w", src.Vertex, src.Fragment, err)
	}
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	id := prog.ID()
	b.programs[id] = &glProgram{prog: prog, vao: vao}
	return id, nil
}

func (b *GLBackend) DeleteProgram(prog uint32) {
	p := b.programs[prog]
	if p == nil {
		return
	}
	p.prog.Delete()
	gl.DeleteVertexArrays(1, &p.vao)
	delete(b.programs, prog)
}

func (b *GLBackend) UseProgram(prog uint32) {
	gl.UseProgram(prog)
	if p := b.programs[prog]; p != nil {
		gl.BindVertexArray(p.vao)
	}
}

func (b *GLBackend) UniformLocation(prog uint32, name string) int32 {
	b.name = append(append(b.name[:0], name...), 0)
	return gl.GetUniformLocation(prog, &b.name[0])
}

func (b *GLBackend) Uniform(loc int32, kind glbuild.Kind, v []float32) {
	switch kind {
	case glbuild.Float1:
		gl.Uniform1f(loc, v[0])
	case glbuild.Float2:
		gl.Uniform2f(loc, v[0], v[1])
	case glbuild.Float3:
		gl.Uniform3f(loc, v[0], v[1], v[2])
	case glbuild.Float4:
		gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
	case glbuild.Mat3:
		gl.UniformMatrix3fv(loc, 1, false, &v[0])
	case glbuild.Mat4:
		gl.UniformMatrix4fv(loc, 1, false, &v[0])
	case glbuild.Int1:
		gl.Uniform1i(loc, int32(v[0]))
	default:
		panic("unsupported uniform kind " + kind.String())
	}
}

func glTarget(t BufferTarget) uint32 {
	if t == IndexBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func (b *GLBackend) CreateBuffer(target BufferTarget, size int) uint32 {
	var buf uint32
	gl.GenBuffers(1, &buf)
	gl.BindBuffer(glTarget(target), buf)
	gl.BufferData(glTarget(target), size, nil, gl.DYNAMIC_DRAW)
	return buf
}

func (b *GLBackend) UpdateBuffer(target BufferTarget, buf uint32, data []byte) {
	if len(data) == 0 {
		return
	}
	gl.BindBuffer(glTarget(target), buf)
	gl.BufferSubData(glTarget(target), 0, len(data), unsafe.Pointer(&data[0]))
}

func (b *GLBackend) BindBuffer(target BufferTarget, buf uint32) {
	gl.BindBuffer(glTarget(target), buf)
}

func (b *GLBackend) DeleteBuffer(buf uint32) {
	gl.DeleteBuffers(1, &buf)
}

func (b *GLBackend) SetLayout(prog uint32, layout Layout) {
	for _, a := range layout.Attribs {
		b.name = append(append(b.name[:0], a.Name...), 0)
		loc := gl.GetAttribLocation(prog, &b.name[0])
		if loc < 0 {
			continue
		}
		xtype, normalized := uint32(gl.FLOAT), false
		if a.Type == AttribUint8Norm {
			xtype, normalized = gl.UNSIGNED_BYTE, true
		}
		gl.EnableVertexAttribArray(uint32(loc))
		gl.VertexAttribPointer(uint32(loc), int32(a.Components), xtype, normalized, int32(layout.Stride), gl.PtrOffset(a.Offset))
	}
}

func (b *GLBackend) BindTexture(unit int, tex uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, tex)
}

func glMode(m DrawMode) uint32 {
	switch m {
	case DrawLines:
		return gl.LINES
	case DrawLineLoop:
		return gl.LINE_LOOP
	case DrawLineStrip:
		return gl.LINE_STRIP
	case DrawTriangles:
		return gl.TRIANGLES
	case DrawTriangleStrip:
		return gl.TRIANGLE_STRIP
	case DrawTriangleFan:
		return gl.TRIANGLE_FAN
	}
	return gl.POINTS
}

func (b *GLBackend) DrawArrays(mode DrawMode, first, count int) {
	gl.DrawArrays(glMode(mode), int32(first), int32(count))
}

func (b *GLBackend) DrawElements(mode DrawMode, first, count int) {
	gl.DrawElements(glMode(mode), int32(count), gl.UNSIGNED_SHORT, gl.PtrOffset(2*first))
}

// Err returns the pending OpenGL error, if any.
func (b *GLBackend) Err() error { return glgl.Err() }

// Clear clears the color buffer of the current framebuffer.
func (b *GLBackend) Clear(r, g, bl, a float32) {
	gl.ClearColor(r, g, bl, a)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}
