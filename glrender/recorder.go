package glrender

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/soypat/shaderlab/glbuild"
)

// Recorder is a software [Backend] that records GPU calls instead of issuing them.
// Uniform locations are resolved from the uniform declarations of compiled source.
// It is used to test batching behavior without a GPU.
type Recorder struct {
	// CompileErr, if set, is returned by CompileProgram.
	CompileErr error
	// Ops lists every backend call in issue order, formatted as "op arg...".
	Ops      []string
	Draws    []RecordedDraw
	Uploads  []RecordedUniform
	programs map[uint32]*recordedProgram
	buffers  map[uint32]*recordedBuffer
	next     uint32
	current  uint32
	bound    [3]uint32 // indexed by BufferTarget.
	textures [MaxTextureUnits]uint32
}

// RecordedDraw is a draw call issued to a [Recorder].
type RecordedDraw struct {
	Program  uint32
	Mode     DrawMode
	Indexed  bool
	First    int
	Count    int
	Textures [MaxTextureUnits]uint32
	// Vertices is a copy of the bound vertex buffer contents last uploaded.
	Vertices []byte
	// Indices are the indices drawn for indexed draws.
	Indices []uint16
}

// RecordedUniform is a uniform upload issued to a [Recorder].
type RecordedUniform struct {
	Program  uint32
	Location int32
	Name     string
	Kind     glbuild.Kind
	Value    []float32
}

type recordedProgram struct {
	src      glbuild.ShaderSource
	uniforms []string
	layout   Layout
}

type recordedBuffer struct {
	target  BufferTarget
	data    []byte
	written int
}

// NewRecorder returns a ready to use Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		programs: make(map[uint32]*recordedProgram),
		buffers:  make(map[uint32]*recordedBuffer),
	}
}

func (r *Recorder) op(format string, args ...any) {
	r.Ops = append(r.Ops, fmt.Sprintf(format, args...))
}

func (r *Recorder) handle() uint32 {
	r.next++
	return r.next
}

// Source returns the source a program handle was compiled from.
func (r *Recorder) Source(prog uint32) (glbuild.ShaderSource, bool) {
	p := r.programs[prog]
	if p == nil {
		return glbuild.ShaderSource{}, false
	}
	return p.src, true
}

// Live returns the number of programs and buffers not yet deleted.
func (r *Recorder) Live() (programs, buffers int) {
	return len(r.programs), len(r.buffers)
}

// UploadsOf returns the recorded uploads of the uniform named name.
func (r *Recorder) UploadsOf(name string) []RecordedUniform {
	var ups []RecordedUniform
	for _, u := range r.Uploads {
		if u.Name == name {
			ups = append(ups, u)
		}
	}
	return ups
}

// Reset clears recorded calls. Programs and buffers remain alive.
func (r *Recorder) Reset() {
	r.Ops = r.Ops[:0]
	r.Draws = r.Draws[:0]
	r.Uploads = r.Uploads[:0]
}

func (r *Recorder) CompileProgram(src glbuild.ShaderSource) (uint32, error) {
	if r.CompileErr != nil {
		r.op("compile error")
		return 0, r.CompileErr
	} else if src.Vertex == "" || src.Fragment == "" {
		return 0, errors.New("empty shader source")
	}
	p := &recordedProgram{src: src}
	for _, s := range [2]string{src.Vertex, src.Fragment} {
		for _, line := range strings.Split(s, "\n") {
			fields := strings.Fields(strings.TrimSuffix(strings.TrimSpace(line), ";"))
			if len(fields) == 3 && fields[0] == "uniform" {
				p.uniforms = append(p.uniforms, fields[2])
			}
		}
	}
	h := r.handle()
	r.programs[h] = p
	r.op("compile %d", h)
	return h, nil
}

func (r *Recorder) DeleteProgram(prog uint32) {
	delete(r.programs, prog)
	r.op("delete-program %d", prog)
}

func (r *Recorder) UseProgram(prog uint32) {
	r.current = prog
	r.op("use %d", prog)
}

func (r *Recorder) UniformLocation(prog uint32, name string) int32 {
	p := r.programs[prog]
	if p == nil {
		return -1
	}
	for i, u := range p.uniforms {
		if u == name {
			return int32(i)
		}
	}
	return -1
}

func (r *Recorder) Uniform(loc int32, kind glbuild.Kind, v []float32) {
	name := ""
	if p := r.programs[r.current]; p != nil && loc >= 0 && int(loc) < len(p.uniforms) {
		name = p.uniforms[loc]
	}
	r.Uploads = append(r.Uploads, RecordedUniform{
		Program:  r.current,
		Location: loc,
		Name:     name,
		Kind:     kind,
		Value:    append([]float32(nil), v...),
	})
	r.op("uniform %s %v", name, v)
}

func (r *Recorder) CreateBuffer(target BufferTarget, size int) uint32 {
	h := r.handle()
	r.buffers[h] = &recordedBuffer{target: target, data: make([]byte, size)}
	r.op("create-buffer %s %d", target, h)
	return h
}

func (r *Recorder) UpdateBuffer(target BufferTarget, buf uint32, data []byte) {
	b := r.buffers[buf]
	if b == nil {
		panic(fmt.Sprintf("update of unknown buffer %d", buf))
	} else if len(data) > len(b.data) {
		panic(fmt.Sprintf("update of %d bytes exceeds buffer %d size %d", len(data), buf, len(b.data)))
	}
	b.written = copy(b.data, data)
	r.op("update-buffer %s %d %d", target, buf, len(data))
}

func (r *Recorder) BindBuffer(target BufferTarget, buf uint32) {
	r.bound[target] = buf
	r.op("bind-buffer %s %d", target, buf)
}

func (r *Recorder) DeleteBuffer(buf uint32) {
	delete(r.buffers, buf)
	r.op("delete-buffer %d", buf)
}

func (r *Recorder) SetLayout(prog uint32, layout Layout) {
	if p := r.programs[prog]; p != nil {
		p.layout = layout
	}
}

func (r *Recorder) BindTexture(unit int, tex uint32) {
	r.textures[unit] = tex
	r.op("bind-texture %d %d", unit, tex)
}

func (r *Recorder) DrawArrays(mode DrawMode, first, count int) {
	r.Draws = append(r.Draws, RecordedDraw{
		Program:  r.current,
		Mode:     mode,
		First:    first,
		Count:    count,
		Textures: r.textures,
		Vertices: r.boundData(VertexBuffer),
	})
	r.op("draw-arrays %s %d %d", mode, first, count)
}

func (r *Recorder) DrawElements(mode DrawMode, first, count int) {
	draw := RecordedDraw{
		Program:  r.current,
		Mode:     mode,
		Indexed:  true,
		First:    first,
		Count:    count,
		Textures: r.textures,
		Vertices: r.boundData(VertexBuffer),
	}
	if ib := r.buffers[r.bound[IndexBuffer]]; ib != nil {
		raw := ib.data[2*first : 2*(first+count)]
		draw.Indices = make([]uint16, count)
		for i := range draw.Indices {
			draw.Indices[i] = binary.NativeEndian.Uint16(raw[2*i:])
		}
	}
	r.Draws = append(r.Draws, draw)
	r.op("draw-elements %s %d %d", mode, first, count)
}

func (r *Recorder) boundData(target BufferTarget) []byte {
	b := r.buffers[r.bound[target]]
	if b == nil {
		return nil
	}
	return append([]byte(nil), b.data[:b.written]...)
}
