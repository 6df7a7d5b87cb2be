package glrender

import (
	"errors"
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"github.com/soypat/shaderlab/glbuild"
)

const (
	// Unbound is the slot index of uniforms not present in the compiled program.
	// Writes to it are absorbed without effect.
	Unbound = -1
	// MaxUniforms is the maximum number of uniform slots of a program.
	MaxUniforms = 64
	// MaxTextureUnits is the number of texture units a program tracks.
	MaxTextureUnits = 4
)

// ProgramConfig configures a [Program].
type ProgramConfig struct {
	// Name identifies the program in logs.
	Name   string
	Layout Layout
	// VertexBuffer is required. Its stride must match the layout stride.
	VertexBuffer *Buffer
	// IndexBuffer is optional. Without it the program issues non-indexed draws.
	IndexBuffer *Buffer
	DrawMode    DrawMode
}

// Stats holds draw submission counters of a program.
type Stats struct {
	DrawCalls int
	Vertices  int
	Indices   int
}

type uniformSlot struct {
	name  string
	loc   int32
	kind  glbuild.Kind
	value [glbuild.MaxUniformElements]float32
	// set is false until the first write so that initial values are always uploaded.
	set   bool
	dirty bool
}

// Program is a compiled GPU program with a uniform cache and a batching accumulator.
// Vertices given to [Program.Draw] are accumulated and submitted in a single draw
// call on [Program.Commit]. State changes that would affect accumulated vertices
// (uniform values, bound textures, draw mode) commit the accumulated batch first.
type Program struct {
	name     string
	backend  Backend
	handle   uint32
	layout   Layout
	vb, ib   *Buffer
	mode     DrawMode
	uniforms []uniformSlot
	textures [MaxTextureUnits]uint32

	nverts, nidx int
	flushHook    func()
	inHook       bool
	stats        Stats
}

// NewProgram compiles src and returns a program drawing from the configured buffers.
// The program holds a reference to its buffers until [Program.Release] is called.
func NewProgram(backend Backend, src glbuild.ShaderSource, cfg ProgramConfig) (*Program, error) {
	if backend == nil {
		return nil, errors.New("nil backend")
	}
	vb, ib := cfg.VertexBuffer, cfg.IndexBuffer
	if vb == nil {
		return nil, errors.New("program requires a vertex buffer")
	} else if vb.Target() != VertexBuffer {
		return nil, errors.New("vertex buffer has target " + vb.Target().String())
	} else if ib != nil && ib.Target() != IndexBuffer {
		return nil, errors.New("index buffer has target " + ib.Target().String())
	} else if ib != nil && vb.Cap() > math.MaxUint16+1 {
		return nil, errors.New("indexed program vertex capacity exceeds 16-bit index range")
	}
	if err := cfg.Layout.validate(); err != nil {
		return nil, err
	} else if cfg.Layout.Stride != vb.Stride() {
		return nil, fmt.Errorf("layout stride %d does not match vertex buffer stride %d", cfg.Layout.Stride, vb.Stride())
	}
	handle, err := backend.CompileProgram(src)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w: %w", cfg.Name, ErrCompile, err)
	}
	vb.retain()
	if ib != nil {
		ib.retain()
	}
	p := &Program{
		name:    cfg.Name,
		backend: backend,
		handle:  handle,
		layout:  cfg.Layout,
		vb:      vb,
		ib:      ib,
		mode:    cfg.DrawMode,
	}
	slogger().Info("glrender: program created", "program", p.name, "handle", handle, "vertexCap", vb.Cap(), "indexed", ib != nil)
	return p, nil
}

// Name returns the configured program name.
func (p *Program) Name() string { return p.name }

// Handle returns the backend program handle. It is zero after release.
func (p *Program) Handle() uint32 { return p.handle }

// DrawMode returns the current primitive topology.
func (p *Program) DrawMode() DrawMode { return p.mode }

// Layout returns the vertex layout of the program.
func (p *Program) Layout() Layout { return p.layout }

// Texture returns the texture bound to unit.
func (p *Program) Texture(unit int) uint32 { return p.textures[unit] }

// Pending returns the accumulated number of vertices and indices not yet submitted.
func (p *Program) Pending() (vertices, indices int) { return p.nverts, p.nidx }

// Stats returns the draw counters of the program.
func (p *Program) Stats() Stats { return p.stats }

// ResetStats zeroes the draw counters of the program.
func (p *Program) ResetStats() { p.stats = Stats{} }

// SetFlushHook sets a function called before the program commits due to a state change.
// Effects that stage primitives outside the program use it to submit them under the old state.
func (p *Program) SetFlushHook(hook func()) { p.flushHook = hook }

// AddUniform registers the uniform named name and returns its slot index.
// It returns [Unbound] if the program has no active uniform by that name or if
// all [MaxUniforms] slots are taken. Sampler uniforms are registered as [glbuild.Int1].
func (p *Program) AddUniform(name string, kind glbuild.Kind) int {
	if !kind.Numeric() {
		panic("non-numeric uniform kind " + kind.String())
	}
	if len(p.uniforms) >= MaxUniforms {
		slogger().Warn("glrender: uniform slots exhausted", "program", p.name, "uniform", name)
		return Unbound
	}
	loc := p.backend.UniformLocation(p.handle, name)
	if loc < 0 {
		slogger().Warn("glrender: uniform not found", "program", p.name, "uniform", name)
		return Unbound
	}
	p.uniforms = append(p.uniforms, uniformSlot{name: name, loc: loc, kind: kind})
	return len(p.uniforms) - 1
}

// SetUniform caches v as the value of the uniform at slot. Invalid and [Unbound] slots are ignored.
// Writing the cached value again has no effect. Writing a different value first commits
// the accumulated batch so that it is drawn with the previous value.
// SetUniform panics if kind is not the registered kind of the slot.
func (p *Program) SetUniform(slot int, kind glbuild.Kind, v ...float32) {
	if slot < 0 || slot >= len(p.uniforms) {
		return
	}
	u := &p.uniforms[slot]
	if kind != u.kind {
		panic(fmt.Sprintf("uniform %q registered as %s, set as %s", u.name, u.kind, kind))
	}
	n := kind.Size()
	if len(v) < n {
		panic(fmt.Sprintf("uniform %q of kind %s set with %d values", u.name, kind, len(v)))
	}
	if u.set && sameBits(u.value[:n], v[:n]) {
		return
	}
	p.flush("uniform " + u.name)
	copy(u.value[:n], v[:n])
	u.set = true
	u.dirty = true
}

// Uniform returns the cached value of the uniform at slot, or nil for invalid slots.
func (p *Program) Uniform(slot int) []float32 {
	if slot < 0 || slot >= len(p.uniforms) {
		return nil
	}
	u := &p.uniforms[slot]
	return u.value[:u.kind.Size()]
}

func sameBits(a, b []float32) bool {
	for i := range a {
		if math32.Float32bits(a[i]) != math32.Float32bits(b[i]) {
			return false
		}
	}
	return true
}

// Apply binds the program, uploads all changed uniform values and reports whether any were uploaded.
func (p *Program) Apply() bool {
	p.backend.UseProgram(p.handle)
	return p.apply()
}

func (p *Program) apply() (changed bool) {
	for i := range p.uniforms {
		u := &p.uniforms[i]
		if !u.dirty {
			continue
		}
		p.backend.Uniform(u.loc, u.kind, u.value[:u.kind.Size()])
		u.dirty = false
		changed = true
	}
	return changed
}

// SetTexture sets the texture drawn with on a texture unit. Switching away from
// a non-zero texture while vertices are accumulated commits them first.
func (p *Program) SetTexture(unit int, tex uint32) {
	if unit < 0 || unit >= MaxTextureUnits {
		panic(fmt.Sprintf("texture unit %d out of range", unit))
	}
	current := p.textures[unit]
	if current == tex {
		return
	}
	if current != 0 {
		p.flush("texture")
	}
	p.textures[unit] = tex
}

// SetDrawMode sets the primitive topology, committing accumulated vertices if it changes.
func (p *Program) SetDrawMode(mode DrawMode) {
	if mode == p.mode {
		return
	}
	p.flush("draw mode")
	p.mode = mode
}

// Draw accumulates vertices and indices for the next commit. vertices must hold a
// whole number of vertices of the layout stride. indices are relative to the first
// vertex of the call and are rebased onto the accumulated vertices.
// Programs drawing from a static index buffer take only an index count, with indices nil.
// If the vertices or indices do not fit in the remaining capacity the accumulated
// batch is committed first. Draw panics if a single call exceeds buffer capacity.
func (p *Program) Draw(vertices []byte, indexCount int, indices []uint16) {
	stride := p.layout.Stride
	if len(vertices)%stride != 0 {
		panic(fmt.Sprintf("vertex data length %d not a multiple of stride %d", len(vertices), stride))
	}
	nv := len(vertices) / stride
	switch {
	case p.ib == nil && (indexCount != 0 || indices != nil):
		panic("indices drawn with non-indexed program " + p.name)
	case p.ib != nil && p.ib.Static() && indices != nil:
		panic("indices written to static index buffer of program " + p.name)
	case p.ib != nil && !p.ib.Static() && len(indices) != indexCount:
		panic(fmt.Sprintf("index count %d does not match %d indices", indexCount, len(indices)))
	case indexCount < 0:
		panic("negative index count")
	}
	if nv > p.vb.Cap() || (p.ib != nil && indexCount > p.ib.Cap()) {
		panic(fmt.Sprintf("draw of %d vertices %d indices exceeds capacity of program %s", nv, indexCount, p.name))
	}
	if p.nverts+nv > p.vb.Cap() || (p.ib != nil && p.nidx+indexCount > p.ib.Cap()) {
		p.commit("capacity")
	}
	p.vb.stageVertices(p.nverts, vertices)
	if indices != nil {
		p.ib.stageIndices(p.nidx, indices, uint16(p.nverts))
	}
	p.nverts += nv
	p.nidx += indexCount
}

// Commit submits the accumulated batch in one draw call and empties the accumulator.
// It is a no-op when nothing is accumulated.
func (p *Program) Commit() {
	p.commit("explicit")
}

// flush commits effect staged primitives through the flush hook and then the program's own batch.
func (p *Program) flush(reason string) {
	if p.flushHook != nil && !p.inHook {
		p.inHook = true
		p.flushHook()
		p.inHook = false
	}
	p.commit(reason)
}

func (p *Program) commit(reason string) {
	if p.nverts == 0 && p.nidx == 0 {
		return
	}
	p.bind()
	p.apply()
	for unit, tex := range p.textures {
		if tex != 0 {
			p.backend.BindTexture(unit, tex)
		}
	}
	p.vb.upload(p.nverts)
	if p.ib != nil {
		p.ib.upload(p.nidx)
		p.backend.DrawElements(p.mode, 0, p.nidx)
	} else {
		p.backend.DrawArrays(p.mode, 0, p.nverts)
	}
	slogger().Debug("glrender: commit", "program", p.name, "reason", reason, "vertices", p.nverts, "indices", p.nidx)
	p.stats.DrawCalls++
	p.stats.Vertices += p.nverts
	p.stats.Indices += p.nidx
	p.nverts, p.nidx = 0, 0
}

// bind makes the program and its buffers current on the backend.
func (p *Program) bind() {
	p.backend.UseProgram(p.handle)
	p.vb.bind()
	if p.ib != nil {
		p.ib.bind()
	}
	p.backend.SetLayout(p.handle, p.layout)
}

// Release deletes the GPU program and drops the program's buffer references.
// Accumulated vertices are discarded; commit before releasing to draw them.
func (p *Program) Release() {
	if p.handle == 0 {
		return
	}
	p.backend.DeleteProgram(p.handle)
	p.vb.Release()
	if p.ib != nil {
		p.ib.Release()
	}
	slogger().Info("glrender: program released", "program", p.name, "handle", p.handle)
	p.handle = 0
	p.nverts, p.nidx = 0, 0
}
