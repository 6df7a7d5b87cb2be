package shaderlab

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/soypat/shaderlab/glbuild"
	"github.com/soypat/shaderlab/glrender"
)

// EffectKind identifies one of the built-in effects of a [Context].
type EffectKind uint8

const (
	EffectShape2 EffectKind = iota
	EffectSprite2
	EffectSprite3
	EffectBlend
	EffectFilter
	EffectMask
	numEffects
)

func (k EffectKind) String() string {
	switch k {
	case EffectShape2:
		return "shape2"
	case EffectSprite2:
		return "sprite2"
	case EffectSprite3:
		return "sprite3"
	case EffectBlend:
		return "blend"
	case EffectFilter:
		return "filter"
	case EffectMask:
		return "mask"
	}
	return "EffectKind(" + strconv.Itoa(int(k)) + ")"
}

// effect is implemented by all built-in effects.
type effect interface {
	programs() *programSet
	// commit submits everything the effect has accumulated.
	commit()
}

// Vertex attribute and variable names shared by effect shaders.
var (
	varTexcoord     = glbuild.Variable{Kind: glbuild.Float2, Name: "texcoord"}
	varTexcoordMask = glbuild.Variable{Kind: glbuild.Float2, Name: "texcoord_mask"}
	varTexcoordBase = glbuild.Variable{Kind: glbuild.Float2, Name: "texcoord_base"}
	varColor        = glbuild.Variable{Kind: glbuild.Float4, Name: "color"}
	varAdditive     = glbuild.Variable{Kind: glbuild.Float4, Name: "additive"}
	varRMap         = glbuild.Variable{Kind: glbuild.Float4, Name: "rmap"}
	varGMap         = glbuild.Variable{Kind: glbuild.Float4, Name: "gmap"}
	varBMap         = glbuild.Variable{Kind: glbuild.Float4, Name: "bmap"}

	attrPosition2 = glrender.VertexAttrib{Name: "position", Components: 2, Type: glrender.AttribFloat32}
	attrPosition3 = glrender.VertexAttrib{Name: "position", Components: 3, Type: glrender.AttribFloat32}
)

func attrFloat2(v glbuild.Variable) glrender.VertexAttrib {
	return glrender.VertexAttrib{Name: v.Name, Components: 2, Type: glrender.AttribFloat32}
}

// attrPacked is a color attribute stored as 4 normalized bytes, red in the lowest byte.
func attrPacked(v glbuild.Variable) glrender.VertexAttrib {
	return glrender.VertexAttrib{Name: v.Name, Components: 4, Type: glrender.AttribUint8Norm}
}

// passVaryings connects attribute to varying pass-through nodes for each variable.
func passVaryings(l glbuild.Link, vars ...glbuild.Variable) glbuild.Link {
	for _, v := range vars {
		l = l.Connect(glbuild.AttributeNode{Var: v}).Connect(glbuild.VaryingNode{Var: v})
	}
	return l
}

// programSet is the group of registry programs owned by an effect.
type programSet struct {
	reg    *glrender.Registry
	is3D   bool
	ids    []string
	progs  []*glrender.Program
	proj   []int
	mv     []int
	hook   func()
	buffer []*glrender.Buffer
}

// own takes the creator reference of a buffer. It is released once the
// set's programs hold their own references.
func (ps *programSet) own(buf *glrender.Buffer, err error) (*glrender.Buffer, error) {
	if err != nil {
		return nil, err
	}
	ps.buffer = append(ps.buffer, buf)
	return buf, nil
}

// dropBuffers releases creator references taken with own.
func (ps *programSet) dropBuffers() {
	for _, buf := range ps.buffer {
		buf.Release()
	}
	ps.buffer = ps.buffer[:0]
}

// create assembles vert and frag and registers the resulting program as id.
func (ps *programSet) create(p *glbuild.Programmer, id string, vert, frag glbuild.Link, cfg glrender.ProgramConfig) (*glrender.Program, error) {
	src, err := p.Assemble(vert.Chain(), frag.Chain())
	if err != nil {
		return nil, fmt.Errorf("assembling %s: %w", id, err)
	}
	cfg.Name = id
	err = ps.reg.Create(id, func(b glrender.Backend) (*glrender.Program, error) {
		return glrender.NewProgram(b, src, cfg)
	})
	if err != nil {
		return nil, err
	}
	prog := ps.reg.Get(id)
	prog.SetFlushHook(ps.hook)
	ps.ids = append(ps.ids, id)
	ps.progs = append(ps.progs, prog)
	ps.proj = append(ps.proj, prog.AddUniform("u_projection", glbuild.Mat4))
	ps.mv = append(ps.mv, prog.AddUniform("u_modelview", glbuild.Mat4))
	return prog, nil
}

// setInt sets an integer uniform, typically a sampler unit, on prog.
func setInt(prog *glrender.Program, name string, v int) int {
	slot := prog.AddUniform(name, glbuild.Int1)
	prog.SetUniform(slot, glbuild.Int1, float32(v))
	return slot
}

func (ps *programSet) setProjection(m *Mat4) {
	for i, prog := range ps.progs {
		prog.SetUniform(ps.proj[i], glbuild.Mat4, m[:]...)
	}
}

func (ps *programSet) setModelview(m *Mat4) {
	for i, prog := range ps.progs {
		prog.SetUniform(ps.mv[i], glbuild.Mat4, m[:]...)
	}
}

// owns reports whether prog belongs to the set.
func (ps *programSet) owns(prog *glrender.Program) bool {
	for _, p := range ps.progs {
		if p == prog {
			return true
		}
	}
	return false
}

// activate selects the first program of the set unless one of the set's
// programs is already active. Selecting commits the batch of the program
// active before, which keeps draws of different effects in call order.
func (ps *programSet) activate() {
	if ps.owns(ps.reg.Active()) {
		return
	}
	ps.selectProgram(0)
}

func (ps *programSet) selectProgram(i int) {
	if err := ps.reg.Select(ps.ids[i]); err != nil {
		panic(err) // Set programs are registered until release.
	}
}

// commitAll commits every program of the set.
func (ps *programSet) commitAll() {
	for _, prog := range ps.progs {
		prog.Commit()
	}
}

// release unregisters all programs of the set and drops leftover buffer references.
func (ps *programSet) release() error {
	var errs []error
	for _, id := range ps.ids {
		errs = append(errs, ps.reg.Release(id))
	}
	ps.dropBuffers()
	ps.ids, ps.progs, ps.proj, ps.mv = nil, nil, nil, nil
	return errors.Join(errs...)
}
