package shaderlab

import (
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/shaderlab/glbuild"
	"github.com/soypat/shaderlab/glrender"
)

type maskVertex struct {
	Pos, UV, MaskUV ms2.Vec
}

// Mask draws textured quads multiplied by the red channel of a mask texture.
type Mask struct {
	set  programSet
	prog *glrender.Program
	quad [4]maskVertex
}

func newMask(reg *glrender.Registry, p *glbuild.Programmer, quads int) (_ *Mask, err error) {
	m := &Mask{}
	m.set = programSet{reg: reg}
	defer func() {
		if err != nil {
			m.set.release()
		}
	}()
	layout := glrender.NewLayout(attrPosition2, attrFloat2(varTexcoord), attrFloat2(varTexcoordMask))
	vb, err := m.set.own(glrender.NewVertexBuffer(reg.Backend(), layout.Stride, 4*quads))
	if err != nil {
		return nil, err
	}
	ib, err := m.set.own(glrender.NewQuadIndexBuffer(reg.Backend(), quads))
	if err != nil {
		return nil, err
	}
	vert := passVaryings(glbuild.NewChain(glbuild.AttributeNode{Var: varTexcoord}).Connect(glbuild.VaryingNode{Var: varTexcoord}),
		varTexcoordMask)
	frag := glbuild.NewChain(glbuild.VaryingNode{Var: varTexcoord}).
		Connect(glbuild.TextureSample{}).
		Connect(glbuild.Mask{}).
		Connect(glbuild.FragColor{})
	m.prog, err = m.set.create(p, "mask", vert, frag, glrender.ProgramConfig{
		Layout:       layout,
		VertexBuffer: vb,
		IndexBuffer:  ib,
		DrawMode:     glrender.DrawTriangles,
	})
	if err != nil {
		return nil, err
	}
	setInt(m.prog, "u_texture0", 0)
	setInt(m.prog, "u_texture1", 1)
	m.set.dropBuffers()
	return m, nil
}

func (m *Mask) programs() *programSet { return &m.set }

func (m *Mask) commit() { m.prog.Commit() }

// Draw batches a quad of texture tex masked by texture mask.
// The batch is committed first when either texture changes.
func (m *Mask) Draw(positions, texcoords, maskTexcoords [4]ms2.Vec, tex, mask uint32) {
	m.set.activate()
	m.prog.SetTexture(0, tex)
	m.prog.SetTexture(1, mask)
	for i := range m.quad {
		m.quad[i] = maskVertex{Pos: positions[i], UV: texcoords[i], MaskUV: maskTexcoords[i]}
	}
	m.prog.Draw(glrender.AsBytes(m.quad[:]), 6, nil)
}

// Commit draws the batched quads.
func (m *Mask) Commit() { m.prog.Commit() }
