package shaderlab

import (
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/shaderlab/glbuild"
	"github.com/soypat/shaderlab/glrender"
)

type shapeVertex struct {
	Pos   ms2.Vec
	Color uint32
}

// Shape2 draws untextured colored 2D primitives.
type Shape2 struct {
	set     programSet
	prog    *glrender.Program
	color   uint32
	scratch []shapeVertex
}

func newShape2(reg *glrender.Registry, p *glbuild.Programmer, vertices int) (_ *Shape2, err error) {
	s := &Shape2{color: ColorWhite}
	s.set = programSet{reg: reg}
	defer func() {
		if err != nil {
			s.set.release()
		}
	}()
	layout := glrender.NewLayout(attrPosition2, attrPacked(varColor))
	vb, err := s.set.own(glrender.NewVertexBuffer(reg.Backend(), layout.Stride, vertices))
	if err != nil {
		return nil, err
	}
	vert := glbuild.NewChain(glbuild.AttributeNode{Var: varColor}).Connect(glbuild.VaryingNode{Var: varColor})
	frag := glbuild.NewChain(glbuild.VaryingNode{Var: varColor}).Connect(glbuild.FragColor{})
	s.prog, err = s.set.create(p, "shape2", vert, frag, glrender.ProgramConfig{
		Layout:       layout,
		VertexBuffer: vb,
		DrawMode:     glrender.DrawTriangles,
	})
	if err != nil {
		return nil, err
	}
	s.set.dropBuffers()
	return s, nil
}

func (s *Shape2) programs() *programSet { return &s.set }

func (s *Shape2) commit() { s.prog.Commit() }

// SetColor sets the color of subsequently drawn vertices.
func (s *Shape2) SetColor(color uint32) { s.color = color }

// SetDrawMode sets the primitive topology. Changing it commits the batch.
func (s *Shape2) SetDrawMode(mode glrender.DrawMode) { s.prog.SetDrawMode(mode) }

// DrawMode returns the current primitive topology.
func (s *Shape2) DrawMode() glrender.DrawMode { return s.prog.DrawMode() }

// Draw batches vertices at positions in the current color.
// Points, lines and triangles batch across calls. Strip, loop and fan topologies
// draw one primitive per call so their batch is committed before each call.
// A batch that would overflow the configured shape_vertices capacity is committed
// first. Draw panics if a single call passes more positions than that capacity.
func (s *Shape2) Draw(positions ...ms2.Vec) {
	if len(positions) == 0 {
		return
	}
	s.set.activate()
	switch s.prog.DrawMode() {
	case glrender.DrawLineStrip, glrender.DrawLineLoop, glrender.DrawTriangleStrip, glrender.DrawTriangleFan:
		s.prog.Commit()
	}
	s.scratch = s.scratch[:0]
	for _, pos := range positions {
		s.scratch = append(s.scratch, shapeVertex{Pos: pos, Color: s.color})
	}
	s.prog.Draw(glrender.AsBytes(s.scratch), 0, nil)
}

// Commit draws the batched primitives.
func (s *Shape2) Commit() { s.prog.Commit() }
