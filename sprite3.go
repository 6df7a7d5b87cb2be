package shaderlab

import (
	"fmt"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/shaderlab/glbuild"
	"github.com/soypat/shaderlab/glrender"
)

// sprite3Vertex position is stored as three floats; ms3.Vec is padded to 16 bytes.
type sprite3Vertex struct {
	Pos             [3]float32
	UV              ms2.Vec
	Color, Additive uint32
}

// Sprite3 draws textured triangles in 3D with a per-draw color multiply and additive color.
// It uses the 3D projection and modelview of its [Context].
type Sprite3 struct {
	set             programSet
	prog            *glrender.Program
	color, additive uint32
	scratch         []sprite3Vertex
}

func newSprite3(reg *glrender.Registry, p *glbuild.Programmer, vertices int) (_ *Sprite3, err error) {
	s := &Sprite3{color: ColorWhite}
	s.set = programSet{reg: reg, is3D: true}
	defer func() {
		if err != nil {
			s.set.release()
		}
	}()
	layout := glrender.NewLayout(attrPosition3, attrFloat2(varTexcoord), attrPacked(varColor), attrPacked(varAdditive))
	vb, err := s.set.own(glrender.NewVertexBuffer(reg.Backend(), layout.Stride, vertices))
	if err != nil {
		return nil, err
	}
	vert := passVaryings(glbuild.NewChain(glbuild.AttributeNode{Var: varTexcoord}).Connect(glbuild.VaryingNode{Var: varTexcoord}),
		varColor, varAdditive)
	frag := glbuild.NewChain(glbuild.VaryingNode{Var: varTexcoord}).
		Connect(glbuild.TextureSample{}).
		Connect(glbuild.ColorAddMulti{}).
		Connect(glbuild.FragColor{})
	s.prog, err = s.set.create(p, "sprite3", vert, frag, glrender.ProgramConfig{
		Layout:       layout,
		VertexBuffer: vb,
		DrawMode:     glrender.DrawTriangles,
	})
	if err != nil {
		return nil, err
	}
	setInt(s.prog, "u_texture0", 0)
	s.set.dropBuffers()
	return s, nil
}

func (s *Sprite3) programs() *programSet { return &s.set }

func (s *Sprite3) commit() { s.prog.Commit() }

// SetColor sets the multiply and additive colors of subsequent draws.
func (s *Sprite3) SetColor(color, additive uint32) {
	s.color, s.additive = color, additive
}

// Draw batches triangles with texture tex. Every three positions form a triangle.
// Draw panics if positions and texcoords differ in length or do not form whole triangles.
// A batch that would overflow the configured sprite3_vertices capacity is committed
// first. Draw panics if a single call passes more positions than that capacity.
func (s *Sprite3) Draw(positions []ms3.Vec, texcoords []ms2.Vec, tex uint32) {
	if len(positions) != len(texcoords) {
		panic(fmt.Sprintf("sprite3: %d positions and %d texcoords", len(positions), len(texcoords)))
	} else if len(positions)%3 != 0 {
		panic(fmt.Sprintf("sprite3: %d vertices not a whole number of triangles", len(positions)))
	}
	s.set.activate()
	s.prog.SetTexture(0, tex)
	s.scratch = s.scratch[:0]
	for i := range positions {
		s.scratch = append(s.scratch, sprite3Vertex{
			Pos:      [3]float32{positions[i].X, positions[i].Y, positions[i].Z},
			UV:       texcoords[i],
			Color:    s.color,
			Additive: s.additive,
		})
	}
	s.prog.Draw(glrender.AsBytes(s.scratch), 0, nil)
}

// Commit draws the batched triangles.
func (s *Sprite3) Commit() { s.prog.Commit() }
