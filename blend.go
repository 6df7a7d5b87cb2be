package shaderlab

import (
	"strconv"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/shaderlab/glbuild"
	"github.com/soypat/shaderlab/glbuild/glsllib"
	"github.com/soypat/shaderlab/glrender"
)

// BlendMode is the operator combining a blended texture with its base texture.
type BlendMode uint8

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendAdd
	BlendSubtract
	BlendOverlay
)

func (m BlendMode) String() string {
	switch m {
	case BlendNormal:
		return "normal"
	case BlendMultiply:
		return "multiply"
	case BlendScreen:
		return "screen"
	case BlendAdd:
		return "add"
	case BlendSubtract:
		return "subtract"
	case BlendOverlay:
		return "overlay"
	}
	return "BlendMode(" + strconv.Itoa(int(m)) + ")"
}

type blendVertex struct {
	Pos, UV, BaseUV ms2.Vec
	Color, Additive uint32
}

// Blend draws textured quads combined with a base texture by a [BlendMode].
type Blend struct {
	set             programSet
	prog            *glrender.Program
	modeSlot        int
	mode            BlendMode
	color, additive uint32
	quad            [4]blendVertex
}

func newBlend(reg *glrender.Registry, p *glbuild.Programmer, quads int) (_ *Blend, err error) {
	b := &Blend{color: ColorWhite}
	b.set = programSet{reg: reg}
	defer func() {
		if err != nil {
			b.set.release()
		}
	}()
	layout := glrender.NewLayout(attrPosition2, attrFloat2(varTexcoord), attrFloat2(varTexcoordBase),
		attrPacked(varColor), attrPacked(varAdditive))
	vb, err := b.set.own(glrender.NewVertexBuffer(reg.Backend(), layout.Stride, 4*quads))
	if err != nil {
		return nil, err
	}
	ib, err := b.set.own(glrender.NewQuadIndexBuffer(reg.Backend(), quads))
	if err != nil {
		return nil, err
	}
	vert := passVaryings(glbuild.NewChain(glbuild.AttributeNode{Var: varTexcoord}).Connect(glbuild.VaryingNode{Var: varTexcoord}),
		varTexcoordBase, varColor, varAdditive)
	frag := glbuild.NewChain(glbuild.VaryingNode{Var: varTexcoord}).
		Connect(glbuild.TextureSample{}).
		Connect(glbuild.ColorAddMulti{}).
		Connect(glsllib.Blend()).
		Connect(glbuild.FragColor{})
	b.prog, err = b.set.create(p, "blend", vert, frag, glrender.ProgramConfig{
		Layout:       layout,
		VertexBuffer: vb,
		IndexBuffer:  ib,
		DrawMode:     glrender.DrawTriangles,
	})
	if err != nil {
		return nil, err
	}
	setInt(b.prog, "u_texture0", 0)
	setInt(b.prog, "u_texture1", 1)
	b.modeSlot = setInt(b.prog, "u_mode", int(BlendNormal))
	b.set.dropBuffers()
	return b, nil
}

func (b *Blend) programs() *programSet { return &b.set }

func (b *Blend) commit() { b.prog.Commit() }

// SetMode sets the blend operator. Changing it commits the batch.
func (b *Blend) SetMode(mode BlendMode) {
	if mode > BlendOverlay {
		panic("invalid blend mode " + mode.String())
	}
	b.mode = mode
	b.prog.SetUniform(b.modeSlot, glbuild.Int1, float32(mode))
}

// Mode returns the blend operator.
func (b *Blend) Mode() BlendMode { return b.mode }

// SetColor sets the multiply and additive colors applied to the blended texture.
func (b *Blend) SetColor(color, additive uint32) {
	b.color, b.additive = color, additive
}

// Draw batches a quad blending texture tex onto texture base.
func (b *Blend) Draw(positions, texcoords, baseTexcoords [4]ms2.Vec, tex, base uint32) {
	b.set.activate()
	b.prog.SetTexture(0, tex)
	b.prog.SetTexture(1, base)
	for i := range b.quad {
		b.quad[i] = blendVertex{
			Pos:      positions[i],
			UV:       texcoords[i],
			BaseUV:   baseTexcoords[i],
			Color:    b.color,
			Additive: b.additive,
		}
	}
	b.prog.Draw(glrender.AsBytes(b.quad[:]), 6, nil)
}

// Commit draws the batched quads.
func (b *Blend) Commit() { b.prog.Commit() }
