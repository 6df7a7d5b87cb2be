package shaderlab

import (
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/shaderlab/glbuild"
	"github.com/soypat/shaderlab/glrender"
)

// Packed color defaults. Colors are RGBA with red in the lowest byte.
const (
	ColorWhite      uint32 = 0xffffffff
	ColorNone       uint32 = 0
	DefaultRedMap   uint32 = 0x000000ff
	DefaultGreenMap uint32 = 0x0000ff00
	DefaultBlueMap  uint32 = 0x00ff0000
)

// Sprite2 variant bits.
const (
	spritePlain = 0
	spriteColor = 1 << 0
	spriteMap   = 1 << 1
	spriteBoth  = spriteColor | spriteMap
)

var spriteVariantNames = [4]string{"sprite2/plain", "sprite2/color", "sprite2/map", "sprite2/both"}

type spriteVertex struct {
	Pos, UV ms2.Vec
}

type spriteColorVertex struct {
	Pos, UV         ms2.Vec
	Color, Additive uint32
}

type spriteMapVertex struct {
	Pos, UV          ms2.Vec
	RMap, GMap, BMap uint32
}

type spriteBothVertex struct {
	Pos, UV          ms2.Vec
	Color, Additive  uint32
	RMap, GMap, BMap uint32
}

type spriteQuad struct {
	pos, uv          [4]ms2.Vec
	color, additive  uint32
	rmap, gmap, bmap uint32
}

// Sprite2 draws textured 2D quads with an optional per-sprite color multiply,
// additive color and channel remap. It compiles four program variants and
// picks the cheapest one able to draw every quad of the batch at commit time.
// Quads are batched until the texture changes or capacity is reached.
type Sprite2 struct {
	set      programSet
	capacity int
	quads    []spriteQuad
	tex      uint32
	variant  int

	color, additive  uint32
	rmap, gmap, bmap uint32

	plain []spriteVertex
	col   []spriteColorVertex
	cmap  []spriteMapVertex
	both  []spriteBothVertex
}

func newSprite2(reg *glrender.Registry, p *glbuild.Programmer, quads int) (_ *Sprite2, err error) {
	s := &Sprite2{
		capacity: quads,
		quads:    make([]spriteQuad, 0, quads),
		color:    ColorWhite,
		rmap:     DefaultRedMap,
		gmap:     DefaultGreenMap,
		bmap:     DefaultBlueMap,
	}
	s.set = programSet{reg: reg, hook: s.Commit}
	defer func() {
		if err != nil {
			s.set.release()
		}
	}()
	ib, err := s.set.own(glrender.NewQuadIndexBuffer(reg.Backend(), quads))
	if err != nil {
		return nil, err
	}
	layouts := [4]glrender.Layout{
		spritePlain: glrender.NewLayout(attrPosition2, attrFloat2(varTexcoord)),
		spriteColor: glrender.NewLayout(attrPosition2, attrFloat2(varTexcoord), attrPacked(varColor), attrPacked(varAdditive)),
		spriteMap:   glrender.NewLayout(attrPosition2, attrFloat2(varTexcoord), attrPacked(varRMap), attrPacked(varGMap), attrPacked(varBMap)),
		spriteBoth: glrender.NewLayout(attrPosition2, attrFloat2(varTexcoord), attrPacked(varColor), attrPacked(varAdditive),
			attrPacked(varRMap), attrPacked(varGMap), attrPacked(varBMap)),
	}
	for variant, layout := range layouts {
		vb, err := s.set.own(glrender.NewVertexBuffer(reg.Backend(), layout.Stride, 4*quads))
		if err != nil {
			return nil, err
		}
		vert, frag := spriteChains(variant)
		prog, err := s.set.create(p, spriteVariantNames[variant], vert, frag, glrender.ProgramConfig{
			Layout:       layout,
			VertexBuffer: vb,
			IndexBuffer:  ib,
			DrawMode:     glrender.DrawTriangles,
		})
		if err != nil {
			return nil, err
		}
		setInt(prog, "u_texture0", 0)
	}
	s.set.dropBuffers()
	return s, nil
}

func spriteChains(variant int) (vert, frag glbuild.Link) {
	vert = glbuild.NewChain(glbuild.AttributeNode{Var: varTexcoord}).Connect(glbuild.VaryingNode{Var: varTexcoord})
	frag = glbuild.NewChain(glbuild.VaryingNode{Var: varTexcoord}).Connect(glbuild.TextureSample{})
	if variant&spriteMap != 0 {
		vert = passVaryings(vert, varRMap, varGMap, varBMap)
		frag = frag.Connect(glbuild.ColorMap{})
	}
	if variant&spriteColor != 0 {
		vert = passVaryings(vert, varColor, varAdditive)
		frag = frag.Connect(glbuild.ColorAddMulti{})
	}
	return vert, frag.Connect(glbuild.FragColor{})
}

func (s *Sprite2) programs() *programSet { return &s.set }

func (s *Sprite2) commit() { s.Commit() }

// SetColor sets the multiply and additive colors of subsequently drawn quads.
func (s *Sprite2) SetColor(color, additive uint32) {
	s.color, s.additive = color, additive
}

// SetMapColor sets the colors the red, green and blue texture channels of
// subsequently drawn quads are remapped onto.
func (s *Sprite2) SetMapColor(rmap, gmap, bmap uint32) {
	s.rmap, s.gmap, s.bmap = rmap, gmap, bmap
}

func (s *Sprite2) hasColor() bool {
	return s.color != ColorWhite || s.additive&0xffffff != 0
}

func (s *Sprite2) hasMap() bool {
	return s.rmap&0xffffff != DefaultRedMap || s.gmap&0xffffff != DefaultGreenMap || s.bmap&0xffffff != DefaultBlueMap
}

// Draw batches a quad with texture tex. positions and texcoords list the quad corners in order.
func (s *Sprite2) Draw(positions, texcoords [4]ms2.Vec, tex uint32) {
	s.set.activate()
	if len(s.quads) >= s.capacity || (tex != s.tex && s.tex != 0) {
		s.Commit()
	}
	s.tex = tex
	if s.hasColor() {
		s.variant |= spriteColor
	}
	if s.hasMap() {
		s.variant |= spriteMap
	}
	s.quads = append(s.quads, spriteQuad{
		pos: positions, uv: texcoords,
		color: s.color, additive: s.additive,
		rmap: s.rmap, gmap: s.gmap, bmap: s.bmap,
	})
}

// Pending returns the number of batched quads.
func (s *Sprite2) Pending() int { return len(s.quads) }

// Commit draws the batched quads in a single draw call with the program variant
// covering all their features.
func (s *Sprite2) Commit() {
	n := len(s.quads)
	if n == 0 {
		return
	}
	variant, tex := s.variant, s.tex
	data := s.vertexData(variant)
	// Reset before touching programs; their flush hooks call back into Commit.
	s.quads = s.quads[:0]
	s.tex = 0
	s.variant = spritePlain

	prog := s.set.progs[variant]
	s.set.selectProgram(variant)
	prog.SetTexture(0, tex)
	prog.Draw(data, 6*n, nil)
	prog.Commit()
}

func (s *Sprite2) vertexData(variant int) []byte {
	switch variant {
	case spriteColor:
		s.col = buildVertices(s.col, s.quads, func(q *spriteQuad, i int) spriteColorVertex {
			return spriteColorVertex{Pos: q.pos[i], UV: q.uv[i], Color: q.color, Additive: q.additive}
		})
		return glrender.AsBytes(s.col)
	case spriteMap:
		s.cmap = buildVertices(s.cmap, s.quads, func(q *spriteQuad, i int) spriteMapVertex {
			return spriteMapVertex{Pos: q.pos[i], UV: q.uv[i], RMap: q.rmap, GMap: q.gmap, BMap: q.bmap}
		})
		return glrender.AsBytes(s.cmap)
	case spriteBoth:
		s.both = buildVertices(s.both, s.quads, func(q *spriteQuad, i int) spriteBothVertex {
			return spriteBothVertex{Pos: q.pos[i], UV: q.uv[i], Color: q.color, Additive: q.additive, RMap: q.rmap, GMap: q.gmap, BMap: q.bmap}
		})
		return glrender.AsBytes(s.both)
	}
	s.plain = buildVertices(s.plain, s.quads, func(q *spriteQuad, i int) spriteVertex {
		return spriteVertex{Pos: q.pos[i], UV: q.uv[i]}
	})
	return glrender.AsBytes(s.plain)
}

func buildVertices[V any](dst []V, quads []spriteQuad, vertex func(q *spriteQuad, corner int) V) []V {
	dst = dst[:0]
	for i := range quads {
		for corner := 0; corner < 4; corner++ {
			dst = append(dst, vertex(&quads[i], corner))
		}
	}
	return dst
}
