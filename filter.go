package shaderlab

import (
	"fmt"
	"strconv"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/shaderlab/glbuild"
	"github.com/soypat/shaderlab/glbuild/glsllib"
	"github.com/soypat/shaderlab/glrender"
	"gopkg.in/yaml.v3"
)

// FilterMode selects the image filter a [Filter] draws with.
type FilterMode uint8

const (
	FilterEdgeDetect FilterMode = iota
	FilterRelief
	FilterOutline
	FilterBlur
	FilterGray
	FilterHeatHaze
	FilterShockWave
	FilterGaussianBlurHori
	FilterGaussianBlurVert
	numFilterModes
)

var filterNames = [numFilterModes]string{
	FilterEdgeDetect:       "edge_detect",
	FilterRelief:           "relief",
	FilterOutline:          "outline",
	FilterBlur:             "blur",
	FilterGray:             "gray",
	FilterHeatHaze:         "heat_haze",
	FilterShockWave:        "shock_wave",
	FilterGaussianBlurHori: "gaussian_blur_hori",
	FilterGaussianBlurVert: "gaussian_blur_vert",
}

func (m FilterMode) String() string {
	if m < numFilterModes {
		return filterNames[m]
	}
	return "FilterMode(" + strconv.Itoa(int(m)) + ")"
}

// ParseFilterMode returns the filter mode named s, as returned by [FilterMode.String].
func ParseFilterMode(s string) (FilterMode, error) {
	for m, name := range filterNames {
		if name == s {
			return FilterMode(m), nil
		}
	}
	return 0, fmt.Errorf("unknown filter mode %q", s)
}

// UnmarshalYAML decodes a filter mode from its name.
func (m *FilterMode) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	mode, err := ParseFilterMode(name)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*m = mode
	return nil
}

// MarshalYAML encodes a filter mode as its name.
func (m FilterMode) MarshalYAML() (any, error) {
	return m.String(), nil
}

func filterNode(m FilterMode) *glbuild.TemplateNode {
	switch m {
	case FilterEdgeDetect:
		return glsllib.EdgeDetect()
	case FilterRelief:
		return glsllib.Relief()
	case FilterOutline:
		return glsllib.Outline()
	case FilterBlur:
		return glsllib.Blur()
	case FilterGray:
		return glsllib.Gray()
	case FilterHeatHaze:
		return glsllib.HeatHaze()
	case FilterShockWave:
		return glsllib.ShockWave()
	case FilterGaussianBlurHori:
		return glsllib.GaussianBlurHori()
	case FilterGaussianBlurVert:
		return glsllib.GaussianBlurVert()
	}
	panic("invalid filter mode " + m.String())
}

// Filter parameter defaults.
const (
	DefaultEdgeBlend        = 0.5
	DefaultBlurRadius       = 1
	DefaultDistortionFactor = 0.1
	DefaultRiseFactor       = 0.5
)

// filter parameter slots. Unbound for modes without the parameter.
type filterSlots struct {
	blend, radius          int
	time, distortion, rise int
	center, params         int
	texWidth, texHeight    int
}

// Filter draws textured quads through an image filter. Each mode is its own
// program; all modes share one vertex buffer and one quad index buffer.
// Switching mode commits the batch of the previous mode.
type Filter struct {
	set   programSet
	mode  FilterMode
	slots [numFilterModes]filterSlots
	time  float32
	quad  [4]spriteVertex
}

func newFilter(reg *glrender.Registry, p *glbuild.Programmer, quads int, mode FilterMode) (_ *Filter, err error) {
	f := &Filter{mode: mode}
	f.set = programSet{reg: reg}
	defer func() {
		if err != nil {
			f.set.release()
		}
	}()
	layout := glrender.NewLayout(attrPosition2, attrFloat2(varTexcoord))
	vb, err := f.set.own(glrender.NewVertexBuffer(reg.Backend(), layout.Stride, 4*quads))
	if err != nil {
		return nil, err
	}
	ib, err := f.set.own(glrender.NewQuadIndexBuffer(reg.Backend(), quads))
	if err != nil {
		return nil, err
	}
	for m := FilterMode(0); m < numFilterModes; m++ {
		vert := glbuild.NewChain(glbuild.AttributeNode{Var: varTexcoord}).Connect(glbuild.VaryingNode{Var: varTexcoord})
		frag := glbuild.NewChain(glbuild.VaryingNode{Var: varTexcoord}).
			Connect(filterNode(m)).
			Connect(glbuild.FragColor{})
		prog, err := f.set.create(p, "filter/"+m.String(), vert, frag, glrender.ProgramConfig{
			Layout:       layout,
			VertexBuffer: vb,
			IndexBuffer:  ib,
			DrawMode:     glrender.DrawTriangles,
		})
		if err != nil {
			return nil, err
		}
		f.initUniforms(m, prog)
	}
	f.set.dropBuffers()
	return f, nil
}

func (f *Filter) initUniforms(m FilterMode, prog *glrender.Program) {
	s := &f.slots[m]
	*s = filterSlots{
		blend: glrender.Unbound, radius: glrender.Unbound,
		time: glrender.Unbound, distortion: glrender.Unbound, rise: glrender.Unbound,
		center: glrender.Unbound, params: glrender.Unbound,
		texWidth: glrender.Unbound, texHeight: glrender.Unbound,
	}
	set1 := func(name string, v float32) int {
		slot := prog.AddUniform(name, glbuild.Float1)
		prog.SetUniform(slot, glbuild.Float1, v)
		return slot
	}
	switch m {
	case FilterEdgeDetect:
		s.blend = set1("u_blend", DefaultEdgeBlend)
	case FilterBlur:
		s.radius = set1("u_radius", DefaultBlurRadius)
	case FilterHeatHaze:
		setInt(prog, "u_current_tex", 0)
		setInt(prog, "u_distortion_map_tex", 1)
		s.time = set1("u_time", 0)
		s.distortion = set1("u_distortion_factor", DefaultDistortionFactor)
		s.rise = set1("u_rise_factor", DefaultRiseFactor)
	case FilterShockWave:
		s.time = set1("u_time", 0)
		s.center = prog.AddUniform("u_center", glbuild.Float2)
		prog.SetUniform(s.center, glbuild.Float2, 0.5, 0.5)
		s.params = prog.AddUniform("u_params", glbuild.Float3)
		prog.SetUniform(s.params, glbuild.Float3, 10, 0.8, 0.1)
	case FilterGaussianBlurHori:
		s.texWidth = set1("u_tex_width", 1)
	case FilterGaussianBlurVert:
		s.texHeight = set1("u_tex_height", 1)
	}
	if m != FilterHeatHaze {
		setInt(prog, "u_texture0", 0)
	}
}

func (f *Filter) programs() *programSet { return &f.set }

func (f *Filter) commit() { f.set.commitAll() }

func (f *Filter) prog(m FilterMode) *glrender.Program { return f.set.progs[m] }

// SetMode selects the filter of subsequent draws, committing the batch of the previous filter.
func (f *Filter) SetMode(mode FilterMode) {
	if mode >= numFilterModes {
		panic("invalid filter mode " + mode.String())
	}
	f.mode = mode
	f.set.selectProgram(int(mode))
}

// Mode returns the current filter.
func (f *Filter) Mode() FilterMode { return f.mode }

// SetEdgeBlend sets the mix between source color and edges of [FilterEdgeDetect].
func (f *Filter) SetEdgeBlend(blend float32) {
	f.prog(FilterEdgeDetect).SetUniform(f.slots[FilterEdgeDetect].blend, glbuild.Float1, blend)
}

// SetBlurRadius sets the sample spacing in texels of [FilterBlur].
func (f *Filter) SetBlurRadius(radius float32) {
	f.prog(FilterBlur).SetUniform(f.slots[FilterBlur].radius, glbuild.Float1, radius)
}

// SetHeatHaze sets the distortion strength and rise speed of [FilterHeatHaze].
func (f *Filter) SetHeatHaze(distortion, rise float32) {
	prog, s := f.prog(FilterHeatHaze), &f.slots[FilterHeatHaze]
	prog.SetUniform(s.distortion, glbuild.Float1, distortion)
	prog.SetUniform(s.rise, glbuild.Float1, rise)
}

// SetHeatHazeTexture sets the distortion map of [FilterHeatHaze], bound to texture unit 1.
func (f *Filter) SetHeatHazeTexture(tex uint32) {
	f.prog(FilterHeatHaze).SetTexture(1, tex)
}

// SetShockWave sets the center in texture coordinates and the sharpness,
// falloff exponent and ring width of [FilterShockWave].
func (f *Filter) SetShockWave(center ms2.Vec, sharpness, falloff, width float32) {
	prog, s := f.prog(FilterShockWave), &f.slots[FilterShockWave]
	prog.SetUniform(s.center, glbuild.Float2, center.X, center.Y)
	prog.SetUniform(s.params, glbuild.Float3, sharpness, falloff, width)
}

// SetTextureSize sets the texture dimensions in texels used by the gaussian blur passes.
func (f *Filter) SetTextureSize(width, height float32) {
	f.prog(FilterGaussianBlurHori).SetUniform(f.slots[FilterGaussianBlurHori].texWidth, glbuild.Float1, width)
	f.prog(FilterGaussianBlurVert).SetUniform(f.slots[FilterGaussianBlurVert].texHeight, glbuild.Float1, height)
}

// Update advances the time of animated filters by dt seconds.
func (f *Filter) Update(dt float32) {
	f.time += dt
	for _, m := range [...]FilterMode{FilterHeatHaze, FilterShockWave} {
		f.prog(m).SetUniform(f.slots[m].time, glbuild.Float1, f.time)
	}
}

// Time returns the accumulated filter time.
func (f *Filter) Time() float32 { return f.time }

// Draw batches a quad of texture tex filtered by the current mode.
func (f *Filter) Draw(positions, texcoords [4]ms2.Vec, tex uint32) {
	prog := f.prog(f.mode)
	f.set.selectProgram(int(f.mode))
	prog.SetTexture(0, tex)
	for i := range f.quad {
		f.quad[i] = spriteVertex{Pos: positions[i], UV: texcoords[i]}
	}
	prog.Draw(glrender.AsBytes(f.quad[:]), 6, nil)
}

// Commit draws the batched quads.
func (f *Filter) Commit() { f.set.commitAll() }
