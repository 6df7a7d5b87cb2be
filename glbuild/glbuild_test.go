package glbuild_test

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/soypat/shaderlab/glbuild"
	"github.com/soypat/shaderlab/glbuild/glsllib"
)

var texcoord = glbuild.Variable{Kind: glbuild.Float2, Name: "texcoord"}

func texturedChains() (vert, frag *glbuild.Chain) {
	vert = glbuild.NewChain(glbuild.AttributeNode{Var: texcoord}).
		Connect(glbuild.VaryingNode{Var: texcoord}).Chain()
	frag = glbuild.NewChain(glbuild.VaryingNode{Var: texcoord}).
		Connect(glbuild.TextureSample{}).
		Connect(glbuild.FragColor{}).Chain()
	return vert, frag
}

func TestChainOrdering(t *testing.T) {
	const n = 6
	link := glbuild.NewChain(glbuild.VaryingNode{Var: texcoord})
	for i := 1; i < n; i++ {
		name := "_step" + strconv.Itoa(i) + "_"
		link = link.Connect(glbuild.NewTemplateNode(name, "\tvec2 "+name+" = _TMP_ * 2.0;\n"))
	}
	chain := link.Chain()
	if chain.Len() != n {
		t.Fatalf("want chain length %d, got %d", n, chain.Len())
	}
	got := string(chain.AppendStatements(nil))
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != n-1 {
		// Head varying in fragment stage emits no statement.
		t.Fatalf("want %d statements, got %d:\n%s", n-1, len(lines), got)
	}
	prev := "v_texcoord"
	for i, line := range lines {
		name := "_step" + strconv.Itoa(i+1) + "_"
		want := "vec2 " + name + " = " + prev + " * 2.0;"
		if strings.TrimSpace(line) != want {
			t.Errorf("statement %d: want %q, got %q", i, want, strings.TrimSpace(line))
		}
		prev = name
	}
}

func TestConnectIdempotent(t *testing.T) {
	head := glbuild.NewChain(glbuild.AttributeNode{Var: texcoord})
	l1 := head.Connect(glbuild.VaryingNode{Var: texcoord})
	l2 := head.Connect(glbuild.VaryingNode{Var: texcoord})
	if l1 != l2 {
		t.Error("reconnecting same successor should return existing link")
	}
	if head.Chain().Len() != 2 {
		t.Errorf("want chain length 2, got %d", head.Chain().Len())
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic connecting different successor")
		}
	}()
	head.Connect(glbuild.TextureSample{})
}

func TestAssembleTextured(t *testing.T) {
	vert, frag := texturedChains()
	p := glbuild.NewDefaultProgrammer()
	src, err := p.Assemble(vert, frag)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		glbuild.VersionStr,
		"in vec2 texcoord;\n",
		"in vec4 position;\n",
		"out vec2 v_texcoord;\n",
		"uniform mat4 u_projection;\n",
		"uniform mat4 u_modelview;\n",
		"\tv_texcoord = texcoord;\n",
		"\tgl_Position = u_projection * u_modelview * position;\n",
	} {
		if !strings.Contains(src.Vertex, want) {
			t.Errorf("vertex source missing %q:\n%s", want, src.Vertex)
		}
	}
	for _, want := range []string{
		"in vec2 v_texcoord;\n",
		"uniform sampler2D u_texture0;\n",
		"out vec4 fragColor;\n",
		"\tvec4 _tex_u_texture0_ = texture(u_texture0, v_texcoord);\n",
		"\tfragColor = _tex_u_texture0_;\n",
	} {
		if !strings.Contains(src.Fragment, want) {
			t.Errorf("fragment source missing %q:\n%s", want, src.Fragment)
		}
	}
	if strings.Contains(src.Fragment, "u_projection") {
		t.Error("fragment stage should not declare vertex-only uniforms")
	}
	if strings.Contains(src.Vertex, "u_texture0") {
		t.Error("vertex stage should not declare fragment-only uniforms")
	}
	// Position must be the last vertex statement.
	posIdx := strings.Index(src.Vertex, "gl_Position =")
	varIdx := strings.Index(src.Vertex, "v_texcoord = texcoord")
	if posIdx < varIdx {
		t.Error("default position statement emitted before chain statements")
	}
}

func TestVaryingConsistency(t *testing.T) {
	color := glbuild.Variable{Kind: glbuild.Float4, Name: "color"}
	additive := glbuild.Variable{Kind: glbuild.Float4, Name: "additive"}
	vert := glbuild.NewChain(glbuild.AttributeNode{Var: texcoord}).
		Connect(glbuild.VaryingNode{Var: texcoord}).
		Connect(glbuild.AttributeNode{Var: color}).
		Connect(glbuild.VaryingNode{Var: color}).
		Connect(glbuild.AttributeNode{Var: additive}).
		Connect(glbuild.VaryingNode{Var: additive}).Chain()
	frag := glbuild.NewChain(glbuild.VaryingNode{Var: texcoord}).
		Connect(glbuild.TextureSample{}).
		Connect(glbuild.ColorAddMulti{}).
		Connect(glbuild.FragColor{}).Chain()
	src, err := glbuild.NewDefaultProgrammer().Assemble(vert, frag)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []glbuild.Variable{texcoord, color, additive} {
		decl := string(glbuild.AppendDecl(nil, glbuild.Varying(v.Kind, v.Name)))
		vdecl := "out " + decl
		fdecl := "in " + decl
		if strings.Count(src.Vertex, vdecl) != 1 {
			t.Errorf("want one %q in vertex:\n%s", vdecl, src.Vertex)
		}
		if strings.Count(src.Fragment, fdecl) != 1 {
			t.Errorf("want one %q in fragment:\n%s", fdecl, src.Fragment)
		}
	}
}

func TestStructuralErrors(t *testing.T) {
	vert, frag := texturedChains()
	fragNoOutput := glbuild.NewChain(glbuild.VaryingNode{Var: texcoord}).
		Connect(glbuild.TextureSample{}).Chain()
	fragLone := glbuild.NewChain(glbuild.FragColor{}).Chain()
	fragMismatch := glbuild.NewChain(glbuild.VaryingNode{Var: glbuild.Variable{Kind: glbuild.Float3, Name: "texcoord"}}).
		Connect(glbuild.TextureSample{}).
		Connect(glbuild.FragColor{}).Chain()
	fragUnwritten := glbuild.NewChain(glbuild.VaryingNode{Var: glbuild.Variable{Kind: glbuild.Float2, Name: "uv"}}).
		Connect(glbuild.TextureSample{}).
		Connect(glbuild.FragColor{}).Chain()
	fragDup := glbuild.NewChain(glbuild.VaryingNode{Var: texcoord}).
		Connect(glbuild.TextureSample{}).
		Connect(glbuild.NewTemplateNode("_tex_u_texture0_", "")).
		Connect(glbuild.FragColor{}).Chain()
	fragAttr := glbuild.NewChain(glbuild.AttributeNode{Var: texcoord}).
		Connect(glbuild.TextureSample{}).
		Connect(glbuild.FragColor{}).Chain()
	fragSampleHead := glbuild.NewChain(glbuild.TextureSample{}).
		Connect(glbuild.FragColor{}).Chain()
	fragColorHead := glbuild.NewChain(glbuild.ColorAddMulti{}).
		Connect(glbuild.FragColor{}).Chain()
	fragTemplateHead := glbuild.NewChain(glsllib.Gray()).
		Connect(glbuild.FragColor{}).Chain()
	vertMaskHead := glbuild.NewChain(glbuild.Mask{}).
		Connect(glbuild.VaryingNode{Var: texcoord}).Chain()

	for _, test := range []struct {
		desc       string
		vert, frag *glbuild.Chain
		stage      glbuild.Stage
		want       error
	}{
		{desc: "empty vertex", vert: nil, frag: frag, stage: glbuild.StageVertex, want: glbuild.ErrEmptyChain},
		{desc: "empty fragment", vert: vert, frag: &glbuild.Chain{}, stage: glbuild.StageFragment, want: glbuild.ErrEmptyChain},
		{desc: "no frag output", vert: vert, frag: fragNoOutput, stage: glbuild.StageFragment, want: glbuild.ErrMissingOutput},
		{desc: "frag output without input", vert: vert, frag: fragLone, stage: glbuild.StageFragment, want: glbuild.ErrMissingInput},
		{desc: "texture sample head", vert: vert, frag: fragSampleHead, stage: glbuild.StageFragment, want: glbuild.ErrMissingInput},
		{desc: "color add multi head", vert: vert, frag: fragColorHead, stage: glbuild.StageFragment, want: glbuild.ErrMissingInput},
		{desc: "template head", vert: vert, frag: fragTemplateHead, stage: glbuild.StageFragment, want: glbuild.ErrMissingInput},
		{desc: "mask head in vertex", vert: vertMaskHead, frag: frag, stage: glbuild.StageVertex, want: glbuild.ErrMissingInput},
		{desc: "varying kind mismatch", vert: vert, frag: fragMismatch, stage: glbuild.StageFragment, want: glbuild.ErrKindMismatch},
		{desc: "unwritten varying", vert: vert, frag: fragUnwritten, stage: glbuild.StageFragment, want: glbuild.ErrUnwrittenVarying},
		{desc: "duplicate output", vert: vert, frag: fragDup, stage: glbuild.StageFragment, want: glbuild.ErrDuplicateOutput},
		{desc: "attribute in fragment", vert: vert, frag: fragAttr, stage: glbuild.StageFragment, want: glbuild.ErrStageRole},
	} {
		_, err := glbuild.NewDefaultProgrammer().Assemble(test.vert, test.frag)
		if !errors.Is(err, test.want) {
			t.Errorf("%s: want %v, got %v", test.desc, test.want, err)
			continue
		}
		var serr *glbuild.StructuralError
		if !errors.As(err, &serr) {
			t.Errorf("%s: want *StructuralError, got %T", test.desc, err)
		} else if serr.Stage != test.stage {
			t.Errorf("%s: want stage %s, got %s", test.desc, test.stage, serr.Stage)
		}
	}
}

func TestMissingPositionWithoutDefault(t *testing.T) {
	vert, frag := texturedChains()
	p := glbuild.NewDefaultProgrammer()
	p.SetDefaultPosition(nil)
	_, err := p.Assemble(vert, frag)
	if !errors.Is(err, glbuild.ErrMissingOutput) {
		t.Fatalf("want ErrMissingOutput, got %v", err)
	}
	// Chain writing position explicitly needs no default.
	vert = glbuild.NewChain(glbuild.AttributeNode{Var: texcoord}).
		Connect(glbuild.VaryingNode{Var: texcoord}).
		Connect(glbuild.PositionTrans{}).Chain()
	src, err := p.Assemble(vert, frag)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(src.Vertex, "gl_Position =") != 1 {
		t.Errorf("want single position write:\n%s", src.Vertex)
	}
}

func TestSetVersion(t *testing.T) {
	vert, frag := texturedChains()
	p := glbuild.NewDefaultProgrammer()
	p.SetVersion("#version 460")
	src, err := p.Assemble(vert, frag)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(src.Vertex, "#version 460\n") || !strings.HasPrefix(src.Fragment, "#version 460\n") {
		t.Errorf("version header not applied:\n%s", src.Vertex)
	}
}

func TestFilterTemplates(t *testing.T) {
	vert, _ := texturedChains()
	for _, node := range []*glbuild.TemplateNode{
		glsllib.Gray(), glsllib.Blur(), glsllib.EdgeDetect(), glsllib.Relief(),
		glsllib.Outline(), glsllib.HeatHaze(), glsllib.ShockWave(),
		glsllib.GaussianBlurHori(), glsllib.GaussianBlurVert(),
	} {
		frag := glbuild.NewChain(glbuild.VaryingNode{Var: texcoord}).
			Connect(node).
			Connect(glbuild.FragColor{}).Chain()
		src, err := glbuild.NewDefaultProgrammer().Assemble(vert, frag)
		if err != nil {
			t.Errorf("%s: %v", node.Output, err)
			continue
		}
		if strings.Contains(src.Fragment, glbuild.Placeholder) {
			t.Errorf("%s: placeholder not substituted:\n%s", node.Output, src.Fragment)
		}
		if !strings.Contains(src.Fragment, "fragColor = "+node.Output+";") {
			t.Errorf("%s: output not written:\n%s", node.Output, src.Fragment)
		}
		for _, d := range node.Decls {
			if !strings.Contains(src.Fragment, "uniform "+string(glbuild.AppendDecl(nil, d))) {
				t.Errorf("%s: missing declaration of %s", node.Output, d.Var.Name)
			}
		}
	}
}

func TestAppendFloat(t *testing.T) {
	for _, test := range []struct {
		v    float32
		want string
	}{
		{v: 1, want: "1.0"},
		{v: 0.5, want: "0.5"},
		{v: -2.25, want: "-2.25"},
		{v: 0, want: "0.0"},
	} {
		got := string(glbuild.AppendFloat(nil, '-', '.', test.v))
		if got != test.want {
			t.Errorf("AppendFloat(%v): want %q, got %q", test.v, test.want, got)
		}
	}
	got := string(glbuild.AppendFloats(nil, ',', '-', '.', 1, 0.5))
	if got != "1.0,0.5" {
		t.Errorf("AppendFloats: got %q", got)
	}
}

func TestBlendTemplate(t *testing.T) {
	base := glbuild.Variable{Kind: glbuild.Float2, Name: "texcoord_base"}
	vert := glbuild.NewChain(glbuild.AttributeNode{Var: texcoord}).
		Connect(glbuild.VaryingNode{Var: texcoord}).
		Connect(glbuild.AttributeNode{Var: base}).
		Connect(glbuild.VaryingNode{Var: base}).Chain()
	frag := glbuild.NewChain(glbuild.VaryingNode{Var: texcoord}).
		Connect(glbuild.TextureSample{}).
		Connect(glsllib.Blend()).
		Connect(glbuild.FragColor{}).Chain()
	src, err := glbuild.NewDefaultProgrammer().Assemble(vert, frag)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"uniform int u_mode;",
		"uniform sampler2D u_texture1;",
		"in vec2 v_texcoord_base;",
		"_blend_rgb_ = _tex_u_texture0_.rgb;",
		"fragColor = _blend_;",
	} {
		if !strings.Contains(src.Fragment, want) {
			t.Errorf("fragment missing %q:\n%s", want, src.Fragment)
		}
	}
	// Without the vertex stage writing texcoord_base the blend node cannot be assembled.
	vert2, _ := texturedChains()
	_, err = glbuild.NewDefaultProgrammer().Assemble(vert2, frag)
	if !errors.Is(err, glbuild.ErrUnwrittenVarying) {
		t.Errorf("want ErrUnwrittenVarying, got %v", err)
	}
}
