package glbuild

import (
	"fmt"
	"reflect"
	"strings"
)

// Placeholder is the token in node statement templates that is replaced
// with the output name of the node's predecessor in the chain.
const Placeholder = "_TMP_"

// Node is a unit of shader statement generation with one declared output.
// Nodes carry no runtime state: their statement is a pure function of their
// template and the output name of their direct predecessor.
type Node interface {
	// AppendOutputName appends the identifier the node's result is bound to.
	// It must be unique within a chain.
	AppendOutputName(b []byte) []byte
	// AppendStatement appends the node's statement block. input is the output
	// name of the preceding node in the chain and is nil for the chain head.
	AppendStatement(b []byte, input []byte) []byte
	// AppendDecls appends the attribute, varying and uniform declarations the node requires.
	AppendDecls(decls []Decl) []Decl
}

// Builtin is a mandatory output of a shader stage.
type Builtin uint8

const (
	BuiltinNone Builtin = iota
	// BuiltinPosition is the vertex stage clip-space position.
	BuiltinPosition
	// BuiltinFragColor is the fragment stage output color.
	BuiltinFragColor
)

// StageOutput is implemented by nodes that write a mandatory stage output.
type StageOutput interface {
	Writes() Builtin
}

// InputNode is implemented by nodes whose statement transforms the output of a
// preceding node. Such nodes cannot head a chain.
type InputNode interface {
	NeedsInput() bool
}

func needsInput(n Node) bool {
	in, ok := n.(InputNode)
	return ok && in.NeedsInput()
}

func writes(n Node) Builtin {
	if so, ok := n.(StageOutput); ok {
		return so.Writes()
	}
	return BuiltinNone
}

// Chain is an ordered append-only sequence of nodes for one shader stage.
// The chain owns its nodes; statements are always emitted in chain order.
type Chain struct {
	nodes []Node
}

// Link is a handle to a node position within a [Chain]. It is returned by
// [NewChain] and [Link.Connect] to allow fluent chain construction:
//
//	vert := glbuild.NewChain(glbuild.AttributeNode{Var: texcoord}).
//		Connect(glbuild.VaryingNode{Var: texcoord}).Chain()
type Link struct {
	chain *Chain
	idx   int
}

// NewChain starts a chain with head as its first node.
func NewChain(head Node) Link {
	if head == nil {
		panic("nil head node")
	}
	c := &Chain{nodes: []Node{head}}
	return Link{chain: c, idx: 0}
}

// Connect appends next after the node referenced by l and returns a link to next.
// Connecting to a node that already has a successor panics unless the successor is next,
// in which case the existing link is returned.
func (l Link) Connect(next Node) Link {
	if l.chain == nil {
		panic("connect on zero Link")
	} else if next == nil {
		panic("nil node connected to chain")
	}
	succ := l.idx + 1
	if succ < len(l.chain.nodes) {
		existing := l.chain.nodes[succ]
		if sameNode(existing, next) {
			return Link{chain: l.chain, idx: succ}
		}
		panic(fmt.Sprintf("node %T at position %d already has successor %T", l.chain.nodes[l.idx], l.idx, existing))
	}
	l.chain.nodes = append(l.chain.nodes, next)
	return Link{chain: l.chain, idx: succ}
}

// Chain returns the chain the link belongs to.
func (l Link) Chain() *Chain { return l.chain }

// Node returns the node referenced by the link.
func (l Link) Node() Node { return l.chain.nodes[l.idx] }

// Index returns the position of the node within its chain.
func (l Link) Index() int { return l.idx }

// Len returns the number of nodes in the chain.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.nodes)
}

// Node returns the i'th node of the chain.
func (c *Chain) Node(i int) Node { return c.nodes[i] }

// Tail returns a link to the last node of the chain.
func (c *Chain) Tail() Link { return Link{chain: c, idx: len(c.nodes) - 1} }

// AppendStatements appends the statement blocks of all nodes in chain order.
// Each node receives the output name of its immediate predecessor.
func (c *Chain) AppendStatements(b []byte) []byte {
	var name []byte
	for i, node := range c.nodes {
		var input []byte
		if i > 0 {
			name = c.nodes[i-1].AppendOutputName(name[:0])
			input = name
		}
		b = node.AppendStatement(b, input)
	}
	return b
}

// AppendDecls appends the declarations of all nodes in the chain.
func (c *Chain) AppendDecls(decls []Decl) []Decl {
	for _, node := range c.nodes {
		decls = node.AppendDecls(decls)
	}
	return decls
}

func sameNode(a, b Node) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// AppendTemplate appends template to b with every occurrence of [Placeholder] replaced by input.
func AppendTemplate(b []byte, template string, input []byte) []byte {
	for {
		i := strings.Index(template, Placeholder)
		if i < 0 {
			return append(b, template...)
		}
		b = append(b, template[:i]...)
		b = append(b, input...)
		template = template[i+len(Placeholder):]
	}
}

// AttributeNode starts a value from a per-vertex attribute. Its output is the attribute itself.
type AttributeNode struct {
	Var Variable
}

func (n AttributeNode) AppendOutputName(b []byte) []byte { return append(b, n.Var.Name...) }

func (n AttributeNode) AppendStatement(b []byte, input []byte) []byte { return b }

func (n AttributeNode) AppendDecls(decls []Decl) []Decl {
	return append(decls, Decl{Role: RoleAttribute, Var: n.Var})
}

// VaryingNode writes its input to a varying in the vertex stage. As the head of a
// fragment chain it emits no statement and its output is the interpolated varying.
type VaryingNode struct {
	Var Variable
}

func (n VaryingNode) AppendOutputName(b []byte) []byte { return AppendVaryingName(b, n.Var.Name) }

func (n VaryingNode) AppendStatement(b []byte, input []byte) []byte {
	if input == nil {
		return b
	}
	b = append(b, '\t')
	b = AppendVaryingName(b, n.Var.Name)
	b = append(b, " = "...)
	b = append(b, input...)
	b = append(b, ";\n"...)
	return b
}

func (n VaryingNode) AppendDecls(decls []Decl) []Decl {
	return append(decls, Decl{Role: RoleVarying, Var: n.Var})
}

// PositionTrans writes the clip-space position from the position attribute
// transformed by the projection and modelview matrices.
type PositionTrans struct{}

func (PositionTrans) Writes() Builtin { return BuiltinPosition }

func (PositionTrans) AppendOutputName(b []byte) []byte { return append(b, "gl_Position"...) }

func (PositionTrans) AppendStatement(b []byte, input []byte) []byte {
	return append(b, "\tgl_Position = u_projection * u_modelview * position;\n"...)
}

func (PositionTrans) AppendDecls(decls []Decl) []Decl {
	return append(decls,
		Attribute(Float4, "position"),
		Uniform(Mat4, "u_projection"),
		Uniform(Mat4, "u_modelview"),
	)
}

// TextureSample samples a 2D texture at the texture coordinates of its input.
type TextureSample struct {
	// Sampler is the sampler uniform name. Defaults to "u_texture0".
	Sampler string
}

func (n TextureSample) sampler() string {
	if n.Sampler == "" {
		return "u_texture0"
	}
	return n.Sampler
}

func (TextureSample) NeedsInput() bool { return true }

func (n TextureSample) AppendOutputName(b []byte) []byte {
	b = append(b, "_tex_"...)
	b = append(b, n.sampler()...)
	return append(b, '_')
}

func (n TextureSample) AppendStatement(b []byte, input []byte) []byte {
	if input == nil {
		return b
	}
	b = append(b, "\tvec4 "...)
	b = n.AppendOutputName(b)
	b = append(b, " = texture("...)
	b = append(b, n.sampler()...)
	b = append(b, ", "...)
	b = append(b, input...)
	b = append(b, ");\n"...)
	return b
}

func (n TextureSample) AppendDecls(decls []Decl) []Decl {
	return append(decls, Uniform(Sampler2D, n.sampler()))
}

const colorAddMultiTmpl = `	vec4 _col_add_multi_;
	_col_add_multi_.xyz = _TMP_.xyz * v_color.xyz;
	_col_add_multi_.w = _TMP_.w;
	_col_add_multi_ *= v_color.w;
	_col_add_multi_.xyz += v_additive.xyz * _TMP_.w * v_color.w;
`

// ColorAddMulti multiplies its input by the per-vertex color and adds the per-vertex additive color.
type ColorAddMulti struct{}

func (ColorAddMulti) NeedsInput() bool { return true }

func (ColorAddMulti) AppendOutputName(b []byte) []byte { return append(b, "_col_add_multi_"...) }

func (ColorAddMulti) AppendStatement(b []byte, input []byte) []byte {
	if input == nil {
		return b
	}
	return AppendTemplate(b, colorAddMultiTmpl, input)
}

func (ColorAddMulti) AppendDecls(decls []Decl) []Decl {
	return append(decls, Varying(Float4, "color"), Varying(Float4, "additive"))
}

const colorMapTmpl = `	vec4 _col_map_;
	_col_map_.xyz = _TMP_.x * v_rmap.xyz + _TMP_.y * v_gmap.xyz + _TMP_.z * v_bmap.xyz;
	_col_map_.w = _TMP_.w;
`

// ColorMap remaps the red, green and blue channels of its input onto per-vertex colors.
type ColorMap struct{}

func (ColorMap) NeedsInput() bool { return true }

func (ColorMap) AppendOutputName(b []byte) []byte { return append(b, "_col_map_"...) }

func (ColorMap) AppendStatement(b []byte, input []byte) []byte {
	if input == nil {
		return b
	}
	return AppendTemplate(b, colorMapTmpl, input)
}

func (ColorMap) AppendDecls(decls []Decl) []Decl {
	return append(decls, Varying(Float4, "rmap"), Varying(Float4, "gmap"), Varying(Float4, "bmap"))
}

// Mask multiplies its input by the red channel of a mask texture.
type Mask struct {
	// Sampler of the mask texture. Defaults to "u_texture1".
	Sampler string
	// Texcoord is the varying holding mask texture coordinates. Defaults to "texcoord_mask".
	Texcoord string
}

func (n Mask) params() (sampler, texcoord string) {
	sampler, texcoord = n.Sampler, n.Texcoord
	if sampler == "" {
		sampler = "u_texture1"
	}
	if texcoord == "" {
		texcoord = "texcoord_mask"
	}
	return sampler, texcoord
}

func (Mask) NeedsInput() bool { return true }

func (Mask) AppendOutputName(b []byte) []byte { return append(b, "_mask_"...) }

func (n Mask) AppendStatement(b []byte, input []byte) []byte {
	if input == nil {
		return b
	}
	sampler, texcoord := n.params()
	b = append(b, "\tvec4 _mask_ = "...)
	b = append(b, input...)
	b = append(b, " * texture("...)
	b = append(b, sampler...)
	b = append(b, ", "...)
	b = AppendVaryingName(b, texcoord)
	b = append(b, ").r;\n"...)
	return b
}

func (n Mask) AppendDecls(decls []Decl) []Decl {
	sampler, texcoord := n.params()
	return append(decls, Uniform(Sampler2D, sampler), Varying(Float2, texcoord))
}

// ConstColor starts a value from a constant RGBA color.
type ConstColor struct {
	R, G, B, A float32
}

func (ConstColor) AppendOutputName(b []byte) []byte { return append(b, "_const_color_"...) }

func (c ConstColor) AppendStatement(b []byte, input []byte) []byte {
	b = append(b, "\tvec4 _const_color_ = vec4("...)
	b = AppendFloats(b, ',', '-', '.', c.R, c.G, c.B, c.A)
	b = append(b, ");\n"...)
	return b
}

func (ConstColor) AppendDecls(decls []Decl) []Decl { return decls }

// FragColor writes its input to the fragment stage output color.
type FragColor struct{}

func (FragColor) Writes() Builtin { return BuiltinFragColor }

func (FragColor) NeedsInput() bool { return true }

func (FragColor) AppendOutputName(b []byte) []byte { return append(b, fragColorName...) }

func (FragColor) AppendStatement(b []byte, input []byte) []byte {
	if input == nil {
		return b
	}
	b = append(b, '\t')
	b = append(b, fragColorName...)
	b = append(b, " = "...)
	b = append(b, input...)
	b = append(b, ";\n"...)
	return b
}

func (FragColor) AppendDecls(decls []Decl) []Decl { return decls }

const fragColorName = "fragColor"

// TemplateNode is a node defined by a statement template in which [Placeholder]
// is substituted with the predecessor's output name.
type TemplateNode struct {
	// Output is the identifier the template binds its result to.
	Output   string
	Template string
	Decls    []Decl
	// Builtin is the mandatory stage output the template writes, if any.
	Builtin Builtin
}

// NewTemplateNode returns a node with the given output name, template and declarations.
func NewTemplateNode(output, template string, decls ...Decl) *TemplateNode {
	return &TemplateNode{Output: output, Template: template, Decls: decls}
}

func (n *TemplateNode) Writes() Builtin { return n.Builtin }

// NeedsInput reports whether the template references its input through [Placeholder].
func (n *TemplateNode) NeedsInput() bool { return strings.Contains(n.Template, Placeholder) }

func (n *TemplateNode) AppendOutputName(b []byte) []byte { return append(b, n.Output...) }

func (n *TemplateNode) AppendStatement(b []byte, input []byte) []byte {
	return AppendTemplate(b, n.Template, input)
}

func (n *TemplateNode) AppendDecls(decls []Decl) []Decl { return append(decls, n.Decls...) }
