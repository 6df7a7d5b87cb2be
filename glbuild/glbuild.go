package glbuild

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strconv"
)

// VersionStr is the default GLSL version header of generated shaders.
const VersionStr = "#version 330 core\n"

// ShaderSource holds generated vertex and fragment shader source.
type ShaderSource struct {
	Vertex   string
	Fragment string
}

// Stage identifies a programmable pipeline stage.
type Stage uint8

const (
	StageVertex Stage = iota + 1
	StageFragment
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	}
	return "Stage(" + strconv.Itoa(int(s)) + ")"
}

var (
	ErrEmptyChain       = errors.New("empty node chain")
	ErrMissingOutput    = errors.New("chain does not write mandatory stage output")
	ErrKindMismatch     = errors.New("variable redeclared with different kind")
	ErrDuplicateOutput  = errors.New("duplicate node output name in chain")
	ErrUnwrittenVarying = errors.New("varying read by fragment stage is never written by vertex stage")
	ErrStageRole        = errors.New("declaration not allowed in stage")
	ErrMissingInput     = errors.New("node requiring an input is chain head")
)

// StructuralError is returned by [Programmer.Assemble] when node chains cannot
// form a valid program. It is detected before any GPU involvement.
type StructuralError struct {
	Stage  Stage
	Err    error
	Detail string
}

func (e *StructuralError) Error() string {
	msg := e.Stage.String() + " stage: " + e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *StructuralError) Unwrap() error { return e.Err }

func structErr(stage Stage, err error, detail string) error {
	return &StructuralError{Stage: stage, Err: err, Detail: detail}
}

// Programmer implements shader source generation from vertex and fragment node chains.
type Programmer struct {
	version         []byte
	defaultPosition Node
	scratch         []byte
	name            []byte
	decls           []Decl
	merged          []mergedDecl
	// names maps hashed role+name to index in merged.
	names map[uint64]int
	// outputs maps hashes of node output names of the chain being checked to node position.
	outputs map[uint64]int
	other   []byte
}

type mergedDecl struct {
	Decl
	vertex, fragment bool
}

// NewDefaultProgrammer returns a Programmer that emits GLSL 330 core and
// appends a [PositionTrans] node to vertex chains that do not write the clip position.
func NewDefaultProgrammer() *Programmer {
	return &Programmer{
		version:         []byte(VersionStr),
		defaultPosition: PositionTrans{},
		scratch:         make([]byte, 0, 1024),
		names:           make(map[uint64]int),
		outputs:         make(map[uint64]int),
	}
}

// SetVersion sets the version header line written at the start of both shader stages.
func (p *Programmer) SetVersion(version string) {
	if version != "" && version[len(version)-1] != '\n' {
		version += "\n"
	}
	p.version = append(p.version[:0], version...)
}

// SetDefaultPosition sets the node appended to vertex chains that do not write the
// clip-space position. A nil node makes such chains a structural error.
func (p *Programmer) SetDefaultPosition(n Node) {
	p.defaultPosition = n
}

// Assemble generates the vertex and fragment shader source of the argument chains.
// Statements are emitted in chain order. Varyings shared between stages are
// declared in both sources from a single merged declaration.
func (p *Programmer) Assemble(vertex, fragment *Chain) (ShaderSource, error) {
	if vertex.Len() == 0 {
		return ShaderSource{}, structErr(StageVertex, ErrEmptyChain, "")
	} else if fragment.Len() == 0 {
		return ShaderSource{}, structErr(StageFragment, ErrEmptyChain, "")
	}
	if err := p.checkOutputs(StageVertex, vertex); err != nil {
		return ShaderSource{}, err
	}
	if err := p.checkOutputs(StageFragment, fragment); err != nil {
		return ShaderSource{}, err
	}

	var positionNode Node
	if !chainWrites(vertex, BuiltinPosition) {
		if p.defaultPosition == nil {
			return ShaderSource{}, structErr(StageVertex, ErrMissingOutput, "no node writes gl_Position")
		}
		positionNode = p.defaultPosition
	}
	last := fragment.Node(fragment.Len() - 1)
	if writes(last) != BuiltinFragColor {
		p.name = last.AppendOutputName(p.name[:0])
		return ShaderSource{}, structErr(StageFragment, ErrMissingOutput, "terminal node "+string(p.name)+" does not write "+fragColorName)
	}

	clear(p.names)
	p.merged = p.merged[:0]
	p.decls = vertex.AppendDecls(p.decls[:0])
	if positionNode != nil {
		p.decls = positionNode.AppendDecls(p.decls)
	}
	if err := p.mergeDecls(StageVertex, p.decls); err != nil {
		return ShaderSource{}, err
	}
	p.decls = fragment.AppendDecls(p.decls[:0])
	if err := p.mergeDecls(StageFragment, p.decls); err != nil {
		return ShaderSource{}, err
	}
	for _, md := range p.merged {
		if md.Role == RoleVarying && md.fragment && !md.vertex {
			return ShaderSource{}, structErr(StageFragment, ErrUnwrittenVarying, md.Var.Name)
		}
	}

	// Vertex stage.
	b := append(p.scratch[:0], p.version...)
	b = p.appendDeclSection(b, StageVertex)
	b = append(b, "\nvoid main() {\n"...)
	b = vertex.AppendStatements(b)
	if positionNode != nil {
		p.name = vertex.Node(vertex.Len() - 1).AppendOutputName(p.name[:0])
		b = positionNode.AppendStatement(b, p.name)
	}
	b = append(b, "}\n"...)
	var src ShaderSource
	src.Vertex = string(b)

	// Fragment stage.
	b = append(b[:0], p.version...)
	b = p.appendDeclSection(b, StageFragment)
	b = append(b, "out vec4 "...)
	b = append(b, fragColorName...)
	b = append(b, ";\n\nvoid main() {\n"...)
	b = fragment.AppendStatements(b)
	b = append(b, "}\n"...)
	src.Fragment = string(b)
	p.scratch = b
	return src, nil
}

func chainWrites(c *Chain, builtin Builtin) bool {
	for i := 0; i < c.Len(); i++ {
		if writes(c.Node(i)) == builtin {
			return true
		}
	}
	return false
}

func (p *Programmer) checkOutputs(stage Stage, c *Chain) error {
	clear(p.outputs)
	if head := c.Node(0); needsInput(head) {
		p.name = head.AppendOutputName(p.name[:0])
		return structErr(stage, ErrMissingInput, string(p.name))
	}
	for i := 0; i < c.Len(); i++ {
		p.name = c.Node(i).AppendOutputName(p.name[:0])
		if len(p.name) == 0 {
			return structErr(stage, ErrDuplicateOutput, "empty output name at position "+strconv.Itoa(i))
		}
		h := hash(p.name, 0)
		if _, hit := p.outputs[h]; !hit {
			p.outputs[h] = i
			continue
		}
		// Confirm by name; distinct names may share a hash.
		for j := 0; j < i; j++ {
			p.other = c.Node(j).AppendOutputName(p.other[:0])
			if bytes.Equal(p.name, p.other) {
				return structErr(stage, ErrDuplicateOutput, string(p.name))
			}
		}
	}
	return nil
}

func (p *Programmer) mergeDecls(stage Stage, decls []Decl) error {
	for _, d := range decls {
		if d.Var.Name == "" || d.Var.Kind == KindInvalid {
			return structErr(stage, ErrStageRole, "invalid "+d.Role.String()+" declaration "+strconv.Quote(d.Var.Name))
		} else if d.Role == RoleAttribute && stage != StageVertex {
			return structErr(stage, ErrStageRole, "attribute "+d.Var.Name)
		} else if d.Var.Kind == Sampler2D && d.Role != RoleUniform {
			return structErr(stage, ErrStageRole, "sampler "+d.Role.String()+" "+d.Var.Name)
		}
		idx, exists := p.lookupDecl(d)
		if !exists {
			idx = len(p.merged)
			p.merged = append(p.merged, mergedDecl{Decl: d})
		} else if p.merged[idx].Var.Kind != d.Var.Kind {
			old := p.merged[idx].Var.Kind
			return structErr(stage, ErrKindMismatch, d.Role.String()+" "+d.Var.Name+" declared as "+old.String()+" and "+d.Var.Kind.String())
		}
		if stage == StageVertex {
			p.merged[idx].vertex = true
		} else {
			p.merged[idx].fragment = true
		}
	}
	return nil
}

// lookupDecl returns the index in merged of the declaration with the role and
// name of d. If absent it returns the index d is to be appended at.
func (p *Programmer) lookupDecl(d Decl) (idx int, exists bool) {
	p.name = append(p.name[:0], byte(d.Role))
	p.name = append(p.name, d.Var.Name...)
	h := hash(p.name, 0)
	idx, exists = p.names[h]
	if !exists {
		p.names[h] = len(p.merged)
		return len(p.merged), false
	}
	if md := &p.merged[idx]; md.Role == d.Role && md.Var.Name == d.Var.Name {
		return idx, true
	}
	// Hash collision: fall back to a linear search.
	for i := range p.merged {
		if p.merged[i].Role == d.Role && p.merged[i].Var.Name == d.Var.Name {
			return i, true
		}
	}
	return len(p.merged), false
}

func (p *Programmer) appendDeclSection(b []byte, stage Stage) []byte {
	for _, role := range [...]Role{RoleAttribute, RoleVarying, RoleUniform} {
		for _, md := range p.merged {
			if md.Role != role {
				continue
			}
			var qualifier string
			switch {
			case stage == StageVertex && !md.vertex, stage == StageFragment && !md.fragment:
				continue
			case role == RoleAttribute:
				qualifier = "in "
			case role == RoleVarying && stage == StageVertex:
				qualifier = "out "
			case role == RoleVarying:
				qualifier = "in "
			default:
				qualifier = "uniform "
			}
			b = append(b, qualifier...)
			b = AppendDecl(b, md.Decl)
		}
	}
	return b
}

// AppendDecl appends the type and name of a declaration terminated with a semicolon and newline,
// without a storage qualifier:
//
//	vec2 v_texcoord;
func AppendDecl(b []byte, d Decl) []byte {
	b = d.Var.Kind.AppendGLSL(b)
	b = append(b, ' ')
	b = d.AppendName(b)
	b = append(b, ";\n"...)
	return b
}

const decimalDigits = 9

// AppendFloat appends a float32 formatted for GLSL source with trailing zeroes trimmed.
func AppendFloat(b []byte, neg, decimal byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', decimalDigits, 32)
	idx := bytes.IndexByte(b[start:], '.')
	if decimal != '.' && idx >= 0 {
		b[start+idx] = decimal
	}
	if b[start] == '-' {
		b[start] = neg
	}
	// Finally trim zeroes.
	end := len(b)
	for i := len(b) - 1; idx >= 0 && i > idx+start+1 && b[i] == '0'; i-- {
		end--
	}
	return b[:end]
}

// AppendFloats appends floats separated by sep. See [AppendFloat].
func AppendFloats(b []byte, sep, neg, decimal byte, s ...float32) []byte {
	for i, v := range s {
		b = AppendFloat(b, neg, decimal, v)
		if sep != 0 && i != len(s)-1 {
			b = append(b, sep)
		}
	}
	return b
}

func hash(b []byte, in uint64) uint64 {
	x := in
	for len(b) >= 8 {
		x ^= binary.LittleEndian.Uint64(b)
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
		b = b[8:]
	}
	if len(b) > 0 {
		var buf [8]byte
		copy(buf[:], b)
		x ^= binary.LittleEndian.Uint64(buf[:])
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
	}
	return x
}
