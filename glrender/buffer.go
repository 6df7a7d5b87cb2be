package glrender

import (
	"errors"
	"fmt"
	"math"
)

// Buffer is a GPU vertex or index buffer with a CPU side staging area.
// Buffers are reference counted. A new buffer holds one reference owned by
// its creator; each program drawing from it holds another. The buffer is
// deleted from the GPU when the last reference is released, so creators
// call [Buffer.Release] once the buffer has been handed to its programs.
//
// A static buffer is written once at creation and is read-only afterwards.
// Static index buffers may be shared by several programs; programs drawing
// from them only supply index counts.
type Buffer struct {
	backend  Backend
	target   BufferTarget
	handle   uint32
	stride   int
	capacity int
	data     []byte
	indices  []uint16
	static   bool
	refs     int
}

// NewVertexBuffer creates a dynamic vertex buffer holding up to capacity vertices of stride bytes.
func NewVertexBuffer(backend Backend, stride, capacity int) (*Buffer, error) {
	if stride <= 0 {
		return nil, errors.New("vertex stride must be positive")
	} else if capacity <= 0 {
		return nil, fmt.Errorf("vertex buffer: %w", ErrZeroCapacity)
	}
	buf := &Buffer{
		backend:  backend,
		target:   VertexBuffer,
		stride:   stride,
		capacity: capacity,
		data:     make([]byte, stride*capacity),
		refs:     1,
	}
	buf.handle = backend.CreateBuffer(VertexBuffer, len(buf.data))
	return buf, nil
}

// NewIndexBuffer creates a dynamic 16-bit index buffer holding up to capacity indices.
func NewIndexBuffer(backend Backend, capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("index buffer: %w", ErrZeroCapacity)
	}
	buf := &Buffer{
		backend:  backend,
		target:   IndexBuffer,
		stride:   2,
		capacity: capacity,
		indices:  make([]uint16, capacity),
		refs:     1,
	}
	buf.handle = backend.CreateBuffer(IndexBuffer, 2*capacity)
	return buf, nil
}

// NewQuadIndexBuffer creates a static index buffer describing quads as two
// triangles each: 0,1,2, 0,2,3 for the first quad, 4,5,6, 4,6,7 for the second and so on.
// Vertices of each quad are expected in counter-clockwise or clockwise order.
func NewQuadIndexBuffer(backend Backend, quads int) (*Buffer, error) {
	if quads <= 0 {
		return nil, fmt.Errorf("quad index buffer: %w", ErrZeroCapacity)
	} else if quads*4 > math.MaxUint16+1 {
		return nil, errors.New("quad index buffer exceeds 16-bit index range")
	}
	buf, err := NewIndexBuffer(backend, quads*6)
	if err != nil {
		return nil, err
	}
	for q := 0; q < quads; q++ {
		base := uint16(q * 4)
		idx := buf.indices[q*6 : q*6+6]
		idx[0], idx[1], idx[2] = base, base+1, base+2
		idx[3], idx[4], idx[5] = base, base+2, base+3
	}
	buf.static = true
	backend.BindBuffer(IndexBuffer, buf.handle)
	backend.UpdateBuffer(IndexBuffer, buf.handle, AsBytes(buf.indices))
	return buf, nil
}

// Target returns the binding point of the buffer.
func (buf *Buffer) Target() BufferTarget { return buf.target }

// Cap returns the number of vertices or indices the buffer holds.
func (buf *Buffer) Cap() int { return buf.capacity }

// Stride returns the size of one element in bytes.
func (buf *Buffer) Stride() int { return buf.stride }

// Static reports whether the buffer contents are fixed at creation.
func (buf *Buffer) Static() bool { return buf.static }

// Handle returns the backend handle of the buffer. It is zero after deletion.
func (buf *Buffer) Handle() uint32 { return buf.handle }

// Refs returns the number of references to the buffer.
func (buf *Buffer) Refs() int { return buf.refs }

func (buf *Buffer) retain() { buf.refs++ }

// Release drops one reference to the buffer and deletes it from the GPU
// when no references remain.
func (buf *Buffer) Release() {
	if buf.refs == 0 {
		return
	}
	buf.refs--
	if buf.refs > 0 || buf.handle == 0 {
		return
	}
	buf.backend.DeleteBuffer(buf.handle)
	buf.handle = 0
}

func (buf *Buffer) bind() {
	buf.backend.BindBuffer(buf.target, buf.handle)
}

// stageVertices copies vertex memory into the staging area starting at vertex index at.
func (buf *Buffer) stageVertices(at int, vertices []byte) {
	copy(buf.data[at*buf.stride:], vertices)
}

// stageIndices copies indices into the staging area starting at at, offset by base.
func (buf *Buffer) stageIndices(at int, indices []uint16, base uint16) {
	dst := buf.indices[at : at+len(indices)]
	for i, idx := range indices {
		dst[i] = idx + base
	}
}

// upload sends the first n staged elements to the GPU. Static buffers are never re-uploaded.
func (buf *Buffer) upload(n int) {
	if buf.static || n == 0 {
		return
	}
	if buf.target == IndexBuffer {
		buf.backend.UpdateBuffer(buf.target, buf.handle, AsBytes(buf.indices[:n]))
	} else {
		buf.backend.UpdateBuffer(buf.target, buf.handle, buf.data[:n*buf.stride])
	}
}
