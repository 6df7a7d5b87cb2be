package shaderlab

import "github.com/soypat/geometry/ms3"

// Mat4 is a 4x4 matrix in column-major order, the layout uniform uploads expect.
type Mat4 [16]float32

// Identity returns the 4x4 identity matrix.
func Identity() Mat4 {
	return Mat4{0: 1, 5: 1, 10: 1, 15: 1}
}

// Ortho returns an orthographic projection mapping the box [left,right]x[bottom,top]x[near,far]
// to clip space.
func Ortho(left, right, bottom, top, near, far float32) Mat4 {
	var m Mat4
	m[0] = 2 / (right - left)
	m[5] = 2 / (top - bottom)
	m[10] = -2 / (far - near)
	m[12] = -(right + left) / (right - left)
	m[13] = -(top + bottom) / (top - bottom)
	m[14] = -(far + near) / (far - near)
	m[15] = 1
	return m
}

// ScaleTranslate returns the 2D modelview that scales by (sx,sy) and then
// translates by (x,y) in scaled units.
func ScaleTranslate(x, y, sx, sy float32) Mat4 {
	m := Identity()
	m[0] = sx
	m[5] = sy
	m[12] = x * sx
	m[13] = y * sy
	return m
}

// FromMS3 converts a row-major ms3 matrix to column-major order.
func FromMS3(m ms3.Mat4) Mat4 {
	arr := m.Array()
	var t Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			t[j*4+i] = arr[i*4+j]
		}
	}
	return t
}

// Apply transforms the homogeneous point (x,y,z,w).
func (m *Mat4) Apply(x, y, z, w float32) (X, Y, Z, W float32) {
	X = m[0]*x + m[4]*y + m[8]*z + m[12]*w
	Y = m[1]*x + m[5]*y + m[9]*z + m[13]*w
	Z = m[2]*x + m[6]*y + m[10]*z + m[14]*w
	W = m[3]*x + m[7]*y + m[11]*z + m[15]*w
	return X, Y, Z, W
}
