package shaderlab

import (
	"image/color"

	math "github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms1"
)

// PackRGBA packs color components into the vertex color format of effects:
// red in the lowest byte, alpha in the highest.
func PackRGBA(r, g, b, a uint8) uint32 {
	return uint32(r) | uint32(g)<<8 | uint32(b)<<16 | uint32(a)<<24
}

// PackColor packs c as alpha-premultiplied RGBA, matching the blending set up by glrender.InitWindow.
func PackColor(c color.Color) uint32 {
	r, g, b, a := c.RGBA()
	return PackRGBA(uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8))
}

// UnpackColor is the inverse of [PackRGBA].
func UnpackColor(c uint32) color.RGBA {
	return color.RGBA{R: uint8(c), G: uint8(c >> 8), B: uint8(c >> 16), A: uint8(c >> 24)}
}

// LerpColor interpolates packed colors c0 and c1 through HSV space, taking the
// short way around the hue circle. Alpha is interpolated linearly.
func LerpColor(c0, c1 uint32, t float32) uint32 {
	t = ms1.Clamp(t, 0, 1)
	h0, s0, v0 := rgbToHSV(unpackRGB(c0))
	h1, s1, v1 := rgbToHSV(unpackRGB(c1))
	r, g, b := hsvToRGB(interpHSV(h0, s0, v0, h1, s1, v1, t))
	a := ms1.Interp(float32(uint8(c0>>24)), float32(uint8(c1>>24)), t)
	return PackRGBA(unit8(r), unit8(g), unit8(b), uint8(a+0.5))
}

func unit8(v float32) uint8 {
	return uint8(ms1.Clamp(v, 0, 1)*math.MaxUint8 + 0.5)
}

func unpackRGB(c uint32) (r, g, b float32) {
	r = float32(uint8(c)) / math.MaxUint8
	g = float32(uint8(c>>8)) / math.MaxUint8
	b = float32(uint8(c>>16)) / math.MaxUint8
	return r, g, b
}

func interpHSV(h0, s0, v0, h1, s1, v1, t float32) (h, s, v float32) {
	switch {
	case h1-h0 > 0.5:
		h0 += 1.0
	case h1-h0 < -0.5:
		h1 += 1.0
	}
	h = ms1.Interp(h0, h1, t)
	if h > 1 {
		h -= 1
	}
	s = ms1.Interp(s0, s1, t)
	v = ms1.Interp(v0, v1, t)
	return h, s, v
}

// hsvToRGB converts hue, saturation and value on the range 0..1 to RGB on the range 0..1.
func hsvToRGB(h, s, v float32) (r, g, b float32) {
	var (
		c = s * v
		x = c * (1 - math.Abs(math.Mod(h*6, 2)-1))
		m = v - c
	)
	switch {
	case h <= 1.0/6:
		r, g, b = c, x, 0
	case h <= 2.0/6:
		r, g, b = x, c, 0
	case h <= 3.0/6:
		r, g, b = 0, c, x
	case h <= 4.0/6:
		r, g, b = 0, x, c
	case h <= 5.0/6:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}

func rgbToHSV(r, g, b float32) (h, s, v float32) {
	var (
		xmax = max(r, g, b)
		xmin = min(r, g, b)
		c    = xmax - xmin
	)
	v = xmax
	switch {
	case c == 0:
		h = 0
	case v == r:
		h = (g - b) / (c * 6)
	case v == g:
		h = 1.0/3 + (b-r)/(c*6)
	case v == b:
		h = 2.0/3 + (r-g)/(c*6)
	}
	if h < 0 {
		h += 1
	}
	if xmax > 0 {
		s = c / xmax
	}
	return h, s, v
}
