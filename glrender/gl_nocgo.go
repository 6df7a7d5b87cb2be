//go:build tinygo || !cgo

package glrender

import (
	"errors"
	"image"
)

var errNoCGO = errors.New("OpenGL backend requires CGo and is not supported on TinyGo")

// GLBackend is unavailable without CGo. Use [Recorder] or another [Backend].
type GLBackend struct{}

// NewGLBackend returns an error without CGo.
func NewGLBackend() (*GLBackend, error) {
	return nil, errNoCGO
}

// UploadRGBA returns an error without CGo.
func UploadRGBA(img *image.RGBA) (uint32, error) {
	return 0, errNoCGO
}

// DeleteTexture is a no-op without CGo.
func DeleteTexture(tex uint32) {}
