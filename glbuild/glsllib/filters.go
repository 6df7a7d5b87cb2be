// Package glsllib contains GLSL statement templates for image filter nodes.
// Filter nodes take texture coordinates as input and output an RGBA color.
package glsllib

import (
	_ "embed"

	"github.com/soypat/shaderlab/glbuild"
)

var sampler0 = glbuild.Uniform(glbuild.Sampler2D, "u_texture0")

//go:embed gray.glsl
var graySrc string

// Gray converts the sampled texture color to luminance.
//
//	output: _gray_
func Gray() *glbuild.TemplateNode {
	return glbuild.NewTemplateNode("_gray_", graySrc, sampler0)
}

//go:embed blur.glsl
var blurSrc string

// Blur is a 5x5 box blur scaled by a radius given in texels.
//
//	uniform float u_radius;
//	output: _blur_
func Blur() *glbuild.TemplateNode {
	return glbuild.NewTemplateNode("_blur_", blurSrc, sampler0, glbuild.Uniform(glbuild.Float1, "u_radius"))
}

//go:embed edge_detect.glsl
var edgeDetectSrc string

// EdgeDetect blends the texture color with its gradient magnitude.
//
//	uniform float u_blend;
//	output: _edge_detect_
func EdgeDetect() *glbuild.TemplateNode {
	return glbuild.NewTemplateNode("_edge_detect_", edgeDetectSrc, sampler0, glbuild.Uniform(glbuild.Float1, "u_blend"))
}

//go:embed relief.glsl
var reliefSrc string

// Relief renders an embossed grayscale image.
//
//	output: _relief_
func Relief() *glbuild.TemplateNode {
	return glbuild.NewTemplateNode("_relief_", reliefSrc, sampler0)
}

//go:embed outline.glsl
var outlineSrc string

// Outline draws a one texel white outline around opaque texels.
//
//	output: _outline_
func Outline() *glbuild.TemplateNode {
	return glbuild.NewTemplateNode("_outline_", outlineSrc, sampler0)
}

//go:embed heat_haze.glsl
var heatHazeSrc string

// HeatHaze distorts the current texture with a scrolling distortion map.
//
//	uniform float u_time;
//	uniform float u_distortion_factor;
//	uniform float u_rise_factor;
//	uniform sampler2D u_current_tex;
//	uniform sampler2D u_distortion_map_tex;
//	output: _heat_haze_
func HeatHaze() *glbuild.TemplateNode {
	return glbuild.NewTemplateNode("_heat_haze_", heatHazeSrc,
		glbuild.Uniform(glbuild.Float1, "u_time"),
		glbuild.Uniform(glbuild.Float1, "u_distortion_factor"),
		glbuild.Uniform(glbuild.Float1, "u_rise_factor"),
		glbuild.Uniform(glbuild.Sampler2D, "u_current_tex"),
		glbuild.Uniform(glbuild.Sampler2D, "u_distortion_map_tex"),
	)
}

//go:embed shock_wave.glsl
var shockWaveSrc string

// ShockWave displaces texture coordinates with an expanding ring centered at u_center.
// u_params holds the ring sharpness, falloff exponent and width.
//
//	uniform float u_time;
//	uniform vec2 u_center;
//	uniform vec3 u_params;
//	output: _shock_wave_
func ShockWave() *glbuild.TemplateNode {
	return glbuild.NewTemplateNode("_shock_wave_", shockWaveSrc, sampler0,
		glbuild.Uniform(glbuild.Float1, "u_time"),
		glbuild.Uniform(glbuild.Float2, "u_center"),
		glbuild.Uniform(glbuild.Float3, "u_params"),
	)
}

//go:embed gaussian_blur_hori.glsl
var gaussianHoriSrc string

// GaussianBlurHori is the horizontal pass of a 9-tap gaussian blur.
//
//	uniform float u_tex_width;
//	output: _gaussian_blur_hori_
func GaussianBlurHori() *glbuild.TemplateNode {
	return glbuild.NewTemplateNode("_gaussian_blur_hori_", gaussianHoriSrc, sampler0, glbuild.Uniform(glbuild.Float1, "u_tex_width"))
}

//go:embed gaussian_blur_vert.glsl
var gaussianVertSrc string

// GaussianBlurVert is the vertical pass of a 9-tap gaussian blur.
//
//	uniform float u_tex_height;
//	output: _gaussian_blur_vert_
func GaussianBlurVert() *glbuild.TemplateNode {
	return glbuild.NewTemplateNode("_gaussian_blur_vert_", gaussianVertSrc, sampler0, glbuild.Uniform(glbuild.Float1, "u_tex_height"))
}

//go:embed blend.glsl
var blendSrc string

// Blend combines its input color with a base texture sampled at v_texcoord_base.
// u_mode selects the operator: 0 normal, 1 multiply, 2 screen, 3 add, 4 subtract, 5 overlay.
// Unlike the filters Blend takes a color as input, not texture coordinates.
//
//	uniform int u_mode;
//	uniform sampler2D u_texture1;
//	in vec2 v_texcoord_base;
//	output: _blend_
func Blend() *glbuild.TemplateNode {
	return glbuild.NewTemplateNode("_blend_", blendSrc,
		glbuild.Uniform(glbuild.Int1, "u_mode"),
		glbuild.Uniform(glbuild.Sampler2D, "u_texture1"),
		glbuild.Varying(glbuild.Float2, "texcoord_base"),
	)
}
