package shaderlab

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the batch capacities of the built-in effects and the GLSL version
// programs are generated for. Quad capacities are limited by 16-bit indices.
type Config struct {
	// GLSLVersion is written after #version in generated shaders.
	GLSLVersion     string     `yaml:"glsl_version"`
	SpriteQuads     int        `yaml:"sprite_quads"`
	FilterQuads     int        `yaml:"filter_quads"`
	MaskQuads       int        `yaml:"mask_quads"`
	BlendQuads      int        `yaml:"blend_quads"`
	Sprite3Vertices int        `yaml:"sprite3_vertices"`
	ShapeVertices   int        `yaml:"shape_vertices"`
	DefaultFilter   FilterMode `yaml:"default_filter"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		GLSLVersion:     "330 core",
		SpriteQuads:     1024,
		FilterQuads:     256,
		MaskQuads:       128,
		BlendQuads:      256,
		Sprite3Vertices: 4095,
		ShapeVertices:   4096,
		DefaultFilter:   FilterEdgeDetect,
	}
}

// LoadConfig decodes a YAML configuration from r. Fields absent from the
// document keep their [DefaultConfig] value. Unknown fields are an error.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks capacities and the filter mode.
func (cfg Config) Validate() error {
	var errs []error
	quads := []struct {
		name string
		n    int
	}{
		{"sprite_quads", cfg.SpriteQuads},
		{"filter_quads", cfg.FilterQuads},
		{"mask_quads", cfg.MaskQuads},
		{"blend_quads", cfg.BlendQuads},
	}
	for _, q := range quads {
		if q.n <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", q.name, q.n))
		} else if q.n*4 > math.MaxUint16+1 {
			errs = append(errs, fmt.Errorf("%s=%d exceeds 16-bit index range", q.name, q.n))
		}
	}
	if cfg.Sprite3Vertices <= 0 {
		errs = append(errs, fmt.Errorf("sprite3_vertices must be positive, got %d", cfg.Sprite3Vertices))
	} else if cfg.Sprite3Vertices%3 != 0 {
		errs = append(errs, fmt.Errorf("sprite3_vertices=%d not a whole number of triangles", cfg.Sprite3Vertices))
	}
	if cfg.ShapeVertices <= 0 {
		errs = append(errs, fmt.Errorf("shape_vertices must be positive, got %d", cfg.ShapeVertices))
	}
	if cfg.DefaultFilter >= numFilterModes {
		errs = append(errs, fmt.Errorf("invalid default filter %s", cfg.DefaultFilter))
	}
	if strings.TrimSpace(cfg.GLSLVersion) == "" {
		errs = append(errs, errors.New("empty glsl_version"))
	}
	return errors.Join(errs...)
}

func (cfg Config) versionLine() string {
	return "#version " + strings.TrimSpace(cfg.GLSLVersion) + "\n"
}
