// Package shaderlab manages shader programs of a 2D/3D OpenGL renderer. Programs
// are generated from node chains (see package glbuild) and batch their draws so
// that many logical draw calls result in few GPU submissions (see package glrender).
//
// A [Context] owns a set of built-in effects. Draws through an effect are batched
// until the texture, a uniform value or the active effect changes.
package shaderlab

import (
	"errors"
	"fmt"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/shaderlab/glbuild"
	"github.com/soypat/shaderlab/glrender"
)

var (
	// ErrNotLoaded is returned when using an effect that has not been loaded.
	ErrNotLoaded = errors.New("effect not loaded")
	// ErrClosed is returned by operations on a closed [Context].
	ErrClosed = errors.New("context closed")
)

// Context owns the programs of the loaded effects and the current projection
// and modelview matrices shared by all of them. At most one effect is current.
// A Context is not safe for concurrent use; it must be driven from the goroutine
// owning the GPU context.
type Context struct {
	cfg        Config
	reg        *glrender.Registry
	programmer *glbuild.Programmer
	effects    [numEffects]effect
	current    EffectKind
	hasCurrent bool
	closed     bool

	proj2, mv2 Mat4
	proj3, mv3 Mat4
}

// NewContext returns a Context creating programs on backend. No effects are loaded.
func NewContext(backend glrender.Backend, cfg Config) (*Context, error) {
	if backend == nil {
		return nil, errors.New("nil backend")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	p := glbuild.NewDefaultProgrammer()
	p.SetVersion(cfg.versionLine())
	return &Context{
		cfg:        cfg,
		reg:        glrender.NewRegistry(backend),
		programmer: p,
		proj2:      Identity(),
		mv2:        Identity(),
		proj3:      Identity(),
		mv3:        Identity(),
	}, nil
}

// Config returns the configuration of the context.
func (c *Context) Config() Config { return c.cfg }

// Registry returns the program registry of the context.
func (c *Context) Registry() *glrender.Registry { return c.reg }

// Load compiles the programs of the given effects. Already loaded effects are skipped.
// Errors of all effects are returned joined; effects that loaded successfully stay loaded.
func (c *Context) Load(kinds ...EffectKind) error {
	if c.closed {
		return ErrClosed
	}
	var errs []error
	for _, kind := range kinds {
		if kind >= numEffects {
			errs = append(errs, fmt.Errorf("load %s: invalid effect", kind))
			continue
		} else if c.effects[kind] != nil {
			continue
		}
		e, err := c.newEffect(kind)
		if err != nil {
			errs = append(errs, fmt.Errorf("load %s: %w", kind, err))
			continue
		}
		ps := e.programs()
		if ps.is3D {
			ps.setProjection(&c.proj3)
			ps.setModelview(&c.mv3)
		} else {
			ps.setProjection(&c.proj2)
			ps.setModelview(&c.mv2)
		}
		c.effects[kind] = e
	}
	return errors.Join(errs...)
}

func (c *Context) newEffect(kind EffectKind) (effect, error) {
	p := c.programmer
	switch kind {
	case EffectShape2:
		return newShape2(c.reg, p, c.cfg.ShapeVertices)
	case EffectSprite2:
		return newSprite2(c.reg, p, c.cfg.SpriteQuads)
	case EffectSprite3:
		return newSprite3(c.reg, p, c.cfg.Sprite3Vertices)
	case EffectBlend:
		return newBlend(c.reg, p, c.cfg.BlendQuads)
	case EffectFilter:
		return newFilter(c.reg, p, c.cfg.FilterQuads, c.cfg.DefaultFilter)
	case EffectMask:
		return newMask(c.reg, p, c.cfg.MaskQuads)
	}
	panic("unreachable")
}

// Loaded reports whether the effect is loaded.
func (c *Context) Loaded(kind EffectKind) bool {
	return kind < numEffects && c.effects[kind] != nil
}

// Unload commits and releases the programs of an effect. Unloading the current
// effect leaves no effect current.
func (c *Context) Unload(kind EffectKind) error {
	if !c.Loaded(kind) {
		return fmt.Errorf("unload %s: %w", kind, ErrNotLoaded)
	}
	e := c.effects[kind]
	e.commit()
	c.effects[kind] = nil
	if c.hasCurrent && c.current == kind {
		c.hasCurrent = false
	}
	return e.programs().release()
}

// Use makes an effect current. The previously current effect is committed first.
// Using the current effect again has no effect.
func (c *Context) Use(kind EffectKind) error {
	if c.closed {
		return ErrClosed
	} else if !c.Loaded(kind) {
		return fmt.Errorf("use %s: %w", kind, ErrNotLoaded)
	}
	if c.hasCurrent && c.current == kind {
		return nil
	}
	if c.hasCurrent {
		c.effects[c.current].commit()
	}
	c.current, c.hasCurrent = kind, true
	c.effects[kind].programs().activate()
	return nil
}

// Current returns the current effect. ok is false if none is current.
func (c *Context) Current() (kind EffectKind, ok bool) {
	return c.current, c.hasCurrent
}

// Shape2 returns the shape effect or nil if not loaded.
func (c *Context) Shape2() *Shape2 {
	e, _ := c.effects[EffectShape2].(*Shape2)
	return e
}

// Sprite2 returns the 2D sprite effect or nil if not loaded.
func (c *Context) Sprite2() *Sprite2 {
	e, _ := c.effects[EffectSprite2].(*Sprite2)
	return e
}

// Sprite3 returns the 3D sprite effect or nil if not loaded.
func (c *Context) Sprite3() *Sprite3 {
	e, _ := c.effects[EffectSprite3].(*Sprite3)
	return e
}

// Blend returns the blend effect or nil if not loaded.
func (c *Context) Blend() *Blend {
	e, _ := c.effects[EffectBlend].(*Blend)
	return e
}

// Filter returns the filter effect or nil if not loaded.
func (c *Context) Filter() *Filter {
	e, _ := c.effects[EffectFilter].(*Filter)
	return e
}

// Mask returns the mask effect or nil if not loaded.
func (c *Context) Mask() *Mask {
	e, _ := c.effects[EffectMask].(*Mask)
	return e
}

// Projection2 sets the orthographic projection of 2D effects to a screen of
// width by height units centered at the origin.
func (c *Context) Projection2(width, height float32) {
	hw, hh := width/2, height/2
	c.proj2 = Ortho(-hw, hw, -hh, hh, 1, -1)
	c.each2D(func(ps *programSet) { ps.setProjection(&c.proj2) })
}

// Modelview2 sets the modelview of 2D effects to a scale by (sx,sy) followed
// by a translation of (x,y) scaled units.
func (c *Context) Modelview2(x, y, sx, sy float32) {
	c.mv2 = ScaleTranslate(x, y, sx, sy)
	c.each2D(func(ps *programSet) { ps.setModelview(&c.mv2) })
}

// Projection3 sets the projection of 3D effects.
func (c *Context) Projection3(m ms3.Mat4) {
	c.proj3 = FromMS3(m)
	c.each3D(func(ps *programSet) { ps.setProjection(&c.proj3) })
}

// Modelview3 sets the modelview of 3D effects.
func (c *Context) Modelview3(m ms3.Mat4) {
	c.mv3 = FromMS3(m)
	c.each3D(func(ps *programSet) { ps.setModelview(&c.mv3) })
}

func (c *Context) each2D(fn func(ps *programSet)) {
	for _, e := range c.effects {
		if e != nil && !e.programs().is3D {
			fn(e.programs())
		}
	}
}

func (c *Context) each3D(fn func(ps *programSet)) {
	for _, e := range c.effects {
		if e != nil && e.programs().is3D {
			fn(e.programs())
		}
	}
}

// Flush commits everything batched by the loaded effects. Call it at the end of a frame.
func (c *Context) Flush() {
	for _, e := range c.effects {
		if e != nil {
			e.commit()
		}
	}
}

// DrawCalls returns the number of draw calls submitted since the last [Context.ResetStats].
func (c *Context) DrawCalls() int { return c.reg.DrawCalls() }

// ResetStats zeroes draw counters.
func (c *Context) ResetStats() { c.reg.ResetStats() }

// Close commits batched draws and releases all programs and buffers. Close is idempotent.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	c.Flush()
	var errs []error
	for kind, e := range c.effects {
		if e != nil {
			errs = append(errs, e.programs().release())
			c.effects[kind] = nil
		}
	}
	c.reg.ReleaseAll()
	c.hasCurrent = false
	c.closed = true
	return errors.Join(errs...)
}
