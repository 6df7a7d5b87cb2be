package shaderlab_test

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/shaderlab"
	"github.com/soypat/shaderlab/glrender"
)

func newTestContext(t *testing.T, cfg shaderlab.Config, kinds ...shaderlab.EffectKind) (*shaderlab.Context, *glrender.Recorder) {
	t.Helper()
	rec := glrender.NewRecorder()
	ctx, err := shaderlab.NewContext(rec, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := ctx.Load(kinds...); err != nil {
		t.Fatal(err)
	}
	rec.Reset()
	return ctx, rec
}

func handle(t *testing.T, ctx *shaderlab.Context, id string) uint32 {
	t.Helper()
	p := ctx.Registry().Get(id)
	if p == nil {
		t.Fatalf("program %q not registered", id)
	}
	return p.Handle()
}

func quad(x float32) (pos, uv [4]ms2.Vec) {
	pos = [4]ms2.Vec{{X: x, Y: 0}, {X: x + 1, Y: 0}, {X: x + 1, Y: 1}, {X: x, Y: 1}}
	uv = [4]ms2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	return pos, uv
}

func TestSprite2Batching(t *testing.T) {
	ctx, rec := newTestContext(t, shaderlab.DefaultConfig(), shaderlab.EffectSprite2)
	sprite := ctx.Sprite2()
	for i := 0; i < 3; i++ {
		pos, uv := quad(float32(i))
		sprite.Draw(pos, uv, 7)
	}
	if len(rec.Draws) != 0 {
		t.Fatalf("draw submitted before flush: %d", len(rec.Draws))
	}
	ctx.Flush()
	if len(rec.Draws) != 1 {
		t.Fatalf("want 1 draw, got %d", len(rec.Draws))
	}
	d := rec.Draws[0]
	if d.Program != handle(t, ctx, "sprite2/plain") {
		t.Error("want plain sprite variant")
	}
	if !d.Indexed || d.Count != 18 {
		t.Errorf("want 18 indexed, got indexed=%v count=%d", d.Indexed, d.Count)
	}
	if d.Textures[0] != 7 {
		t.Errorf("want texture 7, got %d", d.Textures[0])
	}
	if len(d.Vertices) != 3*4*16 {
		t.Errorf("want %d vertex bytes, got %d", 3*4*16, len(d.Vertices))
	}
	if ctx.DrawCalls() != 1 {
		t.Errorf("want 1 draw call counted, got %d", ctx.DrawCalls())
	}
}

func TestSprite2Variants(t *testing.T) {
	ctx, rec := newTestContext(t, shaderlab.DefaultConfig(), shaderlab.EffectSprite2)
	sprite := ctx.Sprite2()
	pos, uv := quad(0)
	sprite.Draw(pos, uv, 1)
	sprite.SetColor(0xff0000ff, 0)
	sprite.Draw(pos, uv, 1)
	ctx.Flush()

	sprite.SetColor(shaderlab.ColorWhite, 0)
	sprite.SetMapColor(shaderlab.DefaultGreenMap, shaderlab.DefaultRedMap, shaderlab.DefaultBlueMap)
	sprite.Draw(pos, uv, 1)
	ctx.Flush()

	sprite.SetMapColor(shaderlab.DefaultRedMap, shaderlab.DefaultGreenMap, shaderlab.DefaultBlueMap)
	sprite.SetColor(shaderlab.ColorWhite, 0xff000000) // Alpha of additive color is ignored.
	sprite.Draw(pos, uv, 1)
	sprite.SetColor(0x80808080, 0)
	sprite.SetMapColor(0xff0000, 0xff00, 0xff)
	sprite.Draw(pos, uv, 1)
	ctx.Flush()

	if len(rec.Draws) != 3 {
		t.Fatalf("want 3 draws, got %d", len(rec.Draws))
	}
	want := []string{"sprite2/color", "sprite2/map", "sprite2/both"}
	for i, id := range want {
		if rec.Draws[i].Program != handle(t, ctx, id) {
			t.Errorf("draw %d: want variant %s", i, id)
		}
	}
	// Color variant vertices: position, texcoord, color, additive.
	const stride = 24
	vb := rec.Draws[0].Vertices
	if len(vb) != 2*4*stride {
		t.Fatalf("want %d color vertex bytes, got %d", 2*4*stride, len(vb))
	}
	if c := binary.NativeEndian.Uint32(vb[16:]); c != shaderlab.ColorWhite {
		t.Errorf("first quad color: want %#x, got %#x", shaderlab.ColorWhite, c)
	}
	if c := binary.NativeEndian.Uint32(vb[4*stride+16:]); c != 0xff0000ff {
		t.Errorf("second quad color: want 0xff0000ff, got %#x", c)
	}
	if len(rec.Draws[2].Vertices) != 2*4*36 {
		t.Errorf("want %d both vertex bytes, got %d", 2*4*36, len(rec.Draws[2].Vertices))
	}
}

func TestSprite2TextureSwitch(t *testing.T) {
	ctx, rec := newTestContext(t, shaderlab.DefaultConfig(), shaderlab.EffectSprite2)
	sprite := ctx.Sprite2()
	pos, uv := quad(0)
	for _, tex := range []uint32{1, 1, 2, 2, 2, 1} {
		sprite.Draw(pos, uv, tex)
	}
	ctx.Flush()
	wantTex := []uint32{1, 2, 1}
	wantCount := []int{12, 18, 6}
	if len(rec.Draws) != len(wantTex) {
		t.Fatalf("want %d draws, got %d", len(wantTex), len(rec.Draws))
	}
	for i, d := range rec.Draws {
		if d.Textures[0] != wantTex[i] || d.Count != wantCount[i] {
			t.Errorf("draw %d: want tex %d count %d, got tex %d count %d", i, wantTex[i], wantCount[i], d.Textures[0], d.Count)
		}
	}
}

func TestSprite2Capacity(t *testing.T) {
	cfg := shaderlab.DefaultConfig()
	cfg.SpriteQuads = 2
	ctx, rec := newTestContext(t, cfg, shaderlab.EffectSprite2)
	pos, uv := quad(0)
	for i := 0; i < 5; i++ {
		ctx.Sprite2().Draw(pos, uv, 3)
	}
	if ctx.Sprite2().Pending() != 1 {
		t.Errorf("want 1 pending quad, got %d", ctx.Sprite2().Pending())
	}
	ctx.Flush()
	wantCount := []int{12, 12, 6}
	if len(rec.Draws) != len(wantCount) {
		t.Fatalf("want %d draws, got %d", len(wantCount), len(rec.Draws))
	}
	for i, d := range rec.Draws {
		if d.Count != wantCount[i] {
			t.Errorf("draw %d: want count %d, got %d", i, wantCount[i], d.Count)
		}
	}
}

func TestProjectionFlush(t *testing.T) {
	ctx, rec := newTestContext(t, shaderlab.DefaultConfig(), shaderlab.EffectSprite2)
	pos, uv := quad(0)
	ctx.Sprite2().Draw(pos, uv, 1)
	ctx.Projection2(800, 600)
	if len(rec.Draws) != 1 {
		t.Fatalf("projection change should commit pending quads, got %d draws", len(rec.Draws))
	}
	plain := handle(t, ctx, "sprite2/plain")
	var ups []glrender.RecordedUniform
	for _, u := range rec.UploadsOf("u_projection") {
		if u.Program == plain {
			ups = append(ups, u)
		}
	}
	if len(ups) != 1 {
		t.Fatalf("want 1 projection upload before draw, got %d", len(ups))
	}
	identity := shaderlab.Identity()
	for i, v := range ups[0].Value {
		if v != identity[i] {
			t.Fatalf("batch drawn with projection %v, want identity", ups[0].Value)
		}
	}

	// Setting the same projection again does not commit.
	ctx.Sprite2().Draw(pos, uv, 1)
	ctx.Projection2(800, 600)
	if len(rec.Draws) != 1 {
		t.Errorf("unchanged projection committed batch")
	}
	ctx.Flush()
	ups = rec.UploadsOf("u_projection")
	last := ups[len(ups)-1].Value
	if last[0] != 2.0/800 || last[5] != 2.0/600 {
		t.Errorf("unexpected projection %v", last)
	}
}

func TestEffectDrawOrder(t *testing.T) {
	ctx, rec := newTestContext(t, shaderlab.DefaultConfig(), shaderlab.EffectShape2, shaderlab.EffectSprite2)
	tri := []ms2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	pos, uv := quad(0)
	ctx.Shape2().Draw(tri...)
	ctx.Sprite2().Draw(pos, uv, 1)
	ctx.Shape2().Draw(tri...)
	ctx.Flush()
	shape, sprite := handle(t, ctx, "shape2"), handle(t, ctx, "sprite2/plain")
	want := []uint32{shape, sprite, shape}
	if len(rec.Draws) != len(want) {
		t.Fatalf("want %d draws, got %d", len(want), len(rec.Draws))
	}
	for i, d := range rec.Draws {
		if d.Program != want[i] {
			t.Errorf("draw %d: want program %d, got %d", i, want[i], d.Program)
		}
	}
	if rec.Draws[0].Indexed || rec.Draws[0].Count != 3 {
		t.Errorf("shape draw: want 3 non-indexed vertices, got indexed=%v count=%d", rec.Draws[0].Indexed, rec.Draws[0].Count)
	}
}

func TestUseCommitsPrevious(t *testing.T) {
	ctx, rec := newTestContext(t, shaderlab.DefaultConfig(), shaderlab.EffectShape2, shaderlab.EffectMask)
	if err := ctx.Use(shaderlab.EffectShape2); err != nil {
		t.Fatal(err)
	}
	ctx.Shape2().Draw(ms2.Vec{}, ms2.Vec{X: 1}, ms2.Vec{Y: 1})
	if err := ctx.Use(shaderlab.EffectShape2); err != nil {
		t.Fatal(err)
	}
	if len(rec.Draws) != 0 {
		t.Fatal("using the current effect again committed")
	}
	if err := ctx.Use(shaderlab.EffectMask); err != nil {
		t.Fatal(err)
	}
	if len(rec.Draws) != 1 {
		t.Fatalf("switching effect should commit, got %d draws", len(rec.Draws))
	}
	if kind, ok := ctx.Current(); !ok || kind != shaderlab.EffectMask {
		t.Errorf("want current mask, got %s %v", kind, ok)
	}
	if ctx.Registry().ActiveIdentity() != "mask" {
		t.Errorf("want mask program active, got %q", ctx.Registry().ActiveIdentity())
	}
}

func TestShape2Topology(t *testing.T) {
	ctx, rec := newTestContext(t, shaderlab.DefaultConfig(), shaderlab.EffectShape2)
	shape := ctx.Shape2()
	tri := []ms2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	shape.Draw(tri...)
	shape.SetColor(0xff00ff00)
	shape.Draw(tri...)
	shape.SetDrawMode(glrender.DrawLineStrip)
	shape.Draw(tri...)
	shape.Draw(tri...)
	ctx.Flush()
	if len(rec.Draws) != 3 {
		t.Fatalf("want 3 draws, got %d", len(rec.Draws))
	}
	if d := rec.Draws[0]; d.Mode != glrender.DrawTriangles || d.Count != 6 {
		t.Errorf("want 6 triangle vertices batched, got %s %d", d.Mode, d.Count)
	}
	for _, d := range rec.Draws[1:] {
		if d.Mode != glrender.DrawLineStrip || d.Count != 3 {
			t.Errorf("want one 3 vertex line strip per draw, got %s %d", d.Mode, d.Count)
		}
	}
	// Shape vertices: position then packed color.
	vb := rec.Draws[0].Vertices
	if c := binary.NativeEndian.Uint32(vb[3*12+8:]); c != 0xff00ff00 {
		t.Errorf("want second triangle color 0xff00ff00, got %#x", c)
	}
}

func TestShape2Capacity(t *testing.T) {
	cfg := shaderlab.DefaultConfig()
	cfg.ShapeVertices = 6
	ctx, rec := newTestContext(t, cfg, shaderlab.EffectShape2)
	shape := ctx.Shape2()
	tri := []ms2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	for i := 0; i < 3; i++ {
		shape.Draw(tri...)
	}
	if len(rec.Draws) != 1 || rec.Draws[0].Count != 6 {
		t.Fatalf("full batch should commit before overflowing, got %+v", rec.Draws)
	}
	ctx.Flush()
	if len(rec.Draws) != 2 || rec.Draws[1].Count != 3 {
		t.Fatalf("want remaining triangle in second draw, got %+v", rec.Draws)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for draw larger than capacity")
		}
	}()
	shape.Draw(append(tri, tri[0], tri[1], tri[2], tri[0])...)
}

func TestSprite3(t *testing.T) {
	ctx, rec := newTestContext(t, shaderlab.DefaultConfig(), shaderlab.EffectSprite3, shaderlab.EffectSprite2)
	s3 := ctx.Sprite3()
	pos := []ms3.Vec{{X: 0}, {X: 1}, {Y: 1}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}
	uv := []ms2.Vec{{}, {X: 1}, {Y: 1}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}
	s3.Draw(pos, uv, 5)
	ctx.Modelview2(1, 1, 2, 2) // 2D matrices do not affect 3D effects.
	if len(rec.Draws) != 0 {
		t.Fatal("2D modelview committed 3D batch")
	}
	ctx.Modelview3(ms3.ScalingMat4(ms3.Vec{X: 2, Y: 3, Z: 4}))
	if len(rec.Draws) != 1 {
		t.Fatalf("3D modelview should commit, got %d draws", len(rec.Draws))
	}
	d := rec.Draws[0]
	if d.Indexed || d.Count != 6 || d.Mode != glrender.DrawTriangles || d.Textures[0] != 5 {
		t.Errorf("unexpected sprite3 draw %+v", d)
	}
	if len(d.Vertices) != 6*28 {
		t.Errorf("want %d vertex bytes, got %d", 6*28, len(d.Vertices))
	} else if x := math.Float32frombits(binary.NativeEndian.Uint32(d.Vertices[28:])); x != 1 {
		t.Errorf("want second vertex x=1 at byte 28, got %v", x)
	}
	s3.Draw(pos[:3], uv[:3], 5)
	ctx.Flush()
	ups := rec.UploadsOf("u_modelview")
	last := ups[len(ups)-1]
	if last.Program != handle(t, ctx, "sprite3") || last.Value[0] != 2 || last.Value[5] != 3 || last.Value[10] != 4 {
		t.Errorf("unexpected 3D modelview upload %+v", last)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic on partial triangle")
		}
	}()
	s3.Draw(pos[:2], uv[:2], 5)
}

func TestFilter(t *testing.T) {
	ctx, rec := newTestContext(t, shaderlab.DefaultConfig(), shaderlab.EffectFilter)
	f := ctx.Filter()
	if f.Mode() != shaderlab.FilterEdgeDetect {
		t.Errorf("want default mode edge_detect, got %s", f.Mode())
	}
	pos, uv := quad(0)
	f.Draw(pos, uv, 3)
	f.Draw(pos, uv, 3)
	f.SetMode(shaderlab.FilterGray)
	if len(rec.Draws) != 1 {
		t.Fatalf("mode switch should commit, got %d draws", len(rec.Draws))
	}
	f.Draw(pos, uv, 3)
	ctx.Flush()
	if len(rec.Draws) != 2 {
		t.Fatalf("want 2 draws, got %d", len(rec.Draws))
	}
	if rec.Draws[0].Program != handle(t, ctx, "filter/edge_detect") || rec.Draws[0].Count != 12 {
		t.Errorf("unexpected first filter draw %+v", rec.Draws[0])
	}
	if rec.Draws[1].Program != handle(t, ctx, "filter/gray") || rec.Draws[1].Count != 6 {
		t.Errorf("unexpected second filter draw %+v", rec.Draws[1])
	}
	blend := rec.UploadsOf("u_blend")
	if len(blend) != 1 || blend[0].Value[0] != shaderlab.DefaultEdgeBlend {
		t.Errorf("want one u_blend upload of %v, got %+v", shaderlab.DefaultEdgeBlend, blend)
	}

	rec.Reset()
	f.SetHeatHazeTexture(9)
	f.SetMode(shaderlab.FilterHeatHaze)
	f.Update(0.25)
	f.Update(0.25)
	f.Draw(pos, uv, 3)
	ctx.Flush()
	if len(rec.Draws) != 1 {
		t.Fatalf("want 1 heat haze draw, got %d", len(rec.Draws))
	}
	if tex := rec.Draws[0].Textures; tex[0] != 3 || tex[1] != 9 {
		t.Errorf("want textures 3 and 9 bound, got %v", tex)
	}
	heat := handle(t, ctx, "filter/heat_haze")
	checks := map[string]float32{
		"u_time":               0.5,
		"u_current_tex":        0,
		"u_distortion_map_tex": 1,
		"u_distortion_factor":  shaderlab.DefaultDistortionFactor,
		"u_rise_factor":        shaderlab.DefaultRiseFactor,
	}
	for name, want := range checks {
		ups := rec.UploadsOf(name)
		if len(ups) != 1 || ups[0].Program != heat || ups[0].Value[0] != want {
			t.Errorf("%s: want single upload of %v, got %+v", name, want, ups)
		}
	}
	if len(rec.UploadsOf("u_texture0")) != 0 {
		t.Error("heat haze has no u_texture0 uniform")
	}
}

func TestFilterParamsCommit(t *testing.T) {
	ctx, rec := newTestContext(t, shaderlab.DefaultConfig(), shaderlab.EffectFilter)
	f := ctx.Filter()
	f.SetMode(shaderlab.FilterShockWave)
	pos, uv := quad(0)
	f.Draw(pos, uv, 1)
	f.SetBlurRadius(3) // Other mode: does not commit.
	if len(rec.Draws) != 0 {
		t.Fatal("parameter of another mode committed batch")
	}
	f.SetShockWave(ms2.Vec{X: 0.25, Y: 0.75}, 10, 0.8, 0.1)
	if len(rec.Draws) != 1 {
		t.Fatal("shock wave parameter change should commit")
	}
	f.Draw(pos, uv, 1)
	ctx.Flush()
	centers := rec.UploadsOf("u_center")
	if len(centers) != 2 || centers[1].Value[0] != 0.25 || centers[1].Value[1] != 0.75 {
		t.Errorf("unexpected u_center uploads %+v", centers)
	}
	if len(rec.UploadsOf("u_params")) != 1 {
		t.Error("unchanged u_params uploaded again")
	}
}

func TestMask(t *testing.T) {
	ctx, rec := newTestContext(t, shaderlab.DefaultConfig(), shaderlab.EffectMask)
	m := ctx.Mask()
	pos, uv := quad(0)
	m.Draw(pos, uv, uv, 1, 2)
	m.Draw(pos, uv, uv, 1, 2)
	m.Draw(pos, uv, uv, 1, 3)
	ctx.Flush()
	if len(rec.Draws) != 2 {
		t.Fatalf("want 2 draws, got %d", len(rec.Draws))
	}
	if d := rec.Draws[0]; d.Count != 12 || d.Textures[0] != 1 || d.Textures[1] != 2 {
		t.Errorf("unexpected first mask draw %+v", d)
	}
	if d := rec.Draws[1]; d.Count != 6 || d.Textures[1] != 3 {
		t.Errorf("unexpected second mask draw %+v", d)
	}
	src, _ := rec.Source(handle(t, ctx, "mask"))
	if !strings.Contains(src.Fragment, "uniform sampler2D u_texture1;") || !strings.Contains(src.Vertex, "v_texcoord_mask = texcoord_mask;") {
		t.Errorf("unexpected mask source:\n%s\n%s", src.Vertex, src.Fragment)
	}
}

func TestBlend(t *testing.T) {
	ctx, rec := newTestContext(t, shaderlab.DefaultConfig(), shaderlab.EffectBlend)
	b := ctx.Blend()
	pos, uv := quad(0)
	b.Draw(pos, uv, uv, 1, 2)
	b.SetMode(shaderlab.BlendNormal)
	if len(rec.Draws) != 0 {
		t.Fatal("unchanged blend mode committed")
	}
	b.SetMode(shaderlab.BlendMultiply)
	b.SetColor(0xff0000ff, 0)
	b.Draw(pos, uv, uv, 1, 2)
	ctx.Flush()
	if len(rec.Draws) != 2 {
		t.Fatalf("want 2 draws, got %d", len(rec.Draws))
	}
	modes := rec.UploadsOf("u_mode")
	if len(modes) != 2 || modes[0].Value[0] != 0 || modes[1].Value[0] != float32(shaderlab.BlendMultiply) {
		t.Errorf("unexpected u_mode uploads %+v", modes)
	}
	if b.Mode() != shaderlab.BlendMultiply {
		t.Errorf("want mode multiply, got %s", b.Mode())
	}
	vb := rec.Draws[1].Vertices
	if c := binary.NativeEndian.Uint32(vb[24:]); c != 0xff0000ff {
		t.Errorf("want blend color 0xff0000ff, got %#x", c)
	}
}

func TestContextLifecycle(t *testing.T) {
	rec := glrender.NewRecorder()
	ctx, err := shaderlab.NewContext(rec, shaderlab.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := ctx.Use(shaderlab.EffectSprite2); !errors.Is(err, shaderlab.ErrNotLoaded) {
		t.Errorf("want ErrNotLoaded, got %v", err)
	}
	all := []shaderlab.EffectKind{
		shaderlab.EffectShape2, shaderlab.EffectSprite2, shaderlab.EffectSprite3,
		shaderlab.EffectBlend, shaderlab.EffectFilter, shaderlab.EffectMask,
	}
	if err := ctx.Load(all...); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Load(shaderlab.EffectSprite2); err != nil {
		t.Errorf("reloading effect: %v", err)
	}
	progs, _ := rec.Live()
	if progs != 1+4+1+1+9+1 {
		t.Errorf("unexpected number of live programs %d", progs)
	}
	if err := ctx.Use(shaderlab.EffectShape2); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Unload(shaderlab.EffectShape2); err != nil {
		t.Fatal(err)
	}
	if _, ok := ctx.Current(); ok {
		t.Error("unloading current effect should leave none current")
	}
	if ctx.Shape2() != nil {
		t.Error("unloaded effect still accessible")
	}
	if err := ctx.Unload(shaderlab.EffectShape2); !errors.Is(err, shaderlab.ErrNotLoaded) {
		t.Errorf("want ErrNotLoaded, got %v", err)
	}
	if err := ctx.Close(); err != nil {
		t.Fatal(err)
	}
	if progs, bufs := rec.Live(); progs != 0 || bufs != 0 {
		t.Errorf("leaked %d programs and %d buffers", progs, bufs)
	}
	if err := ctx.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if err := ctx.Load(shaderlab.EffectShape2); !errors.Is(err, shaderlab.ErrClosed) {
		t.Errorf("want ErrClosed, got %v", err)
	}
}

func TestLoadCompileError(t *testing.T) {
	rec := glrender.NewRecorder()
	ctx, err := shaderlab.NewContext(rec, shaderlab.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := ctx.Load(shaderlab.EffectShape2); err != nil {
		t.Fatal(err)
	}
	rec.CompileErr = errors.New("0:1: syntax error")
	err = ctx.Load(shaderlab.EffectSprite2, shaderlab.EffectFilter)
	if !errors.Is(err, glrender.ErrCompile) {
		t.Fatalf("want ErrCompile, got %v", err)
	}
	if !strings.Contains(err.Error(), "sprite2") || !strings.Contains(err.Error(), "filter") {
		t.Errorf("want both effect errors reported, got %v", err)
	}
	if ctx.Loaded(shaderlab.EffectSprite2) || ctx.Loaded(shaderlab.EffectFilter) {
		t.Error("failed effect reported loaded")
	}
	if !ctx.Loaded(shaderlab.EffectShape2) {
		t.Error("previously loaded effect lost")
	}
	if progs, bufs := rec.Live(); progs != 1 || bufs != 1 {
		t.Errorf("failed load leaked resources: %d programs, %d buffers live", progs, bufs)
	}
}

func TestNewContextInvalidConfig(t *testing.T) {
	cfg := shaderlab.DefaultConfig()
	cfg.SpriteQuads = 1 << 15
	cfg.ShapeVertices = 0
	_, err := shaderlab.NewContext(glrender.NewRecorder(), cfg)
	if err == nil {
		t.Fatal("want error")
	}
	for _, want := range []string{"sprite_quads", "shape_vertices"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
