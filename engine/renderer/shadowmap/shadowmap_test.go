package shadowmap

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lumen3d/lumen/common"
	"github.com/lumen3d/lumen/engine/camera"
	"github.com/lumen3d/lumen/engine/device"
	"github.com/lumen3d/lumen/engine/light"
	"github.com/lumen3d/lumen/engine/mesh"
)

func TestFormatForShadowType(t *testing.T) {
	tests := []struct {
		name string
		st   light.ShadowType
		want device.TextureFormat
	}{
		{"PCF3 depth", light.ShadowPCF3, device.TextureFormatDepth32},
		{"PCF5 depth", light.ShadowPCF5, device.TextureFormatDepth32},
		{"PCSS depth", light.ShadowPCSS, device.TextureFormatDepth32},
		{"VSM8", light.ShadowVSM8, device.TextureFormatRGBA8},
		{"VSM16", light.ShadowVSM16, device.TextureFormatRGBA16F},
		{"VSM32", light.ShadowVSM32, device.TextureFormatRGBA32F},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatForShadowType(tt.st); got != tt.want {
				t.Errorf("FormatForShadowType(%v) = %v, want %v", tt.st, got, tt.want)
			}
		})
	}
}

func TestCachePoolsByConfiguration(t *testing.T) {
	dev := device.NewHeadless()
	cache := NewCache(dev)

	spot := light.NewLight(dev, light.TypeSpot, light.WithShadowResolution(512))
	sm, err := cache.Get(spot)
	if err != nil {
		t.Fatalf("Get(spot) error: %v", err)
	}
	if !sm.Cached() {
		t.Fatal("cache handed out a non-cached map")
	}
	if sm.Cubemap() {
		t.Error("spot light received a cube map")
	}

	cache.Reclaim(sm)
	if got, err := cache.Get(spot); err != nil || got != sm {
		t.Errorf("matching configuration did not reuse the reclaimed map (err %v)", err)
	}

	omni := light.NewLight(dev, light.TypeOmni, light.WithShadowResolution(512))
	if got, err := cache.Get(omni); err != nil || got == sm {
		t.Errorf("cube map request reused a 2D map (err %v)", err)
	}
}

func TestLocalRendererPreparesFaces(t *testing.T) {
	dev := device.NewHeadless()
	r := NewRendererLocal(dev, nil)

	lt := light.NewLight(dev, light.TypeOmni,
		light.WithCastShadows(true),
		light.WithPosition(mgl32.Vec3{0, 5, 0}),
		light.WithAttenuationEnd(20),
	)

	inRange := mesh.NewMeshInstance(
		mesh.WithName("near"),
		mesh.WithWorldBounds(common.BoundingBox{
			Center:      mgl32.Vec3{0, 5, -3},
			HalfExtents: mgl32.Vec3{1, 1, 1},
		}),
	)
	noShadow := mesh.NewMeshInstance(
		mesh.WithName("no-shadow"),
		mesh.WithCastShadow(false),
		mesh.WithWorldBounds(inRange.WorldBounds()),
	)
	farAway := mesh.NewMeshInstance(
		mesh.WithName("far"),
		mesh.WithWorldBounds(common.BoundingBox{
			Center:      mgl32.Vec3{500, 5, 0},
			HalfExtents: mgl32.Vec3{1, 1, 1},
		}),
	)

	r.CullShadowCasters(lt, []mesh.MeshInstance{inRange, noShadow, farAway})

	if lt.ShadowMap() == nil {
		t.Fatal("no shadow map assigned")
	}
	if lt.ShadowMap().Cached() {
		t.Error("non-clustered renderer assigned a cached map")
	}
	if lt.RenderDataCount() != 6 {
		t.Fatalf("RenderDataCount() = %d, want 6 cube faces", lt.RenderDataCount())
	}

	// The caster sits on the -Z side of the light; that face must hold exactly
	// the shadow-casting in-range drawable.
	rd := lt.GetRenderData(nil, 5)
	found := false
	for _, mi := range rd.VisibleCasters {
		if mi == noShadow {
			t.Error("non-casting drawable gathered as shadow caster")
		}
		if mi == inRange {
			found = true
		}
	}
	if !found {
		t.Error("in-range caster missing from the facing cube face")
	}

	// The shadow camera tracks the light.
	if rd.ShadowCamera.Position() != lt.Position() {
		t.Error("shadow camera position does not match the light")
	}
	if rd.ShadowCamera.RenderTarget() == nil {
		t.Error("shadow camera has no render target after preparation")
	}
}

func TestDirectionalRendererCascades(t *testing.T) {
	dev := device.NewHeadless()
	r := NewRendererDirectional(dev, nil)

	lt := light.NewLight(dev, light.TypeDirectional,
		light.WithCastShadows(true),
		light.WithDirection(mgl32.Vec3{0, -1, 0}),
		light.WithNumCascades(4),
		light.WithShadowDistance(40),
	)
	cam := camera.NewCamera(camera.WithPerspective(60, 16.0/9.0, 0.1, 100))

	ground := mesh.NewMeshInstance(
		mesh.WithName("ground"),
		mesh.WithWorldBounds(common.BoundingBox{
			Center:      mgl32.Vec3{0, 0, -10},
			HalfExtents: mgl32.Vec3{50, 1, 50},
		}),
	)

	r.CullShadowCasters(lt, cam, []mesh.MeshInstance{ground})

	if lt.RenderDataCount() != 4 {
		t.Fatalf("RenderDataCount() = %d, want 4 cascades", lt.RenderDataCount())
	}

	seen := map[common.Rect]bool{}
	for cascade := 0; cascade < 4; cascade++ {
		rd := lt.GetRenderData(cam, cascade)
		if rd.ShadowCamera.Projection() != camera.ProjectionOrthographic {
			t.Errorf("cascade %d shadow camera is not orthographic", cascade)
		}
		if len(rd.VisibleCasters) != 1 || rd.VisibleCasters[0] != ground {
			t.Errorf("cascade %d casters = %d, want the ground plane", cascade, len(rd.VisibleCasters))
		}
		if seen[rd.ShadowViewport] {
			t.Errorf("cascade %d shares a viewport with another cascade", cascade)
		}
		seen[rd.ShadowViewport] = true
		if rd.ShadowViewport.Width != 0.5 || rd.ShadowViewport.Height != 0.5 {
			t.Errorf("cascade %d viewport = %+v, want a 2x2 grid cell", cascade, rd.ShadowViewport)
		}
	}
}

func TestCascadeSplitsMonotonic(t *testing.T) {
	tests := []struct {
		name         string
		distribution float32
	}{
		{"linear", 0},
		{"blended", 0.5},
		{"logarithmic", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splits := cascadeSplits(0.1, 100, 4, tt.distribution)
			if len(splits) != 5 {
				t.Fatalf("len(splits) = %d, want 5", len(splits))
			}
			if splits[0] != 0.1 || splits[4] != 100 {
				t.Errorf("splits endpoints = %v, %v, want 0.1, 100", splits[0], splits[4])
			}
			for i := 1; i < len(splits); i++ {
				if splits[i] <= splits[i-1] {
					t.Errorf("splits not strictly increasing at %d: %v", i, splits)
				}
			}
		})
	}
}

type failingDevice struct {
	device.Device
}

func (failingDevice) CreateTexture(device.TextureDesc) (device.Texture, error) {
	return nil, errors.New("out of device memory")
}

func TestAllocationFailureSkipsShadowRender(t *testing.T) {
	dev := failingDevice{device.NewHeadless()}

	spot := light.NewLight(dev, light.TypeSpot,
		light.WithCastShadows(true),
		light.WithAttenuationEnd(10),
	)

	local := NewRendererLocal(dev, nil)
	local.CullShadowCasters(spot, nil)
	if spot.ShadowMap() != nil {
		t.Error("light received a shadow map despite the failed allocation")
	}
	if local.CulledRenders != 0 {
		t.Errorf("CulledRenders = %d after a failed allocation, want 0", local.CulledRenders)
	}

	cache := NewCache(dev)
	if _, err := cache.Get(spot); err == nil {
		t.Error("Get did not surface the allocation error")
	}
}
