package light

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lumen3d/lumen/engine/camera"
	"github.com/lumen3d/lumen/engine/device"
)

func newTestCamera() camera.Camera {
	return camera.NewCamera(camera.WithPerspective(60, 16.0/9.0, 0.1, 100))
}

type fakeShadowMap struct {
	cached   bool
	released int
}

func (f *fakeShadowMap) Cached() bool { return f.cached }
func (f *fakeShadowMap) Release()     { f.released++ }

type countingObserver struct {
	invalidations int
}

func (o *countingObserver) InvalidateLightOrder() { o.invalidations++ }

func fullDevice() device.Device {
	return device.NewHeadless()
}

func TestShadowTypeFallback(t *testing.T) {
	tests := []struct {
		name      string
		lightType Type
		device    device.Device
		requested ShadowType
		want      ShadowType
	}{
		{
			name:      "omni rejects PCF5",
			lightType: TypeOmni,
			device:    fullDevice(),
			requested: ShadowPCF5,
			want:      ShadowPCF3,
		},
		{
			name:      "omni rejects VSM16",
			lightType: TypeOmni,
			device:    fullDevice(),
			requested: ShadowVSM16,
			want:      ShadowPCF3,
		},
		{
			name:      "omni keeps PCSS",
			lightType: TypeOmni,
			device:    fullDevice(),
			requested: ShadowPCSS,
			want:      ShadowPCSS,
		},
		{
			name:      "PCF5 downgrades without depth shadow support",
			lightType: TypeSpot,
			device:    device.NewHeadless(device.WithDepthShadowSupport(false)),
			requested: ShadowPCF5,
			want:      ShadowPCF3,
		},
		{
			name:      "PCF5 kept with depth shadow support",
			lightType: TypeSpot,
			device:    fullDevice(),
			requested: ShadowPCF5,
			want:      ShadowPCF5,
		},
		{
			name:      "VSM32 downgrades to VSM16 without float render targets",
			lightType: TypeSpot,
			device:    device.NewHeadless(device.WithFloatRenderable(false)),
			requested: ShadowVSM32,
			want:      ShadowVSM16,
		},
		{
			name:      "VSM32 chains down to VSM8 without any float support",
			lightType: TypeSpot,
			device: device.NewHeadless(
				device.WithFloatRenderable(false),
				device.WithHalfFloatRenderable(false),
			),
			requested: ShadowVSM32,
			want:      ShadowVSM8,
		},
		{
			name:      "VSM16 downgrades without half float render targets",
			lightType: TypeDirectional,
			device:    device.NewHeadless(device.WithHalfFloatRenderable(false)),
			requested: ShadowVSM16,
			want:      ShadowVSM8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLight(tt.device, tt.lightType, WithShadowType(tt.requested))
			if got := l.ShadowType(); got != tt.want {
				t.Errorf("ShadowType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetShadowTypeEqualAfterFallbackIsNoOp(t *testing.T) {
	dev := device.NewHeadless(device.WithDepthShadowSupport(false))
	l := NewLight(dev, TypeSpot, WithCastShadows(true))

	sm := &fakeShadowMap{}
	l.SetShadowMap(sm)

	// PCF5 falls back to PCF3, which is already the stored type, so the map
	// must survive and no invalidation may run.
	l.SetShadowType(ShadowPCF5)

	if l.ShadowType() != ShadowPCF3 {
		t.Fatalf("ShadowType() = %v, want %v", l.ShadowType(), ShadowPCF3)
	}
	if sm.released != 0 {
		t.Errorf("shadow map released %d times, want 0", sm.released)
	}
	if l.ShadowMap() != sm {
		t.Error("shadow map was dropped by a no-op shadow type change")
	}
}

func TestDerivedVsmPcfFlags(t *testing.T) {
	tests := []struct {
		name    string
		st      ShadowType
		wantVsm bool
		wantPcf bool
	}{
		{"PCF1", ShadowPCF1, false, true},
		{"PCF3", ShadowPCF3, false, true},
		{"PCF5", ShadowPCF5, false, true},
		{"VSM8", ShadowVSM8, true, false},
		{"VSM16", ShadowVSM16, true, false},
		{"VSM32", ShadowVSM32, true, false},
		{"PCSS", ShadowPCSS, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLight(fullDevice(), TypeSpot, WithShadowType(tt.st))
			if l.IsVsm() != tt.wantVsm {
				t.Errorf("IsVsm() = %v, want %v", l.IsVsm(), tt.wantVsm)
			}
			if l.IsPcf() != tt.wantPcf {
				t.Errorf("IsPcf() = %v, want %v", l.IsPcf(), tt.wantPcf)
			}
		})
	}
}

func TestCastShadowsDerivation(t *testing.T) {
	tests := []struct {
		name string
		raw  bool
		mask uint32
		want bool
	}{
		{"raw false", false, MaskAffectDynamic, false},
		{"raw true dynamic mask", true, MaskAffectDynamic, true},
		{"bake only mask", true, MaskBake, false},
		{"zero mask", true, 0, false},
		{"bake plus dynamic", true, MaskBake | MaskAffectDynamic, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLight(fullDevice(), TypeOmni, WithCastShadows(tt.raw), WithMask(tt.mask))
			if got := l.CastShadows(); got != tt.want {
				t.Errorf("CastShadows() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShadowResolutionClampAndInvalidation(t *testing.T) {
	dev := device.NewHeadless(
		device.WithMaxTextureSize(4096),
		device.WithMaxCubeMapSize(2048),
	)
	l := NewLight(dev, TypeOmni, WithCastShadows(true))

	sm := &fakeShadowMap{}
	l.SetShadowMap(sm)
	rd := l.GetRenderData(nil, 0)
	if rd == nil || l.RenderDataCount() != 1 {
		t.Fatal("expected one render data entry before the resolution change")
	}

	l.SetShadowResolution(4096)

	if got := l.ShadowResolution(); got != 2048 {
		t.Errorf("ShadowResolution() = %d, want cube map limit 2048", got)
	}
	if sm.released != 1 {
		t.Errorf("shadow map released %d times, want 1", sm.released)
	}
	if l.ShadowMap() != nil {
		t.Error("shadow map still assigned after invalidation")
	}
	if l.RenderDataCount() != 0 {
		t.Errorf("RenderDataCount() = %d, want 0 after invalidation", l.RenderDataCount())
	}

	// A fresh request builds a fresh shadow camera.
	rd2 := l.GetRenderData(nil, 0)
	if rd2 == rd {
		t.Error("render data was not rebuilt after invalidation")
	}

	// Clamping to the current value again must not invalidate.
	l.SetShadowResolution(9999)
	if l.RenderDataCount() != 1 {
		t.Error("equal post-clamp resolution invalidated shadow state")
	}
}

func TestCachedShadowMapNotReleased(t *testing.T) {
	l := NewLight(fullDevice(), TypeSpot, WithCastShadows(true))
	sm := &fakeShadowMap{cached: true}
	l.SetShadowMap(sm)

	l.SetShadowType(ShadowVSM16)

	if sm.released != 0 {
		t.Errorf("cached shadow map released %d times, want 0", sm.released)
	}
	if l.ShadowMap() != nil {
		t.Error("shadow map reference kept after invalidation")
	}
}

func TestShadowUpdateModeHealedOnInvalidation(t *testing.T) {
	tests := []struct {
		name   string
		before ShadowUpdateMode
		want   ShadowUpdateMode
	}{
		{"none becomes this frame", ShadowUpdateNone, ShadowUpdateThisFrame},
		{"this frame stays", ShadowUpdateThisFrame, ShadowUpdateThisFrame},
		{"realtime stays", ShadowUpdateRealtime, ShadowUpdateRealtime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLight(fullDevice(), TypeSpot, WithCastShadows(true))
			l.SetShadowUpdateMode(tt.before)
			l.SetNumCascades(1) // no-op, must not heal
			if tt.before == ShadowUpdateNone && l.ShadowUpdateMode() != ShadowUpdateNone {
				t.Fatal("no-op setter changed the update mode")
			}
			l.SetShadowResolution(512)
			if got := l.ShadowUpdateMode(); got != tt.want {
				t.Errorf("ShadowUpdateMode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalOffsetBiasKeyTransition(t *testing.T) {
	l := NewLight(fullDevice(), TypeSpot)
	obs := &countingObserver{}
	l.AddKeyObserver(obs)

	l.SetNormalOffsetBias(0.1)
	if obs.invalidations != 1 {
		t.Fatalf("zero to non-zero: %d invalidations, want 1", obs.invalidations)
	}

	l.SetNormalOffsetBias(0.2)
	if obs.invalidations != 1 {
		t.Errorf("non-zero to non-zero: %d invalidations, want still 1", obs.invalidations)
	}

	l.SetNormalOffsetBias(0)
	if obs.invalidations != 2 {
		t.Errorf("non-zero to zero: %d invalidations, want 2", obs.invalidations)
	}
}

func TestBeginFrameResets(t *testing.T) {
	tests := []struct {
		name        string
		lightType   Type
		enabled     bool
		wantVisible bool
	}{
		{"enabled directional visible", TypeDirectional, true, true},
		{"disabled directional hidden", TypeDirectional, false, false},
		{"omni hidden until culled", TypeOmni, true, false},
		{"spot hidden until culled", TypeSpot, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLight(fullDevice(), tt.lightType, WithEnabled(tt.enabled))
			l.SetVisibleThisFrame(!tt.wantVisible)
			l.RecordScreenSize(0.5)
			l.SetAtlasViewportAllocated(true)
			l.SetAtlasSlotUpdated(true)

			l.BeginFrame()

			if l.VisibleThisFrame() != tt.wantVisible {
				t.Errorf("VisibleThisFrame() = %v, want %v", l.VisibleThisFrame(), tt.wantVisible)
			}
			if l.MaxScreenSize() != 0 {
				t.Errorf("MaxScreenSize() = %v, want 0", l.MaxScreenSize())
			}
			if l.AtlasViewportAllocated() {
				t.Error("atlas viewport flag survived BeginFrame")
			}
			if l.AtlasSlotUpdated() {
				t.Error("atlas slot flag survived BeginFrame")
			}
		})
	}
}

func TestGetRenderDataIdentity(t *testing.T) {
	dev := fullDevice()

	t.Run("non-directional ignores camera", func(t *testing.T) {
		l := NewLight(dev, TypeOmni, WithCastShadows(true))
		camA := newTestCamera()
		camB := newTestCamera()

		rdA := l.GetRenderData(camA, 2)
		rdB := l.GetRenderData(camB, 2)
		if rdA != rdB {
			t.Error("omni render data differs per camera, want shared entry")
		}
		if l.RenderDataCount() != 1 {
			t.Errorf("RenderDataCount() = %d, want 1", l.RenderDataCount())
		}
		if rdA.ViewingCamera() != nil {
			t.Error("omni render data retained a viewing camera")
		}
		if rdA.Face() != 2 {
			t.Errorf("Face() = %d, want 2", rdA.Face())
		}

		other := l.GetRenderData(camA, 3)
		if other == rdA {
			t.Error("distinct faces shared a render data entry")
		}
	})

	t.Run("directional keyed per camera", func(t *testing.T) {
		l := NewLight(dev, TypeDirectional, WithCastShadows(true))
		camA := newTestCamera()
		camB := newTestCamera()

		rdA := l.GetRenderData(camA, 0)
		rdB := l.GetRenderData(camB, 0)
		if rdA == rdB {
			t.Error("directional render data shared across cameras")
		}
		if l.GetRenderData(camA, 0) != rdA {
			t.Error("repeated lookup did not return the cached entry")
		}
		if rdA.ViewingCamera() == rdB.ViewingCamera() {
			t.Error("render data lost camera identity")
		}
	})
}

func TestSpotBoundingSphere(t *testing.T) {
	pos := mgl32.Vec3{0, 10, 0}
	dir := mgl32.Vec3{0, -1, 0}

	tests := []struct {
		name       string
		angle      float32
		wantRadius float32
		wantCenter mgl32.Vec3
	}{
		{
			// cos(30) = sqrt(3)/2, radius = 10 / (2 cos 30)
			name:       "narrow cone",
			angle:      30,
			wantRadius: float32(10 / (2 * math.Cos(math.Pi/6))),
			wantCenter: mgl32.Vec3{0, 10 - float32(10/(2*math.Cos(math.Pi/6))), 0},
		},
		{
			// Exactly 45 degrees takes the narrow branch.
			name:       "boundary angle",
			angle:      45,
			wantRadius: float32(10 / (2 * math.Cos(math.Pi/4))),
			wantCenter: mgl32.Vec3{0, 10 - float32(10/(2*math.Cos(math.Pi/4))), 0},
		},
		{
			name:       "wide cone",
			angle:      60,
			wantRadius: float32(10 * math.Sin(math.Pi/3)),
			wantCenter: mgl32.Vec3{0, 10 - float32(10*math.Cos(math.Pi/3)), 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLight(fullDevice(), TypeSpot,
				WithPosition(pos),
				WithDirection(dir),
				WithAttenuationEnd(10),
				WithConeAngles(tt.angle-5, tt.angle),
			)
			s := l.BoundingSphere()
			if !nearEqual(s.Radius, tt.wantRadius) {
				t.Errorf("Radius = %v, want %v", s.Radius, tt.wantRadius)
			}
			for i := 0; i < 3; i++ {
				if !nearEqual(s.Center[i], tt.wantCenter[i]) {
					t.Errorf("Center = %v, want %v", s.Center, tt.wantCenter)
					break
				}
			}
		})
	}
}

func TestOmniBoundingSphere(t *testing.T) {
	l := NewLight(fullDevice(), TypeOmni,
		WithPosition(mgl32.Vec3{1, 2, 3}),
		WithAttenuationEnd(7),
	)
	s := l.BoundingSphere()
	if s.Center != (mgl32.Vec3{1, 2, 3}) || s.Radius != 7 {
		t.Errorf("BoundingSphere() = %+v, want center (1,2,3) radius 7", s)
	}
}

func TestBiasValues(t *testing.T) {
	t.Run("omni uses raw bias", func(t *testing.T) {
		l := NewLight(fullDevice(), TypeOmni, WithShadowBias(0.05))
		bias, _ := l.BiasValues(nil)
		if !nearEqual(bias, 0.05) {
			t.Errorf("bias = %v, want 0.05", bias)
		}
	})

	t.Run("spot pcf scales bias by 20", func(t *testing.T) {
		l := NewLight(fullDevice(), TypeSpot, WithShadowBias(0.05))
		bias, _ := l.BiasValues(nil)
		if !nearEqual(bias, 1.0) {
			t.Errorf("bias = %v, want 1.0", bias)
		}
	})

	t.Run("spot vsm ignores configured bias", func(t *testing.T) {
		l := NewLight(fullDevice(), TypeSpot,
			WithShadowType(ShadowVSM16),
			WithShadowBias(123),
		)
		bias, _ := l.BiasValues(nil)
		if !nearEqual(bias, vsmFixedBias) {
			t.Errorf("bias = %v, want fixed vsm bias %v", bias, vsmFixedBias)
		}
	})

	t.Run("directional scales by shadow camera far clip", func(t *testing.T) {
		l := NewLight(fullDevice(), TypeDirectional, WithShadowBias(0.2))
		rd := l.GetRenderData(newTestCamera(), 0)
		rd.ShadowCamera.SetFarClip(50)
		bias, _ := l.BiasValues(rd)
		if !nearEqual(bias, (0.2/50)*100) {
			t.Errorf("bias = %v, want %v", bias, (0.2/50)*100)
		}
	})
}

func TestEffectiveIntensity(t *testing.T) {
	t.Run("artistic units pass intensity through", func(t *testing.T) {
		l := NewLight(fullDevice(), TypeOmni, WithIntensity(3))
		if got := l.EffectiveIntensity(); got != 3 {
			t.Errorf("EffectiveIntensity() = %v, want 3", got)
		}
	})

	t.Run("omni physical units divide by full sphere", func(t *testing.T) {
		l := NewLight(fullDevice(), TypeOmni,
			WithPhysicalUnits(true),
			WithLuminance(float32(4*math.Pi)),
		)
		if got := l.EffectiveIntensity(); !nearEqual(got, 1) {
			t.Errorf("EffectiveIntensity() = %v, want 1", got)
		}
	})

	t.Run("directional physical units are lux", func(t *testing.T) {
		l := NewLight(fullDevice(), TypeDirectional,
			WithPhysicalUnits(true),
			WithLuminance(5),
		)
		if got := l.EffectiveIntensity(); !nearEqual(got, 5) {
			t.Errorf("EffectiveIntensity() = %v, want 5", got)
		}
	})
}

func TestFeatureIDDistinguishesKeys(t *testing.T) {
	base := func() Light {
		return NewLight(fullDevice(), TypeSpot, WithCastShadows(true))
	}

	mutations := []struct {
		name   string
		mutate func(Light)
	}{
		{"shadow type", func(l Light) { l.SetShadowType(ShadowVSM16) }},
		{"falloff", func(l Light) { l.SetFalloffMode(FalloffInverseSquared) }},
		{"shape", func(l Light) { l.SetShape(ShapeDisk) }},
		{"mask", func(l Light) { l.SetMask(MaskAffectLightmapped) }},
		{"cast shadows", func(l Light) { l.SetCastShadows(false) }},
		{"normal offset", func(l Light) { l.SetNormalOffsetBias(0.5) }},
		{"specularity", func(l Light) { l.SetAffectSpecularity(false) }},
	}

	ref := base().FeatureID()
	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			l := base()
			tt.mutate(l)
			if l.FeatureID() == ref {
				t.Errorf("FeatureID unchanged after %s mutation", tt.name)
			}
		})
	}
}

func TestFeatureIDDeterministic(t *testing.T) {
	build := func() Light {
		return NewLight(fullDevice(), TypeSpot,
			WithCastShadows(true),
			WithShadowType(ShadowPCF5),
			WithFalloffMode(FalloffInverseSquared),
			WithNormalOffsetBias(0.2),
		)
	}
	if build().FeatureID() != build().FeatureID() {
		t.Error("identical configurations packed to different feature IDs")
	}
}

func TestKeyObserverLifecycle(t *testing.T) {
	l := NewLight(fullDevice(), TypeSpot)
	obs := &countingObserver{}
	l.AddKeyObserver(obs)
	l.AddKeyObserver(obs) // duplicate registration must not double-notify

	l.SetShape(ShapeRect)
	if obs.invalidations != 1 {
		t.Fatalf("invalidations = %d, want 1", obs.invalidations)
	}

	l.RemoveKeyObserver(obs)
	l.SetShape(ShapeSphere)
	if obs.invalidations != 1 {
		t.Errorf("removed observer was notified, invalidations = %d", obs.invalidations)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	l := NewLight(fullDevice(), TypeSpot,
		WithCastShadows(true),
		WithShadowType(ShadowVSM16),
		WithConeAngles(20, 35),
	)
	sm := &fakeShadowMap{}
	l.SetShadowMap(sm)
	l.GetRenderData(nil, 0)

	c := l.Clone()

	if c.FeatureID() != l.FeatureID() {
		t.Error("clone packed to a different feature ID")
	}
	if c.ShadowMap() != nil {
		t.Error("clone inherited the shadow map")
	}
	if c.RenderDataCount() != 0 {
		t.Error("clone inherited render data")
	}
	if c.AtlasSlotIndex() != -1 {
		t.Errorf("AtlasSlotIndex() = %d, want -1", c.AtlasSlotIndex())
	}

	c.SetOuterConeAngle(60)
	if l.OuterConeAngle() != 35 {
		t.Error("mutating the clone changed the source light")
	}
}

func TestNumShadowFaces(t *testing.T) {
	tests := []struct {
		name      string
		lightType Type
		cascades  int
		want      int
	}{
		{"directional single cascade", TypeDirectional, 1, 1},
		{"directional four cascades", TypeDirectional, 4, 4},
		{"omni cube", TypeOmni, 1, 6},
		{"spot", TypeSpot, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLight(fullDevice(), tt.lightType, WithNumCascades(tt.cascades))
			if got := l.NumShadowFaces(); got != tt.want {
				t.Errorf("NumShadowFaces() = %d, want %d", got, tt.want)
			}
		})
	}
}

func nearEqual(a, b float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1e-4
}
