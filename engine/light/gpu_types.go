package light

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUShadowView is the GPU-aligned per-view uniform block for one shadow
// render: the shadow view-projection matrix plus the sampling parameters the
// receiving shader needs.
// Size: 96 bytes (mat4x4<f32> + viewport vec4 + params vec4, std430 aligned,
// no padding required).
type GPUShadowView struct {
	ShadowMatrix [16]float32 // offset  0: world-to-shadow-UV transform (64 bytes)
	Viewport     [4]float32  // offset 64: normalized atlas viewport x, y, w, h (16 bytes)
	Params       [4]float32  // offset 80: depth bias, normal bias, resolution, shadow intensity (16 bytes)
}

// Size returns the size of the GPUShadowView struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUShadowView) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUShadowView struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 96-byte buffer ready for GPU upload.
func (g *GPUShadowView) Marshal() []byte {
	buf := make([]byte, 96)
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(g.ShadowMatrix[i]))
	}
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(buf[64+i*4:68+i*4], math.Float32bits(g.Viewport[i]))
	}
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(buf[80+i*4:84+i*4], math.Float32bits(g.Params[i]))
	}
	return buf
}

// UpdateGPUView refreshes the render data's uniform block from the current
// shadow matrix, viewport and the light's bias values.
//
// Parameters:
//   - l: the owning light, consulted for bias and intensity values
func (rd *RenderData) UpdateGPUView(l Light) {
	var m [16]float32
	copy(m[:], matSlice(rd.ShadowMatrix))
	rd.GPUView.ShadowMatrix = m
	rd.GPUView.Viewport = [4]float32{
		rd.ShadowViewport.X,
		rd.ShadowViewport.Y,
		rd.ShadowViewport.Width,
		rd.ShadowViewport.Height,
	}
	bias, normalBias := l.BiasValues(rd)
	rd.GPUView.Params = [4]float32{
		bias,
		normalBias,
		float32(l.ShadowResolution()),
		l.ShadowIntensity(),
	}
}

func matSlice(m mgl32.Mat4) []float32 {
	return m[:]
}
