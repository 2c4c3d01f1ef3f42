package renderer

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/lumen3d/lumen/engine/camera"
	"github.com/lumen3d/lumen/engine/mesh"
)

// GPUCameraView is the GPU-aligned per-camera uniform block consumed by the
// draw-submission stage.
// Size: 80 bytes (mat4x4<f32> + vec4 position, std430 aligned, no padding required).
type GPUCameraView struct {
	ViewProjection [16]float32 // offset  0: combined projection * view matrix (64 bytes)
	Position       [4]float32  // offset 64: camera world position, w unused (16 bytes)
}

// Size returns the size of the GPUCameraView struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUCameraView) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraView struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 80-byte buffer ready for GPU upload.
func (g *GPUCameraView) Marshal() []byte {
	buf := make([]byte, 80)
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(g.ViewProjection[i]))
	}
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(buf[64+i*4:68+i*4], math.Float32bits(g.Position[i]))
	}
	return buf
}

// CameraUniforms builds the per-camera uniform block from a camera's current
// transform and projection.
//
// Parameters:
//   - cam: the camera to read
//
// Returns:
//   - GPUCameraView: the filled uniform block
func CameraUniforms(cam camera.Camera) GPUCameraView {
	var g GPUCameraView
	vp := cam.ViewProjectionMatrix()
	copy(g.ViewProjection[:], vp[:])
	pos := cam.Position()
	g.Position = [4]float32{pos.X(), pos.Y(), pos.Z(), 0}
	return g
}

// GPUMeshData is the GPU-aligned per-drawable uniform block.
// Size: 64 bytes (mat4x4<f32>, std430 aligned, no padding required).
type GPUMeshData struct {
	Model [16]float32 // offset 0: model-to-world transform (64 bytes)
}

// Size returns the size of the GPUMeshData struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUMeshData) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMeshData struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUMeshData) Marshal() []byte {
	buf := make([]byte, 64)
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(g.Model[i]))
	}
	return buf
}

// MeshUniforms builds the per-drawable uniform block from an instance's model
// matrix.
//
// Parameters:
//   - mi: the drawable to read
//
// Returns:
//   - GPUMeshData: the filled uniform block
func MeshUniforms(mi mesh.MeshInstance) GPUMeshData {
	var g GPUMeshData
	m := mi.ModelMatrix()
	copy(g.Model[:], m[:])
	return g
}
