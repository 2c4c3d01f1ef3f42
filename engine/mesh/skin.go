package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lumen3d/lumen/common"
)

// SkinInstance holds per-instance skinning state. The CPU matrix pre-pass runs
// before culling so bounds reflect the current pose; palette upload to the GPU
// happens later, in the external update pass, for visible instances only.
type SkinInstance struct {
	// InverseBindMatrices transform from mesh space into each joint's bind space.
	// Fixed at creation.
	InverseBindMatrices []mgl32.Mat4

	// JointTransforms are the current world transforms of each joint, written by
	// the animation system before BeginFrame.
	JointTransforms []mgl32.Mat4

	// restBounds is the mesh-space bounding box of the bind pose, used to pad
	// the pose bounds so vertices between joints stay enclosed.
	restBounds common.BoundingBox

	palette    []mgl32.Mat4
	poseBounds common.BoundingBox
}

// NewSkinInstance creates a SkinInstance for a skeleton with the given inverse
// bind matrices and bind-pose bounds. Joint transforms start at identity.
//
// Parameters:
//   - inverseBind: one inverse bind matrix per joint
//   - restBounds: the bind-pose bounding box in mesh space
//
// Returns:
//   - *SkinInstance: the new skin instance
func NewSkinInstance(inverseBind []mgl32.Mat4, restBounds common.BoundingBox) *SkinInstance {
	joints := make([]mgl32.Mat4, len(inverseBind))
	for i := range joints {
		joints[i] = mgl32.Ident4()
	}
	return &SkinInstance{
		InverseBindMatrices: inverseBind,
		JointTransforms:     joints,
		restBounds:          restBounds,
		palette:             make([]mgl32.Mat4, len(inverseBind)),
		poseBounds:          restBounds,
	}
}

// UpdateMatrices recomputes the skin palette (joint world transform * inverse
// bind) and the pose bounding box from the current joint transforms. Called
// once per frame per skinned instance before culling.
func (s *SkinInstance) UpdateMatrices() {
	if len(s.JointTransforms) == 0 {
		return
	}

	min := mgl32.Vec3{float32(1e30), float32(1e30), float32(1e30)}
	max := min.Mul(-1)
	for i := range s.JointTransforms {
		s.palette[i] = s.JointTransforms[i].Mul4(s.InverseBindMatrices[i])

		p := s.JointTransforms[i].Col(3).Vec3()
		for axis := 0; axis < 3; axis++ {
			if p[axis] < min[axis] {
				min[axis] = p[axis]
			}
			if p[axis] > max[axis] {
				max[axis] = p[axis]
			}
		}
	}

	// Pad by the bind-pose half-extents so geometry hanging off the joints
	// stays inside the box.
	pad := s.restBounds.HalfExtents
	s.poseBounds = common.NewBoundingBoxFromMinMax(min.Sub(pad), max.Add(pad))
}

// Palette returns the skin matrix palette computed by the last UpdateMatrices.
//
// Returns:
//   - []mgl32.Mat4: one palette matrix per joint
func (s *SkinInstance) Palette() []mgl32.Mat4 {
	return s.palette
}

// PoseBounds returns the world-space bounds of the current pose.
//
// Returns:
//   - common.BoundingBox: the pose bounds computed by the last UpdateMatrices
func (s *SkinInstance) PoseBounds() common.BoundingBox {
	return s.poseBounds
}

// MorphInstance holds per-instance morph target weights pending GPU upload.
type MorphInstance struct {
	// Weights holds one blend weight per morph target.
	Weights []float32
}

// NewMorphInstance creates a MorphInstance with the given number of targets,
// all weights zero.
//
// Parameters:
//   - targetCount: the number of morph targets
//
// Returns:
//   - *MorphInstance: the new morph instance
func NewMorphInstance(targetCount int) *MorphInstance {
	return &MorphInstance{Weights: make([]float32, targetCount)}
}
