// package cluster assigns visible local lights to a world-space grid of
// cells so shading can look up the lights affecting a fragment without
// testing every light. The grid is rebuilt from the visible light set each
// frame after light culling.
package cluster

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lumen3d/lumen/common"
)

// Config sizes the cluster grid.
type Config struct {
	// Cells is the number of grid cells along x, y and z.
	Cells [3]int

	// MaxLightsPerCell caps each cell's light list. Overflowing lights are
	// dropped from that cell.
	MaxLightsPerCell int
}

// DefaultConfig returns the grid dimensions used when no explicit
// configuration is supplied.
//
// Returns:
//   - Config: a 16x4x16 grid with up to 32 lights per cell
func DefaultConfig() Config {
	return Config{Cells: [3]int{16, 4, 16}, MaxLightsPerCell: 32}
}

// WorldClustersAllocator partitions the bounds of the visible light set into
// a regular grid and records, per cell, the indices of the lights whose
// bounding spheres touch it. Indices refer to the light slice passed to the
// most recent Update.
type WorldClustersAllocator struct {
	cfg Config

	bounds common.BoundingBox
	cells  [][]int

	// Updates counts grid rebuilds, exposed for frame stats.
	Updates int
}

// NewWorldClustersAllocator creates an allocator with the given grid config.
//
// Parameters:
//   - cfg: the grid dimensions and per-cell capacity
//
// Returns:
//   - *WorldClustersAllocator: the new allocator
func NewWorldClustersAllocator(cfg Config) *WorldClustersAllocator {
	n := cfg.Cells[0] * cfg.Cells[1] * cfg.Cells[2]
	return &WorldClustersAllocator{
		cfg:   cfg,
		cells: make([][]int, n),
	}
}

// Update rebuilds the grid from the visible lights' bounding spheres.
//
// Parameters:
//   - spheres: one bounding sphere per visible local light, in the order the
//     caller indexes its light list
func (w *WorldClustersAllocator) Update(spheres []common.BoundingSphere) {
	for i := range w.cells {
		w.cells[i] = w.cells[i][:0]
	}
	w.Updates++

	if len(spheres) == 0 {
		w.bounds = common.BoundingBox{}
		return
	}

	w.bounds = enclosingBounds(spheres)
	size := w.bounds.HalfExtents.Mul(2)
	min := w.bounds.Min()

	cellSize := mgl32.Vec3{
		safeDiv(size.X(), float32(w.cfg.Cells[0])),
		safeDiv(size.Y(), float32(w.cfg.Cells[1])),
		safeDiv(size.Z(), float32(w.cfg.Cells[2])),
	}

	for li, s := range spheres {
		lo := w.cellCoord(s.Center.Sub(mgl32.Vec3{s.Radius, s.Radius, s.Radius}), min, cellSize)
		hi := w.cellCoord(s.Center.Add(mgl32.Vec3{s.Radius, s.Radius, s.Radius}), min, cellSize)
		for z := lo[2]; z <= hi[2]; z++ {
			for y := lo[1]; y <= hi[1]; y++ {
				for x := lo[0]; x <= hi[0]; x++ {
					idx := w.cellIndex(x, y, z)
					if len(w.cells[idx]) < w.cfg.MaxLightsPerCell {
						w.cells[idx] = append(w.cells[idx], li)
					}
				}
			}
		}
	}
}

// CellLights returns the light indices touching the cell containing a world
// point. The returned slice is valid until the next Update.
//
// Parameters:
//   - point: the world-space position to query
//
// Returns:
//   - []int: indices into the light slice of the most recent Update
func (w *WorldClustersAllocator) CellLights(point mgl32.Vec3) []int {
	size := w.bounds.HalfExtents.Mul(2)
	cellSize := mgl32.Vec3{
		safeDiv(size.X(), float32(w.cfg.Cells[0])),
		safeDiv(size.Y(), float32(w.cfg.Cells[1])),
		safeDiv(size.Z(), float32(w.cfg.Cells[2])),
	}
	c := w.cellCoord(point, w.bounds.Min(), cellSize)
	return w.cells[w.cellIndex(c[0], c[1], c[2])]
}

func (w *WorldClustersAllocator) cellCoord(p, min, cellSize mgl32.Vec3) [3]int {
	var c [3]int
	for i := 0; i < 3; i++ {
		v := 0
		if cellSize[i] > 0 {
			v = int((p[i] - min[i]) / cellSize[i])
		}
		c[i] = common.Clamp(v, 0, w.cfg.Cells[i]-1)
	}
	return c
}

func (w *WorldClustersAllocator) cellIndex(x, y, z int) int {
	return (z*w.cfg.Cells[1]+y)*w.cfg.Cells[0] + x
}

func safeDiv(a, b float32) float32 {
	if b == 0 {
		return 0
	}
	return a / b
}

func enclosingBounds(spheres []common.BoundingSphere) common.BoundingBox {
	min := spheres[0].Center.Sub(mgl32.Vec3{spheres[0].Radius, spheres[0].Radius, spheres[0].Radius})
	max := spheres[0].Center.Add(mgl32.Vec3{spheres[0].Radius, spheres[0].Radius, spheres[0].Radius})
	for _, s := range spheres[1:] {
		lo := s.Center.Sub(mgl32.Vec3{s.Radius, s.Radius, s.Radius})
		hi := s.Center.Add(mgl32.Vec3{s.Radius, s.Radius, s.Radius})
		for i := 0; i < 3; i++ {
			if lo[i] < min[i] {
				min[i] = lo[i]
			}
			if hi[i] > max[i] {
				max[i] = hi[i]
			}
		}
	}
	return common.NewBoundingBoxFromMinMax(min, max)
}
