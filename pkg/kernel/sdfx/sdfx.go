// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
//
// Signed distance fields have no explicit surface, so every solid also
// carries the point cloud its faceted counterpart would have: sphere rings
// from the segment and stack counts, cylinder rims, box corners. Transforms
// move the cloud along with the field, and ConvexHull is taken over the
// cloud. Surface normals come from the meshed result, so Renormalize only
// tightens the field's bounds around the cloud before the next step.
package sdfx

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/chazu/birdomatic/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultMeshCells controls marching cubes tessellation resolution along
// the longest axis of a solid's bounding box.
const DefaultMeshCells = 96

// minDimension replaces zero or negative sizes so sdfx constructors and
// matrix inversions never see a degenerate value.
const minDimension = 1e-3

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s   sdf.SDF3
	pts []v3.Vec
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
	log   *slog.Logger
}

// Option configures an SdfxKernel.
type Option func(*SdfxKernel)

// WithMeshCells sets the marching cubes resolution. Values below 8 are
// raised to 8.
func WithMeshCells(n int) Option {
	return func(k *SdfxKernel) {
		k.cells = max(n, 8)
	}
}

// WithLogger sets where the kernel reports fallbacks, at debug level.
// The kernel is silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(k *SdfxKernel) {
		if l != nil {
			k.log = l
		}
	}
}

// New returns a new SdfxKernel.
func New(opts ...Option) *SdfxKernel {
	k := &SdfxKernel{cells: DefaultMeshCells, log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// MeshCells reports the marching cubes resolution in use.
func (k *SdfxKernel) MeshCells() int {
	return k.cells
}

// unwrap extracts the underlying solid from a kernel.Solid.
func unwrap(s kernel.Solid) *sdfxSolid {
	return s.(*sdfxSolid)
}

func positive(v float64) float64 {
	if v < minDimension || math.IsNaN(v) {
		return minDimension
	}
	return v
}

// nonZero keeps the sign of a scale factor but moves it away from zero.
func nonZero(v float64) float64 {
	if math.Abs(v) < minDimension || math.IsNaN(v) {
		if v < 0 {
			return -minDimension
		}
		return minDimension
	}
	return v
}

// Sphere creates a sphere centered at the origin. The segment and stack
// counts only shape the hull point cloud; the field itself is exact.
func (k *SdfxKernel) Sphere(radius float64, segments, stacks int) kernel.Solid {
	radius = positive(radius)
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Sphere3D: %v", err))
	}
	return &sdfxSolid{s: s, pts: spherePoints(radius, segments, stacks)}
}

// Cylinder creates a cylinder or truncated cone along Z, centered at the
// origin, with the given bottom and top radii.
func (k *SdfxKernel) Cylinder(height, bottomRadius, topRadius float64, segments int) kernel.Solid {
	height = positive(height)
	bottomRadius = positive(bottomRadius)
	topRadius = positive(topRadius)

	var (
		s   sdf.SDF3
		err error
	)
	if bottomRadius == topRadius {
		s, err = sdf.Cylinder3D(height, bottomRadius, 0)
	} else {
		s, err = sdf.Cone3D(height, bottomRadius, topRadius, 0)
	}
	if err != nil {
		panic(fmt.Sprintf("sdfx.Cylinder: %v", err))
	}
	return &sdfxSolid{s: s, pts: cylinderPoints(height, bottomRadius, topRadius, segments)}
}

// Box creates a box with the given dimensions, centered at the origin.
func (k *SdfxKernel) Box(x, y, z float64) kernel.Solid {
	size := v3.Vec{X: positive(x), Y: positive(y), Z: positive(z)}
	s, err := sdf.Box3D(size, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	return &sdfxSolid{s: s, pts: boxPoints(size)}
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	sa, sb := unwrap(a), unwrap(b)
	pts := make([]v3.Vec, 0, len(sa.pts)+len(sb.pts))
	pts = append(pts, sa.pts...)
	pts = append(pts, sb.pts...)
	return &sdfxSolid{s: sdf.Union3D(sa.s, sb.s), pts: pts}
}

// Difference returns the difference a - b. The point cloud of a is kept:
// a hull of the result never reaches outside a.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	sa, sb := unwrap(a), unwrap(b)
	return &sdfxSolid{s: sdf.Difference3D(sa.s, sb.s), pts: sa.pts}
}

// ConvexHull returns the convex hull of the solid's point cloud. A cloud
// that spans no volume has no hull and the solid is returned unchanged.
func (k *SdfxKernel) ConvexHull(s kernel.Solid) kernel.Solid {
	src := unwrap(s)
	h, err := newHull(src.pts)
	if err != nil {
		k.log.Debug("hull skipped, solid returned unchanged", "points", len(src.pts), "err", err)
		return s
	}
	return &sdfxSolid{s: h, pts: h.vertices}
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return transform(unwrap(s), sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z}))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return transform(unwrap(s), m)
}

// Scale scales a solid about the origin.
func (k *SdfxKernel) Scale(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Scale3d(v3.Vec{X: nonZero(x), Y: nonZero(y), Z: nonZero(z)})
	return transform(unwrap(s), m)
}

// Mirror reflects a solid across a plane.
func (k *SdfxKernel) Mirror(s kernel.Solid, p kernel.Plane) kernel.Solid {
	src := unwrap(s)
	m := newMirror(src.s, p)
	pts := make([]v3.Vec, len(src.pts))
	for i, q := range src.pts {
		pts[i] = m.reflect(q)
	}
	return &sdfxSolid{s: m, pts: pts}
}

// Renormalize re-bounds the field to its point cloud. Transformed and
// combined fields carry conservative bounding boxes that grow with every
// step; meshing over the tight box keeps the full cell budget on the
// surface.
func (k *SdfxKernel) Renormalize(s kernel.Solid) kernel.Solid {
	src := unwrap(s)
	if len(src.pts) == 0 {
		return s
	}
	return &sdfxSolid{s: newBounded(src.s, src.pts), pts: src.pts}
}

// ToMesh converts a solid to an indexed triangle mesh using marching
// cubes. Shared vertices are welded and normals are averaged per vertex.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	sdf3 := unwrap(s).s

	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(sdf3, renderer)
	if len(triangles) == 0 {
		return nil, fmt.Errorf("sdfx: marching cubes produced no triangles")
	}

	numVerts := len(triangles) * 3
	soup := &kernel.Mesh{
		Vertices: make([]float32, 0, numVerts*3),
		Indices:  make([]uint32, 0, numVerts),
	}
	for i, tri := range triangles {
		for j := 0; j < 3; j++ {
			v := tri[j]
			soup.Vertices = append(soup.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			soup.Indices = append(soup.Indices, uint32(i*3+j))
		}
	}

	bb := sdf3.BoundingBox()
	longest := math.Max(bb.Max.X-bb.Min.X, math.Max(bb.Max.Y-bb.Min.Y, bb.Max.Z-bb.Min.Z))
	mesh := soup.Weld(longest / float64(k.cells) * 1e-3)
	if mesh.TriangleCount() == 0 {
		return nil, fmt.Errorf("sdfx: mesh collapsed while welding %d triangles", len(triangles))
	}
	return mesh, nil
}

// transform applies m to the field and to the point cloud.
func transform(s *sdfxSolid, m sdf.M44) kernel.Solid {
	pts := make([]v3.Vec, len(s.pts))
	for i, p := range s.pts {
		pts[i] = m.MulPosition(p)
	}
	return &sdfxSolid{s: sdf.Transform3D(s.s, m), pts: pts}
}
