// Package kernel defines the abstract geometry kernel interface.
// Implementations (sdfx, manifold) provide primitives, boolean and hull
// operations behind this interface. The bird generators only talk to a
// Kernel, so backends can be swapped without touching them.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Plane is an infinite plane given by a normal and its signed offset from
// the origin along that normal. Points p on the plane satisfy dot(n, p) = offset.
type Plane struct {
	Normal [3]float64
	Offset float64
}

// Kernel is the abstract geometry kernel interface.
// All operations return new solids; inputs are never modified.
type Kernel interface {
	// Primitives, all centered on the origin.
	Sphere(radius float64, segments, stacks int) Solid
	Cylinder(height, bottomRadius, topRadius float64, segments int) Solid // along Z
	Box(x, y, z float64) Solid

	// Boolean and hull operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	ConvexHull(s Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees, applied X then Y then Z
	Scale(s Solid, x, y, z float64) Solid
	Mirror(s Solid, p Plane) Solid

	// Renormalize recomputes surface normals after a boolean or hull step.
	Renormalize(s Solid) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
