// Package bird generates the two meshes of a parametric bird from a
// params.Record: the head (skull, beak and eyes) and the body (neck,
// chest, bottom and tail, optionally cut flat underneath).
//
// Both generators compose kernel primitives in a fixed order. The order is
// part of the result: hulling a different grouping of stops, or skipping a
// renormalize between booleans, changes the shape the kernel produces.
// Shapes are authored Z-up with the nose towards -X; the finished meshes
// are rotated into the Y-up frame renderers expect.
//
// Generators are pure. They read the record by value, keep no state and
// may run concurrently with independent kernels.
package bird

import (
	"math"

	"github.com/chazu/birdomatic/pkg/kernel"
	"github.com/chazu/birdomatic/pkg/params"
)

// Part names set on the generated meshes.
const (
	PartHead = "head"
	PartBody = "body"
)

// Epsilon replaces zero tip radii and gives flat cones their thickness.
// Zero-sized primitives destabilise hull and boolean operations.
const Epsilon = 0.1

const (
	// sphereSegments is the base tessellation unit. Each primitive scales
	// it up or down depending on how much it shows in the final shape.
	sphereSegments = 16
	sphereStacks   = 2 * sphereSegments

	// inflation offsets the shrinkage of hulled curved surfaces.
	inflation = 1.1

	// beakTilt lifts the beak tip, in degrees about Y.
	beakTilt = 15
)

// eyeOrientation places the eyes on the sides of the skull.
var eyeOrientation = [3]float64{50, -40, 0}

// symmetryPlane is the bird's sagittal plane in the authoring frame.
var symmetryPlane = kernel.Plane{Normal: [3]float64{0, 1, 0}, Offset: 0}

// yUp turns the Z-up authoring frame into the Y-up display frame:
// (x, y, z) becomes (-x, z, y).
var yUp = [3]float64{-90, 180, 0}

// tipRadius substitutes Epsilon for non-positive radii.
func tipRadius(r float64) float64 {
	if r > 0 {
		return r
	}
	return Epsilon
}

// ratio divides, treating a vanishing divisor as Epsilon.
func ratio(a, b float64) float64 {
	if math.Abs(b) < Epsilon {
		b = math.Copysign(Epsilon, b)
	}
	return a / b
}

// flatCone is the thin cone both the beak tip and the tail are grown from:
// a disc of the given radius on top of an Epsilon-sized point.
func flatCone(k kernel.Kernel, radius float64, segments int) kernel.Solid {
	return k.Cylinder(Epsilon, Epsilon, tipRadius(radius), segments)
}

// finish meshes a solid and moves it into the display frame.
func finish(k kernel.Kernel, s kernel.Solid, part string, subdivisions int) (*kernel.Mesh, error) {
	mesh, err := k.ToMesh(s)
	if err != nil {
		return nil, err
	}
	if subdivisions > 0 {
		mesh = mesh.Subdivide(subdivisions)
	}
	mesh = mesh.Rotate(yUp[0], yUp[1], yUp[2])
	mesh.PartName = part
	return mesh, nil
}

// Generate builds both parts, head first.
func Generate(k kernel.Kernel, p params.Record) (head, body *kernel.Mesh, err error) {
	if head, err = Head(k, p); err != nil {
		return nil, nil, err
	}
	if body, err = Body(k, p); err != nil {
		return nil, nil, err
	}
	return head, body, nil
}
