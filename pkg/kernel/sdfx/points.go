package sdfx

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// spherePoints samples a UV sphere: two poles plus stacks-1 rings of
// segments points each.
func spherePoints(r float64, segments, stacks int) []v3.Vec {
	segments = max(segments, 3)
	stacks = max(stacks, 2)

	pts := make([]v3.Vec, 0, 2+(stacks-1)*segments)
	pts = append(pts, v3.Vec{Z: r}, v3.Vec{Z: -r})
	for i := 1; i < stacks; i++ {
		phi := math.Pi * float64(i) / float64(stacks)
		z := r * math.Cos(phi)
		ring := r * math.Sin(phi)
		for j := 0; j < segments; j++ {
			theta := 2 * math.Pi * float64(j) / float64(segments)
			pts = append(pts, v3.Vec{X: ring * math.Cos(theta), Y: ring * math.Sin(theta), Z: z})
		}
	}
	return pts
}

// cylinderPoints samples the bottom and top rims of a centered cylinder.
func cylinderPoints(h, r0, r1 float64, segments int) []v3.Vec {
	segments = max(segments, 3)

	pts := make([]v3.Vec, 0, 2*segments)
	for _, rim := range []struct{ r, z float64 }{{r0, -h / 2}, {r1, h / 2}} {
		for j := 0; j < segments; j++ {
			theta := 2 * math.Pi * float64(j) / float64(segments)
			pts = append(pts, v3.Vec{X: rim.r * math.Cos(theta), Y: rim.r * math.Sin(theta), Z: rim.z})
		}
	}
	return pts
}

// boxPoints returns the corners of a centered box.
func boxPoints(size v3.Vec) []v3.Vec {
	hx, hy, hz := size.X/2, size.Y/2, size.Z/2
	pts := make([]v3.Vec, 0, 8)
	for _, x := range []float64{-hx, hx} {
		for _, y := range []float64{-hy, hy} {
			for _, z := range []float64{-hz, hz} {
				pts = append(pts, v3.Vec{X: x, Y: y, Z: z})
			}
		}
	}
	return pts
}

// pointBounds returns the bounds of a non-empty point set.
func pointBounds(pts []v3.Vec) (lo, hi v3.Vec) {
	lo, hi = pts[0], pts[0]
	for _, p := range pts[1:] {
		lo = v3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = v3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	return lo, hi
}
