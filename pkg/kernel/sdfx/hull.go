package sdfx

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/birdomatic/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/golang/geo/r3"
	quickhull "github.com/markus-wa/quickhull-go/v2"
)

var errDegenerateHull = errors.New("sdfx: point cloud spans no volume")

// halfSpace is an outward facing plane: points with n.p - d > 0 are outside.
type halfSpace struct {
	n v3.Vec
	d float64
}

// hullSDF is a convex polyhedron given as the intersection of half-spaces.
// Its value is the largest signed plane distance, which is exact inside
// and a lower bound on the true distance outside.
type hullSDF struct {
	planes   []halfSpace
	vertices []v3.Vec
	center   v3.Vec
	radius   float64
	bb       sdf.Box3
}

// newHull builds the convex hull of pts with quickhull.
func newHull(pts []v3.Vec) (h *hullSDF, err error) {
	if len(pts) < 4 {
		return nil, errDegenerateHull
	}
	defer func() {
		if r := recover(); r != nil {
			h, err = nil, fmt.Errorf("sdfx: convex hull: %v", r)
		}
	}()

	cloud := make([]r3.Vector, len(pts))
	for i, p := range pts {
		cloud[i] = r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
	}
	qh := new(quickhull.QuickHull).ConvexHull(cloud, true, false, 0)
	if len(qh.Vertices) < 4 {
		return nil, errDegenerateHull
	}

	h = &hullSDF{vertices: make([]v3.Vec, len(qh.Vertices))}
	for i, v := range qh.Vertices {
		h.vertices[i] = v3.Vec{X: v.X, Y: v.Y, Z: v.Z}
		h.center = h.center.Add(h.vertices[i])
	}
	h.center = h.center.MulScalar(1 / float64(len(h.vertices)))
	for _, v := range h.vertices {
		h.radius = math.Max(h.radius, v.Sub(h.center).Length())
	}

	seen := make(map[[4]int64]bool)
	for _, tri := range qh.Triangles() {
		a := v3.Vec{X: tri[0].X, Y: tri[0].Y, Z: tri[0].Z}
		b := v3.Vec{X: tri[1].X, Y: tri[1].Y, Z: tri[1].Z}
		c := v3.Vec{X: tri[2].X, Y: tri[2].Y, Z: tri[2].Z}

		n := b.Sub(a).Cross(c.Sub(a))
		length := n.Length()
		if length < 1e-12 {
			continue
		}
		n = n.MulScalar(1 / length)
		d := n.Dot(a)
		// Orient away from the interior regardless of winding.
		if n.Dot(h.center)-d > 0 {
			n, d = n.Neg(), -d
		}

		key := [4]int64{quantize(n.X), quantize(n.Y), quantize(n.Z), quantize(d)}
		if seen[key] {
			continue
		}
		seen[key] = true
		h.planes = append(h.planes, halfSpace{n: n, d: d})
	}
	if len(h.planes) < 4 {
		return nil, errDegenerateHull
	}

	lo, hi := pointBounds(h.vertices)
	pad := v3.Vec{X: h.radius / 100, Y: h.radius / 100, Z: h.radius / 100}
	h.bb = sdf.Box3{Min: lo.Sub(pad), Max: hi.Add(pad)}
	return h, nil
}

func quantize(v float64) int64 {
	return int64(math.Round(v * 1e6))
}

// Evaluate returns the signed distance estimate at p. Points well outside
// the circumscribed sphere skip the plane scan.
func (h *hullSDF) Evaluate(p v3.Vec) float64 {
	if r := p.Sub(h.center).Length() - h.radius; r > h.radius/4 {
		return r
	}
	dist := math.Inf(-1)
	for _, pl := range h.planes {
		if v := pl.n.Dot(p) - pl.d; v > dist {
			dist = v
		}
	}
	return dist
}

// BoundingBox returns the bounds of the hull vertices.
func (h *hullSDF) BoundingBox() sdf.Box3 {
	return h.bb
}

// mirrorSDF reflects a field across a plane.
type mirrorSDF struct {
	s  sdf.SDF3
	n  v3.Vec
	d  float64
	bb sdf.Box3
}

func newMirror(s sdf.SDF3, p kernel.Plane) *mirrorSDF {
	n := v3.Vec{X: p.Normal[0], Y: p.Normal[1], Z: p.Normal[2]}
	length := n.Length()
	if length < 1e-12 {
		n, length = v3.Vec{Y: 1}, 1
	}
	m := &mirrorSDF{s: s, n: n.MulScalar(1 / length), d: p.Offset / length}

	bb := s.BoundingBox()
	corners := make([]v3.Vec, 0, 8)
	for _, x := range []float64{bb.Min.X, bb.Max.X} {
		for _, y := range []float64{bb.Min.Y, bb.Max.Y} {
			for _, z := range []float64{bb.Min.Z, bb.Max.Z} {
				corners = append(corners, m.reflect(v3.Vec{X: x, Y: y, Z: z}))
			}
		}
	}
	lo, hi := pointBounds(corners)
	m.bb = sdf.Box3{Min: lo, Max: hi}
	return m
}

func (m *mirrorSDF) reflect(p v3.Vec) v3.Vec {
	return p.Sub(m.n.MulScalar(2 * (m.n.Dot(p) - m.d)))
}

// Evaluate returns the source field at the reflected point.
func (m *mirrorSDF) Evaluate(p v3.Vec) float64 {
	return m.s.Evaluate(m.reflect(p))
}

// BoundingBox returns the reflected bounds.
func (m *mirrorSDF) BoundingBox() sdf.Box3 {
	return m.bb
}

// boundedSDF narrows the bounding box of a field without changing it.
type boundedSDF struct {
	s  sdf.SDF3
	bb sdf.Box3
}

// newBounded bounds s by its point cloud, padded to cover the curved
// surface between samples and clipped to the field's own box.
func newBounded(s sdf.SDF3, pts []v3.Vec) *boundedSDF {
	lo, hi := pointBounds(pts)
	size := hi.Sub(lo)
	pad := math.Max(0.05*math.Max(size.X, math.Max(size.Y, size.Z)), 0.25)
	lo = lo.Sub(v3.Vec{X: pad, Y: pad, Z: pad})
	hi = hi.Add(v3.Vec{X: pad, Y: pad, Z: pad})

	outer := s.BoundingBox()
	bb := sdf.Box3{
		Min: v3.Vec{X: math.Max(lo.X, outer.Min.X), Y: math.Max(lo.Y, outer.Min.Y), Z: math.Max(lo.Z, outer.Min.Z)},
		Max: v3.Vec{X: math.Min(hi.X, outer.Max.X), Y: math.Min(hi.Y, outer.Max.Y), Z: math.Min(hi.Z, outer.Max.Z)},
	}
	if bb.Min.X >= bb.Max.X || bb.Min.Y >= bb.Max.Y || bb.Min.Z >= bb.Max.Z {
		bb = outer
	}
	return &boundedSDF{s: s, bb: bb}
}

// Evaluate delegates to the wrapped field.
func (b *boundedSDF) Evaluate(p v3.Vec) float64 {
	return b.s.Evaluate(p)
}

// BoundingBox returns the narrowed bounds.
func (b *boundedSDF) BoundingBox() sdf.Box3 {
	return b.bb
}
