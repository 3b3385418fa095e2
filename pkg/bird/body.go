package bird

import (
	"fmt"
	"math"

	"github.com/chazu/birdomatic/pkg/kernel"
	"github.com/chazu/birdomatic/pkg/params"
)

// Body builds the body mesh by lofting through neck, chest, bottom and
// tail with a chained hull, then optionally cutting a flat base.
func Body(k kernel.Kernel, p params.Record) (*kernel.Mesh, error) {
	log := Logger().With("part", PartBody)

	// Step 1: neck, under the head's attachment point.
	neck := k.Sphere(p.HeadSize/2, sphereSegments/2+1, sphereStacks/2+1)
	neck = k.Translate(neck, 0, p.HeadLateralOffset, p.HeadLevel)

	// Step 2: chest.
	chest := k.Sphere(p.BellySize/2, sphereSegments+2, sphereStacks+2)
	if math.Abs(p.BellySize) < Epsilon {
		log.Debug("belly size substituted", "belly_size", p.BellySize, "epsilon", Epsilon)
	}
	chest = k.Scale(chest, ratio(p.BellyLength, p.BellySize), p.BellyFat/100, 1)
	chest = k.Translate(chest, p.HeadToBelly, 0, 0)

	// Step 4: bottom.
	bottomAt := p.HeadToBelly + p.BellyToBottom
	bottom := k.Sphere(p.BottomSize/2, sphereSegments+1, sphereStacks+1)
	bottom = k.Translate(bottom, bottomAt, 0, 0)

	// Step 5: tail, swung out from the bottom.
	if p.TailWidth <= 0 {
		log.Debug("tail radius substituted", "tail_width", p.TailWidth, "radius", Epsilon)
	}
	tail := flatCone(k, p.TailWidth, sphereSegments+1)
	tail = k.Scale(tail, p.TailRoundness/100, 1, 1)
	tail = k.Translate(tail, p.TailLength, 0, 0)
	tail = k.Rotate(tail, 0, -p.TailPitch, p.TailYaw)
	tail = k.Translate(tail, bottomAt, 0, 0)

	// Steps 3 to 5: loft neck to chest to bottom to tail.
	body := chainedHull(k, neck, chest, bottom, tail)
	log.Debug("body lofted", "stops", 4)

	// Step 6: flat base.
	if p.BaseFlatEnabled() {
		cut := baseCutHeight(p)
		span := 10 * math.Max(math.Abs(p.NoseToTail()), p.BellySize)
		slab := k.Box(span, span, p.BellySize)
		slab = k.Translate(slab, 0, 0, cut+p.BellySize/2)
		body = k.Renormalize(k.Difference(body, slab))
		log.Debug("base cut", "base_flat", p.BaseFlat, "height", cut+p.BellySize)
	}

	// Step 7: mesh and turn Y-up.
	mesh, err := finish(k, body, PartBody, 0)
	if err != nil {
		return nil, fmt.Errorf("bird: meshing body: %w", err)
	}
	log.Debug("body meshed", "triangles", mesh.TriangleCount(), "vertices", mesh.VertexCount())
	return mesh, nil
}

// baseCutHeight is the Z of the bottom face of the slab removed from under
// the body. Everything between it and one belly size above is cut away.
func baseCutHeight(p params.Record) float64 {
	return p.BellySize * (-1.5 + p.BaseFlat/200)
}

// BaseHeight reports the authoring-frame Z the flat base ends up at, or
// false when the cut is disabled. In the display frame this is the Y of
// the base.
func BaseHeight(p params.Record) (float64, bool) {
	if !p.BaseFlatEnabled() {
		return 0, false
	}
	return baseCutHeight(p) + p.BellySize, true
}

// chainedHull hulls each adjacent pair of stops and unions the pieces in
// order. Hulling all stops at once would straighten the loft.
func chainedHull(k kernel.Kernel, stops ...kernel.Solid) kernel.Solid {
	segment := func(a, b kernel.Solid) kernel.Solid {
		return k.Renormalize(k.ConvexHull(k.Renormalize(k.Union(a, b))))
	}
	body := segment(stops[0], stops[1])
	for i := 2; i < len(stops); i++ {
		body = k.Renormalize(k.Union(body, segment(stops[i-1], stops[i])))
	}
	return body
}
