package bird

import (
	"fmt"

	"github.com/chazu/birdomatic/pkg/kernel"
	"github.com/chazu/birdomatic/pkg/params"
)

// Head builds the head mesh: a skull hulled together with a flat beak
// tip, two mirrored eyes, posed on the neck and subdivided once.
func Head(k kernel.Kernel, p params.Record) (*kernel.Mesh, error) {
	log := Logger().With("part", PartHead)

	// Step 1: skull.
	skull := k.Sphere(p.HeadSize/2, 2*sphereSegments, sphereStacks)

	// Step 2: beak skeleton, a flat tip held in front of the skull.
	if p.BeakWidth <= 0 {
		log.Debug("beak tip radius substituted", "beak_width", p.BeakWidth, "radius", Epsilon)
	}
	beak := flatCone(k, p.BeakWidth, sphereSegments/4)
	beak = k.Scale(beak, p.BeakRoundness/100, 1, 1)
	beak = k.Translate(beak, -(p.BeakLength + p.HeadSize/2), 0, 0)
	beak = k.Rotate(beak, 0, beakTilt, 0)
	head := k.Renormalize(k.Union(skull, beak))
	log.Debug("beak skeleton joined", "length", p.BeakLength, "tip", tipRadius(p.BeakWidth))

	// Step 3: the hull of skull and tip is the head from here on.
	head = k.ConvexHull(head)
	head = k.Scale(head, 1, p.BeakSize/100, p.BeakSize/100)
	head = k.Renormalize(head)
	log.Debug("beak hulled", "beak_size", p.BeakSize)

	// Step 4: eyes. The second eye mirrors the finished first one.
	if p.EyeSize > 0 {
		eye := k.Sphere(p.EyeSize/2, sphereSegments/2+2, sphereStacks/2+2)
		eye = k.Scale(eye, 1, 1, 0.5)
		eye = k.Translate(eye, 0, 0, p.HeadSize/2-p.EyeSize/8)
		eye = k.Rotate(eye, eyeOrientation[0], eyeOrientation[1], eyeOrientation[2])
		head = k.Renormalize(k.Union(head, eye))
		head = k.Renormalize(k.Union(head, k.Mirror(eye, symmetryPlane)))
		log.Debug("eyes added", "eye_size", p.EyeSize)
	}

	// Step 5: pose on the neck.
	head = k.Rotate(head, 0, p.HeadPitch, p.HeadYaw)
	head = k.Translate(head, 0, p.HeadLateralOffset, p.HeadLevel)
	head = k.Scale(head, inflation, inflation, inflation)
	head = k.Renormalize(head)
	log.Debug("head posed", "pitch", p.HeadPitch, "yaw", p.HeadYaw, "level", p.HeadLevel)

	// Steps 6 and 7: mesh, subdivide once, turn Y-up.
	mesh, err := finish(k, head, PartHead, 1)
	if err != nil {
		return nil, fmt.Errorf("bird: meshing head: %w", err)
	}
	log.Debug("head meshed", "triangles", mesh.TriangleCount(), "vertices", mesh.VertexCount())
	return mesh, nil
}
