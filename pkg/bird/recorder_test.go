package bird

import (
	"fmt"
	"strings"
	"sync"

	"github.com/chazu/birdomatic/pkg/kernel"
)

// node is one operation captured by recorder.
type node struct {
	op       string
	args     []float64
	children []*node
}

func (n *node) BoundingBox() (min, max [3]float64) { return min, max }

// shape renders the boolean and hull structure, skipping transforms and
// renormalize steps.
func (n *node) shape() string {
	switch n.op {
	case "translate", "rotate", "scale", "renormalize":
		return n.children[0].shape()
	}
	if len(n.children) == 0 {
		return n.op
	}
	parts := make([]string, len(n.children))
	for i, c := range n.children {
		parts[i] = c.shape()
	}
	return fmt.Sprintf("%s(%s)", n.op, strings.Join(parts, ","))
}

// walk visits n and every descendant with its parent.
func (n *node) walk(parent *node, fn func(n, parent *node)) {
	fn(n, parent)
	for _, c := range n.children {
		c.walk(n, fn)
	}
}

// find returns every node with the given op.
func (n *node) find(op string) []*node {
	var out []*node
	n.walk(nil, func(c, _ *node) {
		if c.op == op {
			out = append(out, c)
		}
	})
	return out
}

// recorder is a Kernel that builds an operation tree instead of geometry.
// ToMesh returns a single triangle and remembers the tree it was given.
type recorder struct {
	mu     sync.Mutex
	meshed []*node
}

var _ kernel.Kernel = (*recorder)(nil)

func leaf(op string, args ...float64) *node {
	return &node{op: op, args: args}
}

func wrapNode(op string, s kernel.Solid, args ...float64) *node {
	return &node{op: op, args: args, children: []*node{s.(*node)}}
}

func (r *recorder) Sphere(radius float64, segments, stacks int) kernel.Solid {
	return leaf("sphere", radius, float64(segments), float64(stacks))
}

func (r *recorder) Cylinder(height, bottom, top float64, segments int) kernel.Solid {
	return leaf("cylinder", height, bottom, top, float64(segments))
}

func (r *recorder) Box(x, y, z float64) kernel.Solid { return leaf("box", x, y, z) }

func (r *recorder) Union(a, b kernel.Solid) kernel.Solid {
	return &node{op: "union", children: []*node{a.(*node), b.(*node)}}
}

func (r *recorder) Difference(a, b kernel.Solid) kernel.Solid {
	return &node{op: "difference", children: []*node{a.(*node), b.(*node)}}
}

func (r *recorder) ConvexHull(s kernel.Solid) kernel.Solid { return wrapNode("hull", s) }

func (r *recorder) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return wrapNode("translate", s, x, y, z)
}

func (r *recorder) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return wrapNode("rotate", s, x, y, z)
}

func (r *recorder) Scale(s kernel.Solid, x, y, z float64) kernel.Solid {
	return wrapNode("scale", s, x, y, z)
}

func (r *recorder) Mirror(s kernel.Solid, p kernel.Plane) kernel.Solid {
	return wrapNode("mirror", s, p.Normal[0], p.Normal[1], p.Normal[2], p.Offset)
}

func (r *recorder) Renormalize(s kernel.Solid) kernel.Solid { return wrapNode("renormalize", s) }

func (r *recorder) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	r.mu.Lock()
	r.meshed = append(r.meshed, s.(*node))
	r.mu.Unlock()
	return &kernel.Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Normals:  []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices:  []uint32{0, 1, 2},
	}, nil
}

// last returns the most recently meshed tree.
func (r *recorder) last() *node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meshed[len(r.meshed)-1]
}
