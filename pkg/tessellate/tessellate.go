// Package tessellate turns a parameter record into the bird's two triangle
// meshes using a geometry kernel.
package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/birdomatic/pkg/bird"
	"github.com/chazu/birdomatic/pkg/kernel"
	"github.com/chazu/birdomatic/pkg/params"
	"golang.org/x/sync/errgroup"
)

// Tessellate builds the head and body concurrently and returns them in
// that order. The record is copied into each generator, so callers may
// keep editing their own copy. A panic inside the kernel fails the call
// instead of the process.
func Tessellate(p params.Record, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if k == nil {
		return nil, fmt.Errorf("tessellate: nil kernel")
	}

	parts := []struct {
		name string
		gen  func(kernel.Kernel, params.Record) (*kernel.Mesh, error)
	}{
		{bird.PartHead, bird.Head},
		{bird.PartBody, bird.Body},
	}

	meshes := make([]*kernel.Mesh, len(parts))
	var g errgroup.Group
	for i, part := range parts {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("tessellate: %s: kernel panic: %v", part.name, r)
				}
			}()
			m, err := part.gen(k, p)
			if err != nil {
				return fmt.Errorf("tessellate: %s: %w", part.name, err)
			}
			meshes[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		bird.Logger().Debug("tessellate failed", "err", err)
		return nil, err
	}
	bird.Logger().Debug("tessellated", "summary", Summarize(meshes).String())
	return meshes, nil
}

// Summary describes a set of meshes for status lines and API responses.
type Summary struct {
	Parts     int        `json:"parts"`
	Triangles int        `json:"triangles"`
	Vertices  int        `json:"vertices"`
	Min       [3]float64 `json:"min"`
	Max       [3]float64 `json:"max"`
}

// Summarize totals the meshes and merges their bounds. Empty meshes are
// counted as parts but do not affect the bounds.
func Summarize(meshes []*kernel.Mesh) Summary {
	s := Summary{
		Min: [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)},
		Max: [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
	}
	seen := false
	for _, m := range meshes {
		if m == nil {
			continue
		}
		s.Parts++
		s.Triangles += m.TriangleCount()
		s.Vertices += m.VertexCount()
		if m.IsEmpty() {
			continue
		}
		lo, hi := m.Bounds()
		for i := 0; i < 3; i++ {
			s.Min[i] = math.Min(s.Min[i], lo[i])
			s.Max[i] = math.Max(s.Max[i], hi[i])
		}
		seen = true
	}
	if !seen {
		s.Min, s.Max = [3]float64{}, [3]float64{}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d parts, %d triangles, %d vertices, size %.1f x %.1f x %.1f",
		s.Parts, s.Triangles, s.Vertices,
		s.Max[0]-s.Min[0], s.Max[1]-s.Min[1], s.Max[2]-s.Min[2])
}
