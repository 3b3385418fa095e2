// Package export writes bird meshes to files.
package export

import (
	"fmt"
	"io"
	"os"

	"github.com/chazu/birdomatic/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Triangles flattens the meshes into one sdfx triangle list. Degenerate
// triangles are kept; slicers tolerate them.
func Triangles(meshes ...*kernel.Mesh) []*sdf.Triangle3 {
	n := 0
	for _, m := range meshes {
		if m != nil {
			n += m.TriangleCount()
		}
	}
	out := make([]*sdf.Triangle3, 0, n)
	for _, m := range meshes {
		if m == nil {
			continue
		}
		for t := 0; t < m.TriangleCount(); t++ {
			var tri sdf.Triangle3
			for j := 0; j < 3; j++ {
				v := m.Indices[t*3+j]
				tri[j] = v3.Vec{
					X: float64(m.Vertices[v*3]),
					Y: float64(m.Vertices[v*3+1]),
					Z: float64(m.Vertices[v*3+2]),
				}
			}
			out = append(out, &tri)
		}
	}
	return out
}

// WriteSTL writes every mesh into a single binary STL file at path.
func WriteSTL(path string, meshes ...*kernel.Mesh) error {
	tris := Triangles(meshes...)
	if len(tris) == 0 {
		return fmt.Errorf("export: nothing to write")
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("export: writing %s: %w", path, err)
	}
	return nil
}

// EncodeSTL writes the binary STL for the meshes to w. It stages the file
// on disk because sdfx only saves to a path.
func EncodeSTL(w io.Writer, meshes ...*kernel.Mesh) error {
	f, err := os.CreateTemp("", "bird-*.stl")
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	if err := WriteSTL(path, meshes...); err != nil {
		return err
	}
	f, err = os.Open(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
