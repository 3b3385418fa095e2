// Package preview draws a shaded orthographic picture of bird meshes.
//
// Triangles are painted back to front with flat Lambert shading. There is
// no depth buffer.
package preview

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/chazu/birdomatic/pkg/kernel"
	"github.com/gogpu/gg"
)

// Options controls the camera and colors.
type Options struct {
	Width, Height int

	// Camera orbit in degrees: Azimuth about display Y, then Elevation
	// about the view X axis.
	Azimuth   float64
	Elevation float64

	Background gg.RGBA
	// Colors by part name; parts not listed use Fallback.
	Colors   map[string]gg.RGBA
	Fallback gg.RGBA

	// Light direction in view space, towards the light.
	Light [3]float64
	// Ambient is the brightness of faces turned away from the light.
	Ambient float64
}

// DefaultOptions is a three-quarter view from slightly above.
func DefaultOptions() Options {
	return Options{
		Width:      640,
		Height:     480,
		Azimuth:    -30,
		Elevation:  20,
		Background: gg.RGB(0.96, 0.96, 0.94),
		Colors: map[string]gg.RGBA{
			"head": gg.RGB(0.93, 0.55, 0.20),
			"body": gg.RGB(0.35, 0.55, 0.80),
		},
		Fallback: gg.RGB(0.6, 0.6, 0.6),
		Light:    [3]float64{-0.4, 0.6, 1},
		Ambient:  0.25,
	}
}

type face struct {
	pts   [3][2]float64
	depth float64
	color gg.RGBA
}

// Render draws the meshes and writes a PNG to w.
func Render(w io.Writer, meshes []*kernel.Mesh, opts Options) error {
	dc, err := Draw(meshes, opts)
	if err != nil {
		return err
	}
	defer dc.Close()
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("preview: encoding png: %w", err)
	}
	return nil
}

// SavePNG draws the meshes into a PNG file.
func SavePNG(path string, meshes []*kernel.Mesh, opts Options) error {
	dc, err := Draw(meshes, opts)
	if err != nil {
		return err
	}
	defer dc.Close()
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("preview: saving %s: %w", path, err)
	}
	return nil
}

// Draw paints the meshes into a new context. The caller closes it.
func Draw(meshes []*kernel.Mesh, opts Options) (*gg.Context, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("preview: invalid size %dx%d", opts.Width, opts.Height)
	}

	yaw := kernel.RotationMatrix(0, opts.Azimuth, 0)
	pitch := kernel.RotationMatrix(opts.Elevation, 0, 0)
	light := normalize(opts.Light)

	var faces []face
	lo := [2]float64{math.Inf(1), math.Inf(1)}
	hi := [2]float64{math.Inf(-1), math.Inf(-1)}

	for _, m := range meshes {
		if m == nil || m.IsEmpty() {
			continue
		}
		base, ok := opts.Colors[m.PartName]
		if !ok {
			base = opts.Fallback
		}

		view := make([][3]float64, m.VertexCount())
		for v := range view {
			p := [3]float64{float64(m.Vertices[v*3]), float64(m.Vertices[v*3+1]), float64(m.Vertices[v*3+2])}
			view[v] = pitch.Apply(yaw.Apply(p))
			for i := 0; i < 2; i++ {
				lo[i] = math.Min(lo[i], view[v][i])
				hi[i] = math.Max(hi[i], view[v][i])
			}
		}

		for t := 0; t < m.TriangleCount(); t++ {
			a, b, c := view[m.Indices[t*3]], view[m.Indices[t*3+1]], view[m.Indices[t*3+2]]
			n := normalize(cross(sub(b, a), sub(c, a)))
			if n[2] < 0 {
				n = [3]float64{-n[0], -n[1], -n[2]}
			}
			shade := opts.Ambient + (1-opts.Ambient)*math.Max(0, dot(n, light))
			faces = append(faces, face{
				pts:   [3][2]float64{{a[0], a[1]}, {b[0], b[1]}, {c[0], c[1]}},
				depth: (a[2] + b[2] + c[2]) / 3,
				color: gg.RGB(base.R*shade, base.G*shade, base.B*shade),
			})
		}
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.ClearWithColor(opts.Background)
	if len(faces) == 0 {
		return dc, nil
	}

	// Fit the projected bounds with a margin, keeping the aspect ratio.
	const margin = 0.08
	spanX, spanY := math.Max(hi[0]-lo[0], 1e-9), math.Max(hi[1]-lo[1], 1e-9)
	scale := math.Min(
		float64(opts.Width)*(1-2*margin)/spanX,
		float64(opts.Height)*(1-2*margin)/spanY,
	)
	cx, cy := (lo[0]+hi[0])/2, (lo[1]+hi[1])/2
	screen := func(p [2]float64) (float64, float64) {
		return float64(opts.Width)/2 + (p[0]-cx)*scale,
			float64(opts.Height)/2 - (p[1]-cy)*scale
	}

	// Back to front: the viewer looks down -Z.
	sort.SliceStable(faces, func(i, j int) bool { return faces[i].depth < faces[j].depth })

	dc.SetLineWidth(0.75)
	for _, f := range faces {
		dc.SetRGB(f.color.R, f.color.G, f.color.B)
		dc.MoveTo(screen(f.pts[0]))
		dc.LineTo(screen(f.pts[1]))
		dc.LineTo(screen(f.pts[2]))
		dc.ClosePath()
		// The hairline stroke hides seams between neighbouring faces.
		if err := dc.FillPreserve(); err != nil {
			dc.Close()
			return nil, fmt.Errorf("preview: fill: %w", err)
		}
		if err := dc.Stroke(); err != nil {
			dc.Close()
			return nil, fmt.Errorf("preview: stroke: %w", err)
		}
	}
	return dc, nil
}

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize(v [3]float64) [3]float64 {
	l := math.Sqrt(dot(v, v))
	if l == 0 {
		return v
	}
	return [3]float64{v[0] / l, v[1] / l, v[2] / l}
}
