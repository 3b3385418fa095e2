package kernel

import "math"

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // "head" or "body"
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Bounds returns the axis-aligned bounds of the vertex positions.
// An empty mesh reports zero bounds.
func (m *Mesh) Bounds() (min, max [3]float64) {
	if m.IsEmpty() {
		return min, max
	}
	for i := 0; i < 3; i++ {
		min[i] = math.Inf(1)
		max[i] = math.Inf(-1)
	}
	for v := 0; v < m.VertexCount(); v++ {
		for i := 0; i < 3; i++ {
			c := float64(m.Vertices[v*3+i])
			min[i] = math.Min(min[i], c)
			max[i] = math.Max(max[i], c)
		}
	}
	return min, max
}

// Weld merges vertices that fall into the same tol-sized grid cell and
// drops triangles that collapse as a result. Marching cubes emits a
// triangle soup; welding turns it into an indexed mesh with shared
// vertices. Normals are recomputed on the result.
func (m *Mesh) Weld(tol float64) *Mesh {
	if tol <= 0 {
		tol = 1e-6
	}
	type key [3]int64
	remap := make(map[key]uint32, m.VertexCount())
	out := &Mesh{PartName: m.PartName}
	index := make([]uint32, m.VertexCount())

	for v := 0; v < m.VertexCount(); v++ {
		x, y, z := m.Vertices[v*3], m.Vertices[v*3+1], m.Vertices[v*3+2]
		k := key{
			int64(math.Round(float64(x) / tol)),
			int64(math.Round(float64(y) / tol)),
			int64(math.Round(float64(z) / tol)),
		}
		idx, ok := remap[k]
		if !ok {
			idx = uint32(out.VertexCount())
			remap[k] = idx
			out.Vertices = append(out.Vertices, x, y, z)
		}
		index[v] = idx
	}

	out.Indices = make([]uint32, 0, len(m.Indices))
	for t := 0; t < m.TriangleCount(); t++ {
		a := index[m.Indices[t*3]]
		b := index[m.Indices[t*3+1]]
		c := index[m.Indices[t*3+2]]
		if a == b || b == c || a == c {
			continue
		}
		out.Indices = append(out.Indices, a, b, c)
	}

	out.RecomputeNormals()
	return out
}

// RecomputeNormals replaces the vertex normals with the area-weighted
// average of the incident face normals.
func (m *Mesh) RecomputeNormals() {
	numVerts := m.VertexCount()
	acc := make([]float64, numVerts*3)

	for t := 0; t < m.TriangleCount(); t++ {
		i0 := m.Indices[t*3+0]
		i1 := m.Indices[t*3+1]
		i2 := m.Indices[t*3+2]

		a := m.position(i0)
		b := m.position(i1)
		c := m.position(i2)

		// Unnormalized face normal; its length is twice the triangle area.
		e1 := [3]float64{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
		e2 := [3]float64{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
		n := cross(e1, e2)

		for _, idx := range [3]uint32{i0, i1, i2} {
			acc[idx*3+0] += n[0]
			acc[idx*3+1] += n[1]
			acc[idx*3+2] += n[2]
		}
	}

	normals := make([]float32, numVerts*3)
	for i := 0; i < numVerts; i++ {
		nx, ny, nz := acc[i*3], acc[i*3+1], acc[i*3+2]
		length := math.Sqrt(nx*nx + ny*ny + nz*nz)
		if length > 1e-12 {
			normals[i*3+0] = float32(nx / length)
			normals[i*3+1] = float32(ny / length)
			normals[i*3+2] = float32(nz / length)
		}
	}
	m.Normals = normals
}

// Subdivide splits every triangle into four, levels times, sharing edge
// midpoints between neighbouring triangles so the mesh stays connected.
func (m *Mesh) Subdivide(levels int) *Mesh {
	out := m.clone()
	for l := 0; l < levels; l++ {
		out = out.subdivideOnce()
	}
	out.RecomputeNormals()
	return out
}

func (m *Mesh) subdivideOnce() *Mesh {
	out := &Mesh{PartName: m.PartName}
	out.Vertices = append(make([]float32, 0, len(m.Vertices)*4), m.Vertices...)
	out.Indices = make([]uint32, 0, len(m.Indices)*4)

	type edge [2]uint32
	midpoints := make(map[edge]uint32, len(m.Indices))
	midpoint := func(a, b uint32) uint32 {
		e := edge{a, b}
		if b < a {
			e = edge{b, a}
		}
		if idx, ok := midpoints[e]; ok {
			return idx
		}
		pa, pb := m.position(a), m.position(b)
		idx := uint32(out.VertexCount())
		out.Vertices = append(out.Vertices,
			float32((pa[0]+pb[0])/2),
			float32((pa[1]+pb[1])/2),
			float32((pa[2]+pb[2])/2),
		)
		midpoints[e] = idx
		return idx
	}

	for t := 0; t < m.TriangleCount(); t++ {
		a, b, c := m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]
		ab := midpoint(a, b)
		bc := midpoint(b, c)
		ca := midpoint(c, a)
		out.Indices = append(out.Indices,
			a, ab, ca,
			ab, b, bc,
			ca, bc, c,
			ab, bc, ca,
		)
	}
	return out
}

// Rotate returns a copy of the mesh rotated by Euler angles in degrees,
// using the same X then Y then Z convention as Kernel.Rotate. Positions
// and normals are both rotated.
func (m *Mesh) Rotate(x, y, z float64) *Mesh {
	r := RotationMatrix(x, y, z)
	out := m.clone()
	for v := 0; v < out.VertexCount(); v++ {
		p := r.Apply(m.position(uint32(v)))
		out.Vertices[v*3+0] = float32(p[0])
		out.Vertices[v*3+1] = float32(p[1])
		out.Vertices[v*3+2] = float32(p[2])
	}
	for v := 0; v < len(out.Normals)/3; v++ {
		n := r.Apply([3]float64{
			float64(m.Normals[v*3]), float64(m.Normals[v*3+1]), float64(m.Normals[v*3+2]),
		})
		out.Normals[v*3+0] = float32(n[0])
		out.Normals[v*3+1] = float32(n[1])
		out.Normals[v*3+2] = float32(n[2])
	}
	return out
}

// Matrix3 is a row-major 3x3 rotation matrix.
type Matrix3 [3][3]float64

// RotationMatrix returns Rz * Ry * Rx for the given angles in degrees.
func RotationMatrix(x, y, z float64) Matrix3 {
	sx, cx := sinCos(x)
	sy, cy := sinCos(y)
	sz, cz := sinCos(z)

	rx := Matrix3{{1, 0, 0}, {0, cx, -sx}, {0, sx, cx}}
	ry := Matrix3{{cy, 0, sy}, {0, 1, 0}, {-sy, 0, cy}}
	rz := Matrix3{{cz, -sz, 0}, {sz, cz, 0}, {0, 0, 1}}
	return rz.mul(ry).mul(rx)
}

// sinCos works in degrees and snaps quarter turns to exact values so that
// axis realignments do not leak rounding noise into vertex positions.
func sinCos(deg float64) (float64, float64) {
	if q := deg / 90; q == math.Trunc(q) {
		switch int(math.Mod(math.Mod(q, 4)+4, 4)) {
		case 0:
			return 0, 1
		case 1:
			return 1, 0
		case 2:
			return 0, -1
		default:
			return -1, 0
		}
	}
	return math.Sincos(deg * math.Pi / 180)
}

func (a Matrix3) mul(b Matrix3) Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out[i][j] += a[i][k] * b[k][j]
			}
		}
	}
	return out
}

// Apply rotates the point p.
func (a Matrix3) Apply(p [3]float64) [3]float64 {
	return [3]float64{
		a[0][0]*p[0] + a[0][1]*p[1] + a[0][2]*p[2],
		a[1][0]*p[0] + a[1][1]*p[1] + a[1][2]*p[2],
		a[2][0]*p[0] + a[2][1]*p[1] + a[2][2]*p[2],
	}
}

func (m *Mesh) position(i uint32) [3]float64 {
	return [3]float64{
		float64(m.Vertices[i*3]),
		float64(m.Vertices[i*3+1]),
		float64(m.Vertices[i*3+2]),
	}
}

func (m *Mesh) clone() *Mesh {
	return &Mesh{
		Vertices: append([]float32(nil), m.Vertices...),
		Normals:  append([]float32(nil), m.Normals...),
		Indices:  append([]uint32(nil), m.Indices...),
		PartName: m.PartName,
	}
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
