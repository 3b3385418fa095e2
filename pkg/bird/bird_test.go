package bird

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/chazu/birdomatic/pkg/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Construction order
// =============================================================================

func TestHeadStructure(t *testing.T) {
	tests := []struct {
		name  string
		rec   params.Record
		shape string
	}{
		{
			name:  "defaults",
			rec:   params.Defaults(),
			shape: "union(union(hull(union(sphere,cylinder)),sphere),mirror(sphere))",
		},
		{
			name:  "no eyes",
			rec:   params.Defaults().With(params.EyeSize, 0),
			shape: "hull(union(sphere,cylinder))",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := &recorder{}
			_, err := Head(k, tt.rec)
			require.NoError(t, err)
			assert.Equal(t, tt.shape, k.last().shape())
		})
	}
}

func TestBodyStructure(t *testing.T) {
	const loft = "union(union(hull(union(sphere,sphere)),hull(union(sphere,sphere))),hull(union(sphere,cylinder)))"

	tests := []struct {
		name     string
		baseFlat float64
		shape    string
	}{
		{"base cut", 50, "difference(" + loft + ",box)"},
		{"lowest cut", -99.5, "difference(" + loft + ",box)"},
		{"disabled", params.BaseFlatDisabled, loft},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := &recorder{}
			_, err := Body(k, params.Defaults().With(params.BaseFlat, tt.baseFlat))
			require.NoError(t, err)
			assert.Equal(t, tt.shape, k.last().shape())
		})
	}
}

func TestEveryBooleanIsRenormalized(t *testing.T) {
	k := &recorder{}
	_, _, err := Generate(k, params.Defaults())
	require.NoError(t, err)
	require.Len(t, k.meshed, 2)

	for _, root := range k.meshed {
		assert.Equal(t, "renormalize", root.op, "meshed solid must be renormalized")
		root.walk(nil, func(n, parent *node) {
			switch n.op {
			case "union", "difference":
				require.NotNil(t, parent)
				assert.Equal(t, "renormalize", parent.op, "%s must be renormalized", n.op)
			case "hull":
				require.NotNil(t, parent)
				assert.Contains(t, []string{"renormalize", "scale"}, parent.op)
			}
		})
	}
}

// =============================================================================
// Parameters reaching the kernel
// =============================================================================

func TestBeakTipEpsilon(t *testing.T) {
	tests := []struct {
		name  string
		width float64
		want  float64
	}{
		{"positive width", 5, 5},
		{"zero width", 0, Epsilon},
		{"negative width", -2, Epsilon},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := &recorder{}
			_, err := Head(k, params.Defaults().With(params.BeakWidth, tt.width))
			require.NoError(t, err)

			cyl := k.last().find("cylinder")
			require.Len(t, cyl, 1)
			assert.Equal(t, []float64{Epsilon, Epsilon, tt.want, 4}, cyl[0].args)
		})
	}
}

func TestTailEpsilon(t *testing.T) {
	k := &recorder{}
	_, err := Body(k, params.Defaults().With(params.TailWidth, 0))
	require.NoError(t, err)

	cyl := k.last().find("cylinder")
	require.Len(t, cyl, 1)
	assert.Equal(t, Epsilon, cyl[0].args[2])
	assert.Equal(t, Epsilon, cyl[0].args[1], "tail bottom radius is pinned to Epsilon")
}

func TestEyesMirroredAcrossSagittalPlane(t *testing.T) {
	k := &recorder{}
	_, err := Head(k, params.Defaults())
	require.NoError(t, err)

	mirrors := k.last().find("mirror")
	require.Len(t, mirrors, 1)
	assert.Equal(t, []float64{0, 1, 0, 0}, mirrors[0].args)

	spheres := k.last().find("sphere")
	require.Len(t, spheres, 3)
	assert.Equal(t, 11.0, spheres[0].args[0], "skull radius is half the head size")
	assert.Equal(t, 2.5, spheres[1].args[0], "eye radius is half the eye size")
}

func TestChestScale(t *testing.T) {
	k := &recorder{}
	_, err := Body(k, params.Defaults())
	require.NoError(t, err)

	var chestScale []float64
	k.last().walk(nil, func(n, parent *node) {
		if n.op == "sphere" && n.args[0] == 20 && parent.op == "scale" {
			chestScale = parent.args
		}
	})
	assert.Equal(t, []float64{1.5, 0.9, 1}, chestScale)
}

func TestZeroBellySizeStaysFinite(t *testing.T) {
	k := &recorder{}
	_, err := Body(k, params.Defaults().With(params.BellySize, 0))
	require.NoError(t, err)

	k.last().walk(nil, func(n, _ *node) {
		for _, a := range n.args {
			assert.False(t, math.IsInf(a, 0) || math.IsNaN(a), "%s has non-finite argument", n.op)
		}
	})
}

func TestZeroBellySizeIsLogged(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	k := &recorder{}
	_, err := Body(k, params.Defaults().With(params.BellySize, 0))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "belly size substituted")

	var chestScale []float64
	k.last().walk(nil, func(n, parent *node) {
		if n.op == "sphere" && n.args[0] == 0 && parent.op == "scale" {
			chestScale = parent.args
		}
	})
	require.NotNil(t, chestScale)
	assert.Equal(t, params.Defaults().BellyLength/Epsilon, chestScale[0], "length is divided by Epsilon")

	buf.Reset()
	_, err = Body(&recorder{}, params.Defaults())
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "belly size substituted")
}

func TestBaseSlabPlacement(t *testing.T) {
	k := &recorder{}
	p := params.Defaults()
	_, err := Body(k, p)
	require.NoError(t, err)

	var box, placed *node
	k.last().walk(nil, func(n, parent *node) {
		if n.op == "box" {
			box, placed = n, parent
		}
	})
	require.NotNil(t, box)
	assert.Equal(t, []float64{1220, 1220, 40}, box.args)
	require.Equal(t, "translate", placed.op)
	assert.Equal(t, []float64{0, 0, -30}, placed.args)

	height, ok := BaseHeight(p)
	assert.True(t, ok)
	assert.Equal(t, -10.0, height)

	_, ok = BaseHeight(p.With(params.BaseFlat, params.BaseFlatDisabled))
	assert.False(t, ok)
}

// =============================================================================
// Output
// =============================================================================

func TestMeshesAreReoriented(t *testing.T) {
	k := &recorder{}
	head, body, err := Generate(k, params.Defaults())
	require.NoError(t, err)

	assert.Equal(t, PartHead, head.PartName)
	assert.Equal(t, PartBody, body.PartName)

	// (x, y, z) becomes (-x, z, y).
	assert.Equal(t, []float32{0, 0, 0, -1, 0, 0, 0, 0, 1}, body.Vertices)
	assert.Equal(t, []float32{0, 1, 0, 0, 1, 0, 0, 1, 0}, body.Normals)

	// The head is subdivided once before reorienting.
	assert.Equal(t, 4, head.TriangleCount())
}

func TestGeneratorsDoNotMutateRecord(t *testing.T) {
	p := params.Defaults()
	before := p
	_, _, err := Generate(&recorder{}, p)
	require.NoError(t, err)
	assert.Equal(t, before, p)
}

func TestLogger(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	assert.False(t, Logger().Enabled(t.Context(), slog.LevelDebug), "generators are silent by default")

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	_, err := Head(&recorder{}, params.Defaults().With(params.BeakWidth, 0))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "part=head")
	assert.Contains(t, out, "beak tip radius substituted")
	assert.Contains(t, out, "head meshed")

	SetLogger(nil)
	assert.False(t, Logger().Enabled(t.Context(), slog.LevelDebug))
}
