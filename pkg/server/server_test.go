package server

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chazu/birdomatic/pkg/kernel/sdfx"
	"github.com/chazu/birdomatic/pkg/params"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter() *gin.Engine {
	s := New(sdfx.New(sdfx.WithMeshCells(24)),
		WithLogger(slog.New(slog.DiscardHandler)),
		WithMaxBuilds(2))
	return s.SetupRouter(false)
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(t, newRouter(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestFields(t *testing.T) {
	w := do(t, newRouter(), http.MethodGet, "/api/fields", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Groups []string `json:"groups"`
		Fields []struct {
			Key     string  `json:"key"`
			Label   string  `json:"label"`
			Group   string  `json:"group"`
			Default float64 `json:"default"`
			Range   struct {
				Min float64 `json:"min"`
				Max float64 `json:"max"`
			} `json:"range"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Groups, 6)
	require.Len(t, resp.Fields, params.NumFields)

	first := resp.Fields[0]
	assert.Equal(t, "beak_length", first.Key)
	assert.Equal(t, "Beak Length", first.Label)
	assert.Equal(t, "beak", first.Group)
	assert.Equal(t, params.Defaults().BeakLength, first.Default)
	assert.Equal(t, 50.0, first.Range.Max)
}

type generated struct {
	Params   params.Record `json:"params"`
	Script   string        `json:"script"`
	Warnings []struct {
		Field string `json:"field"`
	} `json:"warnings"`
	Summary struct {
		Parts     int `json:"parts"`
		Triangles int `json:"triangles"`
	} `json:"summary"`
	Meshes []struct {
		PartName string    `json:"partName"`
		Vertices []float32 `json:"vertices"`
		Indices  []uint32  `json:"indices"`
	} `json:"meshes"`
}

func TestGenerate(t *testing.T) {
	w := do(t, newRouter(), http.MethodPost, "/api/generate", `{"tail_pitch": 120}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp generated
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	want := params.Defaults()
	want.TailPitch = 120
	assert.Equal(t, want, resp.Params, "missing fields take their defaults")
	assert.Contains(t, resp.Script, ":tail-pitch 120")

	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, "tail_pitch", resp.Warnings[0].Field)

	require.Len(t, resp.Meshes, 2)
	assert.Equal(t, "head", resp.Meshes[0].PartName)
	assert.Equal(t, "body", resp.Meshes[1].PartName)
	assert.Equal(t, 2, resp.Summary.Parts)
	assert.Equal(t, resp.Summary.Triangles, (len(resp.Meshes[0].Indices)+len(resp.Meshes[1].Indices))/3)
}

func TestGenerateEmptyBody(t *testing.T) {
	w := do(t, newRouter(), http.MethodPost, "/api/generate", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp generated
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, params.Defaults(), resp.Params)
	assert.Empty(t, resp.Warnings)
}

func TestGenerateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name, body string
	}{
		{"unknown field", `{"wing_span": 3}`},
		{"wrong type", `{"eye_size": "big"}`},
		{"malformed", `{"eye_size": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, newRouter(), http.MethodPost, "/api/generate", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "invalid record")
		})
	}
}

func TestPreset(t *testing.T) {
	body := `{"source": "(bird :eye-size 7 :base-flat -100)"}`
	w := do(t, newRouter(), http.MethodPost, "/api/preset", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp generated
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 7.0, resp.Params.EyeSize)
	assert.Equal(t, float64(params.BaseFlatDisabled), resp.Params.BaseFlat)
	assert.Len(t, resp.Meshes, 2)
}

func TestPresetOverlappingRequests(t *testing.T) {
	r := newRouter()

	// A slow preset that starts first, then quick ones that finish while it
	// is still evaluating. Every client gets its own bird back.
	slow := `{"source": "(def b (defaults)) (def i 0) (for [(set i 0) (< i 20000) (set i (+ i 1))] (def b (bird-with b :beak-length 12))) b"}`
	const quick = 6

	codes := make([]int, quick+1)
	bodies := make([]string, quick+1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w := do(t, r, http.MethodPost, "/api/preset", slow)
		codes[0], bodies[0] = w.Code, w.Body.String()
	}()
	time.Sleep(20 * time.Millisecond)
	for i := 1; i <= quick; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := fmt.Sprintf(`{"source": "(bird :beak-length %d)"}`, 20+i)
			w := do(t, r, http.MethodPost, "/api/preset", body)
			codes[i], bodies[i] = w.Code, w.Body.String()
		}(i)
	}
	wg.Wait()

	for i := range codes {
		require.Equal(t, http.StatusOK, codes[i], "client %d: %s", i, bodies[i])
		var resp generated
		require.NoError(t, json.Unmarshal([]byte(bodies[i]), &resp))
		want := float64(20 + i)
		if i == 0 {
			want = 12
		}
		assert.Equal(t, want, resp.Params.BeakLength, "client %d", i)
	}
}

func TestPresetErrors(t *testing.T) {
	w := do(t, newRouter(), http.MethodPost, "/api/preset", `{"source": "(bird :wing-span 3)"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Errors)
	assert.Contains(t, resp.Errors[0].Message, "unknown field")

	w = do(t, newRouter(), http.MethodPost, "/api/preset", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportSTL(t *testing.T) {
	w := do(t, newRouter(), http.MethodPost, "/api/export.stl", `{}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "model/stl", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "bird.stl")

	data := w.Body.Bytes()
	require.Greater(t, len(data), 84)
	n := binary.LittleEndian.Uint32(data[80:84])
	assert.Positive(t, n)
	assert.Equal(t, 84+50*int(n), len(data))
}

func TestPreviewPNG(t *testing.T) {
	w := do(t, newRouter(), http.MethodPost, "/api/preview.png?width=120&height=90&azimuth=45", `{"eye_size": 6}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 90, img.Bounds().Dy())
}

func TestPreviewRejectsBadQuery(t *testing.T) {
	for _, q := range []string{"width=0", "height=huge", "elevation=up"} {
		t.Run(q, func(t *testing.T) {
			w := do(t, newRouter(), http.MethodPost, "/api/preview.png?"+q, `{}`)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRecoveryReturns500(t *testing.T) {
	s := New(sdfx.New(), WithLogger(slog.New(slog.DiscardHandler)))
	r := s.SetupRouter(false)
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := do(t, r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "request_id")
}
