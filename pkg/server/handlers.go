package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/chazu/birdomatic/pkg/engine"
	"github.com/chazu/birdomatic/pkg/export"
	"github.com/chazu/birdomatic/pkg/kernel"
	"github.com/chazu/birdomatic/pkg/params"
	"github.com/chazu/birdomatic/pkg/preview"
	"github.com/chazu/birdomatic/pkg/tessellate"
	"github.com/gin-gonic/gin"
)

// maxBody caps request bodies; a full record is well under 1 KiB.
const maxBody = 64 << 10

type fieldInfo struct {
	params.FieldInfo
	Default float64 `json:"default"`
}

type fieldsResponse struct {
	Groups []params.Group `json:"groups"`
	Fields []fieldInfo    `json:"fields"`
}

type warning struct {
	Field   string  `json:"field"`
	Value   float64 `json:"value"`
	Message string  `json:"message"`
}

type generateResponse struct {
	Params   params.Record      `json:"params"`
	Script   string             `json:"script"`
	Warnings []warning          `json:"warnings"`
	Summary  tessellate.Summary `json:"summary"`
	Meshes   []*kernel.Mesh     `json:"meshes"`
}

type presetRequest struct {
	Source string `json:"source"`
}

type evalError struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GET /api/fields
func (s *Server) fields(c *gin.Context) {
	def := params.Defaults()
	resp := fieldsResponse{Groups: params.Groups()}
	for _, info := range params.Infos() {
		resp.Fields = append(resp.Fields, fieldInfo{FieldInfo: info, Default: def.Get(info.Field)})
	}
	c.JSON(http.StatusOK, resp)
}

// POST /api/generate
func (s *Server) generate(c *gin.Context) {
	rec, ok := s.bindRecord(c)
	if !ok {
		return
	}
	s.respondMeshes(c, rec)
}

// POST /api/preset
func (s *Server) preset(c *gin.Context) {
	var req presetRequest
	dec := json.NewDecoder(io.LimitReader(c.Request.Body, maxBody))
	if err := dec.Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON: " + err.Error()})
		return
	}

	rec, evalErrs, err := s.engine.EvaluateContext(c.Request.Context(), req.Source)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if len(evalErrs) > 0 {
		out := make([]evalError, len(evalErrs))
		for i, e := range evalErrs {
			out[i] = evalError{Line: e.Line, Col: e.Col, Message: e.Message}
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "preset failed to evaluate", "errors": out})
		return
	}
	s.respondMeshes(c, *rec)
}

// POST /api/export.stl
func (s *Server) exportSTL(c *gin.Context) {
	rec, ok := s.bindRecord(c)
	if !ok {
		return
	}
	meshes, ok := s.build(c, rec)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.EncodeSTL(&buf, meshes...); err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="bird.stl"`)
	c.Data(http.StatusOK, "model/stl", buf.Bytes())
}

// POST /api/preview.png?width=&height=&azimuth=&elevation=
func (s *Server) previewPNG(c *gin.Context) {
	opts, err := previewOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, ok := s.bindRecord(c)
	if !ok {
		return
	}
	meshes, ok := s.build(c, rec)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := preview.Render(&buf, meshes, opts); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// bindRecord decodes a partial record over the defaults. An empty body
// means the defaults. Unknown keys are rejected.
func (s *Server) bindRecord(c *gin.Context) (params.Record, bool) {
	rec := params.Defaults()
	dec := json.NewDecoder(io.LimitReader(c.Request.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record: " + err.Error()})
		return rec, false
	}
	return rec, true
}

// build tessellates rec, waiting for a free build slot.
func (s *Server) build(c *gin.Context, rec params.Record) ([]*kernel.Mesh, bool) {
	if err := s.builds.Acquire(c.Request.Context(), 1); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request cancelled while queued"})
		return nil, false
	}
	defer s.builds.Release(1)

	meshes, err := tessellate.Tessellate(rec, s.kernel)
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return meshes, true
}

func (s *Server) respondMeshes(c *gin.Context, rec params.Record) {
	meshes, ok := s.build(c, rec)
	if !ok {
		return
	}
	resp := generateResponse{
		Params:   rec,
		Script:   engine.Format(rec),
		Warnings: []warning{},
		Summary:  tessellate.Summarize(meshes),
		Meshes:   meshes,
	}
	for _, w := range engine.Warnings(rec) {
		resp.Warnings = append(resp.Warnings, warning{Field: w.Field.Key(), Value: w.Value, Message: w.Message})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) fail(c *gin.Context, err error) {
	captureError(c, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func previewOptions(c *gin.Context) (preview.Options, error) {
	opts := preview.DefaultOptions()
	ints := []struct {
		name string
		dst  *int
	}{{"width", &opts.Width}, {"height", &opts.Height}}
	for _, q := range ints {
		if raw := c.Query(q.name); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > 4096 {
				return opts, fmt.Errorf("%s: expected 1..4096, got %q", q.name, raw)
			}
			*q.dst = n
		}
	}
	floats := []struct {
		name string
		dst  *float64
	}{{"azimuth", &opts.Azimuth}, {"elevation", &opts.Elevation}}
	for _, q := range floats {
		if raw := c.Query(q.name); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return opts, fmt.Errorf("%s: expected a number, got %q", q.name, raw)
			}
			*q.dst = v
		}
	}
	return opts, nil
}
