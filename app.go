package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/chazu/birdomatic/pkg/config"
	"github.com/chazu/birdomatic/pkg/engine"
	"github.com/chazu/birdomatic/pkg/export"
	"github.com/chazu/birdomatic/pkg/kernel"
	"github.com/chazu/birdomatic/pkg/params"
	"github.com/chazu/birdomatic/pkg/preview"
	"github.com/chazu/birdomatic/pkg/tessellate"
)

// partColors assigns the frontend color of each part.
var partColors = map[string]string{
	"head": "#E67E22",
	"body": "#4A90D9",
}

const fallbackColor = "#9B9B9B"

// App is the Wails backend. It exposes methods to the frontend via bindings.
// It owns the one Record being edited; generation works on snapshots.
type App struct {
	ctx    context.Context
	engine *engine.Engine
	kernel kernel.Kernel
	outDir string

	mu  sync.Mutex
	rec params.Record
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable error or warning for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// FieldData describes one slider.
type FieldData struct {
	Key         string  `json:"key"`
	Label       string  `json:"label"`
	Group       string  `json:"group"`
	Description string  `json:"description"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Step        float64 `json:"step"`
	Default     float64 `json:"default"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Params   map[string]float64 `json:"params"`
	Meshes   []MeshData         `json:"meshes"`
	Errors   []EvalErrorData    `json:"errors"`
	Warnings []EvalErrorData    `json:"warnings"`
	Summary  string             `json:"summary"`
}

// NewApp creates an App generating with k and exporting into outDir.
func NewApp(k kernel.Kernel, outDir string) *App {
	return &App{
		engine: engine.NewEngine(),
		kernel: k,
		outDir: outDir,
		rec:    params.Defaults(),
	}
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	log.Printf("birdomatic started, exporting to %s", a.outDir)
}

func newResult() EvalResult {
	return EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}
}

func (a *App) snapshot() params.Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rec
}

// Fields lists the slider metadata in editor order.
func (a *App) Fields() []FieldData {
	def := params.Defaults()
	out := make([]FieldData, 0, params.NumFields)
	for _, info := range params.Infos() {
		out = append(out, FieldData{
			Key:         info.Key,
			Label:       info.Label,
			Group:       string(info.Group),
			Description: info.Description,
			Min:         info.Range.Min,
			Max:         info.Range.Max,
			Step:        info.Range.Span() / 100,
			Default:     def.Get(info.Field),
		})
	}
	return out
}

// Params returns the current record keyed by field.
func (a *App) Params() map[string]float64 {
	return a.snapshot().Map()
}

// SetField updates one field. Values outside the range are kept; the
// next Generate reports them as warnings.
func (a *App) SetField(key string, value float64) error {
	f, ok := params.Lookup(key)
	if !ok {
		return fmt.Errorf("unknown field %q", key)
	}
	a.mu.Lock()
	a.rec.Set(f, value)
	a.mu.Unlock()
	return nil
}

// Reset restores the defaults.
func (a *App) Reset() map[string]float64 {
	a.mu.Lock()
	a.rec = params.Defaults()
	a.mu.Unlock()
	return a.Params()
}

// Generate builds meshes from a snapshot of the current record.
func (a *App) Generate() EvalResult {
	return a.generate(a.snapshot())
}

func (a *App) generate(rec params.Record) EvalResult {
	result := newResult()
	result.Params = rec.Map()

	for _, w := range engine.Warnings(rec) {
		result.Warnings = append(result.Warnings, EvalErrorData{Field: w.Field.Key(), Message: w.Message})
	}

	meshes, err := tessellate.Tessellate(rec, a.kernel)
	if err != nil {
		log.Printf("Tessellate error: %v", err)
		config.Report(err)
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}

	for _, m := range meshes {
		color, ok := partColors[m.PartName]
		if !ok {
			color = fallbackColor
		}
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    color,
		})
	}
	result.Summary = tessellate.Summarize(meshes).String()
	return result
}

// LoadScript evaluates a preset, makes it the current record and
// generates it. On errors the current record is left alone.
func (a *App) LoadScript(source string) EvalResult {
	rec, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result := newResult()
		result.Params = a.Params()
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		result := newResult()
		result.Params = a.Params()
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	a.mu.Lock()
	a.rec = *rec
	a.mu.Unlock()
	return a.generate(*rec)
}

// Script returns the current record as a preset.
func (a *App) Script() string {
	return engine.Format(a.snapshot())
}

// ExportSTL writes the current bird to path, or to bird.stl in the output
// directory when path is empty. It returns the path written.
func (a *App) ExportSTL(path string) (string, error) {
	if path == "" {
		path = filepath.Join(a.outDir, "bird.stl")
	}
	meshes, err := tessellate.Tessellate(a.snapshot(), a.kernel)
	if err != nil {
		config.Report(err)
		return "", err
	}
	if err := export.WriteSTL(path, meshes...); err != nil {
		config.Report(err)
		return "", err
	}
	log.Printf("exported %s", path)
	return path, nil
}

// Preview renders the current bird as a PNG data URL.
func (a *App) Preview(width, height int) (string, error) {
	meshes, err := tessellate.Tessellate(a.snapshot(), a.kernel)
	if err != nil {
		return "", err
	}
	opts := preview.DefaultOptions()
	if width > 0 && height > 0 {
		opts.Width, opts.Height = width, height
	}
	var buf bytes.Buffer
	if err := preview.Render(&buf, meshes, opts); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
