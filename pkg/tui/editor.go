// Package tui is a terminal editor for bird parameters built on tcell.
package tui

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chazu/birdomatic/pkg/engine"
	"github.com/chazu/birdomatic/pkg/export"
	"github.com/chazu/birdomatic/pkg/kernel"
	"github.com/chazu/birdomatic/pkg/params"
	"github.com/chazu/birdomatic/pkg/preview"
	"github.com/chazu/birdomatic/pkg/tessellate"
)

// nudgeSteps is how many arrow presses cross a field's whole range.
const nudgeSteps = 50

// Output file names written into the editor's directory.
const (
	STLName    = "bird.stl"
	PNGName    = "bird.png"
	PresetName = "bird.lisp"
)

// Editor is the editing state, independent of any screen. The host owns
// the Record; generation always works on a copy.
type Editor struct {
	rec    params.Record
	cursor int

	kernel kernel.Kernel
	outDir string

	meshes  []*kernel.Mesh
	summary tessellate.Summary
	stale   bool
	status  string
}

// NewEditor starts from the defaults.
func NewEditor(k kernel.Kernel, outDir string) *Editor {
	return &Editor{
		rec:    params.Defaults(),
		kernel: k,
		outDir: outDir,
		stale:  true,
		status: "Enter to generate",
	}
}

// Record returns a copy of the edited record.
func (e *Editor) Record() params.Record { return e.rec }

// SetRecord replaces the edited record.
func (e *Editor) SetRecord(r params.Record) {
	e.rec = r
	e.stale = true
}

// Selected is the field under the cursor.
func (e *Editor) Selected() params.Field { return params.Field(e.cursor) }

// Move shifts the cursor by delta fields, wrapping around.
func (e *Editor) Move(delta int) {
	e.cursor = ((e.cursor+delta)%params.NumFields + params.NumFields) % params.NumFields
}

// Nudge steps the selected field by dir fiftieths of its range, clamped.
func (e *Editor) Nudge(dir int) {
	f := e.Selected()
	r := f.Range()
	v := r.Clamp(e.rec.Get(f) + float64(dir)*r.Span()/nudgeSteps)
	e.rec.Set(f, v)
	e.stale = true
	e.status = fmt.Sprintf("%s = %g", f.Label(), v)
}

// ResetField restores the selected field's default.
func (e *Editor) ResetField() {
	f := e.Selected()
	e.rec.Set(f, params.Defaults().Get(f))
	e.stale = true
	e.status = f.Label() + " reset"
}

// ResetAll restores every default.
func (e *Editor) ResetAll() {
	e.rec = params.Defaults()
	e.stale = true
	e.status = "all fields reset"
}

// Regenerate tessellates the current record.
func (e *Editor) Regenerate() error {
	meshes, err := tessellate.Tessellate(e.rec, e.kernel)
	if err != nil {
		e.status = "generation failed: " + err.Error()
		return err
	}
	e.apply(meshes)
	return nil
}

func (e *Editor) apply(meshes []*kernel.Mesh) {
	e.meshes = meshes
	e.summary = tessellate.Summarize(meshes)
	e.stale = false
	e.status = e.summary.String()
}

// ensureMeshes regenerates if the record changed since the last build.
func (e *Editor) ensureMeshes() error {
	if !e.stale && e.meshes != nil {
		return nil
	}
	return e.Regenerate()
}

// SaveSTL writes the current bird to STLName and returns the path.
func (e *Editor) SaveSTL() (string, error) {
	return e.save(STLName, func(path string) error {
		return export.WriteSTL(path, e.meshes...)
	})
}

// SavePNG writes a preview of the current bird to PNGName.
func (e *Editor) SavePNG() (string, error) {
	return e.save(PNGName, func(path string) error {
		return preview.SavePNG(path, e.meshes, preview.DefaultOptions())
	})
}

// SavePreset writes the record as a preset script to PresetName.
func (e *Editor) SavePreset() (string, error) {
	path := filepath.Join(e.outDir, PresetName)
	if err := os.WriteFile(path, []byte(engine.Format(e.rec)), 0o644); err != nil {
		e.status = "save failed: " + err.Error()
		return "", err
	}
	e.status = "wrote " + path
	return path, nil
}

func (e *Editor) save(name string, write func(path string) error) (string, error) {
	if err := e.ensureMeshes(); err != nil {
		return "", err
	}
	path := filepath.Join(e.outDir, name)
	if err := write(path); err != nil {
		e.status = "save failed: " + err.Error()
		return "", err
	}
	e.status = "wrote " + path
	return path, nil
}

// Status is the message shown on the bottom line.
func (e *Editor) Status() string { return e.status }
