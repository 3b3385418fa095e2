package tui

import (
	"log/slog"

	"github.com/chazu/birdomatic/pkg/kernel"
	"github.com/gdamore/tcell/v2"
)

// generated carries a background build back to the event loop.
type generated struct {
	meshes []*kernel.Mesh
	err    error
	// seq identifies the edit the build started from.
	seq int
}

// App binds an Editor to a screen.
type App struct {
	screen tcell.Screen
	editor *Editor
	log    *slog.Logger

	seq      int
	building bool
}

// NewApp creates an App. The screen must already be initialized.
func NewApp(screen tcell.Screen, editor *Editor, log *slog.Logger) *App {
	if log == nil {
		log = slog.Default()
	}
	return &App{screen: screen, editor: editor, log: log}
}

// Run processes events until the user quits.
func (a *App) Run() {
	a.editor.Draw(a.screen)
	for {
		ev := a.screen.PollEvent()
		if ev == nil {
			return
		}
		if !a.HandleEvent(ev) {
			return
		}
		a.editor.Draw(a.screen)
	}
}

// HandleEvent applies one event and reports whether to keep running.
func (a *App) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return a.handleKey(ev)
	case *tcell.EventResize:
		a.screen.Sync()
	case *tcell.EventInterrupt:
		if res, ok := ev.Data().(generated); ok {
			a.finishBuild(res)
		}
	}
	return true
}

func (a *App) handleKey(ev *tcell.EventKey) bool {
	e := a.editor
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		e.Move(-1)
	case tcell.KeyDown:
		e.Move(1)
	case tcell.KeyLeft:
		e.Nudge(-1)
		a.seq++
	case tcell.KeyRight:
		e.Nudge(1)
		a.seq++
	case tcell.KeyEnter:
		a.startBuild()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case 'r':
			e.ResetField()
			a.seq++
		case 'R':
			e.ResetAll()
			a.seq++
		case 's':
			a.report(e.SaveSTL())
		case 'p':
			a.report(e.SavePNG())
		case 'w':
			a.report(e.SavePreset())
		}
	}
	return true
}

// startBuild generates off the event loop and posts the result back.
func (a *App) startBuild() {
	if a.building {
		return
	}
	a.building = true
	a.editor.status = "generating..."
	rec, k, seq := a.editor.rec, a.editor.kernel, a.seq
	go func() {
		ed := &Editor{rec: rec, kernel: k}
		err := ed.Regenerate()
		a.screen.PostEvent(tcell.NewEventInterrupt(generated{meshes: ed.meshes, err: err, seq: seq}))
	}()
}

func (a *App) finishBuild(res generated) {
	a.building = false
	if res.err != nil {
		a.editor.status = "generation failed: " + res.err.Error()
		a.log.Error("generation failed", "err", res.err)
		return
	}
	a.editor.apply(res.meshes)
	if res.seq != a.seq {
		// Edited while building.
		a.editor.stale = true
	}
	a.log.Debug("generated", "summary", a.editor.summary.String())
}

func (a *App) report(path string, err error) {
	if err != nil {
		a.log.Error("save failed", "err", err)
		return
	}
	a.log.Info("saved", "path", path)
}
