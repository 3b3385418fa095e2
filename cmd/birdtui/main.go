// Command birdtui is a terminal editor for bird parameters.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/chazu/birdomatic/pkg/bird"
	"github.com/chazu/birdomatic/pkg/config"
	"github.com/chazu/birdomatic/pkg/engine"
	"github.com/chazu/birdomatic/pkg/tui"
	"github.com/gdamore/tcell/v2"
)

func main() {
	preset := flag.String("preset", "", "preset script to start from")
	logFile := flag.String("log", "", "write logs to this file")
	flag.Parse()

	if err := run(*preset, *logFile); err != nil {
		fmt.Fprintln(os.Stderr, "birdtui:", err)
		os.Exit(1)
	}
}

func run(preset, logFile string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The screen owns stdout and stderr, so logs go to a file or nowhere.
	var w io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	bird.SetLogger(logger)

	editor := tui.NewEditor(config.NewKernel(cfg, logger), cfg.OutputDir)
	if preset != "" {
		src, err := os.ReadFile(preset)
		if err != nil {
			return err
		}
		rec, evalErrs, err := engine.NewEngine().Evaluate(string(src))
		if err != nil {
			return err
		}
		if len(evalErrs) > 0 {
			return fmt.Errorf("%s: %w", preset, evalErrs[0])
		}
		editor.SetRecord(*rec)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	tui.NewApp(screen, editor, logger).Run()
	return nil
}
