package main

import (
	"embed"
	"log"

	"github.com/chazu/birdomatic/pkg/bird"
	"github.com/chazu/birdomatic/pkg/config"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

//go:embed all:frontend/dist
var assets embed.FS

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger()
	bird.SetLogger(logger)

	_, flush, err := cfg.InitSentry(version)
	if err != nil {
		log.Printf("sentry init failed: %v", err)
	}
	defer flush()

	app := NewApp(config.NewKernel(cfg, logger), cfg.OutputDir)

	err = wails.Run(&options.App{
		Title:  "birdomatic",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup: app.startup,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		log.Fatalf("wails: %v", err)
	}
}
