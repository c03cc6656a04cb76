package main

import (
	"context"
	"embed"
	"fmt"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"gorm.io/gorm/logger"

	"genspecs/internal/database"
	"genspecs/internal/services"
	"genspecs/internal/utils"
	"genspecs/internal/web"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	if database.IsDevelopment() {
		if err := utils.LoadEnv(); err != nil {
			fmt.Println("No .env file loaded:", err)
		}
	}

	db, err := database.Init(database.Config{
		LogLevel: logger.Warn,
	})
	if err != nil {
		fmt.Println("Error opening database:", err)
		return
	}

	svc := services.NewServices(db)
	app := NewApp(svc)

	if sqlDB, err := db.DB(); err == nil {
		app.dbClose = sqlDB.Close
	}

	err = wails.Run(&options.App{
		Title:  "GenSpecs",
		Width:  1024,
		Height: 768,
		AssetServer: &assetserver.Options{
			Assets:  assets,
			Handler: web.NewHandler(nil),
		},
		Linux: &linux.Options{
			WindowIsTranslucent: false,
			WebviewGpuPolicy:    linux.WebviewGpuPolicyAlways,
			ProgramName:         "GenSpecs",
		},
		BackgroundColour: &options.RGBA{R: 250, G: 250, B: 250, A: 1},
		OnStartup: func(ctx context.Context) {
			app.startup(ctx)
			svc.Credentials.Startup(ctx)
			svc.Pipeline.Startup(ctx)
		},
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
			svc.Credentials,
			svc.Pipeline,
			svc.Downloads,
		},
	})

	if err != nil {
		println("Error:", err.Error())
	}
}
