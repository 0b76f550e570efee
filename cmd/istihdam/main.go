// Command istihdam は求人ポータルのAPIサーバー・ワーカー・管理コマンドを提供する。
package main

import (
	"log/slog"
	"os"

	"github.com/hitoshi/istihdam/internal/app"
	"github.com/hitoshi/istihdam/internal/config"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("application exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
