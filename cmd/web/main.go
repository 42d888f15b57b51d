package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"drivertree/internal/app"
	"drivertree/internal/infrastructure"
	"drivertree/pkg/contracts"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	version := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	ctx := context.Background()

	application, err := app.NewApplication(ctx, *configFile)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = application.Run(ctx)
	_ = infrastructure.CloseLogFile()
	if err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
