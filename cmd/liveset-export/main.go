package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/liveset/internal/config"
	"github.com/claude/liveset/internal/export"
	"github.com/claude/liveset/internal/models"
	"github.com/claude/liveset/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	output := flag.String("output", "exercises.csv", "CSV file to write, or - for stdout")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("liveset-export", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := storage.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	exercises, err := db.ListExercises(ctx)
	if err != nil {
		log.Error("failed to list exercises", "error", err)
		os.Exit(1)
	}

	if err := write(*output, exercises); err != nil {
		log.Error("export failed", "output", *output, "error", err)
		os.Exit(1)
	}
	log.Info("export complete", "output", *output, "exercises", len(exercises))
}

func write(path string, exercises []models.CatalogExercise) error {
	if path == "-" {
		return export.WriteCatalogCSV(os.Stdout, exercises)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := export.WriteCatalogCSV(f, exercises); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
