package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/campuskit/portal-api/internal/legacy"
	"github.com/campuskit/portal-api/internal/repository"
	"github.com/campuskit/portal-api/pkg/config"
	"github.com/campuskit/portal-api/pkg/database"
	"github.com/campuskit/portal-api/pkg/logger"
)

func main() {
	path := flag.String("file", "data.json", "path to the legacy data.json export")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	data := legacy.Load(*path)
	logr.Info("legacy dataset loaded",
		zap.String("file", *path),
		zap.Int("users", len(data.Users)),
		zap.Int("attendance", len(data.Attendance)))

	importer := legacy.NewImporter(
		repository.NewUserRepository(db),
		repository.NewStudentProfileRepository(db),
		repository.NewAttendanceRepository(db),
		repository.NewResultRepository(db),
		repository.NewMaterialRepository(db),
		repository.NewResourceRepository(db),
		logr,
	)

	summary, err := importer.Run(context.Background(), data)
	if err != nil {
		logr.Fatal("import failed", zap.Error(err))
	}

	logr.Info("import finished",
		zap.Int("users", summary.Users),
		zap.Int("profiles", summary.Profiles),
		zap.Int("attendance", summary.Attendance),
		zap.Int("results", summary.Results),
		zap.Int("materials", summary.Materials),
		zap.Int("resources", summary.Resources),
		zap.Int("skipped", summary.Skipped))
}
