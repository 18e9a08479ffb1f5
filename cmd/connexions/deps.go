package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ersonp/connexions/internal/application/handlers"
	"github.com/ersonp/connexions/internal/domain/ports"
	"github.com/ersonp/connexions/internal/domain/services"
	"github.com/ersonp/connexions/internal/infrastructure/activity"
	"github.com/ersonp/connexions/internal/infrastructure/config"
	"github.com/ersonp/connexions/internal/infrastructure/logger"
	"github.com/ersonp/connexions/internal/infrastructure/metrics"
	"github.com/ersonp/connexions/internal/infrastructure/relationaldb"
	"github.com/ersonp/connexions/internal/infrastructure/sanitizer"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config        *config.Config
	Logger        *zap.Logger
	Relationships *handlers.RelationshipHandler
	Groups        *handlers.GroupHandler
	Profiles      *handlers.ProfileHandler
	Users         *handlers.UserHandler
	Types         *handlers.TypesHandler
	Import        *handlers.ImportHandler
	Export        *handlers.ExportHandler
}

// internalDeps holds all dependencies including low-level components.
// Used by commands that need the store or the metrics registry.
type internalDeps struct {
	Deps
	db       ports.RelationalDB
	metrics  *metrics.Collector
	registry *prometheus.Registry
}

// workDir returns the directory holding .connexions.
func workDir() (string, error) {
	if globalDir != "" {
		return globalDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return cwd, nil
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	return withInternalDeps(ctx, func(d *internalDeps) error {
		return fn(&d.Deps)
	})
}

// withInternalDeps provides access to all dependencies including low-level components.
func withInternalDeps(ctx context.Context, fn func(*internalDeps) error) error {
	basePath, err := workDir()
	if err != nil {
		return err
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync(log)

	db, err := relationaldb.Open(ctx, cfg, basePath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	d, err := buildDeps(ctx, cfg, db, log)
	if err != nil {
		return err
	}
	return fn(d)
}

// buildDeps wires services and handlers over an open store.
func buildDeps(ctx context.Context, cfg *config.Config, db ports.RelationalDB, log *zap.Logger) (*internalDeps, error) {
	types := services.NewRelationTypeService(db)
	// Seeding skips stored types, so stores created before a type was added catch up here.
	if err := types.LoadDefaults(ctx); err != nil {
		return nil, fmt.Errorf("seeding relationship types: %w", err)
	}
	if err := types.Register(ctx, cfg.Relationships.ExtraTypes); err != nil {
		return nil, fmt.Errorf("registering extra types: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	tracker := activity.NewTracker(db, log)
	users := services.NewUserService(db)

	relationships := services.NewRelationshipService(db, db, types, tracker, log)
	relationships.SetMetrics(collector)

	groups := services.NewGroupService(db, db, tracker, sanitizer.New(), log, services.GroupConfig{
		FormTitle:        cfg.Groups.FormTitle,
		MaxUpdateRetries: cfg.Groups.MaxUpdateRetries,
	})
	groups.SetMetrics(collector)

	merge := services.NewMergeService(relationships, groups, db, db, tracker, log)
	merge.SetMetrics(collector)

	return &internalDeps{
		Deps: Deps{
			Config:        cfg,
			Logger:        log,
			Relationships: handlers.NewRelationshipHandler(relationships, users),
			Groups:        handlers.NewGroupHandler(groups),
			Profiles:      handlers.NewProfileHandler(relationships, groups, users),
			Users:         handlers.NewUserHandler(users, merge, db),
			Types:         handlers.NewTypesHandler(types),
			Import:        handlers.NewImportHandler(services.NewImportService(relationships, db, types)),
			Export:        handlers.NewExportHandler(relationships, users),
		},
		db:       db,
		metrics:  collector,
		registry: registry,
	}, nil
}
