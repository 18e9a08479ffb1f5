// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/connexions/internal/domain/ports"
	"github.com/ersonp/connexions/internal/domain/services"
	"github.com/ersonp/connexions/internal/infrastructure/config"
)

// StoreOpener opens the configured relational store with its schema in place.
type StoreOpener func(ctx context.Context, cfg *config.Config, basePath string) (ports.RelationalDB, error)

// InitHandler handles workspace initialization.
type InitHandler struct {
	open StoreOpener
}

// NewInitHandler creates a new init handler.
func NewInitHandler(open StoreOpener) *InitHandler {
	return &InitHandler{
		open: open,
	}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath  string
	Driver      string
	TypeCount   int
	GroupFormID int64
}

// Handle writes the default config, creates the schema, seeds the
// relationship types and creates the group form.
func (h *InitHandler) Handle(ctx context.Context, basePath string) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, fmt.Errorf("connexions already initialized in %s", basePath)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	db, err := h.open(ctx, cfg, basePath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	types := services.NewRelationTypeService(db)
	if err := types.LoadDefaults(ctx); err != nil {
		return nil, fmt.Errorf("seeding relationship types: %w", err)
	}
	if err := types.Register(ctx, cfg.Relationships.ExtraTypes); err != nil {
		return nil, fmt.Errorf("registering extra types: %w", err)
	}
	names, err := types.Names(ctx)
	if err != nil {
		return nil, err
	}

	groups := services.NewGroupService(db, db, nil, nil, nil, services.GroupConfig{FormTitle: cfg.Groups.FormTitle})
	formID, err := groups.Form(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating group form: %w", err)
	}

	return &InitResult{
		ConfigPath:  config.ConfigFilePath(basePath),
		Driver:      cfg.Storage.Driver,
		TypeCount:   len(names),
		GroupFormID: formID,
	}, nil
}
