package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ersonp/connexions/internal/domain/services"
	"github.com/ersonp/connexions/internal/infrastructure/parsers"
)

// ImportHandler handles importing relationships from files.
type ImportHandler struct {
	service *services.ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(service *services.ImportService) *ImportHandler {
	return &ImportHandler{
		service: service,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format string // "json", "csv", or "auto"
	DryRun bool   // Validate without saving
	Track  bool   // Record activity for imported relationships
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported int
	Skipped  int
	Errors   []services.ImportError
}

// Handle imports relationships from a file.
func (h *ImportHandler) Handle(ctx context.Context, filePath string, opts ImportOptions) (*ImportResult, error) {
	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}

	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	return h.HandleReader(ctx, parser, file, opts)
}

// HandleReader imports relationships parsed from r.
func (h *ImportHandler) HandleReader(ctx context.Context, parser parsers.Parser, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	raws, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}

	if len(raws) == 0 {
		return &ImportResult{}, nil
	}

	serviceResult, err := h.service.Import(ctx, raws, services.ImportOptions{
		DryRun: opts.DryRun,
		Track:  opts.Track,
	})
	if err != nil {
		return nil, err
	}

	return &ImportResult{
		Imported: serviceResult.Imported,
		Skipped:  serviceResult.Skipped,
		Errors:   serviceResult.Errors,
	}, nil
}
