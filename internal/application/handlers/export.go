package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ersonp/connexions/internal/domain/entities"
	"github.com/ersonp/connexions/internal/domain/services"
)

// ExportFormats lists the supported export formats.
var ExportFormats = []string{"json", "csv"}

// ExportHandler writes every logical relationship to a file format.
type ExportHandler struct {
	relationships *services.RelationshipService
	users         *services.UserService
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(relationships *services.RelationshipService, users *services.UserService) *ExportHandler {
	return &ExportHandler{
		relationships: relationships,
		users:         users,
	}
}

// ExportedRelationship is one exported row. The CSV form can be imported again.
type ExportedRelationship struct {
	Type   entities.RelationType `json:"type"`
	UserA  entities.UserID       `json:"user_a"`
	UserB  entities.UserID       `json:"user_b"`
	EmailA string                `json:"user_a_email,omitempty"`
	EmailB string                `json:"user_b_email,omitempty"`
}

// Handle writes all logical relationships to w and returns how many were written.
func (h *ExportHandler) Handle(ctx context.Context, w io.Writer, format string) (int, error) {
	rows, err := h.rows(ctx)
	if err != nil {
		return 0, err
	}

	switch format {
	case "json":
		err = formatJSON(w, rows)
	case "csv":
		err = formatCSV(w, rows)
	default:
		return 0, fmt.Errorf("invalid format %q, valid formats: %v", format, ExportFormats)
	}
	if err != nil {
		return 0, fmt.Errorf("formatting output: %w", err)
	}
	return len(rows), nil
}

func (h *ExportHandler) rows(ctx context.Context) ([]ExportedRelationship, error) {
	rels, err := h.relationships.ListLogical(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[entities.UserID]bool)
	ids := make([]entities.UserID, 0, len(rels)*2)
	for _, r := range rels {
		for _, id := range []entities.UserID{r.UserA, r.UserB} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	users, err := h.users.ResolveMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	rows := make([]ExportedRelationship, 0, len(rels))
	for _, r := range rels {
		row := ExportedRelationship{Type: r.Type, UserA: r.UserA, UserB: r.UserB}
		if u, ok := users[r.UserA]; ok {
			row.EmailA = u.Email
		}
		if u, ok := users[r.UserB]; ok {
			row.EmailB = u.Email
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func formatJSON(w io.Writer, rows []ExportedRelationship) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rows)
}

func formatCSV(w io.Writer, rows []ExportedRelationship) error {
	writer := csv.NewWriter(w)

	header := []string{"type", "user_a", "user_b", "user_a_email", "user_b_email"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		row := []string{
			string(r.Type),
			r.UserA.String(),
			r.UserB.String(),
			r.EmailA,
			r.EmailB,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
