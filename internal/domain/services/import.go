package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ersonp/connexions/internal/domain/entities"
	"github.com/ersonp/connexions/internal/domain/ports"
	"github.com/ersonp/connexions/internal/infrastructure/parsers"
)

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun bool // Validate without saving
	Track  bool // Record activity for every imported relationship
}

// ImportError represents an error for a specific relationship during import.
type ImportError struct {
	Line    int    // Line number (1-indexed, 0 if unknown)
	Field   string // Which field has the error
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported int
	Skipped  int // already present
	Errors   []ImportError
}

type validRelationship struct {
	rel  entities.Relationship
	line int
}

// ImportService handles importing relationships from external sources.
type ImportService struct {
	relationships *RelationshipService
	users         ports.UserDirectory
	types         *RelationTypeService
}

// NewImportService creates a new import service.
func NewImportService(relationships *RelationshipService, users ports.UserDirectory, types *RelationTypeService) *ImportService {
	return &ImportService{
		relationships: relationships,
		users:         users,
		types:         types,
	}
}

// Import validates and adds raw relationships. Invalid rows are reported in
// the result and do not stop the import; store failures do.
func (s *ImportService) Import(ctx context.Context, raws []parsers.RawRelationship, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}

	valid, validationErrors, err := s.validate(ctx, raws)
	if err != nil {
		return nil, err
	}
	result.Errors = validationErrors

	if opts.DryRun {
		result.Imported = len(valid)
		return result, nil
	}

	for _, v := range valid {
		added, err := s.relationships.Add(ctx, v.rel.Type, v.rel.UserA, v.rel.UserB, opts.Track)
		switch {
		case isValidationError(err):
			result.Errors = append(result.Errors, ImportError{Line: v.line, Message: err.Error()})
		case err != nil:
			return nil, fmt.Errorf("line %d: %w", v.line, err)
		case added:
			result.Imported++
		default:
			result.Skipped++
		}
	}

	return result, nil
}

// validate resolves user references and checks types for every row.
func (s *ImportService) validate(ctx context.Context, raws []parsers.RawRelationship) ([]validRelationship, []ImportError, error) {
	valid := make([]validRelationship, 0, len(raws))
	var importErrors []ImportError

	for i := range raws {
		raw := &raws[i]
		lineNum := raw.LineNum
		if lineNum == 0 {
			lineNum = i + 1
		}

		relType := NormalizeTypeName(raw.Type)
		if relType == "" {
			importErrors = append(importErrors, ImportError{Line: lineNum, Field: "type", Message: "missing required field: type"})
			continue
		}
		if !s.types.IsValid(ctx, relType) {
			importErrors = append(importErrors, ImportError{
				Line:    lineNum,
				Field:   "type",
				Value:   raw.Type,
				Message: fmt.Sprintf("invalid type %q", raw.Type),
			})
			continue
		}

		a, importErr, err := s.resolveRef(ctx, raw.UserA, "user_a", lineNum)
		if err != nil {
			return nil, nil, err
		}
		if importErr != nil {
			importErrors = append(importErrors, *importErr)
			continue
		}
		b, importErr, err := s.resolveRef(ctx, raw.UserB, "user_b", lineNum)
		if err != nil {
			return nil, nil, err
		}
		if importErr != nil {
			importErrors = append(importErrors, *importErr)
			continue
		}
		if a == b {
			importErrors = append(importErrors, ImportError{
				Line:    lineNum,
				Field:   "user_b",
				Value:   string(raw.UserB),
				Message: "a user cannot be related to itself",
			})
			continue
		}

		valid = append(valid, validRelationship{
			rel:  entities.Relationship{Type: relType, UserA: a, UserB: b},
			line: lineNum,
		})
	}

	return valid, importErrors, nil
}

// resolveRef turns an ID or email reference into an existing user ID.
func (s *ImportService) resolveRef(ctx context.Context, ref parsers.UserRef, field string, line int) (entities.UserID, *ImportError, error) {
	raw := string(ref)
	if raw == "" {
		return 0, &ImportError{Line: line, Field: field, Message: "missing required field: " + field}, nil
	}

	var user *entities.User
	var err error
	if id, parseErr := entities.ParseUserID(raw); parseErr == nil {
		user, err = s.users.FindUserByID(ctx, id)
	} else {
		user, err = s.users.FindUserByEmail(ctx, entities.NormalizeEmail(raw))
	}
	if err != nil {
		return 0, nil, fmt.Errorf("line %d: resolving %s: %w", line, field, err)
	}
	if user == nil {
		return 0, &ImportError{Line: line, Field: field, Value: raw, Message: fmt.Sprintf("user %q does not exist", raw)}, nil
	}
	return user.ID, nil, nil
}

// isValidationError reports whether err rejects the input rather than
// signalling a store failure.
func isValidationError(err error) bool {
	return errors.Is(err, entities.ErrUnresolvableIdentity) ||
		errors.Is(err, entities.ErrSelfRelationship) ||
		errors.Is(err, entities.ErrInvalidRelationType)
}
