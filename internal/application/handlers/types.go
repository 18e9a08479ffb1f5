package handlers

import (
	"context"

	"github.com/ersonp/connexions/internal/domain/entities"
	"github.com/ersonp/connexions/internal/domain/services"
)

// TypesHandler handles relationship type operations.
type TypesHandler struct {
	service *services.RelationTypeService
}

// NewTypesHandler creates a new TypesHandler.
func NewTypesHandler(service *services.RelationTypeService) *TypesHandler {
	return &TypesHandler{
		service: service,
	}
}

// HandleList returns all relationship types.
func (h *TypesHandler) HandleList(ctx context.Context) ([]entities.RelationTypeDefinition, error) {
	return h.service.List(ctx)
}

// HandleAdd creates a new custom relationship type.
func (h *TypesHandler) HandleAdd(ctx context.Context, name, description string) error {
	return h.service.Add(ctx, name, description)
}

// HandleRemove deletes a custom relationship type.
func (h *TypesHandler) HandleRemove(ctx context.Context, name string) error {
	return h.service.Remove(ctx, name)
}

// HandleDescribe returns details about a specific relationship type, or nil.
func (h *TypesHandler) HandleDescribe(ctx context.Context, name string) (*entities.RelationTypeDefinition, error) {
	return h.service.Get(ctx, name)
}
