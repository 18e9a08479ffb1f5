package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/ersonp/connexions/internal/domain/entities"
	"github.com/ersonp/connexions/internal/domain/ports"
)

// validTypeNameRegex allows alphanumeric and underscores only.
var validTypeNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// RelationTypeService manages the registry of relationship types.
type RelationTypeService struct {
	store       ports.RelationTypeStore
	cache       map[entities.RelationType]*entities.RelationTypeDefinition
	sortedNames []entities.RelationType // cached sorted names, populated with cache
	cacheMu     sync.RWMutex
}

// NewRelationTypeService creates a new RelationTypeService.
func NewRelationTypeService(store ports.RelationTypeStore) *RelationTypeService {
	return &RelationTypeService{
		store: store,
		cache: make(map[entities.RelationType]*entities.RelationTypeDefinition),
	}
}

// NormalizeTypeName lowercases and trims a relationship type name.
func NormalizeTypeName(name string) entities.RelationType {
	return entities.RelationType(strings.ToLower(strings.TrimSpace(name)))
}

// LoadDefaults seeds the default relationship types into the database.
func (s *RelationTypeService) LoadDefaults(ctx context.Context) error {
	return s.seed(ctx, entities.DefaultRelationTypes)
}

// Register makes extra types available, skipping the ones already stored.
// Used for types configured outside the database.
func (s *RelationTypeService) Register(ctx context.Context, names []string) error {
	defs := make([]entities.RelationTypeDefinition, 0, len(names))
	for _, raw := range names {
		name := NormalizeTypeName(raw)
		if !validTypeNameRegex.MatchString(string(name)) {
			return fmt.Errorf("%w: %q", entities.ErrInvalidRelationType, raw)
		}
		defs = append(defs, entities.RelationTypeDefinition{Name: name})
	}
	return s.seed(ctx, defs)
}

func (s *RelationTypeService) seed(ctx context.Context, defs []entities.RelationTypeDefinition) error {
	existing, err := s.store.ListRelationTypes(ctx)
	if err != nil {
		return fmt.Errorf("listing relation types: %w", err)
	}

	existingSet := make(map[entities.RelationType]bool, len(existing))
	for _, rt := range existing {
		existingSet[rt.Name] = true
	}

	for _, rt := range defs {
		if existingSet[rt.Name] {
			continue
		}
		rtCopy := rt
		if err := s.store.SaveRelationType(ctx, &rtCopy); err != nil {
			return fmt.Errorf("seeding relation type %s: %w", rt.Name, err)
		}
		existingSet[rt.Name] = true
	}
	s.invalidateCache()
	return nil
}

// List returns all relationship types.
func (s *RelationTypeService) List(ctx context.Context) ([]entities.RelationTypeDefinition, error) {
	return s.store.ListRelationTypes(ctx)
}

// Get returns a specific relationship type by name, or nil if not found.
func (s *RelationTypeService) Get(ctx context.Context, name string) (*entities.RelationTypeDefinition, error) {
	return s.store.FindRelationType(ctx, NormalizeTypeName(name))
}

// Add creates a new custom relationship type.
func (s *RelationTypeService) Add(ctx context.Context, name, description string) error {
	typeName := NormalizeTypeName(name)

	if !validTypeNameRegex.MatchString(string(typeName)) {
		return errors.New("invalid type name: must be lowercase alphanumeric with underscores, starting with a letter")
	}

	existing, err := s.store.FindRelationType(ctx, typeName)
	if err != nil {
		return fmt.Errorf("checking relation type: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("relation type '%s' already exists", typeName)
	}

	rt := &entities.RelationTypeDefinition{
		Name:        typeName,
		Description: description,
	}
	if err := s.store.SaveRelationType(ctx, rt); err != nil {
		return fmt.Errorf("saving relation type: %w", err)
	}

	s.invalidateCache()
	return nil
}

// Remove deletes a custom relationship type. Existing edges of that type are kept.
func (s *RelationTypeService) Remove(ctx context.Context, name string) error {
	typeName := NormalizeTypeName(name)
	if entities.IsDefaultType(typeName) {
		return fmt.Errorf("cannot remove default relation type '%s'", typeName)
	}

	existing, err := s.store.FindRelationType(ctx, typeName)
	if err != nil {
		return fmt.Errorf("checking relation type: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("relation type '%s' not found", typeName)
	}

	if err := s.store.DeleteRelationType(ctx, typeName); err != nil {
		return fmt.Errorf("deleting relation type: %w", err)
	}

	s.invalidateCache()
	return nil
}

// IsValid checks if a type name is registered.
func (s *RelationTypeService) IsValid(ctx context.Context, name entities.RelationType) bool {
	names, err := s.Names(ctx)
	if err != nil {
		return false
	}
	_, found := slices.BinarySearch(names, name)
	return found
}

// Names returns all registered type names, sorted.
// The returned slice is shared and must not be modified by callers.
func (s *RelationTypeService) Names(ctx context.Context) ([]entities.RelationType, error) {
	// Fast path: check cache with read lock
	s.cacheMu.RLock()
	if len(s.cache) > 0 {
		names := s.sortedNames
		s.cacheMu.RUnlock()
		return names, nil
	}
	s.cacheMu.RUnlock()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	// Double-check: another goroutine may have populated the cache
	if len(s.cache) > 0 {
		return s.sortedNames, nil
	}

	types, err := s.store.ListRelationTypes(ctx)
	if err != nil {
		return nil, err
	}

	s.populateCacheFromTypes(types)
	return s.sortedNames, nil
}

// populateCacheFromTypes fills the cache and sortedNames from a types slice.
// Caller must hold cacheMu write lock.
func (s *RelationTypeService) populateCacheFromTypes(types []entities.RelationTypeDefinition) {
	s.cache = make(map[entities.RelationType]*entities.RelationTypeDefinition, len(types))
	s.sortedNames = make([]entities.RelationType, 0, len(types))
	for i := range types {
		if _, dup := s.cache[types[i].Name]; dup {
			continue
		}
		s.cache[types[i].Name] = &types[i]
		s.sortedNames = append(s.sortedNames, types[i].Name)
	}
	slices.Sort(s.sortedNames)
}

func (s *RelationTypeService) invalidateCache() {
	s.cacheMu.Lock()
	s.cache = make(map[entities.RelationType]*entities.RelationTypeDefinition)
	s.sortedNames = nil
	s.cacheMu.Unlock()
}
