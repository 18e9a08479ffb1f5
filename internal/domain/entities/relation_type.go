package entities

import "time"

// RelationTypeDefinition represents a registered relationship type.
// Custom types extend the built-in defaults.
type RelationTypeDefinition struct {
	Name        RelationType `json:"name"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"created_at"`
}
