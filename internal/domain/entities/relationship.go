package entities

import (
	"slices"
	"time"
)

// RelationType defines the kind of relationship between two users.
// The set is open: the defaults below can be extended at runtime.
type RelationType string

const (
	RelationAlias        RelationType = "alias"
	RelationFamily       RelationType = "family"
	RelationPersonal     RelationType = "personal"
	RelationProfessional RelationType = "professional"
)

// Relationship is one directed edge (Type, UserA, UserB).
// A logical relationship is stored as two edges, A->B and B->A.
type Relationship struct {
	Type      RelationType `json:"type"`
	UserA     UserID       `json:"user_a"`
	UserB     UserID       `json:"user_b"`
	CreatedAt time.Time    `json:"created_at"`
}

// Inverse returns the mirrored edge.
func (r Relationship) Inverse() Relationship {
	return Relationship{
		Type:      r.Type,
		UserA:     r.UserB,
		UserB:     r.UserA,
		CreatedAt: r.CreatedAt,
	}
}

// IsSelf reports whether both ends of the edge are the same user.
func (r Relationship) IsSelf() bool {
	return r.UserA == r.UserB
}

// RelationshipGraph maps a relationship type to the users connected by it.
type RelationshipGraph map[RelationType][]UserID

// NewRelationshipGraph builds a graph from the outgoing edges of one user.
// Member lists are de-duplicated and sorted ascending.
func NewRelationshipGraph(rels []Relationship) RelationshipGraph {
	g := make(RelationshipGraph)
	for _, rel := range rels {
		g[rel.Type] = append(g[rel.Type], rel.UserB)
	}
	g.Normalize()
	return g
}

// Types returns the relationship types present, sorted by name.
func (g RelationshipGraph) Types() []RelationType {
	types := make([]RelationType, 0, len(g))
	for t := range g {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Contains reports whether id is connected by relationship type t.
func (g RelationshipGraph) Contains(t RelationType, id UserID) bool {
	_, found := slices.BinarySearch(g[t], id)
	return found
}

// Count returns the total number of edges across all types.
func (g RelationshipGraph) Count() int {
	n := 0
	for _, ids := range g {
		n += len(ids)
	}
	return n
}

// IsEmpty reports whether the graph holds no edges.
func (g RelationshipGraph) IsEmpty() bool {
	return g.Count() == 0
}

// Normalize sorts and de-duplicates every member list and drops empty types.
func (g RelationshipGraph) Normalize() {
	for t, ids := range g {
		if len(ids) == 0 {
			delete(g, t)
			continue
		}
		slices.Sort(ids)
		g[t] = slices.Compact(ids)
	}
}
