package ports

import (
	"context"

	"github.com/ersonp/connexions/internal/domain/entities"
)

// RelationalDB defines the full set of relational storage operations.
// A single backend (SQLite or PostgreSQL) implements every store below.
type RelationalDB interface {
	UserDirectory
	RelationshipStore
	RecordStore
	OptionStore
	RelationTypeStore
	ActivityLog
	Transactor

	// EnsureSchema applies pending schema migrations.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

// UserDirectory resolves and maintains user accounts.
// Finders return nil, nil when the user does not exist.
type UserDirectory interface {
	// FindUserByID finds a user by ID.
	FindUserByID(ctx context.Context, id entities.UserID) (*entities.User, error)

	// FindUsersByIDs returns the users that exist among ids, keyed by ID.
	FindUsersByIDs(ctx context.Context, ids []entities.UserID) (map[entities.UserID]*entities.User, error)

	// FindUserByEmail finds a user by email address (case-insensitive).
	FindUserByEmail(ctx context.Context, email string) (*entities.User, error)

	// FindOrCreateUserByEmail finds a user by email or creates one with the given names.
	FindOrCreateUserByEmail(ctx context.Context, email, firstName, lastName string) (*entities.User, bool, error)

	// SaveUser inserts a user when ID is zero, otherwise updates it.
	SaveUser(ctx context.Context, user *entities.User) error

	// SearchUsers matches display name or email, ordered by display name.
	// It also returns the total number of matches ignoring limit.
	SearchUsers(ctx context.Context, query string, limit int) ([]*entities.User, int, error)

	// ListUsers lists users ordered by ID with pagination.
	ListUsers(ctx context.Context, limit, offset int) ([]*entities.User, error)

	// CountUsers returns the total number of users.
	CountUsers(ctx context.Context) (int, error)
}

// RelationshipStore persists directed relationship edges.
// Write operations report whether a row was affected.
type RelationshipStore interface {
	// RelationshipExists checks for the directed edge (type, a, b).
	RelationshipExists(ctx context.Context, relType entities.RelationType, a, b entities.UserID) (bool, error)

	// InsertRelationship inserts one directed edge; false when it already exists.
	InsertRelationship(ctx context.Context, rel entities.Relationship) (bool, error)

	// UpdateRelationshipType changes the type of one directed edge.
	UpdateRelationshipType(ctx context.Context, oldType entities.RelationType, a, b entities.UserID, newType entities.RelationType) (bool, error)

	// DeleteRelationship deletes one directed edge.
	DeleteRelationship(ctx context.Context, relType entities.RelationType, a, b entities.UserID) (bool, error)

	// FindRelationshipsByUser returns all edges where user is the first end.
	FindRelationshipsByUser(ctx context.Context, user entities.UserID) ([]entities.Relationship, error)

	// FindRelationshipsByUserAndType returns the edges of one type where user is the first end.
	FindRelationshipsByUserAndType(ctx context.Context, user entities.UserID, relType entities.RelationType) ([]entities.Relationship, error)

	// ListRelationships returns every stored edge, ordered by type and ends.
	ListRelationships(ctx context.Context) ([]entities.Relationship, error)
}

// RecordStore is the form-record store backing groups.
// GetForm and GetRecord return nil, nil when the row does not exist.
type RecordStore interface {
	GetForm(ctx context.Context, formID int64) (*entities.Form, error)
	CreateForm(ctx context.Context, form *entities.Form) (int64, error)
	UpdateForm(ctx context.Context, form *entities.Form) error

	GetRecord(ctx context.Context, recordID int64) (*entities.Record, error)

	// UpdateRecord writes record.Fields when the stored revision still equals
	// record.Revision, then increments it. Otherwise it returns
	// entities.ErrRevisionConflict. Fields missing from record are kept.
	UpdateRecord(ctx context.Context, record *entities.Record) error

	// SearchRecords returns records of a form matching every filter.
	SearchRecords(ctx context.Context, formID int64, filters ...entities.RecordFilter) ([]*entities.Record, error)

	// SubmitRecord creates a record and returns its ID.
	SubmitRecord(ctx context.Context, formID int64, fields map[int]string) (int64, error)
}

// OptionStore holds named settings. GetOption returns "" when unset.
type OptionStore interface {
	GetOption(ctx context.Context, name string) (string, error)
	SetOption(ctx context.Context, name, value string) error
}

// RelationTypeStore persists registered relationship types.
type RelationTypeStore interface {
	// SaveRelationType saves or updates a relationship type.
	SaveRelationType(ctx context.Context, def *entities.RelationTypeDefinition) error

	// FindRelationType finds a relationship type by name.
	FindRelationType(ctx context.Context, name entities.RelationType) (*entities.RelationTypeDefinition, error)

	// ListRelationTypes lists all stored relationship types.
	ListRelationTypes(ctx context.Context) ([]entities.RelationTypeDefinition, error)

	// DeleteRelationType deletes a relationship type by name.
	DeleteRelationType(ctx context.Context, name entities.RelationType) error
}

// ActivityLog persists activity entries.
type ActivityLog interface {
	LogActivity(ctx context.Context, activity *entities.Activity) error

	// FindActivityByUser returns the newest entries for a user first.
	FindActivityByUser(ctx context.Context, user entities.UserID, limit int) ([]entities.Activity, error)
}

// Transactor runs fn inside one transaction carried by the context passed to fn.
// Nested calls join the outer transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
