package mocks

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ersonp/connexions/internal/domain/entities"
)

type edgeKey struct {
	t    entities.RelationType
	a, b entities.UserID
}

type txKey struct{}

// RelationalDB is an in-memory implementation of ports.RelationalDB.
// WithinTx snapshots the state and restores it when fn fails.
type RelationalDB struct {
	mu sync.Mutex

	Users    map[entities.UserID]*entities.User
	Edges    map[edgeKey]entities.Relationship
	Forms    map[int64]*entities.Form
	Records  map[int64]*entities.Record
	Options  map[string]string
	Types    map[entities.RelationType]*entities.RelationTypeDefinition
	Activity []entities.Activity
	nextID   int64
	TxCount  int

	// Err is returned by every operation when set.
	Err error

	// InsertErr, DeleteErr and UpdateErr inject failures for single edges.
	// UpdateErr receives the edge with its old type.
	InsertErr func(rel entities.Relationship) error
	DeleteErr func(rel entities.Relationship) error
	UpdateErr func(rel entities.Relationship) error

	// FindOrCreateErr injects failures into FindOrCreateUserByEmail.
	FindOrCreateErr func(email string) error

	// BeforeUpdateRecord runs before the revision check, with the lock
	// released, so tests can simulate a concurrent writer.
	BeforeUpdateRecord func(rec *entities.Record)
}

// NewRelationalDB creates a new mock RelationalDB.
func NewRelationalDB() *RelationalDB {
	return &RelationalDB{
		Users:   make(map[entities.UserID]*entities.User),
		Edges:   make(map[edgeKey]entities.Relationship),
		Forms:   make(map[int64]*entities.Form),
		Records: make(map[int64]*entities.Record),
		Options: make(map[string]string),
		Types:   make(map[entities.RelationType]*entities.RelationTypeDefinition),
	}
}

// EnsureSchema creates the database schema if it doesn't exist.
func (m *RelationalDB) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close closes the database connection.
func (m *RelationalDB) Close() error {
	return nil
}

func (m *RelationalDB) id() int64 {
	m.nextID++
	return m.nextID
}

// AddUser stores a user with a fixed ID. Test helper.
func (m *RelationalDB) AddUser(id entities.UserID, name, email string) *entities.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &entities.User{ID: id, DisplayName: name, Email: email, CreatedAt: time.Now().UTC()}
	m.Users[id] = u
	if int64(id) > m.nextID {
		m.nextID = int64(id)
	}
	return u
}

// AddEdge stores a single directed edge. Test helper.
func (m *RelationalDB) AddEdge(t entities.RelationType, a, b entities.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Edges[edgeKey{t, a, b}] = entities.Relationship{Type: t, UserA: a, UserB: b}
}

// HasEdge reports whether the directed edge is stored. Test helper.
func (m *RelationalDB) HasEdge(t entities.RelationType, a, b entities.UserID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Edges[edgeKey{t, a, b}]
	return ok
}

// EdgeCount returns the number of directed edges stored. Test helper.
func (m *RelationalDB) EdgeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Edges)
}

// Transaction.

type snapshot struct {
	users   map[entities.UserID]*entities.User
	edges   map[edgeKey]entities.Relationship
	records map[int64]*entities.Record
	options map[string]string
}

// WithinTx runs fn and rolls the in-memory state back when it fails.
func (m *RelationalDB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	m.TxCount++
	snap := snapshot{
		users:   maps.Clone(m.Users),
		edges:   maps.Clone(m.Edges),
		records: make(map[int64]*entities.Record, len(m.Records)),
		options: maps.Clone(m.Options),
	}
	for id, rec := range m.Records {
		snap.records[id] = cloneRecord(rec)
	}
	m.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.mu.Lock()
		m.Users, m.Edges, m.Records, m.Options = snap.users, snap.edges, snap.records, snap.options
		m.mu.Unlock()
		return err
	}
	return nil
}

// User methods.

// FindUserByID finds a user by ID.
func (m *RelationalDB) FindUserByID(_ context.Context, id entities.UserID) (*entities.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// FindUsersByIDs returns the users that exist among ids.
func (m *RelationalDB) FindUsersByIDs(_ context.Context, ids []entities.UserID) (map[entities.UserID]*entities.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[entities.UserID]*entities.User, len(ids))
	for _, id := range ids {
		if u, ok := m.Users[id]; ok {
			cp := *u
			result[id] = &cp
		}
	}
	return result, nil
}

// FindUserByEmail finds a user by email address.
func (m *RelationalDB) FindUserByEmail(_ context.Context, email string) (*entities.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findByEmail(email), nil
}

func (m *RelationalDB) findByEmail(email string) *entities.User {
	email = entities.NormalizeEmail(email)
	for _, u := range m.Users {
		if entities.NormalizeEmail(u.Email) == email {
			cp := *u
			return &cp
		}
	}
	return nil
}

// FindOrCreateUserByEmail finds a user by email or creates one.
func (m *RelationalDB) FindOrCreateUserByEmail(_ context.Context, email, firstName, lastName string) (*entities.User, bool, error) {
	if m.Err != nil {
		return nil, false, m.Err
	}
	if m.FindOrCreateErr != nil {
		if err := m.FindOrCreateErr(email); err != nil {
			return nil, false, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if u := m.findByEmail(email); u != nil {
		return u, false, nil
	}
	u := &entities.User{
		ID:          entities.UserID(m.id()),
		Email:       entities.NormalizeEmail(email),
		FirstName:   firstName,
		LastName:    lastName,
		DisplayName: entities.BuildDisplayName(firstName, lastName, email),
		CreatedAt:   time.Now().UTC(),
	}
	m.Users[u.ID] = u
	cp := *u
	return &cp, true, nil
}

// SaveUser inserts or updates a user.
func (m *RelationalDB) SaveUser(_ context.Context, user *entities.User) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == 0 {
		user.ID = entities.UserID(m.id())
	}
	cp := *user
	m.Users[user.ID] = &cp
	return nil
}

// SearchUsers matches display name or email, case-insensitively.
func (m *RelationalDB) SearchUsers(_ context.Context, query string, limit int) ([]*entities.User, int, error) {
	if m.Err != nil {
		return nil, 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(query)
	var matches []*entities.User
	for _, u := range m.Users {
		if strings.Contains(strings.ToLower(u.DisplayName), q) || strings.Contains(strings.ToLower(u.Email), q) {
			cp := *u
			matches = append(matches, &cp)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].DisplayName != matches[j].DisplayName {
			return matches[i].DisplayName < matches[j].DisplayName
		}
		return matches[i].ID < matches[j].ID
	})
	total := len(matches)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, total, nil
}

// ListUsers lists users ordered by ID.
func (m *RelationalDB) ListUsers(_ context.Context, limit, offset int) ([]*entities.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*entities.User, 0, len(m.Users))
	for _, u := range m.Users {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if offset >= len(all) {
		return []*entities.User{}, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// CountUsers returns the total number of users.
func (m *RelationalDB) CountUsers(_ context.Context) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Users), nil
}

// Relationship methods.

// RelationshipExists checks for a directed edge.
func (m *RelationalDB) RelationshipExists(_ context.Context, t entities.RelationType, a, b entities.UserID) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Edges[edgeKey{t, a, b}]
	return ok, nil
}

// InsertRelationship inserts one directed edge.
func (m *RelationalDB) InsertRelationship(_ context.Context, rel entities.Relationship) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	if m.InsertErr != nil {
		if err := m.InsertErr(rel); err != nil {
			return false, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := edgeKey{rel.Type, rel.UserA, rel.UserB}
	if _, ok := m.Edges[k]; ok {
		return false, nil
	}
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = time.Now().UTC()
	}
	m.Edges[k] = rel
	return true, nil
}

// UpdateRelationshipType changes the type of one directed edge.
func (m *RelationalDB) UpdateRelationshipType(_ context.Context, oldType entities.RelationType, a, b entities.UserID, newType entities.RelationType) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	if m.UpdateErr != nil {
		if err := m.UpdateErr(entities.Relationship{Type: oldType, UserA: a, UserB: b}); err != nil {
			return false, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old := edgeKey{oldType, a, b}
	rel, ok := m.Edges[old]
	if !ok {
		return false, nil
	}
	next := edgeKey{newType, a, b}
	if _, taken := m.Edges[next]; taken {
		return false, nil
	}
	delete(m.Edges, old)
	rel.Type = newType
	m.Edges[next] = rel
	return true, nil
}

// DeleteRelationship deletes one directed edge.
func (m *RelationalDB) DeleteRelationship(_ context.Context, t entities.RelationType, a, b entities.UserID) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	if m.DeleteErr != nil {
		if err := m.DeleteErr(entities.Relationship{Type: t, UserA: a, UserB: b}); err != nil {
			return false, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := edgeKey{t, a, b}
	if _, ok := m.Edges[k]; !ok {
		return false, nil
	}
	delete(m.Edges, k)
	return true, nil
}

// FindRelationshipsByUser returns all edges starting at user.
func (m *RelationalDB) FindRelationshipsByUser(_ context.Context, user entities.UserID) ([]entities.Relationship, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.collect(func(r entities.Relationship) bool { return r.UserA == user }), nil
}

// FindRelationshipsByUserAndType returns the edges of one type starting at user.
func (m *RelationalDB) FindRelationshipsByUserAndType(_ context.Context, user entities.UserID, t entities.RelationType) ([]entities.Relationship, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.collect(func(r entities.Relationship) bool { return r.UserA == user && r.Type == t }), nil
}

// ListRelationships returns every stored edge.
func (m *RelationalDB) ListRelationships(_ context.Context) ([]entities.Relationship, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.collect(func(entities.Relationship) bool { return true }), nil
}

func (m *RelationalDB) collect(keep func(entities.Relationship) bool) []entities.Relationship {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]entities.Relationship, 0)
	for _, r := range m.Edges {
		if keep(r) {
			result = append(result, r)
		}
	}
	// Sort for deterministic test results
	sort.Slice(result, func(i, j int) bool {
		if result[i].Type != result[j].Type {
			return result[i].Type < result[j].Type
		}
		if result[i].UserA != result[j].UserA {
			return result[i].UserA < result[j].UserA
		}
		return result[i].UserB < result[j].UserB
	})
	return result
}

// Form and record methods.

// GetForm returns a form or nil.
func (m *RelationalDB) GetForm(_ context.Context, formID int64) (*entities.Form, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.Forms[formID]
	if !ok {
		return nil, nil
	}
	cp := *f
	return &cp, nil
}

// CreateForm stores a form and returns its ID.
func (m *RelationalDB) CreateForm(_ context.Context, form *entities.Form) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *form
	cp.ID = m.id()
	m.Forms[cp.ID] = &cp
	return cp.ID, nil
}

// UpdateForm replaces a stored form.
func (m *RelationalDB) UpdateForm(_ context.Context, form *entities.Form) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *form
	m.Forms[form.ID] = &cp
	return nil
}

// GetRecord returns a record or nil.
func (m *RelationalDB) GetRecord(_ context.Context, recordID int64) (*entities.Record, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.Records[recordID]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

// UpdateRecord writes the given fields when the revision still matches.
// Fields not present in record are left unchanged.
func (m *RelationalDB) UpdateRecord(_ context.Context, record *entities.Record) error {
	if m.Err != nil {
		return m.Err
	}
	if m.BeforeUpdateRecord != nil {
		m.BeforeUpdateRecord(record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.Records[record.ID]
	if !ok || stored.Revision != record.Revision {
		return entities.ErrRevisionConflict
	}
	if stored.Fields == nil {
		stored.Fields = make(map[int]string, len(record.Fields))
	}
	maps.Copy(stored.Fields, record.Fields)
	stored.Revision++
	stored.UpdatedAt = time.Now().UTC()
	record.Revision = stored.Revision
	return nil
}

// SearchRecords returns records of a form whose fields contain every filter value.
func (m *RelationalDB) SearchRecords(_ context.Context, formID int64, filters ...entities.RecordFilter) ([]*entities.Record, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*entities.Record, 0)
	for _, rec := range m.Records {
		if rec.FormID != formID {
			continue
		}
		match := true
		for _, f := range filters {
			if !strings.Contains(rec.Fields[f.FieldID], f.Value) {
				match = false
				break
			}
		}
		if match {
			result = append(result, cloneRecord(rec))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// SubmitRecord creates a record.
func (m *RelationalDB) SubmitRecord(_ context.Context, formID int64, fields map[int]string) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	rec := &entities.Record{
		ID:        m.id(),
		FormID:    formID,
		Fields:    maps.Clone(fields),
		Revision:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.Records[rec.ID] = rec
	return rec.ID, nil
}

func cloneRecord(rec *entities.Record) *entities.Record {
	cp := *rec
	cp.Fields = maps.Clone(rec.Fields)
	if cp.Fields == nil {
		cp.Fields = make(map[int]string)
	}
	return &cp
}

// Option methods.

// GetOption returns a stored option or "".
func (m *RelationalDB) GetOption(_ context.Context, name string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Options[name], nil
}

// SetOption stores an option.
func (m *RelationalDB) SetOption(_ context.Context, name, value string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Options[name] = value
	return nil
}

// Relation type methods.

// SaveRelationType saves or updates a relationship type.
func (m *RelationalDB) SaveRelationType(_ context.Context, def *entities.RelationTypeDefinition) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Types[def.Name] = def
	return nil
}

// FindRelationType finds a relationship type by name.
func (m *RelationalDB) FindRelationType(_ context.Context, name entities.RelationType) (*entities.RelationTypeDefinition, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Types[name], nil
}

// ListRelationTypes lists all stored relationship types.
func (m *RelationalDB) ListRelationTypes(_ context.Context) ([]entities.RelationTypeDefinition, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]entities.RelationTypeDefinition, 0, len(m.Types))
	for _, t := range m.Types {
		result = append(result, *t)
	}
	// Sort by name for deterministic test results
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// DeleteRelationType deletes a relationship type by name.
func (m *RelationalDB) DeleteRelationType(_ context.Context, name entities.RelationType) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Types, name)
	return nil
}

// Activity log methods.

// LogActivity appends an activity entry.
func (m *RelationalDB) LogActivity(_ context.Context, a *entities.Activity) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Activity = append(m.Activity, *a)
	return nil
}

// FindActivityByUser returns the newest entries for a user first.
func (m *RelationalDB) FindActivityByUser(_ context.Context, user entities.UserID, limit int) ([]entities.Activity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]entities.Activity, 0)
	for i := len(m.Activity) - 1; i >= 0; i-- {
		if m.Activity[i].UserID == user {
			result = append(result, m.Activity[i])
		}
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}
