package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ersonp/connexions/internal/domain/entities"
)

// GetForm returns a form, or nil when it does not exist.
func (s *Store) GetForm(ctx context.Context, formID int64) (*entities.Form, error) {
	row := s.queryRow(ctx, `
		SELECT id, title, confirmation_id, confirmation_message, fields, created_at
		FROM forms WHERE id = ?
	`, formID)

	var form entities.Form
	var fields string
	err := row.Scan(&form.ID, &form.Title, &form.ConfirmationID, &form.ConfirmationMessage, &fields, &form.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning form: %w", err)
	}
	if err := json.Unmarshal([]byte(fields), &form.Fields); err != nil {
		return nil, fmt.Errorf("decoding fields of form %d: %w", formID, err)
	}
	return &form, nil
}

// CreateForm stores a form and returns its ID.
func (s *Store) CreateForm(ctx context.Context, form *entities.Form) (int64, error) {
	fields, err := json.Marshal(form.Fields)
	if err != nil {
		return 0, fmt.Errorf("encoding form fields: %w", err)
	}
	if form.CreatedAt.IsZero() {
		form.CreatedAt = timeNow()
	}

	var id int64
	err = s.queryRow(ctx, `
		INSERT INTO forms (title, confirmation_id, confirmation_message, fields, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`, form.Title, form.ConfirmationID, form.ConfirmationMessage, string(fields), form.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting form: %w", err)
	}
	form.ID = id
	return id, nil
}

// UpdateForm replaces the title, confirmation and fields of a stored form.
func (s *Store) UpdateForm(ctx context.Context, form *entities.Form) error {
	fields, err := json.Marshal(form.Fields)
	if err != nil {
		return fmt.Errorf("encoding form fields: %w", err)
	}
	ok, err := s.affected(ctx, `
		UPDATE forms SET title = ?, confirmation_id = ?, confirmation_message = ?, fields = ?
		WHERE id = ?
	`, form.Title, form.ConfirmationID, form.ConfirmationMessage, string(fields), form.ID)
	if err != nil {
		return fmt.Errorf("updating form: %w", err)
	}
	if !ok {
		return fmt.Errorf("form not found: %d", form.ID)
	}
	return nil
}

// GetRecord returns a record with its fields, or nil when it does not exist.
func (s *Store) GetRecord(ctx context.Context, recordID int64) (*entities.Record, error) {
	recs, err := s.queryRecords(ctx, `
		SELECT id, form_id, revision, created_at, updated_at
		FROM records WHERE id = ?
	`, recordID)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

// UpdateRecord writes record.Fields when the stored revision still equals
// record.Revision. The revision bump and the field writes share one transaction.
func (s *Store) UpdateRecord(ctx context.Context, record *entities.Record) error {
	return s.WithinTx(ctx, func(ctx context.Context) error {
		now := timeNow()
		ok, err := s.affected(ctx, `
			UPDATE records SET revision = revision + 1, updated_at = ?
			WHERE id = ? AND revision = ?
		`, now, record.ID, record.Revision)
		if err != nil {
			return fmt.Errorf("updating record: %w", err)
		}
		if !ok {
			return fmt.Errorf("record %d at revision %d: %w", record.ID, record.Revision, entities.ErrRevisionConflict)
		}
		if err := s.upsertFields(ctx, record.ID, record.Fields); err != nil {
			return err
		}
		record.Revision++
		record.UpdatedAt = now
		return nil
	})
}

// SearchRecords returns records of a form, ordered by ID, whose fields
// contain every filter value.
func (s *Store) SearchRecords(ctx context.Context, formID int64, filters ...entities.RecordFilter) ([]*entities.Record, error) {
	var b strings.Builder
	b.WriteString(`SELECT id, form_id, revision, created_at, updated_at FROM records r WHERE form_id = ?`)
	args := []any{formID}
	for _, f := range filters {
		b.WriteString(` AND EXISTS (
			SELECT 1 FROM record_fields f
			WHERE f.record_id = r.id AND f.field_id = ? AND f.value LIKE ? ESCAPE '\'
		)`)
		args = append(args, f.FieldID, containsPattern(f.Value))
	}
	b.WriteString(` ORDER BY id ASC`)
	return s.queryRecords(ctx, b.String(), args...)
}

// SubmitRecord creates a record at revision 1 and returns its ID.
func (s *Store) SubmitRecord(ctx context.Context, formID int64, fields map[int]string) (int64, error) {
	var id int64
	err := s.WithinTx(ctx, func(ctx context.Context) error {
		now := timeNow()
		err := s.queryRow(ctx, `
			INSERT INTO records (form_id, revision, created_at, updated_at)
			VALUES (?, 1, ?, ?)
			RETURNING id
		`, formID, now, now).Scan(&id)
		if err != nil {
			return fmt.Errorf("inserting record: %w", err)
		}
		return s.upsertFields(ctx, id, fields)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) upsertFields(ctx context.Context, recordID int64, fields map[int]string) error {
	ids := make([]int, 0, len(fields))
	for id := range fields {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, fieldID := range ids {
		_, err := s.exec(ctx, `
			INSERT INTO record_fields (record_id, field_id, value)
			VALUES (?, ?, ?)
			ON CONFLICT (record_id, field_id) DO UPDATE SET value = excluded.value
		`, recordID, fieldID, fields[fieldID])
		if err != nil {
			return fmt.Errorf("saving field %d of record %d: %w", fieldID, recordID, err)
		}
	}
	return nil
}

// queryRecords runs a records query and loads the fields of every result.
func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]*entities.Record, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	result := make([]*entities.Record, 0)
	byID := make(map[int64]*entities.Record)
	for rows.Next() {
		rec := &entities.Record{Fields: make(map[int]string)}
		if err := rows.Scan(&rec.ID, &rec.FormID, &rec.Revision, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		result = append(result, rec)
		byID[rec.ID] = rec
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	if len(result) == 0 {
		return result, nil
	}

	ids := make([]any, len(result))
	for i, rec := range result {
		ids[i] = rec.ID
	}
	fieldRows, err := s.query(ctx, fmt.Sprintf(
		`SELECT record_id, field_id, value FROM record_fields WHERE record_id IN (%s)`, placeholders(len(ids))), ids...)
	if err != nil {
		return nil, fmt.Errorf("querying record fields: %w", err)
	}
	defer fieldRows.Close()
	for fieldRows.Next() {
		var recordID int64
		var fieldID int
		var value string
		if err := fieldRows.Scan(&recordID, &fieldID, &value); err != nil {
			return nil, fmt.Errorf("scanning record field: %w", err)
		}
		byID[recordID].Fields[fieldID] = value
	}
	return result, fieldRows.Err()
}

// GetOption returns a stored option, or "" when unset.
func (s *Store) GetOption(ctx context.Context, name string) (string, error) {
	var value string
	err := s.queryRow(ctx, `SELECT value FROM options WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading option %s: %w", name, err)
	}
	return value, nil
}

// SetOption stores an option.
func (s *Store) SetOption(ctx context.Context, name, value string) error {
	_, err := s.exec(ctx, `
		INSERT INTO options (name, value) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value
	`, name, value)
	if err != nil {
		return fmt.Errorf("saving option %s: %w", name, err)
	}
	return nil
}
