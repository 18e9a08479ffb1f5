package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ersonp/connexions/internal/domain/entities"
)

const userColumns = `id, email, display_name, first_name, last_name, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*entities.User, error) {
	var u entities.User
	var id int64
	if err := row.Scan(&id, &u.Email, &u.DisplayName, &u.FirstName, &u.LastName, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.ID = entities.UserID(id)
	return &u, nil
}

// FindUserByID finds a user by ID.
func (s *Store) FindUserByID(ctx context.Context, id entities.UserID) (*entities.User, error) {
	row := s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, int64(id))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	if err := s.loadProfiles(ctx, map[entities.UserID]*entities.User{u.ID: u}); err != nil {
		return nil, err
	}
	return u, nil
}

// FindUsersByIDs returns the users that exist among ids in a single query.
func (s *Store) FindUsersByIDs(ctx context.Context, ids []entities.UserID) (map[entities.UserID]*entities.User, error) {
	result := make(map[entities.UserID]*entities.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = int64(id)
	}
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id IN (%s)`, userColumns, placeholders(len(ids)))

	users, err := s.queryUsers(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	if err := s.loadProfiles(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// FindUserByEmail finds a user by email address (case-insensitive).
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	email = entities.NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	row := s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	if err := s.loadProfiles(ctx, map[entities.UserID]*entities.User{u.ID: u}); err != nil {
		return nil, err
	}
	return u, nil
}

// FindOrCreateUserByEmail finds a user by email or creates it if not found.
// The insert is ON CONFLICT DO NOTHING followed by a select, so concurrent
// callers end up with the same row.
func (s *Store) FindOrCreateUserByEmail(ctx context.Context, email, firstName, lastName string) (*entities.User, bool, error) {
	email = entities.NormalizeEmail(email)
	if email == "" {
		return nil, false, fmt.Errorf("%w: empty email", entities.ErrInvalidInput)
	}

	created, err := s.affected(ctx, `
		INSERT INTO users (email, display_name, first_name, last_name, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (email) WHERE email <> '' DO NOTHING
	`, email, entities.BuildDisplayName(firstName, lastName, email), firstName, lastName, timeNow())
	if err != nil {
		return nil, false, fmt.Errorf("inserting user: %w", err)
	}

	u, err := s.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if u == nil {
		return nil, false, fmt.Errorf("user %s vanished after insert", email)
	}
	return u, created, nil
}

// SaveUser inserts a user when ID is zero, otherwise inserts or updates the
// row with that ID. The profile is replaced as a whole.
func (s *Store) SaveUser(ctx context.Context, user *entities.User) error {
	return s.WithinTx(ctx, func(ctx context.Context) error {
		if user.CreatedAt.IsZero() {
			user.CreatedAt = timeNow()
		}
		email := entities.NormalizeEmail(user.Email)

		if user.ID == 0 {
			var id int64
			err := s.queryRow(ctx, `
				INSERT INTO users (email, display_name, first_name, last_name, created_at)
				VALUES (?, ?, ?, ?, ?)
				RETURNING id
			`, email, user.DisplayName, user.FirstName, user.LastName, user.CreatedAt).Scan(&id)
			if err != nil {
				return fmt.Errorf("inserting user: %w", err)
			}
			user.ID = entities.UserID(id)
		} else {
			_, err := s.exec(ctx, `
				INSERT INTO users (id, email, display_name, first_name, last_name, created_at)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET
					email = excluded.email,
					display_name = excluded.display_name,
					first_name = excluded.first_name,
					last_name = excluded.last_name
			`, int64(user.ID), email, user.DisplayName, user.FirstName, user.LastName, user.CreatedAt)
			if err != nil {
				return fmt.Errorf("saving user: %w", err)
			}
			if s.dialect == Postgres {
				// Keep the identity sequence ahead of explicitly chosen IDs.
				if _, err := s.exec(ctx, `SELECT setval(pg_get_serial_sequence('users', 'id'), GREATEST((SELECT MAX(id) FROM users), 1))`); err != nil {
					return fmt.Errorf("advancing user sequence: %w", err)
				}
			}
		}
		user.Email = email

		if _, err := s.exec(ctx, `DELETE FROM user_meta WHERE user_id = ?`, int64(user.ID)); err != nil {
			return fmt.Errorf("clearing user profile: %w", err)
		}
		for key, value := range user.Profile {
			if _, err := s.exec(ctx, `INSERT INTO user_meta (user_id, meta_key, meta_value) VALUES (?, ?, ?)`,
				int64(user.ID), key, value); err != nil {
				return fmt.Errorf("saving user profile: %w", err)
			}
		}
		return nil
	})
}

// SearchUsers matches display name or email case-insensitively, ordered by
// display name, and returns the total number of matches.
func (s *Store) SearchUsers(ctx context.Context, query string, limit int) ([]*entities.User, int, error) {
	pattern := containsPattern(strings.ToLower(strings.TrimSpace(query)))
	where := `WHERE LOWER(display_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\'`

	var total int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM users `+where, pattern, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}
	if total == 0 {
		return []*entities.User{}, 0, nil
	}
	if limit <= 0 {
		limit = total
	}

	users, err := s.queryUsers(ctx, `SELECT `+userColumns+` FROM users `+where+`
		ORDER BY display_name ASC, id ASC
		LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ListUsers lists users ordered by ID with pagination. A limit of zero lists all.
func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]*entities.User, error) {
	if limit <= 0 {
		limit = math.MaxInt32
	}
	return s.queryUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY id ASC LIMIT ? OFFSET ?`, limit, offset)
}

// CountUsers returns the total number of users.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

func (s *Store) queryUsers(ctx context.Context, query string, args ...any) ([]*entities.User, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	result := make([]*entities.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// loadProfiles fills Profile for every user in users.
func (s *Store) loadProfiles(ctx context.Context, users map[entities.UserID]*entities.User) error {
	if len(users) == 0 {
		return nil
	}
	args := make([]any, 0, len(users))
	for id := range users {
		args = append(args, int64(id))
	}
	rows, err := s.query(ctx, fmt.Sprintf(
		`SELECT user_id, meta_key, meta_value FROM user_meta WHERE user_id IN (%s)`, placeholders(len(args))), args...)
	if err != nil {
		return fmt.Errorf("querying user profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var key, value string
		if err := rows.Scan(&id, &key, &value); err != nil {
			return fmt.Errorf("scanning user profile: %w", err)
		}
		u := users[entities.UserID(id)]
		if u.Profile == nil {
			u.Profile = make(map[string]string)
		}
		u.Profile[key] = value
	}
	return rows.Err()
}
