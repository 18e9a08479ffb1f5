package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/ersonp/connexions/internal/domain/entities"
	"github.com/ersonp/connexions/internal/domain/ports"
)

// DefaultSearchLimit is the number of users returned by a search when no
// limit is given.
const DefaultSearchLimit = 10

// UnknownName is used for first and last name of users created from a bare email.
const UnknownName = "Unknown"

// UserSearchResult is one page of a user search.
type UserSearchResult struct {
	Users []*entities.User `json:"users"`
	Total int              `json:"total"`
}

// More reports whether the search matched more users than were returned.
func (r *UserSearchResult) More() bool {
	return r.Total > len(r.Users)
}

// UserService resolves user identities from the directory.
type UserService struct {
	users ports.UserDirectory
}

// NewUserService creates a new UserService.
func NewUserService(users ports.UserDirectory) *UserService {
	return &UserService{users: users}
}

// Resolve returns the user with the given ID, or ErrUnresolvableIdentity.
func (s *UserService) Resolve(ctx context.Context, id entities.UserID) (*entities.User, error) {
	return resolveUser(ctx, s.users, id)
}

// ResolveMany returns the users that exist among ids.
func (s *UserService) ResolveMany(ctx context.Context, ids []entities.UserID) (map[entities.UserID]*entities.User, error) {
	if len(ids) == 0 {
		return map[entities.UserID]*entities.User{}, nil
	}
	users, err := s.users.FindUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("finding users: %w", err)
	}
	return users, nil
}

// FindByEmail finds a user by email address, or nil.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return s.users.FindUserByEmail(ctx, entities.NormalizeEmail(email))
}

// FindOrCreateByEmail validates email and returns the matching user,
// creating one named "Unknown Unknown" when none exists.
func (s *UserService) FindOrCreateByEmail(ctx context.Context, email string) (*entities.User, bool, error) {
	email, err := ValidateEmail(email)
	if err != nil {
		return nil, false, err
	}
	user, created, err := s.users.FindOrCreateUserByEmail(ctx, email, UnknownName, UnknownName)
	if err != nil {
		return nil, false, fmt.Errorf("finding or creating user %s: %w", email, err)
	}
	return user, created, nil
}

// Search matches display name or email, case-insensitively.
func (s *UserService) Search(ctx context.Context, query string, limit int) (*UserSearchResult, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	users, total, err := s.users.SearchUsers(ctx, strings.TrimSpace(query), limit)
	if err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}
	return &UserSearchResult{Users: users, Total: total}, nil
}

// List returns users with pagination.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]*entities.User, error) {
	return s.users.ListUsers(ctx, limit, offset)
}

// Count returns the number of users.
func (s *UserService) Count(ctx context.Context) (int, error) {
	return s.users.CountUsers(ctx)
}

// Save creates or updates a user, filling in the display name when empty.
func (s *UserService) Save(ctx context.Context, user *entities.User) error {
	if user.Email != "" {
		email, err := ValidateEmail(user.Email)
		if err != nil {
			return err
		}
		user.Email = email
	}
	if user.DisplayName == "" {
		user.DisplayName = entities.BuildDisplayName(user.FirstName, user.LastName, user.Email)
	}
	if err := s.users.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}

// ValidateEmail trims and lowercases an address and checks its syntax.
func ValidateEmail(email string) (string, error) {
	email = entities.NormalizeEmail(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: email address %q", entities.ErrInvalidInput, email)
	}
	return email, nil
}

func resolveUser(ctx context.Context, users ports.UserDirectory, id entities.UserID) (*entities.User, error) {
	user, err := users.FindUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding user %d: %w", id, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrUnresolvableIdentity, id)
	}
	return user, nil
}
