package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ersonp/connexions/internal/domain/entities"
	"github.com/ersonp/connexions/internal/domain/ports"
)

// GroupFormOption is the option holding the ID of the group form.
const GroupFormOption = "connexions_group_form_id"

// GroupConfig tunes the group service.
type GroupConfig struct {
	FormTitle        string
	MaxUpdateRetries int
}

// DefaultGroupConfig returns the default group settings.
func DefaultGroupConfig() GroupConfig {
	return GroupConfig{
		FormTitle:        "[Connexions] Groups",
		MaxUpdateRetries: 5,
	}
}

// GroupStore is the storage a GroupService needs.
type GroupStore interface {
	ports.RecordStore
	ports.OptionStore
}

// GroupInput is a new group submitted through the group form.
type GroupInput struct {
	Name        string
	Type        string
	Icon        string
	Description string
	CreatedBy   entities.UserID
}

// GroupService manages groups and their membership.
// Membership changes are read-modify-write cycles on the members field,
// guarded by the record revision.
type GroupService struct {
	store     GroupStore
	users     ports.UserDirectory
	tx        ports.Transactor
	tracker   ports.ActivityTracker
	sanitizer ports.Sanitizer
	metrics   ports.MetricsRecorder
	logger    *zap.Logger
	cfg       GroupConfig

	formMu sync.Mutex
	formID int64
}

// NewGroupService creates a new GroupService.
func NewGroupService(
	store GroupStore,
	users ports.UserDirectory,
	tracker ports.ActivityTracker,
	sanitizer ports.Sanitizer,
	logger *zap.Logger,
	cfg GroupConfig,
) *GroupService {
	tx, _ := store.(ports.Transactor)
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultGroupConfig()
	if cfg.FormTitle == "" {
		cfg.FormTitle = defaults.FormTitle
	}
	if cfg.MaxUpdateRetries <= 0 {
		cfg.MaxUpdateRetries = defaults.MaxUpdateRetries
	}
	return &GroupService{
		store:     store,
		users:     users,
		tx:        tx,
		tracker:   tracker,
		sanitizer: sanitizer,
		metrics:   noopMetrics{},
		logger:    logger,
		cfg:       cfg,
	}
}

// SetMetrics sets the recorder for operation outcomes.
func (s *GroupService) SetMetrics(m ports.MetricsRecorder) {
	if m != nil {
		s.metrics = m
	}
}

// Form makes sure the group form exists and matches the current schema,
// and returns its ID. A stored ID whose form is gone is replaced.
func (s *GroupService) Form(ctx context.Context) (int64, error) {
	s.formMu.Lock()
	defer s.formMu.Unlock()

	raw, err := s.store.GetOption(ctx, GroupFormOption)
	if err != nil {
		return 0, fmt.Errorf("reading group form option: %w", err)
	}

	if raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			existing, err := s.store.GetForm(ctx, id)
			if err != nil {
				return 0, fmt.Errorf("loading group form: %w", err)
			}
			if existing != nil {
				form := entities.DefaultGroupForm(s.cfg.FormTitle, existing.ConfirmationID)
				form.ID = id
				form.CreatedAt = existing.CreatedAt
				if err := s.store.UpdateForm(ctx, &form); err != nil {
					return 0, fmt.Errorf("updating group form: %w", err)
				}
				s.formID = id
				return id, nil
			}
		}
		s.logger.Warn("stored group form is missing, recreating", zap.String("form_id", raw))
	}

	form := entities.DefaultGroupForm(s.cfg.FormTitle, uuid.NewString())
	id, err := s.store.CreateForm(ctx, &form)
	if err != nil {
		return 0, fmt.Errorf("creating group form: %w", err)
	}
	if err := s.store.SetOption(ctx, GroupFormOption, strconv.FormatInt(id, 10)); err != nil {
		return 0, fmt.Errorf("saving group form option: %w", err)
	}
	s.formID = id
	s.logger.Info("group form created", zap.Int64("form_id", id))
	return id, nil
}

// cachedForm returns the form ID, running Form once per service.
func (s *GroupService) cachedForm(ctx context.Context) (int64, error) {
	s.formMu.Lock()
	id := s.formID
	s.formMu.Unlock()
	if id != 0 {
		return id, nil
	}
	return s.Form(ctx)
}

// Get returns a group by ID, or ErrGroupNotFound.
func (s *GroupService) Get(ctx context.Context, groupID int64) (*entities.Group, error) {
	formID, err := s.cachedForm(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.GetRecord(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("loading group %d: %w", groupID, err)
	}
	if rec == nil || rec.FormID != formID {
		return nil, fmt.Errorf("%w: %d", entities.ErrGroupNotFound, groupID)
	}
	return s.groupFromRecord(rec)
}

// groupFromRecord decodes rec, logging member entries that are not user IDs.
func (s *GroupService) groupFromRecord(rec *entities.Record) (*entities.Group, error) {
	g, err := entities.GroupFromRecord(rec)
	if err != nil {
		return nil, err
	}
	if len(g.SkippedMembers) > 0 {
		s.logger.Warn("group has malformed member entries",
			zap.Int64("group_id", g.ID), zap.Strings("entries", g.SkippedMembers))
	}
	return g, nil
}

// Members resolves the members of group, in member order.
// IDs that no longer resolve are skipped.
func (s *GroupService) Members(ctx context.Context, group *entities.Group) ([]*entities.User, error) {
	if len(group.Members) == 0 {
		return []*entities.User{}, nil
	}
	found, err := s.users.FindUsersByIDs(ctx, group.Members)
	if err != nil {
		return nil, fmt.Errorf("resolving members of group %d: %w", group.ID, err)
	}

	members := make([]*entities.User, 0, len(group.Members))
	for _, id := range group.Members {
		user, ok := found[id]
		if !ok || user == nil {
			s.logger.Warn("group member does not resolve",
				zap.Int64("group_id", group.ID), zap.Int64("user_id", int64(id)))
			continue
		}
		members = append(members, user)
	}
	return members, nil
}

// AddUser adds user to a group. It returns false when the user is already a member.
func (s *GroupService) AddUser(ctx context.Context, user entities.UserID, groupID int64, track bool) (bool, error) {
	u, err := resolveUser(ctx, s.users, user)
	if err != nil {
		s.metrics.ObserveOperation("group_add_user", outcomeError)
		return false, err
	}
	group, changed, err := s.updateMembers(ctx, groupID, func(m entities.MemberList) (entities.MemberList, bool) {
		return m.Add(user)
	})
	if err != nil {
		s.metrics.ObserveOperation("group_add_user", outcomeError)
		return false, err
	}
	if !changed {
		s.metrics.ObserveOperation("group_add_user", outcomeRejected)
		return false, nil
	}

	s.metrics.ObserveOperation("group_add_user", outcomeOK)
	if track {
		s.trackAdded(ctx, u, group)
	}
	return true, nil
}

// RemoveUser removes user from a group, keeping the order of the remaining
// members. It returns false when the user is not a member.
func (s *GroupService) RemoveUser(ctx context.Context, user entities.UserID, groupID int64, track bool) (bool, error) {
	group, changed, err := s.updateMembers(ctx, groupID, func(m entities.MemberList) (entities.MemberList, bool) {
		return m.Remove(user)
	})
	if err != nil {
		s.metrics.ObserveOperation("group_remove_user", outcomeError)
		return false, err
	}
	if !changed {
		s.metrics.ObserveOperation("group_remove_user", outcomeRejected)
		return false, nil
	}

	s.metrics.ObserveOperation("group_remove_user", outcomeOK)
	if track {
		u, err := s.users.FindUserByID(ctx, user)
		if err != nil || u == nil {
			// Removal of a deleted account still succeeds; there is no one to notify.
			return true, nil
		}
		s.track(ctx, entities.ActivityRelationships, entities.TitleGroupRemoved,
			fmt.Sprintf("%s is no longer a member of %s", u.Label(), group.Label()), u)
	}
	return true, nil
}

// updateMembers applies fn to the members of a group and writes the result
// back, re-reading and retrying when another writer got there first.
func (s *GroupService) updateMembers(
	ctx context.Context,
	groupID int64,
	fn func(entities.MemberList) (entities.MemberList, bool),
) (*entities.Group, bool, error) {
	for attempt := 0; attempt <= s.cfg.MaxUpdateRetries; attempt++ {
		group, err := s.Get(ctx, groupID)
		if err != nil {
			return nil, false, err
		}
		members, changed := fn(group.Members)
		if !changed {
			return group, false, nil
		}

		rec := &entities.Record{
			ID:       group.ID,
			FormID:   group.FormID,
			Revision: group.Revision,
			Fields:   map[int]string{entities.FieldGroupMembers: entities.EncodeMembers(members)},
		}
		err = s.store.UpdateRecord(ctx, rec)
		if err == nil {
			group.Members = members
			group.Revision = rec.Revision
			return group, true, nil
		}
		if !errors.Is(err, entities.ErrRevisionConflict) {
			return nil, false, fmt.Errorf("saving group %d: %w", groupID, err)
		}
		s.metrics.ObserveRevisionConflict()
		s.logger.Debug("group changed concurrently, retrying",
			zap.Int64("group_id", groupID), zap.Int("attempt", attempt+1))
	}
	return nil, false, fmt.Errorf("saving group %d after %d attempts: %w",
		groupID, s.cfg.MaxUpdateRetries+1, entities.ErrRevisionConflict)
}

// ForUser returns the groups user belongs to, ordered by ID.
func (s *GroupService) ForUser(ctx context.Context, user entities.UserID) ([]*entities.Group, error) {
	formID, err := s.cachedForm(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := s.store.SearchRecords(ctx, formID, entities.RecordFilter{
		FieldID: entities.FieldGroupMembers,
		Value:   entities.MemberSearchToken(user),
	})
	if err != nil {
		return nil, fmt.Errorf("searching groups of %d: %w", user, err)
	}

	groups := make([]*entities.Group, 0, len(recs))
	for _, rec := range recs {
		g, err := s.groupFromRecord(rec)
		if err != nil {
			return nil, err
		}
		if g.Members.Contains(user) {
			groups = append(groups, g)
		}
	}
	return groups, nil
}

// Create submits a new group record and returns its ID.
func (s *GroupService) Create(ctx context.Context, in GroupInput) (int64, error) {
	group, err := s.submit(ctx, in)
	if err != nil {
		return 0, err
	}
	s.metrics.ObserveOperation("group_create", outcomeOK)
	s.trackCreated(ctx, group, in.CreatedBy)
	return group.ID, nil
}

// submit validates in and stores it as a group record, without tracking.
func (s *GroupService) submit(ctx context.Context, in GroupInput) (*entities.Group, error) {
	name := strings.TrimSpace(s.cleanText(in.Name))
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", entities.ErrInvalidInput)
	}
	groupType, err := entities.ParseGroupType(in.Type)
	if err != nil {
		return nil, err
	}
	formID, err := s.cachedForm(ctx)
	if err != nil {
		return nil, err
	}

	description := strings.TrimSpace(in.Description)
	if s.sanitizer != nil {
		description = s.sanitizer.RichText(description)
	}
	group := &entities.Group{
		FormID:      formID,
		Name:        name,
		Type:        groupType,
		Icon:        strings.TrimSpace(s.cleanText(in.Icon)),
		Description: description,
		Members:     entities.MemberList{},
	}
	id, err := s.store.SubmitRecord(ctx, formID, group.RecordFields())
	if err != nil {
		s.metrics.ObserveOperation("group_create", outcomeError)
		return nil, fmt.Errorf("submitting group: %w", err)
	}
	group.ID = id
	s.logger.Info("group created", zap.Int64("group_id", id), zap.String("type", string(groupType)))
	return group, nil
}

// CreateFromEmails creates a group and adds a member per email, creating
// users for unknown addresses. Blank lines are ignored. The group and its
// members are written in one transaction and tracked after commit.
func (s *GroupService) CreateFromEmails(ctx context.Context, name, groupType string, emails []string) (int64, error) {
	cleaned := make([]string, 0, len(emails))
	for i, raw := range emails {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		email, err := ValidateEmail(raw)
		if err != nil {
			return 0, fmt.Errorf("email %d: %w", i+1, err)
		}
		cleaned = append(cleaned, email)
	}

	// The form must outlive a rolled back group.
	if _, err := s.cachedForm(ctx); err != nil {
		return 0, err
	}

	var (
		group *entities.Group
		added []*entities.User
	)
	err := withinTx(ctx, s.tx, func(ctx context.Context) error {
		group, added = nil, nil
		var err error
		if group, err = s.submit(ctx, GroupInput{Name: name, Type: groupType}); err != nil {
			return err
		}
		for _, email := range cleaned {
			user, _, err := s.users.FindOrCreateUserByEmail(ctx, email, UnknownName, UnknownName)
			if err != nil {
				return fmt.Errorf("finding or creating user %s: %w", email, err)
			}
			ok, err := s.AddUser(ctx, user.ID, group.ID, false)
			if err != nil {
				return err
			}
			if ok {
				added = append(added, user)
			}
		}
		return nil
	})
	if err != nil {
		if group == nil {
			return 0, err
		}
		s.metrics.ObserveOperation("group_create", outcomeError)
		if s.tx == nil {
			return 0, &entities.PartialGroupError{GroupID: group.ID, Err: err}
		}
		return 0, err
	}

	s.metrics.ObserveOperation("group_create", outcomeOK)
	s.trackCreated(ctx, group, 0)
	for _, u := range added {
		s.trackAdded(ctx, u, group)
	}
	return group.ID, nil
}

// MergeUsers moves every group membership of from onto to, without tracking.
func (s *GroupService) MergeUsers(ctx context.Context, to, from entities.UserID) error {
	if _, err := s.cachedForm(ctx); err != nil {
		return err
	}
	return withinTx(ctx, s.tx, func(ctx context.Context) error {
		groups, err := s.ForUser(ctx, from)
		if err != nil {
			return err
		}
		for _, g := range groups {
			if _, err := s.RemoveUser(ctx, from, g.ID, false); err != nil {
				return err
			}
			if _, err := s.AddUser(ctx, to, g.ID, false); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GroupService) cleanText(v string) string {
	if s.sanitizer == nil {
		return v
	}
	return s.sanitizer.Text(v)
}

func (s *GroupService) trackCreated(ctx context.Context, group *entities.Group, createdBy entities.UserID) {
	if s.tracker == nil {
		return
	}
	activity := entities.Activity{
		Type:        entities.ActivityGroups,
		Source:      entities.ActivitySource,
		Title:       fmt.Sprintf("New %s group created: %s", group.Type, group.Name),
		Description: group.Description,
		UserID:      createdBy,
	}
	if createdBy != 0 {
		if u, err := s.users.FindUserByID(ctx, createdBy); err == nil && u != nil {
			activity.Email = u.Email
		}
	}
	s.tracker.Track(ctx, activity)
}

func (s *GroupService) trackAdded(ctx context.Context, u *entities.User, group *entities.Group) {
	s.track(ctx, entities.ActivityGroups, entities.TitleGroupAdded,
		fmt.Sprintf("%s is now a member of %s", u.Label(), group.Label()), u)
}

// track records a membership event. Removals are logged under the
// relationships type.
func (s *GroupService) track(ctx context.Context, kind entities.ActivityType, title, description string, u *entities.User) {
	if s.tracker == nil {
		return
	}
	s.tracker.Track(ctx, entities.Activity{
		Type:        kind,
		Source:      entities.ActivitySource,
		Title:       title,
		Description: description,
		UserID:      u.ID,
		Email:       u.Email,
	})
}
