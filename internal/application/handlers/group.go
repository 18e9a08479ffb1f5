package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/ersonp/connexions/internal/domain/entities"
	"github.com/ersonp/connexions/internal/domain/services"
)

// Messages shown for group actions.
const (
	MsgGroupSaved            = "Group saved successfully."
	MsgGroupFieldsRequired   = "All fields are required."
	MsgGroupMemberAdded      = "User added to the group."
	MsgGroupMemberExists     = "User is already a member of this group."
	MsgGroupMemberRemoved    = "User removed from the group."
	MsgGroupMemberNotPresent = "User is not a member of this group."
)

// GroupHandler handles group operations.
type GroupHandler struct {
	service *services.GroupService
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(service *services.GroupService) *GroupHandler {
	return &GroupHandler{
		service: service,
	}
}

// GroupCreated is returned after a group is stored.
type GroupCreated struct {
	Outcome
	GroupID int64 `json:"group_id"`
}

// GroupDetails is a group with its resolved members.
type GroupDetails struct {
	Group   *entities.Group  `json:"group"`
	Members []*entities.User `json:"members"`
}

// HandleCreate creates an empty group.
func (h *GroupHandler) HandleCreate(ctx context.Context, in services.GroupInput) (*GroupCreated, error) {
	id, err := h.service.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	return &GroupCreated{Outcome: Outcome{Success: true, Message: MsgGroupSaved}, GroupID: id}, nil
}

// HandleCreateFromEmails creates a group whose members are the given
// addresses, one per entry. Name, type and at least one email are required.
func (h *GroupHandler) HandleCreateFromEmails(ctx context.Context, name, groupType string, emails []string) (*GroupCreated, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(groupType) == "" || !hasContent(emails) {
		return &GroupCreated{Outcome: Outcome{Success: false, Message: MsgGroupFieldsRequired}}, nil
	}
	id, err := h.service.CreateFromEmails(ctx, name, groupType, emails)
	if err != nil {
		return nil, err
	}
	return &GroupCreated{Outcome: Outcome{Success: true, Message: MsgGroupSaved}, GroupID: id}, nil
}

// HandleGet returns a group with its members.
func (h *GroupHandler) HandleGet(ctx context.Context, groupID int64) (*GroupDetails, error) {
	group, err := h.service.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	members, err := h.service.Members(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("resolving members of group %d: %w", groupID, err)
	}
	return &GroupDetails{Group: group, Members: members}, nil
}

// HandleAddMember adds user to a group and records the activity.
func (h *GroupHandler) HandleAddMember(ctx context.Context, groupID int64, user entities.UserID) (*Outcome, error) {
	ok, err := h.service.AddUser(ctx, user, groupID, true)
	if err != nil {
		return nil, err
	}
	return outcome(ok, MsgGroupMemberAdded, MsgGroupMemberExists), nil
}

// HandleRemoveMember removes user from a group and records the activity.
func (h *GroupHandler) HandleRemoveMember(ctx context.Context, groupID int64, user entities.UserID) (*Outcome, error) {
	ok, err := h.service.RemoveUser(ctx, user, groupID, true)
	if err != nil {
		return nil, err
	}
	return outcome(ok, MsgGroupMemberRemoved, MsgGroupMemberNotPresent), nil
}

// HandleForUser returns the groups user belongs to.
func (h *GroupHandler) HandleForUser(ctx context.Context, user entities.UserID) ([]*entities.Group, error) {
	return h.service.ForUser(ctx, user)
}

func hasContent(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}
