package entities

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// GroupType is one of the choices offered by the group form.
type GroupType string

const (
	GroupFamily   GroupType = "Family"
	GroupBusiness GroupType = "Business"
	GroupChurch   GroupType = "Church"
	GroupEvent    GroupType = "Event"
	GroupOther    GroupType = "Other"
)

// GroupTypes lists the group types in form order.
var GroupTypes = []GroupType{GroupFamily, GroupBusiness, GroupChurch, GroupEvent, GroupOther}

// ParseGroupType matches s case-insensitively against the known group types.
func ParseGroupType(s string) (GroupType, error) {
	s = strings.TrimSpace(s)
	for _, t := range GroupTypes {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGroupType, s)
}

// Group is a named set of users backed by one record of the group form.
type Group struct {
	ID          int64      `json:"id"`
	FormID      int64      `json:"form_id"`
	Name        string     `json:"name"`
	Type        GroupType  `json:"type"`
	Icon        string     `json:"icon,omitempty"`
	Description string     `json:"description,omitempty"`
	Members     MemberList `json:"members"`
	Revision    int64      `json:"revision"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// SkippedMembers holds stored member entries that are not user IDs.
	// They are dropped when the members field is next written.
	SkippedMembers []string `json:"-"`
}

// MemberList is an ordered list of unique user IDs.
type MemberList []UserID

// Contains reports whether id is a member, comparing canonical string forms.
func (m MemberList) Contains(id UserID) bool {
	want := id.String()
	for _, member := range m {
		if member.String() == want {
			return true
		}
	}
	return false
}

// Add appends id when it is not already present.
func (m MemberList) Add(id UserID) (MemberList, bool) {
	if m.Contains(id) {
		return m, false
	}
	return append(slices.Clone(m), id), true
}

// Remove drops every occurrence of id, keeping the order of the rest.
func (m MemberList) Remove(id UserID) (MemberList, bool) {
	if !m.Contains(id) {
		return m, false
	}
	out := make(MemberList, 0, len(m)-1)
	for _, member := range m {
		if member != id {
			out = append(out, member)
		}
	}
	return out, true
}

// MemberSearchToken is the substring that identifies id inside an encoded
// members field.
func MemberSearchToken(id UserID) string {
	return strconv.Quote(id.String())
}

// EncodeMembers serializes members as a JSON array of quoted IDs, e.g. ["1","12"].
func EncodeMembers(m MemberList) string {
	strs := make([]string, len(m))
	for i, id := range m {
		strs[i] = id.String()
	}
	b, _ := json.Marshal(strs)
	return string(b)
}

// DecodeMembers parses an encoded members field. An empty field is an
// empty list. Numeric entries written by older tools are accepted. Entries
// that are not valid user IDs are left out of the list and returned as
// skipped.
func DecodeMembers(raw string) (MemberList, []string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return MemberList{}, nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, nil, fmt.Errorf("decoding members: %w", err)
	}
	members := make(MemberList, 0, len(items))
	var skipped []string
	for _, item := range items {
		text := string(item)
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			text = s
		}
		id, err := ParseUserID(text)
		if err != nil {
			skipped = append(skipped, text)
			continue
		}
		if !members.Contains(id) {
			members = append(members, id)
		}
	}
	return members, skipped, nil
}
