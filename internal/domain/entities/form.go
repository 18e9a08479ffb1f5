package entities

import (
	"fmt"
	"strconv"
	"time"
)

// Group form field slots.
const (
	FieldGroupName        = 1
	FieldGroupType        = 2
	FieldGroupIcon        = 3
	FieldGroupDescription = 4
	FieldGroupMembers     = 5
)

// FieldType identifies how a form field is rendered and validated.
type FieldType string

const (
	FieldText       FieldType = "text"
	FieldSelect     FieldType = "select"
	FieldFileUpload FieldType = "fileupload"
	FieldTextarea   FieldType = "textarea"
	FieldList       FieldType = "list"
)

// FieldChoice is one option of a select field.
type FieldChoice struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}

// FormField describes one field of a form.
type FormField struct {
	ID                int           `json:"id"`
	Type              FieldType     `json:"type"`
	Label             string        `json:"label"`
	Description       string        `json:"description,omitempty"`
	Required          bool          `json:"required,omitempty"`
	Hidden            bool          `json:"hidden,omitempty"`
	RichText          bool          `json:"rich_text,omitempty"`
	Choices           []FieldChoice `json:"choices,omitempty"`
	MaxFileSizeMB     int           `json:"max_file_size_mb,omitempty"`
	AllowedExtensions string        `json:"allowed_extensions,omitempty"`
}

// Form is a schema descriptor in the record store.
type Form struct {
	ID                  int64       `json:"id"`
	Title               string      `json:"title"`
	ConfirmationID      string      `json:"confirmation_id,omitempty"`
	ConfirmationMessage string      `json:"confirmation_message,omitempty"`
	Fields              []FormField `json:"fields"`
	CreatedAt           time.Time   `json:"created_at"`
}

// Field returns the field with the given slot id, or nil.
func (f *Form) Field(id int) *FormField {
	for i := range f.Fields {
		if f.Fields[i].ID == id {
			return &f.Fields[i]
		}
	}
	return nil
}

// Record is one submission of a form. Revision increases on every update.
type Record struct {
	ID        int64          `json:"id"`
	FormID    int64          `json:"form_id"`
	Fields    map[int]string `json:"fields"`
	Revision  int64          `json:"revision"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Field returns the value of a field slot, or "" when unset.
func (r *Record) Field(id int) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[id]
}

// RecordFilter selects records whose field value contains Value.
type RecordFilter struct {
	FieldID int
	Value   string
}

// DefaultGroupForm returns the schema of the group form.
func DefaultGroupForm(title, confirmationID string) Form {
	choices := make([]FieldChoice, len(GroupTypes))
	for i, t := range GroupTypes {
		choices[i] = FieldChoice{Text: string(t), Value: string(t)}
	}
	return Form{
		Title:               title,
		ConfirmationID:      confirmationID,
		ConfirmationMessage: "Group saved successfully.",
		Fields: []FormField{
			{ID: FieldGroupName, Type: FieldText, Label: "Group Name", Required: true},
			{ID: FieldGroupType, Type: FieldSelect, Label: "Group Type", Required: true, Choices: choices},
			{
				ID:                FieldGroupIcon,
				Type:              FieldFileUpload,
				Label:             "Icon",
				Description:       "Recommended dimensions 150x150px.",
				MaxFileSizeMB:     1,
				AllowedExtensions: "jpg,jpeg,gif,png",
			},
			{ID: FieldGroupDescription, Type: FieldTextarea, Label: "Description", RichText: true},
			{ID: FieldGroupMembers, Type: FieldList, Label: "Members", Hidden: true},
		},
	}
}

// GroupFromRecord maps a group form record onto a Group.
// An unknown stored type is kept as-is so old records stay readable.
// Member entries that do not parse end up in SkippedMembers.
func GroupFromRecord(r *Record) (*Group, error) {
	members, skipped, err := DecodeMembers(r.Field(FieldGroupMembers))
	if err != nil {
		return nil, fmt.Errorf("group %d: %w", r.ID, err)
	}
	return &Group{
		ID:             r.ID,
		FormID:         r.FormID,
		Name:           r.Field(FieldGroupName),
		Type:           GroupType(r.Field(FieldGroupType)),
		Icon:           r.Field(FieldGroupIcon),
		Description:    r.Field(FieldGroupDescription),
		Members:        members,
		Revision:       r.Revision,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		SkippedMembers: skipped,
	}, nil
}

// RecordFields returns the field values that represent g in the group form.
func (g *Group) RecordFields() map[int]string {
	return map[int]string{
		FieldGroupName:        g.Name,
		FieldGroupType:        string(g.Type),
		FieldGroupIcon:        g.Icon,
		FieldGroupDescription: g.Description,
		FieldGroupMembers:     EncodeMembers(g.Members),
	}
}

// Label returns the group name, or its ID when unnamed.
func (g *Group) Label() string {
	if g.Name != "" {
		return g.Name
	}
	return "#" + strconv.FormatInt(g.ID, 10)
}
