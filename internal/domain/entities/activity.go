package entities

import "time"

// ActivityType classifies activity log entries.
type ActivityType string

const (
	ActivityRelationships ActivityType = "relationships"
	ActivityGroups        ActivityType = "groups"
)

// ActivitySource tags every entry written by this system.
const ActivitySource = "connexions-relationships"

// Activity titles.
const (
	TitleRelationshipAdded   = "Relationship Added"
	TitleRelationshipUpdated = "Relationship Updated"
	TitleRelationshipRemoved = "Relationship Removed"
	TitleGroupAdded          = "Group Added"
	TitleGroupRemoved        = "Group Removed"
	TitleUsersMerged         = "Users Merged"
)

// Activity is one entry in a user's activity log.
type Activity struct {
	ID          string       `json:"id"`
	Type        ActivityType `json:"type"`
	Source      string       `json:"source"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	UserID      UserID       `json:"user_id"`
	Email       string       `json:"email"`
	CreatedAt   time.Time    `json:"created_at"`
}
