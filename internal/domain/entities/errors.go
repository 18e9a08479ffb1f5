package entities

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvableIdentity is returned when a user ID does not resolve to an account.
	ErrUnresolvableIdentity = errors.New("user does not exist")
	// ErrGroupNotFound is returned when a group record does not exist.
	ErrGroupNotFound = errors.New("group not found")
	// ErrSelfRelationship is returned when both ends of a relationship are the same user.
	ErrSelfRelationship = errors.New("a user cannot be related to itself")
	// ErrInvalidRelationType is returned for relationship types that are not registered.
	ErrInvalidRelationType = errors.New("invalid relationship type")
	// ErrInvalidGroupType is returned for group types outside the form's choices.
	ErrInvalidGroupType = errors.New("invalid group type")
	// ErrRevisionConflict is returned when a record changed since it was read.
	ErrRevisionConflict = errors.New("record revision conflict")
	ErrInvalidUserID    = errors.New("invalid user id")
	// ErrInvalidInput is returned for malformed caller input such as a bad email.
	ErrInvalidInput = errors.New("invalid input")
)

// PartialWriteError reports a paired edge write where only the forward edge
// landed. It is only possible when the store runs without transactions.
type PartialWriteError struct {
	Op      string
	Forward Relationship
	Inverse Relationship
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%s: wrote %s %d->%d but not %d->%d: %v",
		e.Op, e.Forward.Type, e.Forward.UserA, e.Forward.UserB,
		e.Inverse.UserA, e.Inverse.UserB, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

// PartialGroupError reports a group that was stored while some of its
// members were not. It is only possible when the store runs without
// transactions.
type PartialGroupError struct {
	GroupID int64
	Err     error
}

func (e *PartialGroupError) Error() string {
	return fmt.Sprintf("group %d stored with missing members: %v", e.GroupID, e.Err)
}

func (e *PartialGroupError) Unwrap() error {
	return e.Err
}
