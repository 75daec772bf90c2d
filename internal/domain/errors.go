package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced plan or item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied indicates the engagement is outside the caller's access scope.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidTransition indicates a lifecycle instruction is not permitted
	// from the item's current status or is missing a required input.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInvalidPlan indicates a plan failed structural validation on save.
	ErrInvalidPlan = errors.New("invalid plan")
)

// TransitionError describes a rejected lifecycle instruction.
type TransitionError struct {
	ItemID int64
	From   ItemStatus
	To     ItemStatus
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("item %d: %s -> %s: %s", e.ItemID, e.From, e.To, e.Reason)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

func transitionErr(item *InvoiceItem, to ItemStatus, reason string) error {
	return &TransitionError{ItemID: item.ID, From: item.Status, To: to, Reason: reason}
}
