// Package store persists slots and the memory event log.
package store

import (
	"context"
	"errors"

	"github.com/rcliao/pawscribe/internal/model"
)

// ErrSlotNotFound is returned when a slot does not exist.
var ErrSlotNotFound = errors.New("slot not found")

// MaxEvents bounds the persisted event log; older entries are pruned.
const MaxEvents = 200

// ListEventsParams holds parameters for listing memory events.
type ListEventsParams struct {
	Type  string
	Limit int
}

// SlotStore stores named slots.
type SlotStore interface {
	// GetSlot returns the slot value. A missing slot is ("", false, nil).
	GetSlot(ctx context.Context, name string) (string, bool, error)

	// SetSlot creates or replaces a slot.
	SetSlot(ctx context.Context, name, value string) error

	// ListSlots returns every slot ordered by name.
	ListSlots(ctx context.Context) ([]model.Slot, error)

	// RmSlot deletes a slot. Returns ErrSlotNotFound if it does not exist.
	RmSlot(ctx context.Context, name string) error

	// Close releases the backend.
	Close() error
}

// EventStore stores the memory event log.
type EventStore interface {
	// AppendEvent stores e, assigning its ID and timestamp when empty.
	AppendEvent(ctx context.Context, e *model.MemoryEntry) error

	// ListEvents returns events newest first.
	ListEvents(ctx context.Context, p ListEventsParams) ([]model.MemoryEntry, error)
}
