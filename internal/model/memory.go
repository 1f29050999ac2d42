// Package model defines the core data types shared by the responder.
package model

import "time"

// MemoryEntry is an extracted fact kept in the bounded event log.
type MemoryEntry struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Predicate  string    `json:"predicate,omitempty"`
	Object     string    `json:"object,omitempty"`
	RawText    string    `json:"raw_text"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// Slot is a named string fact persisted across restarts.
type Slot struct {
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a recent user utterance kept for recall and case restoration.
type Message struct {
	Text       string    `json:"text"`
	Normalized string    `json:"normalized"`
	At         time.Time `json:"at"`
}

// Export is the JSON document produced by export and consumed by import.
type Export struct {
	Slots    []Slot        `json:"slots"`
	Memories []MemoryEntry `json:"memories"`
}

// ValidEntryTypes are the allowed memory entry types.
var ValidEntryTypes = map[string]bool{
	"event": true,
	"fact":  true,
	"state": true,
}
