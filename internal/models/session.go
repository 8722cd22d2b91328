package models

import "github.com/google/uuid"

// RoomsPreferences partitions rooms into hard-excluded, penalized and
// preferred sets for one session.
type RoomsPreferences struct {
	Disallowed []uuid.UUID `json:"disallowed,omitempty"`
	Penalized  []uuid.UUID `json:"penalized,omitempty"`
	Preferred  []uuid.UUID `json:"preferred,omitempty"`
}

// TimeslotsPreferences partitions (possibly multi-slot) timeframes the same
// way. Each entry is expanded into the grid's sub-slots before emission.
type TimeslotsPreferences struct {
	Disallowed []Slot `json:"disallowed,omitempty"`
	Penalized  []Slot `json:"penalized,omitempty"`
	Preferred  []Slot `json:"preferred,omitempty"`
}

// SessionConstraints bundles everything the compiler needs to know about one
// session besides its identity.
type SessionConstraints struct {
	SessionType string   `json:"sessionType" validate:"required"`
	Duration    Duration `json:"duration"`

	CannotConflictInTime       []uuid.UUID `json:"cannotConflictInTime,omitempty"`
	AvoidConflictInTime        []uuid.UUID `json:"avoidConflictInTime,omitempty"`
	SameRoomIfContiguousInTime []uuid.UUID `json:"sameRoomIfContiguousInTime,omitempty"`
	ApplyRoomDistances         []uuid.UUID `json:"applyRoomDistances,omitempty"`

	RoomsPreferences     RoomsPreferences     `json:"roomsPreferences,omitempty"`
	TimeslotsPreferences TimeslotsPreferences `json:"timeslotsPreferences,omitempty"`
}

// Session is an activity to be placed on the grid.
type Session struct {
	ID          uuid.UUID          `json:"id" validate:"required"`
	Constraints SessionConstraints `json:"constraints"`
	Metadata    map[string]any     `json:"metadata,omitempty"`
}
