package models

import "github.com/google/uuid"

// Room is a schedulable space. SessionTypes lists the session categories the
// room can host; DistancesInMinutes holds walking times to other rooms keyed
// by their id.
type Room struct {
	ID                    uuid.UUID          `json:"id" validate:"required"`
	Capacity              int                `json:"capacity" validate:"gte=0"`
	SessionTypes          []string           `json:"sessionTypes" validate:"required,min=1,dive,required"`
	PreferredSessionTypes []string           `json:"preferredSessionTypes,omitempty"`
	DistancesInMinutes    map[string]float64 `json:"distancesInMinutes,omitempty"`
	Metadata              map[string]any     `json:"metadata,omitempty"`
}

// HostsSessionType reports whether the room can host the given session type.
func (r Room) HostsSessionType(sessionType string) bool {
	for _, st := range r.SessionTypes {
		if st == sessionType {
			return true
		}
	}
	return false
}
