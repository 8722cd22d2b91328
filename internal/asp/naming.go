// Package asp compiles the timetabling domain model into a ground logic
// program for Clingo and decodes answer sets back into schedules.
package asp

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/uniterm/timetabler/internal/models"
)

// Predicate lexicon. The names and arities are the external contract between
// the emitted program, the solver output and the decoder.
const (
	PredTimeslot                 = "timeslot"
	PredRoom                     = "room"
	PredRoomType                 = "room_type"
	PredSession                  = "session"
	PredRoomDistance             = "room_distance"
	PredUndesirableTimeslot      = "undesirable_timeslot"
	PredNoTimeslotOverlap        = "no_timeslot_overlap_in_sessions"
	PredAvoidTimeslotOverlap     = "avoid_timeslot_overlap_in_sessions"
	PredSameRoomIfContiguous     = "same_room_if_contiguous_sessions"
	PredApplyRoomDistances       = "apply_room_distances_to_sessions"
	PredPreferredRoomForSession  = "preferred_room_for_session"
	PredPenalizedRoomForSession  = "penalized_room_for_session"
	PredPreferredSlotForSession  = "preferred_timeslot_for_session"
	PredPenalizedSlotForSession  = "penalized_timeslot_for_session"
	PredEligibleSlotForSession   = "eligible_timeslot_for_session"
	PredEligibleRoomForSession   = "eligible_room_for_session"
	PredAssignedTimeslot         = "assigned_timeslot"
	PredAssignedRoom             = "assigned_room"
	PredScheduledSession         = "scheduled_session"
	PredPenalty                  = "penalty"
	PredBonus                    = "bonus"
)

// Variable lexicon.
const (
	varAny      = "_"
	varTimeslot = "T"
	varSession  = "S"
	varDuration = "H"
	varRoom     = "R"

	varPenaltyName     = "PN"
	varPenaltyCost     = "PC"
	varPenaltyValue    = "PV"
	varPenaltyPriority = "PP"
	varBonusName       = "BN"
	varBonusCost       = "BC"
	varBonusValue      = "BV"
	varBonusPriority   = "BP"
)

const (
	roomAtomPrefix        = "room_"
	sessionAtomPrefix     = "session_"
	sessionTypeAtomPrefix = "st_"
)

// RoomAtomName encodes a room id as a lowercase program constant.
func RoomAtomName(id uuid.UUID) string {
	return roomAtomPrefix + hex.EncodeToString(id[:])
}

// SessionAtomName encodes a session id as a lowercase program constant.
func SessionAtomName(id uuid.UUID) string {
	return sessionAtomPrefix + hex.EncodeToString(id[:])
}

// SessionTypeAtomName encodes a session type tag as a program constant.
func SessionTypeAtomName(tag string) string {
	var b strings.Builder
	b.WriteString(sessionTypeAtomPrefix)
	for _, r := range strings.ToLower(tag) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// RoomIDFromAtom inverts RoomAtomName.
func RoomIDFromAtom(name string) (uuid.UUID, error) {
	return idFromAtom(name, roomAtomPrefix)
}

// SessionIDFromAtom inverts SessionAtomName.
func SessionIDFromAtom(name string) (uuid.UUID, error) {
	return idFromAtom(name, sessionAtomPrefix)
}

func idFromAtom(name, prefix string) (uuid.UUID, error) {
	if !strings.HasPrefix(name, prefix) {
		return uuid.UUID{}, fmt.Errorf("atom %q does not carry the %q prefix", name, prefix)
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(name, prefix))
	if err != nil || len(raw) != 16 {
		return uuid.UUID{}, fmt.Errorf("atom %q does not carry a valid id", name)
	}
	var id uuid.UUID
	copy(id[:], raw)
	return id, nil
}

var dayAbbreviations = [...]string{"MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN"}

// slotComment renders a human-readable annotation for a timeslot fact.
func slotComment(slot models.Slot) string {
	day := dayAbbreviations[(slot.WeekDay-1)%7]
	return fmt.Sprintf("%s @ %s", day, slot.Timeframe)
}

// roomComment renders a human-readable annotation for a room fact, taken
// from the ingestion metadata when present.
func roomComment(room models.Room) string {
	name, ok := room.Metadata["room"].(string)
	if !ok {
		return ""
	}
	if building, ok := room.Metadata["building"].(string); ok {
		return name + " | " + building
	}
	return name
}

// sessionComment renders a human-readable annotation for a session fact.
func sessionComment(session models.Session) string {
	parts := []string{session.Constraints.SessionType}
	if course, ok := session.Metadata["course"].(string); ok {
		parts = append(parts, course)
	}
	if group, ok := session.Metadata["sessionGroup"].(string); ok {
		parts = append(parts, group)
	}
	return strings.Join(parts, " | ")
}
