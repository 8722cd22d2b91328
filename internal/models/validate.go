package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	appErrors "github.com/uniterm/timetabler/pkg/errors"
)

// Validate runs structural and semantic checks over the input document.
// Every failure is an INVALID_INPUT error; nothing is emitted for a document
// that fails here.
func (in *SolverInput) Validate(v *validator.Validate) error {
	if v == nil {
		v = validator.New()
	}
	if err := v.Struct(in); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.ExitCode, "invalid input document")
	}

	if err := in.Settings.validate(); err != nil {
		return invalidInput(err)
	}

	slotDuration := in.Settings.SlotDuration.Duration

	sessionIDs := make(map[uuid.UUID]bool, len(in.Sessions))
	for _, session := range in.Sessions {
		if sessionIDs[session.ID] {
			return invalidInput(fmt.Errorf("duplicate session id %s", session.ID))
		}
		sessionIDs[session.ID] = true
	}
	roomIDs := make(map[uuid.UUID]bool, len(in.Rooms))
	for _, room := range in.Rooms {
		if roomIDs[room.ID] {
			return invalidInput(fmt.Errorf("duplicate room id %s", room.ID))
		}
		roomIDs[room.ID] = true
	}

	for _, session := range in.Sessions {
		c := session.Constraints
		if c.Duration.Duration <= 0 {
			return invalidInput(fmt.Errorf("session %s has non-positive duration", session.ID))
		}
		if c.Duration.Duration%slotDuration != 0 {
			return invalidInput(fmt.Errorf("session %s duration %s is not a multiple of the slot duration %s",
				session.ID, c.Duration.Duration, slotDuration))
		}

		peerSets := map[string][]uuid.UUID{
			"cannotConflictInTime":       c.CannotConflictInTime,
			"avoidConflictInTime":        c.AvoidConflictInTime,
			"sameRoomIfContiguousInTime": c.SameRoomIfContiguousInTime,
			"applyRoomDistances":         c.ApplyRoomDistances,
		}
		for name, peers := range peerSets {
			for _, peer := range peers {
				if !sessionIDs[peer] {
					return invalidInput(fmt.Errorf("session %s references unknown session %s in %s", session.ID, peer, name))
				}
			}
		}

		roomSets := map[string][]uuid.UUID{
			"disallowed": c.RoomsPreferences.Disallowed,
			"penalized":  c.RoomsPreferences.Penalized,
			"preferred":  c.RoomsPreferences.Preferred,
		}
		for name, refs := range roomSets {
			for _, ref := range refs {
				if !roomIDs[ref] {
					return invalidInput(fmt.Errorf("session %s references unknown room %s in %s rooms", session.ID, ref, name))
				}
			}
		}

		slotSets := map[string][]Slot{
			"disallowed": c.TimeslotsPreferences.Disallowed,
			"penalized":  c.TimeslotsPreferences.Penalized,
			"preferred":  c.TimeslotsPreferences.Preferred,
		}
		for name, slots := range slotSets {
			for _, slot := range slots {
				if !slot.Timeframe.Start.Before(slot.Timeframe.End) {
					return invalidInput(fmt.Errorf("session %s has an empty %s timeslot preference", session.ID, name))
				}
			}
		}
	}

	for _, room := range in.Rooms {
		for key, distance := range room.DistancesInMinutes {
			other, err := uuid.Parse(key)
			if err != nil {
				return invalidInput(fmt.Errorf("room %s has a malformed distance key %q", room.ID, key))
			}
			if !roomIDs[other] {
				return invalidInput(fmt.Errorf("room %s has a distance to unknown room %s", room.ID, other))
			}
			if distance < 0 {
				return invalidInput(fmt.Errorf("room %s has a negative distance to room %s", room.ID, other))
			}
		}
	}

	return nil
}

func (s WeekSettings) validate() error {
	if !s.DayStart.Before(s.DayEnd) {
		return fmt.Errorf("day start %s is not before day end %s", s.DayStart, s.DayEnd)
	}
	if s.SlotDuration.Duration <= 0 {
		return fmt.Errorf("slot duration must be positive")
	}
	daySpan := s.DayEnd.Sub(s.DayStart)
	if daySpan%s.SlotDuration.Duration != 0 {
		return fmt.Errorf("day span %s is not divisible by the slot duration %s", daySpan, s.SlotDuration.Duration)
	}

	seen := make(map[int]bool, len(s.WeekDays))
	for _, day := range s.WeekDays {
		if seen[day] {
			return fmt.Errorf("duplicate week day %d", day)
		}
		seen[day] = true
	}

	for _, slot := range s.ModifiedSlots {
		if !slot.Timeframe.Start.Before(slot.Timeframe.End) {
			return fmt.Errorf("modified slot on day %d has an empty timeframe", slot.WeekDay)
		}
		if !seen[slot.WeekDay] {
			return fmt.Errorf("modified slot references day %d which is not scheduled", slot.WeekDay)
		}
	}

	return nil
}

func invalidInput(err error) error {
	return appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.ExitCode, err.Error())
}
