package asp

import (
	"github.com/google/uuid"

	"github.com/uniterm/timetabler/internal/models"
	"github.com/uniterm/timetabler/internal/timegrid"
)

// Compiler translates a validated input document into the logic program.
// It is purely functional over its immutable inputs: identical inputs yield
// byte-identical program text.
type Compiler struct {
	Grid  *timegrid.Grid
	Input *models.SolverInput
	// RoomDistanceConstraint switches on the experimental travel-time
	// encoding; the room_distance facts are emitted regardless.
	RoomDistanceConstraint bool
}

// Compile assembles the program sections in their fixed order: facts,
// choices, derivations, hard constraints, soft constraints, directives.
func (c *Compiler) Compile() (*Program, error) {
	facts := newFactEmitter(c.Grid, c.Input)
	rules := &ruleEmitter{roomDistanceConstraint: c.RoomDistanceConstraint}

	var data []Statement
	data = append(data, facts.timeslotFact())
	data = append(data, facts.undesirableTimeslotFacts()...)
	data = append(data, facts.roomFacts()...)
	data = append(data, facts.roomTypeFacts()...)
	data = append(data, facts.roomDistanceFacts()...)
	data = append(data, facts.sessionFacts()...)

	eligibleSlots, err := facts.eligibleTimeslotFacts()
	if err != nil {
		return nil, err
	}
	data = append(data, eligibleSlots...)

	eligibleRooms, err := facts.eligibleRoomFacts()
	if err != nil {
		return nil, err
	}
	data = append(data, eligibleRooms...)

	data = append(data, facts.pairFacts(PredNoTimeslotOverlap, func(c models.SessionConstraints) []uuid.UUID {
		return c.CannotConflictInTime
	})...)
	data = append(data, facts.pairFacts(PredAvoidTimeslotOverlap, func(c models.SessionConstraints) []uuid.UUID {
		return c.AvoidConflictInTime
	})...)
	data = append(data, facts.pairFacts(PredSameRoomIfContiguous, func(c models.SessionConstraints) []uuid.UUID {
		return c.SameRoomIfContiguousInTime
	})...)
	data = append(data, facts.pairFacts(PredApplyRoomDistances, func(c models.SessionConstraints) []uuid.UUID {
		return c.ApplyRoomDistances
	})...)

	data = append(data, facts.roomPreferenceFacts()...)

	slotPreferences, err := facts.timeslotPreferenceFacts()
	if err != nil {
		return nil, err
	}
	data = append(data, slotPreferences...)

	program := &Program{}
	program.AddSection(data)
	program.AddSection(rules.choiceRules())
	program.AddSection(rules.derivationRules())
	program.AddSection(rules.hardConstraints())
	program.AddSection(rules.softConstraints())
	program.AddSection(rules.directives())

	return program, nil
}
