package asp

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/uniterm/timetabler/internal/models"
	"github.com/uniterm/timetabler/internal/timegrid"
	appErrors "github.com/uniterm/timetabler/pkg/errors"
)

// factEmitter produces the ground data section of the program. Emission
// order within each category is input order then id order, duplicates are
// suppressed by the program sections.
type factEmitter struct {
	grid  *timegrid.Grid
	input *models.SolverInput

	sessionsByID map[uuid.UUID]models.Session
}

func newFactEmitter(grid *timegrid.Grid, input *models.SolverInput) *factEmitter {
	byID := make(map[uuid.UUID]models.Session, len(input.Sessions))
	for _, session := range input.Sessions {
		byID[session.ID] = session
	}
	return &factEmitter{grid: grid, input: input, sessionsByID: byID}
}

// availableIDs is the grid pool minus blocked slots.
func (e *factEmitter) availableIDs() []int {
	blocked := make(map[int]bool)
	for _, id := range e.grid.IDsOfKind(models.KindBlocked) {
		blocked[id] = true
	}
	var ids []int
	for id := 1; id <= e.grid.TotalSlots(); id++ {
		if !blocked[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

func runTerm(run timegrid.Run) Term {
	if run.First == run.Last {
		return Number(run.First)
	}
	return Range{From: run.First, To: run.Last}
}

// timeslotFact emits the slot pool as a single range-compressed fact with
// day breaks as forced split points.
func (e *factEmitter) timeslotFact() Statement {
	runs := timegrid.CompressRuns(e.availableIDs(), e.grid.BreaksAfter())
	pool := make(Pool, len(runs))
	for i, run := range runs {
		pool[i] = runTerm(run)
	}
	return Fact{Atom: NewAtom(PredTimeslot, pool)}
}

func (e *factEmitter) undesirableTimeslotFacts() []Statement {
	kinds := []struct {
		kind models.SlotKind
		cost int
	}{
		{models.KindUndesirable1, costUndesirable1},
		{models.KindUndesirable2, costUndesirable2},
		{models.KindUndesirable5, costUndesirable5},
	}

	var facts []Statement
	for _, entry := range kinds {
		for _, id := range e.grid.IDsOfKind(entry.kind) {
			slot, _ := e.grid.SlotOf(id)
			facts = append(facts, Fact{
				Atom:    NewAtom(PredUndesirableTimeslot, Number(id), Number(entry.cost)),
				Comment: slotComment(slot),
			})
		}
	}
	return facts
}

func (e *factEmitter) roomFacts() []Statement {
	var facts []Statement
	for _, room := range e.input.Rooms {
		facts = append(facts, Fact{
			Atom:    NewAtom(PredRoom, Symbol(RoomAtomName(room.ID)), Number(room.Capacity)),
			Comment: roomComment(room),
		})
	}
	return facts
}

func (e *factEmitter) roomTypeFacts() []Statement {
	var facts []Statement
	for _, room := range e.input.Rooms {
		for _, sessionType := range room.SessionTypes {
			facts = append(facts, Fact{
				Atom: NewAtom(PredRoomType, Symbol(RoomAtomName(room.ID)), Symbol(SessionTypeAtomName(sessionType))),
			})
		}
	}
	return facts
}

// roomDistanceFacts converts walking minutes into slot counts, rounding up:
// travel time must never be underestimated.
func (e *factEmitter) roomDistanceFacts() []Statement {
	var facts []Statement
	for _, room := range e.input.Rooms {
		keys := make([]string, 0, len(room.DistancesInMinutes))
		for key := range room.DistancesInMinutes {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			minutes := room.DistancesInMinutes[key]
			if minutes <= 0 {
				continue
			}
			other, err := uuid.Parse(key)
			if err != nil {
				continue
			}
			first, second := orderedPair(RoomAtomName(room.ID), RoomAtomName(other))
			slots := e.grid.SlotsFor(time.Duration(minutes*float64(time.Minute)), timegrid.RoundCeil)
			facts = append(facts, Fact{
				Atom: NewAtom(PredRoomDistance, Symbol(first), Symbol(second), Number(slots)),
			})
		}
	}
	return facts
}

func (e *factEmitter) sessionFacts() []Statement {
	var facts []Statement
	for _, session := range e.input.Sessions {
		duration := e.grid.SlotsFor(session.Constraints.Duration.Duration, timegrid.RoundFloor)
		facts = append(facts, Fact{
			Atom: NewAtom(PredSession,
				Symbol(SessionAtomName(session.ID)),
				Symbol(SessionTypeAtomName(session.Constraints.SessionType)),
				Number(duration)),
			Comment: sessionComment(session),
		})
	}
	return facts
}

// eligibleTimeslotFacts computes the admissible start slots per session:
// the available pool minus the session's disallowed sub-slots, split into
// day-bounded runs, each run contributing starts that fit the duration.
func (e *factEmitter) eligibleTimeslotFacts() ([]Statement, error) {
	var facts []Statement
	for _, session := range e.input.Sessions {
		duration := e.grid.SlotsFor(session.Constraints.Duration.Duration, timegrid.RoundFloor)

		removed := make(map[int]bool)
		for _, disallowed := range session.Constraints.TimeslotsPreferences.Disallowed {
			ids, err := e.subSlotIDs(disallowed)
			if err != nil {
				return nil, invalidSlotPreference(session.ID, err)
			}
			for _, id := range ids {
				removed[id] = true
			}
		}

		var pool []int
		for _, id := range e.availableIDs() {
			if !removed[id] {
				pool = append(pool, id)
			}
		}

		var admissible []timegrid.Run
		for _, run := range timegrid.CompressRuns(pool, e.grid.BreaksAfter()) {
			if run.Len() >= duration {
				admissible = append(admissible, timegrid.Run{First: run.First, Last: run.Last - duration + 1})
			}
		}
		if len(admissible) == 0 {
			return nil, infeasible(fmt.Errorf("session %s has no eligible timeslot", session.ID))
		}

		for _, run := range admissible {
			facts = append(facts, Fact{
				Atom: NewAtom(PredEligibleSlotForSession, Symbol(SessionAtomName(session.ID)), runTerm(run)),
			})
		}
	}
	return facts, nil
}

func (e *factEmitter) eligibleRoomFacts() ([]Statement, error) {
	var facts []Statement
	for _, session := range e.input.Sessions {
		disallowed := make(map[uuid.UUID]bool)
		for _, id := range session.Constraints.RoomsPreferences.Disallowed {
			disallowed[id] = true
		}

		found := false
		for _, room := range e.input.Rooms {
			if disallowed[room.ID] || !room.HostsSessionType(session.Constraints.SessionType) {
				continue
			}
			found = true
			facts = append(facts, Fact{
				Atom: NewAtom(PredEligibleRoomForSession,
					Symbol(SessionAtomName(session.ID)),
					Symbol(RoomAtomName(room.ID))),
			})
		}
		if !found {
			return nil, infeasible(fmt.Errorf("session %s has no eligible room", session.ID))
		}
	}
	return facts, nil
}

// pairFacts canonicalises a pairwise relation: operands in atom-name order,
// unordered duplicates collapsed.
func (e *factEmitter) pairFacts(predicate string, peers func(models.SessionConstraints) []uuid.UUID) []Statement {
	var facts []Statement
	for _, session := range e.input.Sessions {
		for _, peer := range peers(session.Constraints) {
			if _, ok := e.sessionsByID[peer]; !ok {
				continue
			}
			first, second := orderedPair(SessionAtomName(session.ID), SessionAtomName(peer))
			facts = append(facts, Fact{
				Atom: NewAtom(predicate, Symbol(first), Symbol(second)),
			})
		}
	}
	return facts
}

func (e *factEmitter) roomPreferenceFacts() []Statement {
	var facts []Statement
	for _, session := range e.input.Sessions {
		sessionAtom := Symbol(SessionAtomName(session.ID))
		for _, id := range session.Constraints.RoomsPreferences.Penalized {
			facts = append(facts, Fact{Atom: NewAtom(PredPenalizedRoomForSession, sessionAtom, Symbol(RoomAtomName(id)))})
		}
		for _, id := range session.Constraints.RoomsPreferences.Preferred {
			facts = append(facts, Fact{Atom: NewAtom(PredPreferredRoomForSession, sessionAtom, Symbol(RoomAtomName(id)))})
		}
	}
	return facts
}

func (e *factEmitter) timeslotPreferenceFacts() ([]Statement, error) {
	var facts []Statement
	for _, session := range e.input.Sessions {
		sessionAtom := Symbol(SessionAtomName(session.ID))

		for _, slot := range session.Constraints.TimeslotsPreferences.Penalized {
			ids, err := e.subSlotIDs(slot)
			if err != nil {
				return nil, invalidSlotPreference(session.ID, err)
			}
			for _, id := range ids {
				facts = append(facts, Fact{Atom: NewAtom(PredPenalizedSlotForSession, sessionAtom, Number(id))})
			}
		}
		for _, slot := range session.Constraints.TimeslotsPreferences.Preferred {
			ids, err := e.subSlotIDs(slot)
			if err != nil {
				return nil, invalidSlotPreference(session.ID, err)
			}
			for _, id := range ids {
				facts = append(facts, Fact{Atom: NewAtom(PredPreferredSlotForSession, sessionAtom, Number(id))})
			}
		}
	}
	return facts, nil
}

// subSlotIDs expands a (possibly multi-slot) timeframe into grid ids.
func (e *factEmitter) subSlotIDs(slot models.Slot) ([]int, error) {
	var ids []int
	for _, sub := range e.grid.Expand(slot) {
		id, err := e.grid.IDOf(sub)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func orderedPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

func infeasible(err error) error {
	return appErrors.Wrap(err, appErrors.ErrInfeasible.Code, appErrors.ErrInfeasible.ExitCode, err.Error())
}

func invalidSlotPreference(session uuid.UUID, err error) error {
	wrapped := fmt.Errorf("session %s has a timeslot preference off the grid: %w", session, err)
	return appErrors.Wrap(wrapped, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.ExitCode, wrapped.Error())
}
