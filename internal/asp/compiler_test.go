package asp

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniterm/timetabler/internal/models"
	"github.com/uniterm/timetabler/internal/timegrid"
	appErrors "github.com/uniterm/timetabler/pkg/errors"
)

var (
	sessionOne = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	sessionTwo = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	roomOne    = uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	roomTwo    = uuid.MustParse("bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb")
)

func timeOfDay(t *testing.T, raw string) models.TimeOfDay {
	t.Helper()
	parsed, err := models.ParseTimeOfDay(raw)
	require.NoError(t, err)
	return parsed
}

func settingsFor(t *testing.T, days int, slotsPerDay int) models.WeekSettings {
	t.Helper()
	weekDays := make([]int, days)
	for i := range weekDays {
		weekDays[i] = i + 1
	}
	start := timeOfDay(t, "09:00")
	return models.WeekSettings{
		DayStart:     start,
		DayEnd:       models.TimeOfDay{Minutes: start.Minutes + slotsPerDay*60},
		WeekDays:     weekDays,
		SlotDuration: models.Duration{Duration: time.Hour},
	}
}

func session(id uuid.UUID, sessionType string, hours int) models.Session {
	return models.Session{
		ID: id,
		Constraints: models.SessionConstraints{
			SessionType: sessionType,
			Duration:    models.Duration{Duration: time.Duration(hours) * time.Hour},
		},
	}
}

func room(id uuid.UUID, sessionTypes ...string) models.Room {
	return models.Room{ID: id, Capacity: 30, SessionTypes: sessionTypes}
}

func compile(t *testing.T, input *models.SolverInput) *Program {
	t.Helper()
	grid, err := timegrid.New(input.Settings)
	require.NoError(t, err)

	program, err := (&Compiler{Grid: grid, Input: input}).Compile()
	require.NoError(t, err)
	return program
}

func compileText(t *testing.T, input *models.SolverInput) string {
	t.Helper()
	return compile(t, input).Text()
}

func TestCompileTrivialProblem(t *testing.T) {
	input := &models.SolverInput{
		Settings: settingsFor(t, 1, 4),
		Sessions: []models.Session{session(sessionOne, "CLE", 1)},
		Rooms:    []models.Room{room(roomOne, "CLE")},
	}
	text := compileText(t, input)

	sessionAtom := SessionAtomName(sessionOne)
	roomAtom := RoomAtomName(roomOne)

	assert.Contains(t, text, "timeslot(1..4).")
	assert.Contains(t, text, "room("+roomAtom+",30).")
	assert.Contains(t, text, "room_type("+roomAtom+",st_cle).")
	assert.Contains(t, text, "session("+sessionAtom+",st_cle,1).")
	assert.Contains(t, text, "eligible_timeslot_for_session("+sessionAtom+",1..4).")
	assert.Contains(t, text, "eligible_room_for_session("+sessionAtom+","+roomAtom+").")

	assert.Contains(t, text,
		"1 { assigned_timeslot(T,S) : eligible_timeslot_for_session(S,T) } 1 :- session(S,_,_).")
	assert.Contains(t, text,
		"1 { assigned_room(R,S) : eligible_room_for_session(S,R) } 1 :- session(S,_,_).")
	assert.Contains(t, text,
		"scheduled_session(T..T+H-1,S,R) :- session(S,_,H), assigned_timeslot(T,S), assigned_room(R,S).")
	assert.Contains(t, text,
		":- not { scheduled_session(T,_,R) } 1, room(R,_), timeslot(T).")

	assert.Contains(t, text, "#minimize { PC@PP,PN,PV : penalty(PN,PC,PV,PP) }.")
	assert.Contains(t, text, "#maximize { BC@BP,BN,BV : bonus(BN,BC,BV,BP) }.")
	assert.Contains(t, text, "#show scheduled_session/3.")
	assert.Contains(t, text, "#show penalty/4.")
	assert.Contains(t, text, "#show bonus/4.")

	assert.True(t, strings.HasSuffix(text, ".\n"))
}

func TestCompileIsByteStable(t *testing.T) {
	input := &models.SolverInput{
		Settings: settingsFor(t, 2, 4),
		Sessions: []models.Session{
			session(sessionOne, "CLE", 2),
			session(sessionTwo, "CLE", 1),
		},
		Rooms: []models.Room{
			room(roomOne, "CLE"),
			room(roomTwo, "CLE", "CLIS"),
		},
	}
	input.Rooms[0].DistancesInMinutes = map[string]float64{roomTwo.String(): 90}
	input.Rooms[1].DistancesInMinutes = map[string]float64{roomOne.String(): 90}
	input.Sessions[0].Constraints.CannotConflictInTime = []uuid.UUID{sessionTwo}
	input.Sessions[1].Constraints.CannotConflictInTime = []uuid.UUID{sessionOne}

	first := compileText(t, input)
	second := compileText(t, input)
	assert.Equal(t, first, second)
}

func TestCompilePairRelationsAreCanonicalised(t *testing.T) {
	input := &models.SolverInput{
		Settings: settingsFor(t, 1, 5),
		Sessions: []models.Session{
			session(sessionOne, "CLE", 2),
			session(sessionTwo, "CLE", 2),
		},
		Rooms: []models.Room{room(roomOne, "CLE")},
	}
	// Declared on both sides and in reverse order: one fact survives.
	input.Sessions[0].Constraints.CannotConflictInTime = []uuid.UUID{sessionTwo}
	input.Sessions[1].Constraints.CannotConflictInTime = []uuid.UUID{sessionOne}

	text := compileText(t, input)

	pair := "no_timeslot_overlap_in_sessions(" + SessionAtomName(sessionOne) + "," + SessionAtomName(sessionTwo) + ")."
	assert.Contains(t, text, pair)
	assert.Equal(t, 1, strings.Count(text, "no_timeslot_overlap_in_sessions("))

	assert.Contains(t, text,
		":- no_timeslot_overlap_in_sessions(S1,S2), scheduled_session(T,S1,_), scheduled_session(T,S2,_).")
}

func TestCompileBlockedSlotRestrictsEligibility(t *testing.T) {
	settings := settingsFor(t, 1, 4)
	settings.ModifiedSlots = []models.Slot{{
		WeekDay:   1,
		Timeframe: models.Timeframe{Start: timeOfDay(t, "10:00"), End: timeOfDay(t, "11:00")},
		Kind:      models.KindBlocked,
	}}
	input := &models.SolverInput{
		Settings: settings,
		Sessions: []models.Session{session(sessionOne, "CLE", 2)},
		Rooms:    []models.Room{room(roomOne, "CLE")},
	}

	text := compileText(t, input)

	assert.Contains(t, text, "timeslot(1;3..4).")
	// The only run long enough for two slots is [3..4], so the session can
	// only start at 3.
	assert.Contains(t, text, "eligible_timeslot_for_session("+SessionAtomName(sessionOne)+",3).")
	assert.Equal(t, 1, strings.Count(text, "eligible_timeslot_for_session("))
}

func TestCompileEligibilityDoesNotCrossDayBreaks(t *testing.T) {
	input := &models.SolverInput{
		Settings: settingsFor(t, 2, 4),
		Sessions: []models.Session{session(sessionOne, "CLE", 2)},
		Rooms:    []models.Room{room(roomOne, "CLE")},
	}

	text := compileText(t, input)
	sessionAtom := SessionAtomName(sessionOne)

	assert.Contains(t, text, "timeslot(1..4;5..8).")
	assert.Contains(t, text, "eligible_timeslot_for_session("+sessionAtom+",1..3).")
	assert.Contains(t, text, "eligible_timeslot_for_session("+sessionAtom+",5..7).")
}

func TestCompileUndesirableTimeslots(t *testing.T) {
	settings := settingsFor(t, 1, 4)
	settings.ModifiedSlots = []models.Slot{
		{
			WeekDay:   1,
			Timeframe: models.Timeframe{Start: timeOfDay(t, "09:00"), End: timeOfDay(t, "10:00")},
			Kind:      models.KindUndesirable5,
		},
		{
			WeekDay:   1,
			Timeframe: models.Timeframe{Start: timeOfDay(t, "10:00"), End: timeOfDay(t, "11:00")},
			Kind:      models.KindUndesirable1,
		},
	}
	input := &models.SolverInput{
		Settings: settings,
		Sessions: []models.Session{session(sessionOne, "CLE", 1)},
		Rooms:    []models.Room{room(roomOne, "CLE")},
	}

	text := compileText(t, input)

	assert.Contains(t, text, "undesirable_timeslot(1,50). % MON @ 09:00 - 10:00")
	assert.Contains(t, text, "undesirable_timeslot(2,10). % MON @ 10:00 - 11:00")

	// One weighted rule per cost class, each on its own tier.
	assert.Contains(t, text,
		`penalty("UndesirableTimeslot",PC,S,5) :- undesirable_timeslot(T,PC), scheduled_session(T,S,_), PC == 50.`)
	assert.Contains(t, text,
		`penalty("UndesirableTimeslot",PC,S,4) :- undesirable_timeslot(T,PC), scheduled_session(T,S,_), PC == 20.`)
	assert.Contains(t, text,
		`penalty("UndesirableTimeslot",PC,S,3) :- undesirable_timeslot(T,PC), scheduled_session(T,S,_), PC == 10.`)
}

func TestCompileRoomPreferences(t *testing.T) {
	input := &models.SolverInput{
		Settings: settingsFor(t, 1, 4),
		Sessions: []models.Session{session(sessionOne, "CLE", 1)},
		Rooms: []models.Room{
			room(roomOne, "CLE"),
			room(roomTwo, "CLE"),
		},
	}
	input.Sessions[0].Constraints.RoomsPreferences.Preferred = []uuid.UUID{roomOne}
	input.Sessions[0].Constraints.RoomsPreferences.Penalized = []uuid.UUID{roomTwo}

	text := compileText(t, input)
	sessionAtom := SessionAtomName(sessionOne)

	assert.Contains(t, text, "preferred_room_for_session("+sessionAtom+","+RoomAtomName(roomOne)+").")
	assert.Contains(t, text, "penalized_room_for_session("+sessionAtom+","+RoomAtomName(roomTwo)+").")
	assert.Contains(t, text,
		`bonus("PreferRoomForSession",15,S,1) :- preferred_room_for_session(S,R), assigned_room(R,S).`)
	assert.Contains(t, text,
		`penalty("AvoidRoomForDegree",15,S,2) :- penalized_room_for_session(S,R), assigned_room(R,S).`)
}

func TestCompileDisallowedRoomIsNotEligible(t *testing.T) {
	input := &models.SolverInput{
		Settings: settingsFor(t, 1, 4),
		Sessions: []models.Session{session(sessionOne, "CLE", 1)},
		Rooms: []models.Room{
			room(roomOne, "CLE"),
			room(roomTwo, "CLE"),
		},
	}
	input.Sessions[0].Constraints.RoomsPreferences.Disallowed = []uuid.UUID{roomTwo}

	text := compileText(t, input)
	sessionAtom := SessionAtomName(sessionOne)

	assert.Contains(t, text, "eligible_room_for_session("+sessionAtom+","+RoomAtomName(roomOne)+").")
	assert.NotContains(t, text, "eligible_room_for_session("+sessionAtom+","+RoomAtomName(roomTwo)+").")
}

func TestCompileTimeslotPreferencesExpandSubSlots(t *testing.T) {
	input := &models.SolverInput{
		Settings: settingsFor(t, 1, 4),
		Sessions: []models.Session{session(sessionOne, "CLE", 1)},
		Rooms:    []models.Room{room(roomOne, "CLE")},
	}
	input.Sessions[0].Constraints.TimeslotsPreferences.Penalized = []models.Slot{{
		WeekDay:   1,
		Timeframe: models.Timeframe{Start: timeOfDay(t, "10:00"), End: timeOfDay(t, "12:00")},
	}}
	input.Sessions[0].Constraints.TimeslotsPreferences.Preferred = []models.Slot{{
		WeekDay:   1,
		Timeframe: models.Timeframe{Start: timeOfDay(t, "09:00"), End: timeOfDay(t, "10:00")},
	}}

	text := compileText(t, input)
	sessionAtom := SessionAtomName(sessionOne)

	assert.Contains(t, text, "penalized_timeslot_for_session("+sessionAtom+",2).")
	assert.Contains(t, text, "penalized_timeslot_for_session("+sessionAtom+",3).")
	assert.Contains(t, text, "preferred_timeslot_for_session("+sessionAtom+",1).")
}

func TestCompileDisallowedTimeslotsShrinkEligibleRuns(t *testing.T) {
	input := &models.SolverInput{
		Settings: settingsFor(t, 1, 4),
		Sessions: []models.Session{session(sessionOne, "CLE", 1)},
		Rooms:    []models.Room{room(roomOne, "CLE")},
	}
	input.Sessions[0].Constraints.TimeslotsPreferences.Disallowed = []models.Slot{{
		WeekDay:   1,
		Timeframe: models.Timeframe{Start: timeOfDay(t, "10:00"), End: timeOfDay(t, "11:00")},
	}}

	text := compileText(t, input)
	sessionAtom := SessionAtomName(sessionOne)

	assert.Contains(t, text, "eligible_timeslot_for_session("+sessionAtom+",1).")
	assert.Contains(t, text, "eligible_timeslot_for_session("+sessionAtom+",3..4).")
	assert.NotContains(t, text, "eligible_timeslot_for_session("+sessionAtom+",2)")
}

func TestCompileRoomDistances(t *testing.T) {
	input := &models.SolverInput{
		Settings: settingsFor(t, 1, 4),
		Sessions: []models.Session{session(sessionOne, "CLE", 1)},
		Rooms: []models.Room{
			room(roomOne, "CLE"),
			room(roomTwo, "CLE"),
		},
	}
	// Declared on both rooms: the ordered pair is emitted once, minutes
	// round up to whole slots.
	input.Rooms[0].DistancesInMinutes = map[string]float64{roomTwo.String(): 90}
	input.Rooms[1].DistancesInMinutes = map[string]float64{roomOne.String(): 90}

	text := compileText(t, input)

	distance := "room_distance(" + RoomAtomName(roomOne) + "," + RoomAtomName(roomTwo) + ",2)."
	assert.Contains(t, text, distance)
	assert.Equal(t, 1, strings.Count(text, "room_distance("))
}

func TestCompileSameRoomContiguityConstraints(t *testing.T) {
	input := &models.SolverInput{
		Settings: settingsFor(t, 1, 5),
		Sessions: []models.Session{
			session(sessionOne, "CLE", 1),
			session(sessionTwo, "CLE", 1),
		},
		Rooms: []models.Room{room(roomOne, "CLE"), room(roomTwo, "CLE")},
	}
	input.Sessions[0].Constraints.SameRoomIfContiguousInTime = []uuid.UUID{sessionTwo}

	text := compileText(t, input)

	pair := "same_room_if_contiguous_sessions(" + SessionAtomName(sessionOne) + "," + SessionAtomName(sessionTwo) + ")."
	assert.Contains(t, text, pair)
	assert.Contains(t, text,
		":- same_room_if_contiguous_sessions(S1,S2), scheduled_session(T,S1,R1), scheduled_session(T+1,S2,R2), R1 != R2.")
	assert.Contains(t, text,
		":- same_room_if_contiguous_sessions(S1,S2), scheduled_session(T,S2,R1), scheduled_session(T+1,S1,R2), R1 != R2.")
}

func TestCompileRoomDistanceConstraintIsFlagged(t *testing.T) {
	input := &models.SolverInput{
		Settings: settingsFor(t, 1, 5),
		Sessions: []models.Session{
			session(sessionOne, "CLE", 1),
			session(sessionTwo, "CLE", 1),
		},
		Rooms: []models.Room{room(roomOne, "CLE"), room(roomTwo, "CLE")},
	}
	input.Sessions[0].Constraints.ApplyRoomDistances = []uuid.UUID{sessionTwo}
	input.Rooms[0].DistancesInMinutes = map[string]float64{roomTwo.String(): 30}

	grid, err := timegrid.New(input.Settings)
	require.NoError(t, err)

	// The fact is always emitted; the constraint only behind the flag.
	pair := "apply_room_distances_to_sessions(" + SessionAtomName(sessionOne) + "," + SessionAtomName(sessionTwo) + ")."

	off, err := (&Compiler{Grid: grid, Input: input}).Compile()
	require.NoError(t, err)
	assert.Contains(t, off.Text(), pair)
	assert.NotContains(t, off.Text(), "room_distance(R1,R2,D)")

	on, err := (&Compiler{Grid: grid, Input: input, RoomDistanceConstraint: true}).Compile()
	require.NoError(t, err)
	assert.Contains(t, on.Text(), pair)
	assert.Contains(t, on.Text(), "room_distance(R1,R2,D)")
}

func TestCompileInfeasibleSessionType(t *testing.T) {
	input := &models.SolverInput{
		Settings: settingsFor(t, 1, 4),
		Sessions: []models.Session{session(sessionOne, "CLE", 1)},
		Rooms:    []models.Room{room(roomOne, "CLIS")},
	}
	grid, err := timegrid.New(input.Settings)
	require.NoError(t, err)

	_, err = (&Compiler{Grid: grid, Input: input}).Compile()
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInfeasible)
}

func TestCompileInfeasibleDuration(t *testing.T) {
	// Four one-hour slots cannot host a five-hour session.
	input := &models.SolverInput{
		Settings: settingsFor(t, 1, 4),
		Sessions: []models.Session{session(sessionOne, "CLE", 5)},
		Rooms:    []models.Room{room(roomOne, "CLE")},
	}
	grid, err := timegrid.New(input.Settings)
	require.NoError(t, err)

	_, err = (&Compiler{Grid: grid, Input: input}).Compile()
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInfeasible)
}

func TestCompileSectionOrder(t *testing.T) {
	input := &models.SolverInput{
		Settings: settingsFor(t, 1, 4),
		Sessions: []models.Session{session(sessionOne, "CLE", 1)},
		Rooms:    []models.Room{room(roomOne, "CLE")},
	}
	program := compile(t, input)

	sections := program.Sections()
	require.Len(t, sections, 6)

	text := program.Text()
	facts := strings.Index(text, "timeslot(")
	choices := strings.Index(text, "1 { assigned_timeslot")
	derivations := strings.Index(text, "scheduled_session(T..T+H-1")
	hard := strings.Index(text, ":- not {")
	soft := strings.Index(text, `penalty("UndesirableTimeslot"`)
	directives := strings.Index(text, "#minimize")

	assert.True(t, facts < choices)
	assert.True(t, choices < derivations)
	assert.True(t, derivations < hard)
	assert.True(t, hard < soft)
	assert.True(t, soft < directives)
}
