package asp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/uniterm/timetabler/internal/models"
	"github.com/uniterm/timetabler/internal/timegrid"
)

// GroundAtom is one atom of an answer set, with its arguments kept textual.
type GroundAtom struct {
	Predicate string
	Args      []string
}

func (a GroundAtom) String() string {
	if len(a.Args) == 0 {
		return a.Predicate
	}
	return a.Predicate + "(" + strings.Join(a.Args, ",") + ")"
}

// ParseAnswer splits a solver answer line into its atoms. Atoms are
// space-separated; arguments may contain quoted strings but no nesting
// beyond one level of parentheses.
func ParseAnswer(answer string) ([]GroundAtom, error) {
	var atoms []GroundAtom
	for _, token := range strings.Fields(answer) {
		atom, err := parseGroundAtom(token)
		if err != nil {
			return nil, err
		}
		atoms = append(atoms, atom)
	}
	return atoms, nil
}

func parseGroundAtom(token string) (GroundAtom, error) {
	open := strings.IndexByte(token, '(')
	if open < 0 {
		return GroundAtom{Predicate: token}, nil
	}
	if !strings.HasSuffix(token, ")") {
		return GroundAtom{}, fmt.Errorf("malformed atom %q", token)
	}
	name := token[:open]
	body := token[open+1 : len(token)-1]

	var args []string
	var current strings.Builder
	inString := false
	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case ch == '"':
			inString = !inString
		case ch == ',' && !inString:
			args = append(args, current.String())
			current.Reset()
			continue
		}
		current.WriteByte(ch)
	}
	if inString {
		return GroundAtom{}, fmt.Errorf("malformed atom %q", token)
	}
	args = append(args, current.String())

	return GroundAtom{Predicate: name, Args: args}, nil
}

// Decoder maps answer-set atoms back onto the domain model.
type Decoder struct {
	grid         *timegrid.Grid
	sessionsByID map[uuid.UUID]models.Session
	roomsByID    map[uuid.UUID]models.Room
}

// NewDecoder indexes the input entities for reverse lookup.
func NewDecoder(grid *timegrid.Grid, input *models.SolverInput) *Decoder {
	sessions := make(map[uuid.UUID]models.Session, len(input.Sessions))
	for _, session := range input.Sessions {
		sessions[session.ID] = session
	}
	rooms := make(map[uuid.UUID]models.Room, len(input.Rooms))
	for _, room := range input.Rooms {
		rooms[room.ID] = room
	}
	return &Decoder{grid: grid, sessionsByID: sessions, roomsByID: rooms}
}

type placement struct {
	sessionAtom string
	roomAtom    string
	firstSlot   int
}

// Decode reconstructs the schedule from the scheduled_session atoms of the
// final answer. A session covering H cells contributes H atoms; the start
// slot is the minimum cell of its (session, room) group.
func (d *Decoder) Decode(atoms []GroundAtom) (*models.Output, error) {
	starts := make(map[string]*placement)
	for _, atom := range atoms {
		if atom.Predicate != PredScheduledSession {
			continue
		}
		if len(atom.Args) != 3 {
			return nil, fmt.Errorf("scheduled_session atom with %d arguments", len(atom.Args))
		}
		slot, err := strconv.Atoi(atom.Args[0])
		if err != nil {
			return nil, fmt.Errorf("scheduled_session timeslot %q is not an integer", atom.Args[0])
		}

		key := atom.Args[1] + "|" + atom.Args[2]
		if existing, ok := starts[key]; ok {
			if slot < existing.firstSlot {
				existing.firstSlot = slot
			}
			continue
		}
		starts[key] = &placement{sessionAtom: atom.Args[1], roomAtom: atom.Args[2], firstSlot: slot}
	}

	placements := make([]*placement, 0, len(starts))
	for _, p := range starts {
		placements = append(placements, p)
	}
	sort.Slice(placements, func(i, j int) bool {
		if placements[i].firstSlot != placements[j].firstSlot {
			return placements[i].firstSlot < placements[j].firstSlot
		}
		return placements[i].sessionAtom < placements[j].sessionAtom
	})

	output := &models.Output{Timetable: make([]models.ScheduleUnit, 0, len(placements))}
	for _, p := range placements {
		sessionID, err := SessionIDFromAtom(p.sessionAtom)
		if err != nil {
			return nil, err
		}
		session, ok := d.sessionsByID[sessionID]
		if !ok {
			return nil, fmt.Errorf("answer references unknown session %s", sessionID)
		}

		roomID, err := RoomIDFromAtom(p.roomAtom)
		if err != nil {
			return nil, err
		}
		room, ok := d.roomsByID[roomID]
		if !ok {
			return nil, fmt.Errorf("answer references unknown room %s", roomID)
		}

		slot, err := d.grid.SlotOf(p.firstSlot)
		if err != nil {
			return nil, err
		}

		output.Timetable = append(output.Timetable, models.ScheduleUnit{
			Slot:    slot,
			Session: session,
			Room:    room,
		})
	}

	return output, nil
}

// ObjectiveSummary counts the penalty and bonus atoms of an answer per name.
func ObjectiveSummary(atoms []GroundAtom) map[string]int {
	summary := make(map[string]int)
	for _, atom := range atoms {
		if atom.Predicate != PredPenalty && atom.Predicate != PredBonus {
			continue
		}
		if len(atom.Args) != 4 {
			continue
		}
		summary[strings.Trim(atom.Args[0], `"`)]++
	}
	return summary
}
