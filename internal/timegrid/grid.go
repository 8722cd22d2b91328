// Package timegrid enumerates the discrete timeslots of a scheduling week
// and maps between slots and their 1-based ids.
package timegrid

import (
	"fmt"
	"time"

	"github.com/uniterm/timetabler/internal/models"
)

// Rounding selects how a duration that does not divide exactly is converted
// into a slot count.
type Rounding int

const (
	RoundFloor Rounding = iota
	RoundCeil
)

// Grid is the expanded weekly grid. Slots are numbered 1..TotalSlots in
// declared week-day order; blocked slots keep their number but are excluded
// from eligibility sets by the callers.
type Grid struct {
	slotDuration time.Duration
	slotsPerDay  int
	weekDays     []int
	slots        []models.Slot
}

// New builds the grid from week settings. The day span must divide exactly
// into slots and every modified slot must align with the grid.
func New(settings models.WeekSettings) (*Grid, error) {
	slotDuration := settings.SlotDuration.Duration
	if slotDuration <= 0 {
		return nil, fmt.Errorf("slot duration must be positive")
	}
	daySpan := settings.DayEnd.Sub(settings.DayStart)
	if daySpan <= 0 || daySpan%slotDuration != 0 {
		return nil, fmt.Errorf("day span %s is not divisible by slot duration %s", daySpan, slotDuration)
	}

	g := &Grid{
		slotDuration: slotDuration,
		slotsPerDay:  int(daySpan / slotDuration),
		weekDays:     append([]int(nil), settings.WeekDays...),
	}

	dayFrame := models.Timeframe{Start: settings.DayStart, End: settings.DayEnd}
	for _, day := range g.weekDays {
		daySlot := models.Slot{WeekDay: day, Timeframe: dayFrame, Kind: models.KindAvailable}
		g.slots = append(g.slots, g.Expand(daySlot)...)
	}

	for _, modified := range settings.ModifiedSlots {
		if err := g.applyOverride(modified); err != nil {
			return nil, err
		}
	}

	return g, nil
}

func (g *Grid) applyOverride(full models.Slot) error {
	if full.Kind == "" {
		full.Kind = models.KindAvailable
	}
	for _, sub := range g.Expand(full) {
		id, err := g.IDOf(sub)
		if err != nil {
			return fmt.Errorf("modified slot does not align with the grid: %w", err)
		}
		g.slots[id-1].Kind = sub.Kind
	}
	return nil
}

// SlotDuration returns the fixed width of one slot.
func (g *Grid) SlotDuration() time.Duration {
	return g.slotDuration
}

// SlotsPerDay returns the number of slots in one day.
func (g *Grid) SlotsPerDay() int {
	return g.slotsPerDay
}

// TotalSlots returns the number of cells in the grid, blocked ones included.
func (g *Grid) TotalSlots() int {
	return len(g.slots)
}

// IDOf resolves the 1-based id of a single-width slot. The kind is ignored.
func (g *Grid) IDOf(slot models.Slot) (int, error) {
	for i, candidate := range g.slots {
		if candidate.Same(slot) {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("slot %d %s is not on the grid", slot.WeekDay, slot.Timeframe)
}

// SlotOf resolves a 1-based id back to its slot, kind included.
func (g *Grid) SlotOf(id int) (models.Slot, error) {
	if id < 1 || id > len(g.slots) {
		return models.Slot{}, fmt.Errorf("slot id %d out of range [1, %d]", id, len(g.slots))
	}
	return g.slots[id-1], nil
}

// SlotsFor converts a duration into a slot count with the given rounding.
func (g *Grid) SlotsFor(d time.Duration, rounding Rounding) int {
	count := int(d / g.slotDuration)
	if rounding == RoundCeil && d%g.slotDuration != 0 {
		count++
	}
	return count
}

// IDsOfKind returns the ids of all slots of the given kind, in id order.
func (g *Grid) IDsOfKind(kind models.SlotKind) []int {
	var ids []int
	for i, slot := range g.slots {
		if slot.Kind == kind {
			ids = append(ids, i+1)
		}
	}
	return ids
}

// DayBreaks returns the (last slot of day, first slot of next day) pairs in
// increasing order. Session runs may not cross a day break.
func (g *Grid) DayBreaks() [][2]int {
	var breaks [][2]int
	for day := 1; day < len(g.weekDays); day++ {
		last := day * g.slotsPerDay
		breaks = append(breaks, [2]int{last, last + 1})
	}
	return breaks
}

// BreaksAfter returns the ids after which a contiguous run must end.
func (g *Grid) BreaksAfter() []int {
	var ids []int
	for _, pair := range g.DayBreaks() {
		ids = append(ids, pair[0])
	}
	return ids
}

// Expand decomposes a (possibly multi-slot) timeframe into its consecutive
// single-width children, preserving the week day and kind.
func (g *Grid) Expand(full models.Slot) []models.Slot {
	var slots []models.Slot
	frame := models.Timeframe{
		Start: full.Timeframe.Start,
		End:   full.Timeframe.Start.Add(g.slotDuration),
	}
	for frame.End.Minutes <= full.Timeframe.End.Minutes {
		slots = append(slots, models.Slot{WeekDay: full.WeekDay, Timeframe: frame, Kind: full.Kind})
		frame = models.Timeframe{Start: frame.End, End: frame.End.Add(g.slotDuration)}
	}
	return slots
}
