package scheduler

import (
	"sort"
)

// Grid is the ordered set of weekly time slots shared by every entity. Slots are kept sorted by
// day ascending, then start ascending; grid positions follow that order.
type Grid struct {
	slots  []TimeSlot
	pos    map[string]int
	days   []Weekday
	dayIdx []int
}

// NewGrid validates and orders the supplied slots. Slots on the same day may not overlap.
func NewGrid(slots []TimeSlot) (Grid, error) {
	problems := &InputError{}
	ordered := make([]TimeSlot, len(slots))
	copy(ordered, slots)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Day != ordered[j].Day {
			return ordered[i].Day < ordered[j].Day
		}
		if ordered[i].Start != ordered[j].Start {
			return ordered[i].Start < ordered[j].Start
		}
		return ordered[i].ID < ordered[j].ID
	})

	g := Grid{slots: ordered, pos: make(map[string]int, len(ordered)), dayIdx: make([]int, len(ordered))}
	for i, slot := range ordered {
		switch {
		case slot.ID == "":
			problems.add("slot", "", "id", "slot id is required")
		case !slot.Day.Valid():
			problems.add("slot", slot.ID, "day", "invalid weekday %d", int(slot.Day))
		case slot.Start < 0 || slot.End > 24*60 || slot.End <= slot.Start:
			problems.add("slot", slot.ID, "end", "slot must end after it starts within the day")
		}
		if _, dup := g.pos[slot.ID]; dup {
			problems.add("slot", slot.ID, "id", "duplicate slot id")
			continue
		}
		g.pos[slot.ID] = i
		if i > 0 && ordered[i-1].Day == slot.Day && ordered[i-1].End > slot.Start {
			problems.add("slot", slot.ID, "start", "overlaps slot %s", ordered[i-1].ID)
		}
		if len(g.days) == 0 || g.days[len(g.days)-1] != slot.Day {
			g.days = append(g.days, slot.Day)
		}
		g.dayIdx[i] = len(g.days) - 1
	}
	if err := problems.orNil(); err != nil {
		return Grid{}, err
	}
	return g, nil
}

// DefaultGrid returns Monday-Friday with hourly slots 09:00-13:00 and 14:00-18:00.
func DefaultGrid() Grid {
	starts := []int{9 * 60, 10 * 60, 11 * 60, 12 * 60, 14 * 60, 15 * 60, 16 * 60, 17 * 60}
	slots := make([]TimeSlot, 0, 5*len(starts))
	for day := Monday; day <= Friday; day++ {
		for _, start := range starts {
			slots = append(slots, TimeSlot{ID: SlotID(day, start), Day: day, Start: start, End: start + 60})
		}
	}
	grid, err := NewGrid(slots)
	if err != nil {
		panic(err)
	}
	return grid
}

// DefaultSlots returns a copy of the default grid's slots.
func DefaultSlots() []TimeSlot {
	return DefaultGrid().Slots()
}

// Len returns the number of slots.
func (g Grid) Len() int {
	return len(g.slots)
}

// Slot returns the slot at a grid position.
func (g Grid) Slot(position int) TimeSlot {
	return g.slots[position]
}

// Position resolves a slot ID to its grid position.
func (g Grid) Position(slotID string) (int, bool) {
	p, ok := g.pos[slotID]
	return p, ok
}

// Lookup returns the slot with the given ID.
func (g Grid) Lookup(slotID string) (TimeSlot, bool) {
	p, ok := g.pos[slotID]
	if !ok {
		return TimeSlot{}, false
	}
	return g.slots[p], true
}

// Slots returns a copy of the ordered slots.
func (g Grid) Slots() []TimeSlot {
	out := make([]TimeSlot, len(g.slots))
	copy(out, g.slots)
	return out
}

// Days returns the distinct weekdays present in the grid.
func (g Grid) Days() []Weekday {
	out := make([]Weekday, len(g.days))
	copy(out, g.days)
	return out
}

func (g Grid) dayIndex(position int) int {
	return g.dayIdx[position]
}
