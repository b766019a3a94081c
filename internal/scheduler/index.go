package scheduler

import (
	"github.com/bits-and-blooms/bitset"
)

// EntityKind selects which availability table an Index query targets.
type EntityKind int

const (
	EntityFaculty EntityKind = iota + 1
	EntityClassroom
)

// Index answers static availability questions in O(1). Each entity owns a bitset whose bit i is
// set when the entity is free at grid position i.
type Index struct {
	grid          Grid
	facultyPos    map[string]int
	classroomPos  map[string]int
	facultyFree   []*bitset.BitSet
	classroomFree []*bitset.BitSet
}

// NewIndex builds the index. Missing availability means the entity is free in every slot;
// slot IDs outside the grid or listed under the wrong day are ignored.
func NewIndex(faculty []Faculty, classrooms []Classroom, grid Grid) *Index {
	idx := &Index{
		grid:          grid,
		facultyPos:    make(map[string]int, len(faculty)),
		classroomPos:  make(map[string]int, len(classrooms)),
		facultyFree:   make([]*bitset.BitSet, len(faculty)),
		classroomFree: make([]*bitset.BitSet, len(classrooms)),
	}
	for i, f := range faculty {
		idx.facultyPos[f.ID] = i
		idx.facultyFree[i] = availabilityBits(f.Availability, grid)
	}
	for i, c := range classrooms {
		idx.classroomPos[c.ID] = i
		idx.classroomFree[i] = availabilityBits(c.Availability, grid)
	}
	return idx
}

func availabilityBits(a Availability, grid Grid) *bitset.BitSet {
	bits := bitset.New(uint(grid.Len()))
	if a == nil {
		for i := 0; i < grid.Len(); i++ {
			bits.Set(uint(i))
		}
		return bits
	}
	for day, slots := range a {
		for _, slotID := range slots {
			p, ok := grid.Position(slotID)
			if !ok || grid.Slot(p).Day != day {
				continue
			}
			bits.Set(uint(p))
		}
	}
	return bits
}

// Grid returns the grid the index was built over.
func (x *Index) Grid() Grid {
	return x.grid
}

// IsFree reports whether the entity is statically available at the slot. Unknown entities and
// slots are never free.
func (x *Index) IsFree(kind EntityKind, id, slotID string) bool {
	p, ok := x.grid.Position(slotID)
	if !ok {
		return false
	}
	bits := x.bits(kind, id)
	if bits == nil {
		return false
	}
	return bits.Test(uint(p))
}

// FreeCount returns how many slots the entity is statically free in.
func (x *Index) FreeCount(kind EntityKind, id string) int {
	bits := x.bits(kind, id)
	if bits == nil {
		return 0
	}
	return int(bits.Count())
}

func (x *Index) bits(kind EntityKind, id string) *bitset.BitSet {
	switch kind {
	case EntityFaculty:
		if p, ok := x.facultyPos[id]; ok {
			return x.facultyFree[p]
		}
	case EntityClassroom:
		if p, ok := x.classroomPos[id]; ok {
			return x.classroomFree[p]
		}
	}
	return nil
}

// CandidateSlots returns a cursor over the slots where both the faculty member and the classroom
// are free, in grid order.
func (x *Index) CandidateSlots(facultyID, classroomID string) *SlotCursor {
	f := x.bits(EntityFaculty, facultyID)
	c := x.bits(EntityClassroom, classroomID)
	if f == nil || c == nil {
		return &SlotCursor{grid: x.grid, bits: bitset.New(0)}
	}
	return &SlotCursor{grid: x.grid, bits: f.Intersection(c)}
}

// SlotCursor lazily walks a set of grid positions. It can be restarted with Reset.
type SlotCursor struct {
	grid Grid
	bits *bitset.BitSet
	next uint
}

// Next returns the next free slot, or false once the cursor is exhausted.
func (c *SlotCursor) Next() (TimeSlot, bool) {
	p, ok := c.nextPosition()
	if !ok {
		return TimeSlot{}, false
	}
	return c.grid.Slot(p), true
}

func (c *SlotCursor) nextPosition() (int, bool) {
	p, ok := c.bits.NextSet(c.next)
	if !ok || int(p) >= c.grid.Len() {
		c.next = uint(c.grid.Len())
		return 0, false
	}
	c.next = p + 1
	return int(p), true
}

// Reset rewinds the cursor to the first slot.
func (c *SlotCursor) Reset() {
	c.next = 0
}

// Len returns the total number of slots the cursor yields.
func (c *SlotCursor) Len() int {
	return int(c.bits.Count())
}
