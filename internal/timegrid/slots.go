// Package timegrid defines the fixed quarter-hour grid of bookable times of day.
//
// Slots are zero-padded "HH:MM" strings, so lexicographic order equals
// chronological order. The grid runs from 07:00 to 22:00 inclusive; 22:00 is
// the final slot and has no quarter-hour children.
package timegrid

import (
	"fmt"
	"strconv"
)

const (
	// FirstHour is the hour of the first slot.
	FirstHour = 7
	// LastHour is the hour of the last slot, which only exists at :00.
	LastHour = 22
	// StepMinutes is the grid granularity.
	StepMinutes = 15
)

// Slot is a time of day on the grid, formatted "HH:MM".
type Slot string

var slots = generate()

var slotIndex = func() map[Slot]int {
	idx := make(map[Slot]int, len(slots))
	for i, s := range slots {
		idx[s] = i
	}
	return idx
}()

func generate() []Slot {
	out := make([]Slot, 0, (LastHour-FirstHour)*60/StepMinutes+1)
	for h := FirstHour; h <= LastHour; h++ {
		for m := 0; m < 60; m += StepMinutes {
			if h == LastHour && m > 0 {
				break
			}
			out = append(out, Slot(fmt.Sprintf("%02d:%02d", h, m)))
		}
	}
	return out
}

// Slots returns a copy of the ordered slot sequence.
func Slots() []Slot {
	out := make([]Slot, len(slots))
	copy(out, slots)
	return out
}

// Len is the number of slots on the grid.
func Len() int { return len(slots) }

// First returns the earliest slot (07:00).
func First() Slot { return slots[0] }

// Last returns the final slot (22:00).
func Last() Slot { return slots[len(slots)-1] }

// IsValid reports whether t is exactly one of the generated slots.
func IsValid(t Slot) bool {
	_, ok := slotIndex[t]
	return ok
}

// Index returns the position of t in the sequence, or -1 when t is not a slot.
func Index(t Slot) int {
	if i, ok := slotIndex[t]; ok {
		return i
	}
	return -1
}

// At returns the slot at position i.
func At(i int) (Slot, bool) {
	if i < 0 || i >= len(slots) {
		return "", false
	}
	return slots[i], true
}

// Next returns the slot right after t. The last slot maps to itself, and so
// does any value that is not on the grid.
func Next(t Slot) Slot {
	i := Index(t)
	if i < 0 || i == len(slots)-1 {
		return t
	}
	return slots[i+1]
}

// Coerce returns raw as a Slot when it is on the grid, otherwise the first slot.
func Coerce(raw string) Slot {
	if s := Slot(raw); IsValid(s) {
		return s
	}
	return First()
}

// EndOptions lists the slots strictly after start, i.e. the end times a form
// may offer once start is chosen. An off-grid start yields every slot after
// the first.
func EndOptions(start Slot) []Slot {
	i := Index(start)
	if i < 0 {
		i = 0
	}
	out := make([]Slot, len(slots)-i-1)
	copy(out, slots[i+1:])
	return out
}

// Before reports whether s is strictly earlier than o.
func (s Slot) Before(o Slot) bool { return s < o }

// Minutes returns the minutes since midnight, or -1 for a malformed value.
func (s Slot) Minutes() int {
	if len(s) != 5 || s[2] != ':' {
		return -1
	}
	h, err := strconv.Atoi(string(s[:2]))
	if err != nil {
		return -1
	}
	m, err := strconv.Atoi(string(s[3:]))
	if err != nil {
		return -1
	}
	return h*60 + m
}

func (s Slot) String() string { return string(s) }
