// Package groups models the group-stage draw: eight groups of four slots
// filled by hand (pick and drop) or at random.
package groups

import (
	"math/rand"
	"sync"
)

// Board dimensions.
const (
	GroupCount    = 8
	SlotsPerGroup = 4
)

// Label returns the display label of a group index ("Group A").
func Label(group int) string {
	return "Group " + string(rune('A'+group))
}

// Board holds the slot assignment and the currently picked team. Methods are
// safe for concurrent use.
type Board struct {
	mu     sync.Mutex
	slots  [GroupCount][SlotsPerGroup]string
	picked string
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{}
}

func inRange(group, slot int) bool {
	return group >= 0 && group < GroupCount && slot >= 0 && slot < SlotsPerGroup
}

// placed reports whether team occupies any slot. Caller holds b.mu.
func (b *Board) placed(team string) bool {
	for g := range b.slots {
		for s := range b.slots[g] {
			if b.slots[g][s] == team {
				return true
			}
		}
	}
	return false
}

// Assign puts team into an empty slot.
func (b *Board) Assign(team string, group, slot int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.assign(team, group, slot)
}

func (b *Board) assign(team string, group, slot int) error {
	switch {
	case !inRange(group, slot):
		return ErrOutOfRange
	case b.slots[group][slot] != "":
		return ErrSlotFilled
	case b.placed(team):
		return ErrTeamPlaced
	}
	b.slots[group][slot] = team
	return nil
}

// Pick marks team as being dragged.
func (b *Board) Pick(team string) {
	b.mu.Lock()
	b.picked = team
	b.mu.Unlock()
}

// Picked returns the team being dragged, if any.
func (b *Board) Picked() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.picked
}

// CancelPick drops the drag without placing anything.
func (b *Board) CancelPick() {
	b.mu.Lock()
	b.picked = ""
	b.mu.Unlock()
}

// Drop places the picked team into a slot. The pick is consumed whether or
// not the drop lands.
func (b *Board) Drop(group, slot int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	team := b.picked
	b.picked = ""
	if team == "" {
		return ErrNothingPicked
	}
	return b.assign(team, group, slot)
}

// Clear empties one slot.
func (b *Board) Clear(group, slot int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !inRange(group, slot) {
		return ErrOutOfRange
	}
	b.slots[group][slot] = ""
	return nil
}

// Reset empties every slot.
func (b *Board) Reset() {
	b.mu.Lock()
	b.slots = [GroupCount][SlotsPerGroup]string{}
	b.picked = ""
	b.mu.Unlock()
}

// Available returns the names not yet placed, in the given order.
func (b *Board) Available(names []string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.available(names)
}

func (b *Board) available(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !b.placed(n) {
			out = append(out, n)
		}
	}
	return out
}

// RandomFill shuffles the unplaced names and fills empty slots group by
// group until either runs out. It returns how many slots were filled.
func (b *Board) RandomFill(names []string, rng *rand.Rand) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	remaining := b.available(names)
	rng.Shuffle(len(remaining), func(i, j int) {
		remaining[i], remaining[j] = remaining[j], remaining[i]
	})

	filled := 0
	for g := range b.slots {
		for s := range b.slots[g] {
			if b.slots[g][s] != "" {
				continue
			}
			if len(remaining) == 0 {
				return filled
			}
			b.slots[g][s] = remaining[0]
			remaining = remaining[1:]
			filled++
		}
	}
	return filled
}

// Validate reports ErrIncompleteGroups while any slot is empty.
func (b *Board) Validate() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for g := range b.slots {
		for s := range b.slots[g] {
			if b.slots[g][s] == "" {
				return ErrIncompleteGroups
			}
		}
	}
	return nil
}

// Groups returns a snapshot of the slots, group by group. Empty slots are "".
func (b *Board) Groups() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]string, GroupCount)
	for g := range b.slots {
		out[g] = append([]string(nil), b.slots[g][:]...)
	}
	return out
}
