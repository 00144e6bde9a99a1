// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

// Package breakpoints keeps track of all the currently defined breakers: the
// ControlRPC server's id-addressed breakpoint table.
package breakpoints

import (
	"sync"

	"github.com/oos-tools/emuctl/core"
	"github.com/oos-tools/emuctl/ctlerrors"
)

// maxConditionLen bounds the condition source text per spec.
const maxConditionLen = 1000

// TypeFlag names one of the event classes a breakpoint can fire on.
type TypeFlag int

const (
	Execute TypeFlag = 1 << iota
	Read
	Write
)

// Breaker is one breakpoint record, addressed by a monotonically increasing
// id assigned at Add time.
type Breaker struct {
	ID           uint32
	CPUType      core.CPUType
	MemoryType   core.MemoryType
	TypeFlags    TypeFlag
	StartAddr    uint32
	EndAddr      uint32
	Enabled      bool
	MarkEvent    bool
	IgnoreDummy  bool
	Condition    string
}

// Table is the server's breakpoint vector plus its id counter, guarded by a
// single mutex per spec.md's shared-resource policy.
type Table struct {
	mu      sync.Mutex
	nextID  uint32
	breaks  []*Breaker
}

// NewTable returns an empty breakpoint table.
func NewTable() *Table {
	return &Table{nextID: 1}
}

// Add validates and inserts b, assigning it a fresh id. The id field of b is
// ignored on input.
func (t *Table) Add(b Breaker) (*Breaker, error) {
	if len(b.Condition) > maxConditionLen {
		return nil, ctlerrors.Newf(ctlerrors.KindBadRequest, "bad-request: condition exceeds %d bytes", maxConditionLen)
	}
	if b.StartAddr > b.EndAddr {
		return nil, ctlerrors.Newf(ctlerrors.KindBadRequest, "bad-request: startAddr after endAddr")
	}
	if b.TypeFlags == 0 {
		return nil, ctlerrors.Newf(ctlerrors.KindBadRequest, "bad-request: no typeFlags set")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	b.ID = t.nextID
	t.nextID++
	b.Enabled = true
	stored := b
	t.breaks = append(t.breaks, &stored)
	return &stored, nil
}

// Remove deletes the breakpoint with the given id. It is not an error to
// remove an id that doesn't exist.
func (t *Table) Remove(id uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, b := range t.breaks {
		if b.ID == id {
			t.breaks = append(t.breaks[:i], t.breaks[i+1:]...)
			return
		}
	}
}

// List returns a snapshot of every breakpoint currently defined.
func (t *Table) List() []Breaker {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Breaker, len(t.breaks))
	for i, b := range t.breaks {
		out[i] = *b
	}
	return out
}

// SetEnabled toggles the enabled flag of the breakpoint with the given id.
// It reports whether a matching breakpoint was found.
func (t *Table) SetEnabled(id uint32, enabled bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, b := range t.breaks {
		if b.ID == id {
			b.Enabled = enabled
			return true
		}
	}
	return false
}

// Matches reports whether addr, accessed via flag, hits any enabled
// breakpoint matching memType, and returns it.
func (t *Table) Matches(memType core.MemoryType, addr uint32, flag TypeFlag) (*Breaker, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, b := range t.breaks {
		if !b.Enabled {
			continue
		}
		if b.MemoryType != memType {
			continue
		}
		if b.TypeFlags&flag == 0 {
			continue
		}
		if addr < b.StartAddr || addr > b.EndAddr {
			continue
		}
		hit := *b
		return &hit, true
	}
	return nil, false
}
