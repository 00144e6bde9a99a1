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

// Package memsnapshot implements the SNAPSHOT/DIFF commands' named,
// in-process-only memory snapshots.
package memsnapshot

import (
	"sync"

	"github.com/oos-tools/emuctl/core"
	"github.com/oos-tools/emuctl/ctlerrors"
)

// Snapshot is a captured byte vector plus the parameters it was captured
// with. Named snapshots are never persisted to disk; they live only for the
// process lifetime.
type Snapshot struct {
	Name       string
	MemoryType core.MemoryType
	Address    uint32
	Length     uint32
	Data       []byte
	Timestamp  int64 // unix millis, supplied by the caller at Capture time
}

// Store is the process-wide named-snapshot map, guarded by its own mutex per
// spec.md's shared-resource policy.
type Store struct {
	mu        sync.Mutex
	snapshots map[string]Snapshot
}

// NewStore returns an empty snapshot store.
func NewStore() *Store {
	return &Store{snapshots: make(map[string]Snapshot)}
}

// Capture stores data under name, overwriting any existing snapshot of the
// same name.
func (s *Store) Capture(name string, memType core.MemoryType, addr uint32, data []byte, timestampMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[name] = Snapshot{
		Name:       name,
		MemoryType: memType,
		Address:    addr,
		Length:     uint32(len(data)),
		Data:       append([]byte(nil), data...),
		Timestamp:  timestampMs,
	}
}

// Get returns the named snapshot, if it exists.
func (s *Store) Get(name string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[name]
	return snap, ok
}

// List returns the names of every snapshot currently held, in no particular
// order.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.snapshots))
	for name := range s.snapshots {
		names = append(names, name)
	}
	return names
}

// Drop removes the named snapshot. It is not an error to drop a name that
// doesn't exist.
func (s *Store) Drop(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, name)
}

// Diff is one differing byte between two snapshots of equal length.
type Diff struct {
	Offset uint32
	A      byte
	B      byte
}

// DiffSnapshots byte-diffs the snapshots named a and b, returning every
// offset at which they differ. Both must exist and have equal length.
func (s *Store) DiffSnapshots(a, b string) ([]Diff, error) {
	snapA, ok := s.Get(a)
	if !ok {
		return nil, ctlerrors.Newf(ctlerrors.KindBadRequest, "bad-request: unknown snapshot %q", a)
	}
	snapB, ok := s.Get(b)
	if !ok {
		return nil, ctlerrors.Newf(ctlerrors.KindBadRequest, "bad-request: unknown snapshot %q", b)
	}
	if len(snapA.Data) != len(snapB.Data) {
		return nil, ctlerrors.Newf(ctlerrors.KindBadRequest, "bad-request: snapshot length mismatch")
	}

	var diffs []Diff
	for i := range snapA.Data {
		if snapA.Data[i] != snapB.Data[i] {
			diffs = append(diffs, Diff{Offset: uint32(i), A: snapA.Data[i], B: snapB.Data[i]})
		}
	}
	return diffs, nil
}
