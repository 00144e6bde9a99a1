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

// Package slotstore maps (ROM identity, slot index) pairs to save-state file
// paths, owns slot labels, and serves cached preview thumbnails.
package slotstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/oos-tools/emuctl/core"
	"github.com/oos-tools/emuctl/ctlerrors"
	"github.com/oos-tools/emuctl/logger"
	"github.com/oos-tools/emuctl/messages"
	"github.com/oos-tools/emuctl/savestate"
)

const (
	// DefaultMaxIndex is used when neither SetConfiguredMaxIndex nor either
	// environment variable supplies a value.
	DefaultMaxIndex = 20

	minMaxIndex = 1
	maxMaxIndex = 99
)

// Manager resolves slot paths for the currently loaded ROM, saves and loads
// through the codec under the Core's exclusive lock, and maintains slot
// labels and a preview cache.
type Manager struct {
	dir              string
	core             core.Core
	separateByPatch  bool

	mu              sync.Mutex
	configuredMax   int // 0 means unset
	resolvedMax     int // 0 means not yet resolved
	currentSlot     int
	previewCache    map[string][]byte

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewManager creates a Manager rooted at dir (spec.md's saveStatesDir). It
// starts a best-effort fsnotify watcher on dir to invalidate cached previews
// when a slot file changes out from under the cache; a watcher that fails to
// start (e.g. the platform's inotify instance limit is exhausted) is logged
// and otherwise ignored — Manager always falls back to uncached reads.
func NewManager(dir string, c core.Core) *Manager {
	m := &Manager{
		dir:          dir,
		core:         c,
		currentSlot:  1,
		previewCache: make(map[string][]byte),
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Logf("slotstore", "preview cache watcher disabled: %v", err)
		return m
	}
	if err := w.Add(dir); err != nil {
		logger.Logf("slotstore", "preview cache watcher disabled: %v", err)
		w.Close()
		return m
	}

	m.watcher = w
	m.done = make(chan struct{})
	go m.watchLoop()

	return m
}

func (m *Manager) watchLoop() {
	for {
		select {
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				m.mu.Lock()
				delete(m.previewCache, ev.Name)
				m.mu.Unlock()
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			logger.Logf("slotstore", "preview cache watcher error: %v", err)
		case <-m.done:
			return
		}
	}
}

// Close stops the preview-cache watcher goroutine, if one was started.
func (m *Manager) Close() {
	if m.watcher == nil {
		return
	}
	close(m.done)
	m.watcher.Close()
}

// SetSeparateByPatch mirrors the "separate-by-patch" preference: when set, a
// ROM loaded with a patch whose stem differs from the ROM's own stem gets a
// distinct slot namespace.
func (m *Manager) SetSeparateByPatch(v bool) {
	m.separateByPatch = v
}

// SetConfiguredMaxIndex overrides GetMaxIndex's resolution with an explicit
// value for the remainder of the process lifetime. Values below 1 are
// ignored and leave any earlier setting in place.
func (m *Manager) SetConfiguredMaxIndex(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n >= minMaxIndex {
		m.configuredMax = n
		m.resolvedMax = clamp(n)
	}
}

// GetMaxIndex resolves the highest valid slot index: an explicit
// SetConfiguredMaxIndex value, else MESEN2_SAVE_STATE_SLOTS, else
// OOS_SAVE_STATE_SLOTS, else DefaultMaxIndex. The env-derived value is
// cached for the remainder of the process lifetime.
func (m *Manager) GetMaxIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveMaxLocked()
}

func (m *Manager) resolveMaxLocked() int {
	if m.resolvedMax > 0 {
		return m.resolvedMax
	}
	if m.configuredMax >= minMaxIndex {
		m.resolvedMax = clamp(m.configuredMax)
		return m.resolvedMax
	}
	for _, name := range []string{"MESEN2_SAVE_STATE_SLOTS", "OOS_SAVE_STATE_SLOTS"} {
		if raw, ok := os.LookupEnv(name); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n >= minMaxIndex {
				m.resolvedMax = clamp(n)
				return m.resolvedMax
			}
		}
	}
	m.resolvedMax = DefaultMaxIndex
	return m.resolvedMax
}

func clamp(n int) int {
	if n < minMaxIndex {
		return minMaxIndex
	}
	if n > maxMaxIndex {
		return maxMaxIndex
	}
	return n
}

// AutoSaveSlot returns the slot index reserved for the auto-save feature,
// maxIndex+1, which falls outside the range SelectSlot/NextSlot/PrevSlot
// navigate.
func (m *Manager) AutoSaveSlot() int {
	return m.GetMaxIndex() + 1
}

// SelectSlot sets the current slot, which must be in [1, maxIndex].
func (m *Manager) SelectSlot(i int) error {
	max := m.GetMaxIndex()
	if i < 1 || i > max {
		return ctlerrors.Newf(ctlerrors.KindBadRequest, "bad-request: slot %d out of range [1,%d]", i, max)
	}
	m.mu.Lock()
	m.currentSlot = i
	m.mu.Unlock()
	messages.Display(messages.SaveStateSlotSelected, fmt.Sprintf("%d", i))
	return nil
}

// CurrentSlot returns the currently selected slot.
func (m *Manager) CurrentSlot() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentSlot
}

// NextSlot advances the current slot by one, wrapping from maxIndex to 1.
func (m *Manager) NextSlot() int {
	return m.advance(1)
}

// PrevSlot moves the current slot back by one, wrapping from 1 to maxIndex.
func (m *Manager) PrevSlot() int {
	return m.advance(-1)
}

func (m *Manager) advance(delta int) int {
	max := m.GetMaxIndex()
	m.mu.Lock()
	defer m.mu.Unlock()
	// ((k-1+n) mod max) + 1, generalised to negative n via Go's %
	// operator by normalising into [0, max) first.
	k := m.currentSlot - 1 + delta
	k %= max
	if k < 0 {
		k += max
	}
	m.currentSlot = k + 1
	messages.Display(messages.SaveStateSlotSelected, fmt.Sprintf("%d", m.currentSlot))
	return m.currentSlot
}

// SlotPath returns the on-disk path for slot i against the currently loaded
// ROM, per spec.md's slot-identity rule.
func (m *Manager) SlotPath(i int) string {
	return filepath.Join(m.dir, fmt.Sprintf("%s_%d.mss", m.baseName(), i))
}

func (m *Manager) baseName() string {
	info := m.core.ROMInfo()
	base := info.Name()
	if !m.separateByPatch || info.PatchPath == "" {
		return base
	}
	patchStem := core.ROMInfo{Path: info.PatchPath}.Name()
	if patchStem == "" || patchStem == base {
		return base
	}
	return base + "_" + patchStem
}

// Save encodes the current Core state to slot i's path, under the Core's
// exclusive lock, writing through a temporary file and renaming into place
// so a reader never observes a partially written snapshot.
func (m *Manager) Save(i int) error {
	return m.SaveToPath(m.SlotPath(i))
}

// SaveToPath encodes the current Core state to an arbitrary path.
func (m *Manager) SaveToPath(path string) error {
	unlock := m.core.Lock()
	defer unlock()

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
	}
	if err := savestate.Encode(f, m.core); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
	}
	messages.Display(messages.SaveStateSaved)
	messages.Display(messages.SaveStateSavedFile, path)
	return nil
}

// Load decodes slot i's file into the Core.
func (m *Manager) Load(i int) error {
	return m.LoadFromPath(m.SlotPath(i))
}

// LoadFromPath decodes an arbitrary path into the Core.
func (m *Manager) LoadFromPath(path string) error {
	f, err := os.Open(path)
	if err != nil {
		messages.Display(messages.CouldNotLoadFile, path)
		return ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
	}
	defer f.Close()

	unlock := m.core.Lock()
	defer unlock()

	if _, err := savestate.Decode(f, m.core); err != nil {
		messages.Display(messages.CouldNotLoadFile, path)
		return err
	}
	messages.Display(messages.SaveStateLoaded)
	messages.Display(messages.SaveStateLoadedFile, path)
	return nil
}

// GetLabel returns the trimmed label text for path's slot file. A missing
// label file is not an error; it returns "".
func (m *Manager) GetLabel(path string) (string, error) {
	data, err := os.ReadFile(labelPath(path))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SetLabel writes text as path's label. Writing an empty label deletes the
// label file instead; a label file that was already absent is not an error.
func (m *Manager) SetLabel(path, text string) error {
	text = strings.TrimSpace(text)
	lp := labelPath(path)
	if text == "" {
		if err := os.Remove(lp); err != nil && !os.IsNotExist(err) {
			return ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
		}
		return nil
	}
	if err := os.WriteFile(lp, []byte(text), 0o644); err != nil {
		return ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
	}
	return nil
}

func labelPath(path string) string {
	return path + ".label"
}

// GetPreview returns PNG-encoded thumbnail bytes for path's slot file
// without deserializing the machine blob, serving from the cache when
// possible.
func (m *Manager) GetPreview(path string) ([]byte, error) {
	m.mu.Lock()
	if cached, ok := m.previewCache[path]; ok {
		m.mu.Unlock()
		return cached, nil
	}
	m.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
	}
	defer f.Close()

	preview, err := savestate.GetPreview(f)
	if err != nil {
		return nil, err
	}

	png, err := savestate.EncodePreviewPNG(preview)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.previewCache[path] = png
	m.mu.Unlock()

	return png, nil
}
