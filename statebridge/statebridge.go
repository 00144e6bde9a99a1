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

// Package statebridge implements the bidirectional filesystem bridge: a
// 100ms poll loop that loads an external state file when it changes, and
// an atomic notify-file publish for host-initiated saves.
package statebridge

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/oos-tools/emuctl/core"
	"github.com/oos-tools/emuctl/ctlerrors"
	"github.com/oos-tools/emuctl/logger"
	"github.com/oos-tools/emuctl/slotstore"
)

const pollInterval = 100 * time.Millisecond

// DefaultWatchedPath and DefaultNotifyPath match spec.md §6.4's filesystem
// layout for the bridge's two well-known files.
func DefaultWatchedPath() string {
	return os.TempDir() + string(os.PathSeparator) + "oos_yaze_state.mss"
}

func DefaultNotifyPath() string {
	return os.TempDir() + string(os.PathSeparator) + "oos_yaze_state_notify"
}

type observation struct {
	exists  bool
	modTime time.Time
	size    int64
}

// Bridge is the watcher plus its observable synchronization state. All
// fields below the mutex share one lock, per spec.md §5's "watcher statics
// share one mutex" policy.
type Bridge struct {
	core  core.Core
	slots *slotstore.Manager

	mu              sync.Mutex
	watchedPath     string
	notifyPath      string
	lastObservation observation
	lastSyncedPath  string
	lastSyncedFrame uint64
	lastError       string
	lastErrorTimeMs int64

	wg   sync.WaitGroup
	quit chan struct{}
}

// New creates a Bridge watching DefaultWatchedPath and publishing to
// DefaultNotifyPath until overridden by SetWatchedPath/SetNotifyPath.
func New(c core.Core, slots *slotstore.Manager) *Bridge {
	return &Bridge{
		core:        c,
		slots:       slots,
		watchedPath: DefaultWatchedPath(),
		notifyPath:  DefaultNotifyPath(),
	}
}

// SetWatchedPath changes the path the watch loop polls. It takes effect on
// the very next poll iteration, without restarting the loop.
func (b *Bridge) SetWatchedPath(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.watchedPath = path
	b.lastObservation = observation{}
}

// SetNotifyPath changes where NotifyStateSaved publishes.
func (b *Bridge) SetNotifyPath(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifyPath = path
}

// Start begins the 100ms poll loop in a background goroutine.
func (b *Bridge) Start() {
	b.mu.Lock()
	b.quit = make(chan struct{})
	b.mu.Unlock()

	b.wg.Add(1)
	go b.watchLoop()
}

// Stop signals the poll loop to exit and waits for it to do so.
func (b *Bridge) Stop() {
	b.mu.Lock()
	quit := b.quit
	b.mu.Unlock()
	if quit == nil {
		return
	}
	close(quit)
	b.wg.Wait()
}

func (b *Bridge) watchLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.quit:
			return
		case <-ticker.C:
			b.pollOnce()
		}
	}
}

func (b *Bridge) pollOnce() {
	b.mu.Lock()
	path := b.watchedPath
	prev := b.lastObservation
	b.mu.Unlock()

	info, err := os.Stat(path)
	now := observation{}
	if err == nil {
		now = observation{exists: true, modTime: info.ModTime(), size: info.Size()}
	}

	changed := now.exists && (!prev.exists || !now.modTime.Equal(prev.modTime) || now.size != prev.size)

	b.mu.Lock()
	b.lastObservation = now
	b.mu.Unlock()

	if changed {
		b.load(path)
	}
}

// load runs the Load path described in spec.md §4.5: capture the pause
// state, pause if needed, feed the file through the codec, restore the
// pre-call pause state, and record the outcome.
func (b *Bridge) load(path string) {
	if !b.core.IsRunning() {
		b.recordError(fmt.Errorf("emulator not running"))
		return
	}

	wasPaused := b.core.IsPaused()
	if !wasPaused {
		b.core.Pause()
	}
	err := b.slots.LoadFromPath(path)
	if !wasPaused {
		b.core.Resume()
	}

	if err != nil {
		b.recordError(err)
		logger.Logf("statebridge", "load %s: %v", path, err)
		return
	}

	b.mu.Lock()
	b.lastSyncedPath = path
	b.lastSyncedFrame = b.core.FrameCount()
	b.lastError = ""
	b.lastErrorTimeMs = 0
	b.mu.Unlock()
}

func (b *Bridge) recordError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastError = err.Error()
	b.lastErrorTimeMs = time.Now().UnixMilli()
}

// LastSyncedPath returns the path of the most recently, successfully
// loaded state file.
func (b *Bridge) LastSyncedPath() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSyncedPath
}

// LastSyncedFrame returns the Core's frame count at the time of the most
// recent successful load.
func (b *Bridge) LastSyncedFrame() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSyncedFrame
}

// LastError returns the most recently recorded load error, if any, and the
// unix-millis timestamp it was recorded at.
func (b *Bridge) LastError() (string, int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastError, b.lastErrorTimeMs
}

// NotifyStateSaved publishes a two-line notify file (statePath, frameCount)
// atomically: write to a temp file, flush, close, rename into place. On a
// platform that forbids renaming over an existing file, the stale target is
// removed once and the rename is retried. Between that removal and the
// retried rename there is a window in which a peer polling the notify path
// finds no file; nothing here closes that window.
func (b *Bridge) NotifyStateSaved(statePath string, frame uint64) error {
	b.mu.Lock()
	notifyPath := b.notifyPath
	b.mu.Unlock()

	tmp := notifyPath + ".tmp"
	content := fmt.Sprintf("%s\n%d\n", statePath, frame)

	f, err := os.Create(tmp)
	if err != nil {
		return ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(tmp)
		return ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
	}

	if err := os.Rename(tmp, notifyPath); err != nil {
		// a platform that forbids overwrite-by-rename: remove the stale
		// target once and retry, per spec.md §4.5.
		os.Remove(notifyPath)
		if err := os.Rename(tmp, notifyPath); err != nil {
			os.Remove(tmp)
			return ctlerrors.Newf(ctlerrors.KindTransient, "transient: notify rename: %v", err)
		}
	}
	return nil
}
