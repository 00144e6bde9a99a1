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

package statebridge_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oos-tools/emuctl/core"
	"github.com/oos-tools/emuctl/internal/assertx"
	"github.com/oos-tools/emuctl/savestate"
	"github.com/oos-tools/emuctl/slotstore"
	"github.com/oos-tools/emuctl/statebridge"
)

type fakeCore struct {
	running bool
	paused  bool
	frame   uint64
	rom     core.ROMInfo
	blob    []byte
}

func newFakeCore() *fakeCore {
	return &fakeCore{
		running: true,
		frame:   10,
		rom:     core.ROMInfo{Path: "/roms/Pitfall.a26"},
		blob:    []byte("initial"),
	}
}

func (c *fakeCore) IsRunning() bool               { return c.running }
func (c *fakeCore) IsPaused() bool                { return c.paused }
func (c *fakeCore) Pause()                        { c.paused = true }
func (c *fakeCore) Resume()                       { c.paused = false }
func (c *fakeCore) Reset()                        {}
func (c *fakeCore) IsNetplayConnected() bool      { return false }
func (c *fakeCore) IsRecording() bool             { return false }
func (c *fakeCore) FrameCount() uint64            { return c.frame }
func (c *fakeCore) Version() uint32               { return 0x20000 }
func (c *fakeCore) ConsoleType() core.ConsoleType { return core.ConsoleNES }
func (c *fakeCore) ROMInfo() core.ROMInfo         { return c.rom }
func (c *fakeCore) PPUFrame() core.PPUFrame {
	return core.PPUFrame{Buffer: []byte{1, 2, 3, 4}, Width: 2, Height: 2, Scale: 1}
}
func (c *fakeCore) Serialize(w io.Writer) error { _, err := w.Write(c.blob); return err }
func (c *fakeCore) Deserialize(r io.Reader, formatVersion uint32, ct core.ConsoleType) error {
	blob, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	c.blob = blob
	c.frame++
	return nil
}
func (c *fakeCore) LoadROM(path, patchPath string) error                       { return nil }
func (c *fakeCore) Stop()                                                      {}
func (c *fakeCore) Lock() (unlock func())                                      { return func() {} }
func (c *fakeCore) Peek(memType core.MemoryType, addr uint32) (byte, error)    { return 0, nil }
func (c *fakeCore) Poke(memType core.MemoryType, addr uint32, value byte) error { return nil }
func (c *fakeCore) MemorySize(memType core.MemoryType) (uint32, error)          { return 0, nil }
func (c *fakeCore) Disassemble(cpuType core.CPUType, addr uint32, count int) ([]core.DisasmLine, error) {
	return nil, nil
}
func (c *fakeCore) CPUState(cpuType core.CPUType) (core.CPUState, error)           { return nil, nil }
func (c *fakeCore) Step(cpuType core.CPUType, kind core.StepKind, count int) error { return nil }
func (c *fakeCore) AdvanceFrames(count int) error                                  { return nil }
func (c *fakeCore) SetInput(port int, buttons uint32, frames int) error            { return nil }
func (c *fakeCore) TakeScreenshot(w io.Writer) error                               { return nil }
func (c *fakeCore) UpdateFrame(frame core.PPUFrame)                               {}

func (c *fakeCore) LoadScript(path string) error                     { return nil }
func (c *fakeCore) Inspect(target string) (map[string]string, error) { return nil, nil }
func (c *fakeCore) Rewind(action string, frames int) error           { return nil }
func (c *fakeCore) Cheat(action, code string, id int) (int, error)   { return 0, nil }
func (c *fakeCore) Speed(pct int) (int, error)                       { return 100, nil }
func (c *fakeCore) Search(pattern string, memType core.MemoryType) ([]uint32, error) {
	return nil, nil
}

func writeStateFile(t *testing.T, path string, c *fakeCore) {
	t.Helper()
	var buf bytes.Buffer
	assertx.ExpectSuccess(t, savestate.Encode(&buf, c) == nil)
	assertx.ExpectSuccess(t, os.WriteFile(path, buf.Bytes(), 0o644) == nil)
}

func TestBridgeLoadsOnChange(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "watched.mss")

	producer := newFakeCore()
	writeStateFile(t, watched, producer)

	host := newFakeCore()
	slots := slotstore.NewManager(dir, host)
	defer slots.Close()

	b := statebridge.New(host, slots)
	b.SetWatchedPath(watched)
	b.SetNotifyPath(filepath.Join(dir, "notify"))
	b.Start()
	defer b.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if b.LastSyncedPath() == watched {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	assertx.ExpectEquality(t, b.LastSyncedPath(), watched)
	assertx.ExpectEquality(t, b.LastSyncedFrame(), host.FrameCount())
	errMsg, _ := b.LastError()
	assertx.ExpectEquality(t, errMsg, "")
}

func TestBridgeRecordsErrorOnGarbage(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "watched.mss")
	assertx.ExpectSuccess(t, os.WriteFile(watched, []byte("not a savestate"), 0o644) == nil)

	host := newFakeCore()
	slots := slotstore.NewManager(dir, host)
	defer slots.Close()

	b := statebridge.New(host, slots)
	b.SetWatchedPath(watched)
	b.Start()
	defer b.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if msg, _ := b.LastError(); msg != "" {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	msg, ts := b.LastError()
	assertx.ExpectSuccess(t, msg != "")
	assertx.ExpectSuccess(t, ts > 0)
	assertx.ExpectEquality(t, b.LastSyncedPath(), "")
}

func TestNotifyStateSavedWritesTwoLines(t *testing.T) {
	dir := t.TempDir()
	host := newFakeCore()
	slots := slotstore.NewManager(dir, host)
	defer slots.Close()

	b := statebridge.New(host, slots)
	notifyPath := filepath.Join(dir, "notify")
	b.SetNotifyPath(notifyPath)

	assertx.ExpectSuccess(t, b.NotifyStateSaved("/roms/Pitfall_1.mss", 42) == nil)

	data, err := os.ReadFile(notifyPath)
	assertx.ExpectSuccess(t, err == nil)
	assertx.ExpectEquality(t, string(data), "/roms/Pitfall_1.mss\n42\n")
}

func TestNotifyStateSavedOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	host := newFakeCore()
	slots := slotstore.NewManager(dir, host)
	defer slots.Close()

	b := statebridge.New(host, slots)
	notifyPath := filepath.Join(dir, "notify")
	b.SetNotifyPath(notifyPath)
	assertx.ExpectSuccess(t, os.WriteFile(notifyPath, []byte("stale\n0\n"), 0o644) == nil)

	assertx.ExpectSuccess(t, b.NotifyStateSaved("/roms/Pitfall_2.mss", 99) == nil)

	data, err := os.ReadFile(notifyPath)
	assertx.ExpectSuccess(t, err == nil)
	assertx.ExpectEquality(t, string(data), "/roms/Pitfall_2.mss\n99\n")
}

func TestNoSyncWhenEmulatorNotRunning(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "watched.mss")

	producer := newFakeCore()
	writeStateFile(t, watched, producer)

	host := newFakeCore()
	host.running = false
	slots := slotstore.NewManager(dir, host)
	defer slots.Close()

	b := statebridge.New(host, slots)
	b.SetWatchedPath(watched)
	b.Start()
	defer b.Stop()

	time.Sleep(300 * time.Millisecond)

	assertx.ExpectEquality(t, b.LastSyncedPath(), "")
	msg, _ := b.LastError()
	assertx.ExpectEquality(t, msg, "emulator not running")
}
