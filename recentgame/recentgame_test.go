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

package recentgame_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/oos-tools/emuctl/core"
	"github.com/oos-tools/emuctl/internal/assertx"
	"github.com/oos-tools/emuctl/recentgame"
)

type fakeCore struct {
	running   bool
	rom       core.ROMInfo
	blob      []byte
	loadedROM string
	loadedPatch string
	stopped   bool
}

func newFakeCore() *fakeCore {
	return &fakeCore{
		running: true,
		rom:     core.ROMInfo{Path: "/roms/Zelda.nes"},
		blob:    []byte("state"),
	}
}

func (c *fakeCore) IsRunning() bool                   { return c.running }
func (c *fakeCore) IsPaused() bool                    { return false }
func (c *fakeCore) Pause()                            {}
func (c *fakeCore) Resume()                           {}
func (c *fakeCore) Reset()                            {}
func (c *fakeCore) IsNetplayConnected() bool          { return false }
func (c *fakeCore) IsRecording() bool                 { return false }
func (c *fakeCore) FrameCount() uint64                { return 0 }
func (c *fakeCore) Version() uint32                   { return 0x20000 }
func (c *fakeCore) ConsoleType() core.ConsoleType     { return core.ConsoleNES }
func (c *fakeCore) ROMInfo() core.ROMInfo             { return c.rom }
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
	return nil
}
func (c *fakeCore) LoadROM(path, patchPath string) error {
	c.loadedROM = path
	c.loadedPatch = patchPath
	return nil
}
func (c *fakeCore) Stop()                 { c.stopped = true }
func (c *fakeCore) Lock() (unlock func()) { return func() {} }
func (c *fakeCore) Peek(memType core.MemoryType, addr uint32) (byte, error) { return 0, nil }
func (c *fakeCore) Poke(memType core.MemoryType, addr uint32, value byte) error { return nil }
func (c *fakeCore) MemorySize(memType core.MemoryType) (uint32, error)      { return 0, nil }
func (c *fakeCore) Disassemble(cpuType core.CPUType, addr uint32, count int) ([]core.DisasmLine, error) {
	return nil, nil
}
func (c *fakeCore) CPUState(cpuType core.CPUType) (core.CPUState, error) { return nil, nil }
func (c *fakeCore) Step(cpuType core.CPUType, kind core.StepKind, count int) error { return nil }
func (c *fakeCore) AdvanceFrames(count int) error                       { return nil }
func (c *fakeCore) SetInput(port int, buttons uint32, frames int) error { return nil }
func (c *fakeCore) TakeScreenshot(w io.Writer) error                    { _, err := w.Write([]byte("PNG...")); return err }
func (c *fakeCore) UpdateFrame(frame core.PPUFrame)                    {}

func (c *fakeCore) LoadScript(path string) error                     { return nil }
func (c *fakeCore) Inspect(target string) (map[string]string, error) { return nil, nil }
func (c *fakeCore) Rewind(action string, frames int) error           { return nil }
func (c *fakeCore) Cheat(action, code string, id int) (int, error)   { return 0, nil }
func (c *fakeCore) Speed(pct int) (int, error)                       { return 100, nil }
func (c *fakeCore) Search(pattern string, memType core.MemoryType) ([]uint32, error) {
	return nil, nil
}

func TestSaveCreatesArchive(t *testing.T) {
	c := newFakeCore()
	b := recentgame.NewBundler(t.TempDir(), c)

	assertx.ExpectSuccess(t, b.Save(false) == nil)

	_, err := os.Stat(b.Path())
	assertx.ExpectSuccess(t, err == nil)
	assertx.ExpectEquality(t, filepath.Base(b.Path()), "Zelda.rgd")
}

func TestSaveSkippedWhenHeadless(t *testing.T) {
	c := newFakeCore()
	b := recentgame.NewBundler(t.TempDir(), c)

	assertx.ExpectSuccess(t, b.Save(true) == nil)

	_, err := os.Stat(b.Path())
	assertx.ExpectFailure(t, err == nil)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	saver := newFakeCore()
	b := recentgame.NewBundler(t.TempDir(), saver)
	assertx.ExpectSuccess(t, b.Save(false) == nil)

	loader := newFakeCore()
	lb := recentgame.NewBundler(t.TempDir(), loader)
	assertx.ExpectSuccess(t, lb.Load(b.Path(), true) == nil)

	assertx.ExpectEquality(t, loader.loadedROM, "/roms/Zelda.nes")
	assertx.ExpectEquality(t, string(loader.blob), "state")
	assertx.ExpectFailure(t, loader.stopped)
}

func TestLoadWithoutResumeSkipsState(t *testing.T) {
	saver := newFakeCore()
	b := recentgame.NewBundler(t.TempDir(), saver)
	assertx.ExpectSuccess(t, b.Save(false) == nil)

	loader := newFakeCore()
	loader.blob = []byte("untouched")
	lb := recentgame.NewBundler(t.TempDir(), loader)
	assertx.ExpectSuccess(t, lb.Load(b.Path(), false) == nil)

	assertx.ExpectEquality(t, loader.loadedROM, "/roms/Zelda.nes")
	assertx.ExpectEquality(t, string(loader.blob), "untouched")
}

func TestLoadMissingArchiveStopsCore(t *testing.T) {
	loader := newFakeCore()
	lb := recentgame.NewBundler(t.TempDir(), loader)

	err := lb.Load(filepath.Join(t.TempDir(), "missing.rgd"), true)
	assertx.ExpectFailure(t, err == nil)
	assertx.ExpectSuccess(t, loader.stopped)
}
