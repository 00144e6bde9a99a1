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

package slotstore_test

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/oos-tools/emuctl/core"
	"github.com/oos-tools/emuctl/internal/assertx"
	"github.com/oos-tools/emuctl/slotstore"
)

type fakeCore struct {
	running     bool
	consoleType core.ConsoleType
	rom         core.ROMInfo
	blob        []byte
}

func newFakeCore() *fakeCore {
	return &fakeCore{
		running:     true,
		consoleType: core.ConsoleNES,
		rom:         core.ROMInfo{Path: "/roms/Metroid.nes"},
		blob:        []byte("state"),
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
func (c *fakeCore) ConsoleType() core.ConsoleType     { return c.consoleType }
func (c *fakeCore) ROMInfo() core.ROMInfo             { return c.rom }
func (c *fakeCore) PPUFrame() core.PPUFrame {
	return core.PPUFrame{Buffer: []byte{9, 9, 9, 9}, Width: 2, Height: 2, Scale: 1}
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
func (c *fakeCore) LoadROM(path, patchPath string) error { return nil }
func (c *fakeCore) Stop()                                {}
func (c *fakeCore) Lock() (unlock func())                { return func() {} }
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
func (c *fakeCore) TakeScreenshot(w io.Writer) error                    { return nil }
func (c *fakeCore) UpdateFrame(frame core.PPUFrame)                    {}

func (c *fakeCore) LoadScript(path string) error                     { return nil }
func (c *fakeCore) Inspect(target string) (map[string]string, error) { return nil, nil }
func (c *fakeCore) Rewind(action string, frames int) error           { return nil }
func (c *fakeCore) Cheat(action, code string, id int) (int, error)   { return 0, nil }
func (c *fakeCore) Speed(pct int) (int, error)                       { return 100, nil }
func (c *fakeCore) Search(pattern string, memType core.MemoryType) ([]uint32, error) {
	return nil, nil
}

func TestSlotPath(t *testing.T) {
	m := slotstore.NewManager(t.TempDir(), newFakeCore())
	defer m.Close()

	assertx.ExpectEquality(t, filepath.Base(m.SlotPath(3)), "Metroid_3.mss")
}

func TestSlotPathSeparateByPatch(t *testing.T) {
	c := newFakeCore()
	c.rom.PatchPath = "/patches/Metroid-hack.ips"
	m := slotstore.NewManager(t.TempDir(), c)
	defer m.Close()
	m.SetSeparateByPatch(true)

	assertx.ExpectEquality(t, filepath.Base(m.SlotPath(1)), "Metroid_Metroid-hack_1.mss")
}

func TestGetMaxIndexDefault(t *testing.T) {
	m := slotstore.NewManager(t.TempDir(), newFakeCore())
	defer m.Close()
	assertx.ExpectEquality(t, m.GetMaxIndex(), slotstore.DefaultMaxIndex)
	assertx.ExpectEquality(t, m.AutoSaveSlot(), slotstore.DefaultMaxIndex+1)
}

func TestGetMaxIndexEnv(t *testing.T) {
	t.Setenv("MESEN2_SAVE_STATE_SLOTS", "5")
	m := slotstore.NewManager(t.TempDir(), newFakeCore())
	defer m.Close()
	assertx.ExpectEquality(t, m.GetMaxIndex(), 5)
}

func TestGetMaxIndexEnvClamped(t *testing.T) {
	t.Setenv("MESEN2_SAVE_STATE_SLOTS", "500")
	m := slotstore.NewManager(t.TempDir(), newFakeCore())
	defer m.Close()
	assertx.ExpectEquality(t, m.GetMaxIndex(), 99)
}

func TestGetMaxIndexConfiguredOverridesEnv(t *testing.T) {
	t.Setenv("MESEN2_SAVE_STATE_SLOTS", "5")
	m := slotstore.NewManager(t.TempDir(), newFakeCore())
	defer m.Close()
	m.SetConfiguredMaxIndex(10)
	assertx.ExpectEquality(t, m.GetMaxIndex(), 10)
}

func TestSelectSlotRange(t *testing.T) {
	m := slotstore.NewManager(t.TempDir(), newFakeCore())
	defer m.Close()
	m.SetConfiguredMaxIndex(3)

	assertx.ExpectSuccess(t, m.SelectSlot(1) == nil)
	assertx.ExpectFailure(t, m.SelectSlot(0) == nil)
	assertx.ExpectFailure(t, m.SelectSlot(4) == nil)
}

func TestSlotWrap(t *testing.T) {
	m := slotstore.NewManager(t.TempDir(), newFakeCore())
	defer m.Close()
	m.SetConfiguredMaxIndex(3)

	assertx.ExpectSuccess(t, m.SelectSlot(3) == nil)
	assertx.ExpectEquality(t, m.NextSlot(), 1)
	assertx.ExpectEquality(t, m.PrevSlot(), 3)
	assertx.ExpectEquality(t, m.PrevSlot(), 2)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := newFakeCore()
	m := slotstore.NewManager(t.TempDir(), c)
	defer m.Close()

	assertx.ExpectSuccess(t, m.Save(1) == nil)

	c.blob = nil
	assertx.ExpectSuccess(t, m.Load(1) == nil)
	assertx.ExpectEquality(t, string(c.blob), "state")
}

func TestLabelRoundTrip(t *testing.T) {
	m := slotstore.NewManager(t.TempDir(), newFakeCore())
	defer m.Close()
	path := m.SlotPath(1)

	label, err := m.GetLabel(path)
	assertx.ExpectSuccess(t, err == nil)
	assertx.ExpectEquality(t, label, "")

	assertx.ExpectSuccess(t, m.SetLabel(path, "  boss fight  ") == nil)
	label, err = m.GetLabel(path)
	assertx.ExpectSuccess(t, err == nil)
	assertx.ExpectEquality(t, label, "boss fight")

	assertx.ExpectSuccess(t, m.SetLabel(path, "") == nil)
	label, err = m.GetLabel(path)
	assertx.ExpectSuccess(t, err == nil)
	assertx.ExpectEquality(t, label, "")
}

func TestGetPreview(t *testing.T) {
	c := newFakeCore()
	m := slotstore.NewManager(t.TempDir(), c)
	defer m.Close()

	assertx.ExpectSuccess(t, m.Save(1) == nil)

	preview, err := m.GetPreview(m.SlotPath(1))
	assertx.ExpectSuccess(t, err == nil)
	assertx.ExpectSuccess(t, len(preview) > 0)
	assertx.ExpectEquality(t, string(preview[1:4]), "PNG")

	// second call is served from cache.
	cached, err := m.GetPreview(m.SlotPath(1))
	assertx.ExpectSuccess(t, err == nil)
	assertx.ExpectEquality(t, string(cached), string(preview))
}
