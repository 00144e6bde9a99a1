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

package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oos-tools/emuctl/core"
)

// demoCore is a minimal, self-contained core.Core implementation: a flat
// 64KiB address space and a free-running frame counter, standing in for a
// real console simulation the way a reference client would exercise the
// rest of this module end-to-end without one. It is not itself part of the
// control surface; everything it does could be replaced by a real machine
// behind the same interface.
type demoCore struct {
	mu sync.Mutex

	// exclusive is the lock handed out by Lock. It is separate from mu so
	// that a caller holding it can still call the methods below.
	exclusive sync.Mutex

	running bool
	paused  bool
	mem     [65536]byte
	frame   uint64
	speed   int
	rom     core.ROMInfo

	cheats map[int]string
	nextID int

	scriptLoaded string
}

func newDemoCore() *demoCore {
	return &demoCore{
		running: true,
		speed:   100,
		cheats:  make(map[int]string),
		nextID:  1,
		rom:     core.ROMInfo{Path: "demo.rom", Size: 65536, Mapper: "flat"},
	}
}

// runFrames advances the frame counter at roughly 60Hz until stop is
// closed, standing in for a real emulation loop's timing source.
func (c *demoCore) runFrames(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.running && !c.paused {
				c.frame++
			}
			c.mu.Unlock()
		}
	}
}

func (c *demoCore) IsRunning() bool { c.mu.Lock(); defer c.mu.Unlock(); return c.running }
func (c *demoCore) IsPaused() bool  { c.mu.Lock(); defer c.mu.Unlock(); return c.paused }
func (c *demoCore) Pause()          { c.mu.Lock(); c.paused = true; c.mu.Unlock() }
func (c *demoCore) Resume()         { c.mu.Lock(); c.paused = false; c.mu.Unlock() }

func (c *demoCore) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem = [65536]byte{}
	c.frame = 0
}

func (c *demoCore) IsNetplayConnected() bool { return false }
func (c *demoCore) IsRecording() bool        { return false }

func (c *demoCore) FrameCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

func (c *demoCore) Version() uint32 { return 0x00010000 }

func (c *demoCore) ConsoleType() core.ConsoleType { return core.ConsoleNES }

func (c *demoCore) ROMInfo() core.ROMInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rom
}

func (c *demoCore) PPUFrame() core.PPUFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := make([]byte, 4)
	copy(buf, c.mem[:4])
	return core.PPUFrame{Buffer: buf, Width: 2, Height: 1, Scale: 1}
}

func (c *demoCore) Serialize(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := w.Write(c.mem[:])
	return err
}

func (c *demoCore) Deserialize(r io.Reader, formatVersion uint32, ct core.ConsoleType) error {
	blob, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem = [65536]byte{}
	copy(c.mem[:], blob)
	c.frame++
	return nil
}

func (c *demoCore) LoadROM(path, patchPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rom = core.ROMInfo{Path: path, PatchPath: patchPath, Size: 65536, Mapper: "flat"}
	return nil
}

func (c *demoCore) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
}

func (c *demoCore) Lock() (unlock func()) {
	c.exclusive.Lock()
	return c.exclusive.Unlock
}

func (c *demoCore) Peek(memType core.MemoryType, addr uint32) (byte, error) {
	if addr >= uint32(len(c.mem)) {
		return 0, fmt.Errorf("address out of range")
	}
	return c.mem[addr], nil
}

func (c *demoCore) Poke(memType core.MemoryType, addr uint32, value byte) error {
	if addr >= uint32(len(c.mem)) {
		return fmt.Errorf("address out of range")
	}
	c.mem[addr] = value
	return nil
}

func (c *demoCore) MemorySize(memType core.MemoryType) (uint32, error) {
	return uint32(len(c.mem)), nil
}

func (c *demoCore) Disassemble(cpuType core.CPUType, addr uint32, count int) ([]core.DisasmLine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := make([]core.DisasmLine, 0, count)
	for i := 0; i < count; i++ {
		a := addr + uint32(i)
		if a >= uint32(len(c.mem)) {
			break
		}
		lines = append(lines, core.DisasmLine{
			Address:  a,
			Bytes:    []byte{c.mem[a]},
			Mnemonic: "NOP",
			Operand:  "",
		})
	}
	return lines, nil
}

func (c *demoCore) CPUState(cpuType core.CPUType) (core.CPUState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.CPUState{
		"PC":    fmt.Sprintf("0x%04X", 0),
		"frame": fmt.Sprintf("%d", c.frame),
	}, nil
}

func (c *demoCore) Step(cpuType core.CPUType, kind core.StepKind, count int) error {
	return nil
}

func (c *demoCore) AdvanceFrames(count int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame += uint64(count)
	return nil
}

func (c *demoCore) SetInput(port int, buttons uint32, frames int) error {
	return nil
}

func (c *demoCore) TakeScreenshot(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := w.Write(c.mem[:4])
	return err
}

func (c *demoCore) UpdateFrame(frame core.PPUFrame) {}

func (c *demoCore) LoadScript(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scriptLoaded = path
	return nil
}

func (c *demoCore) Inspect(target string) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return map[string]string{"target": target, "script": c.scriptLoaded}, nil
}

func (c *demoCore) Rewind(action string, frames int) error {
	return nil
}

func (c *demoCore) Cheat(action, code string, id int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch action {
	case "add":
		newID := c.nextID
		c.nextID++
		c.cheats[newID] = code
		return newID, nil
	case "remove", "enable", "disable":
		return id, nil
	default:
		return 0, fmt.Errorf("unknown cheat action: %s", action)
	}
}

func (c *demoCore) Speed(pct int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pct != 0 {
		c.speed = pct
	}
	return c.speed, nil
}

func (c *demoCore) Search(pattern string, memType core.MemoryType) ([]uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var want byte
	if _, err := fmt.Sscanf(pattern, "%d", &want); err != nil {
		return nil, fmt.Errorf("bad-request: search pattern must be a byte value")
	}
	var hits []uint32
	for i, b := range c.mem {
		if b == want {
			hits = append(hits, uint32(i))
		}
	}
	return hits, nil
}
