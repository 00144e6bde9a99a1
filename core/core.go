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

// Package core describes the narrow capability surface this module requires
// from the emulator simulation it is bolted onto. The simulation itself
// ("the Core") is out of scope: every concrete emulator is expected to
// implement this interface once and hand it to savestate, slotstore,
// rpcserver and statebridge.
package core

import (
	"io"
	"path/filepath"
	"strings"
)

// ConsoleType discriminates between console families. The decoder in
// savestate refuses to hand a blob to a Core whose ConsoleType doesn't
// match the one recorded in the envelope.
type ConsoleType uint32

const (
	ConsoleUnknown ConsoleType = iota
	ConsoleSNES
	ConsoleNES
	ConsoleGameboy
	ConsoleGameboyColor
	ConsoleGameboyAdvance
	ConsolePCEngine
	ConsoleSMS
	ConsoleWS
)

func (c ConsoleType) String() string {
	switch c {
	case ConsoleSNES:
		return "SNES"
	case ConsoleNES:
		return "NES"
	case ConsoleGameboy:
		return "Gameboy"
	case ConsoleGameboyColor:
		return "GameboyColor"
	case ConsoleGameboyAdvance:
		return "GameboyAdvance"
	case ConsolePCEngine:
		return "PCEngine"
	case ConsoleSMS:
		return "SMS"
	case ConsoleWS:
		return "WS"
	default:
		return "Unknown"
	}
}

// MemoryType names one of a console's addressable memory spaces (CPU bus,
// PPU VRAM, cartridge SRAM, etc). The concrete set of valid values is
// console-specific; this module treats it as an opaque, named quantity.
type MemoryType string

// CPUType names one of a console's CPUs, for consoles with more than one
// (e.g. a main CPU and an audio coprocessor).
type CPUType string

// State describes the run state of the emulation, mirroring the simplified
// lifecycle a debugger/control surface cares about.
type State int

const (
	Initialising State = iota
	Running
	Paused
	Stepping
	Rewinding
	Ending
)

func (s State) String() string {
	switch s {
	case Initialising:
		return "initialising"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Stepping:
		return "stepping"
	case Rewinding:
		return "rewinding"
	case Ending:
		return "ending"
	default:
		return "unknown"
	}
}

// ROMInfo describes the currently loaded ROM.
type ROMInfo struct {
	Path      string
	PatchPath string
	Size      int64
	Hash      string
	Mapper    string
}

// Name returns the ROM's display name: its file name without path or
// extension.
func (r ROMInfo) Name() string {
	return fileStem(r.Path)
}

// PPUFrame is a preview-quality snapshot of the currently displayed frame,
// as required by the save-state preview block.
type PPUFrame struct {
	Buffer []byte
	Width  uint32
	Height uint32
	Scale  float64
}

// DisasmLine is one disassembled instruction.
type DisasmLine struct {
	Address  uint32
	Bytes    []byte
	Mnemonic string
	Operand  string
}

// CPUState is an opaque, console-specific register dump. Handlers render it
// as-is; this module never interprets individual fields.
type CPUState map[string]string

// StepKind distinguishes the STEP command's granularity.
type StepKind int

const (
	StepInto StepKind = iota
	StepOver
	StepOut
)

// Core is the capability surface described by spec.md §6.1. Every operation
// that reads or mutates emulator state must be performed while holding the
// lock returned by Lock.
type Core interface {
	IsRunning() bool
	IsPaused() bool
	Pause()
	Resume()
	Reset()
	IsNetplayConnected() bool

	// IsRecording reports whether an AVI/video capture is in progress. A
	// preview frame must never be pushed to the display while one is
	// active, since that would splice a foreign frame into the recording.
	IsRecording() bool
	FrameCount() uint64
	Version() uint32
	ConsoleType() ConsoleType
	ROMInfo() ROMInfo

	// PPUFrame returns the currently displayed frame, for preview capture.
	PPUFrame() PPUFrame

	// Serialize appends the opaque machine blob to w. The caller has
	// already written the envelope header.
	Serialize(w io.Writer) error

	// Deserialize replaces the in-memory machine state from r, which
	// contains exactly the opaque machine blob (the envelope header has
	// already been consumed by the caller). Implementations must not
	// partially apply a blob they ultimately reject.
	Deserialize(r io.Reader, formatVersion uint32, ct ConsoleType) error

	LoadROM(path, patchPath string) error
	Stop()

	// Lock acquires the Core's exclusive, non-reentrant lock and returns a
	// function that releases it. Every handler and the bridge's load path
	// must call Lock before touching emulator state.
	Lock() (unlock func())

	Peek(memType MemoryType, addr uint32) (byte, error)
	Poke(memType MemoryType, addr uint32, value byte) error
	MemorySize(memType MemoryType) (uint32, error)

	Disassemble(cpuType CPUType, addr uint32, count int) ([]DisasmLine, error)
	CPUState(cpuType CPUType) (CPUState, error)
	Step(cpuType CPUType, kind StepKind, count int) error
	AdvanceFrames(count int) error

	SetInput(port int, buttons uint32, frames int) error

	TakeScreenshot(w io.Writer) error
	UpdateFrame(frame PPUFrame)

	// The following hand off to collaborators this module treats as
	// opaque (script VM, rewind buffer, cheat engine): it forwards the
	// request and returns whatever they report, without interpreting
	// their internals.

	// LoadScript passes path to the Core's script manager.
	LoadScript(path string) error

	// Inspect returns a structured, console-specific view of a named
	// subsystem (e.g. "ppu", "apu") as flat key/value pairs.
	Inspect(target string) (map[string]string, error)

	// Rewind drives the rewind buffer: action is "start", "stop", or
	// "seek" (frames gives the seek target for the latter).
	Rewind(action string, frames int) error

	// Cheat drives the cheat engine: action is "add", "remove", "enable",
	// or "disable". It returns the id of the affected cheat.
	Cheat(action, code string, id int) (int, error)

	// Speed gets (pct == 0) or sets emulation speed as a percentage of
	// real time, returning the speed now in effect.
	Speed(pct int) (int, error)

	// Search scans memType for pattern (a console-specific cheat/value
	// search expression) and returns matching addresses.
	Search(pattern string, memType MemoryType) ([]uint32, error)
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
