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

// Package handlers implements every ControlRPC command against a core.Core,
// the §4.4 handler catalog.
package handlers

import (
	"bytes"
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oos-tools/emuctl/breakpoints"
	"github.com/oos-tools/emuctl/core"
	"github.com/oos-tools/emuctl/ctlerrors"
	"github.com/oos-tools/emuctl/memsnapshot"
	"github.com/oos-tools/emuctl/slotstore"
	"github.com/oos-tools/emuctl/symtab"
	"github.com/oos-tools/emuctl/wireproto"
)

// Deps bundles everything a handler might need beyond the Core itself.
type Deps struct {
	Core        core.Core
	Slots       *slotstore.Manager
	Breakpoints *breakpoints.Table
	Snapshots   *memsnapshot.Store
	Symbols     *symtab.Table
	StartedAt   time.Time
}

// HandlerFunc implements one command. params has already had "type"
// removed. It returns raw JSON for the response's "data" field (empty
// string for no payload) or an error.
type HandlerFunc func(d *Deps, params map[string]string) (string, error)

// Registry is the server's O(1)-lookup, runtime-extensible handler table.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewRegistry returns a Registry pre-populated with the full built-in
// command catalog.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]HandlerFunc)}
	for name, fn := range builtins {
		r.handlers[name] = fn
	}
	return r
}

// RegisterHandler adds or replaces the handler for name (matched
// case-insensitively against the uppercased wire command).
func (r *Registry) RegisterHandler(name string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[strings.ToUpper(name)] = fn
}

// Lookup returns the handler registered for name, if any.
func (r *Registry) Lookup(name string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.handlers[name]
	return fn, ok
}

var builtins = map[string]HandlerFunc{
	"PING":         handlePing,
	"STATE":        handleState,
	"HEALTH":       handleHealth,
	"PAUSE":        handlePause,
	"RESUME":       handleResume,
	"RESET":        handleReset,
	"READ":         handleRead,
	"READ16":       handleRead16,
	"WRITE":        handleWrite,
	"WRITE16":      handleWrite16,
	"READBLOCK":    handleReadBlock,
	"WRITEBLOCK":   handleWriteBlock,
	"SAVESTATE":    handleSaveState,
	"LOADSTATE":    handleLoadState,
	"LOADSCRIPT":   handleLoadScript,
	"SCREENSHOT":   handleScreenshot,
	"CPU":          handleCPU,
	"STATEINSPECT": handleStateInspect,
	"INPUT":        handleInput,
	"DISASM":       handleDisasm,
	"STEP":         handleStep,
	"FRAME":        handleFrame,
	"ROMINFO":      handleROMInfo,
	"REWIND":       handleRewind,
	"CHEAT":        handleCheat,
	"SPEED":        handleSpeed,
	"SEARCH":       handleSearch,
	"SNAPSHOT":     handleSnapshot,
	"DIFF":         handleDiff,
	"LABELS":       handleLabels,
	"BREAKPOINT":   handleBreakpoint,
}

// --- param parsing helpers --------------------------------------------

func badRequest(format string, args ...interface{}) error {
	return ctlerrors.Newf(ctlerrors.KindBadRequest, format, args...)
}

func parseUintParam(params map[string]string, key string) (uint32, bool, error) {
	raw, ok := params[key]
	if !ok {
		return 0, false, nil
	}
	v, err := parseUint(raw)
	if err != nil {
		return 0, true, badRequest("bad-request: %s: %v", key, err)
	}
	return v, true, nil
}

func parseUint(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 32)
		return uint32(v), err
	}
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err
}

func requireUint(params map[string]string, key string) (uint32, error) {
	v, ok, err := parseUintParam(params, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, badRequest("bad-request: missing %s", key)
	}
	return v, nil
}

func intParam(params map[string]string, key string, def int) (int, error) {
	raw, ok := params[key]
	if !ok {
		return def, nil
	}
	v, err := parseUint(raw)
	if err != nil {
		return 0, badRequest("bad-request: %s: %v", key, err)
	}
	return int(v), nil
}

func memType(params map[string]string) core.MemoryType {
	return core.MemoryType(params["memtype"])
}

func cpuType(params map[string]string) core.CPUType {
	return core.CPUType(params["cputype"])
}

func checkRange(c core.Core, mt core.MemoryType, addr uint32, length uint32) error {
	size, err := c.MemorySize(mt)
	if err != nil {
		return err
	}
	if uint64(addr)+uint64(length) > uint64(size) {
		return badRequest("address out of range")
	}
	return nil
}

// --- JSON response builders --------------------------------------------

func jstr(s string) string { return `"` + wireproto.EscapeString(s) + `"` }

func jbool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func jint(n int64) string { return strconv.FormatInt(n, 10) }

func jhex(data []byte) string { return jstr(hex.EncodeToString(data)) }

type fieldList struct {
	b strings.Builder
}

func newObject() *fieldList {
	f := &fieldList{}
	f.b.WriteByte('{')
	return f
}

func (f *fieldList) add(key, rawValue string) *fieldList {
	if f.b.Len() > 1 {
		f.b.WriteByte(',')
	}
	f.b.WriteString(jstr(key))
	f.b.WriteByte(':')
	f.b.WriteString(rawValue)
	return f
}

func (f *fieldList) String() string {
	f.b.WriteByte('}')
	return f.b.String()
}

// --- handlers ------------------------------------------------------------

func handlePing(d *Deps, params map[string]string) (string, error) {
	return newObject().add("pong", jbool(true)).String(), nil
}

func handleState(d *Deps, params map[string]string) (string, error) {
	unlock := d.Core.Lock()
	defer unlock()
	return newObject().
		add("running", jbool(d.Core.IsRunning())).
		add("paused", jbool(d.Core.IsPaused())).
		add("frame", jint(int64(d.Core.FrameCount()))).
		add("rom", jstr(d.Core.ROMInfo().Name())).
		String(), nil
}

func handleHealth(d *Deps, params map[string]string) (string, error) {
	unlock := d.Core.Lock()
	defer unlock()
	return newObject().
		add("running", jbool(d.Core.IsRunning())).
		add("uptime", jint(int64(time.Since(d.StartedAt).Seconds()))).
		String(), nil
}

func handlePause(d *Deps, params map[string]string) (string, error) {
	unlock := d.Core.Lock()
	defer unlock()
	d.Core.Pause()
	return "", nil
}

func handleResume(d *Deps, params map[string]string) (string, error) {
	unlock := d.Core.Lock()
	defer unlock()
	d.Core.Resume()
	return "", nil
}

func handleReset(d *Deps, params map[string]string) (string, error) {
	unlock := d.Core.Lock()
	defer unlock()
	d.Core.Reset()
	return "", nil
}

func handleRead(d *Deps, params map[string]string) (string, error) {
	addr, err := requireUint(params, "addr")
	if err != nil {
		return "", err
	}
	mt := memType(params)

	unlock := d.Core.Lock()
	defer unlock()

	if err := checkRange(d.Core, mt, addr, 1); err != nil {
		return "", err
	}
	v, err := d.Core.Peek(mt, addr)
	if err != nil {
		return "", err
	}
	return newObject().add("value", jhex([]byte{v})).String(), nil
}

func handleRead16(d *Deps, params map[string]string) (string, error) {
	addr, err := requireUint(params, "addr")
	if err != nil {
		return "", err
	}
	mt := memType(params)

	unlock := d.Core.Lock()
	defer unlock()

	if err := checkRange(d.Core, mt, addr, 2); err != nil {
		return "", err
	}
	lo, err := d.Core.Peek(mt, addr)
	if err != nil {
		return "", err
	}
	hi, err := d.Core.Peek(mt, addr+1)
	if err != nil {
		return "", err
	}
	return newObject().add("value", jint(int64(uint16(lo)|uint16(hi)<<8))).String(), nil
}

func handleWrite(d *Deps, params map[string]string) (string, error) {
	addr, err := requireUint(params, "addr")
	if err != nil {
		return "", err
	}
	value, err := requireUint(params, "value")
	if err != nil {
		return "", err
	}
	mt := memType(params)

	unlock := d.Core.Lock()
	defer unlock()

	if err := checkRange(d.Core, mt, addr, 1); err != nil {
		return "", err
	}
	return "", d.Core.Poke(mt, addr, byte(value))
}

func handleWrite16(d *Deps, params map[string]string) (string, error) {
	addr, err := requireUint(params, "addr")
	if err != nil {
		return "", err
	}
	value, err := requireUint(params, "value")
	if err != nil {
		return "", err
	}
	mt := memType(params)

	unlock := d.Core.Lock()
	defer unlock()

	if err := checkRange(d.Core, mt, addr, 2); err != nil {
		return "", err
	}
	if err := d.Core.Poke(mt, addr, byte(value)); err != nil {
		return "", err
	}
	return "", d.Core.Poke(mt, addr+1, byte(value>>8))
}

func handleReadBlock(d *Deps, params map[string]string) (string, error) {
	addr, err := requireUint(params, "addr")
	if err != nil {
		return "", err
	}
	length, err := requireUint(params, "length")
	if err != nil {
		return "", err
	}
	mt := memType(params)

	unlock := d.Core.Lock()
	defer unlock()

	if err := checkRange(d.Core, mt, addr, length); err != nil {
		return "", err
	}

	data := make([]byte, length)
	for i := range data {
		v, err := d.Core.Peek(mt, addr+uint32(i))
		if err != nil {
			return "", err
		}
		data[i] = v
	}
	return newObject().add("data", jhex(data)).String(), nil
}

func handleWriteBlock(d *Deps, params map[string]string) (string, error) {
	addr, err := requireUint(params, "addr")
	if err != nil {
		return "", err
	}
	data, err := hex.DecodeString(params["data"])
	if err != nil {
		return "", badRequest("bad-request: data: %v", err)
	}
	mt := memType(params)

	unlock := d.Core.Lock()
	defer unlock()

	if err := checkRange(d.Core, mt, addr, uint32(len(data))); err != nil {
		return "", err
	}
	for i, b := range data {
		if err := d.Core.Poke(mt, addr+uint32(i), b); err != nil {
			return "", err
		}
	}
	return "", nil
}

func handleSaveState(d *Deps, params map[string]string) (string, error) {
	if path, ok := params["path"]; ok {
		return "", d.Slots.SaveToPath(path)
	}
	slot, err := slotParam(d, params)
	if err != nil {
		return "", err
	}
	return "", d.Slots.Save(slot)
}

func handleLoadState(d *Deps, params map[string]string) (string, error) {
	if path, ok := params["path"]; ok {
		return "", d.Slots.LoadFromPath(path)
	}
	slot, err := slotParam(d, params)
	if err != nil {
		return "", err
	}
	return "", d.Slots.Load(slot)
}

func slotParam(d *Deps, params map[string]string) (int, error) {
	if raw, ok := params["slot"]; ok {
		v, err := parseUint(raw)
		if err != nil {
			return 0, badRequest("bad-request: slot: %v", err)
		}
		return int(v), nil
	}
	return d.Slots.CurrentSlot(), nil
}

func handleLoadScript(d *Deps, params map[string]string) (string, error) {
	path, ok := params["path"]
	if !ok {
		return "", badRequest("bad-request: missing path")
	}
	unlock := d.Core.Lock()
	defer unlock()
	return "", d.Core.LoadScript(path)
}

func handleScreenshot(d *Deps, params map[string]string) (string, error) {
	unlock := d.Core.Lock()
	defer unlock()

	var buf bytes.Buffer
	if err := d.Core.TakeScreenshot(&buf); err != nil {
		return "", err
	}

	path, ok := params["path"]
	if !ok {
		f, err := os.CreateTemp("", "screenshot-*.png")
		if err != nil {
			return "", ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
		}
		path = f.Name()
		defer f.Close()
		if _, err := f.Write(buf.Bytes()); err != nil {
			return "", ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
		}
	} else if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
	}

	return newObject().add("path", jstr(path)).String(), nil
}

func handleCPU(d *Deps, params map[string]string) (string, error) {
	unlock := d.Core.Lock()
	defer unlock()
	state, err := d.Core.CPUState(cpuType(params))
	if err != nil {
		return "", err
	}
	obj := newObject()
	for k, v := range state {
		obj.add(k, jstr(v))
	}
	return obj.String(), nil
}

func handleStateInspect(d *Deps, params map[string]string) (string, error) {
	target, ok := params["target"]
	if !ok {
		return "", badRequest("bad-request: missing target")
	}
	unlock := d.Core.Lock()
	defer unlock()
	fields, err := d.Core.Inspect(target)
	if err != nil {
		return "", err
	}
	obj := newObject()
	for k, v := range fields {
		obj.add(k, jstr(v))
	}
	return obj.String(), nil
}

func handleInput(d *Deps, params map[string]string) (string, error) {
	port, err := intParam(params, "port", 0)
	if err != nil {
		return "", err
	}
	buttons, err := requireUint(params, "buttons")
	if err != nil {
		return "", err
	}
	frames, err := intParam(params, "frames", 1)
	if err != nil {
		return "", err
	}
	unlock := d.Core.Lock()
	defer unlock()
	return "", d.Core.SetInput(port, buttons, frames)
}

func handleDisasm(d *Deps, params map[string]string) (string, error) {
	addr, err := requireUint(params, "addr")
	if err != nil {
		return "", err
	}
	count, err := intParam(params, "count", 1)
	if err != nil {
		return "", err
	}

	unlock := d.Core.Lock()
	defer unlock()
	lines, err := d.Core.Disassemble(cpuType(params), addr, count)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteByte('[')
	for i, ln := range lines {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(newObject().
			add("address", jint(int64(ln.Address))).
			add("bytes", jhex(ln.Bytes)).
			add("mnemonic", jstr(ln.Mnemonic)).
			add("operand", jstr(ln.Operand)).
			String())
	}
	b.WriteByte(']')
	return b.String(), nil
}

func handleStep(d *Deps, params map[string]string) (string, error) {
	count, err := intParam(params, "count", 1)
	if err != nil {
		return "", err
	}
	kind, err := stepKindParam(params)
	if err != nil {
		return "", err
	}

	unlock := d.Core.Lock()
	defer unlock()
	return "", d.Core.Step(cpuType(params), kind, count)
}

func stepKindParam(params map[string]string) (core.StepKind, error) {
	switch strings.ToLower(params["kind"]) {
	case "", "into":
		return core.StepInto, nil
	case "over":
		return core.StepOver, nil
	case "out":
		return core.StepOut, nil
	default:
		return 0, badRequest("bad-request: unknown step kind %q", params["kind"])
	}
}

func handleFrame(d *Deps, params map[string]string) (string, error) {
	count, err := intParam(params, "count", 1)
	if err != nil {
		return "", err
	}

	unlock := d.Core.Lock()
	defer unlock()
	return "", d.Core.AdvanceFrames(count)
}

func handleROMInfo(d *Deps, params map[string]string) (string, error) {
	unlock := d.Core.Lock()
	defer unlock()
	info := d.Core.ROMInfo()
	return newObject().
		add("path", jstr(info.Path)).
		add("size", jint(info.Size)).
		add("hash", jstr(info.Hash)).
		add("mapper", jstr(info.Mapper)).
		String(), nil
}

func handleRewind(d *Deps, params map[string]string) (string, error) {
	action, ok := params["action"]
	if !ok {
		return "", badRequest("bad-request: missing action")
	}
	frames, err := intParam(params, "frames", 0)
	if err != nil {
		return "", err
	}
	unlock := d.Core.Lock()
	defer unlock()
	return "", d.Core.Rewind(action, frames)
}

func handleCheat(d *Deps, params map[string]string) (string, error) {
	action, ok := params["action"]
	if !ok {
		return "", badRequest("bad-request: missing action")
	}
	id, err := intParam(params, "id", 0)
	if err != nil {
		return "", err
	}
	unlock := d.Core.Lock()
	defer unlock()
	newID, err := d.Core.Cheat(action, params["code"], id)
	if err != nil {
		return "", err
	}
	return newObject().add("id", jint(int64(newID))).String(), nil
}

func handleSpeed(d *Deps, params map[string]string) (string, error) {
	pct, err := intParam(params, "pct", 0)
	if err != nil {
		return "", err
	}
	unlock := d.Core.Lock()
	defer unlock()
	current, err := d.Core.Speed(pct)
	if err != nil {
		return "", err
	}
	return newObject().add("pct", jint(int64(current))).String(), nil
}

func handleSearch(d *Deps, params map[string]string) (string, error) {
	pattern, ok := params["pattern"]
	if !ok {
		return "", badRequest("bad-request: missing pattern")
	}
	unlock := d.Core.Lock()
	defer unlock()
	addrs, err := d.Core.Search(pattern, memType(params))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, a := range addrs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(jint(int64(a)))
	}
	b.WriteByte(']')
	return b.String(), nil
}

func handleSnapshot(d *Deps, params map[string]string) (string, error) {
	action, ok := params["action"]
	if !ok {
		return "", badRequest("bad-request: missing action")
	}
	name := params["name"]

	switch action {
	case "capture":
		addr, err := requireUint(params, "addr")
		if err != nil {
			return "", err
		}
		length, err := requireUint(params, "length")
		if err != nil {
			return "", err
		}
		mt := memType(params)

		unlock := d.Core.Lock()
		if err := checkRange(d.Core, mt, addr, length); err != nil {
			unlock()
			return "", err
		}
		data := make([]byte, length)
		for i := range data {
			v, err := d.Core.Peek(mt, addr+uint32(i))
			if err != nil {
				unlock()
				return "", err
			}
			data[i] = v
		}
		unlock()

		d.Snapshots.Capture(name, mt, addr, data, time.Now().UnixMilli())
		return "", nil

	case "list":
		names := d.Snapshots.List()
		var b strings.Builder
		b.WriteByte('[')
		for i, n := range names {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(jstr(n))
		}
		b.WriteByte(']')
		return b.String(), nil

	case "drop":
		d.Snapshots.Drop(name)
		return "", nil

	default:
		return "", badRequest("bad-request: unknown snapshot action %q", action)
	}
}

func handleDiff(d *Deps, params map[string]string) (string, error) {
	a, ok := params["a"]
	if !ok {
		return "", badRequest("bad-request: missing a")
	}
	b, ok := params["b"]
	if !ok {
		return "", badRequest("bad-request: missing b")
	}

	diffs, err := d.Snapshots.DiffSnapshots(a, b)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	out.WriteByte('[')
	for i, df := range diffs {
		if i > 0 {
			out.WriteByte(',')
		}
		out.WriteString(newObject().
			add("offset", jint(int64(df.Offset))).
			add("a", jhex([]byte{df.A})).
			add("b", jhex([]byte{df.B})).
			String())
	}
	out.WriteByte(']')
	return out.String(), nil
}

func handleLabels(d *Deps, params map[string]string) (string, error) {
	action, ok := params["action"]
	if !ok {
		return "", badRequest("bad-request: missing action")
	}

	switch action {
	case "add", "set":
		addr, err := requireUint(params, "addr")
		if err != nil {
			return "", err
		}
		d.Symbols.Set(addr, params["name"], params["comment"])
		return "", nil

	case "remove":
		addr, err := requireUint(params, "addr")
		if err != nil {
			return "", err
		}
		d.Symbols.Remove(addr)
		return "", nil

	case "list":
		list := d.Symbols.List()
		var b strings.Builder
		b.WriteByte('[')
		for i, s := range list {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(newObject().
				add("name", jstr(s.Name)).
				add("address", jint(int64(s.Address))).
				add("comment", jstr(s.Comment)).
				String())
		}
		b.WriteByte(']')
		return b.String(), nil

	case "export":
		path, ok := params["path"]
		if !ok {
			return "", badRequest("bad-request: missing path")
		}
		f, err := os.Create(path)
		if err != nil {
			return "", ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
		}
		defer f.Close()
		return "", d.Symbols.Export(f)

	case "import":
		path, ok := params["path"]
		if !ok {
			return "", badRequest("bad-request: missing path")
		}
		f, err := os.Open(path)
		if err != nil {
			return "", ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
		}
		defer f.Close()
		return "", d.Symbols.Import(f)

	default:
		return "", badRequest("bad-request: unknown labels action %q", action)
	}
}

func handleBreakpoint(d *Deps, params map[string]string) (string, error) {
	action, ok := params["action"]
	if !ok {
		return "", badRequest("bad-request: missing action")
	}

	switch action {
	case "add":
		b, err := breakerFromParams(params)
		if err != nil {
			return "", err
		}
		added, err := d.Breakpoints.Add(*b)
		if err != nil {
			return "", err
		}
		return newObject().add("id", jint(int64(added.ID))).String(), nil

	case "remove":
		id, err := requireUint(params, "id")
		if err != nil {
			return "", err
		}
		d.Breakpoints.Remove(id)
		return "", nil

	case "enable", "disable":
		id, err := requireUint(params, "id")
		if err != nil {
			return "", err
		}
		if !d.Breakpoints.SetEnabled(id, action == "enable") {
			return "", badRequest("bad-request: unknown breakpoint %d", id)
		}
		return "", nil

	case "list":
		list := d.Breakpoints.List()
		var b strings.Builder
		b.WriteByte('[')
		for i, bp := range list {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(newObject().
				add("id", jint(int64(bp.ID))).
				add("startAddr", jint(int64(bp.StartAddr))).
				add("endAddr", jint(int64(bp.EndAddr))).
				add("enabled", jbool(bp.Enabled)).
				String())
		}
		b.WriteByte(']')
		return b.String(), nil

	default:
		return "", badRequest("bad-request: unknown breakpoint action %q", action)
	}
}

func breakerFromParams(params map[string]string) (*breakpoints.Breaker, error) {
	start, err := requireUint(params, "startAddr")
	if err != nil {
		return nil, err
	}
	end, ok, err := parseUintParam(params, "endAddr")
	if err != nil {
		return nil, err
	}
	if !ok {
		end = start
	}

	var flags breakpoints.TypeFlag
	for _, f := range strings.Split(params["typeFlags"], ",") {
		switch strings.TrimSpace(strings.ToLower(f)) {
		case "execute":
			flags |= breakpoints.Execute
		case "read":
			flags |= breakpoints.Read
		case "write":
			flags |= breakpoints.Write
		}
	}
	if flags == 0 {
		flags = breakpoints.Execute
	}

	if len(params["condition"]) > 1000 {
		return nil, badRequest("bad-request: condition exceeds 1000 bytes")
	}

	return &breakpoints.Breaker{
		CPUType:     cpuType(params),
		MemoryType:  memType(params),
		TypeFlags:   flags,
		StartAddr:   start,
		EndAddr:     end,
		MarkEvent:   params["markEvent"] == "true",
		IgnoreDummy: params["ignoreDummy"] == "true",
		Condition:   params["condition"],
	}, nil
}
