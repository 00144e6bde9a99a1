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

// Package recentgame bundles a screenshot, a save-state snapshot, and ROM
// metadata into a single ".rgd" zip archive, and reconstitutes a Core from
// one.
package recentgame

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oos-tools/emuctl/core"
	"github.com/oos-tools/emuctl/ctlerrors"
	"github.com/oos-tools/emuctl/savestate"
)

const (
	screenshotEntry = "Screenshot.png"
	savestateEntry  = "Savestate.mss"
	romInfoEntry    = "RomInfo.txt"
)

// Bundler saves and loads recent-game archives for a single Core.
type Bundler struct {
	dir  string
	core core.Core
}

// NewBundler creates a Bundler rooted at dir (spec.md's recentGamesDir).
func NewBundler(dir string, c core.Core) *Bundler {
	return &Bundler{dir: dir, core: c}
}

// Path returns the archive path for the Core's currently loaded ROM.
func (b *Bundler) Path() string {
	return filepath.Join(b.dir, fmt.Sprintf("%s.rgd", b.core.ROMInfo().Name()))
}

// Save bundles a screenshot, a save-state snapshot, and ROM metadata into a
// single archive. It is skipped entirely when headless is true (the Core is
// running in headless/CLI mode, where there's no recent-games UI to feed).
func (b *Bundler) Save(headless bool) error {
	if headless {
		return nil
	}

	var screenshot bytes.Buffer
	if err := b.core.TakeScreenshot(&screenshot); err != nil {
		return err
	}

	var state bytes.Buffer
	if err := savestate.Encode(&state, b.core); err != nil {
		return err
	}

	info := b.core.ROMInfo()
	romInfo := info.Name() + "\n" + info.Path + "\n" + info.PatchPath + "\n"

	path := b.Path()
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
	}

	zw := zip.NewWriter(f)
	if err := writeEntry(zw, screenshotEntry, screenshot.Bytes()); err != nil {
		zw.Close()
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := writeEntry(zw, savestateEntry, state.Bytes()); err != nil {
		zw.Close()
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := writeEntry(zw, romInfoEntry, []byte(romInfo)); err != nil {
		zw.Close()
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
	}

	return nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
	}
	_, err = w.Write(data)
	return err
}

// Load opens path, reads RomInfo.txt, and instructs the Core to load that
// ROM and patch. When resume is true, it additionally acquires the Core's
// lock and feeds Savestate.mss to the decoder, restoring exactly where the
// archive was saved rather than a cold reset. Any failure stops the Core.
func (b *Bundler) Load(path string, resume bool) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		b.core.Stop()
		return ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
	}
	defer zr.Close()

	romName, romPath, patchPath, err := readRomInfo(&zr.Reader)
	if err != nil {
		b.core.Stop()
		return err
	}
	_ = romName

	if err := b.core.LoadROM(romPath, patchPath); err != nil {
		b.core.Stop()
		return err
	}

	if !resume {
		return nil
	}

	stateFile, err := openEntry(&zr.Reader, savestateEntry)
	if err != nil {
		b.core.Stop()
		return err
	}
	defer stateFile.Close()

	unlock := b.core.Lock()
	defer unlock()

	if _, err := savestate.Decode(stateFile, b.core); err != nil {
		b.core.Stop()
		return err
	}

	return nil
}

func readRomInfo(zr *zip.Reader) (name, path, patchPath string, err error) {
	f, err := openEntry(zr, romInfoEntry)
	if err != nil {
		return "", "", "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", "", "", ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	for len(lines) < 3 {
		lines = append(lines, "")
	}
	return lines[0], lines[1], lines[2], nil
}

func openEntry(zr *zip.Reader, name string) (io.ReadCloser, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, ctlerrors.Newf(ctlerrors.KindCodec, "invalid-file: missing %s", name)
}
