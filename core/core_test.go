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

package core_test

import (
	"testing"

	"github.com/oos-tools/emuctl/core"
	"github.com/oos-tools/emuctl/internal/assertx"
)

func TestROMInfoName(t *testing.T) {
	r := core.ROMInfo{Path: "/home/user/roms/Super Game.sfc"}
	assertx.ExpectEquality(t, r.Name(), "Super Game")

	r = core.ROMInfo{Path: "game.nes"}
	assertx.ExpectEquality(t, r.Name(), "game")

	r = core.ROMInfo{Path: ""}
	assertx.ExpectEquality(t, r.Name(), "")
}

func TestConsoleTypeString(t *testing.T) {
	assertx.ExpectEquality(t, core.ConsoleSNES.String(), "SNES")
	assertx.ExpectEquality(t, core.ConsoleType(200).String(), "Unknown")
}

func TestStateString(t *testing.T) {
	assertx.ExpectEquality(t, core.Paused.String(), "paused")
	assertx.ExpectEquality(t, core.State(99).String(), "unknown")
}
