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

// Package messages defines the catalogue of localized, user-visible message
// keys that savestate and slotstore surface on success and
// failure. Rendering a key into display text for an end user is the host's
// message manager's job, out of scope here; this package only names the
// keys and logs them, so no component needs to know how that rendering
// happens.
package messages

import "github.com/oos-tools/emuctl/logger"

// Key is one message catalogue entry.
type Key string

const (
	SaveStateSaved               Key = "SaveStateSaved"
	SaveStateLoaded              Key = "SaveStateLoaded"
	SaveStateNewerVersion        Key = "SaveStateNewerVersion"
	SaveStateIncompatibleVersion Key = "SaveStateIncompatibleVersion"
	SaveStateInvalidFile         Key = "SaveStateInvalidFile"
	SaveStateEmpty               Key = "SaveStateEmpty"
	NetplayNotAllowed            Key = "NetplayNotAllowed"
	SaveStateSlotSelected        Key = "SaveStateSlotSelected"
	SaveStateSavedFile           Key = "SaveStateSavedFile"
	SaveStateLoadedFile          Key = "SaveStateLoadedFile"
	CouldNotLoadFile             Key = "CouldNotLoadFile"
)

// Display logs key and its arguments through the central logger. The
// host's message manager is responsible for actually rendering a key into
// user-facing text; this is the one point every component funnels through
// on the way there.
func Display(key Key, args ...string) {
	if len(args) == 0 {
		logger.Log("message", string(key))
		return
	}
	detail := string(key)
	for _, a := range args {
		detail += ": " + a
	}
	logger.Log("message", detail)
}
