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

//go:build unix

package rpcserver

import (
	"golang.org/x/sys/unix"

	"github.com/oos-tools/emuctl/logger"
)

// tightenPermissions restricts the socket file to the owner only. The
// listen(2)/bind(2) path creates the file with the process umask applied,
// which on a permissive umask can leave it group- or world-accessible;
// other local users on the same host must not be able to drive the
// console through this socket.
func tightenPermissions(path string) {
	if err := unix.Chmod(path, 0o600); err != nil {
		logger.Logf("rpcserver", "chmod endpoint: %v", err)
	}
}
