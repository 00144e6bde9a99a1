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

package logger_test

import (
	"strings"
	"testing"

	"github.com/oos-tools/emuctl/internal/assertx"
	"github.com/oos-tools/emuctl/logger"
)

// TestLogger exercises the package-level convenience functions, which
// forward to a default central logger.
func TestLogger(t *testing.T) {
	logger.Clear()
	w := &strings.Builder{}

	logger.Write(w)
	assertx.ExpectEquality(t, w.String(), "")

	logger.Log("test", "this is a test")
	logger.Write(w)
	assertx.ExpectEquality(t, w.String(), "test: this is a test\n")

	w.Reset()

	logger.Log("test2", "this is another test")
	logger.Write(w)
	assertx.ExpectEquality(t, w.String(), "test: this is a test\ntest2: this is another test\n")

	w.Reset()
	logger.Tail(w, 100)
	assertx.ExpectEquality(t, w.String(), "test: this is a test\ntest2: this is another test\n")

	w.Reset()
	logger.Tail(w, 2)
	assertx.ExpectEquality(t, w.String(), "test: this is a test\ntest2: this is another test\n")

	w.Reset()
	logger.Tail(w, 1)
	assertx.ExpectEquality(t, w.String(), "test2: this is another test\n")

	w.Reset()
	logger.Tail(w, 0)
	assertx.ExpectEquality(t, w.String(), "")

	logger.Clear()
}
