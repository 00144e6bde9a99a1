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

// Package byteio implements the handful of primitive wire operations the
// save-state codec is built from: little-endian 32-bit integers,
// length-prefixed UTF-8 strings, and DEFLATE compress/inflate helpers.
package byteio

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"io"

	"github.com/oos-tools/emuctl/ctlerrors"
)

// WriteU32 writes v to w as 4 little-endian bytes.
func WriteU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadU32 reads 4 little-endian bytes from r.
func ReadU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// WriteString writes a u32 byte count followed by the string's raw UTF-8
// bytes.
func WriteString(w io.Writer, s string) error {
	if err := WriteU32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// maxStringLen guards against a corrupt or hostile length prefix forcing an
// enormous allocation.
const maxStringLen = 1 << 24 // 16 MiB

// ReadString reads a u32 byte count followed by that many UTF-8 bytes.
func ReadString(r io.Reader) (string, error) {
	n, err := ReadU32(r)
	if err != nil {
		return "", err
	}
	if n > maxStringLen {
		return "", ctlerrors.Newf(ctlerrors.KindCodec, "byteio: string length %d exceeds maximum", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// Deflate compresses data at the default compression level, matching the
// MZ_DEFAULT_LEVEL used by the original save-state writer.
func Deflate(data []byte) ([]byte, error) {
	var out bytes.Buffer
	fw, err := flate.NewWriter(&out, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Inflate decompresses a DEFLATE stream, failing if the result isn't
// exactly wantSize bytes.
func Inflate(data []byte, wantSize uint32) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(data))
	defer fr.Close()

	out := make([]byte, wantSize)
	n, err := io.ReadFull(fr, out)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, ctlerrors.Newf(ctlerrors.KindCodec, "byteio: inflate failed: %v", err)
	}
	if uint32(n) != wantSize {
		return nil, ctlerrors.Newf(ctlerrors.KindCodec, "byteio: inflate produced %d bytes, wanted %d", n, wantSize)
	}

	// confirm there's no trailing data left unconsumed beyond what the
	// caller asked for; a single extra byte would mean wantSize was wrong.
	var extra [1]byte
	if n, err := fr.Read(extra[:]); n > 0 || err != io.EOF {
		return nil, ctlerrors.Newf(ctlerrors.KindCodec, "byteio: inflate produced more than %d bytes", wantSize)
	}

	return out, nil
}
