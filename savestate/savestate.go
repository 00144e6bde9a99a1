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

// Package savestate implements the versioned binary snapshot envelope: magic,
// host/format versions, console tag, an in-band preview frame, the ROM name,
// and the opaque machine blob a core.Core hands back and forth.
package savestate

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/oos-tools/emuctl/byteio"
	"github.com/oos-tools/emuctl/core"
	"github.com/oos-tools/emuctl/ctlerrors"
	"github.com/oos-tools/emuctl/messages"
)

// magic is the 3-byte envelope tag. There is no trailing NUL.
var magic = [3]byte{'M', 'S', 'S'}

const (
	// CurrentFormatVersion is written by Encode.
	CurrentFormatVersion = 4

	// minSupportedFormatVersion is the oldest format Decode will accept.
	minSupportedFormatVersion = 3

	// legacyTailLen is the number of ignored bytes that sit between the
	// version fields and the console tag in format versions 3 and earlier.
	legacyTailLen = 40

	// maxPreviewCompressedSize bounds compressedSize against a corrupt or
	// hostile claim forcing an enormous Inflate.
	maxPreviewCompressedSize = 2 << 20 // 2 MiB

	// minPreviewableEmuVersion is the original's extra floor check on
	// GetPreview (Decode does not apply it): anything at or below this is considered too old
	// to have a meaningful preview block, independent of the newer-version
	// gate.
	minPreviewableEmuVersion = 0x10000
)

// Envelope is the decoded header of a snapshot: everything except the
// opaque machine blob, which is applied directly to the Core.
type Envelope struct {
	EmuVersion    uint32
	FormatVersion uint32
	ConsoleType   core.ConsoleType
	Preview       PreviewFrame
	ROMName       string
}

// PreviewFrame is the preview-quality framebuffer carried in-band so that
// thumbnail enumeration never needs to touch the machine blob.
type PreviewFrame struct {
	BufferSize   uint32
	Width        uint32
	Height       uint32
	ScalePercent uint32
	Pixels       []byte // inflated, len(Pixels) == BufferSize
}

// ToPPUFrame converts a decoded preview into the shape core.Core.UpdateFrame
// expects.
func (p PreviewFrame) ToPPUFrame() core.PPUFrame {
	return core.PPUFrame{
		Buffer: p.Pixels,
		Width:  p.Width,
		Height: p.Height,
		Scale:  float64(p.ScalePercent) / 100,
	}
}

// Encode writes magic, emuVersion, formatVersion (always
// CurrentFormatVersion — legacy tail bytes are only ever read, never
// written), consoleType, the preview frame captured from c.PPUFrame, the ROM
// name, and finally the opaque machine blob via c.Serialize.
func Encode(w io.Writer, c core.Core) error {
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if err := byteio.WriteU32(w, c.Version()); err != nil {
		return err
	}
	if err := byteio.WriteU32(w, CurrentFormatVersion); err != nil {
		return err
	}
	if err := byteio.WriteU32(w, uint32(c.ConsoleType())); err != nil {
		return err
	}

	frame := c.PPUFrame()
	compressed, err := byteio.Deflate(frame.Buffer)
	if err != nil {
		return ctlerrors.Newf(ctlerrors.KindCodec, "savestate: preview compression failed: %v", err)
	}
	if err := byteio.WriteU32(w, uint32(len(frame.Buffer))); err != nil {
		return err
	}
	if err := byteio.WriteU32(w, frame.Width); err != nil {
		return err
	}
	if err := byteio.WriteU32(w, frame.Height); err != nil {
		return err
	}
	if err := byteio.WriteU32(w, uint32(frame.Scale*100)); err != nil {
		return err
	}
	if err := byteio.WriteU32(w, uint32(len(compressed))); err != nil {
		return err
	}
	if _, err := w.Write(compressed); err != nil {
		return err
	}

	if err := byteio.WriteString(w, c.ROMInfo().Name()); err != nil {
		return err
	}

	return c.Serialize(w)
}

// Decode reads a full envelope and hands the trailing machine blob to
// c.Deserialize. The Core must be running and not netplay-connected;
// otherwise Decode fails with KindCoreBusy before consuming a single byte.
//
// On any malformed input Decode returns before c.Deserialize is ever called,
// so the Core's observable state is left untouched.
func Decode(r io.Reader, c core.Core) (*Envelope, error) {
	if c.IsNetplayConnected() {
		messages.Display(messages.NetplayNotAllowed)
		return nil, ctlerrors.Newf(ctlerrors.KindCoreBusy, "core-busy")
	}
	if !c.IsRunning() {
		return nil, ctlerrors.Newf(ctlerrors.KindCoreBusy, "core-busy")
	}

	env, rest, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	if env.EmuVersion > c.Version() {
		messages.Display(messages.SaveStateNewerVersion)
		return nil, ctlerrors.Newf(ctlerrors.KindVersion, "newer-version")
	}

	if env.ConsoleType != c.ConsoleType() {
		messages.Display(messages.SaveStateInvalidFile)
		return nil, ctlerrors.Newf(ctlerrors.KindCodec, "invalid-file")
	}

	if err := c.Deserialize(rest, env.FormatVersion, env.ConsoleType); err != nil {
		return nil, err
	}

	if c.IsPaused() && !c.IsRecording() {
		c.UpdateFrame(env.Preview.ToPPUFrame())
	}

	return env, nil
}

// GetPreview reads just enough of the stream to return the preview frame —
// magic, versions, consoleType, and the preview block — without ever
// touching the simulation. This is the fast path slotstore uses to serve
// thumbnails for all slots without deserializing any machine blobs.
func GetPreview(r io.Reader) (*PreviewFrame, error) {
	env, _, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if env.EmuVersion <= minPreviewableEmuVersion {
		return nil, ctlerrors.Newf(ctlerrors.KindCodec, "invalid-file")
	}
	return &env.Preview, nil
}

// EncodePreviewPNG runs a preview frame's raw pixel buffer through a video
// filter and PNG-encodes the result, the same two steps the original's
// PNGHelper::WritePNG takes before handing a thumbnail back to a caller.
// GetPreview only ever returns the raw, uncompressed frame; this is the step
// slotstore.Manager.GetPreview applies before returning bytes across the
// wire.
func EncodePreviewPNG(p *PreviewFrame) ([]byte, error) {
	img := filterPreviewFrame(p.Width, p.Height, p.Pixels)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, ctlerrors.Newf(ctlerrors.KindCodec, "savestate: preview png encode failed: %v", err)
	}
	return buf.Bytes(), nil
}

// filterPreviewFrame converts a raw preview pixel buffer into an RGBA image.
// The buffer's bytes-per-pixel is inferred from its length against
// width*height, since PPUFrame carries no explicit pixel format: 4 bytes is
// taken as RGBA, 3 as RGB, 2 as RGB565 (the common console framebuffer
// format), and anything else as single-channel grayscale.
func filterPreviewFrame(width, height uint32, pixels []byte) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	n := int(width) * int(height)
	if n == 0 {
		return img
	}
	bpp := len(pixels) / n

	for i := 0; i < n; i++ {
		x, y := i%int(width), i/int(width)
		switch bpp {
		case 4:
			off := i * 4
			img.SetRGBA(x, y, color.RGBA{pixels[off], pixels[off+1], pixels[off+2], pixels[off+3]})
		case 3:
			off := i * 3
			img.SetRGBA(x, y, color.RGBA{pixels[off], pixels[off+1], pixels[off+2], 255})
		case 2:
			off := i * 2
			v := uint16(pixels[off]) | uint16(pixels[off+1])<<8
			r := byte((v>>11&0x1F)<<3)
			g := byte((v>>5&0x3F)<<2)
			b := byte((v&0x1F)<<3)
			img.SetRGBA(x, y, color.RGBA{r, g, b, 255})
		default:
			var v byte
			if i < len(pixels) {
				v = pixels[i]
			}
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

// readHeader reads everything up to (and not including) the opaque machine
// blob, refusing format versions below minSupportedFormatVersion; the
// newer-emulator-version check is left to the caller. The returned io.Reader is r
// itself, positioned at the first byte of the machine blob.
func readHeader(r io.Reader) (*Envelope, io.Reader, error) {
	var got [3]byte
	if _, err := io.ReadFull(r, got[:]); err != nil {
		return nil, nil, ctlerrors.Newf(ctlerrors.KindCodec, "invalid-file")
	}
	if got != magic {
		return nil, nil, ctlerrors.Newf(ctlerrors.KindCodec, "invalid-file")
	}

	emuVersion, err := byteio.ReadU32(r)
	if err != nil {
		return nil, nil, ctlerrors.Newf(ctlerrors.KindCodec, "invalid-file")
	}
	formatVersion, err := byteio.ReadU32(r)
	if err != nil {
		return nil, nil, ctlerrors.Newf(ctlerrors.KindCodec, "invalid-file")
	}

	env := &Envelope{EmuVersion: emuVersion, FormatVersion: formatVersion}

	if formatVersion < minSupportedFormatVersion {
		return nil, nil, ctlerrors.Newf(ctlerrors.KindVersion, "incompatible-version")
	}

	if formatVersion <= 3 {
		var legacy [legacyTailLen]byte
		if _, err := io.ReadFull(r, legacy[:]); err != nil {
			return nil, nil, ctlerrors.Newf(ctlerrors.KindCodec, "invalid-file")
		}
	}

	consoleType, err := byteio.ReadU32(r)
	if err != nil {
		return nil, nil, ctlerrors.Newf(ctlerrors.KindCodec, "invalid-file")
	}
	env.ConsoleType = core.ConsoleType(consoleType)

	preview, err := readPreview(r)
	if err != nil {
		return nil, nil, err
	}
	env.Preview = *preview

	romName, err := byteio.ReadString(r)
	if err != nil {
		return nil, nil, ctlerrors.Newf(ctlerrors.KindCodec, "invalid-file")
	}
	env.ROMName = romName

	return env, r, nil
}

func readPreview(r io.Reader) (*PreviewFrame, error) {
	bufferSize, err := byteio.ReadU32(r)
	if err != nil {
		return nil, ctlerrors.Newf(ctlerrors.KindCodec, "invalid-file")
	}
	width, err := byteio.ReadU32(r)
	if err != nil {
		return nil, ctlerrors.Newf(ctlerrors.KindCodec, "invalid-file")
	}
	height, err := byteio.ReadU32(r)
	if err != nil {
		return nil, ctlerrors.Newf(ctlerrors.KindCodec, "invalid-file")
	}
	scalePercent, err := byteio.ReadU32(r)
	if err != nil {
		return nil, ctlerrors.Newf(ctlerrors.KindCodec, "invalid-file")
	}
	compressedSize, err := byteio.ReadU32(r)
	if err != nil {
		return nil, ctlerrors.Newf(ctlerrors.KindCodec, "invalid-file")
	}
	if compressedSize > maxPreviewCompressedSize {
		return nil, ctlerrors.Newf(ctlerrors.KindCodec, "invalid-file")
	}

	compressed := make([]byte, compressedSize)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, ctlerrors.Newf(ctlerrors.KindCodec, "invalid-file")
	}

	pixels, err := byteio.Inflate(compressed, bufferSize)
	if err != nil {
		return nil, ctlerrors.Newf(ctlerrors.KindCodec, "invalid-file")
	}

	return &PreviewFrame{
		BufferSize:   bufferSize,
		Width:        width,
		Height:       height,
		ScalePercent: scalePercent,
		Pixels:       pixels,
	}, nil
}
