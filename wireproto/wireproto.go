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

// Package wireproto implements the ControlRPC wire grammar: a flat,
// single-line JSON-ish request object, and the response object handlers
// answer with. Both are hand-rolled rather than routed through
// encoding/json, since the request grammar deliberately accepts bare
// numeric/boolean/null tokens as strings and the response must omit "data"
// entirely rather than emit it as null.
package wireproto

import (
	"strings"
	"unicode/utf8"

	"github.com/oos-tools/emuctl/ctlerrors"
)

// Request is one parsed command: an uppercased type and whatever other
// key/value pairs survived the parser. Unknown keys are preserved; handlers
// decide what to do with them.
type Request struct {
	Type   string
	Params map[string]string
}

// ParseRequest parses one line of the request grammar described in
// spec.md §6.2: a flat object of string-valued fields, where unquoted
// tokens (numbers, booleans, null) are accepted and passed through as their
// literal text.
func ParseRequest(line string) (*Request, error) {
	p := &parser{s: line}

	p.skipSpace()
	if !p.consume('{') {
		return nil, malformed()
	}

	params := make(map[string]string)

	p.skipSpace()
	if p.consume('}') {
		return finish(params)
	}

	for {
		p.skipSpace()
		key, err := p.parseQuoted()
		if err != nil {
			return nil, err
		}

		p.skipSpace()
		if !p.consume(':') {
			return nil, malformed()
		}
		p.skipSpace()

		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}

		params[key] = value

		p.skipSpace()
		if p.consume(',') {
			continue
		}
		if p.consume('}') {
			break
		}
		return nil, malformed()
	}

	return finish(params)
}

func finish(params map[string]string) (*Request, error) {
	var typ string
	for k, v := range params {
		if strings.EqualFold(k, "type") {
			typ = v
			delete(params, k)
			break
		}
	}
	if typ == "" {
		return nil, ctlerrors.Newf(ctlerrors.KindBadRequest, "bad-request: missing type")
	}
	return &Request{Type: strings.ToUpper(typ), Params: params}, nil
}

func malformed() error {
	return ctlerrors.Newf(ctlerrors.KindBadRequest, "bad-request: malformed JSON")
}

type parser struct {
	s string
	i int
}

func (p *parser) skipSpace() {
	for p.i < len(p.s) {
		switch p.s[p.i] {
		case ' ', '\t', '\r', '\n':
			p.i++
		default:
			return
		}
	}
}

func (p *parser) consume(c byte) bool {
	if p.i < len(p.s) && p.s[p.i] == c {
		p.i++
		return true
	}
	return false
}

// parseValue reads either a quoted string or a bare token running up to the
// next ',' or '}'.
func (p *parser) parseValue() (string, error) {
	if p.i < len(p.s) && p.s[p.i] == '"' {
		return p.parseQuoted()
	}
	start := p.i
	for p.i < len(p.s) && p.s[p.i] != ',' && p.s[p.i] != '}' {
		p.i++
	}
	if p.i == start {
		return "", malformed()
	}
	return strings.TrimSpace(p.s[start:p.i]), nil
}

func (p *parser) parseQuoted() (string, error) {
	if !p.consume('"') {
		return "", malformed()
	}

	var b strings.Builder
	for {
		if p.i >= len(p.s) {
			return "", malformed()
		}
		c := p.s[p.i]
		if c == '"' {
			p.i++
			return b.String(), nil
		}
		if c != '\\' {
			b.WriteByte(c)
			p.i++
			continue
		}

		p.i++
		if p.i >= len(p.s) {
			return "", malformed()
		}
		esc := p.s[p.i]
		p.i++
		switch esc {
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		case '/':
			b.WriteByte('/')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'u':
			r, err := p.parseUnicodeEscape()
			if err != nil {
				return "", err
			}
			b.WriteRune(r)
		default:
			return "", malformed()
		}
	}
}

// parseUnicodeEscape reads a \uXXXX escape, combining it with a following
// \uXXXX low surrogate into a single rune when the first is a high
// surrogate.
func (p *parser) parseUnicodeEscape() (rune, error) {
	hi, err := p.parseHex4()
	if err != nil {
		return 0, err
	}

	if hi < 0xD800 || hi > 0xDBFF {
		return rune(hi), nil
	}

	// high surrogate: a low surrogate must follow immediately as another
	// \u escape.
	if p.i+1 >= len(p.s) || p.s[p.i] != '\\' || p.s[p.i+1] != 'u' {
		return utf8.RuneError, nil
	}
	p.i += 2
	lo, err := p.parseHex4()
	if err != nil {
		return 0, err
	}
	if lo < 0xDC00 || lo > 0xDFFF {
		return utf8.RuneError, nil
	}

	r := ((rune(hi) - 0xD800) << 10) | (rune(lo) - 0xDC00)
	return r + 0x10000, nil
}

func (p *parser) parseHex4() (uint32, error) {
	if p.i+4 > len(p.s) {
		return 0, malformed()
	}
	var v uint32
	for k := 0; k < 4; k++ {
		c := p.s[p.i+k]
		v <<= 4
		switch {
		case c >= '0' && c <= '9':
			v |= uint32(c - '0')
		case c >= 'a' && c <= 'f':
			v |= uint32(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v |= uint32(c-'A') + 10
		default:
			return 0, malformed()
		}
	}
	p.i += 4
	return v, nil
}

// EscapeString renders s as the body of a JSON string literal (without the
// surrounding quotes), for use in response fields.
func EscapeString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 {
				b.WriteString(hexEscape(r))
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

func hexEscape(r rune) string {
	const hexDigits = "0123456789abcdef"
	buf := [6]byte{'\\', 'u', '0', '0', '0', '0'}
	buf[2] = hexDigits[(r>>12)&0xf]
	buf[3] = hexDigits[(r>>8)&0xf]
	buf[4] = hexDigits[(r>>4)&0xf]
	buf[5] = hexDigits[r&0xf]
	return string(buf[:])
}

// Response is the shape every handler result is rendered into:
// {"success":true,"data":<raw-json>} or {"success":false,"error":"<msg>"},
// never both fields, and "data" is absent (not null) when Data is empty.
type Response struct {
	Success bool
	Data    string // raw JSON, caller's responsibility to produce valid JSON
	Error   string
}

// Marshal renders r as a single line, newline-terminated.
func (r Response) Marshal() []byte {
	var b strings.Builder
	b.WriteByte('{')
	b.WriteString(`"success":`)
	if r.Success {
		b.WriteString("true")
	} else {
		b.WriteString("false")
	}
	if r.Success && r.Data != "" {
		b.WriteString(`,"data":`)
		b.WriteString(r.Data)
	}
	if !r.Success && r.Error != "" {
		b.WriteString(`,"error":"`)
		b.WriteString(EscapeString(r.Error))
		b.WriteByte('"')
	}
	b.WriteByte('}')
	b.WriteByte('\n')
	return []byte(b.String())
}
