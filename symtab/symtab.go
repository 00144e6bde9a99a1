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

// Package symtab implements the LABELS command's symbol table: a
// named-address map distinct from save-state slot labels (see slotstore),
// exportable/importable as YAML so a symbol file can be hand-edited or
// shared between sessions.
package symtab

import (
	"io"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/oos-tools/emuctl/ctlerrors"
)

// Symbol names a single address, with an optional free-text comment.
type Symbol struct {
	Name    string `yaml:"name"`
	Address uint32 `yaml:"address"`
	Comment string `yaml:"comment,omitempty"`
}

// Table is the process-wide symbol table, addressed by address.
type Table struct {
	mu      sync.Mutex
	symbols map[uint32]Symbol
}

// NewTable returns an empty symbol table.
func NewTable() *Table {
	return &Table{symbols: make(map[uint32]Symbol)}
}

// Set adds or replaces the symbol at addr.
func (t *Table) Set(addr uint32, name, comment string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.symbols[addr] = Symbol{Name: name, Address: addr, Comment: comment}
}

// Get returns the symbol at addr, if one is defined.
func (t *Table) Get(addr uint32) (Symbol, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.symbols[addr]
	return s, ok
}

// Remove deletes the symbol at addr. It is not an error to remove an
// address that has no symbol.
func (t *Table) Remove(addr uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.symbols, addr)
}

// List returns every symbol, sorted by address.
func (t *Table) List() []Symbol {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Symbol, 0, len(t.symbols))
	for _, s := range t.symbols {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// symbolFile is the top-level shape of an exported/imported YAML document.
type symbolFile struct {
	Symbols []Symbol `yaml:"symbols"`
}

// Export writes every symbol to w as YAML, sorted by address.
func (t *Table) Export(w io.Writer) error {
	doc := symbolFile{Symbols: t.List()}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(doc); err != nil {
		return ctlerrors.Newf(ctlerrors.KindIO, "io: %v", err)
	}
	return nil
}

// Import replaces the table's contents with the symbols decoded from r.
// On a malformed document the table is left untouched.
func (t *Table) Import(r io.Reader) error {
	var doc symbolFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return ctlerrors.Newf(ctlerrors.KindCodec, "codec: %v", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.symbols = make(map[uint32]Symbol, len(doc.Symbols))
	for _, s := range doc.Symbols {
		t.symbols[s.Address] = s
	}
	return nil
}
