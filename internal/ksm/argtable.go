package ksm

import (
	"github.com/kerbalko/ksmld/internal/codec"
	"github.com/kerbalko/ksmld/internal/value"
)

// ArgTable is the deduplicated argument section builder.
// Values are interned in first-seen order; each gets a byte offset
// counted from the start of the %A section, header-inclusive, matching
// the byte-offset indexing KSM operands use. This is where KO's
// positional indices turn into KSM's byte offsets.
type ArgTable struct {
	order  []value.Value
	offset map[any]int
	size   int // running total, starts at len(header) = 3
}

const argHeaderSize = 1 + 1 + 1 // '%' 'A' W

func NewArgTable() *ArgTable {
	return &ArgTable{offset: map[any]int{}, size: argHeaderSize}
}

// Intern returns the byte offset for v, inserting it if this is the
// first time this value (by Value.Equal semantics) has been seen.
func (t *ArgTable) Intern(v value.Value) int {
	key := v.DedupKey()
	if off, ok := t.offset[key]; ok {
		return off
	}
	off := t.size
	t.offset[key] = off
	t.order = append(t.order, v)
	t.size += v.EncodedLen()
	return off
}

// Size is the total byte length of the %A section, header included.
func (t *ArgTable) Size() int { return t.size }

// Width reports the operand width every KSM operand in this output must
// use to address any offset into this table.
func (t *ArgTable) Width() int { return WidthFor(t.size) }

// Encode writes the %A marker, width byte, and every interned value in
// insertion order.
func (t *ArgTable) Encode(w *codec.Writer) error {
	w.Raw(MarkerArg[:])
	w.U8(uint8(t.Width()))
	for _, v := range t.order {
		if err := v.Encode(w); err != nil {
			return err
		}
	}
	return nil
}
