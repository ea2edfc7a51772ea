package ko

import "github.com/kerbalko/ksmld/internal/codec"

// Symbol is one KO symbol record: (name-index,
// value-index, size, binding, type, section-header-index).
type Symbol struct {
	NameIdx    uint32
	ValueIdx   uint32
	Size       uint16
	Binding    Binding
	Type       SymType
	SectionIdx uint16

	Name string // resolved through .symstrtab during Phase 3
}

func (s Symbol) IsExtern() bool { return s.Binding == Extern }

const symbolRecordSize = 4 + 4 + 2 + 1 + 1 + 2 // 14 bytes

// DecodeSymbolTable decodes fixed-width symbol records.
func DecodeSymbolTable(body []byte) ([]Symbol, error) {
	if len(body)%symbolRecordSize != 0 {
		return nil, ErrSectionSize
	}
	r := codec.NewReader(body)
	n := len(body) / symbolRecordSize
	out := make([]Symbol, 0, n)
	for i := 0; i < n; i++ {
		var s Symbol
		var err error
		if s.NameIdx, err = r.U32(); err != nil {
			return nil, err
		}
		if s.ValueIdx, err = r.U32(); err != nil {
			return nil, err
		}
		if s.Size, err = r.U16(); err != nil {
			return nil, err
		}
		b, err := r.U8()
		if err != nil {
			return nil, err
		}
		if Binding(b) > Extern {
			return nil, ErrUnknownBinding
		}
		s.Binding = Binding(b)

		t, err := r.U8()
		if err != nil {
			return nil, err
		}
		if SymType(t) > File {
			return nil, ErrUnknownSymType
		}
		s.Type = SymType(t)

		if s.SectionIdx, err = r.U16(); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
