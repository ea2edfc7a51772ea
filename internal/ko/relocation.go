package ko

import "github.com/kerbalko/ksmld/internal/codec"

// Relocation is one deferred operand rewrite:
// (function-section-index, instruction-index, operand-ordinal ∈ {1,2},
// symbol-index). The referenced operand in the referenced instruction
// was stored as 0.
type Relocation struct {
	SectionIdx  uint32
	InstrIdx    uint32
	OperandOrd  uint8
	SymbolIdx   uint32
}

const relocationRecordSize = 4 + 4 + 1 + 4 // 13 bytes

// DecodeRelocationSection decodes fixed-width relocation records.
// It does not itself validate that SectionIdx names a
// Function section or that InstrIdx is in range — that cross-section
// validation happens once the whole image's section table is known
// (see Image.validateRelocations), since a relocation section body
// decodes independently of its targets' existence.
func DecodeRelocationSection(body []byte) ([]Relocation, error) {
	if len(body)%relocationRecordSize != 0 {
		return nil, ErrSectionSize
	}
	r := codec.NewReader(body)
	n := len(body) / relocationRecordSize
	out := make([]Relocation, 0, n)
	for i := 0; i < n; i++ {
		var rel Relocation
		var err error
		if rel.SectionIdx, err = r.U32(); err != nil {
			return nil, err
		}
		if rel.InstrIdx, err = r.U32(); err != nil {
			return nil, err
		}
		ord, err := r.U8()
		if err != nil {
			return nil, err
		}
		if ord != 1 && ord != 2 {
			return nil, ErrBadOperandOrdinal
		}
		rel.OperandOrd = ord
		if rel.SymbolIdx, err = r.U32(); err != nil {
			return nil, err
		}
		out = append(out, rel)
	}
	return out, nil
}
