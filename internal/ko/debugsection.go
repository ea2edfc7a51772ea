package ko

import "github.com/kerbalko/ksmld/internal/codec"

// DebugRange ties a contiguous run of instructions within one function
// section to a source line.
type DebugRange struct {
	FunctionSectionIdx uint32
	Line               int16
	StartInstrIdx      uint32
	EndInstrIdx        uint32 // inclusive
}

// KO debug entries are recorded per function section using instruction
// indices, mirroring the output debug section's per-line-range shape
// but in KO's positional idiom rather than KSM's byte-offset idiom.
//
// Record: u32 function-section-idx, i16 line, u8 range-count,
// range-count x (u32 start-instr-idx, u32 end-instr-idx).
func DecodeDebugSection(body []byte) ([]DebugRange, error) {
	r := codec.NewReader(body)
	var out []DebugRange
	for r.Len() > 0 {
		secIdx, err := r.U32()
		if err != nil {
			return nil, err
		}
		line, err := r.I16()
		if err != nil {
			return nil, err
		}
		count, err := r.U8()
		if err != nil {
			return nil, err
		}
		for i := 0; i < int(count); i++ {
			start, err := r.U32()
			if err != nil {
				return nil, err
			}
			end, err := r.U32()
			if err != nil {
				return nil, err
			}
			out = append(out, DebugRange{
				FunctionSectionIdx: secIdx,
				Line:               line,
				StartInstrIdx:      start,
				EndInstrIdx:        end,
			})
		}
	}
	return out, nil
}

// EncodeDebugSection is the inverse of DecodeDebugSection, grouping
// ranges by (section, line) so repeated lines share one record.
func EncodeDebugSection(ranges []DebugRange) []byte {
	w := codec.NewWriter()
	type key struct {
		Sec  uint32
		Line int16
	}
	order := []key{}
	grouped := map[key][]DebugRange{}
	for _, dr := range ranges {
		k := key{dr.FunctionSectionIdx, dr.Line}
		if _, ok := grouped[k]; !ok {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], dr)
	}
	for _, k := range order {
		rs := grouped[k]
		w.U32(k.Sec)
		w.I16(k.Line)
		w.U8(uint8(len(rs)))
		for _, dr := range rs {
			w.U32(dr.StartInstrIdx)
			w.U32(dr.EndInstrIdx)
		}
	}
	return w.Bytes()
}
