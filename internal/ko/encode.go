package ko

import (
	"github.com/kerbalko/ksmld/internal/codec"
	"github.com/kerbalko/ksmld/internal/value"
)

// This file provides the KO-side encoders that pair with the decoders
// in stringtable.go/symboltable.go/datasection.go/relocation.go. They
// exist to support the parse-then-reserialize round-trip tests and the
// kotest fixture builder; the linker itself only ever writes KSM,
// never KO.

func EncodeStringTable(t StringTable) []byte {
	w := codec.NewWriter()
	for _, s := range t {
		w.CString(s)
	}
	return w.Bytes()
}

func EncodeSymbolTable(syms []Symbol) []byte {
	w := codec.NewWriter()
	for _, s := range syms {
		w.U32(s.NameIdx)
		w.U32(s.ValueIdx)
		w.U16(s.Size)
		w.U8(uint8(s.Binding))
		w.U8(uint8(s.Type))
		w.U16(s.SectionIdx)
	}
	return w.Bytes()
}

func EncodeDataSection(vals []value.Value) ([]byte, error) {
	w := codec.NewWriter()
	for _, v := range vals {
		if err := v.Encode(w); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

func EncodeRelocationSection(relocs []Relocation) []byte {
	w := codec.NewWriter()
	for _, r := range relocs {
		w.U32(r.SectionIdx)
		w.U32(r.InstrIdx)
		w.U8(r.OperandOrd)
		w.U32(r.SymbolIdx)
	}
	return w.Bytes()
}

// Encode re-serializes the image to its KO on-disk byte form. Body
// bytes are recomputed from the decoded in-memory structures rather
// than cached verbatim, so Encode(Parse(x)) == x is a genuine
// round-trip test of both directions, not just an echo of the input
// buffer.
func (img *Image) Encode() ([]byte, error) {
	w := codec.NewWriter()
	w.Raw(Magic[:])
	w.U8(img.Version)
	w.U16(uint16(len(img.Headers)))
	w.U16(img.ShStrTabIndex)

	bodies := make([][]byte, len(img.Headers))
	for i, h := range img.Headers {
		var body []byte
		var err error
		switch h.Kind {
		case KindNull:
			body = nil
		case KindStringTable:
			body = EncodeStringTable(img.StringTables[i])
		case KindSymbolTable:
			body = EncodeSymbolTable(img.Symbols[i])
		case KindData:
			body, err = EncodeDataSection(img.Data[i])
		case KindFunction:
			body = EncodeFunctionSection(img.Functions[i])
		case KindRelocation:
			body = EncodeRelocationSection(img.Relocations[i])
		case KindDebug:
			body = EncodeDebugSection(img.Debug[i])
		}
		if err != nil {
			return nil, err
		}
		bodies[i] = body
	}

	for i, h := range img.Headers {
		w.U32(h.NameIdx)
		w.U8(uint8(h.Kind))
		w.U32(uint32(len(bodies[i])))
	}
	for _, b := range bodies {
		w.Raw(b)
	}
	return w.Bytes(), nil
}
