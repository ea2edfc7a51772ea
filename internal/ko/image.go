package ko

import (
	"bytes"

	werrors "tlog.app/go/errors"

	"github.com/kerbalko/ksmld/internal/codec"
	"github.com/kerbalko/ksmld/internal/value"
)

const sectionHeaderSize = 4 + 1 + 4 // 9 bytes
const headerPrefixSize = 4 + 1 + 2 + 2 // 9 bytes

// Image is the parsed form of one KO input file. It is
// immutable once Parse returns.
type Image struct {
	Header
	Headers []SectionHeader

	// Parsed bodies, indexed by section-header index. At most one of
	// these maps holds an entry for a given index, selected by the
	// header's Kind; a Null header has no entry in any of them.
	StringTables map[int]StringTable
	Symbols      map[int][]Symbol
	Data         map[int][]value.Value
	Functions    map[int][]Instruction
	Relocations  map[int][]Relocation // keyed by the .reld section's own header index
	Debug        map[int][]DebugRange

	// RelocationsByFunc re-indexes every Relocation record by the
	// Function section it targets (Relocation.SectionIdx), merging
	// records from every relocation section in the image. Consumers
	// that walk "the relocations for this function" (reachability,
	// relocate.go) want this view; Relocations itself stays keyed by
	// header index since that's how section bodies decode.
	RelocationsByFunc map[int][]Relocation

	ShStrTab   StringTable
	SymTabIdx  int // -1 if absent
	SymStrTabIdx int
	Syms       []Symbol
}

// null-header invariant: header 0 is always { "", Null, 0 }.
func (img *Image) nullHeaderOK() bool {
	if len(img.Headers) == 0 {
		return false
	}
	h := img.Headers[0]
	return h.Name == "" && h.Kind == KindNull && h.Size == 0
}

// Parse decodes one KO byte sequence into an Image in three phases:
// the fixed prefix and flat section-header array, then each section
// body in file order, then name resolution through .shstrtab.
func Parse(content []byte) (*Image, error) {
	if len(content) < headerPrefixSize {
		return nil, werrors.Wrap(ErrTruncated, "file shorter than header")
	}
	if !bytes.Equal(content[:4], Magic[:]) {
		return nil, ErrBadMagic
	}

	r := codec.NewReader(content[4:])
	hdr, err := DecodeHeader(r)
	if err != nil {
		return nil, err
	}

	img := &Image{
		Header:            hdr,
		StringTables:      map[int]StringTable{},
		Symbols:           map[int][]Symbol{},
		Data:              map[int][]value.Value{},
		Functions:         map[int][]Instruction{},
		Relocations:       map[int][]Relocation{},
		RelocationsByFunc: map[int][]Relocation{},
		Debug:             map[int][]DebugRange{},
		SymTabIdx:         -1,
		SymStrTabIdx:      -1,
	}

	// Phase 1: fixed prefix (already consumed) + flat section-header
	// array.
	for i := 0; i < int(hdr.NumSectionHeaders); i++ {
		nameIdx, err := r.U32()
		if err != nil {
			return nil, werrors.Wrap(ErrTruncated, "section header %d: name idx", i)
		}
		kindByte, err := r.U8()
		if err != nil {
			return nil, werrors.Wrap(ErrTruncated, "section header %d: kind", i)
		}
		if kindByte > uint8(KindRelocation) {
			return nil, werrors.Wrap(ErrUnknownSectionKind, "section header %d: kind %d", i, kindByte)
		}
		size, err := r.U32()
		if err != nil {
			return nil, werrors.Wrap(ErrTruncated, "section header %d: size", i)
		}
		img.Headers = append(img.Headers, SectionHeader{
			NameIdx: nameIdx,
			Kind:    SectionKind(kindByte),
			Size:    size,
		})
	}

	// Phase 2: each body occupies exactly Size bytes, in header order.
	for i, h := range img.Headers {
		body, err := r.Bytes(int(h.Size))
		if err != nil {
			return nil, werrors.Wrap(ErrSectionSize, "section %d body: %v", i, err)
		}
		switch h.Kind {
		case KindNull:
			if h.Size != 0 {
				return nil, werrors.Wrap(ErrSectionSize, "null section %d has nonzero size", i)
			}
		case KindStringTable:
			st, err := DecodeStringTable(body)
			if err != nil {
				return nil, werrors.Wrap(err, "section %d string table", i)
			}
			img.StringTables[i] = st
		case KindSymbolTable:
			syms, err := DecodeSymbolTable(body)
			if err != nil {
				return nil, werrors.Wrap(err, "section %d symbol table", i)
			}
			img.Symbols[i] = syms
		case KindData:
			vals, err := DecodeDataSection(body)
			if err != nil {
				return nil, werrors.Wrap(err, "section %d data", i)
			}
			img.Data[i] = vals
		case KindFunction:
			instrs, err := DecodeFunctionSection(body)
			if err != nil {
				return nil, werrors.Wrap(err, "section %d function", i)
			}
			img.Functions[i] = instrs
		case KindRelocation:
			relocs, err := DecodeRelocationSection(body)
			if err != nil {
				return nil, werrors.Wrap(err, "section %d relocation", i)
			}
			img.Relocations[i] = relocs
		case KindDebug:
			dbg, err := DecodeDebugSection(body)
			if err != nil {
				return nil, werrors.Wrap(err, "section %d debug", i)
			}
			img.Debug[i] = dbg
		default:
			return nil, werrors.Wrap(ErrUnknownSectionKind, "section %d", i)
		}
	}

	if !img.nullHeaderOK() {
		return nil, werrors.New("section header 0 is not the null header")
	}

	// Phase 3: name resolution.
	if int(hdr.ShStrTabIndex) >= len(img.Headers) {
		return nil, werrors.Wrap(ErrTruncated, "shstrtab index %d out of range", hdr.ShStrTabIndex)
	}
	img.ShStrTab = img.StringTables[int(hdr.ShStrTabIndex)]
	for i := range img.Headers {
		img.Headers[i].Name = img.ShStrTab.At(img.Headers[i].NameIdx)
		switch img.Headers[i].Name {
		case SectionSymTab:
			img.SymTabIdx = i
		case SectionSymStrTab:
			img.SymStrTabIdx = i
		}
	}

	if img.SymTabIdx >= 0 {
		img.Syms = img.Symbols[img.SymTabIdx]
		var symStrTab StringTable
		if img.SymStrTabIdx >= 0 {
			symStrTab = img.StringTables[img.SymStrTabIdx]
		}
		for i := range img.Syms {
			img.Syms[i].Name = symStrTab.At(img.Syms[i].NameIdx)
		}
	}

	if err := img.validateRelocations(); err != nil {
		return nil, err
	}
	if err := img.validateDebug(); err != nil {
		return nil, err
	}

	for _, relocs := range img.Relocations {
		for _, rel := range relocs {
			target := int(rel.SectionIdx)
			img.RelocationsByFunc[target] = append(img.RelocationsByFunc[target], rel)
		}
	}

	return img, nil
}

// validateRelocations: a relocation must target a Function section and
// an in-range instruction index.
func (img *Image) validateRelocations() error {
	for secIdx, relocs := range img.Relocations {
		for _, rel := range relocs {
			target := int(rel.SectionIdx)
			if target < 0 || target >= len(img.Headers) || img.Headers[target].Kind != KindFunction {
				return werrors.Wrap(ErrBadRelocationTarget, "relocation section %d -> section %d", secIdx, target)
			}
			instrs := img.Functions[target]
			if int(rel.InstrIdx) >= len(instrs) {
				return werrors.Wrap(ErrBadRelocationTarget, "relocation section %d -> instruction %d (of %d)", secIdx, rel.InstrIdx, len(instrs))
			}
		}
	}
	return nil
}

// validateDebug enforces that every debug range names a Function
// section and stays within that section's instruction count. The
// writer indexes its per-instruction offset table by these values
// without re-checking.
func (img *Image) validateDebug() error {
	for secIdx, ranges := range img.Debug {
		for _, dr := range ranges {
			target := int(dr.FunctionSectionIdx)
			if target < 0 || target >= len(img.Headers) || img.Headers[target].Kind != KindFunction {
				return werrors.Wrap(ErrBadDebugRange, "debug section %d -> section %d", secIdx, target)
			}
			instrs := img.Functions[target]
			if dr.StartInstrIdx > dr.EndInstrIdx || int(dr.EndInstrIdx) >= len(instrs) {
				return werrors.Wrap(ErrBadDebugRange, "debug section %d -> instructions [%d, %d] (of %d)",
					secIdx, dr.StartInstrIdx, dr.EndInstrIdx, len(instrs))
			}
		}
	}
	return nil
}

// FunctionSectionIndex returns the header index of the KindFunction
// section with the given name.
func (img *Image) FunctionSectionIndex(name string) (int, bool) {
	for i, h := range img.Headers {
		if h.Kind == KindFunction && h.Name == name {
			return i, true
		}
	}
	return 0, false
}
