// Package kotest builds synthetic KO byte images for tests across the
// ko, link, ksm, and driver packages. It is a test fixture, not a
// production encoder — production KSM output never round-trips through
// KO encoding, only through ko.Parse.
package kotest

import (
	"github.com/kerbalko/ksmld/internal/codec"
	"github.com/kerbalko/ksmld/internal/ko"
	"github.com/kerbalko/ksmld/internal/value"
)

// FuncSpec describes one function section to embed in the image.
type FuncSpec struct {
	Name         string
	Instructions []ko.Instruction
}

// SymSpec describes one symbol table entry.
type SymSpec struct {
	Name       string
	Binding    ko.Binding
	Type       ko.SymType
	ValueIdx   uint32
	Size       uint16
	SectionIdx uint16 // ignored by Build, which derives the index from SectionName
	SectionName string
}

// RelocSpec describes one relocation entry.
type RelocSpec struct {
	FuncName   string
	InstrIdx   uint32
	OperandOrd uint8
	SymbolName string
}

// DebugSpec ties a run of instructions in one function to a source
// line.
type DebugSpec struct {
	FuncName      string
	Line          int16
	StartInstrIdx uint32
	EndInstrIdx   uint32
}

// Builder assembles a KO image from a friendly, name-addressed
// description instead of raw indices.
type Builder struct {
	Data     []value.Value
	Funcs    []FuncSpec
	Syms     []SymSpec
	Relocs   []RelocSpec
	Debugs   []DebugSpec
	Comment  string
	HasComment bool
}

func New() *Builder { return &Builder{} }

func (b *Builder) WithData(vals ...value.Value) *Builder {
	b.Data = append(b.Data, vals...)
	return b
}

func (b *Builder) WithFunc(name string, instrs ...ko.Instruction) *Builder {
	b.Funcs = append(b.Funcs, FuncSpec{Name: name, Instructions: instrs})
	return b
}

func (b *Builder) WithSymbol(s SymSpec) *Builder {
	b.Syms = append(b.Syms, s)
	return b
}

func (b *Builder) WithReloc(r RelocSpec) *Builder {
	b.Relocs = append(b.Relocs, r)
	return b
}

func (b *Builder) WithDebug(d DebugSpec) *Builder {
	b.Debugs = append(b.Debugs, d)
	return b
}

func (b *Builder) WithComment(s string) *Builder {
	b.Comment = s
	b.HasComment = true
	return b
}

// Inst is a small convenience constructor for ko.Instruction.
func Inst(opcode byte, operands ...uint32) ko.Instruction {
	in := ko.Instruction{Opcode: opcode, NumOperands: len(operands)}
	for i, o := range operands {
		in.Operands[i] = o
	}
	return in
}

// Build assembles and serializes the described image to KO bytes.
func (b *Builder) Build() []byte {
	type section struct {
		name string
		kind ko.SectionKind
		body []byte
	}

	var shstrtab []string
	nameIdx := map[string]uint32{"": 0}
	shstrtab = append(shstrtab, "")
	internName := func(n string) uint32 {
		if idx, ok := nameIdx[n]; ok {
			return idx
		}
		idx := uint32(len(shstrtab))
		shstrtab = append(shstrtab, n)
		nameIdx[n] = idx
		return idx
	}

	var sections []section
	addSection := func(name string, kind ko.SectionKind, body []byte) int {
		i := len(sections)
		sections = append(sections, section{name: name, kind: kind, body: body})
		internName(name)
		return i
	}

	// index 0: null section
	addSection("", ko.KindNull, nil)

	dataBody, _ := ko.EncodeDataSection(b.Data)
	dataIdx := addSection(ko.SectionData, ko.KindData, dataBody)

	funcIdx := map[string]int{}
	for _, f := range b.Funcs {
		body := ko.EncodeFunctionSection(f.Instructions)
		idx := addSection(f.Name, ko.KindFunction, body)
		funcIdx[f.Name] = idx
	}

	if b.HasComment {
		body, _ := ko.EncodeDataSection([]value.Value{value.NewString(b.Comment)})
		addSection(ko.SectionComment, ko.KindData, body)
	}

	// Symbol string table + symbol table.
	var symstrtab []string
	symNameIdx := map[string]uint32{"": 0}
	symstrtab = append(symstrtab, "")
	internSymName := func(n string) uint32 {
		if idx, ok := symNameIdx[n]; ok {
			return idx
		}
		idx := uint32(len(symstrtab))
		symstrtab = append(symstrtab, n)
		symNameIdx[n] = idx
		return idx
	}

	syms := []ko.Symbol{{}} // symbol 0 is reserved/unused
	for _, s := range b.Syms {
		secIdx := uint16(0)
		if s.SectionName == ko.SectionData {
			secIdx = uint16(dataIdx)
		} else if idx, ok := funcIdx[s.SectionName]; ok {
			secIdx = uint16(idx)
		} else if s.SectionName != "" {
			panic("kotest: unknown section " + s.SectionName)
		}
		syms = append(syms, ko.Symbol{
			NameIdx:    internSymName(s.Name),
			ValueIdx:   s.ValueIdx,
			Size:       s.Size,
			Binding:    s.Binding,
			Type:       s.Type,
			SectionIdx: secIdx,
		})
	}

	addSection(ko.SectionSymStrTab, ko.KindStringTable, ko.EncodeStringTable(symstrtab))
	addSection(ko.SectionSymTab, ko.KindSymbolTable, ko.EncodeSymbolTable(syms))

	if len(b.Relocs) > 0 {
		var relocs []ko.Relocation
		for _, r := range b.Relocs {
			symIdx := uint32(0)
			for i, s := range b.Syms {
				if s.Name == r.SymbolName {
					symIdx = uint32(i + 1) // +1: symbol 0 is reserved
					break
				}
			}
			relocs = append(relocs, ko.Relocation{
				SectionIdx: uint32(funcIdx[r.FuncName]),
				InstrIdx:   r.InstrIdx,
				OperandOrd: r.OperandOrd,
				SymbolIdx:  symIdx,
			})
		}
		addSection(ko.SectionReld, ko.KindRelocation, ko.EncodeRelocationSection(relocs))
	}

	if len(b.Debugs) > 0 {
		var ranges []ko.DebugRange
		for _, d := range b.Debugs {
			ranges = append(ranges, ko.DebugRange{
				FunctionSectionIdx: uint32(funcIdx[d.FuncName]),
				Line:               d.Line,
				StartInstrIdx:      d.StartInstrIdx,
				EndInstrIdx:        d.EndInstrIdx,
			})
		}
		addSection(".debug", ko.KindDebug, ko.EncodeDebugSection(ranges))
	}

	// Reserve the .shstrtab section itself, then patch its body once
	// every name (including ".shstrtab") has been interned: the body
	// must contain its own section's name too.
	shstrtabIdx := addSection(ko.SectionSHStrTab, ko.KindStringTable, nil)
	sections[shstrtabIdx].body = ko.EncodeStringTable(shstrtab)

	w := codec.NewWriter()
	w.Raw(ko.Magic[:])
	w.U8(ko.Version)
	w.U16(uint16(len(sections)))
	w.U16(uint16(shstrtabIdx))
	for _, s := range sections {
		w.U32(nameIdx[s.name])
		w.U8(uint8(s.kind))
		w.U32(uint32(len(s.body)))
	}
	for _, s := range sections {
		w.Raw(s.body)
	}
	return w.Bytes()
}
