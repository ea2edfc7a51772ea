// Package link implements the middle of the link engine: symbol
// resolution across images, reachability over relocation-derived call
// edges, code-stream ordering, and operand resolution. Liveness is
// function-granular: individual Func symbols are dropped, not whole
// images.
package link

import (
	"github.com/kerbalko/ksmld/internal/ko"
	"github.com/kerbalko/ksmld/internal/value"
)

// Unit wraps one parsed KO image with the per-image bookkeeping the
// resolver and reachability analyzer need: its position in input order
// (Order itself follows the order of the units slice) and a local view resolving every raw
// symbol-table index to its final ResolvedSymbol, so local symbols
// stay addressable by (image, local-index).
type Unit struct {
	Image    *ko.Image
	Index    int
	Path     string
	SymByIdx []*ResolvedSymbol // parallel to Image.Syms; nil for symbol 0 and File symbols
	DataIdx  int               // index of the ".data" section header, or -1
}

// NewUnit wraps a parsed image, locating its ".data" section once up
// front so instruction operand resolution (relocate.go) doesn't have to
// re-scan the header table per operand.
func NewUnit(path string, index int, img *ko.Image) *Unit {
	u := &Unit{Image: img, Index: index, Path: path, DataIdx: -1}
	for i, h := range img.Headers {
		if h.Kind == ko.KindData && h.Name == ko.SectionData {
			u.DataIdx = i
			break
		}
	}
	return u
}

// DataValues returns the owning image's ".data" section contents, the
// table unrelocated instruction operands index into.
func (u *Unit) DataValues() []value.Value {
	if u.DataIdx < 0 {
		return nil
	}
	return u.Image.Data[u.DataIdx]
}

// ResolvedSymbol is the merged form a symbol takes after resolution:
// a name bound to exactly one canonical definition, regardless of how
// many images' local symbol tables point at it via extern bindings.
type ResolvedSymbol struct {
	Name string
	Unit *Unit
	Sym  ko.Symbol // the canonical (Local- or Global-binding) definition

	live bool // set by MarkLive
}

func (rs *ResolvedSymbol) IsFunc() bool { return rs.Sym.Type == ko.Func }
func (rs *ResolvedSymbol) IsLive() bool { return rs.live }

// FunctionSectionIdx returns the Function section this symbol's code
// lives in (valid only when IsFunc()).
func (rs *ResolvedSymbol) FunctionSectionIdx() int { return int(rs.Sym.SectionIdx) }

// Instructions returns the resolved symbol's function body.
func (rs *ResolvedSymbol) Instructions() []ko.Instruction {
	return rs.Unit.Image.Functions[rs.FunctionSectionIdx()]
}

// DataValue returns the Data Entry a data symbol points at: its
// section index names a Data section and its value index selects the
// entry.
func (rs *ResolvedSymbol) DataValue() value.Value {
	vals := rs.Unit.Image.Data[int(rs.Sym.SectionIdx)]
	return vals[rs.Sym.ValueIdx]
}
