package ksm

import (
	"sort"

	"github.com/kerbalko/ksmld/internal/codec"
	"github.com/kerbalko/ksmld/internal/link"
)

// Plan partitions the surviving functions from link.Order into the
// three KSM code-group kinds: zero or more single-function %F
// groups, exactly one %I group holding the init function (if any), and,
// in executable mode, exactly one %M group holding the entry function.
// Shared-library mode has no Main group.
type Plan struct {
	Funcs []*link.ResolvedSymbol
	Init  *link.ResolvedSymbol
	Main  *link.ResolvedSymbol
}

// BuildPlan classifies order's members by identity against initSym and
// entrySym. order is assumed to already carry link.Order's placement
// (init first, then entry, then the rest) so the relative sequencing of
// the emitted %F groups keeps that input-then-definition order.
func BuildPlan(order []*link.ResolvedSymbol, initSym, entrySym *link.ResolvedSymbol, shared bool) Plan {
	var p Plan
	for _, rs := range order {
		switch {
		case rs == initSym:
			p.Init = rs
		case !shared && rs == entrySym:
			p.Main = rs
		default:
			p.Funcs = append(p.Funcs, rs)
		}
	}
	return p
}

type group struct {
	marker [2]byte
	fn     *link.ResolvedSymbol
}

// groups lists the code groups in emission order: every %F, then %I,
// then %M.
func (p Plan) groups() []group {
	var gs []group
	for _, f := range p.Funcs {
		gs = append(gs, group{MarkerFunc, f})
	}
	if p.Init != nil {
		gs = append(gs, group{MarkerInit, p.Init})
	}
	if p.Main != nil {
		gs = append(gs, group{MarkerMain, p.Main})
	}
	return gs
}

// funcLayout records where one surviving function's code landed in the
// final code-section area: its start offset and the byte offset of
// every one of its instructions, parallel to link.ResolvedSymbol's
// Instructions().
type funcLayout struct {
	start, end int
	instrs     []int
}

// Write is the two-pass emitter fusing layout, relocation, and
// serialization: a sizing pass resolves every surviving instruction's
// operands (link.ResolveFunction) and interns them into the
// argument table, fixing both the deduplicated %A contents and the
// final operand width W; an emit pass then writes the magic, %A, every
// code group at that final W, and %D, the debug section, remapped
// through the offsets the emit pass just assigned.
func Write(order []*link.ResolvedSymbol, initSym, entrySym *link.ResolvedSymbol, shared bool) ([]byte, error) {
	plan := BuildPlan(order, initSym, entrySym, shared)
	groups := plan.groups()

	resolved := make(map[*link.ResolvedSymbol][]link.ResolvedInstruction, len(groups))
	table := NewArgTable()

	for _, g := range groups {
		instrs, err := link.ResolveFunction(g.fn)
		if err != nil {
			return nil, err
		}
		resolved[g.fn] = instrs
		for _, in := range instrs {
			for _, v := range in.Operands {
				table.Intern(v)
			}
		}
	}

	w := table.Width()

	code := codec.NewWriter()
	layouts := make(map[*link.ResolvedSymbol]funcLayout, len(groups))
	for _, g := range groups {
		code.Raw(g.marker[:])
		fl := funcLayout{start: code.Len()}
		for _, in := range resolved[g.fn] {
			fl.instrs = append(fl.instrs, code.Len())
			code.U8(in.Opcode)
			for _, v := range in.Operands {
				// Already interned during the sizing pass; Intern is
				// idempotent and returns the same offset rather than
				// growing the table a second time.
				code.UintW(uint64(table.Intern(v)), w)
			}
		}
		fl.end = code.Len()
		layouts[g.fn] = fl
	}

	debug := buildDebugSection(groups, layouts, code.Len())

	out := codec.NewWriter()
	out.Raw(Magic[:])
	if err := table.Encode(out); err != nil {
		return nil, err
	}
	out.Raw(code.Bytes())
	out.Raw(debug)
	return out.Bytes(), nil
}

// debugRangeOut accumulates the output ranges for one source line,
// keyed globally: the emitted debug section has no per-function
// grouping, unlike KO's input encoding.
type debugRangeOut struct{ start, end int }

// buildDebugSection remaps every surviving function's KO-side debug
// ranges (instruction indices) through that function's final
// instruction offsets, grouping the result by line number across the
// whole output. Ranges belonging to
// dropped functions never appear here in the first place, since only
// groups (i.e. surviving functions) are walked.
func buildDebugSection(groups []group, layouts map[*link.ResolvedSymbol]funcLayout, codeSize int) []byte {
	byLine := map[int16][]debugRangeOut{}
	var lines []int16
	seen := map[int16]bool{}

	for _, g := range groups {
		fl := layouts[g.fn]
		for _, dr := range g.fn.Unit.Image.Debug {
			for _, r := range dr {
				if int(r.FunctionSectionIdx) != g.fn.FunctionSectionIdx() {
					continue
				}
				start := fl.instrs[r.StartInstrIdx]
				end := fl.end - 1
				if next := int(r.EndInstrIdx) + 1; next < len(fl.instrs) {
					end = fl.instrs[next] - 1
				}
				if !seen[r.Line] {
					seen[r.Line] = true
					lines = append(lines, r.Line)
				}
				byLine[r.Line] = append(byLine[r.Line], debugRangeOut{start, end})
			}
		}
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i] < lines[j] })

	rw := WidthFor(codeSize)
	w := codec.NewWriter()
	w.Raw(MarkerDebug[:])
	w.U8(uint8(rw))
	for _, line := range lines {
		ranges := byLine[line]
		sort.Slice(ranges, func(i, j int) bool {
			if ranges[i].start != ranges[j].start {
				return ranges[i].start < ranges[j].start
			}
			return ranges[i].end < ranges[j].end
		})
		w.I16(line)
		w.U8(uint8(len(ranges)))
		for _, r := range ranges {
			w.UintW(uint64(r.start), rw)
			w.UintW(uint64(r.end), rw)
		}
	}
	return w.Bytes()
}
