package ksm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kerbalko/ksmld/internal/codec"
	"github.com/kerbalko/ksmld/internal/ko"
	"github.com/kerbalko/ksmld/internal/kotest"
	"github.com/kerbalko/ksmld/internal/ksm"
	"github.com/kerbalko/ksmld/internal/link"
	"github.com/kerbalko/ksmld/internal/value"
)

func linkOne(t *testing.T, raw []byte, shared bool, entryName string) []byte {
	t.Helper()
	img, err := ko.Parse(raw)
	require.NoError(t, err)

	u := link.NewUnit("a.ko", 0, img)
	units := []*link.Unit{u}
	globals, err := link.Resolve(units)
	require.NoError(t, err)

	entry, err := link.EntryPoint(globals, shared, entryName)
	require.NoError(t, err)
	initSym, hasInit := link.InitPoint(globals)
	if shared {
		initSym, hasInit = entry, true
	}

	roots := []*link.ResolvedSymbol{entry}
	if !shared && hasInit {
		roots = append(roots, initSym)
	}
	live := link.MarkLive(roots)
	order := link.Order(units, live, initSym, entry, shared)

	out, err := ksm.Write(order, initSym, entry, shared)
	require.NoError(t, err)
	return out
}

// TestSmallestExecutable: "push 2; push 2;
// add; call print(); pop" — a built-in call resolved as a direct .data
// string reference, with no extern symbol or relocation involved.
func TestSmallestExecutable(t *testing.T) {
	raw := kotest.New().
		WithData(value.Marker(), value.NewScalarInt(2), value.NewString("print()")).
		WithFunc("_start",
			kotest.Inst(ko.OpPush, 0),
			kotest.Inst(ko.OpPush, 1),
			kotest.Inst(ko.OpPush, 1),
			kotest.Inst(ko.OpAdd),
			kotest.Inst(ko.OpCall, 2, 0),
			kotest.Inst(ko.OpPop),
		).
		WithSymbol(kotest.SymSpec{Name: "_start", Binding: ko.Global, Type: ko.Func, SectionName: "_start"}).
		Build()

	out := linkOne(t, raw, false, "")

	require.Equal(t, []byte{0x6B, 0x03, 0x58, 0x45, '%', 'A', 0x01}, out[:7])

	// Argument section (header-inclusive, W=1): marker, int 2, the
	// "print()" label, and the "" direct-call placeholder, each once.
	// Walk entries from byte 7 until a tag byte outside the 13 known
	// Kind values, which can only be the '%' of the following code
	// section's marker.
	rest := out[7:]
	var entries []value.Value
	for i := 0; i < len(rest); {
		if rest[i] > uint8(value.StringValue) {
			break
		}
		r := codec.NewReader(rest[i:])
		v, err := value.Decode(r)
		require.NoError(t, err)
		entries = append(entries, v)
		i += v.EncodedLen()
	}

	require.Contains(t, entries, value.Marker())
	require.Contains(t, entries, value.NewScalarInt(2))
	require.Contains(t, entries, value.NewString("print()"))
	require.Contains(t, entries, value.NewString(""))
}

// TestDeadCodeElimination: two files,
// main.ko calling "used", lib.ko defining "used" and "unused" (both
// global) — the linked output must contain used's bytes and omit
// unused's.
func TestDeadCodeElimination(t *testing.T) {
	mainRaw := kotest.New().
		WithFunc("_start", kotest.Inst(ko.OpCall, 0, 0)).
		WithSymbol(kotest.SymSpec{Name: "_start", Binding: ko.Global, Type: ko.Func, SectionName: "_start"}).
		WithSymbol(kotest.SymSpec{Name: "used", Binding: ko.Extern, Type: ko.Func}).
		WithReloc(kotest.RelocSpec{FuncName: "_start", InstrIdx: 0, OperandOrd: ko.CallOperandLabel, SymbolName: "used"}).
		Build()

	libRaw := kotest.New().
		WithFunc("used", kotest.Inst(ko.OpReturn)).
		WithFunc("unused", kotest.Inst(ko.OpReturn), kotest.Inst(ko.OpReturn)).
		WithSymbol(kotest.SymSpec{Name: "used", Binding: ko.Global, Type: ko.Func, SectionName: "used"}).
		WithSymbol(kotest.SymSpec{Name: "unused", Binding: ko.Global, Type: ko.Func, SectionName: "unused"}).
		Build()

	mainImg, err := ko.Parse(mainRaw)
	require.NoError(t, err)
	libImg, err := ko.Parse(libRaw)
	require.NoError(t, err)

	units := []*link.Unit{
		link.NewUnit("main.ko", 0, mainImg),
		link.NewUnit("lib.ko", 1, libImg),
	}
	globals, err := link.Resolve(units)
	require.NoError(t, err)

	entry, err := link.EntryPoint(globals, false, "")
	require.NoError(t, err)
	live := link.MarkLive([]*link.ResolvedSymbol{entry})
	require.Len(t, live, 2) // _start + used, never unused

	order := link.Order(units, live, nil, entry, false)
	var names []string
	for _, rs := range order {
		names = append(names, rs.Name)
	}
	require.ElementsMatch(t, []string{"_start", "used"}, names)

	out, err := ksm.Write(order, nil, entry, false)
	require.NoError(t, err)
	require.NotContains(t, string(out), "unused")
}

// TestDebugRemapToByteOffsets pins down the exact output bytes for a
// single function carrying two debug lines: KO-side instruction-index
// ranges must come out as byte-offset ranges counted from the first
// byte after the argument section, marker bytes included.
func TestDebugRemapToByteOffsets(t *testing.T) {
	raw := kotest.New().
		WithData(value.NewScalarInt(7)).
		WithFunc("_start",
			kotest.Inst(ko.OpPush, 0),
			kotest.Inst(ko.OpPush, 0),
			kotest.Inst(ko.OpReturn),
		).
		WithSymbol(kotest.SymSpec{Name: "_start", Binding: ko.Global, Type: ko.Func, SectionName: "_start"}).
		WithDebug(kotest.DebugSpec{FuncName: "_start", Line: 1, StartInstrIdx: 0, EndInstrIdx: 1}).
		WithDebug(kotest.DebugSpec{FuncName: "_start", Line: 2, StartInstrIdx: 2, EndInstrIdx: 2}).
		Build()

	out := linkOne(t, raw, false, "")

	want := []byte{
		0x6B, 0x03, 0x58, 0x45, // magic
		'%', 'A', 0x01, // argument section, W=1
		0x09, 0x07, 0x00, 0x00, 0x00, // ScalarInt 7 at offset 3
		'%', 'M',
		ko.OpPush, 0x03, // both pushes address offset 3
		ko.OpPush, 0x03,
		ko.OpReturn,
		'%', 'D', 0x01, // debug section, range width 1
		0x01, 0x00, 0x01, 0x02, 0x05, // line 1: instrs 0-1 -> bytes [2,5]
		0x02, 0x00, 0x01, 0x06, 0x06, // line 2: instr 2 -> bytes [6,6]
	}
	require.Equal(t, want, out)
}

// TestOperandWidthEscalation: a
// deduplicated argument section over 256 bytes forces W=2.
func TestOperandWidthEscalation(t *testing.T) {
	b := kotest.New()
	var instrs []ko.Instruction
	vals := make([]value.Value, 0, 60)
	for i := 0; i < 60; i++ {
		vals = append(vals, value.NewString(string(rune('a'+i%26))+string(rune(i))+"xxxxxxxxxxxx"))
		instrs = append(instrs, kotest.Inst(ko.OpPush, uint32(i)))
	}
	instrs = append(instrs, kotest.Inst(ko.OpReturn))
	b.WithData(vals...).
		WithFunc("_start", instrs...).
		WithSymbol(kotest.SymSpec{Name: "_start", Binding: ko.Global, Type: ko.Func, SectionName: "_start"})

	img, err := ko.Parse(b.Build())
	require.NoError(t, err)
	u := link.NewUnit("a.ko", 0, img)
	globals, err := link.Resolve([]*link.Unit{u})
	require.NoError(t, err)
	entry, err := link.EntryPoint(globals, false, "")
	require.NoError(t, err)
	live := link.MarkLive([]*link.ResolvedSymbol{entry})
	order := link.Order([]*link.Unit{u}, live, nil, entry, false)

	out, err := ksm.Write(order, nil, entry, false)
	require.NoError(t, err)
	require.Equal(t, uint8(2), out[6], "argument section exceeding 256 bytes must escalate W to 2")
}
