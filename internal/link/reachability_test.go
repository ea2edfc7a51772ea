package link_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kerbalko/ksmld/internal/ko"
	"github.com/kerbalko/ksmld/internal/kotest"
	"github.com/kerbalko/ksmld/internal/link"
)

// TestMarkLiveDropsUnreachable: a function defined but never called
// from any live root is excluded from the live set.
func TestMarkLiveDropsUnreachable(t *testing.T) {
	raw := kotest.New().
		WithFunc("_start", kotest.Inst(ko.OpReturn)).
		WithFunc("dead", kotest.Inst(ko.OpReturn)).
		WithSymbol(kotest.SymSpec{Name: "_start", Binding: ko.Global, Type: ko.Func, SectionName: "_start"}).
		WithSymbol(kotest.SymSpec{Name: "dead", Binding: ko.Global, Type: ko.Func, SectionName: "dead"}).
		Build()

	img, err := ko.Parse(raw)
	require.NoError(t, err)

	u := link.NewUnit("a.ko", 0, img)
	globals, err := link.Resolve([]*link.Unit{u})
	require.NoError(t, err)

	entry, err := link.EntryPoint(globals, false, "")
	require.NoError(t, err)

	live := link.MarkLive([]*link.ResolvedSymbol{entry})
	require.Len(t, live, 1)
	require.True(t, globals["_start"].IsLive())
	require.False(t, globals["dead"].IsLive())
}

// TestMarkLiveKeepsTransitiveChain ensures liveness follows more than
// one hop: _start -> a -> b.
func TestMarkLiveKeepsTransitiveChain(t *testing.T) {
	raw := kotest.New().
		WithFunc("_start", kotest.Inst(ko.OpCall, 0, 0)).
		WithFunc("a", kotest.Inst(ko.OpCall, 0, 0)).
		WithFunc("b", kotest.Inst(ko.OpReturn)).
		WithFunc("dead", kotest.Inst(ko.OpReturn)).
		WithSymbol(kotest.SymSpec{Name: "_start", Binding: ko.Global, Type: ko.Func, SectionName: "_start"}).
		WithSymbol(kotest.SymSpec{Name: "a", Binding: ko.Global, Type: ko.Func, SectionName: "a"}).
		WithSymbol(kotest.SymSpec{Name: "b", Binding: ko.Global, Type: ko.Func, SectionName: "b"}).
		WithSymbol(kotest.SymSpec{Name: "dead", Binding: ko.Global, Type: ko.Func, SectionName: "dead"}).
		WithReloc(kotest.RelocSpec{FuncName: "_start", InstrIdx: 0, OperandOrd: ko.CallOperandLabel, SymbolName: "a"}).
		WithReloc(kotest.RelocSpec{FuncName: "a", InstrIdx: 0, OperandOrd: ko.CallOperandLabel, SymbolName: "b"}).
		Build()

	img, err := ko.Parse(raw)
	require.NoError(t, err)

	u := link.NewUnit("a.ko", 0, img)
	globals, err := link.Resolve([]*link.Unit{u})
	require.NoError(t, err)

	entry, err := link.EntryPoint(globals, false, "")
	require.NoError(t, err)

	live := link.MarkLive([]*link.ResolvedSymbol{entry})
	require.Len(t, live, 3)
	require.False(t, globals["dead"].IsLive())
}
