package link_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kerbalko/ksmld/internal/ko"
	"github.com/kerbalko/ksmld/internal/kotest"
	"github.com/kerbalko/ksmld/internal/link"
	"github.com/kerbalko/ksmld/internal/value"
)

func TestResolveFunctionLocalDataIndex(t *testing.T) {
	raw := kotest.New().
		WithData(value.NewScalarInt(42), value.NewStringValue("hi")).
		WithFunc("_start", kotest.Inst(ko.OpPush, 1), kotest.Inst(ko.OpReturn)).
		WithSymbol(kotest.SymSpec{Name: "_start", Binding: ko.Global, Type: ko.Func, SectionName: "_start"}).
		Build()

	img, err := ko.Parse(raw)
	require.NoError(t, err)

	u := link.NewUnit("a.ko", 0, img)
	globals, err := link.Resolve([]*link.Unit{u})
	require.NoError(t, err)

	entry, err := link.EntryPoint(globals, false, "")
	require.NoError(t, err)

	resolved, err := link.ResolveFunction(entry)
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	require.Equal(t, ko.OpPush, resolved[0].Opcode)
	require.Len(t, resolved[0].Operands, 1)
	require.True(t, value.NewStringValue("hi").Equal(resolved[0].Operands[0]))
}

func TestResolveFunctionDataIndexOutOfRange(t *testing.T) {
	raw := kotest.New().
		WithData(value.NewScalarInt(42)).
		WithFunc("_start", kotest.Inst(ko.OpPush, 7)).
		WithSymbol(kotest.SymSpec{Name: "_start", Binding: ko.Global, Type: ko.Func, SectionName: "_start"}).
		Build()

	img, err := ko.Parse(raw)
	require.NoError(t, err)

	u := link.NewUnit("a.ko", 0, img)
	globals, err := link.Resolve([]*link.Unit{u})
	require.NoError(t, err)

	entry, err := link.EntryPoint(globals, false, "")
	require.NoError(t, err)

	_, err = link.ResolveFunction(entry)
	require.ErrorIs(t, err, ko.ErrBadOperandOrdinal)
}

// TestResolveFunctionLostRelocation: a relocation registered against an operand
// ordinal the target instruction doesn't actually carry can never be
// visited by ResolveFunction's per-operand loop, so it's caught up
// front rather than silently dropped.
func TestResolveFunctionLostRelocation(t *testing.T) {
	raw := kotest.New().
		WithFunc("_start", kotest.Inst(ko.OpPop), kotest.Inst(ko.OpReturn)).
		WithFunc("foo", kotest.Inst(ko.OpReturn)).
		WithSymbol(kotest.SymSpec{Name: "_start", Binding: ko.Global, Type: ko.Func, SectionName: "_start"}).
		WithSymbol(kotest.SymSpec{Name: "foo", Binding: ko.Global, Type: ko.Func, SectionName: "foo"}).
		WithReloc(kotest.RelocSpec{FuncName: "_start", InstrIdx: 0, OperandOrd: 1, SymbolName: "foo"}).
		Build()

	img, err := ko.Parse(raw)
	require.NoError(t, err)

	u := link.NewUnit("a.ko", 0, img)
	globals, err := link.Resolve([]*link.Unit{u})
	require.NoError(t, err)

	entry, err := link.EntryPoint(globals, false, "")
	require.NoError(t, err)

	_, err = link.ResolveFunction(entry)
	require.ErrorIs(t, err, link.ErrLostRelocation)
}
