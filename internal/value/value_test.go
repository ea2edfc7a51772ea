package value_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kerbalko/ksmld/internal/codec"
	"github.com/kerbalko/ksmld/internal/value"
)

func TestEqualByKindAndPayload(t *testing.T) {
	require.True(t, value.NewInt32(2).Equal(value.NewInt32(2)))
	require.False(t, value.NewInt32(2).Equal(value.NewInt32(3)))
	// Same numeric payload, different kind: not equal.
	require.False(t, value.NewInt32(2).Equal(value.NewScalarInt(2)))
	require.True(t, value.NewString("print()").Equal(value.NewString("print()")))
	require.False(t, value.NewString("a").Equal(value.NewStringValue("a")))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	vals := []value.Value{
		value.Nil(),
		value.NewBool(true),
		value.NewByte(200),
		value.NewInt16(-5),
		value.NewInt32(123456),
		value.NewFloat(3.5),
		value.NewDouble(2.718281828),
		value.NewString("hello"),
		value.Marker(),
		value.NewScalarInt(-1),
		value.NewScalarDouble(1.5),
		value.NewBoolValue(false),
		value.NewStringValue("world"),
	}

	w := codec.NewWriter()
	for _, v := range vals {
		require.NoError(t, v.Encode(w))
	}

	r := codec.NewReader(w.Bytes())
	for _, want := range vals {
		got, err := value.Decode(r)
		require.NoError(t, err)
		require.True(t, want.Equal(got), "want %+v got %+v", want, got)
	}
	require.Zero(t, r.Len())
}

func TestOverlongStringRejected(t *testing.T) {
	w := codec.NewWriter()
	long := make([]byte, 256)
	err := w.LenPrefixedString(string(long))
	require.ErrorIs(t, err, codec.ErrOverlongString)
}
