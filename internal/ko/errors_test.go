package ko_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kerbalko/ksmld/internal/ko"
)

func TestParseRejectsBadMagic(t *testing.T) {
	_, err := ko.Parse([]byte{0, 0, 0, 0, ko.Version, 0, 0, 0, 0})
	require.Error(t, err)
	require.True(t, errors.Is(err, ko.ErrBadMagic))
}

func TestParseRejectsBadVersion(t *testing.T) {
	buf := append([]byte{}, ko.Magic[:]...)
	buf = append(buf, 99, 0, 0, 0, 0)
	_, err := ko.Parse(buf)
	require.Error(t, err)
	require.True(t, errors.Is(err, ko.ErrBadVersion))
}

func TestParseRejectsTruncatedHeader(t *testing.T) {
	_, err := ko.Parse(ko.Magic[:])
	require.Error(t, err)
	require.True(t, errors.Is(err, ko.ErrTruncated))
}
