package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatApplicationNumber(t *testing.T) {
	n, err := FormatApplicationNumber("al", 2026, 1)
	require.NoError(t, err)
	require.Equal(t, ApplicationNumber("#AL-2026-00001"), n)

	_, err = FormatApplicationNumber("ALA", 2026, 1)
	require.ErrorIs(t, err, ErrInvalidJurisdiction)
	_, err = FormatApplicationNumber("AL", 2026, 100000)
	require.ErrorIs(t, err, ErrSequenceExhausted)
}

func TestParseApplicationNumber(t *testing.T) {
	code, year, seq, err := ParseApplicationNumber("#CA-2025-00042")
	require.NoError(t, err)
	require.Equal(t, "CA", code)
	require.Equal(t, 2025, year)
	require.Equal(t, 42, seq)

	for _, raw := range []string{"CA-2025-00042", "#CA-25-00042", "#CA-2025-42", "#ca-2025-00042"} {
		_, _, _, err := ParseApplicationNumber(raw)
		require.ErrorIs(t, err, ErrInvalidNumber, raw)
	}
}

func TestNextSequence(t *testing.T) {
	seq, err := NextSequence("")
	require.NoError(t, err)
	require.Equal(t, 1, seq)

	seq, err = NextSequence("#AL-2026-00009")
	require.NoError(t, err)
	require.Equal(t, 10, seq)

	_, err = NextSequence("#AL-2026-99999")
	require.ErrorIs(t, err, ErrSequenceExhausted)
}
