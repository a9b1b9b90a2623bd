package amount

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	ledgererrors "norifarm/core/errors"
)

func TestParseUnits(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1", "1000000000000000000"},
		{"1.5", "1500000000000000000"},
		{"0.000000000000000001", "1"},
		{".25", "250000000000000000"},
		{"0", "0"},
		{"1000000", "1000000000000000000000000"},
	}
	for _, tc := range cases {
		got, err := ParseUnits(tc.in, Decimals)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got.Dec(), tc.in)
	}
}

func TestParseUnitsRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "abc", "1.", "-1", "1.0000000000000000001", "1e18"} {
		_, err := ParseUnits(in, Decimals)
		require.Error(t, err, in)
	}
}

func TestFormatUnits(t *testing.T) {
	require.Equal(t, "1.5", FormatUnits(uint256.MustFromDecimal("1500000000000000000"), Decimals))
	require.Equal(t, "0.000000000000000001", FormatUnits(uint256.NewInt(1), Decimals))
	require.Equal(t, "100000", FormatUnits(Tokens(100_000), Decimals))
	require.Equal(t, "0", FormatUnits(nil, Decimals))
	require.Equal(t, "42", FormatUnits(uint256.NewInt(42), 0))
}

func TestCheckedArithmetic(t *testing.T) {
	max := new(uint256.Int).SetAllOne()

	_, err := Add(max, uint256.NewInt(1))
	require.True(t, errors.Is(err, ledgererrors.ErrArithmeticOverflow))

	_, err = Sub(uint256.NewInt(1), uint256.NewInt(2))
	require.True(t, errors.Is(err, ledgererrors.ErrArithmeticOverflow))

	_, err = Mul(max, uint256.NewInt(2))
	require.True(t, errors.Is(err, ledgererrors.ErrArithmeticOverflow))

	sum, err := Add(uint256.NewInt(2), uint256.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, uint64(5), sum.Uint64())
}

func TestCopyDetaches(t *testing.T) {
	v := uint256.NewInt(7)
	c := Copy(v)
	c.AddUint64(c, 1)
	require.Equal(t, uint64(7), v.Uint64())
	require.True(t, Copy(nil).IsZero())
}
