package amount

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	ledgererrors "norifarm/core/errors"
)

// Decimals is the number of fractional digits of the smallest unit.
const Decimals = 18

// Unit is one whole token expressed in smallest units (10^18).
var Unit = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(Decimals))

// Zero returns a fresh zero value.
func Zero() *uint256.Int { return new(uint256.Int) }

// Copy returns a detached copy of v, treating nil as zero.
func Copy(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(v)
}

// IsZero reports whether v is nil or zero.
func IsZero(v *uint256.Int) bool {
	return v == nil || v.IsZero()
}

// Tokens converts a whole-token count into smallest units.
func Tokens(whole uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(whole), Unit)
}

// Add returns a+b or ErrArithmeticOverflow.
func Add(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(Copy(a), Copy(b))
	if overflow {
		return nil, ledgererrors.ErrArithmeticOverflow
	}
	return sum, nil
}

// Sub returns a-b or ErrArithmeticOverflow when b > a.
func Sub(a, b *uint256.Int) (*uint256.Int, error) {
	diff, underflow := new(uint256.Int).SubOverflow(Copy(a), Copy(b))
	if underflow {
		return nil, ledgererrors.ErrArithmeticOverflow
	}
	return diff, nil
}

// Mul returns a*b or ErrArithmeticOverflow.
func Mul(a, b *uint256.Int) (*uint256.Int, error) {
	product, overflow := new(uint256.Int).MulOverflow(Copy(a), Copy(b))
	if overflow {
		return nil, ledgererrors.ErrArithmeticOverflow
	}
	return product, nil
}

// ParseUnits converts a decimal string such as "1.5" into smallest units
// using the supplied number of fractional digits.
func ParseUnits(value string, decimals uint8) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount: empty value")
	}
	whole, frac, hasFrac := strings.Cut(trimmed, ".")
	if hasFrac && frac == "" {
		return nil, fmt.Errorf("amount: invalid value %q", value)
	}
	if whole == "" {
		whole = "0"
	}
	if !digitsOnly(whole) || !digitsOnly(frac) {
		return nil, fmt.Errorf("amount: invalid value %q", value)
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("amount: %q has more than %d fractional digits", value, decimals)
	}
	digits := strings.TrimLeft(whole+frac+strings.Repeat("0", int(decimals)-len(frac)), "0")
	if digits == "" {
		return new(uint256.Int), nil
	}
	parsed, err := uint256.FromDecimal(digits)
	if err != nil {
		return nil, fmt.Errorf("amount: parse %q: %w", value, err)
	}
	return parsed, nil
}

// FormatUnits renders v as a decimal string with trailing fractional zeros
// removed.
func FormatUnits(v *uint256.Int, decimals uint8) string {
	digits := Copy(v).Dec()
	if decimals == 0 {
		return digits
	}
	width := int(decimals)
	if len(digits) <= width {
		digits = strings.Repeat("0", width-len(digits)+1) + digits
	}
	whole := digits[:len(digits)-width]
	frac := strings.TrimRight(digits[len(digits)-width:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

// String renders v in smallest units, treating nil as zero.
func String(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
