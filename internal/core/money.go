// Package core provides money parsing and handling utilities.
//
// Money wraps an arbitrary-precision decimal so that sums of many small
// amounts never drift. It is encoded in JSON as a bare number and decoded
// from either a number or a numeric string.
package core

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a signed decimal amount in the user's currency.
type Money struct {
	d decimal.Decimal
}

const (
	// maxIntegerDigits bounds user amounts below 10^15.
	maxIntegerDigits = 15
	// maxDecodedDigits bounds any decoded amount, including derived sums.
	maxDecodedDigits = 30
	// maxScale is the number of decimal places an amount may carry.
	maxScale = 2
	// Exponents below this are rejected before any rounding work.
	minExponent = -20
)

func integerDigits(d decimal.Decimal) int64 {
	if d.IsZero() {
		return 0
	}
	coef := strings.TrimPrefix(d.Coefficient().String(), "-")
	return int64(len(coef)) + int64(d.Exponent())
}

// checkRange rejects decoded amounts that are too large or carry more than
// cents precision. Only the coefficient length and exponent are inspected
// before rounding, so inputs like 1e999999999 are refused without being
// expanded.
func checkRange(d decimal.Decimal, maxDigits int64) (decimal.Decimal, error) {
	if d.IsZero() {
		return decimal.Zero, nil
	}
	if integerDigits(d) > maxDigits {
		return decimal.Decimal{}, fmt.Errorf("%w: too large", ErrInvalidAmount)
	}
	exp := d.Exponent()
	if exp >= -maxScale {
		return d, nil
	}
	if exp < minExponent || !d.Round(maxScale).Equal(d) {
		return decimal.Decimal{}, fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, maxScale)
	}
	return d.Round(maxScale), nil
}

// NewMoney creates Money from a whole amount.
func NewMoney(v int64) Money {
	return Money{d: decimal.NewFromInt(v)}
}

// MoneyFromDecimal wraps an existing decimal value.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{d: d}
}

// ParseMoney converts a user-entered amount to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rejects signs, empty input, values that are not strictly positive and
// values outside the supported range (below 10^15, at most two decimals).
//
// Examples:
//
//	ParseMoney("100000")  -> 100000, nil
//	ParseMoney("12,50")   -> 12.5, nil
//	ParseMoney("-1")      -> 0, ErrInvalidAmount
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	if strings.Count(s, ".") > 1 {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d, err = checkRange(d, maxIntegerDigits); err != nil {
		return Money{}, err
	}
	m := Money{d: d}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// Validate reports ErrInvalidAmount unless the amount is strictly positive
// and below 10^15.
func (m Money) Validate() error {
	if !m.d.IsPositive() {
		return ErrInvalidAmount
	}
	if integerDigits(m.d) > maxIntegerDigits {
		return fmt.Errorf("%w: too large", ErrInvalidAmount)
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }
func (m Money) Neg() Money { return Money{d: m.d.Neg()} }

func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }
func (m Money) IsZero() bool { return m.d.IsZero() }
func (m Money) IsPositive() bool { return m.d.IsPositive() }
func (m Money) IsNegative() bool { return m.d.IsNegative() }
func (m Money) Decimal() decimal.Decimal { return m.d }
func (m Money) String() string { return m.d.String() }

// Float64 returns the amount as a float64 for display purposes only.
// Use Money arithmetic for calculations.
func (m Money) Float64() float64 {
	return m.d.InexactFloat64()
}

// Clamp limits m to the closed range [lo, hi].
func (m Money) Clamp(lo, hi Money) Money {
	if m.Cmp(lo) < 0 {
		return lo
	}
	if m.Cmp(hi) > 0 {
		return hi
	}
	return m
}

// Percent returns part/whole*100. A zero whole yields zero.
func Percent(part, whole Money) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.d.Div(whole.d).Mul(decimal.NewFromInt(100))
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("%w: missing", ErrInvalidAmount)
	}
	s := string(data)
	if data[0] == '"' {
		if len(data) < 2 || data[len(data)-1] != '"' {
			return fmt.Errorf("%w: %s", ErrInvalidAmount, s)
		}
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, s)
	}
	if d, err = checkRange(d, maxDecodedDigits); err != nil {
		return err
	}
	m.d = d
	return nil
}
