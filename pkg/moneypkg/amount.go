// Package moneypkg provides integer money arithmetic in minor currency units.
//
// An Amount never holds a fractional minor unit. Values coming from decimal
// input are rounded explicitly, half away from zero.
package moneypkg

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxSafe is the largest representable Amount (2^53 - 1), small enough to
// survive a round trip through any float64 based JSON consumer.
const MaxSafe int64 = 1<<53 - 1

// MinorUnitsPerMajor is the number of minor units in one major unit.
const MinorUnitsPerMajor = 100

var (
	// ErrOverflow indicates that the result exceeds MaxSafe.
	ErrOverflow = errors.New("amount overflow")
	// ErrNegativeResult indicates that the result would be below zero.
	ErrNegativeResult = errors.New("negative amount result")
	// ErrInvalidAmount indicates that the value is not a valid amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrDivisionByZero indicates division by zero.
	ErrDivisionByZero = errors.New("division by zero")
)

var (
	hundred        = decimal.NewFromInt(MinorUnitsPerMajor)
	maxSafeDecimal = decimal.NewFromInt(MaxSafe)
)

// Amount is a count of minor currency units, 0 <= Amount <= MaxSafe.
type Amount int64

// Zero is the zero Amount.
const Zero Amount = 0

// New validates v and returns it as an Amount.
func New(v int64) (Amount, error) {
	if v < 0 {
		return 0, ErrNegativeResult
	}

	if v > MaxSafe {
		return 0, ErrOverflow
	}

	return Amount(v), nil
}

// MustNew is like New but panics on an invalid value. Intended for constants and tests.
func MustNew(v int64) Amount {
	a, err := New(v)
	if err != nil {
		panic(fmt.Sprintf("moneypkg.MustNew(%d): %v", v, err))
	}

	return a
}

// FromMajorUnits converts a major-unit decimal into minor units,
// rounding half away from zero.
func FromMajorUnits(d decimal.Decimal) (Amount, error) {
	return fromDecimal(d.Mul(hundred))
}

// Parse converts major-unit text such as "12.34" into an Amount.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	return FromMajorUnits(d)
}

// Valid reports whether a is within [0, MaxSafe].
func (a Amount) Valid() bool {
	return a >= 0 && int64(a) <= MaxSafe
}

// Int64 returns the amount as minor units.
func (a Amount) Int64() int64 {
	return int64(a)
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -2)
}

// String renders the amount in major units with exactly two fractional digits.
func (a Amount) String() string {
	return Display(int64(a))
}

// Display renders a signed minor-unit value with exactly two fractional digits.
func Display(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	return fmt.Sprintf("%s%d.%02d", sign, v/MinorUnitsPerMajor, v%MinorUnitsPerMajor)
}

// Add sums the amounts. It fails with ErrOverflow once the sum exceeds MaxSafe.
func Add(amounts ...Amount) (Amount, error) {
	var sum int64

	for _, a := range amounts {
		if !a.Valid() {
			return 0, ErrInvalidAmount
		}

		// Both operands are at most 2^53-1, the int64 addition cannot wrap.
		sum += int64(a)
		if sum > MaxSafe {
			return 0, ErrOverflow
		}
	}

	return Amount(sum), nil
}

// Subtract returns a - b. It fails with ErrNegativeResult when b > a.
func Subtract(a, b Amount) (Amount, error) {
	if !a.Valid() || !b.Valid() {
		return 0, ErrInvalidAmount
	}

	if b > a {
		return 0, ErrNegativeResult
	}

	return a - b, nil
}

// Multiply returns a * factor rounded half away from zero.
func Multiply(a Amount, factor decimal.Decimal) (Amount, error) {
	if !a.Valid() {
		return 0, ErrInvalidAmount
	}

	return fromDecimal(decimal.NewFromInt(int64(a)).Mul(factor))
}

// Divide returns a / divisor rounded half away from zero.
func Divide(a Amount, divisor decimal.Decimal) (Amount, error) {
	if !a.Valid() {
		return 0, ErrInvalidAmount
	}

	if divisor.IsZero() {
		return 0, ErrDivisionByZero
	}

	if divisor.IsNegative() {
		return 0, ErrNegativeResult
	}

	return fromDecimal(decimal.NewFromInt(int64(a)).DivRound(divisor, 0))
}

func fromDecimal(d decimal.Decimal) (Amount, error) {
	rounded := d.Round(0)

	if rounded.IsNegative() {
		return 0, ErrNegativeResult
	}

	if rounded.GreaterThan(maxSafeDecimal) {
		return 0, ErrOverflow
	}

	return Amount(rounded.IntPart()), nil
}
