package otp

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
)

// ErrInvalidDigits is returned when a generator is configured with an
// unsupported code length.
var ErrInvalidDigits = errors.New("otp: digits must be between 4 and 9")

// Generator produces a fresh numeric code on every call.
type Generator interface {
	Generate() (string, error)
}

// Numeric implements Generator with codes uniformly distributed over
// [10^(digits-1), 10^digits - 1].
type Numeric struct {
	min   int64
	span  *big.Int
	digit int
}

// NewNumeric builds a generator for codes of the given length.
func NewNumeric(digits int) (*Numeric, error) {
	if digits < 4 || digits > 9 {
		return nil, ErrInvalidDigits
	}

	lo := int64(1)
	for range digits - 1 {
		lo *= 10
	}

	return &Numeric{
		min:   lo,
		span:  big.NewInt(lo*10 - lo), // size of [lo, 10*lo-1]
		digit: digits,
	}, nil
}

// Digits reports the code length.
func (n *Numeric) Digits() int {
	return n.digit
}

// Generate returns a new code, for four digits a value in [1000, 9999].
func (n *Numeric) Generate() (string, error) {
	v, err := rand.Int(rand.Reader, n.span)
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(n.min+v.Int64(), 10), nil
}
