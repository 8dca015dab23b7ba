// Package core contains the domain types and the pure computations of
// loadbook: the expense variant resolver, the load status rules, the monthly
// KPI aggregator, and the settlement report builder. It has no dependencies
// outside the standard library and never touches storage.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is an exact currency amount in cents. All arithmetic stays in int64
// cents; floats appear only at display boundaries. On the wire a Money is a
// bare integer number of cents.
type Money struct {
	Cents int64
}

func (m Money) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, m.Cents, 10), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	c, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: money must be integer cents: %v", ErrValidation, err)
	}
	m.Cents = c
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// Dollars returns the amount as a float64 for display purposes only.
// Use cents for every calculation.
func (m Money) Dollars() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) String() string {
	sign := ""
	c := m.Cents
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s$%d.%02d", sign, c/100, c%100)
}

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. Both dot and comma separators are
// accepted. Negative and zero amounts are rejected.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty amount", ErrValidation)
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, fmt.Errorf("%w: malformed amount %q", ErrValidation, s)
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, fmt.Errorf("%w: malformed amount %q", ErrValidation, s)
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed amount %q", ErrValidation, s)
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, fmt.Errorf("%w: amount too large", ErrValidation)
	}
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	cents := iv*100 + frac
	if cents <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	return cents, nil
}
