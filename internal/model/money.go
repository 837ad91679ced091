package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidAmount is returned when a monetary string cannot be parsed.
var ErrInvalidAmount = errors.New("invalid amount")

// Money is an amount in cents (BRL).
type Money int64

// String renders the amount the way the dashboard shows it, e.g. "R$ 1.234,50".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	units := strconv.FormatInt(v/100, 10)

	var grouped strings.Builder
	for i, r := range units {
		if i > 0 && (len(units)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, grouped.String(), v%100)
}

// Decimal renders the amount as a plain form value, e.g. "1234,50".
func (m Money) Decimal() string {
	return fmt.Sprintf("%d,%02d", int64(m)/100, int64(m)%100)
}

// ParseMoney accepts "150", "150,5", "150.50", "1.234,56" or "R$ 99,90".
// An empty string is zero. Signs, stray separators and amounts that do not
// fit in int64 cents are rejected.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" {
		return 0, nil
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("%w: negative amount %q", ErrInvalidAmount, s)
	}

	intPart, fracPart := s, ""
	switch {
	case strings.Contains(s, ","):
		// Brazilian notation: dots group thousands, comma splits cents.
		idx := strings.LastIndex(s, ",")
		intPart, fracPart = s[:idx], s[idx+1:]
	case strings.Count(s, ".") == 1 && len(s)-strings.Index(s, ".")-1 <= 2:
		idx := strings.Index(s, ".")
		intPart, fracPart = s[:idx], s[idx+1:]
	}

	intPart, ok := ungroup(intPart)
	if !ok || !isDigits(fracPart) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > 2 {
		return 0, fmt.Errorf("%w: too many decimal places in %q", ErrInvalidAmount, s)
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	cents, _ := strconv.ParseInt(fracPart, 10, 64)
	if units > (math.MaxInt64-cents)/100 {
		return 0, fmt.Errorf("%w: amount too large %q", ErrInvalidAmount, s)
	}
	return Money(units*100 + cents), nil
}

// ungroup strips thousands dots from s. A grouped number must have a lead
// group of one to three digits followed by groups of exactly three.
func ungroup(s string) (string, bool) {
	if !strings.Contains(s, ".") {
		return s, isDigits(s)
	}
	groups := strings.Split(s, ".")
	for i, g := range groups {
		if !isDigits(g) || g == "" || len(g) > 3 || (i > 0 && len(g) != 3) {
			return "", false
		}
	}
	return strings.Join(groups, ""), true
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
