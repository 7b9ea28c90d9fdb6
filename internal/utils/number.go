package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseQuantity parses a form value as a non-negative number. An empty
// string is zero.
func ParseQuantity(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("value cannot be negative")
	}
	return v, nil
}

// ParsePositive parses a form value that must be greater than zero.
func ParsePositive(s string) (float64, error) {
	v, err := ParseQuantity(s)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, fmt.Errorf("value must be greater than zero")
	}
	return v, nil
}

// FormatQuantity renders v without a trailing ".0" for whole numbers.
func FormatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
