package util

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrAmountNotNumber   = errors.New("Enter a number.")
	ErrAmountNegative    = errors.New("Ensure this value is greater than or equal to 0.")
	ErrAmountDecimals    = errors.New("Ensure that there are no more than 2 decimal places.")
	ErrAmountTotalDigits = errors.New("Ensure that there are no more than 11 digits in total.")
	ErrAmountWholeDigits = errors.New("Ensure that there are no more than 9 digits before the decimal point.")
)

const (
	maxAmountDigits   = 11
	maxAmountDecimals = 2
)

// ParseAmount parses a decimal string such as "12", "12.5" or "0.07" into
// cents. Digits are counted like a decimal column with precision 11 and
// scale 2: leading zeros are free, written decimal places count even when
// they are zeros, so "1.500" has three.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrAmountNotNumber
	}
	if strings.HasPrefix(s, "-") {
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return 0, ErrAmountNegative
		}
		return 0, ErrAmountNotNumber
	}
	s = strings.TrimPrefix(s, "+")

	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" && (!hasDot || frac == "") {
		return 0, ErrAmountNotNumber
	}
	if !isDigits(whole) || !isDigits(frac) {
		return 0, ErrAmountNotNumber
	}

	digits, decimals := countDigits(whole, frac)
	switch {
	case digits > maxAmountDigits:
		return 0, ErrAmountTotalDigits
	case decimals > maxAmountDecimals:
		return 0, ErrAmountDecimals
	case digits-decimals > maxAmountDigits-maxAmountDecimals:
		return 0, ErrAmountWholeDigits
	}

	var cents int64
	if whole = strings.TrimLeft(whole, "0"); whole != "" {
		w, err := strconv.ParseInt(whole, 10, 64)
		if err != nil {
			return 0, ErrAmountNotNumber
		}
		cents = w * 100
	}
	f, err := strconv.ParseInt((frac + "00")[:2], 10, 64)
	if err != nil {
		return 0, ErrAmountNotNumber
	}
	return cents + f, nil
}

// countDigits returns the significant digits and decimal places of
// whole.frac. The coefficient drops leading zeros, a zero coefficient is one
// digit, and decimal places past the coefficient count as digits too.
func countDigits(whole, frac string) (digits, decimals int) {
	coefficient := len(strings.TrimLeft(whole+frac, "0"))
	decimals = len(frac)
	if decimals == 0 {
		return coefficient, 0
	}
	if coefficient == 0 {
		coefficient = 1
	}
	if decimals > coefficient {
		return decimals, decimals
	}
	return coefficient, decimals
}

// FormatAmount renders cents with two decimal places, e.g. 1234 -> "12.34".
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// FormatMoney renders cents with thousand separators and the currency code.
func FormatMoney(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s.%02d %s", sign, formatThousand(cents/100), cents%100, currency)
}

func formatThousand(n int64) string {
	if n == 0 {
		return "0"
	}
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	return out.String()
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
