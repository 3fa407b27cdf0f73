package utils

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseUnits converts a decimal string such as "10" or "0.25" into an integer
// amount scaled by 10^decimals. Signs, exponents and more fractional digits
// than decimals are rejected.
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	whole, frac, _ := strings.Cut(s, ".")
	if strings.Contains(frac, ".") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if len(frac) > decimals {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, amount, decimals)
	}

	digits := whole + frac + strings.Repeat("0", decimals-len(frac))
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return new(big.Int), nil
	}

	value, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return value, nil
}

// ParsePositiveUnits is ParseUnits that also rejects zero.
func ParsePositiveUnits(amount string, decimals int) (*big.Int, error) {
	value, err := ParseUnits(amount, decimals)
	if err != nil {
		return nil, err
	}
	if value.Sign() <= 0 {
		return nil, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	return value, nil
}

// FormatUnits renders value / 10^decimals at full precision, keeping at least
// one fractional digit ("10.0", "0.5").
func FormatUnits(value *big.Int, decimals int) string {
	if value == nil {
		value = new(big.Int)
	}

	neg := value.Sign() < 0
	abs := new(big.Int).Abs(value)
	digits := abs.String()
	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}

	whole := digits[:len(digits)-decimals]
	frac := strings.TrimRight(digits[len(digits)-decimals:], "0")
	if frac == "" {
		frac = "0"
	}

	if neg {
		return "-" + whole + "." + frac
	}
	return whole + "." + frac
}

// FormatEther renders a wei amount rounded to the given number of decimal places.
func FormatEther(wei *big.Int, places int) string {
	if wei == nil {
		wei = new(big.Int)
	}
	ether := new(big.Float).SetPrec(256).SetInt(wei)
	ether.Quo(ether, new(big.Float).SetPrec(256).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)))
	return ether.Text('f', places)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
