package farm

import (
	"math/big"
	"strings"
)

// FormatUnits renders a fixed-point integer amount as a decimal string
// using the given scale, e.g. FormatUnits(1500000, 6) == "1.5".
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0.0"
	}

	sign := ""
	value := new(big.Int).Set(amount)
	if value.Sign() < 0 {
		sign = "-"
		value.Neg(value)
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(value, scale, new(big.Int))

	digits := frac.String()
	for len(digits) < int(decimals) {
		digits = "0" + digits
	}
	digits = strings.TrimRight(digits, "0")
	if digits == "" {
		digits = "0"
	}

	return sign + whole.String() + "." + digits
}
