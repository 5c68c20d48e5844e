package farm

import (
	"math/big"
	"testing"
)

func TestFormatUnits(t *testing.T) {
	cases := []struct {
		name     string
		amount   *big.Int
		decimals uint8
		want     string
	}{
		{"nil", nil, 6, "0.0"},
		{"zero", big.NewInt(0), 6, "0.0"},
		{"fractional", big.NewInt(1500000), 6, "1.5"},
		{"whole", big.NewInt(3000000), 6, "3.0"},
		{"smallest unit", big.NewInt(1), 6, "0.000001"},
		{"trailing zeros trimmed", big.NewInt(1230000), 6, "1.23"},
		{"negative", big.NewInt(-2500000), 6, "-2.5"},
		{"zero decimals", big.NewInt(42), 0, "42.0"},
		{"eighteen decimals", new(big.Int).Mul(big.NewInt(7), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)), 18, "7.0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatUnits(tc.amount, tc.decimals); got != tc.want {
				t.Fatalf("FormatUnits(%v, %d) = %q, want %q", tc.amount, tc.decimals, got, tc.want)
			}
		})
	}
}

func TestFormatUnitsDoesNotMutateInput(t *testing.T) {
	amount := big.NewInt(-1500000)
	FormatUnits(amount, 6)
	if amount.Cmp(big.NewInt(-1500000)) != 0 {
		t.Fatalf("input mutated to %s", amount)
	}
}
