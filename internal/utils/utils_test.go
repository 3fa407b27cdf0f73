package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func TestParseUnits(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *big.Int
		wantErr bool
	}{
		{name: "whole number", input: "10", want: ether(10)},
		{name: "fraction", input: "0.5", want: new(big.Int).Div(ether(1), big.NewInt(2))},
		{name: "leading dot", input: ".25", want: new(big.Int).Div(ether(1), big.NewInt(4))},
		{name: "trailing dot", input: "3.", want: ether(3)},
		{name: "smallest unit", input: "0.000000000000000001", want: big.NewInt(1)},
		{name: "surrounding spaces", input: " 7 ", want: ether(7)},
		{name: "zero", input: "0", want: new(big.Int)},
		{name: "empty", input: "", wantErr: true},
		{name: "dot only", input: ".", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "exponent", input: "1e18", wantErr: true},
		{name: "two dots", input: "1.2.3", wantErr: true},
		{name: "too many decimals", input: "0.0000000000000000001", wantErr: true},
		{name: "letters", input: "ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUnits(tt.input, 18)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 0, tt.want.Cmp(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestParsePositiveUnits(t *testing.T) {
	_, err := ParsePositiveUnits("0.0", 18)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	v, err := ParsePositiveUnits("10", 18)
	require.NoError(t, err)
	assert.Equal(t, 0, ether(10).Cmp(v))
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "10.0", FormatUnits(ether(10), 18))
	assert.Equal(t, "0.0", FormatUnits(nil, 18))
	assert.Equal(t, "0.5", FormatUnits(new(big.Int).Div(ether(1), big.NewInt(2)), 18))
	assert.Equal(t, "0.000000000000000001", FormatUnits(big.NewInt(1), 18))
	assert.Equal(t, "-2.0", FormatUnits(ether(-2), 18))

	v, err := ParseUnits("1234.5678", 18)
	require.NoError(t, err)
	assert.Equal(t, "1234.5678", FormatUnits(v, 18))
}

func TestFormatEther(t *testing.T) {
	assert.Equal(t, "10.00", FormatEther(ether(10), 2))
	assert.Equal(t, "0.00", FormatEther(nil, 2))

	v, err := ParseUnits("1.23456", 18)
	require.NoError(t, err)
	assert.Equal(t, "1.2346", FormatEther(v, 4))
}
