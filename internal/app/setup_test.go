package app

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mselser95/polymarket-arb/internal/corex"
)

func TestUSDCToDecimal(t *testing.T) {
	tests := []struct {
		name string
		raw  *big.Int
		want string
	}{
		{name: "nil-balance", raw: nil, want: "0"},
		{name: "zero", raw: big.NewInt(0), want: "0"},
		{name: "whole-dollars", raw: big.NewInt(1_000_000), want: "1"},
		{name: "fractional-cents", raw: big.NewInt(1_234_567), want: "1.234567"},
		{name: "sub-dollar", raw: big.NewInt(500_000), want: "0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := usdcToDecimal(tt.raw)
			want := corex.MustParse(tt.want)
			assert.True(t, got.Equal(want), "usdcToDecimal(%v) = %s, want %s", tt.raw, got.String(), want.String())
		})
	}
}
