package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mselser95/polymarket-arb/internal/corex"
)

func TestRoundToTick(t *testing.T) {
	tests := []struct {
		name     string
		price    corex.Decimal
		tickSize float64
		want     string
	}{
		{name: "already-on-grid", price: corex.MustParse("0.57"), tickSize: 0.01, want: "0.57"},
		{name: "rounds-down", price: corex.MustParse("0.573"), tickSize: 0.01, want: "0.57"},
		{name: "rounds-up", price: corex.MustParse("0.576"), tickSize: 0.01, want: "0.58"},
		{name: "finer-grid", price: corex.MustParse("0.5734"), tickSize: 0.001, want: "0.573"},
		{name: "zero-tick-is-noop", price: corex.MustParse("0.5734"), tickSize: 0, want: "0.5734"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roundToTick(tt.price, tt.tickSize)
			want := corex.MustParse(tt.want)
			assert.True(t, got.Equal(want), "roundToTick(%s, %v) = %s, want %s",
				tt.price.String(), tt.tickSize, got.String(), want.String())
		})
	}
}
