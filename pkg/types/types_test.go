package types

import "testing"

func TestTickSizeDecimals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tick TickSize
		want int
	}{
		{Tick01, 1},
		{Tick001, 2},
		{Tick0001, 3},
		{Tick00001, 4},
		{TickSize("unknown"), 2}, // default
	}

	for _, tt := range tests {
		if got := tt.tick.Decimals(); got != tt.want {
			t.Errorf("TickSize(%q).Decimals() = %d, want %d", tt.tick, got, tt.want)
		}
	}
}

func TestTickSizeAmountDecimals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tick TickSize
		want int
	}{
		{Tick01, 3},
		{Tick001, 4},
		{Tick0001, 5},
		{Tick00001, 6},
		{TickSize("unknown"), 4}, // default
	}

	for _, tt := range tests {
		if got := tt.tick.AmountDecimals(); got != tt.want {
			t.Errorf("TickSize(%q).AmountDecimals() = %d, want %d", tt.tick, got, tt.want)
		}
	}
}

func TestTickSizeFloat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tick TickSize
		want float64
	}{
		{Tick01, 0.1},
		{Tick001, 0.01},
		{Tick0001, 0.001},
		{Tick00001, 0.0001},
		{TickSize(""), 0.01},
		{TickSize("unknown"), 0.01},
	}

	for _, tt := range tests {
		if got := tt.tick.Float(); got != tt.want {
			t.Errorf("TickSize(%q).Float() = %v, want %v", tt.tick, got, tt.want)
		}
	}
}
