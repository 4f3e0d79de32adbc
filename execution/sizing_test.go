package execution

import (
	"math"
	"testing"
)

func TestAdjustToContractSize(t *testing.T) {
	tests := []struct {
		name         string
		qty          float64
		contractSize float64
		want         float64
	}{
		{"below one contract", 7, 10, 0},
		{"exact multiple", 500, 10, 500},
		{"floors to multiple", 25, 10, 20},
		{"fractional contract size", 3.7, 0.5, 3.5},
		{"zero qty", 0, 10, 0},
		{"bad contract size", 100, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AdjustToContractSize(tt.qty, tt.contractSize); got != tt.want {
				t.Errorf("AdjustToContractSize(%v, %v) = %v, want %v", tt.qty, tt.contractSize, got, tt.want)
			}
		})
	}
}

func TestAdjustToContractSizeIsLargestMultiple(t *testing.T) {
	const contractSize = 10.0
	for qty := 1.0; qty < 100; qty += 3.7 {
		got := AdjustToContractSize(qty, contractSize)
		if got > qty {
			t.Fatalf("AdjustToContractSize(%v) = %v exceeds the input", qty, got)
		}
		if rem := math.Mod(got, contractSize); rem != 0 {
			t.Fatalf("AdjustToContractSize(%v) = %v is not a contract multiple", qty, got)
		}
		if got+contractSize <= qty {
			t.Fatalf("AdjustToContractSize(%v) = %v is not the largest multiple", qty, got)
		}
	}
}

func TestUSDQuantity(t *testing.T) {
	tests := []struct {
		name    string
		balance float64
		price   float64
		buffer  float64
		want    float64
	}{
		{"typical balance", 0.731, 64123.5, 10, 46864},
		{"buffer consumes everything", 0.0001, 50000, 10, 0},
		{"zero balance", 0, 64000, 10, 0},
		{"negative price", 1, -1, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := USDQuantity(tt.balance, tt.price, tt.buffer); got != tt.want {
				t.Errorf("USDQuantity(%v, %v, %v) = %v, want %v", tt.balance, tt.price, tt.buffer, got, tt.want)
			}
		})
	}
}

func TestRoundToTick(t *testing.T) {
	tests := []struct {
		price float64
		tick  float64
		want  float64
	}{
		{50000.3, 0.5, 50000.5},
		{50000.2, 0.5, 50000.0},
		{58352.203, 0.5, 58352.0},
		{69894.397, 0.5, 69894.5},
		{101.3, 0, 101.3}, // unusable tick passes through
	}
	for _, tt := range tests {
		if got := RoundToTick(tt.price, tt.tick); got != tt.want {
			t.Errorf("RoundToTick(%v, %v) = %v, want %v", tt.price, tt.tick, got, tt.want)
		}
	}
}
