package service

import (
	"math"
	"testing"
	"time"

	"pyraledger/internal/model/entity"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPositionSize(t *testing.T) {
	tests := []struct {
		name      string
		capital   float64
		price     float64
		precision int
		want      float64
	}{
		{"整除", 5000, 50000, 4, 0.1},
		{"按精度取整", 1000, 2301.5, 4, 0.4345},
		{"价格为0", 1000, 0, 4, 0},
		{"零精度", 1000, 3, 0, 333},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PositionSize(tt.capital, tt.price, tt.precision)
			if !almostEqual(got, tt.want) {
				t.Errorf("PositionSize(%v, %v, %d) = %v, want %v", tt.capital, tt.price, tt.precision, got, tt.want)
			}
		})
	}
}

func TestSettleSinglePyramid(t *testing.T) {
	entryTime := time.Date(2026, 1, 20, 9, 30, 0, 0, time.UTC)
	pyramids := []entity.Pyramid{
		{
			PyramidIndex: 0,
			EntryPrice:   50000,
			PositionSize: 0.1,
			CapitalQuote: 5000,
			EntryTime:    entryTime,
			FeeRate:      0.001,
			FeeQuote:     5.0,
		},
	}

	st := Settle(pyramids, 51000, 0.001)

	if len(st.Legs) != 1 {
		t.Fatalf("legs = %d, want 1", len(st.Legs))
	}
	leg := st.Legs[0]
	if !almostEqual(leg.GrossPnl, 100.0) {
		t.Errorf("gross = %v, want 100.00", leg.GrossPnl)
	}
	if !almostEqual(leg.ExitFee, 5.10) {
		t.Errorf("exit fee = %v, want 5.10", leg.ExitFee)
	}
	if !almostEqual(leg.NetPnl, 89.90) {
		t.Errorf("net = %v, want 89.90", leg.NetPnl)
	}
	if math.Abs(leg.PnlPercent-1.798) > 1e-9 {
		t.Errorf("pct = %v, want 1.798", leg.PnlPercent)
	}
	if !almostEqual(st.NetPnl, 89.90) || !almostEqual(st.TotalCapital, 5000) {
		t.Errorf("totals: net=%v capital=%v", st.NetPnl, st.TotalCapital)
	}
}

// 价格没动也会亏掉两边的手续费
func TestSettleBreakeven(t *testing.T) {
	pyramids := []entity.Pyramid{
		{
			PyramidIndex: 0,
			EntryPrice:   50000,
			PositionSize: 0.1,
			CapitalQuote: 5000,
			FeeRate:      0.001,
			FeeQuote:     5.0,
		},
	}

	st := Settle(pyramids, 50000, 0.001)
	if !almostEqual(st.GrossPnl, 0) {
		t.Errorf("gross = %v, want 0", st.GrossPnl)
	}
	if !almostEqual(st.NetPnl, -10.0) {
		t.Errorf("net = %v, want -10.00", st.NetPnl)
	}
}

func TestSettleMultiplePyramids(t *testing.T) {
	pyramids := []entity.Pyramid{
		{PyramidIndex: 0, EntryPrice: 50000, PositionSize: 0.1, CapitalQuote: 5000, FeeQuote: 5.0},
		{PyramidIndex: 1, EntryPrice: 50500, PositionSize: 0.05, CapitalQuote: 2525, FeeQuote: 2.525},
	}

	st := Settle(pyramids, 51000, 0.001)

	// 腿1: gross 100, exitFee 5.1, net 89.9
	// 腿2: gross 25, exitFee 2.55, net 19.925
	if !almostEqual(st.GrossPnl, 125.0) {
		t.Errorf("gross = %v, want 125", st.GrossPnl)
	}
	if !almostEqual(st.NetPnl, 89.9+19.925) {
		t.Errorf("net = %v, want %v", st.NetPnl, 89.9+19.925)
	}
	if !almostEqual(st.TotalCapital, 7525) {
		t.Errorf("capital = %v, want 7525", st.TotalCapital)
	}
	wantPct := st.NetPnl / 7525 * 100
	if !almostEqual(st.NetPnlPct, wantPct) {
		t.Errorf("pct = %v, want %v", st.NetPnlPct, wantPct)
	}
}

// 投入为0时百分比按0处理，不产生NaN
func TestSettleZeroCapital(t *testing.T) {
	pyramids := []entity.Pyramid{
		{PyramidIndex: 0, EntryPrice: 100, PositionSize: 0, CapitalQuote: 0, FeeQuote: 0},
	}
	st := Settle(pyramids, 110, 0.001)
	if st.Legs[0].PnlPercent != 0 {
		t.Errorf("pct = %v, want 0", st.Legs[0].PnlPercent)
	}
	if st.NetPnlPct != 0 {
		t.Errorf("total pct = %v, want 0", st.NetPnlPct)
	}
}

func TestSettleEmpty(t *testing.T) {
	st := Settle(nil, 51000, 0.001)
	if len(st.Legs) != 0 || st.NetPnl != 0 || st.NetPnlPct != 0 {
		t.Errorf("empty settle = %+v", st)
	}
}
