package service

import (
	"testing"

	"pyraledger/internal/model/entity"
)

func closedTrade(pnl float64) entity.Trade {
	return entity.Trade{TotalPnlQuote: &pnl}
}

func TestComputeStatistics(t *testing.T) {
	trades := []entity.Trade{
		closedTrade(100),
		closedTrade(-50),
		closedTrade(200),
		closedTrade(-30),
		closedTrade(0), // 零盈亏按亏损计
	}

	st := computeStatistics(trades)

	if st.TotalTrades != 5 || st.Wins != 2 || st.Losses != 3 {
		t.Fatalf("counts: total=%d wins=%d losses=%d", st.TotalTrades, st.Wins, st.Losses)
	}
	if !almostEqual(st.WinRate, 40) {
		t.Errorf("win rate = %v, want 40", st.WinRate)
	}
	if !almostEqual(st.TotalPnl, 220) {
		t.Errorf("total pnl = %v, want 220", st.TotalPnl)
	}
	if !almostEqual(st.AvgWin, 150) {
		t.Errorf("avg win = %v, want 150", st.AvgWin)
	}
	if !almostEqual(st.AvgLoss, -80.0/3) {
		t.Errorf("avg loss = %v, want %v", st.AvgLoss, -80.0/3)
	}
	if !almostEqual(st.BestTrade, 200) || !almostEqual(st.WorstTrade, -50) {
		t.Errorf("best=%v worst=%v", st.BestTrade, st.WorstTrade)
	}
	if !almostEqual(st.ProfitFactor, 300.0/80) {
		t.Errorf("profit factor = %v, want %v", st.ProfitFactor, 300.0/80)
	}
}

// 没有亏损时利润因子退化为总盈利
func TestComputeStatisticsNoLosses(t *testing.T) {
	trades := []entity.Trade{closedTrade(100), closedTrade(50)}
	st := computeStatistics(trades)
	if !almostEqual(st.ProfitFactor, 150) {
		t.Errorf("profit factor = %v, want 150", st.ProfitFactor)
	}
	if st.Losses != 0 || st.AvgLoss != 0 {
		t.Errorf("losses=%d avgLoss=%v", st.Losses, st.AvgLoss)
	}
}

func TestComputeStatisticsEmpty(t *testing.T) {
	st := computeStatistics(nil)
	if st.TotalTrades != 0 || st.WinRate != 0 || st.ProfitFactor != 0 {
		t.Errorf("empty stats = %+v", st)
	}
}

func TestComputeDrawdown(t *testing.T) {
	// 净值: 100, 50, 150, 30, 80 -> 峰值150，谷底30
	trades := []entity.Trade{
		closedTrade(100),
		closedTrade(-50),
		closedTrade(100),
		closedTrade(-120),
		closedTrade(50),
	}

	dd := computeDrawdown(trades)
	if !almostEqual(dd.MaxDrawdown, 120) {
		t.Errorf("max drawdown = %v, want 120", dd.MaxDrawdown)
	}
	if !almostEqual(dd.MaxDrawdownPercent, 80) {
		t.Errorf("max drawdown pct = %v, want 80", dd.MaxDrawdownPercent)
	}
	if !almostEqual(dd.CurrentDrawdown, 70) {
		t.Errorf("current drawdown = %v, want 70", dd.CurrentDrawdown)
	}
}

// 一直亏损时峰值非正，百分比按0处理
func TestComputeDrawdownAllLosses(t *testing.T) {
	trades := []entity.Trade{closedTrade(-10), closedTrade(-20)}
	dd := computeDrawdown(trades)
	if !almostEqual(dd.MaxDrawdown, 30) {
		t.Errorf("max drawdown = %v, want 30", dd.MaxDrawdown)
	}
	if dd.MaxDrawdownPercent != 0 {
		t.Errorf("pct = %v, want 0", dd.MaxDrawdownPercent)
	}
}

func TestComputeStreak(t *testing.T) {
	// W W L W L L L -> 最长连胜2，最长连败3，当前-3
	trades := []entity.Trade{
		closedTrade(10), closedTrade(10), closedTrade(-5),
		closedTrade(10), closedTrade(-5), closedTrade(-5), closedTrade(-5),
	}

	st := computeStreak(trades)
	if st.LongestWin != 2 {
		t.Errorf("longest win = %d, want 2", st.LongestWin)
	}
	if st.LongestLoss != 3 {
		t.Errorf("longest loss = %d, want 3", st.LongestLoss)
	}
	if st.Current != -3 {
		t.Errorf("current = %d, want -3", st.Current)
	}
}

func TestComputeStreakCurrentWin(t *testing.T) {
	trades := []entity.Trade{closedTrade(-5), closedTrade(10), closedTrade(10)}
	st := computeStreak(trades)
	if st.Current != 2 {
		t.Errorf("current = %d, want 2", st.Current)
	}
}

func TestComputeStreakEmpty(t *testing.T) {
	st := computeStreak(nil)
	if st.Current != 0 || st.LongestWin != 0 || st.LongestLoss != 0 {
		t.Errorf("empty streak = %+v", st)
	}
}

func TestGroupBy(t *testing.T) {
	pnl1, pnl2, pnl3 := 100.0, -40.0, 60.0
	trades := []entity.Trade{
		{Exchange: "binance", TotalPnlQuote: &pnl1},
		{Exchange: "kucoin", TotalPnlQuote: &pnl2},
		{Exchange: "binance", TotalPnlQuote: &pnl3},
	}

	groups := groupBy(trades, func(t *entity.Trade) string { return t.Exchange })
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	// 按盈亏降序
	if groups[0].Key != "binance" || !almostEqual(groups[0].Pnl, 160) || groups[0].Trades != 2 {
		t.Errorf("first group = %+v", groups[0])
	}
	if groups[1].Key != "kucoin" || !almostEqual(groups[1].Pnl, -40) {
		t.Errorf("second group = %+v", groups[1])
	}
}
