package model

import "time"

// Statistics 任意时间段内已平仓交易的统计指标
type Statistics struct {
	TotalTrades  int     `json:"total_trades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"` // wins/total*100
	TotalPnl     float64 `json:"total_pnl"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	BestTrade    float64 `json:"best_trade"`
	WorstTrade   float64 `json:"worst_trade"`
	ProfitFactor float64 `json:"profit_factor"` // 总盈利/|总亏损|，无亏损时等于总盈利
	AvgTrade     float64 `json:"avg_trade"`
}

// RealizedPnl 已实现盈亏汇总
type RealizedPnl struct {
	TotalNetPnl  float64 `json:"total_net_pnl"`
	TotalCapital float64 `json:"total_capital"`
	PnlPercent   float64 `json:"pnl_percent"`
	TradeCount   int     `json:"trade_count"`
}

// PairPerformance 按交易对汇总的表现
type PairPerformance struct {
	Pair   string  `json:"pair"` // BASE/QUOTE
	Pnl    float64 `json:"pnl"`
	Trades int     `json:"trades"`
}

// Drawdown 回撤指标，基于平仓顺序的累计净值曲线
type Drawdown struct {
	MaxDrawdown        float64 `json:"max_drawdown"`         // 峰值到谷底的最大差值，非负
	MaxDrawdownPercent float64 `json:"max_drawdown_percent"` // 占峰值百分比，峰值<=0时为0
	CurrentDrawdown    float64 `json:"current_drawdown"`     // 峰值减最终净值
}

// Streak 连胜连败统计
// Current: 从最近一笔向前数的同号连续笔数，正为连胜负为连败，无交易为0
type Streak struct {
	Current     int `json:"current"`
	LongestWin  int `json:"longest_win"`
	LongestLoss int `json:"longest_loss"`
}

// GroupPerformance 按交易所/周期等维度的分组汇总，仅用于展示
type GroupPerformance struct {
	Key    string  `json:"key"`
	Pnl    float64 `json:"pnl"`
	Trades int     `json:"trades"`
}

// EquityPoint 净值曲线上的一个点
type EquityPoint struct {
	Timestamp     time.Time `json:"timestamp"`
	CumulativePnl float64   `json:"cumulative_pnl"`
}

// TradeHistoryItem 日报里的单笔交易摘要
type TradeHistoryItem struct {
	GroupID       string  `json:"group_id"`
	Exchange      string  `json:"exchange"`
	Pair          string  `json:"pair"`
	Timeframe     string  `json:"timeframe"`
	PyramidsCount int     `json:"pyramids_count"`
	PnlQuote      float64 `json:"pnl_quote"`
	PnlPercent    float64 `json:"pnl_percent"`
}

// DailyReportData 一天的完整日报
type DailyReportData struct {
	Date          string             `json:"date"`
	TotalTrades   int                `json:"total_trades"`
	TotalPyramids int                `json:"total_pyramids"`
	TotalPnlQuote float64            `json:"total_pnl_quote"`
	TotalPnlPct   float64            `json:"total_pnl_percent"`
	Trades        []TradeHistoryItem `json:"trades"`
	ByExchange    []GroupPerformance `json:"by_exchange"`
	ByTimeframe   []GroupPerformance `json:"by_timeframe"`
	ByPair        []GroupPerformance `json:"by_pair"`
	EquityPoints  []EquityPoint      `json:"equity_points"`
}
