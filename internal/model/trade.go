package model

import (
	"time"

	"pyraledger/internal/model/entity"
)

// TradeResult 一次信号处理的结果，webhook handler据此构造响应
type TradeResult struct {
	Success bool
	Message string
	TradeID string
	GroupID string
	Price   float64
	Err     error // 非nil时Success为false
}

// PyramidEntryData 入场事件的下游通知数据
type PyramidEntryData struct {
	GroupID           string    `json:"group_id"`
	PyramidIndex      int       `json:"pyramid_index"`
	Exchange          string    `json:"exchange"`
	Symbol            string    `json:"symbol"` // 交易所原生格式，下游下单直接用
	Base              string    `json:"base"`
	Quote             string    `json:"quote"`
	Timeframe         string    `json:"timeframe"`
	EntryPrice        float64   `json:"entry_price"`
	PositionSize      float64   `json:"position_size"`
	CapitalQuote      float64   `json:"capital_quote"` // 精度取整后的实际投入
	ExchangeTimestamp string    `json:"exchange_timestamp"`
	ReceivedTimestamp time.Time `json:"received_timestamp"`
	TotalPyramids     int       `json:"total_pyramids"`
}

// PyramidLeg 平仓时单个pyramid的结算明细
type PyramidLeg struct {
	Index        int       `json:"index"`
	EntryPrice   float64   `json:"entry_price"`
	EntryTime    time.Time `json:"entry_time"`
	Size         float64   `json:"size"`
	CapitalQuote float64   `json:"capital_quote"`
	GrossPnl     float64   `json:"gross_pnl"`
	EntryFee     float64   `json:"entry_fee"`
	ExitFee      float64   `json:"exit_fee"`
	NetPnl       float64   `json:"net_pnl"`
	PnlPercent   float64   `json:"pnl_percent"`
}

// TradeClosedData 平仓事件的下游通知数据
type TradeClosedData struct {
	TradeID           string       `json:"trade_id"`
	GroupID           string       `json:"group_id"`
	Exchange          string       `json:"exchange"`
	Symbol            string       `json:"symbol"` // 交易所原生格式
	Base              string       `json:"base"`
	Quote             string       `json:"quote"`
	Timeframe         string       `json:"timeframe"`
	Pyramids          []PyramidLeg `json:"pyramids"`
	ExitPrice         float64      `json:"exit_price"`
	ExitTime          time.Time    `json:"exit_time"`
	GrossPnl          float64      `json:"gross_pnl"`
	TotalFees         float64      `json:"total_fees"`
	NetPnl            float64      `json:"net_pnl"`
	NetPnlPercent     float64      `json:"net_pnl_percent"`
	TotalCapital      float64      `json:"total_capital"`
	ExchangeTimestamp string       `json:"exchange_timestamp"`
	ReceivedTimestamp time.Time    `json:"received_timestamp"`
}

// TradeDetail 交易详情（含所有pyramid和平仓记录）
type TradeDetail struct {
	Trade    entity.Trade     `json:"trade"`
	Pyramids []entity.Pyramid `json:"pyramids"`
	Exit     *entity.Exit     `json:"exit"`
}
