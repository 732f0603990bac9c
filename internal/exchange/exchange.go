package exchange

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrPriceUnavailable 行情接口不可用或币对未上市
	ErrPriceUnavailable = errors.New("price unavailable")
	// ErrRulesUnavailable 交易规则查询失败且无本地兜底
	ErrRulesUnavailable = errors.New("symbol rules unavailable")
)

// PriceData 一次行情快照
type PriceData struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// Rules 币对的交易规则，用于仓位数量的精度处理
type Rules struct {
	PricePrecision int     `json:"price_precision"`
	QtyPrecision   int     `json:"qty_precision"`
	MinQty         float64 `json:"min_qty"`
	MinNotional    float64 `json:"min_notional"`
	TickSize       float64 `json:"tick_size"`
}

// Quoter 行情能力抽象，记账只读行情，不下单
type Quoter interface {
	GetPrice(ctx context.Context, base, quote string) (*PriceData, error)
	GetRules(ctx context.Context, base, quote string) (*Rules, error)
}

// DefaultRules 规则查不到时的保守精度
func DefaultRules() *Rules {
	return &Rules{
		PricePrecision: 8,
		QtyPrecision:   8,
		MinQty:         0,
		MinNotional:    0,
		TickSize:       0,
	}
}
