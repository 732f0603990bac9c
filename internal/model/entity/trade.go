package entity

import (
	"time"
)

// Trade 一次完整的建仓周期，从第一笔入场到唯一的一次离场
// 同一个 (exchange, base, quote, timeframe) 同时只允许一笔open状态的交易，
// 由 open_key 唯一索引保证（平仓时置NULL，MySQL唯一索引允许多个NULL）
type Trade struct {
	ID string `gorm:"primaryKey;type:varchar(36)"`

	GroupId   string `gorm:"column:group_id;type:varchar(64);not null;index:idx_group_id"`
	Exchange  string `gorm:"type:varchar(20);not null;index:idx_exchange"`
	Base      string `gorm:"type:varchar(20);not null"`
	Quote     string `gorm:"type:varchar(20);not null"`
	Timeframe string `gorm:"type:varchar(20);not null"`

	OpenKey *string `gorm:"column:open_key;type:varchar(80);uniqueIndex:uk_open_key"`

	Status    string     `gorm:"type:varchar(10);not null;index:idx_status"` // open/closed
	CreatedAt time.Time  `gorm:"column:created_at;not null"`
	ClosedAt  *time.Time `gorm:"column:closed_at;index:idx_closed_at"`

	TotalPnlQuote   *float64 `gorm:"column:total_pnl_quote;type:double"`
	TotalPnlPercent *float64 `gorm:"column:total_pnl_percent;type:double"`
}

func (Trade) TableName() string {
	return "trades"
}

// OpenKeyOf 生成open_key，如 kucoin:ETH/USDT:1h
func OpenKeyOf(exchange, base, quote, timeframe string) string {
	return exchange + ":" + base + "/" + quote + ":" + timeframe
}

// Pyramid 交易内的一笔增量入场
type Pyramid struct {
	ID      string `gorm:"primaryKey;type:varchar(36)"`
	TradeID string `gorm:"column:trade_id;type:varchar(36);not null;index:idx_trade_id"`

	PyramidIndex int     `gorm:"column:pyramid_index;not null"` // 0-based，按入场顺序递增无空洞
	EntryPrice   float64 `gorm:"column:entry_price;type:double;not null"`
	PositionSize float64 `gorm:"column:position_size;type:double;not null"` // base币数量
	CapitalQuote float64 `gorm:"column:capital_quote;type:double;not null"` // 精度取整后的实际投入

	EntryTime time.Time `gorm:"column:entry_time;not null"`
	FeeRate   float64   `gorm:"column:fee_rate;type:double;not null"`
	FeeQuote  float64   `gorm:"column:fee_quote;type:double;not null"` // 入场手续费

	PnlQuote   *float64 `gorm:"column:pnl_quote;type:double"` // 平仓时写入，只写一次
	PnlPercent *float64 `gorm:"column:pnl_percent;type:double"`

	ExchangeTimestamp string    `gorm:"column:exchange_timestamp;type:varchar(40)"` // 信号源时间
	ReceivedTimestamp time.Time `gorm:"column:received_timestamp"`                  // 接收时间
}

func (Pyramid) TableName() string {
	return "pyramids"
}

// Exit 交易的平仓记录，每笔交易最多一条
type Exit struct {
	ID      string `gorm:"primaryKey;type:varchar(36)"`
	TradeID string `gorm:"column:trade_id;type:varchar(36);not null;uniqueIndex:uk_exit_trade_id"`

	ExitPrice float64   `gorm:"column:exit_price;type:double;not null"`
	ExitTime  time.Time `gorm:"column:exit_time;not null"`
	FeeQuote  float64   `gorm:"column:fee_quote;type:double;not null"` // 所有pyramid的离场手续费合计

	ExchangeTimestamp string    `gorm:"column:exchange_timestamp;type:varchar(40)"`
	ReceivedTimestamp time.Time `gorm:"column:received_timestamp"`
}

func (Exit) TableName() string {
	return "exits"
}
