package entity

import "time"

// Setting 运行时开关的KV存储（暂停、忽略的交易对等）
type Setting struct {
	Key       string    `gorm:"primaryKey;column:key_name;type:varchar(64)"`
	Value     string    `gorm:"column:value;type:text"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// ProcessedAlert 已处理信号的order_id，幂等保护
type ProcessedAlert struct {
	AlertID     string    `gorm:"primaryKey;column:alert_id;type:varchar(64)"`
	ProcessedAt time.Time `gorm:"column:processed_at;not null"`
}

func (ProcessedAlert) TableName() string {
	return "processed_alerts"
}

// SymbolRule 交易所的币对交易规则，数据库留一份兜底，redis做热缓存
type SymbolRule struct {
	Exchange string `gorm:"primaryKey;type:varchar(20)"`
	Base     string `gorm:"primaryKey;type:varchar(20)"`
	Quote    string `gorm:"primaryKey;type:varchar(20)"`

	PricePrecision int     `gorm:"column:price_precision"`
	QtyPrecision   int     `gorm:"column:qty_precision"`
	MinQty         float64 `gorm:"column:min_qty;type:double"`
	MinNotional    float64 `gorm:"column:min_notional;type:double"`
	TickSize       float64 `gorm:"column:tick_size;type:double"`

	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (SymbolRule) TableName() string {
	return "symbol_rules"
}
