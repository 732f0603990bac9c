package entity

import "time"

// GroupSequence 每个 (base, exchange, timeframe) 的自增序号
// 只增不减，进程重启后继续累加
type GroupSequence struct {
	Base      string `gorm:"primaryKey;type:varchar(20)"`
	Exchange  string `gorm:"primaryKey;type:varchar(20)"`
	Timeframe string `gorm:"primaryKey;type:varchar(20)"`
	Seq       int    `gorm:"column:seq;not null"`
}

func (GroupSequence) TableName() string {
	return "group_sequences"
}

// CapitalOverride 按key覆盖某个pyramid的投入资金，一行一个key
// 查不到时使用全局默认值
type CapitalOverride struct {
	Exchange     string  `gorm:"primaryKey;type:varchar(20)"`
	Base         string  `gorm:"primaryKey;type:varchar(20)"`
	Quote        string  `gorm:"primaryKey;type:varchar(20)"`
	Timeframe    string  `gorm:"primaryKey;type:varchar(20)"`
	PyramidIndex int     `gorm:"primaryKey;column:pyramid_index"`
	CapitalQuote float64 `gorm:"column:capital_quote;type:double;not null"`

	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (CapitalOverride) TableName() string {
	return "capital_overrides"
}
