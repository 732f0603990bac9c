package entity

import (
	"time"

	"gorm.io/datatypes"
)

// DailyReport 日报落库记录，完整内容以JSON形式保存
type DailyReport struct {
	Date string `gorm:"primaryKey;type:varchar(10)"` // YYYY-MM-DD

	TotalTrades   int     `gorm:"column:total_trades"`
	TotalPyramids int     `gorm:"column:total_pyramids"`
	TotalPnlQuote float64 `gorm:"column:total_pnl_quote;type:double"`

	ReportJSON datatypes.JSON `gorm:"column:report_json;type:json"`
	SentAt     time.Time      `gorm:"column:sent_at"`
}

func (DailyReport) TableName() string {
	return "daily_reports"
}
