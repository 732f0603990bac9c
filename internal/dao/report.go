package dao

import (
	"context"
	"time"

	"pyraledger/internal/model/entity"
)

type ReportDao interface {

	// 按平仓日期查询已平仓交易，start/end为nil表示不限
	// 统一按closed_at升序返回，所有聚合查询共用这一条路径，保证口径一致
	GetClosedTrades(ctx context.Context, start, end *time.Time, limit int) ([]entity.Trade, error)

	// 按时间窗口查找某个key的已平仓交易，离线重建时用来判断是否已存在
	FindClosedTradeInWindow(ctx context.Context, exchange, base, quote, timeframe string, center time.Time, window time.Duration) (*entity.Trade, error)

	SaveDailyReport(ctx context.Context, report *entity.DailyReport) error
	GetDailyReport(ctx context.Context, date string) (*entity.DailyReport, error)
}
