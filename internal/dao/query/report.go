package query

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pyraledger/internal/consts"
	"pyraledger/internal/dao"
	"pyraledger/internal/model/entity"
)

type reportDao struct {
	db *gorm.DB
}

func NewReportDao(db *gorm.DB) dao.ReportDao {
	return &reportDao{db: db}
}

// GetClosedTrades 所有周期类查询的唯一数据来源，按平仓时间升序
func (r *reportDao) GetClosedTrades(ctx context.Context, start, end *time.Time, limit int) ([]entity.Trade, error) {
	var trades []entity.Trade

	query := r.db.WithContext(ctx).
		Where("status = ?", consts.TradeStatusClosed)
	if start != nil {
		query = query.Where("closed_at >= ?", *start)
	}
	if end != nil {
		query = query.Where("closed_at <= ?", *end)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Order("closed_at ASC").Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get closed trades: %w", err)
	}
	return trades, nil
}

func (r *reportDao) FindClosedTradeInWindow(ctx context.Context, exchange, base, quote, timeframe string, center time.Time, window time.Duration) (*entity.Trade, error) {
	var trade entity.Trade
	result := r.db.WithContext(ctx).
		Where("exchange = ? AND base = ? AND quote = ? AND timeframe = ? AND status = ?",
			exchange, base, quote, timeframe, consts.TradeStatusClosed).
		Where("closed_at >= ? AND closed_at <= ?", center.Add(-window), center.Add(window)).
		Limit(1).
		Find(&trade)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find closed trade in window: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &trade, nil
}

func (r *reportDao) SaveDailyReport(ctx context.Context, report *entity.DailyReport) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(report).Error
	if err != nil {
		return fmt.Errorf("failed to save daily report %s: %w", report.Date, err)
	}
	return nil
}

func (r *reportDao) GetDailyReport(ctx context.Context, date string) (*entity.DailyReport, error) {
	var report entity.DailyReport
	result := r.db.WithContext(ctx).Where("date = ?", date).Limit(1).Find(&report)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get daily report %s: %w", date, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &report, nil
}
