package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"pyraledger/internal/consts"
	"pyraledger/internal/dao"
	"pyraledger/internal/model/entity"
)

type tradeDao struct {
	db *gorm.DB
}

func NewTradeDao(db *gorm.DB) dao.TradeDao {
	return &tradeDao{db: db}
}

func (r *tradeDao) GetOpenTrade(ctx context.Context, exchange, base, quote, timeframe string) (*entity.Trade, error) {
	var trade entity.Trade
	result := r.db.WithContext(ctx).
		Where("exchange = ? AND base = ? AND quote = ? AND timeframe = ? AND status = ?",
			exchange, base, quote, timeframe, consts.TradeStatusOpen).
		Order("created_at DESC").
		Limit(1).
		Find(&trade)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get open trade: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &trade, nil
}

func (r *tradeDao) CreateTrade(ctx context.Context, trade *entity.Trade) error {
	if err := r.db.WithContext(ctx).Create(trade).Error; err != nil {
		// open_key唯一索引兜底：并发请求同时创建同一个key的交易
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dao.ErrOpenTradeConflict
		}
		return fmt.Errorf("failed to create trade: %w", err)
	}
	return nil
}

func (r *tradeDao) GetTradeByID(ctx context.Context, id string) (*entity.Trade, error) {
	var trade entity.Trade
	result := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&trade)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get trade %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &trade, nil
}

// CloseTrade 平仓只对open状态生效，closed_at和总盈亏同时写入且只写一次
func (r *tradeDao) CloseTrade(ctx context.Context, tradeID string, closedAt time.Time, totalPnl, totalPercent float64) error {
	result := r.db.WithContext(ctx).Model(&entity.Trade{}).
		Where("id = ? AND status = ?", tradeID, consts.TradeStatusOpen).
		Updates(map[string]interface{}{
			"status":            consts.TradeStatusClosed,
			"closed_at":         closedAt,
			"total_pnl_quote":   totalPnl,
			"total_pnl_percent": totalPercent,
			"open_key":          nil,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to close trade %s: %w", tradeID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("trade %s is not open", tradeID)
	}
	return nil
}

func (r *tradeDao) GetRecentTrades(ctx context.Context, limit int) ([]entity.Trade, error) {
	var trades []entity.Trade
	if limit <= 0 {
		limit = consts.DefaultTradesLimit
	}
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recent trades: %w", err)
	}
	return trades, nil
}

// NextGroupSequence 在一个事务里自增并读回序号
// MySQL的 ON DUPLICATE KEY UPDATE 保证并发下不重号
func (r *tradeDao) NextGroupSequence(ctx context.Context, base, exchange, timeframe string) (int, error) {
	var seq int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"INSERT INTO group_sequences (base, exchange, timeframe, seq) VALUES (?, ?, ?, 1)"+
				" ON DUPLICATE KEY UPDATE seq = seq + 1",
			base, exchange, timeframe,
		).Error; err != nil {
			return err
		}
		return tx.Model(&entity.GroupSequence{}).
			Select("seq").
			Where("base = ? AND exchange = ? AND timeframe = ?", base, exchange, timeframe).
			Scan(&seq).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to advance group sequence: %w", err)
	}
	return seq, nil
}

func (r *tradeDao) GetPyramids(ctx context.Context, tradeID string) ([]entity.Pyramid, error) {
	var pyramids []entity.Pyramid
	err := r.db.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Order("pyramid_index ASC").
		Find(&pyramids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get pyramids for trade %s: %w", tradeID, err)
	}
	return pyramids, nil
}

func (r *tradeDao) AddPyramid(ctx context.Context, pyramid *entity.Pyramid) error {
	if err := r.db.WithContext(ctx).Create(pyramid).Error; err != nil {
		return fmt.Errorf("failed to add pyramid: %w", err)
	}
	return nil
}

func (r *tradeDao) UpdatePyramidPnl(ctx context.Context, pyramidID string, pnl, percent float64) error {
	err := r.db.WithContext(ctx).Model(&entity.Pyramid{}).
		Where("id = ?", pyramidID).
		Updates(map[string]interface{}{
			"pnl_quote":   pnl,
			"pnl_percent": percent,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update pyramid pnl: %w", err)
	}
	return nil
}

// AddExit 已有平仓记录时返回false，调用方按重复信号处理
func (r *tradeDao) AddExit(ctx context.Context, exit *entity.Exit) (bool, error) {
	if err := r.db.WithContext(ctx).Create(exit).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("failed to add exit: %w", err)
	}
	return true, nil
}

func (r *tradeDao) GetExit(ctx context.Context, tradeID string) (*entity.Exit, error) {
	var exit entity.Exit
	result := r.db.WithContext(ctx).Where("trade_id = ?", tradeID).Limit(1).Find(&exit)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get exit for trade %s: %w", tradeID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &exit, nil
}
