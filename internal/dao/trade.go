package dao

import (
	"context"
	"errors"
	"time"

	"pyraledger/internal/model/entity"
)

// ErrOpenTradeConflict 并发请求已为同一个key创建了open交易（open_key唯一索引冲突）
var ErrOpenTradeConflict = errors.New("open trade already exists for this key")

type TradeDao interface {

	// 查找某个key当前open状态的交易，没有返回nil
	GetOpenTrade(ctx context.Context, exchange, base, quote, timeframe string) (*entity.Trade, error)
	// 创建新交易，open_key冲突时返回ErrOpenTradeConflict
	CreateTrade(ctx context.Context, trade *entity.Trade) error
	GetTradeByID(ctx context.Context, id string) (*entity.Trade, error)
	// 平仓：置closed状态、写入总盈亏并清除open_key，只会生效一次
	CloseTrade(ctx context.Context, tradeID string, closedAt time.Time, totalPnl, totalPercent float64) error
	// 最近的交易（含open），按创建时间倒序
	GetRecentTrades(ctx context.Context, limit int) ([]entity.Trade, error)

	// 事务性地取下一个组序号，每个 (base, exchange, timeframe) 独立自增
	NextGroupSequence(ctx context.Context, base, exchange, timeframe string) (int, error)

	// 按pyramid_index升序返回交易的所有pyramid
	GetPyramids(ctx context.Context, tradeID string) ([]entity.Pyramid, error)
	AddPyramid(ctx context.Context, pyramid *entity.Pyramid) error
	// 平仓时写入单个pyramid的盈亏
	UpdatePyramidPnl(ctx context.Context, pyramidID string, pnl, percent float64) error

	// 写入平仓记录；该交易已有平仓记录时返回false（重复的exit信号）
	AddExit(ctx context.Context, exit *entity.Exit) (bool, error)
	GetExit(ctx context.Context, tradeID string) (*entity.Exit, error)
}
