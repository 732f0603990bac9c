package dao

import (
	"context"

	"pyraledger/internal/model/entity"
)

type SettingsDao interface {

	// KV设置，不存在时返回空字符串
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// order_id幂等记录
	IsAlertProcessed(ctx context.Context, alertID string) (bool, error)
	MarkAlertProcessed(ctx context.Context, alertID string) error

	// 资金覆盖表，精确key查询
	GetCapitalOverride(ctx context.Context, exchange, base, quote, timeframe string, pyramidIndex int) (float64, bool, error)
	SetCapitalOverride(ctx context.Context, override *entity.CapitalOverride) error
	DeleteCapitalOverride(ctx context.Context, exchange, base, quote, timeframe string, pyramidIndex int) error
	ClearCapitalOverrides(ctx context.Context) error
	ListCapitalOverrides(ctx context.Context) ([]entity.CapitalOverride, error)

	// symbol交易规则的数据库兜底存储
	GetSymbolRule(ctx context.Context, exchange, base, quote string) (*entity.SymbolRule, error)
	UpsertSymbolRule(ctx context.Context, rule *entity.SymbolRule) error
}
