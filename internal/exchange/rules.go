package exchange

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"pyraledger/internal/consts"
	"pyraledger/internal/dao"
	"pyraledger/internal/model/entity"
	"pyraledger/pkg/logger"
)

// CachedQuoter 给规则查询加两级缓存：redis热缓存24小时，数据库兜底
// 三层都查不到时返回 ErrRulesUnavailable，价格查询直接透传
type CachedQuoter struct {
	inner    Quoter
	exchange string
	rdb      *redis.Client
	settings dao.SettingsDao
}

func NewCachedQuoter(inner Quoter, exchange string, rdb *redis.Client, settings dao.SettingsDao) *CachedQuoter {
	return &CachedQuoter{
		inner:    inner,
		exchange: exchange,
		rdb:      rdb,
		settings: settings,
	}
}

func (c *CachedQuoter) GetPrice(ctx context.Context, base, quote string) (*PriceData, error) {
	return c.inner.GetPrice(ctx, base, quote)
}

func (c *CachedQuoter) cacheKey(base, quote string) string {
	return fmt.Sprintf("%s%s:%s/%s", consts.SymbolRulePrefix, c.exchange, base, quote)
}

func (c *CachedQuoter) GetRules(ctx context.Context, base, quote string) (*Rules, error) {
	key := c.cacheKey(base, quote)

	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var rules Rules
			if err := json.Unmarshal(data, &rules); err == nil {
				return &rules, nil
			}
		}
	}

	rules, err := c.inner.GetRules(ctx, base, quote)
	if err == nil {
		c.store(ctx, base, quote, rules)
		return rules, nil
	}

	logger.Warn("规则查询失败，走数据库兜底",
		logger.Pair("exchange", c.exchange),
		logger.Pair("base", base),
		logger.Pair("quote", quote),
		logger.Pair("err", err.Error()))

	if c.settings != nil {
		saved, derr := c.settings.GetSymbolRule(ctx, c.exchange, base, quote)
		if derr == nil && saved != nil {
			return &Rules{
				PricePrecision: saved.PricePrecision,
				QtyPrecision:   saved.QtyPrecision,
				MinQty:         saved.MinQty,
				MinNotional:    saved.MinNotional,
				TickSize:       saved.TickSize,
			}, nil
		}
	}

	// 三层都没命中时把错误抛给调用方，由strict/lenient模式决定是否放行
	return nil, fmt.Errorf("%w: %s %s/%s: %v", ErrRulesUnavailable, c.exchange, base, quote, err)
}

func (c *CachedQuoter) store(ctx context.Context, base, quote string, rules *Rules) {
	if c.rdb != nil {
		if data, err := json.Marshal(rules); err == nil {
			if err := c.rdb.Set(ctx, c.cacheKey(base, quote), data, consts.SymbolRuleExpiry).Err(); err != nil {
				logger.Warn("规则写入redis失败", logger.Pair("err", err.Error()))
			}
		}
	}
	if c.settings != nil {
		rule := &entity.SymbolRule{
			Exchange:       c.exchange,
			Base:           base,
			Quote:          quote,
			PricePrecision: rules.PricePrecision,
			QtyPrecision:   rules.QtyPrecision,
			MinQty:         rules.MinQty,
			MinNotional:    rules.MinNotional,
			TickSize:       rules.TickSize,
		}
		if err := c.settings.UpsertSymbolRule(ctx, rule); err != nil {
			logger.Warn("规则写入数据库失败", logger.Pair("err", err.Error()))
		}
	}
}
