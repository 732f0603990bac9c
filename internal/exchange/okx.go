package exchange

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	goexv2 "github.com/nntaoli-project/goex/v2"
	"github.com/nntaoli-project/goex/v2/model"

	"pyraledger/pkg/logger"
	"pyraledger/pkg/utils"
)

// OkxQuoter 走okx公共行情接口，不需要apikey
// 币对列表懒加载并缓存，GetTicker取最新成交价
type OkxQuoter struct {
	mu     sync.Mutex
	exInfo map[string]model.CurrencyPair
}

func NewOkxQuoter() *OkxQuoter {
	return &OkxQuoter{}
}

// 懒加载所有可交易币对，失败时下次调用重试
func (q *OkxQuoter) loadExchangeInfo() (map[string]model.CurrencyPair, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.exInfo != nil {
		return q.exInfo, nil
	}

	var info map[string]model.CurrencyPair
	err := utils.Retry(3, time.Second, true, func() error {
		var err error
		info, _, err = goexv2.OKx.Spot.GetExchangeInfo()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("okx GetExchangeInfo: %w", err)
	}
	q.exInfo = info
	return info, nil
}

func (q *OkxQuoter) currencyPair(base, quote string) (model.CurrencyPair, error) {
	if _, err := q.loadExchangeInfo(); err != nil {
		return model.CurrencyPair{}, err
	}
	pair, err := goexv2.OKx.Spot.NewCurrencyPair(base, quote)
	if err != nil {
		return model.CurrencyPair{}, fmt.Errorf("%w: %s/%s not listed on okx", ErrPriceUnavailable, base, quote)
	}
	return pair, nil
}

func (q *OkxQuoter) GetPrice(ctx context.Context, base, quote string) (*PriceData, error) {
	pair, err := q.currencyPair(base, quote)
	if err != nil {
		return nil, err
	}

	var ticker *model.Ticker
	err = utils.Retry(3, time.Second, true, func() error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		var err error
		ticker, _, err = goexv2.OKx.Spot.GetTicker(pair)
		return err
	})
	if err != nil {
		logger.Error("okx行情获取失败",
			logger.Pair("base", base),
			logger.Pair("quote", quote),
			logger.Pair("err", err.Error()))
		return nil, fmt.Errorf("%w: %s/%s: %v", ErrPriceUnavailable, base, quote, err)
	}

	return &PriceData{
		Price:     ticker.Last,
		Timestamp: time.Now(),
		Source:    "okx",
	}, nil
}

func (q *OkxQuoter) GetRules(ctx context.Context, base, quote string) (*Rules, error) {
	pair, err := q.currencyPair(base, quote)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRulesUnavailable, err)
	}

	tick := 0.0
	if pair.PricePrecision > 0 {
		tick = math.Pow10(-pair.PricePrecision)
	}
	return &Rules{
		PricePrecision: pair.PricePrecision,
		QtyPrecision:   pair.QtyPrecision,
		MinQty:         pair.MinQty,
		MinNotional:    0,
		TickSize:       tick,
	}, nil
}
