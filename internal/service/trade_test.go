package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"pyraledger/conf"
	"pyraledger/internal/dao"
	"pyraledger/internal/exchange"
	"pyraledger/internal/model"
	"pyraledger/internal/model/entity"
	errs "pyraledger/pkg/errors"
)

// 内存版TradeDao，行为对齐数据库实现的约定
type fakeTradeDao struct {
	mu        sync.Mutex
	trades    map[string]*entity.Trade
	pyramids  map[string][]entity.Pyramid
	exits     map[string]*entity.Exit
	sequences map[string]int
}

func newFakeTradeDao() *fakeTradeDao {
	return &fakeTradeDao{
		trades:    make(map[string]*entity.Trade),
		pyramids:  make(map[string][]entity.Pyramid),
		exits:     make(map[string]*entity.Exit),
		sequences: make(map[string]int),
	}
}

func (f *fakeTradeDao) GetOpenTrade(ctx context.Context, exchange, base, quote, timeframe string) (*entity.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := entity.OpenKeyOf(exchange, base, quote, timeframe)
	for _, t := range f.trades {
		if t.OpenKey != nil && *t.OpenKey == key {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeTradeDao) CreateTrade(ctx context.Context, trade *entity.Trade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.trades {
		if t.OpenKey != nil && trade.OpenKey != nil && *t.OpenKey == *trade.OpenKey {
			return dao.ErrOpenTradeConflict
		}
	}
	cp := *trade
	f.trades[trade.ID] = &cp
	return nil
}

func (f *fakeTradeDao) GetTradeByID(ctx context.Context, id string) (*entity.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.trades[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeTradeDao) CloseTrade(ctx context.Context, tradeID string, closedAt time.Time, totalPnl, totalPercent float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trades[tradeID]
	if !ok || t.Status != "open" {
		return errs.New(0, "", "trade is not open")
	}
	t.Status = "closed"
	t.ClosedAt = &closedAt
	t.OpenKey = nil
	t.TotalPnlQuote = &totalPnl
	t.TotalPnlPercent = &totalPercent
	return nil
}

func (f *fakeTradeDao) GetRecentTrades(ctx context.Context, limit int) ([]entity.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Trade
	for _, t := range f.trades {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTradeDao) NextGroupSequence(ctx context.Context, base, exchange, timeframe string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := base + ":" + exchange + ":" + timeframe
	f.sequences[key]++
	return f.sequences[key], nil
}

func (f *fakeTradeDao) GetPyramids(ctx context.Context, tradeID string) ([]entity.Pyramid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.Pyramid(nil), f.pyramids[tradeID]...), nil
}

func (f *fakeTradeDao) AddPyramid(ctx context.Context, pyramid *entity.Pyramid) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pyramids[pyramid.TradeID] = append(f.pyramids[pyramid.TradeID], *pyramid)
	return nil
}

func (f *fakeTradeDao) UpdatePyramidPnl(ctx context.Context, pyramidID string, pnl, percent float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for tradeID, list := range f.pyramids {
		for i := range list {
			if list[i].ID == pyramidID {
				list[i].PnlQuote = &pnl
				list[i].PnlPercent = &percent
				f.pyramids[tradeID] = list
				return nil
			}
		}
	}
	return nil
}

func (f *fakeTradeDao) AddExit(ctx context.Context, exit *entity.Exit) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.exits[exit.TradeID]; ok {
		return false, nil
	}
	cp := *exit
	f.exits[exit.TradeID] = &cp
	return true, nil
}

func (f *fakeTradeDao) GetExit(ctx context.Context, tradeID string) (*entity.Exit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.exits[tradeID]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

// 内存版SettingsDao
type fakeSettingsDao struct {
	mu        sync.Mutex
	settings  map[string]string
	processed map[string]bool
	overrides map[string]float64
	rules     map[string]*entity.SymbolRule
}

func newFakeSettingsDao() *fakeSettingsDao {
	return &fakeSettingsDao{
		settings:  make(map[string]string),
		processed: make(map[string]bool),
		overrides: make(map[string]float64),
		rules:     make(map[string]*entity.SymbolRule),
	}
}

func overrideKey(exchange, base, quote, timeframe string, idx int) string {
	return entity.OpenKeyOf(exchange, base, quote, timeframe) + string(rune('0'+idx))
}

func (f *fakeSettingsDao) GetSetting(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings[key], nil
}

func (f *fakeSettingsDao) SetSetting(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[key] = value
	return nil
}

func (f *fakeSettingsDao) IsAlertProcessed(ctx context.Context, alertID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.processed[alertID], nil
}

func (f *fakeSettingsDao) MarkAlertProcessed(ctx context.Context, alertID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed[alertID] = true
	return nil
}

func (f *fakeSettingsDao) GetCapitalOverride(ctx context.Context, exchange, base, quote, timeframe string, pyramidIndex int) (float64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.overrides[overrideKey(exchange, base, quote, timeframe, pyramidIndex)]
	return v, ok, nil
}

func (f *fakeSettingsDao) SetCapitalOverride(ctx context.Context, o *entity.CapitalOverride) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[overrideKey(o.Exchange, o.Base, o.Quote, o.Timeframe, o.PyramidIndex)] = o.CapitalQuote
	return nil
}

func (f *fakeSettingsDao) DeleteCapitalOverride(ctx context.Context, exchange, base, quote, timeframe string, pyramidIndex int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.overrides, overrideKey(exchange, base, quote, timeframe, pyramidIndex))
	return nil
}

func (f *fakeSettingsDao) ClearCapitalOverrides(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides = make(map[string]float64)
	return nil
}

func (f *fakeSettingsDao) ListCapitalOverrides(ctx context.Context) ([]entity.CapitalOverride, error) {
	return nil, nil
}

func (f *fakeSettingsDao) GetSymbolRule(ctx context.Context, exchange, base, quote string) (*entity.SymbolRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rules[exchange+base+quote], nil
}

func (f *fakeSettingsDao) UpsertSymbolRule(ctx context.Context, rule *entity.SymbolRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[rule.Exchange+rule.Base+rule.Quote] = rule
	return nil
}

func newTestTradeService(t *testing.T, trading conf.TradingConfig) (*TradeService, *fakeTradeDao, *exchange.SimulatedQuoter) {
	t.Helper()
	trades := newFakeTradeDao()
	settingsDao := newFakeSettingsDao()
	settings := NewSettingsService(settingsDao, trading)
	quoter := exchange.NewSimulatedQuoter()
	svc := NewTradeService(trades, settingsDao, settings, quoter, nil, trading)
	return svc, trades, quoter
}

func defaultTrading() conf.TradingConfig {
	return conf.TradingConfig{
		DefaultCapital: 5000,
		MaxPyramids:    3,
		ValidationMode: "strict",
		PriceSource:    "exchange",
		DedupEnabled:   true,
	}
}

func entryAlert(orderID string) *model.Alert {
	return &model.Alert{
		Timestamp:    "2026-01-20T09:30:00Z",
		Exchange:     "KUCOIN",
		Symbol:       "ETH/USDT",
		Timeframe:    "1h",
		Action:       "buy",
		OrderID:      orderID,
		Close:        2500,
		PositionSide: "long",
	}
}

func exitAlert(orderID string) *model.Alert {
	a := entryAlert(orderID)
	a.Action = "sell"
	a.PositionSide = "flat"
	return a
}

func TestEntryCreatesTradeAndPyramid(t *testing.T) {
	svc, trades, quoter := newTestTradeService(t, defaultTrading())
	quoter.SetPrice("ETH", "USDT", 2500)

	res := svc.HandleAlert(context.Background(), entryAlert("e1"))
	if !res.Success {
		t.Fatalf("entry failed: %v", res.Err)
	}
	if res.GroupID != "ETH_Kucoin_1h_001" {
		t.Errorf("group id = %s, want ETH_Kucoin_1h_001", res.GroupID)
	}
	if res.Price != 2500 {
		t.Errorf("price = %v, want 2500", res.Price)
	}

	pyramids, _ := trades.GetPyramids(context.Background(), res.TradeID)
	if len(pyramids) != 1 {
		t.Fatalf("pyramids = %d, want 1", len(pyramids))
	}
	p := pyramids[0]
	if p.PyramidIndex != 0 {
		t.Errorf("index = %d, want 0", p.PyramidIndex)
	}
	if !almostEqual(p.PositionSize, 2.0) {
		t.Errorf("size = %v, want 2.0", p.PositionSize)
	}
	if !almostEqual(p.CapitalQuote, 5000) {
		t.Errorf("capital = %v, want 5000", p.CapitalQuote)
	}
	if !almostEqual(p.FeeQuote, 5.0) {
		t.Errorf("entry fee = %v, want 5.0", p.FeeQuote)
	}
}

func TestSecondEntryAddsPyramid(t *testing.T) {
	svc, trades, quoter := newTestTradeService(t, defaultTrading())
	quoter.SetPrice("ETH", "USDT", 2500)

	first := svc.HandleAlert(context.Background(), entryAlert("e1"))
	quoter.SetPrice("ETH", "USDT", 2600)
	second := svc.HandleAlert(context.Background(), entryAlert("e2"))

	if !second.Success {
		t.Fatalf("second entry failed: %v", second.Err)
	}
	if second.TradeID != first.TradeID {
		t.Errorf("second entry opened a new trade")
	}

	pyramids, _ := trades.GetPyramids(context.Background(), first.TradeID)
	if len(pyramids) != 2 {
		t.Fatalf("pyramids = %d, want 2", len(pyramids))
	}
	if pyramids[1].PyramidIndex != 1 || pyramids[1].EntryPrice != 2600 {
		t.Errorf("second pyramid = %+v", pyramids[1])
	}
}

func TestMaxPyramidsRejected(t *testing.T) {
	trading := defaultTrading()
	trading.MaxPyramids = 1
	svc, _, quoter := newTestTradeService(t, trading)
	quoter.SetPrice("ETH", "USDT", 2500)

	svc.HandleAlert(context.Background(), entryAlert("e1"))
	res := svc.HandleAlert(context.Background(), entryAlert("e2"))

	if res.Success {
		t.Fatal("expected rejection")
	}
	if !errs.IsKind(res.Err, model.ErrKindMaxPyramids) {
		t.Errorf("kind = %s, want %s", errs.KindOf(res.Err), model.ErrKindMaxPyramids)
	}
}

func TestExitWithoutOpenTrade(t *testing.T) {
	svc, _, quoter := newTestTradeService(t, defaultTrading())
	quoter.SetPrice("ETH", "USDT", 2500)

	res := svc.HandleAlert(context.Background(), exitAlert("x1"))
	if res.Success {
		t.Fatal("expected failure")
	}
	if !errs.IsKind(res.Err, model.ErrKindNoOpenTrade) {
		t.Errorf("kind = %s, want %s", errs.KindOf(res.Err), model.ErrKindNoOpenTrade)
	}
}

func TestFullCycle(t *testing.T) {
	svc, trades, quoter := newTestTradeService(t, defaultTrading())
	quoter.SetPrice("ETH", "USDT", 2500)

	entry := svc.HandleAlert(context.Background(), entryAlert("e1"))
	if !entry.Success {
		t.Fatalf("entry failed: %v", entry.Err)
	}

	quoter.SetPrice("ETH", "USDT", 2750)
	exit := svc.HandleAlert(context.Background(), exitAlert("x1"))
	if !exit.Success {
		t.Fatalf("exit failed: %v", exit.Err)
	}

	closed, _ := trades.GetTradeByID(context.Background(), entry.TradeID)
	if closed.Status != "closed" || closed.OpenKey != nil || closed.ClosedAt == nil {
		t.Fatalf("trade not closed properly: %+v", closed)
	}

	// size 2.0: gross (2750-2500)*2=500, 入场费5, 离场费2750*2*0.001=5.5
	wantNet := 500 - 5.0 - 5.5
	if !almostEqual(*closed.TotalPnlQuote, wantNet) {
		t.Errorf("net = %v, want %v", *closed.TotalPnlQuote, wantNet)
	}
	wantPct := wantNet / 5000 * 100
	if !almostEqual(*closed.TotalPnlPercent, wantPct) {
		t.Errorf("pct = %v, want %v", *closed.TotalPnlPercent, wantPct)
	}

	pyramids, _ := trades.GetPyramids(context.Background(), entry.TradeID)
	if pyramids[0].PnlQuote == nil || !almostEqual(*pyramids[0].PnlQuote, wantNet) {
		t.Errorf("pyramid pnl not settled: %+v", pyramids[0])
	}

	// 平仓后同key可以再开新交易，序号递增
	quoter.SetPrice("ETH", "USDT", 2750)
	next := svc.HandleAlert(context.Background(), entryAlert("e2"))
	if !next.Success {
		t.Fatalf("re-entry failed: %v", next.Err)
	}
	if next.GroupID != "ETH_Kucoin_1h_002" {
		t.Errorf("group id = %s, want ETH_Kucoin_1h_002", next.GroupID)
	}
}

// 同一order_id的重复投递直接应答成功，不产生第二个pyramid
func TestDedupByOrderID(t *testing.T) {
	svc, trades, quoter := newTestTradeService(t, defaultTrading())
	quoter.SetPrice("ETH", "USDT", 2500)

	first := svc.HandleAlert(context.Background(), entryAlert("same"))
	dup := svc.HandleAlert(context.Background(), entryAlert("same"))

	if !dup.Success {
		t.Fatalf("duplicate should succeed: %v", dup.Err)
	}
	pyramids, _ := trades.GetPyramids(context.Background(), first.TradeID)
	if len(pyramids) != 1 {
		t.Errorf("pyramids = %d, want 1", len(pyramids))
	}
}

func TestUnknownExchange(t *testing.T) {
	svc, _, _ := newTestTradeService(t, defaultTrading())
	a := entryAlert("e1")
	a.Exchange = "hoodex"

	res := svc.HandleAlert(context.Background(), a)
	if res.Success || !errs.IsKind(res.Err, model.ErrKindUnknownExchange) {
		t.Errorf("result = %+v", res)
	}
}

func TestPriceFetchFailureStrict(t *testing.T) {
	svc, _, _ := newTestTradeService(t, defaultTrading())
	// 不设置价格，模拟行情失败
	res := svc.HandleAlert(context.Background(), entryAlert("e1"))
	if res.Success || !errs.IsKind(res.Err, model.ErrKindPriceFetch) {
		t.Errorf("result = %+v", res)
	}
}

// 宽松模式下行情失败退回payload价格
func TestPriceFetchFallbackLenient(t *testing.T) {
	trading := defaultTrading()
	trading.ValidationMode = "lenient"
	svc, _, _ := newTestTradeService(t, trading)

	res := svc.HandleAlert(context.Background(), entryAlert("e1"))
	if !res.Success {
		t.Fatalf("lenient entry failed: %v", res.Err)
	}
	if res.Price != 2500 {
		t.Errorf("price = %v, want payload 2500", res.Price)
	}
}

func TestCapitalOverride(t *testing.T) {
	trading := defaultTrading()
	trades := newFakeTradeDao()
	settingsDao := newFakeSettingsDao()
	settings := NewSettingsService(settingsDao, trading)
	quoter := exchange.NewSimulatedQuoter()
	quoter.SetPrice("ETH", "USDT", 2500)
	svc := NewTradeService(trades, settingsDao, settings, quoter, nil, trading)

	settingsDao.SetCapitalOverride(context.Background(), &entity.CapitalOverride{
		Exchange: "kucoin", Base: "ETH", Quote: "USDT", Timeframe: "1h",
		PyramidIndex: 0, CapitalQuote: 10000,
	})

	res := svc.HandleAlert(context.Background(), entryAlert("e1"))
	if !res.Success {
		t.Fatalf("entry failed: %v", res.Err)
	}
	pyramids, _ := trades.GetPyramids(context.Background(), res.TradeID)
	if !almostEqual(pyramids[0].CapitalQuote, 10000) {
		t.Errorf("capital = %v, want 10000", pyramids[0].CapitalQuote)
	}
}

func TestIgnoredSignal(t *testing.T) {
	svc, trades, _ := newTestTradeService(t, defaultTrading())
	a := entryAlert("e1")
	a.Action = "sell"
	a.PositionSide = "long" // 减仓信号，不记账

	res := svc.HandleAlert(context.Background(), a)
	if !res.Success || res.TradeID != "" {
		t.Errorf("result = %+v", res)
	}
	all, _ := trades.GetRecentTrades(context.Background(), 10)
	if len(all) != 0 {
		t.Errorf("trades = %d, want 0", len(all))
	}
}

// 规则查询失败、价格正常的行情源
type rulesDownQuoter struct {
	*exchange.SimulatedQuoter
}

func (q rulesDownQuoter) GetRules(ctx context.Context, base, quote string) (*exchange.Rules, error) {
	return nil, exchange.ErrRulesUnavailable
}

func newRulesDownService(t *testing.T, trading conf.TradingConfig) (*TradeService, *fakeTradeDao) {
	t.Helper()
	trades := newFakeTradeDao()
	settingsDao := newFakeSettingsDao()
	settings := NewSettingsService(settingsDao, trading)
	inner := exchange.NewSimulatedQuoter()
	inner.SetPrice("ETH", "USDT", 2500)
	svc := NewTradeService(trades, settingsDao, settings, rulesDownQuoter{inner}, nil, trading)
	return svc, trades
}

// strict模式下规则获取失败入场必须中止，不能留下任何记录
func TestRulesFetchFailureStrict(t *testing.T) {
	svc, trades := newRulesDownService(t, defaultTrading())

	res := svc.HandleAlert(context.Background(), entryAlert("e1"))
	if res.Success {
		t.Fatal("expected rejection")
	}
	if !errs.IsKind(res.Err, model.ErrKindPriceFetch) {
		t.Errorf("kind = %s, want %s", errs.KindOf(res.Err), model.ErrKindPriceFetch)
	}
	open, _ := trades.GetOpenTrade(context.Background(), "kucoin", "ETH", "USDT", "1h")
	if open != nil {
		t.Errorf("trade should not exist: %+v", open)
	}
}

// 宽松模式下规则获取失败退回默认精度继续记账
func TestRulesFetchFallbackLenient(t *testing.T) {
	trading := defaultTrading()
	trading.ValidationMode = "lenient"
	svc, trades := newRulesDownService(t, trading)

	res := svc.HandleAlert(context.Background(), entryAlert("e1"))
	if !res.Success {
		t.Fatalf("lenient entry failed: %v", res.Err)
	}
	pyramids, _ := trades.GetPyramids(context.Background(), res.TradeID)
	if len(pyramids) != 1 || !almostEqual(pyramids[0].PositionSize, 2.0) {
		t.Errorf("pyramids = %+v", pyramids)
	}
}

// 取整后名义金额低于minNotional时入场中止，不写pyramid
func TestValidationAbortMinNotional(t *testing.T) {
	svc, trades, quoter := newTestTradeService(t, defaultTrading())
	quoter.SetPrice("ETH", "USDT", 2500)
	quoter.SetRules("ETH", "USDT", &exchange.Rules{QtyPrecision: 8, MinNotional: 6000})

	res := svc.HandleAlert(context.Background(), entryAlert("e1"))
	if res.Success {
		t.Fatal("expected validation failure")
	}
	if !errs.IsKind(res.Err, model.ErrKindValidation) {
		t.Errorf("kind = %s, want %s", errs.KindOf(res.Err), model.ErrKindValidation)
	}

	open, _ := trades.GetOpenTrade(context.Background(), "kucoin", "ETH", "USDT", "1h")
	if open != nil {
		t.Errorf("trade should not exist: %+v", open)
	}
	trades.mu.Lock()
	defer trades.mu.Unlock()
	if len(trades.pyramids) != 0 {
		t.Errorf("pyramids = %d, want 0", len(trades.pyramids))
	}
}

// 入场参考价对齐到tick size
func TestEntryPriceTickAlignment(t *testing.T) {
	svc, trades, quoter := newTestTradeService(t, defaultTrading())
	quoter.SetPrice("ETH", "USDT", 2500.3)
	quoter.SetRules("ETH", "USDT", &exchange.Rules{QtyPrecision: 2, TickSize: 0.5})

	res := svc.HandleAlert(context.Background(), entryAlert("e1"))
	if !res.Success {
		t.Fatalf("entry failed: %v", res.Err)
	}
	if !almostEqual(res.Price, 2500.5) {
		t.Errorf("price = %v, want 2500.5", res.Price)
	}
	pyramids, _ := trades.GetPyramids(context.Background(), res.TradeID)
	if !almostEqual(pyramids[0].EntryPrice, 2500.5) {
		t.Errorf("entry price = %v, want 2500.5", pyramids[0].EntryPrice)
	}
}
