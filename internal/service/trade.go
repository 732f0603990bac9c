package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pyraledger/conf"
	"pyraledger/internal/consts"
	"pyraledger/internal/dao"
	"pyraledger/internal/exchange"
	"pyraledger/internal/model"
	"pyraledger/internal/model/entity"
	"pyraledger/internal/symbol"
	errs "pyraledger/pkg/errors"
	"pyraledger/pkg/errors/ecode"
	"pyraledger/pkg/kafka"
	"pyraledger/pkg/logger"
	"pyraledger/pkg/utils"
)

// TradeService 信号到账本的主流程：入场建仓/加仓，离场结算平仓
type TradeService struct {
	trades   dao.TradeDao
	settings *SettingsService
	dedup    dao.SettingsDao
	quoter   exchange.Quoter
	producer kafka.ProducerService
	trading  conf.TradingConfig

	// 同一个key的信号串行处理，数据库唯一索引是并发兜底
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewTradeService(trades dao.TradeDao, settingsDao dao.SettingsDao, settings *SettingsService,
	quoter exchange.Quoter, producer kafka.ProducerService, trading conf.TradingConfig) *TradeService {
	return &TradeService{
		trades:   trades,
		settings: settings,
		dedup:    settingsDao,
		quoter:   quoter,
		producer: producer,
		trading:  trading,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *TradeService) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[key] = l
	return l
}

// HandleAlert 处理一条TradingView信号，返回结果供handler构造响应
func (s *TradeService) HandleAlert(ctx context.Context, alert *model.Alert) *model.TradeResult {
	// order_id幂等：处理成功后才落记录，重复投递直接应答成功
	if s.trading.DedupEnabled && alert.OrderID != "" {
		processed, err := s.dedup.IsAlertProcessed(ctx, alert.OrderID)
		if err != nil {
			return failResult(errs.Wrap(err, ecode.StorageErr, "dedup check failed"))
		}
		if processed {
			logger.Info("重复信号，已跳过", logger.Pair("order_id", alert.OrderID))
			return &model.TradeResult{Success: true, Message: "duplicate signal ignored"}
		}
	}

	result := s.process(ctx, alert)

	if result.Success && s.trading.DedupEnabled && alert.OrderID != "" {
		if err := s.dedup.MarkAlertProcessed(ctx, alert.OrderID); err != nil {
			logger.Warn("幂等记录写入失败", logger.Pair("order_id", alert.OrderID), logger.Pair("err", err.Error()))
		}
	}
	return result
}

func (s *TradeService) process(ctx context.Context, alert *model.Alert) *model.TradeResult {
	kind := alert.Kind()
	if kind == model.SignalIgnore {
		return &model.TradeResult{Success: true, Message: "signal ignored"}
	}

	ex := symbol.NormalizeExchange(alert.Exchange)
	if ex == "" {
		return failResult(errs.Newf(ecode.UnknownExchangeErr, model.ErrKindUnknownExchange,
			"unknown exchange: %s", alert.Exchange))
	}

	pair, err := symbol.ParsePair(alert.Symbol)
	if err != nil {
		return failResult(errs.Newf(ecode.InvalidSymbolErr, model.ErrKindInvalidSymbol,
			"cannot parse symbol: %s", alert.Symbol))
	}

	// 运行时开关：全局暂停或交易对被忽略时只应答不记账
	if paused, err := s.settings.IsPaused(ctx); err == nil && paused {
		return &model.TradeResult{Success: true, Message: "journal paused, signal ignored"}
	}
	if ignored, err := s.settings.IsIgnored(ctx, pair.Base, pair.Quote); err == nil && ignored {
		return &model.TradeResult{Success: true, Message: "pair ignored"}
	}

	key := entity.OpenKeyOf(ex, pair.Base, pair.Quote, alert.Timeframe)
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	switch kind {
	case model.SignalEntry:
		return s.handleEntry(ctx, alert, ex, pair)
	case model.SignalExit:
		return s.handleExit(ctx, alert, ex, pair)
	default:
		return &model.TradeResult{Success: true, Message: "signal ignored"}
	}
}

func failResult(err error) *model.TradeResult {
	_, msg := errs.DecodeErr(err)
	return &model.TradeResult{Success: false, Message: msg, Err: err}
}

// resolvePrice 取成交参考价，默认实时行情，可配置信任payload里的close
func (s *TradeService) resolvePrice(ctx context.Context, alert *model.Alert, pair symbol.Pair) (float64, error) {
	if s.trading.PriceSource == "payload" {
		return alert.Close, nil
	}

	data, err := s.quoter.GetPrice(ctx, pair.Base, pair.Quote)
	if err == nil {
		return data.Price, nil
	}

	// 宽松模式下行情失败退回payload价格，保证记账不中断
	if s.trading.ValidationMode == "lenient" && alert.Close > 0 {
		logger.Warn("行情获取失败，使用信号价格",
			logger.Pair("pair", pair.Display()),
			logger.Pair("close", alert.Close),
			logger.Pair("err", err.Error()))
		return alert.Close, nil
	}
	return 0, errs.Wrap(err, ecode.PriceFetchErr, fmt.Sprintf("price fetch failed for %s", pair.Display()))
}

func (s *TradeService) handleEntry(ctx context.Context, alert *model.Alert, ex string, pair symbol.Pair) *model.TradeResult {
	trade, err := s.trades.GetOpenTrade(ctx, ex, pair.Base, pair.Quote, alert.Timeframe)
	if err != nil {
		return failResult(errs.Wrap(err, ecode.StorageErr, "open trade lookup failed"))
	}

	var pyramidIndex int
	if trade != nil {
		pyramids, err := s.trades.GetPyramids(ctx, trade.ID)
		if err != nil {
			return failResult(errs.Wrap(err, ecode.StorageErr, "pyramid lookup failed"))
		}
		if len(pyramids) >= s.trading.MaxPyramids {
			return failResult(errs.Newf(ecode.MaxPyramidsErr, model.ErrKindMaxPyramids,
				"trade %s already has %d pyramids", trade.GroupId, len(pyramids)))
		}
		pyramidIndex = len(pyramids)
	}

	price, err := s.resolvePrice(ctx, alert, pair)
	if err != nil {
		return failResult(err)
	}

	// 规则和价格都拿不到就不能记账，strict直接拒绝，lenient退回保守精度
	rules, err := s.quoter.GetRules(ctx, pair.Base, pair.Quote)
	if err != nil {
		if s.trading.ValidationMode != "lenient" {
			return failResult(errs.Wrap(err, ecode.PriceFetchErr,
				fmt.Sprintf("symbol rules fetch failed for %s", pair.Display())))
		}
		logger.Warn("规则获取失败，宽松模式使用默认精度",
			logger.Pair("pair", pair.Display()),
			logger.Pair("err", err.Error()))
		rules = exchange.DefaultRules()
	}
	price = utils.RoundToTick(price, rules.TickSize)

	capital, err := s.settings.ResolveCapital(ctx, ex, pair.Base, pair.Quote, alert.Timeframe, pyramidIndex)
	if err != nil {
		return failResult(errs.Wrap(err, ecode.StorageErr, "capital lookup failed"))
	}

	size := PositionSize(capital, price, rules.QtyPrecision)
	actualCapital := size * price

	if verr := s.validateEntry(size, actualCapital, rules, pair); verr != nil {
		return failResult(verr)
	}

	now := time.Now()
	if trade == nil {
		trade, err = s.createTrade(ctx, ex, pair, alert.Timeframe, now)
		if err != nil {
			return failResult(err)
		}
	}

	feeRate := s.trading.FeeRate(ex)
	pyramid := &entity.Pyramid{
		ID:                uuid.NewString(),
		TradeID:           trade.ID,
		PyramidIndex:      pyramidIndex,
		EntryPrice:        price,
		PositionSize:      size,
		CapitalQuote:      actualCapital,
		EntryTime:         now,
		FeeRate:           feeRate,
		FeeQuote:          EntryFee(actualCapital, feeRate),
		ExchangeTimestamp: alert.Timestamp,
		ReceivedTimestamp: now,
	}
	if err := s.trades.AddPyramid(ctx, pyramid); err != nil {
		return failResult(errs.Wrap(err, ecode.StorageErr, "pyramid insert failed"))
	}

	logger.Info("入场已记账",
		logger.Pair("group_id", trade.GroupId),
		logger.Pair("pyramid", pyramidIndex),
		logger.Pair("price", price),
		logger.Pair("size", size))

	s.publish(ctx, kafka.TopicTradeEntry, trade.GroupId, model.PyramidEntryData{
		GroupID:           trade.GroupId,
		PyramidIndex:      pyramidIndex,
		Exchange:          ex,
		Symbol:            pair.FormatFor(ex),
		Base:              pair.Base,
		Quote:             pair.Quote,
		Timeframe:         alert.Timeframe,
		EntryPrice:        price,
		PositionSize:      size,
		CapitalQuote:      actualCapital,
		ExchangeTimestamp: alert.Timestamp,
		ReceivedTimestamp: now,
		TotalPyramids:     pyramidIndex + 1,
	})

	return &model.TradeResult{
		Success: true,
		Message: fmt.Sprintf("pyramid %d recorded", pyramidIndex),
		TradeID: trade.ID,
		GroupID: trade.GroupId,
		Price:   price,
	}
}

// validateEntry 交易规则校验，strict拒绝，lenient告警放行
func (s *TradeService) validateEntry(size, capital float64, rules *exchange.Rules, pair symbol.Pair) error {
	var reason string
	switch {
	case size <= 0:
		reason = "position size rounds to zero"
	case rules.MinQty > 0 && size < rules.MinQty:
		reason = fmt.Sprintf("size %v below min qty %v", size, rules.MinQty)
	case rules.MinNotional > 0 && capital < rules.MinNotional:
		reason = fmt.Sprintf("notional %v below minimum %v", capital, rules.MinNotional)
	default:
		return nil
	}

	if s.trading.ValidationMode == "lenient" && size > 0 {
		logger.Warn("规则校验未通过，宽松模式放行",
			logger.Pair("pair", pair.Display()),
			logger.Pair("reason", reason))
		return nil
	}
	return errs.New(ecode.ValidationErr, model.ErrKindValidation, reason)
}

// createTrade 建新交易，并发冲突时改用对方刚建的那笔
func (s *TradeService) createTrade(ctx context.Context, ex string, pair symbol.Pair, timeframe string, now time.Time) (*entity.Trade, error) {
	seq, err := s.trades.NextGroupSequence(ctx, pair.Base, ex, timeframe)
	if err != nil {
		return nil, errs.Wrap(err, ecode.StorageErr, "group sequence failed")
	}

	key := entity.OpenKeyOf(ex, pair.Base, pair.Quote, timeframe)
	trade := &entity.Trade{
		ID:        uuid.NewString(),
		GroupId:   groupID(pair.Base, ex, timeframe, seq),
		Exchange:  ex,
		Base:      pair.Base,
		Quote:     pair.Quote,
		Timeframe: timeframe,
		OpenKey:   &key,
		Status:    consts.TradeStatusOpen,
		CreatedAt: now,
	}

	err = s.trades.CreateTrade(ctx, trade)
	if err == nil {
		return trade, nil
	}
	if errors.Is(err, dao.ErrOpenTradeConflict) {
		existing, gerr := s.trades.GetOpenTrade(ctx, ex, pair.Base, pair.Quote, timeframe)
		if gerr == nil && existing != nil {
			return existing, nil
		}
	}
	return nil, errs.Wrap(err, ecode.StorageErr, "trade insert failed")
}

// groupID 形如 ETH_Kucoin_1h_001
func groupID(base, ex, timeframe string, seq int) string {
	return fmt.Sprintf("%s_%s_%s_%03d", base, capitalize(ex), timeframe, seq)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (s *TradeService) handleExit(ctx context.Context, alert *model.Alert, ex string, pair symbol.Pair) *model.TradeResult {
	trade, err := s.trades.GetOpenTrade(ctx, ex, pair.Base, pair.Quote, alert.Timeframe)
	if err != nil {
		return failResult(errs.Wrap(err, ecode.StorageErr, "open trade lookup failed"))
	}
	if trade == nil {
		return failResult(errs.Newf(ecode.NoOpenTradeErr, model.ErrKindNoOpenTrade,
			"no open trade for %s %s %s", ex, pair.Display(), alert.Timeframe))
	}

	pyramids, err := s.trades.GetPyramids(ctx, trade.ID)
	if err != nil {
		return failResult(errs.Wrap(err, ecode.StorageErr, "pyramid lookup failed"))
	}
	if len(pyramids) == 0 {
		return failResult(errs.Newf(ecode.NoPyramidsErr, model.ErrKindNoPyramids,
			"trade %s has no pyramids", trade.GroupId))
	}

	price, err := s.resolvePrice(ctx, alert, pair)
	if err != nil {
		return failResult(err)
	}

	feeRate := s.trading.FeeRate(ex)
	st := Settle(pyramids, price, feeRate)

	now := time.Now()
	created, err := s.trades.AddExit(ctx, &entity.Exit{
		ID:                uuid.NewString(),
		TradeID:           trade.ID,
		ExitPrice:         price,
		ExitTime:          now,
		FeeQuote:          st.ExitFees,
		ExchangeTimestamp: alert.Timestamp,
		ReceivedTimestamp: now,
	})
	if err != nil {
		return failResult(errs.Wrap(err, ecode.StorageErr, "exit insert failed"))
	}
	if !created {
		// 重复的exit信号，之前已结算过
		return &model.TradeResult{
			Success: true,
			Message: "exit already recorded",
			TradeID: trade.ID,
			GroupID: trade.GroupId,
		}
	}

	for i, leg := range st.Legs {
		if err := s.trades.UpdatePyramidPnl(ctx, pyramids[i].ID, leg.NetPnl, leg.PnlPercent); err != nil {
			return failResult(errs.Wrap(err, ecode.StorageErr, "pyramid pnl update failed"))
		}
	}

	if err := s.trades.CloseTrade(ctx, trade.ID, now, st.NetPnl, st.NetPnlPct); err != nil {
		return failResult(errs.Wrap(err, ecode.StorageErr, "trade close failed"))
	}

	logger.Info("平仓已结算",
		logger.Pair("group_id", trade.GroupId),
		logger.Pair("exit_price", price),
		logger.Pair("net_pnl", st.NetPnl),
		logger.Pair("pyramids", len(st.Legs)))

	s.publish(ctx, kafka.TopicTradeClosed, trade.GroupId, model.TradeClosedData{
		TradeID:           trade.ID,
		GroupID:           trade.GroupId,
		Exchange:          ex,
		Symbol:            pair.FormatFor(ex),
		Base:              pair.Base,
		Quote:             pair.Quote,
		Timeframe:         alert.Timeframe,
		Pyramids:          st.Legs,
		ExitPrice:         price,
		ExitTime:          now,
		GrossPnl:          st.GrossPnl,
		TotalFees:         st.EntryFees + st.ExitFees,
		NetPnl:            st.NetPnl,
		NetPnlPercent:     st.NetPnlPct,
		TotalCapital:      st.TotalCapital,
		ExchangeTimestamp: alert.Timestamp,
		ReceivedTimestamp: now,
	})

	return &model.TradeResult{
		Success: true,
		Message: fmt.Sprintf("trade closed, net pnl %.4f", st.NetPnl),
		TradeID: trade.ID,
		GroupID: trade.GroupId,
		Price:   price,
	}
}

// publish 下游通知尽力而为，失败只记日志不影响记账结果
func (s *TradeService) publish(ctx context.Context, topic, key string, msg interface{}) {
	if s.producer == nil {
		return
	}
	if err := s.producer.Produce(ctx, topic, []byte(key), msg); err != nil {
		logger.Error("kafka投递失败",
			logger.Pair("topic", topic),
			logger.Pair("key", key),
			logger.Pair("err", err.Error()))
	}
}

// GetRecentTrades 最近的交易列表
func (s *TradeService) GetRecentTrades(ctx context.Context, limit int) ([]entity.Trade, error) {
	return s.trades.GetRecentTrades(ctx, limit)
}

// GetTradeDetail 单笔交易详情，含pyramid与平仓记录
func (s *TradeService) GetTradeDetail(ctx context.Context, tradeID string) (*model.TradeDetail, error) {
	trade, err := s.trades.GetTradeByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, errs.New(ecode.NotFoundErr, "", "trade not found")
	}
	pyramids, err := s.trades.GetPyramids(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	exit, err := s.trades.GetExit(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	return &model.TradeDetail{Trade: *trade, Pyramids: pyramids, Exit: exit}, nil
}
