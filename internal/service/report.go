package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gorm.io/datatypes"

	"pyraledger/internal/consts"
	"pyraledger/internal/dao"
	"pyraledger/internal/model"
	"pyraledger/internal/model/entity"
	"pyraledger/pkg/kafka"
	"pyraledger/pkg/logger"
)

// ReportService 周期统计与日报，所有指标都从同一条已平仓查询算出
type ReportService struct {
	reports  dao.ReportDao
	trades   dao.TradeDao
	producer kafka.ProducerService
}

func NewReportService(reports dao.ReportDao, trades dao.TradeDao, producer kafka.ProducerService) *ReportService {
	return &ReportService{reports: reports, trades: trades, producer: producer}
}

func pnlOf(t *entity.Trade) float64 {
	if t.TotalPnlQuote == nil {
		return 0
	}
	return *t.TotalPnlQuote
}

// Statistics 区间统计，start/end为nil表示不限
func (s *ReportService) Statistics(ctx context.Context, start, end *time.Time) (*model.Statistics, error) {
	trades, err := s.reports.GetClosedTrades(ctx, start, end, 0)
	if err != nil {
		return nil, err
	}
	return computeStatistics(trades), nil
}

func computeStatistics(trades []entity.Trade) *model.Statistics {
	st := &model.Statistics{TotalTrades: len(trades)}
	if len(trades) == 0 {
		return st
	}

	var totalWins, totalLosses float64
	st.BestTrade = pnlOf(&trades[0])
	st.WorstTrade = pnlOf(&trades[0])

	for i := range trades {
		pnl := pnlOf(&trades[i])
		st.TotalPnl += pnl
		if pnl > 0 {
			st.Wins++
			totalWins += pnl
		} else {
			// 零盈亏按亏损计，连平不算赢
			st.Losses++
			totalLosses += pnl
		}
		if pnl > st.BestTrade {
			st.BestTrade = pnl
		}
		if pnl < st.WorstTrade {
			st.WorstTrade = pnl
		}
	}

	st.WinRate = float64(st.Wins) / float64(st.TotalTrades) * 100
	st.AvgTrade = st.TotalPnl / float64(st.TotalTrades)
	if st.Wins > 0 {
		st.AvgWin = totalWins / float64(st.Wins)
	}
	if st.Losses > 0 {
		st.AvgLoss = totalLosses / float64(st.Losses)
	}
	if totalLosses < 0 {
		st.ProfitFactor = totalWins / -totalLosses
	} else {
		st.ProfitFactor = totalWins
	}
	return st
}

// RealizedPnl 已实现盈亏与投入汇总
func (s *ReportService) RealizedPnl(ctx context.Context, start, end *time.Time) (*model.RealizedPnl, error) {
	trades, err := s.reports.GetClosedTrades(ctx, start, end, 0)
	if err != nil {
		return nil, err
	}

	result := &model.RealizedPnl{TradeCount: len(trades)}
	for i := range trades {
		result.TotalNetPnl += pnlOf(&trades[i])
		pyramids, err := s.trades.GetPyramids(ctx, trades[i].ID)
		if err != nil {
			return nil, err
		}
		for _, p := range pyramids {
			result.TotalCapital += p.CapitalQuote
		}
	}
	if result.TotalCapital > 0 {
		result.PnlPercent = result.TotalNetPnl / result.TotalCapital * 100
	}
	return result, nil
}

// Drawdown 回撤，按平仓顺序累计净值后做峰谷遍历
func (s *ReportService) Drawdown(ctx context.Context, start, end *time.Time) (*model.Drawdown, error) {
	trades, err := s.reports.GetClosedTrades(ctx, start, end, 0)
	if err != nil {
		return nil, err
	}
	return computeDrawdown(trades), nil
}

func computeDrawdown(trades []entity.Trade) *model.Drawdown {
	dd := &model.Drawdown{}
	var equity, peak float64

	for i := range trades {
		equity += pnlOf(&trades[i])
		if equity > peak {
			peak = equity
		}
		drop := peak - equity
		if drop > dd.MaxDrawdown {
			dd.MaxDrawdown = drop
			if peak > 0 {
				dd.MaxDrawdownPercent = drop / peak * 100
			} else {
				dd.MaxDrawdownPercent = 0
			}
		}
	}
	dd.CurrentDrawdown = peak - equity
	return dd
}

// Streak 连胜连败
func (s *ReportService) Streak(ctx context.Context, start, end *time.Time) (*model.Streak, error) {
	trades, err := s.reports.GetClosedTrades(ctx, start, end, 0)
	if err != nil {
		return nil, err
	}
	return computeStreak(trades), nil
}

func computeStreak(trades []entity.Trade) *model.Streak {
	st := &model.Streak{}
	if len(trades) == 0 {
		return st
	}

	run := 0
	lastWin := false
	for i := range trades {
		win := pnlOf(&trades[i]) > 0
		if i == 0 || win != lastWin {
			run = 1
		} else {
			run++
		}
		lastWin = win
		if win && run > st.LongestWin {
			st.LongestWin = run
		}
		if !win && run > st.LongestLoss {
			st.LongestLoss = run
		}
	}

	// 当前连续：从最后一笔向前数
	if lastWin {
		st.Current = run
	} else {
		st.Current = -run
	}
	return st
}

// PairPerformance 按交易对汇总并排序，best取前limit名，worst取倒数limit名
func (s *ReportService) PairPerformance(ctx context.Context, start, end *time.Time, limit int, best bool) ([]model.PairPerformance, error) {
	trades, err := s.reports.GetClosedTrades(ctx, start, end, 0)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = consts.DefaultPairLimit
	}

	agg := make(map[string]*model.PairPerformance)
	for i := range trades {
		pair := trades[i].Base + "/" + trades[i].Quote
		p, ok := agg[pair]
		if !ok {
			p = &model.PairPerformance{Pair: pair}
			agg[pair] = p
		}
		p.Pnl += pnlOf(&trades[i])
		p.Trades++
	}

	result := make([]model.PairPerformance, 0, len(agg))
	for _, p := range agg {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool {
		if best {
			return result[i].Pnl > result[j].Pnl
		}
		return result[i].Pnl < result[j].Pnl
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ClosedTrades 已平仓交易列表（报表用，按平仓时间升序）
func (s *ReportService) ClosedTrades(ctx context.Context, start, end *time.Time, limit int) ([]entity.Trade, error) {
	return s.reports.GetClosedTrades(ctx, start, end, limit)
}

// EquityCurve 累计净值曲线
func (s *ReportService) EquityCurve(ctx context.Context, start, end *time.Time) ([]model.EquityPoint, error) {
	trades, err := s.reports.GetClosedTrades(ctx, start, end, 0)
	if err != nil {
		return nil, err
	}
	points := make([]model.EquityPoint, 0, len(trades))
	var cum float64
	for i := range trades {
		cum += pnlOf(&trades[i])
		ts := trades[i].CreatedAt
		if trades[i].ClosedAt != nil {
			ts = *trades[i].ClosedAt
		}
		points = append(points, model.EquityPoint{Timestamp: ts, CumulativePnl: cum})
	}
	return points, nil
}

func groupBy(trades []entity.Trade, keyFn func(*entity.Trade) string) []model.GroupPerformance {
	agg := make(map[string]*model.GroupPerformance)
	for i := range trades {
		key := keyFn(&trades[i])
		g, ok := agg[key]
		if !ok {
			g = &model.GroupPerformance{Key: key}
			agg[key] = g
		}
		g.Pnl += pnlOf(&trades[i])
		g.Trades++
	}
	result := make([]model.GroupPerformance, 0, len(agg))
	for _, g := range agg {
		result = append(result, *g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Pnl > result[j].Pnl })
	return result
}

// Breakdown 按维度分组汇总，dimension取 exchange / timeframe / pair
func (s *ReportService) Breakdown(ctx context.Context, start, end *time.Time, dimension string) ([]model.GroupPerformance, error) {
	trades, err := s.reports.GetClosedTrades(ctx, start, end, 0)
	if err != nil {
		return nil, err
	}
	switch dimension {
	case "exchange":
		return groupBy(trades, func(t *entity.Trade) string { return t.Exchange }), nil
	case "timeframe":
		return groupBy(trades, func(t *entity.Trade) string { return t.Timeframe }), nil
	case "pair":
		return groupBy(trades, func(t *entity.Trade) string { return t.Base + "/" + t.Quote }), nil
	default:
		return nil, fmt.Errorf("unknown breakdown dimension: %s", dimension)
	}
}

// BuildDailyReport 生成某一天（loc时区自然日）的日报
func (s *ReportService) BuildDailyReport(ctx context.Context, day time.Time, loc *time.Location) (*model.DailyReportData, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end := start.Add(24*time.Hour - time.Nanosecond)

	trades, err := s.reports.GetClosedTrades(ctx, &start, &end, 0)
	if err != nil {
		return nil, err
	}

	report := &model.DailyReportData{
		Date:        start.Format(consts.DateLayout),
		TotalTrades: len(trades),
	}

	var totalCapital float64
	for i := range trades {
		t := &trades[i]
		pyramids, err := s.trades.GetPyramids(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		report.TotalPyramids += len(pyramids)
		for _, p := range pyramids {
			totalCapital += p.CapitalQuote
		}

		pct := 0.0
		if t.TotalPnlPercent != nil {
			pct = *t.TotalPnlPercent
		}
		report.Trades = append(report.Trades, model.TradeHistoryItem{
			GroupID:       t.GroupId,
			Exchange:      t.Exchange,
			Pair:          t.Base + "/" + t.Quote,
			Timeframe:     t.Timeframe,
			PyramidsCount: len(pyramids),
			PnlQuote:      pnlOf(t),
			PnlPercent:    pct,
		})
		report.TotalPnlQuote += pnlOf(t)
	}
	if totalCapital > 0 {
		report.TotalPnlPct = report.TotalPnlQuote / totalCapital * 100
	}

	report.ByExchange = groupBy(trades, func(t *entity.Trade) string { return t.Exchange })
	report.ByTimeframe = groupBy(trades, func(t *entity.Trade) string { return t.Timeframe })
	report.ByPair = groupBy(trades, func(t *entity.Trade) string { return t.Base + "/" + t.Quote })

	points, err := s.EquityCurve(ctx, &start, &end)
	if err != nil {
		return nil, err
	}
	report.EquityPoints = points
	return report, nil
}

// PublishDailyReport 生成、落库并投递日报，重复生成会覆盖同一天的记录
func (s *ReportService) PublishDailyReport(ctx context.Context, day time.Time, loc *time.Location) (*model.DailyReportData, error) {
	report, err := s.BuildDailyReport(ctx, day, loc)
	if err != nil {
		return nil, err
	}

	blob, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal daily report: %w", err)
	}
	record := &entity.DailyReport{
		Date:          report.Date,
		TotalTrades:   report.TotalTrades,
		TotalPyramids: report.TotalPyramids,
		TotalPnlQuote: report.TotalPnlQuote,
		ReportJSON:    datatypes.JSON(blob),
		SentAt:        time.Now(),
	}
	if err := s.reports.SaveDailyReport(ctx, record); err != nil {
		return nil, err
	}

	if s.producer != nil {
		if err := s.producer.Produce(ctx, kafka.TopicDailyReport, []byte(report.Date), report); err != nil {
			logger.Error("日报投递失败", logger.Pair("date", report.Date), logger.Pair("err", err.Error()))
		}
	}

	logger.Info("日报已生成",
		logger.Pair("date", report.Date),
		logger.Pair("trades", report.TotalTrades),
		logger.Pair("pnl", report.TotalPnlQuote))
	return report, nil
}

// GetDailyReport 读取历史日报
func (s *ReportService) GetDailyReport(ctx context.Context, date string) (*model.DailyReportData, error) {
	record, err := s.reports.GetDailyReport(ctx, date)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	var report model.DailyReportData
	if err := json.Unmarshal(record.ReportJSON, &report); err != nil {
		return nil, fmt.Errorf("unmarshal daily report %s: %w", date, err)
	}
	return &report, nil
}
