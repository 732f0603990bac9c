package report

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"pyraledger/internal/consts"
	"pyraledger/internal/service"
	errs "pyraledger/pkg/errors"
	"pyraledger/pkg/errors/ecode"
	"pyraledger/pkg/response"
)

// Handler 周期统计的查询接口
type Handler struct {
	rs *service.ReportService
}

func NewHandler(rs *service.ReportService) *Handler {
	return &Handler{rs: rs}
}

// parsePeriod 解析start/end查询参数，支持 2026-01-20 或 RFC3339，缺省不限
func parsePeriod(ctx *gin.Context) (*time.Time, *time.Time, error) {
	parse := func(v string, endOfDay bool) (*time.Time, error) {
		if v == "" {
			return nil, nil
		}
		if t, err := time.Parse(consts.DateLayout, v); err == nil {
			if endOfDay {
				t = t.Add(24*time.Hour - time.Nanosecond)
			}
			return &t, nil
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, errs.Newf(ecode.BindErr, "", "invalid time: %s", v)
		}
		return &t, nil
	}

	start, err := parse(ctx.Query("start"), false)
	if err != nil {
		return nil, nil, err
	}
	end, err := parse(ctx.Query("end"), true)
	if err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

// Statistics GET /report/statistics
func (h *Handler) Statistics() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start, end, err := parsePeriod(ctx)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		stats, err := h.rs.Statistics(ctx.Request.Context(), start, end)
		if err != nil {
			response.JSON(ctx, errs.Wrap(err, ecode.StorageErr, "statistics query failed"), nil)
			return
		}
		response.JSON(ctx, nil, stats)
	}
}

// RealizedPnl GET /report/pnl
func (h *Handler) RealizedPnl() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start, end, err := parsePeriod(ctx)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		pnl, err := h.rs.RealizedPnl(ctx.Request.Context(), start, end)
		if err != nil {
			response.JSON(ctx, errs.Wrap(err, ecode.StorageErr, "pnl query failed"), nil)
			return
		}
		response.JSON(ctx, nil, pnl)
	}
}

// Drawdown GET /report/drawdown
func (h *Handler) Drawdown() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start, end, err := parsePeriod(ctx)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		dd, err := h.rs.Drawdown(ctx.Request.Context(), start, end)
		if err != nil {
			response.JSON(ctx, errs.Wrap(err, ecode.StorageErr, "drawdown query failed"), nil)
			return
		}
		response.JSON(ctx, nil, dd)
	}
}

// Streak GET /report/streak
func (h *Handler) Streak() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start, end, err := parsePeriod(ctx)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		streak, err := h.rs.Streak(ctx.Request.Context(), start, end)
		if err != nil {
			response.JSON(ctx, errs.Wrap(err, ecode.StorageErr, "streak query failed"), nil)
			return
		}
		response.JSON(ctx, nil, streak)
	}
}

// PairRanking GET /report/pairs/best 和 /report/pairs/worst
func (h *Handler) PairRanking(best bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start, end, err := parsePeriod(ctx)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		limit := cast.ToInt(ctx.Query("limit"))
		pairs, err := h.rs.PairPerformance(ctx.Request.Context(), start, end, limit, best)
		if err != nil {
			response.JSON(ctx, errs.Wrap(err, ecode.StorageErr, "pair ranking failed"), nil)
			return
		}
		response.JSON(ctx, nil, pairs)
	}
}

// Breakdown GET /report/exchanges /report/timeframes /report/pairs
func (h *Handler) Breakdown(dimension string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start, end, err := parsePeriod(ctx)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		groups, err := h.rs.Breakdown(ctx.Request.Context(), start, end, dimension)
		if err != nil {
			response.JSON(ctx, errs.Wrap(err, ecode.StorageErr, "breakdown query failed"), nil)
			return
		}
		response.JSON(ctx, nil, groups)
	}
}

// ClosedTrades GET /report/trades
func (h *Handler) ClosedTrades() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start, end, err := parsePeriod(ctx)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		limit := cast.ToInt(ctx.Query("limit"))
		trades, err := h.rs.ClosedTrades(ctx.Request.Context(), start, end, limit)
		if err != nil {
			response.JSON(ctx, errs.Wrap(err, ecode.StorageErr, "closed trades query failed"), nil)
			return
		}
		response.JSON(ctx, nil, trades)
	}
}

// EquityCurve GET /report/equity
func (h *Handler) EquityCurve() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start, end, err := parsePeriod(ctx)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		points, err := h.rs.EquityCurve(ctx.Request.Context(), start, end)
		if err != nil {
			response.JSON(ctx, errs.Wrap(err, ecode.StorageErr, "equity query failed"), nil)
			return
		}
		response.JSON(ctx, nil, points)
	}
}

// DailyReport GET /report/daily?date=2026-01-20，缺省取昨天
func (h *Handler) DailyReport() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		date := ctx.Query("date")
		if date == "" {
			date = time.Now().AddDate(0, 0, -1).Format(consts.DateLayout)
		}
		report, err := h.rs.GetDailyReport(ctx.Request.Context(), date)
		if err != nil {
			response.JSON(ctx, errs.Wrap(err, ecode.StorageErr, "daily report query failed"), nil)
			return
		}
		if report == nil {
			response.JSON(ctx, errs.Newf(ecode.NotFoundErr, "", "no daily report for %s", date), nil)
			return
		}
		response.JSON(ctx, nil, report)
	}
}
