package admin

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"pyraledger/internal/consts"
	"pyraledger/internal/model/entity"
	"pyraledger/internal/service"
	"pyraledger/internal/symbol"
	errs "pyraledger/pkg/errors"
	"pyraledger/pkg/errors/ecode"
	"pyraledger/pkg/response"
)

// Handler 运行时管理接口：暂停开关、忽略交易对、资金覆盖、手动日报
type Handler struct {
	ss  *service.SettingsService
	rs  *service.ReportService
	loc *time.Location
}

func NewHandler(ss *service.SettingsService, rs *service.ReportService, loc *time.Location) *Handler {
	return &Handler{ss: ss, rs: rs, loc: loc}
}

// SetPaused POST /admin/pause 和 /admin/resume
func (h *Handler) SetPaused(paused bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if err := h.ss.SetPaused(ctx.Request.Context(), paused); err != nil {
			response.JSON(ctx, errs.Wrap(err, ecode.StorageErr, "pause update failed"), nil)
			return
		}
		response.JSON(ctx, nil, gin.H{"paused": paused})
	}
}

// Status GET /admin/status
func (h *Handler) Status() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		paused, err := h.ss.IsPaused(ctx.Request.Context())
		if err != nil {
			response.JSON(ctx, errs.Wrap(err, ecode.StorageErr, "status query failed"), nil)
			return
		}
		pairs, err := h.ss.IgnoredPairs(ctx.Request.Context())
		if err != nil {
			response.JSON(ctx, errs.Wrap(err, ecode.StorageErr, "status query failed"), nil)
			return
		}
		response.JSON(ctx, nil, gin.H{
			"paused":              paused,
			"ignored_pairs":       pairs,
			"supported_exchanges": symbol.SupportedExchanges(),
		})
	}
}

type ignoreReq struct {
	Symbol string `json:"symbol" binding:"required"`
}

// SetIgnored POST /admin/ignore 和 /admin/unignore
func (h *Handler) SetIgnored(ignored bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req ignoreReq
		if err := ctx.ShouldBindJSON(&req); err != nil {
			response.JSON(ctx, errs.Wrap(err, ecode.BindErr, "invalid request body"), nil)
			return
		}
		pair, err := symbol.ParsePair(req.Symbol)
		if err != nil {
			response.JSON(ctx, errs.Newf(ecode.InvalidSymbolErr, "", "cannot parse symbol: %s", req.Symbol), nil)
			return
		}
		if err := h.ss.SetIgnored(ctx.Request.Context(), pair.Base, pair.Quote, ignored); err != nil {
			response.JSON(ctx, errs.Wrap(err, ecode.StorageErr, "ignore update failed"), nil)
			return
		}
		response.JSON(ctx, nil, gin.H{"pair": pair.Display(), "ignored": ignored})
	}
}

type capitalReq struct {
	Exchange     string  `json:"exchange" binding:"required"`
	Symbol       string  `json:"symbol" binding:"required"`
	Timeframe    string  `json:"timeframe" binding:"required"`
	PyramidIndex int     `json:"pyramid_index" binding:"gte=0"`
	Capital      float64 `json:"capital" binding:"required,gt=0"`
}

// SetCapital POST /admin/capital
func (h *Handler) SetCapital() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req capitalReq
		if err := ctx.ShouldBindJSON(&req); err != nil {
			response.JSON(ctx, errs.Wrap(err, ecode.BindErr, "invalid request body"), nil)
			return
		}
		if !symbol.IsValidExchange(req.Exchange) {
			response.JSON(ctx, errs.Newf(ecode.UnknownExchangeErr, "", "unknown exchange: %s, supported: %s",
				req.Exchange, strings.Join(symbol.SupportedExchanges(), ",")), nil)
			return
		}
		ex := symbol.NormalizeExchange(req.Exchange)
		pair, err := symbol.ParsePair(req.Symbol)
		if err != nil {
			response.JSON(ctx, errs.Newf(ecode.InvalidSymbolErr, "", "cannot parse symbol: %s", req.Symbol), nil)
			return
		}
		override := &entity.CapitalOverride{
			Exchange:     ex,
			Base:         pair.Base,
			Quote:        pair.Quote,
			Timeframe:    req.Timeframe,
			PyramidIndex: req.PyramidIndex,
			CapitalQuote: req.Capital,
		}
		if err := h.ss.SetCapitalOverride(ctx.Request.Context(), override); err != nil {
			response.JSON(ctx, errs.Wrap(err, ecode.StorageErr, "capital override failed"), nil)
			return
		}
		response.JSON(ctx, nil, override)
	}
}

// DeleteCapital DELETE /admin/capital
func (h *Handler) DeleteCapital() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ex := symbol.NormalizeExchange(ctx.Query("exchange"))
		pair, err := symbol.ParsePair(ctx.Query("symbol"))
		if ex == "" || err != nil {
			response.JSON(ctx, errs.New(ecode.BindErr, "", "exchange and symbol required"), nil)
			return
		}
		timeframe := ctx.Query("timeframe")
		idx := cast.ToInt(ctx.Query("pyramid_index"))
		if err := h.ss.DeleteCapitalOverride(ctx.Request.Context(), ex, pair.Base, pair.Quote, timeframe, idx); err != nil {
			response.JSON(ctx, errs.Wrap(err, ecode.StorageErr, "capital override delete failed"), nil)
			return
		}
		response.JSON(ctx, nil, nil)
	}
}

// ClearCapital DELETE /admin/capital/all
func (h *Handler) ClearCapital() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if err := h.ss.ClearCapitalOverrides(ctx.Request.Context()); err != nil {
			response.JSON(ctx, errs.Wrap(err, ecode.StorageErr, "capital override clear failed"), nil)
			return
		}
		response.JSON(ctx, nil, nil)
	}
}

// ListCapital GET /admin/capital
func (h *Handler) ListCapital() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		overrides, err := h.ss.ListCapitalOverrides(ctx.Request.Context())
		if err != nil {
			response.JSON(ctx, errs.Wrap(err, ecode.StorageErr, "capital override list failed"), nil)
			return
		}
		response.JSON(ctx, nil, overrides)
	}
}

// GenerateDailyReport POST /admin/report/daily?date=2026-01-20，缺省生成昨天的
func (h *Handler) GenerateDailyReport() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		day := time.Now().In(h.loc).AddDate(0, 0, -1)
		if v := ctx.Query("date"); v != "" {
			parsed, err := time.ParseInLocation(consts.DateLayout, v, h.loc)
			if err != nil {
				response.JSON(ctx, errs.Newf(ecode.BindErr, "", "invalid date: %s", v), nil)
				return
			}
			day = parsed
		}
		report, err := h.rs.PublishDailyReport(ctx.Request.Context(), day, h.loc)
		if err != nil {
			response.JSON(ctx, errs.Wrap(err, ecode.StorageErr, "daily report failed"), nil)
			return
		}
		response.JSON(ctx, nil, report)
	}
}
