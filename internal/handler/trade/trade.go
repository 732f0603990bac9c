package trade

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"pyraledger/internal/consts"
	"pyraledger/internal/service"
	errs "pyraledger/pkg/errors"
	"pyraledger/pkg/errors/ecode"
	"pyraledger/pkg/response"
)

// Handler 交易查询接口
type Handler struct {
	ts *service.TradeService
}

func NewHandler(ts *service.TradeService) *Handler {
	return &Handler{ts: ts}
}

// Recent GET /trades/recent?limit=50
func (h *Handler) Recent() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		limit := cast.ToInt(ctx.Query("limit"))
		if limit <= 0 {
			limit = consts.DefaultTradesLimit
		}
		trades, err := h.ts.GetRecentTrades(ctx.Request.Context(), limit)
		if err != nil {
			response.JSON(ctx, errs.Wrap(err, ecode.StorageErr, "trade query failed"), nil)
			return
		}
		response.JSON(ctx, nil, trades)
	}
}

// Detail GET /trades/:id
func (h *Handler) Detail() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.Param("id")
		if id == "" {
			response.JSON(ctx, errs.New(ecode.BindErr, "", "trade id required"), nil)
			return
		}
		detail, err := h.ts.GetTradeDetail(ctx.Request.Context(), id)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		response.JSON(ctx, nil, detail)
	}
}
