package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pyraledger/internal/model"
	"pyraledger/internal/service"
	errs "pyraledger/pkg/errors"
	"pyraledger/pkg/logger"
)

// Handler 接收TradingView信号的入口
type Handler struct {
	ts *service.TradeService
}

func NewHandler(ts *service.TradeService) *Handler {
	return &Handler{ts: ts}
}

// HandleAlert POST /webhook
// 响应结构固定为WebhookResponse，信号源只认这个格式
func (h *Handler) HandleAlert() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var alert model.Alert
		if err := ctx.ShouldBindJSON(&alert); err != nil {
			ctx.JSON(http.StatusBadRequest, model.WebhookResponse{
				Success: false,
				Message: err.Error(),
				Error:   model.ErrKindValidation,
			})
			return
		}

		result := h.ts.HandleAlert(ctx.Request.Context(), &alert)
		if result.Success {
			ctx.JSON(http.StatusOK, model.WebhookResponse{
				Success: true,
				Message: result.Message,
				TradeID: result.TradeID,
				Price:   result.Price,
			})
			return
		}

		kind := errs.KindOf(result.Err)
		logger.Warn("信号处理失败",
			logger.Pair("kind", kind),
			logger.Pair("message", result.Message))

		ctx.JSON(statusOf(kind), model.WebhookResponse{
			Success: false,
			Message: result.Message,
			Error:   kind,
		})
	}
}

func statusOf(kind string) int {
	switch kind {
	case model.ErrKindStorage:
		return http.StatusInternalServerError
	case model.ErrKindPriceFetch:
		return http.StatusBadGateway
	case model.ErrKindNoOpenTrade:
		return http.StatusNotFound
	case model.ErrKindMaxPyramids:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
