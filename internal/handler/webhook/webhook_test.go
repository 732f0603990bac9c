package webhook

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"pyraledger/internal/model"
	"pyraledger/pkg/validator"
)

func TestHandleAlertRejectsBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	validator.LazyInitGinValidator()
	g := gin.New()
	h := NewHandler(nil)
	g.POST("/webhook", h.HandleAlert())

	tests := []struct {
		name string
		body string
	}{
		{"非JSON", "not json"},
		{"缺少必填字段", `{"exchange":"binance"}`},
		{"非法action", `{"exchange":"binance","symbol":"BTC/USDT","timeframe":"1h","action":"hold","close":100,"position_side":"long"}`},
		{"close为0", `{"exchange":"binance","symbol":"BTC/USDT","timeframe":"1h","action":"buy","close":0,"position_side":"long"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			g.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			var resp model.WebhookResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid response: %v", err)
			}
			if resp.Success {
				t.Error("success should be false")
			}
			if resp.Error != model.ErrKindValidation {
				t.Errorf("error = %s, want %s", resp.Error, model.ErrKindValidation)
			}
		})
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		kind string
		want int
	}{
		{model.ErrKindStorage, http.StatusInternalServerError},
		{model.ErrKindPriceFetch, http.StatusBadGateway},
		{model.ErrKindNoOpenTrade, http.StatusNotFound},
		{model.ErrKindMaxPyramids, http.StatusConflict},
		{model.ErrKindUnknownExchange, http.StatusBadRequest},
		{model.ErrKindInvalidSymbol, http.StatusBadRequest},
		{"", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if got := statusOf(tt.kind); got != tt.want {
			t.Errorf("statusOf(%q) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}
