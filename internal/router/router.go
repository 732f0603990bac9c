package router

import (
	"github.com/gin-gonic/gin"

	"pyraledger/conf"
	"pyraledger/internal/handler/admin"
	"pyraledger/internal/handler/ping"
	"pyraledger/internal/handler/report"
	"pyraledger/internal/handler/trade"
	"pyraledger/internal/handler/webhook"
	"pyraledger/internal/middleware"
)

type ApiRouter struct {
	webhookHandler *webhook.Handler
	reportHandler  *report.Handler
	tradeHandler   *trade.Handler
	adminHandler   *admin.Handler
}

func NewApiRouter(wh *webhook.Handler, rh *report.Handler, th *trade.Handler, ah *admin.Handler) *ApiRouter {
	return &ApiRouter{webhookHandler: wh, reportHandler: rh, tradeHandler: th, adminHandler: ah}
}

func (api *ApiRouter) Load(g *gin.Engine) {

	g.Use(middleware.NoCache(), middleware.Options(), middleware.Secure())
	g.Use(middleware.RequestId(), middleware.Logger)

	g.GET("/ping", ping.Ping())

	// 信号入口，TradingView只会POST一个固定地址
	wh := g.Group("/webhook", middleware.WebhookAuth(conf.AppConfig.Webhook.Secret))
	{
		wh.POST("", api.webhookHandler.HandleAlert())
	}

	base := g.Group("/api/v1")

	t := base.Group("/trades")
	{
		t.GET("/recent", api.tradeHandler.Recent())
		t.GET("/:id", api.tradeHandler.Detail())
	}

	r := base.Group("/report")
	{
		r.GET("/statistics", api.reportHandler.Statistics())
		r.GET("/pnl", api.reportHandler.RealizedPnl())
		r.GET("/drawdown", api.reportHandler.Drawdown())
		r.GET("/streak", api.reportHandler.Streak())
		r.GET("/best", api.reportHandler.PairRanking(true))
		r.GET("/worst", api.reportHandler.PairRanking(false))
		r.GET("/exchanges", api.reportHandler.Breakdown("exchange"))
		r.GET("/timeframes", api.reportHandler.Breakdown("timeframe"))
		r.GET("/pairs", api.reportHandler.Breakdown("pair"))
		r.GET("/trades", api.reportHandler.ClosedTrades())
		r.GET("/equity", api.reportHandler.EquityCurve())
		r.GET("/daily", api.reportHandler.DailyReport())
	}

	a := base.Group("/admin", middleware.AntiDuplicate())
	{
		a.GET("/status", api.adminHandler.Status())
		a.POST("/pause", api.adminHandler.SetPaused(true))
		a.POST("/resume", api.adminHandler.SetPaused(false))
		a.POST("/ignore", api.adminHandler.SetIgnored(true))
		a.POST("/unignore", api.adminHandler.SetIgnored(false))
		a.GET("/capital", api.adminHandler.ListCapital())
		a.POST("/capital", api.adminHandler.SetCapital())
		a.DELETE("/capital", api.adminHandler.DeleteCapital())
		a.DELETE("/capital/all", api.adminHandler.ClearCapital())
		a.POST("/report/daily", api.adminHandler.GenerateDailyReport())
	}
}
