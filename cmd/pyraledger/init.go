package main

import (
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"pyraledger/conf"
	"pyraledger/internal/dao/query"
	"pyraledger/internal/exchange"
	"pyraledger/internal/handler/admin"
	"pyraledger/internal/handler/report"
	"pyraledger/internal/handler/trade"
	"pyraledger/internal/handler/webhook"
	"pyraledger/internal/model/entity"
	"pyraledger/internal/router"
	"pyraledger/internal/service"
	"pyraledger/pkg/cache"
	"pyraledger/pkg/kafka"
	"pyraledger/pkg/logger"
)

// migrate 建表，幂等
func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Trade{},
		&entity.Pyramid{},
		&entity.Exit{},
		&entity.GroupSequence{},
		&entity.CapitalOverride{},
		&entity.Setting{},
		&entity.ProcessedAlert{},
		&entity.SymbolRule{},
		&entity.DailyReport{},
	)
}

// InitRouter 组装依赖，返回路由和日报调度器
func InitRouter(db *gorm.DB) (Router, *service.ReportScheduler, kafka.ProducerService) {
	appCfg := conf.AppConfig

	tradeDao := query.NewTradeDao(db)
	reportDao := query.NewReportDao(db)
	settingsDao := query.NewSettingsDao(db)

	// kafka可选，未启用时用空实现
	var producer kafka.ProducerService = kafka.NoopProducer{}
	if appCfg.Kafka.Enabled {
		producer = kafka.NewKafkaProducer(appCfg.Kafka.Broker)
	}

	// 行情：模拟环境走本地价格，否则走okx公共行情，规则加redis和数据库两级缓存
	var quoter exchange.Quoter
	if appCfg.Okx.Simulated {
		quoter = exchange.NewSimulatedQuoter()
	} else {
		var rdb *redis.Client
		if appCfg.Redis.Addr != "" {
			rdb = cache.GetRedisClient()
		}
		quoter = exchange.NewCachedQuoter(exchange.NewOkxQuoter(), "okx", rdb, settingsDao)
	}

	settingsService := service.NewSettingsService(settingsDao, appCfg.Trading)
	tradeService := service.NewTradeService(tradeDao, settingsDao, settingsService, quoter, producer, appCfg.Trading)
	reportService := service.NewReportService(reportDao, tradeDao, producer)

	scheduler, err := service.NewReportScheduler(reportService, appCfg.Report)
	if err != nil {
		logger.Fatal("日报调度初始化失败", logger.Pair("err", err.Error()))
	}

	wh := webhook.NewHandler(tradeService)
	rh := report.NewHandler(reportService)
	th := trade.NewHandler(tradeService)
	ah := admin.NewHandler(settingsService, reportService, scheduler.Location())

	return router.NewApiRouter(wh, rh, th, ah), scheduler, producer
}
