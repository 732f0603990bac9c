package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cast"

	"pyraledger/conf"
	"pyraledger/internal/consts"
	"pyraledger/internal/dao/query"
	"pyraledger/internal/exchange"
	"pyraledger/internal/model"
	"pyraledger/internal/service"
	"pyraledger/internal/symbol"
	"pyraledger/pkg/db"
	"pyraledger/pkg/kafka"
	"pyraledger/pkg/logger"
)

// 从导出的信号历史CSV离线重建账本
// 价格取CSV里的close，已经结算过的周期按±2小时窗口跳过
//
// CSV列: timestamp,exchange,symbol,timeframe,action,order_id,contracts,close,position_side,position_qty

const dedupWindow = 2 * time.Hour

func main() {
	configPath := flag.String("c", "config.yaml", "配置文件路径")
	csvPath := flag.String("f", "alerts.csv", "信号历史CSV")
	cutoff := flag.String("cutoff", "", "只处理该日期（含）之后的信号，格式2026-01-20")
	flag.Parse()

	if err := conf.LoadConfig(*configPath); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	// 离线重建只信任CSV里的价格
	conf.AppConfig.Trading.PriceSource = "payload"

	logger.Init(conf.AppConfig.Log)
	defer logger.Sync()

	var cutoffTime time.Time
	if *cutoff != "" {
		t, err := time.Parse(consts.DateLayout, *cutoff)
		if err != nil {
			logger.Fatal("cutoff日期格式错误", logger.Pair("cutoff", *cutoff))
		}
		cutoffTime = t
	}

	dbCfg := db.NewConfig(
		conf.AppConfig.Db.Username,
		conf.AppConfig.Db.Password,
		conf.AppConfig.Db.Host,
		conf.AppConfig.Db.Port,
		conf.AppConfig.Db.DbName,
	)
	gormDB := db.Init(dbCfg)

	tradeDao := query.NewTradeDao(gormDB)
	reportDao := query.NewReportDao(gormDB)
	settingsDao := query.NewSettingsDao(gormDB)
	settingsService := service.NewSettingsService(settingsDao, conf.AppConfig.Trading)
	tradeService := service.NewTradeService(tradeDao, settingsDao, settingsService,
		exchange.NewSimulatedQuoter(), kafka.NoopProducer{}, conf.AppConfig.Trading)

	f, err := os.Open(*csvPath)
	if err != nil {
		logger.Fatal("CSV打开失败", logger.Pair("path", *csvPath), logger.Pair("err", err.Error()))
	}
	defer f.Close()

	ctx := context.Background()
	reader := csv.NewReader(f)
	var line, applied, skipped, failed int

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Fatal("CSV读取失败", logger.Pair("line", line), logger.Pair("err", err.Error()))
		}
		line++
		if line == 1 && record[0] == "timestamp" {
			continue // 表头
		}
		if len(record) < 10 {
			logger.Warn("CSV行字段不足，跳过", logger.Pair("line", line))
			skipped++
			continue
		}

		alert := model.Alert{
			Timestamp:    record[0],
			Exchange:     record[1],
			Symbol:       record[2],
			Timeframe:    record[3],
			Action:       record[4],
			OrderID:      record[5],
			Contracts:    cast.ToFloat64(record[6]),
			Close:        cast.ToFloat64(record[7]),
			PositionSide: record[8],
			PositionQty:  cast.ToFloat64(record[9]),
		}

		signalTime, terr := time.Parse(time.RFC3339, alert.Timestamp)
		if terr != nil {
			logger.Warn("时间戳无法解析，跳过", logger.Pair("line", line), logger.Pair("ts", alert.Timestamp))
			skipped++
			continue
		}
		if !cutoffTime.IsZero() && signalTime.Before(cutoffTime) {
			skipped++
			continue
		}

		// 离场信号在窗口内已有平仓记录时视为重复导入
		if alert.Kind() == model.SignalExit {
			ex := symbol.NormalizeExchange(alert.Exchange)
			pair, perr := symbol.ParsePair(alert.Symbol)
			if ex != "" && perr == nil {
				existing, werr := reportDao.FindClosedTradeInWindow(ctx, ex, pair.Base, pair.Quote,
					alert.Timeframe, signalTime, dedupWindow)
				if werr == nil && existing != nil {
					skipped++
					continue
				}
			}
		}

		result := tradeService.HandleAlert(ctx, &alert)
		if result.Success {
			applied++
		} else {
			failed++
			logger.Warn("信号重放失败",
				logger.Pair("line", line),
				logger.Pair("message", result.Message))
		}
	}

	logger.Info("离线重建完成",
		logger.Pair("lines", line),
		logger.Pair("applied", applied),
		logger.Pair("skipped", skipped),
		logger.Pair("failed", failed))
}
