package main

import (
	"context"
	"flag"
	"log"

	"pyraledger/conf"
	"pyraledger/pkg/cache"
	"pyraledger/pkg/db"
	"pyraledger/pkg/logger"
)

func main() {
	configPath := flag.String("c", "config.yaml", "配置文件路径")
	flag.Parse()

	if err := conf.LoadConfig(*configPath); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(conf.AppConfig.Log)
	defer logger.Sync()

	dbCfg := db.NewConfig(
		conf.AppConfig.Db.Username,
		conf.AppConfig.Db.Password,
		conf.AppConfig.Db.Host,
		conf.AppConfig.Db.Port,
		conf.AppConfig.Db.DbName,
	)
	gormDB := db.Init(dbCfg)
	if err := migrate(gormDB); err != nil {
		logger.Fatal("建表失败", logger.Pair("err", err.Error()))
	}

	if conf.AppConfig.Redis.Addr != "" {
		cache.InitRedis(conf.AppConfig.Redis)
		defer cache.CloseRedis()
	}

	apiRouter, scheduler, producer := InitRouter(gormDB)

	ctx, cancel := context.WithCancel(context.Background())
	scheduler.Start(ctx)

	server := NewServer(&conf.AppConfig)
	server.RegisterOnShutdown(func() {
		cancel()
		scheduler.Stop()
		producer.Close()
	})
	server.Run(apiRouter)
}
