package service

import (
	"context"
	"fmt"
	"time"

	"pyraledger/conf"
	"pyraledger/pkg/logger"
)

// ReportScheduler 每天在配置的时刻生成前一天的日报
type ReportScheduler struct {
	reports *ReportService
	cfg     conf.ReportConfig
	loc     *time.Location
	stop    chan struct{}
}

func NewReportScheduler(reports *ReportService, cfg conf.ReportConfig) (*ReportScheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid report timezone %s: %w", cfg.Timezone, err)
	}
	var hour, minute int
	if _, err := fmt.Sscanf(cfg.DailyTime, "%d:%d", &hour, &minute); err != nil {
		return nil, fmt.Errorf("invalid daily-time %s: %w", cfg.DailyTime, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid daily-time %s", cfg.DailyTime)
	}
	return &ReportScheduler{
		reports: reports,
		cfg:     cfg,
		loc:     loc,
		stop:    make(chan struct{}),
	}, nil
}

// next 下一个触发时刻
func (s *ReportScheduler) next(now time.Time) time.Time {
	var hour, minute int
	fmt.Sscanf(s.cfg.DailyTime, "%d:%d", &hour, &minute)

	now = now.In(s.loc)
	fire := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, s.loc)
	if !fire.After(now) {
		fire = fire.AddDate(0, 0, 1)
	}
	return fire
}

// Start 启动调度循环，Stop或ctx取消时退出
func (s *ReportScheduler) Start(ctx context.Context) {
	go s.loop(ctx)
}

func (s *ReportScheduler) loop(ctx context.Context) {
	for {
		fire := s.next(time.Now())
		logger.Info("日报调度就绪", logger.Pair("next", fire.Format(time.RFC3339)))

		timer := time.NewTimer(time.Until(fire))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
		}

		// 生成前一个自然日的日报
		day := fire.AddDate(0, 0, -1)
		if _, err := s.reports.PublishDailyReport(ctx, day, s.loc); err != nil {
			logger.Error("日报生成失败", logger.Pair("err", err.Error()))
		}
	}
}

func (s *ReportScheduler) Stop() {
	close(s.stop)
}

// Location 报表时区，manual触发时handler复用
func (s *ReportScheduler) Location() *time.Location {
	return s.loc
}
