package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"pyraledger/conf"
	"pyraledger/internal/consts"
	"pyraledger/internal/dao"
	"pyraledger/internal/model/entity"
)

// SettingsService 运行时开关与资金覆盖的管理
type SettingsService struct {
	settings dao.SettingsDao
	trading  conf.TradingConfig
}

func NewSettingsService(settings dao.SettingsDao, trading conf.TradingConfig) *SettingsService {
	return &SettingsService{settings: settings, trading: trading}
}

// IsPaused 全局暂停开关，打开后webhook只应答不记账
func (s *SettingsService) IsPaused(ctx context.Context) (bool, error) {
	v, err := s.settings.GetSetting(ctx, consts.SettingPaused)
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

func (s *SettingsService) SetPaused(ctx context.Context, paused bool) error {
	v := "false"
	if paused {
		v = "true"
	}
	return s.settings.SetSetting(ctx, consts.SettingPaused, v)
}

// IgnoredPairs 当前被忽略的交易对列表（BASE/QUOTE格式）
func (s *SettingsService) IgnoredPairs(ctx context.Context) ([]string, error) {
	v, err := s.settings.GetSetting(ctx, consts.SettingIgnoredPairs)
	if err != nil {
		return nil, err
	}
	if v == "" {
		return nil, nil
	}
	var pairs []string
	if err := json.Unmarshal([]byte(v), &pairs); err != nil {
		return nil, fmt.Errorf("ignored pairs setting is corrupted: %w", err)
	}
	return pairs, nil
}

func (s *SettingsService) IsIgnored(ctx context.Context, base, quote string) (bool, error) {
	pairs, err := s.IgnoredPairs(ctx)
	if err != nil {
		return false, err
	}
	target := base + "/" + quote
	for _, p := range pairs {
		if strings.EqualFold(p, target) {
			return true, nil
		}
	}
	return false, nil
}

func (s *SettingsService) SetIgnored(ctx context.Context, base, quote string, ignored bool) error {
	pairs, err := s.IgnoredPairs(ctx)
	if err != nil {
		return err
	}
	target := strings.ToUpper(base) + "/" + strings.ToUpper(quote)

	next := make([]string, 0, len(pairs)+1)
	found := false
	for _, p := range pairs {
		if strings.EqualFold(p, target) {
			found = true
			if !ignored {
				continue
			}
		}
		next = append(next, p)
	}
	if ignored && !found {
		next = append(next, target)
	}

	data, err := json.Marshal(next)
	if err != nil {
		return err
	}
	return s.settings.SetSetting(ctx, consts.SettingIgnoredPairs, string(data))
}

// ResolveCapital 某个pyramid应投入的资金，有覆盖用覆盖，否则用全局默认
func (s *SettingsService) ResolveCapital(ctx context.Context, exchange, base, quote, timeframe string, pyramidIndex int) (float64, error) {
	capital, found, err := s.settings.GetCapitalOverride(ctx, exchange, base, quote, timeframe, pyramidIndex)
	if err != nil {
		return 0, err
	}
	if found {
		return capital, nil
	}
	return s.trading.DefaultCapital, nil
}

func (s *SettingsService) SetCapitalOverride(ctx context.Context, override *entity.CapitalOverride) error {
	if override.CapitalQuote <= 0 {
		return fmt.Errorf("capital must be positive")
	}
	return s.settings.SetCapitalOverride(ctx, override)
}

func (s *SettingsService) DeleteCapitalOverride(ctx context.Context, exchange, base, quote, timeframe string, pyramidIndex int) error {
	return s.settings.DeleteCapitalOverride(ctx, exchange, base, quote, timeframe, pyramidIndex)
}

func (s *SettingsService) ClearCapitalOverrides(ctx context.Context) error {
	return s.settings.ClearCapitalOverrides(ctx)
}

func (s *SettingsService) ListCapitalOverrides(ctx context.Context) ([]entity.CapitalOverride, error) {
	return s.settings.ListCapitalOverrides(ctx)
}
