package exchange

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SimulatedQuoter 本地模拟行情，适合本地联调和测试
type SimulatedQuoter struct {
	mu     sync.Mutex
	prices map[string]float64
	rules  map[string]*Rules
}

func NewSimulatedQuoter() *SimulatedQuoter {
	return &SimulatedQuoter{
		prices: make(map[string]float64),
		rules:  make(map[string]*Rules),
	}
}

func pairKey(base, quote string) string {
	return base + "/" + quote
}

// SetPrice 设置某个币对的固定价格
func (s *SimulatedQuoter) SetPrice(base, quote string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[pairKey(base, quote)] = price
}

func (s *SimulatedQuoter) SetRules(base, quote string, rules *Rules) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[pairKey(base, quote)] = rules
}

func (s *SimulatedQuoter) GetPrice(ctx context.Context, base, quote string) (*PriceData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	price, ok := s.prices[pairKey(base, quote)]
	if !ok {
		return nil, fmt.Errorf("%w: no simulated price for %s/%s", ErrPriceUnavailable, base, quote)
	}
	return &PriceData{
		Price:     price,
		Timestamp: time.Now(),
		Source:    "simulated",
	}, nil
}

func (s *SimulatedQuoter) GetRules(ctx context.Context, base, quote string) (*Rules, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rules, ok := s.rules[pairKey(base, quote)]; ok {
		return rules, nil
	}
	return DefaultRules(), nil
}
