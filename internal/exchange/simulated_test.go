package exchange

import (
	"context"
	"errors"
	"testing"
)

func TestSimulatedQuoterGetPrice(t *testing.T) {
	q := NewSimulatedQuoter()
	q.SetPrice("BTC", "USDT", 30000)

	data, err := q.GetPrice(context.Background(), "BTC", "USDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Price != 30000 {
		t.Errorf("price = %v, want 30000", data.Price)
	}
	if data.Source != "simulated" {
		t.Errorf("source = %s", data.Source)
	}
}

func TestSimulatedQuoterUnknownPair(t *testing.T) {
	q := NewSimulatedQuoter()
	_, err := q.GetPrice(context.Background(), "XYZ", "USDT")
	if !errors.Is(err, ErrPriceUnavailable) {
		t.Fatalf("err = %v, want ErrPriceUnavailable", err)
	}
}

func TestSimulatedQuoterRulesDefault(t *testing.T) {
	q := NewSimulatedQuoter()
	rules, err := q.GetRules(context.Background(), "BTC", "USDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rules.QtyPrecision != 8 {
		t.Errorf("qty precision = %d, want 8", rules.QtyPrecision)
	}

	q.SetRules("BTC", "USDT", &Rules{QtyPrecision: 4, PricePrecision: 2})
	rules, _ = q.GetRules(context.Background(), "BTC", "USDT")
	if rules.QtyPrecision != 4 {
		t.Errorf("qty precision = %d, want 4", rules.QtyPrecision)
	}
}
