package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gridmesh/energymarket/internal/domain"
)

const (
	p1 = "0x1111111111111111111111111111111111111111"
	p2 = "0x2222222222222222222222222222222222222222"
	p3 = "0x3333333333333333333333333333333333333333"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var snapshotClock = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// snap builds an order value for a matching snapshot.
func snap(id, owner string, side domain.OrderSide, kwh, price string, age time.Duration) domain.Order {
	return domain.Order{
		OrderID:      id,
		Owner:        owner,
		Side:         side,
		RequestedKwh: dec(kwh),
		FilledKwh:    decimal.Zero,
		PricePerKwh:  dec(price),
		Status:       domain.OrderStatusActive,
		CreatedAt:    snapshotClock.Add(-age),
	}
}

func TestProposeMatches_SingleCrossingPair(t *testing.T) {
	buys := []domain.Order{snap("b1", p2, domain.OrderSideBuy, "50", "0.12", 0)}
	sells := []domain.Order{snap("s1", p1, domain.OrderSideSell, "50", "0.10", 0)}

	matches := ProposeMatches(buys, sells)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	m := matches[0]
	if m.BuyOrderID != "b1" || m.SellOrderID != "s1" {
		t.Errorf("wrong pair: %s/%s", m.BuyOrderID, m.SellOrderID)
	}
	if !m.Quantity.Equal(dec("50")) {
		t.Errorf("quantity = %s, want 50", m.Quantity)
	}
	if !m.Price.Equal(dec("0.11")) {
		t.Errorf("price = %s, want midpoint 0.11", m.Price)
	}
	if m.Buyer != p2 || m.Seller != p1 {
		t.Errorf("wrong parties: buyer=%s seller=%s", m.Buyer, m.Seller)
	}
}

func TestProposeMatches_NoCross(t *testing.T) {
	buys := []domain.Order{snap("b1", p2, domain.OrderSideBuy, "50", "0.10", 0)}
	sells := []domain.Order{snap("s1", p1, domain.OrderSideSell, "50", "0.12", 0)}

	if matches := ProposeMatches(buys, sells); len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
}

func TestProposeMatches_EqualPricesCross(t *testing.T) {
	buys := []domain.Order{snap("b1", p2, domain.OrderSideBuy, "10", "0.10", 0)}
	sells := []domain.Order{snap("s1", p1, domain.OrderSideSell, "10", "0.10", 0)}

	matches := ProposeMatches(buys, sells)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match at equal prices, got %d", len(matches))
	}
	if !matches[0].Price.Equal(dec("0.10")) {
		t.Errorf("price = %s, want 0.10", matches[0].Price)
	}
}

func TestProposeMatches_PartialFillsAcrossSells(t *testing.T) {
	buys := []domain.Order{snap("b1", p3, domain.OrderSideBuy, "100", "0.20", 0)}
	sells := []domain.Order{
		snap("s1", p1, domain.OrderSideSell, "60", "0.10", 0),
		snap("s2", p2, domain.OrderSideSell, "60", "0.15", 0),
	}

	matches := ProposeMatches(buys, sells)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	// Cheapest sell first, fully consumed.
	if matches[0].SellOrderID != "s1" || !matches[0].Quantity.Equal(dec("60")) {
		t.Errorf("first match: %+v", matches[0])
	}
	if !matches[0].Price.Equal(dec("0.15")) {
		t.Errorf("first price = %s, want 0.15", matches[0].Price)
	}
	// Remainder against the next sell.
	if matches[1].SellOrderID != "s2" || !matches[1].Quantity.Equal(dec("40")) {
		t.Errorf("second match: %+v", matches[1])
	}
	if !matches[1].Price.Equal(dec("0.175")) {
		t.Errorf("second price = %s, want 0.175", matches[1].Price)
	}
}

func TestProposeMatches_PriceTimePriority(t *testing.T) {
	// Two buys at the same price: the older one matches first.
	buys := []domain.Order{
		snap("bNew", p2, domain.OrderSideBuy, "30", "0.12", time.Second),
		snap("bOld", p3, domain.OrderSideBuy, "30", "0.12", time.Minute),
	}
	sells := []domain.Order{snap("s1", p1, domain.OrderSideSell, "30", "0.10", 0)}

	matches := ProposeMatches(buys, sells)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].BuyOrderID != "bOld" {
		t.Errorf("time priority broken: matched %s", matches[0].BuyOrderID)
	}

	// A better-priced newer buy beats an older lower one.
	buys = []domain.Order{
		snap("bLow", p2, domain.OrderSideBuy, "30", "0.11", time.Minute),
		snap("bHigh", p3, domain.OrderSideBuy, "30", "0.13", time.Second),
	}
	sells = []domain.Order{snap("s1", p1, domain.OrderSideSell, "30", "0.10", 0)}
	matches = ProposeMatches(buys, sells)
	if matches[0].BuyOrderID != "bHigh" {
		t.Errorf("price priority broken: matched %s", matches[0].BuyOrderID)
	}
}

func TestProposeMatches_RespectsExistingFills(t *testing.T) {
	buy := snap("b1", p2, domain.OrderSideBuy, "100", "0.12", 0)
	buy.FilledKwh = dec("70")
	sells := []domain.Order{snap("s1", p1, domain.OrderSideSell, "100", "0.10", 0)}

	matches := ProposeMatches([]domain.Order{buy}, sells)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if !matches[0].Quantity.Equal(dec("30")) {
		t.Errorf("quantity = %s, want remaining 30", matches[0].Quantity)
	}
}

func TestProposeMatches_SharedSellAcrossBuys(t *testing.T) {
	// One sell serves two buys; the pass-local remainder must prevent
	// the sell from being proposed twice at full quantity.
	buys := []domain.Order{
		snap("b1", p2, domain.OrderSideBuy, "40", "0.14", time.Minute),
		snap("b2", p3, domain.OrderSideBuy, "40", "0.12", 0),
	}
	sells := []domain.Order{snap("s1", p1, domain.OrderSideSell, "60", "0.10", 0)}

	matches := ProposeMatches(buys, sells)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if !matches[0].Quantity.Equal(dec("40")) || matches[0].BuyOrderID != "b1" {
		t.Errorf("first match: %+v", matches[0])
	}
	if !matches[1].Quantity.Equal(dec("20")) || matches[1].BuyOrderID != "b2" {
		t.Errorf("second match: %+v", matches[1])
	}
}
