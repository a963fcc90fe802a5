package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"

	"github.com/gridmesh/energymarket/internal/domain"
)

func genSnapshot(t *rapid.T) (buys, sells []domain.Order) {
	nb := rapid.IntRange(0, 6).Draw(t, "buys")
	ns := rapid.IntRange(0, 6).Draw(t, "sells")
	for i := 0; i < nb; i++ {
		buys = append(buys, domain.Order{
			OrderID:      fmt.Sprintf("b%d", i),
			Owner:        fmt.Sprintf("0x%040x", i+1),
			Side:         domain.OrderSideBuy,
			RequestedKwh: decimal.NewFromInt(rapid.Int64Range(1, 200).Draw(t, "buyKwh")),
			PricePerKwh:  decimal.NewFromInt(rapid.Int64Range(1, 50).Draw(t, "buyPrice")),
			Status:       domain.OrderStatusActive,
			CreatedAt:    snapshotClock.Add(time.Duration(rapid.Int64Range(0, 1000).Draw(t, "buyAge")) * time.Millisecond),
		})
	}
	for i := 0; i < ns; i++ {
		sells = append(sells, domain.Order{
			OrderID:      fmt.Sprintf("s%d", i),
			Owner:        fmt.Sprintf("0x%040x", 100+i),
			Side:         domain.OrderSideSell,
			RequestedKwh: decimal.NewFromInt(rapid.Int64Range(1, 200).Draw(t, "sellKwh")),
			PricePerKwh:  decimal.NewFromInt(rapid.Int64Range(1, 50).Draw(t, "sellPrice")),
			Status:       domain.OrderStatusActive,
			CreatedAt:    snapshotClock.Add(time.Duration(rapid.Int64Range(0, 1000).Draw(t, "sellAge")) * time.Millisecond),
		})
	}
	return buys, sells
}

// Property: proposed quantities never exceed an order's remaining
// quantity, prices sit at the midpoint of crossing limits, and the
// match list leaves no crossing pair with remaining quantity on both
// sides.
func TestProperty_MatchesAreSoundAndExhaustive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		buys, sells := genSnapshot(t)

		requested := make(map[string]decimal.Decimal)
		prices := make(map[string]decimal.Decimal)
		for _, o := range append(append([]domain.Order{}, buys...), sells...) {
			requested[o.OrderID] = o.RequestedKwh
			prices[o.OrderID] = o.PricePerKwh
		}

		matches := ProposeMatches(buys, sells)

		filled := make(map[string]decimal.Decimal)
		for _, m := range matches {
			if m.Quantity.Sign() <= 0 {
				t.Fatalf("non-positive match quantity: %s", m.Quantity)
			}
			bp, sp := prices[m.BuyOrderID], prices[m.SellOrderID]
			if bp.Cmp(sp) < 0 {
				t.Fatalf("non-crossing pair matched: buy %s < sell %s", bp, sp)
			}
			if !m.Price.Equal(bp.Add(sp).Div(two)) {
				t.Fatalf("price %s is not the midpoint of %s and %s", m.Price, bp, sp)
			}
			filled[m.BuyOrderID] = filled[m.BuyOrderID].Add(m.Quantity)
			filled[m.SellOrderID] = filled[m.SellOrderID].Add(m.Quantity)
		}

		for id, f := range filled {
			if f.Cmp(requested[id]) > 0 {
				t.Fatalf("order %s over-matched: %s > %s", id, f, requested[id])
			}
		}

		// Exhaustiveness: no crossing pair may remain with positive
		// remaining quantity on both sides.
		for _, b := range buys {
			remB := b.RequestedKwh.Sub(filled[b.OrderID])
			if remB.Sign() <= 0 {
				continue
			}
			for _, s := range sells {
				remS := s.RequestedKwh.Sub(filled[s.OrderID])
				if remS.Sign() > 0 && b.PricePerKwh.Cmp(s.PricePerKwh) >= 0 {
					t.Fatalf("crossing pair %s/%s left unmatched (%s, %s remaining)",
						b.OrderID, s.OrderID, remB, remS)
				}
			}
		}
	})
}

// Property: matching is deterministic. The same snapshot always
// yields the same match list.
func TestProperty_MatchingIsDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		buys, sells := genSnapshot(t)

		first := ProposeMatches(append([]domain.Order{}, buys...), append([]domain.Order{}, sells...))
		second := ProposeMatches(append([]domain.Order{}, buys...), append([]domain.Order{}, sells...))

		if len(first) != len(second) {
			t.Fatalf("match counts differ: %d vs %d", len(first), len(second))
		}
		for i := range first {
			if first[i] != second[i] {
				if !first[i].Quantity.Equal(second[i].Quantity) ||
					!first[i].Price.Equal(second[i].Price) ||
					first[i].BuyOrderID != second[i].BuyOrderID ||
					first[i].SellOrderID != second[i].SellOrderID {
					t.Fatalf("match %d differs: %+v vs %+v", i, first[i], second[i])
				}
			}
		}
	})
}
