// Package engine implements the matching engine and the settlement
// executor. Matching is a pure function over order snapshots; all side
// effects live in the executor.
package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/gridmesh/energymarket/internal/domain"
)

// Match is one proposed execution: a crossing buy/sell pair with the
// quantity and midpoint price to settle at. Proposals carry no state;
// they are applied (or discarded) by the executor.
type Match struct {
	BuyOrderID  string
	SellOrderID string
	Buyer       string
	Seller      string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
}

var two = decimal.NewFromInt(2)

// ProposeMatches computes the ordered list of matches for a snapshot
// of active orders. Buys are taken in price-descending, time-ascending
// order; sells in price-ascending, time-ascending order. A pair
// crosses when the buy price meets or exceeds the sell price; the
// match quantity is the smaller remaining quantity and the execution
// price the midpoint of the two limit prices.
//
// The snapshots are value copies: remaining quantities are decremented
// locally as matches are proposed so later pairs in the same pass see
// updated remainders, and nothing is committed here.
func ProposeMatches(buys, sells []domain.Order) []Match {
	sortByPriority(buys, func(a, b *domain.Order) int {
		return b.PricePerKwh.Cmp(a.PricePerKwh) // descending
	})
	sortByPriority(sells, func(a, b *domain.Order) int {
		return a.PricePerKwh.Cmp(b.PricePerKwh) // ascending
	})

	var matches []Match
	for bi := range buys {
		buy := &buys[bi]
		for si := range sells {
			if buy.RemainingKwh().Sign() <= 0 {
				break
			}
			sell := &sells[si]
			if sell.RemainingKwh().Sign() <= 0 {
				continue
			}
			if buy.PricePerKwh.Cmp(sell.PricePerKwh) < 0 {
				// Sells are price-ascending: nothing further crosses.
				break
			}

			qty := buy.RemainingKwh()
			if r := sell.RemainingKwh(); r.Cmp(qty) < 0 {
				qty = r
			}

			buy.FilledKwh = buy.FilledKwh.Add(qty)
			sell.FilledKwh = sell.FilledKwh.Add(qty)

			matches = append(matches, Match{
				BuyOrderID:  buy.OrderID,
				SellOrderID: sell.OrderID,
				Buyer:       buy.Owner,
				Seller:      sell.Owner,
				Quantity:    qty,
				Price:       buy.PricePerKwh.Add(sell.PricePerKwh).Div(two),
			})
		}
	}
	return matches
}

// sortByPriority sorts orders by the given price comparison, breaking
// ties by earliest creation time, then order ID for determinism.
func sortByPriority(orders []domain.Order, priceCmp func(a, b *domain.Order) int) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := &orders[i], &orders[j]
		if c := priceCmp(a, b); c != 0 {
			return c < 0
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.OrderID < b.OrderID
	})
}
