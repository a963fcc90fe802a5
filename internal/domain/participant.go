package domain

import (
	"regexp"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ZeroAddress is the null identity. Transfers to it are rejected.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

var addressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidAddress reports whether s is a well-formed settlement address.
func ValidAddress(s string) bool {
	return addressRegex.MatchString(s)
}

// Participant represents a registered prosumer holding an energy
// balance. The balance is mutated only by the ledger while Mu is held.
type Participant struct {
	Address    string
	BalanceKwh decimal.Decimal
	CreatedAt  time.Time
	Mu         sync.Mutex // per-participant lock for balance mutations
}
