package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuditRecord is one append-only entry in the balance audit trail.
// Every ledger mutation produces exactly one record per affected
// participant.
type AuditRecord struct {
	Seq         uint64
	Participant string
	DeltaKwh    decimal.Decimal // negative for debits
	Reason      string          // "surplus", "transfer_out", "transfer_in"
	BalanceKwh  decimal.Decimal // resulting balance
	At          time.Time
}
