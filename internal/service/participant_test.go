package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/gridmesh/energymarket/internal/access"
	"github.com/gridmesh/energymarket/internal/domain"
	"github.com/gridmesh/energymarket/internal/ledger"
	"github.com/gridmesh/energymarket/internal/store"
)

const (
	admin = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	p1    = "0x1111111111111111111111111111111111111111"
	p2    = "0x2222222222222222222222222222222222222222"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newParticipantService() (*ParticipantService, *ledger.Ledger) {
	audit := store.NewMemoryAuditLog()
	l := ledger.New(audit)
	return NewParticipantService(l, access.NewGate(admin), audit, nil), l
}

func TestRegister_AdminOnly(t *testing.T) {
	svc, _ := newParticipantService()

	if _, err := svc.Register(p1, p2); !errors.Is(err, domain.ErrAuthorization) {
		t.Errorf("non-admin register: got %v, want ErrAuthorization", err)
	}

	resp, err := svc.Register(admin, p1)
	if err != nil {
		t.Fatalf("admin register: %v", err)
	}
	if resp.Address != p1 || !resp.BalanceKwh.IsZero() {
		t.Errorf("response = %+v, want zero balance for %s", resp, p1)
	}

	if _, err := svc.Register(admin, p1); !errors.Is(err, domain.ErrAlreadyRegistered) {
		t.Errorf("duplicate register: got %v, want ErrAlreadyRegistered", err)
	}
}

func TestRegister_RejectsBadAddresses(t *testing.T) {
	svc, _ := newParticipantService()

	cases := []struct {
		name string
		addr string
	}{
		{"missing prefix", "1111111111111111111111111111111111111111"},
		{"too short", "0x1111"},
		{"non-hex", "0xzzzz111111111111111111111111111111111111"},
		{"zero address", domain.ZeroAddress},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(admin, tc.addr)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("got %v, want ValidationError", err)
			}
		})
	}
}

func TestReportSurplus_SelfOnly(t *testing.T) {
	svc, _ := newParticipantService()
	if _, err := svc.Register(admin, p1); err != nil {
		t.Fatalf("register: %v", err)
	}

	ctx := context.Background()
	if _, err := svc.ReportSurplus(ctx, p2, p1, dec("10")); !errors.Is(err, domain.ErrAuthorization) {
		t.Errorf("surplus for someone else: got %v, want ErrAuthorization", err)
	}

	resp, err := svc.ReportSurplus(ctx, p1, p1, dec("10.5"))
	if err != nil {
		t.Fatalf("report surplus: %v", err)
	}
	if !resp.BalanceKwh.Equal(dec("10.5")) {
		t.Errorf("balance = %s, want 10.5", resp.BalanceKwh)
	}

	if _, err := svc.ReportSurplus(ctx, p2, p2, dec("5")); !errors.Is(err, domain.ErrNotRegistered) {
		t.Errorf("surplus for unknown participant: got %v, want ErrNotRegistered", err)
	}
}

func TestBalance(t *testing.T) {
	svc, l := newParticipantService()
	if _, err := svc.Register(admin, p1); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := l.CreditSurplus(context.Background(), p1, dec("42")); err != nil {
		t.Fatalf("credit: %v", err)
	}

	resp, err := svc.Balance(context.Background(), p1)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !resp.BalanceKwh.Equal(dec("42")) {
		t.Errorf("balance = %s, want 42", resp.BalanceKwh)
	}

	if _, err := svc.Balance(context.Background(), p2); !errors.Is(err, domain.ErrNotRegistered) {
		t.Errorf("unknown participant: got %v, want ErrNotRegistered", err)
	}
}

func TestAuditTrail(t *testing.T) {
	svc, l := newParticipantService()
	if _, err := svc.Register(admin, p1); err != nil {
		t.Fatalf("register: %v", err)
	}
	ctx := context.Background()
	if err := l.CreditSurplus(ctx, p1, dec("30")); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := l.CreditSurplus(ctx, p1, dec("12")); err != nil {
		t.Fatalf("credit: %v", err)
	}

	recs, err := svc.AuditTrail(ctx, p1)
	if err != nil {
		t.Fatalf("audit trail: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if !recs[0].DeltaKwh.Equal(dec("30")) || recs[0].Reason != ledger.ReasonSurplus {
		t.Errorf("first record = %+v", recs[0])
	}
	if !recs[1].BalanceKwh.Equal(dec("42")) {
		t.Errorf("running balance = %s, want 42", recs[1].BalanceKwh)
	}

	if _, err := svc.AuditTrail(ctx, p2); !errors.Is(err, domain.ErrNotRegistered) {
		t.Errorf("unknown participant: got %v, want ErrNotRegistered", err)
	}
}
