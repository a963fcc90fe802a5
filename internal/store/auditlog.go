package store

import (
	"context"
	"sync"

	"github.com/gridmesh/energymarket/internal/domain"
)

// AuditLog stores the append-only balance audit trail.
type AuditLog interface {
	// Append adds one audit record.
	Append(ctx context.Context, rec *domain.AuditRecord) error

	// ByParticipant returns a participant's audit records in append
	// order.
	ByParticipant(ctx context.Context, addr string) ([]*domain.AuditRecord, error)
}

// MemoryAuditLog is a thread-safe in-memory AuditLog.
type MemoryAuditLog struct {
	mu      sync.RWMutex
	records []*domain.AuditRecord
}

// NewMemoryAuditLog creates an empty MemoryAuditLog.
func NewMemoryAuditLog() *MemoryAuditLog {
	return &MemoryAuditLog{}
}

func (s *MemoryAuditLog) Append(_ context.Context, rec *domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	return nil
}

func (s *MemoryAuditLog) ByParticipant(_ context.Context, addr string) ([]*domain.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.AuditRecord, 0)
	for _, rec := range s.records {
		if rec.Participant == addr {
			result = append(result, rec)
		}
	}
	return result, nil
}
