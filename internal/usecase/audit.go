package usecase

import (
	"context"
	"fmt"

	"CarbonDesk/internal/domain/models"
	domrepo "CarbonDesk/internal/domain/repository"
)

// AuditUseCase reads the audit trail.
type AuditUseCase struct {
	store    domrepo.AuditStore
	maxLimit int
}

func NewAuditUseCase(store domrepo.AuditStore) *AuditUseCase {
	return &AuditUseCase{store: store, maxLimit: 10000}
}

// Query materializes at most f.Limit entries in ascending timestamp order.
func (uc *AuditUseCase) Query(ctx context.Context, f models.AuditFilter) ([]models.AuditLogEntry, error) {
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return nil, fmt.Errorf("audit query: from must be <= to: %w", models.ErrInvalidArgument)
	}
	if f.Limit <= 0 || f.Limit > uc.maxLimit {
		f.Limit = uc.maxLimit
	}
	out := make([]models.AuditLogEntry, 0)
	for e, err := range uc.store.Query(ctx, f) {
		if err != nil {
			return nil, fmt.Errorf("audit query: %w", err)
		}
		out = append(out, e)
		if len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}
