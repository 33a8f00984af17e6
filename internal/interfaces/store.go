package interfaces

import (
	"context"
	"errors"

	"github.com/raysh454/acesso/internal/model"
)

// ErrAuditNotFound is returned by Store implementations when the requested
// audit does not exist. Callers match it with errors.Is.
var ErrAuditNotFound = errors.New("audit not found")

// Store is the outbound persistence collaborator. The core emits completed
// audits and their aggregates through it but accepts no guarantee about
// storage success and does not decide how results are stored.
type Store interface {
	SaveAudit(ctx context.Context, a *model.Audit) error
	GetAudit(ctx context.Context, id string) (*model.Audit, error)
	ListAudits(ctx context.Context, site string, limit int) ([]model.Audit, error)

	SaveViolations(ctx context.Context, auditID string, violations []model.AggregatedViolation) error
	GetViolations(ctx context.Context, auditID string) ([]model.AggregatedViolation, error)

	Close() error
}
