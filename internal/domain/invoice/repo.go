package invoice

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the invoice persistence interface.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]Invoice, int, error)
	ListByClaimStatus(ctx context.Context, status string, limit, offset int) ([]Invoice, int, error)

	// UpdateClaimStatus updates the claim fields only when the stored status
	// still equals expectedStatus. It returns false when the guard failed,
	// which the service reports as a conflict.
	UpdateClaimStatus(ctx context.Context, inv *Invoice, expectedStatus string) (bool, error)

	// UpdateReconciled persists the corrected fields and the claim re-entry to
	// Pending, guarded on the record still being Cancelled.
	UpdateReconciled(ctx context.Context, inv *Invoice) (bool, error)

	NextInvoiceNumber(ctx context.Context) (string, error)
}

// AuditRepository persists and lists claim lifecycle events.
type AuditRepository interface {
	Create(ctx context.Context, a *ClaimAudit) error
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]ClaimAudit, error)
}
