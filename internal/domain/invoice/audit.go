package invoice

import (
	"time"

	"github.com/google/uuid"
)

// Claim audit actions.
const (
	AuditActionReleased   = "released"
	AuditActionCancelled  = "cancelled"
	AuditActionReconciled = "reconciled"
)

// ClaimAudit records one claim lifecycle event. For releases it carries the
// checklist as confirmed at the time.
type ClaimAudit struct {
	ID         uuid.UUID `db:"id" json:"id"`
	InvoiceID  uuid.UUID `db:"invoice_id" json:"invoiceId"`
	Action     string    `db:"action" json:"action"`
	FromStatus string    `db:"from_status" json:"fromStatus"`
	ToStatus   string    `db:"to_status" json:"toStatus"`
	Actor      string    `db:"actor" json:"actor"`
	Checklist  Checklist `db:"checklist" json:"checklist,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
