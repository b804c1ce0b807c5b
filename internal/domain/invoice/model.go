package invoice

import (
	"time"

	"github.com/google/uuid"
)

// Claim statuses. An invoice without advance-insurance terms carries no claim
// status at all.
const (
	ClaimStatusPending   = "Pending"
	ClaimStatusReleased  = "Released"
	ClaimStatusCancelled = "Cancelled"
)

// Insurance flags and types.
const (
	InsuranceYes = "Yes"
	InsuranceNo  = "No"

	InsuranceTypePaid    = "Paid"
	InsuranceTypeAdvance = "Advance"
)

var validInsuranceTypes = map[string]bool{
	InsuranceTypePaid:    true,
	InsuranceTypeAdvance: true,
}

var validClaimStatuses = map[string]bool{
	ClaimStatusPending:   true,
	ClaimStatusReleased:  true,
	ClaimStatusCancelled: true,
}

// Invoice is a billed clinic visit with its payment and advance-claim state.
type Invoice struct {
	ID            uuid.UUID `db:"id" json:"id"`
	InvoiceNumber string    `db:"invoice_number" json:"invoiceNumber"`
	EMRNumber     string    `db:"emr_number" json:"emrNumber"`

	PatientName    string `db:"patient_name" json:"patientName"`
	Phone          string `db:"phone" json:"phone"`
	Email          string `db:"email" json:"email"`
	Gender         string `db:"gender" json:"gender"`
	ReferralSource string `db:"referral_source" json:"referralSource"`

	Service   string `db:"service" json:"service"`
	Treatment string `db:"treatment" json:"treatment"`
	Package   string `db:"package" json:"package"`
	Notes     string `db:"notes" json:"notes"`

	Amount             float64 `db:"amount" json:"amount"`
	Paid               float64 `db:"paid" json:"paid"`
	Advance            float64 `db:"advance" json:"advance"`
	Pending            float64 `db:"pending" json:"pending"`
	CoPayPercent       float64 `db:"co_pay_percent" json:"coPayPercent"`
	AdvanceGivenAmount float64 `db:"advance_given_amount" json:"advanceGivenAmount"`

	Insurance     string `db:"insurance" json:"insurance"`
	InsuranceType string `db:"insurance_type" json:"insuranceType"`

	ClaimStatus     string     `db:"advance_claim_status" json:"advanceClaimStatus,omitempty"`
	ClaimReleasedAt *time.Time `db:"advance_claim_release_date" json:"advanceClaimReleaseDate,omitempty"`
	ClaimReleasedBy *string    `db:"advance_claim_released_by" json:"advanceClaimReleasedBy,omitempty"`

	InvoicedDate time.Time `db:"invoiced_date" json:"invoicedDate"`
	InvoicedBy   string    `db:"invoiced_by" json:"invoicedBy"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// HasAdvanceClaim reports whether the invoice participates in the advance
// claim lifecycle.
func (inv *Invoice) HasAdvanceClaim() bool {
	return inv.Insurance == InsuranceYes && inv.InsuranceType == InsuranceTypeAdvance
}

// View is the API representation of an invoice. NeedToPay is never stored; it
// is recomputed from the persisted figures on every read so it can never go
// stale.
type View struct {
	Invoice
	NeedToPay float64 `json:"needToPay"`
}

// View derives the API representation.
func (inv *Invoice) View() View {
	amounts := DeriveAmounts(CalcInput{
		Amount:             inv.Amount,
		Paid:               inv.Paid,
		CoPayPercent:       inv.CoPayPercent,
		AdvanceGivenAmount: inv.AdvanceGivenAmount,
		InsuranceType:      inv.InsuranceType,
	})
	return View{Invoice: *inv, NeedToPay: amounts.NeedToPay}
}

// Views maps a page of invoices to their API representation.
func Views(invs []Invoice) []View {
	out := make([]View, len(invs))
	for i := range invs {
		out[i] = invs[i].View()
	}
	return out
}

// CreateRequest is the payload for creating an invoice.
type CreateRequest struct {
	EMRNumber      string `json:"emrNumber"`
	PatientName    string `json:"patientName"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Gender         string `json:"gender"`
	ReferralSource string `json:"referralSource"`

	Service   string `json:"service"`
	Treatment string `json:"treatment"`
	Package   string `json:"package"`
	Notes     string `json:"notes"`

	Amount             float64 `json:"amount"`
	Paid               float64 `json:"paid"`
	CoPayPercent       float64 `json:"coPayPercent"`
	AdvanceGivenAmount float64 `json:"advanceGivenAmount"`

	Insurance     string `json:"insurance"`
	InsuranceType string `json:"insuranceType"`

	InvoicedDate *time.Time `json:"invoicedDate"`
}

// ReleaseRequest is the payload for releasing a pending claim.
type ReleaseRequest struct {
	Checklist Checklist `json:"checklist"`
}

// ReconcileRequest is the payload for correcting a cancelled claim. Only
// patient, contact and treatment fields are editable; financial figures are
// fixed at invoicing. Pointer fields distinguish "absent" from zero values;
// only present fields are applied, anything else in the payload is ignored.
type ReconcileRequest struct {
	PatientName    *string `json:"patientName"`
	Phone          *string `json:"phone"`
	Email          *string `json:"email"`
	Gender         *string `json:"gender"`
	ReferralSource *string `json:"referralSource"`

	Service   *string `json:"service"`
	Treatment *string `json:"treatment"`
	Package   *string `json:"package"`
	Notes     *string `json:"notes"`
}
