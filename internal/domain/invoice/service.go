package invoice

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/db"
)

// Service implements the invoice and advance-claim lifecycle.
type Service struct {
	repo  Repository
	audit AuditRepository
	tx    func(ctx context.Context, fn func(ctx context.Context) error) error
	log   zerolog.Logger
}

// NewService wires the service. pool may be nil (tests), in which case
// operations run without a surrounding transaction.
func NewService(repo Repository, audit AuditRepository, pool *pgxpool.Pool, log zerolog.Logger) *Service {
	tx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return fn(ctx)
	}
	if pool != nil {
		tx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.InTx(ctx, pool, fn)
		}
	}
	return &Service{repo: repo, audit: audit, tx: tx, log: log}
}

func validateCreate(req *CreateRequest) error {
	var items []string
	if strings.TrimSpace(req.PatientName) == "" {
		items = append(items, "patientName is required")
	}
	if strings.TrimSpace(req.EMRNumber) == "" {
		items = append(items, "emrNumber is required")
	}
	if req.Insurance == "" {
		req.Insurance = InsuranceNo
	}
	if req.Insurance != InsuranceYes && req.Insurance != InsuranceNo {
		items = append(items, "insurance must be Yes or No")
	}
	if req.Insurance == InsuranceYes && !validInsuranceTypes[req.InsuranceType] {
		items = append(items, "insuranceType must be Paid or Advance")
	}
	if err := ValidateCoPay(req.CoPayPercent); err != nil {
		items = append(items, err.(*ValidationError).Items...)
	}
	if len(items) > 0 {
		return &ValidationError{Items: items}
	}

	// The co-pay formula keys on the insurance type, so a stray type on an
	// uninsured invoice must not survive to storage.
	if req.Insurance != InsuranceYes {
		req.InsuranceType = ""
	}

	// Sanitize the raw figures the same way the derivation does, so the
	// stored record and the derived fields always agree.
	req.Amount = sanitize(req.Amount)
	req.Paid = sanitize(req.Paid)
	req.AdvanceGivenAmount = sanitize(req.AdvanceGivenAmount)
	return nil
}

// Create records a new invoice with its derived amounts. Invoices with
// advance-type insurance enter the claim lifecycle as Pending.
func (s *Service) Create(ctx context.Context, req CreateRequest, actor string) (*View, error) {
	if err := validateCreate(&req); err != nil {
		return nil, err
	}

	amounts := DeriveAmounts(CalcInput{
		Amount:             req.Amount,
		Paid:               req.Paid,
		CoPayPercent:       req.CoPayPercent,
		AdvanceGivenAmount: req.AdvanceGivenAmount,
		InsuranceType:      req.InsuranceType,
	})

	now := time.Now().UTC()
	invoicedDate := now
	if req.InvoicedDate != nil {
		invoicedDate = req.InvoicedDate.UTC()
	}

	inv := &Invoice{
		ID:             uuid.New(),
		EMRNumber:      req.EMRNumber,
		PatientName:    req.PatientName,
		Phone:          req.Phone,
		Email:          req.Email,
		Gender:         req.Gender,
		ReferralSource: req.ReferralSource,
		Service:        req.Service,
		Treatment:      req.Treatment,
		Package:        req.Package,
		Notes:          req.Notes,

		Amount:             req.Amount,
		Paid:               req.Paid,
		Advance:            amounts.Advance,
		Pending:            amounts.Pending,
		CoPayPercent:       req.CoPayPercent,
		AdvanceGivenAmount: req.AdvanceGivenAmount,

		Insurance:     req.Insurance,
		InsuranceType: req.InsuranceType,

		InvoicedDate: invoicedDate,
		InvoicedBy:   actor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if inv.HasAdvanceClaim() {
		inv.ClaimStatus = ClaimStatusPending
	}

	err := s.tx(ctx, func(ctx context.Context) error {
		number, err := s.repo.NextInvoiceNumber(ctx)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = number
		return s.repo.Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	if amounts.Advance > 0 {
		s.log.Warn().
			Str("invoice_number", inv.InvoiceNumber).
			Float64("advance", amounts.Advance).
			Msg("invoice overpaid, advance recorded")
	}

	v := inv.View()
	return &v, nil
}

// Get loads a single invoice.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := inv.View()
	return &v, nil
}

// Search lists invoices matching the filter parameters.
func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]View, int, error) {
	invs, total, err := s.repo.Search(ctx, params, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return Views(invs), total, nil
}

// ListCancelled lists invoices whose claim is cancelled and awaiting
// reconciliation.
func (s *Service) ListCancelled(ctx context.Context, limit, offset int) ([]View, int, error) {
	invs, total, err := s.repo.ListByClaimStatus(ctx, ClaimStatusCancelled, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return Views(invs), total, nil
}

// ReleaseClaim moves a pending claim to Released once the full checklist has
// been confirmed, stamping the release moment and actor.
func (s *Service) ReleaseClaim(ctx context.Context, id uuid.UUID, checklist Checklist, actor string) (*View, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckTransition(inv.ClaimStatus, ClaimStatusReleased); err != nil {
		return nil, err
	}
	if err := ValidateChecklist(checklist); err != nil {
		return nil, err
	}

	expected := inv.ClaimStatus
	now := time.Now().UTC()
	inv.ClaimStatus = ClaimStatusReleased
	inv.ClaimReleasedAt = &now
	inv.ClaimReleasedBy = &actor
	inv.UpdatedAt = now

	err = s.tx(ctx, func(ctx context.Context) error {
		ok, err := s.repo.UpdateClaimStatus(ctx, inv, expected)
		if err != nil {
			return err
		}
		if !ok {
			return &ConflictError{From: expected, To: ClaimStatusReleased}
		}
		return s.audit.Create(ctx, &ClaimAudit{
			ID:         uuid.New(),
			InvoiceID:  inv.ID,
			Action:     AuditActionReleased,
			FromStatus: expected,
			ToStatus:   ClaimStatusReleased,
			Actor:      actor,
			Checklist:  checklist.Snapshot(),
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("invoice_number", inv.InvoiceNumber).
		Str("actor", actor).
		Msg("advance claim released")

	v := inv.View()
	return &v, nil
}

// CancelClaim moves a pending or released claim to Cancelled. Cancelling a
// released claim clears the release stamp.
func (s *Service) CancelClaim(ctx context.Context, id uuid.UUID, actor string) (*View, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckTransition(inv.ClaimStatus, ClaimStatusCancelled); err != nil {
		return nil, err
	}

	expected := inv.ClaimStatus
	now := time.Now().UTC()
	inv.ClaimStatus = ClaimStatusCancelled
	inv.ClaimReleasedAt = nil
	inv.ClaimReleasedBy = nil
	inv.UpdatedAt = now

	err = s.tx(ctx, func(ctx context.Context) error {
		ok, err := s.repo.UpdateClaimStatus(ctx, inv, expected)
		if err != nil {
			return err
		}
		if !ok {
			return &ConflictError{From: expected, To: ClaimStatusCancelled}
		}
		return s.audit.Create(ctx, &ClaimAudit{
			ID:         uuid.New(),
			InvoiceID:  inv.ID,
			Action:     AuditActionCancelled,
			FromStatus: expected,
			ToStatus:   ClaimStatusCancelled,
			Actor:      actor,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("invoice_number", inv.InvoiceNumber).
		Str("from_status", expected).
		Str("actor", actor).
		Msg("advance claim cancelled")

	v := inv.View()
	return &v, nil
}

// ReconcileCancelled corrects patient and treatment fields on a cancelled
// claim and returns it to Pending. A reconciled claim never re-enters
// Released directly; it goes back through the release checklist.
func (s *Service) ReconcileCancelled(ctx context.Context, id uuid.UUID, req ReconcileRequest, actor string) (*View, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckTransition(inv.ClaimStatus, ClaimStatusPending); err != nil {
		return nil, err
	}

	applyReconcile(inv, req)

	now := time.Now().UTC()
	inv.ClaimStatus = ClaimStatusPending
	inv.ClaimReleasedAt = nil
	inv.ClaimReleasedBy = nil
	inv.UpdatedAt = now

	err = s.tx(ctx, func(ctx context.Context) error {
		ok, err := s.repo.UpdateReconciled(ctx, inv)
		if err != nil {
			return err
		}
		if !ok {
			return &ConflictError{From: ClaimStatusCancelled, To: ClaimStatusPending}
		}
		return s.audit.Create(ctx, &ClaimAudit{
			ID:         uuid.New(),
			InvoiceID:  inv.ID,
			Action:     AuditActionReconciled,
			FromStatus: ClaimStatusCancelled,
			ToStatus:   ClaimStatusPending,
			Actor:      actor,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("invoice_number", inv.InvoiceNumber).
		Str("actor", actor).
		Msg("cancelled claim reconciled")

	v := inv.View()
	return &v, nil
}

func applyReconcile(inv *Invoice, req ReconcileRequest) {
	if req.PatientName != nil {
		inv.PatientName = *req.PatientName
	}
	if req.Phone != nil {
		inv.Phone = *req.Phone
	}
	if req.Email != nil {
		inv.Email = *req.Email
	}
	if req.Gender != nil {
		inv.Gender = *req.Gender
	}
	if req.ReferralSource != nil {
		inv.ReferralSource = *req.ReferralSource
	}
	if req.Service != nil {
		inv.Service = *req.Service
	}
	if req.Treatment != nil {
		inv.Treatment = *req.Treatment
	}
	if req.Package != nil {
		inv.Package = *req.Package
	}
	if req.Notes != nil {
		inv.Notes = *req.Notes
	}
}

// ListAudit returns the claim lifecycle trail for an invoice, newest first.
func (s *Service) ListAudit(ctx context.Context, id uuid.UUID) ([]ClaimAudit, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.audit.ListByInvoice(ctx, id)
}
