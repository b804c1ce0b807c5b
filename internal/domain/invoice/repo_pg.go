package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/db"
	"github.com/clinicore/clinicore/internal/platform/search"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// PGRepository is the pgx-backed invoice repository.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// conn resolves the executor for the current context: an open transaction, a
// pinned connection, or the pool.
func (r *PGRepository) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const invoiceCols = `id, invoice_number, emr_number,
	patient_name, phone, email, gender, referral_source,
	service, treatment, package, notes,
	amount, paid, advance, pending, co_pay_percent, advance_given_amount,
	insurance, insurance_type,
	advance_claim_status, advance_claim_release_date, advance_claim_released_by,
	invoiced_date, invoiced_by, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.EMRNumber,
		&inv.PatientName, &inv.Phone, &inv.Email, &inv.Gender, &inv.ReferralSource,
		&inv.Service, &inv.Treatment, &inv.Package, &inv.Notes,
		&inv.Amount, &inv.Paid, &inv.Advance, &inv.Pending, &inv.CoPayPercent, &inv.AdvanceGivenAmount,
		&inv.Insurance, &inv.InsuranceType,
		&inv.ClaimStatus, &inv.ClaimReleasedAt, &inv.ClaimReleasedBy,
		&inv.InvoicedDate, &inv.InvoicedBy, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *PGRepository) Create(ctx context.Context, inv *Invoice) error {
	sql := fmt.Sprintf(`INSERT INTO invoice (%s) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)`, invoiceCols)
	_, err := r.conn(ctx).Exec(ctx, sql,
		inv.ID, inv.InvoiceNumber, inv.EMRNumber,
		inv.PatientName, inv.Phone, inv.Email, inv.Gender, inv.ReferralSource,
		inv.Service, inv.Treatment, inv.Package, inv.Notes,
		inv.Amount, inv.Paid, inv.Advance, inv.Pending, inv.CoPayPercent, inv.AdvanceGivenAmount,
		inv.Insurance, inv.InsuranceType,
		inv.ClaimStatus, inv.ClaimReleasedAt, inv.ClaimReleasedBy,
		inv.InvoicedDate, inv.InvoicedBy, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (r *PGRepository) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	sql := fmt.Sprintf("SELECT %s FROM invoice WHERE id = $1", invoiceCols)
	inv, err := scanInvoice(r.conn(ctx).QueryRow(ctx, sql, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// searchParams maps API filter names onto invoice columns.
var searchParams = map[string]search.ParamConfig{
	"emr_number":     {Kind: search.Token, Column: "emr_number"},
	"invoice_number": {Kind: search.Token, Column: "invoice_number"},
	"name":           {Kind: search.String, Column: "patient_name"},
	"phone":          {Kind: search.String, Column: "phone"},
	"claim_status":   {Kind: search.Token, Column: "advance_claim_status"},
	"insurance":      {Kind: search.Token, Column: "insurance"},
	"insurance_type": {Kind: search.Token, Column: "insurance_type"},
	"invoiced_from":  {Kind: search.Date, Column: "invoiced_date"},
	"invoiced_to":    {Kind: search.Date, Column: "invoiced_date"},
}

var comparisonPrefixes = map[string]bool{
	"gt": true, "ge": true, "lt": true, "le": true, "eq": true,
}

func hasComparisonPrefix(v string) bool {
	return len(v) > 2 && comparisonPrefixes[v[:2]]
}

func (r *PGRepository) Search(ctx context.Context, params map[string]string, limit, offset int) ([]Invoice, int, error) {
	q := search.New("invoice", invoiceCols)
	// invoiced_from/to are closed-range shorthands; rewrite bare dates to
	// prefixed comparisons before the generic apply.
	if v, ok := params["invoiced_from"]; ok && !hasComparisonPrefix(v) {
		params["invoiced_from"] = "ge" + v
	}
	if v, ok := params["invoiced_to"]; ok && !hasComparisonPrefix(v) {
		params["invoiced_to"] = "le" + v
	}
	q.ApplyParams(params, searchParams)
	q.OrderBy("invoiced_date DESC, created_at DESC")
	return r.runQuery(ctx, q, limit, offset)
}

func (r *PGRepository) ListByClaimStatus(ctx context.Context, status string, limit, offset int) ([]Invoice, int, error) {
	q := search.New("invoice", invoiceCols)
	q.Add(fmt.Sprintf("advance_claim_status = $%d", q.Idx()), status)
	q.OrderBy("updated_at DESC")
	return r.runQuery(ctx, q, limit, offset)
}

func (r *PGRepository) runQuery(ctx context.Context, q *search.Query, limit, offset int) ([]Invoice, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(limit, offset), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search invoices: %w", err)
	}
	defer rows.Close()

	var result []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan invoice: %w", err)
		}
		result = append(result, *inv)
	}
	return result, total, rows.Err()
}

func (r *PGRepository) UpdateClaimStatus(ctx context.Context, inv *Invoice, expectedStatus string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE invoice SET
		advance_claim_status = $1,
		advance_claim_release_date = $2,
		advance_claim_released_by = $3,
		updated_at = $4
		WHERE id = $5 AND advance_claim_status = $6`,
		inv.ClaimStatus, inv.ClaimReleasedAt, inv.ClaimReleasedBy, inv.UpdatedAt,
		inv.ID, expectedStatus,
	)
	if err != nil {
		return false, fmt.Errorf("update claim status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGRepository) UpdateReconciled(ctx context.Context, inv *Invoice) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE invoice SET
		patient_name = $1, phone = $2, email = $3, gender = $4, referral_source = $5,
		service = $6, treatment = $7, package = $8, notes = $9,
		advance_claim_status = $10,
		advance_claim_release_date = NULL,
		advance_claim_released_by = NULL,
		updated_at = $11
		WHERE id = $12 AND advance_claim_status = $13`,
		inv.PatientName, inv.Phone, inv.Email, inv.Gender, inv.ReferralSource,
		inv.Service, inv.Treatment, inv.Package, inv.Notes,
		inv.ClaimStatus, inv.UpdatedAt,
		inv.ID, ClaimStatusCancelled,
	)
	if err != nil {
		return false, fmt.Errorf("update reconciled invoice: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGRepository) NextInvoiceNumber(ctx context.Context) (string, error) {
	var n int64
	if err := r.conn(ctx).QueryRow(ctx, "SELECT nextval('invoice_number_seq')").Scan(&n); err != nil {
		return "", fmt.Errorf("next invoice number: %w", err)
	}
	return fmt.Sprintf("INV-%06d", n), nil
}

// PGAuditRepository is the pgx-backed claim audit repository.
type PGAuditRepository struct {
	pool *pgxpool.Pool
}

func NewPGAuditRepository(pool *pgxpool.Pool) *PGAuditRepository {
	return &PGAuditRepository{pool: pool}
}

func (r *PGAuditRepository) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *PGAuditRepository) Create(ctx context.Context, a *ClaimAudit) error {
	var checklist []byte
	if a.Checklist != nil {
		var err error
		checklist, err = json.Marshal(a.Checklist)
		if err != nil {
			return fmt.Errorf("marshal checklist: %w", err)
		}
	}
	_, err := r.conn(ctx).Exec(ctx, `INSERT INTO claim_audit
		(id, invoice_id, action, from_status, to_status, actor, checklist, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.InvoiceID, a.Action, a.FromStatus, a.ToStatus, a.Actor, checklist, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert claim audit: %w", err)
	}
	return nil
}

func (r *PGAuditRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]ClaimAudit, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT
		id, invoice_id, action, from_status, to_status, actor, checklist, created_at
		FROM claim_audit WHERE invoice_id = $1 ORDER BY created_at DESC`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list claim audit: %w", err)
	}
	defer rows.Close()

	var result []ClaimAudit
	for rows.Next() {
		var a ClaimAudit
		var checklist []byte
		if err := rows.Scan(&a.ID, &a.InvoiceID, &a.Action, &a.FromStatus, &a.ToStatus, &a.Actor, &checklist, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan claim audit: %w", err)
		}
		if len(checklist) > 0 {
			if err := json.Unmarshal(checklist, &a.Checklist); err != nil {
				return nil, fmt.Errorf("unmarshal checklist: %w", err)
			}
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
