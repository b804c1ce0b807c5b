package invoice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/auth"
)

func newTestServer(t *testing.T, roles ...string) (*echo.Echo, *Service, *mockRepo) {
	t.Helper()
	if len(roles) == 0 {
		roles = []string{"billing"}
	}
	svc, repo, _ := newTestService()
	h := NewHandler(svc, zerolog.Nop())

	e := echo.New()
	api := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, auth.UserIDKey, "user-1")
			ctx = context.WithValue(ctx, auth.UserNameKey, "Test Biller")
			ctx = context.WithValue(ctx, auth.UserRolesKey, roles)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})
	h.RegisterRoutes(api)
	return e, svc, repo
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const createBody = `{
	"emrNumber": "EMR-2001",
	"patientName": "Ravi Kumar",
	"phone": "9000000000",
	"amount": 1500,
	"paid": 500,
	"coPayPercent": 20,
	"advanceGivenAmount": 100,
	"insurance": "Yes",
	"insuranceType": "Advance"
}`

func TestHandler_CreateInvoice(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/invoices", createBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var v View
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if v.ClaimStatus != ClaimStatusPending {
		t.Errorf("expected Pending claim, got %q", v.ClaimStatus)
	}
	// 1500 - 1500*20/100 - 100
	if v.NeedToPay != 1100 {
		t.Errorf("expected needToPay 1100, got %v", v.NeedToPay)
	}
	if v.InvoicedBy != "Test Biller" {
		t.Errorf("expected actor from auth context, got %q", v.InvoicedBy)
	}
}

func TestHandler_CreateInvoice_ValidationItems(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/invoices", `{"coPayPercent": 300}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) == 0 {
		t.Error("expected itemized validation errors")
	}
}

func TestHandler_GetInvoice_NotFound(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/v1/invoices/6a9f8f6e-1f2d-4c3b-9a8e-111111111111", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_GetInvoice_BadID(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/v1/invoices/not-a-uuid", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_ReleaseClaim(t *testing.T) {
	e, svc, _ := newTestServer(t)
	id := seedClaim(t, svc, ClaimStatusPending)

	checklist, _ := json.Marshal(fullChecklist())
	rec := doJSON(e, http.MethodPost, "/api/v1/invoices/"+id.String()+"/claim/release",
		`{"checklist": `+string(checklist)+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var v View
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if v.ClaimStatus != ClaimStatusReleased {
		t.Errorf("expected Released, got %q", v.ClaimStatus)
	}
	if v.ClaimReleasedBy == nil || *v.ClaimReleasedBy != "Test Biller" {
		t.Error("expected release actor from auth context")
	}
}

func TestHandler_ReleaseClaim_IncompleteChecklist(t *testing.T) {
	e, svc, _ := newTestServer(t)
	id := seedClaim(t, svc, ClaimStatusPending)

	rec := doJSON(e, http.MethodPost, "/api/v1/invoices/"+id.String()+"/claim/release",
		`{"checklist": {"appointment": true}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != len(releaseChecklistKeys)-1 {
		t.Errorf("expected %d itemized failures, got %v", len(releaseChecklistKeys)-1, resp.Items)
	}
}

func TestHandler_CancelClaim_Conflict(t *testing.T) {
	e, svc, _ := newTestServer(t)
	id := seedClaim(t, svc, ClaimStatusCancelled)

	rec := doJSON(e, http.MethodPost, "/api/v1/invoices/"+id.String()+"/claim/cancel", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestHandler_Reconcile(t *testing.T) {
	e, svc, _ := newTestServer(t)
	id := seedClaim(t, svc, ClaimStatusCancelled)

	rec := doJSON(e, http.MethodPatch, "/api/v1/invoices/"+id.String()+"/reconcile",
		`{"patientName": "Corrected Name"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var v View
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if v.ClaimStatus != ClaimStatusPending {
		t.Errorf("expected Pending after reconcile, got %q", v.ClaimStatus)
	}
	if v.PatientName != "Corrected Name" {
		t.Errorf("edit not applied: %q", v.PatientName)
	}
}

func TestHandler_ListCancelled(t *testing.T) {
	e, svc, _ := newTestServer(t)
	seedClaim(t, svc, ClaimStatusCancelled)
	seedClaim(t, svc, ClaimStatusPending)

	rec := doJSON(e, http.MethodGet, "/api/v1/invoices/cancelled", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("expected 1 cancelled invoice, got %d", resp.Total)
	}
}

func TestHandler_ListAudit(t *testing.T) {
	e, svc, _ := newTestServer(t)
	id := seedClaim(t, svc, ClaimStatusReleased)

	rec := doJSON(e, http.MethodGet, "/api/v1/invoices/"+id.String()+"/audit", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Data []ClaimAudit `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Action != AuditActionReleased {
		t.Errorf("unexpected audit trail: %+v", resp.Data)
	}
}

func TestHandler_Search_BadClaimStatus(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/v1/invoices?claim_status=Done", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_RoleForbidden(t *testing.T) {
	e, _, _ := newTestServer(t, "viewer")

	rec := doJSON(e, http.MethodGet, "/api/v1/invoices", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestHandler_AdminOverride(t *testing.T) {
	e, _, _ := newTestServer(t, "admin")

	rec := doJSON(e, http.MethodGet, "/api/v1/invoices", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
}
