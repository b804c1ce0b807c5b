package search

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestApplyParam_Token(t *testing.T) {
	q := New("invoice", "id, status")
	q.ApplyParam(ParamConfig{Kind: Token, Column: "advance_claim_status"}, "Pending")

	sql := q.CountSQL()
	if !strings.Contains(sql, "advance_claim_status = $1") {
		t.Errorf("expected token equality clause, got %q", sql)
	}
	if len(q.CountArgs()) != 1 || q.CountArgs()[0] != "Pending" {
		t.Errorf("unexpected args: %v", q.CountArgs())
	}
}

func TestApplyParam_String(t *testing.T) {
	q := New("invoice", "id")
	q.ApplyParam(ParamConfig{Kind: String, Column: "patient_name"}, "smith")

	if !strings.Contains(q.CountSQL(), "patient_name ILIKE $1") {
		t.Errorf("expected ILIKE clause, got %q", q.CountSQL())
	}
	if q.CountArgs()[0] != "%smith%" {
		t.Errorf("expected wrapped pattern, got %v", q.CountArgs()[0])
	}
}

func TestApplyParam_DatePrefixes(t *testing.T) {
	cases := []struct {
		value string
		op    string
		arg   string
	}{
		{"ge2024-01-01", ">=", "2024-01-01"},
		{"gt2024-01-01", ">", "2024-01-01"},
		{"le2024-12-31", "<=", "2024-12-31"},
		{"lt2024-12-31", "<", "2024-12-31"},
		{"eq2024-06-15", "=", "2024-06-15"},
		{"2024-06-15", "=", "2024-06-15"},
	}
	for _, tc := range cases {
		q := New("invoice", "id")
		q.ApplyParam(ParamConfig{Kind: Date, Column: "invoiced_date"}, tc.value)
		if !strings.Contains(q.CountSQL(), "invoiced_date "+tc.op+" $1") {
			t.Errorf("value %q: expected op %q, got %q", tc.value, tc.op, q.CountSQL())
		}
		if q.CountArgs()[0] != tc.arg {
			t.Errorf("value %q: expected arg %q, got %v", tc.value, tc.arg, q.CountArgs()[0])
		}
	}
}

func TestApplyParams_IgnoresUnknown(t *testing.T) {
	q := New("invoice", "id")
	configs := map[string]ParamConfig{
		"claim_status": {Kind: Token, Column: "advance_claim_status"},
	}
	q.ApplyParams(map[string]string{
		"claim_status": "Released",
		"bogus":        "x",
	}, configs)

	if len(q.CountArgs()) != 1 {
		t.Errorf("expected 1 arg, got %d", len(q.CountArgs()))
	}
}

func TestDataSQL_OrderAndPaging(t *testing.T) {
	q := New("invoice", "id, amount")
	q.ApplyParam(ParamConfig{Kind: Token, Column: "insurance_type"}, "Advance")
	q.OrderBy("created_at DESC")

	sql := q.DataSQL(20, 40)
	if !strings.Contains(sql, "ORDER BY created_at DESC") {
		t.Errorf("missing order by: %q", sql)
	}
	if !strings.Contains(sql, "LIMIT $2 OFFSET $3") {
		t.Errorf("paging placeholders wrong: %q", sql)
	}
	args := q.DataArgs(20, 40)
	if len(args) != 3 || args[1] != 20 || args[2] != 40 {
		t.Errorf("unexpected data args: %v", args)
	}
}

func TestAdd_RawClause(t *testing.T) {
	q := New("invoice", "id")
	q.Add("advance_claim_status = $1", "Cancelled")
	if q.Idx() != 2 {
		t.Errorf("expected next idx 2, got %d", q.Idx())
	}
	if !strings.Contains(q.CountSQL(), "advance_claim_status = $1") {
		t.Errorf("raw clause missing: %q", q.CountSQL())
	}
}

func TestExtractParams(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest("GET", "/invoices?claim_status=Pending&limit=10&offset=5&_sort=x&name=jo", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	params := ExtractParams(c)
	if len(params) != 2 {
		t.Fatalf("expected 2 params, got %v", params)
	}
	if params["claim_status"] != "Pending" || params["name"] != "jo" {
		t.Errorf("unexpected params: %v", params)
	}
}
