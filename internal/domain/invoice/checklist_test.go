package invoice

import (
	"strings"
	"testing"
)

func fullChecklist() Checklist {
	c := Checklist{}
	for _, key := range releaseChecklistKeys {
		c[key] = true
	}
	return c
}

func TestValidateChecklist_AllConfirmed(t *testing.T) {
	if err := ValidateChecklist(fullChecklist()); err != nil {
		t.Errorf("expected full checklist to pass, got %v", err)
	}
}

func TestValidateChecklist_OneUnconfirmed(t *testing.T) {
	c := fullChecklist()
	c["consentForm"] = false

	err := ValidateChecklist(c)
	if err == nil {
		t.Fatal("expected rejection")
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(ve.Items) != 1 || !strings.Contains(ve.Items[0], "consentForm") {
		t.Errorf("expected consentForm itemized, got %v", ve.Items)
	}
}

func TestValidateChecklist_MissingKeys(t *testing.T) {
	c := fullChecklist()
	delete(c, "diagnosis")
	delete(c, "vitalSign")

	err := ValidateChecklist(c)
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(ve.Items) != 2 {
		t.Errorf("expected both missing keys itemized, got %v", ve.Items)
	}
}

func TestValidateChecklist_Empty(t *testing.T) {
	err := ValidateChecklist(Checklist{})
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(ve.Items) != len(releaseChecklistKeys) {
		t.Errorf("expected all %d items reported, got %d", len(releaseChecklistKeys), len(ve.Items))
	}
}

func TestValidateChecklist_UnknownKeysIgnored(t *testing.T) {
	c := fullChecklist()
	c["somethingElse"] = false

	if err := ValidateChecklist(c); err != nil {
		t.Errorf("unknown key should not affect validation, got %v", err)
	}
}

func TestSnapshot_DropsUnknownKeys(t *testing.T) {
	c := fullChecklist()
	c["extra"] = true

	snap := c.Snapshot()
	if _, ok := snap["extra"]; ok {
		t.Error("snapshot should drop unknown keys")
	}
	if len(snap) != len(releaseChecklistKeys) {
		t.Errorf("expected %d keys, got %d", len(releaseChecklistKeys), len(snap))
	}
}
