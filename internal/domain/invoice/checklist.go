package invoice

import "fmt"

// Checklist holds the release checklist flags as submitted by the caller.
// Keys not in the required set are ignored.
type Checklist map[string]bool

// releaseChecklistKeys is the fixed set of items that must all be confirmed
// before a claim can be released.
var releaseChecklistKeys = []string{
	"appointment",
	"personalDetails",
	"treatment",
	"amount",
	"complains",
	"vitalSign",
	"consentForm",
	"allergy",
	"invoiceDate",
	"familyDetails",
	"diagnosis",
	"startDate",
}

// ValidateChecklist verifies every required item is present and confirmed.
// The returned error itemizes each missing or unconfirmed key.
func ValidateChecklist(c Checklist) error {
	var items []string
	for _, key := range releaseChecklistKeys {
		v, ok := c[key]
		if !ok {
			items = append(items, fmt.Sprintf("%s: missing", key))
			continue
		}
		if !v {
			items = append(items, fmt.Sprintf("%s: not confirmed", key))
		}
	}
	if len(items) > 0 {
		return &ValidationError{Items: items}
	}
	return nil
}

// Snapshot returns a copy of the checklist restricted to the required keys,
// suitable for the audit record.
func (c Checklist) Snapshot() Checklist {
	out := make(Checklist, len(releaseChecklistKeys))
	for _, key := range releaseChecklistKeys {
		if v, ok := c[key]; ok {
			out[key] = v
		}
	}
	return out
}
