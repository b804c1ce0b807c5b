package invoice

// legalTransitions enumerates the allowed claim status moves. Cancelled back
// to Pending only happens through reconciliation, which uses this same table.
var legalTransitions = map[string]map[string]bool{
	ClaimStatusPending: {
		ClaimStatusReleased:  true,
		ClaimStatusCancelled: true,
	},
	ClaimStatusReleased: {
		ClaimStatusCancelled: true,
	},
	ClaimStatusCancelled: {
		ClaimStatusPending: true,
	},
}

// CanTransition reports whether a claim may move from one status to another.
func CanTransition(from, to string) bool {
	return legalTransitions[from][to]
}

// CheckTransition returns a ConflictError when the move is not allowed.
func CheckTransition(from, to string) error {
	if !CanTransition(from, to) {
		return &ConflictError{From: from, To: to}
	}
	return nil
}
