package invoice

import "math"

// CalcInput carries the raw figures an amount derivation starts from. Values
// may come straight from a request body, so negatives and NaN are tolerated
// and sanitized.
type CalcInput struct {
	Amount             float64
	Paid               float64
	CoPayPercent       float64
	AdvanceGivenAmount float64
	InsuranceType      string
}

// Amounts is the derived financial state of an invoice.
type Amounts struct {
	Advance   float64
	Pending   float64
	NeedToPay float64
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// DeriveAmounts computes advance, pending and need-to-pay from the raw
// figures. Advance is the overpaid portion, pending the shortfall after
// crediting the advance. Need-to-pay only differs from pending for
// advance-type insurance, where the insurer's co-pay share and any advance
// already given by the insurer are deducted from the gross amount.
//
// CoPayPercent outside [0,100] is the caller's validation problem; this
// function assumes it has been checked.
func DeriveAmounts(in CalcInput) Amounts {
	amount := sanitize(in.Amount)
	paid := sanitize(in.Paid)
	coPay := sanitize(in.CoPayPercent)
	advanceGiven := sanitize(in.AdvanceGivenAmount)

	advance := math.Max(0, paid-amount)
	pending := math.Max(0, amount-(paid+advance))

	needToPay := pending
	if in.InsuranceType == InsuranceTypeAdvance {
		needToPay = math.Max(0, amount-amount*coPay/100-advanceGiven)
	}

	return Amounts{
		Advance:   advance,
		Pending:   pending,
		NeedToPay: needToPay,
	}
}

// ValidateCoPay checks the co-pay percentage is within [0,100].
func ValidateCoPay(coPayPercent float64) error {
	if math.IsNaN(coPayPercent) || coPayPercent < 0 || coPayPercent > 100 {
		return NewValidationError("coPayPercent must be between 0 and 100")
	}
	return nil
}
