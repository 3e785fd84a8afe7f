package arbiter

import "github.com/joseph-ayodele/invoice-extractor/internal/money"

// MathStatus is the outcome of reconciling a total against subtotal + tax.
type MathStatus string

const (
	MathValid        MathStatus = "valid"
	MathIncludesFees MathStatus = "includes_fees"
	MathMismatch     MathStatus = "mismatch"
	MathUnchecked    MathStatus = "unchecked"
)

// MathValidation never signals an error; a mismatch only lowers trust.
type MathValidation struct {
	Valid           bool       `json:"valid"`
	Status          MathStatus `json:"status"`
	ExpectedCents   int64      `json:"expectedCents"`
	DifferenceCents int64      `json:"differenceCents"`
}

const mathToleranceCents = 10

// ValidateTotalMath checks total ≈ subtotal + tax. Totals above the sum by at
// most 10% are accepted as likely including fees the document did not label.
func ValidateTotalMath(total, subtotal, tax int64) MathValidation {
	expected := subtotal + tax
	diff := total - expected
	mv := MathValidation{ExpectedCents: expected, DifferenceCents: diff}
	switch {
	case money.Within(total, expected, mathToleranceCents):
		mv.Valid, mv.Status = true, MathValid
	case diff > 0 && diff*10 <= expected:
		mv.Valid, mv.Status = true, MathIncludesFees
	default:
		mv.Status = MathMismatch
	}
	return mv
}

func uncheckedMath() MathValidation {
	return MathValidation{Status: MathUnchecked}
}
