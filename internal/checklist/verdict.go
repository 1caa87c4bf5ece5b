package checklist

import "fmt"

// Verdict is the overall conclusion of an inspection
type Verdict string

const (
	VerdictUnset        Verdict = ""
	VerdictCompliant    Verdict = "conforme"
	VerdictReservations Verdict = "reserve"
	VerdictNonCompliant Verdict = "non-conforme"
)

// severity orders verdicts from unset to non-compliant
func (v Verdict) severity() int {
	switch v {
	case VerdictCompliant:
		return 1
	case VerdictReservations:
		return 2
	case VerdictNonCompliant:
		return 3
	}
	return 0
}

// Valid reports whether v is a known verdict
func (v Verdict) Valid() bool {
	return v == VerdictUnset || v.severity() > 0
}

// Notice tells the user which verdict was selected automatically and why
type Notice struct {
	Verdict      Verdict `json:"verdict"`
	Blocking     int     `json:"blocking"`
	Reservations int     `json:"reservations"`
	Message      string  `json:"message"`
}

// DeriveVerdict computes the verdict implied by the item statuses. A
// blocking finding wins over reservations; without findings the result is
// unset, since compliance is always a user decision.
func DeriveVerdict(items []Item) Verdict {
	var hasReservation bool
	for _, it := range items {
		switch it.Status {
		case StatusBlocking:
			return VerdictNonCompliant
		case StatusReservation:
			hasReservation = true
		}
	}
	if hasReservation {
		return VerdictReservations
	}
	return VerdictUnset
}

func countFindings(items []Item) (blocking, reservations int) {
	for _, it := range items {
		switch it.Status {
		case StatusBlocking:
			blocking++
		case StatusReservation:
			reservations++
		}
	}
	return blocking, reservations
}

// ApplyDerivedVerdict escalates r.Verdict to the derived verdict when it is
// strictly more severe. It never downgrades and never sets compliant.
func ApplyDerivedVerdict(r *Record) (Notice, bool) {
	items := r.Items()
	derived := DeriveVerdict(items)
	if derived.severity() <= r.Verdict.severity() {
		return Notice{}, false
	}
	r.Verdict = derived

	blocking, reservations := countFindings(items)
	n := Notice{Verdict: derived, Blocking: blocking, Reservations: reservations}
	switch derived {
	case VerdictNonCompliant:
		n.Message = fmt.Sprintf("Verdict auto: NON CONFORME (mise à l'arrêt) - %d non-conformité(s) bloquante(s)", blocking)
	case VerdictReservations:
		n.Message = fmt.Sprintf("Verdict auto: Conforme sous réserve - %d non-conformité(s)", reservations)
	}
	return n, true
}
