package checklist

import "math"

// Test coefficients applied to the nominal capacity (CMU).
const (
	DynamicCoefCE    = 1.1
	StaticCoefCE     = 1.25
	DynamicCoefNonCE = 1.2
	StaticCoefNonCE  = 1.5
)

// Loads are the regulatory test loads in kg
type Loads struct {
	Dynamic     int     `json:"dynamic"`
	Static      int     `json:"static"`
	DynamicCoef float64 `json:"dynamicCoef"`
	StaticCoef  float64 `json:"staticCoef"`
}

// ComputeLoads returns the dynamic and static test loads for a capacity.
// Results are rounded half away from zero (math.Round), so a capacity of 2
// with the CE static coefficient gives 3.
func ComputeLoads(capacity float64, ce bool) Loads {
	l := Loads{DynamicCoef: DynamicCoefNonCE, StaticCoef: StaticCoefNonCE}
	if ce {
		l.DynamicCoef, l.StaticCoef = DynamicCoefCE, StaticCoefCE
	}
	l.Dynamic = int(math.Round(capacity * l.DynamicCoef))
	l.Static = int(math.Round(capacity * l.StaticCoef))
	return l
}

// RecordLoads computes the loads from the record header
func RecordLoads(r *Record) Loads {
	return ComputeLoads(float64(r.Capacity), r.Marking.IsCE())
}
