package strategy

import (
	"MA5Sentinel/internal/calculator"
	"MA5Sentinel/internal/model"
)

// PriorCloseCount is how many completed sessions join the live price in the buy-side MA5.
const PriorCloseCount = calculator.MA5Period - 1

// PriceRange flags prices sitting in [MA5, MA5*(1+Tolerance)].
type PriceRange struct {
	Tolerance float64
}

// NewPriceRange creates a PriceRange with the given tolerance (0.02 = 2%).
func NewPriceRange(tolerance float64) *PriceRange {
	return &PriceRange{Tolerance: tolerance}
}

// CalcMA5 averages the last five values. The result is unset when fewer than five are supplied.
func (s *PriceRange) CalcMA5(values []float64) model.Level {
	ma, err := calculator.CalculateMA5(values)
	if err != nil {
		return model.Level{}
	}
	return model.NewLevel(ma)
}

// CalcOpenPrice returns the price x with x == mean(prior + [x]); prior must hold exactly four closes.
func (s *PriceRange) CalcOpenPrice(prior []float64) (float64, error) {
	return calculator.CalculateOpenPrice(prior)
}

// IsInRange reports whether price lies inside the MA5 band. An unset MA5 is never in range.
func (s *PriceRange) IsInRange(price float64, ma5 model.Level) bool {
	if !ma5.Set {
		return false
	}
	return calculator.WithinBand(price, ma5.Value, s.Tolerance)
}

// Bounds returns the band edges for display.
func (s *PriceRange) Bounds(ma5 float64) (lower, upper float64) {
	return calculator.Band(ma5, s.Tolerance)
}
