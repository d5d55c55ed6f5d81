package calculator

import (
	"errors"
	"fmt"

	"MA5Sentinel/internal/model"

	"github.com/shopspring/decimal"
)

// ErrInsufficientData is returned when a series is too short for the requested computation.
var ErrInsufficientData = errors.New("insufficient data")

// MA5Period is the window of the short moving average the monitor tracks.
const MA5Period = 5

// CalculateSMA computes the simple moving average over the last period prices.
// Summation is done in decimal so that e.g. the mean of 9.8, 9.9, 10.0, 10.1, 10.0 is exactly 9.96.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, fmt.Errorf("SMA%d needs %d values, got %d: %w", period, period, len(prices), ErrInsufficientData)
	}
	sum := decimal.Zero
	for _, p := range prices[len(prices)-period:] {
		sum = sum.Add(decimal.NewFromFloat(p))
	}
	avg, _ := sum.Div(decimal.NewFromInt(int64(period))).Float64()
	return avg, nil
}

// CalculateMA5 returns the mean of the last five values.
func CalculateMA5(values []float64) (float64, error) {
	return CalculateSMA(values, MA5Period)
}

// CalculateOpenPrice solves x = mean(prior + [x]) for exactly MA5Period-1 prior closes,
// i.e. the lowest next-session price that already sits on its own MA5.
func CalculateOpenPrice(prior []float64) (float64, error) {
	n := MA5Period - 1
	if len(prior) != n {
		return 0, fmt.Errorf("open price needs exactly %d closes, got %d: %w", n, len(prior), ErrInsufficientData)
	}
	sum := decimal.Zero
	for _, p := range prior {
		sum = sum.Add(decimal.NewFromFloat(p))
	}
	x, _ := sum.Div(decimal.NewFromInt(int64(n))).Float64()
	return x, nil
}

// Band returns [ma, ma*(1+tolerance)].
func Band(ma, tolerance float64) (lower, upper float64) {
	lo := decimal.NewFromFloat(ma)
	hi := lo.Mul(decimal.NewFromInt(1).Add(decimal.NewFromFloat(tolerance)))
	upper, _ = hi.Float64()
	return ma, upper
}

// WithinBand reports whether ma <= price <= ma*(1+tolerance), compared in decimal.
func WithinBand(price, ma, tolerance float64) bool {
	p := decimal.NewFromFloat(price)
	lo := decimal.NewFromFloat(ma)
	hi := lo.Mul(decimal.NewFromInt(1).Add(decimal.NewFromFloat(tolerance)))
	return p.GreaterThanOrEqual(lo) && p.LessThanOrEqual(hi)
}

// Closes extracts closing prices in bar order.
func Closes(bars []model.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
