package strategy

import "MA5Sentinel/internal/model"

// SellInput carries what the sell rules look at.
type SellInput struct {
	Price float64
	MA5   float64
	Ref   model.ReferenceLevels
}

type rule int

const (
	ruleAboveHigh rule = iota
	ruleAboveOpen
	ruleBelowLowAndMA5
)

func (r rule) holds(in SellInput) bool {
	switch r {
	case ruleAboveHigh:
		return in.Price > in.Ref.High.Value
	case ruleAboveOpen:
		return in.Price > in.Ref.Open.Value
	case ruleBelowLowAndMA5:
		return in.Price < in.Ref.Low.Value && in.Price < in.MA5
	}
	return false
}

// SellCondition is one row of the sell table.
type SellCondition struct {
	ID     model.ConditionID
	Reason string
	rule   rule
}

// SellConditions lists sell conditions in priority order. The last two share a
// predicate and differ only in their debounce bucket.
var SellConditions = []SellCondition{
	{ID: model.CondAboveYesterdayHigh, Reason: "broke above yesterday high", rule: ruleAboveHigh},
	{ID: model.CondAboveYesterdayOpen, Reason: "broke above yesterday open", rule: ruleAboveOpen},
	{ID: model.CondGapDownBelowMA5, Reason: "gap-down below MA5 and yesterday low", rule: ruleBelowLowAndMA5},
	{ID: model.CondIntradayBelowMA5, Reason: "intraday below MA5 and yesterday low", rule: ruleBelowLowAndMA5},
}

// MatchSell returns the candidate conditions for in: the first condition whose
// predicate holds, followed by any later conditions sharing that predicate.
// Callers fire the first candidate whose debounce has elapsed.
func MatchSell(in SellInput) []SellCondition {
	for i, c := range SellConditions {
		if !c.rule.holds(in) {
			continue
		}
		out := []SellCondition{c}
		for _, next := range SellConditions[i+1:] {
			if next.rule == c.rule {
				out = append(out, next)
			}
		}
		return out
	}
	return nil
}
