package model

import "time"

// ConditionID identifies a sell condition and its debounce bucket.
type ConditionID string

const (
	CondAboveYesterdayHigh ConditionID = "ABOVE_YESTERDAY_HIGH"
	CondAboveYesterdayOpen ConditionID = "ABOVE_YESTERDAY_OPEN"
	CondGapDownBelowMA5    ConditionID = "GAP_DOWN_BELOW_MA5_AND_LOW"
	CondIntradayBelowMA5   ConditionID = "INTRADAY_BELOW_MA5_AND_LOW"
)

// SellSignal is the outcome of a sell-condition check.
type SellSignal struct {
	Fired     bool
	Reason    string
	Condition ConditionID
}

// AlertKind distinguishes buy-side from sell-side alerts.
type AlertKind string

const (
	AlertBuy  AlertKind = "BUY"
	AlertSell AlertKind = "SELL"
)

// Alert is the payload captured at dispatch time and handed to notifiers.
type Alert struct {
	ID        string
	Kind      AlertKind
	Symbol    string
	Name      string
	Condition ConditionID
	Reason    string
	Price     float64
	MA5       float64
	Lower     float64
	Upper     float64
	At        time.Time
}
