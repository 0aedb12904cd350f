package model

import (
	"fmt"
	"strconv"
)

// OrderResult is what the venue reported back for a submitted order. Every
// field is optional; venues fill different subsets.
type OrderResult struct {
	ID           string   `json:"id,omitempty"`
	Side         string   `json:"side,omitempty"`
	Status       string   `json:"status,omitempty"`
	Amount       *float64 `json:"amount,omitempty"`
	Cost         *float64 `json:"cost,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	FilledQty    *string  `json:"filled_qty,omitempty"`
	AvgDealPrice *string  `json:"avg_deal_price,omitempty"`

	// Info holds the raw venue payload.
	Info map[string]interface{} `json:"info,omitempty"`
}

// InfoString returns Info[key] as a string when it is present and not empty.
func (r OrderResult) InfoString(key string) (string, bool) {
	if r.Info == nil {
		return "", false
	}
	v, ok := r.Info[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, t != ""
	default:
		return formatAny(t), true
	}
}

func formatAny(v interface{}) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}
