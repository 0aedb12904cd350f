package model

import "time"

// Trade journal statuses.
const (
	TradeStatusFilled = "filled"
	TradeStatusError  = "error"
)

// TradeJournal keeps one row per processed signal with the same labels the
// operator saw in the notification, so audits can tell unit fills from cost
// fills.
type TradeJournal struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Exchange  string `gorm:"size:30;index" json:"exchange"`
	Symbol    string `gorm:"size:100;index" json:"symbol"`
	OrderName string `gorm:"size:255" json:"order_name"`
	IsFutures bool   `json:"is_futures"`

	// Notification fields
	SideLabel     string `gorm:"size:30" json:"side_label"`
	FieldName     string `gorm:"size:30" json:"field_name"`
	AmountDisplay string `gorm:"size:255" json:"amount_display"`

	// Request snapshot
	Amount   *float64 `json:"amount,omitempty"`
	Percent  *float64 `json:"percent,omitempty"`
	Leverage *int     `json:"leverage,omitempty"`

	ExchangeOrderID string `gorm:"size:255" json:"exchange_order_id"`

	Status       string  `gorm:"size:20;not null;index" json:"status"`
	ErrorKind    string  `gorm:"size:30" json:"error_kind,omitempty"`
	ErrorMessage *string `gorm:"type:text" json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (TradeJournal) TableName() string {
	return "trade_journal"
}
