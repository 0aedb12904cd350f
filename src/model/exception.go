package model

import "time"

// Exception is a failure captured by the order pipeline.
type Exception struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Service string `gorm:"size:100;index" json:"service"`
	Module  string `gorm:"size:100;index" json:"module"`
	Method  string `gorm:"size:100" json:"method"`

	// ErrorKind is one of the ErrorKind* names.
	ErrorKind string `gorm:"size:30;index" json:"error_kind"`
	OrderName string `gorm:"size:255" json:"order_name,omitempty"`
	Message   string `gorm:"type:text" json:"message"`
	Stack     string `gorm:"type:text" json:"stack"`

	Level string `gorm:"size:20;index" json:"level"` // logrus level name

	// JSON encoded context
	Context string `gorm:"type:text" json:"context,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
