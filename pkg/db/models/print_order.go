package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/andikurnia/fotoprint-backend/pkg/enums"
)

// PrintOrder is the audit row behind every kiosk checkout attempt. Rows are
// never deleted; status moves only through the guarded transitions in
// internal/orders.
type PrintOrder struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	MidtransOrderID string            `gorm:"column:midtrans_order_id;size:50;not null;uniqueIndex:ux_print_orders_midtrans_order_id"`
	FotoshareToken  string            `gorm:"column:fotoshare_token;not null;index"`
	Size            enums.PrintSize   `gorm:"column:size;type:text;not null"`
	Qty             int               `gorm:"column:qty;not null"`
	Amount          int64             `gorm:"column:amount;not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'PENDING';index"`
	CustomerName    *string           `gorm:"column:customer_name;size:120"`
	CustomerEmail   *string           `gorm:"column:customer_email;size:254"`
	SnapToken       *string           `gorm:"column:snap_token"`
	SnapRedirectURL *string           `gorm:"column:snap_redirect_url"`
	SnapError       *string           `gorm:"column:snap_error;size:500"`
	PaidAt          *time.Time        `gorm:"column:paid_at;index"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table used by the query layer and migrations.
func (PrintOrder) TableName() string {
	return "print_orders"
}
