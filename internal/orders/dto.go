package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/andikurnia/fotoprint-backend/pkg/enums"
)

// CreateOrderInput carries the raw kiosk request. Fields are validated by the
// service before any row is written.
type CreateOrderInput struct {
	PhotoInput    string
	Size          string
	Qty           int
	CustomerName  string
	CustomerEmail string
}

// CreateOrderResult is returned to the kiosk after the checkout session call.
type CreateOrderResult struct {
	OrderID         uuid.UUID
	MidtransOrderID string
	Amount          int64
	SnapToken       string
	SnapRedirectURL string
}

// NotificationInput is a decoded, pre-verified webhook notification.
type NotificationInput struct {
	OrderRef          string
	TransactionStatus string
	FraudStatus       string
	// Verified must be set by the caller after running the signature check.
	// The service refuses to touch state when it is false.
	Verified bool
}

// NotificationResult reports what a webhook delivery did.
type NotificationResult struct {
	Found bool
	// Status is the canonical status the notification mapped to. Meaningful
	// only when Found is true.
	Status enums.OrderStatus
	// Applied is false when the conditional update matched no row, i.e. the
	// order had already moved past the state this notification targets.
	Applied bool
}

// Sort fields and directions accepted by ListOrders.
const (
	SortFieldPaidAt    = "paid_at"
	SortFieldCreatedAt = "created_at"

	SortDirAsc  = "asc"
	SortDirDesc = "desc"

	StatusFilterAll = "ALL"

	DefaultListLimit = 200
	MaxListLimit     = 500
)

// ListFilter captures the operator's list query.
type ListFilter struct {
	Status    string
	PaidOnly  bool
	Search    string
	SortField string
	SortDir   string
	Limit     int
}

// OrderView is the projection returned to the admin surface.
type OrderView struct {
	ID              uuid.UUID         `json:"id"`
	MidtransOrderID string            `json:"midtrans_order_id"`
	FotoshareToken  string            `json:"fotoshare_token"`
	Size            enums.PrintSize   `json:"size"`
	Qty             int               `json:"qty"`
	Amount          int64             `json:"amount"`
	Status          enums.OrderStatus `json:"status"`
	CustomerName    *string           `json:"customer_name,omitempty"`
	CustomerEmail   *string           `json:"customer_email,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	PaidAt          *time.Time        `json:"paid_at,omitempty"`
}
