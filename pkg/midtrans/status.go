package midtrans

import "github.com/andikurnia/fotoprint-backend/pkg/enums"

// Transaction statuses Midtrans reports on notifications.
const (
	TransactionStatusCapture    = "capture"
	TransactionStatusSettlement = "settlement"
	TransactionStatusPending    = "pending"
	TransactionStatusDeny       = "deny"
	TransactionStatusCancel     = "cancel"
	TransactionStatusExpire     = "expire"

	FraudStatusAccept = "accept"
	FraudStatusDeny   = "deny"
)

// MapStatus translates Midtrans transaction/fraud vocabulary into the order
// state machine's canonical statuses. It is total over all string inputs:
// unrecognized statuses map to PENDING so an unexpected gateway value never
// fails or confirms an order on its own.
func MapStatus(transactionStatus, fraudStatus string) enums.OrderStatus {
	switch transactionStatus {
	case TransactionStatusSettlement, TransactionStatusCapture:
		if fraudStatus == FraudStatusDeny {
			return enums.OrderStatusPending
		}
		return enums.OrderStatusPaid
	case TransactionStatusPending:
		return enums.OrderStatusPending
	case TransactionStatusExpire, TransactionStatusCancel, TransactionStatusDeny:
		return enums.OrderStatusFailed
	default:
		return enums.OrderStatusPending
	}
}
