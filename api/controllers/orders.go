package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/andikurnia/fotoprint-backend/api/responses"
	"github.com/andikurnia/fotoprint-backend/api/validators"
	"github.com/andikurnia/fotoprint-backend/internal/orders"
	"github.com/andikurnia/fotoprint-backend/pkg/logger"
	"github.com/andikurnia/fotoprint-backend/pkg/metrics"
)

type createOrderRequest struct {
	PhotoInput    string `json:"photo_input" validate:"required"`
	Size          string `json:"size" validate:"required"`
	Qty           int    `json:"qty" validate:"required,min=1,max=20"`
	CustomerName  string `json:"customer_name" validate:"omitempty,max=120"`
	CustomerEmail string `json:"customer_email" validate:"omitempty,email,max=254"`
}

type createOrderResponse struct {
	OrderID         uuid.UUID `json:"order_id"`
	MidtransOrderID string    `json:"midtrans_order_id"`
	Amount          int64     `json:"amount"`
	SnapToken       string    `json:"snap_token"`
	SnapRedirectURL string    `json:"snap_redirect_url"`
}

// CreateOrder is the kiosk checkout endpoint. It is unauthenticated: the
// kiosk device has no credential, the payment gateway is the trust anchor.
func CreateOrder(svc orders.Service, m *metrics.OrderMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			m.IncCreated("rejected")
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.CreateOrder(ctx, orders.CreateOrderInput{
			PhotoInput:    req.PhotoInput,
			Size:          req.Size,
			Qty:           req.Qty,
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
		})
		if err != nil {
			m.IncCreated("failed")
			responses.WriteError(ctx, logg, w, err)
			return
		}

		m.IncCreated("created")
		if logg != nil {
			logg.Info(logg.WithPaymentRef(ctx, result.MidtransOrderID), "order created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, createOrderResponse{
			OrderID:         result.OrderID,
			MidtransOrderID: result.MidtransOrderID,
			Amount:          result.Amount,
			SnapToken:       result.SnapToken,
			SnapRedirectURL: result.SnapRedirectURL,
		})
	}
}
