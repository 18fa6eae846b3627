package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/andikurnia/fotoprint-backend/api/responses"
	"github.com/andikurnia/fotoprint-backend/api/validators"
	"github.com/andikurnia/fotoprint-backend/internal/orders"
	pkgerrors "github.com/andikurnia/fotoprint-backend/pkg/errors"
	"github.com/andikurnia/fotoprint-backend/pkg/logger"
)

// AdminListOrders serves the operator dashboard query surface.
func AdminListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit, err := validators.ParseQueryInt(r, "limit", orders.DefaultListLimit, 1, orders.MaxListLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		paidOnly, err := validators.ParseQueryBool(r, "paidOnly", false)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		query := r.URL.Query()
		views, err := svc.ListOrders(ctx, orders.ListFilter{
			Status:    query.Get("status"),
			PaidOnly:  paidOnly,
			Search:    strings.TrimSpace(query.Get("search")),
			SortField: query.Get("sortField"),
			SortDir:   query.Get("sortDir"),
			Limit:     limit,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, views)
	}
}

const paidQuickViewLimit = 50

// AdminPaidOrders is the print-queue quick view: most recently paid first.
func AdminPaidOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		views, err := svc.ListOrders(ctx, orders.ListFilter{
			PaidOnly:  true,
			SortField: orders.SortFieldPaidAt,
			SortDir:   orders.SortDirDesc,
			Limit:     paidQuickViewLimit,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, views)
	}
}

// AdminMarkPrinted flips a paid order to printed. Exactly one concurrent
// caller wins; the rest get a state conflict.
func AdminMarkPrinted(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		order, err := svc.MarkPrinted(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithOrderID(ctx, orderID.String()), "order marked printed")
		}
		responses.WriteSuccess(w, orders.OrderView{
			ID:              order.ID,
			MidtransOrderID: order.MidtransOrderID,
			FotoshareToken:  order.FotoshareToken,
			Size:            order.Size,
			Qty:             order.Qty,
			Amount:          order.Amount,
			Status:          order.Status,
			CustomerName:    order.CustomerName,
			CustomerEmail:   order.CustomerEmail,
			CreatedAt:       order.CreatedAt,
			PaidAt:          order.PaidAt,
		})
	}
}
