package webhooks

import (
	"io"
	"net/http"

	"github.com/andikurnia/fotoprint-backend/api/responses"
	webhooksvc "github.com/andikurnia/fotoprint-backend/internal/webhooks/midtrans"
	pkgerrors "github.com/andikurnia/fotoprint-backend/pkg/errors"
	"github.com/andikurnia/fotoprint-backend/pkg/logger"
)

const maxNotificationBody = 1 << 20

// MidtransWebhook receives payment notifications from the gateway. Verified
// deliveries are always acknowledged with 200, including unknown orders and
// stale redeliveries, so Midtrans stops retrying them.
func MidtransWebhook(svc webhooksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read request body"))
			return
		}

		outcome, err := svc.Process(ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"result": string(outcome)})
	}
}
