package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andikurnia/fotoprint-backend/api/controllers"
	webhookcontrollers "github.com/andikurnia/fotoprint-backend/api/controllers/webhooks"
	"github.com/andikurnia/fotoprint-backend/api/middleware"
	"github.com/andikurnia/fotoprint-backend/internal/orders"
	webhooksvc "github.com/andikurnia/fotoprint-backend/internal/webhooks/midtrans"
	"github.com/andikurnia/fotoprint-backend/pkg/config"
	"github.com/andikurnia/fotoprint-backend/pkg/logger"
	"github.com/andikurnia/fotoprint-backend/pkg/metrics"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	Probes         map[string]controllers.Pinger
	Orders         orders.Service
	Webhooks       webhooksvc.Service
	OrderMetrics   *metrics.OrderMetrics
	MetricsGateway prometheus.Gatherer
}

func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(params.Logger),
		middleware.RequestID(params.Logger),
		middleware.Logging(params.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(params.Config))
		r.Get("/ready", controllers.HealthReady(params.Config, params.Logger, params.Probes))
	})

	if params.MetricsGateway != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.MetricsGateway, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/orders", controllers.CreateOrder(params.Orders, params.OrderMetrics, params.Logger))

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/midtrans", webhookcontrollers.MidtransWebhook(params.Webhooks, params.Logger))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.AdminAuth(params.Config.Admin, params.Logger))

		r.Get("/orders", controllers.AdminListOrders(params.Orders, params.Logger))
		r.Get("/orders/paid", controllers.AdminPaidOrders(params.Orders, params.Logger))
		r.Post("/orders/{orderID}/printed", controllers.AdminMarkPrinted(params.Orders, params.Logger))
	})

	return r
}
