package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/indyhub/exchange-backend/api/controllers"
	"github.com/indyhub/exchange-backend/api/middleware"
	"github.com/indyhub/exchange-backend/internal/authz"
	"github.com/indyhub/exchange-backend/internal/exchangeconfig"
	"github.com/indyhub/exchange-backend/internal/notifications"
	"github.com/indyhub/exchange-backend/internal/orders"
	"github.com/indyhub/exchange-backend/internal/stock"
	"github.com/indyhub/exchange-backend/internal/transactions"
	"github.com/indyhub/exchange-backend/pkg/config"
	"github.com/indyhub/exchange-backend/pkg/db"
	"github.com/indyhub/exchange-backend/pkg/enums"
	"github.com/indyhub/exchange-backend/pkg/logger"
	pkgredis "github.com/indyhub/exchange-backend/pkg/redis"
)

// NewRouter assembles the HTTP surface: health and metrics stay open, the
// /api/v1 tree requires a hub access token, and the manager routes
// additionally require the manage_material_exchange capability.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	checker authz.Checker,
	stockSvc stock.Service,
	ordersSvc orders.Service,
	transactionsSvc transactions.Service,
	configSvc exchangeconfig.Service,
	notificationsSvc notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	writePolicy := middleware.NewRateLimitPolicy(
		"write",
		cfg.RateLimit.WriteWindow,
		cfg.RateLimit.WriteLimit,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireCapability(checker, enums.CapabilityAccessHub, logg))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Use(middleware.RateLimit(writePolicy, redisClient, logg))

		r.Route("/exchange", func(r chi.Router) {
			r.Route("/stock", func(r chi.Router) {
				r.Get("/", controllers.StockList(stockSvc, logg))
				r.Get("/{typeId}", controllers.StockGet(stockSvc, logg))

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(checker, enums.CapabilityManageMaterialExchange, logg))
					r.Post("/sync-prices", controllers.StockSyncPrices(stockSvc, logg))
					r.Post("/sync-stock", controllers.StockSyncStock(stockSvc, logg))
				})
			})

			r.Route("/sell-orders", func(r chi.Router) {
				r.Post("/", controllers.SellOrderCreate(ordersSvc, logg))
				r.Get("/", controllers.SellOrderList(ordersSvc, logg))
				r.Get("/{orderId}", controllers.SellOrderDetail(ordersSvc, logg))
				r.Post("/{orderId}/cancel", controllers.SellOrderCancel(ordersSvc, logg))
				r.Post("/{orderId}/items/{itemId}/validate-contract", controllers.SellOrderValidateContract(ordersSvc, logg))

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(checker, enums.CapabilityManageMaterialExchange, logg))
					r.Post("/{orderId}/approve", controllers.SellOrderApprove(ordersSvc, logg))
					r.Post("/{orderId}/reject", controllers.SellOrderReject(ordersSvc, logg))
					r.Post("/{orderId}/verify-payment", controllers.SellOrderVerifyPayment(ordersSvc, logg))
					r.Post("/{orderId}/complete", controllers.SellOrderComplete(ordersSvc, logg))
				})
			})

			r.Route("/buy-orders", func(r chi.Router) {
				r.Post("/", controllers.BuyOrderCreate(ordersSvc, logg))
				r.Get("/", controllers.BuyOrderList(ordersSvc, logg))
				r.Get("/{orderId}", controllers.BuyOrderDetail(ordersSvc, logg))
				r.Post("/{orderId}/cancel", controllers.BuyOrderCancel(ordersSvc, logg))
				r.Post("/{orderId}/items/{itemId}/validate-contract", controllers.BuyOrderValidateContract(ordersSvc, logg))

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(checker, enums.CapabilityManageMaterialExchange, logg))
					r.Post("/{orderId}/approve", controllers.BuyOrderApprove(ordersSvc, logg))
					r.Post("/{orderId}/reject", controllers.BuyOrderReject(ordersSvc, logg))
					r.Post("/{orderId}/complete", controllers.BuyOrderComplete(ordersSvc, logg))
				})
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", controllers.TransactionsOwn(transactionsSvc, logg))
				r.With(middleware.RequireCapability(checker, enums.CapabilityManageMaterialExchange, logg)).
					Get("/all", controllers.TransactionsAll(transactionsSvc, logg))
			})

			r.Route("/config", func(r chi.Router) {
				r.Use(middleware.RequireCapability(checker, enums.CapabilityManageMaterialExchange, logg))
				r.Get("/", controllers.ExchangeConfigGet(configSvc, logg))
				r.Put("/", controllers.ExchangeConfigUpdate(configSvc, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationsList(notificationsSvc, logg))
			r.Post("/{notificationId}/read", controllers.NotificationMarkRead(notificationsSvc, logg))
			r.Post("/read-all", controllers.NotificationsMarkAllRead(notificationsSvc, logg))
		})
	})

	return r
}
