package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fashionmart/fashionmart-backend/api/controllers"
	"github.com/fashionmart/fashionmart-backend/api/middleware"
	categorysvc "github.com/fashionmart/fashionmart-backend/internal/categories"
	designsvc "github.com/fashionmart/fashionmart-backend/internal/designs"
	notifsvc "github.com/fashionmart/fashionmart-backend/internal/notifications"
	ordersvc "github.com/fashionmart/fashionmart-backend/internal/orders"
	paymentsvc "github.com/fashionmart/fashionmart-backend/internal/payments"
	productsvc "github.com/fashionmart/fashionmart-backend/internal/products"
	reportsvc "github.com/fashionmart/fashionmart-backend/internal/reports"
	returnsvc "github.com/fashionmart/fashionmart-backend/internal/returns"
	stocksvc "github.com/fashionmart/fashionmart-backend/internal/stock"
	usersvc "github.com/fashionmart/fashionmart-backend/internal/users"
	"github.com/fashionmart/fashionmart-backend/pkg/config"
	"github.com/fashionmart/fashionmart-backend/pkg/db"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	"github.com/fashionmart/fashionmart-backend/pkg/logger"
	"github.com/fashionmart/fashionmart-backend/pkg/redis"
)

// Services bundles the domain services the router exposes.
type Services struct {
	Users         usersvc.Service
	Products      productsvc.Service
	Stock         stocksvc.Service
	Categories    categorysvc.Service
	Designs       designsvc.Service
	Orders        ordersvc.Service
	Payments      paymentsvc.Service
	Returns       returnsvc.Service
	Notifications notifsvc.Service
	Reports       reportsvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisPinger redis.Pinger,
	idemStore redis.IdempotencyStore,
	promRegistry *prometheus.Registry,
	svcs Services,
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})

	if promRegistry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		// Every authenticated role.
		r.Get("/profile", controllers.GetProfile(svcs.Users, logg))
		r.Put("/profile", controllers.UpdateProfile(svcs.Users, logg))
		r.Get("/products", controllers.ListProducts(svcs.Products, logg))
		r.Get("/products/{productId}", controllers.GetProduct(svcs.Products, logg))
		r.Get("/categories", controllers.ListCategories(svcs.Categories, logg))
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})

		// Customer surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleCustomer))

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.CreateOrder(svcs.Orders, logg))
				r.Get("/", controllers.ListMyOrders(svcs.Orders, logg))
				r.Get("/{orderId}", controllers.GetMyOrder(svcs.Orders, logg))
				r.Post("/{orderId}/payment", controllers.CreatePaymentIntent(svcs.Payments, logg))
				r.Post("/{orderId}/payment/confirm", controllers.ConfirmPayment(svcs.Payments, logg))
			})
			r.Route("/returns", func(r chi.Router) {
				r.Post("/", controllers.CreateReturn(svcs.Returns, logg))
				r.Get("/", controllers.ListMyReturns(svcs.Returns, logg))
				r.Get("/{returnId}", controllers.GetReturn(svcs.Returns, logg))
			})
		})

		// Staff surface.
		r.Route("/staff", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleStaff))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/pending", controllers.PendingOrders(svcs.Orders, logg))
				r.Get("/assigned", controllers.AssignedOrders(svcs.Orders, logg))
				r.Post("/{orderId}/assign", controllers.AssignOrder(svcs.Orders, logg))
				r.Put("/{orderId}/status", controllers.UpdateOrderStatus(svcs.Orders, logg))
			})
			r.Route("/returns", func(r chi.Router) {
				r.Get("/pending", controllers.PendingReturns(svcs.Returns, logg))
				r.Get("/assigned", controllers.AssignedReturns(svcs.Returns, logg))
				r.Post("/{returnId}/assign", controllers.AssignReturn(svcs.Returns, logg))
				r.Put("/{returnId}/process", controllers.ProcessReturn(svcs.Returns, logg))
			})
		})

		// Designer surface.
		r.Route("/designs", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, enums.RoleDesigner, enums.RoleInventoryManager)).Get("/", controllers.ListDesigns(svcs.Designs, logg))
			r.With(middleware.RequireRole(logg, enums.RoleDesigner, enums.RoleInventoryManager)).Get("/{designId}", controllers.GetDesign(svcs.Designs, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleDesigner))
				r.Post("/", controllers.CreateDesign(svcs.Designs, logg))
				r.Put("/{designId}", controllers.UpdateDesign(svcs.Designs, logg))
				r.Delete("/{designId}", controllers.DeleteDesign(svcs.Designs, logg))
				r.Post("/{designId}/submit", controllers.SubmitDesign(svcs.Designs, logg))
			})

			r.With(middleware.RequireRole(logg, enums.RoleInventoryManager)).Put("/{designId}/review", controllers.ReviewDesign(svcs.Designs, logg))
		})

		// Inventory manager surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleInventoryManager))

			r.Post("/products", controllers.CreateProduct(svcs.Products, logg))
			r.Patch("/products/{productId}", controllers.UpdateProduct(svcs.Products, logg))
			r.Route("/inventory", func(r chi.Router) {
				r.Put("/stock/{stockId}", controllers.AdjustStock(svcs.Stock, logg))
				r.Get("/low-stock", controllers.LowStock(svcs.Stock, logg))
			})
			r.Route("/categories", func(r chi.Router) {
				r.Post("/", controllers.CreateCategory(svcs.Categories, logg))
				r.Put("/{categoryId}", controllers.UpdateCategory(svcs.Categories, logg))
				r.Delete("/{categoryId}", controllers.DeleteCategory(svcs.Categories, logg))
			})
		})

		// Admin surface. RequireRole lets admins through every gate above;
		// these routes are admin-only.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg))

			r.Get("/dashboard", controllers.Dashboard(svcs.Reports, logg))
			r.Get("/users", controllers.ListUsers(svcs.Users, logg))
			r.Put("/users/{userId}/role", controllers.UpdateUserRole(svcs.Users, logg))
			r.Get("/orders", controllers.ListAllOrders(svcs.Orders, logg))
			r.Get("/orders/{orderId}", controllers.GetAnyOrder(svcs.Orders, logg))
			r.Put("/orders/{orderId}/status", controllers.UpdateOrderStatus(svcs.Orders, logg))
			r.Route("/payments", func(r chi.Router) {
				r.Get("/", controllers.ListPayments(svcs.Payments, logg))
				r.Get("/{paymentId}", controllers.GetPayment(svcs.Payments, logg))
				r.Post("/{paymentId}/refund", controllers.RefundPayment(svcs.Payments, logg))
			})
			r.Route("/reports", func(r chi.Router) {
				r.Post("/", controllers.GenerateReport(svcs.Reports, logg))
				r.Get("/", controllers.ListReports(svcs.Reports, logg))
				r.Get("/{reportId}", controllers.GetReport(svcs.Reports, logg))
			})
		})
	})

	return r
}
