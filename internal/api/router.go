package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/api/handler"
	"github.com/kasirku/kasir/internal/api/middleware"
	"github.com/kasirku/kasir/internal/auth"
	"github.com/kasirku/kasir/internal/contact"
	"github.com/kasirku/kasir/internal/inventory"
	"github.com/kasirku/kasir/internal/message"
	"github.com/kasirku/kasir/internal/note"
	"github.com/kasirku/kasir/internal/product"
	"github.com/kasirku/kasir/internal/purchase"
	"github.com/kasirku/kasir/internal/report"
	"github.com/kasirku/kasir/internal/sale"
	"github.com/kasirku/kasir/internal/tenant"
)

// StoreDirectory checks, locates and forgets store ownership.
// *tenant.Directory implements it.
type StoreDirectory interface {
	middleware.StoreChecker
	handler.StoreLocator
	handler.StoreCache
}

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger    handler.Pinger
	Version     string
	OpenAPISpec []byte
	Tracer      trace.Tracer

	AuthService *auth.Service
	Users       auth.UserRepository
	Tenants     tenant.Repository
	Directory   StoreDirectory
	Products    product.Repository
	Customers   contact.Repository
	Suppliers   contact.Repository
	Notes       note.Repository
	Messages    message.Repository
	Inventory   inventory.Repository
	Sales       sale.Repository
	Purchases   purchase.Repository
	Reports     report.Repository
}

type handlers struct {
	auth      *handler.AuthHandler
	users     *handler.UserHandler
	tenants   *handler.TenantHandler
	products  *handler.ProductHandler
	customers *handler.ContactHandler
	suppliers *handler.ContactHandler
	notes     *handler.NoteHandler
	messages  *handler.MessageHandler
	inventory *handler.InventoryHandler
	sales     *handler.SaleHandler
	purchases *handler.PurchaseHandler
	reports   *handler.ReportHandler
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	tracer := deps.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(middleware.Tracing(tracer))
	r.Use(middleware.Metrics)
	r.Use(chimiddleware.Logger)

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	h := handlers{
		auth:      handler.NewAuthHandler(deps.AuthService),
		users:     handler.NewUserHandler(deps.AuthService, deps.Users, deps.Directory),
		tenants:   handler.NewTenantHandler(deps.Tenants, deps.Directory),
		products:  handler.NewProductHandler(deps.Products, deps.Directory),
		customers: handler.NewContactHandler(deps.Customers, deps.Directory),
		suppliers: handler.NewContactHandler(deps.Suppliers, deps.Directory),
		notes:     handler.NewNoteHandler(deps.Notes, deps.Directory),
		messages:  handler.NewMessageHandler(deps.Messages),
		inventory: handler.NewInventoryHandler(deps.Inventory, deps.Directory),
		sales:     handler.NewSaleHandler(deps.Sales, deps.Directory),
		purchases: handler.NewPurchaseHandler(deps.Purchases, deps.Directory),
		reports:   handler.NewReportHandler(deps.Reports),
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(deps.AuthService))

		r.Post("/auth/login", h.auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			// The scope middleware runs inside each mount so that the
			// {tokoId} path parameter is visible to it.
			r.Group(func(r chi.Router) {
				r.Use(middleware.Scope(deps.Directory))

				r.Route("/tenants", func(r chi.Router) {
					r.Use(middleware.RequireGod())
					r.Post("/", h.tenants.CreateTenant)
					r.Get("/", h.tenants.ListTenants)
					r.Get("/{id}", h.tenants.GetTenant)
				})

				mountScoped(r, h)
			})

			r.Route("/toko/{tokoId}", func(r chi.Router) {
				r.Use(middleware.Scope(deps.Directory))
				mountScoped(r, h)
			})
		})
	})

	return r
}

// mountScoped registers every store-scoped resource on r.
func mountScoped(r chi.Router, h handlers) {
	storeAdmin := middleware.RequireRank(access.RoleStoreAdmin)
	admin := middleware.RequireRank(access.RoleAdmin)
	needStore := middleware.RequireStore()

	r.Get("/me", h.auth.Me)

	r.Route("/users", func(r chi.Router) {
		r.With(storeAdmin).Post("/", h.users.Create)
		r.Get("/", h.users.List)
		r.Get("/{id}", h.users.Get)
		r.With(storeAdmin).Delete("/{id}", h.users.Disable)
	})

	r.Route("/stores", func(r chi.Router) {
		r.With(admin).Post("/", h.tenants.CreateStore)
		r.Get("/", h.tenants.ListStores)
		r.Get("/{id}", h.tenants.GetStore)
		r.With(admin).Patch("/{id}", h.tenants.UpdateStore)
		r.With(admin).Delete("/{id}", h.tenants.DeleteStore)
	})

	r.Route("/products", func(r chi.Router) {
		r.With(storeAdmin, needStore).Post("/", h.products.Create)
		r.Get("/", h.products.List)
		r.Get("/{id}", h.products.Get)
		r.With(storeAdmin).Patch("/{id}", h.products.Update)
		r.With(storeAdmin).Delete("/{id}", h.products.Delete)
	})

	r.Route("/customers", func(r chi.Router) {
		r.With(needStore).Post("/", h.customers.Create)
		r.Get("/", h.customers.List)
		r.Get("/{id}", h.customers.Get)
		r.Patch("/{id}", h.customers.Update)
		r.With(storeAdmin).Delete("/{id}", h.customers.Delete)
	})

	r.Route("/suppliers", func(r chi.Router) {
		r.With(storeAdmin, needStore).Post("/", h.suppliers.Create)
		r.Get("/", h.suppliers.List)
		r.Get("/{id}", h.suppliers.Get)
		r.With(storeAdmin).Patch("/{id}", h.suppliers.Update)
		r.With(storeAdmin).Delete("/{id}", h.suppliers.Delete)
	})

	r.Route("/notes", func(r chi.Router) {
		r.With(needStore).Post("/", h.notes.Create)
		r.Get("/", h.notes.List)
		r.Get("/{id}", h.notes.Get)
		r.Patch("/{id}", h.notes.Update)
		r.Delete("/{id}", h.notes.Delete)
	})

	r.Route("/messages", func(r chi.Router) {
		r.Post("/", h.messages.Send)
		r.Get("/", h.messages.List)
		r.Post("/{id}/read", h.messages.MarkRead)
	})

	r.Route("/inventory", func(r chi.Router) {
		r.With(storeAdmin, needStore).Post("/adjustments", h.inventory.Adjust)
		r.Get("/movements", h.inventory.Movements)
		r.Get("/low-stock", h.products.LowStock)
	})

	r.Route("/sales", func(r chi.Router) {
		r.With(needStore).Post("/", h.sales.Create)
		r.Get("/", h.sales.List)
		r.Get("/{id}", h.sales.Get)
	})

	r.Route("/purchases", func(r chi.Router) {
		r.With(storeAdmin, needStore).Post("/", h.purchases.Create)
		r.Get("/", h.purchases.List)
		r.Get("/{id}", h.purchases.Get)
	})

	r.Route("/reports", func(r chi.Router) {
		r.Use(storeAdmin)
		r.Get("/summary", h.reports.Summary)
		r.Get("/daily", h.reports.Daily)
		r.Get("/top-products", h.reports.TopProducts)
	})
}
