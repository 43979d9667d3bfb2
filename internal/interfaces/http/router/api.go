package router

import (
	"github.com/erp/invoicing/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers mounted under /api/v1
type Handlers struct {
	Auth      *handler.AuthHandler
	Tenant    *handler.TenantHandler
	Customers *handler.CustomerHandler
	Suppliers *handler.SupplierHandler
	Products  *handler.CatalogHandler
	Services  *handler.CatalogHandler
	Quotes    *handler.QuoteHandler
	Invoices  *handler.InvoiceHandler
	Payments  *handler.PaymentHandler
	Dashboard *handler.DashboardHandler
	Live      *handler.LiveHandler
	System    *handler.SystemHandler
}

// APIGroups builds the route groups of the API.
// protected runs before every route that needs a session (JWTAuth first).
func APIGroups(h Handlers, protected ...gin.HandlerFunc) []*DomainGroup {
	system := NewDomainGroup("system", "/system").
		GET("/ping", h.System.Ping)

	// Sign-up, sign-in and reset need no session
	auth := NewDomainGroup("auth", "/auth").
		POST("/register", h.Auth.Register).
		POST("/login", h.Auth.Login).
		POST("/federated", h.Auth.FederatedLogin).
		POST("/refresh", h.Auth.Refresh).
		POST("/password-reset", h.Auth.RequestPasswordReset).
		POST("/password-reset/confirm", h.Auth.ConfirmPasswordReset)

	session := NewDomainGroup("session", "/auth").Use(protected...).
		POST("/logout", h.Auth.Logout).
		GET("/me", h.Auth.Me)

	tenant := NewDomainGroup("tenant", "/tenant").Use(protected...).
		GET("", h.Tenant.Get).
		PUT("", h.Tenant.Update)

	customers := crudGroup("customers", "/customers", h.Customers.List, h.Customers.Create,
		h.Customers.GetByID, h.Customers.Update, h.Customers.Delete).Use(protected...)
	suppliers := crudGroup("suppliers", "/suppliers", h.Suppliers.List, h.Suppliers.Create,
		h.Suppliers.GetByID, h.Suppliers.Update, h.Suppliers.Delete).Use(protected...)

	catalog := NewDomainGroup("catalog", "/catalog").Use(protected...)
	catalog.Group("products", "/products").
		GET("", h.Products.List).
		POST("", h.Products.Create).
		GET("/:id", h.Products.GetByID).
		PUT("/:id", h.Products.Update).
		DELETE("/:id", h.Products.Delete)
	catalog.Group("services", "/services").
		GET("", h.Services.List).
		POST("", h.Services.Create).
		GET("/:id", h.Services.GetByID).
		PUT("/:id", h.Services.Update).
		DELETE("/:id", h.Services.Delete)

	quotes := NewDomainGroup("quotes", "/quotes").Use(protected...).
		GET("", h.Quotes.List).
		POST("", h.Quotes.Create).
		GET("/:id", h.Quotes.GetByID).
		PUT("/:id", h.Quotes.Update).
		POST("/:id/status", h.Quotes.ChangeStatus).
		POST("/:id/convert", h.Quotes.Convert)

	invoices := NewDomainGroup("invoices", "/invoices").Use(protected...).
		GET("", h.Invoices.List).
		POST("", h.Invoices.Create).
		GET("/:id", h.Invoices.GetByID).
		PUT("/:id", h.Invoices.Update).
		POST("/:id/status", h.Invoices.ChangeStatus).
		GET("/:id/payments", h.Invoices.ListPayments).
		POST("/:id/payments", h.Invoices.RecordPayment).
		GET("/:id/compliance", h.Invoices.Compliance).
		GET("/:id/document", h.Invoices.Document)

	payments := NewDomainGroup("payments", "/payments").Use(protected...).
		GET("", h.Payments.List)

	dashboard := NewDomainGroup("dashboard", "/dashboard").Use(protected...).
		GET("/summary", h.Dashboard.Summary)

	live := NewDomainGroup("live", "/live").Use(protected...).
		GET("/:collection", h.Live.Stream)

	return []*DomainGroup{
		system, auth, session, tenant, customers, suppliers, catalog,
		quotes, invoices, payments, dashboard, live,
	}
}

func crudGroup(name, prefix string, list, create, get, update, del gin.HandlerFunc) *DomainGroup {
	return NewDomainGroup(name, prefix).
		GET("", list).
		POST("", create).
		GET("/:id", get).
		PUT("/:id", update).
		DELETE("/:id", del)
}

// LiveStreamPath is the full route pattern of the SSE endpoint, which also accepts ?access_token=
func LiveStreamPath(apiVersion string) string {
	return "/api/" + apiVersion + "/live/:collection"
}
