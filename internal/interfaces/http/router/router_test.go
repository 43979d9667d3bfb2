package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/erp/invoicing/internal/infrastructure/config"
	"github.com/erp/invoicing/internal/infrastructure/logger"
	"github.com/erp/invoicing/internal/interfaces/http/handler"
	"github.com/erp/invoicing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestNewRouter_Defaults(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)

	r = NewRouter(gin.New(), WithAPIVersion(""))
	assert.Equal(t, "v1", r.apiVersion)
}

func TestRouter_SetupMountsUnderVersion(t *testing.T) {
	engine := gin.New()
	echo := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method+" "+c.FullPath()) }

	quotes := NewDomainGroup("quotes", "/quotes").
		GET("", echo).
		POST("", echo).
		PUT("/:id", echo).
		PATCH("/:id", echo).
		DELETE("/:id", echo)

	r := NewRouter(engine, WithAPIVersion("v2")).Register(quotes)
	assert.Equal(t, 404, serve(engine, http.MethodGet, "/api/v2/quotes").Code, "routes mount only on Setup")
	r.Setup()

	tests := []struct {
		method, target, want string
	}{
		{http.MethodGet, "/api/v2/quotes", "GET /api/v2/quotes"},
		{http.MethodPost, "/api/v2/quotes", "POST /api/v2/quotes"},
		{http.MethodPut, "/api/v2/quotes/q1", "PUT /api/v2/quotes/:id"},
		{http.MethodPatch, "/api/v2/quotes/q1", "PATCH /api/v2/quotes/:id"},
		{http.MethodDelete, "/api/v2/quotes/q1", "DELETE /api/v2/quotes/:id"},
	}
	for _, tt := range tests {
		w := serve(engine, tt.method, tt.target)
		require.Equal(t, http.StatusOK, w.Code, tt.target)
		assert.Equal(t, tt.want, w.Body.String())
	}
}

func TestDomainGroup_MiddlewareCoversSubgroups(t *testing.T) {
	engine := gin.New()
	var seen []string
	mark := func(c *gin.Context) { seen = append(seen, c.FullPath()) }
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }

	catalog := NewDomainGroup("catalog", "/catalog")
	catalog.Group("products", "/products").GET("", ok)
	// Use after the routes still applies to them
	catalog.Use(mark)
	catalog.RegisterRoutes(engine.Group("/api/v1"))

	assert.Equal(t, http.StatusNoContent, serve(engine, http.MethodGet, "/api/v1/catalog/products").Code)
	assert.Equal(t, []string{"/api/v1/catalog/products"}, seen)
}

func TestDomainGroup_Routes(t *testing.T) {
	noop := func(*gin.Context) {}
	invoices := NewDomainGroup("invoices", "/invoices").
		GET("", noop).
		GET("/:id/document", noop)
	invoices.Group("payments", "/:id/payments").POST("", noop)

	assert.Equal(t, "invoices", invoices.Name())
	assert.Equal(t, "/invoices", invoices.Prefix())
	assert.Equal(t, []Route{
		{Method: http.MethodGet, Path: "/invoices"},
		{Method: http.MethodGet, Path: "/invoices/:id/document"},
		{Method: http.MethodPost, Path: "/invoices/:id/payments"},
	}, invoices.Routes())
}

func TestAPIGroups_CoversEveryEndpoint(t *testing.T) {
	var all []Route
	for _, g := range APIGroups(testHandlers()) {
		all = append(all, g.Routes()...)
	}
	for _, want := range []Route{
		{http.MethodPost, "/auth/register"},
		{http.MethodPost, "/auth/federated"},
		{http.MethodPost, "/auth/password-reset/confirm"},
		{http.MethodPut, "/tenant"},
		{http.MethodPut, "/customers/:id"},
		{http.MethodDelete, "/catalog/services/:id"},
		{http.MethodPost, "/quotes/:id/status"},
		{http.MethodGet, "/invoices/:id/compliance"},
		{http.MethodGet, "/invoices/:id/payments"},
		{http.MethodGet, "/live/:collection"},
		{http.MethodGet, "/system/ping"},
	} {
		assert.Contains(t, all, want)
	}
}

func testHandlers() Handlers {
	return Handlers{
		Auth:      handler.NewAuthHandler(nil),
		Tenant:    handler.NewTenantHandler(nil),
		Customers: handler.NewCustomerHandler(nil),
		Suppliers: handler.NewSupplierHandler(nil),
		Products:  handler.NewProductHandler(nil),
		Services:  handler.NewServiceHandler(nil),
		Quotes:    handler.NewQuoteHandler(nil),
		Invoices:  handler.NewInvoiceHandler(nil, nil),
		Payments:  handler.NewPaymentHandler(nil),
		Dashboard: handler.NewDashboardHandler(nil),
		Live:      handler.NewLiveHandler(nil, 0),
		System:    handler.NewSystemHandler("invoicing", "test"),
	}
}

func TestAPIGroups_ProtectsResourceRoutes(t *testing.T) {
	engine := gin.New()
	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }

	r := NewRouter(engine)
	for _, group := range APIGroups(testHandlers(), deny) {
		r.Register(group)
	}
	r.Setup()

	protected := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/tenant"},
		{http.MethodGet, "/api/v1/customers"},
		{http.MethodDelete, "/api/v1/suppliers/" + uuid.NewString()},
		{http.MethodPost, "/api/v1/catalog/products"},
		{http.MethodGet, "/api/v1/catalog/services"},
		{http.MethodPost, "/api/v1/quotes/" + uuid.NewString() + "/convert"},
		{http.MethodGet, "/api/v1/invoices/" + uuid.NewString() + "/document"},
		{http.MethodPost, "/api/v1/invoices/" + uuid.NewString() + "/payments"},
		{http.MethodGet, "/api/v1/payments"},
		{http.MethodGet, "/api/v1/dashboard/summary"},
		{http.MethodGet, "/api/v1/live/quotes"},
		{http.MethodPost, "/api/v1/auth/logout"},
		{http.MethodGet, "/api/v1/auth/me"},
	}
	for _, route := range protected {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(route.method, route.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/system/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// Public auth routes reach their handler and fail validation instead
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNewEngine_NoRouteEnvelope(t *testing.T) {
	engine, err := NewEngine(EngineConfig{
		HTTP: config.HTTPConfig{MaxBodySize: 1 << 20, CORSAllowOrigins: []string{"*"}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nothing", nil)
	req.Header.Set(logger.HeaderRequestID, "req-42")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(logger.HeaderRequestID))
	assert.Contains(t, w.Body.String(), `"request_id":"req-42"`)
	assert.Contains(t, w.Body.String(), `"code":"NOT_FOUND"`)
}

func TestNewEngine_RateLimit(t *testing.T) {
	limiter := middleware.NewMemoryLimiter(1, time.Minute)
	defer limiter.Stop()

	engine, err := NewEngine(EngineConfig{Limiter: limiter})
	require.NoError(t, err)
	engine.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
