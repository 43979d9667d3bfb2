package persistence

import (
	"testing"
	"time"

	"github.com/erp/invoicing/internal/domain/identity"
	"github.com/erp/invoicing/internal/domain/invoicing"
	"github.com/erp/invoicing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory SQLite database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), GormConfig(zap.NewNop(), gormlogger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedTenant(t *testing.T, db *gorm.DB) *identity.Tenant {
	t.Helper()
	tenant, err := identity.NewTenant(uuid.New(), "Acme Trading", "owner@acme.test")
	require.NoError(t, err)
	require.NoError(t, NewGormTenantRepository(db).Save(t.Context(), tenant))
	return tenant
}

func mustItem(t *testing.T, name string, qty, price string) invoicing.LineItem {
	t.Helper()
	item, err := invoicing.NewLineItem(invoicing.LineItemKindProduct, name,
		decimal.RequireFromString(qty), decimal.RequireFromString(price))
	require.NoError(t, err)
	return *item
}

func newQuote(t *testing.T, tenantID uuid.UUID, number string) *invoicing.Quote {
	t.Helper()
	quote, err := invoicing.NewQuote(tenantID, number,
		invoicing.Client{Name: "Globex", Email: "ap@globex.test", Address: "1 Main St"},
		decimal.NewFromInt(15))
	require.NoError(t, err)
	require.NoError(t, quote.AddItem(mustItem(t, "Widget", "2", "50")))
	require.NoError(t, quote.AddItem(mustItem(t, "Gadget", "1", "100")))
	return quote
}

func newInvoice(t *testing.T, tenantID uuid.UUID, number string, due time.Time) *invoicing.Invoice {
	t.Helper()
	invoice, err := invoicing.NewInvoice(tenantID, number,
		invoicing.Client{Name: "Initech", Email: "billing@initech.test", TaxID: "300000000000003"},
		decimal.NewFromInt(15))
	require.NoError(t, err)
	require.NoError(t, invoice.AddItem(mustItem(t, "Consulting", "4", "250")))
	require.NoError(t, invoice.SetDueDate(due))
	return invoice
}
