package tenant

import (
	"errors"

	"github.com/erp/invoicing/internal/domain/identity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrTenantIDRequired is returned when a tenant-scoped statement runs without a session
var ErrTenantIDRequired = errors.New("tenant_id is required but no session found in context")

// DefaultColumn is the tenant column of every tenant-scoped table
const DefaultColumn = "tenant_id"

// Callback adds the session's tenant to every statement on a tenant-scoped table.
// Repositories filter by tenant explicitly; the callback narrows any statement
// that would otherwise reach another tenant's rows to zero results.
type Callback struct {
	column   string
	required bool
}

// NewCallback creates a tenant callback for the given column.
// When required is set, tenant-scoped statements without a session fail.
func NewCallback(column string, required bool) *Callback {
	if column == "" {
		column = DefaultColumn
	}
	return &Callback{column: column, required: required}
}

// Register installs the callback ahead of query, row, update and delete processing
func (c *Callback) Register(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Query().Before("gorm:query").Register("tenant:query", c.scope); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("tenant:row", c.scope); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("tenant:update", c.scope); err != nil {
		return err
	}
	return cb.Delete().Before("gorm:delete").Register("tenant:delete", c.scope)
}

// Unregister removes the callbacks again
func (c *Callback) Unregister(db *gorm.DB) {
	cb := db.Callback()
	_ = cb.Query().Remove("tenant:query")
	_ = cb.Row().Remove("tenant:row")
	_ = cb.Update().Remove("tenant:update")
	_ = cb.Delete().Remove("tenant:delete")
}

func (c *Callback) scope(db *gorm.DB) {
	stmt := db.Statement
	if stmt.Context == nil || stmt.Unscoped || stmt.Schema == nil {
		return
	}
	if stmt.Schema.LookUpField(c.column) == nil {
		return
	}

	session, ok := identity.SessionFromContext(stmt.Context)
	if !ok {
		// Background work (overdue sweep, sign-in) runs without a session
		if c.required {
			_ = db.AddError(ErrTenantIDRequired)
		}
		return
	}

	stmt.AddClause(clause.Where{Exprs: []clause.Expression{
		clause.Eq{
			Column: clause.Column{Table: clause.CurrentTable, Name: c.column},
			Value:  session.TenantID,
		},
	}})
}
