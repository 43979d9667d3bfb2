package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document number prefixes
const (
	QuoteNumberPrefix   = "QT"
	InvoiceNumberPrefix = "INV"
)

// maxNumberAttempts bounds the uniqueness checks after the last used number
const maxNumberAttempts = 100

// documentNumberer hands out per-tenant, per-year sequential numbers.
// Format: PREFIX-YYYY-NNNNN (e.g., INV-2026-00001)
type documentNumberer struct {
	db     *gorm.DB
	model  any
	column string
	prefix string
	now    func() time.Time
}

func newDocumentNumberer(db *gorm.DB, model any, column, prefix string) *documentNumberer {
	return &documentNumberer{db: db, model: model, column: column, prefix: prefix, now: time.Now}
}

// Next returns the next unused number for the tenant
func (n *documentNumberer) Next(ctx context.Context, tenantID uuid.UUID) (string, error) {
	yearPrefix := fmt.Sprintf("%s-%d-", n.prefix, n.now().Year())

	var last []string
	err := n.db.WithContext(ctx).
		Model(n.model).
		Where("tenant_id = ? AND "+n.column+" LIKE ?", tenantID, yearPrefix+"%").
		// numbers outgrow five digits, so longer strings sort first
		Order("LENGTH(" + n.column + ") DESC, " + n.column + " DESC").
		Limit(1).
		Pluck(n.column, &last).Error
	if err != nil {
		return "", wrap(err, "find last "+n.column)
	}

	var next int64 = 1
	if len(last) > 0 {
		next = parseSequence(last[0], yearPrefix) + 1
	}
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number := fmt.Sprintf("%s%05d", yearPrefix, next)
		var count int64
		if err := n.db.WithContext(ctx).
			Model(n.model).
			Where("tenant_id = ? AND "+n.column+" = ?", tenantID, number).
			Count(&count).Error; err != nil {
			return "", wrap(err, "check "+n.column)
		}
		if count == 0 {
			return number, nil
		}
		next++
	}
	return "", fmt.Errorf("no free %s after %d attempts", n.column, maxNumberAttempts)
}

// parseSequence extracts the numeric suffix; anything unparsable counts as zero
func parseSequence(number, yearPrefix string) int64 {
	if !strings.HasPrefix(number, yearPrefix) {
		return 0
	}
	var seq int64
	if _, err := fmt.Sscanf(strings.TrimPrefix(number, yearPrefix), "%d", &seq); err != nil {
		return 0
	}
	return seq
}
