package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/erp/invoicing/internal/domain/shared"
	"gorm.io/gorm"
)

// notFoundOr maps a missing row to shared.ErrNotFound and wraps anything else
func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// wrap annotates a driver error with the failing operation
func wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists
	}
	return fmt.Errorf("%s: %w", op, err)
}

// searchPattern builds a case-insensitive LIKE pattern
func searchPattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

// whereSearch matches the search text against any of the given columns
func whereSearch(query *gorm.DB, search string, columns ...string) *gorm.DB {
	if strings.TrimSpace(search) == "" || len(columns) == 0 {
		return query
	}
	clauses := make([]string, len(columns))
	args := make([]any, len(columns))
	pattern := searchPattern(search)
	for i, col := range columns {
		clauses[i] = "LOWER(" + col + ") LIKE ?"
		args[i] = pattern
	}
	return query.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

// paginate applies whitelisted ordering and the current page
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool) *gorm.DB {
	orderBy := ValidateSortField(filter.OrderBy, allowed, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
	if orderBy != "id" {
		query = query.Order("id")
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}
