package postgres

import (
	"fmt"

	"gorm.io/gorm"
)

// SharedHelpers holds query helpers used by multiple repositories
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// sortableColumns whitelists columns a client may sort by. Anything else
// falls back to created_at.
var sortableColumns = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"title":        true,
	"score":        true,
	"completed_at": true,
}

// ApplyPaginationAndSort applies sorting and pagination to a query
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	if !sortableColumns[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
