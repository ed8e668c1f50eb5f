package repository

import (
	"fmt"
	"strings"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// DefaultLimit applies when the caller supplies no page size.
const DefaultLimit = 10

// QueryOptions captures pagination and sorting parameters. Pages are
// 1-indexed; SortBy is a comma-separated list of field:direction pairs.
type QueryOptions struct {
	SortBy string
	Limit  int
	Page   int
}

// Normalize resolves defaults: page 1, limit 10.
func (o QueryOptions) Normalize() QueryOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Page <= 0 {
		o.Page = 1
	}
	return o
}

// TicketPage is the paginated query result.
type TicketPage struct {
	Results      []domain.TicketWithAssignee
	Page         int
	Limit        int
	TotalPages   int
	TotalResults int
}

// TotalPages computes ceil(total / limit).
func TotalPages(total, limit int) int {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return (total + limit - 1) / limit
}

// SortKey is one parsed field:direction pair.
type SortKey struct {
	Field      string
	Descending bool
}

// sortableColumns maps public field names to ticket columns. Fields outside
// this map are ignored rather than interpolated into SQL.
var sortableColumns = map[string]string{
	"title":      "t.title",
	"status":     "t.status",
	"priority":   "t.priority",
	"assignedTo": "t.assigned_to",
	"createdAt":  "t.created_at",
	"updatedAt":  "t.updated_at",
}

// ParseSortBy parses a sort spec like "priority:desc,title:asc". Unknown
// fields are dropped; any direction other than desc sorts ascending.
func ParseSortBy(sortBy string) []SortKey {
	var keys []SortKey
	for _, part := range strings.Split(sortBy, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, direction, _ := strings.Cut(part, ":")
		if _, ok := sortableColumns[field]; !ok {
			continue
		}
		keys = append(keys, SortKey{
			Field:      field,
			Descending: strings.EqualFold(direction, "desc"),
		})
	}
	return keys
}

// orderByClause renders sort keys as SQL, falling back to newest-first.
func orderByClause(keys []SortKey) string {
	if len(keys) == 0 {
		return "ORDER BY t.created_at DESC"
	}
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		direction := "ASC"
		if key.Descending {
			direction = "DESC"
		}
		parts = append(parts, fmt.Sprintf("%s %s", sortableColumns[key.Field], direction))
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}
