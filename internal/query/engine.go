// Package query executes the filtered, sorted, paginated listing queries
// behind the console's record tables. Field names are validated against the
// entity schema; unknown fields are ignored rather than rejected, so older
// servers stay compatible with newer client-side optional filters.
package query

import (
	"strings"

	"gorm.io/gorm"

	"github.com/openroad/driveadmin/internal/database/records"
	"github.com/openroad/driveadmin/internal/schema"
)

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "eq"
	OpGte Op = "gte"
	OpLte Op = "lte"
)

// Filter narrows a listing to records whose field compares to Value.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Query describes one listing request.
type Query struct {
	Search   string
	Filters  []Filter
	Sort     string // field name, "-" prefix for descending
	Page     int    // 1-indexed
	PageSize int    // 0 means the engine default
}

// Result is one page of records plus the totals the console's pager needs.
type Result struct {
	Records    []schema.Record `json:"data"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// Engine runs listing queries against the record tables.
type Engine struct {
	db          *gorm.DB
	registry    *schema.Registry
	pageSize    int
	maxPageSize int
}

// NewEngine creates a query engine. pageSize is the fixed default page size;
// maxPageSize caps what a caller may request.
func NewEngine(db *gorm.DB, registry *schema.Registry, pageSize, maxPageSize int) *Engine {
	if pageSize <= 0 {
		pageSize = 20
	}
	if maxPageSize < pageSize {
		maxPageSize = pageSize
	}
	return &Engine{db: db, registry: registry, pageSize: pageSize, maxPageSize: maxPageSize}
}

// List executes the query and returns the requested page. A page beyond the
// last yields an empty slice with the totals intact, not an error.
func (e *Engine) List(t schema.EntityType, q Query) (*Result, error) {
	s, ok := e.registry.Get(t)
	if !ok {
		return nil, records.ErrUnknownEntity
	}

	tx := e.db.Table(s.Table)
	tx = applyFilters(tx, s, q.Filters)
	tx = applySearch(tx, s, q.Search)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = e.pageSize
	}
	if pageSize > e.maxPageSize {
		pageSize = e.maxPageSize
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	tx = applySort(tx, s, q.Sort)

	var rows []map[string]any
	err := tx.Limit(pageSize).Offset((page - 1) * pageSize).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	recs := make([]schema.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, s.Project(row))
	}

	return &Result{
		Records:    recs,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// ToggleSort returns the sort expression produced by clicking a column header
// while active is the current one: a fresh field sorts ascending, the active
// ascending field flips to descending, and the active descending field flips
// back to ascending.
func ToggleSort(active, field string) string {
	if active == field {
		return "-" + field
	}
	return field
}

func applyFilters(tx *gorm.DB, s *schema.Schema, filters []Filter) *gorm.DB {
	for _, f := range filters {
		if !s.IsFilterable(f.Field) {
			continue
		}
		switch f.Op {
		case OpEq:
			tx = tx.Where(f.Field+" = ?", f.Value)
		case OpGte:
			tx = tx.Where(f.Field+" >= ?", f.Value)
		case OpLte:
			tx = tx.Where(f.Field+" <= ?", f.Value)
		}
	}
	return tx
}

func applySearch(tx *gorm.DB, s *schema.Schema, search string) *gorm.DB {
	if search == "" {
		return tx
	}
	fields := s.SearchableFields()
	if len(fields) == 0 {
		return tx
	}

	term := "%" + strings.ToLower(search) + "%"
	conds := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		conds = append(conds, "LOWER("+f+") LIKE ?")
		args = append(args, term)
	}
	return tx.Where(strings.Join(conds, " OR "), args...)
}

func applySort(tx *gorm.DB, s *schema.Schema, sort string) *gorm.DB {
	field := strings.TrimPrefix(sort, "-")
	if field == "" || !s.IsSortable(field) {
		return tx.Order("id")
	}
	direction := " ASC"
	if strings.HasPrefix(sort, "-") {
		direction = " DESC"
	}
	// Secondary id order keeps pagination stable across equal keys.
	return tx.Order(field + direction).Order("id")
}
