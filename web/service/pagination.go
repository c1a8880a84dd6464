package service

import (
	"fmt"
	"strings"

	"github.com/yamdb/api-yamdb/web/entity"
	"gorm.io/gorm"
)

const DefaultPageSize = 10

// PageQuery selects one page (1-based) of a list.
type PageQuery struct {
	Page int
	Size int
}

func (q PageQuery) normalize() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Size < 1 {
		q.Size = DefaultPageSize
	}
	return q
}

func (q PageQuery) Offset() int {
	q = q.normalize()
	return (q.Page - 1) * q.Size
}

// paginate counts the rows matched by base, then loads the requested page
// into dest. shape adds the select list, ordering and preloads, which must
// not take part in the count. A page past the end is NotFound, except the
// first page of an empty list.
func paginate[T any](base *gorm.DB, q PageQuery, dest *[]T, shape func(*gorm.DB) *gorm.DB) (int64, error) {
	q = q.normalize()
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return 0, err
	}
	if q.Page > 1 && int64(q.Offset()) >= total {
		return 0, fmt.Errorf("page %d: %w", q.Page, entity.ErrNotFound)
	}

	query := base
	if shape != nil {
		query = shape(query)
	}
	if err := query.Limit(q.Size).Offset(q.Offset()).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// containsClause is a case-insensitive substring match on column, used
// with containsPattern.
func containsClause(column string) string {
	return "LOWER(" + column + ") LIKE ? ESCAPE '\\'"
}

func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
