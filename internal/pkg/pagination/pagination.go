package pagination

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/folio-space/core/internal/pkg/response"
)

const (
	DefaultPage = 1
	DefaultSize = 20
	MaxSize     = 100
)

// Query holds parsed pagination parameters.
type Query struct {
	Page int
	Size int
}

// New clamps page and size into their valid ranges.
func New(page, size int) Query {
	if page < 1 {
		page = DefaultPage
	}
	if size < 1 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	return Query{Page: page, Size: size}
}

// FromContext reads ?page= and ?size= from the request.
func FromContext(c *gin.Context) Query {
	return New(parseIntOr(c.Query("page"), DefaultPage), parseIntOr(c.Query("size"), DefaultSize))
}

func (q Query) Offset() int { return (q.Page - 1) * q.Size }

// Meta builds the response metadata for a result set of total rows.
func (q Query) Meta(total int64) response.Pagination {
	totalPage := 0
	if q.Size > 0 {
		totalPage = int((total + int64(q.Size) - 1) / int64(q.Size))
	}
	return response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   totalPage,
		Size:        q.Size,
		HasNextPage: q.Page < totalPage,
	}
}

// Paginate counts the rows matched by tx, then loads the requested page into dest.
func Paginate[T any](ctx context.Context, tx *gorm.DB, q Query, dest *[]T) (response.Pagination, error) {
	var total int64
	if err := tx.WithContext(ctx).Count(&total).Error; err != nil {
		return response.Pagination{}, err
	}
	if total == 0 {
		*dest = []T{}
		return q.Meta(0), nil
	}
	if err := tx.WithContext(ctx).Offset(q.Offset()).Limit(q.Size).Find(dest).Error; err != nil {
		return response.Pagination{}, err
	}
	return q.Meta(total), nil
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
