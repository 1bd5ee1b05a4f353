package query

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tejzpr/helpdesk/internal/apperr"
)

// PageRequest selects one page of a sorted result set. Page is zero-based.
type PageRequest struct {
	Page      int
	Size      int
	SortBy    string
	Direction Direction
}

// Page is the page descriptor returned by every find operation.
type Page[T any] struct {
	TotalElements    int64
	TotalPages       int
	NumberOfElements int
	Content          []T
}

// Window is a time range exclusive on both ends: After < t < Before.
type Window struct {
	Before time.Time
	After  time.Time
}

// Scope is a composable filter predicate.
type Scope = func(*gorm.DB) *gorm.DB

// Equal filters column = value.
func Equal(column string, value any) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	}
}

// Contains filters rows whose column contains substr, ignoring case.
func Contains(column, substr string) Scope {
	pattern := "%" + escapeLike(strings.ToLower(substr)) + "%"
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("LOWER("+column+") LIKE ? ESCAPE '\\'", pattern)
	}
}

// Within filters rows whose column falls strictly inside w.
func Within(column string, w Window) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.
			Where(clause.Lt{Column: clause.Column{Name: column}, Value: w.Before.UTC()}).
			Where(clause.Gt{Column: clause.Column{Name: column}, Value: w.After.UTC()})
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Paginate runs one counted, sorted, paged query over model T. sortable maps
// the caller-facing sort names to columns; any other name is a bad request.
// Ties are broken by id in the same direction.
func Paginate[T any](ctx context.Context, tx *gorm.DB, p PageRequest, sortable map[string]string, scopes ...Scope) (Page[T], error) {
	var page Page[T]

	if p.Page < 0 {
		return page, apperr.BadRequest("pageNo:%d", p.Page)
	}
	if p.Size < 1 {
		return page, apperr.BadRequest("pageSize:%d", p.Size)
	}
	// The row offset must fit in an int.
	if p.Page > math.MaxInt/p.Size {
		return page, apperr.BadRequest("pageNo:%d", p.Page)
	}
	column, ok := sortable[p.SortBy]
	if !ok {
		return page, apperr.BadRequest("sortBy:%s", p.SortBy)
	}
	desc := p.Direction == Descending

	var total int64
	if err := tx.WithContext(ctx).Model(new(T)).Scopes(scopes...).Count(&total).Error; err != nil {
		return page, fmt.Errorf("count: %w", err)
	}

	content := make([]T, 0, p.Size)
	err := tx.WithContext(ctx).Model(new(T)).Scopes(scopes...).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc}).
		Offset(p.Page * p.Size).
		Limit(p.Size).
		Find(&content).Error
	if err != nil {
		return page, fmt.Errorf("find: %w", err)
	}

	page.TotalElements = total
	page.TotalPages = int((total + int64(p.Size) - 1) / int64(p.Size))
	page.NumberOfElements = len(content)
	page.Content = content
	return page, nil
}

// Terms builds the comma separated "name:value" list used in not-found
// messages.
type Terms struct {
	parts []string
}

// Add appends name:value.
func (t *Terms) Add(name string, value any) {
	t.parts = append(t.parts, name+":"+fmt.Sprint(value))
}

// AddWindow appends <prefix>Before and <prefix>After as epoch milliseconds.
func (t *Terms) AddWindow(prefix string, w Window) {
	t.parts = append(t.parts,
		prefix+"Before:"+strconv.FormatInt(w.Before.UnixMilli(), 10),
		prefix+"After:"+strconv.FormatInt(w.After.UnixMilli(), 10),
	)
}

// String returns the joined terms, or "No data" when no filter was given.
func (t *Terms) String() string {
	if len(t.parts) == 0 {
		return "No data"
	}
	return strings.Join(t.parts, ",")
}
