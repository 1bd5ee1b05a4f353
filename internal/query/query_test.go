package query_test

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tejzpr/helpdesk/internal/apperr"
	"github.com/tejzpr/helpdesk/internal/db"
	"github.com/tejzpr/helpdesk/internal/db/dbtest"
	"github.com/tejzpr/helpdesk/internal/query"
)

var sortable = map[string]string{"created": "created", "fullName": "full_name"}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, d *gorm.DB, names ...string) []db.Requester {
	t.Helper()
	out := make([]db.Requester, 0, len(names))
	for i, n := range names {
		r := db.Requester{
			FullName: n,
			Email:    fmt.Sprintf("user%d@example.com", i),
			IsActive: true,
			Created:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, d.Create(&r).Error)
		out = append(out, r)
	}
	return out
}

func ids(rs []db.Requester) []int64 {
	out := make([]int64, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestParseDirectionAliases(t *testing.T) {
	for _, alias := range []string{"asc", "ASC", "Ascending", "a", "A"} {
		d, err := query.ParseDirection(alias)
		require.NoError(t, err, alias)
		assert.Equal(t, query.Ascending, d, alias)
	}
	for _, alias := range []string{"desc", "DESC", "descending", "dsc", "d", "D"} {
		d, err := query.ParseDirection(alias)
		require.NoError(t, err, alias)
		assert.Equal(t, query.Descending, d, alias)
	}
}

func TestParseDirectionUnknown(t *testing.T) {
	for _, alias := range []string{"up", "", "ascend", "de"} {
		_, err := query.ParseDirection(alias)
		require.Error(t, err, alias)
		assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
		assert.Equal(t, "sortDir:"+alias, err.Error())
	}
}

func TestPaginateCountsAndOrders(t *testing.T) {
	d := dbtest.Open(t)
	rows := seed(t, d, "a", "b", "c", "d", "e")

	page, err := query.Paginate[db.Requester](context.Background(), d,
		query.PageRequest{Page: 0, Size: 2, SortBy: "created", Direction: query.Descending}, sortable)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.NumberOfElements)
	assert.Equal(t, []int64{rows[4].ID, rows[3].ID}, ids(page.Content))

	last, err := query.Paginate[db.Requester](context.Background(), d,
		query.PageRequest{Page: 2, Size: 2, SortBy: "created", Direction: query.Ascending}, sortable)
	require.NoError(t, err)
	assert.Equal(t, 1, last.NumberOfElements)
	assert.Equal(t, []int64{rows[4].ID}, ids(last.Content))
}

func TestPaginatePastEndIsEmptyNotError(t *testing.T) {
	d := dbtest.Open(t)
	seed(t, d, "a")

	page, err := query.Paginate[db.Requester](context.Background(), d,
		query.PageRequest{Page: 4, Size: 10, SortBy: "created"}, sortable)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalElements)
	assert.Equal(t, 0, page.NumberOfElements)
	assert.Empty(t, page.Content)
}

func TestPaginateRejectsBadInput(t *testing.T) {
	d := dbtest.Open(t)
	ctx := context.Background()

	_, err := query.Paginate[db.Requester](ctx, d, query.PageRequest{Page: -1, Size: 1, SortBy: "created"}, sortable)
	assert.Equal(t, "pageNo:-1", err.Error())

	_, err = query.Paginate[db.Requester](ctx, d, query.PageRequest{Size: 0, SortBy: "created"}, sortable)
	assert.Equal(t, "pageSize:0", err.Error())

	huge := math.MaxInt/2 + 1
	_, err = query.Paginate[db.Requester](ctx, d, query.PageRequest{Page: huge, Size: 2, SortBy: "created"}, sortable)
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
	assert.Equal(t, fmt.Sprintf("pageNo:%d", huge), err.Error())

	_, err = query.Paginate[db.Requester](ctx, d, query.PageRequest{Size: 5, SortBy: "password; DROP TABLE requesters"}, sortable)
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "sortBy:")
}

func TestContainsIgnoresCaseAndEscapesWildcards(t *testing.T) {
	d := dbtest.Open(t)
	rows := seed(t, d, "Ada Lovelace", "ADA KING", "Grace Hopper", "100% Uptime", "under_score")
	ctx := context.Background()
	p := query.PageRequest{Size: 10, SortBy: "created", Direction: query.Ascending}

	page, err := query.Paginate[db.Requester](ctx, d, p, sortable, query.Contains("full_name", "ada"))
	require.NoError(t, err)
	assert.Equal(t, []int64{rows[0].ID, rows[1].ID}, ids(page.Content))

	page, err = query.Paginate[db.Requester](ctx, d, p, sortable, query.Contains("full_name", "%"))
	require.NoError(t, err)
	assert.Equal(t, []int64{rows[3].ID}, ids(page.Content))

	page, err = query.Paginate[db.Requester](ctx, d, p, sortable, query.Contains("full_name", "_"))
	require.NoError(t, err)
	assert.Equal(t, []int64{rows[4].ID}, ids(page.Content))
}

func TestWithinIsExclusive(t *testing.T) {
	d := dbtest.Open(t)
	rows := seed(t, d, "m0", "m1", "m2", "m3", "m4")
	ctx := context.Background()

	// Bounds sit exactly on rows 0 and 4, which must be excluded.
	w := query.Window{After: rows[0].Created, Before: rows[4].Created}
	page, err := query.Paginate[db.Requester](ctx, d,
		query.PageRequest{Size: 10, SortBy: "created", Direction: query.Ascending}, sortable,
		query.Within("created", w))
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalElements)
	assert.Equal(t, 3, page.NumberOfElements)
	assert.Equal(t, []int64{rows[1].ID, rows[2].ID, rows[3].ID}, ids(page.Content))
}

func TestScopesCombine(t *testing.T) {
	d := dbtest.Open(t)
	rows := seed(t, d, "Ada", "Ada", "Ada")
	require.NoError(t, d.Model(&rows[1]).Update("is_active", false).Error)

	page, err := query.Paginate[db.Requester](context.Background(), d,
		query.PageRequest{Size: 10, SortBy: "created", Direction: query.Descending}, sortable,
		query.Contains("full_name", "ada"),
		query.Equal("is_active", true),
		query.Within("created", query.Window{After: base.Add(-time.Hour), Before: base.Add(time.Hour)}))
	require.NoError(t, err)
	assert.Equal(t, []int64{rows[2].ID, rows[0].ID}, ids(page.Content))
}

func TestTerms(t *testing.T) {
	var empty query.Terms
	assert.Equal(t, "No data", empty.String())

	var terms query.Terms
	terms.Add("requesterId", 3)
	terms.AddWindow("created", query.Window{
		Before: time.UnixMilli(2000),
		After:  time.UnixMilli(1000),
	})
	terms.Add("isSolved", false)
	assert.Equal(t, "requesterId:3,createdBefore:2000,createdAfter:1000,isSolved:false", terms.String())
}
