// Package manager implements the helpdesk query and mutation operations.
// Every error it returns is an *apperr.Error.
package manager

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tejzpr/helpdesk/internal/apperr"
	"github.com/tejzpr/helpdesk/internal/query"
	"github.com/tejzpr/helpdesk/internal/validation"
)

// Desk groups the per-entity managers over one database.
type Desk struct {
	Requesters *RequesterManager
	Requests   *RequestManager
	Responses  *ResponseManager
	Broker     *Broker
}

// New wires the managers. broker may be nil, in which case no events are
// published.
func New(database *gorm.DB, broker *Broker) *Desk {
	v := validation.New()
	requesters := &RequesterManager{db: database, validator: v}
	requests := &RequestManager{db: database, validator: v, broker: broker}
	responses := &ResponseManager{db: database, validator: v, broker: broker}
	return &Desk{
		Requesters: requesters,
		Requests:   requests,
		Responses:  responses,
		Broker:     broker,
	}
}

// first loads one row of T or fails with NotFound carrying notFound.
func first[T any](ctx context.Context, d *gorm.DB, notFound string, scopes ...query.Scope) (T, error) {
	var out T
	err := d.WithContext(ctx).Scopes(scopes...).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return out, apperr.NotFound("%s", notFound)
	}
	if err != nil {
		return out, apperr.Map(err)
	}
	return out, nil
}

// exists reports whether any row of T matches scopes.
func exists[T any](ctx context.Context, d *gorm.DB, scopes ...query.Scope) (bool, error) {
	var n int64
	if err := d.WithContext(ctx).Model(new(T)).Scopes(scopes...).Count(&n).Error; err != nil {
		return false, apperr.Map(err)
	}
	return n > 0, nil
}

// find runs a paged query and turns an empty result set into NotFound
// listing the filter terms.
func find[T any](ctx context.Context, d *gorm.DB, terms query.Terms, p query.PageRequest, sortable map[string]string, scopes ...query.Scope) (query.Page[T], error) {
	page, err := query.Paginate[T](ctx, d, p, sortable, scopes...)
	if err != nil {
		return page, apperr.Map(err)
	}
	if page.TotalElements == 0 {
		return page, apperr.NotFound("%s", terms.String())
	}
	return page, nil
}

func byID(id int64) query.Scope {
	return query.Equal("id", id)
}
