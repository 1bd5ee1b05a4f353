package manager

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tejzpr/helpdesk/internal/apperr"
	"github.com/tejzpr/helpdesk/internal/db"
	"github.com/tejzpr/helpdesk/internal/query"
	"github.com/tejzpr/helpdesk/internal/validation"
)

// ResponseSortable maps response sort names to columns.
var ResponseSortable = map[string]string{
	"id":          "id",
	"body":        "response_body",
	"created":     "created",
	"requesterId": "requester_id",
	"requestId":   "request_id",
}

// ResponseFilter selects responses. Nil fields do not filter.
type ResponseFilter struct {
	RequesterID *int64
	RequestID   *int64
	Created     *query.Window
}

func (f ResponseFilter) build() ([]query.Scope, query.Terms) {
	var scopes []query.Scope
	var terms query.Terms
	if f.RequesterID != nil {
		scopes = append(scopes, query.Equal("requester_id", *f.RequesterID))
		terms.Add("requesterId", *f.RequesterID)
	}
	if f.RequestID != nil {
		scopes = append(scopes, query.Equal("request_id", *f.RequestID))
		terms.Add("requestId", *f.RequestID)
	}
	if f.Created != nil {
		scopes = append(scopes, query.Within("created", *f.Created))
		terms.AddWindow("created", *f.Created)
	}
	return scopes, terms
}

type ResponseManager struct {
	db        *gorm.DB
	validator *validation.Validator
	broker    *Broker
}

func (m *ResponseManager) FindByID(ctx context.Context, id int64) (db.Response, error) {
	return first[db.Response](ctx, m.db, fmt.Sprintf("responseId:%d", id), byID(id))
}

func (m *ResponseManager) Find(ctx context.Context, f ResponseFilter, p query.PageRequest) (query.Page[db.Response], error) {
	scopes, terms := f.build()
	return find[db.Response](ctx, m.db, terms, p, ResponseSortable, scopes...)
}

// Save posts a new response when r has no id and otherwise replaces its
// body and references. The requester must be active and the request must
// exist.
func (m *ResponseManager) Save(ctx context.Context, r db.Response) (db.Response, error) {
	if err := m.validator.Validate(&r); err != nil {
		return db.Response{}, apperr.Map(err)
	}

	insert := r.ID <= 0
	var saved db.Response
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !insert {
			found, err := exists[db.Response](ctx, tx, byID(r.ID))
			if err != nil {
				return err
			}
			if !found {
				return apperr.NotFound("responseId:%d", r.ID)
			}
		}
		if err := requireActiveRequester(ctx, tx, r.RequesterID); err != nil {
			return err
		}
		found, err := exists[db.Request](ctx, tx, byID(r.RequestID))
		if err != nil {
			return err
		}
		if !found {
			return apperr.NotAcceptable("requestId:%d", r.RequestID)
		}

		if insert {
			r.ID = 0
			r.Created = time.Time{}
			if err := tx.Create(&r).Error; err != nil {
				return err
			}
			saved = r
			return nil
		}

		if err := tx.Model(&db.Response{ID: r.ID}).Select("response_body", "requester_id", "request_id").Updates(&r).Error; err != nil {
			return err
		}
		return tx.First(&saved, r.ID).Error
	})
	if err != nil {
		return db.Response{}, apperr.Map(err)
	}

	if insert {
		m.broker.Publish(Event{
			Type:        EventResponsePosted,
			RequestID:   saved.RequestID,
			RequesterID: saved.RequesterID,
			ResponseID:  saved.ID,
			At:          saved.Created,
		})
	}
	return saved, nil
}

// HardDelete removes the response and returns the deleted row.
func (m *ResponseManager) HardDelete(ctx context.Context, id int64) (db.Response, error) {
	r, err := m.FindByID(ctx, id)
	if err != nil {
		return db.Response{}, err
	}
	if err := m.db.WithContext(ctx).Delete(&db.Response{}, id).Error; err != nil {
		return db.Response{}, apperr.Map(err)
	}
	return r, nil
}
