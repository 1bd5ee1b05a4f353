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

// RequestSortable maps request sort names to columns.
var RequestSortable = map[string]string{
	"id":          "id",
	"body":        "request_body",
	"isSolved":    "is_solved",
	"created":     "created",
	"solved":      "solved",
	"requesterId": "requester_id",
}

// RequestFilter selects requests. Nil fields do not filter.
type RequestFilter struct {
	RequesterID *int64
	Created     *query.Window
	IsSolved    *bool
	Solved      *query.Window
}

func (f RequestFilter) build() ([]query.Scope, query.Terms) {
	var scopes []query.Scope
	var terms query.Terms
	if f.RequesterID != nil {
		scopes = append(scopes, query.Equal("requester_id", *f.RequesterID))
		terms.Add("requesterId", *f.RequesterID)
	}
	if f.Created != nil {
		scopes = append(scopes, query.Within("created", *f.Created))
		terms.AddWindow("created", *f.Created)
	}
	if f.IsSolved != nil {
		scopes = append(scopes, query.Equal("is_solved", *f.IsSolved))
		terms.Add("isSolved", *f.IsSolved)
	}
	if f.Solved != nil {
		scopes = append(scopes, query.Within("solved", *f.Solved))
		terms.AddWindow("solved", *f.Solved)
	}
	return scopes, terms
}

type RequestManager struct {
	db        *gorm.DB
	validator *validation.Validator
	broker    *Broker
}

func (m *RequestManager) FindByID(ctx context.Context, id int64) (db.Request, error) {
	return first[db.Request](ctx, m.db, fmt.Sprintf("requestId:%d", id), byID(id))
}

// FindByIDAndSolved loads a request only if its solved flag matches.
func (m *RequestManager) FindByIDAndSolved(ctx context.Context, id int64, solved bool) (db.Request, error) {
	return first[db.Request](ctx, m.db,
		fmt.Sprintf("requestId:%d,isSolved:%t", id, solved),
		byID(id), query.Equal("is_solved", solved))
}

func (m *RequestManager) Find(ctx context.Context, f RequestFilter, p query.PageRequest) (query.Page[db.Request], error) {
	scopes, terms := f.build()
	return find[db.Request](ctx, m.db, terms, p, RequestSortable, scopes...)
}

// Exists reports whether request id exists.
func (m *RequestManager) Exists(ctx context.Context, id int64) (bool, error) {
	return exists[db.Request](ctx, m.db, byID(id))
}

// Save files a new request when r has no id and otherwise replaces its body
// and requester. The requester must exist and be active either way. New
// requests start open.
func (m *RequestManager) Save(ctx context.Context, r db.Request) (db.Request, error) {
	if err := m.validator.Validate(&r); err != nil {
		return db.Request{}, apperr.Map(err)
	}

	insert := r.ID <= 0
	var saved db.Request
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !insert {
			found, err := exists[db.Request](ctx, tx, byID(r.ID))
			if err != nil {
				return err
			}
			if !found {
				return apperr.NotFound("requestId:%d", r.ID)
			}
		}
		if err := requireActiveRequester(ctx, tx, r.RequesterID); err != nil {
			return err
		}

		if insert {
			r.ID = 0
			r.IsSolved = false
			r.Solved = nil
			r.Created = time.Time{}
			if err := tx.Create(&r).Error; err != nil {
				return err
			}
			saved = r
			return nil
		}

		if err := tx.Model(&db.Request{ID: r.ID}).Select("request_body", "requester_id").Updates(&r).Error; err != nil {
			return err
		}
		return tx.First(&saved, r.ID).Error
	})
	if err != nil {
		return db.Request{}, apperr.Map(err)
	}

	if insert {
		m.broker.Publish(Event{Type: EventRequestFiled, RequestID: saved.ID, RequesterID: saved.RequesterID, At: saved.Created})
	}
	return saved, nil
}

// SolveIssue marks the request solved now. Solving an already solved
// request moves its solved time forward.
func (m *RequestManager) SolveIssue(ctx context.Context, id int64) (db.Request, error) {
	r, err := m.FindByID(ctx, id)
	if err != nil {
		return db.Request{}, err
	}

	// A re-solve always lands strictly after the stored millisecond.
	now := m.db.NowFunc()
	if r.Solved != nil && !now.After(*r.Solved) {
		now = r.Solved.Add(time.Millisecond)
	}
	err = m.db.WithContext(ctx).Model(&db.Request{ID: id}).
		Select("is_solved", "solved").
		Updates(db.Request{IsSolved: true, Solved: &now}).Error
	if err != nil {
		return db.Request{}, apperr.Map(err)
	}
	r.IsSolved = true
	r.Solved = &now

	m.broker.Publish(Event{Type: EventRequestSolved, RequestID: r.ID, RequesterID: r.RequesterID, At: now})
	return r, nil
}

// HardDelete removes the request and its responses and returns the deleted
// row.
func (m *RequestManager) HardDelete(ctx context.Context, id int64) (db.Request, error) {
	r, err := m.FindByID(ctx, id)
	if err != nil {
		return db.Request{}, err
	}
	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("request_id = ?", id).Delete(&db.Response{}).Error; err != nil {
			return fmt.Errorf("delete responses: %w", err)
		}
		return tx.Delete(&db.Request{}, id).Error
	})
	if err != nil {
		return db.Request{}, apperr.Map(err)
	}
	return r, nil
}

func requireActiveRequester(ctx context.Context, tx *gorm.DB, requesterID int64) error {
	active, err := exists[db.Requester](ctx, tx, byID(requesterID), query.Equal("is_active", true))
	if err != nil {
		return err
	}
	if !active {
		return apperr.NotAcceptable("requesterId:%d,isActive:true", requesterID)
	}
	return nil
}
