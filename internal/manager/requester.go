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

// RequesterSortable maps requester sort names to columns.
var RequesterSortable = map[string]string{
	"id":       "id",
	"fullName": "full_name",
	"email":    "email",
	"isActive": "is_active",
	"created":  "created",
}

// RequesterFilter selects requesters. Zero fields do not filter.
type RequesterFilter struct {
	FullName string
	Email    string
	IsActive *bool
	Created  *query.Window
}

func (f RequesterFilter) build() ([]query.Scope, query.Terms) {
	var scopes []query.Scope
	var terms query.Terms
	if f.FullName != "" {
		scopes = append(scopes, query.Contains("full_name", f.FullName))
		terms.Add("fullName", f.FullName)
	}
	if f.Email != "" {
		scopes = append(scopes, query.Contains("email", f.Email))
		terms.Add("email", f.Email)
	}
	if f.IsActive != nil {
		scopes = append(scopes, query.Equal("is_active", *f.IsActive))
		terms.Add("isActive", *f.IsActive)
	}
	if f.Created != nil {
		scopes = append(scopes, query.Within("created", *f.Created))
		terms.AddWindow("created", *f.Created)
	}
	return scopes, terms
}

type RequesterManager struct {
	db        *gorm.DB
	validator *validation.Validator
}

func (m *RequesterManager) FindByID(ctx context.Context, id int64) (db.Requester, error) {
	return first[db.Requester](ctx, m.db, fmt.Sprintf("requesterId:%d", id), byID(id))
}

// FindByIDAndActive loads a requester only if its activation flag matches.
func (m *RequesterManager) FindByIDAndActive(ctx context.Context, id int64, active bool) (db.Requester, error) {
	return first[db.Requester](ctx, m.db,
		fmt.Sprintf("requesterId:%d,isActive:%t", id, active),
		byID(id), query.Equal("is_active", active))
}

func (m *RequesterManager) Find(ctx context.Context, f RequesterFilter, p query.PageRequest) (query.Page[db.Requester], error) {
	scopes, terms := f.build()
	return find[db.Requester](ctx, m.db, terms, p, RequesterSortable, scopes...)
}

// IsActive reports whether requester id exists and is active.
func (m *RequesterManager) IsActive(ctx context.Context, id int64) (bool, error) {
	return exists[db.Requester](ctx, m.db, byID(id), query.Equal("is_active", true))
}

// Save inserts r when it has no id and otherwise replaces its name and
// e-mail. New requesters start active. An e-mail already held by another
// requester is not acceptable.
func (m *RequesterManager) Save(ctx context.Context, r db.Requester) (db.Requester, error) {
	if err := m.validator.Validate(&r); err != nil {
		return db.Requester{}, apperr.Map(err)
	}

	var saved db.Requester
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		insert := r.ID <= 0
		if insert {
			r.ID = 0
			r.IsActive = true
			r.Created = time.Time{}
		} else {
			found, err := exists[db.Requester](ctx, tx, byID(r.ID))
			if err != nil {
				return err
			}
			if !found {
				return apperr.NotFound("requesterId:%d", r.ID)
			}
		}

		taken, err := exists[db.Requester](ctx, tx, query.Equal("email", r.Email), func(q *gorm.DB) *gorm.DB {
			return q.Where("id <> ?", r.ID)
		})
		if err != nil {
			return err
		}
		if taken {
			if insert {
				return apperr.NotAcceptable("email:%s,isActive:%t", r.Email, r.IsActive)
			}
			return apperr.NotAcceptable("email:%s", r.Email)
		}

		if insert {
			if err := tx.Create(&r).Error; err != nil {
				return err
			}
			saved = r
			return nil
		}
		if err := tx.Model(&db.Requester{ID: r.ID}).Select("full_name", "email").Updates(&r).Error; err != nil {
			return err
		}
		return tx.First(&saved, r.ID).Error
	})
	if err != nil {
		return db.Requester{}, apperr.Map(err)
	}
	return saved, nil
}

// ToggleActivation flips the requester's active flag.
func (m *RequesterManager) ToggleActivation(ctx context.Context, id int64) (db.Requester, error) {
	r, err := m.FindByID(ctx, id)
	if err != nil {
		return db.Requester{}, err
	}
	if err := m.db.WithContext(ctx).Model(&r).Update("is_active", !r.IsActive).Error; err != nil {
		return db.Requester{}, apperr.Map(err)
	}
	r.IsActive = !r.IsActive
	return r, nil
}

// HardDelete removes the requester together with its requests, their
// responses and the responses it authored. It returns the deleted row.
func (m *RequesterManager) HardDelete(ctx context.Context, id int64) (db.Requester, error) {
	r, err := m.FindByID(ctx, id)
	if err != nil {
		return db.Requester{}, err
	}
	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&db.Request{}).Select("id").Where("requester_id = ?", id)
		if err := tx.Where("requester_id = ? OR request_id IN (?)", id, owned).Delete(&db.Response{}).Error; err != nil {
			return fmt.Errorf("delete responses: %w", err)
		}
		if err := tx.Where("requester_id = ?", id).Delete(&db.Request{}).Error; err != nil {
			return fmt.Errorf("delete requests: %w", err)
		}
		return tx.Delete(&db.Requester{}, id).Error
	})
	if err != nil {
		return db.Requester{}, apperr.Map(err)
	}
	return r, nil
}
