package webserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tejzpr/helpdesk/internal/apperr"
	"github.com/tejzpr/helpdesk/internal/codec"
	"github.com/tejzpr/helpdesk/internal/query"
	"github.com/tejzpr/helpdesk/internal/wire"
)

func writeBody(w http.ResponseWriter, r *http.Request, status int, v any) {
	_ = codec.Write(w, r, status, v)
}

// writeError sends the failure's status and display message. Causes of
// internal failures are logged, never sent.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal(err)
	}
	status := apperr.HTTPStatus(appErr.Kind)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", fmt.Sprint(appErr.Cause),
		)
	}
	writeBody(w, r, status, wire.Error{Status: status, Error: appErr.Message})
}

func (s *Server) decode(r *http.Request, v any) error {
	if err := codec.Decode(r, v); err != nil {
		return apperr.BadRequest("malformed body: %v", err)
	}
	return nil
}

func pathInt(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.BadRequest("%s:%s", name, raw)
	}
	return n, nil
}

// pathRef reads a foreign key path parameter as a filter value. Any parsed
// id filters, zero and negative included.
func pathRef(r *http.Request, name string) (*int64, error) {
	n, err := pathInt(r, name)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// deref makes an optional id readable in logs.
func deref(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func parseBool(name, raw string) (bool, error) {
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.BadRequest("%s:%s", name, raw)
	}
	return b, nil
}

// queryBool returns nil when the parameter is absent or blank.
func queryBool(r *http.Request, name string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	b, err := parseBool(name, raw)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// queryWindow reads <prefix>Before and <prefix>After. A window needs both
// bounds; with either missing it returns nil and the query runs unwindowed.
func queryWindow(r *http.Request, prefix string) (*query.Window, error) {
	q := r.URL.Query()
	rawBefore := strings.TrimSpace(q.Get(prefix + "Before"))
	rawAfter := strings.TrimSpace(q.Get(prefix + "After"))
	if rawBefore == "" || rawAfter == "" {
		return nil, nil
	}
	before, err := strconv.ParseInt(rawBefore, 10, 64)
	if err != nil {
		return nil, apperr.BadRequest("%sBefore:%s", prefix, rawBefore)
	}
	after, err := strconv.ParseInt(rawAfter, 10, 64)
	if err != nil {
		return nil, apperr.BadRequest("%sAfter:%s", prefix, rawAfter)
	}
	return &query.Window{Before: wire.Time(before), After: wire.Time(after)}, nil
}

// pageRequest reads pageNo, pageSize, sortBy and sortDir. Page sizes above
// paging.max_size are clamped.
func (s *Server) pageRequest(r *http.Request, defaultSort string) (query.PageRequest, error) {
	q := r.URL.Query()
	p := query.PageRequest{Size: s.cfg.Paging.DefaultSize, SortBy: defaultSort, Direction: query.Descending}

	if raw := q.Get("pageNo"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, apperr.BadRequest("pageNo:%s", raw)
		}
		p.Page = n
	}
	if raw := q.Get("pageSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, apperr.BadRequest("pageSize:%s", raw)
		}
		p.Size = min(n, s.cfg.Paging.MaxSize)
	}
	if raw := q.Get("sortBy"); raw != "" {
		p.SortBy = raw
	}
	if raw := q.Get("sortDir"); raw != "" {
		d, err := query.ParseDirection(raw)
		if err != nil {
			return p, err
		}
		p.Direction = d
	}
	return p, nil
}
