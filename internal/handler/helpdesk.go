package handler

import (
	"context"
	"errors"
	"time"

	"github.com/tejzpr/helpdesk/internal/apperr"
	"github.com/tejzpr/helpdesk/internal/client"
	"github.com/tejzpr/helpdesk/internal/db"
	"github.com/tejzpr/helpdesk/internal/manager"
	"github.com/tejzpr/helpdesk/internal/query"
	"github.com/tejzpr/helpdesk/internal/wire"
)

// Helpdesk is the backend behind the MCP tools: either the in-process
// managers or a remote helpdesk server.
type Helpdesk interface {
	FileRequest(ctx context.Context, requesterID int64, body string) (wire.Request, error)
	Respond(ctx context.Context, requestID, requesterID int64, body string) (wire.Response, error)
	Solve(ctx context.Context, requestID int64) (wire.Request, error)
	GetRequest(ctx context.Context, requestID int64) (wire.Request, error)
	ListRequests(ctx context.Context, q ListQuery) (wire.PagedRequests, error)
	// AwaitResponse blocks until a response created after the given time is
	// posted to the request, and returns the earliest one.
	AwaitResponse(ctx context.Context, requestID int64, after time.Time) (wire.Response, error)
}

// defaultPageSize matches the HTTP server's paging.default_size default.
const defaultPageSize = 10

// ListQuery selects requests, newest first. A zero RequesterID means any
// requester.
type ListQuery struct {
	RequesterID int64
	IsSolved    *bool
	PageNo      int
	PageSize    int
}

// Local runs tools against the process's own database.
type Local struct {
	desk *manager.Desk
	// pollInterval re-checks the store while awaiting a response, in case
	// the broker dropped the event.
	pollInterval time.Duration
}

func NewLocal(desk *manager.Desk) *Local {
	return &Local{desk: desk, pollInterval: time.Second}
}

func (l *Local) FileRequest(ctx context.Context, requesterID int64, body string) (wire.Request, error) {
	r, err := l.desk.Requests.Save(ctx, db.Request{RequesterID: requesterID, Body: body})
	if err != nil {
		return wire.Request{}, err
	}
	return wire.FromRequest(r), nil
}

func (l *Local) Respond(ctx context.Context, requestID, requesterID int64, body string) (wire.Response, error) {
	r, err := l.desk.Responses.Save(ctx, db.Response{RequestID: requestID, RequesterID: requesterID, Body: body})
	if err != nil {
		return wire.Response{}, err
	}
	return wire.FromResponse(r), nil
}

func (l *Local) Solve(ctx context.Context, requestID int64) (wire.Request, error) {
	r, err := l.desk.Requests.SolveIssue(ctx, requestID)
	if err != nil {
		return wire.Request{}, err
	}
	return wire.FromRequest(r), nil
}

func (l *Local) GetRequest(ctx context.Context, requestID int64) (wire.Request, error) {
	r, err := l.desk.Requests.FindByID(ctx, requestID)
	if err != nil {
		return wire.Request{}, err
	}
	return wire.FromRequest(r), nil
}

func (l *Local) ListRequests(ctx context.Context, q ListQuery) (wire.PagedRequests, error) {
	if q.PageSize == 0 {
		q.PageSize = defaultPageSize
	}
	f := manager.RequestFilter{IsSolved: q.IsSolved}
	if q.RequesterID != 0 {
		f.RequesterID = &q.RequesterID
	}
	p := query.PageRequest{Page: q.PageNo, Size: q.PageSize, SortBy: "created", Direction: query.Descending}
	page, err := l.desk.Requests.Find(ctx, f, p)
	if err != nil {
		return wire.PagedRequests{}, err
	}
	return wire.RequestPage(page), nil
}

func (l *Local) AwaitResponse(ctx context.Context, requestID int64, after time.Time) (wire.Response, error) {
	if _, err := l.desk.Requests.FindByID(ctx, requestID); err != nil {
		return wire.Response{}, err
	}
	if l.desk.Broker == nil {
		return wire.Response{}, errors.New("event broker disabled")
	}

	ch := l.desk.Broker.Subscribe()
	defer l.desk.Broker.Unsubscribe(ch)

	// A response may have been posted before the subscription started.
	if r, ok, err := l.earliestAfter(ctx, requestID, after); err != nil || ok {
		return r, err
	}

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return wire.Response{}, ctx.Err()
		case <-ticker.C:
			if r, ok, err := l.earliestAfter(ctx, requestID, after); err != nil || ok {
				return r, err
			}
		case ev, ok := <-ch:
			if !ok {
				return wire.Response{}, errors.New("event stream closed")
			}
			if ev.Type != manager.EventResponsePosted || ev.RequestID != requestID {
				continue
			}
			r, err := l.desk.Responses.FindByID(ctx, ev.ResponseID)
			if err != nil {
				return wire.Response{}, err
			}
			if r.Created.After(after) {
				return wire.FromResponse(r), nil
			}
		}
	}
}

func (l *Local) earliestAfter(ctx context.Context, requestID int64, after time.Time) (wire.Response, bool, error) {
	f := manager.ResponseFilter{
		RequestID: &requestID,
		Created:   &query.Window{Before: time.Now().Add(time.Minute), After: after},
	}
	page, err := l.desk.Responses.Find(ctx, f, query.PageRequest{Size: 1, SortBy: "created", Direction: query.Ascending})
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return wire.Response{}, false, nil
		}
		return wire.Response{}, false, err
	}
	if len(page.Content) == 0 {
		return wire.Response{}, false, nil
	}
	return wire.FromResponse(page.Content[0]), true, nil
}

// Remote forwards tools to a helpdesk server over HTTP.
type Remote struct {
	c *client.Client
}

func NewRemote(c *client.Client) *Remote {
	return &Remote{c: c}
}

func (r *Remote) FileRequest(ctx context.Context, requesterID int64, body string) (wire.Request, error) {
	return r.c.SaveRequest(ctx, wire.Request{RequesterID: requesterID, Body: body})
}

func (r *Remote) Respond(ctx context.Context, requestID, requesterID int64, body string) (wire.Response, error) {
	return r.c.SaveResponse(ctx, wire.Response{RequestID: requestID, RequesterID: requesterID, Body: body})
}

func (r *Remote) Solve(ctx context.Context, requestID int64) (wire.Request, error) {
	return r.c.SolveIssue(ctx, requestID)
}

func (r *Remote) GetRequest(ctx context.Context, requestID int64) (wire.Request, error) {
	return r.c.GetRequest(ctx, requestID)
}

func (r *Remote) ListRequests(ctx context.Context, q ListQuery) (wire.PagedRequests, error) {
	return r.c.FindRequests(ctx, q.RequesterID, q.IsSolved, client.ListOptions{PageNo: q.PageNo, PageSize: q.PageSize})
}

func (r *Remote) AwaitResponse(ctx context.Context, requestID int64, after time.Time) (wire.Response, error) {
	return r.c.AwaitResponse(ctx, requestID, after)
}
