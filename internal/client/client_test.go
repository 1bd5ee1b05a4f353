package client_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejzpr/helpdesk/internal/apperr"
	"github.com/tejzpr/helpdesk/internal/client"
	"github.com/tejzpr/helpdesk/internal/config"
	"github.com/tejzpr/helpdesk/internal/db/dbtest"
	"github.com/tejzpr/helpdesk/internal/manager"
	"github.com/tejzpr/helpdesk/internal/query"
	"github.com/tejzpr/helpdesk/internal/webserver"
	"github.com/tejzpr/helpdesk/internal/wire"
)

func newTestClient(t *testing.T) *client.Client {
	t.Helper()
	desk := manager.New(dbtest.Open(t), manager.NewBroker())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := httptest.NewServer(webserver.New(desk, config.Default(), log).Handler())
	t.Cleanup(ts.Close)
	return client.New(ts.URL+"/", client.WithPollInterval(10*time.Millisecond))
}

func saveRequester(t *testing.T, c *client.Client) wire.Requester {
	t.Helper()
	r, err := c.SaveRequester(context.Background(), wire.Requester{
		FullName: "Grace Hopper",
		Email:    uuid.NewString() + "@example.com",
	})
	require.NoError(t, err)
	return r
}

func TestPing(t *testing.T) {
	c := newTestClient(t)
	assert.NoError(t, c.Ping(context.Background()))

	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer other.Close()
	assert.ErrorIs(t, client.New(other.URL).Ping(context.Background()), client.ErrNotHelpdesk)

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	assert.Error(t, client.New(closed.URL).Ping(context.Background()))
}

func TestRequesterLifecycle(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	saved := saveRequester(t, c)
	assert.True(t, saved.IsActive)

	got, err := c.GetRequester(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, got)

	toggled, err := c.ToggleActivation(ctx, saved.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	inactive := false
	page, err := c.FindRequesters(ctx, &inactive, client.ListOptions{})
	require.NoError(t, err)
	require.Len(t, page.IssueRequesters, 1)
	assert.Equal(t, saved.ID, page.IssueRequesters[0].ID)

	page, err = c.FindRequestersByFullName(ctx, "grace", client.ListOptions{PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalElements)

	page, err = c.FindRequestersByEmail(ctx, saved.Email, client.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalElements)

	deleted, err := c.DeleteRequester(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, deleted.ID)

	_, err = c.GetRequester(ctx, saved.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestServerErrorsKeepKindAndMessage(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	saved := saveRequester(t, c)

	_, err := c.SaveRequester(ctx, wire.Requester{FullName: "Copy", Email: saved.Email})
	require.ErrorIs(t, err, apperr.ErrNotAcceptable)
	assert.Equal(t, "email:"+saved.Email+",isActive:true", err.Error())

	_, err = c.FindRequests(ctx, 0, nil, client.ListOptions{SortDir: "sideways"})
	require.ErrorIs(t, err, apperr.ErrBadRequest)
	assert.Equal(t, "sortDir:sideways", err.Error())

	_, err = c.FindResponsesByRequest(ctx, 77, client.ListOptions{})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "requestId:77", err.Error())
}

func TestRequestsAndResponses(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	requester := saveRequester(t, c)

	first, err := c.SaveRequest(ctx, wire.Request{RequesterID: requester.ID, Body: "printer jammed"})
	require.NoError(t, err)
	second, err := c.SaveRequest(ctx, wire.Request{RequesterID: requester.ID, Body: "vpn drops"})
	require.NoError(t, err)

	solved, err := c.SolveIssue(ctx, second.ID)
	require.NoError(t, err)
	require.NotNil(t, solved.Solved)

	open := false
	page, err := c.FindRequests(ctx, requester.ID, &open, client.ListOptions{})
	require.NoError(t, err)
	require.Len(t, page.IssueRequests, 1)
	assert.Equal(t, first.ID, page.IssueRequests[0].ID)

	at := wire.Time(*solved.Solved)
	page, err = c.FindSolvedBetween(ctx, query.Window{Before: at.Add(time.Millisecond), After: at.Add(-time.Millisecond)}, client.ListOptions{})
	require.NoError(t, err)
	require.Len(t, page.IssueRequests, 1)
	assert.Equal(t, second.ID, page.IssueRequests[0].ID)

	resp, err := c.SaveResponse(ctx, wire.Response{RequesterID: requester.ID, RequestID: first.ID, Body: "cleared the tray"})
	require.NoError(t, err)

	got, err := c.GetResponse(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp, got)

	responses, err := c.FindResponsesByRequester(ctx, requester.ID, client.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), responses.TotalElements)

	_, err = c.DeleteResponse(ctx, resp.ID)
	require.NoError(t, err)
	_, err = c.DeleteRequest(ctx, first.ID)
	require.NoError(t, err)
	_, err = c.GetRequest(ctx, first.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAwaitResponse(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c := newTestClient(t)
	requester := saveRequester(t, c)
	req, err := c.SaveRequest(ctx, wire.Request{RequesterID: requester.ID, Body: "need a monitor"})
	require.NoError(t, err)

	old, err := c.SaveResponse(ctx, wire.Response{RequesterID: requester.ID, RequestID: req.ID, Body: "old news"})
	require.NoError(t, err)
	since := wire.Time(old.Created)

	go func() {
		time.Sleep(30 * time.Millisecond)
		_, _ = c.SaveResponse(context.Background(), wire.Response{RequesterID: requester.ID, RequestID: req.ID, Body: "on its way"})
	}()

	got, err := c.AwaitResponse(ctx, req.ID, since)
	require.NoError(t, err)
	assert.Equal(t, "on its way", got.Body)
}

func TestAwaitResponseStops(t *testing.T) {
	c := newTestClient(t)

	_, err := c.AwaitResponse(context.Background(), 404, time.Now())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	requester := saveRequester(t, c)
	req, err := c.SaveRequest(context.Background(), wire.Request{RequesterID: requester.ID, Body: "anyone?"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.AwaitResponse(ctx, req.ID, time.Now())
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
