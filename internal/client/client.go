// Package client talks to a running helpdesk server over HTTP. Bodies travel
// as CBOR; failures come back as *apperr.Error values carrying the server's
// message.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tejzpr/helpdesk/internal/apperr"
	"github.com/tejzpr/helpdesk/internal/codec"
	"github.com/tejzpr/helpdesk/internal/query"
	"github.com/tejzpr/helpdesk/internal/wire"
)

// ErrNotHelpdesk is returned by Ping when something other than a helpdesk
// server answers at the base URL.
var ErrNotHelpdesk = errors.New("not a helpdesk server")

// Client is safe for concurrent use.
type Client struct {
	baseURL      string
	http         *http.Client
	pollInterval time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithPollInterval sets how often AwaitResponse asks the server.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// New returns a client for the server at baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{Timeout: 10 * time.Second},
		pollInterval: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address the client was built for.
func (c *Client) BaseURL() string { return c.baseURL }

// ListOptions narrows a find_all call. Zero values are left to the server
// defaults.
type ListOptions struct {
	PageNo   int
	PageSize int
	SortBy   string
	SortDir  string
	Created  *query.Window
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	if o.PageNo > 0 {
		v.Set("pageNo", strconv.Itoa(o.PageNo))
	}
	if o.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(o.PageSize))
	}
	if o.SortBy != "" {
		v.Set("sortBy", o.SortBy)
	}
	if o.SortDir != "" {
		v.Set("sortDir", o.SortDir)
	}
	if o.Created != nil {
		setWindow(v, "created", *o.Created)
	}
	return v
}

func setWindow(v url.Values, prefix string, w query.Window) {
	v.Set(prefix+"Before", strconv.FormatInt(wire.Millis(w.Before), 10))
	v.Set(prefix+"After", strconv.FormatInt(wire.Millis(w.After), 10))
}

func setBool(v url.Values, name string, b *bool) {
	if b != nil {
		v.Set(name, strconv.FormatBool(*b))
	}
}

func withQuery(path string, v url.Values) string {
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := codec.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", codec.ContentTypeCBOR)
	if in != nil {
		req.Header.Set("Content-Type", codec.ContentTypeCBOR)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach helpdesk server: %w", err)
	}
	defer resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	if resp.StatusCode != http.StatusOK {
		var e wire.Error
		if err := codec.DecodeBody(resp.Body, ct, &e); err != nil || e.Error == "" {
			return apperr.FromStatus(resp.StatusCode, fmt.Sprintf("helpdesk server returned status %d", resp.StatusCode))
		}
		return apperr.FromStatus(resp.StatusCode, e.Error)
	}
	if out == nil {
		return nil
	}
	if err := codec.DecodeBody(resp.Body, ct, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Ping reports whether a helpdesk server is answering at the base URL.
func (c *Client) Ping(ctx context.Context) error {
	var health struct {
		Status string `cbor:"status" json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &health); err != nil {
		return err
	}
	if health.Status != wire.HealthOK {
		return ErrNotHelpdesk
	}
	return nil
}

// Requesters

func (c *Client) SaveRequester(ctx context.Context, r wire.Requester) (wire.Requester, error) {
	var out wire.Requester
	err := c.do(ctx, http.MethodPost, "/v1/issue_requesters/save", r, &out)
	return out, err
}

func (c *Client) GetRequester(ctx context.Context, id int64) (wire.Requester, error) {
	var out wire.Requester
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/issue_requesters/%d", id), nil, &out)
	return out, err
}

func (c *Client) ToggleActivation(ctx context.Context, id int64) (wire.Requester, error) {
	var out wire.Requester
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/v1/issue_requesters/toggle_activation/%d", id), nil, &out)
	return out, err
}

func (c *Client) DeleteRequester(ctx context.Context, id int64) (wire.Requester, error) {
	var out wire.Requester
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/issue_requesters/delete/%d", id), nil, &out)
	return out, err
}

// FindRequesters lists requesters, optionally only active or inactive ones.
func (c *Client) FindRequesters(ctx context.Context, isActive *bool, opts ListOptions) (wire.PagedRequesters, error) {
	v := opts.values()
	setBool(v, "isActive", isActive)
	var out wire.PagedRequesters
	err := c.do(ctx, http.MethodGet, withQuery("/v1/issue_requesters/find_all", v), nil, &out)
	return out, err
}

func (c *Client) FindRequestersByFullName(ctx context.Context, fullName string, opts ListOptions) (wire.PagedRequesters, error) {
	var out wire.PagedRequesters
	path := "/v1/issue_requesters/find_all_by_full_name/" + url.PathEscape(fullName)
	err := c.do(ctx, http.MethodGet, withQuery(path, opts.values()), nil, &out)
	return out, err
}

func (c *Client) FindRequestersByEmail(ctx context.Context, email string, opts ListOptions) (wire.PagedRequesters, error) {
	var out wire.PagedRequesters
	path := "/v1/issue_requesters/find_all_by_email/" + url.PathEscape(email)
	err := c.do(ctx, http.MethodGet, withQuery(path, opts.values()), nil, &out)
	return out, err
}

// Requests

func (c *Client) SaveRequest(ctx context.Context, r wire.Request) (wire.Request, error) {
	var out wire.Request
	err := c.do(ctx, http.MethodPost, "/v1/issue_requests/save", r, &out)
	return out, err
}

func (c *Client) GetRequest(ctx context.Context, id int64) (wire.Request, error) {
	var out wire.Request
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/issue_requests/%d", id), nil, &out)
	return out, err
}

func (c *Client) SolveIssue(ctx context.Context, id int64) (wire.Request, error) {
	var out wire.Request
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/v1/issue_requests/solve/%d", id), nil, &out)
	return out, err
}

func (c *Client) DeleteRequest(ctx context.Context, id int64) (wire.Request, error) {
	var out wire.Request
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/issue_requests/delete/%d", id), nil, &out)
	return out, err
}

// FindRequests lists requests. A requesterID of zero lists every
// requester's requests.
func (c *Client) FindRequests(ctx context.Context, requesterID int64, isSolved *bool, opts ListOptions) (wire.PagedRequests, error) {
	path := "/v1/issue_requests/find_all"
	if requesterID != 0 {
		path = fmt.Sprintf("%s/%d", path, requesterID)
	}
	v := opts.values()
	setBool(v, "isSolved", isSolved)
	var out wire.PagedRequests
	err := c.do(ctx, http.MethodGet, withQuery(path, v), nil, &out)
	return out, err
}

// FindSolvedBetween lists requests solved inside w.
func (c *Client) FindSolvedBetween(ctx context.Context, w query.Window, opts ListOptions) (wire.PagedRequests, error) {
	v := opts.values()
	setWindow(v, "solved", w)
	var out wire.PagedRequests
	err := c.do(ctx, http.MethodGet, withQuery("/v1/issue_requests/find_all_solved", v), nil, &out)
	return out, err
}

// Responses

func (c *Client) SaveResponse(ctx context.Context, r wire.Response) (wire.Response, error) {
	var out wire.Response
	err := c.do(ctx, http.MethodPost, "/v1/issue_responses/save", r, &out)
	return out, err
}

func (c *Client) GetResponse(ctx context.Context, id int64) (wire.Response, error) {
	var out wire.Response
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/issue_responses/%d", id), nil, &out)
	return out, err
}

func (c *Client) DeleteResponse(ctx context.Context, id int64) (wire.Response, error) {
	var out wire.Response
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/issue_responses/delete/%d", id), nil, &out)
	return out, err
}

func (c *Client) FindResponsesByRequest(ctx context.Context, requestID int64, opts ListOptions) (wire.PagedResponses, error) {
	var out wire.PagedResponses
	path := fmt.Sprintf("/v1/issue_responses/find_all_by_request/%d", requestID)
	err := c.do(ctx, http.MethodGet, withQuery(path, opts.values()), nil, &out)
	return out, err
}

func (c *Client) FindResponsesByRequester(ctx context.Context, requesterID int64, opts ListOptions) (wire.PagedResponses, error) {
	var out wire.PagedResponses
	path := fmt.Sprintf("/v1/issue_responses/find_all_by_requester/%d", requesterID)
	err := c.do(ctx, http.MethodGet, withQuery(path, opts.values()), nil, &out)
	return out, err
}

// AwaitResponse polls the server until a response created after the given
// time is posted to the request, or ctx is done. It returns the earliest
// such response.
func (c *Client) AwaitResponse(ctx context.Context, requestID int64, after time.Time) (wire.Response, error) {
	if _, err := c.GetRequest(ctx, requestID); err != nil {
		return wire.Response{}, err
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return wire.Response{}, ctx.Err()
		case <-ticker.C:
			opts := ListOptions{
				PageSize: 1,
				SortBy:   "created",
				SortDir:  "asc",
				Created:  &query.Window{Before: time.Now().Add(time.Minute), After: after},
			}
			page, err := c.FindResponsesByRequest(ctx, requestID, opts)
			if err != nil {
				var appErr *apperr.Error
				if errors.As(err, &appErr) && appErr.Kind != apperr.KindNotFound {
					return wire.Response{}, err
				}
				continue // nothing yet, or a transient transport error
			}
			if len(page.IssueResponses) > 0 {
				return page.IssueResponses[0], nil
			}
		}
	}
}
