// Package handler exposes the helpdesk as MCP tools.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tejzpr/helpdesk/internal/apperr"
	"github.com/tejzpr/helpdesk/internal/wire"
)

const (
	defaultAwaitTimeout = 5 * time.Minute
	maxAwaitTimeout     = time.Hour
)

// Tools holds the MCP tool handlers for one backend.
type Tools struct {
	desk Helpdesk
	log  *slog.Logger
}

func NewTools(desk Helpdesk, log *slog.Logger) *Tools {
	return &Tools{desk: desk, log: log}
}

// Register adds every helpdesk tool to s.
func (t *Tools) Register(s *server.MCPServer) {
	s.AddTools(
		server.ServerTool{
			Tool: mcp.NewTool("file_issue_request",
				mcp.WithDescription("File a new issue request on behalf of an active requester. Returns the created request."),
				mcp.WithNumber("requester_id", mcp.Required(), mcp.Description("Id of the requester filing the issue")),
				mcp.WithString("body", mcp.Required(), mcp.Description("Description of the issue")),
			),
			Handler: t.FileIssueRequest,
		},
		server.ServerTool{
			Tool: mcp.NewTool("respond_to_issue",
				mcp.WithDescription("Post a response to an existing issue request."),
				mcp.WithNumber("request_id", mcp.Required(), mcp.Description("Id of the request being answered")),
				mcp.WithNumber("requester_id", mcp.Required(), mcp.Description("Id of the active requester writing the response")),
				mcp.WithString("body", mcp.Required(), mcp.Description("Text of the response")),
			),
			Handler: t.RespondToIssue,
		},
		server.ServerTool{
			Tool: mcp.NewTool("solve_issue",
				mcp.WithDescription("Mark an issue request solved. Solving it again moves the solved time forward."),
				mcp.WithNumber("request_id", mcp.Required(), mcp.Description("Id of the request to solve")),
				mcp.WithIdempotentHintAnnotation(true),
			),
			Handler: t.SolveIssue,
		},
		server.ServerTool{
			Tool: mcp.NewTool("get_issue_request",
				mcp.WithDescription("Fetch one issue request by id."),
				mcp.WithNumber("request_id", mcp.Required(), mcp.Description("Id of the request")),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: t.GetIssueRequest,
		},
		server.ServerTool{
			Tool: mcp.NewTool("list_issue_requests",
				mcp.WithDescription("List issue requests, newest first."),
				mcp.WithNumber("requester_id", mcp.Description("Only requests filed by this requester")),
				mcp.WithBoolean("is_solved", mcp.Description("Only solved (true) or open (false) requests")),
				mcp.WithNumber("page", mcp.Min(0), mcp.DefaultNumber(0), mcp.Description("Zero-based page index")),
				mcp.WithNumber("size", mcp.Min(1), mcp.DefaultNumber(defaultPageSize), mcp.Description("Page size")),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: t.ListIssueRequests,
		},
		server.ServerTool{
			Tool: mcp.NewTool("await_response",
				mcp.WithDescription("Wait until someone responds to an issue request and return that response."),
				mcp.WithNumber("request_id", mcp.Required(), mcp.Description("Id of the request to watch")),
				mcp.WithNumber("after", mcp.Description("Only count responses created after this epoch-millisecond time. Defaults to now.")),
				mcp.WithNumber("timeout_seconds", mcp.Min(1), mcp.Description("How long to wait. Defaults to 300, at most 3600.")),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: t.AwaitResponse,
		},
	)
}

func (t *Tools) FileIssueRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requesterID, err := request.RequireInt("requester_id")
	if err != nil {
		return mcp.NewToolResultError("requester_id is required"), nil
	}
	body, err := request.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError("body is required"), nil
	}
	t.log.Info("calling", "tool", "file_issue_request", "requesterId", requesterID)

	return t.result(t.desk.FileRequest(ctx, int64(requesterID), body))
}

func (t *Tools) RespondToIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requestID, err := request.RequireInt("request_id")
	if err != nil {
		return mcp.NewToolResultError("request_id is required"), nil
	}
	requesterID, err := request.RequireInt("requester_id")
	if err != nil {
		return mcp.NewToolResultError("requester_id is required"), nil
	}
	body, err := request.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError("body is required"), nil
	}
	t.log.Info("calling", "tool", "respond_to_issue", "requestId", requestID, "requesterId", requesterID)

	return t.result(t.desk.Respond(ctx, int64(requestID), int64(requesterID), body))
}

func (t *Tools) SolveIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requestID, err := request.RequireInt("request_id")
	if err != nil {
		return mcp.NewToolResultError("request_id is required"), nil
	}
	t.log.Info("calling", "tool", "solve_issue", "requestId", requestID)

	return t.result(t.desk.Solve(ctx, int64(requestID)))
}

func (t *Tools) GetIssueRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requestID, err := request.RequireInt("request_id")
	if err != nil {
		return mcp.NewToolResultError("request_id is required"), nil
	}
	t.log.Info("calling", "tool", "get_issue_request", "requestId", requestID)

	return t.result(t.desk.GetRequest(ctx, int64(requestID)))
}

func (t *Tools) ListIssueRequests(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := ListQuery{
		RequesterID: int64(request.GetInt("requester_id", 0)),
		PageNo:      request.GetInt("page", 0),
		PageSize:    request.GetInt("size", defaultPageSize),
	}
	if _, ok := request.GetArguments()["is_solved"]; ok {
		solved, err := request.RequireBool("is_solved")
		if err != nil {
			return mcp.NewToolResultError("is_solved must be a boolean"), nil
		}
		q.IsSolved = &solved
	}
	t.log.Info("calling", "tool", "list_issue_requests", "requesterId", q.RequesterID, "page", q.PageNo, "size", q.PageSize)

	return t.result(t.desk.ListRequests(ctx, q))
}

// AwaitResponse blocks until the request is answered, the timeout passes, or
// the client cancels the call.
func (t *Tools) AwaitResponse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requestID, err := request.RequireInt("request_id")
	if err != nil {
		return mcp.NewToolResultError("request_id is required"), nil
	}
	after := time.Now()
	if ms := request.GetInt("after", 0); ms > 0 {
		after = wire.Time(int64(ms))
	}
	timeout := defaultAwaitTimeout
	if s := request.GetInt("timeout_seconds", 0); s > 0 {
		timeout = min(time.Duration(s)*time.Second, maxAwaitTimeout)
	}
	t.log.Info("calling", "tool", "await_response", "requestId", requestID, "timeout", timeout.String())

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := t.desk.AwaitResponse(waitCtx, int64(requestID), after)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no response to request %d within %s", requestID, timeout)), nil
	}
	return t.result(resp, err)
}

// result reports caller mistakes inside the tool result and returns
// everything else as a call failure.
func (t *Tools) result(v any, err error) (*mcp.CallToolResult, error) {
	if err == nil {
		return mcp.NewToolResultJSON(v)
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Kind != apperr.KindInternal {
		return mcp.NewToolResultError(appErr.Kind.String() + ": " + appErr.Message), nil
	}
	t.log.Error("tool failed", "error", err.Error())
	return nil, err
}
