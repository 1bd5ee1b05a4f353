// Package wire holds the messages exchanged over HTTP. Timestamps travel as
// epoch milliseconds.
package wire

import (
	"time"

	"github.com/tejzpr/helpdesk/internal/db"
	"github.com/tejzpr/helpdesk/internal/query"
)

type Requester struct {
	ID       int64  `cbor:"id" json:"id"`
	FullName string `cbor:"fullName" json:"fullName"`
	Email    string `cbor:"email" json:"email"`
	IsActive bool   `cbor:"isActive" json:"isActive"`
	Created  int64  `cbor:"created" json:"created"`
}

type Request struct {
	ID          int64  `cbor:"id" json:"id"`
	RequesterID int64  `cbor:"requesterId" json:"requesterId"`
	Body        string `cbor:"body" json:"body"`
	IsSolved    bool   `cbor:"isSolved" json:"isSolved"`
	Created     int64  `cbor:"created" json:"created"`
	Solved      *int64 `cbor:"solved" json:"solved"`
}

type Response struct {
	ID          int64  `cbor:"id" json:"id"`
	RequesterID int64  `cbor:"requesterId" json:"requesterId"`
	RequestID   int64  `cbor:"requestId" json:"requestId"`
	Body        string `cbor:"body" json:"body"`
	Created     int64  `cbor:"created" json:"created"`
}

// HealthOK is the status reported by GET /health. Clients use it to tell a
// helpdesk server apart from whatever else holds the port.
const HealthOK = "helpdesk-ok"

// Paged carries the page counters shared by every paged message.
type Paged struct {
	TotalElements    int64 `cbor:"totalElements" json:"totalElements"`
	TotalPages       int   `cbor:"totalPages" json:"totalPages"`
	NumberOfElements int   `cbor:"numberOfElements" json:"numberOfElements"`
}

type PagedRequesters struct {
	Paged
	IssueRequesters []Requester `cbor:"issueRequesters" json:"issueRequesters"`
}

type PagedRequests struct {
	Paged
	IssueRequests []Request `cbor:"issueRequests" json:"issueRequests"`
}

type PagedResponses struct {
	Paged
	IssueResponses []Response `cbor:"issueResponses" json:"issueResponses"`
}

// Error is the body of every failed call.
type Error struct {
	Status int    `cbor:"status" json:"status"`
	Error  string `cbor:"error" json:"error"`
}

// Millis converts t to epoch milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// Time converts epoch milliseconds to a UTC time.
func Time(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func FromRequester(r db.Requester) Requester {
	return Requester{
		ID:       r.ID,
		FullName: r.FullName,
		Email:    r.Email,
		IsActive: r.IsActive,
		Created:  Millis(r.Created),
	}
}

func (m Requester) Record() db.Requester {
	r := db.Requester{
		ID:       m.ID,
		FullName: m.FullName,
		Email:    m.Email,
		IsActive: m.IsActive,
	}
	if m.Created != 0 {
		r.Created = Time(m.Created)
	}
	return r
}

func FromRequest(r db.Request) Request {
	m := Request{
		ID:          r.ID,
		RequesterID: r.RequesterID,
		Body:        r.Body,
		IsSolved:    r.IsSolved,
		Created:     Millis(r.Created),
	}
	if r.Solved != nil {
		ms := Millis(*r.Solved)
		m.Solved = &ms
	}
	return m
}

func (m Request) Record() db.Request {
	r := db.Request{
		ID:          m.ID,
		RequesterID: m.RequesterID,
		Body:        m.Body,
		IsSolved:    m.IsSolved,
	}
	if m.Created != 0 {
		r.Created = Time(m.Created)
	}
	if m.Solved != nil {
		t := Time(*m.Solved)
		r.Solved = &t
	}
	return r
}

func FromResponse(r db.Response) Response {
	return Response{
		ID:          r.ID,
		RequesterID: r.RequesterID,
		RequestID:   r.RequestID,
		Body:        r.Body,
		Created:     Millis(r.Created),
	}
}

func (m Response) Record() db.Response {
	r := db.Response{
		ID:          m.ID,
		RequesterID: m.RequesterID,
		RequestID:   m.RequestID,
		Body:        m.Body,
	}
	if m.Created != 0 {
		r.Created = Time(m.Created)
	}
	return r
}

func paged[T any](p query.Page[T]) Paged {
	return Paged{
		TotalElements:    p.TotalElements,
		TotalPages:       p.TotalPages,
		NumberOfElements: p.NumberOfElements,
	}
}

func RequesterPage(p query.Page[db.Requester]) PagedRequesters {
	out := PagedRequesters{Paged: paged(p), IssueRequesters: make([]Requester, 0, len(p.Content))}
	for _, r := range p.Content {
		out.IssueRequesters = append(out.IssueRequesters, FromRequester(r))
	}
	return out
}

func RequestPage(p query.Page[db.Request]) PagedRequests {
	out := PagedRequests{Paged: paged(p), IssueRequests: make([]Request, 0, len(p.Content))}
	for _, r := range p.Content {
		out.IssueRequests = append(out.IssueRequests, FromRequest(r))
	}
	return out
}

func ResponsePage(p query.Page[db.Response]) PagedResponses {
	out := PagedResponses{Paged: paged(p), IssueResponses: make([]Response, 0, len(p.Content))}
	for _, r := range p.Content {
		out.IssueResponses = append(out.IssueResponses, FromResponse(r))
	}
	return out
}
