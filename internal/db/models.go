package db

import (
	"time"
)

// Requester is a person filing issue requests.
type Requester struct {
	ID       int64     `json:"id" gorm:"primaryKey"`
	FullName string    `json:"fullName" gorm:"column:full_name;size:255;not null" validate:"notblank,max=255"`
	Email    string    `json:"email" gorm:"size:320;not null;uniqueIndex" validate:"notblank,mailbox,max=320"`
	IsActive bool      `json:"isActive" gorm:"column:is_active;not null;index"`
	Created  time.Time `json:"created" gorm:"column:created;autoCreateTime;<-:create;index"`

	Requests  []Request  `json:"-" gorm:"foreignKey:RequesterID;constraint:OnDelete:RESTRICT"`
	Responses []Response `json:"-" gorm:"foreignKey:RequesterID;constraint:OnDelete:RESTRICT"`
}

// Request is an issue report. It is open until solved.
type Request struct {
	ID          int64      `json:"id" gorm:"primaryKey"`
	Body        string     `json:"body" gorm:"column:request_body;type:text;not null" validate:"notblank"`
	IsSolved    bool       `json:"isSolved" gorm:"column:is_solved;not null;index"`
	Created     time.Time  `json:"created" gorm:"column:created;autoCreateTime;<-:create;index"`
	Solved      *time.Time `json:"solved" gorm:"column:solved;index"`
	RequesterID int64      `json:"requesterId" gorm:"column:requester_id;not null;index" validate:"gt=0"`

	Responses []Response `json:"-" gorm:"foreignKey:RequestID;constraint:OnDelete:RESTRICT"`
}

// Response is a reply to a Request.
type Response struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Body        string    `json:"body" gorm:"column:response_body;type:text;not null" validate:"notblank"`
	Created     time.Time `json:"created" gorm:"column:created;autoCreateTime;<-:create;index"`
	RequesterID int64     `json:"requesterId" gorm:"column:requester_id;not null;index" validate:"gt=0"`
	RequestID   int64     `json:"requestId" gorm:"column:request_id;not null;index" validate:"gt=0"`
}

// Equal reports identity equality: both records carry the same assigned id.
func (r Requester) Equal(o Requester) bool { return r.ID > 0 && r.ID == o.ID }

// Equal reports identity equality: both records carry the same assigned id.
func (r Request) Equal(o Request) bool { return r.ID > 0 && r.ID == o.ID }

// Equal reports identity equality: both records carry the same assigned id.
func (r Response) Equal(o Response) bool { return r.ID > 0 && r.ID == o.ID }

// Open reports whether the request has not been solved yet.
func (r Request) Open() bool { return !r.IsSolved }

// Models lists every table in migration order.
func Models() []any {
	return []any{&Requester{}, &Request{}, &Response{}}
}
