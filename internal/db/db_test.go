package db

import (
	"strings"
	"testing"
	"time"

	"github.com/tejzpr/helpdesk/internal/config"
)

func TestCreateAndFetchRequest(t *testing.T) {
	setupTestDB(t)
	requester := seedRequester(t, "ada@example.com")

	req := Request{
		Body:        "Printer on fire",
		RequesterID: requester.ID,
	}
	if err := instance.Create(&req).Error; err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if req.ID == 0 {
		t.Fatal("expected non-zero ID after create")
	}
	if req.Created.IsZero() {
		t.Fatal("expected created to be assigned on insert")
	}

	var fetched Request
	if err := instance.First(&fetched, req.ID).Error; err != nil {
		t.Fatalf("failed to fetch request: %v", err)
	}
	if fetched.Body != "Printer on fire" {
		t.Errorf("expected body 'Printer on fire', got %q", fetched.Body)
	}
	if fetched.IsSolved {
		t.Error("expected new request to be open")
	}
	if fetched.Solved != nil {
		t.Errorf("expected solved to be nil, got %v", fetched.Solved)
	}
	if !fetched.Created.Equal(req.Created) {
		t.Errorf("expected created %v, got %v", req.Created, fetched.Created)
	}
}

func TestCreatedIsNotUpdated(t *testing.T) {
	setupTestDB(t)
	requester := seedRequester(t, "grace@example.com")
	original := requester.Created

	time.Sleep(5 * time.Millisecond)
	result := instance.Model(&Requester{ID: requester.ID}).
		Select("full_name", "created").
		Updates(Requester{FullName: "Grace H.", Created: time.Now().Add(time.Hour)})
	if result.Error != nil {
		t.Fatalf("update failed: %v", result.Error)
	}

	var fetched Requester
	instance.First(&fetched, requester.ID)
	if fetched.FullName != "Grace H." {
		t.Errorf("expected full name 'Grace H.', got %q", fetched.FullName)
	}
	if !fetched.Created.Equal(original) {
		t.Errorf("expected created to stay %v, got %v", original, fetched.Created)
	}
}

func TestEmailIsUnique(t *testing.T) {
	setupTestDB(t)
	seedRequester(t, "dup@example.com")

	err := instance.Create(&Requester{FullName: "Other", Email: "dup@example.com", IsActive: true}).Error
	if err == nil {
		t.Fatal("expected unique constraint violation")
	}
	if !strings.Contains(err.Error(), "UNIQUE") {
		t.Errorf("expected UNIQUE constraint error, got %v", err)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	setupTestDB(t)

	err := instance.Create(&Request{Body: "orphan", RequesterID: 4242}).Error
	if err == nil {
		t.Fatal("expected foreign key violation for missing requester")
	}
}

func TestDeleteParentWithChildrenRestricted(t *testing.T) {
	setupTestDB(t)
	requester := seedRequester(t, "restrict@example.com")
	instance.Create(&Request{Body: "child", RequesterID: requester.ID})

	if err := instance.Delete(&Requester{}, requester.ID).Error; err == nil {
		t.Fatal("expected delete of requester with requests to be restricted")
	}
}

func TestListRequestsOrderedByCreated(t *testing.T) {
	setupTestDB(t)
	requester := seedRequester(t, "order@example.com")

	for _, body := range []string{"first", "second", "third"} {
		instance.Create(&Request{Body: body, RequesterID: requester.ID})
		time.Sleep(2 * time.Millisecond)
	}

	var requests []Request
	if err := instance.Order("created DESC").Find(&requests).Error; err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(requests) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(requests))
	}
	if requests[0].Body != "third" {
		t.Errorf("expected newest first, got %q", requests[0].Body)
	}
}

func TestIdentityEquality(t *testing.T) {
	a := Requester{ID: 7, FullName: "A"}
	b := Requester{ID: 7, FullName: "B"}
	if !a.Equal(b) {
		t.Error("expected records with the same id to be equal")
	}
	if (Requester{}).Equal(Requester{}) {
		t.Error("expected records without ids to never be equal")
	}
	if (Request{ID: 1}).Equal(Request{ID: 2}) {
		t.Error("expected different ids to differ")
	}
	if !(Response{ID: 3, Body: "x"}).Equal(Response{ID: 3, Body: "y"}) {
		t.Error("expected responses with the same id to be equal")
	}
}

func TestSQLiteDSN(t *testing.T) {
	cases := map[string]string{
		"file:helpdesk.db":                "file:helpdesk.db?_foreign_keys=on",
		"file:helpdesk.db?cache=shared":   "file:helpdesk.db?cache=shared&_foreign_keys=on",
		"file:helpdesk.db?_foreign_keys=0": "file:helpdesk.db?_foreign_keys=0",
	}
	for in, want := range cases {
		if got := SQLiteDSN(in); got != want {
			t.Errorf("SQLiteDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDialectorRejectsUnknownDriver(t *testing.T) {
	if _, err := Dialector(config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestNowIsUTCMilliseconds(t *testing.T) {
	n := Now()
	if n.Location() != time.UTC {
		t.Errorf("expected UTC, got %v", n.Location())
	}
	if n.Nanosecond()%int(time.Millisecond) != 0 {
		t.Errorf("expected millisecond precision, got %v", n)
	}
}
