package mysql

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	approvalDomain "approv-backend/internal/domain/approval"
	"approv-backend/internal/testutil/sqlitedb"

	"gorm.io/gorm"
)

var baseTime = time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)

func makeApproval(approvalID, token string, projectID uint64, createdAt time.Time) *approvalDomain.Approval {
	return &approvalDomain.Approval{
		ApprovalID: approvalID,
		Token:      token,
		ProjectID:  projectID,
		Stage:      "INITIAL_DRAWINGS",
		StageLabel: "Initial Concept Drawings",
		Deliverable: approvalDomain.Deliverable{
			Kind: approvalDomain.DeliverablePDF, Name: "drawings.pdf", StorageKey: "abc.pdf", URL: "/files/abc.pdf",
		},
		Status:    approvalDomain.StatusPending,
		CreatedAt: createdAt,
		ExpiresAt: approvalDomain.ComputeExpiry(createdAt, 14),
		Revision:  1,
	}
}

func hex32(c string) string { return strings.Repeat(c, 32) }

func TestApproval_CreateAndGet(t *testing.T) {
	db := sqlitedb.Open(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	in := makeApproval(hex32("a"), "TokenAAA", 777, baseTime)
	if err := repo.Create(ctx, in); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if in.ID == 0 {
		t.Fatalf("auto ID not set")
	}

	got, err := repo.GetByToken(ctx, "TokenAAA")
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if got.ApprovalID != hex32("a") || got.ProjectID != 777 {
		t.Errorf("unexpected row by token: %+v", got)
	}
	if got.Deliverable.Kind != approvalDomain.DeliverablePDF || got.Deliverable.StorageKey != "abc.pdf" {
		t.Errorf("deliverable not round-tripped: %+v", got.Deliverable)
	}
	if !got.ExpiresAt.Equal(in.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, in.ExpiresAt)
	}

	byID, err := repo.GetByApprovalID(ctx, hex32("a"))
	if err != nil || byID.Token != "TokenAAA" {
		t.Fatalf("GetByApprovalID: %+v, %v", byID, err)
	}
	locked, err := repo.GetByApprovalIDForUpdate(ctx, hex32("a"))
	if err != nil || locked.ID != in.ID {
		t.Fatalf("GetByApprovalIDForUpdate: %+v, %v", locked, err)
	}
}

func TestApproval_GetByToken_ExactMatchOnly(t *testing.T) {
	db := sqlitedb.Open(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, makeApproval(hex32("b"), "CaseSensitiveToken", 1, baseTime)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, probe := range []string{"casesensitivetoken", "CaseSensitive", "CaseSensitiveToken ", "", "%"} {
		if _, err := repo.GetByToken(ctx, probe); !errors.Is(err, gorm.ErrRecordNotFound) {
			t.Fatalf("GetByToken(%q) err = %v, want ErrRecordNotFound", probe, err)
		}
	}
}

func TestApproval_TokenUnique(t *testing.T) {
	db := sqlitedb.Open(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, makeApproval(hex32("c"), "dup", 1, baseTime)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, makeApproval(hex32("d"), "dup", 1, baseTime)); err == nil {
		t.Fatalf("expected unique violation for duplicated token")
	}
}

func TestApproval_ApplyResponse_CompareAndSwap(t *testing.T) {
	db := sqlitedb.Open(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	a := makeApproval(hex32("e"), "tok-e", 1, baseTime)
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	notes := "Please change the window sizes"
	first := approvalDomain.Response{Status: approvalDomain.StatusChangesRequested, RespondedAt: baseTime.Add(time.Hour), Notes: &notes}
	ok, err := repo.ApplyResponse(ctx, a.ID, first)
	if err != nil || !ok {
		t.Fatalf("first ApplyResponse = %v, %v; want applied", ok, err)
	}

	second := approvalDomain.Response{Status: approvalDomain.StatusApproved, RespondedAt: baseTime.Add(2 * time.Hour)}
	ok, err = repo.ApplyResponse(ctx, a.ID, second)
	if err != nil {
		t.Fatalf("second ApplyResponse err: %v", err)
	}
	if ok {
		t.Fatalf("second ApplyResponse must not apply")
	}

	got, _ := repo.GetByApprovalID(ctx, a.ApprovalID)
	if got.Status != approvalDomain.StatusChangesRequested {
		t.Fatalf("status = %s, want changes_requested", got.Status)
	}
	if got.RespondedAt == nil || !got.RespondedAt.Equal(first.RespondedAt) {
		t.Fatalf("respondedAt = %v, want %v", got.RespondedAt, first.RespondedAt)
	}
	if got.ResponseNotes == nil || *got.ResponseNotes != notes {
		t.Fatalf("notes = %v", got.ResponseNotes)
	}
}

func TestApproval_ApplyResponse_RefusesAfterDeadline(t *testing.T) {
	db := sqlitedb.Open(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	a := makeApproval(hex32("f"), "tok-f", 1, baseTime)
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	late := approvalDomain.Response{Status: approvalDomain.StatusApproved, RespondedAt: a.ExpiresAt.Add(time.Second)}
	ok, err := repo.ApplyResponse(ctx, a.ID, late)
	if err != nil || ok {
		t.Fatalf("late ApplyResponse = %v, %v; want not applied", ok, err)
	}
	got, _ := repo.GetByApprovalID(ctx, a.ApprovalID)
	if got.Status != approvalDomain.StatusPending || got.RespondedAt != nil {
		t.Fatalf("row changed: %+v", got)
	}
}

func TestApproval_ApplyResponse_ConcurrentSingleWinner(t *testing.T) {
	db := sqlitedb.Open(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	a := makeApproval(hex32("g"), "tok-g", 1, baseTime)
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	const n = 8
	var wg sync.WaitGroup
	results := make(chan bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := approvalDomain.Response{Status: approvalDomain.StatusApproved, RespondedAt: baseTime.Add(time.Duration(i+1) * time.Minute)}
			ok, err := repo.ApplyResponse(ctx, a.ID, r)
			if err != nil {
				t.Errorf("ApplyResponse: %v", err)
			}
			results <- ok
		}(i)
	}
	wg.Wait()
	close(results)

	wins := 0
	for ok := range results {
		if ok {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("winners = %d, want exactly 1", wins)
	}
}

func TestApproval_IncrementViewCount_OnlyWhilePending(t *testing.T) {
	db := sqlitedb.Open(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	a := makeApproval(hex32("h"), "tok-h", 1, baseTime)
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := repo.IncrementViewCount(ctx, a.ID); err != nil {
			t.Fatalf("IncrementViewCount: %v", err)
		}
	}
	if _, err := repo.ApplyResponse(ctx, a.ID, approvalDomain.Response{Status: approvalDomain.StatusApproved, RespondedAt: baseTime}); err != nil {
		t.Fatalf("ApplyResponse: %v", err)
	}
	if err := repo.IncrementViewCount(ctx, a.ID); err != nil {
		t.Fatalf("IncrementViewCount: %v", err)
	}
	got, _ := repo.GetByApprovalID(ctx, a.ApprovalID)
	if got.ViewCount != 3 {
		t.Fatalf("view_count = %d, want 3", got.ViewCount)
	}
}

func TestApproval_RecordReminder(t *testing.T) {
	db := sqlitedb.Open(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	a := makeApproval(hex32("i"), "tok-i", 1, baseTime)
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	at := baseTime.Add(48 * time.Hour)
	ok, err := repo.RecordReminder(ctx, a.ID, at, at.Add(-24*time.Hour))
	if err != nil || !ok {
		t.Fatalf("first reminder = %v, %v", ok, err)
	}
	// second reminder one hour later inside a 24h cooldown
	later := at.Add(time.Hour)
	ok, err = repo.RecordReminder(ctx, a.ID, later, later.Add(-24*time.Hour))
	if err != nil || ok {
		t.Fatalf("cooldown reminder = %v, %v; want refused", ok, err)
	}
	got, _ := repo.GetByApprovalID(ctx, a.ApprovalID)
	if got.ReminderCount != 1 || got.LastReminderAt == nil || !got.LastReminderAt.Equal(at) {
		t.Fatalf("reminder fields = %d, %v", got.ReminderCount, got.LastReminderAt)
	}
}

func TestApproval_ListAndSuccessor(t *testing.T) {
	db := sqlitedb.Open(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	first := makeApproval(hex32("j"), "tok-j", 10, baseTime)
	other := makeApproval(hex32("k"), "tok-k", 20, baseTime.Add(time.Minute))
	for _, a := range []*approvalDomain.Approval{first, other} {
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	has, err := repo.HasSuccessor(ctx, first.ID)
	if err != nil || has {
		t.Fatalf("HasSuccessor before resubmit = %v, %v", has, err)
	}
	next := makeApproval(hex32("l"), "tok-l", 10, baseTime.Add(time.Hour))
	next.PreviousApprovalID = &first.ID
	next.Revision = 2
	if err := repo.Create(ctx, next); err != nil {
		t.Fatalf("Create: %v", err)
	}
	has, err = repo.HasSuccessor(ctx, first.ID)
	if err != nil || !has {
		t.Fatalf("HasSuccessor after resubmit = %v, %v", has, err)
	}

	byProject, err := repo.ListByProjectID(ctx, 10)
	if err != nil || len(byProject) != 2 {
		t.Fatalf("ListByProjectID = %d rows, %v", len(byProject), err)
	}
	if byProject[0].ApprovalID != next.ApprovalID {
		t.Fatalf("newest first expected, got %s", byProject[0].ApprovalID)
	}

	all, err := repo.List(ctx, approvalDomain.ListFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("List = %d rows, %v", len(all), err)
	}
	filtered, err := repo.List(ctx, approvalDomain.ListFilter{ProjectIDs: []uint64{20}, Statuses: []approvalDomain.Status{approvalDomain.StatusPending}})
	if err != nil || len(filtered) != 1 || filtered[0].ApprovalID != other.ApprovalID {
		t.Fatalf("filtered List = %+v, %v", filtered, err)
	}
}

func TestApproval_MarkExpired(t *testing.T) {
	db := sqlitedb.Open(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	old := makeApproval(hex32("m"), "tok-m", 1, baseTime)
	fresh := makeApproval(hex32("n"), "tok-n", 1, baseTime.AddDate(0, 0, 10))
	for _, a := range []*approvalDomain.Approval{old, fresh} {
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	n, err := repo.MarkExpired(ctx, baseTime.AddDate(0, 0, 15))
	if err != nil || n != 1 {
		t.Fatalf("MarkExpired = %d, %v; want 1", n, err)
	}
	got, _ := repo.GetByApprovalID(ctx, old.ApprovalID)
	if got.Status != approvalDomain.StatusExpired {
		t.Fatalf("old status = %s", got.Status)
	}
	got, _ = repo.GetByApprovalID(ctx, fresh.ApprovalID)
	if got.Status != approvalDomain.StatusPending {
		t.Fatalf("fresh status = %s", got.Status)
	}
}

func TestApproval_NotFound(t *testing.T) {
	db := sqlitedb.Open(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	if _, err := repo.GetByToken(ctx, "nope"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for GetByToken, got %v", err)
	}
	if _, err := repo.GetByApprovalID(ctx, "NOPE"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for GetByApprovalID, got %v", err)
	}
}

