package mysql

import (
	"context"
	"testing"
	"time"

	notificationDomain "approv-backend/internal/domain/notification"
	"approv-backend/internal/testutil/sqlitedb"
)

func TestEvent_EnqueueAndFetchDue(t *testing.T) {
	db := sqlitedb.Open(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	first := makeEventDomain(t, notificationDomain.TypeApprovalRequested, hex32("a"))
	second := makeEventDomain(t, notificationDomain.TypeApprovalApproved, hex32("a"))
	second.NextAttemptAt = baseTime.Add(time.Hour)
	for _, e := range []*notificationDomain.Event{first, second} {
		if err := repo.Enqueue(ctx, e); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	due, err := repo.FetchDue(ctx, baseTime, 10)
	if err != nil {
		t.Fatalf("FetchDue: %v", err)
	}
	if len(due) != 1 || due[0].ID != first.ID {
		t.Fatalf("due = %+v, want only first", due)
	}
	p, err := due[0].Decode()
	if err != nil || p.ApprovalID != hex32("a") {
		t.Fatalf("Decode = %+v, %v", p, err)
	}

	due, _ = repo.FetchDue(ctx, baseTime.Add(2*time.Hour), 1)
	if len(due) != 1 {
		t.Fatalf("limit not applied: %d", len(due))
	}
}

func TestEvent_ClaimIsExclusive(t *testing.T) {
	db := sqlitedb.Open(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	e := makeEventDomain(t, notificationDomain.TypeApprovalRequested, hex32("b"))
	if err := repo.Enqueue(ctx, e); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	lease := baseTime.Add(30 * time.Second)
	ok, err := repo.Claim(ctx, e.ID, baseTime, lease)
	if err != nil || !ok {
		t.Fatalf("first Claim = %v, %v", ok, err)
	}
	ok, err = repo.Claim(ctx, e.ID, baseTime.Add(time.Second), lease)
	if err != nil || ok {
		t.Fatalf("second Claim inside lease = %v, %v; want refused", ok, err)
	}
	if due, _ := repo.FetchDue(ctx, baseTime.Add(time.Second), 10); len(due) != 0 {
		t.Fatalf("leased event must not be due, got %d", len(due))
	}
	// lease lapsed
	ok, err = repo.Claim(ctx, e.ID, lease.Add(time.Second), lease.Add(time.Minute))
	if err != nil || !ok {
		t.Fatalf("Claim after lease = %v, %v", ok, err)
	}
}

func TestEvent_MarkDispatched(t *testing.T) {
	db := sqlitedb.Open(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	e := makeEventDomain(t, notificationDomain.TypeReminder, hex32("c"))
	if err := repo.Enqueue(ctx, e); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := repo.MarkDispatched(ctx, e.ID, baseTime); err != nil {
		t.Fatalf("MarkDispatched: %v", err)
	}
	if due, _ := repo.FetchDue(ctx, baseTime.Add(time.Hour), 10); len(due) != 0 {
		t.Fatalf("dispatched event still due")
	}
	if ok, _ := repo.Claim(ctx, e.ID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour)); ok {
		t.Fatalf("dispatched event must not be claimable")
	}
}

func TestEvent_MarkFailed(t *testing.T) {
	db := sqlitedb.Open(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	e := makeEventDomain(t, notificationDomain.TypeResubmitted, hex32("d"))
	if err := repo.Enqueue(ctx, e); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	retryAt := baseTime.Add(10 * time.Second)
	if err := repo.MarkFailed(ctx, e.ID, 1, retryAt, "broker down", false); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if due, _ := repo.FetchDue(ctx, baseTime, 10); len(due) != 0 {
		t.Fatalf("event due before retry time")
	}
	due, _ := repo.FetchDue(ctx, retryAt, 10)
	if len(due) != 1 || due[0].Attempts != 1 || due[0].LastError != "broker down" {
		t.Fatalf("retry row = %+v", due)
	}

	if err := repo.MarkFailed(ctx, e.ID, 2, retryAt, "broker down", true); err != nil {
		t.Fatalf("MarkFailed giveUp: %v", err)
	}
	if due, _ := repo.FetchDue(ctx, retryAt.Add(time.Hour), 10); len(due) != 0 {
		t.Fatalf("given-up event still due")
	}
}
