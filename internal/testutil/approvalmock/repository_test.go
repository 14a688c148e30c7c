package approvalmock

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "approv-backend/internal/domain/approval"
)

func TestRepo_Create(t *testing.T) {
	ctx := context.Background()
	a := &domain.Approval{ApprovalID: "APR-1", ProjectID: 123}

	called := false
	wantErr := errors.New("boom")
	m := &Repo{
		CreateFn: func(gotCtx context.Context, got *domain.Approval) error {
			called = true
			if gotCtx != ctx {
				t.Fatalf("ctx mismatch")
			}
			if got != a {
				t.Fatalf("arg mismatch")
			}
			return wantErr
		},
	}
	if err := m.Create(ctx, a); !errors.Is(err, wantErr) {
		t.Fatalf("Create: want %v, got %v", wantErr, err)
	}
	if !called {
		t.Fatalf("CreateFn not called")
	}

	// Default (nil func) → no-op, nil error
	m = &Repo{}
	if err := m.Create(ctx, a); err != nil {
		t.Fatalf("Create default: want nil, got %v", err)
	}
}

func TestRepo_GetByToken(t *testing.T) {
	ctx := context.Background()
	want := &domain.Approval{ApprovalID: "APR-2", Token: "tok"}

	m := &Repo{
		GetByTokenFn: func(_ context.Context, token string) (*domain.Approval, error) {
			if token != "tok" {
				t.Fatalf("token mismatch: got %s", token)
			}
			return want, nil
		},
	}
	got, err := m.GetByToken(ctx, "tok")
	if err != nil || got != want {
		t.Fatalf("GetByToken: got %+v, %v", got, err)
	}

	// Default (nil func) → context.Canceled
	m = &Repo{}
	got, err = m.GetByToken(ctx, "tok")
	if err != context.Canceled || got != nil {
		t.Fatalf("GetByToken default: got %+v, %v", got, err)
	}
}

func TestRepo_ApplyResponse(t *testing.T) {
	ctx := context.Background()
	resp := domain.Response{Status: domain.StatusApproved, RespondedAt: time.Now()}

	m := &Repo{
		ApplyResponseFn: func(_ context.Context, id uint64, r domain.Response) (bool, error) {
			if id != 9 || r.Status != domain.StatusApproved {
				t.Fatalf("args mismatch: %d %+v", id, r)
			}
			return false, nil
		},
	}
	if ok, err := m.ApplyResponse(ctx, 9, resp); ok || err != nil {
		t.Fatalf("ApplyResponse: got %v, %v", ok, err)
	}

	// Default (nil func) → applied
	m = &Repo{}
	if ok, err := m.ApplyResponse(ctx, 9, resp); !ok || err != nil {
		t.Fatalf("ApplyResponse default: got %v, %v", ok, err)
	}
}

func TestRepo_Defaults(t *testing.T) {
	ctx := context.Background()
	m := &Repo{}

	if _, err := m.GetByApprovalID(ctx, "x"); err != context.Canceled {
		t.Fatalf("GetByApprovalID default: %v", err)
	}
	if _, err := m.GetByApprovalIDForUpdate(ctx, "x"); err != context.Canceled {
		t.Fatalf("GetByApprovalIDForUpdate default: %v", err)
	}
	if _, err := m.ListByProjectID(ctx, 1); err != context.Canceled {
		t.Fatalf("ListByProjectID default: %v", err)
	}
	if _, err := m.List(ctx, domain.ListFilter{}); err != context.Canceled {
		t.Fatalf("List default: %v", err)
	}
	if has, err := m.HasSuccessor(ctx, 1); has || err != nil {
		t.Fatalf("HasSuccessor default: %v, %v", has, err)
	}
	if err := m.IncrementViewCount(ctx, 1); err != nil {
		t.Fatalf("IncrementViewCount default: %v", err)
	}
	if ok, err := m.RecordReminder(ctx, 1, time.Now(), time.Now()); !ok || err != nil {
		t.Fatalf("RecordReminder default: %v, %v", ok, err)
	}
	if n, err := m.MarkExpired(ctx, time.Now()); n != 0 || err != nil {
		t.Fatalf("MarkExpired default: %d, %v", n, err)
	}
}
