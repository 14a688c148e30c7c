package projectmock

import (
	"context"
	"errors"
	"testing"

	domain "approv-backend/internal/domain/project"
)

func TestRepo_UsesProvidedFuncs(t *testing.T) {
	ctx := context.Background()
	want := &domain.Project{ID: 7, ProjectID: "PRJ-1"}
	saveErr := errors.New("boom")

	m := &Repo{
		GetByProjectIDFn: func(_ context.Context, id string) (*domain.Project, error) {
			if id != "PRJ-1" {
				t.Fatalf("projectID mismatch: %s", id)
			}
			return want, nil
		},
		SaveFn: func(_ context.Context, p *domain.Project) error { return saveErr },
	}
	got, err := m.GetByProjectID(ctx, "PRJ-1")
	if err != nil || got != want {
		t.Fatalf("GetByProjectID: %+v, %v", got, err)
	}
	if err := m.Save(ctx, want); !errors.Is(err, saveErr) {
		t.Fatalf("Save: want %v, got %v", saveErr, err)
	}
}

func TestRepo_Defaults(t *testing.T) {
	ctx := context.Background()
	m := &Repo{}
	if err := m.Create(ctx, &domain.Project{}); err != nil {
		t.Fatalf("Create default: %v", err)
	}
	if _, err := m.GetByID(ctx, 1); err != context.Canceled {
		t.Fatalf("GetByID default: %v", err)
	}
	if _, err := m.List(ctx); err != context.Canceled {
		t.Fatalf("List default: %v", err)
	}
	if _, err := m.ListByClientID(ctx, 1); err != context.Canceled {
		t.Fatalf("ListByClientID default: %v", err)
	}
}

func TestClientRepo_Defaults(t *testing.T) {
	ctx := context.Background()
	m := &ClientRepo{}
	if err := m.Create(ctx, &domain.Client{}); err != nil {
		t.Fatalf("Create default: %v", err)
	}
	if _, err := m.GetByClientID(ctx, "x"); err != context.Canceled {
		t.Fatalf("GetByClientID default: %v", err)
	}
	if _, err := m.GetByPortalToken(ctx, "x"); err != context.Canceled {
		t.Fatalf("GetByPortalToken default: %v", err)
	}
	if _, err := m.List(ctx); err != context.Canceled {
		t.Fatalf("List default: %v", err)
	}

	want := &domain.Client{ID: 3}
	m.GetByIDFn = func(_ context.Context, id uint64) (*domain.Client, error) { return want, nil }
	if got, err := m.GetByID(ctx, 3); got != want || err != nil {
		t.Fatalf("GetByID: %+v, %v", got, err)
	}
}
