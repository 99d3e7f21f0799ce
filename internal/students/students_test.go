package students

import (
	"context"
	"errors"
	"testing"

	"clubsched/internal/batchtime"
	"clubsched/internal/docstore"
)

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	svc := NewService(docstore.NewMemory())
	ctx := context.Background()

	first, err := svc.Create(ctx, Record{
		Name:      "Asha Rao",
		Email:     "asha@example.com",
		BatchTime: batchtime.Morning,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.Status != StatusActive {
		t.Errorf("status defaulted to %q, want %q", first.Status, StatusActive)
	}

	// Same address with different case and padding must still collide.
	_, err = svc.Create(ctx, Record{
		Name:      "Other Person",
		Email:     "  Asha@Example.COM ",
		BatchTime: batchtime.Evening,
	})
	var conflict *docstore.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(docstore.NewMemory())
	ctx := context.Background()

	var ve *docstore.ValidationError
	if _, err := svc.Create(ctx, Record{Email: "x@example.com"}); !errors.As(err, &ve) {
		t.Errorf("missing name: got %v", err)
	}
	if _, err := svc.Create(ctx, Record{Name: "No Email"}); !errors.As(err, &ve) {
		t.Errorf("missing email: got %v", err)
	}
}

func TestUpdateNormalizesEmail(t *testing.T) {
	svc := NewService(docstore.NewMemory())
	ctx := context.Background()

	rec, err := svc.Create(ctx, Record{Name: "Asha", Email: "asha@example.com", BatchTime: batchtime.Morning})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	updated, err := svc.Update(ctx, rec.ID, map[string]any{"email": " NEW@Example.com "})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Email != "new@example.com" {
		t.Errorf("email = %q", updated.Email)
	}
	if updated.Name != "Asha" {
		t.Errorf("partial update lost name: %q", updated.Name)
	}
}

func TestListOrderedByName(t *testing.T) {
	svc := NewService(docstore.NewMemory())
	ctx := context.Background()
	for _, name := range []string{"Chen", "Asha", "Borja"} {
		if _, err := svc.Create(ctx, Record{
			Name:      name,
			Email:     name + "@example.com",
			BatchTime: batchtime.Morning,
		}); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}
	recs, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 3 || recs[0].Name != "Asha" || recs[1].Name != "Borja" || recs[2].Name != "Chen" {
		names := make([]string, len(recs))
		for i, r := range recs {
			names[i] = r.Name
		}
		t.Fatalf("order = %v", names)
	}
}

func TestDelete(t *testing.T) {
	svc := NewService(docstore.NewMemory())
	ctx := context.Background()
	rec, err := svc.Create(ctx, Record{Name: "Asha", Email: "asha@example.com", BatchTime: batchtime.Morning})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, rec.ID); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
