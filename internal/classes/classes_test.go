package classes

import (
	"context"
	"errors"
	"testing"

	"clubsched/internal/batchtime"
	"clubsched/internal/docstore"
)

func TestCreateDefaultsAndValidation(t *testing.T) {
	svc := NewService(docstore.NewMemory())
	ctx := context.Background()

	rec, err := svc.Create(ctx, Record{
		Title: "Junior squad",
		Date:  "2024-03-04",
		Time:  batchtime.Morning,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID == "" {
		t.Error("id not assigned")
	}
	if rec.MaxParticipants != DefaultMaxParticipants {
		t.Errorf("maxParticipants = %d, want default %d", rec.MaxParticipants, DefaultMaxParticipants)
	}

	var ve *docstore.ValidationError
	if _, err := svc.Create(ctx, Record{Date: "2024-03-04"}); !errors.As(err, &ve) {
		t.Errorf("missing title: got %v", err)
	}
	if _, err := svc.Create(ctx, Record{Title: "X", Date: "04/03/2024"}); !errors.As(err, &ve) {
		t.Errorf("bad date: got %v", err)
	}
}

func TestListRange(t *testing.T) {
	svc := NewService(docstore.NewMemory())
	ctx := context.Background()
	for _, date := range []string{"2024-02-28", "2024-03-04", "2024-03-08", "2024-04-01"} {
		if _, err := svc.Create(ctx, Record{Title: "Session", Date: date, Time: batchtime.Morning}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	recs, err := svc.ListRange(ctx, "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("ListRange: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("range returned %d classes", len(recs))
	}
	if recs[0].Date != "2024-03-04" || recs[1].Date != "2024-03-08" {
		t.Errorf("order = %s, %s", recs[0].Date, recs[1].Date)
	}
}

func TestUpdateAndParticipants(t *testing.T) {
	svc := NewService(docstore.NewMemory())
	ctx := context.Background()
	rec, err := svc.Create(ctx, Record{Title: "Session", Date: "2024-03-04", Time: batchtime.Morning})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(ctx, rec.ID, map[string]any{"title": "Renamed"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Renamed" || updated.Date != "2024-03-04" {
		t.Errorf("update lost fields: %+v", updated)
	}

	var ve *docstore.ValidationError
	if _, err := svc.Update(ctx, rec.ID, map[string]any{"date": "bad"}); !errors.As(err, &ve) {
		t.Errorf("bad date on update: got %v", err)
	}

	if err := svc.SetCurrentParticipants(ctx, rec.ID, 7); err != nil {
		t.Fatalf("SetCurrentParticipants: %v", err)
	}
	got, err := svc.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CurrentParticipants != 7 {
		t.Errorf("currentParticipants = %d", got.CurrentParticipants)
	}
}

func TestDecodeToleratesNumberShapes(t *testing.T) {
	// json round trips hand back float64, mongo hands back int32/int64.
	fields := map[string]any{"maxParticipants": float64(15), "currentParticipants": int32(3)}
	if got := intField(fields, "maxParticipants", DefaultMaxParticipants); got != 15 {
		t.Errorf("float64: got %d", got)
	}
	if got := intField(fields, "currentParticipants", 0); got != 3 {
		t.Errorf("int32: got %d", got)
	}
	if got := intField(fields, "missing", 20); got != 20 {
		t.Errorf("fallback: got %d", got)
	}
	if got := intField(map[string]any{"maxParticipants": "25"}, "maxParticipants", 20); got != 25 {
		t.Errorf("string: got %d", got)
	}
}
