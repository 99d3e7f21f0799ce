package docstore

import (
	"context"
	"errors"
	"testing"
)

func seed(t *testing.T, m *Memory, collection string, docs ...map[string]any) []string {
	t.Helper()
	ids := make([]string, 0, len(docs))
	for _, fields := range docs {
		doc, err := m.Create(context.Background(), collection, fields)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, doc.ID)
	}
	return ids
}

func TestMemoryCRUD(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	doc, err := m.Create(ctx, "classes", map[string]any{"title": "A", "date": "2024-01-01"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := m.Get(ctx, "classes", doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Fields["title"] != "A" {
		t.Errorf("fields = %v", got.Fields)
	}

	updated, err := m.Update(ctx, "classes", doc.ID, map[string]any{"title": "B"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Fields["title"] != "B" || updated.Fields["date"] != "2024-01-01" {
		t.Errorf("partial update lost fields: %v", updated.Fields)
	}

	if err := m.Delete(ctx, "classes", doc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(ctx, "classes", doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := m.Delete(ctx, "classes", doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: expected ErrNotFound, got %v", err)
	}
	if _, err := m.Update(ctx, "classes", "missing", map[string]any{"x": 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update missing: expected ErrNotFound, got %v", err)
	}
}

func TestMemoryListFilters(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	seed(t, m, "classes",
		map[string]any{"date": "2024-01-01", "time": "Morning"},
		map[string]any{"date": "2024-01-05", "time": "Evening"},
		map[string]any{"date": "2024-02-01", "time": "Morning"},
	)

	got, err := m.List(ctx, "classes", Query{Filters: []Filter{
		Gte("date", "2024-01-01"),
		Lte("date", "2024-01-31"),
	}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("range query returned %d docs", len(got))
	}

	got, err = m.List(ctx, "classes", Query{Filters: []Filter{Eq("time", "Morning")}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("equality query returned %d docs", len(got))
	}

	got, err = m.List(ctx, "classes", Query{
		Sort:  []Sort{{Field: "date", Desc: true}},
		Limit: 2,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("limited query returned %d docs", len(got))
	}
	if got[0].Fields["date"] != "2024-02-01" {
		t.Errorf("descending sort: first doc %v", got[0].Fields)
	}
}

func TestMemoryListMissingFieldNeverMatches(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	seed(t, m, "students", map[string]any{"name": "Asha"})

	got, err := m.List(ctx, "students", Query{Filters: []Filter{Eq("email", "")}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("filter on absent field matched %d docs", len(got))
	}
}

func TestNotifierPublishesEvents(t *testing.T) {
	broker := NewBroker()
	store := WithNotifier(NewMemory(), broker)
	ctx := context.Background()

	events, cancel, err := broker.Subscribe(ctx, "classes")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	doc, err := store.Create(ctx, "classes", map[string]any{"title": "A"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	evt := <-events
	if evt.Type != EventCreate || evt.Document.ID != doc.ID {
		t.Fatalf("unexpected event %+v", evt)
	}

	if _, err := store.Update(ctx, "classes", doc.ID, map[string]any{"title": "B"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if evt := <-events; evt.Type != EventUpdate {
		t.Fatalf("unexpected event %+v", evt)
	}

	if err := store.Delete(ctx, "classes", doc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if evt := <-events; evt.Type != EventDelete || evt.Document.ID != doc.ID {
		t.Fatalf("unexpected event %+v", evt)
	}
}
