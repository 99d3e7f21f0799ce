package attendance

import (
	"context"
	"errors"
	"testing"

	"clubsched/internal/batchtime"
	"clubsched/internal/classes"
	"clubsched/internal/docstore"
	"clubsched/internal/students"
)

func student(id, name, batch string) students.Record {
	return students.Record{ID: id, Name: name, BatchTime: batch, Status: students.StatusActive}
}

func TestEligibleStudents(t *testing.T) {
	roster := []students.Record{
		student("s1", "Asha", batchtime.Morning),
		student("s2", "Borja", batchtime.Evening),
		student("s3", "Chen", "06:00 - 07:00"), // legacy morning label
	}

	morningClass := classes.Record{ID: "c1", Time: batchtime.Morning}
	got := EligibleStudents(morningClass, roster)
	if len(got) != 2 || got[0].ID != "s1" || got[1].ID != "s3" {
		t.Fatalf("morning roster = %v", ids(got))
	}

	wildcard := classes.Record{ID: "c2", Time: ""}
	if got := EligibleStudents(wildcard, roster); len(got) != 3 {
		t.Fatalf("wildcard class should include everyone, got %v", ids(got))
	}
}

func ids(recs []students.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestSaveUpsertsOneRecordPerTriple(t *testing.T) {
	mem := docstore.NewMemory()
	svc := NewService(mem)
	ctx := context.Background()

	first, err := svc.Save(ctx, "c1", "2024-03-04", "Coach Kim", []Update{
		{StudentID: "s1", IsPresent: true, PaymentComplete: false},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if first.SuccessCount != 1 || first.ErrorCount != 0 {
		t.Fatalf("first save: %s", first.Summary())
	}

	second, err := svc.Save(ctx, "c1", "2024-03-04", "Coach Lee", []Update{
		{StudentID: "s1", IsPresent: false, PaymentComplete: true, Notes: "paid cash"},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if second.SuccessCount != 1 {
		t.Fatalf("second save: %s", second.Summary())
	}

	docs, err := mem.List(ctx, Collection, docstore.Query{
		Filters: []docstore.Filter{
			docstore.Eq("classId", "c1"),
			docstore.Eq("studentId", "s1"),
			docstore.Eq("classDate", "2024-03-04"),
		},
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected exactly one record for the triple, got %d", len(docs))
	}
	fields := docs[0].Fields
	if fields["isPresent"] != "false" || fields["paymentComplete"] != "true" {
		t.Errorf("second save not reflected: %v", fields)
	}
	if fields["markedBy"] != "Coach Lee" {
		t.Errorf("markedBy = %v", fields["markedBy"])
	}
	if fields["notes"] != "paid cash" {
		t.Errorf("notes = %v", fields["notes"])
	}
}

func TestSaveStringEncodesBooleans(t *testing.T) {
	mem := docstore.NewMemory()
	svc := NewService(mem)
	ctx := context.Background()

	if _, err := svc.Save(ctx, "c1", "2024-03-04", "Coach", []Update{
		{StudentID: "s1", IsPresent: true, PaymentComplete: true},
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	docs, _ := mem.List(ctx, Collection, docstore.Query{})
	if len(docs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(docs))
	}
	// Wire contract: booleans are the strings "true"/"false".
	if docs[0].Fields["isPresent"] != "true" {
		t.Errorf("isPresent stored as %T %v", docs[0].Fields["isPresent"], docs[0].Fields["isPresent"])
	}

	statuses, err := svc.Load(ctx, "c1", "2024-03-04")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	st, ok := statuses["s1"]
	if !ok {
		t.Fatal("status missing for s1")
	}
	if !st.IsPresent || !st.PaymentComplete {
		t.Errorf("decoded status = %+v", st)
	}
	if st.RecordID == "" {
		t.Error("record id missing from loaded status")
	}
}

// failingStore fails creates and updates selected by the hook.
type failingStore struct {
	docstore.Store
	failStudent string
}

func (f *failingStore) Create(ctx context.Context, collection string, fields map[string]any) (docstore.Document, error) {
	if sid, _ := fields["studentId"].(string); sid == f.failStudent {
		return docstore.Document{}, errors.New("simulated store error")
	}
	return f.Store.Create(ctx, collection, fields)
}

func TestSavePartialFailure(t *testing.T) {
	mem := docstore.NewMemory()
	svc := NewService(&failingStore{Store: mem, failStudent: "s2"})
	ctx := context.Background()

	result, err := svc.Save(ctx, "c1", "2024-03-04", "Coach", []Update{
		{StudentID: "s1", IsPresent: true},
		{StudentID: "s2", IsPresent: true},
		{StudentID: "s3", IsPresent: true},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if result.SuccessCount != 2 || result.ErrorCount != 1 {
		t.Fatalf("got %s", result.Summary())
	}
	if len(result.Failures) != 1 || result.Failures[0].StudentID != "s2" {
		t.Fatalf("failures = %+v", result.Failures)
	}

	// The two good records are persisted despite the failure.
	docs, _ := mem.List(ctx, Collection, docstore.Query{})
	if len(docs) != 2 {
		t.Fatalf("expected 2 persisted records, got %d", len(docs))
	}
}

func TestRosterDefaultsUnmarkedStudents(t *testing.T) {
	mem := docstore.NewMemory()
	svc := NewService(mem)
	ctx := context.Background()

	class := classes.Record{ID: "c1", Date: "2024-03-04", Time: batchtime.Morning}
	roster := []students.Record{
		student("s1", "Asha", batchtime.Morning),
		student("s2", "Chen", batchtime.Morning),
	}
	if _, err := svc.Save(ctx, "c1", "2024-03-04", "Coach", []Update{
		{StudentID: "s1", IsPresent: true, PaymentComplete: true},
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := svc.Roster(ctx, class, roster)
	if err != nil {
		t.Fatalf("Roster: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !entries[0].Status.IsPresent {
		t.Errorf("s1 should be present: %+v", entries[0].Status)
	}
	unmarked := entries[1].Status
	if unmarked.IsPresent || unmarked.PaymentComplete || unmarked.RecordID != "" {
		t.Errorf("unmarked student should default to zero status, got %+v", unmarked)
	}
}

func TestCountPresent(t *testing.T) {
	mem := docstore.NewMemory()
	svc := NewService(mem)
	ctx := context.Background()

	if _, err := svc.Save(ctx, "c1", "2024-03-04", "Coach", []Update{
		{StudentID: "s1", IsPresent: true},
		{StudentID: "s2", IsPresent: false},
		{StudentID: "s3", IsPresent: true},
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	count, err := svc.CountPresent(ctx, "c1", "2024-03-04")
	if err != nil {
		t.Fatalf("CountPresent: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}
