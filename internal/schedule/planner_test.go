package schedule

import (
	"context"
	"testing"

	"clubsched/internal/batchtime"
	"clubsched/internal/classes"
	"clubsched/internal/docstore"
)

func newPlannerFixture(t *testing.T) (*Planner, *classes.Service) {
	t.Helper()
	svc := classes.NewService(docstore.NewMemory())
	return NewPlanner(svc), svc
}

func TestPreviewEmptyStore(t *testing.T) {
	planner, _ := newPlannerFixture(t)
	plan, err := planner.Preview(context.Background(), PreviewRequest{
		StartDate:     "2024-01-01",
		EndDate:       "2024-01-07",
		Weekdays:      []int{1, 2, 3, 4, 5},
		Times:         []string{batchtime.Morning},
		TitleTemplate: "Junior squad",
		Instructor:    "Coach Kim",
		InstructorID:  "inst-1",
	})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if plan.TotalCount != 5 || len(plan.Candidates) != 5 {
		t.Fatalf("expected 5 candidates, got total=%d len=%d", plan.TotalCount, len(plan.Candidates))
	}
	if len(plan.Conflicts) != 0 {
		t.Fatalf("expected no conflicts, got %v", plan.Conflicts)
	}
	first := plan.Candidates[0]
	if first.Date != "2024-01-01" || first.Time != batchtime.Morning {
		t.Errorf("unexpected first candidate %+v", first)
	}
	if first.MaxParticipants != classes.DefaultMaxParticipants {
		t.Errorf("candidate max participants = %d", first.MaxParticipants)
	}
}

func TestPreviewDetectsConflicts(t *testing.T) {
	planner, svc := newPlannerFixture(t)
	existing, err := svc.Create(context.Background(), classes.Record{
		Title: "Existing session",
		Date:  "2024-03-04",
		Time:  batchtime.Morning,
	})
	if err != nil {
		t.Fatalf("seed class: %v", err)
	}

	plan, err := planner.Preview(context.Background(), PreviewRequest{
		StartDate:     "2024-03-04",
		EndDate:       "2024-03-08",
		Weekdays:      []int{1, 2, 3, 4, 5},
		Times:         []string{batchtime.Morning},
		TitleTemplate: "Spring camp",
	})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if plan.TotalCount != 5 {
		t.Fatalf("conflicts must not reduce the candidate set, total=%d", plan.TotalCount)
	}
	if len(plan.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(plan.Conflicts))
	}
	conf := plan.Conflicts[0]
	if conf.Date != "2024-03-04" || conf.Time != batchtime.Morning {
		t.Errorf("conflict at wrong slot: %+v", conf)
	}
	if conf.Existing.ID != existing.ID {
		t.Errorf("conflict reports class %s, want %s", conf.Existing.ID, existing.ID)
	}
}

func TestPreviewConflictMatchesLegacyTime(t *testing.T) {
	planner, svc := newPlannerFixture(t)
	if _, err := svc.Create(context.Background(), classes.Record{
		Title: "Old data",
		Date:  "2024-03-04",
		Time:  "Morning (8-10)", // legacy label
	}); err != nil {
		t.Fatalf("seed class: %v", err)
	}

	plan, err := planner.Preview(context.Background(), PreviewRequest{
		StartDate:     "2024-03-04",
		EndDate:       "2024-03-04",
		Weekdays:      []int{1},
		Times:         []string{batchtime.Morning},
		TitleTemplate: "New class",
	})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(plan.Conflicts) != 1 {
		t.Fatalf("legacy-labeled class should conflict, got %d conflicts", len(plan.Conflicts))
	}
}

func TestPreviewConflictTieBreakDeterministic(t *testing.T) {
	planner, svc := newPlannerFixture(t)
	lowest := ""
	for i := 0; i < 3; i++ {
		rec, err := svc.Create(context.Background(), classes.Record{
			Title: "Duplicate slot",
			Date:  "2024-03-04",
			Time:  batchtime.Morning,
		})
		if err != nil {
			t.Fatalf("seed class: %v", err)
		}
		if lowest == "" || rec.ID < lowest {
			lowest = rec.ID
		}
	}

	req := PreviewRequest{
		StartDate:     "2024-03-04",
		EndDate:       "2024-03-04",
		Weekdays:      []int{1},
		Times:         []string{batchtime.Morning},
		TitleTemplate: "Candidate",
	}
	for i := 0; i < 3; i++ {
		plan, err := planner.Preview(context.Background(), req)
		if err != nil {
			t.Fatalf("Preview: %v", err)
		}
		if len(plan.Conflicts) != 1 {
			t.Fatalf("expected 1 conflict, got %d", len(plan.Conflicts))
		}
		if plan.Conflicts[0].Existing.ID != lowest {
			t.Fatalf("tie-break reported %s, want lowest id %s", plan.Conflicts[0].Existing.ID, lowest)
		}
	}
}

func TestPreviewRequiresTimes(t *testing.T) {
	planner, _ := newPlannerFixture(t)
	if _, err := planner.Preview(context.Background(), PreviewRequest{
		StartDate: "2024-01-01",
		EndDate:   "2024-01-07",
		Weekdays:  []int{1},
	}); err == nil {
		t.Fatal("expected error with no batch times selected")
	}
}
