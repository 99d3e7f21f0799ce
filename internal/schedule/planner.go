package schedule

import (
	"context"
	"fmt"
	"sort"

	"clubsched/internal/batchtime"
	"clubsched/internal/classes"
)

// PreviewRequest describes a bulk-scheduling run to expand.
type PreviewRequest struct {
	StartDate     string   `json:"startDate"`
	EndDate       string   `json:"endDate"`
	Weekdays      []int    `json:"weekdays"`
	Times         []string `json:"times"`
	SkipDates     []string `json:"skipDates"`
	TitleTemplate string   `json:"titleTemplate"`
	Instructor    string   `json:"instructor"`
	InstructorID  string   `json:"instructorId"`
}

// Conflict pairs a candidate slot with the persisted class already
// occupying it.
type Conflict struct {
	Date     string         `json:"date"`
	Time     string         `json:"time"`
	Existing classes.Record `json:"existingClass"`
}

// Plan is the planner's output: every candidate, conflicts included.
// Filtering conflicted candidates is the committer's decision, not ours.
type Plan struct {
	Candidates []classes.Record `json:"candidates"`
	TotalCount int              `json:"totalCount"`
	Conflicts  []Conflict       `json:"conflicts"`
}

// Planner expands bulk-scheduling requests into candidate classes and
// detects conflicts against persisted classes.
type Planner struct {
	classes *classes.Service
}

// NewPlanner creates a planner over the classes service.
func NewPlanner(svc *classes.Service) *Planner {
	return &Planner{classes: svc}
}

// Preview expands the request into the cartesian product of generated
// dates and selected times, then marks candidates colliding with an
// existing class on (date, time). Existing classes are fetched with one
// range query over [start, end]. When several persisted classes share a
// slot the one with the lowest id is reported, so the conflict choice
// is deterministic.
func (p *Planner) Preview(ctx context.Context, req PreviewRequest) (Plan, error) {
	if len(req.Times) == 0 {
		return Plan{}, fmt.Errorf("no batch times selected")
	}
	dates, err := GenerateDates(req.StartDate, req.EndDate, req.Weekdays, req.SkipDates)
	if err != nil {
		return Plan{}, err
	}

	var plan Plan
	for _, date := range dates {
		for _, slot := range req.Times {
			plan.Candidates = append(plan.Candidates, classes.Record{
				Title:           req.TitleTemplate,
				Date:            date,
				Time:            slot,
				Instructor:      req.Instructor,
				InstructorID:    req.InstructorID,
				Description:     fmt.Sprintf("%s on %s, %s", req.TitleTemplate, date, slot),
				MaxParticipants: classes.DefaultMaxParticipants,
			})
		}
	}
	plan.TotalCount = len(plan.Candidates)
	if plan.TotalCount == 0 {
		return plan, nil
	}

	existing, err := p.classes.ListRange(ctx, req.StartDate, req.EndDate)
	if err != nil {
		return Plan{}, fmt.Errorf("load existing classes: %w", err)
	}
	sort.Slice(existing, func(i, j int) bool { return existing[i].ID < existing[j].ID })

	for _, cand := range plan.Candidates {
		for _, ex := range existing {
			if ex.Date == cand.Date && batchtime.Matches(ex.Time, cand.Time) {
				plan.Conflicts = append(plan.Conflicts, Conflict{
					Date:     cand.Date,
					Time:     cand.Time,
					Existing: ex,
				})
				break
			}
		}
	}
	return plan, nil
}
