package attendance

import (
	"context"
	"fmt"
	"time"

	"clubsched/internal/batchtime"
	"clubsched/internal/classes"
	"clubsched/internal/docstore"
	"clubsched/internal/students"
)

// Collection is the backing docstore collection.
const Collection = "attendance"

// Record is one student's attendance for one class on one date. The
// (ClassID, StudentID, ClassDate) triple is the natural key: at most one
// record may exist per triple, enforced by upsert-by-lookup in Save.
// The store encodes the booleans as the strings "true"/"false"; they are
// decoded here at the boundary and native everywhere else.
type Record struct {
	ID              string    `json:"id"`
	ClassID         string    `json:"classId"`
	StudentID       string    `json:"studentId"`
	ClassDate       string    `json:"classDate"`
	IsPresent       bool      `json:"isPresent"`
	PaymentComplete bool      `json:"paymentComplete"`
	MarkedBy        string    `json:"markedBy"`
	MarkedAt        time.Time `json:"markedAt"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Status is the per-student view for a class+date. A student with no
// stored record gets the zero Status with an empty RecordID; nothing is
// persisted until saved.
type Status struct {
	RecordID        string    `json:"recordId,omitempty"`
	IsPresent       bool      `json:"isPresent"`
	PaymentComplete bool      `json:"paymentComplete"`
	Notes           string    `json:"notes,omitempty"`
	MarkedBy        string    `json:"markedBy,omitempty"`
	MarkedAt        time.Time `json:"markedAt,omitempty"`
}

// Update is one student's present/paid toggle from the marking screen.
type Update struct {
	StudentID       string `json:"studentId"`
	IsPresent       bool   `json:"isPresent"`
	PaymentComplete bool   `json:"paymentComplete"`
	Notes           string `json:"notes,omitempty"`
}

// SaveFailure records one student whose upsert failed.
type SaveFailure struct {
	StudentID string `json:"studentId"`
	Error     string `json:"error"`
}

// SaveResult aggregates per-student outcomes of a bulk save.
type SaveResult struct {
	SuccessCount int           `json:"successCount"`
	ErrorCount   int           `json:"errorCount"`
	Successes    []string      `json:"successes"`
	Failures     []SaveFailure `json:"failures"`
}

// Summary renders the user-facing outcome line.
func (r SaveResult) Summary() string {
	return fmt.Sprintf("%d succeeded, %d failed", r.SuccessCount, r.ErrorCount)
}

// RosterEntry pairs an eligible student with their current status.
type RosterEntry struct {
	Student students.Record `json:"student"`
	Status  Status          `json:"status"`
}

// EligibleStudents returns the students who belong in a class's roster:
// everyone when the class has no batch time (wildcard), otherwise those
// whose batch time matches the class's after normalization.
func EligibleStudents(class classes.Record, all []students.Record) []students.Record {
	if class.Time == "" {
		return all
	}
	var out []students.Record
	for _, st := range all {
		if batchtime.Matches(st.BatchTime, class.Time) {
			out = append(out, st)
		}
	}
	return out
}

// Service reconciles attendance records for a class+date against the
// store.
type Service struct {
	store docstore.Store
}

// NewService creates a service over the given store.
func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

// Load returns the stored status per student id for one class+date.
func (s *Service) Load(ctx context.Context, classID, classDate string) (map[string]Status, error) {
	docs, err := s.store.List(ctx, Collection, docstore.Query{
		Filters: []docstore.Filter{
			docstore.Eq("classId", classID),
			docstore.Eq("classDate", classDate),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("load attendance: %w", err)
	}
	out := make(map[string]Status, len(docs))
	for _, doc := range docs {
		rec := decode(doc)
		out[rec.StudentID] = Status{
			RecordID:        rec.ID,
			IsPresent:       rec.IsPresent,
			PaymentComplete: rec.PaymentComplete,
			Notes:           rec.Notes,
			MarkedBy:        rec.MarkedBy,
			MarkedAt:        rec.MarkedAt,
		}
	}
	return out, nil
}

// Roster builds the marking view for a class: every eligible student
// with their stored status, defaulting to not present / not paid when
// no record exists yet.
func (s *Service) Roster(ctx context.Context, class classes.Record, allStudents []students.Record) ([]RosterEntry, error) {
	statuses, err := s.Load(ctx, class.ID, class.Date)
	if err != nil {
		return nil, err
	}
	eligible := EligibleStudents(class, allStudents)
	out := make([]RosterEntry, 0, len(eligible))
	for _, st := range eligible {
		out = append(out, RosterEntry{Student: st, Status: statuses[st.ID]})
	}
	return out, nil
}

// Save upserts one record per student for the class+date. An existing
// record for the (classId, studentId, classDate) triple is overwritten
// in place, never duplicated; absent records are created. Each student
// is attempted independently, so one bad record never blocks the rest
// of the roster. Concurrent saves race as last-write-wins.
func (s *Service) Save(ctx context.Context, classID, classDate, markedBy string, updates []Update) (SaveResult, error) {
	if classID == "" || classDate == "" {
		return SaveResult{}, &docstore.ValidationError{Field: "classId", Reason: "class id and date required"}
	}
	var result SaveResult
	for _, upd := range updates {
		if err := s.upsert(ctx, classID, classDate, markedBy, upd); err != nil {
			result.ErrorCount++
			result.Failures = append(result.Failures, SaveFailure{
				StudentID: upd.StudentID,
				Error:     err.Error(),
			})
			continue
		}
		result.SuccessCount++
		result.Successes = append(result.Successes, upd.StudentID)
	}
	return result, nil
}

func (s *Service) upsert(ctx context.Context, classID, classDate, markedBy string, upd Update) error {
	if upd.StudentID == "" {
		return &docstore.ValidationError{Field: "studentId", Reason: "required"}
	}
	existing, err := s.store.List(ctx, Collection, docstore.Query{
		Filters: []docstore.Filter{
			docstore.Eq("classId", classID),
			docstore.Eq("studentId", upd.StudentID),
			docstore.Eq("classDate", classDate),
		},
		Limit: 1,
	})
	if err != nil {
		return fmt.Errorf("find attendance record: %w", err)
	}

	now := time.Now().UTC()
	if len(existing) > 0 {
		_, err = s.store.Update(ctx, Collection, existing[0].ID, map[string]any{
			"isPresent":       encodeBool(upd.IsPresent),
			"paymentComplete": encodeBool(upd.PaymentComplete),
			"markedBy":        markedBy,
			"markedAt":        now.Format(time.RFC3339),
			"notes":           upd.Notes,
		})
		if err != nil {
			return fmt.Errorf("update attendance record: %w", err)
		}
		return nil
	}

	_, err = s.store.Create(ctx, Collection, map[string]any{
		"classId":         classID,
		"studentId":       upd.StudentID,
		"classDate":       classDate,
		"isPresent":       encodeBool(upd.IsPresent),
		"paymentComplete": encodeBool(upd.PaymentComplete),
		"markedBy":        markedBy,
		"markedAt":        now.Format(time.RFC3339),
		"notes":           upd.Notes,
		"createdAt":       now.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("create attendance record: %w", err)
	}
	return nil
}

// CountPresent returns how many students are marked present for a
// class+date. The worker uses it to refresh currentParticipants.
func (s *Service) CountPresent(ctx context.Context, classID, classDate string) (int, error) {
	docs, err := s.store.List(ctx, Collection, docstore.Query{
		Filters: []docstore.Filter{
			docstore.Eq("classId", classID),
			docstore.Eq("classDate", classDate),
			docstore.Eq("isPresent", "true"),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("count present: %w", err)
	}
	return len(docs), nil
}

func encodeBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func decode(doc docstore.Document) Record {
	f := doc.Fields
	return Record{
		ID:              doc.ID,
		ClassID:         stringField(f, "classId"),
		StudentID:       stringField(f, "studentId"),
		ClassDate:       stringField(f, "classDate"),
		IsPresent:       stringField(f, "isPresent") == "true",
		PaymentComplete: stringField(f, "paymentComplete") == "true",
		MarkedBy:        stringField(f, "markedBy"),
		MarkedAt:        timeField(f, "markedAt"),
		Notes:           stringField(f, "notes"),
		CreatedAt:       timeField(f, "createdAt"),
	}
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

func timeField(fields map[string]any, key string) time.Time {
	s, _ := fields[key].(string)
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
