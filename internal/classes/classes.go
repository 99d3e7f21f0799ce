package classes

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"clubsched/internal/docstore"
)

// Collection is the backing docstore collection.
const Collection = "classes"

// DefaultMaxParticipants applies when a class is created without an
// explicit cap.
const DefaultMaxParticipants = 20

// Record is a scheduled class. Date is ISO YYYY-MM-DD and Time is a
// batch-time label; together they form the scheduling-conflict key.
type Record struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Date                string    `json:"date"`
	Time                string    `json:"time"`
	Instructor          string    `json:"instructor"`
	InstructorID        string    `json:"instructorId"`
	Description         string    `json:"description"`
	MaxParticipants     int       `json:"maxParticipants"`
	CurrentParticipants int       `json:"currentParticipants"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Service wraps the classes collection with typed CRUD.
type Service struct {
	store docstore.Store
}

// NewService creates a service over the given store.
func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

// Create persists a new class. Zero MaxParticipants gets the default.
func (s *Service) Create(ctx context.Context, rec Record) (Record, error) {
	if rec.Title == "" {
		return Record{}, &docstore.ValidationError{Field: "title", Reason: "required"}
	}
	if _, err := time.Parse("2006-01-02", rec.Date); err != nil {
		return Record{}, &docstore.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	if rec.MaxParticipants <= 0 {
		rec.MaxParticipants = DefaultMaxParticipants
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	doc, err := s.store.Create(ctx, Collection, encode(rec))
	if err != nil {
		return Record{}, fmt.Errorf("create class: %w", err)
	}
	rec.ID = doc.ID
	return rec, nil
}

// Get returns a class by id.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	doc, err := s.store.Get(ctx, Collection, id)
	if err != nil {
		return Record{}, fmt.Errorf("get class %s: %w", id, err)
	}
	return decode(doc), nil
}

// List returns all classes ordered by date then time.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.query(ctx, docstore.Query{
		Sort: []docstore.Sort{{Field: "date"}, {Field: "time"}},
	})
}

// ListRange returns classes whose date falls within [start, end],
// inclusive, in a single range query.
func (s *Service) ListRange(ctx context.Context, start, end string) ([]Record, error) {
	return s.query(ctx, docstore.Query{
		Filters: []docstore.Filter{
			docstore.Gte("date", start),
			docstore.Lte("date", end),
		},
		Sort: []docstore.Sort{{Field: "date"}, {Field: "time"}},
	})
}

// Update applies a partial edit and bumps updatedAt.
func (s *Service) Update(ctx context.Context, id string, fields map[string]any) (Record, error) {
	if raw, ok := fields["date"].(string); ok {
		if _, err := time.Parse("2006-01-02", raw); err != nil {
			return Record{}, &docstore.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
		}
	}
	patch := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		patch[k] = v
	}
	patch["updatedAt"] = time.Now().UTC().Format(time.RFC3339)
	doc, err := s.store.Update(ctx, Collection, id, patch)
	if err != nil {
		return Record{}, fmt.Errorf("update class %s: %w", id, err)
	}
	return decode(doc), nil
}

// SetCurrentParticipants writes the derived present-count for a class.
func (s *Service) SetCurrentParticipants(ctx context.Context, id string, count int) error {
	_, err := s.store.Update(ctx, Collection, id, map[string]any{
		"currentParticipants": count,
		"updatedAt":           time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("set participants for class %s: %w", id, err)
	}
	return nil
}

// Delete removes a class. Hard remove, no soft-delete.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, Collection, id); err != nil {
		return fmt.Errorf("delete class %s: %w", id, err)
	}
	return nil
}

func (s *Service) query(ctx context.Context, q docstore.Query) ([]Record, error) {
	docs, err := s.store.List(ctx, Collection, q)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	out := make([]Record, 0, len(docs))
	for _, doc := range docs {
		out = append(out, decode(doc))
	}
	return out, nil
}

func encode(rec Record) map[string]any {
	return map[string]any{
		"title":               rec.Title,
		"date":                rec.Date,
		"time":                rec.Time,
		"instructor":          rec.Instructor,
		"instructorId":        rec.InstructorID,
		"description":         rec.Description,
		"maxParticipants":     rec.MaxParticipants,
		"currentParticipants": rec.CurrentParticipants,
		"createdAt":           rec.CreatedAt.Format(time.RFC3339),
		"updatedAt":           rec.UpdatedAt.Format(time.RFC3339),
	}
}

func decode(doc docstore.Document) Record {
	f := doc.Fields
	return Record{
		ID:                  doc.ID,
		Title:               stringField(f, "title"),
		Date:                stringField(f, "date"),
		Time:                stringField(f, "time"),
		Instructor:          stringField(f, "instructor"),
		InstructorID:        stringField(f, "instructorId"),
		Description:         stringField(f, "description"),
		MaxParticipants:     intField(f, "maxParticipants", DefaultMaxParticipants),
		CurrentParticipants: intField(f, "currentParticipants", 0),
		CreatedAt:           timeField(f, "createdAt"),
		UpdatedAt:           timeField(f, "updatedAt"),
	}
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

// intField tolerates the numeric shapes the backends hand back: native
// ints, json float64, or legacy string-encoded numbers.
func intField(fields map[string]any, key string, fallback int) int {
	switch v := fields[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func timeField(fields map[string]any, key string) time.Time {
	s, _ := fields[key].(string)
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
