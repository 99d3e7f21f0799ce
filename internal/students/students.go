package students

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clubsched/internal/docstore"
)

// Collection is the backing docstore collection.
const Collection = "students"

// Statuses a student can hold. New students default to active.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

// Record is a roster entry. BatchTime is a batch-time label that ties
// the student to the classes they attend.
type Record struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	DateOfBirth string    `json:"dateOfBirth,omitempty"`
	Age         string    `json:"age,omitempty"`
	BatchTime   string    `json:"batchTime"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Service wraps the students collection with typed CRUD and the
// application-level duplicate-email check.
type Service struct {
	store docstore.Store
}

// NewService creates a service over the given store.
func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

// Create persists a new student after checking the email is not already
// registered. The check is a query before insert, so it is best-effort,
// not a store-level constraint.
func (s *Service) Create(ctx context.Context, rec Record) (Record, error) {
	if rec.Name == "" {
		return Record{}, &docstore.ValidationError{Field: "name", Reason: "required"}
	}
	rec.Email = strings.TrimSpace(strings.ToLower(rec.Email))
	if rec.Email == "" {
		return Record{}, &docstore.ValidationError{Field: "email", Reason: "required"}
	}
	existing, err := s.store.List(ctx, Collection, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("email", rec.Email)},
		Limit:   1,
	})
	if err != nil {
		return Record{}, fmt.Errorf("check student email: %w", err)
	}
	if len(existing) > 0 {
		return Record{}, &docstore.ConflictError{Reason: "a student with this email already exists"}
	}
	if rec.Status == "" {
		rec.Status = StatusActive
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	doc, err := s.store.Create(ctx, Collection, encode(rec))
	if err != nil {
		return Record{}, fmt.Errorf("create student: %w", err)
	}
	rec.ID = doc.ID
	return rec, nil
}

// Get returns a student by id.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	doc, err := s.store.Get(ctx, Collection, id)
	if err != nil {
		return Record{}, fmt.Errorf("get student %s: %w", id, err)
	}
	return decode(doc), nil
}

// List returns the full roster ordered by name.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	docs, err := s.store.List(ctx, Collection, docstore.Query{
		Sort: []docstore.Sort{{Field: "name"}},
	})
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	out := make([]Record, 0, len(docs))
	for _, doc := range docs {
		out = append(out, decode(doc))
	}
	return out, nil
}

// Update applies a partial profile edit and bumps updatedAt.
func (s *Service) Update(ctx context.Context, id string, fields map[string]any) (Record, error) {
	patch := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		if k == "email" {
			if raw, ok := v.(string); ok {
				v = strings.TrimSpace(strings.ToLower(raw))
			}
		}
		patch[k] = v
	}
	patch["updatedAt"] = time.Now().UTC().Format(time.RFC3339)
	doc, err := s.store.Update(ctx, Collection, id, patch)
	if err != nil {
		return Record{}, fmt.Errorf("update student %s: %w", id, err)
	}
	return decode(doc), nil
}

// Delete removes a student.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, Collection, id); err != nil {
		return fmt.Errorf("delete student %s: %w", id, err)
	}
	return nil
}

func encode(rec Record) map[string]any {
	return map[string]any{
		"name":        rec.Name,
		"phone":       rec.Phone,
		"email":       rec.Email,
		"dateOfBirth": rec.DateOfBirth,
		"age":         rec.Age,
		"batchTime":   rec.BatchTime,
		"status":      rec.Status,
		"notes":       rec.Notes,
		"createdAt":   rec.CreatedAt.Format(time.RFC3339),
		"updatedAt":   rec.UpdatedAt.Format(time.RFC3339),
	}
}

func decode(doc docstore.Document) Record {
	f := doc.Fields
	rec := Record{
		ID:          doc.ID,
		Name:        stringField(f, "name"),
		Phone:       stringField(f, "phone"),
		Email:       stringField(f, "email"),
		DateOfBirth: stringField(f, "dateOfBirth"),
		Age:         stringField(f, "age"),
		BatchTime:   stringField(f, "batchTime"),
		Status:      stringField(f, "status"),
		Notes:       stringField(f, "notes"),
		CreatedAt:   timeField(f, "createdAt"),
		UpdatedAt:   timeField(f, "updatedAt"),
	}
	if rec.Status == "" {
		rec.Status = StatusActive
	}
	return rec
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
