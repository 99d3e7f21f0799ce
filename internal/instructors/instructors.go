package instructors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"clubsched/internal/docstore"
)

// Collection is the backing docstore collection.
const Collection = "instructors"

// Record is an instructor account. The password hash and refresh token
// live only in the store, never on this struct.
type Record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service manages instructor accounts and their refresh tokens.
type Service struct {
	store docstore.Store
}

// NewService creates a service over the given store.
func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

// Register creates an account with a bcrypt-hashed password. Emails are
// unique at the application level, checked by query before insert.
func (s *Service) Register(ctx context.Context, name, email, password string) (Record, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" {
		return Record{}, &docstore.ValidationError{Field: "name", Reason: "name and email required"}
	}
	if len(password) < 8 {
		return Record{}, &docstore.ValidationError{Field: "password", Reason: "at least 8 characters"}
	}
	existing, err := s.findByEmail(ctx, email)
	if err != nil {
		return Record{}, err
	}
	if existing != nil {
		return Record{}, &docstore.ConflictError{Reason: "an instructor with this email already exists"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Record{}, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	doc, err := s.store.Create(ctx, Collection, map[string]any{
		"name":         name,
		"email":        email,
		"passwordHash": string(hash),
		"createdAt":    now.Format(time.RFC3339),
	})
	if err != nil {
		return Record{}, fmt.Errorf("create instructor: %w", err)
	}
	return Record{ID: doc.ID, Name: name, Email: email, CreatedAt: now}, nil
}

// Authenticate verifies credentials and returns the account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Record, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	doc, err := s.findByEmail(ctx, email)
	if err != nil {
		return Record{}, err
	}
	if doc == nil {
		return Record{}, docstore.ErrUnauthorized
	}
	hash, _ := doc.Fields["passwordHash"].(string)
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return Record{}, docstore.ErrUnauthorized
	}
	return decode(*doc), nil
}

// SaveRefreshToken stores the current refresh token for rotation checks.
func (s *Service) SaveRefreshToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	_, err := s.store.Update(ctx, Collection, id, map[string]any{
		"refreshToken":     token,
		"refreshExpiresAt": expiresAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// CheckRefreshToken verifies the presented token is the stored, unexpired
// one and returns the account.
func (s *Service) CheckRefreshToken(ctx context.Context, id, token string) (Record, error) {
	doc, err := s.store.Get(ctx, Collection, id)
	if err != nil {
		return Record{}, fmt.Errorf("get instructor %s: %w", id, err)
	}
	stored, _ := doc.Fields["refreshToken"].(string)
	if stored == "" || stored != token {
		return Record{}, docstore.ErrUnauthorized
	}
	expRaw, _ := doc.Fields["refreshExpiresAt"].(string)
	exp, err := time.Parse(time.RFC3339, expRaw)
	if err != nil || time.Now().After(exp) {
		return Record{}, docstore.ErrUnauthorized
	}
	return decode(doc), nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (*docstore.Document, error) {
	docs, err := s.store.List(ctx, Collection, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("email", email)},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("find instructor: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return &docs[0], nil
}

func decode(doc docstore.Document) Record {
	name, _ := doc.Fields["name"].(string)
	email, _ := doc.Fields["email"].(string)
	createdRaw, _ := doc.Fields["createdAt"].(string)
	created, _ := time.Parse(time.RFC3339, createdRaw)
	return Record{ID: doc.ID, Name: name, Email: email, CreatedAt: created}
}
