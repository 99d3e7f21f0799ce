package docstore

import (
	"context"
	"errors"
	"fmt"
)

// Store is the collection-oriented document store the services are built on.
// It is the generic contract behind the hosted backend: schema-less documents
// in named collections, with equality/range filtering and an explicit limit.
type Store interface {
	// Create inserts a new document and returns it with its assigned id.
	Create(ctx context.Context, collection string, fields map[string]any) (Document, error)
	// Get returns a single document by id, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)
	// List returns documents matching the query.
	List(ctx context.Context, collection string, q Query) ([]Document, error)
	// Update applies a partial field update and returns the updated document.
	// Fails with ErrNotFound if the id is absent.
	Update(ctx context.Context, collection, id string, fields map[string]any) (Document, error)
	// Delete removes a document by id.
	Delete(ctx context.Context, collection, id string) error
}

// Document is a stored record. Fields hold the raw wire values; typed
// decoding happens in the domain services, never here.
type Document struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "=="
	OpGte Op = ">="
	OpLte Op = "<="
)

// Filter compares a single field against a value. Range operators compare
// the textual form, which orders ISO dates and timestamps correctly.
type Filter struct {
	Field string
	Op    Op
	Value string
}

// Sort orders results by a field.
type Sort struct {
	Field string
	Desc  bool
}

// Query bundles filters, ordering and a result cap. A zero Limit means
// no explicit cap.
type Query struct {
	Filters []Filter
	Sort    []Sort
	Limit   int
}

// Eq is shorthand for an equality filter.
func Eq(field, value string) Filter { return Filter{Field: field, Op: OpEq, Value: value} }

// Gte is shorthand for a >= filter.
func Gte(field, value string) Filter { return Filter{Field: field, Op: OpGte, Value: value} }

// Lte is shorthand for a <= filter.
func Lte(field, value string) Filter { return Filter{Field: field, Op: OpLte, Value: value} }

// ErrNotFound reports a missing document or collection.
var ErrNotFound = errors.New("document not found")

// ErrUnauthorized reports a caller without permission for the operation.
var ErrUnauthorized = errors.New("unauthorized")

// ErrRateLimited reports too many operations in a window.
var ErrRateLimited = errors.New("rate limited")

// ValidationError reports a malformed or missing required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// ConflictError reports a uniqueness or scheduling conflict.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return "conflict: " + e.Reason }

// TransportError wraps a driver or network failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "store transport: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// transport wraps driver errors that are not part of the taxonomy.
func transport(err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Err: err}
}
