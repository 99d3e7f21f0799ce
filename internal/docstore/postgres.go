package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Postgres stores documents in a single jsonb-backed table, keyed by
// (collection, id). Filters and ordering compare the textual form of a
// field, which is what the contract promises.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a store over an open connection.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the backing table when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			fields     JSONB NOT NULL DEFAULT '{}'::jsonb,
			PRIMARY KEY (collection, id)
		)
	`)
	return transport(err)
}

// Create inserts a document with a generated id.
func (p *Postgres) Create(ctx context.Context, collection string, fields map[string]any) (Document, error) {
	if collection == "" {
		return Document{}, &ValidationError{Field: "collection", Reason: "required"}
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return Document{}, &ValidationError{Field: "fields", Reason: err.Error()}
	}
	id := uuid.NewString()
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, fields)
		VALUES ($1, $2, $3::jsonb)
	`, collection, id, string(payload))
	if err != nil {
		return Document{}, transport(err)
	}
	return Document{ID: id, Fields: fields}, nil
}

// Get returns a document by id.
func (p *Postgres) Get(ctx context.Context, collection, id string) (Document, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT fields FROM documents WHERE collection = $1 AND id = $2
	`, collection, id)
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, transport(err)
	}
	return decodeDoc(id, raw)
}

// List returns documents matching the query.
func (p *Postgres) List(ctx context.Context, collection string, q Query) ([]Document, error) {
	query := `SELECT id, fields FROM documents WHERE collection = $1`
	args := []any{collection}
	for _, f := range q.Filters {
		op, ok := sqlOp(f.Op)
		if !ok {
			return nil, &ValidationError{Field: f.Field, Reason: "unsupported operator"}
		}
		query += fmt.Sprintf(" AND fields->>($%d::text) %s $%d", len(args)+1, op, len(args)+2)
		args = append(args, f.Field, f.Value)
	}
	for i, s := range q.Sort {
		if i == 0 {
			query += " ORDER BY "
		} else {
			query += ", "
		}
		query += fmt.Sprintf("fields->>($%d::text)", len(args)+1)
		args = append(args, s.Field)
		if s.Desc {
			query += " DESC"
		}
	}
	if len(q.Sort) > 0 {
		query += ", id"
	} else {
		query += " ORDER BY id"
	}
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, q.Limit)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, transport(err)
	}
	defer rows.Close()
	var out []Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, transport(err)
		}
		doc, err := decodeDoc(id, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, transport(rows.Err())
}

// Update merges a partial field set into the stored document.
func (p *Postgres) Update(ctx context.Context, collection, id string, fields map[string]any) (Document, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return Document{}, &ValidationError{Field: "fields", Reason: err.Error()}
	}
	row := p.db.QueryRowContext(ctx, `
		UPDATE documents
		SET fields = fields || $3::jsonb
		WHERE collection = $1 AND id = $2
		RETURNING fields
	`, collection, id, string(payload))
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, transport(err)
	}
	return decodeDoc(id, raw)
}

// Delete removes a document by id.
func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	res, err := p.db.ExecContext(ctx, `
		DELETE FROM documents WHERE collection = $1 AND id = $2
	`, collection, id)
	if err != nil {
		return transport(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func sqlOp(op Op) (string, bool) {
	switch op {
	case OpEq:
		return "=", true
	case OpGte:
		return ">=", true
	case OpLte:
		return "<=", true
	}
	return "", false
}

func decodeDoc(id string, raw []byte) (Document, error) {
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Document{}, transport(err)
	}
	return Document{ID: id, Fields: fields}, nil
}
