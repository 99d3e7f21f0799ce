package docstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo stores each collection as a Mongo collection, with our string id
// as the _id. Field values are kept as sent; range filters rely on the
// dates and timestamps being ISO strings, which sort correctly.
type Mongo struct {
	db *mongo.Database
}

// NewMongo creates a store over a connected database handle.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

// Create inserts a document with a generated id.
func (m *Mongo) Create(ctx context.Context, collection string, fields map[string]any) (Document, error) {
	if collection == "" {
		return Document{}, &ValidationError{Field: "collection", Reason: "required"}
	}
	id := uuid.NewString()
	doc := bson.M{"_id": id}
	for k, v := range fields {
		doc[k] = v
	}
	if _, err := m.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return Document{}, transport(err)
	}
	return Document{ID: id, Fields: fields}, nil
}

// Get returns a document by id.
func (m *Mongo) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw bson.M
	err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Document{}, ErrNotFound
		}
		return Document{}, transport(err)
	}
	return fromBSON(id, raw), nil
}

// List returns documents matching the query.
func (m *Mongo) List(ctx context.Context, collection string, q Query) ([]Document, error) {
	filter := bson.M{}
	for _, f := range q.Filters {
		switch f.Op {
		case OpEq:
			filter[f.Field] = f.Value
		case OpGte:
			filter[f.Field] = mergeRange(filter[f.Field], "$gte", f.Value)
		case OpLte:
			filter[f.Field] = mergeRange(filter[f.Field], "$lte", f.Value)
		default:
			return nil, &ValidationError{Field: f.Field, Reason: "unsupported operator"}
		}
	}
	opts := options.Find()
	if len(q.Sort) > 0 {
		var sortSpec bson.D
		for _, s := range q.Sort {
			dir := 1
			if s.Desc {
				dir = -1
			}
			sortSpec = append(sortSpec, bson.E{Key: s.Field, Value: dir})
		}
		sortSpec = append(sortSpec, bson.E{Key: "_id", Value: 1})
		opts.SetSort(sortSpec)
	} else {
		opts.SetSort(bson.D{{Key: "_id", Value: 1}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := m.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, transport(err)
	}
	defer cur.Close(ctx)
	var out []Document
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, transport(err)
		}
		id, _ := raw["_id"].(string)
		out = append(out, fromBSON(id, raw))
	}
	return out, transport(cur.Err())
}

// Update applies a partial update via $set.
func (m *Mongo) Update(ctx context.Context, collection, id string, fields map[string]any) (Document, error) {
	res, err := m.db.Collection(collection).UpdateByID(ctx, id, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return Document{}, transport(err)
	}
	if res.MatchedCount == 0 {
		return Document{}, ErrNotFound
	}
	return m.Get(ctx, collection, id)
}

// Delete removes a document by id.
func (m *Mongo) Delete(ctx context.Context, collection, id string) error {
	res, err := m.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return transport(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// mergeRange combines $gte and $lte filters on the same field.
func mergeRange(existing any, op, value string) bson.M {
	rangeFilter, ok := existing.(bson.M)
	if !ok {
		rangeFilter = bson.M{}
	}
	rangeFilter[op] = value
	return rangeFilter
}

func fromBSON(id string, raw bson.M) Document {
	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		fields[k] = v
	}
	return Document{ID: id, Fields: fields}
}
