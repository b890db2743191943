package editors

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gowiki/gowiki/internal/page"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists editor profiles keyed by sub.
type Repository interface {
	// RecordEdit upserts the profile for ed and counts one edit at at.
	RecordEdit(ctx context.Context, ed *page.Editor, at time.Time) (*Profile, error)
	GetBySub(ctx context.Context, sub string) (*Profile, error)
}

// MongoRepository implements Repository using MongoDB
type MongoRepository struct {
	col *mongo.Collection
}

// NewMongoRepository creates a new repository for the given collection
func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) RecordEdit(ctx context.Context, ed *page.Editor, at time.Time) (*Profile, error) {
	filter := bson.M{"sub": ed.Sub}
	update := bson.M{
		"$set": bson.M{
			"nickname":   ed.Nickname,
			"email":      ed.Email,
			"lastEditAt": at,
			"updatedAt":  at,
		},
		"$setOnInsert": bson.M{"createdAt": at},
		"$inc":         bson.M{"edits": 1},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated Profile
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *MongoRepository) GetBySub(ctx context.Context, sub string) (*Profile, error) {
	var p Profile
	if err := r.col.FindOne(ctx, bson.M{"sub": sub}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// MemoryRepository keeps profiles in a map.
type MemoryRepository struct {
	mu       sync.Mutex
	profiles map[string]*Profile
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{profiles: make(map[string]*Profile)}
}

func (r *MemoryRepository) RecordEdit(ctx context.Context, ed *page.Editor, at time.Time) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[ed.Sub]
	if !ok {
		p = &Profile{Sub: ed.Sub, CreatedAt: at}
		r.profiles[ed.Sub] = p
	}
	p.Nickname, p.Email = ed.Nickname, ed.Email
	p.Edits++
	p.LastEditAt, p.UpdatedAt = at, at
	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) GetBySub(ctx context.Context, sub string) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[sub]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}
