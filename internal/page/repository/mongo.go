package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/gowiki/gowiki/internal/page"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo stores pages in one collection (unique on name) and revisions
// in another. Page versions are bumped with $inc so concurrent saves of
// the same page get distinct, contiguous versions. Save writes both
// collections in one transaction, which needs a replica set.
type MongoRepo struct {
	client    *mongo.Client
	pages     *mongo.Collection
	revisions *mongo.Collection
}

// NewMongoRepo ensures the indexes the queries below rely on.
func NewMongoRepo(ctx context.Context, db *mongo.Database) (*MongoRepo, error) {
	r := &MongoRepo{client: db.Client(), pages: db.Collection("pages"), revisions: db.Collection("revisions")}
	if _, err := r.pages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return nil, fmt.Errorf("pages index: %w", err)
	}
	if _, err := r.revisions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}, {Key: "version", Value: -1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}); err != nil {
		return nil, fmt.Errorf("revisions index: %w", err)
	}
	return r, nil
}

func (m *MongoRepo) Get(ctx context.Context, name string) (*page.Page, error) {
	var p page.Page
	if err := m.pages.FindOne(ctx, bson.M{"name": name}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (m *MongoRepo) Exists(ctx context.Context, name string) (bool, error) {
	n, err := m.pages.CountDocuments(ctx, bson.M{"name": name}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (m *MongoRepo) Save(ctx context.Context, p *page.Page, rev *page.Revision) (*page.Revision, error) {
	sess, err := m.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("save page %s: start session: %w", p.Name, err)
	}
	defer sess.EndSession(ctx)

	out, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
		var saved page.Page
		if err := m.pages.FindOneAndUpdate(sc, bson.M{"name": p.Name}, saveUpdate(p), opts).Decode(&saved); err != nil {
			return nil, fmt.Errorf("save page %s: %w", p.Name, err)
		}
		r := newRevision(p, rev, saved.Version)
		if _, err := m.revisions.InsertOne(sc, r); err != nil {
			return nil, fmt.Errorf("save revision %s@%d: %w", p.Name, r.Version, err)
		}
		p.Version, p.CreatedAt = saved.Version, saved.CreatedAt
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*page.Revision), nil
}

// saveUpdate bumps the version and replaces the current state of p.
// Anonymous saves clear the previous editor.
func saveUpdate(p *page.Page) bson.M {
	set := bson.M{
		"content":    p.Content,
		"text":       p.Text,
		"modifiedAt": p.ModifiedAt,
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"createdAt": p.CreatedAt},
		"$inc":         bson.M{"version": 1},
	}
	if p.Editor != nil {
		set["editor"] = p.Editor
	} else {
		update["$unset"] = bson.M{"editor": ""}
	}
	return update
}

func newRevision(p *page.Page, rev *page.Revision, version int64) *page.Revision {
	r := *rev
	r.ID = uuid.NewString()
	r.Name = p.Name
	r.Version = version
	r.CreatedAt = p.ModifiedAt
	return &r
}

var listProjection = bson.M{"content": 0, "text": 0}

func (m *MongoRepo) List(ctx context.Context) ([]*page.Page, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetProjection(listProjection)
	cur, err := m.pages.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	out := []*page.Page{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MongoRepo) History(ctx context.Context, name string, limit int) ([]*page.Revision, error) {
	return m.findRevisions(ctx, bson.M{"name": name}, bson.D{{Key: "version", Value: -1}}, limit)
}

func (m *MongoRepo) Revision(ctx context.Context, name, id string) (*page.Revision, error) {
	var r page.Revision
	if err := m.revisions.FindOne(ctx, bson.M{"_id": id, "name": name}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRevisionNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (m *MongoRepo) Recent(ctx context.Context, limit int) ([]*page.Revision, error) {
	return m.findRevisions(ctx, bson.M{}, bson.D{{Key: "createdAt", Value: -1}}, limit)
}

func (m *MongoRepo) findRevisions(ctx context.Context, filter bson.M, sort bson.D, limit int) ([]*page.Revision, error) {
	opts := options.Find().
		SetSort(sort).
		SetLimit(int64(normLimit(limit))).
		SetProjection(bson.M{"content": 0})
	cur, err := m.revisions.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := []*page.Revision{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Search matches the query as a case-insensitive substring of the name or
// the plain text, the same rule MemoryRepo applies.
func (m *MongoRepo) Search(ctx context.Context, query string, limit int) ([]*page.Page, error) {
	pattern := containsPattern(query)
	filter := bson.M{"$or": bson.A{
		bson.M{"name": pattern},
		bson.M{"text": pattern},
	}}
	opts := options.Find().
		SetSort(bson.D{{Key: "modifiedAt", Value: -1}}).
		SetLimit(int64(normLimit(limit))).
		SetProjection(bson.M{"content": 0})
	cur, err := m.pages.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := []*page.Page{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func containsPattern(query string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}
}
