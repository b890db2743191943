// Package wiring opens the backing services shared by the server and wikictl.
package wiring

import (
	"context"
	"time"

	"github.com/gowiki/gowiki/internal/config"
	"github.com/gowiki/gowiki/internal/database"
	"github.com/gowiki/gowiki/internal/editors"
	"github.com/gowiki/gowiki/internal/page/repository"
	"github.com/gowiki/gowiki/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const mongoConnectAttempts = 5

// Store bundles the page and editor repositories of one backend.
type Store struct {
	Pages   repository.Repository
	Editors editors.Repository
	// Backend is "mongo" or "memory".
	Backend string
	client  *mongo.Client
}

// OpenStore uses MongoDB when MONGODB_URI is set and the in-memory
// repositories otherwise.
func OpenStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	if cfg.MongoDB.URI == "" {
		logger.Warn("MONGODB_URI not set; pages are kept in memory and lost on restart")
		return &Store{
			Pages:   repository.NewMemoryRepo(),
			Editors: editors.NewMemoryRepository(),
			Backend: "memory",
		}, nil
	}
	client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, mongoConnectAttempts)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDB.Database)
	pages, err := repository.NewMongoRepo(ctx, db)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	logger.Infof("using MongoDB database %s for pages", cfg.MongoDB.Database)
	return &Store{
		Pages:   pages,
		Editors: editors.NewMongoRepository(db.Collection("editors")),
		Backend: "mongo",
		client:  client,
	}, nil
}

// Ping reports whether the backend answers.
func (s *Store) Ping(ctx context.Context) bool {
	if s.client == nil {
		return true
	}
	return s.client.Ping(ctx, nil) == nil
}

func (s *Store) Close() {
	if s.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		logger.Warnf("mongo disconnect: %v", err)
	}
}

// ConnectRedis returns a client when Redis is configured and answers a
// ping, nil otherwise. Redis is optional: without it the caches and the
// shared rate limiter are off.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	addr := cfg.Addr()
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password, DB: cfg.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
		_ = client.Close()
		return nil
	}
	logger.Infof("connected to Redis at %s", addr)
	return client
}
