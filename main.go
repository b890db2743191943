package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gowiki/gowiki/handlers"
	"github.com/gowiki/gowiki/internal/config"
	"github.com/gowiki/gowiki/internal/editors"
	"github.com/gowiki/gowiki/internal/oidc"
	"github.com/gowiki/gowiki/internal/page/handler"
	"github.com/gowiki/gowiki/internal/page/repository"
	"github.com/gowiki/gowiki/internal/page/service"
	"github.com/gowiki/gowiki/internal/storage"
	"github.com/gowiki/gowiki/internal/tokens"
	"github.com/gowiki/gowiki/internal/wiring"
	"github.com/gowiki/gowiki/pkg/logger"
	"github.com/gowiki/gowiki/pkg/metrics"
	"github.com/gowiki/gowiki/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: keycloak=%v mongo=%v redis=%v jwt_secret_set=%v",
		cfg.Keycloak.URL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.JWT.Secret != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(middleware.LogSamplingConfig{
		Tick:  cfg.Wiki.LogSampling,
		After: time.Second,
	}))

	// Lightweight CORS for API clients: common headers and OPTIONS preflight.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	redisClient := wiring.ConnectRedis(ctx, cfg.Redis)
	// The global limiter runs before authentication and keys on the client
	// IP. Write routes get a second limiter after authentication, keyed on
	// the editor's subject.
	var writeLimiter gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		newLimiter := func() gin.HandlerFunc {
			if cfg.RateLimit.UseRedis && redisClient != nil {
				win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
				return middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
			}
			return middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		}
		r.Use(newLimiter())
		writeLimiter = newLimiter()
	}

	store, err := wiring.OpenStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("open page store: %v", err)
	}
	defer store.Close()

	var repo repository.Repository = store.Pages
	if redisClient != nil {
		repo = repository.NewCachedRepo(repo, redisClient, cfg.Wiki.CacheTTL)
	}
	svc := service.New(repo, service.Options{
		HistoryLimit: cfg.Wiki.HistoryLimit,
		RefererHider: cfg.Wiki.RefererHider,
		DiffContext:  cfg.Wiki.DiffContext,
		Cache:        redisClient,
		CacheTTL:     cfg.Wiki.CacheTTL,
	})

	var verifier middleware.Verifier
	if cfg.EditingEnabled() {
		if cfg.Keycloak.URL != "" && cfg.Keycloak.ClientID != "" {
			ver, err := oidc.NewKeycloakVerifier(ctx, cfg.Keycloak)
			if err != nil {
				logger.Warnf("failed to initialize OIDC verifier: %v", err)
			} else {
				verifier = ver
			}
		} else {
			verifier = tokens.NewVerifier(cfg.JWT.Secret)
		}
	}
	if verifier == nil {
		logger.Warn("no token verifier configured; page edits are disabled")
	}

	var files storage.Attachments
	var minio *storage.MinIOStorage
	if mcfg := storage.LoadMinIOConfig(); mcfg.Endpoint != "" {
		minio, err = storage.NewMinIOStorage(ctx, mcfg)
		if err != nil {
			logger.Warnf("attachments disabled: %v", err)
		} else {
			files = minio
		}
	}

	checks := map[string]handlers.Check{
		"storage": store.Ping,
		"oidc": func(context.Context) bool {
			return cfg.Keycloak.URL == "" || verifier != nil
		},
	}
	if cfg.Redis.Host != "" {
		checks["redis"] = func(ctx context.Context) bool {
			return redisClient != nil && redisClient.Ping(ctx).Err() == nil
		}
	}
	if minio != nil {
		checks["attachments"] = minio.Ping
	}
	handlers.RegisterHealth(r, startTime, checks)
	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.New(svc, handler.Options{
		SiteName:     cfg.Wiki.SiteName,
		FrontPage:    cfg.Wiki.FrontPage,
		BaseURL:      cfg.Wiki.BaseURL,
		Verifier:     verifier,
		WriteLimiter: writeLimiter,
		Editors:      editors.NewService(store.Editors),
		Attachments:  files,
	}).Register(r)

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("starting wiki on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown: %v", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
