package container

import (
	"context"
	"log/slog"
	"time"

	"github.com/FACorreiaa/go-lms-sdk/app/observability/metrics"
	"github.com/FACorreiaa/go-lms-sdk/config"
	"github.com/FACorreiaa/go-lms-sdk/internal/api/auth"
	"github.com/FACorreiaa/go-lms-sdk/internal/api/records"
	"github.com/FACorreiaa/go-lms-sdk/internal/api/tutor"
	"github.com/FACorreiaa/go-lms-sdk/internal/remote"
	"github.com/FACorreiaa/go-lms-sdk/internal/schema"
	"github.com/FACorreiaa/go-lms-sdk/internal/store"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *slog.Logger
	Registry       *schema.Registry
	Backend        remote.Backend
	RecordStore    store.RecordStore
	AuthService    auth.AuthService
	AuthHandler    *auth.AuthHandler
	RecordsHandler *records.RecordsHandler
	TutorHandler   *tutor.TutorHandler // nil when the AI key is absent
}

// NewContainer initializes and returns a new dependency container
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	registry := schema.NewRegistry(schema.DefaultDefinitions())

	// The memory backend keeps identical CAS semantics in-process; useful
	// for local development without remote credentials.
	var backend remote.Backend
	if cfg.Remote.UseMemory {
		logger.Warn("Using in-memory backend; data will not survive a restart")
		backend = remote.NewMemoryBackend()
	} else {
		backend = remote.NewBlobStore(cfg.Remote, logger, metrics.Get())
	}

	recordStore := store.NewRecordStore(registry, backend, logger)

	sessionTTL := cfg.Auth.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	authService := auth.NewAuthService(recordStore, sessionTTL, cfg.Auth.OTPTTL, nil, logger)

	c := &Container{
		Config:         cfg,
		Logger:         logger,
		Registry:       registry,
		Backend:        backend,
		RecordStore:    recordStore,
		AuthService:    authService,
		AuthHandler:    auth.NewAuthHandler(authService, logger),
		RecordsHandler: records.NewRecordsHandler(recordStore, registry, logger),
	}

	// The tutor is optional: without an API key the rest of the platform
	// runs unchanged.
	if aiClient, err := tutor.NewAIClient(ctx); err != nil {
		logger.Warn("AI tutor disabled", slog.Any("reason", err))
	} else {
		tutorService := tutor.NewTutorService(recordStore, aiClient, logger)
		c.TutorHandler = tutor.NewTutorHandler(tutorService, logger)
	}

	return c, nil
}
