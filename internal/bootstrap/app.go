package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"repo-analyzer-client/internal/analyses"
	"repo-analyzer-client/internal/analyzer"
	"repo-analyzer-client/internal/chat"
	"repo-analyzer-client/internal/exports"
	"repo-analyzer-client/internal/services/health"
	"repo-analyzer-client/internal/sessions"
	"repo-analyzer-client/internal/shared/auth"
	"repo-analyzer-client/internal/shared/config"
	"repo-analyzer-client/internal/shared/server"
	"repo-analyzer-client/internal/shared/storage/db"
	"repo-analyzer-client/internal/shared/storage/object"
	localstore "repo-analyzer-client/internal/shared/storage/object/local"
	s3store "repo-analyzer-client/internal/shared/storage/object/s3"
	"repo-analyzer-client/internal/shared/telemetry"
	"repo-analyzer-client/internal/web"
)

// Version is reported by the health endpoint. Overridden at link time.
var Version = "dev"

// App holds shared dependencies and the assembled router.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Store           object.ObjectStore
	Analyzer        *analyzer.Client
	Signer          *auth.Signer
	Templates       *template.Template
	SessionsRepo    sessions.Repo
	ExportsRepo     exports.Repo
	AnalysesService *analyses.Service
	ChatService     *chat.Service
	ExportsService  *exports.Service
	HealthService   *health.Service
	AnalysisHandler *analyses.Handler
	ChatHandler     *chat.Handler
	ExportHandler   *exports.Handler
	WebHandler      *web.Handler

	lastPurge atomic.Int64
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	if err := analyses.RegisterBindingValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client, err := analyzer.NewClient(analyzer.Config{
		BaseURL: cfg.AnalyzerURL,
		Token:   cfg.AnalyzerToken,
		Timeout: cfg.AnalyzerTimeout,
	})
	if err != nil {
		return nil, err
	}

	signer, err := auth.NewSigner(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("session signer: %w", err)
	}

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Store:     store,
		Analyzer:  client,
		Signer:    signer,
		Templates: tmpl,
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		Signer:          app.Signer,
		Templates:       app.Templates,
		Web:             app.WebHandler,
		AnalysisHandler: app.AnalysisHandler,
		ChatHandler:     app.ChatHandler,
		ExportHandler:   app.ExportHandler,
		Health:          app.HealthService,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"analyzer_url": client.BaseURL(),
		"store":        cfg.ObjectStoreType,
		"persistence":  persistenceName(sqlDB),
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.memory_sessions", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultOptions(db.RuntimeProfile()))
	sqlDB, err := db.Shared(ctx, cfg.DatabaseURL, opts)
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_sessions", map[string]any{
				"reason": "database unavailable",
				"error":  err,
			})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func persistenceName(sqlDB *sql.DB) string {
	if sqlDB == nil {
		return "memory"
	}
	return "postgres"
}

func buildServices(app *App) error {
	var sessionRepo sessions.Repo
	var exportRepo exports.Repo
	if app.DB != nil {
		sessionRepo = &sessions.PGRepo{DB: app.DB}
		exportRepo = &exports.PGRepo{DB: app.DB}
	} else {
		sessionRepo = sessions.NewMemoryRepo()
		exportRepo = exports.NewMemoryRepo()
	}

	analysesSvc := &analyses.Service{
		Analyzer: app.Analyzer,
		Sessions: sessionRepo,
		// Leave headroom over the backend timeout before a busy flag is stale.
		BusyTimeout: app.Config.AnalyzerTimeout * 2,
	}
	chatSvc := &chat.Service{Backend: app.Analyzer, Sessions: sessionRepo}
	exportsSvc := &exports.Service{
		Renderer: app.Analyzer,
		Sessions: sessionRepo,
		Repo:     exportRepo,
		Store:    app.Store,
	}

	app.SessionsRepo = sessionRepo
	app.ExportsRepo = exportRepo
	app.AnalysesService = analysesSvc
	app.ChatService = chatSvc
	app.ExportsService = exportsSvc
	app.HealthService = health.NewService(app.Analyzer, Version)
	app.AnalysisHandler = analyses.NewHandler(analysesSvc)
	app.ChatHandler = chat.NewHandler(chatSvc)
	app.ExportHandler = exports.NewHandler(exportsSvc)
	app.WebHandler = &web.Handler{Analyses: analysesSvc, Chat: chatSvc, Exports: exportsSvc}

	if app.AnalysisHandler == nil || app.ChatHandler == nil || app.ExportHandler == nil {
		return errors.New("failed to initialize handlers")
	}
	return nil
}
