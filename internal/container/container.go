package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"simeval/adapters/api"
	"simeval/adapters/metrics"
	"simeval/adapters/postgres"
	"simeval/app"
	"simeval/internal/config"
	"simeval/internal/errors"
	"simeval/internal/evaluation"
	"simeval/internal/logging"
	"simeval/internal/migration"
	"simeval/internal/registry"
	"simeval/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Evaluation components
	Catalog  *metrics.Catalog
	Registry *registry.Registry
	Engine   *evaluation.Engine

	// Repositories (data access layer); nil without a database
	ReportRepo ports.ReportRepository

	EvaluationService *app.EvaluationService

	log *slog.Logger
}

// New creates a new dependency injection container. The registry holds the
// built-in tables plus the optional REGISTRY_FILE table.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config:  cfg,
		Catalog: metrics.NewCatalog(),
		log:     logging.New("container"),
	}

	var extra []registry.Table
	if cfg.Data.RegistryFile != "" {
		table, err := registry.LoadTableFile(cfg.Data.RegistryFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load registry file")
		}
		extra = append(extra, table)
	}

	reg, err := registry.Default(c.Catalog, extra...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build measurement registry")
	}
	c.Registry = reg

	c.Engine = evaluation.New(reg, evaluation.Options{
		Timing:  cfg.Evaluation.Timing,
		Failure: cfg.Evaluation.Failure,
		Workers: cfg.Evaluation.Workers,
	})
	c.initService()

	c.log.Debug("container initialized",
		"measurements", reg.Len(),
		"metrics", len(c.Catalog.Names()))
	return c, nil
}

func (c *Container) initService() {
	c.EvaluationService = app.NewEvaluationService(c.Engine, c.ReportRepo, app.SourceOptions{
		InterestedUsers:   c.Config.Data.InterestedUsers,
		InterestedRepos:   c.Config.Data.InterestedRepos,
		CommunitiesFile:   c.Config.Data.CommunitiesFile,
		UserLocationsFile: c.Config.Data.UserLocationsFile,
		TETopN:            c.Config.Data.TETopN,
	})
}

// ConnectDatabase opens the configured report store, applies migrations and
// rewires the service to persist reports. It is a no-op without
// DATABASE_URL.
func (c *Container) ConnectDatabase(ctx context.Context) error {
	if !c.Config.Database.Enabled() {
		return nil
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", c.Config.Database.URL)
	if err != nil {
		return errors.DatabaseError("failed to connect to database", err)
	}
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return errors.Wrap(err, "database migration failed")
	}
	return c.InitWithDatabase(db)
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db
	c.ReportRepo = postgres.NewReportRepository(db)
	c.initService()

	c.log.Info("report store connected")
	return nil
}

// APIServer builds the HTTP API over the container's components.
func (c *Container) APIServer() *api.Server {
	return api.NewServer(c.Registry, c.ReportRepo, c.EvaluationService, api.Config{
		Port:    c.Config.Server.Port,
		DataDir: c.Config.Server.DataDir,
	})
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
