package container

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"savdash/adapters/excel"
	"savdash/adapters/llm"
	"savdash/adapters/llm/heuristic"
	"savdash/adapters/memory"
	"savdash/adapters/postgres"
	"savdash/app"
	"savdash/internal/config"
	"savdash/internal/migration"
	"savdash/internal/statistics"
	"savdash/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	DatasetRepo ports.DatasetRepository
	SessionRepo ports.SessionRepository

	// Domain components
	Engine    *statistics.Engine
	Reader    ports.DatasetReader
	Generator ports.FilterGenerator

	// Services
	Datasets   *app.DatasetService
	Statistics *app.StatisticsService
	Filters    *app.FilterService
}

// New creates a container backed by in-memory repositories. Call
// InitWithDatabase to switch to PostgreSQL.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config:      cfg,
		DatasetRepo: memory.NewDatasetRepository(),
		SessionRepo: memory.NewSessionRepository(),
		Engine: statistics.NewEngine(statistics.Config{
			Workers:             cfg.Statistics.Workers,
			HighMissingPercent:  cfg.Statistics.HighMissingPercent,
			ExtraMissingPhrases: cfg.Statistics.MissingPhrases,
		}),
		Reader: excel.NewImporter(excel.DefaultReaderConfig()),
	}

	gen, err := newGenerator(cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize filter generator: %w", err)
	}
	c.Generator = gen

	c.initServices()
	return c, nil
}

// Open creates a container and connects to PostgreSQL when a database URL is configured
func Open(ctx context.Context, cfg *config.Config) (*Container, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		zap.L().Info("no database configured, using in-memory repositories")
		return c, nil
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := c.InitWithDatabase(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// InitWithDatabase migrates the schema and swaps in PostgreSQL repositories
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	c.DB = db
	c.DatasetRepo = postgres.NewDatasetRepository(db)
	c.SessionRepo = postgres.NewSessionRepository(db)
	c.initServices()

	zap.L().Info("container initialized with database", zap.String("schema_version", runner.Version()))
	return nil
}

// LoadInitialData imports the configured export file, if any
func (c *Container) LoadInitialData(ctx context.Context) error {
	path := c.Config.Data.ExcelFile
	if path == "" {
		return nil
	}
	_, err := c.Datasets.Import(ctx, "", path)
	return err
}

// Close releases the database connection
func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

const generationGrace = 30 * time.Second

func (c *Container) initServices() {
	c.Datasets = app.NewDatasetService(c.DatasetRepo, c.Reader)
	c.Statistics = app.NewStatisticsService(c.DatasetRepo, c.Engine, c.Config.Statistics.TopN)
	c.Filters = app.NewFilterService(c.DatasetRepo, c.SessionRepo, c.Generator, heuristic.MaxFilters)
	if c.Config.AI.Enabled() {
		// leave room for the heuristic fallback after a timed-out model call
		c.Filters.SetGenerationTimeout(c.Config.AI.Timeout + generationGrace)
	}
}

// newGenerator selects the language-model generator when an API key is
// configured and the heuristic classifier otherwise.
func newGenerator(cfg config.AIConfig) (ports.FilterGenerator, error) {
	fallback := heuristic.NewGenerator()
	if !cfg.Enabled() {
		zap.L().Info("no AI key configured, using heuristic filter generator")
		return fallback, nil
	}

	gen, err := llm.NewGeneratorAdapter(llm.Config{
		Provider:            cfg.Provider,
		Model:               cfg.Model,
		APIKey:              cfg.APIKey,
		BaseURL:             cfg.BaseURL,
		Temperature:         cfg.Temperature,
		MaxTokens:           cfg.MaxTokens,
		Timeout:             cfg.Timeout,
		FallbackToHeuristic: cfg.FallbackToHeuristic,
	}, fallback)
	if err != nil {
		return nil, err
	}
	zap.L().Info("using language-model filter generator",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model))
	return gen, nil
}
