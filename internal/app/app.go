// Package app wires configuration into repositories and services. Both the
// HTTP server and the command line tool build their dependencies here.
package app

import (
	"context"
	"fmt"

	"notedev-server/internal/config"
	"notedev-server/internal/llm"
	"notedev-server/internal/repository"
	"notedev-server/internal/seed"
	"notedev-server/internal/service"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"go.uber.org/zap"
)

type Stores struct {
	Notes     repository.NoteRepository
	Templates repository.TemplateRepository
	Documents repository.DocumentRepository

	close func()
}

// OpenStores connects to the configured database driver.
func OpenStores(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Stores, error) {
	switch cfg.Driver {
	case config.DriverCouchDB:
		client, err := kivik.New("couch", cfg.CouchURL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to CouchDB: %w", err)
		}

		created, err := repository.EnsureCouchDB(ctx, client, cfg.Name)
		if err != nil {
			client.Close()
			return nil, err
		}
		if created {
			logger.Info("Created database", zap.String("name", cfg.Name))
		}
		logger.Info("Connected to CouchDB", zap.String("host", cfg.Host), zap.String("port", cfg.Port))

		return &Stores{
			Notes:     repository.NewNoteRepository(client, cfg.Name),
			Templates: repository.NewTemplateRepository(client, cfg.Name),
			Documents: repository.NewDocumentRepository(client, cfg.Name),
			close:     func() { client.Close() },
		}, nil

	case config.DriverPostgres:
		pool, err := repository.NewPostgresPool(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		logger.Info("Connected to PostgreSQL")

		return &Stores{
			Notes:     repository.NewPostgresNoteRepository(pool),
			Templates: repository.NewPostgresTemplateRepository(pool),
			Documents: repository.NewPostgresDocumentRepository(pool),
			close:     pool.Close,
		}, nil

	case config.DriverMemory:
		logger.Warn("Using in-memory storage; data is lost on exit")
		store := repository.NewMemoryStore()
		return &Stores{
			Notes:     store.Notes(),
			Templates: store.Templates(),
			Documents: store.Documents(),
			close:     func() {},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

type Services struct {
	Notes      *service.NoteService
	Templates  *service.TemplateService
	Documents  *service.DocumentService
	Transforms *service.TransformService
	Exports    *service.ExportService
	Auth       *service.AuthService
}

// NewServices builds the service layer. notifier may be nil.
func NewServices(cfg *config.Config, stores *Stores, provider llm.Provider, notifier service.DocumentNotifier, logger *zap.Logger) *Services {
	documents := service.NewDocumentService(stores.Documents, cfg.AI.Model, notifier, logger)

	return &Services{
		Notes:      service.NewNoteService(stores.Notes, logger),
		Templates:  service.NewTemplateService(stores.Templates, logger),
		Documents:  documents,
		Transforms: service.NewTransformService(stores.Notes, stores.Templates, documents, provider, cfg.AI.MaxTokens, logger),
		Exports:    service.NewExportService(documents, logger),
		Auth: service.NewAuthService(
			cfg.Admin.Email,
			cfg.Admin.PasswordHash,
			cfg.JWT.Secret,
			cfg.JWT.Expiration,
			cfg.JWT.RefreshTokenExpiration,
			logger,
		),
	}
}

func NewProvider(ctx context.Context, cfg config.AIConfig) (llm.Provider, error) {
	return llm.New(ctx, llm.Config{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
	})
}

// SeedTemplates upserts the built-in templates.
func SeedTemplates(ctx context.Context, templates *service.TemplateService) error {
	defaults, err := seed.Templates()
	if err != nil {
		return err
	}
	return templates.Seed(ctx, defaults)
}
