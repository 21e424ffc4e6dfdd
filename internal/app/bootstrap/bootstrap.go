package bootstrap

import (
	"context"
	stdhttp "net/http"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"wikigen/app/internal/config"
	"wikigen/app/internal/db"
	"wikigen/app/internal/generation"
	apphttp "wikigen/app/internal/http"
	"wikigen/app/internal/llm"
	"wikigen/app/internal/wiki"
)

type Dependencies struct {
	Config    *config.Config
	Settings  *config.Settings
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
}

type Result struct {
	WikiClient wiki.Client
	Generator  *generation.Client
	HTTPServer *apphttp.Server
	// Database is nil unless the local wiki backend is selected.
	Database *gorm.DB
	Cleanup  func() error
}

// Build composes the application layers from configuration and returns the constructed components.
func Build(ctx context.Context, deps Dependencies) (Result, error) {
	if deps.Config == nil || deps.Settings == nil {
		return Result{}, eris.New("config and settings are required")
	}

	cfg := deps.Config

	wikiClient, database, err := buildWiki(ctx, deps)
	if err != nil {
		return Result{}, err
	}

	closeOnError := func(wrapper error) (Result, error) {
		if closeErr := db.Close(database); closeErr != nil && deps.Logger != nil {
			deps.Logger.WithError(closeErr).Error("closing database after bootstrap failure")
		}
		return Result{}, wrapper
	}

	completer, err := buildCompleter(ctx, deps)
	if err != nil {
		return closeOnError(err)
	}

	generator, err := generation.NewClient(generation.Options{
		Completer: completer,
		Prompts:   deps.Settings,
		Logger:    deps.Logger,
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating generation client"))
	}

	var healthCheck apphttp.Pinger
	if pinger, ok := wikiClient.(apphttp.Pinger); ok {
		healthCheck = pinger
	}

	httpServer, err := apphttp.NewServer(apphttp.Options{
		Wiki:      wikiClient,
		Generator: generator,
		Suffixes: generation.Suffixes{
			Document:   deps.Settings.DocumentSuffix(),
			Cypress:    deps.Settings.CypressSuffix(),
			Playwright: deps.Settings.PlaywrightSuffix(),
			Evaluator:  deps.Settings.EvaluatorSuffix(),
		},
		RedirectDelay:     deps.Settings.RedirectDelay(),
		WikiTimeout:       cfg.WikiTimeout,
		GenerationTimeout: cfg.GenerationTimeout,
		Backend:           cfg.WikiBackend,
		Provider:          cfg.LLMProvider,
		HealthCheck:       healthCheck,
		Logger:            deps.Logger,
		SentryHub:         deps.SentryHub,
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "initialising http server"))
	}

	cleanup := func() error {
		return db.Close(database)
	}

	return Result{
		WikiClient: wikiClient,
		Generator:  generator,
		HTTPServer: httpServer,
		Database:   database,
		Cleanup:    cleanup,
	}, nil
}

func buildWiki(ctx context.Context, deps Dependencies) (wiki.Client, *gorm.DB, error) {
	cfg := deps.Config

	switch cfg.WikiBackend {
	case config.BackendGitLab:
		client, err := wiki.NewGitLabClient(wiki.GitLabOptions{
			BaseURL:    cfg.GitLabURL,
			Token:      cfg.GitLabToken,
			HTTPClient: &stdhttp.Client{Timeout: cfg.WikiTimeout},
			Logger:     deps.Logger,
		})
		if err != nil {
			return nil, nil, eris.Wrap(err, "creating gitlab wiki client")
		}
		return client, nil, nil

	case config.BackendLocal:
		database, err := db.Open(db.Options{Path: cfg.DBPath, Logger: deps.Logger})
		if err != nil {
			return nil, nil, eris.Wrap(err, "opening database")
		}

		if err := wiki.Migrate(ctx, database, deps.Logger); err != nil {
			_ = db.Close(database)
			return nil, nil, eris.Wrap(err, "running wiki migrations")
		}

		store, err := wiki.NewStore(database, cfg.PublicURL, deps.Logger)
		if err != nil {
			_ = db.Close(database)
			return nil, nil, eris.Wrap(err, "creating wiki store")
		}
		return store, database, nil

	default:
		return nil, nil, eris.Wrapf(config.ErrConfig, "unsupported WIKI_BACKEND %q", cfg.WikiBackend)
	}
}

func buildCompleter(ctx context.Context, deps Dependencies) (llm.Completer, error) {
	cfg := deps.Config
	httpClient := &stdhttp.Client{Timeout: cfg.GenerationTimeout}

	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		completer, err := llm.NewOpenAICompleter(llm.OpenAIOptions{
			APIKey:     cfg.LLMAPIKey,
			BaseURL:    cfg.LLMEndpoint,
			Model:      cfg.LLMModel,
			HTTPClient: httpClient,
			Logger:     deps.Logger,
		})
		if err != nil {
			return nil, eris.Wrap(err, "creating openai completer")
		}
		return completer, nil

	case config.ProviderGemini:
		completer, err := llm.NewGeminiCompleter(ctx, llm.GeminiOptions{
			APIKey:     cfg.LLMAPIKey,
			BaseURL:    cfg.LLMEndpoint,
			Model:      cfg.LLMModel,
			HTTPClient: httpClient,
			Logger:     deps.Logger,
		})
		if err != nil {
			return nil, eris.Wrap(err, "creating gemini completer")
		}
		return completer, nil

	default:
		return nil, eris.Wrapf(config.ErrConfig, "unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}
}
