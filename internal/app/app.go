package app

import (
	"context"
	"fmt"
	"log/slog"

	"artcurator/internal/config"
	"artcurator/internal/infrastructure/booru"
	"artcurator/internal/infrastructure/media"
	"artcurator/internal/infrastructure/storage"
	"artcurator/internal/infrastructure/vk"
	"artcurator/internal/logging"
	"artcurator/internal/tags"
	"artcurator/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration. All
// collaborator handles live here; nothing reaches for process-wide globals.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.Store
	review    *usecase.Review
	publisher *usecase.Publisher
	rerun     *usecase.RerunTracker
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	searcher := booru.NewClient(cfg.Search.BaseURL, nil)
	fetcher := media.NewFetcher(nil)

	// The group token uploads chat photos; wall reads and writes need the
	// user token.
	botClient := vk.NewClient(cfg.VK.BotToken, cfg.VK.GroupID, nil)
	userClient := vk.NewClient(cfg.VK.UserToken, cfg.VK.GroupID, nil)

	uploads := usecase.NewUploads(store, fetcher, botClient, userClient,
		baseLogger.With("component", "uploads"))

	review := usecase.NewReview(usecase.ReviewDeps{
		Searcher:   searcher,
		Candidates: store,
		Sessions:   store,
		Uploads:    uploads,
		Tags: tags.New(tags.Config{
			Ignore:        cfg.Tags.Ignore,
			StripSuffix:   cfg.Tags.StripSuffix,
			Renames:       cfg.Tags.Renames,
			PriorityToken: cfg.Tags.PriorityToken,
			PriorityAlias: cfg.Tags.PriorityAlias,
			Marker:        cfg.Tags.Marker,
			Separator:     cfg.Tags.Separator,
		}),
		Logger: baseLogger.With("component", "review"),
	})

	counter, err := usecase.NewCounterResolver(userClient, cfg.Publish.CounterPattern)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("counter resolver: %w", err)
	}

	publisher := usecase.NewPublisher(usecase.PublisherDeps{
		Candidates:   store,
		Sessions:     store,
		Uploads:      uploads,
		Wall:         userClient,
		Counter:      counter,
		Interval:     cfg.Publish.Interval(),
		Lookback:     cfg.Publish.LookbackCount,
		TextTemplate: cfg.Publish.TextTemplate,
		Logger:       baseLogger.With("component", "publisher"),
	})

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		review:    review,
		publisher: publisher,
		rerun:     usecase.NewRerunTracker(store),
	}, nil
}

// Review exposes the review engine to the transport layer.
func (a *Application) Review() *usecase.Review { return a.review }

// Publisher exposes the publish scheduler to the transport layer.
func (a *Application) Publisher() *usecase.Publisher { return a.publisher }

// Rerun exposes the rerun-day tracker to the transport layer.
func (a *Application) Rerun() *usecase.RerunTracker { return a.rerun }

// Run performs a single discovery pass; the interactive transport drives
// everything else through the exposed use cases.
func (a *Application) Run(ctx context.Context) error {
	result, err := a.review.Discover(ctx, a.cfg.Search.Query, a.cfg.Search.Limit)
	if err != nil {
		return err
	}
	if !result.Created {
		a.logger.Info("no new candidates found")
		return nil
	}
	a.logger.Info("review session ready", "session", result.SessionID, "candidates", result.NewCount)
	return nil
}

// Close releases the store.
func (a *Application) Close() error {
	return a.store.Close()
}
