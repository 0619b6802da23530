package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"JobTriage/internal/config"
	"JobTriage/internal/domain"
	"JobTriage/internal/infrastructure/remote"
	"JobTriage/internal/infrastructure/scheduler"
	"JobTriage/internal/intake"
	"JobTriage/internal/logging"
	"JobTriage/internal/ports"
	"JobTriage/internal/usecase"
)

var errSettled = errors.New("nothing left in flight")

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	client     *remote.Client
	dispatcher *usecase.Dispatcher
	links      *intake.Registry
	pages      *intake.HTMLExtractor
}

// New builds the application; a nil logger is built from cfg.Logging.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	for _, warning := range cfg.Warnings() {
		baseLogger.Warn("config value replaced", "detail", warning)
	}

	client := remote.NewClient(cfg.Service.BaseURL, nil, cfg.Service.Timeout)
	dispatcher := usecase.NewDispatcher(usecase.DispatcherDeps{
		Service: client,
		Store:   usecase.NewStore(),
		Status:  usecase.NewStatusFlag(cfg.Status.SuccessTTL, cfg.Status.ErrorTTL),
		Logger:  baseLogger.With("component", "dispatcher"),
	})

	pages := intake.NewHTMLExtractor(&http.Client{Timeout: cfg.Service.Timeout})
	links := intake.NewRegistry()
	links.Register(pages)

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		client:     client,
		dispatcher: dispatcher,
		links:      links,
		pages:      pages,
	}
}

// Dispatcher exposes the action entry points and the local job state.
func (a *Application) Dispatcher() *usecase.Dispatcher {
	return a.dispatcher
}

// Profiles reads and writes the resume and context texts.
func (a *Application) Profiles() ports.ProfileService {
	return a.client
}

// SubmitContent extracts job links from pasted text or HTML and submits them.
func (a *Application) SubmitContent(ctx context.Context, content, baseURL string) (domain.SubmitResult, error) {
	urls, err := a.links.Links(ctx, intake.Input{Content: content, BaseURL: baseURL})
	if err != nil {
		return domain.SubmitResult{}, fmt.Errorf("extract links: %w", err)
	}
	if len(urls) == 0 {
		return domain.SubmitResult{}, domain.Validationf("content", "no job links found")
	}
	a.logger.Debug("links extracted", "count", len(urls))
	return a.dispatcher.SubmitURLs(ctx, urls)
}

// SubmitPage downloads a listing page and submits every job link on it.
func (a *Application) SubmitPage(ctx context.Context, pageURL string) (domain.SubmitResult, error) {
	urls, err := a.pages.FetchPage(ctx, pageURL)
	if err != nil {
		return domain.SubmitResult{}, fmt.Errorf("fetch page %s: %w", pageURL, err)
	}
	if len(urls) == 0 {
		return domain.SubmitResult{}, domain.Validationf("page", "no job links found on %s", pageURL)
	}
	return a.dispatcher.SubmitURLs(ctx, urls)
}

// Watch refreshes the job set and keeps polling while jobs are in flight,
// handing the latest snapshot to onChange after changes (bursts are coalesced).
// It returns once nothing is in flight or ctx ends.
func (a *Application) Watch(ctx context.Context, onChange func(usecase.Snapshot)) error {
	if err := a.dispatcher.Refresh(ctx); err != nil {
		return err
	}

	store := a.dispatcher.Store()
	first := store.Snapshot()
	onChange(first)
	if !usecase.ShouldPoll(first.Jobs(), a.cfg.Polling.IncludeFailed) {
		return nil
	}

	changed := make(chan struct{}, 1)
	unsubscribe := store.Subscribe(func(usecase.Snapshot) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	poller := usecase.NewPollingController(
		scheduler.NewIntervalTicker(),
		a.dispatcher,
		store,
		usecase.PollingPolicy{Interval: a.cfg.Polling.Interval, IncludeFailed: a.cfg.Polling.IncludeFailed},
		a.logger.With("component", "poller"),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := poller.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		return poller.Stop(context.Background())
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-changed:
				snap := store.Snapshot()
				onChange(snap)
				if !usecase.ShouldPoll(snap.Jobs(), a.cfg.Polling.IncludeFailed) {
					return errSettled
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errSettled) {
		return err
	}
	return nil
}
