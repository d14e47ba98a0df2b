package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"imaged/internal/domain/ingest"
	platformconfig "imaged/internal/platform/config"
	platformerrors "imaged/internal/platform/errors"
	platformlogging "imaged/internal/platform/logging"
	"imaged/internal/platform/observability"
	platformstorage "imaged/internal/platform/storage"
	httptransport "imaged/internal/transport/http"
	httpimages "imaged/internal/transport/http/images"
)

// Options carries command-line overrides into the bootstrap sequence.
type Options struct {
	ConfigPath string
	Host       string
	Port       int
	UploadDir  string
}

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	options    Options
	config     *platformconfig.Config
	configPath string
	logger     *platformlogging.Logger
	store      *platformstorage.Writer
}

// Run starts the whole service lifecycle: load configuration, initialise
// dependencies, serve HTTP, and shut down gracefully on a signal.
func Run(ctx context.Context, options Options) error {
	state := &appState{options: options}

	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		return err
	}

	config := state.config
	logger := state.logger
	if config == nil || logger == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"config/logger not initialised",
		)
	}

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	if err := waitForShutdown(signalCtx, cancel, logger, group); err != nil {
		return err
	}

	logger.Close()
	return nil
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

// InitGraph declares the ordered initialisation steps and their dependencies.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init",
			Title:     "Initialise logging",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "observability:init",
			Title:     "Initialise span recording",
			DependsOn: []string{"config:load", "logging:init"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initObservabilityStep,
		},
		{
			ID:        "storage:init",
			Title:     "Initialise upload storage",
			DependsOn: []string{"config:load", "logging:init"},
			Kind:      platformerrors.KindStorage,
			Execute:   initStorageStep,
		},
	}
}

func loadConfigStep(ctx context.Context, state *appState) error {
	loader := platformconfig.NewLoader(state.options.ConfigPath).
		WithOverrides(platformconfig.Overrides{
			Host:      state.options.Host,
			Port:      state.options.Port,
			UploadDir: state.options.UploadDir,
		})

	result, err := loader.Load()
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "config:load", "failed to load configuration", err)
	}

	state.config = result.Config
	state.configPath = result.Path
	return nil
}

func initLoggingStep(ctx context.Context, state *appState) error {
	logger, err := platformlogging.New(&platformlogging.Config{
		Level: state.config.Log.Level,
		Dir:   state.config.Log.Dir,
		File:  state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init", "failed to initialise logging", err)
	}

	state.logger = logger
	logger.InfoTag("BOOT", "configuration loaded from %s", displayPath(state.configPath))
	return nil
}

func displayPath(path string) string {
	if path == "" {
		return "built-in defaults"
	}
	return path
}

func initObservabilityStep(ctx context.Context, state *appState) error {
	// Span recording follows the log level; debug runs record per-item spans.
	_, err := observability.Setup(ctx, observability.Config{
		Enabled: state.config.Log.Level == "debug",
	}, state.logger.Slog())
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "observability:init", "failed to initialise span recording", err)
	}
	return nil
}

func initStorageStep(ctx context.Context, state *appState) error {
	store := platformstorage.NewWriter(state.config.Upload.Dir, state.logger)
	if err := store.Ensure(); err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "storage:init", "upload directory is unusable", err)
	}

	state.store = store
	state.logger.InfoTag("BOOT", "upload directory ready: %s", state.config.Upload.Dir)
	return nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) error {
	config := state.config
	logger := state.logger

	httpRouter, err := httptransport.Build(httptransport.Options{
		Config: config,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	fetcher := ingest.NewFetcher(
		config.Upload.FetchTimeoutDuration(),
		config.Upload.MaxFileSize,
		logger,
	)
	resolver := ingest.NewResolver(fetcher)
	coordinator := ingest.NewCoordinator(resolver, state.store, config.Upload.MaxConcurrency, logger)

	imagesService, err := httpimages.NewService(config, logger, coordinator, state.store)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "images:new-service", "failed to create images service", err)
	}

	if err := imagesService.Register(groupCtx, httpRouter.Root); err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "images:register", "failed to register images routes", err)
	}

	addr := config.Server.Host + ":" + strconv.Itoa(config.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: httpRouter.Engine,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "listening on http://%s", addr)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "server shutdown failed: %v", err)
			} else {
				logger.InfoTag("HTTP", "server shut down cleanly")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "server failed: %v", err)
			return err
		}
		return nil
	})

	return nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("BOOT", "received shutdown signal, cleaning up")

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("BOOT", "error during shutdown: %v", err)
			return err
		}
		logger.InfoTag("BOOT", "all services stopped")
	case <-time.After(15 * time.Second):
		logger.ErrorTag("BOOT", "shutdown timed out, exiting")
		return errors.New("shutdown timed out")
	}
	return nil
}
