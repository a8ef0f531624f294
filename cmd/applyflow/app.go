package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/applyflow/api"
	"github.com/c360studio/applyflow/application"
	"github.com/c360studio/applyflow/apply"
	"github.com/c360studio/applyflow/browser"
	"github.com/c360studio/applyflow/config"
	"github.com/c360studio/applyflow/llm"
	"github.com/c360studio/applyflow/model"
	"github.com/c360studio/applyflow/notify"
	applyrunner "github.com/c360studio/applyflow/processor/apply-runner"
)

// App wires the service together: NATS, stores, the browser, the
// decision model, the HTTP API, and the run processor.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	// NATS
	embeddedServer *server.Server
	natsConn       *nats.Conn
	js             jetstream.JetStream

	// Collaborators
	chrome     *browser.ChromeBrowser
	runnerComp *applyrunner.Component
	httpServer *http.Server
}

// NewApp creates an application instance.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{cfg: cfg, logger: logger}, nil
}

// Start initializes and starts all components.
func (a *App) Start(ctx context.Context) error {
	if err := a.startNATS(); err != nil {
		return fmt.Errorf("start NATS: %w", err)
	}

	store, err := application.NewNATSStore(ctx, a.js)
	if err != nil {
		return fmt.Errorf("initialize application store: %w", err)
	}
	profiles, err := application.NewNATSProfileStore(ctx, a.js)
	if err != nil {
		return fmt.Errorf("initialize profile store: %w", err)
	}

	chrome, err := browser.NewChromeBrowser(ctx, browser.ChromeOptions{
		Headless:       a.cfg.Browser.Headless,
		UserAgent:      a.cfg.Browser.UserAgent,
		ViewportWidth:  a.cfg.Browser.ViewportWidth,
		ViewportHeight: a.cfg.Browser.ViewportHeight,
		NavTimeout:     a.cfg.Browser.NavTimeout,
	})
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	a.chrome = chrome

	events := notify.NewRegistry(notify.NewNATSSink(a.natsConn), a.logger)

	runner := apply.NewRunner(
		store,
		profiles,
		chrome,
		apply.NewInspector(a.cfg.Apply.MaxControls, a.cfg.Apply.MaxActed),
		apply.NewEngine(a.buildLLMClient(), a.cfg.Model.Temperature, a.cfg.Apply.ResumeExcerpt),
		apply.NewDetector(a.cfg.Apply.SuccessURLKeywords, a.cfg.Apply.SuccessPhrases),
		events,
		a.logger,
		apply.Options{
			MaxSteps:     a.cfg.Apply.MaxSteps,
			SubmitLabels: a.cfg.Apply.SubmitLabels,
			NextLabels:   a.cfg.Apply.NextLabels,
			FillSettle:   a.cfg.Browser.FillSettle,
			ClickSettle:  a.cfg.Browser.ClickSettle,
		},
	)

	runnerCfg := applyrunner.DefaultConfig()
	queue, err := applyrunner.NewQueue(ctx, a.js, runnerCfg)
	if err != nil {
		return fmt.Errorf("initialize task queue: %w", err)
	}

	metrics := applyrunner.NewMetrics(prometheus.DefaultRegisterer)
	runnerComp, err := applyrunner.NewComponent(runnerCfg, a.js, runner, store, metrics, a.logger)
	if err != nil {
		return fmt.Errorf("initialize apply-runner: %w", err)
	}
	if err := runnerComp.Start(ctx); err != nil {
		return fmt.Errorf("start apply-runner: %w", err)
	}
	a.runnerComp = runnerComp

	mux := http.NewServeMux()
	api.NewHandler(store, profiles, events, queue, a.logger).
		RegisterHTTPHandlers("/api/v1", mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	a.httpServer = &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("http server stopped", "error", err)
		}
	}()

	a.logger.Info("components initialized")
	return nil
}

// buildLLMClient wires the decision model from configuration. The
// configured endpoint becomes the preferred route for the decision
// capability; the default registry's entries stay as fallbacks.
func (a *App) buildLLMClient() *llm.Client {
	registry := model.NewDefaultRegistry()

	if a.cfg.Model.Name != "" {
		registry.SetEndpoint("configured", &model.EndpointConfig{
			Provider: a.cfg.Model.Provider,
			URL:      a.cfg.Model.Endpoint,
			Model:    a.cfg.Model.Name,
		})
		registry.SetCapability(model.CapabilityDecision, &model.CapabilityConfig{
			Description: "form field decisions",
			Preferred:   []string{"configured"},
		})
		registry.SetDefault("configured")
	}

	return llm.NewClient(registry,
		llm.WithLogger(a.logger),
		llm.WithHTTPClient(&http.Client{Timeout: a.cfg.Model.Timeout}),
	)
}

func (a *App) startNATS() error {
	if a.cfg.NATS.URL != "" && !a.cfg.NATS.Embedded {
		a.logger.Info("connecting to NATS", "url", a.cfg.NATS.URL)
		conn, err := nats.Connect(a.cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		a.natsConn = conn
	} else {
		a.logger.Info("starting embedded NATS server")
		opts := &server.Options{
			Port:      -1, // Random available port
			JetStream: true,
			NoLog:     true,
			NoSigs:    true,
		}

		ns, err := server.NewServer(opts)
		if err != nil {
			return fmt.Errorf("create embedded NATS server: %w", err)
		}

		go ns.Start()

		if !ns.ReadyForConnections(5 * time.Second) {
			ns.Shutdown()
			return fmt.Errorf("embedded NATS server failed to start")
		}
		a.embeddedServer = ns

		conn, err := nats.Connect(ns.ClientURL())
		if err != nil {
			ns.Shutdown()
			return fmt.Errorf("connect to embedded NATS: %w", err)
		}
		a.natsConn = conn
	}

	js, err := jetstream.New(a.natsConn)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	a.js = js
	return nil
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown(timeout time.Duration) {
	a.logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.logger.Warn("http server shutdown", "error", err)
		}
	}

	if a.runnerComp != nil {
		a.runnerComp.Stop()
	}

	if a.chrome != nil {
		if err := a.chrome.Close(); err != nil {
			a.logger.Warn("browser shutdown", "error", err)
		}
	}

	if a.natsConn != nil {
		a.natsConn.Drain()
		a.natsConn.Close()
	}
	if a.embeddedServer != nil {
		a.embeddedServer.Shutdown()
		a.embeddedServer.WaitForShutdown()
	}
}
