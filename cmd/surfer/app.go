package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/entrhq/surfer/pkg/agent"
	"github.com/entrhq/surfer/pkg/browser"
	"github.com/entrhq/surfer/pkg/config"
	"github.com/entrhq/surfer/pkg/eventlog"
	"github.com/entrhq/surfer/pkg/executor/cli"
	"github.com/entrhq/surfer/pkg/llm/openai"
	"github.com/entrhq/surfer/pkg/logging"
	"github.com/entrhq/surfer/pkg/metrics"
	"github.com/entrhq/surfer/pkg/surfer"
)

const shutdownTimeout = 5 * time.Second

var appLog *logging.Logger

func init() {
	var err error
	appLog, err = logging.NewLogger("main")
	if err != nil {
		appLog.Warnf("Failed to initialize main logger, using stderr fallback: %v", err)
	}
}

// executor runs the conversation against a started app.
type executor interface {
	Run(ctx context.Context) error
}

// askExecutor adapts a one-shot request to the executor interface.
type askExecutor struct {
	exec    *cli.Executor
	request string
}

func (a askExecutor) Run(ctx context.Context) error {
	return a.exec.Ask(ctx, a.request)
}

// app wires the browser, model provider, surfer and agent together.
type app struct {
	cfg     *config.Config
	browser *browser.Browser
	store   *eventlog.Store
	metrics *metrics.Collector
	agent   *agent.DefaultAgent
}

// newApp builds every component from cfg. console may be nil to disable
// action narration.
func newApp(ctx context.Context, cfg *config.Config, console *surfer.Console) (_ *app, err error) {
	a := &app{cfg: cfg, metrics: metrics.NewCollector("surfer")}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	var events eventlog.Logger = eventlog.Nop{}
	if cfg.EventLog.Path != "" {
		a.store, err = eventlog.Open(cfg.EventLog.Path)
		if err != nil {
			return nil, err
		}
		events = a.store
		appLog.Infof("Recording runtime events to %s (session %s)", cfg.EventLog.Path, a.store.SessionID())
	}

	providerOpts := []openai.ProviderOption{
		openai.WithModel(cfg.LLM.Model),
		openai.WithRequestsPerMinute(cfg.LLM.RequestsPerMinute),
		openai.WithMaxRetries(cfg.LLM.MaxRetries),
	}
	if cfg.LLM.BaseURL != "" {
		providerOpts = append(providerOpts, openai.WithBaseURL(cfg.LLM.BaseURL))
	}
	provider, err := openai.NewProvider(cfg.LLM.APIKey, providerOpts...)
	if err != nil {
		return nil, err
	}

	allow, err := browser.NewAllowList(cfg.Browser.AllowList)
	if err != nil {
		return nil, fmt.Errorf("invalid allow list: %w", err)
	}

	browserOpts := browser.Options{
		Channel:        cfg.Browser.Channel,
		Headless:       cfg.Browser.Headless,
		DataDir:        cfg.Browser.DataDir,
		StartPage:      cfg.Browser.StartPage,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		AllowList:      allow,
		Timeout:        cfg.Browser.Timeout,
		Events:         events,
		Metrics:        a.metrics,
	}
	if console != nil {
		browserOpts.OnNewPage = console.NewPage
	}
	a.browser, err = browser.Launch(ctx, browserOpts)
	if err != nil {
		return nil, err
	}

	surferOpts := []surfer.Option{
		surfer.WithViewportWidth(cfg.Browser.ViewportWidth),
		surfer.WithSettleDelay(cfg.Surfer.SettleDelay),
		surfer.WithSummaryTokenLimit(cfg.Surfer.SummaryTokenLimit),
		surfer.WithSummaryModel(cfg.LLM.SummaryModel),
		surfer.WithEventLog(events),
		surfer.WithMetrics(a.metrics),
		surfer.WithConsole(console),
	}
	if cfg.Surfer.DisableDebug {
		surferOpts = append(surferOpts, surfer.WithoutDebugDir())
	} else {
		surferOpts = append(surferOpts, surfer.WithDebugDir(cfg.Surfer.DebugDir))
	}

	s, err := surfer.New(ctx, a.browser, provider, surferOpts...)
	if err != nil {
		return nil, err
	}

	a.agent = agent.NewDefaultAgent(s, agent.WithMetrics(a.metrics))
	return a, nil
}

// Close releases the browser and the event database.
func (a *app) Close() {
	if a.browser != nil {
		if err := a.browser.Close(); err != nil {
			appLog.Warnf("Failed to close browser: %v", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			appLog.Warnf("Failed to close event log: %v", err)
		}
	}
}

// run builds the app, then runs the executor alongside the optional metrics
// listener until the executor returns.
func run(ctx context.Context, cfg *config.Config, narrate bool, newExecutor func(*app) executor) error {
	var console *surfer.Console
	if narrate && cfg.Surfer.Narrate {
		console = surfer.NewConsole(os.Stdout)
	}

	a, err := newApp(ctx, cfg, console)
	if err != nil {
		return err
	}
	defer a.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			appLog.Infof("Serving metrics on %s/metrics", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer cancel()
		return newExecutor(a).Run(gctx)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		// Interrupted by a signal.
		return nil
	}
	return err
}
