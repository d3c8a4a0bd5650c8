package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/entrhq/surfer/pkg/config"
	"github.com/entrhq/surfer/pkg/executor/cli"
	"github.com/entrhq/surfer/pkg/executor/tui"
	"github.com/entrhq/surfer/pkg/logging"
)

// options holds command-line flags. Flags override the config file only
// when set explicitly.
type options struct {
	configPath  string
	apiKey      string
	baseURL     string
	model       string
	headless    bool
	channel     string
	dataDir     string
	startPage   string
	debugDir    string
	allow       []string
	eventDB     string
	metricsAddr string
	logLevel    string
	useTUI      bool
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "surfer",
		Short: "A multimodal agent that browses the web for you",
		Long: `surfer drives a real browser to answer requests. Each turn it looks at an
annotated screenshot of the page, picks one browser action, performs it and
reports what it did.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, !opts.useTUI, func(a *app) executor {
				if opts.useTUI {
					return tui.NewExecutor(a.agent)
				}
				return cli.NewExecutor(a.agent, cli.WithShowActions(opts.verbose))
			})
		},
	}
	cmd.SetVersionTemplate("surfer v{{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default ~/.surfer/config.yaml)")
	flags.StringVar(&opts.apiKey, "api-key", "", "OpenAI API key (or set OPENAI_API_KEY)")
	flags.StringVar(&opts.baseURL, "base-url", "", "OpenAI-compatible API base URL (or set OPENAI_BASE_URL)")
	flags.StringVar(&opts.model, "model", "", "model to use (default "+config.DefaultModel+")")
	flags.BoolVar(&opts.headless, "headless", true, "run the browser without a window")
	flags.StringVar(&opts.channel, "channel", "", "browser to launch: chromium or firefox")
	flags.StringVar(&opts.dataDir, "data-dir", "", "persistent browser profile directory")
	flags.StringVar(&opts.startPage, "start-page", "", "page to open at startup and on /reset")
	flags.StringVar(&opts.debugDir, "debug-dir", "", "directory for live debug screenshots (default working directory)")
	flags.StringArrayVar(&opts.allow, "allow", nil, "allow navigation only to matching URLs (prefix or glob, repeatable)")
	flags.StringVar(&opts.eventDB, "event-db", "", "SQLite database for runtime events")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.BoolVar(&opts.useTUI, "tui", false, "use the full-screen terminal UI")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "print tool arguments, results and token usage")

	cmd.AddCommand(newAskCmd(opts), newVersionCmd())
	return cmd
}

func newAskCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <request>",
		Short: "Run a single request and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			request := strings.Join(args, " ")
			return run(cmd.Context(), cfg, true, func(a *app) executor {
				return askExecutor{
					exec:    cli.NewExecutor(a.agent, cli.WithShowActions(opts.verbose), cli.WithWriter(cmd.OutOrStdout())),
					request: request,
				}
			})
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "surfer v%s\n", version)
		},
	}
}

// loadConfig reads the config file and applies explicitly set flags on top.
func loadConfig(opts *options, changed func(name string) bool) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	applyFlags(cfg, opts, changed)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	if err := logging.SetLevel(cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	return cfg, nil
}

// applyFlags copies every flag the user set onto cfg.
func applyFlags(cfg *config.Config, opts *options, changed func(name string) bool) {
	set := func(name string, dst *string, value string) {
		if changed(name) {
			*dst = value
		}
	}
	set("api-key", &cfg.LLM.APIKey, opts.apiKey)
	set("base-url", &cfg.LLM.BaseURL, opts.baseURL)
	set("model", &cfg.LLM.Model, opts.model)
	set("channel", &cfg.Browser.Channel, opts.channel)
	set("data-dir", &cfg.Browser.DataDir, opts.dataDir)
	set("start-page", &cfg.Browser.StartPage, opts.startPage)
	set("debug-dir", &cfg.Surfer.DebugDir, opts.debugDir)
	set("event-db", &cfg.EventLog.Path, opts.eventDB)
	set("metrics-addr", &cfg.Metrics.Addr, opts.metricsAddr)
	set("log-level", &cfg.Logging.Level, opts.logLevel)

	if changed("headless") {
		cfg.Browser.Headless = opts.headless
	}
	if changed("allow") {
		cfg.Browser.AllowList = append([]string(nil), opts.allow...)
	}
}
