package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"timesgate/config"
	"timesgate/internal/application"
	"timesgate/internal/domain"
	"timesgate/internal/infra"
	"timesgate/internal/infra/journal"
	"timesgate/internal/infra/pushover"
	"timesgate/internal/infra/timesgate"
)

var (
	configPath string
	hostFlag   string
	portFlag   int
	timeoutArg time.Duration
	logLevel   string
)

// app is built once per invocation by the root PersistentPreRunE.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	controller *application.Controller
}

var current *app

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "timesgate",
		Short:         "Control a Divoom Times Gate over its local HTTP API",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			current = a
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	pf.StringVarP(&hostFlag, "host", "H", "", "device IP address or hostname")
	pf.IntVarP(&portFlag, "port", "p", 0, "device HTTP port")
	pf.DurationVarP(&timeoutArg, "timeout", "t", 0, "request timeout")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(deviceCommands()...)
	rootCmd.AddCommand(displayCommands()...)
	rootCmd.AddCommand(toolCommands()...)
	rootCmd.AddCommand(advancedCommands()...)
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		if cfg.Device.Name == "" || cfg.Device.Name == cfg.Device.Host {
			cfg.Device.Name = hostFlag
		}
		cfg.Device.Host = hostFlag
	}
	if flags.Changed("port") {
		cfg.Device.Port = portFlag
	}
	if flags.Changed("timeout") {
		cfg.Device.Timeout = timeoutArg.String()
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg.Log, os.Stderr)

	timeout, _ := cfg.Device.TimeoutDuration()
	conn := timesgate.NewConnection(cfg.Device.Host, cfg.Device.Port, timeout)
	client := timesgate.NewClient(conn, timesgate.WithLogger(logger))
	device := timesgate.NewDevice(client)

	var notifier application.Notifier
	if cfg.Pushover.Enabled {
		notifier = pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey, cfg.Pushover.Title)
	} else {
		notifier = &application.NoopNotifier{}
	}

	var store application.Journal = &application.NoopJournal{}
	var ttl time.Duration
	if cfg.Journal.Enabled {
		ttl, err = cfg.Journal.TTLDuration()
		if err != nil {
			logger.Warn("invalid journal ttl, using default", "error", err, "value", cfg.Journal.TTL)
			ttl = 30 * 24 * time.Hour
		}
		s, err := journal.NewDynamoDBStore(cmd.Context(), cfg.Journal.Table, cfg.Journal.Region, logger)
		if err != nil {
			return nil, fmt.Errorf("creating journal: %w", err)
		}
		store = s
	}

	controller := application.NewController(
		device,
		cfg.Device.Name,
		store,
		notifier,
		retryConfig(cfg.Retry, logger),
		ttl,
		logger,
	)

	logger.Debug("device client ready", "url", conn.URL, "timeout", conn.Timeout)

	return &app{cfg: cfg, logger: logger, controller: controller}, nil
}

func retryConfig(cfg config.RetryConfig, logger *slog.Logger) infra.RetryConfig {
	rc := infra.DefaultRetryConfig()
	rc.MaxAttempts = cfg.MaxAttempts
	rc.Multiplier = cfg.Multiplier

	if d, err := time.ParseDuration(cfg.InitialDelay); err != nil {
		logger.Warn("invalid retry initial delay, using default", "error", err, "value", cfg.InitialDelay)
	} else {
		rc.InitialDelay = d
	}
	if d, err := time.ParseDuration(cfg.MaxDelay); err != nil {
		logger.Warn("invalid retry max delay, using default", "error", err, "value", cfg.MaxDelay)
	} else {
		rc.MaxDelay = d
	}
	return rc
}

func setupLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// run executes one action and prints its result as JSON. A failed action
// still prints its result and makes the command exit non-zero.
func run(cmd *cobra.Command, action domain.Action, params any) error {
	var raw json.RawMessage
	switch p := params.(type) {
	case nil:
	case json.RawMessage:
		raw = p
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding params: %w", err)
		}
		raw = data
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := current.controller.Execute(ctx, domain.ActionRequest{Action: action, Params: raw})

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(result); encErr != nil {
		return fmt.Errorf("printing result: %w", encErr)
	}
	return err
}
