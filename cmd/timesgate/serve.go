package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"timesgate/internal/infra/httpapi"
	"timesgate/internal/infra/mqtt"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST and MQTT bridges until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), current)
		},
	}
}

func serve(parent context.Context, a *app) error {
	cfg, logger := a.cfg, a.logger
	if !cfg.HTTP.Enabled && !cfg.MQTT.Enabled {
		return errors.New("nothing to serve: enable http or mqtt in the config")
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	var server *httpapi.Server
	if cfg.HTTP.Enabled {
		server = httpapi.NewServer(cfg.HTTP.Addr, cfg.Device.Name, a.controller, cfg.HTTP.AuthToken, cfg.HTTP.RateLimit, logger)
		if err := server.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := server.Stop(); err != nil {
				logger.Error("stopping HTTP API", "error", err)
			}
		}()
	}

	if cfg.MQTT.Enabled {
		bridge := mqtt.NewBridge(mqtt.Options{
			Broker:      cfg.MQTT.Broker,
			Port:        cfg.MQTT.Port,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			DeviceID:    cfg.Device.Name,
			QoS:         byte(cfg.MQTT.QoS),
		}, a.controller, logger)
		if err := bridge.Start(ctx); err != nil {
			return err
		}
		defer bridge.Stop()
	}

	logger.Info("times gate bridge running", "device", cfg.Device.Name, "http", cfg.HTTP.Enabled, "mqtt", cfg.MQTT.Enabled)
	<-ctx.Done()
	return nil
}
