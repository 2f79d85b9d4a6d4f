// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"backoffice-service/internal/api"
	commonaws "backoffice-service/internal/common/aws"
	"backoffice-service/internal/common/config"
	"backoffice-service/internal/common/logger"
	"backoffice-service/internal/documents"
	"backoffice-service/internal/notify"
	"backoffice-service/internal/office"
	"backoffice-service/internal/records"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("starting service", map[string]interface{}{
		"name":        cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	store, err := records.NewStore(cfg.Storage.DataDir, log)
	if err != nil {
		zapLog.Fatal("record store init failed", zap.Error(err))
	}

	renderer, err := documents.NewRenderer(cfg.Storage.DocumentsDir, log)
	if err != nil {
		zapLog.Fatal("document renderer init failed", zap.Error(err))
	}
	renderer.Sweep(cfg.Storage.RetentionDays)

	transport, err := buildTransport(cfg, log)
	if err != nil {
		zapLog.Fatal("notification transport init failed", zap.Error(err))
	}

	dispatcher := notify.NewDispatcher(transport, notify.DispatcherOptions{
		Workers:     cfg.Notifications.Workers,
		QueueSize:   cfg.Notifications.QueueSize,
		SendTimeout: config.GetDuration(cfg.Notifications.SendTimeout),
	}, log)
	defer dispatcher.Close()

	svc := office.NewService(store, renderer, dispatcher, cfg.Notifications.OperatorEmail, log)
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewServer(svc, log).Router(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", map[string]interface{}{"address": cfg.Server.Address})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info("shutdown signal received", map[string]interface{}{"signal": sig.String()})
	case err := <-errCh:
		zapLog.Fatal("http server failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	log.Info("service stopped", nil)
}

// buildTransport selects SES, SMTP, or the log transport from config.
func buildTransport(cfg *config.Config, log logger.Logger) (notify.Transport, error) {
	if !cfg.Notifications.Enabled {
		return notify.NewLogTransport(log), nil
	}

	if cfg.Integrations.AWS.SES.Enabled {
		client, err := commonaws.NewSESClient(context.Background(), cfg.Integrations.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("ses client: %w", err)
		}
		return notify.NewSESTransport(client, cfg.Integrations.AWS.SES.FromEmail)
	}

	return notify.NewSMTPTransport(notify.SMTPConfig{
		Host:     cfg.Integrations.SMTP.Host,
		Port:     cfg.Integrations.SMTP.Port,
		Username: cfg.Integrations.SMTP.Username,
		Password: cfg.Integrations.SMTP.Password,
		UseTLS:   cfg.Integrations.SMTP.UseTLS,
		From:     cfg.Integrations.SMTP.DefaultFrom,
	})
}
