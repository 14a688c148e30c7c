package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	httpadp "approv-backend/internal/adapter/http"
	"approv-backend/internal/adapter/notify"
	"approv-backend/internal/adapter/repository/mysql"
	"approv-backend/internal/infrastructure/broker"
	"approv-backend/internal/infrastructure/cache"
	"approv-backend/internal/infrastructure/storage"
	ucApproval "approv-backend/internal/usecase/approval"
	"approv-backend/internal/usecase/dashboard"
	ucNotification "approv-backend/internal/usecase/notification"
	ucProject "approv-backend/internal/usecase/project"
	ucUpload "approv-backend/internal/usecase/upload"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the notification relay",
		RunE:  func(cmd *cobra.Command, args []string) error { return runServe(cmd.Context()) },
	}
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, gdb, err := bootstrap()
	if err != nil {
		return err
	}
	defer closeDB(gdb, log)

	rdb, err := cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	store, err := storage.NewLocal(cfg.StorageDir)
	if err != nil {
		return err
	}

	targets := []notify.Dispatcher{
		notify.NewLogDispatcher(log),
		notify.NewRedisDispatcher(rdb, cfg.EventsChannel),
	}
	if cfg.NATSURL != "" {
		nc, err := broker.OpenNATS(cfg.NATSURL, "approv-api")
		if err != nil {
			return err
		}
		defer broker.Close(nc)
		targets = append(targets, notify.NewNATSDispatcher(nc))
	}

	approvals := mysql.NewApprovalRepository(gdb)
	projects := mysql.NewProjectRepository(gdb)
	clients := mysql.NewClientRepository(gdb)
	events := mysql.NewEventRepository(gdb)
	tx := mysql.NewGormUoW(gdb)

	relay, err := ucNotification.NewRelay(events, notify.NewFanout(targets...), ucNotification.RelayOptions{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		MaxAttempts:  cfg.OutboxMaxAttempts,
		Logger:       log.WithField("component", "outbox"),
	})
	if err != nil {
		return err
	}

	routerCfg := httpadp.RouterConfig{
		JWTSecret:      []byte(cfg.JWTSecret),
		Redis:          rdb,
		IdempotencyTTL: time.Duration(cfg.IdempTTLSecs) * time.Second,
		RequestTimeout: cfg.RequestTimeout,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         log,
	}
	e := httpadp.NewEcho(routerCfg)
	httpadp.Register(e, routerCfg, httpadp.Handlers{
		Health: httpadp.NewHandler().
			WithCheck("mysql", func(ctx context.Context) error {
				sqlDB, err := gdb.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			}).
			WithCheck("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		Approvals: httpadp.NewApprovalHandler(ucApproval.NewUsecase(approvals, projects, clients, tx, ucApproval.Options{
			PublicBaseURL:     cfg.PublicBaseURL,
			DefaultExpiryDays: cfg.DefaultExpiryDays,
			ReminderCooldown:  cfg.ReminderCooldown,
			Logger:            log.WithField("component", "approvals"),
		}), log),
		Projects:  httpadp.NewProjectHandler(ucProject.NewUsecase(projects, clients, approvals, tx, cfg.PublicBaseURL, log.WithField("component", "projects")), log),
		Uploads:   httpadp.NewUploadHandler(ucUpload.NewUsecase(store, cfg.MaxUploadBytes, log.WithField("component", "uploads")), log),
		Dashboard: httpadp.NewDashboardHandler(dashboard.NewUsecase(approvals, projects, nil), log),
	})

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("outbox relay stopped")
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.AppPort
		log.WithField("addr", addr).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.WithError(err).Error("server failed")
			stop()
			<-relayDone
			return err
		}
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	<-relayDone
	return nil
}
