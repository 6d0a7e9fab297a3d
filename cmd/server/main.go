package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"otfinanzas/internal/config"
	"otfinanzas/internal/infra"
	"otfinanzas/internal/router"
	"otfinanzas/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Un breaker por colaborador externo: el feed de ventas y el servicio
	// de TRM fallan de forma independiente.
	ventasCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	trmCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())

	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)

	r, liquidacionSvc := router.New(router.Deps{
		Cfg:        cfg,
		DB:         db,
		RDB:        rdb,
		VentasCB:   ventasCB,
		TRMCB:      trmCB,
		Dispatcher: dispatcher,
	})

	// Worker pool (notificaciones) + cron de liquidaciones diferidas.
	notificacionW := worker.NewNotificacionWorker(mailer, cfg.DestinatariosCierre())
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, map[string]worker.JobHandler{
		worker.QueueNotificacion: notificacionW.Process,
	})
	worker.StartRetryCron(ctx, worker.RetryCronConfig{
		Liquidaciones: liquidacionSvc,
		Dispatcher:    dispatcher,
		CB:            trmCB,
		RDB:           rdb,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("otfinanzas listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
