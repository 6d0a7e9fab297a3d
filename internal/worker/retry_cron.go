package worker

// retry_cron.go
// Background goroutine that periodically re-attempts liquidaciones deferred
// because the TRM for a FIXED_COP processor was not yet published.
// Uses the Circuit Breaker to avoid hammering a downed TRM service.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"otfinanzas/internal/dto"
	"otfinanzas/internal/infra"
	"otfinanzas/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 10 * time.Minute
	retryBatchSize    = 10
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	Liquidaciones service.LiquidacionService
	Dispatcher    *Dispatcher
	CB            *infra.CircuitBreaker
	RDB           *redis.Client
}

// StartRetryCron launches a background goroutine that ticks every 10m and
// drains a batch of deferred liquidaciones. It respects the context for
// graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	// If CB is open, skip entirely — the TRM service is down and every
	// unit in the queue would fail the same way.
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	for i := 0; i < retryBatchSize; i++ {
		raw, err := cfg.RDB.RPop(ctx, QueueLiquidacionDiferida).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Error().Err(err).Msg("retry_cron: failed to pop deferred queue")
			}
			return
		}

		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			log.Error().Err(err).Msg("retry_cron: invalid job envelope")
			continue
		}
		var unidad service.LiquidacionDiferida
		if err := json.Unmarshal(job.Payload, &unidad); err != nil {
			log.Error().Err(err).Msg("retry_cron: invalid deferred payload")
			continue
		}

		req := dto.CalcularLiquidacionRequest{
			ModeloID:                unidad.ModeloID,
			Mes:                     unidad.Mes,
			Anio:                    unidad.Anio,
			PorcentajeComisionBanco: unidad.PorcentajeComisionBanco,
		}
		_, err = cfg.Liquidaciones.Calcular(ctx, unidad.Actor, req)
		switch {
		case err == nil:
			cfg.Dispatcher.LimpiarIntentosDiferidos(ctx, unidad.ModeloID, unidad.Mes, unidad.Anio)
			log.Info().Str("modelo", unidad.ModeloID).Int("mes", unidad.Mes).Int("anio", unidad.Anio).
				Msg("retry_cron: deferred liquidación calculated")
		case errors.Is(err, service.ErrTasaCambioFaltante):
			// Calcular already re-enqueued via the Dispatcher, which tracks
			// the attempt count and moves the unit to the DLQ at the cap.
			log.Debug().Str("modelo", unidad.ModeloID).Int("mes", unidad.Mes).Int("anio", unidad.Anio).
				Msg("retry_cron: TRM still missing, unit re-deferred")
		case errors.Is(err, service.ErrPeriodoBloqueado):
			// The period was consolidated while the unit waited — drop it.
			cfg.Dispatcher.LimpiarIntentosDiferidos(ctx, unidad.ModeloID, unidad.Mes, unidad.Anio)
			log.Warn().Str("modelo", unidad.ModeloID).Int("mes", unidad.Mes).Int("anio", unidad.Anio).
				Msg("retry_cron: period was consolidated, dropping deferred unit")
		default:
			cfg.Dispatcher.LimpiarIntentosDiferidos(ctx, unidad.ModeloID, unidad.Mes, unidad.Anio)
			SendToDLQ(ctx, cfg.RDB, QueueLiquidacionDiferida, job.Type, job.Payload, err.Error(), 0)
		}
	}
}
