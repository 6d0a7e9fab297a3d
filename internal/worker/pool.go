package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"otfinanzas/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueLiquidacionDiferida = "jobs:liquidaciones_diferidas"
	QueueNotificacion        = "jobs:notificaciones"

	// KeyIntentosDiferidos guarda en un hash de Redis cuántas veces se
	// encoló cada unidad diferida. El contador vive fuera del job para que
	// los reencolados del servicio no lo reinicien.
	KeyIntentosDiferidos = "liquidaciones_diferidas:intentos"

	maxIntentosDiferidos = 144
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// JobHandler processes the payload of one dequeued job.
type JobHandler func(ctx context.Context, payload json.RawMessage)

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueLiquidacionDiferida encola una liquidación que falló por TRM
// faltante para que el cron la reintente. Pasado el máximo de intentos la
// unidad va a la DLQ en lugar de la cola.
func (d *Dispatcher) EnqueueLiquidacionDiferida(ctx context.Context, unidad service.LiquidacionDiferida) error {
	campo := campoIntentos(unidad.ModeloID, unidad.Mes, unidad.Anio)
	intentos, err := d.rdb.HIncrBy(ctx, KeyIntentosDiferidos, campo, 1).Result()
	if err != nil {
		return err
	}
	if intentos > maxIntentosDiferidos {
		payload, _ := json.Marshal(unidad)
		SendToDLQ(ctx, d.rdb, QueueLiquidacionDiferida, "liquidacion_diferida", payload,
			fmt.Sprintf("máximo de reintentos (%d) agotado esperando TRM", maxIntentosDiferidos),
			int(intentos))
		d.rdb.HDel(ctx, KeyIntentosDiferidos, campo)
		return nil
	}
	return d.enqueue(ctx, QueueLiquidacionDiferida, "liquidacion_diferida", unidad)
}

// EnqueueCierrePeriodo encola el aviso de consolidación de un periodo.
func (d *Dispatcher) EnqueueCierrePeriodo(ctx context.Context, n service.CierrePeriodoNotificacion) error {
	return d.enqueue(ctx, QueueNotificacion, "cierre_periodo", n)
}

// LimpiarIntentosDiferidos borra el contador de una unidad que ya liquidó.
func (d *Dispatcher) LimpiarIntentosDiferidos(ctx context.Context, modeloID string, mes, anio int) {
	d.rdb.HDel(ctx, KeyIntentosDiferidos, campoIntentos(modeloID, mes, anio))
}

func campoIntentos(modeloID string, mes, anio int) string {
	return fmt.Sprintf("%s:%02d-%d", modeloID, mes, anio)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the queues in
// handlers. Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, handlers map[string]JobHandler) {
	queues := make([]string, 0, len(handlers))
	for q := range handlers {
		queues = append(queues, q)
	}
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i, queues, handlers)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, id int, queues []string, handlers map[string]JobHandler) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, result[0], result[1], handlers)
		}
	}
}

func processJob(ctx context.Context, queue, raw string, handlers map[string]JobHandler) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	handler, ok := handlers[queue]
	if !ok {
		log.Warn().Str("queue", queue).Str("type", job.Type).Msg("no handler registered for queue")
		return
	}
	log.Debug().Str("type", job.Type).Str("queue", queue).Msg("processing job")
	handler(ctx, job.Payload)
}
