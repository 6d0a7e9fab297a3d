package worker

// notificacion_worker.go
// Processes jobs from QueueNotificacion: avisos de cierre de periodo que se
// envían por SMTP al equipo de finanzas.

import (
	"context"
	"encoding/json"
	"fmt"

	"otfinanzas/internal/infra"
	"otfinanzas/internal/service"

	"github.com/rs/zerolog/log"
)

// NotificacionWorker envía por correo el resumen de un periodo consolidado.
type NotificacionWorker struct {
	mailer        *infra.Mailer
	destinatarios []string
}

func NewNotificacionWorker(mailer *infra.Mailer, destinatarios []string) *NotificacionWorker {
	return &NotificacionWorker{mailer: mailer, destinatarios: destinatarios}
}

// Process arma y envía el correo de cierre a los destinatarios configurados.
func (w *NotificacionWorker) Process(_ context.Context, raw json.RawMessage) {
	var aviso service.CierrePeriodoNotificacion
	if err := json.Unmarshal(raw, &aviso); err != nil {
		log.Error().Err(err).Msg("notificacion_worker: invalid payload")
		return
	}
	if len(w.destinatarios) == 0 {
		log.Warn().Msg("notificacion_worker: no recipients configured — skipping")
		return
	}

	subject := fmt.Sprintf("Periodo %02d/%d consolidado", aviso.Mes, aviso.Anio)
	body := fmt.Sprintf(
		"El periodo %02d/%d fue consolidado por %s.\n\n"+
			"Liquidaciones incluidas: %d\n"+
			"Ventas netas: %s USD\n"+
			"Saldo del periodo: %s USD\n",
		aviso.Mes, aviso.Anio, aviso.ConsolidadoPor,
		aviso.LiquidacionesIncluidas,
		aviso.TotalVentasNetasUSD.StringFixed(2),
		aviso.SaldoUSD.StringFixed(2),
	)

	if err := w.mailer.SendCierrePeriodo(w.destinatarios, subject, body); err != nil {
		log.Error().Err(err).Int("mes", aviso.Mes).Int("anio", aviso.Anio).
			Msg("notificacion_worker: failed to send email")
		return
	}
	log.Info().Int("mes", aviso.Mes).Int("anio", aviso.Anio).
		Msg("notificacion_worker: cierre notification sent")
}
