package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"otfinanzas/internal/dto"
	"otfinanzas/internal/model"
	"otfinanzas/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CierrePeriodoNotificacion es el payload del aviso de cierre que se envía
// por correo al consolidar un periodo.
type CierrePeriodoNotificacion struct {
	Mes                    int             `json:"mes"`
	Anio                   int             `json:"anio"`
	SaldoUSD               decimal.Decimal `json:"saldo_usd"`
	TotalVentasNetasUSD    decimal.Decimal `json:"total_ventas_netas_usd"`
	LiquidacionesIncluidas int             `json:"liquidaciones_incluidas"`
	ConsolidadoPor         string          `json:"consolidado_por"`
}

// NotificadorCierre encola la notificación de cierre de periodo.
// Implementado por worker.Dispatcher.
type NotificadorCierre interface {
	EnqueueCierrePeriodo(ctx context.Context, n CierrePeriodoNotificacion) error
}

type PeriodoService interface {
	// Consolidar cierra los libros del periodo: congela la foto de totales
	// y a partir de ahí liquidaciones y movimientos rechazan escrituras
	// ordinarias contra ese mes.
	Consolidar(ctx context.Context, actor string, req dto.ConsolidarPeriodoRequest) (*dto.PeriodoResponse, error)
	// MarcarEnRevision mueve ABIERTO -> EN_REVISION (paso opcional).
	MarcarEnRevision(ctx context.Context, mes, anio int) (*dto.PeriodoResponse, error)
	// Cerrar mueve CONSOLIDADO -> CERRADO.
	Cerrar(ctx context.Context, mes, anio int) (*dto.PeriodoResponse, error)
	ListarConsolidados(ctx context.Context) ([]dto.PeriodoResponse, error)
}

type periodoService struct {
	repo            repository.PeriodoRepository
	movimientoRepo  repository.MovimientoRepository
	liquidacionRepo repository.LiquidacionRepository
	notificador     NotificadorCierre
}

func NewPeriodoService(
	repo repository.PeriodoRepository,
	movimientoRepo repository.MovimientoRepository,
	liquidacionRepo repository.LiquidacionRepository,
	notificador NotificadorCierre,
) PeriodoService {
	return &periodoService{
		repo:            repo,
		movimientoRepo:  movimientoRepo,
		liquidacionRepo: liquidacionRepo,
		notificador:     notificador,
	}
}

// ── Consolidar ───────────────────────────────────────────────────────────────

func (s *periodoService) Consolidar(ctx context.Context, actor string, req dto.ConsolidarPeriodoRequest) (*dto.PeriodoResponse, error) {
	// Las fotos se calculan antes de abrir la transacción; dentro de ella se
	// re-verifica el estado con la fila bloqueada, de modo que un Calcular
	// concurrente o bien entra antes del flip o bien rebota con
	// ErrPeriodoBloqueado — nunca escribe a medias sobre un mes consolidado.
	resumen, err := s.movimientoRepo.ResumenPeriodo(ctx, req.Mes, req.Anio)
	if err != nil {
		return nil, err
	}
	totalesLiq, err := s.liquidacionRepo.Totales(ctx, req.Mes, req.Anio)
	if err != nil {
		return nil, err
	}

	var periodo *model.PeriodoConsolidado
	ahora := time.Now().UTC()
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, ferr := s.buscarOCrearTx(ctx, tx, req.Mes, req.Anio)
		if ferr != nil {
			return ferr
		}
		if p.Estado != model.PeriodoAbierto && p.Estado != model.PeriodoEnRevision {
			return fmt.Errorf("%w: %d/%d está %s", ErrYaConsolidado, req.Mes, req.Anio, p.Estado)
		}

		p.Estado = model.PeriodoConsolidadoEstado
		p.TotalIngresosUSD = resumen.IngresosUSD
		p.TotalEgresosUSD = resumen.EgresosUSD
		p.SaldoUSD = resumen.IngresosUSD.Sub(resumen.EgresosUSD)
		p.TotalVentasNetasUSD = totalesLiq.VentasNetasUSD
		p.TotalComisionAgenciaUSD = totalesLiq.ComisionAgenciaUSD
		p.TotalComisionBancoUSD = totalesLiq.ComisionBancoUSD
		p.TotalGananciaModeloUSD = totalesLiq.GananciaModeloUSD
		p.LiquidacionesIncluidas = totalesLiq.Cantidad
		p.FechaConsolidacion = &ahora
		p.ConsolidadoPor = &actor
		p.NotasCierre = req.NotasCierre

		if uerr := s.repo.Update(ctx, txOrDB(tx, s.repo.DB()), p); uerr != nil {
			return uerr
		}
		periodo = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notificador != nil {
		aviso := CierrePeriodoNotificacion{
			Mes:                    periodo.Mes,
			Anio:                   periodo.Anio,
			SaldoUSD:               periodo.SaldoUSD,
			TotalVentasNetasUSD:    periodo.TotalVentasNetasUSD,
			LiquidacionesIncluidas: periodo.LiquidacionesIncluidas,
			ConsolidadoPor:         actor,
		}
		if nerr := s.notificador.EnqueueCierrePeriodo(ctx, aviso); nerr != nil {
			// El cierre ya está persistido; la notificación es best-effort.
			log.Error().Err(nerr).Int("mes", periodo.Mes).Int("anio", periodo.Anio).
				Msg("no se pudo encolar la notificación de cierre")
		}
	}

	return periodoToResponse(periodo), nil
}

// buscarOCrearTx lee la fila del periodo con lock de fila, creándola ABIERTO
// si todavía no existe.
func (s *periodoService) buscarOCrearTx(ctx context.Context, tx *gorm.DB, mes, anio int) (*model.PeriodoConsolidado, error) {
	var p *model.PeriodoConsolidado
	var err error
	if tx != nil {
		p, err = s.repo.FindPorPeriodoTx(tx, mes, anio)
	} else {
		p, err = s.repo.FindPorPeriodo(ctx, mes, anio)
	}
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	nuevo := &model.PeriodoConsolidado{Mes: mes, Anio: anio, Estado: model.PeriodoAbierto}
	if cerr := s.repo.Create(ctx, txOrDB(tx, s.repo.DB()), nuevo); cerr != nil {
		return nil, cerr
	}
	return nuevo, nil
}

// ── Transiciones simples ─────────────────────────────────────────────────────

func (s *periodoService) MarcarEnRevision(ctx context.Context, mes, anio int) (*dto.PeriodoResponse, error) {
	var periodo *model.PeriodoConsolidado
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, ferr := s.buscarOCrearTx(ctx, tx, mes, anio)
		if ferr != nil {
			return ferr
		}
		if p.Estado != model.PeriodoAbierto {
			return fmt.Errorf("%w: %d/%d está %s", ErrTransicionInvalida, mes, anio, p.Estado)
		}
		p.Estado = model.PeriodoEnRevision
		if uerr := s.repo.Update(ctx, txOrDB(tx, s.repo.DB()), p); uerr != nil {
			return uerr
		}
		periodo = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return periodoToResponse(periodo), nil
}

func (s *periodoService) Cerrar(ctx context.Context, mes, anio int) (*dto.PeriodoResponse, error) {
	periodo, err := s.repo.FindPorPeriodo(ctx, mes, anio)
	if err != nil {
		return nil, fmt.Errorf("%w: periodo %d/%d", ErrNoEncontrado, mes, anio)
	}
	if periodo.Estado != model.PeriodoConsolidadoEstado {
		return nil, fmt.Errorf("%w: solo se cierra un periodo consolidado, %d/%d está %s",
			ErrTransicionInvalida, mes, anio, periodo.Estado)
	}
	periodo.Estado = model.PeriodoCerrado
	if err := s.repo.Update(ctx, s.repo.DB(), periodo); err != nil {
		return nil, err
	}
	return periodoToResponse(periodo), nil
}

func (s *periodoService) ListarConsolidados(ctx context.Context) ([]dto.PeriodoResponse, error) {
	periodos, err := s.repo.ListConsolidados(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PeriodoResponse, 0, len(periodos))
	for i := range periodos {
		out = append(out, *periodoToResponse(&periodos[i]))
	}
	return out, nil
}

func periodoToResponse(p *model.PeriodoConsolidado) *dto.PeriodoResponse {
	var fecha *string
	if p.FechaConsolidacion != nil {
		f := p.FechaConsolidacion.Format(time.RFC3339)
		fecha = &f
	}
	return &dto.PeriodoResponse{
		ID:     p.ID.String(),
		Mes:    p.Mes,
		Anio:   p.Anio,
		Estado: p.Estado,
		Totales: dto.TotalesPeriodoResponse{
			TotalIngresosUSD:        p.TotalIngresosUSD,
			TotalEgresosUSD:         p.TotalEgresosUSD,
			SaldoUSD:                p.SaldoUSD,
			TotalVentasNetasUSD:     p.TotalVentasNetasUSD,
			TotalComisionAgenciaUSD: p.TotalComisionAgenciaUSD,
			TotalComisionBancoUSD:   p.TotalComisionBancoUSD,
			TotalGananciaModeloUSD:  p.TotalGananciaModeloUSD,
			LiquidacionesIncluidas:  p.LiquidacionesIncluidas,
		},
		FechaConsolidacion: fecha,
		ConsolidadoPor:     p.ConsolidadoPor,
		NotasCierre:        p.NotasCierre,
	}
}
