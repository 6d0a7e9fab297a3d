package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"otfinanzas/internal/dto"
	"otfinanzas/internal/infra"
	"otfinanzas/internal/model"
	"otfinanzas/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TasaCambioLookup abstrae al colaborador externo de TRM (COP por USD).
// Implementado por infra.TRMClient; los tests usan un fake.
type TasaCambioLookup interface {
	// RatePorFecha devuelve la TRM vigente exactamente para esa fecha.
	// Si no hay tasa publicada para la fecha, devuelve infra.ErrSinTasa.
	RatePorFecha(ctx context.Context, fecha time.Time) (decimal.Decimal, error)
}

type ProcesadorService interface {
	Crear(ctx context.Context, req dto.CrearProcesadorRequest) (*dto.ProcesadorResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProcesadorResponse, error)
	Listar(ctx context.Context) ([]dto.ProcesadorResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProcesadorRequest) (*dto.ProcesadorResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
	// ComisionVigente calcula la comisión bancaria para un monto usando el
	// procesador vigente a la fecha objetivo. Con nombre, la selección se
	// restringe a las entradas de ese procesador (gana la más reciente);
	// vacío, aplica la entrada más reciente de cualquier procesador.
	ComisionVigente(ctx context.Context, montoUSD decimal.Decimal, fecha time.Time, nombre string) (decimal.Decimal, *model.ProcesadorPago, error)
}

type procesadorService struct {
	repo repository.ProcesadorRepository
	trm  TasaCambioLookup
}

func NewProcesadorService(repo repository.ProcesadorRepository, trm TasaCambioLookup) ProcesadorService {
	return &procesadorService{repo: repo, trm: trm}
}

const fechaISO = "2006-01-02"

func (s *procesadorService) Crear(ctx context.Context, req dto.CrearProcesadorRequest) (*dto.ProcesadorResponse, error) {
	fecha, err := time.Parse(fechaISO, req.FechaEfectiva)
	if err != nil {
		return nil, fmt.Errorf("%w: fecha_efectiva", ErrEntradaInvalida)
	}
	p := &model.ProcesadorPago{
		Nombre:        req.Nombre,
		TipoComision:  req.TipoComision,
		ValorComision: req.ValorComision,
		FechaEfectiva: fecha,
		Activo:        true,
		Descripcion:   req.Descripcion,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return procesadorToResponse(p), nil
}

func (s *procesadorService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProcesadorResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: procesador %s", ErrNoEncontrado, id)
	}
	return procesadorToResponse(p), nil
}

func (s *procesadorService) Listar(ctx context.Context) ([]dto.ProcesadorResponse, error) {
	ps, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProcesadorResponse, 0, len(ps))
	for i := range ps {
		out = append(out, *procesadorToResponse(&ps[i]))
	}
	return out, nil
}

func (s *procesadorService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProcesadorRequest) (*dto.ProcesadorResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: procesador %s", ErrNoEncontrado, id)
	}
	if req.TipoComision != nil {
		p.TipoComision = *req.TipoComision
	}
	if req.ValorComision != nil {
		if req.ValorComision.IsNegative() {
			return nil, fmt.Errorf("%w: valor_comision negativo", ErrEntradaInvalida)
		}
		p.ValorComision = *req.ValorComision
	}
	if req.FechaEfectiva != nil {
		fecha, err := time.Parse(fechaISO, *req.FechaEfectiva)
		if err != nil {
			return nil, fmt.Errorf("%w: fecha_efectiva", ErrEntradaInvalida)
		}
		p.FechaEfectiva = fecha
	}
	if req.Activo != nil {
		p.Activo = *req.Activo
	}
	if req.Descripcion != nil {
		p.Descripcion = req.Descripcion
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return procesadorToResponse(p), nil
}

func (s *procesadorService) Eliminar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return fmt.Errorf("%w: procesador %s", ErrNoEncontrado, id)
	}
	return s.repo.Delete(ctx, id)
}

// ── ComisionVigente ──────────────────────────────────────────────────────────

func (s *procesadorService) ComisionVigente(ctx context.Context, montoUSD decimal.Decimal, fecha time.Time, nombre string) (decimal.Decimal, *model.ProcesadorPago, error) {
	var (
		p   *model.ProcesadorPago
		err error
	)
	if nombre != "" {
		p, err = s.repo.FindVigentePorNombre(ctx, nombre, fecha)
		if err != nil {
			return decimal.Zero, nil, fmt.Errorf("%w: procesador %q sin entrada vigente al %s",
				ErrNoEncontrado, nombre, fecha.Format(fechaISO))
		}
	} else {
		p, err = s.repo.FindVigente(ctx, fecha)
		if err != nil {
			return decimal.Zero, nil, fmt.Errorf("%w: ningún procesador vigente al %s", ErrNoEncontrado, fecha.Format(fechaISO))
		}
	}
	fee, err := s.calcularFee(ctx, p, montoUSD)
	if err != nil {
		return decimal.Zero, nil, err
	}
	return fee, p, nil
}

// calcularFee aplica la regla del procesador:
//   - PERCENTAGE: monto * valor / 100
//   - FIXED_USD:  valor, independiente del monto
//   - FIXED_COP:  valor convertido a USD con la TRM de la fecha efectiva;
//     sin TRM para esa fecha la liquidación se difiere (ErrTasaCambioFaltante),
//     nunca se omite en silencio.
func (s *procesadorService) calcularFee(ctx context.Context, p *model.ProcesadorPago, montoUSD decimal.Decimal) (decimal.Decimal, error) {
	if montoUSD.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrMontoInvalido, montoUSD)
	}
	switch p.TipoComision {
	case model.TipoComisionPorcentaje:
		return montoUSD.Mul(p.ValorComision).Div(decimal.NewFromInt(100)).Round(2), nil
	case model.TipoComisionFijoUSD:
		return p.ValorComision, nil
	case model.TipoComisionFijoCOP:
		tasa, err := s.trm.RatePorFecha(ctx, p.FechaEfectiva)
		if err != nil {
			if errors.Is(err, infra.ErrSinTasa) {
				return decimal.Zero, fmt.Errorf("%w: procesador %s fecha %s",
					ErrTasaCambioFaltante, p.Nombre, p.FechaEfectiva.Format(fechaISO))
			}
			return decimal.Zero, fmt.Errorf("lookup TRM: %w", err)
		}
		if !tasa.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: TRM no positiva", ErrTasaCambioFaltante)
		}
		return p.ValorComision.Div(tasa).Round(2), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: tipo_comision %q", ErrEntradaInvalida, p.TipoComision)
	}
}

func procesadorToResponse(p *model.ProcesadorPago) *dto.ProcesadorResponse {
	return &dto.ProcesadorResponse{
		ID:            p.ID.String(),
		Nombre:        p.Nombre,
		TipoComision:  p.TipoComision,
		ValorComision: p.ValorComision,
		FechaEfectiva: p.FechaEfectiva.Format(fechaISO),
		Activo:        p.Activo,
		Descripcion:   p.Descripcion,
	}
}
