package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"otfinanzas/internal/dto"
	"otfinanzas/internal/model"
	"otfinanzas/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovimientoService interface {
	// Registrar agrega un movimiento al libro. Rechaza periodos consolidados:
	// retrodatar solo es posible mientras el periodo destino siga abierto.
	Registrar(ctx context.Context, actor string, req dto.RegistrarMovimientoRequest) (*dto.MovimientoResponse, error)
	// Revertir crea el movimiento compensatorio (tipo opuesto, referencia al
	// original) y marca el original REVERTIDO. Nunca borra historia: ambas
	// patas quedan listables, pero salen de saldos y resúmenes.
	Revertir(ctx context.Context, id uuid.UUID, actor, motivo string) (*dto.RevertirResponse, error)
	Listar(ctx context.Context, filter dto.MovimientoFilter) (*dto.MovimientoListResponse, error)
	Detalle(ctx context.Context, id uuid.UUID) (*dto.MovimientoResponse, error)
	// SaldoMovimiento es el saldo "dinero en movimiento": suma con signo de
	// los movimientos no revertidos. Siempre se computa desde el libro.
	SaldoMovimiento(ctx context.Context) (*dto.SaldoResponse, error)
	ResumenPeriodo(ctx context.Context, mes, anio int) (*dto.ResumenPeriodoResponse, error)
	FlujoCaja(ctx context.Context, anio int) (*dto.FlujoCajaResponse, error)
	Comparativa(ctx context.Context, mesA, anioA, mesB, anioB int) (*dto.ComparativaResponse, error)
}

type movimientoService struct {
	repo        repository.MovimientoRepository
	periodoRepo repository.PeriodoRepository
}

func NewMovimientoService(repo repository.MovimientoRepository, periodoRepo repository.PeriodoRepository) MovimientoService {
	return &movimientoService{repo: repo, periodoRepo: periodoRepo}
}

// ── Registrar ────────────────────────────────────────────────────────────────

func (s *movimientoService) Registrar(ctx context.Context, actor string, req dto.RegistrarMovimientoRequest) (*dto.MovimientoResponse, error) {
	if !req.MontoUSD.IsPositive() {
		return nil, fmt.Errorf("%w: monto_usd debe ser positivo", ErrMontoInvalido)
	}
	if err := s.verificarPeriodoAbierto(ctx, req.Mes, req.Anio); err != nil {
		return nil, err
	}

	var ref *uuid.UUID
	if req.ReferenciaID != nil {
		id, err := uuid.Parse(*req.ReferenciaID)
		if err != nil {
			return nil, fmt.Errorf("%w: referencia_id", ErrEntradaInvalida)
		}
		ref = &id
	}

	mov := &model.MovimientoTransaccion{
		Mes:          req.Mes,
		Anio:         req.Anio,
		Tipo:         req.Tipo,
		Origen:       req.Origen,
		MontoUSD:     req.MontoUSD,
		Descripcion:  req.Descripcion,
		Estado:       model.MovimientoActivo,
		ReferenciaID: ref,
		CreadoPor:    actor,
	}

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.verificarPeriodoAbiertoTx(tx, req.Mes, req.Anio); err != nil {
			return err
		}
		return s.repo.Create(ctx, txOrDB(tx, s.repo.DB()), mov)
	})
	if err != nil {
		return nil, err
	}
	return movimientoToResponse(mov), nil
}

// ── Revertir ─────────────────────────────────────────────────────────────────

func (s *movimientoService) Revertir(ctx context.Context, id uuid.UUID, actor, motivo string) (*dto.RevertirResponse, error) {
	original, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: movimiento %s", ErrNoEncontrado, id)
	}
	if original.Estado == model.MovimientoRevertido {
		return nil, fmt.Errorf("%w: movimiento %s", ErrYaRevertido, id)
	}

	tipoReversa := model.MovimientoEgreso
	if original.Tipo == model.MovimientoEgreso {
		tipoReversa = model.MovimientoIngreso
	}
	// La reversa nace REVERTIDO, igual que el original tras la marca: el par
	// completo sale de saldos, resúmenes y flujos (que excluyen REVERTIDO) y
	// el neto del libro vuelve al valor previo al original. Ambas patas
	// siguen listables como historia.
	ref := original.ID
	reversa := &model.MovimientoTransaccion{
		Mes:          original.Mes,
		Anio:         original.Anio,
		Tipo:         tipoReversa,
		Origen:       model.OrigenReversa,
		MontoUSD:     original.MontoUSD,
		Descripcion:  fmt.Sprintf("Reversa de %s: %s", original.ID, motivo),
		Estado:       model.MovimientoRevertido,
		ReferenciaID: &ref,
		CreadoPor:    actor,
	}

	// La reversa y la marca sobre el original son una sola unidad atómica.
	// MarcarRevertido exige estado ACTIVO: un segundo Revertir concurrente
	// afecta cero filas y falla, nunca duplica la compensación.
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		filas, merr := s.repo.MarcarRevertido(ctx, txOrDB(tx, s.repo.DB()), id)
		if merr != nil {
			return merr
		}
		if filas == 0 {
			return fmt.Errorf("%w: movimiento %s", ErrYaRevertido, id)
		}
		return s.repo.Create(ctx, txOrDB(tx, s.repo.DB()), reversa)
	})
	if err != nil {
		return nil, err
	}

	original.Estado = model.MovimientoRevertido
	return &dto.RevertirResponse{
		Original: *movimientoToResponse(original),
		Reversa:  *movimientoToResponse(reversa),
	}, nil
}

// ── Consultas ────────────────────────────────────────────────────────────────

func (s *movimientoService) Listar(ctx context.Context, filter dto.MovimientoFilter) (*dto.MovimientoListResponse, error) {
	movs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.MovimientoResponse, 0, len(movs))
	for i := range movs {
		data = append(data, *movimientoToResponse(&movs[i]))
	}
	return &dto.MovimientoListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *movimientoService) Detalle(ctx context.Context, id uuid.UUID) (*dto.MovimientoResponse, error) {
	mov, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: movimiento %s", ErrNoEncontrado, id)
	}
	return movimientoToResponse(mov), nil
}

func (s *movimientoService) SaldoMovimiento(ctx context.Context) (*dto.SaldoResponse, error) {
	saldo, err := s.repo.SaldoActivo(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.SaldoResponse{SaldoUSD: saldo}, nil
}

func (s *movimientoService) ResumenPeriodo(ctx context.Context, mes, anio int) (*dto.ResumenPeriodoResponse, error) {
	resumen, err := s.repo.ResumenPeriodo(ctx, mes, anio)
	if err != nil {
		return nil, err
	}
	return &dto.ResumenPeriodoResponse{
		Mes:              mes,
		Anio:             anio,
		TotalIngresosUSD: resumen.IngresosUSD,
		TotalEgresosUSD:  resumen.EgresosUSD,
		SaldoUSD:         resumen.IngresosUSD.Sub(resumen.EgresosUSD),
		PorOrigen:        resumen.PorOrigen,
	}, nil
}

func (s *movimientoService) FlujoCaja(ctx context.Context, anio int) (*dto.FlujoCajaResponse, error) {
	meses, err := s.repo.FlujoAnual(ctx, anio)
	if err != nil {
		return nil, err
	}
	return &dto.FlujoCajaResponse{Anio: anio, Meses: meses}, nil
}

func (s *movimientoService) Comparativa(ctx context.Context, mesA, anioA, mesB, anioB int) (*dto.ComparativaResponse, error) {
	a, err := s.ResumenPeriodo(ctx, mesA, anioA)
	if err != nil {
		return nil, err
	}
	b, err := s.ResumenPeriodo(ctx, mesB, anioB)
	if err != nil {
		return nil, err
	}
	return &dto.ComparativaResponse{
		PeriodoA:      *a,
		PeriodoB:      *b,
		DeltaSaldoUSD: b.SaldoUSD.Sub(a.SaldoUSD),
	}, nil
}

// ── Guards de periodo ────────────────────────────────────────────────────────

func (s *movimientoService) verificarPeriodoAbierto(ctx context.Context, mes, anio int) error {
	p, err := s.periodoRepo.FindPorPeriodo(ctx, mes, anio)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if !p.PermiteEscritura() {
		return fmt.Errorf("%w: %d/%d está %s", ErrPeriodoBloqueado, mes, anio, p.Estado)
	}
	return nil
}

func (s *movimientoService) verificarPeriodoAbiertoTx(tx *gorm.DB, mes, anio int) error {
	if tx == nil {
		return nil
	}
	p, err := s.periodoRepo.FindPorPeriodoTx(tx, mes, anio)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if !p.PermiteEscritura() {
		return fmt.Errorf("%w: %d/%d está %s", ErrPeriodoBloqueado, mes, anio, p.Estado)
	}
	return nil
}

func movimientoToResponse(m *model.MovimientoTransaccion) *dto.MovimientoResponse {
	var ref *string
	if m.ReferenciaID != nil {
		s := m.ReferenciaID.String()
		ref = &s
	}
	return &dto.MovimientoResponse{
		ID:            m.ID.String(),
		Mes:           m.Mes,
		Anio:          m.Anio,
		Tipo:          m.Tipo,
		Origen:        m.Origen,
		MontoUSD:      m.MontoUSD,
		Descripcion:   m.Descripcion,
		Estado:        m.Estado,
		ReferenciaID:  ref,
		CreadoPor:     m.CreadoPor,
		FechaCreacion: m.CreatedAt.Format(time.RFC3339),
	}
}
