package service

import (
	"context"
	"errors"
	"fmt"

	"otfinanzas/internal/dto"
	"otfinanzas/internal/model"
	"otfinanzas/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type EscalaService interface {
	Crear(ctx context.Context, req dto.CrearEscalaRequest) (*dto.EscalaResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.EscalaResponse, error)
	Listar(ctx context.Context) ([]dto.EscalaResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarEscalaRequest) (*dto.EscalaResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
	// Activar deja exactamente una escala activa: desactiva todas y activa
	// la indicada en una transacción.
	Activar(ctx context.Context, id uuid.UUID) (*dto.EscalaResponse, error)
	// CrearDefault crea la escala por defecto si no existe ninguna.
	CrearDefault(ctx context.Context) (*dto.EscalaResponse, error)
	// CalcularComision resuelve un monto contra la escala activa.
	CalcularComision(ctx context.Context, montoUSD decimal.Decimal) (*dto.CalculoComisionResponse, error)
}

type escalaService struct {
	repo repository.EscalaRepository
}

func NewEscalaService(repo repository.EscalaRepository) EscalaService {
	return &escalaService{repo: repo}
}

// ── CRUD ─────────────────────────────────────────────────────────────────────

func (s *escalaService) Crear(ctx context.Context, req dto.CrearEscalaRequest) (*dto.EscalaResponse, error) {
	reglas, err := reglasDesdeRequest(req.Reglas)
	if err != nil {
		return nil, err
	}

	escala := &model.EscalaComision{
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		Reglas:      reglas,
	}
	if err := s.repo.Create(ctx, escala); err != nil {
		return nil, err
	}
	return escalaToResponse(escala), nil
}

func (s *escalaService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.EscalaResponse, error) {
	escala, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: escala %s", ErrNoEncontrado, id)
	}
	return escalaToResponse(escala), nil
}

func (s *escalaService) Listar(ctx context.Context) ([]dto.EscalaResponse, error) {
	escalas, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EscalaResponse, 0, len(escalas))
	for i := range escalas {
		out = append(out, *escalaToResponse(&escalas[i]))
	}
	return out, nil
}

func (s *escalaService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarEscalaRequest) (*dto.EscalaResponse, error) {
	escala, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: escala %s", ErrNoEncontrado, id)
	}

	if req.Nombre != nil {
		escala.Nombre = *req.Nombre
	}
	if req.Descripcion != nil {
		escala.Descripcion = req.Descripcion
	}
	if req.Reglas != nil {
		reglas, err := reglasDesdeRequest(req.Reglas)
		if err != nil {
			return nil, err
		}
		if err := s.repo.ReemplazarReglas(ctx, id, reglas); err != nil {
			return nil, err
		}
		escala.Reglas = reglas
	}

	if err := s.repo.Update(ctx, escala); err != nil {
		return nil, err
	}
	return escalaToResponse(escala), nil
}

func (s *escalaService) Eliminar(ctx context.Context, id uuid.UUID) error {
	escala, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: escala %s", ErrNoEncontrado, id)
	}
	if escala.Activa {
		return fmt.Errorf("%w: no se puede eliminar la escala activa", ErrEntradaInvalida)
	}
	return s.repo.Delete(ctx, id)
}

// ── Activar ──────────────────────────────────────────────────────────────────

func (s *escalaService) Activar(ctx context.Context, id uuid.UUID) (*dto.EscalaResponse, error) {
	if err := s.repo.ActivarExclusiva(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: escala %s", ErrNoEncontrado, id)
		}
		return nil, err
	}
	return s.ObtenerPorID(ctx, id)
}

// ── CrearDefault ─────────────────────────────────────────────────────────────
// Escala inicial de la agencia: 10% hasta 19.999 USD, 15% de 20.000 en
// adelante. Se crea activa solo cuando no existe ninguna escala.

func (s *escalaService) CrearDefault(ctx context.Context) (*dto.EscalaResponse, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, fmt.Errorf("%w: ya existen escalas, la default solo se crea sobre un store vacío", ErrEntradaInvalida)
	}

	tope := decimal.NewFromInt(19999)
	escala := &model.EscalaComision{
		Nombre:    "Escala estándar",
		Activa:    true,
		EsDefault: true,
		Reglas: []model.ReglaComision{
			{MinUSD: decimal.Zero, MaxUSD: &tope, Porcentaje: decimal.NewFromInt(10)},
			{MinUSD: decimal.NewFromInt(20000), Porcentaje: decimal.NewFromInt(15)},
		},
	}
	if err := s.repo.Create(ctx, escala); err != nil {
		return nil, err
	}
	return escalaToResponse(escala), nil
}

// ── CalcularComision ─────────────────────────────────────────────────────────

func (s *escalaService) CalcularComision(ctx context.Context, montoUSD decimal.Decimal) (*dto.CalculoComisionResponse, error) {
	escala, err := s.repo.FindActiva(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: no hay escala activa", ErrNoEncontrado)
	}
	return resolverEscala(escala, montoUSD)
}

// resolverEscala aplica el tramo que corresponde al monto:
// comision = monto * porcentaje / 100, neto = monto - comision.
func resolverEscala(escala *model.EscalaComision, montoUSD decimal.Decimal) (*dto.CalculoComisionResponse, error) {
	tramo, err := resolverTramo(tramosDesdeReglas(escala.Reglas), montoUSD)
	if err != nil {
		return nil, err
	}

	comision := montoUSD.Mul(tramo.Porcentaje).Div(decimal.NewFromInt(100)).Round(2)
	return &dto.CalculoComisionResponse{
		MontoUSD: montoUSD,
		Regla: dto.ReglaComisionResponse{
			MinUSD:     tramo.Desde,
			MaxUSD:     tramo.Hasta,
			Porcentaje: tramo.Porcentaje,
		},
		Porcentaje:    tramo.Porcentaje,
		MontoComision: comision,
		MontoNeto:     montoUSD.Sub(comision),
	}, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func tramosDesdeReglas(reglas []model.ReglaComision) []Tramo {
	tramos := make([]Tramo, 0, len(reglas))
	for _, r := range reglas {
		tramos = append(tramos, Tramo{Desde: r.MinUSD, Hasta: r.MaxUSD, Porcentaje: r.Porcentaje})
	}
	return tramos
}

func reglasDesdeRequest(reqs []dto.ReglaComisionRequest) ([]model.ReglaComision, error) {
	tramos := make([]Tramo, 0, len(reqs))
	for _, r := range reqs {
		tramos = append(tramos, Tramo{Desde: r.MinUSD, Hasta: r.MaxUSD, Porcentaje: r.Porcentaje})
	}
	if err := validarTramos(tramos); err != nil {
		return nil, err
	}
	reglas := make([]model.ReglaComision, 0, len(reqs))
	for _, r := range reqs {
		reglas = append(reglas, model.ReglaComision{MinUSD: r.MinUSD, MaxUSD: r.MaxUSD, Porcentaje: r.Porcentaje})
	}
	return reglas, nil
}

func escalaToResponse(e *model.EscalaComision) *dto.EscalaResponse {
	reglas := make([]dto.ReglaComisionResponse, 0, len(e.Reglas))
	for _, r := range e.Reglas {
		reglas = append(reglas, dto.ReglaComisionResponse{
			MinUSD:     r.MinUSD,
			MaxUSD:     r.MaxUSD,
			Porcentaje: r.Porcentaje,
		})
	}
	return &dto.EscalaResponse{
		ID:          e.ID.String(),
		Nombre:      e.Nombre,
		Descripcion: e.Descripcion,
		Activa:      e.Activa,
		EsDefault:   e.EsDefault,
		Reglas:      reglas,
	}
}
