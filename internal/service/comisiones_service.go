package service

import (
	"context"
	"errors"
	"fmt"

	"otfinanzas/internal/dto"
	"otfinanzas/internal/model"
	"otfinanzas/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ComisionesService interface {
	ObtenerConfig(ctx context.Context) (*dto.ConfigComisionesResponse, error)
	ActualizarConfig(ctx context.Context, req dto.ActualizarConfigComisionesRequest) (*dto.ConfigComisionesResponse, error)
	// CalcularTodas computa las tres comisiones de rol de forma atómica:
	// una entrada inválida falla la llamada completa, nunca deja en cero un
	// rol por error de otro (la respuesta se usa como borrador de settlement).
	CalcularTodas(ctx context.Context, req dto.CalcularComisionesInternasRequest) (*dto.ComisionesInternasResponse, error)
}

type comisionesService struct {
	repo repository.ConfigComisionesRepository
}

func NewComisionesService(repo repository.ConfigComisionesRepository) ComisionesService {
	return &comisionesService{repo: repo}
}

var cien = decimal.NewFromInt(100)

// ── Configuración ────────────────────────────────────────────────────────────

// obtenerOCrear devuelve la configuración singleton, creando la fila por
// defecto la primera vez.
func (s *comisionesService) obtenerOCrear(ctx context.Context) (*model.ConfiguracionComisionesInternas, error) {
	cfg, err := s.repo.Get(ctx)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	medio := decimal.NewFromFloat(0.5)
	hasta80 := decimal.NewFromFloat(79.99)
	hasta100 := decimal.NewFromFloat(99.99)
	cfg = &model.ConfiguracionComisionesInternas{
		SalesCloserPorcentaje: decimal.NewFromInt(2),
		SalesCloserMeses:      2,
		TraffickerPorcentaje:  decimal.NewFromInt(1),
		ChattersMinPorcentaje: medio,
		ChattersMaxPorcentaje: decimal.NewFromInt(2),
		EscalaRendimiento: []model.ReglaRendimiento{
			{DesdePorcentaje: decimal.Zero, HastaPorcentaje: &hasta80, ComisionPorcentaje: medio},
			{DesdePorcentaje: decimal.NewFromInt(80), HastaPorcentaje: &hasta100, ComisionPorcentaje: decimal.NewFromInt(1)},
			{DesdePorcentaje: decimal.NewFromInt(100), ComisionPorcentaje: decimal.NewFromInt(2)},
		},
	}
	if err := s.repo.Create(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *comisionesService) ObtenerConfig(ctx context.Context) (*dto.ConfigComisionesResponse, error) {
	cfg, err := s.obtenerOCrear(ctx)
	if err != nil {
		return nil, err
	}
	return configToResponse(cfg), nil
}

func (s *comisionesService) ActualizarConfig(ctx context.Context, req dto.ActualizarConfigComisionesRequest) (*dto.ConfigComisionesResponse, error) {
	if req.ChattersMinPorcentaje.GreaterThan(req.ChattersMaxPorcentaje) {
		return nil, fmt.Errorf("%w: chatters_min > chatters_max", ErrEntradaInvalida)
	}

	tramos := make([]Tramo, 0, len(req.EscalaRendimiento))
	for _, r := range req.EscalaRendimiento {
		tramos = append(tramos, Tramo{Desde: r.DesdePorcentaje, Hasta: r.HastaPorcentaje, Porcentaje: r.ComisionPorcentaje})
	}
	if err := validarTramos(tramos); err != nil {
		return nil, err
	}

	cfg, err := s.obtenerOCrear(ctx)
	if err != nil {
		return nil, err
	}
	cfg.SalesCloserPorcentaje = req.SalesCloserPorcentaje
	cfg.SalesCloserMeses = req.SalesCloserMeses
	cfg.TraffickerPorcentaje = req.TraffickerPorcentaje
	cfg.ChattersMinPorcentaje = req.ChattersMinPorcentaje
	cfg.ChattersMaxPorcentaje = req.ChattersMaxPorcentaje

	reglas := make([]model.ReglaRendimiento, 0, len(req.EscalaRendimiento))
	for _, r := range req.EscalaRendimiento {
		reglas = append(reglas, model.ReglaRendimiento{
			ConfigID:           cfg.ID,
			DesdePorcentaje:    r.DesdePorcentaje,
			HastaPorcentaje:    r.HastaPorcentaje,
			ComisionPorcentaje: r.ComisionPorcentaje,
		})
	}
	cfg.EscalaRendimiento = reglas

	if err := s.repo.Replace(ctx, cfg); err != nil {
		return nil, err
	}
	return configToResponse(cfg), nil
}

// ── CalcularTodas ────────────────────────────────────────────────────────────

func (s *comisionesService) CalcularTodas(ctx context.Context, req dto.CalcularComisionesInternasRequest) (*dto.ComisionesInternasResponse, error) {
	for nombre, v := range map[string]decimal.Decimal{
		"monto_suscripcion_usd":     req.MontoSuscripcionUSD,
		"revenue_trafico_usd":       req.RevenueTraficoUSD,
		"cumplimiento_objetivo_pct": req.CumplimientoObjetivoPct,
		"base_chatters_usd":         req.BaseChattersUSD,
	} {
		if v.IsNegative() {
			return nil, fmt.Errorf("%w: %s negativo", ErrEntradaInvalida, nombre)
		}
	}
	if req.MesesActiva < 0 {
		return nil, fmt.Errorf("%w: meses_activa negativo", ErrEntradaInvalida)
	}

	cfg, err := s.obtenerOCrear(ctx)
	if err != nil {
		return nil, err
	}

	closer := calcularSalesCloser(cfg, req.MontoSuscripcionUSD, req.MesesActiva)
	trafficker := calcularTrafficker(cfg, req.RevenueTraficoUSD)
	chatters, err := calcularChatters(cfg, req.CumplimientoObjetivoPct, req.BaseChattersUSD)
	if err != nil {
		return nil, err
	}

	total := closer.MontoComision.Add(trafficker.MontoComision).Add(chatters.MontoComision)
	return &dto.ComisionesInternasResponse{
		SalesCloser:   closer,
		Trafficker:    trafficker,
		Chatters:      chatters,
		TotalComision: total,
	}, nil
}

// calcularSalesCloser aplica el tope contractual de meses: la comisión del
// closer solo corre durante los primeros SalesCloserMeses de la modelo.
// Pasado el tope el resultado es cero con la nota explicando el corte.
func calcularSalesCloser(cfg *model.ConfiguracionComisionesInternas, suscripcion decimal.Decimal, mesesActiva int) dto.ComisionRolResponse {
	if mesesActiva > cfg.SalesCloserMeses {
		nota := fmt.Sprintf(
			"sin comisión: la modelo lleva %d meses activa y la comisión de closer solo aplica durante los primeros %d meses",
			mesesActiva, cfg.SalesCloserMeses,
		)
		return dto.ComisionRolResponse{
			Porcentaje:    cfg.SalesCloserPorcentaje,
			BaseUSD:       suscripcion,
			MontoComision: decimal.Zero,
			Nota:          &nota,
		}
	}
	return dto.ComisionRolResponse{
		Porcentaje:    cfg.SalesCloserPorcentaje,
		BaseUSD:       suscripcion,
		MontoComision: suscripcion.Mul(cfg.SalesCloserPorcentaje).Div(cien).Round(2),
	}
}

func calcularTrafficker(cfg *model.ConfiguracionComisionesInternas, revenueNeto decimal.Decimal) dto.ComisionRolResponse {
	return dto.ComisionRolResponse{
		Porcentaje:    cfg.TraffickerPorcentaje,
		BaseUSD:       revenueNeto,
		MontoComision: revenueNeto.Mul(cfg.TraffickerPorcentaje).Div(cien).Round(2),
	}
}

// calcularChatters resuelve el cumplimiento contra la escala de rendimiento
// (mismo contrato de tramos que la escala de comisión) y recorta el porcentaje
// resultante al rango configurado.
func calcularChatters(cfg *model.ConfiguracionComisionesInternas, cumplimiento, base decimal.Decimal) (dto.ComisionRolResponse, error) {
	tramos := make([]Tramo, 0, len(cfg.EscalaRendimiento))
	for _, r := range cfg.EscalaRendimiento {
		tramos = append(tramos, Tramo{Desde: r.DesdePorcentaje, Hasta: r.HastaPorcentaje, Porcentaje: r.ComisionPorcentaje})
	}

	tramo, err := resolverTramo(tramos, cumplimiento)
	if err != nil {
		return dto.ComisionRolResponse{}, err
	}

	pct := tramo.Porcentaje
	var nota *string
	if pct.LessThan(cfg.ChattersMinPorcentaje) {
		pct = cfg.ChattersMinPorcentaje
		n := "porcentaje elevado al mínimo configurado"
		nota = &n
	} else if pct.GreaterThan(cfg.ChattersMaxPorcentaje) {
		pct = cfg.ChattersMaxPorcentaje
		n := "porcentaje recortado al máximo configurado"
		nota = &n
	}

	return dto.ComisionRolResponse{
		Porcentaje:    pct,
		BaseUSD:       base,
		MontoComision: base.Mul(pct).Div(cien).Round(2),
		Nota:          nota,
	}, nil
}

func configToResponse(cfg *model.ConfiguracionComisionesInternas) *dto.ConfigComisionesResponse {
	reglas := make([]dto.ReglaRendimientoResponse, 0, len(cfg.EscalaRendimiento))
	for _, r := range cfg.EscalaRendimiento {
		reglas = append(reglas, dto.ReglaRendimientoResponse{
			DesdePorcentaje:    r.DesdePorcentaje,
			HastaPorcentaje:    r.HastaPorcentaje,
			ComisionPorcentaje: r.ComisionPorcentaje,
		})
	}
	return &dto.ConfigComisionesResponse{
		SalesCloserPorcentaje: cfg.SalesCloserPorcentaje,
		SalesCloserMeses:      cfg.SalesCloserMeses,
		TraffickerPorcentaje:  cfg.TraffickerPorcentaje,
		ChattersMinPorcentaje: cfg.ChattersMinPorcentaje,
		ChattersMaxPorcentaje: cfg.ChattersMaxPorcentaje,
		EscalaRendimiento:     reglas,
	}
}
