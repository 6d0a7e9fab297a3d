package dto

import "github.com/shopspring/decimal"

// ─── Configuración ──────────────────────────────────────────────────────────

type ReglaRendimientoRequest struct {
	DesdePorcentaje    decimal.Decimal  `json:"desde_porcentaje" validate:"min=0"`
	HastaPorcentaje    *decimal.Decimal `json:"hasta_porcentaje"`
	ComisionPorcentaje decimal.Decimal  `json:"comision_porcentaje" validate:"min=0,max=100"`
}

type ActualizarConfigComisionesRequest struct {
	SalesCloserPorcentaje decimal.Decimal           `json:"sales_closer_porcentaje" validate:"min=0,max=100"`
	SalesCloserMeses      int                       `json:"sales_closer_meses" validate:"min=1"`
	TraffickerPorcentaje  decimal.Decimal           `json:"trafficker_porcentaje" validate:"min=0,max=100"`
	ChattersMinPorcentaje decimal.Decimal           `json:"chatters_min_porcentaje" validate:"min=0,max=100"`
	ChattersMaxPorcentaje decimal.Decimal           `json:"chatters_max_porcentaje" validate:"min=0,max=100"`
	EscalaRendimiento     []ReglaRendimientoRequest `json:"escala_rendimiento" validate:"required,min=1,dive"`
}

type ReglaRendimientoResponse struct {
	DesdePorcentaje    decimal.Decimal  `json:"desde_porcentaje"`
	HastaPorcentaje    *decimal.Decimal `json:"hasta_porcentaje"`
	ComisionPorcentaje decimal.Decimal  `json:"comision_porcentaje"`
}

type ConfigComisionesResponse struct {
	SalesCloserPorcentaje decimal.Decimal            `json:"sales_closer_porcentaje"`
	SalesCloserMeses      int                        `json:"sales_closer_meses"`
	TraffickerPorcentaje  decimal.Decimal            `json:"trafficker_porcentaje"`
	ChattersMinPorcentaje decimal.Decimal            `json:"chatters_min_porcentaje"`
	ChattersMaxPorcentaje decimal.Decimal            `json:"chatters_max_porcentaje"`
	EscalaRendimiento     []ReglaRendimientoResponse `json:"escala_rendimiento"`
}

// ─── Cálculo ────────────────────────────────────────────────────────────────

// CalcularComisionesInternasRequest reúne las entradas de los tres roles.
// El cálculo es atómico: una entrada inválida en cualquier rol falla la
// llamada completa, nunca deja en cero un rol por error de otro.
type CalcularComisionesInternasRequest struct {
	// Sales closer
	MontoSuscripcionUSD decimal.Decimal `json:"monto_suscripcion_usd" validate:"min=0"`
	MesesActiva         int             `json:"meses_activa" validate:"min=0"`
	// Trafficker: revenue neto atribuible al tráfico que generó (lo aporta
	// el caller, aquí no se deriva).
	RevenueTraficoUSD decimal.Decimal `json:"revenue_trafico_usd" validate:"min=0"`
	// Chatters
	CumplimientoObjetivoPct decimal.Decimal `json:"cumplimiento_objetivo_pct" validate:"min=0"`
	BaseChattersUSD         decimal.Decimal `json:"base_chatters_usd" validate:"min=0"`
}

type ComisionRolResponse struct {
	Porcentaje    decimal.Decimal `json:"porcentaje"`
	BaseUSD       decimal.Decimal `json:"base_usd"`
	MontoComision decimal.Decimal `json:"monto_comision"`
	Nota          *string         `json:"nota,omitempty"`
}

type ComisionesInternasResponse struct {
	SalesCloser   ComisionRolResponse `json:"sales_closer"`
	Trafficker    ComisionRolResponse `json:"trafficker"`
	Chatters      ComisionRolResponse `json:"chatters"`
	TotalComision decimal.Decimal     `json:"total_comision"`
}
