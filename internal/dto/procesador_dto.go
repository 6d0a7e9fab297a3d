package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProcesadorRequest struct {
	Nombre        string          `json:"nombre" validate:"required,min=2"`
	TipoComision  string          `json:"tipo_comision" validate:"required,oneof=PERCENTAGE FIXED_USD FIXED_COP"`
	ValorComision decimal.Decimal `json:"valor_comision" validate:"min=0"`
	// FechaEfectiva formato YYYY-MM-DD; el procesador solo es elegible a
	// partir de esa fecha.
	FechaEfectiva string  `json:"fecha_efectiva" validate:"required,datetime=2006-01-02"`
	Descripcion   *string `json:"descripcion"`
}

type ActualizarProcesadorRequest struct {
	TipoComision  *string          `json:"tipo_comision" validate:"omitempty,oneof=PERCENTAGE FIXED_USD FIXED_COP"`
	ValorComision *decimal.Decimal `json:"valor_comision"`
	FechaEfectiva *string          `json:"fecha_efectiva" validate:"omitempty,datetime=2006-01-02"`
	Activo        *bool            `json:"activo"`
	Descripcion   *string          `json:"descripcion"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProcesadorResponse struct {
	ID            string          `json:"id"`
	Nombre        string          `json:"nombre"`
	TipoComision  string          `json:"tipo_comision"`
	ValorComision decimal.Decimal `json:"valor_comision"`
	FechaEfectiva string          `json:"fecha_efectiva"`
	Activo        bool            `json:"activo"`
	Descripcion   *string         `json:"descripcion"`
}
