package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ReglaComisionRequest struct {
	MinUSD decimal.Decimal `json:"min_usd" validate:"min=0"`
	// MaxUSD nulo = "y en adelante"; solo válido en el último tramo.
	MaxUSD     *decimal.Decimal `json:"max_usd"`
	Porcentaje decimal.Decimal  `json:"porcentaje" validate:"min=0,max=100"`
}

type CrearEscalaRequest struct {
	Nombre      string                 `json:"nombre" validate:"required,min=3"`
	Descripcion *string                `json:"descripcion"`
	Reglas      []ReglaComisionRequest `json:"reglas" validate:"required,min=1,dive"`
}

type ActualizarEscalaRequest struct {
	Nombre      *string                `json:"nombre" validate:"omitempty,min=3"`
	Descripcion *string                `json:"descripcion"`
	Reglas      []ReglaComisionRequest `json:"reglas" validate:"omitempty,min=1,dive"`
}

type CalcularComisionRequest struct {
	MontoUSD decimal.Decimal `json:"monto_usd" validate:"min=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ReglaComisionResponse struct {
	MinUSD     decimal.Decimal  `json:"min_usd"`
	MaxUSD     *decimal.Decimal `json:"max_usd"`
	Porcentaje decimal.Decimal  `json:"porcentaje"`
}

type EscalaResponse struct {
	ID          string                  `json:"id"`
	Nombre      string                  `json:"nombre"`
	Descripcion *string                 `json:"descripcion"`
	Activa      bool                    `json:"activa"`
	EsDefault   bool                    `json:"es_default"`
	Reglas      []ReglaComisionResponse `json:"reglas"`
}

// CalculoComisionResponse es el resultado de resolver un monto contra la
// escala activa.
type CalculoComisionResponse struct {
	MontoUSD      decimal.Decimal       `json:"monto_usd"`
	Regla         ReglaComisionResponse `json:"regla"`
	Porcentaje    decimal.Decimal       `json:"porcentaje"`
	MontoComision decimal.Decimal       `json:"monto_comision"`
	MontoNeto     decimal.Decimal       `json:"monto_neto"`
}
