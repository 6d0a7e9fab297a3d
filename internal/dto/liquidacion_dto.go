package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CalcularLiquidacionRequest struct {
	ModeloID string `json:"modelo_id" validate:"required"`
	Mes      int    `json:"mes"  validate:"required,min=1,max=12"`
	Anio     int    `json:"anio" validate:"required,min=2020,max=2100"`
	// PorcentajeComisionBanco reemplaza al registro de procesadores cuando
	// está presente.
	PorcentajeComisionBanco *decimal.Decimal `json:"porcentaje_comision_banco"`
	Notas                   *string          `json:"notas"`
}

type RecalcularRequest struct {
	Mes  int `json:"mes"  validate:"required,min=1,max=12"`
	Anio int `json:"anio" validate:"required,min=2020,max=2100"`
	// ModeloIDs vacío = todas las modelos con ventas en el periodo.
	ModeloIDs               []string         `json:"modelo_ids"`
	PorcentajeComisionBanco *decimal.Decimal `json:"porcentaje_comision_banco"`
}

type ActualizarEstadoRequest struct {
	NuevoEstado string  `json:"nuevo_estado" validate:"required,oneof=CALCULADO PENDIENTE_REVISION APROBADO PAGADO"`
	Notas       *string `json:"notas"`
}

type LiquidacionFilter struct {
	Mes    int    `form:"mes"    validate:"omitempty,min=1,max=12"`
	Anio   int    `form:"anio"   validate:"omitempty,min=2020,max=2100"`
	Estado string `form:"estado" validate:"omitempty,oneof=CALCULADO PENDIENTE_REVISION APROBADO PAGADO"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LiquidacionResponse struct {
	ID       string `json:"id"`
	ModeloID string `json:"modelo_id"`
	Mes      int    `json:"mes"`
	Anio     int    `json:"anio"`

	VentasNetasUSD     decimal.Decimal `json:"ventas_netas_usd"`
	ComisionAgenciaUSD decimal.Decimal `json:"comision_agencia_usd"`
	ComisionBancoUSD   decimal.Decimal `json:"comision_banco_usd"`
	GananciaModeloUSD  decimal.Decimal `json:"ganancia_modelo_usd"`
	GananciaOnlyTopUSD decimal.Decimal `json:"ganancia_onlytop_usd"`

	PorcentajeComisionAgencia decimal.Decimal `json:"porcentaje_comision_agencia"`
	PorcentajeComisionBanco   decimal.Decimal `json:"porcentaje_comision_banco"`

	Estado       string  `json:"estado"`
	FechaCalculo string  `json:"fecha_calculo"`
	CalculadoPor string  `json:"calculado_por"`
	AprobadoPor  *string `json:"aprobado_por,omitempty"`
	Notas        *string `json:"notas,omitempty"`
}

type LiquidacionListResponse struct {
	Data  []LiquidacionResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// ErrorRecalculo reporta la falla de una unidad del lote.
type ErrorRecalculo struct {
	ModeloID string `json:"modelo_id"`
	Motivo   string `json:"motivo"`
}

// RecalcularResponse resume el lote: las unidades fallidas se reportan en
// Errores, nunca abortan el lote completo.
type RecalcularResponse struct {
	Procesadas int                   `json:"procesadas"`
	Exitosas   int                   `json:"exitosas"`
	Errores    []ErrorRecalculo      `json:"errores"`
	Resultados []LiquidacionResponse `json:"resultados"`
}

type EstadisticasResponse struct {
	Liquidaciones           int             `json:"liquidaciones"`
	PorEstado               map[string]int  `json:"por_estado"`
	TotalVentasNetasUSD     decimal.Decimal `json:"total_ventas_netas_usd"`
	TotalComisionAgenciaUSD decimal.Decimal `json:"total_comision_agencia_usd"`
	TotalComisionBancoUSD   decimal.Decimal `json:"total_comision_banco_usd"`
	TotalGananciaModeloUSD  decimal.Decimal `json:"total_ganancia_modelo_usd"`
	TotalGananciaOnlyTopUSD decimal.Decimal `json:"total_ganancia_onlytop_usd"`
}
