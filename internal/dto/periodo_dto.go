package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ConsolidarPeriodoRequest struct {
	Mes         int     `json:"mes"  validate:"required,min=1,max=12"`
	Anio        int     `json:"anio" validate:"required,min=2020,max=2100"`
	NotasCierre *string `json:"notas_cierre"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TotalesPeriodoResponse struct {
	TotalIngresosUSD        decimal.Decimal `json:"total_ingresos_usd"`
	TotalEgresosUSD         decimal.Decimal `json:"total_egresos_usd"`
	SaldoUSD                decimal.Decimal `json:"saldo_usd"`
	TotalVentasNetasUSD     decimal.Decimal `json:"total_ventas_netas_usd"`
	TotalComisionAgenciaUSD decimal.Decimal `json:"total_comision_agencia_usd"`
	TotalComisionBancoUSD   decimal.Decimal `json:"total_comision_banco_usd"`
	TotalGananciaModeloUSD  decimal.Decimal `json:"total_ganancia_modelo_usd"`
	LiquidacionesIncluidas  int             `json:"liquidaciones_incluidas"`
}

type PeriodoResponse struct {
	ID                 string                 `json:"id"`
	Mes                int                    `json:"mes"`
	Anio               int                    `json:"anio"`
	Estado             string                 `json:"estado"`
	Totales            TotalesPeriodoResponse `json:"totales"`
	FechaConsolidacion *string                `json:"fecha_consolidacion,omitempty"`
	ConsolidadoPor     *string                `json:"consolidado_por,omitempty"`
	NotasCierre        *string                `json:"notas_cierre,omitempty"`
}
