package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados de una liquidación. Solo avanzan hacia adelante; retroceder
// requiere override explícito de administrador.
const (
	LiquidacionCalculada         = "CALCULADO"
	LiquidacionPendienteRevision = "PENDIENTE_REVISION"
	LiquidacionAprobada          = "APROBADO"
	LiquidacionPagada            = "PAGADO"
)

// Liquidacion es el resultado financiero de una modelo en un periodo
// (mes, anio). Existe a lo sumo una fila por (modelo, mes, anio); recalcular
// sobre un periodo abierto sobreescribe el borrador de forma determinista,
// nunca acumula. Una vez consolidado el periodo la fila queda congelada.
type Liquidacion struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ModeloID string    `gorm:"not null;index:idx_liquidacion_periodo,unique,priority:1"`
	Mes      int       `gorm:"not null;index:idx_liquidacion_periodo,unique,priority:2"`
	Anio     int       `gorm:"not null;index:idx_liquidacion_periodo,unique,priority:3"`

	VentasNetasUSD     decimal.Decimal `gorm:"type:decimal(14,2);not null;column:ventas_netas_usd"`
	ComisionAgenciaUSD decimal.Decimal `gorm:"type:decimal(14,2);not null;column:comision_agencia_usd"`
	ComisionBancoUSD   decimal.Decimal `gorm:"type:decimal(14,2);not null;column:comision_banco_usd"`
	GananciaModeloUSD  decimal.Decimal `gorm:"type:decimal(14,2);not null;column:ganancia_modelo_usd"`
	GananciaOnlyTopUSD decimal.Decimal `gorm:"type:decimal(14,2);not null;column:ganancia_onlytop_usd"`

	PorcentajeComisionAgencia decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	PorcentajeComisionBanco   decimal.Decimal `gorm:"type:decimal(5,2);not null"`

	Estado       string    `gorm:"type:varchar(30);not null;default:'CALCULADO'"`
	FechaCalculo time.Time `gorm:"not null"`
	CalculadoPor string    `gorm:"not null"`
	AprobadoPor  *string
	Notas        *string

	// Version implementa el lock optimista: cada sobreescritura exige la
	// versión leída; el escritor concurrente que pierde recibe conflicto.
	Version int `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Liquidacion) TableName() string { return "liquidaciones" }
