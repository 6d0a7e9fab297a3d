package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de un periodo contable.
// ABIERTO -> EN_REVISION -> CONSOLIDADO -> CERRADO (EN_REVISION es opcional).
const (
	PeriodoAbierto           = "ABIERTO"
	PeriodoEnRevision        = "EN_REVISION"
	PeriodoConsolidadoEstado = "CONSOLIDADO"
	PeriodoCerrado           = "CERRADO"
)

// PeriodoConsolidado representa el cierre de libros de un mes. Al consolidar
// se congela la foto de totales y, desde ese momento, liquidaciones y
// movimientos de ese periodo rechazan escrituras ordinarias.
type PeriodoConsolidado struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Mes  int       `gorm:"not null;index:idx_periodo,unique,priority:1"`
	Anio int       `gorm:"not null;index:idx_periodo,unique,priority:2"`

	Estado string `gorm:"type:varchar(20);not null;default:'ABIERTO'"`

	// Foto de totales tomada en el momento de consolidar. Cero hasta entonces.
	TotalIngresosUSD        decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0;column:total_ingresos_usd"`
	TotalEgresosUSD         decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0;column:total_egresos_usd"`
	SaldoUSD                decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0;column:saldo_usd"`
	TotalVentasNetasUSD     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0;column:total_ventas_netas_usd"`
	TotalComisionAgenciaUSD decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0;column:total_comision_agencia_usd"`
	TotalComisionBancoUSD   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0;column:total_comision_banco_usd"`
	TotalGananciaModeloUSD  decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0;column:total_ganancia_modelo_usd"`
	LiquidacionesIncluidas  int             `gorm:"not null;default:0"`

	FechaConsolidacion *time.Time
	ConsolidadoPor     *string
	NotasCierre        *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PeriodoConsolidado) TableName() string { return "periodos_consolidados" }

// PermiteEscritura indica si el periodo acepta escrituras ordinarias
// (recomputar liquidaciones, registrar movimientos).
func (p *PeriodoConsolidado) PermiteEscritura() bool {
	return p.Estado == PeriodoAbierto || p.Estado == PeriodoEnRevision
}
