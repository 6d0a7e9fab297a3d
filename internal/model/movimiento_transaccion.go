package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MovimientoIngreso = "INGRESO"
	MovimientoEgreso  = "EGRESO"

	MovimientoActivo    = "ACTIVO"
	MovimientoRevertido = "REVERTIDO"
)

// Orígenes conocidos de movimientos. Origen es texto libre; estas constantes
// cubren los generados por el propio motor.
const (
	OrigenLiquidacion = "LIQUIDACION"
	OrigenReversa     = "REVERSA"
	OrigenManual      = "MANUAL"
)

// MovimientoTransaccion es una entrada del libro de movimientos de dinero.
// El libro es append-only: revertir crea un movimiento compensatorio con el
// tipo opuesto que referencia al original y marca el original REVERTIDO.
// Nunca se borra historia.
type MovimientoTransaccion struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`

	// Periodo contable al que pertenece el movimiento. Puede diferir de la
	// fecha de creación: un movimiento se puede retrodatar a un periodo
	// mientras ese periodo no esté consolidado.
	Mes  int `gorm:"not null;index:idx_movimiento_periodo,priority:1"`
	Anio int `gorm:"not null;index:idx_movimiento_periodo,priority:2"`

	Tipo        string          `gorm:"type:varchar(10);not null"` // INGRESO | EGRESO
	Origen      string          `gorm:"not null;index"`
	MontoUSD    decimal.Decimal `gorm:"type:decimal(14,2);not null;column:monto_usd"`
	Descripcion string          `gorm:"not null"`
	Estado      string          `gorm:"type:varchar(10);not null;default:'ACTIVO'"` // ACTIVO | REVERTIDO

	// ReferenciaID enlaza una reversa con su movimiento original, o un
	// movimiento con la entidad que lo generó (p. ej. una liquidación).
	ReferenciaID *uuid.UUID `gorm:"type:uuid;index"`
	CreadoPor    string     `gorm:"not null"`
	CreatedAt    time.Time
}

func (MovimientoTransaccion) TableName() string { return "movimientos_transaccion" }
