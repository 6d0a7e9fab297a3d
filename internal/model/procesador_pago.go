package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tipos de comisión de un procesador de pago.
const (
	TipoComisionPorcentaje = "PERCENTAGE"
	TipoComisionFijoUSD    = "FIXED_USD"
	TipoComisionFijoCOP    = "FIXED_COP"
)

// ProcesadorPago guarda la regla de comisión bancaria de cada pasarela de pago.
// Puede haber varias entradas por nombre con distinta FechaEfectiva; para una
// fecha objetivo gana la entrada activa más reciente con FechaEfectiva <= fecha.
type ProcesadorPago struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre string    `gorm:"index;not null"`
	// TipoComision: PERCENTAGE | FIXED_USD | FIXED_COP
	TipoComision string `gorm:"type:varchar(20);not null"`
	// ValorComision es un porcentaje (PERCENTAGE) o un monto fijo en la
	// moneda que indica el tipo (FIXED_USD en USD, FIXED_COP en COP).
	ValorComision decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	FechaEfectiva time.Time       `gorm:"not null;index"`
	Activo        bool            `gorm:"not null;default:true"`
	Descripcion   *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ProcesadorPago) TableName() string { return "procesadores_pago" }
