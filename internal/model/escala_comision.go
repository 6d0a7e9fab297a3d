package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EscalaComision agrupa las reglas escalonadas de comisión de agencia.
// Exactamente una escala puede estar activa a la vez; activarla desactiva
// todas las demás dentro de una misma transacción.
type EscalaComision struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre      string    `gorm:"uniqueIndex;not null"`
	Descripcion *string
	Activa      bool `gorm:"not null;default:false;index"`
	// EsDefault marca la escala creada automáticamente cuando no existe ninguna.
	EsDefault bool            `gorm:"not null;default:false"`
	Reglas    []ReglaComision `gorm:"foreignKey:EscalaID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (EscalaComision) TableName() string { return "escalas_comision" }

// ReglaComision es un tramo [MinUSD, MaxUSD] con su porcentaje.
// MaxUSD nulo significa "y en adelante" — solo válido en el último tramo.
// Los tramos de una escala no se solapan; se validan al escribir.
type ReglaComision struct {
	ID       uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EscalaID uuid.UUID        `gorm:"type:uuid;not null;index"`
	MinUSD   decimal.Decimal  `gorm:"type:decimal(14,2);not null;column:min_usd"`
	MaxUSD   *decimal.Decimal `gorm:"type:decimal(14,2);column:max_usd"`
	// Porcentaje de comisión de agencia aplicado a todo el monto del tramo.
	Porcentaje decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	CreatedAt  time.Time
}

func (ReglaComision) TableName() string { return "reglas_comision" }
