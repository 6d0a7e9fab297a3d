package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConfiguracionComisionesInternas es un singleton (una sola fila) con los
// parámetros de las tres comisiones internas: sales closer, trafficker y
// equipo de chatters.
type ConfiguracionComisionesInternas struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`

	// Sales closer: porcentaje sobre la suscripción, aplicable solo durante
	// los primeros SalesCloserMeses de antigüedad de la modelo.
	SalesCloserPorcentaje decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	SalesCloserMeses      int             `gorm:"not null"`

	// Trafficker: porcentaje sobre el revenue neto atribuible a su tráfico.
	TraffickerPorcentaje decimal.Decimal `gorm:"type:decimal(5,2);not null"`

	// Chatters: el porcentaje resultante de la escala de rendimiento se
	// recorta al rango [ChattersMinPorcentaje, ChattersMaxPorcentaje].
	ChattersMinPorcentaje decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	ChattersMaxPorcentaje decimal.Decimal `gorm:"type:decimal(5,2);not null"`

	EscalaRendimiento []ReglaRendimiento `gorm:"foreignKey:ConfigID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ConfiguracionComisionesInternas) TableName() string { return "configuracion_comisiones" }

// ReglaRendimiento es un tramo de la escala de rendimiento de chatters.
// Mismo contrato de resolución que ReglaComision, pero el dominio es
// "% de cumplimiento de objetivo" en lugar de USD.
type ReglaRendimiento struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConfigID uuid.UUID `gorm:"type:uuid;not null;index"`
	// DesdePorcentaje / HastaPorcentaje acotan el cumplimiento de objetivo.
	// HastaPorcentaje nulo significa "y en adelante".
	DesdePorcentaje decimal.Decimal  `gorm:"type:decimal(6,2);not null"`
	HastaPorcentaje *decimal.Decimal `gorm:"type:decimal(6,2)"`
	// ComisionPorcentaje se aplica sobre la base de chatters cuando el
	// cumplimiento cae en este tramo.
	ComisionPorcentaje decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	CreatedAt          time.Time
}

func (ReglaRendimiento) TableName() string { return "reglas_rendimiento" }
