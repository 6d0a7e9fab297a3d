package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RegistrarMovimientoRequest struct {
	Mes          int             `json:"mes"  validate:"required,min=1,max=12"`
	Anio         int             `json:"anio" validate:"required,min=2020,max=2100"`
	Tipo         string          `json:"tipo" validate:"required,oneof=INGRESO EGRESO"`
	Origen       string          `json:"origen" validate:"required,min=2"`
	MontoUSD     decimal.Decimal `json:"monto_usd" validate:"required,gt=0"`
	Descripcion  string          `json:"descripcion" validate:"required,min=3"`
	ReferenciaID *string         `json:"referencia_id" validate:"omitempty,uuid"`
}

type RevertirMovimientoRequest struct {
	Motivo string `json:"motivo" validate:"required,min=5"`
}

type MovimientoFilter struct {
	Mes    int    `form:"mes"    validate:"omitempty,min=1,max=12"`
	Anio   int    `form:"anio"   validate:"omitempty,min=2020,max=2100"`
	Tipo   string `form:"tipo"   validate:"omitempty,oneof=INGRESO EGRESO"`
	Origen string `form:"origen"`
	Estado string `form:"estado" validate:"omitempty,oneof=ACTIVO REVERTIDO"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovimientoResponse struct {
	ID            string          `json:"id"`
	Mes           int             `json:"mes"`
	Anio          int             `json:"anio"`
	Tipo          string          `json:"tipo"`
	Origen        string          `json:"origen"`
	MontoUSD      decimal.Decimal `json:"monto_usd"`
	Descripcion   string          `json:"descripcion"`
	Estado        string          `json:"estado"`
	ReferenciaID  *string         `json:"referencia_id,omitempty"`
	CreadoPor     string          `json:"creado_por"`
	FechaCreacion string          `json:"fecha_creacion"`
}

type MovimientoListResponse struct {
	Data  []MovimientoResponse `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

type RevertirResponse struct {
	Original MovimientoResponse `json:"original"`
	Reversa  MovimientoResponse `json:"reversa"`
}

// ResumenPeriodoResponse agrega los movimientos de un periodo por tipo y
// origen. Solo considera movimientos cuyo periodo coincide, sin importar la
// fecha de creación.
type ResumenPeriodoResponse struct {
	Mes              int                        `json:"mes"`
	Anio             int                        `json:"anio"`
	TotalIngresosUSD decimal.Decimal            `json:"total_ingresos_usd"`
	TotalEgresosUSD  decimal.Decimal            `json:"total_egresos_usd"`
	SaldoUSD         decimal.Decimal            `json:"saldo_usd"`
	PorOrigen        map[string]decimal.Decimal `json:"por_origen"`
}

type SaldoResponse struct {
	SaldoUSD decimal.Decimal `json:"saldo_usd"`
}

type FlujoCajaMes struct {
	Mes         int             `json:"mes"`
	IngresosUSD decimal.Decimal `json:"ingresos_usd"`
	EgresosUSD  decimal.Decimal `json:"egresos_usd"`
	NetoUSD     decimal.Decimal `json:"neto_usd"`
}

type FlujoCajaResponse struct {
	Anio  int            `json:"anio"`
	Meses []FlujoCajaMes `json:"meses"`
}

// ComparativaResponse contrasta dos periodos.
type ComparativaResponse struct {
	PeriodoA      ResumenPeriodoResponse `json:"periodo_a"`
	PeriodoB      ResumenPeriodoResponse `json:"periodo_b"`
	DeltaSaldoUSD decimal.Decimal        `json:"delta_saldo_usd"`
}
