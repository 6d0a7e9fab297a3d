package repository

import (
	"context"

	"otfinanzas/internal/dto"
	"otfinanzas/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ResumenMovimientos agrega los movimientos activos de un periodo.
type ResumenMovimientos struct {
	IngresosUSD decimal.Decimal
	EgresosUSD  decimal.Decimal
	PorOrigen   map[string]decimal.Decimal
}

type MovimientoRepository interface {
	DB() *gorm.DB
	Create(ctx context.Context, tx *gorm.DB, m *model.MovimientoTransaccion) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.MovimientoTransaccion, error)
	List(ctx context.Context, filter dto.MovimientoFilter) ([]model.MovimientoTransaccion, int64, error)
	// MarcarRevertido flippea ACTIVO -> REVERTIDO. Devuelve las filas
	// afectadas: cero significa que ya estaba revertido (o no existe).
	MarcarRevertido(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
	// SaldoActivo suma con signo todos los movimientos no revertidos.
	SaldoActivo(ctx context.Context) (decimal.Decimal, error)
	ResumenPeriodo(ctx context.Context, mes, anio int) (*ResumenMovimientos, error)
	FlujoAnual(ctx context.Context, anio int) ([]dto.FlujoCajaMes, error)
}

type movimientoRepo struct{ db *gorm.DB }

func NewMovimientoRepository(db *gorm.DB) MovimientoRepository { return &movimientoRepo{db: db} }

func (r *movimientoRepo) DB() *gorm.DB { return r.db }

func (r *movimientoRepo) Create(ctx context.Context, tx *gorm.DB, m *model.MovimientoTransaccion) error {
	return tx.WithContext(ctx).Create(m).Error
}

func (r *movimientoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.MovimientoTransaccion, error) {
	var m model.MovimientoTransaccion
	err := r.db.WithContext(ctx).First(&m, id).Error
	return &m, err
}

func (r *movimientoRepo) List(ctx context.Context, filter dto.MovimientoFilter) ([]model.MovimientoTransaccion, int64, error) {
	var movs []model.MovimientoTransaccion
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.MovimientoTransaccion{})
	if filter.Mes != 0 {
		q = q.Where("mes = ?", filter.Mes)
	}
	if filter.Anio != 0 {
		q = q.Where("anio = ?", filter.Anio)
	}
	if filter.Tipo != "" {
		q = q.Where("tipo = ?", filter.Tipo)
	}
	if filter.Origen != "" {
		q = q.Where("origen = ?", filter.Origen)
	}
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&movs).Error
	return movs, total, err
}

func (r *movimientoRepo) MarcarRevertido(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	res := tx.WithContext(ctx).Model(&model.MovimientoTransaccion{}).
		Where("id = ? AND estado = ?", id, model.MovimientoActivo).
		Update("estado", model.MovimientoRevertido)
	return res.RowsAffected, res.Error
}

func (r *movimientoRepo) SaldoActivo(ctx context.Context) (decimal.Decimal, error) {
	var row struct{ Saldo decimal.Decimal }
	err := r.db.WithContext(ctx).Model(&model.MovimientoTransaccion{}).
		Select(`COALESCE(SUM(CASE WHEN tipo = 'INGRESO' THEN monto_usd ELSE -monto_usd END), 0) AS saldo`).
		Where("estado != ?", model.MovimientoRevertido).
		Scan(&row).Error
	return row.Saldo, err
}

func (r *movimientoRepo) ResumenPeriodo(ctx context.Context, mes, anio int) (*ResumenMovimientos, error) {
	var rows []struct {
		Tipo   string
		Origen string
		Total  decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&model.MovimientoTransaccion{}).
		Select("tipo, origen, COALESCE(SUM(monto_usd), 0) AS total").
		Where("mes = ? AND anio = ? AND estado != ?", mes, anio, model.MovimientoRevertido).
		Group("tipo, origen").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	resumen := &ResumenMovimientos{
		IngresosUSD: decimal.Zero,
		EgresosUSD:  decimal.Zero,
		PorOrigen:   make(map[string]decimal.Decimal),
	}
	for _, row := range rows {
		signed := row.Total
		if row.Tipo == model.MovimientoEgreso {
			resumen.EgresosUSD = resumen.EgresosUSD.Add(row.Total)
			signed = row.Total.Neg()
		} else {
			resumen.IngresosUSD = resumen.IngresosUSD.Add(row.Total)
		}
		resumen.PorOrigen[row.Origen] = resumen.PorOrigen[row.Origen].Add(signed)
	}
	return resumen, nil
}

func (r *movimientoRepo) FlujoAnual(ctx context.Context, anio int) ([]dto.FlujoCajaMes, error) {
	var rows []struct {
		Mes      int
		Ingresos decimal.Decimal
		Egresos  decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&model.MovimientoTransaccion{}).
		Select(`mes,
			COALESCE(SUM(CASE WHEN tipo = 'INGRESO' THEN monto_usd ELSE 0 END), 0) AS ingresos,
			COALESCE(SUM(CASE WHEN tipo = 'EGRESO' THEN monto_usd ELSE 0 END), 0) AS egresos`).
		Where("anio = ? AND estado != ?", anio, model.MovimientoRevertido).
		Group("mes").Order("mes ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	porMes := make(map[int]dto.FlujoCajaMes, len(rows))
	for _, row := range rows {
		porMes[row.Mes] = dto.FlujoCajaMes{
			Mes:         row.Mes,
			IngresosUSD: row.Ingresos,
			EgresosUSD:  row.Egresos,
			NetoUSD:     row.Ingresos.Sub(row.Egresos),
		}
	}
	// Serie completa de 12 meses, con ceros donde no hubo movimientos.
	meses := make([]dto.FlujoCajaMes, 0, 12)
	for m := 1; m <= 12; m++ {
		if fila, ok := porMes[m]; ok {
			meses = append(meses, fila)
			continue
		}
		meses = append(meses, dto.FlujoCajaMes{
			Mes:         m,
			IngresosUSD: decimal.Zero,
			EgresosUSD:  decimal.Zero,
			NetoUSD:     decimal.Zero,
		})
	}
	return meses, nil
}
