package repository

import (
	"context"

	"otfinanzas/internal/dto"
	"otfinanzas/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TotalesLiquidaciones agrega las liquidaciones de un periodo para la foto de
// consolidación y para estadísticas.
type TotalesLiquidaciones struct {
	Cantidad           int
	VentasNetasUSD     decimal.Decimal
	ComisionAgenciaUSD decimal.Decimal
	ComisionBancoUSD   decimal.Decimal
	GananciaModeloUSD  decimal.Decimal
	GananciaOnlyTopUSD decimal.Decimal
}

type LiquidacionRepository interface {
	DB() *gorm.DB
	Create(ctx context.Context, tx *gorm.DB, l *model.Liquidacion) error
	// UpdateConVersion sobreescribe la fila solo si nadie la tocó desde la
	// lectura (WHERE version = versionLeida). Devuelve las filas afectadas:
	// cero significa que otro escritor ganó la carrera.
	UpdateConVersion(ctx context.Context, tx *gorm.DB, l *model.Liquidacion, versionLeida int) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Liquidacion, error)
	FindPorModeloYPeriodo(ctx context.Context, modeloID string, mes, anio int) (*model.Liquidacion, error)
	List(ctx context.Context, filter dto.LiquidacionFilter) ([]model.Liquidacion, int64, error)
	UpdateEstado(ctx context.Context, l *model.Liquidacion) error
	Totales(ctx context.Context, mes, anio int) (*TotalesLiquidaciones, error)
	ContarPorEstado(ctx context.Context, mes, anio int) (map[string]int, error)
}

type liquidacionRepo struct{ db *gorm.DB }

func NewLiquidacionRepository(db *gorm.DB) LiquidacionRepository { return &liquidacionRepo{db: db} }

func (r *liquidacionRepo) DB() *gorm.DB { return r.db }

func (r *liquidacionRepo) Create(ctx context.Context, tx *gorm.DB, l *model.Liquidacion) error {
	return tx.WithContext(ctx).Create(l).Error
}

func (r *liquidacionRepo) UpdateConVersion(ctx context.Context, tx *gorm.DB, l *model.Liquidacion, versionLeida int) (int64, error) {
	l.Version = versionLeida + 1
	res := tx.WithContext(ctx).Model(&model.Liquidacion{}).
		Where("id = ? AND version = ?", l.ID, versionLeida).
		Select("*").Omit("id", "created_at").
		Updates(l)
	return res.RowsAffected, res.Error
}

func (r *liquidacionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Liquidacion, error) {
	var l model.Liquidacion
	err := r.db.WithContext(ctx).First(&l, id).Error
	return &l, err
}

func (r *liquidacionRepo) FindPorModeloYPeriodo(ctx context.Context, modeloID string, mes, anio int) (*model.Liquidacion, error) {
	var l model.Liquidacion
	err := r.db.WithContext(ctx).
		Where("modelo_id = ? AND mes = ? AND anio = ?", modeloID, mes, anio).
		First(&l).Error
	return &l, err
}

func (r *liquidacionRepo) List(ctx context.Context, filter dto.LiquidacionFilter) ([]model.Liquidacion, int64, error) {
	var liqs []model.Liquidacion
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Liquidacion{})
	if filter.Mes != 0 {
		q = q.Where("mes = ?", filter.Mes)
	}
	if filter.Anio != 0 {
		q = q.Where("anio = ?", filter.Anio)
	}
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("anio DESC, mes DESC, modelo_id ASC").
		Offset(offset).Limit(filter.Limit).
		Find(&liqs).Error
	return liqs, total, err
}

func (r *liquidacionRepo) UpdateEstado(ctx context.Context, l *model.Liquidacion) error {
	return r.db.WithContext(ctx).Model(l).
		Select("estado", "notas", "aprobado_por", "updated_at").
		Updates(l).Error
}

func (r *liquidacionRepo) Totales(ctx context.Context, mes, anio int) (*TotalesLiquidaciones, error) {
	var row struct {
		Cantidad           int
		VentasNetasUSD     decimal.Decimal
		ComisionAgenciaUSD decimal.Decimal
		ComisionBancoUSD   decimal.Decimal
		GananciaModeloUSD  decimal.Decimal
		GananciaOnlyTopUSD decimal.Decimal
	}
	q := r.db.WithContext(ctx).Model(&model.Liquidacion{}).
		Select(`COUNT(*) AS cantidad,
			COALESCE(SUM(ventas_netas_usd), 0) AS ventas_netas_usd,
			COALESCE(SUM(comision_agencia_usd), 0) AS comision_agencia_usd,
			COALESCE(SUM(comision_banco_usd), 0) AS comision_banco_usd,
			COALESCE(SUM(ganancia_modelo_usd), 0) AS ganancia_modelo_usd,
			COALESCE(SUM(ganancia_onlytop_usd), 0) AS ganancia_onlytop_usd`)
	if mes != 0 {
		q = q.Where("mes = ?", mes)
	}
	if anio != 0 {
		q = q.Where("anio = ?", anio)
	}
	if err := q.Scan(&row).Error; err != nil {
		return nil, err
	}
	return &TotalesLiquidaciones{
		Cantidad:           row.Cantidad,
		VentasNetasUSD:     row.VentasNetasUSD,
		ComisionAgenciaUSD: row.ComisionAgenciaUSD,
		ComisionBancoUSD:   row.ComisionBancoUSD,
		GananciaModeloUSD:  row.GananciaModeloUSD,
		GananciaOnlyTopUSD: row.GananciaOnlyTopUSD,
	}, nil
}

func (r *liquidacionRepo) ContarPorEstado(ctx context.Context, mes, anio int) (map[string]int, error) {
	var rows []struct {
		Estado   string
		Cantidad int
	}
	q := r.db.WithContext(ctx).Model(&model.Liquidacion{}).
		Select("estado, COUNT(*) AS cantidad").Group("estado")
	if mes != 0 {
		q = q.Where("mes = ?", mes)
	}
	if anio != 0 {
		q = q.Where("anio = ?", anio)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Estado] = r.Cantidad
	}
	return out, nil
}
