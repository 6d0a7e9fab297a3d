package repository

import (
	"context"

	"otfinanzas/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PeriodoRepository interface {
	DB() *gorm.DB
	FindPorPeriodo(ctx context.Context, mes, anio int) (*model.PeriodoConsolidado, error)
	// FindPorPeriodoTx lee la fila con FOR UPDATE dentro de la transacción:
	// el chequeo de bloqueo de periodo se evalúa en el commit de cada unidad,
	// no solo al inicio del lote.
	FindPorPeriodoTx(tx *gorm.DB, mes, anio int) (*model.PeriodoConsolidado, error)
	Create(ctx context.Context, tx *gorm.DB, p *model.PeriodoConsolidado) error
	Update(ctx context.Context, tx *gorm.DB, p *model.PeriodoConsolidado) error
	ListConsolidados(ctx context.Context) ([]model.PeriodoConsolidado, error)
}

type periodoRepo struct{ db *gorm.DB }

func NewPeriodoRepository(db *gorm.DB) PeriodoRepository { return &periodoRepo{db: db} }

func (r *periodoRepo) DB() *gorm.DB { return r.db }

func (r *periodoRepo) FindPorPeriodo(ctx context.Context, mes, anio int) (*model.PeriodoConsolidado, error) {
	var p model.PeriodoConsolidado
	err := r.db.WithContext(ctx).Where("mes = ? AND anio = ?", mes, anio).First(&p).Error
	return &p, err
}

func (r *periodoRepo) FindPorPeriodoTx(tx *gorm.DB, mes, anio int) (*model.PeriodoConsolidado, error) {
	var p model.PeriodoConsolidado
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("mes = ? AND anio = ?", mes, anio).
		First(&p).Error
	return &p, err
}

func (r *periodoRepo) Create(ctx context.Context, tx *gorm.DB, p *model.PeriodoConsolidado) error {
	return tx.WithContext(ctx).Create(p).Error
}

func (r *periodoRepo) Update(ctx context.Context, tx *gorm.DB, p *model.PeriodoConsolidado) error {
	return tx.WithContext(ctx).Save(p).Error
}

func (r *periodoRepo) ListConsolidados(ctx context.Context) ([]model.PeriodoConsolidado, error) {
	var periodos []model.PeriodoConsolidado
	err := r.db.WithContext(ctx).
		Where("estado IN ?", []string{model.PeriodoConsolidadoEstado, model.PeriodoCerrado}).
		Order("anio DESC, mes DESC").
		Find(&periodos).Error
	return periodos, err
}
