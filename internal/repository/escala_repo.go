package repository

import (
	"context"

	"otfinanzas/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EscalaRepository interface {
	Create(ctx context.Context, e *model.EscalaComision) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.EscalaComision, error)
	FindActiva(ctx context.Context) (*model.EscalaComision, error)
	List(ctx context.Context) ([]model.EscalaComision, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, e *model.EscalaComision) error
	ReemplazarReglas(ctx context.Context, escalaID uuid.UUID, reglas []model.ReglaComision) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ActivarExclusiva desactiva todas las escalas y activa la indicada en
	// una sola transacción: la exclusividad es un comando contra el store,
	// no un flag mutable compartido.
	ActivarExclusiva(ctx context.Context, id uuid.UUID) error
}

type escalaRepo struct{ db *gorm.DB }

func NewEscalaRepository(db *gorm.DB) EscalaRepository { return &escalaRepo{db: db} }

func (r *escalaRepo) Create(ctx context.Context, e *model.EscalaComision) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *escalaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.EscalaComision, error) {
	var e model.EscalaComision
	err := r.db.WithContext(ctx).Preload("Reglas", func(db *gorm.DB) *gorm.DB {
		return db.Order("min_usd ASC")
	}).First(&e, id).Error
	return &e, err
}

func (r *escalaRepo) FindActiva(ctx context.Context) (*model.EscalaComision, error) {
	var e model.EscalaComision
	err := r.db.WithContext(ctx).Preload("Reglas", func(db *gorm.DB) *gorm.DB {
		return db.Order("min_usd ASC")
	}).Where("activa = true").First(&e).Error
	return &e, err
}

func (r *escalaRepo) List(ctx context.Context) ([]model.EscalaComision, error) {
	var escalas []model.EscalaComision
	err := r.db.WithContext(ctx).Preload("Reglas", func(db *gorm.DB) *gorm.DB {
		return db.Order("min_usd ASC")
	}).Order("created_at ASC").Find(&escalas).Error
	return escalas, err
}

func (r *escalaRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.EscalaComision{}).Count(&n).Error
	return n, err
}

func (r *escalaRepo) Update(ctx context.Context, e *model.EscalaComision) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *escalaRepo) ReemplazarReglas(ctx context.Context, escalaID uuid.UUID, reglas []model.ReglaComision) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("escala_id = ?", escalaID).Delete(&model.ReglaComision{}).Error; err != nil {
			return err
		}
		for i := range reglas {
			reglas[i].EscalaID = escalaID
		}
		return tx.Create(&reglas).Error
	})
}

func (r *escalaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.EscalaComision{}, id).Error
}

func (r *escalaRepo) ActivarExclusiva(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.EscalaComision{}).Where("activa = true").Update("activa", false).Error; err != nil {
			return err
		}
		res := tx.Model(&model.EscalaComision{}).Where("id = ?", id).Update("activa", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
