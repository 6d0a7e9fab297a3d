package repository

import (
	"context"

	"otfinanzas/internal/model"

	"gorm.io/gorm"
)

type ConfigComisionesRepository interface {
	// Get devuelve la única fila de configuración.
	Get(ctx context.Context) (*model.ConfiguracionComisionesInternas, error)
	Create(ctx context.Context, c *model.ConfiguracionComisionesInternas) error
	// Replace sobreescribe la configuración y su escala de rendimiento en una
	// transacción.
	Replace(ctx context.Context, c *model.ConfiguracionComisionesInternas) error
}

type configComisionesRepo struct{ db *gorm.DB }

func NewConfigComisionesRepository(db *gorm.DB) ConfigComisionesRepository {
	return &configComisionesRepo{db: db}
}

func (r *configComisionesRepo) Get(ctx context.Context) (*model.ConfiguracionComisionesInternas, error) {
	var c model.ConfiguracionComisionesInternas
	err := r.db.WithContext(ctx).Preload("EscalaRendimiento", func(db *gorm.DB) *gorm.DB {
		return db.Order("desde_porcentaje ASC")
	}).First(&c).Error
	return &c, err
}

func (r *configComisionesRepo) Create(ctx context.Context, c *model.ConfiguracionComisionesInternas) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *configComisionesRepo) Replace(ctx context.Context, c *model.ConfiguracionComisionesInternas) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("config_id = ?", c.ID).Delete(&model.ReglaRendimiento{}).Error; err != nil {
			return err
		}
		return tx.Save(c).Error
	})
}
