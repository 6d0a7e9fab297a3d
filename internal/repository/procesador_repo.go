package repository

import (
	"context"
	"time"

	"otfinanzas/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProcesadorRepository interface {
	Create(ctx context.Context, p *model.ProcesadorPago) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ProcesadorPago, error)
	List(ctx context.Context) ([]model.ProcesadorPago, error)
	Update(ctx context.Context, p *model.ProcesadorPago) error
	Delete(ctx context.Context, id uuid.UUID) error
	// FindVigente devuelve el procesador elegible para la fecha objetivo:
	// activo, con fecha_efectiva <= fecha, la más reciente gana.
	FindVigente(ctx context.Context, fecha time.Time) (*model.ProcesadorPago, error)
	// FindVigentePorNombre aplica la misma regla restringida a un nombre:
	// entre varias entradas del mismo procesador gana la última vigente.
	FindVigentePorNombre(ctx context.Context, nombre string, fecha time.Time) (*model.ProcesadorPago, error)
}

type procesadorRepo struct{ db *gorm.DB }

func NewProcesadorRepository(db *gorm.DB) ProcesadorRepository { return &procesadorRepo{db: db} }

func (r *procesadorRepo) Create(ctx context.Context, p *model.ProcesadorPago) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *procesadorRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ProcesadorPago, error) {
	var p model.ProcesadorPago
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *procesadorRepo) List(ctx context.Context) ([]model.ProcesadorPago, error) {
	var ps []model.ProcesadorPago
	err := r.db.WithContext(ctx).Order("nombre ASC, fecha_efectiva DESC").Find(&ps).Error
	return ps, err
}

func (r *procesadorRepo) Update(ctx context.Context, p *model.ProcesadorPago) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *procesadorRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ProcesadorPago{}, id).Error
}

func (r *procesadorRepo) FindVigente(ctx context.Context, fecha time.Time) (*model.ProcesadorPago, error) {
	var p model.ProcesadorPago
	err := r.db.WithContext(ctx).
		Where("activo = true AND fecha_efectiva <= ?", fecha).
		Order("fecha_efectiva DESC").
		First(&p).Error
	return &p, err
}

func (r *procesadorRepo) FindVigentePorNombre(ctx context.Context, nombre string, fecha time.Time) (*model.ProcesadorPago, error) {
	var p model.ProcesadorPago
	err := r.db.WithContext(ctx).
		Where("nombre = ? AND activo = true AND fecha_efectiva <= ?", nombre, fecha).
		Order("fecha_efectiva DESC").
		First(&p).Error
	return &p, err
}
