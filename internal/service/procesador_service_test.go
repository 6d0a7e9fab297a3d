package service

import (
	"context"
	"testing"
	"time"

	"otfinanzas/internal/infra"
	"otfinanzas/internal/model"
	"otfinanzas/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeProcesadorRepo struct {
	procesadores []*model.ProcesadorPago
}

var _ repository.ProcesadorRepository = (*fakeProcesadorRepo)(nil)

func (f *fakeProcesadorRepo) Create(_ context.Context, p *model.ProcesadorPago) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.procesadores = append(f.procesadores, p)
	return nil
}

func (f *fakeProcesadorRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ProcesadorPago, error) {
	for _, p := range f.procesadores {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProcesadorRepo) List(_ context.Context) ([]model.ProcesadorPago, error) {
	out := make([]model.ProcesadorPago, 0, len(f.procesadores))
	for _, p := range f.procesadores {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProcesadorRepo) Update(_ context.Context, p *model.ProcesadorPago) error {
	for i, existente := range f.procesadores {
		if existente.ID == p.ID {
			f.procesadores[i] = p
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeProcesadorRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, p := range f.procesadores {
		if p.ID == id {
			f.procesadores = append(f.procesadores[:i], f.procesadores[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeProcesadorRepo) FindVigente(_ context.Context, fecha time.Time) (*model.ProcesadorPago, error) {
	var vigente *model.ProcesadorPago
	for _, p := range f.procesadores {
		if !p.Activo || p.FechaEfectiva.After(fecha) {
			continue
		}
		if vigente == nil || p.FechaEfectiva.After(vigente.FechaEfectiva) {
			vigente = p
		}
	}
	if vigente == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return vigente, nil
}

func (f *fakeProcesadorRepo) FindVigentePorNombre(_ context.Context, nombre string, fecha time.Time) (*model.ProcesadorPago, error) {
	var vigente *model.ProcesadorPago
	for _, p := range f.procesadores {
		if p.Nombre != nombre || !p.Activo || p.FechaEfectiva.After(fecha) {
			continue
		}
		if vigente == nil || p.FechaEfectiva.After(vigente.FechaEfectiva) {
			vigente = p
		}
	}
	if vigente == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return vigente, nil
}

// fakeTRM publica tasas por fecha exacta (clave YYYY-MM-DD).
type fakeTRM struct {
	tasas map[string]decimal.Decimal
}

var _ TasaCambioLookup = (*fakeTRM)(nil)

func (f *fakeTRM) RatePorFecha(_ context.Context, fecha time.Time) (decimal.Decimal, error) {
	tasa, ok := f.tasas[fecha.Format(fechaISO)]
	if !ok {
		return decimal.Zero, infra.ErrSinTasa
	}
	return tasa, nil
}

func fechaEfectiva(s string) time.Time {
	f, err := time.Parse(fechaISO, s)
	if err != nil {
		panic(err)
	}
	return f
}

func procesador(nombre, tipo, valor, fecha string) *model.ProcesadorPago {
	return &model.ProcesadorPago{
		ID:            uuid.New(),
		Nombre:        nombre,
		TipoComision:  tipo,
		ValorComision: dec(valor),
		FechaEfectiva: fechaEfectiva(fecha),
		Activo:        true,
	}
}

func TestComisionVigentePorcentaje(t *testing.T) {
	repo := &fakeProcesadorRepo{procesadores: []*model.ProcesadorPago{
		procesador("Stripe", model.TipoComisionPorcentaje, "5", "2026-01-01"),
	}}
	svc := NewProcesadorService(repo, &fakeTRM{})

	fee, p, err := svc.ComisionVigente(context.Background(), dec("1000"), fechaEfectiva("2026-06-30"), "")
	require.NoError(t, err)
	assert.Equal(t, "50", fee.String())
	assert.Equal(t, "Stripe", p.Nombre)
}

func TestComisionVigenteFijoUSD(t *testing.T) {
	repo := &fakeProcesadorRepo{procesadores: []*model.ProcesadorPago{
		procesador("Wire", model.TipoComisionFijoUSD, "35", "2026-01-01"),
	}}
	svc := NewProcesadorService(repo, &fakeTRM{})

	fee, _, err := svc.ComisionVigente(context.Background(), dec("12000"), fechaEfectiva("2026-06-30"), "")
	require.NoError(t, err)
	assert.Equal(t, "35", fee.String())
}

func TestComisionVigenteFijoCOPConvierteConTRM(t *testing.T) {
	repo := &fakeProcesadorRepo{procesadores: []*model.ProcesadorPago{
		procesador("Bancolombia", model.TipoComisionFijoCOP, "40000", "2026-03-15"),
	}}
	trm := &fakeTRM{tasas: map[string]decimal.Decimal{"2026-03-15": dec("4000")}}
	svc := NewProcesadorService(repo, trm)

	fee, _, err := svc.ComisionVigente(context.Background(), dec("5000"), fechaEfectiva("2026-06-30"), "")
	require.NoError(t, err)
	assert.Equal(t, "10", fee.String())
}

func TestComisionVigenteFijoCOPSinTasa(t *testing.T) {
	repo := &fakeProcesadorRepo{procesadores: []*model.ProcesadorPago{
		procesador("Bancolombia", model.TipoComisionFijoCOP, "40000", "2026-03-15"),
	}}
	svc := NewProcesadorService(repo, &fakeTRM{})

	_, _, err := svc.ComisionVigente(context.Background(), dec("5000"), fechaEfectiva("2026-06-30"), "")
	assert.ErrorIs(t, err, ErrTasaCambioFaltante)
}

func TestComisionVigenteSinProcesador(t *testing.T) {
	svc := NewProcesadorService(&fakeProcesadorRepo{}, &fakeTRM{})

	_, _, err := svc.ComisionVigente(context.Background(), dec("1000"), fechaEfectiva("2026-06-30"), "")
	assert.ErrorIs(t, err, ErrNoEncontrado)
}

func TestComisionVigenteEligeEntradaMasReciente(t *testing.T) {
	// Dos esquemas del mismo procesador: para la fecha objetivo gana el de
	// fecha_efectiva más reciente; el esquema futuro no por llegar.
	repo := &fakeProcesadorRepo{procesadores: []*model.ProcesadorPago{
		procesador("Stripe", model.TipoComisionPorcentaje, "5", "2026-01-01"),
		procesador("Stripe", model.TipoComisionPorcentaje, "4", "2026-06-01"),
		procesador("Stripe", model.TipoComisionPorcentaje, "3", "2026-09-01"),
	}}
	svc := NewProcesadorService(repo, &fakeTRM{})

	fee, p, err := svc.ComisionVigente(context.Background(), dec("1000"), fechaEfectiva("2026-06-30"), "")
	require.NoError(t, err)
	assert.Equal(t, "4", p.ValorComision.String())
	assert.Equal(t, "40", fee.String())
}

func TestComisionVigentePorNombre(t *testing.T) {
	// Con varios procesadores conviviendo, el nombre restringe la selección
	// a las entradas de ese procesador: gana su entrada más reciente aunque
	// otro procesador tenga una posterior.
	repo := &fakeProcesadorRepo{procesadores: []*model.ProcesadorPago{
		procesador("Stripe", model.TipoComisionPorcentaje, "5", "2026-01-01"),
		procesador("Stripe", model.TipoComisionPorcentaje, "4", "2026-04-01"),
		procesador("Wire", model.TipoComisionFijoUSD, "35", "2026-06-01"),
	}}
	svc := NewProcesadorService(repo, &fakeTRM{})

	fee, p, err := svc.ComisionVigente(context.Background(), dec("1000"), fechaEfectiva("2026-06-30"), "Stripe")
	require.NoError(t, err)
	assert.Equal(t, "Stripe", p.Nombre)
	assert.Equal(t, "40", fee.String())

	// Sin nombre sigue ganando la entrada más reciente global.
	fee, p, err = svc.ComisionVigente(context.Background(), dec("1000"), fechaEfectiva("2026-06-30"), "")
	require.NoError(t, err)
	assert.Equal(t, "Wire", p.Nombre)
	assert.Equal(t, "35", fee.String())

	_, _, err = svc.ComisionVigente(context.Background(), dec("1000"), fechaEfectiva("2026-06-30"), "PayPal")
	assert.ErrorIs(t, err, ErrNoEncontrado)
}

func TestComisionVigenteMontoNegativo(t *testing.T) {
	repo := &fakeProcesadorRepo{procesadores: []*model.ProcesadorPago{
		procesador("Stripe", model.TipoComisionPorcentaje, "5", "2026-01-01"),
	}}
	svc := NewProcesadorService(repo, &fakeTRM{})

	_, _, err := svc.ComisionVigente(context.Background(), dec("-100"), fechaEfectiva("2026-06-30"), "")
	assert.ErrorIs(t, err, ErrMontoInvalido)
}
