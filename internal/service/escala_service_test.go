package service

import (
	"context"
	"testing"

	"otfinanzas/internal/dto"
	"otfinanzas/internal/model"
	"otfinanzas/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeEscalaRepo guarda las escalas en memoria; suficiente para ejercitar el
// servicio sin base de datos.
type fakeEscalaRepo struct {
	escalas map[uuid.UUID]*model.EscalaComision
}

var _ repository.EscalaRepository = (*fakeEscalaRepo)(nil)

func newFakeEscalaRepo() *fakeEscalaRepo {
	return &fakeEscalaRepo{escalas: make(map[uuid.UUID]*model.EscalaComision)}
}

func (f *fakeEscalaRepo) Create(_ context.Context, e *model.EscalaComision) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	f.escalas[e.ID] = e
	return nil
}

func (f *fakeEscalaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.EscalaComision, error) {
	e, ok := f.escalas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (f *fakeEscalaRepo) FindActiva(_ context.Context) (*model.EscalaComision, error) {
	for _, e := range f.escalas {
		if e.Activa {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeEscalaRepo) List(_ context.Context) ([]model.EscalaComision, error) {
	out := make([]model.EscalaComision, 0, len(f.escalas))
	for _, e := range f.escalas {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeEscalaRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.escalas)), nil
}

func (f *fakeEscalaRepo) Update(_ context.Context, e *model.EscalaComision) error {
	f.escalas[e.ID] = e
	return nil
}

func (f *fakeEscalaRepo) ReemplazarReglas(_ context.Context, escalaID uuid.UUID, reglas []model.ReglaComision) error {
	e, ok := f.escalas[escalaID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.Reglas = reglas
	return nil
}

func (f *fakeEscalaRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.escalas, id)
	return nil
}

func (f *fakeEscalaRepo) ActivarExclusiva(_ context.Context, id uuid.UUID) error {
	if _, ok := f.escalas[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	for _, e := range f.escalas {
		e.Activa = false
	}
	f.escalas[id].Activa = true
	return nil
}

func TestCrearDefaultYCalcularComision(t *testing.T) {
	ctx := context.Background()
	svc := NewEscalaService(newFakeEscalaRepo())

	escala, err := svc.CrearDefault(ctx)
	require.NoError(t, err)
	assert.True(t, escala.Activa)
	assert.True(t, escala.EsDefault)
	require.Len(t, escala.Reglas, 2)

	// Primer tramo: 10% hasta 19999.
	calc, err := svc.CalcularComision(ctx, dec("15000"))
	require.NoError(t, err)
	assert.Equal(t, "10", calc.Porcentaje.String())
	assert.Equal(t, "1500", calc.MontoComision.String())
	assert.Equal(t, "13500", calc.MontoNeto.String())

	// Segundo tramo: 15% de 20000 en adelante.
	calc, err = svc.CalcularComision(ctx, dec("25000"))
	require.NoError(t, err)
	assert.Equal(t, "15", calc.Porcentaje.String())
	assert.Equal(t, "3750", calc.MontoComision.String())
	assert.Equal(t, "21250", calc.MontoNeto.String())
}

func TestCrearDefaultSoloSobreStoreVacio(t *testing.T) {
	ctx := context.Background()
	svc := NewEscalaService(newFakeEscalaRepo())

	_, err := svc.CrearDefault(ctx)
	require.NoError(t, err)

	_, err = svc.CrearDefault(ctx)
	assert.ErrorIs(t, err, ErrEntradaInvalida)
}

func TestCrearEscalaRechazaTramosSolapados(t *testing.T) {
	ctx := context.Background()
	svc := NewEscalaService(newFakeEscalaRepo())

	_, err := svc.Crear(ctx, dto.CrearEscalaRequest{
		Nombre: "Escala agresiva",
		Reglas: []dto.ReglaComisionRequest{
			{MinUSD: dec("0"), MaxUSD: decPtr("10000"), Porcentaje: dec("12")},
			{MinUSD: dec("9000"), Porcentaje: dec("18")},
		},
	})
	assert.ErrorIs(t, err, ErrEntradaInvalida)
}

func TestActivarEsExclusiva(t *testing.T) {
	ctx := context.Background()
	repo := newFakeEscalaRepo()
	svc := NewEscalaService(repo)

	primera, err := svc.CrearDefault(ctx)
	require.NoError(t, err)

	segunda, err := svc.Crear(ctx, dto.CrearEscalaRequest{
		Nombre: "Escala premium",
		Reglas: []dto.ReglaComisionRequest{
			{MinUSD: dec("0"), Porcentaje: dec("20")},
		},
	})
	require.NoError(t, err)

	activada, err := svc.Activar(ctx, uuid.MustParse(segunda.ID))
	require.NoError(t, err)
	assert.True(t, activada.Activa)

	anterior, err := svc.ObtenerPorID(ctx, uuid.MustParse(primera.ID))
	require.NoError(t, err)
	assert.False(t, anterior.Activa)
}

func TestActivarEscalaInexistente(t *testing.T) {
	svc := NewEscalaService(newFakeEscalaRepo())
	_, err := svc.Activar(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNoEncontrado)
}

func TestEliminarRechazaEscalaActiva(t *testing.T) {
	ctx := context.Background()
	svc := NewEscalaService(newFakeEscalaRepo())

	escala, err := svc.CrearDefault(ctx)
	require.NoError(t, err)

	err = svc.Eliminar(ctx, uuid.MustParse(escala.ID))
	assert.ErrorIs(t, err, ErrEntradaInvalida)
}

func TestCalcularComisionSinEscalaActiva(t *testing.T) {
	svc := NewEscalaService(newFakeEscalaRepo())
	_, err := svc.CalcularComision(context.Background(), dec("100"))
	assert.ErrorIs(t, err, ErrNoEncontrado)
}
