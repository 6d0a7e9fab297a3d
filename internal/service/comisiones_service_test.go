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

type fakeConfigComisionesRepo struct {
	cfg *model.ConfiguracionComisionesInternas
}

var _ repository.ConfigComisionesRepository = (*fakeConfigComisionesRepo)(nil)

func (f *fakeConfigComisionesRepo) Get(_ context.Context) (*model.ConfiguracionComisionesInternas, error) {
	if f.cfg == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.cfg, nil
}

func (f *fakeConfigComisionesRepo) Create(_ context.Context, c *model.ConfiguracionComisionesInternas) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.cfg = c
	return nil
}

func (f *fakeConfigComisionesRepo) Replace(_ context.Context, c *model.ConfiguracionComisionesInternas) error {
	f.cfg = c
	return nil
}

func TestCalcularTodasConDefaults(t *testing.T) {
	ctx := context.Background()
	repo := &fakeConfigComisionesRepo{}
	svc := NewComisionesService(repo)

	resp, err := svc.CalcularTodas(ctx, dto.CalcularComisionesInternasRequest{
		MontoSuscripcionUSD:     dec("1000"),
		MesesActiva:             1,
		RevenueTraficoUSD:       dec("2000"),
		CumplimientoObjetivoPct: dec("85"),
		BaseChattersUSD:         dec("3000"),
	})
	require.NoError(t, err)

	// Closer 2% dentro de la ventana de 2 meses.
	assert.Equal(t, "20", resp.SalesCloser.MontoComision.String())
	assert.Nil(t, resp.SalesCloser.Nota)
	// Trafficker 1% fijo sobre el revenue neto.
	assert.Equal(t, "20", resp.Trafficker.MontoComision.String())
	// Chatters: 85% de cumplimiento cae en el tramo 80-99.99 -> 1%.
	assert.Equal(t, "1", resp.Chatters.Porcentaje.String())
	assert.Equal(t, "30", resp.Chatters.MontoComision.String())
	assert.Equal(t, "70", resp.TotalComision.String())

	// La primera llamada materializa la configuración por defecto.
	require.NotNil(t, repo.cfg)
	assert.Equal(t, 2, repo.cfg.SalesCloserMeses)
}

func TestSalesCloserFueraDeVentana(t *testing.T) {
	ctx := context.Background()
	svc := NewComisionesService(&fakeConfigComisionesRepo{})

	resp, err := svc.CalcularTodas(ctx, dto.CalcularComisionesInternasRequest{
		MontoSuscripcionUSD:     dec("1000"),
		MesesActiva:             5,
		RevenueTraficoUSD:       dec("0"),
		CumplimientoObjetivoPct: dec("50"),
		BaseChattersUSD:         dec("0"),
	})
	require.NoError(t, err)

	assert.Equal(t, "0", resp.SalesCloser.MontoComision.String())
	require.NotNil(t, resp.SalesCloser.Nota)
	assert.Contains(t, *resp.SalesCloser.Nota, "primeros 2 meses")
}

func configConEscalaExtrema() *model.ConfiguracionComisionesInternas {
	return &model.ConfiguracionComisionesInternas{
		ID:                    uuid.New(),
		SalesCloserPorcentaje: dec("2"),
		SalesCloserMeses:      2,
		TraffickerPorcentaje:  dec("1"),
		ChattersMinPorcentaje: dec("0.5"),
		ChattersMaxPorcentaje: dec("2"),
		EscalaRendimiento: []model.ReglaRendimiento{
			{DesdePorcentaje: dec("0"), HastaPorcentaje: decPtr("79.99"), ComisionPorcentaje: dec("0.1")},
			{DesdePorcentaje: dec("80"), HastaPorcentaje: decPtr("99.99"), ComisionPorcentaje: dec("1")},
			{DesdePorcentaje: dec("100"), ComisionPorcentaje: dec("5")},
		},
	}
}

func TestChattersRecorteAlRango(t *testing.T) {
	ctx := context.Background()
	svc := NewComisionesService(&fakeConfigComisionesRepo{cfg: configConEscalaExtrema()})

	// Tramo bajo resuelve 0.1%, por debajo del mínimo configurado: se eleva.
	resp, err := svc.CalcularTodas(ctx, dto.CalcularComisionesInternasRequest{
		CumplimientoObjetivoPct: dec("50"),
		BaseChattersUSD:         dec("1000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "0.5", resp.Chatters.Porcentaje.String())
	assert.Equal(t, "5", resp.Chatters.MontoComision.String())
	require.NotNil(t, resp.Chatters.Nota)
	assert.Contains(t, *resp.Chatters.Nota, "mínimo")

	// Tramo alto resuelve 5%, por encima del máximo: se recorta.
	resp, err = svc.CalcularTodas(ctx, dto.CalcularComisionesInternasRequest{
		CumplimientoObjetivoPct: dec("120"),
		BaseChattersUSD:         dec("1000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2", resp.Chatters.Porcentaje.String())
	assert.Equal(t, "20", resp.Chatters.MontoComision.String())
	require.NotNil(t, resp.Chatters.Nota)
	assert.Contains(t, *resp.Chatters.Nota, "máximo")
}

func TestCalcularTodasEntradaNegativaFallaCompleta(t *testing.T) {
	ctx := context.Background()
	svc := NewComisionesService(&fakeConfigComisionesRepo{})

	_, err := svc.CalcularTodas(ctx, dto.CalcularComisionesInternasRequest{
		MontoSuscripcionUSD:     dec("1000"),
		RevenueTraficoUSD:       dec("-1"),
		CumplimientoObjetivoPct: dec("90"),
		BaseChattersUSD:         dec("3000"),
	})
	assert.ErrorIs(t, err, ErrEntradaInvalida)

	_, err = svc.CalcularTodas(ctx, dto.CalcularComisionesInternasRequest{
		MesesActiva: -1,
	})
	assert.ErrorIs(t, err, ErrEntradaInvalida)
}

func TestActualizarConfigValidaciones(t *testing.T) {
	ctx := context.Background()
	svc := NewComisionesService(&fakeConfigComisionesRepo{})

	base := dto.ActualizarConfigComisionesRequest{
		SalesCloserPorcentaje: dec("3"),
		SalesCloserMeses:      3,
		TraffickerPorcentaje:  dec("1.5"),
		ChattersMinPorcentaje: dec("1"),
		ChattersMaxPorcentaje: dec("3"),
		EscalaRendimiento: []dto.ReglaRendimientoRequest{
			{DesdePorcentaje: dec("0"), HastaPorcentaje: decPtr("89.99"), ComisionPorcentaje: dec("1")},
			{DesdePorcentaje: dec("90"), ComisionPorcentaje: dec("2")},
		},
	}

	resp, err := svc.ActualizarConfig(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.SalesCloserMeses)
	assert.Equal(t, "1.5", resp.TraffickerPorcentaje.String())
	require.Len(t, resp.EscalaRendimiento, 2)

	invertido := base
	invertido.ChattersMinPorcentaje = dec("4")
	_, err = svc.ActualizarConfig(ctx, invertido)
	assert.ErrorIs(t, err, ErrEntradaInvalida)

	conHueco := base
	conHueco.EscalaRendimiento = []dto.ReglaRendimientoRequest{
		{DesdePorcentaje: dec("0"), HastaPorcentaje: decPtr("50"), ComisionPorcentaje: dec("1")},
		{DesdePorcentaje: dec("90"), ComisionPorcentaje: dec("2")},
	}
	_, err = svc.ActualizarConfig(ctx, conHueco)
	assert.ErrorIs(t, err, ErrEntradaInvalida)
}
