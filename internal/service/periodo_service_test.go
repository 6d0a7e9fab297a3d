package service

import (
	"context"
	"testing"

	"otfinanzas/internal/dto"
	"otfinanzas/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotificador struct {
	avisos []CierrePeriodoNotificacion
}

var _ NotificadorCierre = (*fakeNotificador)(nil)

func (f *fakeNotificador) EnqueueCierrePeriodo(_ context.Context, n CierrePeriodoNotificacion) error {
	f.avisos = append(f.avisos, n)
	return nil
}

type periodoFixture struct {
	perRepo     *fakePeriodoRepo
	movRepo     *fakeMovimientoRepo
	liqRepo     *fakeLiquidacionRepo
	notificador *fakeNotificador
	svc         PeriodoService
	movSvc      MovimientoService
}

func newPeriodoFixture() *periodoFixture {
	fx := &periodoFixture{
		perRepo:     newFakePeriodoRepo(),
		movRepo:     newFakeMovimientoRepo(),
		liqRepo:     newFakeLiquidacionRepo(),
		notificador: &fakeNotificador{},
	}
	fx.svc = NewPeriodoService(fx.perRepo, fx.movRepo, fx.liqRepo, fx.notificador)
	fx.movSvc = NewMovimientoService(fx.movRepo, fx.perRepo)
	return fx
}

func (fx *periodoFixture) seedLiquidacion(t *testing.T, modelo string, ventas, agencia, banco, modeloUSD string) {
	t.Helper()
	err := fx.liqRepo.Create(context.Background(), nil, &model.Liquidacion{
		ModeloID:           modelo,
		Mes:                6,
		Anio:               2026,
		VentasNetasUSD:     dec(ventas),
		ComisionAgenciaUSD: dec(agencia),
		ComisionBancoUSD:   dec(banco),
		GananciaModeloUSD:  dec(modeloUSD),
		GananciaOnlyTopUSD: dec(agencia),
		Estado:             model.LiquidacionPagada,
		CalculadoPor:       "finanzas@ot",
	})
	require.NoError(t, err)
}

func TestConsolidarCongelaFotoDeTotales(t *testing.T) {
	ctx := context.Background()
	fx := newPeriodoFixture()

	fx.seedLiquidacion(t, "valentina", "10000", "950", "500", "8550")
	fx.seedLiquidacion(t, "ana", "5000", "475", "250", "4275")
	_, err := fx.movSvc.Registrar(ctx, "finanzas@ot", dto.RegistrarMovimientoRequest{
		Mes: 6, Anio: 2026,
		Tipo: model.MovimientoIngreso, Origen: model.OrigenManual,
		MontoUSD: dec("1425"), Descripcion: "comisiones del periodo",
	})
	require.NoError(t, err)
	_, err = fx.movSvc.Registrar(ctx, "finanzas@ot", dto.RegistrarMovimientoRequest{
		Mes: 6, Anio: 2026,
		Tipo: model.MovimientoEgreso, Origen: model.OrigenManual,
		MontoUSD: dec("400"), Descripcion: "gastos operativos",
	})
	require.NoError(t, err)

	resp, err := fx.svc.Consolidar(ctx, "admin@ot", dto.ConsolidarPeriodoRequest{
		Mes: 6, Anio: 2026, NotasCierre: strPtr("cierre de junio"),
	})
	require.NoError(t, err)

	assert.Equal(t, model.PeriodoConsolidadoEstado, resp.Estado)
	assert.Equal(t, "1425", resp.Totales.TotalIngresosUSD.String())
	assert.Equal(t, "400", resp.Totales.TotalEgresosUSD.String())
	assert.Equal(t, "1025", resp.Totales.SaldoUSD.String())
	assert.Equal(t, "15000", resp.Totales.TotalVentasNetasUSD.String())
	assert.Equal(t, "1425", resp.Totales.TotalComisionAgenciaUSD.String())
	assert.Equal(t, "750", resp.Totales.TotalComisionBancoUSD.String())
	assert.Equal(t, 2, resp.Totales.LiquidacionesIncluidas)
	require.NotNil(t, resp.FechaConsolidacion)
	require.NotNil(t, resp.ConsolidadoPor)
	assert.Equal(t, "admin@ot", *resp.ConsolidadoPor)

	// El cierre dispara el aviso con la misma foto.
	require.Len(t, fx.notificador.avisos, 1)
	aviso := fx.notificador.avisos[0]
	assert.Equal(t, 6, aviso.Mes)
	assert.Equal(t, "1025", aviso.SaldoUSD.String())
	assert.Equal(t, 2, aviso.LiquidacionesIncluidas)
}

func TestConsolidarDosVeces(t *testing.T) {
	ctx := context.Background()
	fx := newPeriodoFixture()

	_, err := fx.svc.Consolidar(ctx, "admin@ot", dto.ConsolidarPeriodoRequest{Mes: 6, Anio: 2026})
	require.NoError(t, err)

	_, err = fx.svc.Consolidar(ctx, "admin@ot", dto.ConsolidarPeriodoRequest{Mes: 6, Anio: 2026})
	assert.ErrorIs(t, err, ErrYaConsolidado)
	assert.Len(t, fx.notificador.avisos, 1)
}

func TestConsolidarBloqueaEscriturasPosteriores(t *testing.T) {
	ctx := context.Background()
	fx := newPeriodoFixture()

	_, err := fx.svc.Consolidar(ctx, "admin@ot", dto.ConsolidarPeriodoRequest{Mes: 6, Anio: 2026})
	require.NoError(t, err)

	_, err = fx.movSvc.Registrar(ctx, "finanzas@ot", dto.RegistrarMovimientoRequest{
		Mes: 6, Anio: 2026,
		Tipo: model.MovimientoIngreso, Origen: model.OrigenManual,
		MontoUSD: dec("100"), Descripcion: "ajuste tardío",
	})
	assert.ErrorIs(t, err, ErrPeriodoBloqueado)

	// Otro periodo sigue abierto.
	_, err = fx.movSvc.Registrar(ctx, "finanzas@ot", dto.RegistrarMovimientoRequest{
		Mes: 7, Anio: 2026,
		Tipo: model.MovimientoIngreso, Origen: model.OrigenManual,
		MontoUSD: dec("100"), Descripcion: "ingreso de julio",
	})
	assert.NoError(t, err)
}

func TestMarcarEnRevisionSoloDesdeAbierto(t *testing.T) {
	ctx := context.Background()
	fx := newPeriodoFixture()

	// Sin fila previa: se crea ABIERTO y pasa a EN_REVISION.
	resp, err := fx.svc.MarcarEnRevision(ctx, 6, 2026)
	require.NoError(t, err)
	assert.Equal(t, model.PeriodoEnRevision, resp.Estado)

	// EN_REVISION sigue admitiendo consolidación, pero no una segunda revisión.
	_, err = fx.svc.MarcarEnRevision(ctx, 6, 2026)
	assert.ErrorIs(t, err, ErrTransicionInvalida)

	_, err = fx.svc.Consolidar(ctx, "admin@ot", dto.ConsolidarPeriodoRequest{Mes: 6, Anio: 2026})
	require.NoError(t, err)
}

func TestCerrarSoloConsolidado(t *testing.T) {
	ctx := context.Background()
	fx := newPeriodoFixture()

	_, err := fx.svc.Cerrar(ctx, 6, 2026)
	assert.ErrorIs(t, err, ErrNoEncontrado)

	fx.perRepo.seed(6, 2026, model.PeriodoAbierto)
	_, err = fx.svc.Cerrar(ctx, 6, 2026)
	assert.ErrorIs(t, err, ErrTransicionInvalida)

	_, err = fx.svc.Consolidar(ctx, "admin@ot", dto.ConsolidarPeriodoRequest{Mes: 6, Anio: 2026})
	require.NoError(t, err)

	resp, err := fx.svc.Cerrar(ctx, 6, 2026)
	require.NoError(t, err)
	assert.Equal(t, model.PeriodoCerrado, resp.Estado)
}

func TestListarConsolidados(t *testing.T) {
	ctx := context.Background()
	fx := newPeriodoFixture()

	fx.perRepo.seed(5, 2026, model.PeriodoCerrado)
	fx.perRepo.seed(7, 2026, model.PeriodoAbierto)
	_, err := fx.svc.Consolidar(ctx, "admin@ot", dto.ConsolidarPeriodoRequest{Mes: 6, Anio: 2026})
	require.NoError(t, err)

	periodos, err := fx.svc.ListarConsolidados(ctx)
	require.NoError(t, err)
	require.Len(t, periodos, 2)
	for _, p := range periodos {
		assert.NotEqual(t, model.PeriodoAbierto, p.Estado)
	}
}

func TestConsolidarPeriodoVacio(t *testing.T) {
	ctx := context.Background()
	fx := newPeriodoFixture()

	resp, err := fx.svc.Consolidar(ctx, "admin@ot", dto.ConsolidarPeriodoRequest{Mes: 1, Anio: 2026})
	require.NoError(t, err)
	assert.Equal(t, "0", resp.Totales.SaldoUSD.String())
	assert.Equal(t, 0, resp.Totales.LiquidacionesIncluidas)
	assert.NotEqual(t, uuid.Nil.String(), resp.ID)
}
