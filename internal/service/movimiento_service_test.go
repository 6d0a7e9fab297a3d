package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"otfinanzas/internal/dto"
	"otfinanzas/internal/model"
	"otfinanzas/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeMovimientoRepo struct {
	mu          sync.Mutex
	movimientos []*model.MovimientoTransaccion
}

var _ repository.MovimientoRepository = (*fakeMovimientoRepo)(nil)

func newFakeMovimientoRepo() *fakeMovimientoRepo { return &fakeMovimientoRepo{} }

func (f *fakeMovimientoRepo) DB() *gorm.DB { return nil }

func (f *fakeMovimientoRepo) Create(_ context.Context, _ *gorm.DB, m *model.MovimientoTransaccion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Estado == "" {
		m.Estado = model.MovimientoActivo
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	copia := *m
	f.movimientos = append(f.movimientos, &copia)
	return nil
}

func (f *fakeMovimientoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.MovimientoTransaccion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.movimientos {
		if m.ID == id {
			copia := *m
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMovimientoRepo) List(_ context.Context, filter dto.MovimientoFilter) ([]model.MovimientoTransaccion, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.MovimientoTransaccion
	for _, m := range f.movimientos {
		if filter.Mes != 0 && m.Mes != filter.Mes {
			continue
		}
		if filter.Anio != 0 && m.Anio != filter.Anio {
			continue
		}
		if filter.Tipo != "" && m.Tipo != filter.Tipo {
			continue
		}
		if filter.Origen != "" && m.Origen != filter.Origen {
			continue
		}
		if filter.Estado != "" && m.Estado != filter.Estado {
			continue
		}
		out = append(out, *m)
	}
	return out, int64(len(out)), nil
}

func (f *fakeMovimientoRepo) MarcarRevertido(_ context.Context, _ *gorm.DB, id uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.movimientos {
		if m.ID == id && m.Estado == model.MovimientoActivo {
			m.Estado = model.MovimientoRevertido
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeMovimientoRepo) SaldoActivo(_ context.Context) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	saldo := decimal.Zero
	for _, m := range f.movimientos {
		if m.Estado == model.MovimientoRevertido {
			continue
		}
		if m.Tipo == model.MovimientoIngreso {
			saldo = saldo.Add(m.MontoUSD)
		} else {
			saldo = saldo.Sub(m.MontoUSD)
		}
	}
	return saldo, nil
}

func (f *fakeMovimientoRepo) ResumenPeriodo(_ context.Context, mes, anio int) (*repository.ResumenMovimientos, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resumen := &repository.ResumenMovimientos{
		IngresosUSD: decimal.Zero,
		EgresosUSD:  decimal.Zero,
		PorOrigen:   make(map[string]decimal.Decimal),
	}
	for _, m := range f.movimientos {
		if m.Mes != mes || m.Anio != anio || m.Estado == model.MovimientoRevertido {
			continue
		}
		signed := m.MontoUSD
		if m.Tipo == model.MovimientoEgreso {
			resumen.EgresosUSD = resumen.EgresosUSD.Add(m.MontoUSD)
			signed = m.MontoUSD.Neg()
		} else {
			resumen.IngresosUSD = resumen.IngresosUSD.Add(m.MontoUSD)
		}
		resumen.PorOrigen[m.Origen] = resumen.PorOrigen[m.Origen].Add(signed)
	}
	return resumen, nil
}

func (f *fakeMovimientoRepo) FlujoAnual(_ context.Context, anio int) ([]dto.FlujoCajaMes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	porMes := make(map[int]*dto.FlujoCajaMes)
	for _, m := range f.movimientos {
		if m.Anio != anio || m.Estado == model.MovimientoRevertido {
			continue
		}
		fila, ok := porMes[m.Mes]
		if !ok {
			fila = &dto.FlujoCajaMes{Mes: m.Mes, IngresosUSD: decimal.Zero, EgresosUSD: decimal.Zero}
			porMes[m.Mes] = fila
		}
		if m.Tipo == model.MovimientoIngreso {
			fila.IngresosUSD = fila.IngresosUSD.Add(m.MontoUSD)
		} else {
			fila.EgresosUSD = fila.EgresosUSD.Add(m.MontoUSD)
		}
	}
	meses := make([]dto.FlujoCajaMes, 0, 12)
	for m := 1; m <= 12; m++ {
		if fila, ok := porMes[m]; ok {
			fila.NetoUSD = fila.IngresosUSD.Sub(fila.EgresosUSD)
			meses = append(meses, *fila)
			continue
		}
		meses = append(meses, dto.FlujoCajaMes{
			Mes: m, IngresosUSD: decimal.Zero, EgresosUSD: decimal.Zero, NetoUSD: decimal.Zero,
		})
	}
	sort.Slice(meses, func(i, j int) bool { return meses[i].Mes < meses[j].Mes })
	return meses, nil
}

func newMovimientoFixture() (*fakeMovimientoRepo, *fakePeriodoRepo, MovimientoService) {
	movRepo := newFakeMovimientoRepo()
	perRepo := newFakePeriodoRepo()
	return movRepo, perRepo, NewMovimientoService(movRepo, perRepo)
}

func registrar(t *testing.T, svc MovimientoService, tipo, monto string) *dto.MovimientoResponse {
	t.Helper()
	resp, err := svc.Registrar(context.Background(), "finanzas@ot", dto.RegistrarMovimientoRequest{
		Mes: 6, Anio: 2026,
		Tipo:        tipo,
		Origen:      model.OrigenManual,
		MontoUSD:    dec(monto),
		Descripcion: "movimiento de prueba",
	})
	require.NoError(t, err)
	return resp
}

func TestRegistrarYSaldo(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newMovimientoFixture()

	registrar(t, svc, model.MovimientoIngreso, "1000")
	registrar(t, svc, model.MovimientoEgreso, "300")

	saldo, err := svc.SaldoMovimiento(ctx)
	require.NoError(t, err)
	assert.Equal(t, "700", saldo.SaldoUSD.String())
}

func TestRevertirCompensaYConservaHistoria(t *testing.T) {
	ctx := context.Background()
	movRepo, _, svc := newMovimientoFixture()

	registrar(t, svc, model.MovimientoIngreso, "1000")
	egreso := registrar(t, svc, model.MovimientoEgreso, "300")

	resp, err := svc.Revertir(ctx, uuid.MustParse(egreso.ID), "finanzas@ot", "monto duplicado")
	require.NoError(t, err)

	assert.Equal(t, model.MovimientoRevertido, resp.Original.Estado)
	assert.Equal(t, model.MovimientoIngreso, resp.Reversa.Tipo)
	assert.Equal(t, model.OrigenReversa, resp.Reversa.Origen)
	assert.Equal(t, "300", resp.Reversa.MontoUSD.String())
	require.NotNil(t, resp.Reversa.ReferenciaID)
	assert.Equal(t, egreso.ID, *resp.Reversa.ReferenciaID)
	// El par completo queda REVERTIDO: ninguna pata cuenta en agregaciones.
	assert.Equal(t, model.MovimientoRevertido, resp.Reversa.Estado)

	// El libro nunca borra: tres entradas, saldo de vuelta en 1000.
	assert.Len(t, movRepo.movimientos, 3)
	saldo, err := svc.SaldoMovimiento(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1000", saldo.SaldoUSD.String())

	// El resumen del periodo tampoco ve el par: solo el ingreso original.
	resumen, err := svc.ResumenPeriodo(ctx, 6, 2026)
	require.NoError(t, err)
	assert.Equal(t, "1000", resumen.TotalIngresosUSD.String())
	assert.Equal(t, "0", resumen.TotalEgresosUSD.String())
	assert.Equal(t, "1000", resumen.SaldoUSD.String())

	// Ambas patas siguen consultables como historia.
	lista, err := svc.Listar(ctx, dto.MovimientoFilter{Mes: 6, Anio: 2026, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), lista.Total)
}

func TestRevertirDosVeces(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newMovimientoFixture()

	mov := registrar(t, svc, model.MovimientoEgreso, "300")
	id := uuid.MustParse(mov.ID)

	_, err := svc.Revertir(ctx, id, "finanzas@ot", "monto duplicado")
	require.NoError(t, err)

	_, err = svc.Revertir(ctx, id, "finanzas@ot", "otra vez")
	assert.ErrorIs(t, err, ErrYaRevertido)
}

func TestRegistrarEnPeriodoConsolidado(t *testing.T) {
	ctx := context.Background()
	movRepo, perRepo, svc := newMovimientoFixture()
	perRepo.seed(6, 2026, model.PeriodoConsolidadoEstado)

	_, err := svc.Registrar(ctx, "finanzas@ot", dto.RegistrarMovimientoRequest{
		Mes: 6, Anio: 2026,
		Tipo:        model.MovimientoIngreso,
		Origen:      model.OrigenManual,
		MontoUSD:    dec("100"),
		Descripcion: "ajuste tardío",
	})
	assert.ErrorIs(t, err, ErrPeriodoBloqueado)
	assert.Empty(t, movRepo.movimientos)
}

func TestRegistrarMontoNoPositivo(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newMovimientoFixture()

	_, err := svc.Registrar(ctx, "finanzas@ot", dto.RegistrarMovimientoRequest{
		Mes: 6, Anio: 2026,
		Tipo:        model.MovimientoIngreso,
		Origen:      model.OrigenManual,
		MontoUSD:    decimal.Zero,
		Descripcion: "monto cero",
	})
	assert.ErrorIs(t, err, ErrMontoInvalido)
}

func TestResumenPeriodoPorOrigen(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newMovimientoFixture()

	registrar(t, svc, model.MovimientoIngreso, "1000")
	registrar(t, svc, model.MovimientoEgreso, "300")

	resumen, err := svc.ResumenPeriodo(ctx, 6, 2026)
	require.NoError(t, err)
	assert.Equal(t, "1000", resumen.TotalIngresosUSD.String())
	assert.Equal(t, "300", resumen.TotalEgresosUSD.String())
	assert.Equal(t, "700", resumen.SaldoUSD.String())
	assert.Equal(t, "700", resumen.PorOrigen[model.OrigenManual].String())
}

func TestComparativaEntrePeriodos(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newMovimientoFixture()

	registrar(t, svc, model.MovimientoIngreso, "1000")
	_, err := svc.Registrar(ctx, "finanzas@ot", dto.RegistrarMovimientoRequest{
		Mes: 7, Anio: 2026,
		Tipo:        model.MovimientoIngreso,
		Origen:      model.OrigenManual,
		MontoUSD:    dec("1500"),
		Descripcion: "ingreso de julio",
	})
	require.NoError(t, err)

	comp, err := svc.Comparativa(ctx, 6, 2026, 7, 2026)
	require.NoError(t, err)
	assert.Equal(t, "500", comp.DeltaSaldoUSD.String())
}
