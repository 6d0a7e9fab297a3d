package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }

func tramosEstandar() []Tramo {
	return []Tramo{
		{Desde: dec("0"), Hasta: decPtr("19999"), Porcentaje: dec("10")},
		{Desde: dec("20000"), Porcentaje: dec("15")},
	}
}

func TestResolverTramoBordes(t *testing.T) {
	tramos := tramosEstandar()

	casos := []struct {
		valor      string
		porcentaje string
	}{
		{"0", "10"},
		{"15000", "10"},
		{"19999", "10"},
		{"20000", "15"},
		{"1000000", "15"},
	}
	for _, c := range casos {
		tramo, err := resolverTramo(tramos, dec(c.valor))
		require.NoError(t, err, "valor %s", c.valor)
		assert.Equal(t, c.porcentaje, tramo.Porcentaje.String(), "valor %s", c.valor)
	}
}

func TestResolverTramoMontoNegativo(t *testing.T) {
	_, err := resolverTramo(tramosEstandar(), dec("-1"))
	assert.ErrorIs(t, err, ErrMontoInvalido)
}

func TestResolverTramoSinCobertura(t *testing.T) {
	// Escala malformada a propósito: el hueco 19999-20000 queda sin tramo.
	tramos := []Tramo{
		{Desde: dec("0"), Hasta: decPtr("19999"), Porcentaje: dec("10")},
		{Desde: dec("20000"), Porcentaje: dec("15")},
	}
	_, err := resolverTramo(tramos, dec("19999.50"))
	assert.ErrorIs(t, err, ErrSinTramo)
}

func TestValidarTramosAceptaEscalaEstandar(t *testing.T) {
	require.NoError(t, validarTramos(tramosEstandar()))
}

func TestValidarTramosAceptaPasoCentesimal(t *testing.T) {
	tramos := []Tramo{
		{Desde: dec("0"), Hasta: decPtr("79.99"), Porcentaje: dec("0.5")},
		{Desde: dec("80"), Hasta: decPtr("99.99"), Porcentaje: dec("1")},
		{Desde: dec("100"), Porcentaje: dec("2")},
	}
	require.NoError(t, validarTramos(tramos))
}

func TestValidarTramosRechazos(t *testing.T) {
	casos := []struct {
		nombre string
		tramos []Tramo
	}{
		{"sin tramos", nil},
		{"minimo negativo", []Tramo{{Desde: dec("-1"), Porcentaje: dec("10")}}},
		{"porcentaje negativo", []Tramo{{Desde: dec("0"), Porcentaje: dec("-5")}}},
		{"ultimo acotado", []Tramo{{Desde: dec("0"), Hasta: decPtr("100"), Porcentaje: dec("10")}}},
		{"abierto intermedio", []Tramo{
			{Desde: dec("0"), Porcentaje: dec("10")},
			{Desde: dec("100"), Porcentaje: dec("15")},
		}},
		{"maximo menor al minimo", []Tramo{
			{Desde: dec("100"), Hasta: decPtr("50"), Porcentaje: dec("10")},
			{Desde: dec("51"), Porcentaje: dec("15")},
		}},
		{"solape", []Tramo{
			{Desde: dec("0"), Hasta: decPtr("20000"), Porcentaje: dec("10")},
			{Desde: dec("20000"), Porcentaje: dec("15")},
		}},
		{"hueco mayor al paso", []Tramo{
			{Desde: dec("0"), Hasta: decPtr("19998"), Porcentaje: dec("10")},
			{Desde: dec("20000"), Porcentaje: dec("15")},
		}},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			assert.ErrorIs(t, validarTramos(c.tramos), ErrEntradaInvalida)
		})
	}
}
