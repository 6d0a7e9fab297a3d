package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Tramo es un rango [Desde, Hasta] con un porcentaje asociado. Hasta nulo
// significa "y en adelante". El mismo contrato de resolución sirve tanto para
// escalas de comisión en USD como para la escala de rendimiento de chatters
// (dominio: % de cumplimiento de objetivo).
type Tramo struct {
	Desde      decimal.Decimal
	Hasta      *decimal.Decimal
	Porcentaje decimal.Decimal
}

// resolverTramo busca el único tramo que cubre valor: valor >= Desde y
// (Hasta nulo o valor <= Hasta). Los tramos llegan validados (ordenados y sin
// solapes), así que a lo sumo uno aplica.
func resolverTramo(tramos []Tramo, valor decimal.Decimal) (*Tramo, error) {
	if valor.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrMontoInvalido, valor)
	}
	for i := range tramos {
		t := &tramos[i]
		if valor.LessThan(t.Desde) {
			continue
		}
		if t.Hasta == nil || valor.LessThanOrEqual(*t.Hasta) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: valor %s", ErrSinTramo, valor)
}

// pasoMaximoTramos es la separación máxima admitida entre el Hasta de un tramo
// y el Desde del siguiente: un paso entero para escalas en USD (19999 -> 20000)
// y centesimal para escalas de porcentaje (79.99 -> 80).
var pasoMaximoTramos = decimal.NewFromInt(1)

// validarTramos aplica las invariantes de escritura de cualquier escala:
// al menos un tramo, Desde >= 0 y creciente, todo tramo no final acotado con
// Hasta >= Desde, sin solapes ni huecos mayores al paso, y el último tramo
// abierto (Hasta nulo) para que siempre exista un tramo "catch-all".
func validarTramos(tramos []Tramo) error {
	if len(tramos) == 0 {
		return fmt.Errorf("%w: la escala no tiene tramos", ErrEntradaInvalida)
	}
	for i, t := range tramos {
		if t.Desde.IsNegative() {
			return fmt.Errorf("%w: tramo %d con mínimo negativo", ErrEntradaInvalida, i)
		}
		if t.Porcentaje.IsNegative() {
			return fmt.Errorf("%w: tramo %d con porcentaje negativo", ErrEntradaInvalida, i)
		}
		ultimo := i == len(tramos)-1
		if ultimo {
			if t.Hasta != nil {
				return fmt.Errorf("%w: el último tramo debe ser abierto", ErrEntradaInvalida)
			}
			continue
		}
		if t.Hasta == nil {
			return fmt.Errorf("%w: solo el último tramo puede ser abierto", ErrEntradaInvalida)
		}
		if t.Hasta.LessThan(t.Desde) {
			return fmt.Errorf("%w: tramo %d con máximo menor al mínimo", ErrEntradaInvalida, i)
		}
		sig := tramos[i+1]
		brecha := sig.Desde.Sub(*t.Hasta)
		if !brecha.IsPositive() {
			return fmt.Errorf("%w: los tramos %d y %d se solapan", ErrEntradaInvalida, i, i+1)
		}
		if brecha.GreaterThan(pasoMaximoTramos) {
			return fmt.Errorf("%w: hueco entre los tramos %d y %d", ErrEntradaInvalida, i, i+1)
		}
	}
	return nil
}
