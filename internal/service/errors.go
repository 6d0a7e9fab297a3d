package service

import "errors"

// Errores de dominio del motor. Los servicios los devuelven envueltos con
// contexto (entidad, periodo) vía fmt.Errorf("%w") y los handlers los mapean
// a códigos HTTP con errors.Is.
var (
	// ErrMontoInvalido: monto negativo u otra entrada numérica fuera de dominio.
	ErrMontoInvalido = errors.New("monto inválido")
	// ErrSinTramo: ningún tramo de la escala cubre el valor. Solo puede
	// ocurrir con una escala mal formada; la validación de escritura lo evita.
	ErrSinTramo = errors.New("ningún tramo de la escala aplica al valor")
	// ErrEntradaInvalida: falta un campo numérico requerido o es negativo.
	ErrEntradaInvalida = errors.New("entrada inválida")
	// ErrNoEncontrado: modelo, liquidación, escala o procesador inexistente.
	ErrNoEncontrado = errors.New("no encontrado")
	// ErrYaRevertido: el movimiento ya tiene una reversa registrada.
	ErrYaRevertido = errors.New("el movimiento ya fue revertido")
	// ErrYaConsolidado: el periodo no está en un estado consolidable.
	ErrYaConsolidado = errors.New("el periodo ya fue consolidado")
	// ErrPeriodoBloqueado: escritura ordinaria contra un periodo
	// CONSOLIDADO o CERRADO.
	ErrPeriodoBloqueado = errors.New("el periodo está consolidado y no admite escrituras")
	// ErrConflictoConcurrente: otro escritor ganó la carrera sobre la misma
	// (modelo, periodo); el perdedor debe reintentar leyendo de nuevo.
	ErrConflictoConcurrente = errors.New("modificación concurrente detectada")
	// ErrTasaCambioFaltante: no hay TRM para la fecha requerida por un
	// procesador FIXED_COP. La liquidación se difiere, nunca se omite.
	ErrTasaCambioFaltante = errors.New("no hay tasa de cambio para la fecha requerida")
	// ErrTransicionInvalida: cambio de estado hacia atrás sin override admin.
	ErrTransicionInvalida = errors.New("transición de estado no permitida")
)
