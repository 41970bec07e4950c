package service

import "errors"

// Errores de precondición y de recurso del núcleo de elaboración. Los handlers
// los traducen a códigos HTTP; los servicios los devuelven sin envolver para
// que el caller pueda usar errors.Is.
var (
	// Recurso: el caller puede ajustar la cantidad y reintentar.
	ErrCantidadInsuficiente = errors.New("cantidad insuficiente en el lote")
	ErrLoteInutilizable     = errors.New("el lote está marcado como no utilizable")

	// Idempotencia de liberación: el consumo ya no existe.
	ErrConsumoYaLiberado = errors.New("el consumo ya fue liberado")

	// Precondiciones de la máquina de estados.
	ErrPartidaBloqueada    = errors.New("la partida está bloqueada")
	ErrSinElaborados       = errors.New("la partida no tiene productos elaborados definidos")
	ErrRangoFechasInvalido = errors.New("las fechas de producción faltan o el fin es anterior al inicio")
	ErrQANoResuelta        = errors.New("el control de calidad sigue pendiente o retenido")
	ErrMotivoFaltante      = errors.New("una partida rechazada requiere motivo")
	ErrTransicionQAInvalida = errors.New("transición de estado de calidad no permitida")

	// Validaciones del registro de elaborados.
	ErrUnidadDesconocida    = errors.New("unidad no reconocida")
	ErrFraccionNoPermitida  = errors.New("la unidad no admite cantidades fraccionarias")
	ErrCategoriaObligatoria = errors.New("la categoría es obligatoria")
	ErrCantidadInvalida     = errors.New("la cantidad producida debe ser mayor a cero")
)
