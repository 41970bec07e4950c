package worker

// Las notificaciones que agotan sus reintentos no se pierden: quedan en una
// lista de Redis por cola de origen (descartes:{cola}) con el contexto del
// fallo, para revisión manual y eventual re-encolado.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DescartesPrefix = "descartes:"

// Descarte envuelve un trabajo agotado con lo necesario para diagnosticarlo.
type Descarte struct {
	ColaOrigen  string          `json:"cola_origen"`
	Tipo        string          `json:"tipo"`
	Payload     json.RawMessage `json:"payload"`
	Motivo      string          `json:"motivo"`
	DescartadoEn string         `json:"descartado_en"` // RFC 3339
	Intentos    int             `json:"intentos"`
}

// Descartar mueve un trabajo agotado a la lista de descartes de su cola.
// Nunca devuelve error: ante un fallo de Redis solo deja rastro en el log,
// la notificación ya quedó marcada como fallida en la base.
func Descartar(ctx context.Context, rdb *redis.Client, cola, tipo string, payload json.RawMessage, motivo string, intentos int) {
	entrada := Descarte{
		ColaOrigen:   cola,
		Tipo:         tipo,
		Payload:      payload,
		Motivo:       motivo,
		DescartadoEn: time.Now().UTC().Format(time.RFC3339),
		Intentos:     intentos,
	}

	data, err := json.Marshal(entrada)
	if err != nil {
		log.Error().Err(err).Str("cola", cola).Msg("descartes: no se pudo serializar la entrada")
		return
	}

	key := DescartesPrefix + cola
	if err := rdb.LPush(ctx, key, data).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("descartes: no se pudo empujar la entrada")
		return
	}

	log.Warn().
		Str("cola", cola).
		Str("tipo", tipo).
		Str("motivo", motivo).
		Int("intentos", intentos).
		Msg("descartes: trabajo agotado movido a la lista de descartes")
}

// DescartesPendientes informa cuántas entradas acumula la lista de descartes
// de una cola.
func DescartesPendientes(ctx context.Context, rdb *redis.Client, cola string) (int64, error) {
	return rdb.LLen(ctx, DescartesPrefix+cola).Result()
}
