package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tipos de movimiento sobre un lote.
const (
	MovIngreso     = "ingreso"
	MovConsumo     = "consumo"
	MovLiberacion  = "liberacion"
	MovBajaPartida = "baja_partida"
)

// MovimientoLote registra cada cambio de disponible en un lote. Se crea en la
// misma transacción que el cambio, de modo que el mayor auditable y el saldo
// nunca divergen.
type MovimientoLote struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LoteID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	Tipo               string          `gorm:"not null"` // "ingreso" | "consumo" | "liberacion" | "baja_partida"
	Cantidad           decimal.Decimal `gorm:"type:decimal(14,4);not null"` // positivo = entra, negativo = sale
	DisponibleAnterior decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	DisponibleNuevo    decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	Motivo             string
	ReferenciaID       *uuid.UUID `gorm:"type:uuid"` // partida_id cuando aplica
	CreatedAt          time.Time

	Lote *Lote `gorm:"foreignKey:LoteID"`
}

func (MovimientoLote) TableName() string { return "movimientos_lote" }
