package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tipos de lote.
const (
	LoteTipoInsumo  = "insumo"
	LoteTipoEmpaque = "empaque"
)

// Lote representa una cantidad finita y trazable de una materia prima o de un
// material de empaque, identificada por su código de lote. CantidadDisponible
// solo se modifica vía reservar/liberar; CantidadInicial queda fija al ingreso,
// de modo que siempre vale:
//
//	cantidad_disponible + Σ(consumos vivos) == cantidad_inicial
type Lote struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre             string    `gorm:"index;not null"`
	CodigoLote         string    `gorm:"uniqueIndex;not null"`
	Tipo               string    `gorm:"type:varchar(20);not null;default:'insumo'"` // "insumo" | "empaque"
	Unidad             string    `gorm:"not null"`
	CantidadInicial    decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	CantidadDisponible decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	Utilizable         bool            `gorm:"not null;default:true"`
	Activo             bool            `gorm:"not null;default:true"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName overrides GORM's default pluralization for Spanish names.
func (Lote) TableName() string { return "lotes" }
