package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductoElaborado es una salida nominada de la partida: qué se produjo,
// cuánto, en qué unidad y bajo qué categoría. Recién se convierte en
// inventario real (ProductoTerminado) cuando la partida se bloquea aprobada.
type ProductoElaborado struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PartidaID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	Nombre            string           `gorm:"not null"`
	Tamano            *decimal.Decimal `gorm:"type:decimal(10,3)"` // tamaño físico opcional (ej. 500)
	UnidadTamano      *string          // ej. "ml", "g"
	CantidadProducida decimal.Decimal  `gorm:"type:decimal(14,4);not null"`
	UnidadProducida   string           `gorm:"not null"`
	CategoriaID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Categoria *Categoria `gorm:"foreignKey:CategoriaID"`
}

func (ProductoElaborado) TableName() string { return "productos_elaborados" }
