package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductoTerminado es el registro de inventario de producto final creado a
// partir de un ProductoElaborado al bloquearse una partida aprobada. El índice
// único (partida_id, producto_elaborado_id) garantiza en la base — no solo en
// la aplicación — que una partida nunca se materializa dos veces, aun con
// llamadas a finalizar concurrentes.
type ProductoTerminado struct {
	ID                  uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PartidaID           uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:idx_terminado_partida_elaborado"`
	ProductoElaboradoID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_terminado_partida_elaborado"`
	Nombre              string           `gorm:"not null"`
	Cantidad            decimal.Decimal  `gorm:"type:decimal(14,4);not null"`
	Unidad              string           `gorm:"not null"`
	CategoriaID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	Tamano              *decimal.Decimal `gorm:"type:decimal(10,3)"`
	UnidadTamano        *string
	CreatedAt           time.Time

	Categoria *Categoria `gorm:"foreignKey:CategoriaID"`
}

func (ProductoTerminado) TableName() string { return "productos_terminados" }
