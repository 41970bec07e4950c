package model

import (
	"time"

	"github.com/google/uuid"
)

// Unidad es una entrada del directorio de unidades de medida. PermiteDecimales
// controla si una cantidad producida puede ser fraccionaria ("Kg." sí,
// "unidad" no).
type Unidad struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre           string    `gorm:"uniqueIndex;not null"`
	PermiteDecimales bool      `gorm:"not null;default:true"`
	Activo           bool      `gorm:"not null;default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Unidad) TableName() string { return "unidades" }
