package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConsumoInsumo vincula una partida con un lote del que se reservó cantidad.
// Es la única vía por la que sale cantidad de un lote: se crea junto con el
// descuento de disponible (misma transacción) y se elimina junto con la
// reposición. Inmutable una vez bloqueada la partida.
type ConsumoInsumo struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PartidaID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	LoteID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	CantidadConsumida decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	Unidad            string          `gorm:"not null"` // unidad del lote al momento del consumo
	CreatedAt         time.Time

	Lote *Lote `gorm:"foreignKey:LoteID"`
}

func (ConsumoInsumo) TableName() string { return "consumos_insumo" }
