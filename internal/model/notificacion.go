package model

import (
	"time"

	"github.com/google/uuid"
)

// Tipos y estados de notificación.
const (
	NotifTipoResultadoQA    = "resultado_qa"
	NotifTipoAlertaIntegridad = "alerta_integridad"

	NotifPendiente = "pendiente"
	NotifEnviada   = "enviada"
	NotifFallida   = "fallida"
)

// Notificacion es un correo saliente pendiente de envío: el resultado de
// calidad de una partida al responsable, o una alerta de integridad a
// administración. El worker la procesa de forma asíncrona; RetryCount /
// NextRetryAt alimentan el cron de reintentos.
type Notificacion struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Tipo        string    `gorm:"not null"` // "resultado_qa" | "alerta_integridad"
	PartidaID   *uuid.UUID `gorm:"type:uuid;index"`
	Destinatario string    `gorm:"not null"`
	Asunto      string     `gorm:"not null"`
	Cuerpo      string     `gorm:"not null"`
	Estado      string     `gorm:"not null;default:'pendiente'"` // "pendiente" | "enviada" | "fallida"
	RetryCount  int        `gorm:"not null;default:0"`
	NextRetryAt *time.Time
	LastError   *string
	EnviadaAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Notificacion) TableName() string { return "notificaciones" }
