package model

import (
	"time"

	"github.com/google/uuid"
)

// Estados de calidad de una partida.
const (
	QAPendiente = "pendiente"
	QAAprobada  = "aprobada"
	QARechazada = "rechazada"
	QARetenida  = "retenida"
)

// Partida es la raíz del proceso de elaboración: consume lotes de insumos,
// acumula productos elaborados y atraviesa la puerta de calidad antes de
// bloquearse. Una vez Bloqueada=true la partida y todos sus registros hijos
// son inmutables; no existe transición inversa.
type Partida struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Numero        int       `gorm:"uniqueIndex;not null"`
	Codigo        string    `gorm:"uniqueIndex;not null"` // "PT-000042", derivado de Numero
	ResponsableID uuid.UUID `gorm:"type:uuid;not null;index"`
	Observaciones string
	FechaPartida  time.Time  `gorm:"not null"`
	Bloqueada     bool       `gorm:"not null;default:false"`
	EstadoQA      string     `gorm:"type:varchar(20);not null;default:'pendiente'"`
	MotivoQA      *string    // obligatorio cuando EstadoQA es retenida o rechazada
	FechaInicio   *time.Time // inicio de producción
	FechaFin      *time.Time // fin de producción
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Responsable *Usuario           `gorm:"foreignKey:ResponsableID"`
	Consumos    []ConsumoInsumo    `gorm:"foreignKey:PartidaID"`
	Elaborados  []ProductoElaborado `gorm:"foreignKey:PartidaID"`
	Campos      []PartidaCampo     `gorm:"foreignKey:PartidaID"`
}

func (Partida) TableName() string { return "partidas" }

// Estado devuelve el eje de bloqueo como etiqueta legible.
func (p *Partida) Estado() string {
	if p.Bloqueada {
		return "bloqueada"
	}
	return "borrador"
}

// transicionesQA enumera las transiciones legales del eje de calidad mientras
// la partida está en borrador. Una vez bloqueada, el estado queda congelado.
var transicionesQA = map[string][]string{
	QAPendiente: {QAAprobada, QARechazada, QARetenida},
	QARetenida:  {QAAprobada, QARechazada},
	QAAprobada:  {},
	QARechazada: {},
}

// TransicionQAValida indica si el cambio de estado de calidad es legal.
// El no-cambio siempre es válido (los guardados repetidos son idempotentes).
func TransicionQAValida(desde, hacia string) bool {
	if desde == hacia {
		return true
	}
	for _, s := range transicionesQA[desde] {
		if s == hacia {
			return true
		}
	}
	return false
}

// EstadoQAValido reconoce los cuatro estados del eje de calidad.
func EstadoQAValido(estado string) bool {
	switch estado {
	case QAPendiente, QAAprobada, QARechazada, QARetenida:
		return true
	}
	return false
}

// PartidaCampo guarda pares clave/valor definidos por el usuario sobre una
// partida (temperatura de horno, turno, línea, etc.). Tabla hija en lugar de
// una columna JSON para poder filtrar por clave con SQL plano.
type PartidaCampo struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PartidaID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_partida_campo_clave"`
	Clave     string    `gorm:"not null;uniqueIndex:idx_partida_campo_clave"`
	Valor     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PartidaCampo) TableName() string { return "partida_campos" }
