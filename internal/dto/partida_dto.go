package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearPartidaRequest struct {
	Observaciones string     `json:"observaciones" validate:"max=2000"`
	FechaPartida  *time.Time `json:"fecha_partida"`
}

// EditarPartidaRequest updates header fields of a draft partida. Pointer
// fields distinguish "not sent" from "clear".
type EditarPartidaRequest struct {
	Observaciones *string           `json:"observaciones" validate:"omitempty,max=2000"`
	FechaPartida  *time.Time        `json:"fecha_partida"`
	EstadoQA      *string           `json:"estado_qa"     validate:"omitempty,oneof=pendiente aprobada rechazada retenida"`
	MotivoQA      *string           `json:"motivo_qa"     validate:"omitempty,max=2000"`
	FechaInicio   *time.Time        `json:"fecha_inicio"`
	FechaFin      *time.Time        `json:"fecha_fin"`
	Campos        map[string]string `json:"campos"`
}

// GuardarPartidaRequest is the repeat-safe "save progress" payload of the
// completion step: QA outcome, production dates and custom fields.
type GuardarPartidaRequest struct {
	EstadoQA    string            `json:"estado_qa"    validate:"required,oneof=pendiente aprobada rechazada retenida"`
	MotivoQA    *string           `json:"motivo_qa"    validate:"omitempty,max=2000"`
	FechaInicio *time.Time        `json:"fecha_inicio"`
	FechaFin    *time.Time        `json:"fecha_fin"`
	Campos      map[string]string `json:"campos"`
}

type ReservarConsumoRequest struct {
	LoteID   string          `json:"lote_id"  validate:"required,uuid"`
	Cantidad decimal.Decimal `json:"cantidad" validate:"required,gt=0"`
}

type ReemplazarConsumoRequest struct {
	Cantidad decimal.Decimal `json:"cantidad" validate:"required,gt=0"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type PartidaFilter struct {
	EstadoQA      string     `form:"estado_qa" validate:"omitempty,oneof=pendiente aprobada rechazada retenida"`
	Bloqueada     string     `form:"bloqueada" validate:"omitempty,oneof=true false"`
	Desde         *time.Time `form:"desde"     time_format:"2006-01-02"`
	Hasta         *time.Time `form:"hasta"     time_format:"2006-01-02"`
	ResponsableID string     `form:"responsable_id" validate:"omitempty,uuid"`
	Page          int        `form:"page,default=1"   validate:"min=1"`
	Limit         int        `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ConsumoResponse struct {
	ID                string          `json:"id"`
	LoteID            string          `json:"lote_id"`
	CodigoLote        string          `json:"codigo_lote"`
	NombreLote        string          `json:"nombre_lote"`
	CantidadConsumida decimal.Decimal `json:"cantidad_consumida"`
	Unidad            string          `json:"unidad"`
	CreatedAt         string          `json:"created_at"`
}

type PartidaResponse struct {
	ID            string              `json:"id"`
	Codigo        string              `json:"codigo"`
	Responsable   string              `json:"responsable"`
	ResponsableID string              `json:"responsable_id"`
	Observaciones string              `json:"observaciones"`
	FechaPartida  string              `json:"fecha_partida"`
	Estado        string              `json:"estado"` // "borrador" | "bloqueada"
	EstadoQA      string              `json:"estado_qa"`
	MotivoQA      *string             `json:"motivo_qa"`
	FechaInicio   *string             `json:"fecha_inicio"`
	FechaFin      *string             `json:"fecha_fin"`
	Campos        map[string]string   `json:"campos"`
	Consumos      []ConsumoResponse   `json:"consumos"`
	Elaborados    []ElaboradoResponse `json:"elaborados"`
	CreatedAt     string              `json:"created_at"`
}

type PartidaListItem struct {
	ID           string `json:"id"`
	Codigo       string `json:"codigo"`
	Responsable  string `json:"responsable"`
	FechaPartida string `json:"fecha_partida"`
	Estado       string `json:"estado"`
	EstadoQA     string `json:"estado_qa"`
	CreatedAt    string `json:"created_at"`
}

type PartidaListResponse struct {
	Data  []PartidaListItem `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
