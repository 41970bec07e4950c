package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CrearLoteRequest is the intake operation: it fixes cantidad_inicial forever.
type CrearLoteRequest struct {
	Nombre     string          `json:"nombre"      validate:"required,min=2,max=120"`
	CodigoLote string          `json:"codigo_lote" validate:"required,min=2,max=60"`
	Tipo       string          `json:"tipo"        validate:"required,oneof=insumo empaque"`
	Unidad     string          `json:"unidad"      validate:"required"`
	Cantidad   decimal.Decimal `json:"cantidad"    validate:"required,gt=0"`
}

type MarcarUtilizableRequest struct {
	Utilizable bool `json:"utilizable"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type LoteFilter struct {
	Nombre        string `form:"nombre"`
	Tipo          string `form:"tipo"`
	Activo        string `form:"activo"`
	ConDisponible bool   `form:"con_disponible"`
	Page          int    `form:"page,default=1"   validate:"min=1"`
	Limit         int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LoteResponse struct {
	ID                 string          `json:"id"`
	Nombre             string          `json:"nombre"`
	CodigoLote         string          `json:"codigo_lote"`
	Tipo               string          `json:"tipo"`
	Unidad             string          `json:"unidad"`
	CantidadInicial    decimal.Decimal `json:"cantidad_inicial"`
	CantidadDisponible decimal.Decimal `json:"cantidad_disponible"`
	Utilizable         bool            `json:"utilizable"`
	Activo             bool            `json:"activo"`
	CreatedAt          string          `json:"created_at"`
}

type LoteListResponse struct {
	Data  []LoteResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ConsultaLoteResponse is returned by the public lot lookup endpoint used by
// floor scanner stations (no auth required).
type ConsultaLoteResponse struct {
	Nombre             string          `json:"nombre"`
	CodigoLote         string          `json:"codigo_lote"`
	Unidad             string          `json:"unidad"`
	CantidadDisponible decimal.Decimal `json:"cantidad_disponible"`
	Utilizable         bool            `json:"utilizable"`
}

type MovimientoLoteResponse struct {
	ID                 string          `json:"id"`
	LoteID             string          `json:"lote_id"`
	CodigoLote         string          `json:"codigo_lote"`
	Tipo               string          `json:"tipo"`
	Cantidad           decimal.Decimal `json:"cantidad"`
	DisponibleAnterior decimal.Decimal `json:"disponible_anterior"`
	DisponibleNuevo    decimal.Decimal `json:"disponible_nuevo"`
	Motivo             string          `json:"motivo"`
	ReferenciaID       *string         `json:"referencia_id"`
	CreatedAt          string          `json:"created_at"`
}
