package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AgregarElaboradoRequest struct {
	Nombre            string           `json:"nombre"             validate:"required,min=2,max=120"`
	Tamano            *decimal.Decimal `json:"tamano"`
	UnidadTamano      *string          `json:"unidad_tamano"      validate:"omitempty,max=20"`
	CantidadProducida decimal.Decimal  `json:"cantidad_producida" validate:"required"`
	UnidadProducida   string           `json:"unidad_producida"   validate:"required"`
	CategoriaID       string           `json:"categoria_id"       validate:"omitempty,uuid"`
}

type ActualizarElaboradoRequest struct {
	Nombre            *string          `json:"nombre"             validate:"omitempty,min=2,max=120"`
	Tamano            *decimal.Decimal `json:"tamano"`
	UnidadTamano      *string          `json:"unidad_tamano"      validate:"omitempty,max=20"`
	CantidadProducida *decimal.Decimal `json:"cantidad_producida"`
	UnidadProducida   *string          `json:"unidad_producida"`
	CategoriaID       *string          `json:"categoria_id"       validate:"omitempty,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ElaboradoResponse struct {
	ID                string           `json:"id"`
	PartidaID         string           `json:"partida_id"`
	Nombre            string           `json:"nombre"`
	Tamano            *decimal.Decimal `json:"tamano"`
	UnidadTamano      *string          `json:"unidad_tamano"`
	CantidadProducida decimal.Decimal  `json:"cantidad_producida"`
	UnidadProducida   string           `json:"unidad_producida"`
	CategoriaID       string           `json:"categoria_id"`
	Categoria         string           `json:"categoria"`
}

type TerminadoResponse struct {
	ID           string           `json:"id"`
	PartidaID    string           `json:"partida_id"`
	Nombre       string           `json:"nombre"`
	Cantidad     decimal.Decimal  `json:"cantidad"`
	Unidad       string           `json:"unidad"`
	CategoriaID  string           `json:"categoria_id"`
	Categoria    string           `json:"categoria"`
	Tamano       *decimal.Decimal `json:"tamano"`
	UnidadTamano *string          `json:"unidad_tamano"`
	CreatedAt    string           `json:"created_at"`
}

type TerminadosExistenResponse struct {
	PartidaID string `json:"partida_id"`
	Existen   bool   `json:"existen"`
}
