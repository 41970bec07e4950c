package dto

import "github.com/google/uuid"

// ── Request DTOs ──────────────────────────────────────────────────────────────

type CrearUnidadRequest struct {
	Nombre           string `json:"nombre"            validate:"required,min=1,max=30"`
	PermiteDecimales bool   `json:"permite_decimales"`
}

type ActualizarUnidadRequest struct {
	Nombre           *string `json:"nombre"            validate:"omitempty,min=1,max=30"`
	PermiteDecimales *bool   `json:"permite_decimales"`
	Activo           *bool   `json:"activo"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type UnidadResponse struct {
	ID               uuid.UUID `json:"id"`
	Nombre           string    `json:"nombre"`
	PermiteDecimales bool      `json:"permite_decimales"`
	Activo           bool      `json:"activo"`
}
