package handler

import (
	"net/http"

	"plantaops/internal/apierror"
	"plantaops/internal/dto"
	"plantaops/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ElaboradosHandler struct{ svc service.ElaboradoService }

func NewElaboradosHandler(svc service.ElaboradoService) *ElaboradosHandler {
	return &ElaboradosHandler{svc: svc}
}

// Agregar godoc
// @Summary      Registrar una salida de la partida
// @Description  Agrega un producto elaborado: cantidad positiva, unidad declarada, sin fracciones en unidades enteras y categoría obligatoria.
// @Tags         elaborados
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                      true "UUID de la partida"
// @Param        body body dto.AgregarElaboradoRequest true "Producto elaborado"
// @Success      201  {object} dto.ElaboradoResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/partidas/{id}/elaborados [post]
func (h *ElaboradosHandler) Agregar(c *gin.Context) {
	partidaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.AgregarElaboradoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Agregar(c.Request.Context(), partidaID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ElaboradosHandler) Actualizar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("elaborado_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.ActualizarElaboradoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ElaboradosHandler) Quitar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("elaborado_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	if err := h.svc.Quitar(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ElaboradosHandler) ListarPorPartida(c *gin.Context) {
	partidaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.ListarPorPartida(c.Request.Context(), partidaID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar elaborados"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Productos terminados ─────────────────────────────────────────────────────

type TerminadosHandler struct{ svc service.TerminadoService }

func NewTerminadosHandler(svc service.TerminadoService) *TerminadosHandler {
	return &TerminadosHandler{svc: svc}
}

// ListarPorPartida godoc
// @Summary      Inventario de producto terminado generado por una partida
// @Tags         terminados
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la partida"
// @Success      200 {array} dto.TerminadoResponse
// @Router       /v1/partidas/{id}/terminados [get]
func (h *TerminadosHandler) ListarPorPartida(c *gin.Context) {
	partidaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.ListarPorPartida(c.Request.Context(), partidaID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar terminados"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Existen godoc
// @Summary      Consultar si una partida ya materializó inventario
// @Tags         terminados
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la partida"
// @Success      200 {object} dto.TerminadosExistenResponse
// @Router       /v1/partidas/{id}/terminados/existen [get]
func (h *TerminadosHandler) Existen(c *gin.Context) {
	partidaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	existen, err := h.svc.ExistenPorPartida(c.Request.Context(), partidaID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al consultar terminados"))
		return
	}
	c.JSON(http.StatusOK, dto.TerminadosExistenResponse{
		PartidaID: partidaID.String(),
		Existen:   existen,
	})
}
