package handler

import (
	"net/http"
	"strconv"

	"plantaops/internal/apierror"
	"plantaops/internal/dto"
	"plantaops/internal/repository"
	"plantaops/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LotesHandler struct{ svc service.InventarioService }

func NewLotesHandler(svc service.InventarioService) *LotesHandler {
	return &LotesHandler{svc: svc}
}

// Crear godoc
// @Summary      Ingreso de un lote de insumo o empaque
// @Description  Registra un lote nuevo: fija la cantidad inicial y deja todo el saldo disponible.
// @Tags         lotes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearLoteRequest true "Datos del lote"
// @Success      201  {object} dto.LoteResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/lotes [post]
func (h *LotesHandler) Crear(c *gin.Context) {
	var req dto.CrearLoteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearLote(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar lotes
// @Tags         lotes
// @Produce      json
// @Security     BearerAuth
// @Param        nombre          query string false "Filtro por nombre (contiene)"
// @Param        tipo            query string false "insumo | empaque"
// @Param        activo          query string false "true | false"
// @Param        con_disponible  query bool   false "Solo lotes con saldo"
// @Param        page            query int    false "Página (default 1)"
// @Param        limit           query int    false "Registros por página (default 20)"
// @Success      200 {object} dto.LoteListResponse
// @Router       /v1/lotes [get]
func (h *LotesHandler) Listar(c *gin.Context) {
	var filter dto.LoteFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parametros invalidos"))
		return
	}
	resp, err := h.svc.ListarLotes(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar lotes"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LotesHandler) Obtener(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.ObtenerLote(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Lote no encontrado"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MarcarUtilizable godoc
// @Summary      Marcar un lote como utilizable o no utilizable
// @Description  Un lote no utilizable no admite reservas nuevas; las reservas existentes no se tocan.
// @Tags         lotes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                       true "UUID del lote"
// @Param        body body dto.MarcarUtilizableRequest  true "Nuevo estado"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/lotes/{id}/utilizable [patch]
func (h *LotesHandler) MarcarUtilizable(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.MarcarUtilizableRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.MarcarUtilizable(c.Request.Context(), id, req.Utilizable); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListarMovimientos godoc
// @Summary      Auditoría de movimientos del mayor de lotes
// @Tags         lotes
// @Produce      json
// @Security     BearerAuth
// @Param        lote_id query string false "UUID del lote"
// @Param        tipo    query string false "ingreso | consumo | liberacion | baja_partida"
// @Param        page    query int    false "Página (default 1)"
// @Param        limit   query int    false "Registros por página (default 50)"
// @Success      200 {object} map[string]interface{}
// @Router       /v1/lotes/movimientos [get]
func (h *LotesHandler) ListarMovimientos(c *gin.Context) {
	filter := repository.MovimientoLoteFilter{
		Tipo:  c.Query("tipo"),
		Page:  1,
		Limit: 50,
	}
	if raw := c.Query("lote_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("lote_id invalido"))
			return
		}
		filter.LoteID = &id
	}
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		filter.Page = p
	}
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 200 {
		filter.Limit = l
	}

	items, total, err := h.svc.ListarMovimientos(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar movimientos"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  items,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}
