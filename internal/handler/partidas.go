package handler

import (
	"net/http"

	"plantaops/internal/apierror"
	"plantaops/internal/dto"
	"plantaops/internal/infra"
	"plantaops/internal/middleware"
	"plantaops/internal/repository"
	"plantaops/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PartidasHandler struct {
	svc            service.PartidaService
	partidaRepo    repository.PartidaRepository
	pdfStoragePath string
}

func NewPartidasHandler(svc service.PartidaService, partidaRepo repository.PartidaRepository, pdfStoragePath string) *PartidasHandler {
	return &PartidasHandler{svc: svc, partidaRepo: partidaRepo, pdfStoragePath: pdfStoragePath}
}

// Crear godoc
// @Summary      Crear una partida de elaboración
// @Description  Crea la partida en estado borrador con número y código PT-nnnnnn asignados por secuencia.
// @Tags         partidas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearPartidaRequest true "Encabezado de la partida"
// @Success      201  {object} dto.PartidaResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/partidas [post]
func (h *PartidasHandler) Crear(c *gin.Context) {
	var req dto.CrearPartidaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	responsableID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Crear(c.Request.Context(), responsableID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar partidas
// @Tags         partidas
// @Produce      json
// @Security     BearerAuth
// @Param        estado_qa      query string false "pendiente | aprobada | rechazada | retenida"
// @Param        bloqueada      query string false "true | false"
// @Param        desde          query string false "Fecha YYYY-MM-DD"
// @Param        hasta          query string false "Fecha YYYY-MM-DD"
// @Param        responsable_id query string false "UUID del responsable"
// @Param        page           query int    false "Página (default 1)"
// @Param        limit          query int    false "Registros por página (default 20)"
// @Success      200 {object} dto.PartidaListResponse
// @Router       /v1/partidas [get]
func (h *PartidasHandler) Listar(c *gin.Context) {
	var filter dto.PartidaFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parametros invalidos"))
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar partidas"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PartidasHandler) Obtener(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Partida no encontrada"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Editar godoc
// @Summary      Editar encabezado de una partida en borrador
// @Tags         partidas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "UUID de la partida"
// @Param        body body dto.EditarPartidaRequest true "Campos a modificar"
// @Success      200  {object} dto.PartidaResponse
// @Failure      409  {object} apierror.APIError "Partida bloqueada"
// @Router       /v1/partidas/{id} [patch]
func (h *PartidasHandler) Editar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.EditarPartidaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Editar(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Guardar godoc
// @Summary      Guardar el cierre de una partida (repetible)
// @Description  Persiste resultado de calidad, fechas de producción y campos libres sin bloquear. Idempotente.
// @Tags         partidas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                    true "UUID de la partida"
// @Param        body body dto.GuardarPartidaRequest true "Datos de cierre"
// @Success      204
// @Failure      409 {object} apierror.APIError "Partida bloqueada"
// @Router       /v1/partidas/{id}/guardar [put]
func (h *PartidasHandler) Guardar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.GuardarPartidaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Guardar(c.Request.Context(), id, req); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Finalizar godoc
// @Summary      Finalizar una partida
// @Description  Bloquea la partida para siempre; si la calidad quedó aprobada materializa los productos terminados en la misma transacción.
// @Tags         partidas
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la partida"
// @Success      200 {object} dto.PartidaResponse
// @Failure      409 {object} apierror.APIError "Ya bloqueada"
// @Failure      422 {object} apierror.APIError "QA sin resolver o sin elaborados"
// @Router       /v1/partidas/{id}/finalizar [post]
func (h *PartidasHandler) Finalizar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.Finalizar(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar godoc
// @Summary      Eliminar una partida en borrador
// @Description  Libera todos los consumos reservados (reponiendo los lotes) y borra la partida con sus registros hijos.
// @Tags         partidas
// @Security     BearerAuth
// @Param        id path string true "UUID de la partida"
// @Success      204
// @Failure      409 {object} apierror.APIError "Partida bloqueada"
// @Router       /v1/partidas/{id} [delete]
func (h *PartidasHandler) Eliminar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DescargarProtocolo godoc
// @Summary      Descargar el protocolo de elaboración en PDF
// @Tags         partidas
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path string true "UUID de la partida"
// @Success      200 {file} binary
// @Failure      404 {object} apierror.APIError
// @Router       /v1/partidas/{id}/protocolo [get]
func (h *PartidasHandler) DescargarProtocolo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	partida, err := h.partidaRepo.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Partida no encontrada"))
		return
	}
	path, err := infra.GenerateProtocoloPDF(partida, h.pdfStoragePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al generar el protocolo"))
		return
	}
	c.FileAttachment(path, "protocolo_"+partida.Codigo+".pdf")
}
