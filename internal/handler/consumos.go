package handler

import (
	"net/http"

	"plantaops/internal/apierror"
	"plantaops/internal/dto"
	"plantaops/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ConsumosHandler expone las operaciones del mayor de lotes ligadas a una
// partida: reservar, liberar y reemplazar cantidad consumida.
type ConsumosHandler struct{ svc service.InventarioService }

func NewConsumosHandler(svc service.InventarioService) *ConsumosHandler {
	return &ConsumosHandler{svc: svc}
}

// Reservar godoc
// @Summary      Reservar cantidad de un lote para una partida
// @Description  Descuenta el disponible del lote y crea el registro de consumo en una sola transacción. Rechaza con 409 si no alcanza el saldo.
// @Tags         consumos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                     true "UUID de la partida"
// @Param        body body dto.ReservarConsumoRequest true "Lote y cantidad"
// @Success      201  {object} dto.ConsumoResponse
// @Failure      409  {object} apierror.APIError "Cantidad insuficiente o partida bloqueada"
// @Failure      422  {object} apierror.APIError "Lote no utilizable"
// @Router       /v1/partidas/{id}/consumos [post]
func (h *ConsumosHandler) Reservar(c *gin.Context) {
	partidaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.ReservarConsumoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	loteID, err := uuid.Parse(req.LoteID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("lote_id invalido"))
		return
	}
	resp, err := h.svc.Reservar(c.Request.Context(), partidaID, loteID, req.Cantidad)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Liberar godoc
// @Summary      Liberar un consumo reservado
// @Description  Borra el consumo y repone el disponible del lote. Liberar dos veces responde 409 sin efecto.
// @Tags         consumos
// @Security     BearerAuth
// @Param        consumo_id path string true "UUID del consumo"
// @Success      204
// @Failure      409 {object} apierror.APIError "Ya liberado o partida bloqueada"
// @Router       /v1/consumos/{consumo_id} [delete]
func (h *ConsumosHandler) Liberar(c *gin.Context) {
	consumoID, err := uuid.Parse(c.Param("consumo_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	if err := h.svc.Liberar(c.Request.Context(), consumoID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reemplazar godoc
// @Summary      Cambiar la cantidad de un consumo
// @Description  Libera la cantidad anterior y reserva la nueva en una sola transacción; si el saldo no alcanza nada cambia.
// @Tags         consumos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        consumo_id path string                       true "UUID del consumo"
// @Param        body       body dto.ReemplazarConsumoRequest true "Nueva cantidad"
// @Success      200  {object} dto.ConsumoResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/consumos/{consumo_id} [put]
func (h *ConsumosHandler) Reemplazar(c *gin.Context) {
	consumoID, err := uuid.Parse(c.Param("consumo_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.ReemplazarConsumoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Reemplazar(c.Request.Context(), consumoID, req.Cantidad)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ConsumosHandler) ListarPorPartida(c *gin.Context) {
	partidaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.ListarConsumos(c.Request.Context(), partidaID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar consumos"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
