package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"plantaops/internal/apierror"
	"plantaops/internal/dto"
	"plantaops/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const loteCacheTTL = 5 * time.Minute

// ConsultaLoteHandler serves the public lot lookup endpoint used by floor
// scanner stations. No authentication required — no side effects whatsoever.
type ConsultaLoteHandler struct {
	repo repository.LoteRepository
	rdb  *redis.Client
}

func NewConsultaLoteHandler(repo repository.LoteRepository, rdb *redis.Client) *ConsultaLoteHandler {
	return &ConsultaLoteHandler{repo: repo, rdb: rdb}
}

// GetLotePorCodigo godoc
// @Summary Consulta de lote por código (sin autenticacion)
// @Tags lotes
// @Produce json
// @Param codigo path string true "Código del lote"
// @Success 200 {object} dto.ConsultaLoteResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/lote/{codigo} [get]
func (h *ConsultaLoteHandler) GetLotePorCodigo(c *gin.Context) {
	codigo := c.Param("codigo")
	ctx := c.Request.Context()
	cacheKey := "lote:" + codigo

	// 1. Try Redis cache — the floor stations poll this constantly
	if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var resp dto.ConsultaLoteResponse
		if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	// 2. Cache miss — query DB
	lote, err := h.repo.ObtenerPorCodigo(ctx, codigo)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Lote no encontrado"))
		return
	}

	resp := dto.ConsultaLoteResponse{
		Nombre:             lote.Nombre,
		CodigoLote:         lote.CodigoLote,
		Unidad:             lote.Unidad,
		CantidadDisponible: lote.CantidadDisponible,
		Utilizable:         lote.Utilizable,
	}

	// 3. Populate cache — best effort, ignore errors. TTL is short because
	// cantidad_disponible changes with every reserve/release.
	if b, jsonErr := json.Marshal(resp); jsonErr == nil {
		_ = h.rdb.Set(context.Background(), cacheKey, b, loteCacheTTL).Err()
	}

	c.JSON(http.StatusOK, resp)
}
