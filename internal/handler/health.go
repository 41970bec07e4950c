package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reporta el estado de las dependencias del servicio. Devuelve 503
// si la base o Redis no responden dentro del timeout, para que el orquestador
// saque la instancia de rotación.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		estado := http.StatusOK
		postgres := "ok"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			postgres = "sin respuesta"
			estado = http.StatusServiceUnavailable
		}

		redisEstado := "ok"
		if rdb.Ping(ctx).Err() != nil {
			redisEstado = "sin respuesta"
			estado = http.StatusServiceUnavailable
		}

		c.JSON(estado, gin.H{
			"servicio": "plantaops",
			"postgres": postgres,
			"redis":    redisEstado,
		})
	}
}
