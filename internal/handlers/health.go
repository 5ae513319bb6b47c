package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pulsefeed/pulsefeed/internal/cache"
	"github.com/pulsefeed/pulsefeed/pkg/response"
)

// Health reports readiness of the relational store and the cache backend.
// A degraded cache does not fail the check since every cached path falls
// through to the database.
func Health(db *gorm.DB, store cache.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{"database": "ok", "cache": "ok"}
		healthy := true

		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(requestContext(c))
			}
			if err != nil {
				checks["database"] = "unavailable"
				healthy = false
			}
		}

		if store != nil {
			if _, _, err := store.Get(requestContext(c), "health:probe"); err != nil {
				checks["cache"] = "degraded"
			}
		}

		if !healthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"data":    gin.H{"status": statusLabel(healthy), "checks": checks},
			})
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": statusLabel(healthy), "checks": checks})
	}
}

func statusLabel(healthy bool) string {
	if healthy {
		return "ok"
	}
	return "degraded"
}
