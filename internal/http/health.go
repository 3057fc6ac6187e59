package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openroad/driveadmin/internal/database"
)

// HealthController reports process liveness and database connectivity.
type HealthController struct {
	db      *database.Database
	version string
}

func NewHealthController(db *database.Database, version string) *HealthController {
	return &HealthController{db: db, version: version}
}

func (h *HealthController) Status(c *gin.Context) {
	status := "healthy"
	checks := map[string]string{"database": "ok"}

	if h.db == nil {
		checks["database"] = "not configured"
	} else if err := h.pingDatabase(); err != nil {
		checks["database"] = "error: " + err.Error()
		status = "unhealthy"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	c.IndentedJSON(code, gin.H{
		"status":  status,
		"time":    time.Now().Format(time.RFC3339),
		"version": h.version,
		"checks":  checks,
	})
}

func (h *HealthController) pingDatabase() error {
	sqlDB, err := h.db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
