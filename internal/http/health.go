package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/database"
)

// HealthController reports service and database health.
type HealthController struct {
	db      *database.Database
	version string
}

// NewHealthController creates the health controller.
func NewHealthController(db *database.Database, version string) *HealthController {
	return &HealthController{db: db, version: version}
}

// Status returns 200 when the database answers, 503 otherwise.
func (ctrl *HealthController) Status(c *gin.Context) {
	status := "ok"
	dbStatus := "ok"
	code := http.StatusOK

	sqlDB, err := ctrl.db.DB.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		status = "degraded"
		dbStatus = err.Error()
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":   status,
		"database": dbStatus,
		"version":  ctrl.version,
	})
}
