package handlers

import (
	"net/http"

	"tidybook/utils"

	"github.com/gin-gonic/gin"
)

// HandleHealth is GET /api/health.
func HandleHealth(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.Mongo || !status.Redis {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
