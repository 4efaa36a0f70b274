package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clipshelf/clipshelf/internal/kvstore"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	kv      *kvstore.Store
	version string
}

func NewHealthController(kv *kvstore.Store, version string) *HealthController {
	return &HealthController{kv: kv, version: version}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.kv != nil {
		if _, _, err := h.kv.Get("health_probe"); err != nil {
			checks["kvstore"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["kvstore"] = "ok"
		}
	} else {
		checks["kvstore"] = "not configured"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
