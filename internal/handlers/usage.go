package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/echoframe-backend/internal/requestdata"
	"github.com/yungbote/echoframe-backend/internal/services"
)

type UsageHandler struct {
	usageService services.UsageService
}

func NewUsageHandler(usageService services.UsageService) *UsageHandler {
	return &UsageHandler{usageService: usageService}
}

func (uh *UsageHandler) Stats(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request identity"))
		return
	}
	stats, err := uh.usageService.UsageStats(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, stats)
}

func (uh *UsageHandler) Platform(c *gin.Context) {
	metrics, err := uh.usageService.PlatformMetrics(c.Request.Context(), c.Query("date"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, metrics)
}
