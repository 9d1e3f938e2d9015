package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/echoframe-backend/internal/requestdata"
	"github.com/yungbote/echoframe-backend/internal/services"
	"github.com/yungbote/echoframe-backend/internal/types"
)

type BeingHandler struct {
	beingService services.BeingService
}

func NewBeingHandler(beingService services.BeingService) *BeingHandler {
	return &BeingHandler{beingService: beingService}
}

func beingTypeParam(c *gin.Context) (types.BeingType, bool) {
	beingType := types.BeingType(c.Param("type"))
	if !beingType.Valid() {
		RespondError(c, http.StatusBadRequest, "validation_error", fmt.Errorf("unknown being type %q", c.Param("type")))
		return "", false
	}
	return beingType, true
}

func (bh *BeingHandler) Status(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request identity"))
		return
	}
	beingType, ok := beingTypeParam(c)
	if !ok {
		return
	}

	status, err := bh.beingService.Status(c.Request.Context(), rd.UserID, beingType)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if status == nil {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("no active being of type %s", beingType))
		return
	}
	RespondOK(c, status)
}

func (bh *BeingHandler) Release(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request identity"))
		return
	}
	beingType, ok := beingTypeParam(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// Body is optional for release.
	_ = c.ShouldBindJSON(&req)

	status, err := bh.beingService.Release(c.Request.Context(), rd.UserID, beingType, req.Reason)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, status)
}
