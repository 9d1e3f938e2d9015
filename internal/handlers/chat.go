package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/echoframe-backend/internal/requestdata"
	"github.com/yungbote/echoframe-backend/internal/services"
	"github.com/yungbote/echoframe-backend/internal/types"
)

type ChatHandler struct {
	wrapperService services.WrapperService
}

func NewChatHandler(wrapperService services.WrapperService) *ChatHandler {
	return &ChatHandler{wrapperService: wrapperService}
}

func (ch *ChatHandler) Chat(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request identity"))
		return
	}

	var req struct {
		Message   string `json:"message"`
		BeingType string `json:"being_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.BeingType == "" {
		req.BeingType = string(types.BeingCell0)
	}

	result, err := ch.wrapperService.Chat(c.Request.Context(), services.ChatRequest{
		UserID:    rd.UserID,
		BeingType: types.BeingType(req.BeingType),
		Message:   req.Message,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}
