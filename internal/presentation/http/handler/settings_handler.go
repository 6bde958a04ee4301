package handler

import (
	"github.com/Beveren-Software-Inc/klikpos-core/internal/application/service"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/presentation/http/dto/response"
	"github.com/gin-gonic/gin"
)

// SettingsHandler serves the configuration feeds terminals need at startup
type SettingsHandler struct {
	settingsService *service.SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// GetFeeds returns tender methods, tax policies and the POS profile
func (h *SettingsHandler) GetFeeds(c *gin.Context) {
	feeds, err := h.settingsService.Feeds(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Configuration retrieved successfully", feeds)
}

// Refresh drops the cached feeds and returns freshly loaded ones
func (h *SettingsHandler) Refresh(c *gin.Context) {
	if err := h.settingsService.Invalidate(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	h.GetFeeds(c)
}
