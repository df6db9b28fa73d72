package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hynexus/hynexus-api/internal/service"
)

type ThemeHandler struct {
	themeService *service.ThemeService
}

func NewThemeHandler(themeService *service.ThemeService) *ThemeHandler {
	return &ThemeHandler{themeService: themeService}
}

// GetServerTheme is public so server pages can style themselves before login.
// GET /api/v1/themes/server/:slug
func (h *ThemeHandler) GetServerTheme(c *gin.Context) {
	theme, err := h.themeService.GetServerTheme(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, theme)
}
