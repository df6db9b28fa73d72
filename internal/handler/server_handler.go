package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hynexus/hynexus-api/internal/dto"
	"github.com/hynexus/hynexus-api/internal/middleware"
	"github.com/hynexus/hynexus-api/internal/service"
)

type ServerHandler struct {
	serverService *service.ServerService
}

func NewServerHandler(serverService *service.ServerService) *ServerHandler {
	return &ServerHandler{serverService: serverService}
}

// POST /api/v1/servers
func (h *ServerHandler) Create(c *gin.Context) {
	var req dto.CreateServerRequest
	if !bindJSON(c, &req) {
		return
	}

	server, err := h.serverService.Create(c.Request.Context(), middleware.CurrentPrincipal(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, server)
}

// GET /api/v1/servers
func (h *ServerHandler) List(c *gin.Context) {
	servers, err := h.serverService.FindAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, servers)
}

// GET /api/v1/servers/:id
func (h *ServerHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	server, err := h.serverService.FindOne(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, server)
}

// GET /api/v1/servers/slug/:slug
func (h *ServerHandler) GetBySlug(c *gin.Context) {
	server, err := h.serverService.FindBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, server)
}

// PUT /api/v1/servers/:id
func (h *ServerHandler) Update(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateServerRequest
	if !bindJSON(c, &req) {
		return
	}

	server, err := h.serverService.Update(c.Request.Context(), middleware.CurrentPrincipal(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, server)
}

// DELETE /api/v1/servers/:id
func (h *ServerHandler) Delete(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.serverService.Remove(c.Request.Context(), middleware.CurrentPrincipal(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// PATCH /api/v1/servers/:id/approve
func (h *ServerHandler) Approve(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	server, err := h.serverService.Approve(c.Request.Context(), middleware.CurrentPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, server)
}

// PATCH /api/v1/servers/:id/reject
func (h *ServerHandler) Reject(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	server, err := h.serverService.Reject(c.Request.Context(), middleware.CurrentPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, server)
}
