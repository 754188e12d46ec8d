package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/karibu-hire/service-rental/internal/application"
	"github.com/karibu-hire/service-rental/internal/domain/access"
	"github.com/karibu-hire/service-rental/internal/pkg/auth"
	"github.com/karibu-hire/service-rental/internal/pkg/middleware"
	"github.com/karibu-hire/service-rental/internal/pkg/response"
)

// ClientHandler handles HTTP requests for client management.
type ClientHandler struct {
	service        *application.ClientService
	bookingService *application.BookingService
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(service *application.ClientService, bookingService *application.BookingService) *ClientHandler {
	return &ClientHandler{service: service, bookingService: bookingService}
}

// RegisterRoutes registers all client routes on the given router group.
func (h *ClientHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager, policy middleware.PermissionChecker) {
	authMW := middleware.AuthMiddleware(jwtManager)

	clients := r.Group("/api/v1/clients")
	clients.Use(authMW)
	{
		clients.POST("", h.CreateClient)
		clients.GET("", h.ListClients)
		clients.GET("/:id", h.GetClient)
		clients.PUT("/:id", h.UpdateClient)
		clients.PATCH("/:id/status", h.ChangeClientStatus)
		clients.DELETE("/:id",
			middleware.RequirePermission(policy, access.ModuleClients, access.ActionDelete),
			h.DeleteClient)
		clients.GET("/:id/bookings", h.ListClientBookings)
	}
}

// CreateClient handles POST /api/v1/clients.
func (h *ClientHandler) CreateClient(c *gin.Context) {
	role, ok := middleware.GetUserRole(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateClient(c.Request.Context(), role, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListClients handles GET /api/v1/clients.
func (h *ClientHandler) ListClients(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListClients(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetClient handles GET /api/v1/clients/:id.
func (h *ClientHandler) GetClient(c *gin.Context) {
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid client ID")
		return
	}

	result, err := h.service.GetClient(c.Request.Context(), clientID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateClient handles PUT /api/v1/clients/:id.
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid client ID")
		return
	}

	role, ok := middleware.GetUserRole(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateClient(c.Request.Context(), role, clientID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ChangeClientStatus handles PATCH /api/v1/clients/:id/status.
func (h *ClientHandler) ChangeClientStatus(c *gin.Context) {
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid client ID")
		return
	}

	role, ok := middleware.GetUserRole(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ChangeClientStatus(c.Request.Context(), role, clientID, body.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteClient handles DELETE /api/v1/clients/:id.
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid client ID")
		return
	}

	role, ok := middleware.GetUserRole(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.service.DeleteClient(c.Request.Context(), role, clientID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ListClientBookings handles GET /api/v1/clients/:id/bookings.
func (h *ClientHandler) ListClientBookings(c *gin.Context) {
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid client ID")
		return
	}

	page, limit := parsePagination(c)

	result, err := h.bookingService.GetClientBookings(c.Request.Context(), clientID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}
