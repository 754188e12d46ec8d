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

// VehicleHandler handles HTTP requests for fleet management.
type VehicleHandler struct {
	service        *application.VehicleService
	bookingService *application.BookingService
}

// NewVehicleHandler creates a new VehicleHandler.
func NewVehicleHandler(service *application.VehicleService, bookingService *application.BookingService) *VehicleHandler {
	return &VehicleHandler{service: service, bookingService: bookingService}
}

// RegisterRoutes registers all vehicle routes on the given router group.
func (h *VehicleHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager, policy middleware.PermissionChecker) {
	authMW := middleware.AuthMiddleware(jwtManager)

	vehicles := r.Group("/api/v1/vehicles")
	vehicles.Use(authMW)
	{
		vehicles.POST("",
			middleware.RequirePermission(policy, access.ModuleVehicles, access.ActionCreate),
			h.CreateVehicle)
		vehicles.GET("", h.ListVehicles)
		vehicles.GET("/:id", h.GetVehicle)
		vehicles.PUT("/:id", h.UpdateVehicle)
		vehicles.DELETE("/:id",
			middleware.RequirePermission(policy, access.ModuleVehicles, access.ActionDelete),
			h.DeleteVehicle)
		vehicles.GET("/:id/bookings", h.ListVehicleBookings)
	}
}

// CreateVehicle handles POST /api/v1/vehicles.
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	role, ok := middleware.GetUserRole(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateVehicle(c.Request.Context(), role, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListVehicles handles GET /api/v1/vehicles.
func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListVehicles(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetVehicle handles GET /api/v1/vehicles/:id.
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid vehicle ID")
		return
	}

	result, err := h.service.GetVehicle(c.Request.Context(), vehicleID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateVehicle handles PUT /api/v1/vehicles/:id.
func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid vehicle ID")
		return
	}

	role, ok := middleware.GetUserRole(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateVehicle(c.Request.Context(), role, vehicleID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteVehicle handles DELETE /api/v1/vehicles/:id.
func (h *VehicleHandler) DeleteVehicle(c *gin.Context) {
	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid vehicle ID")
		return
	}

	role, ok := middleware.GetUserRole(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.service.DeleteVehicle(c.Request.Context(), role, vehicleID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ListVehicleBookings handles GET /api/v1/vehicles/:id/bookings.
func (h *VehicleHandler) ListVehicleBookings(c *gin.Context) {
	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid vehicle ID")
		return
	}

	page, limit := parsePagination(c)

	result, err := h.bookingService.GetVehicleBookings(c.Request.Context(), vehicleID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}
