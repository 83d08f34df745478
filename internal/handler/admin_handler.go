package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tripseat/service-booking/internal/application"
	"github.com/tripseat/service-booking/internal/platform/middleware"
	"github.com/tripseat/service-booking/internal/platform/response"
)

// AdminHandler handles admin HTTP requests for bookings and the route catalog.
type AdminHandler struct {
	bookings *application.BookingService
	routes   *application.RouteService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(bookings *application.BookingService, routes *application.RouteService) *AdminHandler {
	return &AdminHandler{bookings: bookings, routes: routes}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, verifier *middleware.TokenVerifier) {
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.AuthMiddleware(verifier), middleware.RequireRole(middleware.RoleAdmin))
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/stats/bookings", h.BookingStats)
		admin.POST("/routes", h.CreateRoute)
		admin.PUT("/routes/:id", h.UpdateRoute)
	}
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	bookings, total, err := h.bookings.ListAllBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminHandler) BookingStats(c *gin.Context) {
	stats, err := h.bookings.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// CreateRoute handles POST /api/v1/admin/routes.
func (h *AdminHandler) CreateRoute(c *gin.Context) {
	var req application.CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.routes.CreateRoute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// UpdateRoute handles PUT /api/v1/admin/routes/:id.
func (h *AdminHandler) UpdateRoute(c *gin.Context) {
	routeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid route ID")
		return
	}

	var req application.UpdateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.routes.UpdateRoute(c.Request.Context(), routeID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
