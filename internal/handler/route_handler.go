package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tripseat/service-booking/internal/application"
	"github.com/tripseat/service-booking/internal/platform/middleware"
	"github.com/tripseat/service-booking/internal/platform/response"
)

// RouteHandler handles HTTP requests for the route catalog.
type RouteHandler struct {
	service *application.RouteService
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(service *application.RouteService) *RouteHandler {
	return &RouteHandler{service: service}
}

// RegisterRoutes registers route catalog endpoints.
func (h *RouteHandler) RegisterRoutes(r *gin.RouterGroup, verifier *middleware.TokenVerifier) {
	routes := r.Group("/api/v1/routes")
	routes.Use(middleware.AuthMiddleware(verifier))
	{
		routes.GET("", h.ListRoutes)
		routes.GET("/:id", h.GetRoute)
		routes.GET("/:id/fare", h.QuoteFare)
	}
}

// ListRoutes handles GET /api/v1/routes?mode=bus|train.
func (h *RouteHandler) ListRoutes(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListRoutes(c.Request.Context(), c.Query("mode"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetRoute handles GET /api/v1/routes/:id.
func (h *RouteHandler) GetRoute(c *gin.Context) {
	routeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid route ID")
		return
	}

	result, err := h.service.GetRoute(c.Request.Context(), routeID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// QuoteFare handles GET /api/v1/routes/:id/fare?from=&to=&seats=.
func (h *RouteHandler) QuoteFare(c *gin.Context) {
	routeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid route ID")
		return
	}

	seats, err := strconv.Atoi(c.DefaultQuery("seats", "1"))
	if err != nil {
		response.BadRequest(c, "seats must be a number")
		return
	}

	result, err := h.service.QuoteFare(c.Request.Context(), routeID, c.Query("from"), c.Query("to"), seats)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
