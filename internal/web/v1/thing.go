package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tdnguyen/auth-service/internal/core/domain"
	"github.com/tdnguyen/auth-service/internal/logger"
	logicv1 "github.com/tdnguyen/auth-service/internal/logic/v1"
)

// ThingHandler groups the HTTP handlers for the thing resource.
type ThingHandler struct {
	things *logicv1.ThingService
}

// NewThingHandler creates a new ThingHandler.
func NewThingHandler(things *logicv1.ThingService) *ThingHandler {
	return &ThingHandler{things: things}
}

// RegisterRoutes registers the thing CRUD routes behind the token gate.
func (h *ThingHandler) RegisterRoutes(rg *gin.RouterGroup, tokenGuard gin.HandlerFunc) {
	things := rg.Group("/things", tokenGuard)
	things.POST("", h.Create)
	things.GET("", h.GetAll)
	things.GET("/:id", h.GetOne)
	things.PATCH("/:id", h.Update)
	things.DELETE("/:id", h.Delete)
}

// Create handles POST /api/things.
func (h *ThingHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req domain.ThingCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	thing, err := h.things.Create(ctx, req)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("Create thing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, domain.NewThingView(thing))
}

// GetAll handles GET /api/things.
func (h *ThingHandler) GetAll(c *gin.Context) {
	ctx := c.Request.Context()

	things, err := h.things.FindAll(ctx)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("List things failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	views := make([]domain.ThingView, 0, len(things))
	for i := range things {
		views = append(views, domain.NewThingView(&things[i]))
	}
	c.JSON(http.StatusOK, views)
}

// GetOne handles GET /api/things/:id.
func (h *ThingHandler) GetOne(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Thing does not exist."})
		return
	}

	thing, err := h.things.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, logicv1.ErrThingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Thing does not exist."})
			return
		}
		logger.FromContext(ctx).Error().Err(err).Msg("Get thing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, domain.NewThingView(thing))
}

// Update handles PATCH /api/things/:id.
func (h *ThingHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Thing does not exist."})
		return
	}

	var req domain.ThingUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.things.Update(ctx, id, req); err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("Update thing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.Status(http.StatusOK)
}

// Delete handles DELETE /api/things/:id.
func (h *ThingHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Thing does not exist."})
		return
	}

	if err := h.things.Delete(ctx, id); err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("Delete thing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}
