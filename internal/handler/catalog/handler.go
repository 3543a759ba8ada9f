package catalog

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/serviceloop/marketplace-api/internal/middleware"
	"github.com/serviceloop/marketplace-api/internal/model"
	"github.com/serviceloop/marketplace-api/internal/service/availability"
	"github.com/serviceloop/marketplace-api/internal/service/catalog"
	"github.com/serviceloop/marketplace-api/pkg/httputil"
)

type Handler struct {
	service  *catalog.Service
	resolver *availability.Service
}

func NewHandler(service *catalog.Service, resolver *availability.Service) *Handler {
	return &Handler{service: service, resolver: resolver}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	services := rg.Group("/services")
	{
		services.GET("", h.ListServices)
		services.GET("/:id", h.GetService)
		services.GET("/:id/availability", h.GetAvailability)
		services.POST("/:id/calculate-price", h.CalculatePrice)
		services.POST("", h.CreateService)
		services.PATCH("/:id", h.UpdateService)
		services.DELETE("/:id", h.DeleteService)
	}
}

func (h *Handler) ListServices(c *gin.Context) {
	services, err := h.service.List(c.Request.Context())
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, "services retrieved", services)
}

func (h *Handler) GetService(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondValidationErrors(c, map[string][]string{"id": {"must be a valid UUID"}})
		return
	}

	svc, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, "service retrieved", svc)
}

// GetAvailability resolves the open time windows for a provider of this
// service on a given date.
func (h *Handler) GetAvailability(c *gin.Context) {
	if _, err := uuid.Parse(c.Param("id")); err != nil {
		httputil.RespondValidationErrors(c, map[string][]string{"id": {"must be a valid UUID"}})
		return
	}

	providerID, err := uuid.Parse(c.Query("provider_id"))
	if err != nil {
		httputil.RespondValidationErrors(c, map[string][]string{"provider_id": {"must be a valid UUID"}})
		return
	}

	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		httputil.RespondValidationErrors(c, map[string][]string{"date": {"must be formatted YYYY-MM-DD"}})
		return
	}

	avail, err := h.resolver.Resolve(c.Request.Context(), providerID, date)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, "availability resolved", avail)
}

// CalculatePrice returns a standalone quote without creating a booking.
func (h *Handler) CalculatePrice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondValidationErrors(c, map[string][]string{"id": {"must be a valid UUID"}})
		return
	}

	var req model.CalculatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondValidationErrors(c, httputil.BindingErrors(err))
		return
	}

	breakdown, err := h.service.Quote(c.Request.Context(), id, req.StartTime, req.EndTime)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, "price calculated", breakdown)
}

func (h *Handler) CreateService(c *gin.Context) {
	var req model.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondValidationErrors(c, httputil.BindingErrors(err))
		return
	}

	svc, err := h.service.Create(c.Request.Context(), middleware.ActorFromContext(c), &req)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondCreated(c, "service created", svc)
}

func (h *Handler) UpdateService(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondValidationErrors(c, map[string][]string{"id": {"must be a valid UUID"}})
		return
	}

	var req model.UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondValidationErrors(c, httputil.BindingErrors(err))
		return
	}

	svc, err := h.service.Update(c.Request.Context(), middleware.ActorFromContext(c), id, &req)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, "service updated", svc)
}

func (h *Handler) DeleteService(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondValidationErrors(c, map[string][]string{"id": {"must be a valid UUID"}})
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.ActorFromContext(c), id); err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, "service deleted", nil)
}
