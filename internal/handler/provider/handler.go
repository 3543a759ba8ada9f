package provider

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/serviceloop/marketplace-api/internal/middleware"
	"github.com/serviceloop/marketplace-api/internal/model"
	"github.com/serviceloop/marketplace-api/internal/service/provider"
	"github.com/serviceloop/marketplace-api/internal/service/review"
	"github.com/serviceloop/marketplace-api/pkg/httputil"
)

type Handler struct {
	service *provider.Service
	reviews *review.Service
}

func NewHandler(service *provider.Service, reviews *review.Service) *Handler {
	return &Handler{service: service, reviews: reviews}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	providers := rg.Group("/providers")
	{
		providers.GET("", h.ListProviders)
		providers.GET("/:id", h.GetProvider)
		providers.PATCH("/:id", h.UpdateProvider)
		providers.GET("/:id/reviews", h.ListReviews)
	}
}

func (h *Handler) ListProviders(c *gin.Context) {
	filters := &model.ProviderFilters{
		Status: c.Query("status"),
	}

	if id := c.Query("service_id"); id != "" {
		serviceID, err := uuid.Parse(id)
		if err != nil {
			httputil.RespondValidationErrors(c, map[string][]string{"service_id": {"must be a valid UUID"}})
			return
		}
		filters.ServiceID = serviceID
	}

	if raw := c.Query("min_rating"); raw != "" {
		minRating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			httputil.RespondValidationErrors(c, map[string][]string{"min_rating": {"must be a number"}})
			return
		}
		filters.MinRating = minRating
	}

	providers, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, "providers retrieved", providers)
}

func (h *Handler) GetProvider(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondValidationErrors(c, map[string][]string{"id": {"must be a valid UUID"}})
		return
	}

	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, "provider retrieved", p)
}

func (h *Handler) UpdateProvider(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondValidationErrors(c, map[string][]string{"id": {"must be a valid UUID"}})
		return
	}

	var req model.UpdateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondValidationErrors(c, httputil.BindingErrors(err))
		return
	}

	p, err := h.service.Update(c.Request.Context(), middleware.ActorFromContext(c), id, &req)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, "provider updated", p)
}

func (h *Handler) ListReviews(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondValidationErrors(c, map[string][]string{"id": {"must be a valid UUID"}})
		return
	}

	reviews, err := h.reviews.ListForProvider(c.Request.Context(), id)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, "reviews retrieved", reviews)
}
