package listing

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/serviceloop/marketplace-api/internal/middleware"
	"github.com/serviceloop/marketplace-api/internal/model"
	"github.com/serviceloop/marketplace-api/internal/service/listing"
	"github.com/serviceloop/marketplace-api/pkg/httputil"
)

type Handler struct {
	service *listing.Service
}

func NewHandler(service *listing.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	listings := rg.Group("/listings")
	{
		listings.POST("", h.CreateListing)
		listings.GET("", h.ListListings)
		listings.GET("/:id", h.GetListing)
		listings.PATCH("/:id", h.UpdateListing)
		listings.DELETE("/:id", h.DeleteListing)
		listings.POST("/:id/approve", h.ApproveListing)
		listings.POST("/:id/reject", h.RejectListing)
	}
}

func (h *Handler) CreateListing(c *gin.Context) {
	var req model.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondValidationErrors(c, httputil.BindingErrors(err))
		return
	}

	l, err := h.service.Create(c.Request.Context(), middleware.ActorFromContext(c), &req)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondCreated(c, "listing created", l)
}

func (h *Handler) ListListings(c *gin.Context) {
	var providerID uuid.UUID
	if id := c.Query("provider_id"); id != "" {
		parsed, err := uuid.Parse(id)
		if err != nil {
			httputil.RespondValidationErrors(c, map[string][]string{"provider_id": {"must be a valid UUID"}})
			return
		}
		providerID = parsed
	}

	status := model.ListingStatus(c.Query("status"))

	listings, err := h.service.List(c.Request.Context(), middleware.ActorFromContext(c), providerID, status)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, "listings retrieved", listings)
}

func (h *Handler) GetListing(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondValidationErrors(c, map[string][]string{"id": {"must be a valid UUID"}})
		return
	}

	l, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, "listing retrieved", l)
}

func (h *Handler) UpdateListing(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondValidationErrors(c, map[string][]string{"id": {"must be a valid UUID"}})
		return
	}

	var req model.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondValidationErrors(c, httputil.BindingErrors(err))
		return
	}

	l, err := h.service.Update(c.Request.Context(), middleware.ActorFromContext(c), id, &req)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, "listing updated", l)
}

func (h *Handler) DeleteListing(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondValidationErrors(c, map[string][]string{"id": {"must be a valid UUID"}})
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.ActorFromContext(c), id); err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, "listing deleted", nil)
}

func (h *Handler) ApproveListing(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondValidationErrors(c, map[string][]string{"id": {"must be a valid UUID"}})
		return
	}

	l, err := h.service.Approve(c.Request.Context(), middleware.ActorFromContext(c), id)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, "listing approved", l)
}

func (h *Handler) RejectListing(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondValidationErrors(c, map[string][]string{"id": {"must be a valid UUID"}})
		return
	}

	var req model.RejectListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondValidationErrors(c, httputil.BindingErrors(err))
		return
	}

	l, err := h.service.Reject(c.Request.Context(), middleware.ActorFromContext(c), id, req.Reason)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, "listing rejected", l)
}
