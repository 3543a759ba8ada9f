package booking

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/serviceloop/marketplace-api/internal/middleware"
	"github.com/serviceloop/marketplace-api/internal/model"
	"github.com/serviceloop/marketplace-api/internal/service/booking"
	"github.com/serviceloop/marketplace-api/internal/service/review"
	"github.com/serviceloop/marketplace-api/pkg/httputil"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type Handler struct {
	service *booking.Service
	reviews *review.Service
}

func NewHandler(service *booking.Service, reviews *review.Service) *Handler {
	return &Handler{service: service, reviews: reviews}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	bookings := rg.Group("/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id", h.UpdateBooking)
		bookings.DELETE("/:id", h.DeleteBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
		bookings.POST("/:id/complete", h.CompleteBooking)
		bookings.POST("/:id/rate", h.RateBooking)
	}
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req model.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondValidationErrors(c, httputil.BindingErrors(err))
		return
	}

	b, err := h.service.Create(
		c.Request.Context(),
		middleware.ActorFromContext(c),
		&req,
		c.GetHeader(HeaderIdempotencyKey),
	)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondCreated(c, "booking created", b)
}

func (h *Handler) ListBookings(c *gin.Context) {
	filters := &model.BookingFilters{
		Status: model.BookingStatus(c.Query("status")),
	}

	if id := c.Query("provider_id"); id != "" {
		providerID, err := uuid.Parse(id)
		if err != nil {
			httputil.RespondValidationErrors(c, map[string][]string{"provider_id": {"must be a valid UUID"}})
			return
		}
		filters.ProviderID = providerID
	}

	if id := c.Query("service_id"); id != "" {
		serviceID, err := uuid.Parse(id)
		if err != nil {
			httputil.RespondValidationErrors(c, map[string][]string{"service_id": {"must be a valid UUID"}})
			return
		}
		filters.ServiceID = serviceID
	}

	if raw := c.Query("start_date"); raw != "" {
		start, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httputil.RespondValidationErrors(c, map[string][]string{"start_date": {"must be formatted YYYY-MM-DD"}})
			return
		}
		filters.StartDate = start
	}

	if raw := c.Query("end_date"); raw != "" {
		end, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httputil.RespondValidationErrors(c, map[string][]string{"end_date": {"must be formatted YYYY-MM-DD"}})
			return
		}
		filters.EndDate = end
	}

	bookings, err := h.service.List(c.Request.Context(), middleware.ActorFromContext(c), filters)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, "bookings retrieved", bookings)
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondValidationErrors(c, map[string][]string{"id": {"must be a valid UUID"}})
		return
	}

	b, err := h.service.Get(c.Request.Context(), middleware.ActorFromContext(c), id)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, "booking retrieved", b)
}

func (h *Handler) UpdateBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondValidationErrors(c, map[string][]string{"id": {"must be a valid UUID"}})
		return
	}

	var req model.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondValidationErrors(c, httputil.BindingErrors(err))
		return
	}

	b, err := h.service.Update(c.Request.Context(), middleware.ActorFromContext(c), id, &req)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, "booking updated", b)
}

func (h *Handler) DeleteBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondValidationErrors(c, map[string][]string{"id": {"must be a valid UUID"}})
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.ActorFromContext(c), id); err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, "booking deleted", nil)
}

func (h *Handler) CancelBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondValidationErrors(c, map[string][]string{"id": {"must be a valid UUID"}})
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), middleware.ActorFromContext(c), id)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, "booking cancelled", b)
}

func (h *Handler) CompleteBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondValidationErrors(c, map[string][]string{"id": {"must be a valid UUID"}})
		return
	}

	b, err := h.service.Complete(c.Request.Context(), middleware.ActorFromContext(c), id)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, "booking completed", b)
}

func (h *Handler) RateBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondValidationErrors(c, map[string][]string{"id": {"must be a valid UUID"}})
		return
	}

	var req model.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondValidationErrors(c, httputil.BindingErrors(err))
		return
	}

	r, err := h.reviews.Submit(c.Request.Context(), middleware.ActorFromContext(c), id, &req)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondCreated(c, "review submitted", r)
}
