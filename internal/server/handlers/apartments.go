package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/rentledger/internal/domain/models"
)

// ApartmentService is the apartment side of the bookings service.
type ApartmentService interface {
	ListApartments(ctx context.Context) ([]models.Apartment, error)
	GetApartment(ctx context.Context, id string) (models.Apartment, error)
	CreateApartment(ctx context.Context, a models.Apartment) (models.Apartment, error)
	UpdateApartment(ctx context.Context, id string, patch models.ApartmentPatch) (models.Apartment, error)
	DeleteApartment(ctx context.Context, id string) error
	Availability(ctx context.Context, apartmentID string, from, to time.Time) ([]models.Booking, error)
}

// ApartmentHandler serves /api/apartments.
type ApartmentHandler struct {
	svc    ApartmentService
	loc    *time.Location
	logger *zap.Logger
}

func NewApartmentHandler(svc ApartmentService, loc *time.Location, logger *zap.Logger) *ApartmentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ApartmentHandler{svc: svc, loc: loc, logger: logger}
}

func (h *ApartmentHandler) List(c *gin.Context) {
	out, err := h.svc.ListApartments(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ApartmentHandler) Get(c *gin.Context) {
	a, err := h.svc.GetApartment(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *ApartmentHandler) Create(c *gin.Context) {
	var req models.Apartment
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	req.ID = ""

	a, err := h.svc.CreateApartment(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *ApartmentHandler) Update(c *gin.Context) {
	var patch models.ApartmentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	a, err := h.svc.UpdateApartment(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *ApartmentHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteApartment(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Availability lists the bookings sharing a night with ?from=&to=. An empty
// list means the apartment is free.
func (h *ApartmentHandler) Availability(c *gin.Context) {
	from, err := parseDate("from", c.Query("from"), h.loc)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	to, err := parseDate("to", c.Query("to"), h.loc)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	conflicts, err := h.svc.Availability(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": len(conflicts) == 0, "conflicts": conflicts})
}
