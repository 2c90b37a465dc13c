package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/rentledger/internal/domain/models"
	"github.com/mamadbah2/rentledger/internal/repository"
	"github.com/mamadbah2/rentledger/internal/service/bookings"
)

// BookingService is the booking side of the bookings service.
type BookingService interface {
	ListBookings(ctx context.Context, f repository.Filter) ([]models.Booking, error)
	GetBooking(ctx context.Context, id string) (models.Booking, error)
	BookingTotal(ctx context.Context, id string) (bookings.Total, error)
	PreviewBooking(b models.Booking) ([]models.Booking, error)
	CreateBooking(ctx context.Context, b models.Booking) ([]models.Booking, error)
	UpdateBooking(ctx context.Context, id string, patch models.BookingPatch) (models.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	AddReceipt(ctx context.Context, bookingID string, r models.Receipt) (models.Receipt, error)
	RemoveReceipt(ctx context.Context, bookingID, receiptID string) error
	UploadReceipt(ctx context.Context, bookingID, filename string, image io.Reader, amount float64, note string) (models.Receipt, error)
}

// BookingHandler serves /api/bookings.
type BookingHandler struct {
	svc    BookingService
	loc    *time.Location
	logger *zap.Logger
}

func NewBookingHandler(svc BookingService, loc *time.Location, logger *zap.Logger) *BookingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &BookingHandler{svc: svc, loc: loc, logger: logger}
}

type receiptRequest struct {
	ImageURL string  `json:"imageUrl"`
	Amount   float64 `json:"amount"`
	Note     string  `json:"note"`
}

func (r receiptRequest) model() models.Receipt {
	return models.Receipt{ImageURL: r.ImageURL, Amount: r.Amount, Note: r.Note}
}

type bookingRequest struct {
	ApartmentID   string               `json:"apartmentId"`
	ClientName    string               `json:"clientName"`
	PhoneNumber   string               `json:"phoneNumber"`
	CheckIn       string               `json:"checkIn"`
	CheckOut      string               `json:"checkOut"`
	Amount        float64              `json:"amount"`
	BookingSource models.BookingSource `json:"bookingSource"`
	Status        models.BookingStatus `json:"status"`
	Receipts      []receiptRequest     `json:"receipts"`
}

func (r bookingRequest) model(loc *time.Location) (models.Booking, error) {
	in, err := parseDate("checkIn", r.CheckIn, loc)
	if err != nil {
		return models.Booking{}, err
	}
	out, err := parseDate("checkOut", r.CheckOut, loc)
	if err != nil {
		return models.Booking{}, err
	}
	b := models.Booking{
		ApartmentID:   r.ApartmentID,
		ClientName:    r.ClientName,
		PhoneNumber:   r.PhoneNumber,
		CheckIn:       in,
		CheckOut:      out,
		Amount:        r.Amount,
		BookingSource: r.BookingSource,
		Status:        r.Status,
	}
	for _, rc := range r.Receipts {
		b.Receipts = append(b.Receipts, rc.model())
	}
	return b, nil
}

type bookingPatchRequest struct {
	ApartmentID   *string               `json:"apartmentId"`
	ClientName    *string               `json:"clientName"`
	PhoneNumber   *string               `json:"phoneNumber"`
	CheckIn       *string               `json:"checkIn"`
	CheckOut      *string               `json:"checkOut"`
	Amount        *float64              `json:"amount"`
	BookingSource *models.BookingSource `json:"bookingSource"`
	Status        *models.BookingStatus `json:"status"`
}

func (r bookingPatchRequest) model(loc *time.Location) (models.BookingPatch, error) {
	in, err := parseOptionalDate("checkIn", r.CheckIn, loc)
	if err != nil {
		return models.BookingPatch{}, err
	}
	out, err := parseOptionalDate("checkOut", r.CheckOut, loc)
	if err != nil {
		return models.BookingPatch{}, err
	}
	return models.BookingPatch{
		ApartmentID:   r.ApartmentID,
		ClientName:    r.ClientName,
		PhoneNumber:   r.PhoneNumber,
		CheckIn:       in,
		CheckOut:      out,
		Amount:        r.Amount,
		BookingSource: r.BookingSource,
		Status:        r.Status,
	}, nil
}

func (h *BookingHandler) List(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	out, err := h.svc.ListBookings(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.svc.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) Total(c *gin.Context) {
	t, err := h.svc.BookingTotal(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Create stores a booking and returns the records it was split into. With
// ?preview=true nothing is stored.
func (h *BookingHandler) Create(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	b, err := req.model(h.loc)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	if preview, _ := strconv.ParseBool(c.Query("preview")); preview {
		records, err := h.svc.PreviewBooking(b)
		if err != nil {
			writeError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": records})
		return
	}

	records, err := h.svc.CreateBooking(c.Request.Context(), b)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"records": records})
}

func (h *BookingHandler) Update(c *gin.Context) {
	var req bookingPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	patch, err := req.model(h.loc)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	b, err := h.svc.UpdateBooking(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteBooking(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddReceipt attaches a receipt given either as JSON with an image URL or as a
// multipart upload with a "file" part.
func (h *BookingHandler) AddReceipt(c *gin.Context) {
	id := c.Param("id")

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		h.uploadReceipt(c, id)
		return
	}

	var req receiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	r, err := h.svc.AddReceipt(c.Request.Context(), id, req.model())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *BookingHandler) uploadReceipt(c *gin.Context, bookingID string) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, h.logger, err)
		return
	}
	amount := 0.0
	if v := c.PostForm("amount"); v != "" {
		amount, err = strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(c, h.logger, &models.ErrValidation{Field: "amount", Message: "must be a number"})
			return
		}
	}

	file, err := header.Open()
	if err != nil {
		badRequest(c, h.logger, err)
		return
	}
	defer file.Close()

	r, err := h.svc.UploadReceipt(c.Request.Context(), bookingID, header.Filename, file, amount, c.PostForm("note"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *BookingHandler) RemoveReceipt(c *gin.Context) {
	if err := h.svc.RemoveReceipt(c.Request.Context(), c.Param("id"), c.Param("receiptId")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
