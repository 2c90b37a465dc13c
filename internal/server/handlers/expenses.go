package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/rentledger/internal/domain/models"
	"github.com/mamadbah2/rentledger/internal/repository"
)

// ExpenseService is the expense side of the bookings service.
type ExpenseService interface {
	ListExpenses(ctx context.Context, f repository.Filter) ([]models.Expense, error)
	CreateExpense(ctx context.Context, e models.Expense) (models.Expense, error)
	UpdateExpense(ctx context.Context, id string, patch models.ExpensePatch) (models.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
}

// ExpenseHandler serves /api/expenses.
type ExpenseHandler struct {
	svc    ExpenseService
	loc    *time.Location
	logger *zap.Logger
}

func NewExpenseHandler(svc ExpenseService, loc *time.Location, logger *zap.Logger) *ExpenseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ExpenseHandler{svc: svc, loc: loc, logger: logger}
}

type expenseRequest struct {
	Description  string  `json:"description"`
	Amount       float64 `json:"amount"`
	Date         string  `json:"date"`
	ReceiptImage string  `json:"receiptImage"`
	ReceiptURL   string  `json:"receiptUrl"`
}

type expensePatchRequest struct {
	Description  *string  `json:"description"`
	Amount       *float64 `json:"amount"`
	Date         *string  `json:"date"`
	ReceiptImage *string  `json:"receiptImage"`
	ReceiptURL   *string  `json:"receiptUrl"`
}

func (h *ExpenseHandler) List(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	out, err := h.svc.ListExpenses(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ExpenseHandler) Create(c *gin.Context) {
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	date, err := parseDate("date", req.Date, h.loc)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	e, err := h.svc.CreateExpense(c.Request.Context(), models.Expense{
		Description:  req.Description,
		Amount:       req.Amount,
		Date:         date,
		ReceiptImage: req.ReceiptImage,
		ReceiptURL:   req.ReceiptURL,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *ExpenseHandler) Update(c *gin.Context) {
	var req expensePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	date, err := parseOptionalDate("date", req.Date, h.loc)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	e, err := h.svc.UpdateExpense(c.Request.Context(), c.Param("id"), models.ExpensePatch{
		Description:  req.Description,
		Amount:       req.Amount,
		Date:         date,
		ReceiptImage: req.ReceiptImage,
		ReceiptURL:   req.ReceiptURL,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *ExpenseHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteExpense(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
