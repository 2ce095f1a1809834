package handler

import (
	"context"

	financeapp "github.com/erp/ledger/internal/application/finance"
	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TitlePoster turns orders into ledger titles and reads them back
type TitlePoster interface {
	PostOrderToLedger(ctx context.Context, tenantID uuid.UUID, direction finance.TitleDirection, orderID uuid.UUID) (*financeapp.PostOrderResult, error)
	GetTitle(ctx context.Context, tenantID, titleID uuid.UUID) (*financeapp.TitleView, error)
}

// Diagnoser verifies the posting chain of an order
type Diagnoser interface {
	Diagnose(ctx context.Context, tenantID uuid.UUID, direction finance.TitleDirection, orderID uuid.UUID) (*financeapp.Diagnosis, error)
}

// LedgerHandler serves posting, journal and diagnosis endpoints
type LedgerHandler struct {
	BaseHandler
	titles    TitlePoster
	journals  financeapp.JournalPoster
	diagnoser Diagnoser
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(titles TitlePoster, journals financeapp.JournalPoster, diagnoser Diagnoser, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{
		BaseHandler: BaseHandler{logger: logger},
		titles:      titles,
		journals:    journals,
		diagnoser:   diagnoser,
	}
}

// PostOrderResponse is returned when an order is posted
// @Description Title created, or found, for an order
type PostOrderResponse struct {
	TitleID        uuid.UUID `json:"title_id" example:"5f0c2a9e-4c1b-4a57-9a4e-2b1c7d3e8f90"`
	DocumentNumber string    `json:"document_number" example:"PV-1042"`
	AlreadyExists  bool      `json:"already_exists" example:"false"`
}

// PostJournalResponse is returned when a title is journaled
// @Description Journal entry created, or found, for a title
type PostJournalResponse struct {
	EntryID       uuid.UUID `json:"entry_id"`
	AlreadyExists bool      `json:"already_exists" example:"false"`
}

func (h *LedgerHandler) direction(c *gin.Context) (finance.TitleDirection, bool) {
	var q dto.DirectionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return "", false
	}
	d, err := finance.ParseTitleDirection(q.Direction)
	if err != nil {
		h.HandleError(c, err)
		return "", false
	}
	return d, true
}

// PostOrder godoc
// @Summary      Post an order to the ledger
// @Description  Creates the receivable or payable title of a sales or purchase order. Posting the same order twice returns the existing title with already_exists set.
// @Tags         ledger
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Order ID" format(uuid)
// @Param        direction query string true "Title direction" Enums(receivable, payable)
// @Success      201 {object} dto.Response{data=PostOrderResponse}
// @Success      200 {object} dto.Response{data=PostOrderResponse}
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /orders/{id}/post [post]
func (h *LedgerHandler) PostOrder(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c)
	if !ok {
		return
	}
	direction, ok := h.direction(c)
	if !ok {
		return
	}

	res, err := h.titles.PostOrderToLedger(c.Request.Context(), tenantID, direction, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	body := PostOrderResponse{TitleID: res.TitleID, DocumentNumber: res.DocumentNumber, AlreadyExists: !res.Created}
	if res.Created {
		h.Created(c, body)
		return
	}
	h.Success(c, body)
}

// PostJournal godoc
// @Summary      Journal a title
// @Description  Creates the double-entry accounting entry of a title from the tenant's accounting rules
// @Tags         ledger
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Title ID" format(uuid)
// @Success      201 {object} dto.Response{data=PostJournalResponse}
// @Success      200 {object} dto.Response{data=PostJournalResponse}
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /titles/{id}/journal [post]
func (h *LedgerHandler) PostJournal(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	titleID, ok := h.pathID(c)
	if !ok {
		return
	}

	res, err := h.journals.PostJournalForTitle(c.Request.Context(), tenantID, titleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	body := PostJournalResponse{EntryID: res.EntryID, AlreadyExists: !res.Created}
	if res.Created {
		h.Created(c, body)
		return
	}
	h.Success(c, body)
}

// GetTitle godoc
// @Summary      Get a title
// @Description  Returns a title with its lines and applied settlements
// @Tags         ledger
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Title ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.TitleView}
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /titles/{id} [get]
func (h *LedgerHandler) GetTitle(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	titleID, ok := h.pathID(c)
	if !ok {
		return
	}

	view, err := h.titles.GetTitle(c.Request.Context(), tenantID, titleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Diagnose godoc
// @Summary      Diagnose an order posting
// @Description  Read-only check of the order, title and journal chain. Missing stages are reported, not failed.
// @Tags         ledger
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Order ID" format(uuid)
// @Param        direction query string true "Title direction" Enums(receivable, payable)
// @Success      200 {object} dto.Response{data=financeapp.Diagnosis}
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /orders/{id}/diagnosis [get]
func (h *LedgerHandler) Diagnose(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c)
	if !ok {
		return
	}
	direction, ok := h.direction(c)
	if !ok {
		return
	}

	d, err := h.diagnoser.Diagnose(c.Request.Context(), tenantID, direction, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, d)
}
