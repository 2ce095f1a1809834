package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	financeapp "github.com/erp/ledger/internal/application/finance"
	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	dateLayout = "2006-01-02"

	// DefaultMaxAttachmentBytes caps a proof of payment upload
	DefaultMaxAttachmentBytes = 5 << 20
)

// Settler records payments against titles and free settlement headers
type Settler interface {
	SettleTitle(ctx context.Context, in financeapp.SettleTitleInput) (*financeapp.SettlementResult, error)
	CreateFreeSettlementHeader(ctx context.Context, in financeapp.FreeSettlementInput) (*financeapp.FreeSettlementResult, error)
}

// SettlementHandler serves the settlement endpoints
type SettlementHandler struct {
	BaseHandler
	settler            Settler
	maxAttachmentBytes int64
}

// NewSettlementHandler creates a new SettlementHandler. A non-positive
// maxAttachmentBytes selects DefaultMaxAttachmentBytes.
func NewSettlementHandler(settler Settler, maxAttachmentBytes int64, logger *zap.Logger) *SettlementHandler {
	if maxAttachmentBytes <= 0 {
		maxAttachmentBytes = DefaultMaxAttachmentBytes
	}
	return &SettlementHandler{
		BaseHandler:        BaseHandler{logger: logger},
		settler:            settler,
		maxAttachmentBytes: maxAttachmentBytes,
	}
}

// CreateSettlementRequest is the body of POST /settlements, as JSON or as a
// multipart form carrying an "attachment" file
// @Description Payment against one title; amount defaults to the pending balance
type CreateSettlementRequest struct {
	TitleID            string      `json:"title_id" form:"title_id" binding:"required,uuid" example:"5f0c2a9e-4c1b-4a57-9a4e-2b1c7d3e8f90"`
	FinancialAccountID string      `json:"financial_account_id" form:"financial_account_id" binding:"omitempty,uuid"`
	PaymentMethodID    string      `json:"payment_method_id" form:"payment_method_id" binding:"omitempty,uuid"`
	Description        string      `json:"description" form:"description" binding:"max=255" example:"PIX recebido"`
	Amount             json.Number `json:"amount" form:"amount" swaggertype:"string" example:"150.00"`
	SettlementDate     string      `json:"settlement_date" form:"settlement_date" binding:"omitempty,datetime=2006-01-02" example:"2026-03-05"`
}

// SettlementData is the recorded settlement
// @Description Denormalized settlement
type SettlementData struct {
	ID                   uuid.UUID           `json:"id"`
	TitleID              uuid.UUID           `json:"title_id"`
	PaymentNumber        string              `json:"payment_number" example:"PR-20260305-8F3A1C"`
	PaidValue            decimal.Decimal     `json:"paid_value" swaggertype:"string" example:"150"`
	TotalValue           decimal.Decimal     `json:"total_value" swaggertype:"string" example:"400"`
	BalanceAfter         decimal.Decimal     `json:"balance_after" swaggertype:"string" example:"250"`
	SettlementDate       string              `json:"settlement_date" example:"2026-03-05"`
	PaymentMethodName    string              `json:"payment_method_name" example:"PIX"`
	FinancialAccountName string              `json:"financial_account_name" example:"Banco do Brasil"`
	CounterpartyName     string              `json:"counterparty_name" example:"Mercado Central"`
	StatusBefore         finance.TitleStatus `json:"status_before" swaggertype:"string" example:"pendente"`
	StatusAfter          finance.TitleStatus `json:"status_after" swaggertype:"string" example:"parcial"`
	AttachmentKey        *string             `json:"attachment_key,omitempty"`
}

// SettlementResponse is the body of a successful POST /settlements
// @Description Settlement with its human readable summary
type SettlementResponse struct {
	Success bool                         `json:"success" example:"true"`
	Data    SettlementData               `json:"data"`
	Message string                       `json:"message"`
	Summary financeapp.SettlementSummary `json:"summary"`
}

// FreeSettlementRequest is the body of POST /settlements/free, as JSON or form
// @Description Settlement header with no title
type FreeSettlementRequest struct {
	Direction          string      `json:"direction" form:"direction" binding:"required,oneof=receivable payable RECEIVABLE PAYABLE" example:"receivable"`
	Description        string      `json:"description" form:"description" binding:"required,max=255" example:"Aporte de caixa"`
	Amount             json.Number `json:"amount" form:"amount" binding:"required" swaggertype:"string" example:"1000.00"`
	LaunchDate         string      `json:"launch_date" form:"launch_date" binding:"required,datetime=2006-01-02" example:"2026-03-05"`
	FinancialAccountID string      `json:"financial_account_id" form:"financial_account_id" binding:"omitempty,uuid"`
	PaymentMethodID    string      `json:"payment_method_id" form:"payment_method_id" binding:"omitempty,uuid"`
	Status             string      `json:"status" form:"status" binding:"omitempty,oneof=pendente parcial recebido pago" example:"recebido"`
}

// FreeSettlementResponse is the body of a successful POST /settlements/free
// @Description Identifier of the created header
type FreeSettlementResponse struct {
	Success       bool      `json:"success" example:"true"`
	ID            uuid.UUID `json:"id"`
	PaymentNumber string    `json:"payment_number" example:"PR-20260305-8F3A1C"`
}

// CreateSettlement godoc
// @Summary      Settle a title
// @Description  Records a payment against a title under a row lock. The amount defaults to the pending balance and may not exceed it. A proof of payment can be sent as the multipart field "attachment".
// @Tags         settlements
// @Accept       json,mpfd
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        request body CreateSettlementRequest true "Settlement"
// @Success      201 {object} SettlementResponse
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /settlements [post]
func (h *SettlementHandler) CreateSettlement(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req CreateSettlementRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	in := financeapp.SettleTitleInput{
		TenantID:           tenantID,
		TitleID:            uuid.MustParse(req.TitleID),
		FinancialAccountID: optionalUUID(req.FinancialAccountID),
		PaymentMethodID:    optionalUUID(req.PaymentMethodID),
		Description:        strings.TrimSpace(req.Description),
	}
	if req.Amount != "" {
		amount, err := parseAmount(req.Amount)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		in.Amount = &amount
	}
	if req.SettlementDate != "" {
		date, _ := time.Parse(dateLayout, req.SettlementDate)
		in.SettlementDate = &date
	}

	attachment, err := h.readAttachment(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	in.Attachment = attachment

	res, err := h.settler.SettleTitle(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SettlementResponse{
		Success: true,
		Data:    toSettlementData(res),
		Message: fmt.Sprintf("settlement %s recorded for %s, title is now %s", res.PaymentNumber, res.Summary.DocumentNumber, res.StatusAfter),
		Summary: res.Summary,
	})
}

// CreateFreeSettlementHeader godoc
// @Summary      Record a free settlement
// @Description  Creates a settlement header that is not applied to any title
// @Tags         settlements
// @Accept       json,x-www-form-urlencoded,mpfd
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        request body FreeSettlementRequest true "Free settlement"
// @Success      201 {object} FreeSettlementResponse
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /settlements/free [post]
func (h *SettlementHandler) CreateFreeSettlementHeader(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req FreeSettlementRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	direction, err := finance.ParseTitleDirection(req.Direction)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	launch, _ := time.Parse(dateLayout, req.LaunchDate)

	res, err := h.settler.CreateFreeSettlementHeader(c.Request.Context(), financeapp.FreeSettlementInput{
		TenantID:           tenantID,
		Direction:          direction,
		Description:        req.Description,
		Amount:             amount,
		LaunchDate:         launch,
		FinancialAccountID: optionalUUID(req.FinancialAccountID),
		PaymentMethodID:    optionalUUID(req.PaymentMethodID),
		Status:             finance.TitleStatus(req.Status),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, FreeSettlementResponse{Success: true, ID: res.ID, PaymentNumber: res.PaymentNumber})
}

// readAttachment returns the multipart "attachment" file, or nil when the
// request carries none
func (h *SettlementHandler) readAttachment(c *gin.Context) (*financeapp.Attachment, error) {
	if !strings.HasPrefix(c.ContentType(), gin.MIMEMultipartPOSTForm) {
		return nil, nil
	}
	fh, err := c.FormFile("attachment")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, shared.NewValidationError("attachment: %v", err)
	}
	if fh.Size > h.maxAttachmentBytes {
		return nil, shared.NewValidationError("attachment exceeds %d bytes", h.maxAttachmentBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, shared.NewInfrastructureError("attachment.open", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxAttachmentBytes+1))
	if err != nil {
		return nil, shared.NewInfrastructureError("attachment.read", err)
	}
	if int64(len(data)) > h.maxAttachmentBytes {
		return nil, shared.NewValidationError("attachment exceeds %d bytes", h.maxAttachmentBytes)
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return &financeapp.Attachment{FileName: fh.Filename, ContentType: contentType, Data: data}, nil
}

func parseAmount(n json.Number) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(n.String()))
	if err != nil {
		return decimal.Zero, shared.NewValidationError("amount %q is not a decimal number", n.String())
	}
	return d, nil
}

func optionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id := uuid.MustParse(s)
	return &id
}

func toSettlementData(r *financeapp.SettlementResult) SettlementData {
	return SettlementData{
		ID:                   r.ID,
		TitleID:              r.TitleID,
		PaymentNumber:        r.PaymentNumber,
		PaidValue:            r.PaidValue,
		TotalValue:           r.TotalValue,
		BalanceAfter:         r.BalanceAfter,
		SettlementDate:       r.SettlementDate.Format(dateLayout),
		PaymentMethodName:    r.PaymentMethodName,
		FinancialAccountName: r.FinancialAccountName,
		CounterpartyName:     r.CounterpartyName,
		StatusBefore:         r.StatusBefore,
		StatusAfter:          r.StatusAfter,
		AttachmentKey:        r.AttachmentKey,
	}
}
