// Package transactiondelivery manages delivery layer of draft transactions.
package transactiondelivery

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/receipt-ledger/internal/domain"
	"github.com/go-petr/receipt-ledger/internal/ledgerdelivery"
	"github.com/go-petr/receipt-ledger/internal/middleware"
	"github.com/go-petr/receipt-ledger/pkg/moneypkg"
	"github.com/go-petr/receipt-ledger/pkg/web"
	"github.com/rs/zerolog"
)

// Service provides service layer interface needed by transaction delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package transactiondelivery
type Service interface {
	CreateDraft(ctx context.Context, arg domain.CreateDraftParams) (domain.DraftTransaction, error)
	CreateSplit(ctx context.Context, arg domain.CreateSplitParams) ([]domain.DraftTransaction, error)
	Get(ctx context.Context, clientID, id string) (domain.DraftTransaction, error)
	List(ctx context.Context, arg domain.ListTransactionsParams) ([]domain.DraftTransaction, error)
	Approve(ctx context.Context, clientID, id string) (domain.DraftTransaction, error)
	Void(ctx context.Context, clientID, id, reason, voidedBy string) (domain.DraftTransaction, error)
	DeleteDraft(ctx context.Context, clientID, id string) error
}

// Handler facilitates transaction delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns transaction handler.
func NewHandler(ts Service) Handler {
	return Handler{service: ts}
}

type data struct {
	Transaction domain.DraftTransaction `json:"transaction"`
}

type dataTransactions struct {
	Transactions []domain.DraftTransaction `json:"transactions"`
}

func respondError(gctx *gin.Context, err error) {
	status, res := ledgerdelivery.ErrorResponse(err)

	l := zerolog.Ctx(gctx.Request.Context())
	if status >= http.StatusInternalServerError {
		l.Error().Err(err).Send()
	} else {
		l.Info().Err(err).Send()
	}

	gctx.JSON(status, res)
}

type createRequest struct {
	ReceiptID     string    `json:"receipt_id"`
	DebitAccount  string    `json:"debit_account" binding:"required,accountpath"`
	CreditAccount string    `json:"credit_account" binding:"required,accountpath,nefield=DebitAccount"`
	Amount        int64     `json:"amount" binding:"required,min=1"`
	Description   string    `json:"description"`
	Date          time.Time `json:"date"`
}

// Create handles http request to create a draft transaction.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		ledgerdelivery.BindError(gctx, err)
		return
	}

	arg := domain.CreateDraftParams{
		ClientID:      middleware.Payload(gctx).ClientID,
		ReceiptID:     req.ReceiptID,
		DebitAccount:  req.DebitAccount,
		CreditAccount: req.CreditAccount,
		Amount:        moneypkg.Amount(req.Amount),
		Description:   req.Description,
		Date:          req.Date,
	}

	d, err := h.service.CreateDraft(ctx, arg)
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: data{d}})
}

type splitLineRequest struct {
	DebitAccount string `json:"debit_account" binding:"required,accountpath"`
	Description  string `json:"description"`
}

type splitRequest struct {
	ReceiptID     string             `json:"receipt_id"`
	CreditAccount string             `json:"credit_account" binding:"required,accountpath"`
	Total         int64              `json:"total" binding:"required,min=1"`
	Date          time.Time          `json:"date"`
	Lines         []splitLineRequest `json:"lines" binding:"required,min=1,max=1000,dive"`
}

// CreateSplit handles http request to split a receipt total into drafts.
func (h *Handler) CreateSplit(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req splitRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		ledgerdelivery.BindError(gctx, err)
		return
	}

	arg := domain.CreateSplitParams{
		ClientID:      middleware.Payload(gctx).ClientID,
		ReceiptID:     req.ReceiptID,
		CreditAccount: req.CreditAccount,
		Total:         moneypkg.Amount(req.Total),
		Date:          req.Date,
		Lines:         make([]domain.SplitLine, len(req.Lines)),
	}

	for i, line := range req.Lines {
		arg.Lines[i] = domain.SplitLine{DebitAccount: line.DebitAccount, Description: line.Description}
	}

	drafts, err := h.service.CreateSplit(ctx, arg)
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: dataTransactions{drafts}})
}

type listRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=draft posted voided"`
	PageID   int32  `form:"page_id" binding:"required,min=1"`
	PageSize int32  `form:"page_size" binding:"required,min=1,max=100"`
}

// List handles http request to list draft transactions.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		ledgerdelivery.BindError(gctx, err)
		return
	}

	arg := domain.ListTransactionsParams{
		ClientID: middleware.Payload(gctx).ClientID,
		Status:   domain.TransactionStatus(req.Status),
		Limit:    req.PageSize,
		Offset:   (req.PageID - 1) * req.PageSize,
	}

	drafts, err := h.service.List(ctx, arg)
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: dataTransactions{drafts}})
}

type idRequest struct {
	ID string `uri:"id" binding:"required"`
}

// Get handles http request to get a draft transaction.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req idRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		ledgerdelivery.BindError(gctx, err)
		return
	}

	d, err := h.service.Get(ctx, middleware.Payload(gctx).ClientID, req.ID)
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: data{d}})
}

// Approve handles http request to post a draft to the ledger.
func (h *Handler) Approve(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req idRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		ledgerdelivery.BindError(gctx, err)
		return
	}

	d, err := h.service.Approve(ctx, middleware.Payload(gctx).ClientID, req.ID)
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: data{d}})
}

type voidRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// Void handles http request to void a posted transaction. The caller is
// recorded as the voider.
func (h *Handler) Void(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri idRequest
	if err := gctx.ShouldBindUri(&uri); err != nil {
		ledgerdelivery.BindError(gctx, err)
		return
	}

	var req voidRequest
	if gctx.Request.ContentLength != 0 {
		if err := gctx.ShouldBindJSON(&req); err != nil {
			ledgerdelivery.BindError(gctx, err)
			return
		}
	}

	payload := middleware.Payload(gctx)

	d, err := h.service.Void(ctx, payload.ClientID, uri.ID, req.Reason, payload.Username)
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: data{d}})
}

// Delete handles http request to delete a draft.
func (h *Handler) Delete(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req idRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		ledgerdelivery.BindError(gctx, err)
		return
	}

	if err := h.service.DeleteDraft(ctx, middleware.Payload(gctx).ClientID, req.ID); err != nil {
		respondError(gctx, err)
		return
	}

	gctx.Status(http.StatusNoContent)
}
