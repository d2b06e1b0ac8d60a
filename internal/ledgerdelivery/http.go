// Package ledgerdelivery manages delivery layer of the ledger engine.
package ledgerdelivery

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/receipt-ledger/internal/domain"
	"github.com/go-petr/receipt-ledger/internal/middleware"
	"github.com/go-petr/receipt-ledger/pkg/moneypkg"
	"github.com/go-petr/receipt-ledger/pkg/web"
)

// IdempotencyKeyHeader carries the client supplied correlation id of a write.
const IdempotencyKeyHeader = "Idempotency-Key"

// clientKeyPrefix keeps client keys apart from the correlation ids the
// lifecycle service uses for its own ledger writes.
const clientKeyPrefix = "client:"

func correlationID(key string) string {
	if key == "" {
		return ""
	}

	return clientKeyPrefix + key
}

// Service provides service layer interface needed by ledger delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package ledgerdelivery
type Service interface {
	Record(ctx context.Context, entry domain.LedgerEntryRequest, correlationID string) (domain.LedgerTransaction, error)
	Get(ctx context.Context, journalID, clientID string) (domain.LedgerTransaction, error)
	GetByCorrelation(ctx context.Context, clientID, correlationID string) (domain.LedgerTransaction, error)
	Reverse(ctx context.Context, journalID, clientID, correlationID string) (domain.LedgerTransaction, error)
	Balance(ctx context.Context, account, clientID string) (int64, error)
	TrialBalance(ctx context.Context, clientID string, dateRange domain.DateRange) (domain.TrialBalance, error)
}

// Handler facilitates ledger delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns ledger handler.
func NewHandler(ls Service) Handler {
	return Handler{service: ls}
}

type transactionData struct {
	Transaction domain.LedgerTransaction `json:"transaction"`
}

type recordRequest struct {
	Memo     string            `json:"memo"`
	Date     time.Time         `json:"date"`
	Postings map[string]int64  `json:"postings" binding:"required,dive,keys,accountpath,endkeys,ne=0"`
	Metadata map[string]string `json:"metadata"`
}

// Record handles http request to record a ledger entry.
func (h *Handler) Record(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req recordRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		BindError(gctx, err)
		return
	}

	if key, ok := domain.ReservedMetadataKey(req.Metadata); ok {
		respondError(gctx, domain.NewValidationError(domain.ErrReservedMetadata.Message+" "+key, nil))
		return
	}

	entry := domain.LedgerEntryRequest{
		ClientID: middleware.Payload(gctx).ClientID,
		Memo:     req.Memo,
		Date:     req.Date,
		Postings: req.Postings,
		Metadata: req.Metadata,
	}

	t, err := h.service.Record(ctx, entry, correlationID(gctx.GetHeader(IdempotencyKeyHeader)))
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: transactionData{t}})
}

type getRequest struct {
	ID string `uri:"id" binding:"required"`
}

// Get handles http request to get a ledger transaction.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req getRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		BindError(gctx, err)
		return
	}

	t, err := h.service.Get(ctx, req.ID, middleware.Payload(gctx).ClientID)
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: transactionData{t}})
}

type getByKeyRequest struct {
	Key string `form:"idempotency_key" binding:"required,max=200"`
}

// GetByKey handles http request to look up a ledger transaction by the
// idempotency key it was recorded with.
func (h *Handler) GetByKey(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req getByKeyRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		BindError(gctx, err)
		return
	}

	t, err := h.service.GetByCorrelation(ctx, middleware.Payload(gctx).ClientID, correlationID(req.Key))
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: transactionData{t}})
}

// Reverse handles http request to reverse a ledger transaction.
func (h *Handler) Reverse(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req getRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		BindError(gctx, err)
		return
	}

	t, err := h.service.Reverse(ctx, req.ID, middleware.Payload(gctx).ClientID, correlationID(gctx.GetHeader(IdempotencyKeyHeader)))
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: transactionData{t}})
}

type balanceRequest struct {
	Account string `form:"account" binding:"required,accountpath"`
}

type balanceData struct {
	Account string `json:"account"`
	Balance int64  `json:"balance"`
	Display string `json:"display"`
}

// Balance handles http request to get an account balance.
func (h *Handler) Balance(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req balanceRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		BindError(gctx, err)
		return
	}

	balance, err := h.service.Balance(ctx, req.Account, middleware.Payload(gctx).ClientID)
	if err != nil {
		respondError(gctx, err)
		return
	}

	data := balanceData{
		Account: req.Account,
		Balance: balance,
		Display: moneypkg.Display(balance),
	}

	gctx.JSON(http.StatusOK, web.Response{Data: data})
}

type trialBalanceRequest struct {
	From time.Time `form:"from" time_format:"2006-01-02" time_utc:"1"`
	To   time.Time `form:"to" time_format:"2006-01-02" time_utc:"1"`
}

type trialBalanceData struct {
	TrialBalance domain.TrialBalance `json:"trial_balance"`
}

// TrialBalance handles http request to get the trial balance of a date range.
// Both bounds are calendar days and inclusive.
func (h *Handler) TrialBalance(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req trialBalanceRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		BindError(gctx, err)
		return
	}

	dateRange := domain.DateRange{From: req.From, To: req.To}
	if !dateRange.To.IsZero() {
		dateRange.To = dateRange.To.Add(24*time.Hour - time.Nanosecond)
	}

	tb, err := h.service.TrialBalance(ctx, middleware.Payload(gctx).ClientID, dateRange)
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: trialBalanceData{tb}})
}

type allocateRequest struct {
	Total int64 `json:"total" binding:"min=0"`
	Parts int   `json:"parts" binding:"required,min=1,max=1000"`
}

type allocateData struct {
	Shares []moneypkg.Amount `json:"shares"`
}

// Allocate handles http request to split a total into parts with the plug method.
func (h *Handler) Allocate(gctx *gin.Context) {
	var req allocateRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		BindError(gctx, err)
		return
	}

	shares, err := moneypkg.PlugSplit(moneypkg.Amount(req.Total), req.Parts)
	if err != nil {
		respondError(gctx, domain.NewValidationError(err.Error(), err))
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: allocateData{shares}})
}
