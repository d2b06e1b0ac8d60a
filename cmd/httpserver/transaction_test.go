//go:build integration

package httpserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-petr/receipt-ledger/internal/domain"
	"github.com/go-petr/receipt-ledger/internal/integrationtest"
	"github.com/go-petr/receipt-ledger/internal/middleware"
	"github.com/go-petr/receipt-ledger/pkg/randompkg"
	"github.com/go-petr/receipt-ledger/pkg/tokenpkg"
	"github.com/go-petr/receipt-ledger/pkg/web"
)

func TestSplitApproveVoidAPI(t *testing.T) {
	server := integrationtest.SetupServer(t)

	tokenMaker, err := tokenpkg.NewPasetoMaker(server.Config.TokenSymmetricKey)
	if err != nil {
		t.Fatalf("tokenpkg.NewPasetoMaker(%v) returned error: %v", server.Config.TokenSymmetricKey, err)
	}

	clientID := randompkg.ClientID()

	send := func(method, url string, body any, data any) int {
		t.Helper()

		var buf bytes.Buffer
		if body != nil {
			if err := json.NewEncoder(&buf).Encode(body); err != nil {
				t.Fatalf("encoding request body: %v", err)
			}
		}

		req, err := http.NewRequest(method, url, &buf)
		if err != nil {
			t.Fatalf("http.NewRequest(%q, %q) returned error: %v", method, url, err)
		}

		err = middleware.AddAuthorization(req, tokenMaker, middleware.AuthTypeBearer, clientID, "alice", time.Minute)
		if err != nil {
			t.Fatalf("middleware.AddAuthorization() returned error: %v", err)
		}

		recorder := httptest.NewRecorder()
		server.ServeHTTP(recorder, req)

		if data != nil {
			res := web.Response{Data: data}
			if err := json.Unmarshal(recorder.Body.Bytes(), &res); err != nil {
				t.Fatalf("decoding %s %s response: %v", method, url, err)
			}
		}

		return recorder.Code
	}

	var split struct {
		Transactions []domain.DraftTransaction `json:"transactions"`
	}

	code := send(http.MethodPost, "/transactions/split", map[string]any{
		"receipt_id":     "r-101",
		"credit_account": "Liabilities:CreditCard",
		"total":          101,
		"lines": []map[string]string{
			{"debit_account": "Expenses:Meals"},
			{"debit_account": "Expenses:Drinks"},
			{"debit_account": "Expenses:Tips"},
		},
	}, &split)
	if code != http.StatusCreated {
		t.Fatalf("POST /transactions/split status = %d, want %d", code, http.StatusCreated)
	}

	var total int64
	for _, d := range split.Transactions {
		total += d.Amount.Int64()
	}

	if total != 101 {
		t.Errorf("split shares sum to %d, want 101", total)
	}

	for _, d := range split.Transactions {
		if code := send(http.MethodPost, "/transactions/"+d.ID+"/approve", nil, nil); code != http.StatusOK {
			t.Fatalf("POST /transactions/%s/approve status = %d, want %d", d.ID, code, http.StatusOK)
		}
	}

	var balance struct {
		Balance int64 `json:"balance"`
	}

	send(http.MethodGet, "/ledger/balance?account=Liabilities:CreditCard", nil, &balance)
	if balance.Balance != -101 {
		t.Errorf("credit card balance = %d, want -101", balance.Balance)
	}

	voided := split.Transactions[0]
	if code := send(http.MethodPost, "/transactions/"+voided.ID+"/void", map[string]string{"reason": "wrong card"}, nil); code != http.StatusOK {
		t.Fatalf("POST /transactions/%s/void status = %d, want %d", voided.ID, code, http.StatusOK)
	}

	send(http.MethodGet, "/ledger/balance?account=Liabilities:CreditCard", nil, &balance)
	if want := -101 + voided.Amount.Int64(); balance.Balance != want {
		t.Errorf("credit card balance after void = %d, want %d", balance.Balance, want)
	}

	var tb struct {
		TrialBalance domain.TrialBalance `json:"trial_balance"`
	}

	if code := send(http.MethodGet, "/ledger/trial-balance", nil, &tb); code != http.StatusOK {
		t.Fatalf("GET /ledger/trial-balance status = %d, want %d", code, http.StatusOK)
	}

	if tb.TrialBalance.TotalDebit != tb.TrialBalance.TotalCredit {
		t.Errorf("trial balance debit %d != credit %d", tb.TrialBalance.TotalDebit, tb.TrialBalance.TotalCredit)
	}

	if code := send(http.MethodDelete, "/transactions/"+voided.ID, nil, nil); code != http.StatusForbidden {
		t.Errorf("DELETE voided transaction status = %d, want %d", code, http.StatusForbidden)
	}
}
