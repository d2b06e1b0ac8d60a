package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/receipt-ledger/internal/domain"
	"github.com/go-petr/receipt-ledger/internal/middleware"
	"github.com/go-petr/receipt-ledger/pkg/configpkg"
	"github.com/go-petr/receipt-ledger/pkg/randompkg"
	"github.com/go-petr/receipt-ledger/pkg/tokenpkg"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, ledgerBackend string) configpkg.Config {
	t.Helper()

	return configpkg.Config{
		TokenSymmetricKey:  randompkg.String(32),
		TokenFormat:        "paseto",
		Environment:        "test",
		LedgerBackend:      ledgerBackend,
		DraftStore:         configpkg.BackendMemory,
		BoltPath:           filepath.Join(t.TempDir(), "ledger.db"),
		BreakerMaxFailures: 5,
		BreakerOpenTimeout: time.Second,
	}
}

type client struct {
	t        *testing.T
	server   *Server
	maker    tokenpkg.Maker
	clientID string
}

func newClient(t *testing.T, config configpkg.Config) client {
	t.Helper()

	server, err := New(nil, zerolog.Nop(), config)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, server.Close())
	})

	maker, err := tokenpkg.NewPasetoMaker(config.TokenSymmetricKey)
	require.NoError(t, err)

	return client{t: t, server: server, maker: maker, clientID: randompkg.ClientID()}
}

func (c client) do(method, url string, body any, out any) int {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}

	request, err := http.NewRequest(method, url, &buf)
	require.NoError(c.t, err)

	err = middleware.AddAuthorization(request, c.maker, middleware.AuthTypeBearer, c.clientID, "alice", time.Minute)
	require.NoError(c.t, err)

	recorder := httptest.NewRecorder()
	c.server.ServeHTTP(recorder, request)

	if out != nil && recorder.Body.Len() > 0 {
		envelope := struct {
			Data any `json:"data"`
		}{Data: out}
		require.NoError(c.t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	}

	return recorder.Code
}

func TestReceiptLifecycle(t *testing.T) {
	for _, backend := range []string{configpkg.BackendMemory, configpkg.BackendBolt} {
		backend := backend

		t.Run(backend, func(t *testing.T) {
			c := newClient(t, testConfig(t, backend))

			var created struct {
				Transaction domain.DraftTransaction `json:"transaction"`
			}

			code := c.do(http.MethodPost, "/transactions", gin.H{
				"receipt_id":     "r1",
				"debit_account":  "Expenses:Meals",
				"credit_account": "Assets:Cash",
				"amount":         1500,
				"description":    "Lunch",
			}, &created)
			require.Equal(t, http.StatusCreated, code)
			require.Equal(t, domain.StatusDraft, created.Transaction.Status)

			id := created.Transaction.ID

			var approved struct {
				Transaction domain.DraftTransaction `json:"transaction"`
			}

			code = c.do(http.MethodPost, "/transactions/"+id+"/approve", nil, &approved)
			require.Equal(t, http.StatusOK, code)
			require.Equal(t, domain.StatusPosted, approved.Transaction.Status)
			require.NotEmpty(t, approved.Transaction.LedgerTransactionID)

			code = c.do(http.MethodPost, "/transactions/"+id+"/approve", nil, nil)
			require.Equal(t, http.StatusForbidden, code)

			var balance struct {
				Balance int64 `json:"balance"`
			}

			code = c.do(http.MethodGet, "/ledger/balance?account=Expenses:Meals", nil, &balance)
			require.Equal(t, http.StatusOK, code)
			require.Equal(t, int64(1500), balance.Balance)

			code = c.do(http.MethodPost, "/transactions/"+id+"/void", gin.H{"reason": "duplicate"}, nil)
			require.Equal(t, http.StatusOK, code)

			code = c.do(http.MethodGet, "/ledger/balance?account=Expenses:Meals", nil, &balance)
			require.Equal(t, http.StatusOK, code)
			require.Zero(t, balance.Balance)

			code = c.do(http.MethodPost, "/ledger/entries/"+approved.Transaction.LedgerTransactionID+"/reverse", nil, nil)
			require.Equal(t, http.StatusUnprocessableEntity, code)

			var tb struct {
				TrialBalance domain.TrialBalance `json:"trial_balance"`
			}

			code = c.do(http.MethodGet, "/ledger/trial-balance", nil, &tb)
			require.Equal(t, http.StatusOK, code)
			require.Equal(t, tb.TrialBalance.TotalDebit, tb.TrialBalance.TotalCredit)
			require.EqualValues(t, 3000, tb.TrialBalance.TotalDebit)
		})
	}
}

// record posts a ledger entry under an idempotency key and returns the
// response status and the recorded transaction id.
func (c client) record(key string, body any) (int, string) {
	c.t.Helper()

	var out struct {
		Transaction domain.LedgerTransaction `json:"transaction"`
	}

	var buf bytes.Buffer
	require.NoError(c.t, json.NewEncoder(&buf).Encode(body))

	request, err := http.NewRequest(http.MethodPost, "/ledger/entries", &buf)
	require.NoError(c.t, err)
	request.Header.Set("Idempotency-Key", key)
	require.NoError(c.t, middleware.AddAuthorization(request, c.maker, middleware.AuthTypeBearer, c.clientID, "alice", time.Minute))

	recorder := httptest.NewRecorder()
	c.server.ServeHTTP(recorder, request)

	if recorder.Code == http.StatusCreated {
		envelope := struct {
			Data any `json:"data"`
		}{Data: &out}
		require.NoError(c.t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	}

	return recorder.Code, out.Transaction.ID
}

func TestRecordIdempotency(t *testing.T) {
	c := newClient(t, testConfig(t, configpkg.BackendMemory))

	body := gin.H{"memo": "Refund", "postings": gin.H{"Assets:Cash": 500, "Income:Refunds": -500}}

	code, first := c.record("refund-1", body)
	require.Equal(t, http.StatusCreated, code)

	code, second := c.record("refund-1", body)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, first, second)

	var balance struct {
		Balance int64 `json:"balance"`
	}

	code = c.do(http.MethodGet, "/ledger/balance?account=Assets:Cash", nil, &balance)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, int64(500), balance.Balance)

	var found struct {
		Transaction domain.LedgerTransaction `json:"transaction"`
	}

	code = c.do(http.MethodGet, "/ledger/entries?idempotency_key=refund-1", nil, &found)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, first, found.Transaction.ID)

	code = c.do(http.MethodGet, "/ledger/entries?idempotency_key=refund-2", nil, nil)
	require.Equal(t, http.StatusNotFound, code)
}

func TestClientKeysDoNotReachLifecycleWrites(t *testing.T) {
	c := newClient(t, testConfig(t, configpkg.BackendMemory))

	var created struct {
		Transaction domain.DraftTransaction `json:"transaction"`
	}

	code := c.do(http.MethodPost, "/transactions", gin.H{
		"debit_account":  "Expenses:Food",
		"credit_account": "Assets:Cash",
		"amount":         500,
	}, &created)
	require.Equal(t, http.StatusCreated, code)

	id := created.Transaction.ID

	code = c.do(http.MethodPost, "/transactions/"+id+"/approve", nil, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = c.record("void:"+id, gin.H{"postings": gin.H{"Expenses:Other": 100, "Assets:Cash": -100}})
	require.Equal(t, http.StatusCreated, code)

	code = c.do(http.MethodPost, "/transactions/"+id+"/void", nil, nil)
	require.Equal(t, http.StatusOK, code)

	var balance struct {
		Balance int64 `json:"balance"`
	}

	code = c.do(http.MethodGet, "/ledger/balance?account=Expenses:Food", nil, &balance)
	require.Equal(t, http.StatusOK, code)
	require.Zero(t, balance.Balance)

	code, _ = c.record("x", gin.H{
		"postings": gin.H{"Expenses:Other": 100, "Assets:Cash": -100},
		"metadata": gin.H{"reversal_of": id},
	})
	require.Equal(t, http.StatusBadRequest, code)
}

func TestHealthz(t *testing.T) {
	c := newClient(t, testConfig(t, configpkg.BackendMemory))

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	c.server.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, `{"ledger_backend":"memory","breaker":"closed"}`, recorder.Body.String())
}

func TestNewConfigErrors(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(config *configpkg.Config)
	}{
		{name: "PostgresLedgerWithoutDB", modify: func(config *configpkg.Config) { config.LedgerBackend = configpkg.BackendPostgres }},
		{name: "PostgresDraftsWithoutDB", modify: func(config *configpkg.Config) { config.DraftStore = configpkg.BackendPostgres }},
		{name: "UnknownBackend", modify: func(config *configpkg.Config) { config.LedgerBackend = "sqlite" }},
		{name: "ShortTokenKey", modify: func(config *configpkg.Config) { config.TokenSymmetricKey = "short" }},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
					config := testConfig(t, configpkg.BackendMemory)
			tc.modify(&config)

			_, err := New(nil, zerolog.Nop(), config)
			require.Error(t, err)
		})
	}
}
