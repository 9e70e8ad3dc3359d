package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Nzyazin/bank/internal/core/handler"
	"github.com/Nzyazin/bank/internal/core/metrics"
	"github.com/Nzyazin/bank/internal/core/repository/memory"
	"github.com/Nzyazin/bank/internal/core/usecase"
	"github.com/Nzyazin/bank/pkg/config"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) *mux.Router {
	t.Helper()
	log := zap.NewNop()
	uc := usecase.NewAccountUsecase(
		memory.NewMemoryAccountRepo(log),
		config.AccountConfig{CheckingOverdraftLimit: decimal.NewFromInt(50)},
		metrics.NewRecorder(prometheus.NewRegistry()),
		log,
	)
	router := mux.NewRouter()
	handler.NewAccountHandler(uc, log).RegisterRoutes(router)
	return router
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func openAccount(t *testing.T, router http.Handler, body map[string]string) handler.AccountResponse {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/v1/accounts", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[handler.AccountResponse](t, rec)
}

func TestOpenAndGetAccount(t *testing.T) {
	router := newRouter(t)

	created := openAccount(t, router, map[string]string{
		"kind":           "Checking",
		"holder":         "Ivan Petrov",
		"openingBalance": "100,50",
	})
	assert.Equal(t, "checking", string(created.Kind))
	assert.Equal(t, "100.50", created.Balance)
	assert.Equal(t, "50.00", created.OverdraftLimit)

	rec := do(t, router, http.MethodGet, "/api/v1/accounts/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[handler.AccountResponse](t, rec)
	assert.Equal(t, created.Number, got.Number)
	assert.Equal(t, "Ivan Petrov", got.Holder)
}

func TestOpenAccountValidation(t *testing.T) {
	router := newRouter(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"unknown kind", map[string]string{"kind": "credit"}},
		{"bad opening", map[string]string{"kind": "basic", "openingBalance": "-5"}},
		{"bad holder", map[string]string{"kind": "basic", "holder": "x"}},
		{"overdraft on savings", map[string]string{"kind": "savings", "overdraftLimit": "10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/v1/accounts", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestAccountOperation(t *testing.T) {
	router := newRouter(t)
	acc := openAccount(t, router, map[string]string{"kind": "savings", "openingBalance": "100"})

	rec := do(t, router, http.MethodPost, "/api/v1/accounts/operation", map[string]string{
		"accountId":     acc.ID.String(),
		"operationType": "withdraw",
		"amount":        "150",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "insufficient funds", decode[handler.OperationResponse](t, rec).Error)

	rec = do(t, router, http.MethodPost, "/api/v1/accounts/operation", map[string]string{
		"accountId":     acc.ID.String(),
		"operationType": "deposit",
		"amount":        "0.75",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "100.75", decode[handler.OperationResponse](t, rec).Balance)

	for _, amount := range []string{"0", "abc", "1.234"} {
		rec = do(t, router, http.MethodPost, "/api/v1/accounts/operation", map[string]string{
			"accountId":     acc.ID.String(),
			"operationType": "deposit",
			"amount":        amount,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code, amount)
	}

	rec = do(t, router, http.MethodPost, "/api/v1/accounts/operation", map[string]string{
		"accountId":     uuid.NewString(),
		"operationType": "deposit",
		"amount":        "1",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransferEndpoint(t *testing.T) {
	router := newRouter(t)
	a := openAccount(t, router, map[string]string{"kind": "basic", "openingBalance": "100"})
	b := openAccount(t, router, map[string]string{"kind": "basic", "openingBalance": "10"})

	rec := do(t, router, http.MethodPost, "/api/v1/accounts/transfer", map[string]string{
		"fromAccountId": a.ID.String(),
		"toAccountId":   b.ID.String(),
		"amount":        "40",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[handler.TransferResponse](t, rec)
	assert.Equal(t, "60.00", res.FromBalance)
	assert.Equal(t, "50.00", res.ToBalance)
	assert.NotEqual(t, uuid.Nil, res.CorrelationID)

	rec = do(t, router, http.MethodPost, "/api/v1/accounts/transfer", map[string]string{
		"fromAccountId": a.ID.String(),
		"toAccountId":   a.ID.String(),
		"amount":        "1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/accounts/transfer", map[string]string{
		"fromAccountId": a.ID.String(),
		"toAccountId":   b.ID.String(),
		"amount":        "61",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/accounts/"+b.ID.String()+"/history?kind=transfer-in", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[handler.OperationsResponse](t, rec)
	require.Len(t, history.Operations, 1)
	assert.Equal(t, res.CorrelationID, history.Operations[0].CorrelationID)
}

func TestInterestEndpoint(t *testing.T) {
	router := newRouter(t)
	savings := openAccount(t, router, map[string]string{"kind": "savings", "openingBalance": "100"})
	basic := openAccount(t, router, map[string]string{"kind": "basic", "openingBalance": "100"})

	rec := do(t, router, http.MethodPost, "/api/v1/accounts/"+savings.ID.String()+"/interest", map[string]string{"rate": "0,05"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[handler.InterestResponse](t, rec)
	assert.True(t, res.Applied)
	assert.Equal(t, "5.00", res.Amount)
	assert.Equal(t, "105.00", res.Balance)

	rec = do(t, router, http.MethodPost, "/api/v1/accounts/"+basic.ID.String()+"/interest", map[string]string{"rate": "0.05"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/accounts/"+savings.ID.String()+"/interest", map[string]string{"rate": "-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReadEndpoints(t *testing.T) {
	router := newRouter(t)
	acc := openAccount(t, router, map[string]string{"kind": "basic", "openingBalance": "100"})
	rec := do(t, router, http.MethodPost, "/api/v1/accounts/operation", map[string]string{
		"accountId":     acc.ID.String(),
		"operationType": "withdraw",
		"amount":        "30",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	base := "/api/v1/accounts/" + acc.ID.String()

	rec = do(t, router, http.MethodGet, base+"/top?n=1&sort_by=amount", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	top := decode[handler.OperationsResponse](t, rec)
	require.Len(t, top.Operations, 1)
	assert.True(t, top.Operations[0].Amount.Equal(decimal.NewFromInt(100)))

	rec = do(t, router, http.MethodGet, base+"/top?sort_by=size", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, base+"/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"net":"70"`)

	rec = do(t, router, http.MethodGet, base+"/chart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"color":"red"`)

	rec = do(t, router, http.MethodGet, base+"/history?kind=refund", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/accounts/not-a-uuid/summary", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	empty := openAccount(t, router, map[string]string{"kind": "basic"})
	rec = do(t, router, http.MethodGet, "/api/v1/accounts/"+empty.ID.String()+"/chart", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLookupAndListEndpoints(t *testing.T) {
	router := newRouter(t)

	rec := do(t, router, http.MethodGet, "/api/v1/accounts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[handler.AccountsResponse](t, rec).Accounts)

	second := openAccount(t, router, map[string]string{"kind": "basic", "number": "ACC-7002"})
	first := openAccount(t, router, map[string]string{"kind": "savings", "number": "ACC-7001"})

	rec = do(t, router, http.MethodGet, "/api/v1/accounts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[handler.AccountsResponse](t, rec).Accounts
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	rec = do(t, router, http.MethodGet, "/api/v1/accounts?number=acc-7002", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, second.ID, decode[handler.AccountResponse](t, rec).ID)

	rec = do(t, router, http.MethodGet, "/api/v1/accounts?number=ACC-9999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
