package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Nzyazin/bank/internal/core/account"
	"github.com/Nzyazin/bank/internal/core/analytics"
	"github.com/Nzyazin/bank/internal/core/logger"
	"github.com/Nzyazin/bank/internal/core/models"
	"github.com/Nzyazin/bank/internal/core/usecase"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

const defaultTopN = 5

type AccountHandler struct {
	usecase usecase.AccountUsecase
	log     logger.Logger
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type OperationResponse struct {
	Error     string    `json:"error,omitempty"`
	Balance   string    `json:"balance"`
	AccountID uuid.UUID `json:"account_id"`
}

type AccountResponse struct {
	ID             uuid.UUID    `json:"id"`
	Number         string       `json:"number"`
	Holder         string       `json:"holder,omitempty"`
	Kind           account.Kind `json:"kind"`
	Balance        string       `json:"balance"`
	OverdraftLimit string       `json:"overdraft_limit"`
	CreatedAt      time.Time    `json:"created_at"`
}

type AccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

type TransferResponse struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	FromBalance   string    `json:"from_balance"`
	ToBalance     string    `json:"to_balance"`
}

type InterestResponse struct {
	Applied bool   `json:"applied"`
	Amount  string `json:"amount"`
	Balance string `json:"balance"`
}

type OperationsResponse struct {
	AccountID  uuid.UUID           `json:"account_id"`
	Operations []account.Operation `json:"operations"`
}

var (
	amountRegexp = regexp.MustCompile(`^\s*\d{1,9}([.,]\d{1,2})?\s*$`)
	rateRegexp   = regexp.MustCompile(`^\s*\d{1,3}([.,]\d{1,6})?\s*$`)
)

func NewAccountHandler(usecase usecase.AccountUsecase, log logger.Logger) *AccountHandler {
	return &AccountHandler{usecase: usecase, log: log}
}

func (h *AccountHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/accounts", h.OpenAccount).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/accounts", h.GetAccountByNumber).Methods(http.MethodGet).Queries("number", "{number}")
	router.HandleFunc("/api/v1/accounts", h.ListAccounts).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/accounts/operation", h.ProcessAccountOperation).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/accounts/transfer", h.Transfer).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/accounts/{id}", h.GetAccount).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/accounts/{id}/interest", h.AccrueInterest).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/accounts/{id}/history", h.History).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/accounts/{id}/top", h.TopOperations).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/accounts/{id}/summary", h.Summary).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/accounts/{id}/chart", h.Chart).Methods(http.MethodGet)
}

func (h *AccountHandler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	var req models.OpenAccountRequest
	if err := h.decodeRequest(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Kind = account.Kind(strings.ToLower(strings.TrimSpace(string(req.Kind))))

	if strings.TrimSpace(req.OpeningBalance) != "" {
		opening, err := h.parseNonNegative(req.OpeningBalance)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.DecimalOpening = opening
	}
	if strings.TrimSpace(req.OverdraftLimit) != "" {
		limit, err := h.parseNonNegative(req.OverdraftLimit)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.DecimalOverdraft = &limit
	}

	info, err := h.usecase.OpenAccount(r.Context(), req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, toAccountResponse(info))
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	info, err := h.usecase.GetAccount(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, toAccountResponse(info))
}

func (h *AccountHandler) GetAccountByNumber(w http.ResponseWriter, r *http.Request) {
	number := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["number"]))
	info, err := h.usecase.GetAccountByNumber(r.Context(), number)
	if err != nil {
		h.handleError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, toAccountResponse(info))
}

func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	infos, err := h.usecase.ListAccounts(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	resp := AccountsResponse{Accounts: make([]AccountResponse, 0, len(infos))}
	for _, info := range infos {
		resp.Accounts = append(resp.Accounts, toAccountResponse(info))
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *AccountHandler) ProcessAccountOperation(w http.ResponseWriter, r *http.Request) {
	var operation models.AccountOperation
	if err := h.decodeRequest(w, r, &operation); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if validationErr := h.validateOperation(&operation); validationErr != nil {
		h.log.Warn(validationErr.Message, validationErr.Fields...)
		respondWithError(w, http.StatusBadRequest, validationErr.Message)
		return
	}

	amountDec, err := h.parseAmount(operation.Amount)
	if err != nil {
		h.log.Warn("Invalid amount", logger.StringField("amount", operation.Amount), logger.ErrorField("error", err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	operation.DecimalAmount = amountDec

	newBalance, err := h.usecase.OperateAccount(r.Context(), operation)
	if err != nil {
		if errors.Is(err, usecase.ErrInsufficientFunds) {
			respondWithJSON(w, http.StatusBadRequest, OperationResponse{
				Error:     "insufficient funds",
				AccountID: operation.AccountID,
			})
			return
		}
		h.handleError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, OperationResponse{
		Balance:   newBalance.StringFixedBank(2),
		AccountID: operation.AccountID,
	})
}

func (h *AccountHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	if err := h.decodeRequest(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.FromAccountID == uuid.Nil || req.ToAccountID == uuid.Nil {
		respondWithError(w, http.StatusBadRequest, "Both account IDs are required")
		return
	}

	amount, err := h.parseAmount(req.Amount)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.DecimalAmount = amount

	res, err := h.usecase.Transfer(r.Context(), req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, TransferResponse{
		CorrelationID: res.Out.CorrelationID,
		FromBalance:   res.FromBalance.StringFixedBank(2),
		ToBalance:     res.ToBalance.StringFixedBank(2),
	})
}

func (h *AccountHandler) AccrueInterest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req models.InterestRequest
	if err := h.decodeRequest(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	cleaned := strings.ReplaceAll(strings.TrimSpace(req.Rate), ",", ".")
	if !rateRegexp.MatchString(cleaned) {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid rate format: %s", req.Rate))
		return
	}
	rate, err := decimal.NewFromString(cleaned)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("could not parse rate: %v", err))
		return
	}

	res, err := h.usecase.AccrueInterest(r.Context(), id, rate)
	if err != nil {
		h.handleError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, InterestResponse{
		Applied: res.Applied,
		Amount:  res.Operation.Amount.StringFixedBank(2),
		Balance: res.Balance.StringFixedBank(2),
	})
}

func (h *AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	kind := account.OperationKind(strings.ToLower(r.URL.Query().Get("kind")))
	if kind != "" && !kind.Valid() {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("unknown operation kind: %s", kind))
		return
	}

	ops, err := h.usecase.History(r.Context(), id, kind)
	if err != nil {
		h.handleError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, OperationsResponse{AccountID: id, Operations: ops})
}

func (h *AccountHandler) TopOperations(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	n := defaultTopN
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid n: %s", raw))
			return
		}
		n = parsed
	}
	sortBy := analytics.SortKey(r.URL.Query().Get("sort_by"))
	if sortBy == "" {
		sortBy = analytics.SortByAmount
	}

	ops, err := h.usecase.TopOperations(r.Context(), id, n, sortBy)
	if err != nil {
		h.handleError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, OperationsResponse{AccountID: id, Operations: ops})
}

func (h *AccountHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	summary, err := h.usecase.Summary(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

func (h *AccountHandler) Chart(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	chart, err := h.usecase.Chart(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, chart)
}

type ValidationError struct {
	Message string
	Fields  []logger.Field
}

func (h *AccountHandler) decodeRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.log.Warn("Failed to decode request body", logger.ErrorField("error", err))
		return fmt.Errorf("invalid request payload")
	}
	return nil
}

func (h *AccountHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		h.log.Warn("Invalid account id", logger.StringField("account_id", raw))
		respondWithError(w, http.StatusBadRequest, "Invalid account ID")
		return uuid.Nil, false
	}
	return id, true
}

// validateOperation выполняет базовую валидацию полей операции
func (h *AccountHandler) validateOperation(operation *models.AccountOperation) *ValidationError {
	if operation.AccountID == uuid.Nil {
		return &ValidationError{
			Message: "Account ID is required",
			Fields:  []logger.Field{logger.StringField("account_id", "")},
		}
	}

	operation.OperationType = models.OperationType(
		strings.ToUpper(string(operation.OperationType)),
	)

	switch operation.OperationType {
	case models.OperationDeposit, models.OperationWithdraw:
		return nil
	default:
		return &ValidationError{
			Message: "Invalid operation type",
			Fields: []logger.Field{
				logger.StringField("operation_type", string(operation.OperationType)),
			},
		}
	}
}

// parseAmount обрабатывает и валидирует сумму операции
func (h *AccountHandler) parseAmount(amountStr string) (decimal.Decimal, error) {
	amount, err := h.parseNonNegative(amountStr)
	if err != nil {
		return decimal.Zero, err
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("amount must be positive")
	}
	return amount, nil
}

func (h *AccountHandler) parseNonNegative(amountStr string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.ReplaceAll(amountStr, " ", ""), ",", ".")

	if !amountRegexp.MatchString(cleaned) {
		return decimal.Zero, fmt.Errorf("invalid amount format: %s", cleaned)
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("could not parse amount: %v", err)
	}
	return amount, nil
}

func (h *AccountHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrAccountNotFound):
		respondWithError(w, http.StatusNotFound, "Account not found")
	case errors.Is(err, usecase.ErrNoData):
		respondWithError(w, http.StatusNotFound, "No operations recorded")
	case errors.Is(err, usecase.ErrAccountExists):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, usecase.ErrInterestNotSupported):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, usecase.ErrInsufficientFunds),
		errors.Is(err, usecase.ErrInvalidAmount),
		errors.Is(err, usecase.ErrInvalidTransferTarget),
		errors.Is(err, usecase.ErrInvalidRate),
		errors.Is(err, usecase.ErrInvalidSortKey),
		errors.Is(err, usecase.ErrInvalidAccountKind),
		errors.Is(err, usecase.ErrInvalidOperationType),
		errors.Is(err, account.ErrInvalidHolder),
		errors.Is(err, account.ErrInvalidAccountNumber),
		errors.Is(err, account.ErrInvalidPolicy):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("Failed to process request", logger.ErrorField("error", err))
		respondWithError(w, http.StatusInternalServerError, "Failed to process request")
	}
}

func toAccountResponse(info account.Info) AccountResponse {
	return AccountResponse{
		ID:             info.ID,
		Number:         info.Number,
		Holder:         info.Holder,
		Kind:           info.Kind,
		Balance:        info.Balance.StringFixedBank(2),
		OverdraftLimit: info.OverdraftLimit.StringFixedBank(2),
		CreatedAt:      info.CreatedAt,
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal Server Error"}`)) // Fallback response
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
