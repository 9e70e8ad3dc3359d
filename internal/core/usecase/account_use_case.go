package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/Nzyazin/bank/internal/core/account"
	"github.com/Nzyazin/bank/internal/core/analytics"
	"github.com/Nzyazin/bank/internal/core/logger"
	"github.com/Nzyazin/bank/internal/core/metrics"
	"github.com/Nzyazin/bank/internal/core/models"
	"github.com/Nzyazin/bank/internal/core/repository"
	"github.com/Nzyazin/bank/pkg/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountUsecase interface {
	OpenAccount(ctx context.Context, req models.OpenAccountRequest) (account.Info, error)
	GetAccount(ctx context.Context, id uuid.UUID) (account.Info, error)
	GetAccountByNumber(ctx context.Context, number string) (account.Info, error)
	ListAccounts(ctx context.Context) ([]account.Info, error)
	OperateAccount(ctx context.Context, op models.AccountOperation) (decimal.Decimal, error)
	Transfer(ctx context.Context, req models.TransferRequest) (models.TransferResult, error)
	AccrueInterest(ctx context.Context, id uuid.UUID, rate decimal.Decimal) (models.InterestResult, error)

	History(ctx context.Context, id uuid.UUID, kind account.OperationKind) ([]account.Operation, error)
	TopOperations(ctx context.Context, id uuid.UUID, n int, sortBy analytics.SortKey) ([]account.Operation, error)
	Summary(ctx context.Context, id uuid.UUID) (analytics.Summary, error)
	Chart(ctx context.Context, id uuid.UUID) (analytics.Chart, error)
}

type accountUsecase struct {
	repo       repository.AccountRepository
	analyzer   *analytics.TransactionAnalyzer
	visualizer *analytics.AccountVisualizer
	defaults   config.AccountConfig
	metrics    *metrics.Recorder
	log        logger.Logger
}

func NewAccountUsecase(
	repo repository.AccountRepository,
	defaults config.AccountConfig,
	recorder *metrics.Recorder,
	log logger.Logger,
) AccountUsecase {
	return &accountUsecase{
		repo:       repo,
		analyzer:   analytics.NewTransactionAnalyzer(),
		visualizer: analytics.NewAccountVisualizer(),
		defaults:   defaults,
		metrics:    recorder,
		log:        log,
	}
}

func (uc *accountUsecase) OpenAccount(ctx context.Context, req models.OpenAccountRequest) (account.Info, error) {
	policy, err := uc.policyFor(req)
	if err != nil {
		uc.log.Warn("Invalid account kind", logger.StringField("kind", string(req.Kind)))
		return account.Info{}, err
	}

	acc, err := account.New(account.Params{
		Number:  req.Number,
		Holder:  req.Holder,
		Opening: req.DecimalOpening,
		Policy:  policy,
	})
	if err != nil {
		uc.log.Warn("Account rejected",
			logger.StringField("kind", string(req.Kind)),
			logger.ErrorField("error", err))
		return account.Info{}, err
	}

	if err := uc.repo.Save(ctx, acc); err != nil {
		if errors.Is(err, repository.ErrDuplicateAccount) {
			uc.log.Warn("Duplicate account", logger.StringField("number", acc.Number()))
			return account.Info{}, fmt.Errorf("%w: %s", ErrAccountExists, acc.Number())
		}
		uc.log.Error("Failed to store account", logger.ErrorField("error", err))
		return account.Info{}, fmt.Errorf("save account: %w", err)
	}

	uc.metrics.AccountOpened(string(policy.Kind))
	info := acc.Info()
	uc.log.Info("Account opened",
		logger.StringField("account_id", info.ID.String()),
		logger.StringField("number", info.Number),
		logger.StringField("kind", string(info.Kind)),
		logger.DecimalField("balance", info.Balance))
	return info, nil
}

// policyFor fills the policy from config defaults. An explicit overdraft on a
// non-checking kind is passed through so account validation rejects it.
func (uc *accountUsecase) policyFor(req models.OpenAccountRequest) (account.Policy, error) {
	policy := account.Policy{Kind: req.Kind}
	if req.DecimalOverdraft != nil {
		policy.OverdraftLimit = *req.DecimalOverdraft
	}

	switch req.Kind {
	case account.KindBasic:
	case account.KindChecking:
		if req.DecimalOverdraft == nil {
			policy.OverdraftLimit = uc.defaults.CheckingOverdraftLimit
		}
	case account.KindSavings:
		policy.MaxWithdrawalRatio = uc.defaults.SavingsMaxWithdrawalRatio
	default:
		return account.Policy{}, fmt.Errorf("%w: %q", ErrInvalidAccountKind, req.Kind)
	}
	return policy, nil
}

func (uc *accountUsecase) GetAccount(ctx context.Context, id uuid.UUID) (account.Info, error) {
	acc, err := uc.getAccount(ctx, id)
	if err != nil {
		return account.Info{}, err
	}
	return acc.Info(), nil
}

func (uc *accountUsecase) GetAccountByNumber(ctx context.Context, number string) (account.Info, error) {
	acc, err := uc.repo.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			uc.log.Warn("Account not found", logger.StringField("number", number))
			return account.Info{}, fmt.Errorf("%w: %s", ErrAccountNotFound, number)
		}
		uc.log.Error("Account lookup failed",
			logger.ErrorField("error", err),
			logger.StringField("number", number))
		return account.Info{}, fmt.Errorf("get account: %w", err)
	}
	return acc.Info(), nil
}

// ListAccounts returns every account ordered by number.
func (uc *accountUsecase) ListAccounts(ctx context.Context) ([]account.Info, error) {
	accounts, err := uc.repo.List(ctx)
	if err != nil {
		uc.log.Error("Failed to list accounts", logger.ErrorField("error", err))
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	infos := make([]account.Info, 0, len(accounts))
	for _, acc := range accounts {
		infos = append(infos, acc.Info())
	}
	return infos, nil
}

func (uc *accountUsecase) OperateAccount(ctx context.Context, op models.AccountOperation) (decimal.Decimal, error) {
	uc.logStart(op)

	var kind account.OperationKind
	switch op.OperationType {
	case models.OperationDeposit:
		kind = account.OperationDeposit
	case models.OperationWithdraw:
		kind = account.OperationWithdrawal
	default:
		return decimal.Zero, ErrInvalidOperationType
	}

	acc, err := uc.getAccount(ctx, op.AccountID)
	if err != nil {
		return decimal.Zero, err
	}

	var applied account.Operation
	if kind == account.OperationDeposit {
		applied, err = acc.Deposit(op.DecimalAmount)
	} else {
		applied, err = acc.Withdraw(op.DecimalAmount)
	}
	if err != nil {
		uc.fail(string(kind), err,
			logger.StringField("account_id", op.AccountID.String()),
			logger.DecimalField("requested", op.DecimalAmount),
			logger.DecimalField("balance", acc.Balance()))
		return decimal.Zero, err
	}

	uc.succeed(applied, acc.ID())
	return applied.ResultingBalance, nil
}

func (uc *accountUsecase) Transfer(ctx context.Context, req models.TransferRequest) (models.TransferResult, error) {
	uc.log.Info("Starting transfer",
		logger.StringField("from", req.FromAccountID.String()),
		logger.StringField("to", req.ToAccountID.String()),
		logger.DecimalField("amount", req.DecimalAmount))

	from, err := uc.getAccount(ctx, req.FromAccountID)
	if err != nil {
		return models.TransferResult{}, err
	}
	to, err := uc.getAccount(ctx, req.ToAccountID)
	if err != nil {
		return models.TransferResult{}, err
	}

	out, in, err := from.Transfer(to, req.DecimalAmount)
	if err != nil {
		uc.fail("transfer", err,
			logger.StringField("from", req.FromAccountID.String()),
			logger.StringField("to", req.ToAccountID.String()),
			logger.DecimalField("amount", req.DecimalAmount))
		return models.TransferResult{}, err
	}

	uc.succeed(out, from.ID())
	uc.succeed(in, to.ID())
	return models.TransferResult{
		Out:         out,
		In:          in,
		FromBalance: out.ResultingBalance,
		ToBalance:   in.ResultingBalance,
	}, nil
}

func (uc *accountUsecase) AccrueInterest(ctx context.Context, id uuid.UUID, rate decimal.Decimal) (models.InterestResult, error) {
	acc, err := uc.getAccount(ctx, id)
	if err != nil {
		return models.InterestResult{}, err
	}

	op, applied, err := acc.AccrueInterest(rate)
	if err != nil {
		uc.fail(string(account.OperationInterest), err,
			logger.StringField("account_id", id.String()),
			logger.DecimalField("rate", rate))
		return models.InterestResult{}, err
	}
	if !applied {
		uc.log.Info("No interest accrued",
			logger.StringField("account_id", id.String()),
			logger.DecimalField("rate", rate))
		return models.InterestResult{Balance: acc.Balance()}, nil
	}

	uc.succeed(op, id)
	return models.InterestResult{Applied: true, Operation: op, Balance: op.ResultingBalance}, nil
}

// History returns the ledger, restricted to kind unless kind is empty.
func (uc *accountUsecase) History(ctx context.Context, id uuid.UUID, kind account.OperationKind) ([]account.Operation, error) {
	acc, err := uc.getAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		return acc.History().Slice(), nil
	}

	ops := []account.Operation{}
	for op := range acc.History().Filter(func(op account.Operation) bool { return op.Kind == kind }) {
		ops = append(ops, op)
	}
	return ops, nil
}

func (uc *accountUsecase) TopOperations(ctx context.Context, id uuid.UUID, n int, sortBy analytics.SortKey) ([]account.Operation, error) {
	acc, err := uc.getAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.analyzer.Top(acc, n, sortBy)
}

func (uc *accountUsecase) Summary(ctx context.Context, id uuid.UUID) (analytics.Summary, error) {
	acc, err := uc.getAccount(ctx, id)
	if err != nil {
		return analytics.Summary{}, err
	}
	return uc.analyzer.Summarize(acc), nil
}

func (uc *accountUsecase) Chart(ctx context.Context, id uuid.UUID) (analytics.Chart, error) {
	acc, err := uc.getAccount(ctx, id)
	if err != nil {
		return analytics.Chart{}, err
	}
	return uc.visualizer.BalanceChart(acc)
}

func (uc *accountUsecase) logStart(op models.AccountOperation) {
	uc.log.Info("Starting operation",
		logger.StringField("account_id", op.AccountID.String()),
		logger.StringField("type", string(op.OperationType)),
		logger.StringField("amount", op.DecimalAmount.String()))
}

func (uc *accountUsecase) getAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	acc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			uc.log.Warn("Account not found", logger.StringField("account_id", id.String()))
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
		}
		uc.log.Error("Account lookup failed",
			logger.ErrorField("error", err),
			logger.StringField("account_id", id.String()))
		return nil, fmt.Errorf("get account: %w", err)
	}
	return acc, nil
}

func (uc *accountUsecase) fail(kind string, err error, fields ...logger.Field) {
	fields = append(fields, logger.ErrorField("error", err))
	if isRejection(err) {
		uc.metrics.Operation(kind, metrics.ResultRejected)
		uc.log.Warn("Operation rejected", fields...)
		return
	}
	uc.metrics.Operation(kind, metrics.ResultError)
	uc.log.Error("Operation failed", fields...)
}

func (uc *accountUsecase) succeed(op account.Operation, id uuid.UUID) {
	uc.metrics.Operation(string(op.Kind), metrics.ResultSuccess)
	uc.log.Info("Operation successful",
		logger.StringField("account_id", id.String()),
		logger.StringField("operation_id", op.ID.String()),
		logger.Int64Field("seq", int64(op.Seq)),
		logger.StringField("kind", string(op.Kind)),
		logger.DecimalField("amount", op.Amount),
		logger.StringField("new_balance", op.ResultingBalance.StringFixedBank(2)))
}
