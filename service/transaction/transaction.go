package transaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/asaskevich/govalidator"
	"github.com/holiman/uint256"
	"github.com/pandodao/gasless-wallet/core"
	"golang.org/x/sync/singleflight"
)

type Config struct {
	TokenAddress string `valid:"required"`
	FeeMode      core.FeeMode
	GasToken     string

	HistoryChunkSize int
	HistoryMaxDepth  int
	HistoryWorkers   int
}

func New(
	node core.NodeService,
	paymaster core.PaymasterService,
	scheme core.KeyScheme,
	pool core.Signer,
	credits core.CreditHook,
	logger *slog.Logger,
	cfg Config,
) core.TransactionService {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	if !core.IsAddress(cfg.TokenAddress) {
		panic(fmt.Errorf("invalid token address %q", cfg.TokenAddress))
	}

	if cfg.FeeMode == "" {
		cfg.FeeMode = core.FeeModeDefault
	}

	if cfg.HistoryChunkSize <= 0 {
		cfg.HistoryChunkSize = 10
	}

	if cfg.HistoryMaxDepth <= 0 {
		cfg.HistoryMaxDepth = 500
	}

	if cfg.HistoryWorkers <= 0 {
		cfg.HistoryWorkers = 8
	}

	return &service{
		node:      node,
		paymaster: paymaster,
		scheme:    scheme,
		pool:      pool,
		credits:   credits,
		logger:    logger.With("service", "transaction"),
		cfg:       cfg,
	}
}

type service struct {
	node      core.NodeService
	paymaster core.PaymasterService
	scheme    core.KeyScheme
	credits   core.CreditHook
	logger    *slog.Logger
	cfg       Config

	// pool signs Receive transfers; poolMux keeps its nonce sequence intact.
	pool    core.Signer
	poolMux sync.Mutex

	balances singleflight.Group
}

func (s *service) Send(ctx context.Context, from string, signerKey []byte, to string, amount string) (*core.TxHandle, error) {
	intent, err := s.intent(from, to, amount)
	if err != nil {
		return nil, err
	}

	signer, err := s.scheme.NewSigner(intent.From, signerKey)
	if err != nil {
		return nil, err
	}

	defer signer.Zero()

	return s.submit(ctx, intent, signer)
}

func (s *service) Receive(ctx context.Context, to string, amount string) (*core.TxHandle, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("%w: pool account not configured", core.ErrServiceUnavailable)
	}

	intent, err := s.intent(s.pool.Address(), to, amount)
	if err != nil {
		return nil, err
	}

	s.poolMux.Lock()
	defer s.poolMux.Unlock()

	handle, err := s.submit(ctx, intent, s.pool)
	if err != nil {
		return nil, err
	}

	if s.credits != nil {
		if err := s.credits.OnCredit(ctx, intent, handle); err != nil {
			s.logger.Error("credits.OnCredit", "tx", handle.Hash, "err", err)
		}
	}

	return handle, nil
}

func (s *service) intent(from, to, amount string) (*core.TransferIntent, error) {
	to = strings.TrimSpace(to)
	if !core.IsAddress(to) {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidAddress, to)
	}

	if !core.IsAddress(from) {
		return nil, fmt.Errorf("%w: sender %q", core.ErrInvalidAddress, from)
	}

	minor, err := core.ScaleAmount(amount)
	if err != nil {
		return nil, err
	}

	return &core.TransferIntent{
		From:   from,
		To:     to,
		Amount: minor,
		Token:  s.cfg.TokenAddress,
	}, nil
}

// TransferCall builds the token transfer call with the amount split into
// its low and high 128-bit words.
func TransferCall(intent *core.TransferIntent) core.Call {
	low, high := core.SplitUint256(intent.Amount)
	return core.Call{
		ContractAddress: intent.Token,
		Entrypoint:      "transfer",
		Calldata:        []string{intent.To, low, high},
	}
}

func (s *service) submit(ctx context.Context, intent *core.TransferIntent, signer core.Signer) (*core.TxHandle, error) {
	fee, err := s.feeDetails(ctx)
	if err != nil {
		return nil, err
	}

	tx := &core.PaymasterTransaction{
		Account: intent.From,
		Calls:   []core.Call{TransferCall(intent)},
		Fee:     fee,
	}

	log := s.logger.With("from", intent.From, "to", intent.To, "amount", intent.Amount.Dec())

	var maxFee *uint256.Int
	if !fee.Mode.Sponsored() {
		estimate, err := s.paymaster.EstimateFee(ctx, tx)
		if err != nil {
			log.Error("paymaster.EstimateFee", "err", err)
			return nil, classify(err)
		}

		maxFee = estimate.SuggestedMaxFee
	}

	handle, err := s.paymaster.Submit(ctx, tx, signer, maxFee)
	if err != nil {
		log.Error("paymaster.Submit", "err", err)
		return nil, classify(err)
	}

	log.Info("transfer submitted", "tx", handle.Hash, "mode", fee.Mode)
	return handle, nil
}

func (s *service) feeDetails(ctx context.Context) (core.FeeDetails, error) {
	fee := core.FeeDetails{Mode: s.cfg.FeeMode}

	ok, err := s.paymaster.IsAvailable(ctx)
	if err != nil {
		s.logger.Error("paymaster.IsAvailable", "err", err)
		return fee, fmt.Errorf("%w: %w", core.ErrPaymasterUnavailable, err)
	}

	if !ok {
		return fee, core.ErrPaymasterUnavailable
	}

	tokens, err := s.paymaster.GetSupportedTokens(ctx)
	if err != nil {
		s.logger.Error("paymaster.GetSupportedTokens", "err", err)
		return fee, fmt.Errorf("%w: %w", core.ErrPaymasterUnavailable, err)
	}

	if len(tokens) == 0 {
		return fee, core.ErrNoSupportedFeeToken
	}

	if !fee.Mode.Sponsored() {
		fee.GasToken = s.cfg.GasToken
		if fee.GasToken == "" {
			fee.GasToken = tokens[0].Address
		}
	}

	return fee, nil
}

// classify leaves service and submission errors alone and treats anything
// else from the relay as a rejected submission.
func classify(err error) error {
	if errors.Is(err, core.ErrServiceUnavailable) || errors.Is(err, core.ErrSubmissionFailed) {
		return err
	}

	return fmt.Errorf("%w: %w", core.ErrSubmissionFailed, err)
}
