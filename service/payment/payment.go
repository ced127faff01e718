package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pandodao/gasless-wallet/core"
	"github.com/pandodao/gasless-wallet/store"
)

type Config struct {
	TokenSymbol  string
	HistoryLimit int
}

func New(
	custody core.CustodyService,
	transactions core.TransactionService,
	wallets core.WalletStore,
	transfers core.TransferStore,
	logger *slog.Logger,
	cfg Config,
) core.PaymentService {
	if cfg.TokenSymbol == "" {
		cfg.TokenSymbol = "USDT"
	}

	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 10
	}

	return &service{
		custody:      custody,
		transactions: transactions,
		wallets:      wallets,
		transfers:    transfers,
		logger:       logger.With("service", "payment"),
		cfg:          cfg,
	}
}

type service struct {
	custody      core.CustodyService
	transactions core.TransactionService
	wallets      core.WalletStore
	transfers    core.TransferStore
	logger       *slog.Logger
	cfg          Config
}

func (s *service) IsRegistered(ctx context.Context, userID string) (bool, error) {
	_, err := s.custody.FindByUserID(ctx, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, core.ErrNotRegistered):
		return false, nil
	default:
		s.logger.Error("custody.FindByUserID", "user", userID, "err", err)
		return false, err
	}
}

func (s *service) Register(ctx context.Context, userID, username, pin string) (string, error) {
	reply, err := s.custody.RegisterUser(ctx, userID, pin, username, "")
	if err != nil {
		if !errors.Is(err, core.ErrAlreadyRegistered) {
			s.logger.Error("custody.RegisterUser", "user", userID, "err", err)
		}

		if reply == "" {
			reply = failureText(err)
		}

		return reply, err
	}

	return reply, nil
}

func (s *service) UpdateEmail(ctx context.Context, userID, email string) (string, error) {
	if err := s.custody.UpdateEmail(ctx, userID, email); err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			return "Please enter a valid email address.", err
		}

		s.logger.Error("custody.UpdateEmail", "user", userID, "err", err)
		return failureText(err), err
	}

	return "Email saved. Your wallet is ready.", nil
}

func (s *service) VerifyPin(ctx context.Context, userID, pin string) (string, error) {
	ok, err := s.custody.VerifyPin(ctx, userID, strings.TrimSpace(pin))
	if err != nil {
		if !errors.Is(err, core.ErrNotRegistered) {
			s.logger.Error("custody.VerifyPin", "user", userID, "err", err)
		}

		return "", err
	}

	if !ok {
		return "", core.ErrIncorrectPin
	}

	wallet, err := s.custody.FindByUserID(ctx, userID)
	if err != nil {
		return "", err
	}

	return wallet.WalletAddress, nil
}

// resolveRecipient accepts a wallet address as is and otherwise looks the
// identifier up as a username.
func (s *service) resolveRecipient(ctx context.Context, identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if core.IsAddress(identifier) {
		return identifier, nil
	}

	username := strings.TrimPrefix(identifier, "@")
	if username == "" {
		return "", core.ErrRecipientNotFound
	}

	w, err := s.wallets.FindByUsername(ctx, username)
	if store.IsErrNotFound(err) {
		return "", fmt.Errorf("%w: %q", core.ErrRecipientNotFound, identifier)
	} else if errors.Is(err, core.ErrAmbiguousUsername) {
		s.logger.Error("wallets.FindByUsername", "username", username, "err", err)
		return "", err
	} else if err != nil {
		s.logger.Error("wallets.FindByUsername", "username", username, "err", err)
		return "", fmt.Errorf("%w: %w", core.ErrServiceUnavailable, err)
	}

	return w.WalletAddress, nil
}

func (s *service) Send(ctx context.Context, userID, wallet, recipient, amount string) (string, error) {
	record, err := s.custody.FindByUserID(ctx, userID)
	if err != nil {
		return failureText(err), err
	}

	if wallet != "" && core.NormalizeAddress(wallet) != core.NormalizeAddress(record.WalletAddress) {
		err := fmt.Errorf("%w: session wallet does not match record", core.ErrInvalidInput)
		s.logger.Error("Send", "user", userID, "err", err)
		return failureText(err), err
	}

	to, err := s.resolveRecipient(ctx, recipient)
	if err != nil {
		return failureText(err), err
	}

	key, err := s.custody.DecryptPrivateKey(record)
	if err != nil {
		s.logger.Error("custody.DecryptPrivateKey", "user", userID, "err", err)
		return failureText(err), err
	}

	defer clear(key)

	handle, err := s.transactions.Send(ctx, record.WalletAddress, key, to, amount)
	if err != nil {
		s.logger.Error("transactions.Send", "user", userID, "to", to, "err", err)
		return failureText(err), err
	}

	s.record(ctx, core.TransferKindSend, userID, record.WalletAddress, to, amount, handle)
	return sentText(strings.TrimSpace(amount), s.cfg.TokenSymbol, to, handle), nil
}

func (s *service) Receive(ctx context.Context, userID, wallet, amount string) (string, error) {
	if wallet == "" {
		record, err := s.custody.FindByUserID(ctx, userID)
		if err != nil {
			return failureText(err), err
		}

		wallet = record.WalletAddress
	}

	handle, err := s.transactions.Receive(ctx, wallet, amount)
	if err != nil {
		s.logger.Error("transactions.Receive", "user", userID, "err", err)
		return failureText(err), err
	}

	s.record(ctx, core.TransferKindReceive, userID, "", wallet, amount, handle)
	return receivedText(strings.TrimSpace(amount), s.cfg.TokenSymbol, wallet, handle), nil
}

// record writes the submission to the transfer ledger. The transfer is
// already in flight, so a ledger failure is only logged.
func (s *service) record(ctx context.Context, kind core.TransferKind, userID, from, to, amount string, handle *core.TxHandle) {
	minor, err := core.ScaleAmount(amount)
	if err != nil {
		return
	}

	t := &core.Transfer{
		TraceID: uuid.NewString(),
		Kind:    kind,
		Status:  core.TransferStatusSubmitted,
		UserID:  userID,
		From:    from,
		To:      to,
		Amount:  core.AmountDecimal(minor),
		TxHash:  handle.Hash,
	}

	if err := s.transfers.Create(ctx, t); err != nil {
		s.logger.Error("transfers.Create", "user", userID, "tx", handle.Hash, "err", err)
	}
}

func (s *service) SyncUsername(ctx context.Context, userID, username string) error {
	return s.custody.UpdateUsername(ctx, userID, username)
}

func (s *service) Balance(ctx context.Context, userID string) (string, error) {
	record, err := s.custody.FindByUserID(ctx, userID)
	if err != nil {
		return failureText(err), err
	}

	balance := s.transactions.GetBalance(ctx, record.WalletAddress)
	return balanceText(balance, s.cfg.TokenSymbol, record.WalletAddress), nil
}

func (s *service) History(ctx context.Context, userID string) (string, error) {
	record, err := s.custody.FindByUserID(ctx, userID)
	if err != nil {
		return failureText(err), err
	}

	events := s.transactions.GetHistory(ctx, record.WalletAddress, s.cfg.HistoryLimit)
	return historyText(events, s.cfg.TokenSymbol, record.WalletAddress), nil
}
