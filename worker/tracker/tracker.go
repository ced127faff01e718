package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/pandodao/gasless-wallet/core"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	TokenSymbol string `valid:"required"`
}

// Tracker follows submitted transfers until the node reports a receipt,
// then settles the ledger row and tells the user how it ended.
type Tracker struct {
	transfers core.TransferStore
	node      core.NodeService
	messenger core.Messenger
	logger    *slog.Logger
	cfg       Config
}

func New(
	transfers core.TransferStore,
	node core.NodeService,
	messenger core.Messenger,
	logger *slog.Logger,
	cfg Config,
) *Tracker {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &Tracker{
		transfers: transfers,
		node:      node,
		messenger: messenger,
		logger:    logger.With("worker", "tracker"),
		cfg:       cfg,
	}
}

func (w *Tracker) Run(ctx context.Context) error {
	w.logger.Info("tracker start")

	for {
		dur := 5 * time.Second
		if w.run(ctx) == nil {
			dur = time.Second
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dur):
		}
	}
}

func (w *Tracker) run(ctx context.Context) error {
	const limit = 64
	transfers, err := w.transfers.ListStatus(ctx, core.TransferStatusSubmitted, limit)
	if err != nil {
		w.logger.Error("transfers.ListStatus", "err", err)
		return err
	}

	if len(transfers) == 0 {
		return fmt.Errorf("submitted transfers dry")
	}

	var g errgroup.Group
	g.SetLimit(10)

	settled := make([]bool, len(transfers))
	for idx := range transfers {
		idx, transfer := idx, transfers[idx]
		g.Go(func() error {
			ok, err := w.handleTransfer(ctx, transfer)
			settled[idx] = ok
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for _, ok := range settled {
		if ok {
			return nil
		}
	}

	return fmt.Errorf("no receipts yet")
}

// handleTransfer reports whether the transfer left the Submitted state.
func (w *Tracker) handleTransfer(ctx context.Context, transfer *core.Transfer) (bool, error) {
	logger := w.logger.With("transfer", transfer.TraceID, "tx", transfer.TxHash)

	receipt, err := w.node.GetTransactionReceipt(ctx, transfer.TxHash)
	if err != nil {
		logger.Debug("node.GetTransactionReceipt", "err", err)
		return false, nil
	}

	status := core.TransferStatusAccepted
	if receipt.ExecutionStatus == core.ExecutionStatusReverted {
		status = core.TransferStatusReverted
	}

	if err := w.transfers.UpdateStatus(ctx, transfer, status); err != nil {
		logger.Error("transfers.UpdateStatus", "err", err)
		return false, err
	}

	logger.Info("transfer settled", "status", status.String(), "block", receipt.BlockNumber)

	msg := &core.Message{
		UserID: transfer.UserID,
		Text:   w.settledText(transfer),
	}

	if err := w.messenger.Send(ctx, msg); err != nil {
		logger.Error("messenger.Send", "user", transfer.UserID, "err", err)
	}

	return true, nil
}

func (w *Tracker) settledText(t *core.Transfer) string {
	what := "transfer"
	if t.Kind == core.TransferKindReceive {
		what = "deposit"
	}

	amount := t.Amount.String()
	if t.Status == core.TransferStatusReverted {
		return fmt.Sprintf("Your %s of %s %s was reverted on chain. No funds were moved.\nTx: %s", what, amount, w.cfg.TokenSymbol, t.TxHash)
	}

	return fmt.Sprintf("Your %s of %s %s is confirmed.\nTx: %s", what, amount, w.cfg.TokenSymbol, t.TxHash)
}
