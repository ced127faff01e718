package transfer

import (
	"github.com/pandodao/gasless-wallet/core"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

var scanColumns = []string{
	"id",
	"created_at",
	"trace_id",
	"kind",
	"status",
	"user_id",
	"from_addr",
	"to_addr",
	"amount",
	"tx_hash",
}

func scanTransfer(scanner scanner, transfer *core.Transfer) error {
	return scanner.Scan(
		&transfer.ID,
		&transfer.CreatedAt,
		&transfer.TraceID,
		&transfer.Kind,
		&transfer.Status,
		&transfer.UserID,
		&transfer.From,
		&transfer.To,
		&transfer.Amount,
		&transfer.TxHash,
	)
}
