package transfer

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/pandodao/gasless-wallet/core"
	"github.com/tsenart/nap"
)

func New(db *nap.DB) core.TransferStore {
	return &store{db: db}
}

type store struct {
	db *nap.DB
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (s *store) Create(ctx context.Context, transfer *core.Transfer) error {
	b := psql.Insert("transfers").
		Columns("trace_id", "kind", "status", "user_id", "from_addr", "to_addr", "amount", "tx_hash").
		Values(transfer.TraceID, transfer.Kind, transfer.Status, transfer.UserID, transfer.From, transfer.To, transfer.Amount, transfer.TxHash).
		Suffix("RETURNING id, created_at")

	return b.RunWith(s.db).QueryRowContext(ctx).Scan(&transfer.ID, &transfer.CreatedAt)
}

func (s *store) UpdateStatus(ctx context.Context, transfer *core.Transfer, to core.TransferStatus) error {
	b := psql.Update("transfers").
		Set("status", to).
		Where("id = ? AND status = ?", transfer.ID, transfer.Status)
	result, err := b.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return fmt.Errorf("optimistic lock failed")
	}

	transfer.Status = to
	return nil
}

func (s *store) ListStatus(ctx context.Context, status core.TransferStatus, limit int) ([]*core.Transfer, error) {
	b := psql.Select(scanColumns...).
		From("transfers").
		Where("status = ?", status).
		OrderBy("id").
		Limit(uint64(limit))

	rows, err := b.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var transfers []*core.Transfer
	for rows.Next() {
		var transfer core.Transfer
		if err := scanTransfer(rows, &transfer); err != nil {
			return nil, err
		}

		transfers = append(transfers, &transfer)
	}

	return transfers, rows.Err()
}
