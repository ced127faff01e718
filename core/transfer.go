package core

import (
	"context"
	"time"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

type TransferIntent struct {
	From   string
	To     string
	Amount *uint256.Int
	Token  string
}

type TransferEvent struct {
	TxHash      string
	BlockNumber uint64
	Timestamp   time.Time
	From        string
	To          string
	Amount      *uint256.Int
}

type TransferKind string

const (
	TransferKindSend    TransferKind = "send"
	TransferKindReceive TransferKind = "receive"
)

type TransferStatus uint8

const (
	_ TransferStatus = iota
	TransferStatusSubmitted
	TransferStatusAccepted
	TransferStatusReverted
)

func (s TransferStatus) String() string {
	switch s {
	case TransferStatusSubmitted:
		return "Submitted"
	case TransferStatusAccepted:
		return "Accepted"
	case TransferStatusReverted:
		return "Reverted"
	default:
		return "Unknown"
	}
}

type Transfer struct {
	ID        uint64          `json:"id,omitempty"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
	TraceID   string          `json:"trace_id,omitempty"`
	Kind      TransferKind    `json:"kind,omitempty"`
	Status    TransferStatus  `json:"status,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	From      string          `json:"from,omitempty"`
	To        string          `json:"to,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	TxHash    string          `json:"tx_hash,omitempty"`
}

type TransferStore interface {
	Create(ctx context.Context, transfer *Transfer) error
	UpdateStatus(ctx context.Context, transfer *Transfer, to TransferStatus) error
	ListStatus(ctx context.Context, status TransferStatus, limit int) ([]*Transfer, error)
}

type TransactionService interface {
	Send(ctx context.Context, from string, signerKey []byte, to string, amount string) (*TxHandle, error)
	Receive(ctx context.Context, to string, amount string) (*TxHandle, error)
	// GetBalance never fails; read errors yield "0".
	GetBalance(ctx context.Context, address string) string
	// GetHistory never fails; it returns whatever the scan could collect.
	GetHistory(ctx context.Context, address string, limit int) []*TransferEvent
}

// CreditHook is told about every accepted Receive submission. Whether an
// external ledger debits anything before or after is up to the hook.
type CreditHook interface {
	OnCredit(ctx context.Context, intent *TransferIntent, handle *TxHandle) error
}
