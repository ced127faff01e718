package core

import (
	"context"

	"github.com/holiman/uint256"
)

type Call struct {
	ContractAddress string
	Entrypoint      string
	Calldata        []string
}

type ChainEvent struct {
	FromAddress string
	Keys        []string
	Data        []string
}

type Receipt struct {
	TransactionHash string
	BlockNumber     uint64
	ExecutionStatus string
	FinalityStatus  string
	Events          []*ChainEvent
}

const (
	ExecutionStatusSucceeded = "SUCCEEDED"
	ExecutionStatusReverted  = "REVERTED"
)

type Block struct {
	Number    uint64
	Hash      string
	Timestamp int64
	Receipts  []*Receipt
}

type NodeService interface {
	Call(ctx context.Context, call Call) ([]string, error)
	BlockNumber(ctx context.Context) (uint64, error)
	GetBlockWithReceipts(ctx context.Context, number uint64) (*Block, error)
	GetTransactionReceipt(ctx context.Context, hash string) (*Receipt, error)
}

type FeeToken struct {
	Address  string
	Decimals int
}

type FeeDetails struct {
	Mode     FeeMode
	GasToken string
}

type FeeEstimate struct {
	GasToken        string
	EstimatedFee    *uint256.Int
	SuggestedMaxFee *uint256.Int
}

// DeploymentData describes an account contract that the paymaster deploys
// in the same transaction as the first invoke.
type DeploymentData struct {
	Address   string
	ClassHash string
	Salt      string
	Calldata  []string
	Version   int
}

type PaymasterTransaction struct {
	Account    string
	Calls      []Call
	Deployment *DeploymentData
	Fee        FeeDetails
}

type TxHandle struct {
	Hash       string
	TrackingID string
}

type PaymasterService interface {
	IsAvailable(ctx context.Context) (bool, error)
	GetSupportedTokens(ctx context.Context) ([]*FeeToken, error)
	EstimateFee(ctx context.Context, tx *PaymasterTransaction) (*FeeEstimate, error)
	// Submit signs the prepared transaction with signer and relays it. A nil
	// maxFee lets the relay apply its own bound (sponsored mode).
	Submit(ctx context.Context, tx *PaymasterTransaction, signer Signer, maxFee *uint256.Int) (*TxHandle, error)
}
