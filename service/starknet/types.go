package starknet

import (
	"encoding/json"

	"github.com/pandodao/gasless-wallet/core"
)

type blockID struct {
	BlockNumber uint64 `json:"block_number"`
}

type functionCall struct {
	ContractAddress    string   `json:"contract_address"`
	EntryPointSelector string   `json:"entry_point_selector"`
	Calldata           []string `json:"calldata"`
}

type callParams struct {
	Request functionCall `json:"request"`
	BlockID string       `json:"block_id"`
}

type blockParams struct {
	BlockID blockID `json:"block_id"`
}

type receiptParams struct {
	TransactionHash string `json:"transaction_hash"`
}

type event struct {
	FromAddress string   `json:"from_address"`
	Keys        []string `json:"keys"`
	Data        []string `json:"data"`
}

type receipt struct {
	TransactionHash string   `json:"transaction_hash"`
	BlockNumber     uint64   `json:"block_number,omitempty"`
	ExecutionStatus string   `json:"execution_status"`
	FinalityStatus  string   `json:"finality_status"`
	Events          []*event `json:"events"`
}

func (r *receipt) toCore(blockNumber uint64) *core.Receipt {
	out := &core.Receipt{
		TransactionHash: r.TransactionHash,
		BlockNumber:     r.BlockNumber,
		ExecutionStatus: r.ExecutionStatus,
		FinalityStatus:  r.FinalityStatus,
		Events:          make([]*core.ChainEvent, 0, len(r.Events)),
	}

	if out.BlockNumber == 0 {
		out.BlockNumber = blockNumber
	}

	for _, e := range r.Events {
		out.Events = append(out.Events, &core.ChainEvent{
			FromAddress: e.FromAddress,
			Keys:        e.Keys,
			Data:        e.Data,
		})
	}

	return out
}

type blockWithReceipts struct {
	BlockNumber  uint64 `json:"block_number"`
	BlockHash    string `json:"block_hash"`
	Timestamp    int64  `json:"timestamp"`
	Transactions []struct {
		Receipt *receipt `json:"receipt"`
	} `json:"transactions"`
}

type call struct {
	To       string   `json:"to"`
	Selector string   `json:"selector"`
	Calldata []string `json:"calldata"`
}

type deployment struct {
	Address   string   `json:"address"`
	ClassHash string   `json:"class_hash"`
	Salt      string   `json:"salt"`
	Calldata  []string `json:"calldata"`
	Version   int      `json:"version"`
}

type feeMode struct {
	Mode     core.FeeMode `json:"mode"`
	GasToken string       `json:"gas_token,omitempty"`
}

type executionParameters struct {
	Version string  `json:"version"`
	FeeMode feeMode `json:"fee_mode"`
}

type invoke struct {
	UserAddress string          `json:"user_address"`
	Calls       []call          `json:"calls,omitempty"`
	TypedData   json.RawMessage `json:"typed_data,omitempty"`
	Signature   []string        `json:"signature,omitempty"`
}

const (
	txTypeInvoke          = "invoke"
	txTypeDeployAndInvoke = "deploy_and_invoke"
)

type userTransaction struct {
	Type       string      `json:"type"`
	Deployment *deployment `json:"deployment,omitempty"`
	Invoke     *invoke     `json:"invoke,omitempty"`
}

type paymasterParams struct {
	Transaction userTransaction     `json:"transaction"`
	Parameters  executionParameters `json:"parameters"`
}

type supportedToken struct {
	TokenAddress string `json:"token_address"`
	Decimals     int    `json:"decimals"`
	PriceInStrk  string `json:"price_in_strk,omitempty"`
}

type feeEstimate struct {
	GasTokenPriceInStrk       string `json:"gas_token_price_in_strk"`
	EstimatedFeeInStrk        string `json:"estimated_fee_in_strk"`
	EstimatedFeeInGasToken    string `json:"estimated_fee_in_gas_token"`
	SuggestedMaxFeeInStrk     string `json:"suggested_max_fee_in_strk"`
	SuggestedMaxFeeInGasToken string `json:"suggested_max_fee_in_gas_token"`
}

type builtTransaction struct {
	Type       string              `json:"type"`
	Deployment *deployment         `json:"deployment,omitempty"`
	TypedData  json.RawMessage     `json:"typed_data,omitempty"`
	Parameters executionParameters `json:"parameters"`
	Fee        feeEstimate         `json:"fee"`
}

type executeResult struct {
	TransactionHash string `json:"transaction_hash"`
	TrackingID      string `json:"tracking_id"`
}
