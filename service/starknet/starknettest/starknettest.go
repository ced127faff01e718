// Package starknettest provides in-memory node and paymaster doubles for
// tests of packages that talk to the chain.
package starknettest

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/holiman/uint256"
	"github.com/pandodao/gasless-wallet/core"
	"github.com/pandodao/gasless-wallet/service/keys"
)

type Paymaster struct {
	mux sync.Mutex

	Available    bool
	AvailableErr error
	Tokens       []*core.FeeToken
	Estimate     *core.FeeEstimate
	SubmitErr    error

	Estimated []*core.PaymasterTransaction
	Submitted []*core.PaymasterTransaction
	MaxFees   []*uint256.Int
	Signers   []string

	seq int
}

// NewPaymaster returns an available relay that accepts one fee token.
func NewPaymaster() *Paymaster {
	return &Paymaster{
		Available: true,
		Tokens:    []*core.FeeToken{{Address: "0x53c91253bc9682c04929ca02ed00b3e423f6710d2ee7e0d5ebb06f3ecf368a8", Decimals: 6}},
		Estimate: &core.FeeEstimate{
			EstimatedFee:    uint256.NewInt(100),
			SuggestedMaxFee: uint256.NewInt(150),
		},
	}
}

func (p *Paymaster) IsAvailable(context.Context) (bool, error) {
	return p.Available, p.AvailableErr
}

func (p *Paymaster) GetSupportedTokens(context.Context) ([]*core.FeeToken, error) {
	return p.Tokens, nil
}

func (p *Paymaster) EstimateFee(_ context.Context, tx *core.PaymasterTransaction) (*core.FeeEstimate, error) {
	p.mux.Lock()
	defer p.mux.Unlock()

	p.Estimated = append(p.Estimated, tx)
	return p.Estimate, nil
}

func (p *Paymaster) Submit(_ context.Context, tx *core.PaymasterTransaction, signer core.Signer, maxFee *uint256.Int) (*core.TxHandle, error) {
	p.mux.Lock()
	defer p.mux.Unlock()

	if p.SubmitErr != nil {
		return nil, p.SubmitErr
	}

	if _, err := signer.Sign(make([]byte, 32)); err != nil {
		return nil, err
	}

	p.seq++
	p.Submitted = append(p.Submitted, tx)
	p.MaxFees = append(p.MaxFees, maxFee)
	p.Signers = append(p.Signers, signer.Address())

	return &core.TxHandle{
		Hash:       "0x" + strconv.FormatInt(int64(0xfeed0000+p.seq), 16),
		TrackingID: strconv.Itoa(p.seq),
	}, nil
}

func (p *Paymaster) SubmittedCount() int {
	p.mux.Lock()
	defer p.mux.Unlock()

	return len(p.Submitted)
}

type Node struct {
	mux sync.Mutex

	Head      uint64
	HeadErr   error
	Blocks    map[uint64]*core.Block
	BlockErrs map[uint64]error
	Receipts  map[string]*core.Receipt
	// Results answers Call by entrypoint name.
	Results map[string][]string
	CallErr error

	Fetched []uint64
}

func NewNode() *Node {
	return &Node{
		Blocks:    map[uint64]*core.Block{},
		BlockErrs: map[uint64]error{},
		Receipts:  map[string]*core.Receipt{},
		Results:   map[string][]string{},
	}
}

func (n *Node) Call(_ context.Context, call core.Call) ([]string, error) {
	if n.CallErr != nil {
		return nil, n.CallErr
	}

	result, ok := n.Results[call.Entrypoint]
	if !ok {
		return nil, fmt.Errorf("%w: entrypoint %s not found", core.ErrInvalidInput, call.Entrypoint)
	}

	return result, nil
}

func (n *Node) BlockNumber(context.Context) (uint64, error) {
	return n.Head, n.HeadErr
}

func (n *Node) GetBlockWithReceipts(_ context.Context, number uint64) (*core.Block, error) {
	n.mux.Lock()
	defer n.mux.Unlock()

	n.Fetched = append(n.Fetched, number)

	if err := n.BlockErrs[number]; err != nil {
		return nil, err
	}

	if b, ok := n.Blocks[number]; ok {
		return b, nil
	}

	return &core.Block{Number: number}, nil
}

func (n *Node) GetTransactionReceipt(_ context.Context, hash string) (*core.Receipt, error) {
	n.mux.Lock()
	defer n.mux.Unlock()

	r, ok := n.Receipts[hash]
	if !ok {
		return nil, fmt.Errorf("%w: receipt %s not found", core.ErrServiceUnavailable, hash)
	}

	return r, nil
}

func (n *Node) SetReceipt(r *core.Receipt) {
	n.mux.Lock()
	defer n.mux.Unlock()

	n.Receipts[r.TransactionHash] = r
}

// AddTransfer records a token Transfer event in block number.
func (n *Node) AddTransfer(number uint64, token, txHash, from, to string, amount uint64) {
	low, high := core.SplitUint256(uint256.NewInt(amount))
	n.AddEvent(number, txHash, &core.ChainEvent{
		FromAddress: token,
		Keys:        []string{keys.Selector("Transfer")},
		Data:        []string{from, to, low, high},
	})
}

// AddEvent records a successful transaction emitting e in block number.
func (n *Node) AddEvent(number uint64, txHash string, e *core.ChainEvent) {
	n.mux.Lock()
	defer n.mux.Unlock()

	b, ok := n.Blocks[number]
	if !ok {
		b = &core.Block{Number: number, Timestamp: int64(1_700_000_000 + number)}
		n.Blocks[number] = b
	}

	b.Receipts = append(b.Receipts, &core.Receipt{
		TransactionHash: txHash,
		BlockNumber:     number,
		ExecutionStatus: core.ExecutionStatusSucceeded,
		Events:          []*core.ChainEvent{e},
	})
}

func (n *Node) FetchedCount() int {
	n.mux.Lock()
	defer n.mux.Unlock()

	return len(n.Fetched)
}
