package starknet

import (
	"context"
	"sync"

	"github.com/asaskevich/govalidator"
	"github.com/pandodao/gasless-wallet/core"
	"github.com/pandodao/gasless-wallet/service/keys"
	"github.com/zyedidia/generic/cache"
)

type NodeConfig struct {
	URL string `valid:"required,url"`
}

func NewNode(cfg NodeConfig) core.NodeService {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &node{
		client:    dial(cfg.URL, nil),
		selectors: cache.New[string, string](64),
	}
}

type node struct {
	client *rpcClient

	selectors *cache.Cache[string, string]
	mux       sync.Mutex
}

func (n *node) selector(entrypoint string) string {
	n.mux.Lock()
	defer n.mux.Unlock()

	if v, ok := n.selectors.Get(entrypoint); ok {
		return v
	}

	v := keys.Selector(entrypoint)
	n.selectors.Put(entrypoint, v)
	return v
}

func (n *node) Call(ctx context.Context, c core.Call) ([]string, error) {
	params := callParams{
		Request: functionCall{
			ContractAddress:    c.ContractAddress,
			EntryPointSelector: n.selector(c.Entrypoint),
			Calldata:           c.Calldata,
		},
		BlockID: "latest",
	}

	if params.Request.Calldata == nil {
		params.Request.Calldata = []string{}
	}

	var result []string
	if err := n.client.call(ctx, "starknet_call", params, &result, core.ErrInvalidInput); err != nil {
		return nil, err
	}

	return result, nil
}

func (n *node) BlockNumber(ctx context.Context) (uint64, error) {
	var number uint64
	err := n.client.call(ctx, "starknet_blockNumber", nil, &number, core.ErrServiceUnavailable)
	return number, err
}

func (n *node) GetBlockWithReceipts(ctx context.Context, number uint64) (*core.Block, error) {
	var b blockWithReceipts
	if err := n.client.call(ctx, "starknet_getBlockWithReceipts", blockParams{BlockID: blockID{BlockNumber: number}}, &b, core.ErrServiceUnavailable); err != nil {
		return nil, err
	}

	block := &core.Block{
		Number:    b.BlockNumber,
		Hash:      b.BlockHash,
		Timestamp: b.Timestamp,
		Receipts:  make([]*core.Receipt, 0, len(b.Transactions)),
	}

	for _, tx := range b.Transactions {
		if tx.Receipt != nil {
			block.Receipts = append(block.Receipts, tx.Receipt.toCore(b.BlockNumber))
		}
	}

	return block, nil
}

func (n *node) GetTransactionReceipt(ctx context.Context, hash string) (*core.Receipt, error) {
	var r receipt
	if err := n.client.call(ctx, "starknet_getTransactionReceipt", receiptParams{TransactionHash: hash}, &r, core.ErrServiceUnavailable); err != nil {
		return nil, err
	}

	return r.toCore(0), nil
}
