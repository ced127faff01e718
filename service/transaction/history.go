package transaction

import (
	"context"
	"sort"
	"time"

	"github.com/holiman/uint256"
	"github.com/pandodao/gasless-wallet/core"
	"github.com/pandodao/gasless-wallet/service/keys"
	"golang.org/x/sync/errgroup"
)

func (s *service) GetHistory(ctx context.Context, address string, limit int) []*core.TransferEvent {
	events := []*core.TransferEvent{}
	if limit <= 0 {
		return events
	}

	if !core.IsAddress(address) {
		s.logger.Error("GetHistory", "address", address, "err", core.ErrInvalidAddress)
		return events
	}

	head, err := s.node.BlockNumber(ctx)
	if err != nil {
		s.logger.Error("node.BlockNumber", "err", err)
		return events
	}

	var (
		target = core.NormalizeAddress(address)
		token  = core.NormalizeAddress(s.cfg.TokenAddress)
		depth  = uint64(s.cfg.HistoryMaxDepth)
		chunk  = uint64(s.cfg.HistoryChunkSize)
		lowest uint64
	)

	if head+1 > depth {
		lowest = head + 1 - depth
	}

	for end := head; ctx.Err() == nil; {
		start := lowest
		if end >= lowest+chunk {
			start = end - chunk + 1
		}

		events = append(events, s.scanRange(ctx, start, end, target, token)...)
		if len(events) >= limit || start <= lowest {
			break
		}

		end = start - 1
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].BlockNumber > events[j].BlockNumber
	})

	if len(events) > limit {
		events = events[:limit]
	}

	return events
}

// scanRange fetches blocks [start, end] concurrently and returns the
// matching events, newest block first. Blocks that fail to load are skipped.
func (s *service) scanRange(ctx context.Context, start, end uint64, target, token string) []*core.TransferEvent {
	found := make([][]*core.TransferEvent, end-start+1)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.HistoryWorkers)

	for n := start; n <= end; n++ {
		n := n
		g.Go(func() error {
			block, err := s.node.GetBlockWithReceipts(ctx, n)
			if err != nil {
				s.logger.Error("node.GetBlockWithReceipts", "block", n, "err", err)
				return nil
			}

			found[n-start] = matchTransfers(block, target, token)
			return nil
		})
	}

	_ = g.Wait()

	var events []*core.TransferEvent
	for i := len(found) - 1; i >= 0; i-- {
		events = append(events, found[i]...)
	}

	return events
}

var transferKey = keys.Selector("Transfer")

// decodeTransfer reads a token Transfer event. Both layouts are accepted:
// from and to as indexed keys with the amount in data, or everything in
// data after the selector key.
func decodeTransfer(e *core.ChainEvent) (from, to string, amount *uint256.Int, ok bool) {
	if len(e.Keys) == 0 || core.NormalizeAddress(e.Keys[0]) != transferKey {
		return "", "", nil, false
	}

	var words []string
	switch {
	case len(e.Keys) >= 3 && len(e.Data) >= 2:
		words = []string{e.Keys[1], e.Keys[2], e.Data[0], e.Data[1]}
	case len(e.Keys) == 1 && len(e.Data) >= 4:
		words = e.Data[:4]
	default:
		return "", "", nil, false
	}

	amount, err := core.JoinUint256(words[2], words[3])
	if err != nil {
		return "", "", nil, false
	}

	return core.NormalizeAddress(words[0]), core.NormalizeAddress(words[1]), amount, true
}

func matchTransfers(block *core.Block, target, token string) []*core.TransferEvent {
	var events []*core.TransferEvent

	for _, r := range block.Receipts {
		if r.ExecutionStatus == core.ExecutionStatusReverted {
			continue
		}

		for _, e := range r.Events {
			if core.NormalizeAddress(e.FromAddress) != token {
				continue
			}

			from, to, amount, ok := decodeTransfer(e)
			if !ok || (from != target && to != target) {
				continue
			}

			number := r.BlockNumber
			if number == 0 {
				number = block.Number
			}

			events = append(events, &core.TransferEvent{
				TxHash:      r.TransactionHash,
				BlockNumber: number,
				Timestamp:   time.Unix(block.Timestamp, 0),
				From:        from,
				To:          to,
				Amount:      amount,
			})
		}
	}

	return events
}
