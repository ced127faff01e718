package transaction

import (
	"context"
	"fmt"

	"github.com/pandodao/gasless-wallet/core"
)

func (s *service) GetBalance(ctx context.Context, address string) string {
	v, err, _ := s.balances.Do(core.NormalizeAddress(address), func() (any, error) {
		return s.readBalance(ctx, address)
	})

	if err != nil {
		s.logger.Error("readBalance", "address", address, "err", err)
		return "0"
	}

	return v.(string)
}

func (s *service) readBalance(ctx context.Context, address string) (string, error) {
	if !core.IsAddress(address) {
		return "", core.ErrInvalidAddress
	}

	result, err := s.node.Call(ctx, core.Call{
		ContractAddress: s.cfg.TokenAddress,
		Entrypoint:      "balanceOf",
		Calldata:        []string{address},
	})
	if err != nil {
		return "", err
	}

	if len(result) < 2 {
		return "", fmt.Errorf("balanceOf returned %d words", len(result))
	}

	balance, err := core.JoinUint256(result[0], result[1])
	if err != nil {
		return "", err
	}

	return core.FormatAmount(balance), nil
}
