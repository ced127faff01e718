package starknet

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/holiman/uint256"
	"github.com/pandodao/gasless-wallet/core"
	"github.com/pandodao/gasless-wallet/service/keys"
	"github.com/pandodao/generic"
)

const apiKeyHeader = "x-paymaster-api-key"

type PaymasterConfig struct {
	URL    string `valid:"required,url"`
	APIKey string
}

func NewPaymaster(cfg PaymasterConfig, logger *slog.Logger) core.PaymasterService {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	header := http.Header{}
	if cfg.APIKey != "" {
		header.Set(apiKeyHeader, cfg.APIKey)
	}

	return &paymaster{
		client: dial(cfg.URL, header),
		logger: logger.With("service", "paymaster"),
	}
}

type paymaster struct {
	client *rpcClient
	logger *slog.Logger
}

func (p *paymaster) IsAvailable(ctx context.Context) (bool, error) {
	var ok bool
	err := p.client.call(ctx, "paymaster_isAvailable", nil, &ok, core.ErrServiceUnavailable)
	return ok, err
}

func (p *paymaster) GetSupportedTokens(ctx context.Context) ([]*core.FeeToken, error) {
	var tokens []supportedToken
	if err := p.client.call(ctx, "paymaster_getSupportedTokens", nil, &tokens, core.ErrServiceUnavailable); err != nil {
		return nil, err
	}

	return generic.MapSlice(tokens, func(t supportedToken) *core.FeeToken {
		return &core.FeeToken{Address: t.TokenAddress, Decimals: t.Decimals}
	}), nil
}

func (p *paymaster) EstimateFee(ctx context.Context, tx *core.PaymasterTransaction) (*core.FeeEstimate, error) {
	built, err := p.build(ctx, tx)
	if err != nil {
		return nil, err
	}

	return toFeeEstimate(tx.Fee.GasToken, built.Fee)
}

func (p *paymaster) Submit(ctx context.Context, tx *core.PaymasterTransaction, signer core.Signer, maxFee *uint256.Int) (*core.TxHandle, error) {
	built, err := p.build(ctx, tx)
	if err != nil {
		return nil, err
	}

	if maxFee != nil {
		estimate, err := toFeeEstimate(tx.Fee.GasToken, built.Fee)
		if err != nil {
			return nil, err
		}

		if estimate.SuggestedMaxFee != nil && estimate.SuggestedMaxFee.Gt(maxFee) {
			return nil, fmt.Errorf("%w: fee %s exceeds max fee %s", core.ErrSubmissionFailed, estimate.SuggestedMaxFee.Dec(), maxFee.Dec())
		}
	}

	// the relay returns the message to sign as typed data; its digest is
	// what the account signs
	digest := keys.Keccak250(built.TypedData).Bytes32()
	signature, err := signer.Sign(digest[:])
	if err != nil {
		return nil, fmt.Errorf("%w: sign: %w", core.ErrSubmissionFailed, err)
	}

	params := paymasterParams{
		Transaction: userTransaction{
			Type:       built.Type,
			Deployment: built.Deployment,
			Invoke: &invoke{
				UserAddress: tx.Account,
				TypedData:   built.TypedData,
				Signature:   signature,
			},
		},
		Parameters: built.Parameters,
	}

	if params.Transaction.Type == "" {
		params.Transaction.Type = txType(tx)
	}

	var result executeResult
	if err := p.client.call(ctx, "paymaster_executeTransaction", params, &result, core.ErrSubmissionFailed); err != nil {
		p.logger.Error("paymaster_executeTransaction", "account", tx.Account, "err", err)
		return nil, err
	}

	return &core.TxHandle{
		Hash:       result.TransactionHash,
		TrackingID: result.TrackingID,
	}, nil
}

func (p *paymaster) build(ctx context.Context, tx *core.PaymasterTransaction) (*builtTransaction, error) {
	params := paymasterParams{
		Transaction: userTransaction{
			Type: txType(tx),
			Invoke: &invoke{
				UserAddress: tx.Account,
				Calls: generic.MapSlice(tx.Calls, func(c core.Call) call {
					calldata := c.Calldata
					if calldata == nil {
						calldata = []string{}
					}

					return call{To: c.ContractAddress, Selector: keys.Selector(c.Entrypoint), Calldata: calldata}
				}),
			},
		},
		Parameters: executionParameters{
			Version: "0x1",
			FeeMode: feeMode{Mode: tx.Fee.Mode},
		},
	}

	if !tx.Fee.Mode.Sponsored() {
		params.Parameters.FeeMode.GasToken = tx.Fee.GasToken
	}

	if d := tx.Deployment; d != nil {
		params.Transaction.Deployment = &deployment{
			Address:   d.Address,
			ClassHash: d.ClassHash,
			Salt:      d.Salt,
			Calldata:  d.Calldata,
			Version:   d.Version,
		}
	}

	var built builtTransaction
	if err := p.client.call(ctx, "paymaster_buildTransaction", params, &built, core.ErrSubmissionFailed); err != nil {
		p.logger.Error("paymaster_buildTransaction", "account", tx.Account, "err", err)
		return nil, err
	}

	if built.Deployment == nil {
		built.Deployment = params.Transaction.Deployment
	}

	return &built, nil
}

func txType(tx *core.PaymasterTransaction) string {
	if tx.Deployment != nil {
		return txTypeDeployAndInvoke
	}

	return txTypeInvoke
}

func toFeeEstimate(gasToken string, fee feeEstimate) (*core.FeeEstimate, error) {
	out := &core.FeeEstimate{GasToken: gasToken}

	if fee.EstimatedFeeInGasToken != "" {
		v, err := core.ParseFelt(fee.EstimatedFeeInGasToken)
		if err != nil {
			return nil, fmt.Errorf("%w: estimated fee: %w", core.ErrServiceUnavailable, err)
		}

		out.EstimatedFee = v
	}

	if fee.SuggestedMaxFeeInGasToken != "" {
		v, err := core.ParseFelt(fee.SuggestedMaxFeeInGasToken)
		if err != nil {
			return nil, fmt.Errorf("%w: suggested max fee: %w", core.ErrServiceUnavailable, err)
		}

		out.SuggestedMaxFee = v
	}

	return out, nil
}
