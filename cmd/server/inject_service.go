package main

import (
	"context"
	"log/slog"

	"github.com/google/wire"
	"github.com/pandodao/gasless-wallet/core"
	"github.com/pandodao/gasless-wallet/service/custody"
	"github.com/pandodao/gasless-wallet/service/keys"
	"github.com/pandodao/gasless-wallet/service/payment"
	"github.com/pandodao/gasless-wallet/service/starknet"
	"github.com/pandodao/gasless-wallet/service/transaction"
	"github.com/spf13/viper"
)

var serviceSet = wire.NewSet(
	provideNodeConfig,
	starknet.NewNode,
	providePaymasterConfig,
	starknet.NewPaymaster,
	keys.New,
	providePoolSigner,
	provideCreditHook,
	provideCustodyConfig,
	custody.New,
	provideTransactionConfig,
	transaction.New,
	providePaymentConfig,
	payment.New,
)

func provideNodeConfig(v *viper.Viper) starknet.NodeConfig {
	return starknet.NodeConfig{
		URL: v.GetString("chain.rpc_url"),
	}
}

func providePaymasterConfig(v *viper.Viper) starknet.PaymasterConfig {
	return starknet.PaymasterConfig{
		URL:    v.GetString("paymaster.url"),
		APIKey: v.GetString("paymaster.api_key"),
	}
}

// providePoolSigner loads the account that funds Receive. Without a
// configured key Receive reports the service as unavailable.
func providePoolSigner(v *viper.Viper, scheme core.KeyScheme) (core.Signer, func(), error) {
	raw := v.GetString("pool.private_key")
	if raw == "" {
		return nil, func() {}, nil
	}

	key, err := keys.ParsePrivateKey(raw)
	if err != nil {
		return nil, nil, err
	}

	defer clear(key)

	signer, err := scheme.NewSigner(v.GetString("pool.address"), key)
	if err != nil {
		return nil, nil, err
	}

	return signer, signer.Zero, nil
}

type creditLog struct {
	logger *slog.Logger
}

func (c creditLog) OnCredit(_ context.Context, intent *core.TransferIntent, handle *core.TxHandle) error {
	c.logger.Info("credit submitted", "to", intent.To, "amount", core.FormatAmount(intent.Amount), "tx", handle.Hash)
	return nil
}

func provideCreditHook(logger *slog.Logger) core.CreditHook {
	return creditLog{logger: logger.With("hook", "credit")}
}

func provideCustodyConfig(v *viper.Viper) custody.Config {
	v.SetDefault("wallet.deploy_entrypoint", "get_counter")

	return custody.Config{
		EncryptionKey:    v.GetString("wallet.encryption_key"),
		AccountClassHash: v.GetString("wallet.account_class_hash"),
		DeployContract:   v.GetString("wallet.deploy_contract"),
		DeployEntrypoint: v.GetString("wallet.deploy_entrypoint"),
		FeeMode:          core.FeeMode(v.GetString("paymaster.mode")),
		GasToken:         v.GetString("paymaster.gas_token"),
	}
}

func provideTransactionConfig(v *viper.Viper) transaction.Config {
	return transaction.Config{
		TokenAddress:     v.GetString("chain.token_address"),
		FeeMode:          core.FeeMode(v.GetString("paymaster.mode")),
		GasToken:         v.GetString("paymaster.gas_token"),
		HistoryChunkSize: v.GetInt("history.chunk_size"),
		HistoryMaxDepth:  v.GetInt("history.max_depth"),
		HistoryWorkers:   v.GetInt("history.workers"),
	}
}

func providePaymentConfig(v *viper.Viper) payment.Config {
	return payment.Config{
		TokenSymbol:  v.GetString("chain.token_symbol"),
		HistoryLimit: v.GetInt("history.limit"),
	}
}
