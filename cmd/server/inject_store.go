package main

import (
	"github.com/google/wire"
	"github.com/pandodao/gasless-wallet/core"
	"github.com/pandodao/gasless-wallet/store/db"
	"github.com/pandodao/gasless-wallet/store/session"
	"github.com/pandodao/gasless-wallet/store/transfer"
	"github.com/pandodao/gasless-wallet/store/wallet"
	"github.com/spf13/viper"
	"github.com/tsenart/nap"
)

const driverMemory = "memory"

var storeSet = wire.NewSet(
	provideDB,
	provideWalletStore,
	provideSessionStore,
	provideTransferStore,
)

// provideDB returns a nil *nap.DB for the memory driver; the store
// providers fall back to their in-process implementations then.
func provideDB(v *viper.Viper) (*nap.DB, func(), error) {
	v.SetDefault("db.driver", "postgres")

	driver := v.GetString("db.driver")
	if driver == driverMemory {
		return nil, func() {}, nil
	}

	dsn := v.GetString("db.dsn")
	for _, replica := range v.GetStringSlice("db.replicas") {
		dsn += ";" + replica
	}

	conn, err := nap.Open(driver, dsn)
	if err != nil {
		return nil, nil, err
	}

	if err := db.Migrate(conn.Master()); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	return conn, func() { _ = conn.Close() }, nil
}

func provideWalletStore(conn *nap.DB) core.WalletStore {
	if conn == nil {
		return wallet.NewMemory()
	}

	return wallet.New(conn)
}

func provideSessionStore(v *viper.Viper, conn *nap.DB) core.SessionStore {
	v.SetDefault("session.driver", "db")
	v.SetDefault("session.size", 100_000)

	if conn == nil || v.GetString("session.driver") == driverMemory {
		return session.NewMemory(v.GetInt("session.size"))
	}

	return session.New(conn)
}

func provideTransferStore(conn *nap.DB) core.TransferStore {
	if conn == nil {
		return transfer.NewMemory()
	}

	return transfer.New(conn)
}
