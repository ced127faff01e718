package main

import (
	"github.com/google/wire"
	"github.com/pandodao/gasless-wallet/worker/tracker"
	"github.com/spf13/viper"
)

var workerSet = wire.NewSet(
	provideTrackerConfig,
	tracker.New,
)

func provideTrackerConfig(v *viper.Viper) tracker.Config {
	return tracker.Config{
		TokenSymbol: v.GetString("chain.token_symbol"),
	}
}
