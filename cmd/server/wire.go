//go:build wireinject
// +build wireinject

package main

import (
	"log/slog"

	"github.com/google/wire"
	"github.com/pandodao/gasless-wallet/cmd/server/cmds"
	"github.com/spf13/viper"
)

func setupApp(v *viper.Viper, logger *slog.Logger) (app, func(), error) {
	panic(wire.Build(
		storeSet,
		serviceSet,
		serverSet,
		workerSet,
		wire.Struct(new(app), "*"),
	))
}

func setupCmd(v *viper.Viper, logger *slog.Logger) (*cmds.Cmd, func(), error) {
	panic(wire.Build(
		storeSet,
		serviceSet,
		wire.Struct(new(cmds.Cmd), "*"),
	))
}
