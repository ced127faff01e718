package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/wire"
	"github.com/pandodao/gasless-wallet/core"
	"github.com/pandodao/gasless-wallet/handler/api"
	"github.com/pandodao/gasless-wallet/handler/bot"
	"github.com/pandodao/gasless-wallet/handler/hc"
	"github.com/pandodao/gasless-wallet/handler/telegram"
	"github.com/rs/cors"
	"github.com/spf13/viper"
)

var serverSet = wire.NewSet(
	provideTelegramConfig,
	telegram.New,
	wire.Bind(new(core.Messenger), new(*telegram.Bot)),
	bot.New,
	wire.Bind(new(bot.Handler), new(*bot.Machine)),
	provideDispatcherConfig,
	bot.NewDispatcher,
	api.New,
	provideServer,
)

func provideTelegramConfig(v *viper.Viper) telegram.Config {
	return telegram.Config{
		Token: v.GetString("telegram.token"),
		Debug: v.GetBool("telegram.debug"),
	}
}

func provideDispatcherConfig(v *viper.Viper) bot.DispatcherConfig {
	v.SetDefault("telegram.queue_limit", 8)

	return bot.DispatcherConfig{
		QueueLimit: v.GetInt("telegram.queue_limit"),
	}
}

func provideServer(apiHandler *api.Server) *http.Server {
	m := chi.NewMux()
	m.Use(middleware.RealIP)
	m.Use(middleware.Logger)
	m.Use(middleware.Recoverer)
	m.Use(cors.AllowAll().Handler)

	m.Mount("/api", apiHandler.Handler())
	m.Mount("/hc", hc.Handler(version, commit))

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", opt.port),
		Handler: m,
	}
}
