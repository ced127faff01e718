package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/carlmjohnson/versioninfo"
	"github.com/pandodao/gasless-wallet/handler/bot"
	"github.com/pandodao/gasless-wallet/handler/telegram"
	"github.com/pandodao/gasless-wallet/worker/tracker"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var (
	opt struct {
		config string
		port   int
		debug  bool
	}

	version = "0.0.1-src"
	commit  = versioninfo.Short()
)

func main() {
	flag.StringVar(&opt.config, "config", "config.yaml", "config file path")
	flag.IntVar(&opt.port, "port", 8080, "server port")
	flag.BoolVar(&opt.debug, "debug", false, "debug mode")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	v := initViper()
	logger := initLogger()

	if args := flag.Args(); len(args) > 0 {
		cmd, cleanup, err := setupCmd(v, logger)
		if err != nil {
			logger.Error("setup failed", "err", err)
			os.Exit(1)
		}

		defer cleanup()

		if err := cmd.Run(ctx, args); err != nil {
			os.Exit(1)
		}

		return
	}

	app, cleanup, err := setupApp(v, logger)
	if err != nil {
		logger.Error("setup failed", "err", err)
		return
	}

	defer cleanup()

	logger.Info("gasless wallet server launched", "version", version, "commit", commit, "addr", app.svr.Addr)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := app.svr.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return app.svr.Shutdown(context.Background())
	})

	g.Go(func() error {
		defer app.dispatcher.Wait()
		return app.telegram.Run(ctx, app.dispatcher)
	})

	if v.GetBool("tracker.enabled") {
		g.Go(func() error {
			return app.tracker.Run(ctx)
		})
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("server exit", "err", err)
	}
}

type app struct {
	svr        *http.Server
	telegram   *telegram.Bot
	dispatcher *bot.Dispatcher
	tracker    *tracker.Tracker
	logger     *slog.Logger
}

func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if opt.debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

func initViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(opt.config)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		log.Panicln(err)
	}

	v.SetDefault("tracker.enabled", true)
	v.SetDefault("chain.token_symbol", "USDT")
	return v
}
