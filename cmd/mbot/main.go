package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/EgorLis/mbot/internal/bot"
	"github.com/EgorLis/mbot/internal/config"
	"github.com/EgorLis/mbot/internal/gateway"
	"github.com/EgorLis/mbot/internal/health"
	"github.com/EgorLis/mbot/internal/logging"
	"github.com/EgorLis/mbot/internal/metrics"
	"github.com/EgorLis/mbot/internal/rollcall"
	"github.com/EgorLis/mbot/internal/tts"
)

// задаётся при сборке: -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		envFile     string
		showVersion bool
	)
	flags := pflag.NewFlagSet("mbot", pflag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "bot config YAML (overrides BOT_CONFIG)")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	flags.BoolVar(&showVersion, "version", false, "print version and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Println("mbot", version)
		return nil
	}

	cfg, err := config.LoadEnv(envFile)
	if err != nil {
		return err
	}
	if configPath != "" {
		cfg.BotConfig = configPath
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.SetDefault(log)

	store := config.NewStore(cfg.BotConfig)
	if err := store.Load(); err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	m := metrics.New(reg)
	rollcalls := rollcall.NewRegistry()
	metrics.RegisterActiveRollCalls(reg, rollcalls.Active)

	gw := gateway.New(gateway.Config{URL: cfg.GatewayURL, Token: cfg.BotToken}, log.With("component", "gateway"))

	b := bot.New(bot.Deps{
		Platform:  gw,
		Config:    store,
		RollCalls: rollcalls,
		Speaker:   newSpeaker(cfg, log),
		Metrics:   m,
		Resources: cfg.ResourcesDir,
		Log:       log.With("component", "bot"),
	})
	b.AttachGateway(gw)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := health.New(cfg.HTTPAddr, gw.IsConnected, metrics.Handler(reg), log.With("component", "health"))

	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("start bot: %w", err)
	}
	log.Info("running… press Ctrl+C to stop", "version", version)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		b.Stop()
		return nil
	})
	return g.Wait()
}

func newSpeaker(cfg *config.Env, log *slog.Logger) tts.Speaker {
	log = log.With("component", "tts")
	switch cfg.TTSProvider {
	case "azure":
		return tts.NewGuarded("azure", tts.NewAzure(tts.AzureConfig{
			TokenEndpoint:   cfg.AzureTokenEndpoint,
			TTSEndpoint:     cfg.AzureTTSEndpoint,
			SubscriptionKey: cfg.AzureSubscriptionKey,
		}), log)
	default:
		return tts.NewGuarded("voicerss", tts.NewVoiceRSS(cfg.VoiceRSSToken), log)
	}
}
