package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"wfm_order_visibility/internal/app"
	"wfm_order_visibility/internal/menu"
	"wfm_order_visibility/internal/processing"
	"wfm_order_visibility/internal/settings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/term"
)

func main() {
	setupEnvironment()
	log.Debug().Msg("Starting application")

	cfg := app.LoadConfig()

	store, err := settings.Load(afero.NewOsFs(), cfg.SettingsFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.SettingsFile).Msg("Failed to load settings")
	}

	var saveOnce sync.Once
	save := func() {
		saveOnce.Do(func() {
			if err := store.Save(); err != nil {
				log.Error().Err(err).Str("path", store.Path()).Msg("Failed to save settings")
				return
			}
			log.Debug().Str("path", store.Path()).Msg("Settings saved")
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
		cancel()
		save()
		os.Exit(1)
	}()

	marketClient := cfg.NewMarketClient(store)
	evaluator := processing.NewEvaluator(marketClient, store)

	unattended := !term.IsTerminal(int(os.Stdin.Fd()))
	opts := []menu.Option{
		menu.WithUnattended(unattended),
		menu.WithCallCounter(marketClient),
	}

	notifier := cfg.NewNotificationClient()
	if notifier.Enabled() {
		opts = append(opts, menu.WithPassHook("notification", notifier.NotifyUpdatePass))
	}

	recorder, err := cfg.NewAuditRecorder(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Audit log unavailable, continuing without it")
	} else if recorder != nil {
		opts = append(opts, menu.WithPassHook("audit", recorder.RecordUpdatePass))
	}

	log.Debug().Bool("unattended", unattended).Msg("Starting menu")
	session := menu.NewSession(store, evaluator, os.Stdin, os.Stdout, opts...)
	runErr := session.Run(ctx)

	save()
	if runErr != nil {
		log.Error().Err(runErr).Msg("Session ended with an error")
		os.Exit(1)
	}
}
