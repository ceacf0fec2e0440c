package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/gfdev10/modelpulse/internal/catalogue"
	"github.com/gfdev10/modelpulse/internal/config"
	"github.com/gfdev10/modelpulse/internal/httpapi"
	"github.com/gfdev10/modelpulse/internal/keys"
	"github.com/gfdev10/modelpulse/internal/logging"
	"github.com/gfdev10/modelpulse/internal/metrics"
	"github.com/gfdev10/modelpulse/internal/monitor"
	"github.com/gfdev10/modelpulse/internal/notify"
	"github.com/gfdev10/modelpulse/internal/probe"
	"github.com/gfdev10/modelpulse/internal/repo/memory"
)

func main() {
	_ = godotenv.Load() // .env is optional

	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	cat, err := catalogue.Load()
	if err != nil {
		logger.Fatal("catalogue_load_error", zap.Error(err))
	}

	ks := keys.NewStore()
	envByProvider := make(map[string]string)
	for _, p := range cat.Providers() {
		envByProvider[p.ID] = p.KeyEnv
	}
	ks.LoadEnv(envByProvider)
	if err := ks.LoadFile(cfg.KeysFile); err != nil {
		logger.Fatal("keys_file_error", zap.Error(err))
	}

	store := memory.New()
	pinger := probe.NewPinger(cfg.ProbeTimeout)
	source := monitor.NewFilteredSource(cat, ks)
	loop := monitor.NewLoop(logger, pinger, source, store, cfg.CycleInterval)
	recorder := metrics.NewRecorder(cfg.HistoryLimit)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// side consumers of the live update stream
	recCh, recUnsub := loop.Subscribe(256)
	defer recUnsub()
	go func() {
		for snap := range recCh {
			recorder.Record(snap)
		}
	}()

	if slack := notify.NewSlack(cfg.SlackWebhook); slack != nil {
		watcher := notify.NewWatcher(logger, slack, 10*time.Minute)
		alertCh, alertUnsub := loop.Subscribe(256)
		defer alertUnsub()
		go watcher.Run(ctx, alertCh)
	}

	api := httpapi.NewServer(logger, cat, ks, store, loop, source, recorder, pinger)
	api.RatePerMin = cfg.RatePerMin
	api.RateBurst = cfg.RateBurst

	srv := &http.Server{Addr: cfg.Addr, Handler: api.Router()}
	go func() {
		<-ctx.Done()
		loop.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("api_serve_error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("api_shutdown")
}
