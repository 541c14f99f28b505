package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"simops/internal/bot"
	"simops/internal/config"
	"simops/internal/logger"
	"simops/internal/notify"
	"simops/internal/pipeline"
	"simops/internal/sources"
	"simops/internal/sources/sheets"
	"simops/internal/sources/xlsx"
	"simops/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log := logger.Named("pachka-bot")

	table, err := config.LoadCarrierTable(cfg.CarrierTablePath)
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sink := notify.NewPachkaClient(cfg)

	var (
		src      sources.RecordSource
		exporter bot.Exporter
	)
	if s, err := makeSource(ctx, cfg); err != nil {
		log.Warn().Err(err).Msg("record source unavailable, /active and /export disabled")
	} else {
		src = s
		exporter = pipeline.NewExportService(db, cfg, table, s, nil)
	}

	b := bot.New(cfg.PachkaBotName, sink, src, exporter, bot.ColumnsFromConfig(cfg))
	server := bot.NewServer(b)

	if err := sink.Send(ctx, "", fmt.Sprintf("%s запущен и готов к работе", cfg.PachkaBotName)); err != nil {
		log.Warn().Err(err).Msg("startup message failed")
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(cfg.BotListenAddr) }()

	select {
	case err := <-errCh:
		must(err)
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), time.Duration(cfg.BotShutdownTimeout)*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

func makeSource(ctx context.Context, cfg config.Config) (sources.RecordSource, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.ExportSource)) {
	case "sheets":
		return sheets.NewSource(ctx, cfg)
	case "xlsx":
		if err := cfg.Require("EXPORT_XLSX_PATH", cfg.ExportXLSXPath); err != nil {
			return nil, err
		}
		return xlsx.NewSource(cfg.ExportXLSXPath, ""), nil
	default:
		return nil, fmt.Errorf("unsupported source: %s", cfg.ExportSource)
	}
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
