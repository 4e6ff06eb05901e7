package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/jalad-shrimali/opsdash/config"
	"github.com/jalad-shrimali/opsdash/handlers"
	"github.com/jalad-shrimali/opsdash/snapshot"
	"github.com/jalad-shrimali/opsdash/source"
)

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "opsdash",
		Usage: "operational dashboard: load report sheets, filter and aggregate them",
		Flags: config.Flags(),
		Commands: []*cli.Command{
			{Name: "serve", Usage: "serve the dashboard API", Action: serve},
			exportCommand,
			{Name: "inspect", Usage: "load every table once and report what was parsed", Action: inspect},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, eris.ToString(err, false))
		os.Exit(1)
	}
}

func newLogger(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	var log zerolog.Logger
	if format == "console" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(lvl).With().Timestamp().Logger()
}

/* ──────────── wiring ──────────── */

type env struct {
	cfg    config.Config
	log    zerolog.Logger
	src    source.Source
	loader *snapshot.Loader
	close  func() error
}

func setup(c *cli.Context) (*env, error) {
	cfg, err := config.FromContext(c)
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg.LogLevel, cfg.LogFormat)

	tables, err := cfg.Tables()
	if err != nil {
		return nil, err
	}
	src, closeSrc, err := cfg.OpenSource(c.Context, log)
	if err != nil {
		return nil, err
	}
	log.Info().Str("source", cfg.Source).Int("tables", len(tables)).Msg("configured")
	return &env{
		cfg:    cfg,
		log:    log,
		src:    src,
		loader: snapshot.NewLoader(src, tables, cfg.FetchTimeout, log),
		close:  closeSrc,
	}, nil
}

func serve(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the API answers 503 until a load succeeds
	if _, err := a.loader.Refresh(ctx); err != nil {
		a.log.Error().Err(err).Msg("initial load failed")
	}

	srv := &http.Server{
		Addr: a.cfg.Listen,
		Handler: handlers.New(a.loader, a.src, handlers.Settings{
			Event:     a.cfg.Event,
			TrendDays: a.cfg.TrendDays,
		}, a.log).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.cfg.Listen).Msg("server started")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "listen")
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
