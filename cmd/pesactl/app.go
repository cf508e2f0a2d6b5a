package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"

	"pesaprime/internal/config"
	"pesaprime/internal/database"
	"pesaprime/internal/lock"
	"pesaprime/internal/pricefeed"
	"pesaprime/internal/services"
	"pesaprime/internal/store"
)

// app is the service stack a subcommand runs against.
type app struct {
	cfg    *config.Config
	bundle *services.Bundle
	close  func()
}

// openApp connects to the configured database, applies migrations and wires
// the services. pesactl runs alone, so wallet locks stay in-process.
func openApp(live bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	mgr, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return nil, err
	}
	if err := mgr.RunMigrations(); err != nil {
		_ = mgr.Close()
		return nil, err
	}

	bundle := services.NewBundle(store.NewGormLedger(mgr.DB()), lock.NewLocalLocker(), newFeed(cfg, live), services.Settings{
		Currency:    cfg.Currency,
		SignupBonus: cfg.SignupBonus,
	})
	return &app{cfg: cfg, bundle: bundle, close: func() { _ = mgr.Close() }}, nil
}

func newFeed(cfg *config.Config, live bool) *pricefeed.Feed {
	return pricefeed.NewDefaultFeed(pricefeed.Config{
		Live:    live || cfg.PriceFeedLive,
		Timeout: cfg.PriceFeedTimeout,
	}, cfg.Currency)
}

// printMarkdown renders md for the terminal, or writes it unchanged when
// plain is set or rendering fails.
func printMarkdown(w io.Writer, md string, plain bool) {
	if !plain {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
		if err == nil {
			if out, err := r.Render(md); err == nil {
				fmt.Fprint(w, out)
				return
			}
		}
	}
	fmt.Fprint(w, md)
}
