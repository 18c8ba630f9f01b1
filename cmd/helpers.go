package main

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/dealerworks/reconcile-cli/internal/ingest"
	"github.com/dealerworks/reconcile-cli/internal/seed"
	"github.com/dealerworks/reconcile-cli/internal/session"
	"github.com/dealerworks/reconcile-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "reconcile.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// loadOrder reads an order seed file (YAML, or a dealer XLSX line-item
// sheet), or the built-in demo order when path is empty.
func loadOrder(path string) (*seed.Order, error) {
	if path == "" {
		return seed.Demo(), nil
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ingest.ParseOrderXLSX(path, ingest.Options{})
	}
	return seed.Load(path)
}

// sessionOptions maps config onto session construction options.
func sessionOptions() session.Options {
	return session.Options{
		Surcharges:   cfg.Warranty.Surcharges,
		AutoFixDelay: cfg.AutoFix.Delay(),
	}
}

// sessionRecord snapshots a session for persistence.
func sessionRecord(s *session.Session) store.SessionRecord {
	summary := s.Summary()
	return store.SessionRecord{
		ID:         s.ID,
		OrderID:    s.OrderID,
		OrderName:  s.OrderName,
		Step:       summary.Step,
		Approved:   summary.Approved,
		OpenIssues: summary.OpenIssues,
		Items:      s.Items("all"),
		CreatedAt:  s.CreatedAt,
	}
}
