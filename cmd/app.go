package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"

	"github.com/meridian-legal/extract-cli/internal/extract"
	"github.com/meridian-legal/extract-cli/internal/ingest"
	"github.com/meridian-legal/extract-cli/internal/model"
	"github.com/meridian-legal/extract-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.SQLitePath
		if path == "" {
			path = "extract.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// newOrchestrator builds the engine from the configured tuning file, or the
// built-in tiers when none is set.
func newOrchestrator() (*extract.Orchestrator, error) {
	tuning := extract.DefaultTuning()
	if cfg.Extract.TuningPath != "" {
		t, err := extract.LoadTuning(cfg.Extract.TuningPath)
		if err != nil {
			return nil, err
		}
		tuning = t
	}
	return extract.DefaultOrchestrator(tuning), nil
}

func newIngestReader() *ingest.Reader {
	return ingest.New(ingest.Options{
		Timeout:        time.Duration(cfg.Ingest.TimeoutSecs) * time.Second,
		MaxSizeBytes:   cfg.Ingest.MaxSizeBytes,
		RequestsPerSec: cfg.Ingest.RequestsPerSec,
		Retries:        cfg.Ingest.Retries,
		FTPUser:        cfg.Ingest.FTPUser,
		FTPPassword:    cfg.Ingest.FTPPassword,
	})
}

// resolveMode prefers the command flag over the configured default.
func resolveMode(flagValue string) (model.ExtractionMode, error) {
	s := flagValue
	if s == "" {
		s = cfg.Extract.Mode
	}
	return model.ParseMode(s)
}

// loadExistingFields reads a JSON ExtractedFields file for complement mode.
func loadExistingFields(path string) (*model.ExtractedFields, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read existing fields %s", path)
	}
	var fields model.ExtractedFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, eris.Wrapf(err, "parse existing fields %s", path)
	}
	return &fields, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
