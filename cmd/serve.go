package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridian-legal/extract-cli/internal/extract"
	"github.com/meridian-legal/extract-cli/internal/ingest"
	"github.com/meridian-legal/extract-cli/internal/model"
	"github.com/meridian-legal/extract-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP extraction API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		orch, err := newOrchestrator()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		router := buildRouter(st, orch, newIngestReader())

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// buildRouter wires the API routes. st may not be nil; reader is only used
// when an extract request names a source instead of inline text.
func buildRouter(st store.Store, orch *extract.Orchestrator, reader *ingest.Reader) chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/extract", handleExtract(st, orch, reader))
	r.Get("/api/records", handleListRecords(st))
	r.Get("/api/records/{id}", handleGetRecord(st))

	return r
}

type extractRequest struct {
	Text     string                 `json:"text,omitempty"`
	Source   string                 `json:"source,omitempty"`
	Mode     string                 `json:"mode,omitempty"`
	Existing *model.ExtractedFields `json:"existing,omitempty"`
	Save     bool                   `json:"save,omitempty"`
}

type extractResponse struct {
	RecordID    string                     `json:"record_id,omitempty"`
	Mode        model.ExtractionMode       `json:"mode"`
	Fields      *model.ExtractedFields     `json:"fields"`
	Confidences []model.StrategyConfidence `json:"confidences"`
}

func handleExtract(st store.Store, orch *extract.Orchestrator, reader *ingest.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body extractRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.Text == "" && body.Source == "" {
			writeError(w, http.StatusBadRequest, "text or source is required")
			return
		}

		mode := model.ModeBestStrategy
		if body.Mode != "" {
			m, err := model.ParseMode(body.Mode)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			mode = m
		}

		ctx := req.Context()
		text := body.Text
		if text == "" {
			decoded, err := reader.Read(ctx, body.Source)
			if err != nil {
				zap.L().Error("api: read source failed", zap.String("source", body.Source), zap.Error(err))
				writeError(w, http.StatusBadGateway, "could not read source")
				return
			}
			text = decoded
		}

		fields, err := orch.Extract(ctx, text, mode, body.Existing)
		if err != nil {
			zap.L().Error("api: extraction failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "extraction failed")
			return
		}
		confs, err := orch.Confidences(ctx, text)
		if err != nil {
			zap.L().Error("api: scoring failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "extraction failed")
			return
		}

		resp := extractResponse{Mode: mode, Fields: fields, Confidences: confs}

		if body.Save && fields != nil {
			rec := model.Record{
				Source:      body.Source,
				Mode:        mode,
				Fields:      *fields,
				Confidences: confs,
			}
			if rec.Source == "" {
				rec.Source = "api"
			}
			if err := st.SaveRecord(ctx, &rec); err != nil {
				zap.L().Error("api: save record failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "save failed")
				return
			}
			resp.RecordID = rec.ID
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func handleListRecords(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		filter := store.RecordFilter{
			Source:     q.Get("source"),
			Expediente: q.Get("expediente"),
		}
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			filter.Limit = n
		}
		if v := q.Get("offset"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid offset")
				return
			}
			filter.Offset = n
		}

		recs, err := st.ListRecords(req.Context(), filter)
		if err != nil {
			zap.L().Error("api: list records failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list failed")
			return
		}
		if recs == nil {
			recs = []model.Record{}
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

func handleGetRecord(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")

		rec, err := st.GetRecord(req.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		if err != nil {
			zap.L().Error("api: get record failed", zap.String("id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "get failed")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
