package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brandpulse/strategy-cli/internal/model"
	"github.com/brandpulse/strategy-cli/internal/pipeline"
)

var servePort int

// strategyEngine is the pipeline surface the HTTP handlers call.
type strategyEngine interface {
	AnalyzeWebsite(ctx context.Context, strategyID string, urlType model.URLType, rawURL string) (*model.CrawlResult, error)
	Generate(ctx context.Context, strategyID, module string, vars map[string]any) (*pipeline.GenerateOutput, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		engine, st, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: buildRouter(engine),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildRouter wires the API routes over the engine.
func buildRouter(engine strategyEngine) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/analyze", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			StrategyID string `json:"strategy_id"`
			URL        string `json:"url"`
			URLType    string `json:"url_type"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.StrategyID == "" || body.URL == "" {
			writeJSONError(w, http.StatusBadRequest, "strategy_id and url are required")
			return
		}
		urlType := model.URLType(body.URLType)
		if urlType == "" {
			urlType = model.URLTypeWebsite
		}
		if urlType != model.URLTypeWebsite && urlType != model.URLTypeProduct {
			writeJSONError(w, http.StatusBadRequest, "url_type must be website or product")
			return
		}

		result, err := engine.AnalyzeWebsite(req.Context(), body.StrategyID, urlType, body.URL)
		if err != nil {
			zap.L().Error("api: analyze failed", zap.String("url", body.URL), zap.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "analysis could not be stored")
			return
		}

		printable := *result
		printable.Pages = nil
		writeJSON(w, http.StatusOK, printable)
	})

	r.Post("/api/generate", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			StrategyID string         `json:"strategy_id"`
			Module     string         `json:"module"`
			Vars       map[string]any `json:"vars"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.StrategyID == "" || body.Module == "" {
			writeJSONError(w, http.StatusBadRequest, "strategy_id and module are required")
			return
		}

		out, err := engine.Generate(req.Context(), body.StrategyID, body.Module, body.Vars)
		if err != nil {
			zap.L().Error("api: generate failed", zap.String("module", body.Module), zap.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "generation failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"generation_id": out.Generation.ID,
			"result":        out.Parsed,
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
