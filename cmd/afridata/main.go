// CLAUDE:SUMMARY Entry point for the afridata HTTP service — chi router, env+YAML config, gateway selection.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/idrismusa4/afridata/agent"
	"github.com/idrismusa4/afridata/dbopen"
)

func main() {
	port := env("PORT", "8080")
	dbPath := env("AFRIDATA_DB", "db/afridata.db")
	configPath := env("AFRIDATA_CONFIG", "")
	logLevel := env("LOG_LEVEL", "info")

	// Logging.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Config: optional YAML file, env overrides on top.
	cfg := &agent.Config{}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			slog.Error("read config", "path", configPath, "error", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			slog.Error("parse config", "path", configPath, "error", err)
			os.Exit(1)
		}
	}
	if v := os.Getenv("SERPAPI_KEY"); v != "" {
		cfg.Search.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if cfg.Search.APIKey == "" {
		slog.Warn("no SERPAPI_KEY: discovery runs will fail, cached queries still work")
	}

	// Gateway: Supabase when configured, local SQLite otherwise.
	var gateway agent.Gateway
	supabaseURL := env("SUPABASE_URL", "")
	supabaseKey := env("SUPABASE_KEY", "")
	switch {
	case supabaseURL != "" && supabaseKey != "":
		gw, err := agent.NewSupabaseGateway(agent.SupabaseConfig{URL: supabaseURL, Key: supabaseKey})
		if err != nil {
			slog.Error("supabase gateway", "error", err)
			os.Exit(1)
		}
		gateway = gw
		slog.Info("using supabase gateway", "url", supabaseURL)

	case supabaseURL != "" || supabaseKey != "":
		slog.Error("SUPABASE_URL and SUPABASE_KEY must be set together")
		os.Exit(1)

	default:
		db, err := dbopen.Open(dbPath, dbopen.WithMkdirAll())
		if err != nil {
			slog.Error("open database", "path", dbPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		gw, err := agent.NewSQLiteGateway(db)
		if err != nil {
			slog.Error("init sqlite gateway", "error", err)
			os.Exit(1)
		}
		gateway = gw
		slog.Info("using sqlite gateway", "path", dbPath)
	}

	svc, err := agent.New(ctx, cfg, gateway, logger)
	if err != nil {
		slog.Error("create service", "error", err)
		os.Exit(1)
	}

	// Router.
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Cache-first discovery: serves catalogued matches when available,
	// otherwise runs the full pipeline.
	r.Post("/api/search", func(w http.ResponseWriter, r *http.Request) {
		handleQuery(w, r, svc.RunQuery)
	})

	// Forced discovery: always runs the pipeline, ignoring the cache.
	r.Post("/api/agent", func(w http.ResponseWriter, r *http.Request) {
		handleQuery(w, r, svc.Run)
	})

	// Catalog browsing: recent records, or a cache-only keyword search with ?q=.
	r.Get("/api/datasets", func(w http.ResponseWriter, r *http.Request) {
		limit := queryInt(r, "limit", 50)
		var results []*agent.Dataset
		var err error
		if q := r.URL.Query().Get("q"); q != "" {
			results, err = svc.Search(r.Context(), q, limit)
		} else {
			results, err = svc.ListRecent(r.Context(), limit)
		}
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, map[string]any{"datasets": emptyToSlice(results), "total": len(results)})
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      5 * time.Minute, // agent runs fetch+classify inline
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// handleQuery decodes the {query} body, runs the given pipeline entry, and
// writes the dataset response.
func handleQuery(w http.ResponseWriter, r *http.Request, run func(context.Context, string) ([]*agent.Dataset, error)) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, err)
		return
	}
	results, err := run(r.Context(), req.Query)
	if err != nil {
		if errors.Is(err, agent.ErrNoQuery) {
			writeError(w, 400, err)
			return
		}
		// Detail stays in the server log; clients get a fixed message.
		slog.Error("pipeline run failed", "query", req.Query, "error", err)
		writeJSON(w, 500, map[string]string{"error": "internal error"})
		return
	}
	resp := map[string]any{"datasets": emptyToSlice(results), "total": len(results)}
	if len(results) == 0 {
		resp["message"] = "No datasets found for your query."
	}
	writeJSON(w, 200, resp)
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// emptyToSlice keeps JSON responses as [] instead of null.
func emptyToSlice(ds []*agent.Dataset) []*agent.Dataset {
	if ds == nil {
		return []*agent.Dataset{}
	}
	return ds
}
