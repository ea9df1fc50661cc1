package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/talentops/pricing-engine/internal/engine"
	"github.com/talentops/pricing-engine/internal/model"
	"github.com/talentops/pricing-engine/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pricing HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env),
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

func newRouter(env *pricingEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(rateLimit(rate.Limit(cfg.Server.RatePerSecond), cfg.Server.RateBurst))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/price", handlePrice(env))
	r.Get("/v1/results/{id}", handleGetResult(env))
	r.Get("/v1/results", handleListResults(env))

	return r
}

// rateLimit applies a shared token bucket across all requests.
func rateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = 10
	}
	if burst <= 0 {
		burst = 20
	}
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func handlePrice(env *pricingEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var job model.JobRequest
		if err := json.NewDecoder(req.Body).Decode(&job); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := env.Engine.Price(req.Context(), job)
		if err != nil {
			var malformed *engine.MalformedInputError
			if errors.As(err, &malformed) {
				writeError(w, http.StatusBadRequest, malformed.Reason)
				return
			}
			var noData *engine.NoMarketDataError
			if errors.As(err, &noData) {
				writeJSON(w, http.StatusNotFound, map[string]any{
					"error":             "no market data found",
					"job_title":         noData.JobTitle,
					"attempted_sources": noData.AttemptedSources,
				})
				return
			}
			zap.L().Error("pricing request failed", zap.String("job_title", job.Title), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func handleGetResult(env *pricingEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")

		result, err := env.Store.GetResult(req.Context(), id)
		if err != nil {
			zap.L().Error("get result failed", zap.String("id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if result == nil {
			writeError(w, http.StatusNotFound, "result not found")
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func handleListResults(env *pricingEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		filter := store.ResultFilter{
			JobTitle: req.URL.Query().Get("job_title"),
			Limit:    50,
		}

		results, err := env.Store.ListResults(req.Context(), filter)
		if err != nil {
			zap.L().Error("list results failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": results})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
