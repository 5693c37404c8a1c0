package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gswirski/sympy"
	"github.com/gswirski/sympy/internal/config"
)

var port int

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP MCP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides server.addr)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Server.Addr
	if port != 0 {
		addr = fmt.Sprintf(":%d", port)
	}
	timeouts, err := cfg.Server.Timeouts()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           newMux(cfg, logger),
		ReadHeaderTimeout: timeouts.ReadHeader,
		ReadTimeout:       timeouts.Read,
		WriteTimeout:      timeouts.Write,
		IdleTimeout:       timeouts.Idle,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("MCP server listening",
			zap.String("addr", addr),
			zap.Strings("endpoints", []string{"POST /tool", "GET /schema", "GET /health"}))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Received shutdown signal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newMux wires the tool, schema and health endpoints.
func newMux(cfg *config.Config, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	// POST /tool: handle a tool call
	mux.HandleFunc("/tool", func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		log := logger.With(zap.String("request_id", reqID))
		w.Header().Set("X-Request-Id", reqID)

		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic in /tool", zap.Any("panic", rec), zap.ByteString("stack", debug.Stack()))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()

		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, cfg.Server.MaxBodyBytes)
		defer r.Body.Close()

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req sympy.ToolRequest
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		// Ensure there's no trailing junk.
		if dec.More() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: trailing data"})
			return
		}

		if req.Tool == "evalf" {
			if req.Params == nil {
				req.Params = map[string]interface{}{}
			}
			if _, ok := req.Params["prec"]; !ok {
				req.Params["prec"] = float64(cfg.Sequences.EvalfPrecision)
			}
		}

		start := time.Now()
		resp := sympy.HandleToolCall(req)
		log.Info("tool call",
			zap.String("tool", req.Tool),
			zap.Duration("elapsed", time.Since(start)),
			zap.Bool("ok", resp.Error == ""))
		writeJSON(w, http.StatusOK, resp)
	})

	// GET /schema: return tool schema for agent registration
	mux.HandleFunc("/schema", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, sympy.MCPToolSpec())
	})

	// GET /health: liveness check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"time":      time.Now().UTC().Format(time.RFC3339),
			"functions": sympy.Functions(),
		})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
