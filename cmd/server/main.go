package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/sketchd/sketchd/backend-go/internal/auth"
	"github.com/sketchd/sketchd/backend-go/internal/config"
	"github.com/sketchd/sketchd/backend-go/internal/engine"
	"github.com/sketchd/sketchd/backend-go/internal/guides"
	mw "github.com/sketchd/sketchd/backend-go/internal/middleware"
	"github.com/sketchd/sketchd/backend-go/internal/session"
	"github.com/sketchd/sketchd/backend-go/internal/snap"
	"github.com/sketchd/sketchd/backend-go/internal/store"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	st := store.New(pool)
	if err := st.EnsureSchema(ctx); err != nil {
		slog.Error("ensure schema", "error", err)
		os.Exit(1)
	}

	authService := auth.NewService(cfg.JWTSecret, cfg.AccessPasswordHash)
	authHandler := auth.NewHandler(authService)
	storeHandler := store.NewHandler(st)

	manager := session.NewManager(st, st, engine.Options{
		SnapConfig: snap.Config{
			Threshold:    cfg.SnapThreshold,
			DistanceUnit: cfg.SnapDistanceUnit,
		},
		GuideConfig: guides.Config{Threshold: cfg.SnapThreshold},
	})
	go manager.Run(ctx)

	r := mux.NewRouter()

	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	r.HandleFunc("/auth/token", authHandler.Token).Methods("POST", "OPTIONS")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.Middleware)

	api.HandleFunc("/documents", storeHandler.List).Methods("GET")
	api.HandleFunc("/documents", storeHandler.Create).Methods("POST")
	api.HandleFunc("/documents/{documentId}", storeHandler.Get).Methods("GET")
	api.HandleFunc("/documents/{documentId}", storeHandler.Delete).Methods("DELETE")

	r.HandleFunc("/ws/session/{documentId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, manager, authService, cfg.Origins())
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop the session manager first so dirty documents get saved.
		cancel()
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
		manager.Stop(saveCtx)
		saveCancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, manager *session.Manager, authSvc *auth.Service, origins []string) {
	documentID := mux.Vars(r)["documentId"]

	// The playground document allows anonymous access.
	if documentID != session.PlaygroundDocumentID {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		if _, err := authSvc.ValidateToken(token); err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(origins),
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := session.NewClient(manager, conn, documentID, clientID)

	manager.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

// originPatterns strips the scheme from configured origins; the websocket
// library matches host patterns only.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		for _, prefix := range []string{"http://", "https://"} {
			if len(o) > len(prefix) && o[:len(prefix)] == prefix {
				o = o[len(prefix):]
				break
			}
		}
		out = append(out, o)
	}
	return out
}
