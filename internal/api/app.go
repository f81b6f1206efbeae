package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"

	"github.com/nearchat/nearchat/internal/config"
	"github.com/nearchat/nearchat/internal/database"
	"github.com/nearchat/nearchat/internal/proximity"
	"github.com/nearchat/nearchat/internal/server"
)

type App struct {
	log            *log.Logger
	db             database.UserRepository
	mux            *http.Server
	gateway        *server.Gateway
	prox           *proximity.Service
	signingKey     []byte
	allowedOrigins []string
}

func NewApp(mux *http.ServeMux, logger *log.Logger, gw *server.Gateway, prox *proximity.Service, db database.UserRepository, cfg *config.Config) *App {
	a := &App{
		log:            logger,
		db:             db,
		gateway:        gw,
		prox:           prox,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("POST /api/auth/register", a.createAccount)
	mux.HandleFunc("POST /api/auth/login", a.login)
	mux.Handle("GET /api/auth/session", a.authMiddleware(a.session))
	mux.Handle("GET /api/auth/logout", a.authMiddleware(a.logout))
	mux.Handle("/api/account", a.authMiddleware(a.account))
	mux.Handle("GET /api/users/nearby", a.authMiddleware(a.nearbyUsers))
	mux.Handle("GET /api/users/global", a.authMiddleware(a.globalUsers))
	mux.HandleFunc("GET /ws", a.serveWs)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = a.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	a.mux = srv
	return a
}

func (a *App) Start() error {
	a.log.Printf("starting server on %s\n", a.mux.Addr)
	return a.mux.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.log.Println("shutting down HTTP server...")
	if err := a.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
