package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/rocketscienceinc/tictactoe-promo/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-promo/internal/entity"
)

type gameReader interface {
	GetGame(ctx context.Context, sessionID string) (*entity.Session, error)
}

type Server struct {
	logger *slog.Logger
	games  gameReader

	server *http.Server
}

func New(logger *slog.Logger, games gameReader) *Server {
	return &Server{
		logger: logger.With("component", "rest"),
		games:  games,
	}
}

// Handler - routes of the REST API.
func (that *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/ping", that.ping).Methods(http.MethodGet)
	router.HandleFunc("/api/games/{id}", that.getGame).Methods(http.MethodGet)

	return router
}

// Start - serves the REST API until Stop is called.
func (that *Server) Start(port string) error {
	that.server = &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	that.logger.Info("REST server listening", "port", port)

	if err := that.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) Stop(ctx context.Context) error {
	if that.server == nil {
		return nil
	}

	return that.server.Shutdown(ctx)
}

func (that *Server) getGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "getGame")

	id := mux.Vars(r)["id"]

	session, err := that.games.GetGame(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperror.ErrSessionNotFound) {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		log.Error("failed to get game", "sessionID", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(session.View()); err != nil {
		log.Error("failed to encode game", "error", err)
	}
}
