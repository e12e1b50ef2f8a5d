package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"nhooyr.io/websocket"

	"github.com/rocketscienceinc/tictactoe-promo/internal/entity"
)

type gameManager interface {
	StartGame(ctx context.Context) (*entity.Session, error)
	GetGame(ctx context.Context, sessionID string) (*entity.Session, error)
	ResetGame(ctx context.Context, sessionID string) (*entity.Session, error)
	MakeTurn(ctx context.Context, sessionID string, cell int) (*entity.Session, error)
	MakeOpponentTurn(ctx context.Context, sessionID string) (*entity.Session, error)
	EndGame(ctx context.Context, sessionID string) error
}

type handlerFunc func(ctx context.Context, conn *connection, message *Message) error

type Server struct {
	logger      *slog.Logger
	gameManager gameManager
	validate    *validator.Validate

	opponentDelay time.Duration

	handlers map[string]handlerFunc
	server   *http.Server
}

func New(logger *slog.Logger, gameManager gameManager, opponentDelay time.Duration) *Server {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	})

	server := &Server{
		logger:      logger.With("component", "websocket"),
		gameManager: gameManager,
		validate:    validate,

		opponentDelay: opponentDelay,
	}

	server.handlers = map[string]handlerFunc{
		actionGameNew:   server.handleNewGame,
		actionGameState: server.handleGameState,
		actionGameReset: server.handleResetGame,
		actionGameTurn:  server.handleGameTurn,
	}

	return server
}

// Handler - serves the socket endpoint.
func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.serveWebSocket)

	return mux
}

// Start - starts WebSocket server.
func (that *Server) Start(port string) error {
	that.server = &http.Server{
		Addr:        ":" + port,
		Handler:     that.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	that.logger.Info("WebSocket server listening", "port", port)

	if err := that.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop - stops accepting connections. Hijacked connections are not tracked
// by http.Server and end when their clients go away.
func (that *Server) Stop(ctx context.Context) error {
	if that.server == nil {
		return nil
	}

	return that.server.Shutdown(ctx)
}

func (that *Server) serveWebSocket(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWebSocket")

	wsConn, err := websocket.Accept(writer, req, &websocket.AcceptOptions{
		// the page is served from a different origin than the socket
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Error("failed to accept connection", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(req.Context()))
	conn := newConnection(wsConn)

	defer func() {
		cancel()
		that.closeConnection(conn)
	}()

	log.Info("WebSocket connection established")

	if err = that.handleMessages(ctx, conn); err != nil {
		log.Error("error handling messages", "error", err)
	}
}

// handleMessages - processes messages from the client until it goes away.
func (that *Server) handleMessages(ctx context.Context, conn *connection) error {
	log := that.logger.With("method", "handleMessages")

	for {
		_, data, err := conn.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			return fmt.Errorf("failed to read message: %w", err)
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			continue
		}

		if err = handler(ctx, conn, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// closeConnection - drops pending opponent moves and the games started on the page.
func (that *Server) closeConnection(conn *connection) {
	log := that.logger.With("method", "closeConnection")

	for _, sessionID := range conn.close() {
		if err := that.gameManager.EndGame(context.Background(), sessionID); err != nil {
			log.Warn("failed to end game", "sessionID", sessionID, "error", err)
		}
	}

	_ = conn.conn.Close(websocket.StatusNormalClosure, "")

	log.Info("WebSocket connection closed")
}

// connection is one page. It owns the games started on it and keeps the
// opponent moves it still has to push.
type connection struct {
	conn *websocket.Conn

	mu      sync.Mutex
	closed  bool
	owned   map[string]struct{}
	pending map[string]*time.Timer
}

func newConnection(conn *websocket.Conn) *connection {
	return &connection{
		conn:    conn,
		owned:   make(map[string]struct{}),
		pending: make(map[string]*time.Timer),
	}
}

// own marks a game as started on this connection.
func (that *connection) own(sessionID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.owned[sessionID] = struct{}{}
}

// schedule replaces the pending opponent move of a session.
func (that *connection) schedule(sessionID string, delay time.Duration, move func()) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	if timer, ok := that.pending[sessionID]; ok {
		timer.Stop()
	}

	that.pending[sessionID] = time.AfterFunc(delay, move)
}

func (that *connection) cancel(sessionID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if timer, ok := that.pending[sessionID]; ok {
		timer.Stop()
		delete(that.pending, sessionID)
	}
}

// close stops every pending move and returns the games this connection owns.
func (that *connection) close() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = true

	for _, timer := range that.pending {
		timer.Stop()
	}

	ids := make([]string, 0, len(that.owned))
	for id := range that.owned {
		ids = append(ids, id)
	}

	return ids
}
