package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/tictactoe-promo/internal/config"
	"github.com/rocketscienceinc/tictactoe-promo/internal/notifier"
	"github.com/rocketscienceinc/tictactoe-promo/internal/repository"
	"github.com/rocketscienceinc/tictactoe-promo/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-promo/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-promo/transport/rest"
	"github.com/rocketscienceinc/tictactoe-promo/transport/websocket"
)

const shutdownTimeout = 5 * time.Second

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	sessionRepo, closeRepo, err := newSessionRepository(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = closeRepo(); err != nil {
			log.Error("could not close session storage", "error", err)
		}
	}()

	telegram := notifier.NewTelegram(logger, conf.Telegram)
	gameManager := usecase.NewGameManager(logger, sessionRepo, telegram)

	restServer := rest.New(logger, gameManager)
	wsServer := websocket.New(logger, gameManager, conf.Opponent.Delay)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := restServer.Start(conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if wsErr := wsServer.Start(conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		err = fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		err = fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if stopErr := restServer.Stop(shutdownCtx); stopErr != nil {
		log.Error("could not stop HTTP server", "error", stopErr)
	}

	if stopErr := wsServer.Stop(shutdownCtx); stopErr != nil {
		log.Error("could not stop WebSocket server", "error", stopErr)
	}

	return err
}

// newSessionRepository - picks the session store named in config.
func newSessionRepository(ctx context.Context, conf *config.Config) (repository.SessionRepository, func() error, error) {
	if conf.Storage != config.StorageRedis {
		return repository.NewMemorySessionRepository(conf.SessionTTL), func() error { return nil }, nil
	}

	redisStorage, err := storage.NewRedis(ctx, conf.Redis.GetRedisAddr())
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	return repository.NewRedisSessionRepository(redisStorage, conf.SessionTTL), redisStorage.Close, nil
}
