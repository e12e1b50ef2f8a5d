package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-promo/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-promo/internal/entity"
	"github.com/rocketscienceinc/tictactoe-promo/internal/tictactoe"
)

const (
	messageWin  = "Victory! Promo code issued: %s"
	messageLoss = "Defeat! :("
	messageDraw = "A draw is a small victory...)"
)

type sessionRepo interface {
	CreateOrUpdate(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	DeleteByID(ctx context.Context, id string) error
}

type notifier interface {
	Notify(ctx context.Context, message string)
}

// GameManager runs one game per session on top of the engine. Loading,
// changing and saving a session happen under a single lock, so a click and
// the delayed opponent move can not interleave.
type GameManager struct {
	logger *slog.Logger
	mu     sync.Mutex

	sessionRepo sessionRepo
	notifier    notifier

	newSessionID  func() string
	newRewardCode func() string
}

func NewGameManager(logger *slog.Logger, sessionRepo sessionRepo, notifier notifier) *GameManager {
	return &GameManager{
		logger: logger.With("component", "gameManager"),

		sessionRepo: sessionRepo,
		notifier:    notifier,

		newSessionID:  uuid.NewString,
		newRewardCode: tictactoe.GenerateRewardCode,
	}
}

// StartGame - creates a session with a fresh game.
func (that *GameManager) StartGame(ctx context.Context) (*entity.Session, error) {
	session := entity.NewSession(that.newSessionID())

	if err := that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	that.logger.Info("game started", "sessionID", session.ID)

	return session, nil
}

func (that *GameManager) GetGame(ctx context.Context, sessionID string) (*entity.Session, error) {
	session, err := that.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// ResetGame - starts the session over, dropping any issued reward.
func (that *GameManager) ResetGame(ctx context.Context, sessionID string) (*entity.Session, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, err := that.GetGame(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	engine := tictactoe.FromState(session.Game)
	engine.Reset()

	session.Game = engine.State()
	session.RewardCode = ""

	if err = that.updateSession(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// MakeTurn places the human mark. A rejected placement is not an error: the
// session comes back unchanged.
func (that *GameManager) MakeTurn(ctx context.Context, sessionID string, cell int) (*entity.Session, error) {
	log := that.logger.With("method", "MakeTurn", "sessionID", sessionID)

	that.mu.Lock()
	defer that.mu.Unlock()

	session, err := that.GetGame(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	engine := tictactoe.FromState(session.Game)
	if err = engine.PlaceMark(cell, entity.MarkHuman); err != nil {
		log.Debug("move rejected", "cell", cell, "reason", err)
		return session, nil
	}

	if err = that.completeTurn(ctx, session, engine); err != nil {
		return nil, err
	}

	return session, nil
}

// MakeOpponentTurn lets the computer answer. It does nothing unless the game
// is in progress and waiting for the opponent.
func (that *GameManager) MakeOpponentTurn(ctx context.Context, sessionID string) (*entity.Session, error) {
	log := that.logger.With("method", "MakeOpponentTurn", "sessionID", sessionID)

	that.mu.Lock()
	defer that.mu.Unlock()

	session, err := that.GetGame(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Game.IsFinished() || session.Game.IsHumanTurn() {
		return session, nil
	}

	engine := tictactoe.FromState(session.Game)

	cell, ok := engine.ComputeOpponentMove()
	if !ok {
		log.Warn("opponent has no move", "board", session.Game.Board)
		return session, nil
	}

	if err = engine.PlaceMark(cell, entity.MarkOpponent); err != nil {
		return nil, fmt.Errorf("opponent failed to make turn: %w", err)
	}

	if err = that.completeTurn(ctx, session, engine); err != nil {
		return nil, err
	}

	return session, nil
}

// EndGame - forgets the session when its page goes away.
func (that *GameManager) EndGame(ctx context.Context, sessionID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	that.logger.Info("game ended", "sessionID", sessionID)

	return nil
}

// completeTurn evaluates the board after an accepted placement, saves the
// session and announces a finished game.
func (that *GameManager) completeTurn(ctx context.Context, session *entity.Session, engine *tictactoe.Engine) error {
	status := engine.EvaluateOutcome()

	session.Game = engine.State()
	if status == entity.StatusHumanWon {
		session.RewardCode = that.newRewardCode()
	}

	if err := that.updateSession(ctx, session); err != nil {
		return err
	}

	if session.Game.IsFinished() {
		that.announce(ctx, session)
	}

	return nil
}

func (that *GameManager) announce(ctx context.Context, session *entity.Session) {
	var message string

	switch session.Game.Status {
	case entity.StatusHumanWon:
		message = fmt.Sprintf(messageWin, session.RewardCode)
	case entity.StatusOpponentWon:
		message = messageLoss
	case entity.StatusDrawn:
		message = messageDraw
	default:
		return
	}

	that.logger.Info("game finished", "sessionID", session.ID, "status", session.Game.Status)

	that.notifier.Notify(ctx, message)
}

func (that *GameManager) updateSession(ctx context.Context, session *entity.Session) error {
	if err := that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return nil
}

// IsNotFound reports whether err means the session does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, apperror.ErrSessionNotFound)
}
