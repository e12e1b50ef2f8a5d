package tictactoe

import (
	"github.com/rocketscienceinc/tictactoe-promo/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-promo/internal/entity"
)

// Engine owns the state of one game. All mutation goes through its methods.
type Engine struct {
	game entity.Game
}

func NewEngine() *Engine {
	engine := &Engine{}
	engine.Reset()
	return engine
}

// FromState - builds an engine from a stored snapshot. The snapshot is copied.
func FromState(game entity.Game) *Engine {
	return &Engine{game: game}
}

// State - returns a copy of the current game for rendering and storage.
func (that *Engine) State() entity.Game {
	return that.game
}

// Reset - clears the board and gives the first turn to the human.
func (that *Engine) Reset() {
	that.game = entity.NewGame()
}

// PlaceMark puts mark on cell and passes the turn. A rejected placement leaves
// the game untouched; the returned error only says why, callers may drop it.
// The outcome is not evaluated here, call EvaluateOutcome afterwards.
func (that *Engine) PlaceMark(cell int, mark entity.Mark) error {
	if err := that.validateMove(cell, mark); err != nil {
		return err
	}

	that.game.Board[cell] = mark
	that.game.Turn = mark.Other()

	return nil
}

// validateMove - checks if the move is valid.
func (that *Engine) validateMove(cell int, mark entity.Mark) error {
	if that.game.IsFinished() {
		return apperror.ErrGameFinished
	}

	if cell < 0 || cell >= entity.BoardSize {
		return apperror.ErrInvalidCell
	}

	if that.game.Board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	if that.game.Turn != mark {
		return apperror.ErrNotYourTurn
	}

	return nil
}

// EvaluateOutcome - updates and returns the game status. A human triple wins
// over an opponent triple, and any win is reported before a draw.
func (that *Engine) EvaluateOutcome() entity.Status {
	that.game.Status = checkGameStatus(&that.game.Board)
	return that.game.Status
}

func checkGameStatus(board *entity.Board) entity.Status {
	switch {
	case board.HasTriple(entity.MarkHuman):
		return entity.StatusHumanWon
	case board.HasTriple(entity.MarkOpponent):
		return entity.StatusOpponentWon
	case board.IsFull():
		return entity.StatusDrawn
	default:
		return entity.StatusInProgress
	}
}
