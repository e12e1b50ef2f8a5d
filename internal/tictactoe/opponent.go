package tictactoe

import "github.com/rocketscienceinc/tictactoe-promo/internal/entity"

// positionPriority - center, then corners, then edges.
var positionPriority = [entity.BoardSize]int{4, 0, 2, 6, 8, 1, 3, 5, 7}

// ComputeOpponentMove picks the opponent's next cell: win now if possible,
// otherwise block the human, otherwise take the best free position. Ties go to
// the lowest index. It only reads the board and does not look at the turn.
// The second result is false when the board has no empty cell.
func (that *Engine) ComputeOpponentMove() (int, bool) {
	if cell, ok := findWinningMove(that.game.Board, entity.MarkOpponent); ok {
		return cell, true
	}

	if cell, ok := findWinningMove(that.game.Board, entity.MarkHuman); ok {
		return cell, true
	}

	return findBestMove(&that.game.Board)
}

// findWinningMove works on a copy of the board.
func findWinningMove(board entity.Board, mark entity.Mark) (int, bool) {
	for cell := range board {
		if board[cell] != entity.EmptyCell {
			continue
		}

		board[cell] = mark
		wins := board.HasTriple(mark)
		board[cell] = entity.EmptyCell

		if wins {
			return cell, true
		}
	}

	return -1, false
}

func findBestMove(board *entity.Board) (int, bool) {
	for _, cell := range positionPriority {
		if board[cell] == entity.EmptyCell {
			return cell, true
		}
	}

	return -1, false
}
