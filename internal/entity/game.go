package entity

// Mark is the symbol a side puts on the board.
type Mark string

// Status is the outcome of a game as seen from the human player.
type Status string

const (
	MarkHuman    Mark = "X"
	MarkOpponent Mark = "O"
	EmptyCell    Mark = ""

	StatusInProgress  Status = "in_progress"
	StatusHumanWon    Status = "human_won"
	StatusOpponentWon Status = "opponent_won"
	StatusDrawn       Status = "drawn"
)

const BoardSize = 9

// WinCombos - rows, columns and diagonals of the 3x3 board.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

type Board [BoardSize]Mark

type Game struct {
	Board  Board  `json:"board"`
	Turn   Mark   `json:"turn"`
	Status Status `json:"status"`
}

// NewGame - returns a fresh game with the human to move.
func NewGame() Game {
	return Game{
		Turn:   MarkHuman,
		Status: StatusInProgress,
	}
}

// Other - returns the mark of the other side.
func (that Mark) Other() Mark {
	if that == MarkHuman {
		return MarkOpponent
	}
	return MarkHuman
}

// HasTriple reports whether mark occupies a whole row, column or diagonal.
func (that *Board) HasTriple(mark Mark) bool {
	for _, combo := range WinCombos {
		if that[combo[0]] == mark && that[combo[1]] == mark && that[combo[2]] == mark {
			return true
		}
	}
	return false
}

func (that *Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}
	return true
}

func (that *Game) IsFinished() bool {
	return that.Status != StatusInProgress
}

func (that *Game) IsHumanTurn() bool {
	return that.Turn == MarkHuman
}
