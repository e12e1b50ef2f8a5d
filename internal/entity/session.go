package entity

const (
	TurnLabelHuman    = "Your turn"
	TurnLabelOpponent = "Computer is thinking..."
)

// Session is one page session: a single game plus the reward issued for it.
type Session struct {
	ID         string `json:"id"`
	Game       Game   `json:"game"`
	RewardCode string `json:"reward_code,omitempty"`
}

func NewSession(id string) *Session {
	return &Session{
		ID:   id,
		Game: NewGame(),
	}
}

// TurnLabel - status line shown above the board.
func (that *Session) TurnLabel() string {
	if that.Game.IsHumanTurn() {
		return TurnLabelHuman
	}
	return TurnLabelOpponent
}

// SessionView is what the transports send to the page.
type SessionView struct {
	ID         string `json:"id"`
	Board      Board  `json:"board"`
	Turn       Mark   `json:"turn"`
	Status     Status `json:"status"`
	TurnLabel  string `json:"turn_label"`
	RewardCode string `json:"reward_code,omitempty"`
}

func (that *Session) View() *SessionView {
	return &SessionView{
		ID:         that.ID,
		Board:      that.Game.Board,
		Turn:       that.Game.Turn,
		Status:     that.Game.Status,
		TurnLabel:  that.TurnLabel(),
		RewardCode: that.RewardCode,
	}
}
