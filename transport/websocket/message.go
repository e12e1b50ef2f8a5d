package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nhooyr.io/websocket/wsjson"

	"github.com/rocketscienceinc/tictactoe-promo/internal/entity"
)

const writeTimeout = 5 * time.Second

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type GamePayload struct {
	GameID string `json:"game_id" validate:"required,uuid"`
}

type TurnPayload struct {
	GameID string `json:"game_id" validate:"required,uuid"`
	Cell   *int   `json:"cell"    validate:"required"`
}

type ResponsePayload struct {
	Game  *entity.SessionView `json:"game,omitempty"`
	Error string              `json:"error,omitempty"`
}

func (that *connection) sendGame(ctx context.Context, action string, session *entity.Session) error {
	return that.send(ctx, action, ResponsePayload{Game: session.View()})
}

func (that *connection) sendError(ctx context.Context, action, message string) error {
	return that.send(ctx, action, ResponsePayload{Error: message})
}

func (that *connection) send(ctx context.Context, action string, payload ResponsePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err = wsjson.Write(ctx, that.conn, Message{Action: action, Payload: body}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}
