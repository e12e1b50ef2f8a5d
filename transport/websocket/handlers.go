package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/rocketscienceinc/tictactoe-promo/internal/apperror"
)

const (
	actionGameNew   = "game:new"
	actionGameState = "game:state"
	actionGameReset = "game:reset"
	actionGameTurn  = "game:turn"
)

const (
	errMessageNotFound = "game not found"
	errMessageInternal = "internal error"
)

func (that *Server) handleNewGame(ctx context.Context, conn *connection, msg *Message) error {
	session, err := that.gameManager.StartGame(ctx)
	if err != nil {
		return that.replyError(ctx, conn, msg.Action, err)
	}

	conn.own(session.ID)

	return conn.sendGame(ctx, msg.Action, session)
}

func (that *Server) handleGameState(ctx context.Context, conn *connection, msg *Message) error {
	var payload GamePayload
	if err := that.decodePayload(msg, &payload); err != nil {
		return conn.sendError(ctx, msg.Action, err.Error())
	}

	session, err := that.gameManager.GetGame(ctx, payload.GameID)
	if err != nil {
		return that.replyError(ctx, conn, msg.Action, err)
	}

	return conn.sendGame(ctx, msg.Action, session)
}

func (that *Server) handleResetGame(ctx context.Context, conn *connection, msg *Message) error {
	var payload GamePayload
	if err := that.decodePayload(msg, &payload); err != nil {
		return conn.sendError(ctx, msg.Action, err.Error())
	}

	conn.cancel(payload.GameID)

	session, err := that.gameManager.ResetGame(ctx, payload.GameID)
	if err != nil {
		return that.replyError(ctx, conn, msg.Action, err)
	}

	return conn.sendGame(ctx, msg.Action, session)
}

func (that *Server) handleGameTurn(ctx context.Context, conn *connection, msg *Message) error {
	var payload TurnPayload
	if err := that.decodePayload(msg, &payload); err != nil {
		return conn.sendError(ctx, msg.Action, err.Error())
	}

	session, err := that.gameManager.MakeTurn(ctx, payload.GameID, *payload.Cell)
	if err != nil {
		return that.replyError(ctx, conn, msg.Action, err)
	}

	if err = conn.sendGame(ctx, msg.Action, session); err != nil {
		return err
	}

	if !session.Game.IsFinished() && !session.Game.IsHumanTurn() {
		conn.schedule(session.ID, that.opponentDelay, func() {
			that.opponentTurn(ctx, conn, session.ID)
		})
	}

	return nil
}

// opponentTurn - runs the delayed opponent move and pushes the new state.
func (that *Server) opponentTurn(ctx context.Context, conn *connection, sessionID string) {
	log := that.logger.With("method", "opponentTurn", "sessionID", sessionID)

	if ctx.Err() != nil {
		return
	}

	session, err := that.gameManager.MakeOpponentTurn(ctx, sessionID)
	if err != nil {
		log.Error("failed to make opponent turn", "error", err)
		return
	}

	if err = conn.sendGame(ctx, actionGameTurn, session); err != nil {
		log.Error("failed to push opponent turn", "error", err)
	}
}

// decodePayload - unmarshals and validates the payload of msg into dst.
func (that *Server) decodePayload(msg *Message, dst any) error {
	if len(msg.Payload) == 0 {
		return errors.New("payload is required")
	}

	if err := json.Unmarshal(msg.Payload, dst); err != nil {
		return errors.New("payload is malformed")
	}

	if err := that.validate.Struct(dst); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			return describeValidationError(validationErrs[0])
		}
		return fmt.Errorf("invalid payload: %w", err)
	}

	return nil
}

func describeValidationError(err validator.FieldError) error {
	switch err.Tag() {
	case "required":
		return fmt.Errorf("%s is required", err.Field())
	case "uuid":
		return fmt.Errorf("%s must be a UUID", err.Field())
	default:
		return fmt.Errorf("%s is invalid", err.Field())
	}
}

func (that *Server) replyError(ctx context.Context, conn *connection, action string, err error) error {
	if errors.Is(err, apperror.ErrSessionNotFound) {
		return conn.sendError(ctx, action, errMessageNotFound)
	}

	that.logger.Error("failed to process action", "action", action, "error", err)

	return conn.sendError(ctx, action, errMessageInternal)
}

