package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-promo/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-promo/internal/entity"
	"github.com/rocketscienceinc/tictactoe-promo/internal/repository"
)

const (
	x = entity.MarkHuman
	o = entity.MarkOpponent
	e = entity.EmptyCell
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, message string) {
	m.Called(ctx, message)
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) CreateOrUpdate(ctx context.Context, session *entity.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id string) (*entity.Session, error) {
	args := m.Called(ctx, id)

	session, _ := args.Get(0).(*entity.Session)

	return session, args.Error(1)
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type fixture struct {
	manager  *GameManager
	repo     repository.SessionRepository
	notifier *mockNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	repo := repository.NewMemorySessionRepository(time.Hour)
	notifier := &mockNotifier{}

	manager := NewGameManager(logger, repo, notifier)
	manager.newRewardCode = func() string { return "ABCDE" }

	t.Cleanup(func() { notifier.AssertExpectations(t) })

	return &fixture{manager: manager, repo: repo, notifier: notifier}
}

// seed stores a session with the given position.
func (that *fixture) seed(t *testing.T, board entity.Board, turn entity.Mark) string {
	t.Helper()

	session := entity.NewSession(uuid.NewString())
	session.Game.Board = board
	session.Game.Turn = turn
	require.NoError(t, that.repo.CreateOrUpdate(context.Background(), session))

	return session.ID
}

func TestGameManager_StartGame(t *testing.T) {
	// Given: a manager without sessions
	f := newFixture(t)
	ctx := context.Background()

	// When: a game is started
	session, err := f.manager.StartGame(ctx)

	// Then: a fresh game is stored under a new id
	require.NoError(t, err)
	assert.NoError(t, uuid.Validate(session.ID))
	assert.Equal(t, entity.NewGame(), session.Game)
	assert.Empty(t, session.RewardCode)

	stored, err := f.manager.GetGame(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session, stored)
}

func TestGameManager_GetGame_UnknownSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.GetGame(context.Background(), uuid.NewString())

	require.ErrorIs(t, err, apperror.ErrSessionNotFound)
	assert.True(t, IsNotFound(err))
}

func TestGameManager_MakeTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("Accepted move passes the turn", func(t *testing.T) {
		// Given: a new game
		f := newFixture(t)
		session, err := f.manager.StartGame(ctx)
		require.NoError(t, err)

		// When: the human takes a corner
		session, err = f.manager.MakeTurn(ctx, session.ID, 0)

		// Then: the mark is stored and the opponent is to move
		require.NoError(t, err)
		assert.Equal(t, x, session.Game.Board[0])
		assert.Equal(t, o, session.Game.Turn)
		assert.Equal(t, entity.StatusInProgress, session.Game.Status)
		assert.Equal(t, entity.TurnLabelOpponent, session.TurnLabel())
	})

	t.Run("Rejected moves leave the session unchanged", func(t *testing.T) {
		tests := []struct {
			name  string
			board entity.Board
			turn  entity.Mark
			cell  int
		}{
			{"Occupied cell", entity.Board{x, o, e, e, e, e, e, e, e}, x, 1},
			{"Cell out of range", entity.Board{}, x, 9},
			{"Negative cell", entity.Board{}, x, -1},
			{"Opponent's turn", entity.Board{x, e, e, e, e, e, e, e, e}, o, 4},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				// Given: a stored position
				f := newFixture(t)
				id := f.seed(t, tt.board, tt.turn)
				before, err := f.manager.GetGame(ctx, id)
				require.NoError(t, err)

				// When: an invalid click arrives
				session, err := f.manager.MakeTurn(ctx, id, tt.cell)

				// Then: nothing changes and no error is reported
				require.NoError(t, err)
				assert.Equal(t, before, session)

				after, err := f.manager.GetGame(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, before, after)
			})
		}
	})

	t.Run("Winning move issues a reward and notifies", func(t *testing.T) {
		// Given: the human one move from the top row
		f := newFixture(t)
		id := f.seed(t, entity.Board{x, x, e, o, o, e, e, e, e}, x)
		f.notifier.On("Notify", mock.Anything, "Victory! Promo code issued: ABCDE").Once()

		// When: the human completes the row
		session, err := f.manager.MakeTurn(ctx, id, 2)

		// Then: the game is won and the code is kept with the session
		require.NoError(t, err)
		assert.Equal(t, entity.StatusHumanWon, session.Game.Status)
		assert.Equal(t, "ABCDE", session.RewardCode)

		stored, err := f.manager.GetGame(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "ABCDE", stored.RewardCode)
	})

	t.Run("Last move without a line is a draw", func(t *testing.T) {
		// Given: one free cell left that completes nothing
		f := newFixture(t)
		id := f.seed(t, entity.Board{x, o, x, x, o, o, o, x, e}, x)
		f.notifier.On("Notify", mock.Anything, "A draw is a small victory...)").Once()

		// When: the human fills it
		session, err := f.manager.MakeTurn(ctx, id, 8)

		// Then: the game is drawn without a reward
		require.NoError(t, err)
		assert.Equal(t, entity.StatusDrawn, session.Game.Status)
		assert.Empty(t, session.RewardCode)
	})

	t.Run("Finished game ignores clicks", func(t *testing.T) {
		// Given: a game the human has already won
		f := newFixture(t)
		id := f.seed(t, entity.Board{x, x, e, o, o, e, e, e, e}, x)
		f.notifier.On("Notify", mock.Anything, mock.Anything).Once()
		_, err := f.manager.MakeTurn(ctx, id, 2)
		require.NoError(t, err)

		// When: another cell is clicked
		session, err := f.manager.MakeTurn(ctx, id, 8)

		// Then: the board stays as it was and nobody is notified again
		require.NoError(t, err)
		assert.Equal(t, e, session.Game.Board[8])
		f.notifier.AssertNumberOfCalls(t, "Notify", 1)
	})

	t.Run("Unknown session", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.manager.MakeTurn(ctx, uuid.NewString(), 0)

		require.ErrorIs(t, err, apperror.ErrSessionNotFound)
	})

	t.Run("Concurrent clicks accept a single move", func(t *testing.T) {
		// Given: a new game
		f := newFixture(t)
		session, err := f.manager.StartGame(ctx)
		require.NoError(t, err)

		// When: every cell is clicked at once
		var wg sync.WaitGroup
		for cell := range entity.BoardSize {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = f.manager.MakeTurn(ctx, session.ID, cell)
			}()
		}
		wg.Wait()

		// Then: exactly one human mark landed
		stored, err := f.manager.GetGame(ctx, session.ID)
		require.NoError(t, err)

		marks := 0
		for _, mark := range stored.Game.Board {
			if mark == x {
				marks++
			}
		}
		assert.Equal(t, 1, marks)
		assert.Equal(t, o, stored.Game.Turn)
	})
}

func TestGameManager_MakeOpponentTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("Opponent answers and returns the turn", func(t *testing.T) {
		// Given: the human has taken a corner
		f := newFixture(t)
		session, err := f.manager.StartGame(ctx)
		require.NoError(t, err)
		_, err = f.manager.MakeTurn(ctx, session.ID, 0)
		require.NoError(t, err)

		// When: the opponent moves
		session, err = f.manager.MakeOpponentTurn(ctx, session.ID)

		// Then: it takes the center and the human is to move
		require.NoError(t, err)
		assert.Equal(t, o, session.Game.Board[4])
		assert.Equal(t, x, session.Game.Turn)
		assert.Equal(t, entity.TurnLabelHuman, session.TurnLabel())
	})

	t.Run("Opponent win notifies without a reward", func(t *testing.T) {
		// Given: the opponent one move from the top row
		f := newFixture(t)
		id := f.seed(t, entity.Board{o, o, e, x, x, e, x, e, e}, o)
		f.notifier.On("Notify", mock.Anything, "Defeat! :(").Once()

		// When: the opponent moves
		session, err := f.manager.MakeOpponentTurn(ctx, id)

		// Then: the row is completed and the game is lost
		require.NoError(t, err)
		assert.Equal(t, o, session.Game.Board[2])
		assert.Equal(t, entity.StatusOpponentWon, session.Game.Status)
		assert.Empty(t, session.RewardCode)
	})

	t.Run("Nothing happens on the human turn", func(t *testing.T) {
		// Given: a new game, human to move
		f := newFixture(t)
		session, err := f.manager.StartGame(ctx)
		require.NoError(t, err)

		// When: the opponent is asked to move
		got, err := f.manager.MakeOpponentTurn(ctx, session.ID)

		// Then: the board is untouched
		require.NoError(t, err)
		assert.Equal(t, session, got)
	})

	t.Run("Nothing happens after a reset", func(t *testing.T) {
		// Given: a move scheduled for the opponent, then a reset
		f := newFixture(t)
		session, err := f.manager.StartGame(ctx)
		require.NoError(t, err)
		_, err = f.manager.MakeTurn(ctx, session.ID, 0)
		require.NoError(t, err)
		_, err = f.manager.ResetGame(ctx, session.ID)
		require.NoError(t, err)

		// When: the delayed opponent move fires
		got, err := f.manager.MakeOpponentTurn(ctx, session.ID)

		// Then: the fresh board is left alone
		require.NoError(t, err)
		assert.Equal(t, entity.NewGame(), got.Game)
	})
}

func TestGameManager_ResetGame(t *testing.T) {
	// Given: a won game with an issued code
	f := newFixture(t)
	ctx := context.Background()
	id := f.seed(t, entity.Board{x, x, e, o, o, e, e, e, e}, x)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Once()
	_, err := f.manager.MakeTurn(ctx, id, 2)
	require.NoError(t, err)

	// When: the game is reset
	session, err := f.manager.ResetGame(ctx, id)

	// Then: the board is fresh and the code is gone
	require.NoError(t, err)
	assert.Equal(t, id, session.ID)
	assert.Equal(t, entity.NewGame(), session.Game)
	assert.Empty(t, session.RewardCode)
}

func TestGameManager_EndGame(t *testing.T) {
	// Given: a running game
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.manager.StartGame(ctx)
	require.NoError(t, err)

	// When: the game is ended
	require.NoError(t, f.manager.EndGame(ctx, session.ID))

	// Then: the session is gone
	_, err = f.manager.GetGame(ctx, session.ID)
	require.ErrorIs(t, err, apperror.ErrSessionNotFound)
}

func TestGameManager_SaveFailure(t *testing.T) {
	// Given: a repository that can not save
	ctx := context.Background()
	saveErr := errors.New("connection refused")

	session := entity.NewSession(uuid.NewString())
	session.Game.Board = entity.Board{x, x, e, o, o, e, e, e, e}

	repo := &mockSessionRepo{}
	repo.On("GetByID", mock.Anything, session.ID).Return(session, nil)
	repo.On("CreateOrUpdate", mock.Anything, mock.Anything).Return(saveErr)

	notifier := &mockNotifier{}
	manager := NewGameManager(slog.New(slog.NewJSONHandler(io.Discard, nil)), repo, notifier)

	// When: the human makes the winning move
	_, err := manager.MakeTurn(ctx, session.ID, 2)

	// Then: the error is returned and nobody is notified
	require.ErrorIs(t, err, saveErr)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}
