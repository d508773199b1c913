package usecase

import (
	"testing"

	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/internal/repository"
	"github.com/rocketscienceinc/tictactoe-relay/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameManager_TwoEdges(t *testing.T) {
	t.Run("Edges arbitrate against one board", func(t *testing.T) {
		ctx, st := suite.New(t)

		// Given: two relay instances on one redis, fanning out to the same stream
		rec := &recorder{}
		edgeA := NewGameManager(st.Logger, repository.NewRedisRoomRepository(st.Redis), rec)
		edgeB := NewGameManager(st.Logger, repository.NewRedisRoomRepository(st.Redis), rec)

		// When: both edges receive a move for cell 0, then edge B repeats x
		require.NoError(t, edgeA.Action(ctx, testRoom, entity.ActionPayload{Index: 0, Symbol: "x"}))
		require.NoError(t, edgeB.Action(ctx, testRoom, entity.ActionPayload{Index: 0, Symbol: "o"}))
		require.NoError(t, edgeB.Action(ctx, testRoom, entity.ActionPayload{Index: 1, Symbol: "x"}))

		// Then: only the first move is broadcast
		require.Len(t, rec.events, 1)
		assert.Equal(t, entity.NewUpdateEvent(testRoom, 0, entity.PlayerX), rec.events[0])

		// And: edge B continues the same game
		require.NoError(t, edgeB.Action(ctx, testRoom, entity.ActionPayload{Index: 1, Symbol: "o"}))
		require.Len(t, rec.events, 2)
		assert.Equal(t, entity.NewUpdateEvent(testRoom, 1, entity.PlayerO), rec.events[1])
	})

	t.Run("Sync on one edge reflects claims and moves from the other", func(t *testing.T) {
		ctx, st := suite.New(t)

		rec := &recorder{}
		edgeA := NewGameManager(st.Logger, repository.NewRedisRoomRepository(st.Redis), rec)
		edgeB := NewGameManager(st.Logger, repository.NewRedisRoomRepository(st.Redis), rec)

		require.NoError(t, edgeA.SetSymbol(ctx, testRoom, "conn-1", entity.SetSymbolPayload{Symbol: "x", Username: "alice"}))
		require.NoError(t, edgeA.Action(ctx, testRoom, entity.ActionPayload{Index: 4, Symbol: "x"}))

		events, err := edgeB.Sync(ctx, testRoom)

		require.NoError(t, err)
		assert.Equal(t, []entity.Event{
			entity.NewBusySymbolEvent(testRoom, entity.PlayerX),
			entity.NewUpdateEvent(testRoom, 4, entity.PlayerX),
		}, events)

		// When: edge B resets, edge A sees an empty room
		require.NoError(t, edgeB.Reset(ctx, testRoom))

		events, err = edgeA.Sync(ctx, testRoom)
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}
