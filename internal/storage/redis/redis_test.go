package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"recycle-bot/internal/points"
	"recycle-bot/internal/shipment"
	redisclient "recycle-bot/pkg/redis"
)

func setupStorage(t *testing.T, ttl time.Duration) (*Storage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisclient.New(redisclient.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, ttl, zaptest.NewLogger(t)), mr
}

func TestDialogStateRoundTrip(t *testing.T) {
	s, _ := setupStorage(t, 0)
	ctx := context.Background()

	state, err := s.GetUserDialogState(ctx, 42)
	require.NoError(t, err)
	assert.True(t, state.Idle())

	draft := shipment.NewDraft(1021)
	draft.Lines = append(draft.Lines, shipment.Line{
		Material: "alum",
		Weight:   decimal.RequireFromString("10.5"),
		Price:    decimal.RequireFromString("30"),
		PriceSet: true,
	})
	require.NoError(t, s.SetUserDialogState(ctx, 42, &UserState{
		Step:     string(shipment.StepAwaitingCategory),
		Shipment: draft,
	}))

	got, err := s.GetUserDialogState(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, string(shipment.StepAwaitingCategory), got.Step)
	require.NotNil(t, got.Shipment)
	assert.Equal(t, int64(1021), got.Shipment.PointID)
	line, ok := got.Shipment.Line("alum")
	require.True(t, ok)
	assert.True(t, line.Weight.Equal(decimal.RequireFromString("10.5")))
	assert.True(t, line.PriceSet)
	assert.Nil(t, got.Point)

	other, err := s.GetUserDialogState(ctx, 43)
	require.NoError(t, err)
	assert.True(t, other.Idle())

	require.NoError(t, s.DropUserDialogState(ctx, 42))
	got, err = s.GetUserDialogState(ctx, 42)
	require.NoError(t, err)
	assert.True(t, got.Idle())
}

func TestDialogStateTTL(t *testing.T) {
	s, mr := setupStorage(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.SetUserDialogState(ctx, 7, &UserState{
		Step:  "create_point_name",
		Point: &points.Draft{Code: "1021"},
	}))
	assert.Equal(t, time.Hour, mr.TTL(buildStateKey(7)))

	mr.FastForward(2 * time.Hour)
	got, err := s.GetUserDialogState(ctx, 7)
	require.NoError(t, err)
	assert.True(t, got.Idle())
}

func TestDialogStateWithoutTTLPersists(t *testing.T) {
	s, mr := setupStorage(t, 0)
	ctx := context.Background()

	require.NoError(t, s.SetUserDialogState(ctx, 8, &UserState{Step: "bags", Bags: &BagsDraft{Counts: []int{1, 2}}}))
	assert.Zero(t, mr.TTL(buildStateKey(8)))

	got, err := s.GetUserDialogState(ctx, 8)
	require.NoError(t, err)
	require.NotNil(t, got.Bags)
	assert.Equal(t, []int{1, 2}, got.Bags.Counts)
}

func TestCorruptStateIsDropped(t *testing.T) {
	s, mr := setupStorage(t, 0)
	require.NoError(t, mr.Set(buildStateKey(9), "{not json"))

	got, err := s.GetUserDialogState(context.Background(), 9)
	require.NoError(t, err)
	assert.True(t, got.Idle())
	assert.False(t, mr.Exists(buildStateKey(9)))
}
