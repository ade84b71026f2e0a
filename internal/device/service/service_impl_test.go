package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/lounge/internal/clock"
	"github.com/smallbiznis/lounge/internal/device/domain"
	"github.com/smallbiznis/lounge/internal/device/repository"
	"github.com/smallbiznis/lounge/internal/device/service"
	"github.com/smallbiznis/lounge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDeviceService(t *testing.T) domain.Service {
	t.Helper()
	return service.New(service.Params{
		DB:    testutil.NewDB(t),
		Log:   zap.NewNop(),
		GenID: testutil.NewNode(t),
		Repo:  repository.Provide(),
		Clock: clock.NewFakeClock(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)),
	})
}

func TestCreateDevice(t *testing.T) {
	ctx := context.Background()
	svc := newDeviceService(t)

	created, err := svc.Create(ctx, domain.CreateRequest{Name: " PS5-1 ", Category: "console"})
	require.NoError(t, err)
	assert.Equal(t, "PS5-1", created.Name)
	assert.Equal(t, domain.CategoryConsole, created.Category)
	assert.Equal(t, domain.StatusAvailable, created.Status)
	assert.Nil(t, created.ActiveSessionID)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "PS5-1", Category: "CONSOLE"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "Table 9", Category: "DARTS"})
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "  ", Category: "CONSOLE"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestListDevicesByCategory(t *testing.T) {
	ctx := context.Background()
	svc := newDeviceService(t)

	for _, req := range []domain.CreateRequest{
		{Name: "PS5-2", Category: "CONSOLE"},
		{Name: "Pool-1", Category: "BILLIARD"},
		{Name: "PS5-1", Category: "CONSOLE"},
	} {
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	consoles, err := svc.List(ctx, domain.ListRequest{Category: "console"})
	require.NoError(t, err)
	require.Len(t, consoles, 2)
	assert.Equal(t, "PS5-1", consoles[0].Name)
	assert.Equal(t, "PS5-2", consoles[1].Name)

	_, err = svc.List(ctx, domain.ListRequest{Category: "arcade"})
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)
}

func TestGetDevice(t *testing.T) {
	ctx := context.Background()
	svc := newDeviceService(t)

	created, err := svc.Create(ctx, domain.CreateRequest{Name: "Carrom", Category: "BOARD_GAME"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.Get(ctx, "not-a-number")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.Get(ctx, "42")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEnsureByNameKeepsIDAndUpdatesCategory(t *testing.T) {
	ctx := context.Background()
	svc := newDeviceService(t)

	first, err := svc.EnsureByName(ctx, "Table-1", domain.CategoryBilliard)
	require.NoError(t, err)

	again, err := svc.EnsureByName(ctx, "Table-1", domain.CategoryBilliard)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	moved, err := svc.EnsureByName(ctx, "Table-1", domain.CategoryBoardGame)
	require.NoError(t, err)
	assert.Equal(t, first.ID, moved.ID)
	assert.Equal(t, domain.CategoryBoardGame, moved.Category)

	stored, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryBoardGame, stored.Category)
}
