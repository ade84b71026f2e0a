package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/lounge/internal/segment/domain"
	"github.com/smallbiznis/lounge/internal/segment/repository"
	"github.com/smallbiznis/lounge/internal/segment/service"
	"github.com/smallbiznis/lounge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var t0 = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

func TestSwitchKeepsOneOpenSegment(t *testing.T) {
	ctx := context.Background()
	node := testutil.NewNode(t)
	svc := service.New(service.Params{
		DB:    testutil.NewDB(t),
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})

	sessionID := node.Generate()
	standard := node.Generate()
	premium := node.Generate()

	require.NoError(t, svc.OpenInitial(ctx, nil, sessionID, standard, t0))
	require.NoError(t, svc.Switch(ctx, nil, domain.SwitchRequest{
		SessionID:        sessionID,
		NewProfileID:     premium,
		At:               t0.Add(30 * time.Minute),
		SessionStartedAt: t0,
		CurrentProfileID: standard,
	}))

	spans, err := svc.List(ctx, nil, sessionID, t0.Add(45*time.Minute))
	require.NoError(t, err)
	require.Len(t, spans, 2)

	assert.Equal(t, standard, spans[0].RateProfileID)
	assert.False(t, spans[0].Open)
	assert.InDelta(t, 30.0, spans[0].Minutes(), 1e-9)

	assert.Equal(t, premium, spans[1].RateProfileID)
	assert.True(t, spans[1].Open)
	assert.InDelta(t, 15.0, spans[1].Minutes(), 1e-9)

	closed, err := svc.Close(ctx, nil, sessionID, t0.Add(50*time.Minute))
	require.NoError(t, err)
	assert.True(t, closed)

	err = svc.Switch(ctx, nil, domain.SwitchRequest{
		SessionID:        sessionID,
		NewProfileID:     standard,
		At:               t0.Add(55 * time.Minute),
		SessionStartedAt: t0,
		CurrentProfileID: premium,
	})
	assert.ErrorIs(t, err, domain.ErrNoOpenSegment)

	spans, err = svc.List(ctx, nil, sessionID, t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, spans, 2)
	assert.False(t, spans[1].Open)
	assert.InDelta(t, 20.0, spans[1].Minutes(), 1e-9)
}

func TestSwitchBackfillsLegacySession(t *testing.T) {
	ctx := context.Background()
	node := testutil.NewNode(t)
	svc := service.New(service.Params{
		DB:    testutil.NewDB(t),
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})

	sessionID := node.Generate()
	legacy := node.Generate()
	next := node.Generate()

	require.NoError(t, svc.Switch(ctx, nil, domain.SwitchRequest{
		SessionID:        sessionID,
		NewProfileID:     next,
		At:               t0.Add(40 * time.Minute),
		SessionStartedAt: t0,
		CurrentProfileID: legacy,
	}))

	spans, err := svc.List(ctx, nil, sessionID, t0.Add(60*time.Minute))
	require.NoError(t, err)
	require.Len(t, spans, 2)
	assert.Equal(t, legacy, spans[0].RateProfileID)
	assert.True(t, t0.Equal(spans[0].StartedAt))
	assert.InDelta(t, 40.0, spans[0].Minutes(), 1e-9)
	assert.Equal(t, next, spans[1].RateProfileID)
	assert.True(t, spans[1].Open)
}
