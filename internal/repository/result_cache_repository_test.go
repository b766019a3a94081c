package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
)

type cachedResult struct {
	TimetableID string  `json:"timetableId"`
	Penalty     float64 `json:"penalty"`
}

func newResultCache(t *testing.T) (*ResultCacheRepository, *miniredis.Miniredis) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewResultCacheRepository(client), srv
}

func TestResultCacheRoundTrip(t *testing.T) {
	repo, srv := newResultCache(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, testFingerprint, cachedResult{TimetableID: "tt-1", Penalty: 2}, time.Minute))
	assert.True(t, srv.Exists("timetable:result:"+testFingerprint))
	assert.Equal(t, time.Minute, srv.TTL(ResultKey(testFingerprint)))

	var got cachedResult
	require.NoError(t, repo.Get(ctx, testFingerprint, &got))
	assert.Equal(t, cachedResult{TimetableID: "tt-1", Penalty: 2}, got)

	require.NoError(t, repo.Delete(ctx, testFingerprint))
	assert.ErrorIs(t, repo.Get(ctx, testFingerprint, &got), appErrors.ErrCacheMiss)
}

func TestResultCacheExpires(t *testing.T) {
	repo, srv := newResultCache(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, testFingerprint, cachedResult{TimetableID: "tt-1"}, time.Second))
	srv.FastForward(2 * time.Second)

	var got cachedResult
	assert.ErrorIs(t, repo.Get(ctx, testFingerprint, &got), appErrors.ErrCacheMiss)
}

func TestResultCacheCorruptPayload(t *testing.T) {
	repo, srv := newResultCache(t)
	require.NoError(t, srv.Set(ResultKey(testFingerprint), "{not json"))

	var got cachedResult
	err := repo.Get(context.Background(), testFingerprint, &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestResultCacheWithoutClient(t *testing.T) {
	repo := NewResultCacheRepository(nil)
	ctx := context.Background()

	var got cachedResult
	assert.ErrorIs(t, repo.Get(ctx, testFingerprint, &got), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, testFingerprint, got, time.Minute))
	assert.NoError(t, repo.Delete(ctx, testFingerprint))
	assert.NoError(t, repo.Ping(ctx))
}
