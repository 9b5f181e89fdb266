package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/realty-ledger/internal/config"
	"github.com/realty-ledger/internal/notify"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetClient(client, "test")
	t.Cleanup(func() {
		_ = Close()
	})
	return mr
}

func TestJSONRoundTripWithPrefix(t *testing.T) {
	mr := setupMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, "report:monthly:2024", []string{"100.00", "50.00"}, time.Minute))
	assert.True(t, mr.Exists("test:report:monthly:2024"))

	var got []string
	hit, err := GetJSON(ctx, "report:monthly:2024", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"100.00", "50.00"}, got)

	hit, err = GetJSON(ctx, "report:missing", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestDelByPrefix(t *testing.T) {
	mr := setupMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, "report:monthly:2024", 1, time.Minute))
	require.NoError(t, SetJSON(ctx, "report:metrics", 2, time.Minute))
	require.NoError(t, SetJSON(ctx, "other:key", 3, time.Minute))

	require.NoError(t, DelByPrefix(ctx, "report:"))
	assert.False(t, mr.Exists("test:report:monthly:2024"))
	assert.False(t, mr.Exists("test:report:metrics"))
	assert.True(t, mr.Exists("test:other:key"))
}

func TestDisabledCacheIsNoop(t *testing.T) {
	SetClient(nil, "")
	ctx := context.Background()

	assert.False(t, Enabled())
	require.NoError(t, SetJSON(ctx, "k", 1, time.Minute))
	var dest int
	hit, err := GetJSON(ctx, "k", &dest)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, PublishRealtorNotification(ctx, notify.Event{RealtorID: 1}))

	_, err = SubscribeRealtorNotifications(ctx, 1)
	assert.ErrorIs(t, err, ErrRedisDisabled)
}

func TestRealtorNotificationSubscription(t *testing.T) {
	setupMiniRedis(t)
	ctx := context.Background()

	sub, err := SubscribeRealtorNotifications(ctx, 7)
	require.NoError(t, err)
	defer sub.Close()

	other, err := SubscribeRealtorNotifications(ctx, 8)
	require.NoError(t, err)
	defer other.Close()

	require.NoError(t, PublishRealtorNotification(ctx, notify.Event{
		RealtorID: 7,
		Kind:      "withdrawal_requested",
		Title:     "Withdrawal Requested",
		Message:   "request received",
	}))

	select {
	case event := <-sub.Events():
		assert.Equal(t, uint(7), event.RealtorID)
		assert.Equal(t, "withdrawal_requested", event.Kind)
		assert.Equal(t, "Withdrawal Requested", event.Title)
	case <-time.After(2 * time.Second):
		t.Fatal("expected notification on subscribed channel")
	}

	select {
	case event := <-other.Events():
		t.Fatalf("unexpected event for other realtor: %+v", event)
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	_, open := <-sub.Events()
	assert.False(t, open)
}

func TestRememberLoadsOnceUntilInvalidated(t *testing.T) {
	setupMiniRedis(t)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"alice", "bruno"}, nil
	}

	got, err := Remember(ctx, "report:top:2024", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bruno"}, got)

	got, err = Remember(ctx, "report:top:2024", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bruno"}, got)
	assert.Equal(t, 1, calls)

	require.NoError(t, DelByPrefix(ctx, "report:"))
	_, err = Remember(ctx, "report:top:2024", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRememberSkipsCacheOnLoadError(t *testing.T) {
	mr := setupMiniRedis(t)
	ctx := context.Background()

	_, err := Remember(ctx, "report:metrics", time.Minute, func(context.Context) (int, error) {
		return 0, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, mr.Exists("test:report:metrics"))
}

func TestRememberWithoutRedisAlwaysLoads(t *testing.T) {
	SetClient(nil, "")
	calls := 0
	for i := 0; i < 2; i++ {
		got, err := Remember(context.Background(), "k", time.Minute, func(context.Context) (int, error) {
			calls++
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, got)
	}
	assert.Equal(t, 2, calls)
}

func TestInitRedisPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Cleanup(func() { _ = Close() })
	host, port := mr.Host(), mr.Port()
	portNum, err := strconv.Atoi(port)
	require.NoError(t, err)

	require.NoError(t, InitRedis(context.Background(), &config.RedisConfig{Enabled: true, Host: host, Port: portNum, Prefix: "rl"}))
	assert.True(t, Enabled())
	assert.Equal(t, "rl", Prefix())

	mr.Close()
	require.NoError(t, Close())
	err = InitRedis(context.Background(), &config.RedisConfig{Enabled: true, Host: host, Port: portNum})
	assert.Error(t, err)
	assert.False(t, Enabled())
}

func TestRememberScopedHidesEntriesAfterGenerationBump(t *testing.T) {
	setupMiniRedis(t)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	got, err := RememberScoped(ctx, "report", "metrics", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
	got, err = RememberScoped(ctx, "report", "metrics", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	require.NoError(t, BumpGeneration(ctx, "report"))
	got, err = RememberScoped(ctx, "report", "metrics", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	gen, err := Generation(ctx, "report")
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
}

func TestRememberScopedSkipsWriteWhenBumpedDuringLoad(t *testing.T) {
	mr := setupMiniRedis(t)
	ctx := context.Background()

	got, err := RememberScoped(ctx, "report", "monthly:2024", time.Minute, func(ctx context.Context) (string, error) {
		require.NoError(t, BumpGeneration(ctx, "report"))
		return "before-mutation", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "before-mutation", got)
	assert.False(t, mr.Exists("test:report:g0:monthly:2024"))
	assert.False(t, mr.Exists("test:report:g1:monthly:2024"))

	got, err = RememberScoped(ctx, "report", "monthly:2024", time.Minute, func(context.Context) (string, error) {
		return "after-mutation", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "after-mutation", got)
	assert.True(t, mr.Exists("test:report:g1:monthly:2024"))
}

func TestGenerationSurvivesPrefixCleanup(t *testing.T) {
	setupMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, BumpGeneration(ctx, "report"))
	require.NoError(t, DelByPrefix(ctx, "report:"))
	gen, err := Generation(ctx, "report")
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
}
