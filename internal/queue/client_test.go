package queue

import (
	"context"
	"testing"
	"time"

	"github.com/realty-ledger/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledClient(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
	assert.ErrorIs(t, client.EnqueueNotificationDelivery(context.Background(), NotificationDeliveryPayload{RealtorID: 1}), ErrQueueDisabled)

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	assert.Equal(t, "127.0.0.1:6379", opt.Addr)
	assert.Equal(t, 10, cfg.Concurrency)
	assert.Equal(t, map[string]int{CriticalQueue: 2, DefaultQueue: 1}, cfg.Queues)
	assert.NotNil(t, cfg.RetryDelayFunc)
	assert.NotNil(t, cfg.ErrorHandler)

	opt, cfg = BuildServerConfig(&config.QueueConfig{
		Host:        " redis ",
		Port:        6380,
		DB:          2,
		Concurrency: 4,
		Queues:      map[string]int{"critical": 6, "default": 3},
	})
	assert.Equal(t, "redis:6380", opt.Addr)
	assert.Equal(t, 2, opt.DB)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 6, cfg.Queues["critical"])
}

func TestParseNotificationDeliveryPayloadRejectsGarbage(t *testing.T) {
	_, err := ParseNotificationDeliveryPayload([]byte("not json"))
	assert.Error(t, err)

	task, err := NewNotificationDeliveryTask(NotificationDeliveryPayload{RealtorID: 3, Kind: "withdrawal_approved"})
	require.NoError(t, err)
	assert.Equal(t, TaskNotificationDeliver, task.Type())
	payload, err := ParseNotificationDeliveryPayload(task.Payload())
	require.NoError(t, err)
	assert.Equal(t, uint(3), payload.RealtorID)
}

func TestQueueRoutingAndTaskID(t *testing.T) {
	assert.Equal(t, CriticalQueue, QueueForKind("withdrawal_requested"))
	assert.Equal(t, DefaultQueue, QueueForKind("commission_approved"))

	payload := NotificationDeliveryPayload{
		RealtorID: 1,
		Kind:      "withdrawal_approved",
		Metadata:  map[string]interface{}{"request_no": "PO-1"},
	}
	assert.Equal(t, "notify:withdrawal_approved:PO-1", payload.TaskID())
	assert.Empty(t, NotificationDeliveryPayload{Kind: "withdrawal_approved"}.TaskID())
}

func TestRetryDelayIsCapped(t *testing.T) {
	assert.Equal(t, time.Second, retryDelay(0, nil, nil))
	assert.Equal(t, 8*time.Second, retryDelay(3, nil, nil))
	assert.Equal(t, maxRetryDelay, retryDelay(12, nil, nil))
	assert.Equal(t, maxRetryDelay, retryDelay(40, nil, nil))
}
