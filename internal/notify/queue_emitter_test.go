package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/realty-ledger/internal/queue"

	"github.com/stretchr/testify/assert"
)

func TestQueueEmitterRequiresEnabledClient(t *testing.T) {
	disabled, err := queue.NewClient(nil)
	assert.NoError(t, err)

	err = NewQueueEmitter(disabled, 3).Emit(context.Background(), Event{RealtorID: 1, Kind: "withdrawal_requested"})
	assert.True(t, errors.Is(err, queue.ErrQueueDisabled))

	var nilEmitter *QueueEmitter
	assert.ErrorIs(t, nilEmitter.Emit(context.Background(), Event{}), queue.ErrQueueDisabled)
}

func TestEventFromPayload(t *testing.T) {
	occurred := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	event := EventFromPayload(queue.NotificationDeliveryPayload{
		RealtorID:  9,
		Kind:       "withdrawal_rejected",
		Title:      "Withdrawal Rejected",
		Message:    "rejected",
		Metadata:   map[string]interface{}{"request_no": "r-1"},
		OccurredAt: occurred,
	})
	assert.Equal(t, uint(9), event.RealtorID)
	assert.Equal(t, "withdrawal_rejected", event.Kind)
	assert.Equal(t, "r-1", event.Metadata["request_no"])
	assert.True(t, event.OccurredAt.Equal(occurred))
}
