package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/realty-ledger/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskNotificationDeliver 账本通知投递任务
	TaskNotificationDeliver = constants.TaskNotificationDeliver
)

// NotificationDeliveryPayload 通知投递任务载荷
type NotificationDeliveryPayload struct {
	RealtorID  uint                   `json:"realtor_id"`
	Kind       string                 `json:"kind"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// TaskID 提现单通知的去重标识，无单号时返回空
func (p NotificationDeliveryPayload) TaskID() string {
	requestNo, _ := p.Metadata["request_no"].(string)
	if requestNo == "" || p.Kind == "" {
		return ""
	}
	return fmt.Sprintf("notify:%s:%s", p.Kind, requestNo)
}

// NewNotificationDeliveryTask 创建通知投递任务
func NewNotificationDeliveryTask(payload NotificationDeliveryPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationDeliver, body), nil
}

// ParseNotificationDeliveryPayload 解析通知投递任务载荷
func ParseNotificationDeliveryPayload(body []byte) (NotificationDeliveryPayload, error) {
	var payload NotificationDeliveryPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return payload, err
	}
	return payload, nil
}
