package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeApplicationReceived = "notify:application_received"
	TypePhotoUploaded       = "notify:photo_uploaded"
	TypeStatusChanged       = "notify:status_changed"
)

// ApplicationReceivedPayload 指向一份刚提交的申请，worker 负责向全部在职 HR 扇出通知。
type ApplicationReceivedPayload struct {
	ApplicationID uint   `json:"application_id"`
	CorrelationID string `json:"correlation_id"`
}

// PhotoUploadedPayload 指向一份刚补充照片的申请。
type PhotoUploadedPayload struct {
	ApplicationID uint   `json:"application_id"`
	CorrelationID string `json:"correlation_id"`
}

// StatusChangedPayload 描述一次状态变更，worker 据此通知候选人本人。
type StatusChangedPayload struct {
	ApplicationID uint   `json:"application_id"`
	Status        string `json:"status"`
	CorrelationID string `json:"correlation_id"`
}

// NewApplicationReceivedTask 构造新申请通知任务。
func NewApplicationReceivedTask(id uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ApplicationReceivedPayload{
		ApplicationID: id,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeApplicationReceived, payload), nil
}

// NewPhotoUploadedTask 构造照片上传通知任务。
func NewPhotoUploadedTask(id uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(PhotoUploadedPayload{
		ApplicationID: id,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePhotoUploaded, payload), nil
}

// NewStatusChangedTask 构造状态变更通知任务。
func NewStatusChangedTask(id uint, status string, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(StatusChangedPayload{
		ApplicationID: id,
		Status:        status,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeStatusChanged, payload), nil
}
