package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"hrbot/internal/api/middleware"
)

type taskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// enqueueNotify 在主事务提交后投递通知任务。
// 通知是 best-effort：构造或投递失败只记日志，绝不影响已经成功的请求。
// 不配置重试，单次投递失败即视为该通知丢失。
func enqueueNotify(c *gin.Context, queue taskEnqueuer, task *asynq.Task, err error) {
	log := middleware.LoggerFromContext(c)
	if err != nil {
		log.Error("build notify task failed", slog.Any("error", err))
		return
	}
	if queue == nil {
		return
	}
	if _, err := queue.Enqueue(task, asynq.MaxRetry(0)); err != nil {
		log.Error("enqueue notify task failed",
			slog.String("task_type", task.Type()),
			slog.Any("error", err),
		)
	}
}
