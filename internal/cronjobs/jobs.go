package cronjobs

import (
	"context"

	"conference-plugins/internal/tasks"
	"conference-plugins/pkg/logger"

	"go.uber.org/zap"
)

const (
	JobQueueReport     = "conversion-queue-report"
	JobDeadLetterRetry = "conversion-dead-letter-retry"
)

type QueueInspector interface {
	Stats(ctx context.Context) (tasks.Stats, error)
	RequeueDeadLetters(ctx context.Context) (tasks.RequeueResult, error)
}

// QueueReport logs the depth of the conversion queue and its dead letters.
func QueueReport(schedule string, queue QueueInspector, log *logger.Logger) Job {
	log = logger.OrNop(log)
	return Job{
		Name:     JobQueueReport,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			stats, err := queue.Stats(ctx)
			if err != nil {
				return err
			}
			fields := []zap.Field{
				zap.Int64("pending", stats.Pending),
				zap.Int64("dead_letter", stats.DeadLetter),
				zap.Int64("parked", stats.Parked),
			}
			if stats.DeadLetter > 0 {
				log.Warn(ctx, "conversion queue has dead letters", fields...)
				return nil
			}
			log.Info(ctx, "conversion queue report", fields...)
			return nil
		},
	}
}

// DeadLetterRetry gives dead-lettered tasks another round. Tasks past their
// requeue budget are parked by the queue and reported here.
func DeadLetterRetry(schedule string, queue QueueInspector, log *logger.Logger) Job {
	log = logger.OrNop(log)
	return Job{
		Name:     JobDeadLetterRetry,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			res, err := queue.RequeueDeadLetters(ctx)
			if err != nil {
				return err
			}
			if res.Requeued > 0 {
				log.Info(ctx, "requeued dead-lettered tasks", zap.Int64("count", res.Requeued))
			}
			if res.Parked > 0 {
				log.Warn(ctx, "parked tasks that will not be retried", zap.Int64("count", res.Parked))
			}
			return nil
		},
	}
}
