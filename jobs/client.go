package jobs

import (
	"context"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Client submits jobs to the queue. It implements auth.Notifier.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueActivation queues an activation email for delivery. The task id
// doubles as the correlation id in worker logs.
func (c *Client) EnqueueActivation(ctx context.Context, email, name, code string) error {
	task, err := NewActivationEmailTask(ActivationEmailPayload{To: email, Name: name, Code: code})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.TaskID(uuid.NewString()),
		asynq.MaxRetry(5),
	)
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
