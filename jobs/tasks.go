package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hypermedia-labs/trillas/internal/auth"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeActivationEmail is the task type for activation mail delivery.
	TaskTypeActivationEmail = "mail:activation"
	// TaskTypeTokenSweep is the task type for expired-token housekeeping.
	TaskTypeTokenSweep = "token:sweep"
)

// ActivationEmailPayload describes an activation mail to deliver.
type ActivationEmailPayload struct {
	To   string `json:"to"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// NewActivationEmailTask constructs an Asynq task.
func NewActivationEmailTask(payload ActivationEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeActivationEmail, data), nil
}

// ActivationMailer is the delivery collaborator the worker hands codes to.
type ActivationMailer interface {
	SendActivation(to, name, code string) error
}

// NewActivationEmailHandler processes TaskTypeActivationEmail tasks.
func NewActivationEmailHandler(mailer ActivationMailer, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ActivationEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if err := mailer.SendActivation(payload.To, payload.Name, payload.Code); err != nil {
			logger.Warn("send activation email", slog.String("to", payload.To), slog.Any("error", err))
			return err
		}
		return nil
	}
}

// NewTokenSweepTask constructs the housekeeping task.
func NewTokenSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeTokenSweep, nil)
}

// NewTokenSweepHandler deletes expired never-validated activation tokens
// older than a day. Validated tokens stay as the activation audit trail.
func NewTokenSweepHandler(repo auth.Repository, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		deleted, err := repo.DeleteExpiredTokens(ctx, time.Now().Add(-24*time.Hour))
		if err != nil {
			return err
		}
		logger.Info("token sweep", slog.Int64("deleted", deleted))
		return nil
	}
}
