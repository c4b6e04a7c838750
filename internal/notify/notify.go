package notify

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Message is what the user sees. Buttons are addressed by index when a
// click comes back.
type Message struct {
	Title   string   `json:"title"`
	Body    string   `json:"message"`
	Buttons []string `json:"buttons,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) (string, error)
	Clear(ctx context.Context, id string) error
}

// LogNotifier writes notifications to the logger. It backs the CLI and any
// server run without connected clients.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	n.logger.Info(msg.Title,
		zap.String("notification_id", id),
		zap.String("message", msg.Body),
		zap.Strings("buttons", msg.Buttons),
	)
	return id, nil
}

func (n *LogNotifier) Clear(ctx context.Context, id string) error {
	n.logger.Debug("notification cleared", zap.String("notification_id", id))
	return nil
}
