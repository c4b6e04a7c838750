package ws

import (
	"context"
	"encoding/json"
	"time"

	"job-tracker/internal/notify"

	"github.com/google/uuid"
)

const (
	EventNotification        = "notification"
	EventNotificationCleared = "notification_cleared"
	EventBadge               = "badge"
)

type Event struct {
	Type         string          `json:"type"`
	ID           string          `json:"id,omitempty"`
	Notification *notify.Message `json:"notification,omitempty"`
	Count        *int            `json:"count,omitempty"`
	Timestamp    string          `json:"timestamp"`
}

// Notifier delivers notifications to every connected client. A UI answers
// through the notification endpoints using the event id.
type Notifier struct {
	hub *Hub
	now func() time.Time
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub, now: time.Now}
}

func (n *Notifier) Notify(ctx context.Context, msg notify.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	m := msg
	return id, n.publish(Event{Type: EventNotification, ID: id, Notification: &m})
}

func (n *Notifier) Clear(ctx context.Context, id string) error {
	return n.publish(Event{Type: EventNotificationCleared, ID: id})
}

// PublishBadge sends the active application count. Zero means the badge is
// hidden.
func (n *Notifier) PublishBadge(count int) {
	_ = n.publish(Event{Type: EventBadge, Count: &count})
}

func (n *Notifier) publish(evt Event) error {
	evt.Timestamp = n.now().UTC().Format(time.RFC3339)
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	n.hub.Broadcast(b)
	return nil
}
