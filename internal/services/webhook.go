package services

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// WebhookNotifier POSTs share-change notifications to an external endpoint
// configured through SHARE_WEBHOOK_URL. When unset, notifications are
// dropped.
type WebhookNotifier struct {
	client *resty.Client
	url    string
}

// NewWebhookNotifier creates a notifier from the environment.
func NewWebhookNotifier() *WebhookNotifier {
	return &WebhookNotifier{
		client: resty.New().SetTimeout(5 * time.Second),
		url:    os.Getenv("SHARE_WEBHOOK_URL"),
	}
}

type visibilityChangedPayload struct {
	NoteID        string    `json:"noteId"`
	Visibility    string    `json:"visibility"`
	GrantsAdded   int       `json:"grantsAdded"`
	GrantsRemoved int       `json:"grantsRemoved"`
	Timestamp     time.Time `json:"timestamp"`
}

// NotifyVisibilityChanged reports a reconciliation that changed a note's
// grant set. Failures are logged, never surfaced to the write path.
func (w *WebhookNotifier) NotifyVisibilityChanged(ctx context.Context, noteID uuid.UUID, visibility string, added, removed int) {
	if w == nil || w.url == "" {
		return
	}

	payload := visibilityChangedPayload{
		NoteID:        noteID.String(),
		Visibility:    visibility,
		GrantsAdded:   added,
		GrantsRemoved: removed,
		Timestamp:     time.Now(),
	}

	_, err := w.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(w.url)
	if err != nil {
		log.Printf("Failed to deliver share webhook for note %s: %v", noteID, err)
	}
}
