package service

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"prestamos-backend/internal/logger"
)

type webhookNotifier struct {
	client *resty.Client
	url    string
}

// NewWebhookNotifier posts plain-text messages to a chat webhook. With an
// empty URL it degrades to a no-op, which keeps local setups working
// without a channel configured.
func NewWebhookNotifier(url string, timeout time.Duration) Notifier {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0)
	return &webhookNotifier{client: client, url: url}
}

func (n *webhookNotifier) Notify(ctx context.Context, text string) {
	if n.url == "" {
		return
	}
	logger.ExternalServiceCall("webhook", "notify")
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"content": text}).
		Post(n.url)
	if err != nil {
		// Notification failures never propagate to business flows.
		logger.ExternalServiceResult("webhook", "notify", err)
		return
	}
	if resp.IsError() {
		logger.Warn("Webhook rejected notification", "status", resp.StatusCode())
	}
}
