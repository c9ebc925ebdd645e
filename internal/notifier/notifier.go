package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"inbox-scout-go/internal/config"
	"inbox-scout-go/internal/model"
)

// Notifier fans out best-effort alerts for high-value leads. Deliveries
// are fire-and-forget: each runs in its own goroutine, owns its own
// failure logging, and never blocks the pipeline or the other delivery.
// There is no retry and no durable queue.
type Notifier struct {
	webhookURL string
	slackURL   string
	client     *http.Client
	wg         sync.WaitGroup
}

// New creates a new notifier. Either target may be unconfigured, in which
// case that delivery is skipped.
func New(cfg config.Notify) *Notifier {
	return &Notifier{
		webhookURL: cfg.WebhookURL,
		slackURL:   cfg.SlackURL,
		client:     &http.Client{},
	}
}

// NotifyInterested dispatches both deliveries for one record and returns
// immediately.
func (n *Notifier) NotifyInterested(record model.EmailRecord) {
	if n.webhookURL != "" {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			n.triggerWebhook(record)
		}()
	}

	if n.slackURL != "" {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			n.sendSlackAlert(record)
		}()
	}
}

// Wait blocks until all in-flight deliveries have finished. Used on
// shutdown so dispatched alerts get a chance to leave the process.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// triggerWebhook posts the generic automation event.
func (n *Notifier) triggerWebhook(record model.EmailRecord) {
	payload := map[string]interface{}{
		"event":     "email.interested",
		"email":     record.From,
		"subject":   record.Subject,
		"snippet":   record.Snippet,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := n.post(n.webhookURL, payload); err != nil {
		logrus.Errorf("Webhook delivery failed: %v", err)
		return
	}
	logrus.Info("Webhook triggered successfully")
}

// sendSlackAlert posts the chat-style message blocks.
func (n *Notifier) sendSlackAlert(record model.EmailRecord) {
	payload := map[string]interface{}{
		"text": fmt.Sprintf("New Interested Lead: %s", record.Subject),
		"blocks": []interface{}{
			section(map[string]interface{}{
				"type": "mrkdwn",
				"text": "*New Interested Lead Detected!*",
			}),
			map[string]interface{}{
				"type": "section",
				"fields": []interface{}{
					map[string]interface{}{"type": "mrkdwn", "text": fmt.Sprintf("*From*\n%s", record.From)},
					map[string]interface{}{"type": "mrkdwn", "text": fmt.Sprintf("*Subject*\n%s", record.Subject)},
				},
			},
			section(map[string]interface{}{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*Snippet*\n%s", record.Snippet),
			}),
		},
	}

	if err := n.post(n.slackURL, payload); err != nil {
		logrus.Errorf("Slack alert failed: %v", err)
		return
	}
	logrus.Info("Slack notification sent")
}

func section(text map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"type": "section", "text": text}
}

func (n *Notifier) post(url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	resp, err := n.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("target returned status %d", resp.StatusCode)
	}
	return nil
}
