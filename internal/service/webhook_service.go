package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

type WebhookPayload struct {
	MsgType string         `json:"msg_type"`
	Content WebhookContent `json:"content"`
}

type WebhookContent struct {
	Text string `json:"text"`
}

func BuildFailurePayload(projectName string, deploymentID int64, errorMessage string) WebhookPayload {
	return WebhookPayload{
		MsgType: "text",
		Content: WebhookContent{
			Text: fmt.Sprintf(
				"project %s deployment #%d failed: %s",
				projectName,
				deploymentID,
				errorMessage,
			),
		},
	}
}

// WebhookSender posts notification payloads with a timeout so a slow
// endpoint cannot stall the caller.
type WebhookSender struct {
	client *http.Client
}

func NewWebhookSender() *WebhookSender {
	return &WebhookSender{client: &http.Client{}}
}

func (ws *WebhookSender) Send(
	ctx context.Context,
	url string,
	payload WebhookPayload,
	timeout time.Duration,
) error {
	if url == "" {
		log.Println("webhook URL is empty, skipping")
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ws.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook request failed with status: %s", resp.Status)
	}
	return nil
}
