package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hvirtan/reportpipe/internal/store"
)

type webhookEnvelope struct {
	Pipeline     string          `json:"pipeline"`
	ReportID     string          `json:"reportId"`
	Title        string          `json:"title"`
	Content      string          `json:"content"`
	RenderBlocks json.RawMessage `json:"renderBlocks"`
	SentAt       time.Time       `json:"sentAt"`
}

type WebhookSender struct {
	http *http.Client
}

func NewWebhookSender(client *http.Client) *WebhookSender {
	return &WebhookSender{http: client}
}

func (s *WebhookSender) Send(
	ctx context.Context,
	rep *store.Report,
	pipelineName, configJSON string,
) error {
	conf, err := parseConfig[WebhookConfig](store.ChannelWebhook, configJSON)
	if err != nil {
		return err
	}
	if conf.URL == "" {
		return errors.New("webhook config requires a url")
	}
	method := conf.Method
	if method == "" {
		method = http.MethodPost
	}

	body, err := json.Marshal(webhookEnvelope{
		Pipeline:     pipelineName,
		ReportID:     rep.ReportID,
		Title:        rep.Title,
		Content:      rep.ContentHTML,
		RenderBlocks: json.RawMessage(rep.RenderBlocks),
		SentAt:       time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, conf.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range conf.Headers {
		req.Header.Set(k, v)
	}

	res, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return fmt.Errorf("webhook returned %d: %s", res.StatusCode, string(detail))
	}
	return nil
}
