package delivery

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hvirtan/reportpipe/internal/store"
)

// Result is one channel's delivery outcome. Failures are data here:
// DeliverReport only returns an error for datastore problems.
type Result struct {
	Channel store.Channel
	Success bool
	Error   string
	SentAt  time.Time
}

// Sender dispatches a report over one channel.
type Sender interface {
	Send(ctx context.Context, rep *store.Report, pipelineName, configJSON string) error
}

type Engine struct {
	deliveries store.DeliveryStore
	senders    map[store.Channel]Sender
}

func NewEngine(deliveries store.DeliveryStore, dashboardURL string) *Engine {
	client := &http.Client{Timeout: 30 * time.Second}
	return &Engine{
		deliveries: deliveries,
		senders: map[store.Channel]Sender{
			store.ChannelEmail:    NewEmailSender(dashboardURL),
			store.ChannelWebhook:  NewWebhookSender(client),
			store.ChannelTelegram: NewTelegramSender(client),
		},
	}
}

// DeliverReport dispatches the report to every enabled channel of the
// schedule concurrently. No configured channels is a valid state and
// yields an empty result list.
func (e *Engine) DeliverReport(
	ctx context.Context,
	rep *store.Report,
	pipelineName, scheduleID string,
) ([]Result, error) {
	deliveries, err := e.deliveries.ListScheduleDeliveries(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("listing schedule deliveries: %w", err)
	}

	enabled := make([]*store.Delivery, 0, len(deliveries))
	for _, d := range deliveries {
		if d.Enabled {
			enabled = append(enabled, d)
		}
	}

	results := make([]Result, len(enabled))
	var wg sync.WaitGroup
	for i, d := range enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = e.dispatch(ctx, rep, pipelineName, d)
		}()
	}
	wg.Wait()
	return results, nil
}

func (e *Engine) dispatch(
	ctx context.Context,
	rep *store.Report,
	pipelineName string,
	d *store.Delivery,
) Result {
	result := Result{Channel: d.Channel, SentAt: time.Now().UTC()}
	sender, ok := e.senders[d.Channel]
	if !ok {
		result.Error = fmt.Sprintf("no sender for channel %q", d.Channel)
		return result
	}
	if err := sender.Send(ctx, rep, pipelineName, d.ConfigJSON); err != nil {
		result.Error = err.Error()
		return result
	}
	result.Success = true
	return result
}
