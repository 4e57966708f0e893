package store

import (
	"context"
	"time"
)

type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWebhook  Channel = "webhook"
	ChannelTelegram Channel = "telegram"
)

func ValidChannel(c Channel) bool {
	switch c {
	case ChannelEmail, ChannelWebhook, ChannelTelegram:
		return true
	}
	return false
}

type Delivery struct {
	DeliveryID         string
	DeliveryScheduleID string
	Channel            Channel
	ConfigJSON         string
	Enabled            bool
	CreatedOn          time.Time
}

type DeliveryStore interface {
	CreateDelivery(ctx context.Context, scheduleID string, channel Channel, configJSON string, enabled bool) (*Delivery, error)
	ReadDeliveryByID(ctx context.Context, id string) (*Delivery, error)
	ListScheduleDeliveries(ctx context.Context, scheduleID string) ([]*Delivery, error)
	SetDeliveryEnabled(ctx context.Context, id string, enabled bool) error
	DeleteDelivery(ctx context.Context, id string) error
}
