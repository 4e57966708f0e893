package store

import (
	"context"
	"database/sql"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

type DeliverySQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewDeliverySQLiteStore(rdb, rwdb *sql.DB) *DeliverySQLiteStore {
	return &DeliverySQLiteStore{rdb, rwdb}
}

func (store *DeliverySQLiteStore) CreateDelivery(
	ctx context.Context,
	scheduleID string,
	channel Channel,
	configJSON string,
	enabled bool,
) (*Delivery, error) {
	d := &Delivery{
		DeliveryID:         uuid.NewString(),
		DeliveryScheduleID: scheduleID,
		Channel:            channel,
		ConfigJSON:         configJSON,
		Enabled:            enabled,
	}
	query := `insert into deliveries (
		delivery_id,
		delivery_schedule_id,
		channel,
		config_json,
		enabled
	)
	values ($1, $2, $3, $4, $5)
	returning created_on`
	if err := sqlscan.Get(
		ctx, store.rwdb, d, query,
		d.DeliveryID,
		d.DeliveryScheduleID,
		d.Channel,
		d.ConfigJSON,
		d.Enabled,
	); err != nil {
		return nil, err
	}
	return d, nil
}

func (store *DeliverySQLiteStore) ReadDeliveryByID(ctx context.Context, id string) (*Delivery, error) {
	d := &Delivery{}
	query := "select * from deliveries where delivery_id = $1"
	if err := sqlscan.Get(ctx, store.rdb, d, query, id); err != nil {
		return nil, err
	}
	return d, nil
}

func (store *DeliverySQLiteStore) ListScheduleDeliveries(
	ctx context.Context,
	scheduleID string,
) ([]*Delivery, error) {
	query := `select * from deliveries
	where delivery_schedule_id = $1
	order by created_on`
	deliveries := make([]*Delivery, 0)
	err := sqlscan.Select(ctx, store.rdb, &deliveries, query, scheduleID)
	return deliveries, err
}

func (store *DeliverySQLiteStore) SetDeliveryEnabled(
	ctx context.Context,
	id string,
	enabled bool,
) error {
	query := "update deliveries set enabled = $1 where delivery_id = $2"
	_, err := store.rwdb.ExecContext(ctx, query, enabled, id)
	return err
}

func (store *DeliverySQLiteStore) DeleteDelivery(ctx context.Context, id string) error {
	query := "delete from deliveries where delivery_id = $1"
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}
