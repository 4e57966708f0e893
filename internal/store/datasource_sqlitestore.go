package store

import (
	"context"
	"database/sql"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

type DataSourceSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewDataSourceSQLiteStore(rdb, rwdb *sql.DB) *DataSourceSQLiteStore {
	return &DataSourceSQLiteStore{rdb, rwdb}
}

func (store *DataSourceSQLiteStore) CreateDataSource(
	ctx context.Context,
	name string,
	sourceType SourceType,
	configJSON string,
) (*DataSource, error) {
	ds := &DataSource{
		DataSourceID: uuid.NewString(),
		Name:         name,
		SourceType:   sourceType,
		ConfigJSON:   configJSON,
	}
	query := `insert into data_sources (
		data_source_id,
		name,
		source_type,
		config_json
	)
	values ($1, $2, $3, $4)
	returning created_on, updated_on`
	err := sqlscan.Get(
		ctx, store.rwdb, ds, query,
		ds.DataSourceID,
		ds.Name,
		ds.SourceType,
		ds.ConfigJSON,
	)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func (store *DataSourceSQLiteStore) ReadDataSourceByID(
	ctx context.Context,
	id string,
) (*DataSource, error) {
	ds := &DataSource{}
	query := `select * from data_sources where data_source_id = $1`
	if err := sqlscan.Get(ctx, store.rdb, ds, query, id); err != nil {
		return nil, err
	}
	return ds, nil
}

func (store *DataSourceSQLiteStore) ReadDataSourceByName(
	ctx context.Context,
	name string,
) (*DataSource, error) {
	ds := &DataSource{}
	query := `select * from data_sources where name = $1`
	if err := sqlscan.Get(ctx, store.rdb, ds, query, name); err != nil {
		return nil, err
	}
	return ds, nil
}

func (store *DataSourceSQLiteStore) DeleteDataSource(ctx context.Context, id string) error {
	query := "delete from data_sources where data_source_id = $1"
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}

func (store *DataSourceSQLiteStore) ListDataSources(ctx context.Context) ([]*DataSource, error) {
	query := `select * from data_sources order by name`
	sources := make([]*DataSource, 0)
	err := sqlscan.Select(ctx, store.rdb, &sources, query)
	return sources, err
}
