package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDataSourceSQLiteStore_CreateDataSource(t *testing.T) {
	t.Run("success - data source created", func(t *testing.T) {
		// arrange
		name := fmt.Sprintf("sales bucket %d", time.Now().UnixNano())
		config := `{"bucket":"sales-data","key":"weekly.csv","region":"eu-west-1"}`

		// act
		ds, err := dataSourceStore.CreateDataSource(
			context.Background(), name, SourceS3, config,
		)
		read, readErr := dataSourceStore.ReadDataSourceByID(context.Background(), ds.DataSourceID)

		// assert
		assert.NoError(t, err)
		assert.NoError(t, readErr)
		assert.Equal(t, name, read.Name)
		assert.Equal(t, SourceS3, read.SourceType)
		assert.Equal(t, config, read.ConfigJSON)
	})
	t.Run("failure - unknown source type rejected", func(t *testing.T) {
		// arrange
		name := fmt.Sprintf("bad source %d", time.Now().UnixNano())

		// act
		ds, err := dataSourceStore.CreateDataSource(
			context.Background(), name, SourceType("ftp"), "{}",
		)

		// assert
		assert.Error(t, err)
		assert.Nil(t, ds)
	})
}

func TestDataSourceSQLiteStore_ReadDataSourceByName(t *testing.T) {
	t.Run("success - data source found by name", func(t *testing.T) {
		// arrange
		name := fmt.Sprintf("api source %d", time.Now().UnixNano())
		created, err := dataSourceStore.CreateDataSource(
			context.Background(), name, SourceAPI, `{"url":"https://api.example.com/metrics"}`,
		)
		assert.NoError(t, err)

		// act
		read, readErr := dataSourceStore.ReadDataSourceByName(context.Background(), name)

		// assert
		assert.NoError(t, readErr)
		assert.Equal(t, created.DataSourceID, read.DataSourceID)
	})
}

func TestDataSourceSQLiteStore_DeleteDataSource(t *testing.T) {
	t.Run("success - data source is deleted", func(t *testing.T) {
		// arrange
		name := fmt.Sprintf("doomed source %d", time.Now().UnixNano())
		created, err := dataSourceStore.CreateDataSource(
			context.Background(), name, SourceUpload, `{"path":"/tmp/upload.csv"}`,
		)
		assert.NoError(t, err)

		// act
		deleteErr := dataSourceStore.DeleteDataSource(context.Background(), created.DataSourceID)
		read, readErr := dataSourceStore.ReadDataSourceByID(context.Background(), created.DataSourceID)

		// assert
		assert.NoError(t, deleteErr)
		assert.Error(t, readErr)
		assert.Nil(t, read)
	})
}
