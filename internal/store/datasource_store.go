package store

import (
	"context"
	"time"
)

type SourceType string

const (
	SourceAthena SourceType = "athena"
	SourceS3     SourceType = "s3"
	SourceAPI    SourceType = "api"
	SourceUpload SourceType = "upload"
)

func ValidSourceType(st string) bool {
	switch SourceType(st) {
	case SourceAthena, SourceS3, SourceAPI, SourceUpload:
		return true
	}
	return false
}

type DataSource struct {
	DataSourceID string
	Name         string
	SourceType   SourceType
	ConfigJSON   string
	CreatedOn    time.Time
	UpdatedOn    time.Time
}

type DataSourceStore interface {
	CreateDataSource(context.Context, string, SourceType, string) (*DataSource, error)
	ReadDataSourceByID(context.Context, string) (*DataSource, error)
	ReadDataSourceByName(context.Context, string) (*DataSource, error)
	DeleteDataSource(context.Context, string) error
	ListDataSources(context.Context) ([]*DataSource, error)
}
