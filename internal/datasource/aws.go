package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const athenaPollInterval = 2 * time.Second

type awsClients struct{}

func loadAWSConfig(ctx context.Context, region, accessKey, secretKey string) (aws.Config, error) {
	var optFns []func(*config.LoadOptions) error
	if region != "" {
		optFns = append(optFns, config.WithRegion(region))
	}
	if accessKey != "" && secretKey != "" {
		optFns = append(optFns, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

type s3Config struct {
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	Region    string `json:"region"`
	AccessKey string `json:"accessKey"`
	SecretKey string `json:"secretKey"`
	Format    string `json:"format"`
}

func (a *awsClients) fetchS3(ctx context.Context, configJSON string) (*Result, error) {
	var conf s3Config
	if err := json.Unmarshal([]byte(configJSON), &conf); err != nil {
		return nil, fmt.Errorf("invalid s3 config: %w", err)
	}
	cfg, err := loadAWSConfig(ctx, conf.Region, conf.AccessKey, conf.SecretKey)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg)

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(conf.Bucket),
		Key:    aws.String(conf.Key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, &NotFoundError{Kind: "s3 object", Ref: conf.Bucket + "/" + conf.Key}
		}
		return nil, err
	}
	defer out.Body.Close()

	format := conf.Format
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(conf.Key), ".")
	}
	switch format {
	case "csv":
		return parseCSV(out.Body)
	case "json":
		return parseJSON(out.Body)
	default:
		return nil, fmt.Errorf("unsupported s3 object format %q", format)
	}
}

type athenaConfig struct {
	Query          string `json:"query"`
	Database       string `json:"database"`
	OutputLocation string `json:"outputLocation"`
	Workgroup      string `json:"workgroup"`
	Region         string `json:"region"`
	AccessKey      string `json:"accessKey"`
	SecretKey      string `json:"secretKey"`
}

func (a *awsClients) fetchAthena(ctx context.Context, configJSON string) (*Result, error) {
	var conf athenaConfig
	if err := json.Unmarshal([]byte(configJSON), &conf); err != nil {
		return nil, fmt.Errorf("invalid athena config: %w", err)
	}
	cfg, err := loadAWSConfig(ctx, conf.Region, conf.AccessKey, conf.SecretKey)
	if err != nil {
		return nil, err
	}
	client := athena.NewFromConfig(cfg)

	input := &athena.StartQueryExecutionInput{
		QueryString: aws.String(conf.Query),
		QueryExecutionContext: &athenatypes.QueryExecutionContext{
			Database: aws.String(conf.Database),
		},
		ResultConfiguration: &athenatypes.ResultConfiguration{
			OutputLocation: aws.String(conf.OutputLocation),
		},
	}
	if conf.Workgroup != "" {
		input.WorkGroup = aws.String(conf.Workgroup)
	}
	started, err := client.StartQueryExecution(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := a.waitForQuery(ctx, client, started.QueryExecutionId); err != nil {
		return nil, err
	}
	return a.collectResults(ctx, client, started.QueryExecutionId)
}

func (a *awsClients) waitForQuery(
	ctx context.Context,
	client *athena.Client,
	executionID *string,
) error {
	for {
		out, err := client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: executionID,
		})
		if err != nil {
			return err
		}
		state := out.QueryExecution.Status.State
		switch state {
		case athenatypes.QueryExecutionStateSucceeded:
			return nil
		case athenatypes.QueryExecutionStateFailed, athenatypes.QueryExecutionStateCancelled:
			reason := ""
			if out.QueryExecution.Status.StateChangeReason != nil {
				reason = *out.QueryExecution.Status.StateChangeReason
			}
			return fmt.Errorf("athena query %s: %s", strings.ToLower(string(state)), reason)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(athenaPollInterval):
		}
	}
}

// collectResults turns Athena's row set into the normalized table. The
// first returned row repeats the column headers and is skipped.
func (a *awsClients) collectResults(
	ctx context.Context,
	client *athena.Client,
	executionID *string,
) (*Result, error) {
	columns := make([]string, 0)
	rows := make([]map[string]any, 0)
	var nextToken *string
	first := true
	for {
		out, err := client.GetQueryResults(ctx, &athena.GetQueryResultsInput{
			QueryExecutionId: executionID,
			NextToken:        nextToken,
		})
		if err != nil {
			return nil, err
		}
		if first {
			for _, ci := range out.ResultSet.ResultSetMetadata.ColumnInfo {
				columns = append(columns, aws.ToString(ci.Name))
			}
		}
		for i, row := range out.ResultSet.Rows {
			if first && i == 0 {
				continue
			}
			parsed := make(map[string]any, len(columns))
			for j, datum := range row.Data {
				if j < len(columns) {
					parsed[columns[j]] = aws.ToString(datum.VarCharValue)
				}
			}
			rows = append(rows, parsed)
		}
		first = false
		nextToken = out.NextToken
		if nextToken == nil {
			break
		}
	}
	return &Result{Columns: columns, Rows: rows, RowCount: len(rows)}, nil
}
