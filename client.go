package ddbrestore

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/pkg/errors"
)

const DEFAULT_REGION = "ap-southeast-1"

type CreateTableAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

type DescribeTableAPI interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

type PutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoDBAPI is the subset of *dynamodb.Client a restore needs. One handle is
// shared by every phase.
type DynamoDBAPI interface {
	CreateTableAPI
	DescribeTableAPI
	PutItemAPI
}

type DDBClientOption struct {
	Local  string
	Region string
}

func checkAndFixURLSchema(endpoint string) string {
	if strings.HasPrefix(endpoint, "https://") || strings.HasPrefix(endpoint, "http://") {
		return endpoint
	}

	return "http://" + endpoint
}

// InitClient loads the default AWS config. Loading does not touch the network,
// so a client can be built before the snapshot is validated.
func InitClient(ctx context.Context, opt *DDBClientOption) (*dynamodb.Client, error) {
	region := opt.Region
	if region == "" {
		region = DEFAULT_REGION
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, errors.Wrap(err, "unable to load SDK config")
	}

	if opt.Local == "" {
		return dynamodb.NewFromConfig(cfg), nil
	}

	endpoint := checkAndFixURLSchema(opt.Local)

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	}), nil
}
