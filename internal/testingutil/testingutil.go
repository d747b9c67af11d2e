package testingutil

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"
)

const (
	DEFAULT_LOCAL_ENDPOINT = "http://localhost:8000"
)

type ClientOption struct {
	Local string
}

// InitClient builds a client for integration tests. DDBRESTORE_LOCAL
// overrides the DynamoDB Local endpoint.
func InitClient(opt *ClientOption) *dynamodb.Client {
	local := opt.Local
	if env := os.Getenv("DDBRESTORE_LOCAL"); env != "" {
		local = env
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion("ap-southeast-1"))
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	if local == "" {
		return dynamodb.NewFromConfig(cfg)
	}

	endpoint := checkAndFixURLSchema(local)

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
}

func checkAndFixURLSchema(endpoint string) string {
	if strings.HasPrefix(endpoint, "https://") || strings.HasPrefix(endpoint, "http://") {
		return endpoint
	}

	return "http://" + endpoint
}

// DeleteTable drops a table and waits until DescribeTable no longer finds it.
// A table that does not exist is not an error.
func DeleteTable(client *dynamodb.Client, tableName string) error {
	_, err := client.DeleteTable(context.TODO(), &dynamodb.DeleteTableInput{
		TableName: &tableName,
	})
	if err != nil {
		var rnfe *types.ResourceNotFoundException
		if errors.As(err, &rnfe) {
			return nil
		}

		return err
	}

	for {
		describe, err := client.DescribeTable(context.TODO(), &dynamodb.DescribeTableInput{TableName: &tableName})
		if err != nil {
			var rnfe *types.ResourceNotFoundException
			if errors.As(err, &rnfe) {
				return nil
			}

			return err
		}

		if describe.Table.TableStatus == types.TableStatusDeleting {
			fmt.Printf("\rtable deleting...")
		}

		time.Sleep(500 * time.Millisecond)
	}
}

func CountItems(client *dynamodb.Client, tableName string) (int, error) {
	count := 0
	params := &dynamodb.ScanInput{
		TableName: &tableName,
		Select:    types.SelectCount,
	}

	for {
		res, err := client.Scan(context.TODO(), params)
		if err != nil {
			return 0, err
		}
		count += int(res.Count)

		if len(res.LastEvaluatedKey) == 0 {
			return count, nil
		}
		params.ExclusiveStartKey = res.LastEvaluatedKey
	}
}

// WriteFile writes content into a new file under t.TempDir and returns its path.
func WriteFile(t *testing.T, name string, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}
