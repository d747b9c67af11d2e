package ddbrestore

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"

	"github.com/shuntaka9576/ddbrestore/internal/testingutil"
)

func TestRestoreTask_Run(t *testing.T) {
	cause := &smithy.GenericAPIError{Code: "ValidationException", Fault: smithy.FaultClient}

	var tests = []struct {
		name      string
		failID    string
		wantCount int
		wantErr   bool
	}{
		{name: "all restored", wantCount: 3},
		{name: "one failed", failID: "o2", wantCount: 2, wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fake := testingutil.NewFakeDynamoDB()
			fake.AddTable("Order", types.TableStatusActive)
			fake.PutError = func(table string, item map[string]any) error {
				if item["id"] == test.failID {
					return cause
				}

				return nil
			}

			task := &RestoreTask{
				index:     4,
				tableName: "Order",
				schema:    DefaultSchema(),
				records:   records("o1", "o2", "o3"),
				replayer:  NewReplayer(fake, nil),
			}

			tasks := make(chan Task, 1)
			results := make(chan Result, 1)
			tasks <- task
			close(tasks)
			worker(context.Background(), tasks, results)

			result := <-results
			assert.Equal(t, test.wantCount, result.Count())
			if test.wantErr {
				assert.ErrorIs(t, result.Error(), cause)
			} else {
				assert.NoError(t, result.Error())
			}
			assert.Equal(t, 4, result.(*RestoreResult).index)
		})
	}
}
