package ddbrestore

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	RETRY_NUMBER = 3

	DEFAULT_RETRY_INTERVAL = 200 * time.Millisecond
	MAX_RETRY_INTERVAL     = 2 * time.Second
)

type ItemFailure struct {
	Index  int
	ID     string
	Record Record
	Err    error
}

type ReplaySummary struct {
	Table     string
	Attempted int
	Succeeded int
	Failed    []ItemFailure
}

func (s *ReplaySummary) FailedIDs() []string {
	ids := make([]string, 0, len(s.Failed))
	for _, f := range s.Failed {
		ids = append(ids, f.ID)
	}

	return ids
}

type ReplayerOption struct {
	Logger *zap.Logger
	Events EventHandler
	// Retry is how many times a throttled put is retried before the item
	// counts as failed.
	Retry         int
	RetryInterval time.Duration
}

type Replayer struct {
	client        PutItemAPI
	logger        *zap.Logger
	events        EventHandler
	retry         int
	retryInterval time.Duration
}

func NewReplayer(client PutItemAPI, opt *ReplayerOption) *Replayer {
	if opt == nil {
		opt = &ReplayerOption{Retry: RETRY_NUMBER}
	}

	r := &Replayer{
		client:        client,
		logger:        opt.Logger,
		events:        opt.Events,
		retry:         opt.Retry,
		retryInterval: opt.RetryInterval,
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.retry < 0 {
		r.retry = 0
	}
	if r.retryInterval <= 0 {
		r.retryInterval = DEFAULT_RETRY_INTERVAL
	}

	return r
}

func (r *Replayer) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.retryInterval
	b.MaxInterval = MAX_RETRY_INTERVAL
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.retry)), ctx)
}

// Replay writes records one at a time in order. A failed item is recorded and
// the next one is attempted; the table's replay never stops early unless ctx
// is done.
func (r *Replayer) Replay(ctx context.Context, tableName string, schema TableSchema, records []Record) *ReplaySummary {
	summary := &ReplaySummary{Table: tableName}
	hashKey := schema.HashKey()
	logger := r.logger.With(zap.String("table", tableName))

	for i, record := range records {
		summary.Attempted++
		id := RecordID(record, hashKey)

		if err := ctx.Err(); err != nil {
			summary.Failed = append(summary.Failed, ItemFailure{Index: i, ID: id, Record: record, Err: err})
			continue
		}

		err := r.put(ctx, tableName, record)
		if err != nil {
			logger.Warn("restore item failed", zap.String("id", id), zap.Int("index", i), zap.Error(err))
			summary.Failed = append(summary.Failed, ItemFailure{Index: i, ID: id, Record: record, Err: err})
			r.events.emit(Event{Kind: EventItemFailed, Table: tableName, ItemID: id, Err: err})

			continue
		}

		summary.Succeeded++
		logger.Debug("restored item", zap.String("id", id))
		r.events.emit(Event{Kind: EventItemRestored, Table: tableName, ItemID: id})
	}

	return summary
}

func (r *Replayer) put(ctx context.Context, tableName string, record Record) error {
	item, err := MarshalRecord(record)
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      item,
	}

	return backoff.Retry(func() error {
		_, err := r.client.PutItem(ctx, input)
		if err != nil && !isThrottlingError(err) {
			return backoff.Permanent(err)
		}

		return err
	}, r.backOff(ctx))
}
