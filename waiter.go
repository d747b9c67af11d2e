package ddbrestore

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	DEFAULT_WAIT_INTERVAL = 1 * time.Second
	DEFAULT_WAIT_TIMEOUT  = 10 * time.Minute
)

// WaitPolicy bounds how long a table may take to become ACTIVE. Zero
// MaxAttempts and zero Timeout mean no bound.
type WaitPolicy struct {
	Interval    time.Duration
	MaxAttempts int
	Timeout     time.Duration
}

func DefaultWaitPolicy() WaitPolicy {
	return WaitPolicy{
		Interval: DEFAULT_WAIT_INTERVAL,
		Timeout:  DEFAULT_WAIT_TIMEOUT,
	}
}

// UnboundedWaitPolicy polls until the table is ACTIVE or the context is
// cancelled.
func UnboundedWaitPolicy() WaitPolicy {
	return WaitPolicy{Interval: DEFAULT_WAIT_INTERVAL}
}

func (p WaitPolicy) Unbounded() bool {
	return p.MaxAttempts <= 0 && p.Timeout <= 0
}

func (p WaitPolicy) backOff(ctx context.Context) backoff.BackOff {
	interval := p.Interval
	if interval <= 0 {
		interval = DEFAULT_WAIT_INTERVAL
	}

	var b backoff.BackOff = backoff.NewConstantBackOff(interval)
	if p.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	}

	return backoff.WithContext(b, ctx)
}

var errTableNotActive = errors.New("table is not active")

type WaitResult struct {
	Table    string
	Ready    bool
	Attempts int
	Status   types.TableStatus
	Err      error
}

type WaitReport struct {
	Results []WaitResult
}

func (r WaitReport) Result(tableName string) (WaitResult, bool) {
	for _, res := range r.Results {
		if res.Table == tableName {
			return res, true
		}
	}

	return WaitResult{}, false
}

func (r WaitReport) NotReady() []string {
	var names []string
	for _, res := range r.Results {
		if !res.Ready {
			names = append(names, res.Table)
		}
	}

	return names
}

type Waiter struct {
	client DescribeTableAPI
	policy WaitPolicy
	logger *zap.Logger
	events EventHandler
}

func NewWaiter(client DescribeTableAPI, policy WaitPolicy, logger *zap.Logger) *Waiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Waiter{client: client, policy: policy, logger: logger}
}

func (w *Waiter) WithEvents(h EventHandler) *Waiter {
	w.events = h

	return w
}

// AwaitReady polls every table concurrently and returns once each one is
// ACTIVE or has given up. Results keep the order of tableNames.
func (w *Waiter) AwaitReady(ctx context.Context, tableNames []string) WaitReport {
	results := make([]WaitResult, len(tableNames))

	var wg sync.WaitGroup
	for i, name := range tableNames {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()

			results[i] = w.await(ctx, name)

			if results[i].Ready {
				w.events.emit(Event{Kind: EventReady, Table: name, Wait: &results[i]})
			} else {
				w.events.emit(Event{Kind: EventNotReady, Table: name, Wait: &results[i], Err: results[i].Err})
			}
		}(i, name)
	}
	wg.Wait()

	return WaitReport{Results: results}
}

func (w *Waiter) await(ctx context.Context, tableName string) WaitResult {
	if w.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.policy.Timeout)
		defer cancel()
	}

	result := WaitResult{Table: tableName}
	logger := w.logger.With(zap.String("table", tableName))

	operation := func() error {
		result.Attempts++

		out, err := w.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(tableName),
		})
		if err != nil {
			if isPermanentDescribeError(err) {
				return backoff.Permanent(err)
			}
			logger.Debug("describe table failed, retrying", zap.Int("attempt", result.Attempts), zap.Error(err))

			return err
		}

		if out.Table != nil {
			result.Status = out.Table.TableStatus
		}
		if result.Status != types.TableStatusActive {
			logger.Debug("table not active yet", zap.Int("attempt", result.Attempts), zap.String("status", string(result.Status)))

			return errTableNotActive
		}

		return nil
	}

	err := backoff.Retry(operation, w.policy.backOff(ctx))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		result.Err = errors.Wrapf(err, "table %s not ready after %d attempts", tableName, result.Attempts)
		logger.Warn("table never became active", zap.Int("attempts", result.Attempts), zap.Error(err))

		return result
	}

	result.Ready = true
	logger.Debug("table is active", zap.Int("attempts", result.Attempts))

	return result
}
