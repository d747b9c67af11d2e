package ddbrestore

import (
	"context"
)

// RestoreResult is the outcome of replaying one table.
type RestoreResult struct {
	index   int
	summary *ReplaySummary
}

func (t *RestoreResult) Error() error {
	if t.summary == nil || len(t.summary.Failed) == 0 {
		return nil
	}

	return t.summary.Failed[0].Err
}

func (t *RestoreResult) Count() int {
	if t.summary == nil {
		return 0
	}

	return t.summary.Succeeded
}

func (t *RestoreResult) Summary() *ReplaySummary {
	return t.summary
}

// RestoreTask replays every record of a single table.
type RestoreTask struct {
	index     int
	tableName string
	schema    TableSchema
	records   []Record
	replayer  *Replayer
}

func (t *RestoreTask) Run(ctx context.Context) Result {
	return &RestoreResult{
		index:   t.index,
		summary: t.replayer.Replay(ctx, t.tableName, t.schema, t.records),
	}
}
