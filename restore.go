package ddbrestore

import (
	"context"
	"runtime"

	"go.uber.org/zap"
)

type RestorerOption struct {
	Client      DynamoDBAPI
	Schemas     *SchemaRegistry
	WaitPolicy  WaitPolicy
	Concurrency int
	Logger      *zap.Logger
	Events      EventHandler
	// ReplayRetry is how often a throttled put is retried. Zero means
	// RETRY_NUMBER and a negative value disables retries.
	ReplayRetry int
}

type Restorer struct {
	schemas     *SchemaRegistry
	provisioner *Provisioner
	waiter      *Waiter
	replayer    *Replayer
	concurrency int
	logger      *zap.Logger
	events      EventHandler
}

func NewRestorer(opt *RestorerOption) *Restorer {
	logger := opt.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	schemas := opt.Schemas
	if schemas == nil {
		schemas = DefaultRegistry()
	}

	concurrency := opt.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	retry := opt.ReplayRetry
	if retry == 0 {
		retry = RETRY_NUMBER
	}

	return &Restorer{
		schemas:     schemas,
		provisioner: NewProvisioner(opt.Client, logger),
		waiter:      NewWaiter(opt.Client, opt.WaitPolicy, logger).WithEvents(opt.Events),
		replayer: NewReplayer(opt.Client, &ReplayerOption{
			Logger: logger,
			Events: opt.Events,
			Retry:  retry,
		}),
		concurrency: concurrency,
		logger:      logger,
		events:      opt.Events,
	}
}

// Restore runs provisioning for every table, then waits for all of them, then
// replays records. A table only moves to the next phase when the previous one
// succeeded for it; the others end up ABORTED.
func (r *Restorer) Restore(ctx context.Context, snapshot *Snapshot) *Report {
	report := &Report{}
	for _, name := range snapshot.Tables() {
		report.Tables = append(report.Tables, &TableReport{
			Name:      name,
			State:     StateUnknown,
			ItemCount: len(snapshot.Records(name)),
		})
	}

	r.provision(ctx, report)
	r.wait(ctx, report)
	r.replay(ctx, snapshot, report)

	r.events.emit(Event{Kind: EventPhase, Phase: PhaseDone})
	r.logger.Info("restore finished",
		zap.Int("tables", len(report.Tables)),
		zap.Int("items", report.ItemCount()),
		zap.Int("failedItems", report.FailedItemCount()),
		zap.Strings("abortedTables", report.AbortedTables()))

	return report
}

func (r *Restorer) provision(ctx context.Context, report *Report) {
	r.events.emit(Event{Kind: EventPhase, Phase: PhaseProvision})

	for _, t := range report.Tables {
		t.State = StateProvisioning
		t.Provision = r.provisioner.Ensure(ctx, t.Name, r.schemas.Resolve(t.Name))

		switch t.Provision.Status {
		case ProvisionCreated:
			t.State = StateCreated
		case ProvisionAlreadyExists:
			t.State = StateAlreadyExists
		default:
			t.State = StateAborted
		}

		provision := t.Provision
		r.events.emit(Event{Kind: EventProvisioned, Table: t.Name, Provision: &provision, Err: provision.Err})
	}
}

func (r *Restorer) wait(ctx context.Context, report *Report) {
	var names []string
	for _, t := range report.Tables {
		if t.Aborted() {
			continue
		}
		t.State = StateWaiting
		names = append(names, t.Name)
	}
	if len(names) == 0 {
		return
	}

	r.events.emit(Event{Kind: EventPhase, Phase: PhaseWait})

	waitReport := r.waiter.AwaitReady(ctx, names)
	for _, res := range waitReport.Results {
		res := res
		t := report.Table(res.Table)
		t.Wait = &res

		if res.Ready {
			t.State = StateActive
		} else {
			t.State = StateAborted
		}
	}
}

func (r *Restorer) replay(ctx context.Context, snapshot *Snapshot, report *Report) {
	var ready []*TableReport
	for _, t := range report.Tables {
		if t.State == StateActive {
			ready = append(ready, t)
		}
	}
	if len(ready) == 0 {
		return
	}

	r.events.emit(Event{Kind: EventPhase, Phase: PhaseReplay})

	tasks := make(chan Task)
	results := make(chan Result)

	procs := r.concurrency
	if procs > len(ready) {
		procs = len(ready)
	}
	for i := 0; i < procs; i++ {
		go worker(ctx, tasks, results)
	}

	go func() {
		for i, t := range ready {
			t.State = StateReplaying
			tasks <- &RestoreTask{
				index:     i,
				tableName: t.Name,
				schema:    r.schemas.Resolve(t.Name),
				records:   snapshot.Records(t.Name),
				replayer:  r.replayer,
			}
		}
		close(tasks)
	}()

	for range ready {
		result := (<-results).(*RestoreResult)
		t := ready[result.index]
		t.Replay = result.Summary()
		t.State = StateDone

		if err := result.Error(); err != nil {
			r.logger.Warn("table replayed with failures",
				zap.String("table", t.Name),
				zap.Int("restored", result.Count()),
				zap.Int("failed", t.FailedItemCount()),
				zap.NamedError("firstError", err))
		} else {
			r.logger.Debug("table replayed", zap.String("table", t.Name), zap.Int("restored", result.Count()))
		}

		r.events.emit(Event{Kind: EventTableReplayed, Table: t.Name, Replay: t.Replay})
	}
}
