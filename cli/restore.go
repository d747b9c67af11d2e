package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/shuntaka9576/ddbrestore"
	"github.com/shuntaka9576/ddbrestore/ui"
	"go.uber.org/zap"
)

const DEFAULT_SNAPSHOT_PATH = "backup-latest.json"

type RestoreOption struct {
	FilePath    string
	SchemaPath  string
	Local       string
	Region      string
	WaitPolicy  ddbrestore.WaitPolicy
	Concurrency int
	DryRun      bool
	Progress    bool

	// PutRetry is how often a throttled put is retried. Zero disables
	// retries.
	PutRetry int

	// OutputDir is where the unprocessed record file is written. Empty means
	// the working directory.
	OutputDir string

	Logger *zap.Logger

	// Client replaces the client built from Local and Region.
	Client ddbrestore.DynamoDBAPI
	Stdout io.Writer
	Stderr io.Writer
}

func (c *RestoreOption) validate() error {
	if c.FilePath == "" {
		return errors.Wrap(ErrorOptInputError, "snapshot path is empty")
	}
	if c.Concurrency < 0 {
		return errors.Wrap(ErrorOptInputError, "concurrency must not be negative")
	}
	if c.PutRetry < 0 {
		return errors.Wrap(ErrorOptInputError, "put retries must not be negative")
	}
	if c.WaitPolicy.Interval < 0 || c.WaitPolicy.Timeout < 0 || c.WaitPolicy.MaxAttempts < 0 {
		return errors.Wrap(ErrorOptInputError, "wait options must not be negative")
	}

	return nil
}

func (c *RestoreOption) setDefaults() {
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// Restore loads the snapshot and restores every table in it. Problems with
// the options, the snapshot or the schema file are returned before any
// request is made. ErrPartialRestore is returned when the restore ran but
// some records were not written.
func Restore(ctx context.Context, opt *RestoreOption) error {
	err := opt.validate()
	if err != nil {
		return err
	}
	opt.setDefaults()

	out := newConsole(opt.Stdout, opt.Stderr)

	out.printf("Reading backup from: %s\n", displayPath(opt.FilePath))
	snapshot, err := ddbrestore.LoadSnapshot(opt.FilePath)
	if err != nil {
		return err
	}

	schemas := ddbrestore.DefaultRegistry()
	if opt.SchemaPath != "" {
		schemas, err = ddbrestore.LoadSchemaFile(opt.SchemaPath, schemas)
		if err != nil {
			return err
		}
	}

	if opt.DryRun {
		return dryRun(out, snapshot, schemas)
	}

	client := opt.Client
	if client == nil {
		client, err = ddbrestore.InitClient(ctx, &ddbrestore.DDBClientOption{
			Local:  opt.Local,
			Region: opt.Region,
		})
		if err != nil {
			return err
		}
	}

	retry := opt.PutRetry
	if retry == 0 {
		retry = -1
	}

	restorerOpt := &ddbrestore.RestorerOption{
		Client:      client,
		Schemas:     schemas,
		WaitPolicy:  opt.WaitPolicy,
		Concurrency: opt.Concurrency,
		Logger:      opt.Logger,
		Events:      out.handle,
		ReplayRetry: retry,
	}

	var report *ddbrestore.Report
	if opt.Progress {
		report = restoreWithProgress(ctx, restorerOpt, snapshot, opt.Stderr)
	} else {
		report = ddbrestore.NewRestorer(restorerOpt).Restore(ctx, snapshot)
	}

	var unprocessedFile string
	if !report.Succeeded() {
		unprocessedFile, err = writeUnprocessed(opt.OutputDir, report.Unprocessed(snapshot))
		if err != nil {
			opt.Logger.Error("write unprocessed records", zap.Error(err))
		}
	}

	out.summary(report, unprocessedFile)

	if !report.Succeeded() {
		return errors.Wrapf(ErrPartialRestore, "%d failed items, skipped tables %v",
			report.FailedItemCount(), report.AbortedTables())
	}

	return nil
}

func dryRun(out *console, snapshot *ddbrestore.Snapshot, schemas *ddbrestore.SchemaRegistry) error {
	estimates, err := ddbrestore.Simulate(&ddbrestore.SimulateOpt{Snapshot: snapshot, Schemas: schemas})
	if err != nil {
		return err
	}

	totalSize := 0
	for _, est := range estimates {
		unit := "WCU"
		if est.Mode == ddbrestore.OnDemand {
			unit = "WRU"
		}

		out.printf("%s: %d items, %s, %d %s\n",
			est.TableName, est.ItemCount, ddbrestore.PrettyPrintBytes(est.TotalItemSize), est.WriteUnits, unit)
		for _, id := range est.OversizeItems {
			out.errorf("  ✗ %s exceeds the item size limit\n", id)
		}
		for _, i := range est.MalformedItems {
			out.errorf("  ✗ record %d of %s is not a JSON object\n", i, est.TableName)
		}

		totalSize += est.TotalItemSize
	}

	out.printf("Total item size: %s\n", ddbrestore.PrettyPrintBytes(totalSize))

	return nil
}

// restoreWithProgress renders a progress view on w instead of line output.
func restoreWithProgress(ctx context.Context, opt *ddbrestore.RestorerOption, snapshot *ddbrestore.Snapshot, w io.Writer) *ddbrestore.Report {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tableItems := map[string]int{}
	for _, name := range snapshot.Tables() {
		tableItems[name] = len(snapshot.Records(name))
	}

	p := tea.NewProgram(ui.InitModel(&ui.Option{
		TableCount: snapshot.Len(),
		ItemCount:  snapshot.ItemCount(),
		TableItems: tableItems,
		Cancel:     cancel,
	}), tea.WithOutput(w))

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		if err := p.Start(); err != nil {
			opt.Logger.Error("progress view", zap.Error(err))
		}
	}()

	events := make(chan ddbrestore.Event, 64)
	go forward(p, events, finished)

	opt.Events = func(e ddbrestore.Event) {
		select {
		case events <- e:
		case <-finished:
		}
	}

	report := ddbrestore.NewRestorer(opt).Restore(ctx, snapshot)
	close(events)
	<-finished

	return report
}

type sender interface {
	Send(msg tea.Msg)
}

// forward passes events to the program until events is closed or the program
// has finished. A Send that blocks because the program already exited is
// abandoned.
func forward(p sender, events <-chan ddbrestore.Event, finished <-chan struct{}) {
	for e := range events {
		sent := make(chan struct{})
		go func(msg tea.Msg) {
			p.Send(msg)
			close(sent)
		}(ui.EventMsg(e))

		select {
		case <-sent:
		case <-finished:
			return
		}
	}
}

func unprocessedFileName(now time.Time) string {
	return fmt.Sprintf("unprocessed_record_%s.json", now.Format("20060102-150405"))
}

// writeUnprocessed stores the records that were not restored in snapshot
// format, so the file can be passed to a later restore as is.
func writeUnprocessed(dir string, unprocessed *ddbrestore.Snapshot) (string, error) {
	if unprocessed.Len() == 0 {
		return "", nil
	}

	data, err := json.MarshalIndent(unprocessed, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "marshal unprocessed records")
	}

	path := filepath.Join(dir, unprocessedFileName(time.Now()))
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", errors.Wrap(err, "write unprocessed records")
	}

	return path, nil
}
