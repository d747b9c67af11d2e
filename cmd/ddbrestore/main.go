package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/shuntaka9576/ddbrestore"
	"github.com/shuntaka9576/ddbrestore/cli"
)

const (
	EXIT_OK      = 0
	EXIT_FATAL   = 1
	EXIT_PARTIAL = 2
)

var CLI struct {
	Snapshot     string          `arg:"" optional:"" name:"snapshot" default:"backup-latest.json" help:"Snapshot file to restore (.json or .json.gz)."`
	Local        string          `short:"L" name:"local" help:"Specify DynamoDB local endpoint. ex: (http://)localhost:8000"`
	Region       string          `name:"region" env:"AWS_REGION" default:"ap-southeast-1" help:"AWS region."`
	Schema       string          `short:"s" name:"schema" help:"YAML file with table schemas, layered over the built-in ones."`
	WaitInterval time.Duration   `name:"wait-interval" default:"1s" help:"Interval between table status checks."`
	WaitTimeout  time.Duration   `name:"wait-timeout" default:"10m" help:"Give up on a table that is not ACTIVE after this long (0 for no limit)."`
	WaitAttempts int             `name:"wait-attempts" default:"0" help:"Give up on a table after this many status checks (0 for no limit)."`
	WaitForever  bool            `name:"wait-forever" help:"Wait for tables until interrupted, ignoring --wait-timeout and --wait-attempts."`
	Concurrency  int             `short:"p" name:"concurrency" default:"0" help:"Number of tables restored in parallel (default runtime.NumCPU())."`
	PutRetries   int             `name:"put-retries" default:"3" help:"Retries of a throttled put before the item counts as failed (0 disables retries)."`
	DryRun       bool            `short:"d" name:"dry-run" help:"Simulate WRUs/WCUs to consume without calling DynamoDB."`
	Progress     bool            `name:"progress" help:"Show a progress view instead of one line per item."`
	LogLevel     string          `name:"log-level" enum:"debug,info,warn,error" default:"warn" help:"Log level (debug, info, warn, error)."`
	Version      cli.VersionFlag `short:"v" name:"version" help:"print the version."`
}

func waitPolicy() ddbrestore.WaitPolicy {
	if CLI.WaitForever {
		policy := ddbrestore.UnboundedWaitPolicy()
		if CLI.WaitInterval > 0 {
			policy.Interval = CLI.WaitInterval
		}

		return policy
	}

	return ddbrestore.WaitPolicy{
		Interval:    CLI.WaitInterval,
		MaxAttempts: CLI.WaitAttempts,
		Timeout:     CLI.WaitTimeout,
	}
}

func main() {
	kong.Parse(&CLI,
		kong.Name("ddbrestore"),
		kong.Description("Restore DynamoDB tables from a JSON snapshot"),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := cli.SetupLogger(CLI.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup logger: %s\n", err)
		os.Exit(EXIT_FATAL)
	}
	defer logger.Sync()

	cmdErrCh := make(chan error)

	go func() {
		cmdErrCh <- cli.Restore(ctx, &cli.RestoreOption{
			FilePath:    CLI.Snapshot,
			SchemaPath:  CLI.Schema,
			Local:       CLI.Local,
			Region:      CLI.Region,
			WaitPolicy:  waitPolicy(),
			Concurrency: CLI.Concurrency,
			PutRetry:    CLI.PutRetries,
			DryRun:      CLI.DryRun,
			Progress:    CLI.Progress,
			Logger:      logger,
		})
	}()

	err = <-cmdErrCh
	if err == nil {
		os.Exit(EXIT_OK)
	}

	switch {
	case errors.Is(err, cli.ErrPartialRestore):
		os.Exit(EXIT_PARTIAL)
	case errors.Is(err, ddbrestore.ErrSnapshotNotFound):
		fmt.Fprintf(os.Stderr, "✗ Backup file not found: %s\n", CLI.Snapshot)
	case errors.Is(err, ddbrestore.ErrSnapshotInvalid), errors.Is(err, ddbrestore.ErrSchemaInvalid):
		fmt.Fprintf(os.Stderr, "✗ %s\n", err)
	default:
		fmt.Fprintf(os.Stderr, "exec error: %s\n", err)
	}

	cancel()
	os.Exit(EXIT_FATAL)
}
