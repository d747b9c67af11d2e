package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/shuntaka9576/ddbrestore"
)

// console prints restore events as plain lines. Successes go to out and
// failures to errOut.
type console struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
}

func newConsole(out, errOut io.Writer) *console {
	return &console{out: out, errOut: errOut}
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, format, args...)
}

func (c *console) errorf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.errOut, format, args...)
}

func (c *console) handle(e ddbrestore.Event) {
	switch e.Kind {
	case ddbrestore.EventPhase:
		switch e.Phase {
		case ddbrestore.PhaseProvision:
			c.printf("\nCreating tables...\n")
		case ddbrestore.PhaseWait:
			c.printf("\nWaiting for tables to be ready...\n")
		case ddbrestore.PhaseReplay:
			c.printf("\nRestoring tables...\n")
		}
	case ddbrestore.EventProvisioned:
		switch e.Provision.Status {
		case ddbrestore.ProvisionCreated:
			c.printf("  ✓ Created table: %s\n", e.Table)
		case ddbrestore.ProvisionAlreadyExists:
			c.printf("  ℹ Table %s already exists\n", e.Table)
		default:
			c.errorf("  ✗ Error creating %s: %s\n", e.Table, e.Err)
		}
	case ddbrestore.EventReady:
		c.printf("  ✓ %s is ready\n", e.Table)
	case ddbrestore.EventNotReady:
		c.errorf("  ✗ %s is not ready: %s\n", e.Table, e.Err)
	case ddbrestore.EventItemRestored:
		c.printf("  ✓ Restored %s: %s\n", e.Table, e.ItemID)
	case ddbrestore.EventItemFailed:
		c.errorf("  ✗ Error restoring %s %s: %s\n", e.Table, e.ItemID, e.Err)
	}
}

// summary prints one line per table in snapshot order followed by the
// overall result.
func (c *console) summary(report *ddbrestore.Report, unprocessedFile string) {
	c.printf("\n")

	for _, t := range report.Tables {
		switch {
		case t.Aborted():
			c.errorf("✗ Skipped %s: %d items not restored\n", t.Name, t.ItemCount)
		case t.FailedItemCount() > 0:
			c.printf("✓ Completed %s: %d items (%d failed)\n", t.Name, t.Replay.Attempted, t.FailedItemCount())
		case t.Replay != nil:
			c.printf("✓ Completed %s: %d items\n", t.Name, t.Replay.Attempted)
		}
	}

	if report.Succeeded() {
		c.printf("\n✓ Restore completed!\n")

		return
	}

	c.errorf("\n✗ Restore finished with errors: %d failed items, %d skipped tables\n",
		report.FailedItemCount(), len(report.AbortedTables()))
	if unprocessedFile != "" {
		c.errorf("Unprocessed records: %s\n", unprocessedFile)
	}
}
