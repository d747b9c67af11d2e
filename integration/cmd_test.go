//go:build integration

package integration_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"testing"

	util "github.com/shuntaka9576/ddbrestore/internal/testingutil"
)

const (
	BIN = "ddbrestore"
)

func init() {
	fmt.Fprintln(os.Stderr, "# NOTE: the integration test needs DynamoDB Local and the ddbrestore binary in $PATH")
	out, err := exec.Command(BIN, "--version").Output()

	if err != nil {
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "testing %s\n", string(out))
}

func TestCmd_RestoreNG_SnapshotNotFound(t *testing.T) {
	ctx := context.Background()

	cmd, _, stderr := commandContext(ctx, localEnv(), "-L", localEndpoint(), filepath.Join(t.TempDir(), "nope.json"))
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	cmd.Wait()

	want := struct {
		exitCode     int
		stderrRegexp *regexp.Regexp
	}{
		exitCode:     1,
		stderrRegexp: regexp.MustCompile(`✗ Backup file not found: .*nope\.json`),
	}

	if cmd.ProcessState.ExitCode() != want.exitCode {
		t.Fatalf("return code %d, want %d", cmd.ProcessState.ExitCode(), want.exitCode)
	}

	if !want.stderrRegexp.MatchString(stderr.String()) {
		t.Fatalf("stderr %q does not match %s", stderr.String(), want.stderrRegexp)
	}
}

func TestCmd_RestoreOK(t *testing.T) {
	ctx := context.Background()
	client := util.InitClient(&util.ClientOption{Local: localEndpoint()})
	tableName := uniqueTableName("DdbrestoreOrder")

	t.Cleanup(func() {
		if err := util.DeleteTable(client, tableName); err != nil {
			t.Error(err)
		}
	})

	path := util.WriteFile(t, "backup-latest.json",
		fmt.Sprintf(`{%q: [{"id":"o1","total":10},{"id":"o2","total":20}]}`, tableName))

	var tests = []struct {
		name         string
		stdoutRegexp *regexp.Regexp
	}{
		{
			name:         "first restore creates the table",
			stdoutRegexp: regexp.MustCompile(`(?s)✓ Created table: ` + tableName + `.*✓ Completed ` + tableName + `: 2 items\n.*✓ Restore completed!`),
		},
		{
			name:         "second restore reuses the table",
			stdoutRegexp: regexp.MustCompile(`(?s)ℹ Table ` + tableName + ` already exists.*✓ Completed ` + tableName + `: 2 items\n`),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cmd, stdout, _ := commandContext(ctx, localEnv(), "-L", localEndpoint(), "--wait-interval", "200ms", path)
			if err := cmd.Start(); err != nil {
				t.Fatal(err)
			}
			cmd.Wait()

			if cmd.ProcessState.ExitCode() != 0 {
				t.Fatalf("return code %d, want %d", cmd.ProcessState.ExitCode(), 0)
			}

			if !test.stdoutRegexp.MatchString(stdout.String()) {
				t.Fatalf("stdout %q does not match %s", stdout.String(), test.stdoutRegexp)
			}

			count, err := util.CountItems(client, tableName)
			if err != nil {
				t.Fatal(err)
			}
			if count != 2 {
				t.Fatalf("item count %d, want %d", count, 2)
			}
		})
	}
}

func TestCmd_RestorePartial(t *testing.T) {
	ctx := context.Background()
	client := util.InitClient(&util.ClientOption{Local: localEndpoint()})
	tableName := uniqueTableName("DdbrestorePartial")
	dir := t.TempDir()

	t.Cleanup(func() {
		if err := util.DeleteTable(client, tableName); err != nil {
			t.Error(err)
		}
	})

	// id 2 is a number against a string key, 42 is not an object
	path := util.WriteFile(t, "backup-latest.json",
		fmt.Sprintf(`{%q: [{"id":"p1"}, {"id":2}, 42, {"id":"p4"}]}`, tableName))

	cmd, _, stderr := commandContext(ctx, localEnv(), "-L", localEndpoint(), "--wait-interval", "200ms", path)
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	cmd.Wait()

	want := struct {
		exitCode     int
		stderrRegexp *regexp.Regexp
	}{
		exitCode:     2,
		stderrRegexp: regexp.MustCompile(`✗ Restore finished with errors: 2 failed items, 0 skipped tables\nUnprocessed records: unprocessed_record_\d{8}-\d{6}\.json`),
	}

	if cmd.ProcessState.ExitCode() != want.exitCode {
		t.Fatalf("return code %d, want %d", cmd.ProcessState.ExitCode(), want.exitCode)
	}

	if !want.stderrRegexp.MatchString(stderr.String()) {
		t.Fatalf("stderr %q does not match %s", stderr.String(), want.stderrRegexp)
	}

	count, err := util.CountItems(client, tableName)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("item count %d, want %d", count, 2)
	}

	files, err := filepath.Glob(filepath.Join(dir, "unprocessed_record_*.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("unprocessed files %v, want 1", files)
	}
}

func TestCmd_DryRunOK(t *testing.T) {
	ctx := context.Background()
	path := util.WriteFile(t, "backup-latest.json", `{"User": [{"id":"u1","email":"a@example.com"}]}`)

	cmd, stdout, _ := commandContext(ctx, localEnv(), "--dry-run", path)
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	cmd.Wait()

	if cmd.ProcessState.ExitCode() != 0 {
		t.Fatalf("return code %d, want %d", cmd.ProcessState.ExitCode(), 0)
	}

	want := regexp.MustCompile(`User: 1 items, .* 1 WCU`)
	if !want.MatchString(stdout.String()) {
		t.Fatalf("stdout %q does not match %s", stdout.String(), want)
	}
}

func commandContext(ctx context.Context, env []string, arg ...string) (cmd *exec.Cmd, stdout, stderr *bytes.Buffer) {
	cmd = exec.CommandContext(ctx, BIN, arg...)
	cmd.Env = env

	var outBuf, errBuf bytes.Buffer

	cmd.Stdout = io.MultiWriter(&outBuf, os.Stdout)
	cmd.Stderr = io.MultiWriter(&errBuf, os.Stderr)

	return cmd, &outBuf, &errBuf
}
