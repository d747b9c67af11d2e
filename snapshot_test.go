package ddbrestore

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSnapshot_KeepsTableOrder(t *testing.T) {
	input := `{"Zeta": [{"id": "z1"}], "Alpha": [], "Mid": [{"id": "m1"}, {"id": "m2"}]}`

	got, err := ParseSnapshot(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Zeta", "Alpha", "Mid"}, got.Tables())
	assert.Equal(t, 3, got.Len())
	assert.Equal(t, 3, got.ItemCount())
	assert.Empty(t, got.Records("Alpha"))
	assert.Equal(t, "m2", got.Records("Mid")[1]["id"])
}

func TestParseSnapshot_NumbersStayExact(t *testing.T) {
	input := `{"Order": [{"id": "o1", "total": 12345678901234567890, "rate": 0.1}]}`

	got, err := ParseSnapshot(strings.NewReader(input))
	require.NoError(t, err)

	record := got.Records("Order")[0]
	assert.Equal(t, json.Number("12345678901234567890"), record["total"])
	assert.Equal(t, json.Number("0.1"), record["rate"])
}

func TestParseSnapshot_DuplicateTableKeepsFirstPosition(t *testing.T) {
	input := `{"A": [{"id": "1"}], "B": [], "A": [{"id": "2"}, {"id": "3"}]}`

	got, err := ParseSnapshot(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, got.Tables())
	assert.Len(t, got.Records("A"), 2)
}

func TestParseSnapshotNG(t *testing.T) {
	var tests = []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"array", `[{"id": "1"}]`},
		{"records not array", `{"A": {"id": "1"}}`},
		{"truncated", `{"A": [{"id": "1"}]`},
		{"trailing data", `{"A": []} {}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseSnapshot(strings.NewReader(test.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSnapshotInvalid), "got %v", err)
		})
	}
}

func TestParseSnapshot_KeepsMalformedRecords(t *testing.T) {
	input := `{"Order": [{"id":"o1"}, 42, "x", null, {"id":"o3"}]}`

	got, err := ParseSnapshot(strings.NewReader(input))
	require.NoError(t, err)

	records := got.Records("Order")
	require.Len(t, records, 5)
	assert.Equal(t, "o1", records[0]["id"])
	assert.Equal(t, "o3", records[4]["id"])

	var tests = []struct {
		index int
		raw   string
		ok    bool
	}{
		{index: 0, ok: false},
		{index: 1, raw: "42", ok: true},
		{index: 2, raw: `"x"`, ok: true},
		{index: 3, raw: "null", ok: true},
		{index: 4, ok: false},
	}

	for _, test := range tests {
		raw, ok := got.Malformed("Order", test.index)
		assert.Equal(t, test.ok, ok, "index %d", test.index)
		if test.ok {
			assert.Nil(t, records[test.index])
			assert.Equal(t, test.raw, string(raw))
		}
	}

	out, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))
}

func TestParseSnapshot_EmptyTableName(t *testing.T) {
	got, err := ParseSnapshot(strings.NewReader(`{"": [{"id":"1"}], "A": []}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"", "A"}, got.Tables())
	assert.Len(t, got.Records(""), 1)
}

func TestSnapshot_MarshalJSONRoundTrip(t *testing.T) {
	input := `{"B":[{"id":"b1","n":1}],"A":[]}`

	s, err := ParseSnapshot(strings.NewReader(input))
	require.NoError(t, err)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))
	assert.True(t, strings.Index(string(out), `"B"`) < strings.Index(string(out), `"A"`))

	var back Snapshot
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, []string{"B", "A"}, back.Tables())
}

func TestLoadSnapshot(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "backup.json")
	require.NoError(t, os.WriteFile(plain, []byte(`{"User": [{"id": "u1", "email": "a@x.com"}]}`), 0o644))

	got, err := LoadSnapshot(plain)
	require.NoError(t, err)
	assert.Equal(t, []string{"User"}, got.Tables())

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err = gz.Write([]byte(`{"Order": [{"id": "o1"}, {"id": "o2"}]}`))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	compressed := filepath.Join(dir, "backup.json.gz")
	require.NoError(t, os.WriteFile(compressed, buf.Bytes(), 0o644))

	got, err = LoadSnapshot(compressed)
	require.NoError(t, err)
	assert.Len(t, got.Records("Order"), 2)
}

func TestLoadSnapshotNG(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadSnapshot(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, ErrSnapshotNotFound), "got %v", err)

	_, err = LoadSnapshot(dir)
	assert.True(t, errors.Is(err, ErrSnapshotNotFound), "got %v", err)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"User": [`), 0o644))
	_, err = LoadSnapshot(broken)
	assert.True(t, errors.Is(err, ErrSnapshotInvalid), "got %v", err)

	notGzip := filepath.Join(dir, "plain.json.gz")
	require.NoError(t, os.WriteFile(notGzip, []byte(`{}`), 0o644))
	_, err = LoadSnapshot(notGzip)
	assert.True(t, errors.Is(err, ErrSnapshotInvalid), "got %v", err)
}

func TestRecordID(t *testing.T) {
	var tests = []struct {
		record   Record
		fallback string
		want     string
	}{
		{Record{"id": "u1"}, "pk", "u1"},
		{Record{"id": json.Number("7")}, "", "7"},
		{Record{"pk": "p1"}, "pk", "p1"},
		{Record{"pk": "p1"}, "", UNKNOWN_RECORD_ID},
		{Record{"id": nil}, "", UNKNOWN_RECORD_ID},
	}

	for _, test := range tests {
		got := RecordID(test.record, test.fallback)
		if got != test.want {
			t.Errorf("got %s, want %s", got, test.want)
		}
	}
}
