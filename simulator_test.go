package ddbrestore

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestSimulate(t *testing.T) {
	snapshot, err := ParseSnapshot(strings.NewReader(`{
		"User": [{"id": "u1", "email": "a@x.com"}, {"id": "u2", "email": "b@x.com"}],
		"Blob": [{"id": "b1", "data": "` + strings.Repeat("x", ITEM_SIZE_LIMIT) + `"}],
		"Empty": [],
		"Mixed": [{"id": "m1"}, 7, {"id": "m3"}]
	}`))
	require.NoError(t, err)

	registry, err := ParseSchemas(strings.NewReader(`
tables:
  - name: Blob
    partitionKey: {name: id}
    billingMode: PAY_PER_REQUEST
`), DefaultRegistry())
	require.NoError(t, err)

	got, err := Simulate(&SimulateOpt{Snapshot: snapshot, Schemas: registry})
	require.NoError(t, err)

	want := []TableEstimate{
		{TableName: "User", Mode: Provisioned, ItemCount: 2, TotalItemSize: 32, WriteUnits: 2},
		{TableName: "Blob", Mode: OnDemand, ItemCount: 1, TotalItemSize: ITEM_SIZE_LIMIT + 8, WriteUnits: 401, OversizeItems: []string{"b1"}},
		{TableName: "Empty", Mode: Provisioned},
		{TableName: "Mixed", Mode: Provisioned, ItemCount: 2, TotalItemSize: 8, WriteUnits: 2, MalformedItems: []int{1}},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Simulate() mismatch (-want +got):\n%s", diff)
	}
}

func TestSimulateNG_NoSnapshot(t *testing.T) {
	_, err := Simulate(&SimulateOpt{})
	require.Error(t, err)
}

func TestPrettyPrintBytes(t *testing.T) {
	var tests = []struct {
		input int
		want  string
	}{
		{999, "999.00 B"},
		{1500, "1.50 KB"},
		{2500000, "2.50 MB"},
		{3000000000, "3.00 GB"},
	}

	for _, test := range tests {
		if got := PrettyPrintBytes(test.input); got != test.want {
			t.Errorf("got %s, want %s", got, test.want)
		}
	}
}
