package ddbrestore

import (
	"testing"
)

func TestCheckAndFixURLSchema(t *testing.T) {
	var tests = []struct {
		input string
		want  string
	}{
		{"localhost:8000", "http://localhost:8000"},
		{"http://localhost:8000", "http://localhost:8000"},
		{"https://dynamodb.example.com", "https://dynamodb.example.com"},
	}

	for _, test := range tests {
		got := checkAndFixURLSchema(test.input)
		if got != test.want {
			t.Errorf("got %s, want %s", got, test.want)
		}
	}
}
