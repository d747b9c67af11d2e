package cli

import (
	"testing"
)

func Test_replacePathTildeOK(t *testing.T) {
	var tests = []struct {
		input string
		want  string
	}{
		{
			input: "/Users/foo/repos/github.com/shuntaka9576/ddbrestore/backup-latest.json",
			want:  "~/repos/github.com/shuntaka9576/ddbrestore/backup-latest.json",
		},
	}

	t.Setenv("HOME", "/Users/foo")

	for _, test := range tests {
		got, err := replacePathTilde(test.input)
		if err != nil {
			t.Error(err)
		}

		if got != test.want {
			t.Errorf("got %s, want %s", got, test.want)
		}
	}
}

func Test_replacePathTildeNG_HOMEisNotDefined(t *testing.T) {
	var tests = []struct {
		input string
		want  string
	}{
		{
			input: "/Users/foo/repos/github.com/shuntaka9576/ddbrestore",
			want:  "$HOME is not defined",
		},
	}

	t.Setenv("HOME", "")

	for _, test := range tests {
		_, err := replacePathTilde(test.input)
		if err == nil || err.Error() != test.want {
			t.Errorf("got %v, want %s", err, test.want)
		}
	}
}

func Test_displayPath(t *testing.T) {
	var tests = []struct {
		input string
		want  string
	}{
		{input: "/Users/foo/backup-latest.json", want: "~/backup-latest.json"},
		{input: "/etc/backup-latest.json", want: "/etc/backup-latest.json"},
		{input: "backup-latest.json", want: "backup-latest.json"},
	}

	t.Setenv("HOME", "/Users/foo")

	for _, test := range tests {
		if got := displayPath(test.input); got != test.want {
			t.Errorf("got %s, want %s", got, test.want)
		}
	}
}
