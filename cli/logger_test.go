package cli

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func Test_getLogLevel(t *testing.T) {
	var tests = []struct {
		input string
		want  zapcore.Level
	}{
		{input: "debug", want: zapcore.DebugLevel},
		{input: "info", want: zapcore.InfoLevel},
		{input: "warn", want: zapcore.WarnLevel},
		{input: "error", want: zapcore.ErrorLevel},
		{input: "", want: zapcore.WarnLevel},
		{input: "verbose", want: zapcore.WarnLevel},
	}

	for _, test := range tests {
		if got := getLogLevel(test.input).Level(); got != test.want {
			t.Errorf("%q: got %s, want %s", test.input, got, test.want)
		}
	}
}

func TestSetupLogger(t *testing.T) {
	logger, err := SetupLogger("debug")
	if err != nil {
		t.Fatal(err)
	}

	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug level is not enabled")
	}
}
