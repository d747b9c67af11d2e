//go:build integration

package integration_test

import (
	"fmt"
	"os"
	"time"

	util "github.com/shuntaka9576/ddbrestore/internal/testingutil"
)

func localEndpoint() string {
	if env := os.Getenv("DDBRESTORE_LOCAL"); env != "" {
		return env
	}

	return util.DEFAULT_LOCAL_ENDPOINT
}

func uniqueTableName(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
}

func localEnv() []string {
	return []string{
		"HOME=" + os.Getenv("HOME"),
		"AWS_ACCESS_KEY_ID=dummy",
		"AWS_SECRET_ACCESS_KEY=dummy",
		"AWS_REGION=ap-southeast-1",
	}
}
