package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func useTempStore(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(t.TempDir(), "store.db"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("CACHE_BACKEND", "memory")
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no args", nil, "usage: satchmo <command>"},
		{"help", []string{"help"}, "rebuild-pricing"},
		{"unknown command", []string{"frobnicate"}, `unknown command "frobnicate"`},
		{"unknown flag", []string{"check", "--nope"}, "error:"},
		{"positional args", []string{"rebuild-pricing", "extra"}, "unrecognized args"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr)

			assert.Equal(t, 2, code)
			assert.Contains(t, stderr.String(), tt.want)
		})
	}
}

func TestRun_RebuildPricingOnEmptyStore(t *testing.T) {
	useTempStore(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"rebuild-pricing"}, &stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "rebuilt 0 price lookup rows\n", stdout.String())
}

func TestRun_BillRecurringNothingDue(t *testing.T) {
	useTempStore(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"bill-recurring", "--json"}, &stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
	assert.JSONEq(t, `{"due":0,"billed":0,"failed":0,"skipped":0}`, stdout.String())
}

func TestRun_CheckFailsWithoutPaymentModules(t *testing.T) {
	useTempStore(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"check", "-q"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "FAIL payment modules")
	assert.NotContains(t, stdout.String(), "OK ")
}
