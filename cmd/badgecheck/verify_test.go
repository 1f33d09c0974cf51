package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capiscio/badgecheck/pkg/report"
	"github.com/capiscio/badgecheck/pkg/state"
	"github.com/capiscio/badgecheck/pkg/tasks"
	"github.com/capiscio/badgecheck/pkg/verifier"
)

func resetFlags(t *testing.T) {
	t.Helper()
	flagJSON, flagConfig, flagRecipients = false, "", nil
	flagMaxDepth, flagNoCache, flagCacheTTL = 0, false, 0
	flagLogLevel, flagLogFormat = "", ""
	t.Cleanup(func() {
		flagConfig, flagRecipients = "", nil
		flagMaxDepth, flagNoCache, flagCacheTTL = 0, false, 0
	})
}

func TestParseRecipients(t *testing.T) {
	profile, err := parseRecipients([]string{
		"email:a@example.org",
		"EMAIL: b@example.org",
		"url:https://example.org/me",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"email": {"a@example.org", "b@example.org"},
		"url":   {"https://example.org/me"},
	}, profile)

	for _, bad := range []string{"nocolon", ":value", "email:"} {
		_, err := parseRecipients([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestBuildConfig_FlagsOverrideFile(t *testing.T) {
	resetFlags(t)
	path := filepath.Join(t.TempDir(), "badgecheck.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
max_validation_depth = 3
user_agent = "from-file"
cache {
  ttl = "1m"
}
recipient "email" {
  identities = ["file@example.org"]
}
`), 0o600))

	flagConfig = path
	flagMaxDepth = 5
	flagNoCache = true

	cfg, file, err := buildConfig(&bytes.Buffer{})
	require.NoError(t, err)
	require.NotNil(t, file)

	assert.Equal(t, 5, cfg.MaxValidationDepth)
	assert.Equal(t, "from-file", cfg.UserAgent)
	assert.False(t, cfg.CacheEnabled)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, map[string][]string{"email": {"file@example.org"}}, file.RecipientProfile())
}

func TestBuildConfig_MissingFile(t *testing.T) {
	resetFlags(t)
	flagConfig = filepath.Join(t.TempDir(), "missing.hcl")

	_, _, err := buildConfig(&bytes.Buffer{})
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger("info", "json", &buf)
	log.Info("hello", "k", "v")
	log.V(1).Info("hidden")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
	assert.NotContains(t, buf.String(), "hidden")
}

func TestRunVerify_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badge.txt")
	require.NoError(t, os.WriteFile(path, []byte("this is not a badge"), 0o600))

	v := verifier.New(&verifier.Config{Now: func() time.Time { return time.Unix(0, 0) }})
	result, err := runVerify(context.Background(), v, path, verifier.VerifyOptions{})
	require.NoError(t, err)
	assert.False(t, result.Report.Valid)
	assert.Equal(t, 1, result.Report.ErrorCount)
}

func TestPrintText(t *testing.T) {
	result := &report.Result{
		Input: state.Input{Type: state.InputURL},
		Report: report.Summary{
			ValidationSubject: "https://example.org/assertion",
			OpenBadgesVersion: "2.0",
		},
	}
	result.Report.AddWarning(tasks.NameHostedIDInVerificationScope, "hosted elsewhere", "", "")

	var buf bytes.Buffer
	result.Report.Valid = true
	printText(&buf, result)
	out := buf.String()
	assert.Contains(t, out, "https://example.org/assertion is VALID")
	assert.Contains(t, out, "Open Badges version: 2.0")
	assert.Contains(t, out, "Errors: 0, Warnings: 1")
	assert.Contains(t, out, "[HOSTED_ID_IN_VERIFICATION_SCOPE] hosted elsewhere")

	buf.Reset()
	result.Report.AddError(tasks.NameVerifyJWS, "bad signature", "", "")
	printText(&buf, result)
	assert.Contains(t, buf.String(), "is INVALID")
}

func TestVerifyCommand_InvalidBadgeReportedOnce(t *testing.T) {
	resetFlags(t)
	path := filepath.Join(t.TempDir(), "badge.txt")
	require.NoError(t, os.WriteFile(path, []byte("this is not a badge"), 0o600))

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"verify", path})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	assert.ErrorIs(t, err, errInvalid)
	assert.Equal(t, 1, strings.Count(stdout.String(), "is INVALID"))
	assert.NotContains(t, stderr.String(), errInvalid.Error())
	assert.NotContains(t, stderr.String(), "Usage:")
}
