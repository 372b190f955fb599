package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execRoot(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))

	require.NoError(t, rootCmd.Execute(), out.String())

	return out.String()
}

func TestRunListResumeDelete(t *testing.T) {
	dir := t.TempDir()

	out := execRoot(t, "run", "--func", "sinusoparaboloid", "--iters", "2", "--seed", "3", "--data-dir", dir, "--run-id", "cli-run")
	assert.Contains(t, out, "best y:")

	out = execRoot(t, "checkpoints", "list", "--data-dir", dir)
	assert.Contains(t, out, "cli-run")
	assert.Contains(t, out, "sinusoparaboloid")

	out = execRoot(t, "resume", "cli-run", "--data-dir", dir, "--iters", "4")
	assert.Contains(t, out, "iterations:")

	execRoot(t, "checkpoints", "delete", "cli-run", "--data-dir", dir)

	out = execRoot(t, "checkpoints", "list", "--data-dir", dir)
	assert.Contains(t, out, "No checkpoints found.")
}

func TestVersion(t *testing.T) {
	assert.Contains(t, execRoot(t, "version"), "smbo version "+version)
}
