package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/patrickwarner/bannerforge/internal/models"
)

func writeProject(t *testing.T, dir string, state models.AdState) string {
	t.Helper()
	data, err := models.EncodeProject(state)
	require.NoError(t, err)
	path := filepath.Join(dir, models.ProjectFileName(state.Name))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRun_Export(t *testing.T) {
	dir := t.TempDir()
	a := writeProject(t, dir, models.NewDefaultState("a", "Blue", "fa"))
	b := writeProject(t, dir, models.NewDefaultState("b", "Red", "fb"))
	out := filepath.Join(dir, "dist")

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), zaptest.NewLogger(t), []string{"-out", out, a, b}, &stdout))

	path := strings.TrimSpace(stdout.String())
	assert.Equal(t, out, filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, ".zip"))
	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestRun_ValidationFailure(t *testing.T) {
	dir := t.TempDir()
	state := models.NewDefaultState("a", "Blue", "fa")
	state.Frames[0].Copy.Headline = ""
	path := writeProject(t, dir, state)

	var stdout bytes.Buffer
	err := run(context.Background(), zaptest.NewLogger(t), []string{path}, &stdout)
	require.Error(t, err)
	assert.Contains(t, stdout.String(), "Headline is required")
}

func TestRun_Errors(t *testing.T) {
	logger := zaptest.NewLogger(t)
	assert.Error(t, run(context.Background(), logger, nil, &bytes.Buffer{}))
	assert.Error(t, run(context.Background(), logger, []string{"missing.json"}, &bytes.Buffer{}))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"name":"x"}`), 0o644))
	err := run(context.Background(), logger, []string{bad}, &bytes.Buffer{})
	assert.ErrorIs(t, err, models.ErrInvalidProject)
}
