package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/patrickwarner/bannerforge/internal/export"
	"github.com/patrickwarner/bannerforge/internal/logic/validation"
	"github.com/patrickwarner/bannerforge/internal/models"
	"github.com/patrickwarner/bannerforge/internal/storage"
)

func newTestBannerServer(t *testing.T) (*BannerServer, string) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	dir := t.TempDir()
	archives, err := storage.NewLocalStorage(dir, logger)
	require.NoError(t, err)
	return &BannerServer{
		validator: validation.NewValidator(validation.MaxBannerBytes, logger, nil),
		packager:  export.NewPackager(logger, nil),
		archives:  archives,
		logger:    logger,
	}, dir
}

func projectDoc(t *testing.T, state models.AdState) map[string]any {
	t.Helper()
	data, err := json.Marshal(state)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestRenderBanner(t *testing.T) {
	bs, _ := newTestBannerServer(t)
	doc := projectDoc(t, models.NewDefaultState("v1", "Spring", "f1"))

	_, out, err := bs.RenderBanner(context.Background(), nil, RenderInput{Project: doc})
	require.NoError(t, err)
	assert.Equal(t, "300x250", out.Size)
	assert.True(t, strings.HasPrefix(out.HTML, "<!DOCTYPE html>"))
	assert.Equal(t, len(out.HTML), out.Bytes)

	_, _, err = bs.RenderBanner(context.Background(), nil, RenderInput{Project: doc, Size: "0x90"})
	assert.ErrorIs(t, err, models.ErrInvalidSize)

	_, _, err = bs.RenderBanner(context.Background(), nil, RenderInput{Project: map[string]any{"name": "x"}})
	assert.ErrorIs(t, err, models.ErrInvalidProject)
}

func TestValidateBanner(t *testing.T) {
	bs, _ := newTestBannerServer(t)
	state := models.NewDefaultState("v1", "Spring", "f1")
	state.SelectedSizes = []string{}

	_, res, err := bs.ValidateBanner(context.Background(), nil, ProjectInput{Project: projectDoc(t, state)})
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Contains(t, res.Errors, "Select at least one ad size.")
}

func TestExportBundle(t *testing.T) {
	bs, dir := newTestBannerServer(t)
	a := models.NewDefaultState("a", "Blue", "fa")
	b := models.NewDefaultState("b", "Red", "fb")

	_, out, err := bs.ExportBundle(context.Background(), nil, ExportInput{
		Variations: []map[string]any{projectDoc(t, a), projectDoc(t, b)},
	})
	require.NoError(t, err)
	assert.True(t, out.Bundle)
	assert.Equal(t, 2, out.Units)

	matches, err := filepath.Glob(filepath.Join(dir, "*", out.Archive))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	info, err := os.Stat(matches[0])
	require.NoError(t, err)
	assert.Equal(t, int64(out.Bytes), info.Size())

	_, _, err = bs.ExportBundle(context.Background(), nil, ExportInput{})
	assert.ErrorIs(t, err, export.ErrNoUnits)
}

func TestListSizes(t *testing.T) {
	bs, _ := newTestBannerServer(t)
	_, out, err := bs.ListSizes(context.Background(), nil, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, models.AvailableSizes, out.Sizes)
	assert.NotNil(t, newMCPServer(bs))
}
