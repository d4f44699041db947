package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/patrickwarner/bannerforge/internal/models"
	"github.com/patrickwarner/bannerforge/internal/observability"
)

const (
	pngA = "data:image/png;base64,iVBORw0KGgo="
	jpgB = "data:image/jpeg;base64,/9j/4AAQ"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func newTestPackager(t *testing.T) (*Packager, *observability.MockMetricsRegistry) {
	metrics := &observability.MockMetricsRegistry{}
	p := NewPackager(zaptest.NewLogger(t), metrics)
	p.Now = func() time.Time { return fixedNow }
	return p, metrics
}

func variation(id, name string, sizes ...string) models.AdState {
	v := models.NewDefaultState(id, name, id+"-f1")
	v.SelectedSizes = sizes
	return v
}

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	files := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		files[f.Name] = b
	}
	return files
}

func names(files map[string][]byte) []string {
	out := make([]string, 0, len(files))
	for n := range files {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func TestExtractAssets_Dedup(t *testing.T) {
	state := variation("v1", "Spring", "300x250")
	state.Frames[0].Assets = models.Assets{Background: jpgB, Logo: pngA, Product: pngA}
	second := models.NewDefaultFrame("f2")
	second.Assets = models.Assets{Logo: pngA, Product: "data:image/png;base64,AAAA"}
	state.Frames = append(state.Frames, second)

	bundle, err := ExtractAssets(state)
	require.NoError(t, err)
	require.Len(t, bundle.Files, 3)
	assert.Equal(t, "assets/img_1.jpg", bundle.Rewrite[jpgB])
	assert.Equal(t, "assets/img_2.png", bundle.Rewrite[pngA])
	assert.Equal(t, "assets/img_3.png", bundle.Rewrite["data:image/png;base64,AAAA"])
}

func TestExtractAssets_LeavesNonDataURIsInline(t *testing.T) {
	state := variation("v1", "Spring", "300x250")
	state.Frames[0].Assets.Logo = "https://cdn.example.com/logo.png"

	bundle, err := ExtractAssets(state)
	require.NoError(t, err)
	assert.Empty(t, bundle.Files)
}

func TestExtractAssets_BadPayload(t *testing.T) {
	state := variation("v1", "Spring", "300x250")
	state.Frames[0].Assets.Logo = "data:image/png;base64,***"

	_, err := ExtractAssets(state)
	assert.ErrorIs(t, err, ErrInvalidDataURI)
}

func TestDecodeDataURI(t *testing.T) {
	data, err := DecodeDataURI("data:text/plain;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	data, err = DecodeDataURI("data:image/svg+xml,%3Csvg%2F%3E")
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))

	assert.Equal(t, "image/png", MediaType(pngA))
}

func TestBuildUnit_ReferencesExtractedFiles(t *testing.T) {
	p, _ := newTestPackager(t)
	state := variation("v1", "Spring", "300x250")
	state.Frames[0].Assets = models.Assets{Logo: pngA}
	second := models.NewDefaultFrame("f2")
	second.Assets.Logo = pngA
	state.Frames = append(state.Frames, second)

	data, err := p.BuildUnit(context.Background(), state, 300, 250)
	require.NoError(t, err)

	files := readZip(t, data)
	assert.Equal(t, []string{"assets/", "assets/img_1.png", "index.html"}, names(files))
	html := string(files["index.html"])
	assert.Equal(t, 2, strings.Count(html, `src="assets/img_1.png"`), "both frames reference the same file")
	assert.NotContains(t, html, "base64")
}

func TestExport_NoUnits(t *testing.T) {
	p, metrics := newTestPackager(t)
	_, err := p.Export(context.Background(), Request{Variations: []models.AdState{variation("v1", "A")}})
	assert.ErrorIs(t, err, ErrNoUnits)
	assert.Equal(t, 1, metrics.Count("exports:error"))
}

func TestExport_InvalidSize(t *testing.T) {
	p, _ := newTestPackager(t)
	_, err := p.Export(context.Background(), Request{Variations: []models.AdState{variation("v1", "A", "300by250")}})
	assert.ErrorIs(t, err, models.ErrInvalidSize)
}

func TestExport_SignedSizeKeyRejected(t *testing.T) {
	p, _ := newTestPackager(t)
	v := variation("v1", "A", "300x250", "+300x250")
	_, err := p.Export(context.Background(), Request{Variations: []models.AdState{v}})
	assert.ErrorIs(t, err, models.ErrInvalidSize, "an alias of 300x250 must not become a second unit")
}

func TestExport_SingleUnitFlat(t *testing.T) {
	p, metrics := newTestPackager(t)

	v := variation("v1", "Spring Sale", "300x250")
	archive, err := p.Export(context.Background(), Request{Variations: []models.AdState{v, variation("v2", "Empty")}})
	require.NoError(t, err)
	assert.False(t, archive.Bundle)
	assert.Equal(t, "Spring-Sale_300x250_2026-03-14.zip", archive.Name, "placeholder campaign falls back to the name")

	files := readZip(t, archive.Data)
	assert.Contains(t, files, "index.html")
	assert.NotContains(t, files, ReadmeName)
	assert.Equal(t, 1, metrics.Count("exports:single"))

	v.UTM.Campaign = "summer/26"
	archive, err = p.Export(context.Background(), Request{Variations: []models.AdState{v}})
	require.NoError(t, err)
	assert.Equal(t, "summer-26_300x250_2026-03-14.zip", archive.Name)
}

func TestExport_BundleSingleVariationFlat(t *testing.T) {
	p, _ := newTestPackager(t)
	v := variation("v1", "Spring", "300x250", "728x90")

	archive, err := p.Export(context.Background(), Request{Variations: []models.AdState{v}, ActiveVariationID: "v1"})
	require.NoError(t, err)
	assert.True(t, archive.Bundle)
	assert.Equal(t, "HTML5_Banners_Bundle_2026-03-14.zip", archive.Name)

	files := readZip(t, archive.Data)
	assert.Equal(t, []string{"300x250.zip", "728x90.zip", ReadmeName}, names(files))
	assert.Equal(t, ReadmeText, string(files[ReadmeName]))

	unit := readZip(t, files["728x90.zip"])
	assert.Contains(t, string(unit["index.html"]), `content="width=728,height=90"`)
}

func TestExport_BundlePerVariationFolders(t *testing.T) {
	p, _ := newTestPackager(t)
	a := variation("v1", "Blue", "300x250", "728x90")
	b := variation("v2", "Red", "300x250", "728x90")
	b.UTM.Campaign = "Launch"

	archive, err := p.Export(context.Background(), Request{Variations: []models.AdState{a, b}, ActiveVariationID: "v2"})
	require.NoError(t, err)
	assert.Equal(t, "Launch_Bundle_2026-03-14.zip", archive.Name)
	assert.Equal(t, 4, archive.Units)

	files := readZip(t, archive.Data)
	assert.Equal(t, []string{
		"Blue/", "Blue/300x250.zip", "Blue/728x90.zip",
		ReadmeName,
		"Red/", "Red/300x250.zip", "Red/728x90.zip",
	}, names(files))
}

func TestExport_DeterministicBytes(t *testing.T) {
	p, _ := newTestPackager(t)
	req := Request{Variations: []models.AdState{
		variation("v1", "Blue", "300x250", "728x90", "160x600"),
		variation("v2", "Red", "300x250", "320x50"),
	}}
	first, err := p.Export(context.Background(), req)
	require.NoError(t, err)
	p.Concurrency = 1
	second, err := p.Export(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first.Data, second.Data))
}

func TestExport_UnitFailureAborts(t *testing.T) {
	p, _ := newTestPackager(t)
	bad := variation("v2", "Bad", "300x250")
	bad.Frames[0].Assets.Logo = "data:image/png;base64,***"

	archive, err := p.Export(context.Background(), Request{Variations: []models.AdState{
		variation("v1", "Good", "300x250"), bad,
	}})
	assert.Nil(t, archive)
	assert.True(t, errors.Is(err, ErrInvalidDataURI))
}

func TestFolderNames(t *testing.T) {
	vs := []models.AdState{
		{ID: "1", Name: " Summer Sale "},
		{ID: "2", Name: "Summer Sale"},
		{ID: "3", Name: "   "},
		{ID: "4", Name: "Summer-Sale"},
	}
	assert.Equal(t, []string{"Summer-Sale", "Summer-Sale-2", "variation-3", "Summer-Sale-3"}, folderNames(vs))
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "a-b_c-d--", SanitizeName("a b_c-d.!"))
}
