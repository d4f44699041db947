package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/patrickwarner/bannerforge/internal/config"
	"github.com/patrickwarner/bannerforge/internal/export"
	"github.com/patrickwarner/bannerforge/internal/logic/render"
	"github.com/patrickwarner/bannerforge/internal/logic/validation"
	"github.com/patrickwarner/bannerforge/internal/models"
	"github.com/patrickwarner/bannerforge/internal/observability"
	"github.com/patrickwarner/bannerforge/internal/storage"
)

// ProjectInput carries one project document as a JSON object.
type ProjectInput struct {
	Project map[string]any `json:"project" jsonschema:"the saved project document of one variation"`
}

type RenderInput struct {
	Project map[string]any `json:"project" jsonschema:"the saved project document of one variation"`
	Size    string         `json:"size,omitempty" jsonschema:"output size as WIDTHxHEIGHT, defaults to the first selected size"`
}

type RenderOutput struct {
	Size  string `json:"size"`
	Bytes int    `json:"bytes"`
	HTML  string `json:"html"`
}

type ListSizesOutput struct {
	Sizes   []models.AdSize          `json:"sizes"`
	Presets []models.AnimationPreset `json:"presets"`
}

type ExportInput struct {
	Variations        []map[string]any `json:"variations" jsonschema:"project documents to package"`
	ActiveVariationID string           `json:"active_variation_id,omitempty" jsonschema:"variation whose campaign names a bundle"`
}

type ExportOutput struct {
	Archive  string `json:"archive"`
	Location string `json:"location"`
	Units    int    `json:"units"`
	Bundle   bool   `json:"bundle"`
	Bytes    int    `json:"bytes"`
}

// BannerServer exposes the builder's pure operations as MCP tools.
type BannerServer struct {
	validator *validation.Validator
	packager  *export.Packager
	archives  storage.ArchiveStore
	logger    *zap.Logger
}

func decodeProject(doc map[string]any) (models.AdState, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return models.AdState{}, fmt.Errorf("%w: %v", models.ErrInvalidProject, err)
	}
	return models.DecodeProject(data)
}

// ListSizes returns the standard sizes and animation presets.
func (s *BannerServer) ListSizes(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, ListSizesOutput, error) {
	return nil, ListSizesOutput{Sizes: models.AvailableSizes, Presets: models.AnimationPresets}, nil
}

// RenderBanner returns the standalone HTML document for one size.
func (s *BannerServer) RenderBanner(ctx context.Context, req *mcp.CallToolRequest, input RenderInput) (*mcp.CallToolResult, RenderOutput, error) {
	state, err := decodeProject(input.Project)
	if err != nil {
		return nil, RenderOutput{}, err
	}
	size := input.Size
	if size == "" {
		if len(state.SelectedSizes) == 0 {
			return nil, RenderOutput{}, fmt.Errorf("%w: no size selected", models.ErrInvalidSize)
		}
		size = state.SelectedSizes[0]
	}
	w, h, err := models.ParseSizeKey(size)
	if err != nil {
		return nil, RenderOutput{}, err
	}
	html := render.RenderBanner(state, w, h, nil)
	s.logger.Info("rendered banner", zap.String("variation_id", state.ID), zap.String("size", size))
	return nil, RenderOutput{Size: size, Bytes: len(html), HTML: html}, nil
}

// ValidateBanner checks a project against the export rules.
func (s *BannerServer) ValidateBanner(ctx context.Context, req *mcp.CallToolRequest, input ProjectInput) (*mcp.CallToolResult, validation.Result, error) {
	state, err := decodeProject(input.Project)
	if err != nil {
		return nil, validation.Result{}, err
	}
	return nil, s.validator.Validate(state), nil
}

// ExportBundle packages the variations and stores the archive.
func (s *BannerServer) ExportBundle(ctx context.Context, req *mcp.CallToolRequest, input ExportInput) (*mcp.CallToolResult, ExportOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	exportReq := export.Request{ActiveVariationID: input.ActiveVariationID}
	for i, doc := range input.Variations {
		state, err := decodeProject(doc)
		if err != nil {
			return nil, ExportOutput{}, fmt.Errorf("variation %d: %w", i, err)
		}
		exportReq.Variations = append(exportReq.Variations, state)
	}
	archive, err := s.packager.Export(ctx, exportReq)
	if err != nil {
		return nil, ExportOutput{}, err
	}
	stored, err := s.archives.Put(ctx, archive.Name, archive.Data)
	if err != nil {
		return nil, ExportOutput{}, err
	}
	s.logger.Info("exported banners",
		zap.String("archive", archive.Name),
		zap.Int("units", archive.Units),
		zap.String("location", stored.Location))
	return nil, ExportOutput{
		Archive:  archive.Name,
		Location: stored.Location,
		Units:    archive.Units,
		Bundle:   archive.Bundle,
		Bytes:    len(archive.Data),
	}, nil
}

func newMCPServer(bs *BannerServer) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "bannerforge",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_sizes",
		Description: "List the standard ad sizes and animation presets",
	}, bs.ListSizes)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "render_banner",
		Description: "Render one variation as a standalone HTML5 banner document",
	}, bs.RenderBanner)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_banner",
		Description: "Check a variation for missing copy, missing sizes and the per-unit size limit",
	}, bs.ValidateBanner)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "export_bundle",
		Description: "Package variations into an ad-network ready zip archive and store it",
	}, bs.ExportBundle)
	return server
}

func main() {
	// Logs go to stderr; stdout carries the protocol.
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.MessageKey = "msg"

	logger, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("bannerforge-mcp").With(zap.String("service", "bannerforge-mcp"))

	cfg := config.Load()
	archives, err := storage.NewLocalStorage(cfg.StorageDir, logger.Named("storage"))
	if err != nil {
		logger.Fatal("Failed to open archive directory", zap.Error(err))
	}

	metrics := observability.NewNoOpRegistry()
	packager := export.NewPackager(logger.Named("export"), metrics)
	packager.Concurrency = cfg.ExportConcurrency

	server := newMCPServer(&BannerServer{
		validator: validation.NewValidator(cfg.MaxBannerBytes(), logger.Named("validation"), metrics),
		packager:  packager,
		archives:  archives,
		logger:    logger,
	})

	var logBuffer bytes.Buffer
	transport := &mcp.LoggingTransport{
		Transport: &mcp.StdioTransport{},
		Writer:    &logBuffer,
	}

	logger.Info("MCP server running via stdio", zap.String("archives", cfg.StorageDir))
	if err := server.Run(context.Background(), transport); err != nil {
		logger.Fatal("Server error", zap.Error(err), zap.String("mcp_logs", logBuffer.String()))
	}
}
