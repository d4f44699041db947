package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/patrickwarner/bannerforge/internal/analytics"
	"github.com/patrickwarner/bannerforge/internal/export"
	"github.com/patrickwarner/bannerforge/internal/middleware"
	"github.com/patrickwarner/bannerforge/internal/models"
	"github.com/patrickwarner/bannerforge/internal/observability"
	"github.com/patrickwarner/bannerforge/internal/storage"
	"github.com/patrickwarner/bannerforge/internal/token"
)

// exportBody is the request of POST /api/export. A body without "variations"
// is read as a single project document.
type exportBody struct {
	Variations        []json.RawMessage `json:"variations"`
	ActiveVariationID string            `json:"activeVariationId"`
}

// exportResponse is returned instead of the archive when it is stored.
type exportResponse struct {
	storage.Stored
	Units  int    `json:"units"`
	Bundle bool   `json:"bundle"`
	URL    string `json:"url"`
}

// ExportHandler packages one or more projects into a zip archive.
func (s *Server) ExportHandler(w http.ResponseWriter, r *http.Request) {
	data, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := decodeExportRequest(data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.export(w, r, req)
}

// ExportWorkspace packages every variation of the editing workspace.
func (s *Server) ExportWorkspace(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, export.Request{Variations: s.Editor.Variations(), ActiveVariationID: s.Editor.ActiveID()})
}

func decodeExportRequest(data []byte) (export.Request, error) {
	var body exportBody
	if err := json.Unmarshal(data, &body); err != nil {
		return export.Request{}, fmt.Errorf("%w: %v", models.ErrInvalidProject, err)
	}
	if body.Variations == nil {
		state, err := models.DecodeProject(data)
		if err != nil {
			return export.Request{}, err
		}
		return export.Request{Variations: []models.AdState{state}, ActiveVariationID: state.ID}, nil
	}
	req := export.Request{ActiveVariationID: body.ActiveVariationID}
	for i, raw := range body.Variations {
		state, err := models.DecodeProject(raw)
		if err != nil {
			return export.Request{}, fmt.Errorf("variation %d: %w", i, err)
		}
		req.Variations = append(req.Variations, state)
	}
	return req, nil
}

// export runs a rate-limited export and either streams the archive or, with
// ?store=true, keeps it in the archive store and returns its location.
func (s *Server) export(w http.ResponseWriter, r *http.Request, req export.Request) {
	client := middleware.ClientKey(r)
	if !s.Limiter.Allow(client) {
		secs := int(math.Ceil(s.Limiter.RetryAfter(client).Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
		s.writeError(w, r, errRateLimited)
		return
	}
	store, _ := strconv.ParseBool(r.URL.Query().Get("store"))
	if store && s.Archives == nil {
		s.writeError(w, r, fmt.Errorf("archive storage: %w", errUnavailable))
		return
	}

	ctx, span := observability.Tracer("api").Start(r.Context(), "api.Export")
	defer span.End()
	if s.Config.ExportTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Config.ExportTimeout)
		defer cancel()
	}

	start := s.Now()
	archive, err := s.Packager.Export(ctx, req)
	s.recordExport(ctx, r, req, archive, s.Now().Sub(start), err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	span.SetAttributes(
		attribute.String("archive", archive.Name),
		attribute.Int("units", archive.Units),
		attribute.Bool("bundle", archive.Bundle),
	)
	if s.Cache != nil {
		if _, err := s.Cache.IncrementExports(ctx, s.Now()); err != nil {
			s.logger(r).Warn("increment export counter", zap.Error(err))
		}
	}

	if store {
		stored, err := s.Archives.Put(ctx, archive.Name, archive.Data)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		url, err := s.downloadURL(stored.Key)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, exportResponse{
			Stored: stored,
			Units:  archive.Units,
			Bundle: archive.Bundle,
			URL:    url,
		})
		return
	}

	w.Header().Set("Content-Type", storage.ContentTypeZip)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archive.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(archive.Data)))
	_, _ = w.Write(archive.Data)
}

// recordExport sends the export attempt to analytics, failed attempts included.
func (s *Server) recordExport(ctx context.Context, r *http.Request, req export.Request, archive *export.Archive, took time.Duration, exportErr error) {
	if s.Analytics == nil {
		return
	}
	ids := make([]string, 0, len(req.Variations))
	var sizes []string
	for _, v := range req.Variations {
		ids = append(ids, v.ID)
		for _, k := range v.SelectedSizes {
			if !slices.Contains(sizes, k) {
				sizes = append(sizes, k)
			}
		}
	}
	var name string
	var units, size int
	if archive != nil {
		name, units, size = archive.Name, archive.Units, len(archive.Data)
	}
	if err := s.Analytics.RecordExport(ctx, name, ids, sizes, units, size, took, exportErr); err != nil && !errors.Is(err, analytics.ErrUnavailable) {
		s.logger(r).Warn("record export event", zap.Error(err))
	}
}

// downloadURL links to a stored archive, signed when a download secret is set.
func (s *Server) downloadURL(key string) (string, error) {
	url := "/api/exports/" + key
	if s.Config.DownloadSecret == "" {
		return url, nil
	}
	tok, err := token.Generate(key, s.Now(), []byte(s.Config.DownloadSecret))
	if err != nil {
		return "", fmt.Errorf("sign download: %w", err)
	}
	return url + "?token=" + tok, nil
}

// archiveKey reads the archive key from the route. When a download secret is
// configured the request must carry a token issued for this key.
func (s *Server) archiveKey(r *http.Request) (string, error) {
	vars := mux.Vars(r)
	key := vars["prefix"] + "/" + vars["name"]
	if s.Config.DownloadSecret == "" {
		return key, nil
	}
	signed, err := token.Verify(r.URL.Query().Get("token"), []byte(s.Config.DownloadSecret), s.Config.DownloadTTL, s.Now())
	if err != nil {
		return "", err
	}
	if signed != key {
		return "", token.ErrInvalid
	}
	return key, nil
}

// DeleteArchiveHandler removes a stored archive. It accepts the same signed
// link as the download.
func (s *Server) DeleteArchiveHandler(w http.ResponseWriter, r *http.Request) {
	if s.Archives == nil {
		s.writeError(w, r, fmt.Errorf("archive storage: %w", errUnavailable))
		return
	}
	key, err := s.archiveKey(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Archives.Delete(r.Context(), key); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger(r).Info("archive deleted", zap.String("key", key))
	w.WriteHeader(http.StatusNoContent)
}

// DownloadArchiveHandler streams a stored archive.
func (s *Server) DownloadArchiveHandler(w http.ResponseWriter, r *http.Request) {
	if s.Archives == nil {
		s.writeError(w, r, fmt.Errorf("archive storage: %w", errUnavailable))
		return
	}
	key, err := s.archiveKey(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rc, err := s.Archives.Open(r.Context(), key)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer func() {
		if err := rc.Close(); err != nil {
			s.logger(r).Warn("close archive", zap.Error(err))
		}
	}()
	w.Header().Set("Content-Type", storage.ContentTypeZip)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", storage.NameOf(key)))
	if _, err := io.Copy(w, rc); err != nil {
		s.logger(r).Warn("stream archive", zap.String("key", key), zap.Error(err))
	}
}
