// Package export turns variations into the archives uploaded to ad networks.
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/patrickwarner/bannerforge/internal/logic/render"
	"github.com/patrickwarner/bannerforge/internal/models"
	"github.com/patrickwarner/bannerforge/internal/observability"
)

// ErrNoUnits is returned when no variation has a selected size.
var ErrNoUnits = errors.New("select at least one size to export")

// Request is the input of one export.
type Request struct {
	Variations []models.AdState
	// ActiveVariationID picks the variation whose campaign names a bundle.
	// When it matches nothing the first variation is used.
	ActiveVariationID string
}

// Archive is a finished download.
type Archive struct {
	Name   string
	Data   []byte
	Units  int
	Bundle bool
}

// Packager builds unit and bundle archives.
type Packager struct {
	Logger  *zap.Logger
	Metrics observability.MetricsRegistry
	// Now supplies the date used in archive names and entry timestamps.
	Now func() time.Time
	// Concurrency bounds how many units are built at once. Zero means unbounded.
	Concurrency int
}

// NewPackager returns a Packager using the wall clock.
func NewPackager(logger *zap.Logger, metrics observability.MetricsRegistry) *Packager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Packager{Logger: logger, Metrics: metrics, Now: time.Now}
}

type unit struct {
	variation int
	size      string
	width     int
	height    int
}

// BuildUnit produces the archive for one variation at one size: index.html with
// images extracted to assets/.
func (p *Packager) BuildUnit(ctx context.Context, state models.AdState, width, height int) ([]byte, error) {
	return p.buildUnit(ctx, state, width, height, p.Now())
}

func (p *Packager) buildUnit(ctx context.Context, state models.AdState, width, height int, now time.Time) ([]byte, error) {
	_, span := observability.Tracer("export").Start(ctx, "export.BuildUnit")
	defer span.End()
	size := models.SizeKey(width, height)
	span.SetAttributes(
		attribute.String("variation_id", state.ID),
		attribute.String("size", size),
	)

	bundle, err := ExtractAssets(state)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("extract assets for %s: %w", size, err)
	}

	html := render.RenderBanner(state, width, height, bundle.Rewrite)
	p.Metrics.IncrementRenders(size)

	entries := make([]entry, 0, len(bundle.Files)+2)
	entries = append(entries, entry{name: "index.html", data: []byte(html)})
	if len(bundle.Files) > 0 {
		entries = append(entries, entry{name: AssetDir + "/"})
	}
	for _, f := range bundle.Files {
		entries = append(entries, entry{name: f.Path, data: f.Data})
	}

	data, err := writeZip(entries, now)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("write unit %s: %w", size, err)
	}
	return data, nil
}

// Export packages every (variation, size) pair. A single pair yields a flat unit
// archive. Several pairs yield a bundle with a README and one {size}.zip per unit,
// grouped in per-variation folders when there is more than one variation.
// Units are built concurrently; the first failure aborts the export.
func (p *Packager) Export(ctx context.Context, req Request) (*Archive, error) {
	ctx, span := observability.Tracer("export").Start(ctx, "export.Export")
	defer span.End()
	start := time.Now()
	now := p.Now()

	units, err := collectUnits(req.Variations)
	if err != nil {
		p.Metrics.IncrementExports("error")
		return nil, err
	}
	if len(units) == 0 {
		p.Metrics.IncrementExports("error")
		return nil, ErrNoUnits
	}
	span.SetAttributes(attribute.Int("units", len(units)))

	var archive *Archive
	if len(units) == 1 {
		u := units[0]
		v := req.Variations[u.variation]
		data, err := p.buildUnit(ctx, v, u.width, u.height, now)
		if err != nil {
			p.Metrics.IncrementExports("error")
			return nil, err
		}
		archive = &Archive{Name: UnitArchiveName(v, u.size, now), Data: data, Units: 1}
		p.Metrics.IncrementExports("single")
	} else {
		archive, err = p.bundle(ctx, req, units, now)
		if err != nil {
			p.Metrics.IncrementExports("error")
			span.RecordError(err)
			return nil, err
		}
		p.Metrics.IncrementExports("bundle")
	}

	p.Metrics.RecordExportDuration(time.Since(start))
	p.Metrics.RecordExportBytes(len(archive.Data))
	p.Logger.Info("export complete",
		zap.String("archive", archive.Name),
		zap.Int("units", archive.Units),
		zap.Int("bytes", len(archive.Data)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return archive, nil
}

func (p *Packager) bundle(ctx context.Context, req Request, units []unit, now time.Time) (*Archive, error) {
	results := make([][]byte, len(units))
	g, gctx := errgroup.WithContext(ctx)
	if p.Concurrency > 0 {
		g.SetLimit(p.Concurrency)
	}
	for i, u := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := p.buildUnit(gctx, req.Variations[u.variation], u.width, u.height, now)
			if err != nil {
				return fmt.Errorf("variation %s: %w", req.Variations[u.variation].ID, err)
			}
			results[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	nested := len(req.Variations) > 1
	var folders []string
	if nested {
		folders = folderNames(req.Variations)
	}

	entries := []entry{{name: ReadmeName, data: []byte(ReadmeText)}}
	if nested {
		for _, f := range folders {
			entries = append(entries, entry{name: f + "/"})
		}
	}
	for i, u := range units {
		name := u.size + ".zip"
		if nested {
			name = folders[u.variation] + "/" + name
		}
		entries = append(entries, entry{name: name, data: results[i]})
	}

	data, err := writeZip(entries, now)
	if err != nil {
		return nil, fmt.Errorf("write bundle: %w", err)
	}
	return &Archive{
		Name:   BundleArchiveName(activeVariation(req), now),
		Data:   data,
		Units:  len(units),
		Bundle: true,
	}, nil
}

// collectUnits lists every (variation, size) pair in input order. A size repeated
// within one variation is packaged once.
func collectUnits(variations []models.AdState) ([]unit, error) {
	var units []unit
	for vi, v := range variations {
		seen := make(map[string]bool, len(v.SelectedSizes))
		for _, size := range v.SelectedSizes {
			if seen[size] {
				continue
			}
			seen[size] = true
			w, h, err := models.ParseSizeKey(size)
			if err != nil {
				return nil, fmt.Errorf("variation %s: %w", v.ID, err)
			}
			units = append(units, unit{variation: vi, size: size, width: w, height: h})
		}
	}
	return units, nil
}

func activeVariation(req Request) models.AdState {
	for _, v := range req.Variations {
		if v.ID == req.ActiveVariationID {
			return v
		}
	}
	return req.Variations[0]
}
