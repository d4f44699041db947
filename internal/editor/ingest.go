package editor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/patrickwarner/bannerforge/internal/encoder"
	"github.com/patrickwarner/bannerforge/internal/models"
)

// Upload is one raw file in a batch.
type Upload struct {
	Name string
	Data []byte
}

// UploadFailure records a file that was skipped.
type UploadFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// IngestResult reports what a batch added.
type IngestResult struct {
	Added  []models.AssetItem `json:"added"`
	Failed []UploadFailure    `json:"failed"`
	// SizesKB holds the estimated size of each added item, keyed by item id.
	SizesKB   map[string]float64 `json:"sizesKb"`
	Variation models.AdState     `json:"-"`
}

// IngestAssets encodes a batch of uploads into the active variation's library.
// Each file is isolated: a file that fails to encode is logged and skipped while
// the rest of the batch continues. Nothing is written when every file fails.
func (s *Store) IngestAssets(ctx context.Context, enc encoder.Encoder, uploads []Upload, category models.AssetCategory, opts encoder.Options) (IngestResult, error) {
	if !category.Valid() {
		return IngestResult{}, fmt.Errorf("unknown asset category %q", category)
	}

	res := IngestResult{SizesKB: map[string]float64{}}
	var totalKB float64
	for _, u := range uploads {
		if err := ctx.Err(); err != nil {
			return IngestResult{}, err
		}
		url, err := enc.Encode(ctx, u.Data, opts)
		if err != nil {
			s.logger.Warn("failed to load asset", zap.String("file", u.Name), zap.Error(err))
			res.Failed = append(res.Failed, UploadFailure{Name: u.Name, Error: err.Error()})
			continue
		}
		item := models.AssetItem{
			ID:        s.newID(),
			URL:       url,
			Category:  category,
			Timestamp: s.now().UnixMilli(),
		}
		res.Added = append(res.Added, item)
		res.SizesKB[item.ID] = encoder.EncodedSizeKB(url)
		totalKB += res.SizesKB[item.ID]
	}

	if len(res.Added) == 0 {
		res.Variation = s.Active()
		return res, nil
	}
	res.Variation = s.Apply(AddLibraryAssets(res.Added, category))
	s.logger.Info("assets added",
		zap.String("variation_id", res.Variation.ID),
		zap.String("category", string(category)),
		zap.Int("added", len(res.Added)),
		zap.Int("failed", len(res.Failed)),
		zap.Float64("total_kb", totalKB),
	)
	return res, nil
}
