// Package validation checks a variation against the rules ad networks apply to
// HTML5 uploads before it is exported.
package validation

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/patrickwarner/bannerforge/internal/logic/render"
	"github.com/patrickwarner/bannerforge/internal/models"
	"github.com/patrickwarner/bannerforge/internal/observability"
)

// MaxBannerBytes is the per-size upload ceiling enforced by most ad networks.
const MaxBannerBytes = 150 * 1024

// Result is the outcome of validating one variation. IsValid is true exactly when
// Errors is empty; warnings never block export.
type Result struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validator runs the checks with a configurable size ceiling.
type Validator struct {
	MaxBytes int
	Logger   *zap.Logger
	Metrics  observability.MetricsRegistry
}

// NewValidator returns a Validator. A non-positive maxBytes selects MaxBannerBytes.
func NewValidator(maxBytes int, logger *zap.Logger, metrics observability.MetricsRegistry) *Validator {
	if maxBytes <= 0 {
		maxBytes = MaxBannerBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Validator{MaxBytes: maxBytes, Logger: logger, Metrics: metrics}
}

// Validate checks a variation with the default ceiling.
func Validate(state models.AdState) Result {
	return NewValidator(MaxBannerBytes, nil, nil).Validate(state)
}

// Validate runs every check. The size check renders each selected size with all
// assets inlined, which approximates the uncompressed upload.
func (v *Validator) Validate(state models.AdState) Result {
	res := Result{Errors: []string{}, Warnings: []string{}}

	if len(state.Frames) == 0 {
		res.Errors = append(res.Errors, "At least one frame is required.")
	}
	for i, f := range state.Frames {
		if f.Copy.Headline == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("Frame %d: Headline is required.", i+1))
		}
	}

	if len(state.SelectedSizes) == 0 {
		res.Errors = append(res.Errors, "Select at least one ad size.")
	}

	if len(state.Frames) > 0 && state.Frames[0].Assets.Background == "" && state.Design.BackgroundColor == "" {
		res.Warnings = append(res.Warnings, "No background image or color set.")
	}
	if render.ResolveFont(state.Design).External() {
		res.Warnings = append(res.Warnings, "Banner loads a web font from an external URL. Some ad networks reject external requests.")
	}

	for _, key := range state.SelectedSizes {
		w, h, err := models.ParseSizeKey(key)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Invalid ad size %q.", key))
			continue
		}
		n := len(render.RenderBanner(state, w, h, nil))
		v.Metrics.RecordRenderBytes(n)
		if n > v.MaxBytes {
			res.Errors = append(res.Errors, fmt.Sprintf(
				"Banner size %s exceeds %dKB limit (%.1fKB). Reduce image sizes or frame count.",
				key, v.MaxBytes/1024, float64(n)/1024))
		}
	}

	res.IsValid = len(res.Errors) == 0
	outcome := "valid"
	if !res.IsValid {
		outcome = "invalid"
	}
	v.Metrics.IncrementValidations(outcome)
	v.Logger.Debug("validated variation",
		zap.String("variation_id", state.ID),
		zap.Int("errors", len(res.Errors)),
		zap.Int("warnings", len(res.Warnings)),
	)
	return res
}
