package render

import (
	"math"

	"github.com/patrickwarner/bannerforge/internal/models"
)

// ResolvedOverride is a size override with every field filled in.
type ResolvedOverride struct {
	FontScale float64

	TextOffsetX float64
	TextOffsetY float64

	LogoScale   float64
	LogoOffsetX float64
	LogoOffsetY float64

	BgScale   float64
	BgOffsetX float64
	BgOffsetY float64

	ProductScale   float64
	ProductOffsetX float64
	ProductOffsetY float64
}

// ResolveOverride merges the override stored for width×height with the design-level
// settings. Each field falls back independently: font scale to the design's scale,
// image scales to 1 and offsets to 0.
func ResolveOverride(state models.AdState, width, height int) ResolvedOverride {
	o := state.Override(width, height)
	return ResolvedOverride{
		FontScale:      orDefault(o.FontSizeScale, state.Design.FontSizeScale),
		TextOffsetX:    orDefault(o.TextOffsetX, 0),
		TextOffsetY:    orDefault(o.TextOffsetY, 0),
		LogoScale:      orDefault(o.LogoScale, 1),
		LogoOffsetX:    orDefault(o.LogoOffsetX, 0),
		LogoOffsetY:    orDefault(o.LogoOffsetY, 0),
		BgScale:        nonZero(orDefault(o.BgScale, 1), 1),
		BgOffsetX:      orDefault(o.BgOffsetX, 0),
		BgOffsetY:      orDefault(o.BgOffsetY, 0),
		ProductScale:   nonZero(orDefault(o.ProductScale, 1), 1),
		ProductOffsetX: orDefault(o.ProductOffsetX, 0),
		ProductOffsetY: orDefault(o.ProductOffsetY, 0),
	}
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// nonZero keeps a zero scale from collapsing an image to nothing.
func nonZero(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// TypeScale holds the whole-pixel font sizes of a rendered size.
type TypeScale struct {
	Base     float64
	Headline int
	Subline  int
	CTA      int
}

// Typography derives font sizes from the banner's smaller dimension. A non-positive
// scale is treated as 1.
func Typography(width, height int, scale float64) TypeScale {
	if scale <= 0 {
		scale = 1
	}
	base := math.Max(12, math.Round(float64(min(width, height))/10)) * scale
	return TypeScale{
		Base:     base,
		Headline: int(math.Round(base * 1.6)),
		Subline:  int(math.Round(base * 1.0)),
		CTA:      int(math.Round(base * 0.9)),
	}
}
