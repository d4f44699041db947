package render

import (
	"github.com/patrickwarner/bannerforge/internal/models"
)

// IsWide reports whether a size is treated as a horizontal strip.
func IsWide(width, height int) bool {
	return float64(width) > 1.5*float64(height)
}

// frameLayout maps unknown layouts to standard.
func frameLayout(f models.Frame) models.FrameLayout {
	if f.Layout.Valid() {
		return f.Layout
	}
	return models.LayoutStandard
}

// usedLayouts returns the distinct layouts of the frames in emission order.
func usedLayouts(frames []models.Frame) []models.FrameLayout {
	seen := make(map[models.FrameLayout]bool, len(frames))
	for _, f := range frames {
		seen[frameLayout(f)] = true
	}
	var out []models.FrameLayout
	for _, l := range models.FrameLayouts {
		if seen[l] {
			out = append(out, l)
		}
	}
	return out
}

const splitImageBackground = "rgba(0,0,0,0.03)"

// layoutRules returns the CSS for one layout.
func layoutRules(layout models.FrameLayout, wide bool) []Rule {
	prefix := ".layout-" + string(layout) + " "
	content, product, text := prefix+".content-wrapper", prefix+".product-img", prefix+".text-group"

	switch layout {
	case models.LayoutStandard:
		direction, align, textAlign := "column", "center", "center"
		maxW, maxH := "70%", "45%"
		spacing := decl("margin-bottom", "10px")
		if wide {
			direction, align, textAlign = "row", "flex-start", "left"
			maxW, maxH = "40%", "80%"
			spacing = decl("margin-right", "15px")
		}
		return []Rule{
			{Selector: content, Decls: []Decl{
				decl("flex-direction", direction),
				decl("justify-content", "center"),
				decl("align-items", "center"),
				decl("text-align", textAlign),
			}},
			{Selector: product, Decls: []Decl{decl("max-width", maxW), decl("max-height", maxH), spacing}},
			{Selector: text, Decls: []Decl{decl("align-items", align)}},
		}

	case models.LayoutSplitTop, models.LayoutSplitBottom:
		direction, justify := "column", "flex-start"
		if layout == models.LayoutSplitBottom {
			direction, justify = "column-reverse", "flex-end"
		}
		return []Rule{
			{Selector: content, Decls: []Decl{
				decl("flex-direction", direction),
				decl("justify-content", justify),
				decl("padding", "0"),
			}},
			{Selector: product, Decls: []Decl{
				decl("width", "100%"),
				decl("height", "50%"),
				decl("object-fit", "contain"),
				decl("margin", "0"),
				decl("background", splitImageBackground),
			}},
			{Selector: text, Decls: []Decl{
				decl("height", "50%"),
				decl("width", "100%"),
				decl("justify-content", "center"),
				decl("padding", "10px"),
			}},
		}

	case models.LayoutSplitLeft, models.LayoutSplitRight:
		direction, justify := "row", "flex-start"
		if layout == models.LayoutSplitRight {
			direction, justify = "row-reverse", "flex-end"
		}
		return []Rule{
			{Selector: content, Decls: []Decl{
				decl("flex-direction", direction),
				decl("justify-content", justify),
				decl("padding", "0"),
			}},
			{Selector: product, Decls: []Decl{
				decl("width", "50%"),
				decl("height", "100%"),
				decl("object-fit", "contain"),
				decl("background", splitImageBackground),
				decl("margin", "0"),
			}},
			{Selector: text, Decls: []Decl{
				decl("width", "50%"),
				decl("height", "100%"),
				decl("justify-content", "center"),
				decl("padding", "10px"),
			}},
		}

	case models.LayoutOverlay:
		return []Rule{
			{Selector: content, Decls: []Decl{
				decl("flex-direction", "column"),
				decl("justify-content", "center"),
				decl("align-items", "center"),
				decl("padding", "20px"),
			}},
			{Selector: product, Decls: []Decl{
				decl("position", "absolute"),
				decl("top", "0"),
				decl("left", "0"),
				decl("width", "100%"),
				decl("height", "100%"),
				decl("object-fit", "cover"),
				decl("z-index", "-1"),
			}},
			{Selector: text, Decls: []Decl{
				decl("background", "rgba(255,255,255,0.9)"),
				decl("padding", "15px"),
				decl("border-radius", "4px"),
				decl("box-shadow", "0 2px 4px rgba(0,0,0,0.1)"),
			}},
		}
	}
	return nil
}

// logoRule anchors and sizes the logo. Centered anchors keep their centering
// translate after the override scale.
func logoRule(pos models.LogoPosition, wide bool, o ResolvedOverride) Rule {
	decls := []Decl{
		decl("position", "absolute"),
		decl("z-index", "20"),
		decl("object-fit", "contain"),
	}

	transform := "scale(" + num(o.LogoScale) + ")"
	switch pos {
	case models.LogoTopRight:
		decls = append(decls, decl("top", "8px"), decl("right", "8px"))
	case models.LogoBottomLeft:
		decls = append(decls, decl("bottom", "8px"), decl("left", "8px"))
	case models.LogoBottomRight:
		decls = append(decls, decl("bottom", "8px"), decl("right", "8px"))
	case models.LogoTopCenter:
		decls = append(decls, decl("top", "8px"), decl("left", "50%"))
		transform += " translateX(-50%)"
	case models.LogoCenter:
		decls = append(decls, decl("top", "50%"), decl("left", "50%"), decl("z-index", "0"))
		transform += " translate(-50%, -50%)"
	default:
		decls = append(decls, decl("top", "8px"), decl("left", "8px"))
	}

	maxW, maxH := "35%", "20%"
	if wide {
		maxW, maxH = "140px", "60px"
	}
	decls = append(decls,
		decl("max-width", maxW),
		decl("max-height", maxH),
		decl("margin-left", px(o.LogoOffsetX)),
		decl("margin-top", px(o.LogoOffsetY)),
		decl("transform", transform),
		decl("transform-origin", "center"),
	)
	return Rule{Selector: ".logo", Decls: decls}
}

// imageTransform positions a background or product image inside its box.
func imageTransform(scale, x, y float64) string {
	return "scale(" + num(scale) + ") translate(" + px(x) + ", " + px(y) + ")"
}
